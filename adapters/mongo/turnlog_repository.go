package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
)

// TurnLogRepository persists turn records in the turn_logs collection.
type TurnLogRepository struct {
	collection *mongo.Collection
}

// NewTurnLogRepository creates a MongoDB turn-log repository.
func NewTurnLogRepository(db *mongo.Database) repositories.TurnLogRepository {
	return &TurnLogRepository{
		collection: db.Collection("turn_logs"),
	}
}

// Create implements repositories.TurnLogRepository.
func (r *TurnLogRepository) Create(ctx context.Context, record *entities.TurnRecord) error {
	if record == nil {
		return errors.New("turn record cannot be nil")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.ID == "" {
		record.ID = primitive.NewObjectID().Hex()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert turn record: %w", err)
	}
	return nil
}

// ListByConversation implements repositories.TurnLogRepository, returning
// records in turn order.
func (r *TurnLogRepository) ListByConversation(ctx context.Context, conversationID string) ([]entities.TurnRecord, error) {
	if conversationID == "" {
		return nil, errors.New("conversation ID cannot be empty")
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query turn records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []entities.TurnRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode turn records: %w", err)
	}
	return records, nil
}
