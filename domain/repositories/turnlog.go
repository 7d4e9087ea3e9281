package repositories

import (
	"context"

	"github.com/vaanihq/vaani/domain/entities"
)

// TurnLogRepository persists the redacted trace of completed turns.
type TurnLogRepository interface {
	Create(ctx context.Context, record *entities.TurnRecord) error
	ListByConversation(ctx context.Context, conversationID string) ([]entities.TurnRecord, error)
}
