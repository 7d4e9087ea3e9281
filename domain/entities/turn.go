package entities

import "time"

// TurnRecord is the persisted trace of one turn. Both transcript fields hold
// the log-destination redaction of the original text; raw PII never reaches
// storage.
type TurnRecord struct {
	ID             string    `bson:"_id,omitempty"`
	ConversationID string    `bson:"conversation_id"`
	TurnID         string    `bson:"turn_id"`
	Domain         string    `bson:"domain"`
	Language       Language  `bson:"language"`
	UserText       string    `bson:"user_text"`
	AgentText      string    `bson:"agent_text"`
	Compliant      bool      `bson:"compliant"`
	StageDurations []StageDuration `bson:"stage_durations,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
}

// StageDuration is one stage's processing time within a turn, kept for
// latency-budget observability.
type StageDuration struct {
	Stage    string        `bson:"stage"`
	Duration time.Duration `bson:"duration"`
}
