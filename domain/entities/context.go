package entities

import "github.com/google/uuid"

// ProcessContext is the immutable per-turn value read by every pipeline
// stage. It is created once when a turn begins and discarded at turn end;
// stages never mutate it.
type ProcessContext struct {
	// CustomerLanguage is the language the caller speaks this turn.
	CustomerLanguage Language
	// Domain identifies the loaded domain configuration (vocabulary, rules).
	Domain string
	// Segment is an optional customer segment tag for telemetry.
	Segment string
	// ConversationID groups the turns of one call.
	ConversationID string
	// TurnID identifies a single utterance/response exchange.
	TurnID string
}

// NewProcessContext creates the context for one turn. An empty conversation
// id starts a new conversation.
func NewProcessContext(language Language, domain string, conversationID string) ProcessContext {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	return ProcessContext{
		CustomerLanguage: language,
		Domain:           domain,
		ConversationID:   conversationID,
		TurnID:           uuid.NewString(),
	}
}

// WithSegment returns a copy carrying the customer segment tag.
func (pc ProcessContext) WithSegment(segment string) ProcessContext {
	pc.Segment = segment
	return pc
}

// Script is the writing system of the customer language, used for terminator
// and number-convention selection.
func (pc ProcessContext) Script() Script {
	return pc.CustomerLanguage.Script()
}
