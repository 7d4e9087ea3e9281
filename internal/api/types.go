package api

import "time"

// DeviceAuthRequest is the body of POST /api/v1/device/auth.
type DeviceAuthRequest struct {
	DeviceID     string `json:"device_id"`
	DeviceSecret string `json:"device_secret"`
}

// DeviceAuthResponse carries the issued token.
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TurnRequest is the body of POST /api/v1/turn, the single-shot (non
// streaming) entry point.
type TurnRequest struct {
	Text           string `json:"text"`
	Language       string `json:"language"`
	Domain         string `json:"domain,omitempty"`
	Segment        string `json:"segment,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// TurnResponse is the processed agent utterance.
type TurnResponse struct {
	ConversationID string `json:"conversation_id"`
	TurnID         string `json:"turn_id"`
	Text           string `json:"text"`
}

// TurnHistoryEntry is one redacted turn of a conversation.
type TurnHistoryEntry struct {
	TurnID    string    `json:"turn_id"`
	Language  string    `json:"language"`
	UserText  string    `json:"user_text"`
	AgentText string    `json:"agent_text"`
	Compliant bool      `json:"compliant"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationHistoryResponse lists the redacted turns of one conversation.
type ConversationHistoryResponse struct {
	ConversationID string             `json:"conversation_id"`
	Turns          []TurnHistoryEntry `json:"turns"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
