// Package websocket streams conversation turns between a device and the
// pipeline over a gorilla/websocket connection.
package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/vaanihq/vaani/domain/entities"
)

// Message type values of the turn protocol.
const (
	// TypeTurnStart opens a turn. A turn already in flight on the same
	// connection is cancelled.
	TypeTurnStart = "turn_start"
	// TypeTextChunk carries one recognized text fragment of the open turn.
	TypeTextChunk = "text_chunk"
	// TypeTurnEnd closes the utterance and triggers reasoning.
	TypeTurnEnd = "turn_end"

	// TypeAudioStart opens an audio turn: the device streams raw speech and
	// the server runs recognition itself.
	TypeAudioStart = "audio_start"
	// TypeAudioChunk carries one base64-encoded audio chunk of the open
	// audio turn.
	TypeAudioChunk = "audio_chunk"
	// TypeAudioEnd closes the utterance and triggers recognition, reasoning,
	// and synthesis.
	TypeAudioEnd = "audio_end"

	// TypeSentence is one finalized response sentence, server → device.
	TypeSentence = "sentence"
	// TypeAudio is one base64-encoded chunk of a synthesized sentence,
	// server → device. A frame with Final set closes the sentence's audio.
	TypeAudio = "audio"
	// TypeTurnComplete signals that all sentences of the turn were sent.
	TypeTurnComplete = "turn_complete"
	// TypeError reports a turn-level failure.
	TypeError = "error"
)

// Envelope is the wire frame of every protocol message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// TurnStart opens a turn.
type TurnStart struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Language       string `json:"language"`
	Domain         string `json:"domain"`
	Segment        string `json:"segment,omitempty"`
}

// TextChunk carries a recognized text fragment.
type TextChunk struct {
	Text string `json:"text"`
}

// AudioStart opens an audio turn.
type AudioStart struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Language       string `json:"language"`
	Domain         string `json:"domain"`
	Segment        string `json:"segment,omitempty"`
	SampleRate     int    `json:"sample_rate"`
	Encoding       string `json:"encoding"`
}

// AudioChunk carries one base64-encoded chunk of caller speech.
type AudioChunk struct {
	Data string `json:"data"`
}

// AudioFrame is one base64-encoded chunk of a synthesized sentence.
type AudioFrame struct {
	TurnID string `json:"turn_id"`
	Seq    int    `json:"seq"`
	Data   string `json:"data,omitempty"`
	Final  bool   `json:"final,omitempty"`
}

// Sentence is one response sentence ready for synthesis.
type Sentence struct {
	TurnID string `json:"turn_id"`
	Seq    int    `json:"seq"`
	Text   string `json:"text"`
}

// TurnComplete closes a turn on the wire.
type TurnComplete struct {
	TurnID         string `json:"turn_id"`
	ConversationID string `json:"conversation_id"`
}

// ErrorMessage reports a failure to the device.
type ErrorMessage struct {
	TurnID  string `json:"turn_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Encode wraps a payload in an Envelope and marshals it.
func Encode(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}

// DecodeTurnStart parses and validates a turn_start payload.
func DecodeTurnStart(data json.RawMessage) (TurnStart, error) {
	var ts TurnStart
	if err := json.Unmarshal(data, &ts); err != nil {
		return TurnStart{}, fmt.Errorf("parsing turn_start: %w", err)
	}
	if ts.Language == "" {
		return TurnStart{}, fmt.Errorf("turn_start: language is required")
	}
	if ts.Domain == "" {
		return TurnStart{}, fmt.Errorf("turn_start: domain is required")
	}
	if !entities.Language(ts.Language).Supported() {
		return TurnStart{}, fmt.Errorf("turn_start: unsupported language %q", ts.Language)
	}
	return ts, nil
}

// DecodeAudioStart parses and validates an audio_start payload.
func DecodeAudioStart(data json.RawMessage) (AudioStart, error) {
	var as AudioStart
	if err := json.Unmarshal(data, &as); err != nil {
		return AudioStart{}, fmt.Errorf("parsing audio_start: %w", err)
	}
	if as.Language == "" {
		return AudioStart{}, fmt.Errorf("audio_start: language is required")
	}
	if as.Domain == "" {
		return AudioStart{}, fmt.Errorf("audio_start: domain is required")
	}
	if !entities.Language(as.Language).Supported() {
		return AudioStart{}, fmt.Errorf("audio_start: unsupported language %q", as.Language)
	}
	if as.SampleRate <= 0 {
		return AudioStart{}, fmt.Errorf("audio_start: sample_rate is required")
	}
	if as.Encoding == "" {
		return AudioStart{}, fmt.Errorf("audio_start: encoding is required")
	}
	return as, nil
}
