package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/vaanihq/vaani/domain/repositories"
)

// Mock is a synthesizer for local runs and tests: it returns the sentence's
// own bytes as a single audio chunk.
type Mock struct{}

// NewMock creates a mock synthesizer.
func NewMock() *Mock {
	return &Mock{}
}

var _ repositories.TextToSpeech = (*Mock)(nil)

// SynthesizeSentence implements repositories.TextToSpeech.
func (m *Mock) SynthesizeSentence(_ context.Context, sentence string) (<-chan []byte, error) {
	if strings.TrimSpace(sentence) == "" {
		return nil, fmt.Errorf("sentence cannot be empty")
	}
	out := make(chan []byte, 1)
	out <- []byte(sentence)
	close(out)
	return out, nil
}
