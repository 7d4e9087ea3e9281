package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/vaanihq/vaani/domain/repositories"
)

// Mock is a canned LanguageModel for local runs without an API key.
type Mock struct {
	// Response overrides the canned reply when set.
	Response string
}

// NewMock creates a mock language model.
func NewMock() repositories.LanguageModel {
	return &Mock{}
}

// Generate implements repositories.LanguageModel.
func (m *Mock) Generate(_ context.Context, prompt string, _ repositories.GenerateOptions) (string, error) {
	if m.Response != "" {
		return m.Response, nil
	}
	return fmt.Sprintf("I understand. Regarding %q, a representative can share the full details. Is there anything else I can help with?",
		firstWords(prompt, 6)), nil
}

// GenerateStream implements repositories.LanguageModel, emitting the canned
// reply in small chunks to exercise sentence accumulation downstream.
func (m *Mock) GenerateStream(ctx context.Context, prompt string, opts repositories.GenerateOptions) (<-chan string, error) {
	text, err := m.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	out := make(chan string)
	go func() {
		defer close(out)
		words := strings.Fields(text)
		for i := 0; i < len(words); i += 3 {
			end := i + 3
			if end > len(words) {
				end = len(words)
			}
			chunk := strings.Join(words[i:end], " ")
			if end < len(words) {
				chunk += " "
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
