package translate

import (
	"context"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
)

// Mock is an identity translation backend for local runs without a remote
// provider. Text passes through untouched.
type Mock struct{}

// NewMock creates the mock backend.
func NewMock() repositories.TranslationBackend {
	return Mock{}
}

func (Mock) Name() string { return "mock" }

func (Mock) Translate(_ context.Context, text string, _, _ entities.Language) (string, error) {
	return text, nil
}
