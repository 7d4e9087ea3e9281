package translate

import (
	"context"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
)

// FallbackBackend tries a primary translation backend and, if it fails,
// retries the same request on a secondary one. Only when both fail does the
// caller see an error.
type FallbackBackend struct {
	primary   repositories.TranslationBackend
	secondary repositories.TranslationBackend
	logger    *zap.Logger
}

// NewFallbackBackend wraps primary with secondary as the fallback.
func NewFallbackBackend(primary, secondary repositories.TranslationBackend, logger *zap.Logger) *FallbackBackend {
	return &FallbackBackend{primary: primary, secondary: secondary, logger: logger}
}

func (f *FallbackBackend) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *FallbackBackend) Translate(ctx context.Context, text string, from, to entities.Language) (string, error) {
	translated, err := f.primary.Translate(ctx, text, from, to)
	if err == nil {
		return translated, nil
	}
	f.logger.Warn("primary translation backend failed, trying fallback",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.secondary.Name()),
		zap.Error(err))
	return f.secondary.Translate(ctx, text, from, to)
}
