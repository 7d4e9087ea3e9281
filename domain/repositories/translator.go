package repositories

import (
	"context"

	"github.com/vaanihq/vaani/domain/entities"
)

// TranslationBackend abstracts the service converting text between the
// customer language and the pivot language.
type TranslationBackend interface {
	// Translate converts text from one language to another.
	Translate(ctx context.Context, text string, from, to entities.Language) (string, error)
	// Name identifies the provider for telemetry.
	Name() string
}
