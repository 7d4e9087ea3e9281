// Package translate converts text between the turn's customer language and
// the pivot language the reasoning component operates in. One stage instance
// handles one direction; the input pipeline translates into the pivot and
// the output pipeline translates back.
package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/pipeline"
)

// Direction selects which way this stage translates.
type Direction int

const (
	// ToPivot translates customer language → pivot (before reasoning).
	ToPivot Direction = iota
	// FromPivot translates pivot → customer language (after reasoning).
	FromPivot
)

// Config tunes the stage.
type Config struct {
	Enabled bool
	Timeout time.Duration
}

// DefaultConfig allows generous headroom for remote translation backends.
func DefaultConfig() Config {
	return Config{Enabled: true, Timeout: 3 * time.Second}
}

// Stage is the translation stage.
type Stage struct {
	cfg       Config
	direction Direction
	backend   repositories.TranslationBackend
	logger    *zap.Logger
}

// New builds the stage for one direction.
func New(cfg Config, direction Direction, backend repositories.TranslationBackend, logger *zap.Logger) *Stage {
	return &Stage{cfg: cfg, direction: direction, backend: backend, logger: logger}
}

func (s *Stage) Name() string {
	if s.direction == ToPivot {
		return "translator_to_pivot"
	}
	return "translator_from_pivot"
}

func (s *Stage) Enabled() bool { return s.cfg.Enabled }

// Process translates one text unit. When the customer language already is
// the pivot, the text passes through with zero transformation cost and no
// backend call. A backend failure is recovered locally: the untranslated
// text passes onward and the failure is logged under the stage's name.
func (s *Stage) Process(ctx context.Context, text string, pc entities.ProcessContext) (string, error) {
	from, to := s.languagePair(pc)
	if from == to {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	translated, err := s.backend.Translate(ctx, text, from, to)
	if err != nil {
		s.logger.Warn("translation failed, passing text through untranslated",
			zap.String("stage", s.Name()),
			zap.String("backend", s.backend.Name()),
			zap.String("turnID", pc.TurnID),
			zap.Error(fmt.Errorf("%w: %v", entities.ErrTranslationFailure, err)))
		return text, nil
	}
	return translated, nil
}

// ProcessStream translates each completed sentence independently as soon as
// it is available; a failure on one sentence is reported on that item alone
// and never blocks the sentences behind it. Items flagged by an upstream
// stage are translated all the same, so a degraded sentence still reaches
// the safety stages downstream in the customer's language.
func (s *Stage) ProcessStream(ctx context.Context, in <-chan pipeline.Item, pc entities.ProcessContext) <-chan pipeline.Item {
	out := make(chan pipeline.Item)
	go func() {
		defer close(out)
		from, to := s.languagePair(pc)
		for item := range in {
			if from != to {
				callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
				translated, err := s.backend.Translate(callCtx, item.Text, from, to)
				cancel()
				if err != nil {
					stageErr := entities.NewStageError(s.Name(),
						fmt.Errorf("%w: %v", entities.ErrTranslationFailure, err))
					if item.Err == nil {
						item.Err = stageErr
					} else {
						item.Err = errors.Join(item.Err, stageErr)
					}
				} else {
					item.Text = translated
				}
			}
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *Stage) languagePair(pc entities.ProcessContext) (entities.Language, entities.Language) {
	if s.direction == ToPivot {
		return pc.CustomerLanguage, entities.PivotLanguage
	}
	return entities.PivotLanguage, pc.CustomerLanguage
}
