package pii

import (
	"context"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/pipeline"
)

// Config tunes the redactor stage.
type Config struct {
	Enabled bool
	// Spoken is the masking depth for the spoken-output destination.
	Spoken entities.RedactionStrategy
	// AllowedTypes are entity types never redacted for the spoken channel.
	// Person names usually belong here; hearing their own name back helps
	// callers trust the agent.
	AllowedTypes []entities.PIIType
}

// DefaultConfig keeps the last four characters audible and lets person
// names through.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		Spoken:       entities.PartialMask(4),
		AllowedTypes: []entities.PIIType{entities.PIITypePersonName},
	}
}

// Redactor is the PII stage. It runs on the final, already translated and
// simplified text.
type Redactor struct {
	cfg      Config
	detector Detector
	allowed  map[entities.PIIType]struct{}
	logger   *zap.Logger
}

// New builds the stage.
func New(cfg Config, detector Detector, logger *zap.Logger) *Redactor {
	allowed := make(map[entities.PIIType]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[t] = struct{}{}
	}
	return &Redactor{cfg: cfg, detector: detector, allowed: allowed, logger: logger}
}

func (r *Redactor) Name() string { return "pii_redactor" }

func (r *Redactor) Enabled() bool { return r.cfg.Enabled }

// Process redacts for the spoken destination: partial masking, with the
// configured allow-list of entity types left intact. If detection itself
// fails, the whole utterance is replaced with the redaction placeholder
// rather than risking an undetected leak.
func (r *Redactor) Process(_ context.Context, text string, pc entities.ProcessContext) (string, error) {
	found, err := r.detector.Detect(text)
	if err != nil {
		r.logger.Error("pii detection failed, fully redacting utterance",
			zap.String("turnID", pc.TurnID),
			zap.Error(entities.NewStageError(r.Name(), entities.ErrPIIDetectionFailure)))
		return entities.RedactionPlaceholder, nil
	}
	return r.redact(text, found, r.cfg.Spoken, true), nil
}

// ProcessStream redacts each completed sentence independently.
func (r *Redactor) ProcessStream(ctx context.Context, in <-chan pipeline.Item, pc entities.ProcessContext) <-chan pipeline.Item {
	return pipeline.StreamEach(ctx, r, in, pc)
}

// RedactForLog redacts for the logging destination: every detected span is
// replaced with the placeholder, allow-list ignored. Use this on anything
// persisted (the turn log).
func (r *Redactor) RedactForLog(text string) string {
	found, err := r.detector.Detect(text)
	if err != nil {
		return entities.RedactionPlaceholder
	}
	return r.redact(text, found, entities.FullRedaction(), false)
}

// redact applies span replacements in reverse offset order so earlier
// replacements of different length do not invalidate later offsets.
func (r *Redactor) redact(text string, found []entities.PIIEntity, strategy entities.RedactionStrategy, honorAllowList bool) string {
	for i := len(found) - 1; i >= 0; i-- {
		e := found[i]
		if honorAllowList {
			if _, ok := r.allowed[e.Type]; ok {
				continue
			}
		}
		if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
			continue
		}
		text = text[:e.Start] + strategy.Apply(e.Text) + text[e.End:]
	}
	return text
}
