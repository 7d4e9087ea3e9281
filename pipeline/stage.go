package pipeline

import (
	"context"
	"errors"

	"github.com/vaanihq/vaani/domain/entities"
)

// Item is one unit of text flowing through a streaming pipeline. Seq is the
// sentence's position within the turn; it never changes as the item moves
// between stages. A non-nil Err marks a per-item failure that did not block
// later sentences — Text then carries the best available fallback.
type Item struct {
	Seq  int
	Text string
	Err  error
}

// Stage is a single text transformation. Implementations are stateless with
// respect to conversation data: anything loaded at construction (vocabulary,
// compiled rules) is immutable afterwards, so one instance serves all
// concurrent turns.
type Stage interface {
	// Name identifies the stage for telemetry and error attribution.
	Name() string
	// Enabled reports whether the pipeline should run this stage.
	Enabled() bool
	// Process applies the transformation to one complete text unit.
	Process(ctx context.Context, text string, pc entities.ProcessContext) (string, error)
	// ProcessStream applies the transformation to each arriving item,
	// preserving item order within the turn.
	ProcessStream(ctx context.Context, in <-chan Item, pc entities.ProcessContext) <-chan Item
}

// StreamEach implements ProcessStream for stages whose streaming behavior is
// simply Process applied per item. A Process failure is attached to the item
// rather than closing the stream, so one bad sentence never blocks the ones
// behind it. Items already carrying an error are still processed: an upstream
// failure must not let a sentence bypass the safety stages behind it. When a
// failing stage returns replacement text (the compliance checker's safe
// fallback), that text supersedes the item's; otherwise the item's text is
// kept as the best available fallback. Cancellation of ctx stops emission
// immediately.
func StreamEach(ctx context.Context, s Stage, in <-chan Item, pc entities.ProcessContext) <-chan Item {
	out := make(chan Item)
	go func() {
		defer close(out)
		for item := range in {
			text, err := s.Process(ctx, item.Text, pc)
			switch {
			case err != nil:
				stageErr := entities.NewStageError(s.Name(), err)
				if item.Err == nil {
					item.Err = stageErr
				} else {
					item.Err = errors.Join(item.Err, stageErr)
				}
				if text != "" {
					item.Text = text
				}
			default:
				item.Text = text
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
