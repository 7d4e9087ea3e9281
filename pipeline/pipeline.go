package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
)

// stageLatencyBudget is the per-stage soft budget. It is an observability
// target, not a hard deadline: stages that exceed it are logged, and each
// stage degrades internally rather than being killed mid-flight.
const stageLatencyBudget = 100 * time.Millisecond

// Pipeline is an ordered sequence of stages, built once at startup from
// configuration and never mutated. It holds no per-turn state, so a single
// instance is shared across all concurrently active turns.
type Pipeline struct {
	direction string
	stages    []Stage
	logger    *zap.Logger
}

// New assembles a pipeline. Direction names the instance for telemetry
// ("input" for recognizer→reasoning, "output" for reasoning→synthesizer).
func New(direction string, stages []Stage, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		direction: direction,
		stages:    stages,
		logger:    logger,
	}
}

// Direction returns the pipeline's configured direction tag.
func (p *Pipeline) Direction() string {
	return p.direction
}

// Stages returns the configured stage list in order.
func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Process applies all enabled stages strictly in configured order, stopping
// at the first unrecoverable failure. Disabled stages are skipped without
// reordering the remainder. Errors are attributed to the stage that produced
// them.
func (p *Pipeline) Process(ctx context.Context, text string, pc entities.ProcessContext) (string, error) {
	out, _, err := p.ProcessTimed(ctx, text, pc)
	return out, err
}

// ProcessTimed is Process with per-stage wall-clock timings, for callers that
// persist the turn's latency breakdown. On failure the timings cover the
// stages that ran, the failing one included.
func (p *Pipeline) ProcessTimed(ctx context.Context, text string, pc entities.ProcessContext) (string, []entities.StageDuration, error) {
	var timings []entities.StageDuration
	for _, stage := range p.stages {
		if !stage.Enabled() {
			continue
		}
		start := time.Now()
		out, err := stage.Process(ctx, text, pc)
		elapsed := time.Since(start)
		timings = append(timings, entities.StageDuration{Stage: stage.Name(), Duration: elapsed})
		if elapsed > stageLatencyBudget {
			p.logger.Warn("stage exceeded latency budget",
				zap.String("direction", p.direction),
				zap.String("stage", stage.Name()),
				zap.Duration("elapsed", elapsed),
				zap.String("turnID", pc.TurnID))
		}
		if err != nil {
			return "", timings, entities.NewStageError(stage.Name(), err)
		}
		text = out
	}
	return text, timings, nil
}

/// ProcessStream composes the enabled stages' streams: stage K's output
// channel is stage K+1's input channel. Item ordering within the turn is
// preserved end to end; no stage merges, reorders, or buffers across the
// sentence boundaries established upstream.
func (p *Pipeline) ProcessStream(ctx context.Context, in <-chan Item, pc entities.ProcessContext) <-chan Item {
	out := in
	for _, stage := range p.stages {
		if !stage.Enabled() {
			continue
		}
		out = stage.ProcessStream(ctx, out, pc)
	}
	return out
}
