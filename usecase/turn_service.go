// Package usecase orchestrates conversation turns: recognized text through
// the input pipeline, reasoning, and the output pipeline to the synthesizer.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/pipeline"
	"github.com/vaanihq/vaani/stages/pii"
)

// TurnService runs one conversation turn end to end. It is stateless across
// turns; per-turn state lives in the ProcessContext and the accumulator
// owned by each call.
type TurnService struct {
	input    *pipeline.Pipeline
	output   *pipeline.Pipeline
	reasoner repositories.LanguageModel
	redactor *pii.Redactor
	turnLog  repositories.TurnLogRepository
	logger   *zap.Logger
}

// NewTurnService wires the service. turnLog may be nil to disable
// persistence (tests, local runs without Mongo).
func NewTurnService(
	input *pipeline.Pipeline,
	output *pipeline.Pipeline,
	reasoner repositories.LanguageModel,
	redactor *pii.Redactor,
	turnLog repositories.TurnLogRepository,
	logger *zap.Logger,
) *TurnService {
	return &TurnService{
		input:    input,
		output:   output,
		reasoner: reasoner,
		redactor: redactor,
		turnLog:  turnLog,
		logger:   logger,
	}
}

// ProcessTurn handles one single-shot turn: user text through the input
// pipeline, reasoning, and the output pipeline. An unresolved critical
// compliance finding yields the safe fallback utterance instead of unvetted
// text; any other stage failure has already been recovered inside its stage.
func (s *TurnService) ProcessTurn(ctx context.Context, userText string, pc entities.ProcessContext) (string, error) {
	start := time.Now()

	pivotIn, timings, err := s.input.ProcessTimed(ctx, userText, pc)
	if err != nil {
		return "", fmt.Errorf("input pipeline: %w", err)
	}

	reasonStart := time.Now()
	pivotOut, err := s.reasoner.Generate(ctx, s.reasoningPrompt(pivotIn, pc), repositories.GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("reasoning: %w", err)
	}
	timings = append(timings, entities.StageDuration{Stage: "reasoning", Duration: time.Since(reasonStart)})

	agentText, outTimings, err := s.output.ProcessTimed(ctx, pivotOut, pc)
	timings = append(timings, outTimings...)
	compliant := err == nil
	if err != nil {
		if !errors.Is(err, entities.ErrComplianceUnresolved) {
			return "", fmt.Errorf("output pipeline: %w", err)
		}
		s.logger.Warn("turn blocked by unresolved critical compliance finding",
			zap.String("turnID", pc.TurnID),
			zap.String("conversationID", pc.ConversationID))
		agentText = entities.SafeFallbackUtterance
	}

	timings = append(timings, entities.StageDuration{Stage: "turn", Duration: time.Since(start)})
	s.logTurn(ctx, pc, userText, agentText, compliant, timings)
	return agentText, nil
}

// ProcessTurnStream handles one streaming turn: the reasoning stream is cut
// into sentences as chunks arrive, and each completed sentence flows through
// the output pipeline independently. The returned channel closes when the
// turn completes or ctx is cancelled; after cancellation no further sentence
// is emitted.
func (s *TurnService) ProcessTurnStream(ctx context.Context, userText string, pc entities.ProcessContext) (<-chan pipeline.Item, error) {
	pivotIn, err := s.input.Process(ctx, userText, pc)
	if err != nil {
		return nil, fmt.Errorf("input pipeline: %w", err)
	}

	chunks, err := s.reasoner.GenerateStream(ctx, s.reasoningPrompt(pivotIn, pc), repositories.GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, fmt.Errorf("reasoning: %w", err)
	}

	// The reasoning component works in the pivot language, so sentences are
	// cut using the pivot script's terminators.
	sentences := make(chan pipeline.Item)
	go func() {
		defer close(sentences)
		acc := pipeline.NewSentenceAccumulator(entities.PivotLanguage.Script())
		seq := 0
		emit := func(text string) bool {
			select {
			case sentences <- pipeline.Item{Seq: seq, Text: text}:
				seq++
				return true
			case <-ctx.Done():
				return false
			}
		}
		for chunk := range chunks {
			for _, sentence := range acc.Push(chunk) {
				if !emit(sentence) {
					return
				}
			}
		}
		if ctx.Err() != nil {
			return
		}
		if rest, ok := acc.Flush(); ok {
			emit(rest)
		}
	}()

	out := s.output.ProcessStream(ctx, sentences, pc)

	final := make(chan pipeline.Item)
	go func() {
		defer close(final)
		start := time.Now()
		var spoken []string
		compliant := true
		for item := range out {
			if item.Err != nil {
				compliant = false
				s.logger.Warn("sentence carried a stage error",
					zap.Int("seq", item.Seq),
					zap.String("turnID", pc.TurnID),
					zap.Error(item.Err))
			}
			spoken = append(spoken, item.Text)
			select {
			case final <- item:
			case <-ctx.Done():
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		// Per-item stage timings do not aggregate across a stream; the
		// record keeps the turn total only.
		s.logTurn(ctx, pc, userText, strings.Join(spoken, " "), compliant,
			[]entities.StageDuration{{Stage: "turn", Duration: time.Since(start)}})
	}()
	return final, nil
}

// History returns the redacted records of a conversation.
func (s *TurnService) History(ctx context.Context, conversationID string) ([]entities.TurnRecord, error) {
	if s.turnLog == nil {
		return nil, nil
	}
	return s.turnLog.ListByConversation(ctx, conversationID)
}

func (s *TurnService) reasoningPrompt(userText string, pc entities.ProcessContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful %s customer-service voice agent. ", pc.Domain)
	b.WriteString("Answer briefly in plain spoken English, a few short sentences at most.\n\n")
	fmt.Fprintf(&b, "Customer: %s", userText)
	return b.String()
}

// logTurn persists the redacted trace. Persistence problems are logged, not
// surfaced; a storage hiccup must not fail a spoken turn.
func (s *TurnService) logTurn(ctx context.Context, pc entities.ProcessContext, userText, agentText string, compliant bool, timings []entities.StageDuration) {
	if s.turnLog == nil {
		return
	}
	record := &entities.TurnRecord{
		ConversationID: pc.ConversationID,
		TurnID:         pc.TurnID,
		Domain:         pc.Domain,
		Language:       pc.CustomerLanguage,
		UserText:       s.redactor.RedactForLog(userText),
		AgentText:      s.redactor.RedactForLog(agentText),
		Compliant:      compliant,
		StageDurations: timings,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.turnLog.Create(ctx, record); err != nil {
		s.logger.Error("failed to persist turn record",
			zap.String("turnID", pc.TurnID),
			zap.Error(err))
	}
}
