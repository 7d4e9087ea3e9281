package compliance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/pipeline"
)

// Config tunes the checker stage.
type Config struct {
	Enabled bool
	// Strict fails the turn when a Critical finding cannot be rewritten
	// away. Lenient passes the deterministic rewrite through, flagged in
	// the logs.
	Strict      bool
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig matches the rewrite model settings used for grammar repair.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Strict:      true,
		Temperature: 0.1,
		MaxTokens:   512,
		Timeout:     3 * time.Second,
	}
}

// Checker is the compliance stage. Rules and the rewrite model are fixed at
// construction; the checker itself holds no per-turn state.
type Checker struct {
	cfg    Config
	rules  *CompiledRules
	llm    repositories.LanguageModel
	logger *zap.Logger
}

// New builds the stage. llm may be nil, in which case Critical findings go
// straight to the deterministic span-replacement rewrite.
func New(cfg Config, rules *CompiledRules, llm repositories.LanguageModel, logger *zap.Logger) *Checker {
	return &Checker{cfg: cfg, rules: rules, llm: llm, logger: logger}
}

func (c *Checker) Name() string { return "compliance_checker" }

func (c *Checker) Enabled() bool { return c.cfg.Enabled }

// Check evaluates the text without modifying it.
func (c *Checker) Check(text string) entities.ComplianceResult {
	return c.rules.Evaluate(text)
}

// Process evaluates the text and remediates by severity: Critical findings
// are resolved by a compliant rewrite (model first, deterministic span
// replacement as fallback), Error findings are always span-rewritten,
// Warnings attach their required additions, Info is logged only. Additions
// are applied after any rewrite. An unresolved Critical fails in strict
// mode, returning the safe fallback utterance alongside the error; in
// lenient mode the best-effort rewrite passes through.
func (c *Checker) Process(ctx context.Context, text string, pc entities.ProcessContext) (string, error) {
	result := c.Check(text)
	c.logFindings(result, pc)

	out := text
	if result.HasSeverity(entities.SeverityError) {
		rewritten, resolved := c.rewrite(ctx, out, result)
		out = rewritten
		if !resolved {
			if c.cfg.Strict {
				// The fallback utterance travels with the error so streaming
				// callers have vetted text to emit in place of the sentence.
				return entities.SafeFallbackUtterance,
					fmt.Errorf("%w: %d critical finding(s) survived rewrite",
						entities.ErrComplianceUnresolved,
						len(c.Check(out).BySeverity(entities.SeverityCritical)))
			}
			c.logger.Warn("passing unresolved critical finding through in lenient mode",
				zap.String("turnID", pc.TurnID),
				zap.String("conversationID", pc.ConversationID))
		}
		// Anchored spans moved under the rewrite; re-evaluate so the
		// additions attach to offsets in the rewritten text.
		result = c.Check(out)
	}

	return applyAdditions(out, result.RequiredAdditions), nil
}

// ProcessStream checks each completed sentence independently.
func (c *Checker) ProcessStream(ctx context.Context, in <-chan pipeline.Item, pc entities.ProcessContext) <-chan pipeline.Item {
	return pipeline.StreamEach(ctx, c, in, pc)
}

// rewrite resolves Critical and Error findings. It reports whether the
// returned text is free of Critical findings.
func (c *Checker) rewrite(ctx context.Context, text string, result entities.ComplianceResult) (string, bool) {
	if result.HasSeverity(entities.SeverityCritical) && c.llm != nil {
		if rewritten, err := c.modelRewrite(ctx, text, result); err != nil {
			c.logger.Warn("compliant rewrite model failed, falling back to span replacement",
				zap.Error(err))
		} else if check := c.Check(rewritten); !check.HasSeverity(entities.SeverityCritical) {
			return rewritten, true
		} else {
			c.logger.Warn("compliant rewrite still violates rules, falling back to span replacement",
				zap.Int("criticalFindings", len(check.BySeverity(entities.SeverityCritical))))
		}
	}

	replaced := replaceSpans(text, result.Violations, c.rules)
	return replaced, !c.Check(replaced).HasSeverity(entities.SeverityCritical)
}

func (c *Checker) modelRewrite(ctx context.Context, text string, result entities.ComplianceResult) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	rewritten, err := c.llm.Generate(ctx, c.buildPrompt(text, result), repositories.GenerateOptions{
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return "", fmt.Errorf("rewrite model returned empty output")
	}
	return rewritten, nil
}

func (c *Checker) buildPrompt(text string, result entities.ComplianceResult) string {
	var b strings.Builder
	b.WriteString("Rewrite the following customer-facing statement so that it no longer violates the listed rules. ")
	b.WriteString("Keep the meaning and tone, keep it in the same language, and output only the rewritten statement.\n\nViolations:\n")
	for _, v := range result.Violations {
		if v.Severity < entities.SeverityError {
			continue
		}
		fmt.Fprintf(&b, "- %q", v.Text)
		if v.Description != "" {
			fmt.Fprintf(&b, " (%s)", v.Description)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nStatement: %s", text)
	return b.String()
}

func (c *Checker) logFindings(result entities.ComplianceResult, pc entities.ProcessContext) {
	for _, v := range result.Violations {
		fields := []zap.Field{
			zap.String("ruleID", v.RuleID),
			zap.String("severity", v.Severity.String()),
			zap.String("turnID", pc.TurnID),
			zap.String("conversationID", pc.ConversationID),
		}
		switch {
		case v.Severity >= entities.SeverityError:
			c.logger.Warn("compliance violation", fields...)
		default:
			c.logger.Info("compliance finding", fields...)
		}
	}
}

// replaceSpans rewrites each Error-or-worse violation span with its rule's
// configured replacement, in reverse offset order so earlier replacements do
// not shift later spans.
func replaceSpans(text string, violations []entities.Violation, rules *CompiledRules) string {
	spans := make([]entities.Violation, 0, len(violations))
	for _, v := range violations {
		if v.Severity >= entities.SeverityError && v.End > v.Start {
			spans = append(spans, v)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start > spans[j].Start })

	for _, v := range spans {
		if v.Start > len(text) || v.End > len(text) {
			continue
		}
		text = text[:v.Start] + rules.Replacement(v.RuleID) + text[v.End:]
	}
	return collapseSpaces(text)
}

// applyAdditions inserts required additions: after-span insertions first in
// reverse offset order, then start prepends, then end appends.
func applyAdditions(text string, additions []entities.RequiredAddition) string {
	var afterSpan []entities.RequiredAddition
	var start, end []string
	for _, a := range additions {
		switch a.Anchor {
		case entities.AnchorStart:
			start = append(start, a.Text)
		case entities.AnchorAfterSpan:
			if a.SpanEnd > 0 && a.SpanEnd <= len(text) {
				afterSpan = append(afterSpan, a)
			} else {
				end = append(end, a.Text)
			}
		default:
			end = append(end, a.Text)
		}
	}

	sort.Slice(afterSpan, func(i, j int) bool { return afterSpan[i].SpanEnd > afterSpan[j].SpanEnd })
	for _, a := range afterSpan {
		text = text[:a.SpanEnd] + " " + a.Text + text[a.SpanEnd:]
	}
	for _, s := range start {
		text = s + " " + text
	}
	for _, s := range end {
		text = text + " " + s
	}
	return strings.TrimSpace(text)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
