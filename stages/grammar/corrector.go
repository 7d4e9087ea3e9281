// Package grammar repairs speech-recognizer artifacts before the text
// reaches translation and reasoning. Correction runs in two tiers: a cheap
// deterministic pass (the domain's known-correction map, then edit-distance
// and phonetic snapping of unknown tokens onto the vocabulary), and a
// bounded language-model pass that only runs when the deterministic result
// still looks dirty.
package grammar

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/pipeline"
)

// Config tunes the corrector.
type Config struct {
	Enabled bool
	// Model call bounds.
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	// UnknownTokenLength is the minimum length of an out-of-vocabulary token
	// before tier 2 is considered worth its latency.
	UnknownTokenLength int
	// MaxEditDistance bounds how far an out-of-vocabulary token may be from a
	// vocabulary word and still be snapped onto it.
	MaxEditDistance int
}

// DefaultConfig mirrors the production tuning: low temperature so the model
// repairs rather than rewrites.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		Temperature:        0.1,
		MaxTokens:          256,
		Timeout:            2 * time.Second,
		UnknownTokenLength: 6,
		MaxEditDistance:    2,
	}
}

// Corrector is the grammar-correction stage.
type Corrector struct {
	cfg        Config
	vocabulary *entities.DomainVocabulary
	llm        repositories.LanguageModel
	rules      []correctionRule
	snapper    *snapper
	logger     *zap.Logger
}

type correctionRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// New builds the stage. Corrections from the vocabulary are compiled once
// into case-insensitive whole-phrase patterns. A nil llm disables tier 2;
// tier 1 still runs.
func New(cfg Config, vocabulary *entities.DomainVocabulary, llm repositories.LanguageModel, logger *zap.Logger) *Corrector {
	rules := make([]correctionRule, 0, len(vocabulary.Corrections))
	for wrong, right := range vocabulary.Corrections {
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(wrong) + `\b`)
		if err != nil {
			logger.Warn("skipping uncompilable correction",
				zap.String("phrase", wrong), zap.Error(err))
			continue
		}
		rules = append(rules, correctionRule{pattern: pattern, replacement: right})
	}
	return &Corrector{
		cfg:        cfg,
		vocabulary: vocabulary,
		llm:        llm,
		rules:      rules,
		snapper:    newSnapper(vocabulary, cfg.MaxEditDistance),
		logger:     logger,
	}
}

func (c *Corrector) Name() string  { return "grammar_corrector" }
func (c *Corrector) Enabled() bool { return c.cfg.Enabled }

// Process applies tier 1 always and tier 2 only when the heuristic says the
// text is still dirty. A tier-2 failure or timeout falls back to the tier-1
// result instead of failing the turn.
func (c *Corrector) Process(ctx context.Context, text string, pc entities.ProcessContext) (string, error) {
	corrected := c.snapTokens(c.applyCorrections(text))

	if c.llm == nil || c.isClean(corrected) {
		return corrected, nil
	}

	repaired, err := c.modelCorrect(ctx, corrected, pc)
	if err != nil {
		c.logger.Warn("tier-2 grammar correction failed, keeping dictionary result",
			zap.String("turnID", pc.TurnID),
			zap.Error(fmt.Errorf("%w: %v", entities.ErrGrammarCorrectionTimeout, err)))
		return corrected, nil
	}
	return repaired, nil
}

func (c *Corrector) ProcessStream(ctx context.Context, in <-chan pipeline.Item, pc entities.ProcessContext) <-chan pipeline.Item {
	return pipeline.StreamEach(ctx, c, in, pc)
}

// applyCorrections is tier 1: deterministic substitution of known
// recognizer mistakes.
func (c *Corrector) applyCorrections(text string) string {
	for _, rule := range c.rules {
		text = rule.pattern.ReplaceAllString(text, rule.replacement)
	}
	return text
}

// snapTokens is the second half of tier 1: each token the vocabulary does
// not know is compared against the vocabulary words, and replaced when the
// spelling or the sound is close enough. Capitalization of the original
// token is preserved.
func (c *Corrector) snapTokens(text string) string {
	tokens := strings.Fields(text)
	changed := false
	for i, token := range tokens {
		word := strings.Trim(token, ".,!?;:")
		if word == "" || c.vocabulary.Knows(word) {
			continue
		}
		snapped, ok := c.snapper.snap(word)
		if !ok {
			continue
		}
		if first := []rune(word); unicode.IsUpper(first[0]) {
			r := []rune(snapped)
			r[0] = unicode.ToUpper(r[0])
			snapped = string(r)
		}
		tokens[i] = strings.Replace(token, word, snapped, 1)
		changed = true
	}
	if !changed {
		return text
	}
	return strings.Join(tokens, " ")
}

// isClean judges whether tier 2 is needed. Long tokens the vocabulary does
// not know are the recognizer's usual failure shape; short unknowns are more
// often ordinary words than artifacts.
func (c *Corrector) isClean(text string) bool {
	if len(strings.TrimSpace(text)) < 3 {
		return true
	}
	for _, token := range strings.Fields(text) {
		if len([]rune(token)) >= c.cfg.UnknownTokenLength && !c.vocabulary.Knows(token) {
			return false
		}
	}
	return true
}

// modelCorrect is tier 2: a context-aware correction bounded by a token
// budget proportional to input length, constrained to repair, not paraphrase.
func (c *Corrector) modelCorrect(ctx context.Context, text string, pc entities.ProcessContext) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	budget := 32 + 2*len(strings.Fields(text))
	if budget > c.cfg.MaxTokens {
		budget = c.cfg.MaxTokens
	}

	out, err := c.llm.Generate(ctx, c.buildPrompt(text, pc), repositories.GenerateOptions{
		Temperature: c.cfg.Temperature,
		MaxTokens:   budget,
	})
	if err != nil {
		return "", err
	}
	corrected := strings.TrimSpace(out)
	if corrected == "" {
		return "", errors.New("empty correction")
	}

	// A correction that changes length drastically is a paraphrase, not a
	// repair; keep the dictionary result.
	ratio := float64(len(corrected)) / float64(len(text))
	if ratio < 0.5 || ratio > 2.0 {
		return "", fmt.Errorf("correction length ratio %.2f out of bounds", ratio)
	}
	return corrected, nil
}

func (c *Corrector) buildPrompt(text string, pc entities.ProcessContext) string {
	return fmt.Sprintf(`You are a speech-to-text error corrector for a %s conversation.

DOMAIN VOCABULARY (preserve these exact spellings):
%s

COMMON PHRASES (preserve):
%s

RULES:
1. Fix obvious transcription errors (homophones, mishearing)
2. Preserve proper nouns and numeric values exactly
3. Keep the meaning identical; never paraphrase
4. Output ONLY the corrected text, nothing else
5. If the text is already correct, output it unchanged

INPUT: %s
CORRECTED:`,
		pc.Domain,
		strings.Join(c.vocabulary.Terms, ", "),
		strings.Join(c.vocabulary.Phrases, "\n"),
		text,
	)
}
