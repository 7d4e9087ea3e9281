// Package simplify prepares finalized text for the synthesizer. Its steps
// run in a fixed order because later steps depend on earlier ones: number
// lexicalization first (it may emit abbreviations), then abbreviation
// expansion, then sentence-length capping (needs punctuation intact), then
// allow-list character filtering last.
package simplify

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/numwords"
	"github.com/vaanihq/vaani/pipeline"
)

// Config tunes the simplifier stage.
type Config struct {
	Enabled bool
	// Glossary maps abbreviations to their spoken expansions (EMI → equated
	// monthly installment).
	Glossary map[string]string
	// MaxSentenceWords caps sentence length; longer sentences are split at
	// conjunction or comma boundaries. Zero disables capping.
	MaxSentenceWords int
	// AllowedPunctuation is the set of punctuation runes the synthesizer
	// renders reliably. Letters, digits and whitespace are always allowed.
	AllowedPunctuation string
}

// DefaultConfig caps sentences at 20 words and keeps basic punctuation.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		MaxSentenceWords:   20,
		AllowedPunctuation: ".,!?।॥؟۔'-",
	}
}

// Simplifier is the final text-shaping stage before synthesis.
type Simplifier struct {
	cfg      Config
	glossary []glossaryEntry
	allowed  map[rune]struct{}
	logger   *zap.Logger
}

type glossaryEntry struct {
	pattern   *regexp.Regexp
	expansion string
}

// New builds the stage, compiling word-boundary patterns for the glossary.
func New(cfg Config, logger *zap.Logger) *Simplifier {
	s := &Simplifier{cfg: cfg, logger: logger}
	for abbr, expansion := range cfg.Glossary {
		p, err := regexp.Compile(`\b` + regexp.QuoteMeta(abbr) + `\b`)
		if err != nil {
			logger.Warn("skipping unusable glossary entry", zap.String("abbreviation", abbr), zap.Error(err))
			continue
		}
		s.glossary = append(s.glossary, glossaryEntry{pattern: p, expansion: expansion})
	}
	s.allowed = make(map[rune]struct{}, len(cfg.AllowedPunctuation)+3)
	for _, r := range cfg.AllowedPunctuation {
		s.allowed[r] = struct{}{}
	}
	// Redaction artifacts pass through untouched regardless of the configured
	// punctuation set: '*' for masked prefixes, brackets for placeholders.
	for _, r := range "*[]" {
		s.allowed[r] = struct{}{}
	}
	return s
}

func (s *Simplifier) Name() string { return "text_simplifier" }

func (s *Simplifier) Enabled() bool { return s.cfg.Enabled }

// Process applies the four steps in order.
func (s *Simplifier) Process(_ context.Context, text string, pc entities.ProcessContext) (string, error) {
	out := numwords.Convert(text, numwords.ConventionForScript(pc.Script()))
	out = s.expandAbbreviations(out)
	out = s.capSentences(out, pc.Script())
	out = s.filterCharacters(out)
	return out, nil
}

// ProcessStream simplifies each completed sentence independently.
func (s *Simplifier) ProcessStream(ctx context.Context, in <-chan pipeline.Item, pc entities.ProcessContext) <-chan pipeline.Item {
	return pipeline.StreamEach(ctx, s, in, pc)
}

func (s *Simplifier) expandAbbreviations(text string) string {
	for _, g := range s.glossary {
		text = g.pattern.ReplaceAllString(text, g.expansion)
	}
	return text
}

// conjunctions where an over-long clause may be cut into its own sentence.
var splitWords = map[string]struct{}{
	"and": {}, "but": {}, "or": {}, "so": {}, "because": {},
	"और": {}, "लेकिन": {}, "या": {}, "क्योंकि": {},
}

// capSentences splits sentences longer than the configured word budget at a
// comma or conjunction boundary, turning each clause into its own sentence.
func (s *Simplifier) capSentences(text string, script entities.Script) string {
	if s.cfg.MaxSentenceWords <= 0 {
		return text
	}
	terminator := "."
	if script == entities.ScriptDevanagari {
		terminator = "।"
	}

	sentences := splitSentences(text, script)
	var out []string
	for _, sentence := range sentences {
		out = append(out, s.capOne(sentence, terminator)...)
	}
	return strings.Join(out, " ")
}

func (s *Simplifier) capOne(sentence, terminator string) []string {
	words := strings.Fields(sentence)
	if len(words) <= s.cfg.MaxSentenceWords {
		return []string{sentence}
	}

	// Find the clause boundary nearest the middle: a word ending in a comma,
	// or a conjunction.
	split := -1
	bestDistance := len(words)
	for i := 1; i < len(words)-1; i++ {
		isBoundary := strings.HasSuffix(words[i], ",")
		if !isBoundary {
			_, isBoundary = splitWords[strings.ToLower(words[i+1])]
		}
		if !isBoundary {
			continue
		}
		if d := abs(i + 1 - len(words)/2); d < bestDistance {
			bestDistance = d
			split = i + 1
		}
	}
	if split < 0 {
		return []string{sentence}
	}

	first := strings.TrimSuffix(strings.Join(words[:split], " "), ",")
	if !hasTerminator(first) {
		first += terminator
	}
	second := strings.Join(words[split:], " ")
	// Drop a leading conjunction from the second clause.
	if rest := strings.Fields(second); len(rest) > 1 {
		if _, ok := splitWords[strings.ToLower(rest[0])]; ok {
			second = strings.Join(rest[1:], " ")
			if r := []rune(second); len(r) > 0 {
				r[0] = unicode.ToUpper(r[0])
				second = string(r)
			}
		}
	}

	out := []string{first}
	out = append(out, s.capOne(second, terminator)...)
	return out
}

func splitSentences(text string, script entities.Script) []string {
	terms := make(map[rune]struct{})
	for _, r := range script.SentenceTerminators() {
		terms[r] = struct{}{}
	}
	var sentences []string
	var current []rune
	for _, r := range text {
		current = append(current, r)
		if _, ok := terms[r]; ok {
			if unit := strings.TrimSpace(string(current)); unit != "" {
				sentences = append(sentences, unit)
			}
			current = current[:0]
		}
	}
	if unit := strings.TrimSpace(string(current)); unit != "" {
		sentences = append(sentences, unit)
	}
	return sentences
}

func hasTerminator(s string) bool {
	if s == "" {
		return false
	}
	runes := []rune(s)
	switch runes[len(runes)-1] {
	case '.', '!', '?', '।', '॥', '؟', '۔':
		return true
	}
	return false
}

// filterCharacters drops any rune outside the allow-list: letters, combining
// marks (Indic vowel signs), digits, whitespace, and the configured
// punctuation set.
func (s *Simplifier) filterCharacters(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		if _, ok := s.allowed[r]; ok {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
