// Package stages assembles the concrete processing stages into the input
// pipeline (recognizer → reasoning) and the output pipeline (reasoning →
// synthesizer) from loaded configuration.
package stages

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/internal/config"
	"github.com/vaanihq/vaani/pipeline"
	"github.com/vaanihq/vaani/stages/compliance"
	"github.com/vaanihq/vaani/stages/grammar"
	"github.com/vaanihq/vaani/stages/pii"
	"github.com/vaanihq/vaani/stages/simplify"
	"github.com/vaanihq/vaani/stages/translate"
)

// Dependencies are the external collaborators the stages call into.
type Dependencies struct {
	// LLM backs grammar repair and compliant rewriting. May be nil: grammar
	// then runs dictionary-only and compliance uses span replacement.
	LLM repositories.LanguageModel
	// Translator backs both translation directions.
	Translator repositories.TranslationBackend
	Logger     *zap.Logger
}

// Build constructs the input and output pipelines from the pipeline config.
// Both are immutable after this call and safe to share across turns.
func Build(cfg config.Pipeline, deps Dependencies) (input, output *pipeline.Pipeline, err error) {
	vocab := entities.NewDomainVocabulary(
		cfg.Grammar.Vocabulary.Terms,
		cfg.Grammar.Vocabulary.Phrases,
		cfg.Grammar.Vocabulary.Corrections,
	)

	grammarCfg := grammar.DefaultConfig()
	grammarCfg.Enabled = cfg.Grammar.Enabled
	if cfg.Grammar.Temperature > 0 {
		grammarCfg.Temperature = cfg.Grammar.Temperature
	}
	if cfg.Grammar.MaxTokens > 0 {
		grammarCfg.MaxTokens = cfg.Grammar.MaxTokens
	}
	if cfg.Grammar.MaxEditDistance > 0 {
		grammarCfg.MaxEditDistance = cfg.Grammar.MaxEditDistance
	}
	grammarCfg.Timeout = cfg.GrammarTimeout()
	corrector := grammar.New(grammarCfg, vocab, deps.LLM, deps.Logger)

	translateCfg := translate.DefaultConfig()
	translateCfg.Enabled = cfg.Translator.Enabled
	translateCfg.Timeout = cfg.TranslatorTimeout()
	toPivot := translate.New(translateCfg, translate.ToPivot, deps.Translator, deps.Logger)
	fromPivot := translate.New(translateCfg, translate.FromPivot, deps.Translator, deps.Logger)

	rules, err := compliance.Compile(cfg.Compliance.Rules)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling compliance rules: %w", err)
	}
	complianceCfg := compliance.DefaultConfig()
	complianceCfg.Enabled = cfg.Compliance.Enabled
	complianceCfg.Strict = cfg.Compliance.Strict
	complianceCfg.Timeout = cfg.ComplianceTimeout()
	checker := compliance.New(complianceCfg, rules, deps.LLM, deps.Logger)

	piiCfg := pii.DefaultConfig()
	piiCfg.Enabled = cfg.PII.Enabled
	if cfg.PII.VisibleSuffix > 0 {
		piiCfg.Spoken = entities.PartialMask(cfg.PII.VisibleSuffix)
	}
	if len(cfg.PII.AllowedTypes) > 0 {
		piiCfg.AllowedTypes = piiCfg.AllowedTypes[:0]
		for _, t := range cfg.PII.AllowedTypes {
			piiCfg.AllowedTypes = append(piiCfg.AllowedTypes, entities.PIIType(t))
		}
	}
	redactor := pii.New(piiCfg, pii.NewRegexDetector(), deps.Logger)

	simplifyCfg := simplify.DefaultConfig()
	simplifyCfg.Enabled = cfg.Simplifier.Enabled
	simplifyCfg.Glossary = cfg.Simplifier.Glossary
	if cfg.Simplifier.MaxSentenceWords > 0 {
		simplifyCfg.MaxSentenceWords = cfg.Simplifier.MaxSentenceWords
	}
	if cfg.Simplifier.AllowedPunctuation != "" {
		simplifyCfg.AllowedPunctuation = cfg.Simplifier.AllowedPunctuation
	}
	simplifier := simplify.New(simplifyCfg, deps.Logger)

	input = pipeline.New("input", []pipeline.Stage{corrector, toPivot}, deps.Logger)
	output = pipeline.New("output", []pipeline.Stage{fromPivot, checker, redactor, simplifier}, deps.Logger)
	return input, output, nil
}

// NewRedactor builds a standalone redactor with the configured policy, for
// callers that redact outside a pipeline (the turn log writes the fully
// redacted transcript).
func NewRedactor(cfg config.Pipeline, logger *zap.Logger) *pii.Redactor {
	piiCfg := pii.DefaultConfig()
	if cfg.PII.VisibleSuffix > 0 {
		piiCfg.Spoken = entities.PartialMask(cfg.PII.VisibleSuffix)
	}
	return pii.New(piiCfg, pii.NewRegexDetector(), logger)
}
