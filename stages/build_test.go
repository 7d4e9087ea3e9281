package stages

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/internal/config"
	"github.com/vaanihq/vaani/pipeline"
	"github.com/vaanihq/vaani/stages/compliance"
)

const buildYAML = `
domain: gold_loan
grammar:
  enabled: true
  vocabulary:
    terms: [gold, loan, interest, documents]
    phrases: ["gold loan"]
    corrections:
      "gold Ion": "gold loan"
translator:
  enabled: true
compliance:
  enabled: true
  strict: true
  rules:
    forbidden_phrases:
      - id: no-guarantee
        phrase: guarantee
        replacement: aim for
pii:
  enabled: true
  visible_suffix: 4
  allowed_types: [person_name]
simplifier:
  enabled: true
  max_sentence_words: 20
  glossary:
    EMI: equated monthly installment
`

type identityTranslator struct{}

func (identityTranslator) Name() string { return "identity" }

func (identityTranslator) Translate(_ context.Context, text string, _, _ entities.Language) (string, error) {
	return text, nil
}

type echoModel struct{}

func (echoModel) Generate(_ context.Context, _ string, _ repositories.GenerateOptions) (string, error) {
	return "We aim for quick approvals.", nil
}

func (echoModel) GenerateStream(_ context.Context, _ string, _ repositories.GenerateOptions) (<-chan string, error) {
	out := make(chan string)
	close(out)
	return out, nil
}

func TestBuildAssemblesBothPipelines(t *testing.T) {
	cfg, err := config.ParsePipeline([]byte(buildYAML))
	if err != nil {
		t.Fatalf("ParsePipeline: %v", err)
	}
	input, output, err := Build(cfg, Dependencies{
		LLM:        echoModel{},
		Translator: identityTranslator{},
		Logger:     zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if input.Direction() != "input" || output.Direction() != "output" {
		t.Errorf("directions = %q / %q", input.Direction(), output.Direction())
	}
	if len(input.Stages()) != 2 {
		t.Errorf("input pipeline has %d stages, want 2", len(input.Stages()))
	}
	if len(output.Stages()) != 4 {
		t.Errorf("output pipeline has %d stages, want 4", len(output.Stages()))
	}
}

func TestBuiltInputPipelineCorrectsVocabulary(t *testing.T) {
	cfg, err := config.ParsePipeline([]byte(buildYAML))
	if err != nil {
		t.Fatalf("ParsePipeline: %v", err)
	}
	input, _, err := Build(cfg, Dependencies{
		LLM:        echoModel{},
		Translator: identityTranslator{},
		Logger:     zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	pc := entities.NewProcessContext(entities.LanguageEnglish, cfg.Domain, "")
	out, err := input.Process(context.Background(), "I need a gold Ion today", pc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(out, "gold loan") {
		t.Errorf("vocabulary correction not applied: %q", out)
	}
}

func TestBuiltOutputPipelineEnforcesRulesAndRedacts(t *testing.T) {
	cfg, err := config.ParsePipeline([]byte(buildYAML))
	if err != nil {
		t.Fatalf("ParsePipeline: %v", err)
	}
	_, output, err := Build(cfg, Dependencies{
		LLM:        nil,
		Translator: identityTranslator{},
		Logger:     zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	pc := entities.NewProcessContext(entities.LanguageEnglish, cfg.Domain, "")
	out, err := output.Process(context.Background(), "We guarantee approval on account 123456789012.", pc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if strings.Contains(strings.ToLower(out), "guarantee") {
		t.Errorf("forbidden phrase survived: %q", out)
	}
	if strings.Contains(out, "123456789012") {
		t.Errorf("identifier leaked: %q", out)
	}
}

func TestBuiltOutputPipelinePreservesMaskThroughSimplifier(t *testing.T) {
	cfg, err := config.ParsePipeline([]byte(buildYAML))
	if err != nil {
		t.Fatalf("ParsePipeline: %v", err)
	}
	_, output, err := Build(cfg, Dependencies{
		Translator: identityTranslator{},
		Logger:     zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	pc := entities.NewProcessContext(entities.LanguageEnglish, cfg.Domain, "")
	out, err := output.Process(context.Background(), "Your number 123456789012 is on file.", pc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(out, "********9012") {
		t.Errorf("masked suffix mangled by simplification: %q", out)
	}
}

type failingTranslator struct{}

func (failingTranslator) Name() string { return "failing" }

func (failingTranslator) Translate(context.Context, string, entities.Language, entities.Language) (string, error) {
	return "", context.DeadlineExceeded
}

func TestBuiltOutputStreamRedactsAfterTranslationFailure(t *testing.T) {
	cfg, err := config.ParsePipeline([]byte(buildYAML))
	if err != nil {
		t.Fatalf("ParsePipeline: %v", err)
	}
	_, output, err := Build(cfg, Dependencies{
		Translator: failingTranslator{},
		Logger:     zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	pc := entities.NewProcessContext(entities.LanguageHindi, cfg.Domain, "")
	in := make(chan pipeline.Item, 1)
	in <- pipeline.Item{Seq: 0, Text: "Your Aadhaar 1234 5678 9012 is verified."}
	close(in)

	var items []pipeline.Item
	for item := range output.ProcessStream(context.Background(), in, pc) {
		items = append(items, item)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Err == nil {
		t.Error("translation failure should flag the item")
	}
	if strings.Contains(items[0].Text, "9012") && !strings.Contains(items[0].Text, "********9012") {
		t.Errorf("flagged sentence skipped redaction: %q", items[0].Text)
	}
	if strings.Contains(items[0].Text, "1234 5678 9012") {
		t.Errorf("identifier leaked past a failed stage: %q", items[0].Text)
	}
}

func TestBuildRejectsInvalidRules(t *testing.T) {
	cfg, err := config.ParsePipeline([]byte(buildYAML))
	if err != nil {
		t.Fatalf("ParsePipeline: %v", err)
	}
	cfg.Compliance.Rules.Disclaimers = append(cfg.Compliance.Rules.Disclaimers,
		compliance.DisclaimerRule{ID: "bad", Pattern: `([unclosed`})

	_, _, err = Build(cfg, Dependencies{
		Translator: identityTranslator{},
		Logger:     zaptest.NewLogger(t),
	})
	if err == nil {
		t.Error("expected rule compilation error")
	}
}
