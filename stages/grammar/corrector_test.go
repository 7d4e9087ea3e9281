package grammar

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts repositories.GenerateOptions) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) GenerateStream(ctx context.Context, prompt string, opts repositories.GenerateOptions) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- f.response
	close(ch)
	return ch, f.err
}

func testVocabulary() *entities.DomainVocabulary {
	return entities.NewDomainVocabulary(
		[]string{"gold loan", "interest rate", "tenure"},
		[]string{"need a gold loan today"},
		map[string]string{
			"gold Ion": "gold loan",
			"gol lone": "gold loan",
		},
	)
}

func testContext() entities.ProcessContext {
	return entities.NewProcessContext(entities.LanguageEnglish, "gold_loan", "")
}

func TestTierOneCorrection(t *testing.T) {
	llm := &fakeLLM{}
	corrector := New(DefaultConfig(), testVocabulary(), llm, zaptest.NewLogger(t))

	out, err := corrector.Process(context.Background(), "need a gold Ion today", testContext())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out != "need a gold loan today" {
		t.Errorf("Expected dictionary correction, got %q", out)
	}
	if llm.calls != 0 {
		t.Errorf("Expected tier-1-only path, but model was called %d times", llm.calls)
	}
}

func TestTierOneCaseInsensitive(t *testing.T) {
	corrector := New(DefaultConfig(), testVocabulary(), nil, zaptest.NewLogger(t))

	out, err := corrector.Process(context.Background(), "I want a GOL LONE now", testContext())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !strings.Contains(out, "gold loan") {
		t.Errorf("Expected case-insensitive correction, got %q", out)
	}
}

func TestTierTwoInvokedForUnknownTokens(t *testing.T) {
	llm := &fakeLLM{response: "please check my interest rate"}
	corrector := New(DefaultConfig(), testVocabulary(), llm, zaptest.NewLogger(t))

	out, err := corrector.Process(context.Background(), "please check my intrestrate", testContext())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("Expected one model call, got %d", llm.calls)
	}
	if out != "please check my interest rate" {
		t.Errorf("Expected model correction, got %q", out)
	}
}

func TestTierTwoFailureFallsBackToTierOne(t *testing.T) {
	llm := &fakeLLM{err: errors.New("deadline exceeded")}
	corrector := New(DefaultConfig(), testVocabulary(), llm, zaptest.NewLogger(t))

	in := "gold Ion with gibberishtoken"
	out, err := corrector.Process(context.Background(), in, testContext())
	if err != nil {
		t.Fatalf("Expected recovery, got error %v", err)
	}
	if !strings.Contains(out, "gold loan") {
		t.Errorf("Expected tier-1 result on fallback, got %q", out)
	}
}

func TestTierTwoRejectsParaphrase(t *testing.T) {
	llm := &fakeLLM{response: strings.Repeat("a very long unrelated rewrite ", 10)}
	corrector := New(DefaultConfig(), testVocabulary(), llm, zaptest.NewLogger(t))

	in := "short gibberishtoken here"
	out, err := corrector.Process(context.Background(), in, testContext())
	if err != nil {
		t.Fatalf("Expected recovery, got error %v", err)
	}
	if out != in {
		t.Errorf("Expected length-ratio guard to keep original, got %q", out)
	}
}

func TestCleanTextSkipsModel(t *testing.T) {
	llm := &fakeLLM{}
	corrector := New(DefaultConfig(), testVocabulary(), llm, zaptest.NewLogger(t))

	in := "need a gold loan today"
	out, err := corrector.Process(context.Background(), in, testContext())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out != in {
		t.Errorf("Expected clean text unchanged, got %q", out)
	}
	if llm.calls != 0 {
		t.Errorf("Expected no model call for clean text, got %d", llm.calls)
	}
}
