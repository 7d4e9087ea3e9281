package simplify

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/vaanihq/vaani/domain/entities"
)

func newSimplifier(t *testing.T) *Simplifier {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Glossary = map[string]string{
		"EMI": "equated monthly installment",
		"KYC": "know your customer",
		"LTV": "loan to value",
	}
	return New(cfg, zaptest.NewLogger(t))
}

func englishContext() entities.ProcessContext {
	return entities.NewProcessContext(entities.LanguageEnglish, "gold_loan", "")
}

func TestNumbersConvertedBeforeAbbreviations(t *testing.T) {
	s := newSimplifier(t)

	out, err := s.Process(context.Background(), "Your EMI is ₹5,000.", englishContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := "Your equated monthly installment is five thousand rupees."
	if out != want {
		t.Errorf("got %q want %q", out, want)
	}
}

func TestAbbreviationsOnlyAtWordBoundaries(t *testing.T) {
	s := newSimplifier(t)

	out, err := s.Process(context.Background(), "SEMINAR is not an EMI term.", englishContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(out, "SEMINAR") {
		t.Errorf("glossary must not rewrite inside words, got %q", out)
	}
	if !strings.Contains(out, "equated monthly installment term") {
		t.Errorf("standalone abbreviation should expand, got %q", out)
	}
}

func TestLongSentenceSplitAtClauseBoundary(t *testing.T) {
	s := newSimplifier(t)

	in := "We can offer you a gold loan at attractive rates, and the documentation process is simple and quick for all our customers today."
	out, err := s.Process(context.Background(), in, englishContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(out, "attractive rates.") {
		t.Errorf("expected split after first clause, got %q", out)
	}
	if !strings.Contains(out, "The documentation process") {
		t.Errorf("second clause should start a new sentence, got %q", out)
	}
	for _, sentence := range strings.Split(out, ". ") {
		if n := len(strings.Fields(sentence)); n > 20 {
			t.Errorf("sentence still exceeds cap (%d words): %q", n, sentence)
		}
	}
}

func TestShortSentencesNotSplit(t *testing.T) {
	s := newSimplifier(t)

	in := "Please bring your documents tomorrow. We will verify them quickly."
	out, err := s.Process(context.Background(), in, englishContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out != in {
		t.Errorf("short sentences should pass unchanged, got %q", out)
	}
}

func TestUnsupportedCharactersFiltered(t *testing.T) {
	s := newSimplifier(t)

	out, err := s.Process(context.Background(), "Hello @ world # ~ok~ 100%", englishContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, bad := range []string{"@", "#", "~"} {
		if strings.Contains(out, bad) {
			t.Errorf("character %q survived filtering: %q", bad, out)
		}
	}
	if !strings.Contains(out, "one hundred percent") {
		t.Errorf("percentage should be lexicalized before filtering, got %q", out)
	}
}

func TestRedactionArtifactsPreserved(t *testing.T) {
	s := newSimplifier(t)

	out, err := s.Process(context.Background(), "Your account ********1234 is linked to [REDACTED].", englishContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(out, "********1234") {
		t.Errorf("masked suffix must survive untouched, got %q", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("redaction placeholder must survive untouched, got %q", out)
	}
}

func TestDevanagariTerminatorUsedForSplits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSentenceWords = 6
	s := New(cfg, zaptest.NewLogger(t))
	pc := entities.NewProcessContext(entities.LanguageHindi, "gold_loan", "")

	in := "आप कल दस्तावेज़ ला सकते हैं, और हम उनकी जांच जल्दी कर देंगे।"
	out, err := s.Process(context.Background(), in, pc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if strings.Count(out, "।") != 2 {
		t.Errorf("expected a danda-terminated split, got %q", out)
	}
}

func TestIndianGroupingSelectedByScript(t *testing.T) {
	s := newSimplifier(t)
	pc := entities.NewProcessContext(entities.LanguageHindi, "gold_loan", "")

	out, err := s.Process(context.Background(), "राशि ₹2,50,000 है।", pc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(out, "lakh") {
		t.Errorf("Devanagari turn should use lakh grouping, got %q", out)
	}
}

func TestNoResidualDigits(t *testing.T) {
	s := newSimplifier(t)

	out, err := s.Process(context.Background(), "Pay ₹12,500 at 9.5% over 24 months.", englishContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if strings.ContainsAny(out, "0123456789") {
		t.Errorf("digits survived simplification: %q", out)
	}
}
