package grammar

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"loan", "loan", 0},
		{"lone", "loan", 2},
		{"intrest", "interest", 1},
		{"gold", "world", 2},
		{"", "rate", 4},
		{"सोना", "सोना", 0},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestPhoneticKeySoundAlikes(t *testing.T) {
	pairs := [][2]string{
		{"lone", "loan"},
		{"amy", "emi"},
		{"tenur", "tenure"},
	}
	for _, p := range pairs {
		if phoneticKey(p[0]) != phoneticKey(p[1]) {
			t.Errorf("expected %q and %q to share a key, got %q and %q",
				p[0], p[1], phoneticKey(p[0]), phoneticKey(p[1]))
		}
	}
	if phoneticKey("world") == phoneticKey("gold") {
		t.Error("unrelated words must not share a key")
	}
}

func TestSnapSoundAlikeToken(t *testing.T) {
	corrector := New(DefaultConfig(), testVocabulary(), nil, zaptest.NewLogger(t))

	out, err := corrector.Process(context.Background(), "I need a gold lone today", testContext())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out != "I need a gold loan today" {
		t.Errorf("Expected sound-alike snap, got %q", out)
	}
}

func TestSnapMisspelledToken(t *testing.T) {
	corrector := New(DefaultConfig(), testVocabulary(), nil, zaptest.NewLogger(t))

	out, err := corrector.Process(context.Background(), "what is the intrest rate", testContext())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out != "what is the interest rate" {
		t.Errorf("Expected edit-distance snap, got %q", out)
	}
}

func TestSnapPreservesCapitalization(t *testing.T) {
	corrector := New(DefaultConfig(), testVocabulary(), nil, zaptest.NewLogger(t))

	out, err := corrector.Process(context.Background(), "Lone against gold.", testContext())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out != "Loan against gold." {
		t.Errorf("Expected capitalized snap with punctuation kept, got %q", out)
	}
}

func TestSnapRejectsDistantToken(t *testing.T) {
	corrector := New(DefaultConfig(), testVocabulary(), nil, zaptest.NewLogger(t))

	out, err := corrector.Process(context.Background(), "the world is big", testContext())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out != "the world is big" {
		t.Errorf("Ordinary words must not be pulled into the vocabulary, got %q", out)
	}
}
