package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vaanihq/vaani/domain/entities"
)

func collect(acc *SentenceAccumulator, chunks []string) []string {
	var sentences []string
	for _, chunk := range chunks {
		sentences = append(sentences, acc.Push(chunk)...)
	}
	if rest, ok := acc.Flush(); ok {
		sentences = append(sentences, rest)
	}
	return sentences
}

func TestAccumulatorStreamingChunks(t *testing.T) {
	acc := NewSentenceAccumulator(entities.ScriptLatin)

	sentences := collect(acc, []string{"Hello. ", "How are ", "you?"})

	expected := []string{"Hello.", "How are you?"}
	if !reflect.DeepEqual(sentences, expected) {
		t.Errorf("Expected %v, got %v", expected, sentences)
	}
}

func TestAccumulatorChunkBoundaryInvariance(t *testing.T) {
	cases := [][]string{
		{"Hello. How are you? I am", " fine."},
		{"Hel", "lo. How ", "are you? I", " am fine."},
		{"H", "e", "l", "l", "o", ".", " How are you? I am fine."},
		{"Hello. How are you? I am fine."},
	}

	var want []string
	for i, chunks := range cases {
		acc := NewSentenceAccumulator(entities.ScriptLatin)
		got := collect(acc, chunks)
		if i == 0 {
			want = got
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Case %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestAccumulatorMultiByteBoundary(t *testing.T) {
	// Split a Devanagari sentence at a byte offset inside a character by
	// cutting the rune sequence; the accumulator works on decoded runes, so
	// any rune-level split must reassemble cleanly.
	text := "नमस्ते। आप कैसे हैं?"
	acc := NewSentenceAccumulator(entities.ScriptDevanagari)

	runes := []rune(text)
	chunks := []string{string(runes[:3]), string(runes[3:7]), string(runes[7:])}
	sentences := collect(acc, chunks)

	expected := []string{"नमस्ते।", "आप कैसे हैं?"}
	if !reflect.DeepEqual(sentences, expected) {
		t.Errorf("Expected %v, got %v", expected, sentences)
	}
}

func TestAccumulatorTerminatorOnlyChunk(t *testing.T) {
	acc := NewSentenceAccumulator(entities.ScriptLatin)

	if got := acc.Push("."); len(got) != 0 {
		t.Errorf("Expected no sentences from a bare terminator, got %v", got)
	}
	if rest, ok := acc.Flush(); ok {
		t.Errorf("Expected empty flush, got %q", rest)
	}
}

func TestAccumulatorEmptyChunks(t *testing.T) {
	acc := NewSentenceAccumulator(entities.ScriptLatin)

	acc.Push("")
	sentences := acc.Push("One sentence only")
	if len(sentences) != 0 {
		t.Errorf("Expected no complete sentences yet, got %v", sentences)
	}

	rest, ok := acc.Flush()
	if !ok || rest != "One sentence only" {
		t.Errorf("Expected flush to return remainder, got %q (%v)", rest, ok)
	}
}

func TestAccumulatorFinalFlushWithoutTerminator(t *testing.T) {
	acc := NewSentenceAccumulator(entities.ScriptLatin)

	sentences := acc.Push("Complete. Trailing remainder without end")
	if len(sentences) != 1 || sentences[0] != "Complete." {
		t.Fatalf("Expected one complete sentence, got %v", sentences)
	}

	if !acc.Pending() {
		t.Error("Expected pending remainder")
	}
	rest, ok := acc.Flush()
	if !ok || rest != "Trailing remainder without end" {
		t.Errorf("Unexpected flush result %q (%v)", rest, ok)
	}
	if acc.Pending() {
		t.Error("Expected buffer cleared after flush")
	}
}

func TestAccumulatorArabicTerminators(t *testing.T) {
	acc := NewSentenceAccumulator(entities.ScriptArabic)

	sentences := collect(acc, []string{"ایک جملہ۔ دوسرا", " جملہ؟"})
	if len(sentences) != 2 {
		t.Fatalf("Expected 2 sentences, got %v", sentences)
	}
	if !strings.HasSuffix(sentences[0], "۔") {
		t.Errorf("Expected Urdu full stop terminator, got %q", sentences[0])
	}
}
