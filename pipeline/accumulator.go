package pipeline

import (
	"strings"

	"github.com/vaanihq/vaani/domain/entities"
)

// SentenceAccumulator buffers arbitrarily sized text fragments and emits
// complete sentence units. It is per-turn mutable state: created at stream
// start, owned by the task handling the turn, destroyed at stream end.
//
// The buffer holds decoded runes, never raw bytes, so a chunk boundary that
// splits a multi-byte character cannot corrupt the scan.
type SentenceAccumulator struct {
	buf         []rune
	terminators map[rune]struct{}
}

// NewSentenceAccumulator creates an accumulator with the terminator set of
// the given script.
func NewSentenceAccumulator(script entities.Script) *SentenceAccumulator {
	set := make(map[rune]struct{})
	for _, r := range script.SentenceTerminators() {
		set[r] = struct{}{}
	}
	return &SentenceAccumulator{terminators: set}
}

// Push appends a fragment and returns the complete sentences now available,
// in order. Every returned sentence is trimmed and ends with a terminator.
// Fragments that only extend the current partial sentence return nothing.
func (a *SentenceAccumulator) Push(chunk string) []string {
	if chunk == "" {
		return nil
	}
	a.buf = append(a.buf, []rune(chunk)...)

	var sentences []string
	for {
		cut := -1
		for i, r := range a.buf {
			if _, ok := a.terminators[r]; ok {
				cut = i
				break
			}
		}
		if cut < 0 {
			return sentences
		}
		sentence := strings.TrimSpace(string(a.buf[:cut+1]))
		a.buf = a.buf[cut+1:]
		if a.hasContent(sentence) {
			sentences = append(sentences, sentence)
		}
	}
}

// Flush returns the non-terminated remainder, if any, and resets the buffer.
// Called once at stream end; the returned unit may lack a terminator.
func (a *SentenceAccumulator) Flush() (string, bool) {
	rest := strings.TrimSpace(string(a.buf))
	a.buf = a.buf[:0]
	if !a.hasContent(rest) {
		return "", false
	}
	return rest, true
}

// Pending reports whether the buffer holds an incomplete sentence.
func (a *SentenceAccumulator) Pending() bool {
	return strings.TrimSpace(string(a.buf)) != ""
}

// hasContent rejects units made only of terminators and whitespace, so a
// chunk consisting solely of a terminator never produces an empty emission.
func (a *SentenceAccumulator) hasContent(s string) bool {
	for _, r := range s {
		if _, terminator := a.terminators[r]; !terminator && !strings.ContainsRune(" \t\n\r", r) {
			return true
		}
	}
	return false
}
