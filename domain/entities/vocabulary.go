package entities

import "strings"

// DomainVocabulary is the read-only language data for one domain: terms to
// preserve verbatim, common phrases, and known recognizer mistakes with their
// corrections. Loaded once at startup and shared by reference.
type DomainVocabulary struct {
	Terms       []string
	Phrases     []string
	Corrections map[string]string

	termSet map[string]struct{}
}

// NewDomainVocabulary builds the vocabulary and its lookup index.
func NewDomainVocabulary(terms, phrases []string, corrections map[string]string) *DomainVocabulary {
	v := &DomainVocabulary{
		Terms:       terms,
		Phrases:     phrases,
		Corrections: corrections,
		termSet:     make(map[string]struct{}, len(terms)),
	}
	for _, t := range terms {
		for _, w := range strings.Fields(strings.ToLower(t)) {
			v.termSet[w] = struct{}{}
		}
	}
	for _, p := range phrases {
		for _, w := range strings.Fields(strings.ToLower(p)) {
			v.termSet[w] = struct{}{}
		}
	}
	return v
}

// Knows reports whether a single token appears in any term or phrase.
func (v *DomainVocabulary) Knows(token string) bool {
	_, ok := v.termSet[strings.ToLower(strings.Trim(token, ".,!?;:"))]
	return ok
}
