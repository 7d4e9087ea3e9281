// Package pii detects personal identifiers in finalized text and redacts
// them at a destination-dependent depth: full placeholder redaction for the
// logging path, partial masking for the spoken path.
package pii

import (
	"regexp"
	"sort"

	"github.com/vaanihq/vaani/domain/entities"
)

// Detector finds PII spans in text. Implementations must return byte
// offsets into the input.
type Detector interface {
	Detect(text string) ([]entities.PIIEntity, error)
}

type pattern struct {
	piiType entities.PIIType
	re      *regexp.Regexp
}

// RegexDetector matches identifier formats common in Indian financial
// conversations. Patterns are ordered most-specific first; a later pattern
// never claims bytes inside an earlier match, so an Aadhaar number is not
// also reported as a bank account.
type RegexDetector struct {
	patterns []pattern
}

// NewRegexDetector compiles the built-in pattern set.
func NewRegexDetector() *RegexDetector {
	return &RegexDetector{patterns: []pattern{
		{entities.PIITypeEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
		{entities.PIITypePAN, regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`)},
		{entities.PIITypeCardNumber, regexp.MustCompile(`\b(?:\d{4}[ -]){3}\d{4}\b`)},
		{entities.PIITypeAadhaar, regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}\b`)},
		{entities.PIITypePhoneNumber, regexp.MustCompile(`(?:\+91[ -]?)?\b[6-9]\d{9}\b`)},
		{entities.PIITypeBankAccount, regexp.MustCompile(`\b\d{9,18}\b`)},
		{entities.PIITypePersonName, regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Shri|Smt)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)},
	}}
}

// Detect returns all non-overlapping PII spans in text, sorted by Start.
func (d *RegexDetector) Detect(text string) ([]entities.PIIEntity, error) {
	var found []entities.PIIEntity
	claimed := make([][2]int, 0, 4)

	for _, p := range d.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, [2]int{loc[0], loc[1]})
			found = append(found, entities.PIIEntity{
				Type:  p.piiType,
				Text:  text[loc[0]:loc[1]],
				Start: loc[0],
				End:   loc[1],
			})
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Start < found[j].Start })
	return found, nil
}

func overlaps(claimed [][2]int, start, end int) bool {
	for _, c := range claimed {
		if start < c[1] && end > c[0] {
			return true
		}
	}
	return false
}
