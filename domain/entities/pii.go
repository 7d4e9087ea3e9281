package entities

import "strings"

// PIIType tags a detected personal-identifier span.
type PIIType string

const (
	PIITypePersonName  PIIType = "person_name"
	PIITypePhoneNumber PIIType = "phone_number"
	PIITypeEmail       PIIType = "email"
	PIITypeAadhaar     PIIType = "aadhaar"
	PIITypePAN         PIIType = "pan"
	PIITypeBankAccount PIIType = "bank_account"
	PIITypeCardNumber  PIIType = "card_number"
)

// PIIEntity is a detected personal-identifier span. Offsets are byte
// positions into the scanned text.
type PIIEntity struct {
	Type  PIIType
	Text  string
	Start int
	End   int
}

// RedactionPlaceholder replaces fully redacted spans.
const RedactionPlaceholder = "[REDACTED]"

// RedactionStrategy controls how much of a detected span survives redaction.
type RedactionStrategy struct {
	// Full replaces the whole span with RedactionPlaceholder. Used for the
	// logging destination.
	Full bool
	// VisibleSuffix is the number of trailing characters revealed under
	// partial masking. Used for the spoken-output destination.
	VisibleSuffix int
}

// FullRedaction redacts entire spans. The right strategy for anything that
// is persisted.
func FullRedaction() RedactionStrategy {
	return RedactionStrategy{Full: true}
}

// PartialMask reveals the last n characters of a span and masks the rest.
func PartialMask(n int) RedactionStrategy {
	return RedactionStrategy{VisibleSuffix: n}
}

// Apply redacts one span's text under this strategy.
func (s RedactionStrategy) Apply(text string) string {
	if s.Full {
		return RedactionPlaceholder
	}
	runes := []rune(text)
	if s.VisibleSuffix >= len(runes) {
		return text
	}
	masked := len(runes) - s.VisibleSuffix
	return strings.Repeat("*", masked) + string(runes[masked:])
}
