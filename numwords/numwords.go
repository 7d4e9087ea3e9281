// Package numwords converts numeric expressions embedded in text into words
// a synthesizer can speak. Currency and percentage markers are lexicalized
// with the number, and the magnitude grouping convention follows the writing
// system of the turn: Indic scripts group by lakh and crore, Latin script by
// thousand and million.
package numwords

import (
	"regexp"
	"strings"

	"github.com/vaanihq/vaani/domain/entities"
)

// Convention selects the magnitude lexicalization scheme.
type Convention int

const (
	// Western groups by thousand/million/billion.
	Western Convention = iota
	// Indian groups by thousand/lakh/crore.
	Indian
)

// ConventionForScript maps the detected script onto its customary grouping.
func ConventionForScript(s entities.Script) Convention {
	if s == entities.ScriptLatin || s == entities.ScriptArabic {
		return Western
	}
	return Indian
}

// One pattern finds every numeric expression: optional currency prefix,
// digits with optional comma grouping and decimal part, optional percent or
// currency-word suffix. Devanagari digits are normalized before matching.
var numberPattern = regexp.MustCompile(
	`(?i)(₹|\$|Rs\.?\s*)?(\d+(?:,\d+)*(?:\.\d+)?)(?:\s*(%|percent\b|rupees?\b|rs\b))?`)

var devanagariDigits = strings.NewReplacer(
	"०", "0", "१", "1", "२", "2", "३", "3", "४", "4",
	"५", "5", "६", "6", "७", "7", "८", "8", "९", "9",
)

// Convert rewrites every numeric, currency, and percentage expression in the
// text as words. The output contains no digit characters from the original
// expressions, with one exception: digit runs preceded by a mask character
// are the visible suffix of a redacted identifier, not a quantity, and are
// left exactly as written.
func Convert(text string, conv Convention) string {
	text = devanagariDigits.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range numberPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		numStart := m[4]
		if numStart > 0 && text[numStart-1] == '*' {
			continue
		}

		group := func(i int) string {
			if m[2*i] < 0 {
				return ""
			}
			return text[m[2*i]:m[2*i+1]]
		}
		currency := strings.TrimSpace(group(1))
		number := strings.ReplaceAll(group(2), ",", "")
		suffix := strings.ToLower(strings.TrimSpace(group(3)))

		words := decimalToWords(number, conv)
		switch {
		case suffix == "%" || suffix == "percent":
			words += " percent"
		case currency == "₹" || strings.HasPrefix(currency, "Rs") ||
			suffix == "rupees" || suffix == "rupee" || suffix == "rs":
			words += " rupees"
		case currency == "$":
			words += " dollars"
		}

		b.WriteString(text[last:start])
		b.WriteString(words)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func decimalToWords(number string, conv Convention) string {
	whole, frac, hasFrac := strings.Cut(number, ".")
	words := integerToWords(whole, conv)
	if hasFrac && frac != "" {
		var digits []string
		for _, d := range frac {
			digits = append(digits, ones[d-'0'])
		}
		words += " point " + strings.Join(digits, " ")
	}
	return words
}

var ones = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
	"sixteen", "seventeen", "eighteen", "nineteen",
}

var tens = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

// belowThousand lexicalizes 0..999.
func belowThousand(n int) string {
	switch {
	case n < 20:
		return ones[n]
	case n < 100:
		w := tens[n/10]
		if n%10 != 0 {
			w += " " + ones[n%10]
		}
		return w
	default:
		w := ones[n/100] + " hundred"
		if n%100 != 0 {
			w += " " + belowThousand(n%100)
		}
		return w
	}
}

// integerToWords lexicalizes an unsigned decimal string of any length under
// the given convention. Leading zeros read digit by digit would surprise
// callers, so they are stripped first.
func integerToWords(s string, conv Convention) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "zero"
	}
	// Numbers too large for int64 are read digit by digit rather than risking
	// overflow; identifiers that long are not quantities anyway.
	if len(s) > 15 {
		var digits []string
		for _, d := range s {
			digits = append(digits, ones[d-'0'])
		}
		return strings.Join(digits, " ")
	}

	n := 0
	for _, d := range s {
		n = n*10 + int(d-'0')
	}
	if conv == Indian {
		return indianGrouping(n)
	}
	return westernGrouping(n)
}

func westernGrouping(n int) string {
	type scale struct {
		unit  int
		label string
	}
	scales := []scale{
		{1_000_000_000_000, "trillion"},
		{1_000_000_000, "billion"},
		{1_000_000, "million"},
		{1_000, "thousand"},
	}
	var parts []string
	for _, s := range scales {
		if n >= s.unit {
			parts = append(parts, belowThousand(n/s.unit)+" "+s.label)
			n %= s.unit
		}
	}
	if n > 0 || len(parts) == 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

func indianGrouping(n int) string {
	type scale struct {
		unit  int
		label string
	}
	scales := []scale{
		{10_000_000, "crore"},
		{100_000, "lakh"},
		{1_000, "thousand"},
	}
	var parts []string
	for _, s := range scales {
		if n >= s.unit {
			count := n / s.unit
			// Crore counts can themselves exceed 999 (arab-scale amounts);
			// recurse so "12345 crore" still reads cleanly.
			if count > 999 {
				parts = append(parts, indianGrouping(count)+" "+s.label)
			} else {
				parts = append(parts, belowThousand(count)+" "+s.label)
			}
			n %= s.unit
		}
	}
	if n > 0 || len(parts) == 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}
