package entities

// Severity grades a compliance finding and determines how it is handled.
type Severity int

const (
	// SeverityInfo findings are logged only.
	SeverityInfo Severity = iota
	// SeverityWarning findings are logged; the text passes unchanged.
	SeverityWarning
	// SeverityError findings are always auto-rewritten and never fail a turn.
	SeverityError
	// SeverityCritical findings must be resolved by a compliant rewrite;
	// an unresolved Critical fails the turn in strict mode.
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Anchor names where a required addition is inserted.
type Anchor int

const (
	// AnchorEnd appends at document end. It is the fallback when span
	// tracking is unavailable.
	AnchorEnd Anchor = iota
	// AnchorStart prepends at document start.
	AnchorStart
	// AnchorAfterSpan inserts immediately after the triggering span.
	AnchorAfterSpan
)

// Violation is one non-compliant finding in generated text.
type Violation struct {
	RuleID      string
	Description string
	Severity    Severity
	// Start/End are byte offsets of the triggering span; End == 0 means the
	// span is unknown.
	Start int
	End   int
	// Text is the violating span, when known.
	Text string
}

// RequiredAddition is text (disclaimer, qualifier) that must be inserted
// before the utterance reaches synthesis.
type RequiredAddition struct {
	Text   string
	Anchor Anchor
	// SpanEnd is the byte offset just past the triggering span, meaningful
	// only for AnchorAfterSpan.
	SpanEnd int
}

// ComplianceResult is the outcome of evaluating one utterance against the
// configured rule set.
type ComplianceResult struct {
	Compliant         bool
	Violations        []Violation
	RequiredAdditions []RequiredAddition
}

// Compliant returns a result with no findings.
func CompliantResult() ComplianceResult {
	return ComplianceResult{Compliant: true}
}

// HasSeverity reports whether any violation is at least the given severity.
func (r ComplianceResult) HasSeverity(min Severity) bool {
	for _, v := range r.Violations {
		if v.Severity >= min {
			return true
		}
	}
	return false
}

// BySeverity returns the violations matching exactly the given severity.
func (r ComplianceResult) BySeverity(s Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == s {
			out = append(out, v)
		}
	}
	return out
}
