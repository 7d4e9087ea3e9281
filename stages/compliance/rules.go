// Package compliance evaluates generated text against a configured rule set
// before it reaches synthesis, and remediates findings according to their
// severity.
package compliance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vaanihq/vaani/domain/entities"
)

// ForbiddenPhraseRule flags a phrase the agent must never speak. A match is
// a Critical violation. Replacement, when set, is the deterministic rewrite
// used if the language model cannot produce a compliant version.
type ForbiddenPhraseRule struct {
	ID          string `yaml:"id"`
	Phrase      string `yaml:"phrase"`
	Replacement string `yaml:"replacement"`
	Description string `yaml:"description"`
}

// DisclaimerRule attaches a required addition when its trigger pattern
// matches. The match itself is a Warning; the text passes unchanged apart
// from the inserted disclaimer.
type DisclaimerRule struct {
	ID          string `yaml:"id"`
	Pattern     string `yaml:"pattern"`
	Disclaimer  string `yaml:"disclaimer"`
	Anchor      string `yaml:"anchor"` // "start", "end", "after_span"
	Description string `yaml:"description"`
}

// NumericRangeRule bounds a quoted numeric claim (an interest rate, a fee
// percentage). A value outside [Min, Max] is an Error violation and is
// always auto-rewritten with Replacement.
type NumericRangeRule struct {
	ID          string  `yaml:"id"`
	Pattern     string  `yaml:"pattern"` // must capture the numeric value in group 1
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
	Replacement string  `yaml:"replacement"`
	Description string  `yaml:"description"`
}

// RuleSet is the raw, config-shaped rule collection.
type RuleSet struct {
	ForbiddenPhrases []ForbiddenPhraseRule `yaml:"forbidden_phrases"`
	Disclaimers      []DisclaimerRule      `yaml:"disclaimers"`
	NumericRanges    []NumericRangeRule    `yaml:"numeric_ranges"`
}

type compiledForbidden struct {
	rule    ForbiddenPhraseRule
	pattern *regexp.Regexp
}

type compiledDisclaimer struct {
	rule    DisclaimerRule
	pattern *regexp.Regexp
	anchor  entities.Anchor
}

type compiledNumeric struct {
	rule    NumericRangeRule
	pattern *regexp.Regexp
}

// CompiledRules is the read-only form shared by every turn. It is built once
// at startup and never mutated.
type CompiledRules struct {
	forbidden    []compiledForbidden
	disclaimers  []compiledDisclaimer
	numeric      []compiledNumeric
	replacements map[string]string
}

// Compile validates and compiles the rule set.
func Compile(rs RuleSet) (*CompiledRules, error) {
	out := &CompiledRules{replacements: make(map[string]string)}

	for _, r := range rs.ForbiddenPhrases {
		if strings.TrimSpace(r.Phrase) == "" {
			return nil, fmt.Errorf("forbidden phrase rule %q: empty phrase", r.ID)
		}
		p, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(r.Phrase))
		if err != nil {
			return nil, fmt.Errorf("forbidden phrase rule %q: %w", r.ID, err)
		}
		out.forbidden = append(out.forbidden, compiledForbidden{rule: r, pattern: p})
		out.replacements[r.ID] = r.Replacement
	}

	for _, r := range rs.Disclaimers {
		p, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("disclaimer rule %q: %w", r.ID, err)
		}
		out.disclaimers = append(out.disclaimers, compiledDisclaimer{
			rule:    r,
			pattern: p,
			anchor:  parseAnchor(r.Anchor),
		})
	}

	for _, r := range rs.NumericRanges {
		p, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("numeric range rule %q: %w", r.ID, err)
		}
		if p.NumSubexp() < 1 {
			return nil, fmt.Errorf("numeric range rule %q: pattern must capture the value", r.ID)
		}
		out.numeric = append(out.numeric, compiledNumeric{rule: r, pattern: p})
		out.replacements[r.ID] = r.Replacement
	}

	return out, nil
}

func parseAnchor(s string) entities.Anchor {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return entities.AnchorStart
	case "after_span":
		return entities.AnchorAfterSpan
	default:
		return entities.AnchorEnd
	}
}

// Evaluate runs every rule over the text and collects the findings. It never
// modifies the text.
func (c *CompiledRules) Evaluate(text string) entities.ComplianceResult {
	result := entities.ComplianceResult{Compliant: true}

	for _, f := range c.forbidden {
		for _, loc := range f.pattern.FindAllStringIndex(text, -1) {
			result.Compliant = false
			result.Violations = append(result.Violations, entities.Violation{
				RuleID:      f.rule.ID,
				Description: f.rule.Description,
				Severity:    entities.SeverityCritical,
				Start:       loc[0],
				End:         loc[1],
				Text:        text[loc[0]:loc[1]],
			})
		}
	}

	for _, n := range c.numeric {
		for _, m := range n.pattern.FindAllStringSubmatchIndex(text, -1) {
			if m[2] < 0 {
				continue
			}
			value, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
			if err != nil {
				continue
			}
			if value < n.rule.Min || value > n.rule.Max {
				result.Compliant = false
				result.Violations = append(result.Violations, entities.Violation{
					RuleID:      n.rule.ID,
					Description: n.rule.Description,
					Severity:    entities.SeverityError,
					Start:       m[0],
					End:         m[1],
					Text:        text[m[0]:m[1]],
				})
			}
		}
	}

	for _, d := range c.disclaimers {
		loc := d.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		// Disclaimer already present verbatim: nothing to add.
		if strings.Contains(text, d.rule.Disclaimer) {
			continue
		}
		result.Violations = append(result.Violations, entities.Violation{
			RuleID:      d.rule.ID,
			Description: d.rule.Description,
			Severity:    entities.SeverityWarning,
			Start:       loc[0],
			End:         loc[1],
			Text:        text[loc[0]:loc[1]],
		})
		result.RequiredAdditions = append(result.RequiredAdditions, entities.RequiredAddition{
			Text:    d.rule.Disclaimer,
			Anchor:  d.anchor,
			SpanEnd: loc[1],
		})
	}

	return result
}

// Replacement returns the configured deterministic rewrite for a rule.
func (c *CompiledRules) Replacement(ruleID string) string {
	return c.replacements[ruleID]
}
