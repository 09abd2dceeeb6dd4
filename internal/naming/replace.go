package naming

import (
	"errors"
	"strings"
)

// ReplacementRule replaces every literal occurrence of Old with New.
type ReplacementRule struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

// ReplacementRules is applied in slice order, each rule seeing the previous
// rule's output. Rule sets are not confluent, so order is part of the value
// and must survive storage round-trips.
type ReplacementRules []ReplacementRule

// Apply runs every rule over s in order. Rules with an empty Old are
// skipped; replacing the empty string would insert New between every rune.
func (rs ReplacementRules) Apply(s string) string {
	for _, r := range rs {
		if r.Old == "" {
			continue
		}
		s = strings.ReplaceAll(s, r.Old, r.New)
	}
	return s
}

// Set returns a copy of rs with old mapped to with. An existing rule for old
// keeps its position; a new rule is appended.
func (rs ReplacementRules) Set(old, with string) ReplacementRules {
	out := make(ReplacementRules, 0, len(rs)+1)
	found := false
	for _, r := range rs {
		if r.Old == old {
			r.New = with
			found = true
		}
		out = append(out, r)
	}
	if !found {
		out = append(out, ReplacementRule{Old: old, New: with})
	}
	return out
}

// Remove returns a copy of rs without the rule for old.
func (rs ReplacementRules) Remove(old string) ReplacementRules {
	out := make(ReplacementRules, 0, len(rs))
	for _, r := range rs {
		if r.Old != old {
			out = append(out, r)
		}
	}
	return out
}

// ErrBadRuleSyntax is returned by [ParseReplacementRule] when the input has
// no separator or an empty left-hand side.
var ErrBadRuleSyntax = errors.New("invalid rule format (use: old_text | new_text)")

// ParseReplacementRule parses "old | new". Both sides are trimmed; the
// right-hand side may be empty, which deletes old.
func ParseReplacementRule(text string) (ReplacementRule, error) {
	old, with, ok := strings.Cut(text, "|")
	if !ok {
		return ReplacementRule{}, ErrBadRuleSyntax
	}
	old = strings.TrimSpace(old)
	if old == "" {
		return ReplacementRule{}, ErrBadRuleSyntax
	}
	return ReplacementRule{Old: old, New: strings.TrimSpace(with)}, nil
}
