package naming

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// UnknownVariables returns the placeholder names in tmpl that
// [ExtractVariables] never fills, sorted. Such placeholders always render
// empty; they are not an error.
func UnknownVariables(tmpl string) []string {
	known := make(map[string]bool, len(KnownVariables))
	for _, k := range KnownVariables {
		known[k] = true
	}
	var out []string
	for name := range ExtractVariableNames(tmpl) {
		if !known[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SuggestVariable returns the known variable that best matches name as a
// fuzzy subsequence (e.g. "qual" -> "quality", "ep" -> "episode"). Only the
// letters of name are compared, so invalid names like "ep isode" still match.
func SuggestVariable(name string) (string, bool) {
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, name)
	if name == "" {
		return "", false
	}
	matches := fuzzy.Find(name, KnownVariables)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
