package naming

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Variables maps placeholder names to substitution values. Keys are
// case-sensitive.
type Variables map[string]string

// rePlaceholder matches a {name} token. The name is everything up to the
// next closing brace, so malformed names are still found (and removed) here;
// grammar checks belong to [ValidateTemplate].
var rePlaceholder = regexp.MustCompile(`\{([^}]+)\}`)

// reIdentifier is the placeholder-name grammar.
var reIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ApplyTemplate substitutes vars into tmpl and returns a cleaned filename.
//
// Placeholders whose name is present in vars are replaced by the value
// verbatim; values are not rescanned, so a value containing braces survives
// substitution. Placeholders with no value are removed. The result goes
// through [Sanitize] with [ProfileFilename]; it is never empty.
func ApplyTemplate(tmpl string, vars Variables) string {
	if tmpl == "" {
		return FallbackName
	}
	out := rePlaceholder.ReplaceAllStringFunc(tmpl, func(token string) string {
		return vars[token[1:len(token)-1]]
	})
	return Sanitize(out, ProfileFilename, FallbackName)
}

// ExtractVariableNames returns the set of placeholder names in tmpl without
// validating them.
func ExtractVariableNames(tmpl string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, m := range rePlaceholder.FindAllStringSubmatch(tmpl, -1) {
		names[m[1]] = struct{}{}
	}
	return names
}

// orderedNames returns placeholder names in first-occurrence order, without
// duplicates.
func orderedNames(tmpl string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range rePlaceholder.FindAllStringSubmatch(tmpl, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, m[1])
	}
	return out
}

// TemplateErrorCode classifies a template syntax failure.
type TemplateErrorCode string

const (
	CodeEmptyTemplate       TemplateErrorCode = "EmptyTemplate"
	CodeUnbalancedBraces    TemplateErrorCode = "UnbalancedBraces"
	CodeInvalidVariableName TemplateErrorCode = "InvalidVariableName"
)

// TemplateError is returned by [ValidateTemplate]. Name is set for
// CodeInvalidVariableName.
type TemplateError struct {
	Code TemplateErrorCode
	Name string
}

func (e *TemplateError) Error() string {
	switch e.Code {
	case CodeEmptyTemplate:
		return "empty template"
	case CodeUnbalancedBraces:
		return "unbalanced braces"
	case CodeInvalidVariableName:
		return fmt.Sprintf("invalid variable name: %s", e.Name)
	}
	return string(e.Code)
}

// Is matches on Code only, so errors.Is(err, ErrUnbalancedBraces) works for
// any TemplateError carrying that code.
func (e *TemplateError) Is(target error) bool {
	t, ok := target.(*TemplateError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrEmptyTemplate       = &TemplateError{Code: CodeEmptyTemplate}
	ErrUnbalancedBraces    = &TemplateError{Code: CodeUnbalancedBraces}
	ErrInvalidVariableName = &TemplateError{Code: CodeInvalidVariableName}
)

// TemplateInfo describes a template that passed validation.
type TemplateInfo struct {
	// Variables holds each distinct placeholder name, sorted.
	Variables []string
}

// ValidateTemplate checks tmpl syntax. Brace balance is checked first, then
// each placeholder name against the identifier grammar in order of first
// appearance; the first offending name is reported.
func ValidateTemplate(tmpl string) (TemplateInfo, error) {
	if tmpl == "" {
		return TemplateInfo{}, &TemplateError{Code: CodeEmptyTemplate}
	}
	if strings.Count(tmpl, "{") != strings.Count(tmpl, "}") {
		return TemplateInfo{}, &TemplateError{Code: CodeUnbalancedBraces}
	}

	names := orderedNames(tmpl)
	for _, name := range names {
		if !reIdentifier.MatchString(name) {
			return TemplateInfo{}, &TemplateError{Code: CodeInvalidVariableName, Name: name}
		}
	}
	sort.Strings(names)
	return TemplateInfo{Variables: names}, nil
}

// SampleVariables returns the fixed values used for template previews.
func SampleVariables() Variables {
	return Variables{
		"title":      "Sample Movie",
		"season":     "01",
		"episode":    "05",
		"audio":      "AAC",
		"quality":    "1080p",
		"volume":     "Vol1",
		"chapter":    "01",
		"year":       "2024",
		"resolution": "1920x1080",
		"codec":      "H264",
	}
}

// PreviewTemplate renders tmpl against [SampleVariables].
func PreviewTemplate(tmpl string) string {
	return ApplyTemplate(tmpl, SampleVariables())
}
