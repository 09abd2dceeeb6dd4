package naming

import (
	"regexp"
	"strings"
	"unicode"
)

// Profile selects the cleaning rules applied by [Sanitize].
type Profile int

const (
	// ProfileFilename cleans template output: whitespace runs are collapsed
	// and leading/trailing spaces, hyphens and underscores are trimmed.
	ProfileFilename Profile = iota
	// ProfileManual cleans user-typed captions. Internal whitespace is kept
	// as typed; only underscores and whitespace are trimmed at the edges.
	ProfileManual
)

// String returns the profile name used in log output.
func (p Profile) String() string {
	switch p {
	case ProfileFilename:
		return "filename"
	case ProfileManual:
		return "manual"
	}
	return "unknown"
}

const (
	// FallbackName is returned whenever cleaning leaves nothing usable.
	FallbackName = "renamed_file"

	// MaxNameLength is the rune limit applied to every sanitized name.
	MaxNameLength = 200
)

// invalidCharReplacer maps characters that are unsafe on common filesystems
// to underscores.
var invalidCharReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

var (
	reUnderscoreRun = regexp.MustCompile(`_{2,}`)
	reWhitespaceRun = regexp.MustCompile(`\s+`)
)

// Sanitize normalizes raw into a safe, bounded filename using profile p.
// When nothing usable remains, fallback is returned verbatim; an empty
// fallback means [FallbackName].
//
// Sanitize is idempotent for a given profile: feeding its output back in
// returns the same string.
func Sanitize(raw string, p Profile, fallback string) string {
	if fallback == "" {
		fallback = FallbackName
	}

	edge := isManualEdge
	s := raw
	if p == ProfileFilename {
		s = reWhitespaceRun.ReplaceAllString(s, " ")
		edge = isFilenameEdge
	}

	s = invalidCharReplacer.Replace(s)
	s = reUnderscoreRun.ReplaceAllString(s, "_")
	s = strings.TrimFunc(s, edge)

	// Truncation can expose a trailing separator, so trim again.
	s = truncateRunes(s, MaxNameLength)
	s = strings.TrimFunc(s, edge)

	// "." and ".." name directories, not files.
	if strings.Trim(s, ".") == "" {
		return fallback
	}
	return s
}

func isManualEdge(r rune) bool {
	return r == '_' || unicode.IsSpace(r)
}

func isFilenameEdge(r rune) bool {
	return r == '-' || r == '_' || unicode.IsSpace(r)
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
