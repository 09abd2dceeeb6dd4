package naming

import (
	"regexp"
	"strings"
)

// KnownVariables lists every key [ExtractVariables] fills, in the order they
// are presented to users.
var KnownVariables = []string{
	"title", "season", "episode", "audio", "quality",
	"volume", "chapter", "year", "resolution", "codec",
}

// DefaultVariables returns a fresh map holding the value of every known
// variable when nothing can be inferred from the filename.
func DefaultVariables() Variables {
	return Variables{
		"title":      "Unknown",
		"season":     "01",
		"episode":    "01",
		"audio":      "AAC",
		"quality":    "1080p",
		"volume":     "",
		"chapter":    "01",
		"year":       "2024",
		"resolution": "1920x1080",
		"codec":      "H264",
	}
}

// ExtractRule pairs a name with a detection function. Rules are independent:
// each one may overwrite its own keys in vars or leave the defaults alone.
type ExtractRule struct {
	Name  string
	Apply func(filename string, vars Variables)
}

// ExtractRules is the ordered rule table used by [ExtractVariables].
var ExtractRules = []ExtractRule{
	{Name: "quality", Apply: extractQuality},
	{Name: "season-episode", Apply: extractSeasonEpisode},
	{Name: "title", Apply: extractTitle},
}

// ExtractVariables infers template variables from a raw filename. It never
// fails: every key in [KnownVariables] is present in the result, holding
// either a detected value or its default.
func ExtractVariables(filename string) Variables {
	vars := DefaultVariables()
	if filename == "" {
		return vars
	}
	for _, rule := range ExtractRules {
		rule.Apply(filename, vars)
	}
	return vars
}

// qualityPrecedence is checked top to bottom; the first entry found anywhere
// in the filename wins, regardless of where it occurs.
var qualityPrecedence = []string{
	"2160p", "1440p", "1080p", "720p", "480p", "360p", "240p", "144p",
}

// extractQuality uses unanchored substring search, so a title containing a
// quality-like token will be tagged with it.
func extractQuality(filename string, vars Variables) {
	lower := strings.ToLower(filename)
	for _, q := range qualityPrecedence {
		if strings.Contains(lower, q) {
			vars["quality"] = q
			return
		}
	}
}

var reSeasonEpisode = regexp.MustCompile(`(?i)s(\d+)e(\d+)`)

func extractSeasonEpisode(filename string, vars Variables) {
	m := reSeasonEpisode.FindStringSubmatch(filename)
	if m == nil {
		return
	}
	vars["season"] = zeroPad2(m[1])
	vars["episode"] = zeroPad2(m[2])
}

// zeroPad2 left-pads a digit string to at least two characters.
func zeroPad2(digits string) string {
	if len(digits) >= 2 {
		return digits
	}
	return strings.Repeat("0", 2-len(digits)) + digits
}

var (
	// reVideoExt is not suffix-anchored: every occurrence is
	// removed.
	reVideoExt    = regexp.MustCompile(`(?i)\.(mkv|mp4|avi|mov|wmv|flv)`)
	reSquareGroup = regexp.MustCompile(`\[.*?\]`)
	reRoundGroup  = regexp.MustCompile(`\(.*?\)`)
)

// extractTitle strips video extensions and bracketed groups. Dots and other
// separators inside the title are kept as-is.
func extractTitle(filename string, vars Variables) {
	title := reVideoExt.ReplaceAllString(filename, "")
	title = reSquareGroup.ReplaceAllString(title, "")
	title = reRoundGroup.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)
	if title != "" {
		vars["title"] = title
	}
}
