package naming

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		profile  Profile
		fallback string
		want     string
	}{
		{name: "invalid chars", raw: `a<b>c:d"e/f\g|h?i*j`, profile: ProfileFilename, want: "a_b_c_d_e_f_g_h_i_j"},
		{name: "underscore runs collapse", raw: "a___b", profile: ProfileFilename, want: "a_b"},
		{name: "replaced chars collapse", raw: "a<>b", profile: ProfileFilename, want: "a_b"},
		{name: "filename trims hyphens", raw: "  -_Hello   World_-  ", profile: ProfileFilename, want: "Hello World"},
		{name: "filename collapses tabs and newlines", raw: "a\t\tb\nc", profile: ProfileFilename, want: "a b c"},
		{name: "manual keeps inner whitespace", raw: "  _Hello   World_ ", profile: ProfileManual, want: "Hello   World"},
		{name: "manual keeps edge hyphens", raw: "-name-", profile: ProfileManual, want: "-name-"},
		{name: "empty uses default fallback", raw: "", profile: ProfileFilename, want: FallbackName},
		{name: "only invalid chars", raw: "???", profile: ProfileFilename, want: FallbackName},
		{name: "manual custom fallback", raw: "  ", profile: ProfileManual, fallback: "orig.mkv", want: "orig.mkv"},
		{name: "fallback returned verbatim", raw: "", profile: ProfileManual, fallback: "a  b", want: "a  b"},
		{name: "single dot", raw: " . ", profile: ProfileFilename, want: FallbackName},
		{name: "parent dir", raw: "..", profile: ProfileManual, fallback: "orig.mkv", want: "orig.mkv"},
		{name: "dots with separators kept", raw: "../..", profile: ProfileFilename, want: ".._.."},
		{name: "unicode kept", raw: "Café Ñandú", profile: ProfileFilename, want: "Café Ñandú"},
		{name: "truncation re-trims", raw: strings.Repeat("a", 199) + " b", profile: ProfileFilename, want: strings.Repeat("a", 199)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Sanitize(tc.raw, tc.profile, tc.fallback)
			if got != tc.want {
				t.Errorf("Sanitize(%q, %s) = %q, want %q", tc.raw, tc.profile, got, tc.want)
			}
		})
	}
}

func TestSanitize_LengthBound(t *testing.T) {
	for _, raw := range []string{strings.Repeat("a", 250), strings.Repeat("é", 250), strings.Repeat("日本", 150)} {
		got := Sanitize(raw, ProfileFilename, "")
		if n := utf8.RuneCountInString(got); n != MaxNameLength {
			t.Errorf("rune count = %d, want %d", n, MaxNameLength)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncation produced invalid UTF-8")
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"plain",
		"  -_Hello   World_-  ",
		`a<b>c:d"e/f\g|h?i*j`,
		"_-_-_",
		"x__<>__y",
		"tab\tsep\narated",
		strings.Repeat("ab ", 120),
		strings.Repeat("a", 199) + " _b",
		strings.Repeat("é_", 150),
		"- leading hyphen kept by manual",
	}
	for _, p := range []Profile{ProfileFilename, ProfileManual} {
		for _, in := range inputs {
			once := Sanitize(in, p, "")
			twice := Sanitize(once, p, "")
			if once != twice {
				t.Errorf("%s: Sanitize not idempotent for %q: %q then %q", p, in, once, twice)
			}
			if once == "" {
				t.Errorf("%s: empty output for %q", p, in)
			}
		}
	}
}

func TestProfileString(t *testing.T) {
	if ProfileFilename.String() != "filename" || ProfileManual.String() != "manual" {
		t.Errorf("unexpected profile names: %s %s", ProfileFilename, ProfileManual)
	}
	if Profile(9).String() != "unknown" {
		t.Errorf("Profile(9) = %s", Profile(9))
	}
}
