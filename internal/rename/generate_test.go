package rename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/renamebot/internal/naming"
)

func TestGenerateName(t *testing.T) {
	episode := FileDescriptor{Name: "The.Show.S01E05.1080p.mkv", UniqueID: "AQAD"}
	anon := FileDescriptor{UniqueID: "AQAD"}

	cases := []struct {
		name    string
		file    FileDescriptor
		caption string
		s       Settings
		want    string
	}{
		{
			name: "autorename without template keeps original",
			file: episode, s: Settings{Mode: ModeAutorename},
			want: "The.Show.S01E05.1080p.mkv",
		},
		{
			name: "autorename without template or name",
			file: anon, s: Settings{Mode: ModeAutorename},
			want: "file_AQAD",
		},
		{
			name: "autorename template gets extension",
			file: episode, s: Settings{Mode: ModeAutorename, Template: "S{season}E{episode} [{quality}]"},
			want: "S01E05 [1080p].mkv",
		},
		{
			name: "autorename extension not doubled",
			file: episode, s: Settings{Mode: ModeAutorename, Template: "Show S{season}E{episode}.mkv"},
			want: "Show S01E05.mkv",
		},
		{
			name: "empty mode means autorename",
			file: episode, s: Settings{Template: "E{episode}"},
			want: "E05.mkv",
		},
		{
			name: "manual caption sanitized and extended",
			file: episode, caption: "  My: Show  ", s: Settings{Mode: ModeManual},
			want: "My_ Show.mkv",
		},
		{
			name: "manual empty caption keeps original unchanged",
			file: episode, caption: "   ", s: Settings{Mode: ModeManual},
			want: "The.Show.S01E05.1080p.mkv",
		},
		{
			name: "manual caption sanitizes to nothing",
			file: episode, caption: "???", s: Settings{Mode: ModeManual},
			want: "The.Show.S01E05.1080p.mkv",
		},
		{
			name: "manual without original name",
			file: anon, caption: "clip", s: Settings{Mode: ModeManual},
			want: "clip",
		},
		{
			name: "replace applies rules",
			file: episode,
			s: Settings{Mode: ModeReplace, Rules: naming.ReplacementRules{
				{Old: ".", New: " "},
			}},
			want: "The Show S01E05 1080p mkv",
		},
		{
			name: "replace runs rules twice",
			file: FileDescriptor{Name: "a.txt"},
			s: Settings{Mode: ModeReplace, Rules: naming.ReplacementRules{
				{Old: "a", New: "aa"},
			}},
			want: "aaaa.txt",
		},
		{
			name: "rules post-process autorename",
			file: episode,
			s: Settings{Mode: ModeAutorename, Template: "{title}", Rules: naming.ReplacementRules{
				{Old: "1080p", New: "FHD"},
			}},
			want: "The.Show.S01E05.FHD.mkv",
		},
		{
			name: "file without extension",
			file: FileDescriptor{Name: "README"},
			s:    Settings{Mode: ModeAutorename, Template: "{title}"},
			want: "README",
		},
		{
			name: "rule emptying the name falls back to original",
			file: FileDescriptor{Name: "Show.S01E02.mkv"},
			s: Settings{Mode: ModeReplace, Rules: naming.ReplacementRules{
				{Old: "Show.S01E02.mkv", New: ""},
			}},
			want: "Show.S01E02.mkv",
		},
		{
			name: "rule producing dots only falls back to original",
			file: FileDescriptor{Name: "ab"},
			s: Settings{Mode: ModeReplace, Rules: naming.ReplacementRules{
				{Old: "ab", New: ".."},
			}},
			want: "ab",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GenerateName(tc.file, tc.caption, tc.s))
		})
	}
}

func TestGenerateNameRulesCannotEscapeDirectory(t *testing.T) {
	file := FileDescriptor{Name: "Show.S01E02.mkv"}
	rules := naming.ReplacementRules{{Old: "Show", New: "../../../tmp/pwn"}}

	for _, mode := range []Mode{ModeAutorename, ModeManual, ModeReplace} {
		t.Run(string(mode), func(t *testing.T) {
			name := GenerateName(file, "", Settings{Mode: mode, Rules: rules})
			assert.NotContains(t, name, "/")
			assert.NotContains(t, name, `\`)
			assert.Equal(t, ".._.._.._tmp_pwn.S01E02.mkv", name)
		})
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":           ModeAutorename,
		"AutoRename": ModeAutorename,
		"manual":     ModeManual,
		" replace ":  ModeReplace,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("bogus")
	assert.Error(t, err)
}

func TestFileDescriptor(t *testing.T) {
	assert.Equal(t, "gz", FileDescriptor{Name: "a.tar.gz"}.Extension())
	assert.Equal(t, "", FileDescriptor{Name: "noext"}.Extension())
	assert.Equal(t, "file_X", FileDescriptor{UniqueID: "X"}.FallbackName())
}
