package caption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	cases := []struct {
		style Style
		link  string
		want  string
	}{
		{Normal, "", "A &lt;b&gt; &amp; C.mkv"},
		{NoCap, "", ""},
		{Bold, "", "<b>A &lt;b&gt; &amp; C.mkv</b>"},
		{Quote, "", "<blockquote>A &lt;b&gt; &amp; C.mkv</blockquote>"},
		{Spoiler, "", "<tg-spoiler>A &lt;b&gt; &amp; C.mkv</tg-spoiler>"},
		{Mono, "", "<code>A &lt;b&gt; &amp; C.mkv</code>"},
		{Reverse, "", "vkm.C &amp; &gt;b&lt; A"},
		{Link, "", "A &lt;b&gt; &amp; C.mkv"},
		{Link, `https://x.io/?a="1"`, `<a href="https://x.io/?a=&quot;1&quot;">A &lt;b&gt; &amp; C.mkv</a>`},
	}
	for _, tc := range cases {
		t.Run(string(tc.style), func(t *testing.T) {
			assert.Equal(t, tc.want, Render(tc.style, "A <b> & C.mkv", tc.link))
		})
	}
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("no cap")
	require.NoError(t, err)
	assert.Equal(t, NoCap, s)

	_, err = ParseStyle("Blink")
	assert.Error(t, err)
}

func TestWithBanner(t *testing.T) {
	link := "https://t.me/chan"
	line := `<a href="https://t.me/chan">https://t.me/chan</a>`

	assert.Equal(t, line+"\n\nbody", WithBanner("body", link, BannerStart))
	assert.Equal(t, "body\n\n"+line, WithBanner("body", link, BannerEnd))
	assert.Equal(t, line+"\n\nbody\n\n"+line, WithBanner("body", link, BannerBoth))
	assert.Equal(t, "body", WithBanner("body", link, BannerDisabled))
	assert.Equal(t, "body", WithBanner("body", "", BannerBoth))
	assert.Equal(t, line, WithBanner("", link, BannerEnd))

	p, err := ParsePosition("both")
	require.NoError(t, err)
	assert.Equal(t, BannerBoth, p)
}
