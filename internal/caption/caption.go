// Package caption formats the message caption sent with a renamed file, as
// Telegram HTML.
package caption

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Style is a caption formatting choice.
type Style string

const (
	Normal        Style = "Normal"
	NoCap         Style = "No Cap"
	Quote         Style = "Quote"
	Bold          Style = "Bold"
	Italic        Style = "Italic"
	Underline     Style = "Underline"
	Mono          Style = "Mono"
	Strikethrough Style = "Strikethrough"
	Spoiler       Style = "Spoiler"
	Reverse       Style = "Reverse"
	Link          Style = "Link"
)

// Styles lists every style in menu order.
var Styles = []Style{
	Normal, NoCap, Quote, Bold, Italic, Underline,
	Mono, Strikethrough, Spoiler, Reverse, Link,
}

// ParseStyle matches s against [Styles] case-insensitively.
func ParseStyle(s string) (Style, error) {
	s = strings.TrimSpace(s)
	for _, st := range Styles {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown caption style %q", s)
}

var wrapTags = map[Style]string{
	Quote:         "blockquote",
	Bold:          "b",
	Italic:        "i",
	Underline:     "u",
	Mono:          "code",
	Strikethrough: "s",
	Spoiler:       "tg-spoiler",
}

// Render returns the HTML caption for filename. link is used by the Link
// style only; without one it renders like Normal. NoCap returns "".
func Render(style Style, filename, link string) string {
	text := escape(filename)
	switch style {
	case NoCap:
		return ""
	case Reverse:
		return escape(reverse(filename))
	case Link:
		if link == "" {
			return text
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`, escapeAttr(link), text)
	}
	if tag, ok := wrapTags[style]; ok {
		return "<" + tag + ">" + text + "</" + tag + ">"
	}
	return text
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func escapeAttr(s string) string {
	return strings.ReplaceAll(escape(s), `"`, "&quot;")
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
