package caption

import (
	"fmt"
	"strings"
)

// Position says where the banner link goes relative to the caption.
type Position string

const (
	BannerStart    Position = "START"
	BannerEnd      Position = "END"
	BannerBoth     Position = "BOTH"
	BannerDisabled Position = "DISABLED"
)

// Positions lists every banner position in menu order.
var Positions = []Position{BannerStart, BannerEnd, BannerBoth, BannerDisabled}

// ParsePosition matches s case-insensitively.
func ParsePosition(s string) (Position, error) {
	for _, p := range Positions {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown banner position %q", s)
}

// WithBanner places a link line before and/or after body. An empty link or
// BannerDisabled returns body unchanged.
func WithBanner(body, link string, pos Position) string {
	if link == "" || pos == BannerDisabled || pos == "" {
		return body
	}
	line := fmt.Sprintf(`<a href="%s">%s</a>`, escapeAttr(link), escape(link))
	var parts []string
	if pos == BannerStart || pos == BannerBoth {
		parts = append(parts, line)
	}
	if body != "" {
		parts = append(parts, body)
	}
	if pos == BannerEnd || pos == BannerBoth {
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n\n")
}
