package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/renamebot/internal/config"
	"github.com/backmassage/renamebot/internal/term"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"small bytes", 512, "512 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"1 MiB", 1024 * 1024, "1.0 MiB"},
		{"1 GiB", 1024 * 1024 * 1024, "1.0 GiB"},
		{"typical file 700 MiB", 734003200, "700.0 MiB"},
		{"upload limit", 5 << 30, "5.0 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"expired", -time.Minute, "expired"},
		{"zero", 0, "expired"},
		{"minutes", 15 * time.Minute, "0h 15m"},
		{"referral bonus", 3 * time.Hour, "3h 0m"},
		{"days", 76 * time.Hour, "3d 4h"},
		{"year", 365 * 24 * time.Hour, "365d 0h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRemaining(tt.d); got != tt.want {
				t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.n); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPrintBanner(t *testing.T) {
	term.Configure(config.ColorNever)
	cfg := config.DefaultConfig()
	cfg.Mode = config.RunWatch
	cfg.InputDir, cfg.OutputDir = "/in", "/out"

	var buf bytes.Buffer
	PrintBanner(&buf, &cfg)
	if !strings.Contains(buf.String(), "watching /in -> /out") {
		t.Errorf("banner = %q", buf.String())
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Error("colors disabled but escape codes written")
	}
}

func TestModeSummary_Bot(t *testing.T) {
	cfg := config.DefaultConfig()
	if got := ModeSummary(&cfg); got != "bot (long polling)" {
		t.Errorf("got %q", got)
	}
	cfg.WebhookURL = "https://example.org/hook"
	if got := ModeSummary(&cfg); got != "bot (webhook on :8080)" {
		t.Errorf("got %q", got)
	}
}
