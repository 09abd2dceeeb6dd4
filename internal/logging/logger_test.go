package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/renamebot/internal/config"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	l.out, l.errOut = &out, &errOut
	l.now = func() time.Time { return time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC) }
	return l, &out, &errOut
}

func TestNewLogger_NoFile(t *testing.T) {
	l, out, _ := newTestLogger(t)
	defer l.Close()
	l.Info("test message %d", 7)
	if got := out.String(); got != "2026-05-01 09:30:00 [INFO] test message 7\n" {
		t.Errorf("line = %q", got)
	}
	if l.FilePath() != "" {
		t.Errorf("FilePath = %q", l.FilePath())
	}
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "logs", "renamebot.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.out = &bytes.Buffer{}
	l.Info("to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("INFO")) || !bytes.Contains(b, []byte("to file")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestLevels(t *testing.T) {
	l, out, errOut := newTestLogger(t)
	l.Success("ok")
	l.Warn("careful")
	l.Event("user %d sent a file", 42)
	l.Error("broken")
	l.Debug(false, "hidden")
	l.Debug(true, "shown")

	for _, want := range []string{"[SUCCESS] ok", "[WARN] careful", "[EVENT] user 42 sent a file", "[DEBUG] shown"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "hidden") {
		t.Error("Debug(false) should not log")
	}
	if !strings.Contains(errOut.String(), "[ERROR] broken") || strings.Contains(out.String(), "broken") {
		t.Errorf("errors belong on stderr: out=%q err=%q", out.String(), errOut.String())
	}
}
