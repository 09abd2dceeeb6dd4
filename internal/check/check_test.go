package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/renamebot/internal/config"
)

type recordLogger struct {
	lines []string
}

func (r *recordLogger) add(level, format string, args ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}
func (r *recordLogger) Info(f string, a ...interface{})    { r.add("INFO", f, a...) }
func (r *recordLogger) Success(f string, a ...interface{}) { r.add("SUCCESS", f, a...) }
func (r *recordLogger) Warn(f string, a ...interface{})    { r.add("WARN", f, a...) }
func (r *recordLogger) Error(f string, a ...interface{})   { r.add("ERROR", f, a...) }
func (r *recordLogger) Debug(v bool, f string, a ...interface{}) {
	if v {
		r.add("DEBUG", f, a...)
	}
}

func batchConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Mode = config.RunBatch
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.TempDir = filepath.Join(root, "tmp")
	cfg.FFmpegPath = "definitely-not-ffmpeg"
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))
	return &cfg
}

func TestCheckDeps_Batch(t *testing.T) {
	cfg := batchConfig(t)
	require.NoError(t, CheckDeps(context.Background(), cfg))
	assert.DirExists(t, cfg.OutputDir)
	assert.DirExists(t, cfg.TempDir)
}

func TestCheckDeps_MissingInput(t *testing.T) {
	cfg := batchConfig(t)
	cfg.InputDir = filepath.Join(cfg.InputDir, "nope")
	err := CheckDeps(context.Background(), cfg)
	assert.True(t, errors.Is(err, ErrInputDir), "got %v", err)
}

func TestCheckDeps_BotDatabase(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DownloadDir = filepath.Join(root, "downloads")
	cfg.TempDir = filepath.Join(root, "temp")
	cfg.DatabasePath = filepath.Join(root, "data", "bot.db")
	cfg.AutoThumbnail = false

	require.NoError(t, CheckDeps(context.Background(), &cfg))
	assert.FileExists(t, cfg.DatabasePath)

	cfg.AutoThumbnail = true
	cfg.FFmpegPath = "definitely-not-ffmpeg"
	assert.ErrorIs(t, CheckDeps(context.Background(), &cfg), ErrFfmpegNotFound)
}

func TestCheckDeps_NotWritable(t *testing.T) {
	cfg := batchConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.OutputDir = filepath.Join(blocker, "out")
	assert.ErrorIs(t, CheckDeps(context.Background(), cfg), ErrDirNotWritable)
}

func TestRunCheck_Batch(t *testing.T) {
	cfg := batchConfig(t)
	cfg.AutoThumbnail = false
	log := &recordLogger{}

	failed := RunCheck(context.Background(), cfg, log)
	assert.Equal(t, 0, failed)
	assert.Contains(t, log.lines, "SUCCESS Writable: "+cfg.OutputDir)
	assert.Contains(t, log.lines, "SUCCESS All checks passed")
}

func TestRunCheck_BotWithoutToken(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DownloadDir = filepath.Join(root, "downloads")
	cfg.TempDir = filepath.Join(root, "temp")
	cfg.DatabasePath = filepath.Join(root, "bot.db")
	cfg.FFmpegPath = "definitely-not-ffmpeg"
	log := &recordLogger{}

	// Missing token, and ffmpeg missing while auto thumbnails are on.
	failed := RunCheck(context.Background(), &cfg, log)
	assert.Equal(t, 2, failed)
	assert.Contains(t, log.lines, "ERROR No bot token (set BOT_TOKEN or --token)")
}
