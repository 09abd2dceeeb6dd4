// Package check provides system diagnostics (--check mode) and pre-start
// dependency validation (CheckDeps) for the directories, the database,
// ffmpeg, the bot token and the optional S3 archive.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/backmassage/renamebot/internal/config"
	"github.com/backmassage/renamebot/internal/ffmpeg"
	"github.com/backmassage/renamebot/internal/storage"
	"github.com/backmassage/renamebot/internal/transfer"
)

// Sentinel errors returned by CheckDeps.
var (
	ErrFfmpegNotFound = errors.New("ffmpeg not found on PATH")
	ErrDirNotWritable = errors.New("directory is not writable")
	ErrDatabase       = errors.New("database cannot be opened")
	ErrInputDir       = errors.New("input directory does not exist")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow. It is informational only and
// does not stop on failure; it returns the number of failed checks.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) int {
	log.Info("=== System Check ===")

	failed := 0
	for _, ok := range []bool{
		checkDirs(cfg, log),
		checkDatabase(ctx, cfg, log),
		checkFfmpeg(cfg, log),
		checkToken(cfg, log),
		checkArchive(ctx, cfg, log),
	} {
		if !ok {
			failed++
		}
	}
	if failed == 0 {
		log.Success("All checks passed")
	} else {
		log.Warn("%d check(s) failed", failed)
	}
	return failed
}

// workDirs lists the directories the selected run mode writes to.
func workDirs(cfg *config.Config) []string {
	if cfg.Mode == config.RunBot {
		return []string{cfg.DownloadDir, cfg.TempDir}
	}
	return []string{cfg.OutputDir, cfg.TempDir}
}

func checkDirs(cfg *config.Config, log Logger) bool {
	ok := true
	if cfg.Mode != config.RunBot && cfg.InputDir != "" {
		if fi, err := os.Stat(cfg.InputDir); err != nil || !fi.IsDir() {
			log.Error("Input directory missing: %s", cfg.InputDir)
			ok = false
		} else {
			log.Success("Input directory: %s", cfg.InputDir)
		}
	}
	for _, dir := range workDirs(cfg) {
		if dir == "" {
			continue
		}
		if err := writable(dir); err != nil {
			log.Error("Not writable: %s (%v)", dir, err)
			ok = false
			continue
		}
		log.Success("Writable: %s", dir)
	}
	return ok
}

func checkDatabase(ctx context.Context, cfg *config.Config, log Logger) bool {
	if cfg.Mode != config.RunBot {
		return true
	}
	if err := openDatabase(ctx, cfg.DatabasePath); err != nil {
		log.Error("Database %s: %v", cfg.DatabasePath, err)
		return false
	}
	log.Success("Database: %s", cfg.DatabasePath)
	return true
}

// checkFfmpeg verifies ffmpeg is on PATH and logs its version string.
// A missing ffmpeg only disables automatic thumbnails.
func checkFfmpeg(cfg *config.Config, log Logger) bool {
	if !ffmpeg.Available(cfg.FFmpegPath) {
		log.Warn("%s not found (automatic video thumbnails disabled)", cfg.FFmpegPath)
		return !cfg.AutoThumbnail
	}
	out, err := exec.Command(cfg.FFmpegPath, "-version").Output()
	if err != nil {
		log.Warn("ffmpeg found but -version failed: %v", err)
		return true
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("ffmpeg: %s", firstLine)
	return true
}

// checkToken asks the Bot API who we are. Skipped outside bot mode.
func checkToken(cfg *config.Config, log Logger) bool {
	if cfg.Mode != config.RunBot {
		return true
	}
	if cfg.BotToken == "" {
		log.Error("No bot token (set BOT_TOKEN or --token)")
		return false
	}
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Error("Bot token rejected: %v", err)
		return false
	}
	log.Success("Bot: @%s", api.Self.UserName)
	return true
}

func checkArchive(ctx context.Context, cfg *config.Config, log Logger) bool {
	if !cfg.S3.Enabled {
		log.Debug(cfg.Verbose, "S3 archive disabled")
		return true
	}
	a, err := transfer.NewArchiver(cfg.S3.Options())
	if err == nil {
		err = a.Ping(ctx)
	}
	if err != nil {
		log.Error("S3 archive: %v", err)
		return false
	}
	log.Success("S3 archive: s3://%s", cfg.S3.Bucket)
	return true
}

// CheckDeps is the pre-start validation: the run mode's directories must be
// writable and, in bot mode, the database must open. ffmpeg is only
// required when AutoThumbnail is set. Returns a sentinel error on failure.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	if cfg.Mode != config.RunBot {
		if fi, err := os.Stat(cfg.InputDir); err != nil || !fi.IsDir() {
			return fmt.Errorf("%w: %s", ErrInputDir, cfg.InputDir)
		}
	}
	for _, dir := range workDirs(cfg) {
		if err := writable(dir); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrDirNotWritable, dir, err)
		}
	}
	if cfg.Mode == config.RunBot {
		if err := openDatabase(ctx, cfg.DatabasePath); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabase, err)
		}
	}
	if cfg.AutoThumbnail && cfg.Mode == config.RunBot && !ffmpeg.Available(cfg.FFmpegPath) {
		return ErrFfmpegNotFound
	}
	return nil
}

// --- internal helpers ---

// writable creates dir if needed and proves a file can be written in it.
func writable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}

func openDatabase(ctx context.Context, path string) error {
	st, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Ping(ctx)
}
