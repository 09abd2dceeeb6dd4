// Command renamebot is the entrypoint for the rename bot.
//
// It parses flags, validates config, and then runs system diagnostics
// (--check), the chat bot, a one-shot batch rename, or a directory watcher.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/backmassage/renamebot/internal/bot"
	"github.com/backmassage/renamebot/internal/check"
	"github.com/backmassage/renamebot/internal/config"
	"github.com/backmassage/renamebot/internal/display"
	"github.com/backmassage/renamebot/internal/logging"
	"github.com/backmassage/renamebot/internal/pipeline"
	"github.com/backmassage/renamebot/internal/storage"
	"github.com/backmassage/renamebot/internal/transfer"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. Errors go to stderr until the logger exists.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "renamebot: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "renamebot: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "renamebot: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available.
	display.PrintBanner(os.Stdout, &cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.CheckOnly {
		if check.RunCheck(ctx, &cfg, log) > 0 {
			return 1
		}
		return 0
	}

	if cfg.Mode != config.RunBot {
		if err := resolvePaths(&cfg); err != nil {
			log.Error("%v", err)
			return 1
		}
	}
	if err := check.CheckDeps(ctx, &cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 3: Run the selected mode until done or interrupted.
	switch cfg.Mode {
	case config.RunBatch:
		stats, err := pipeline.Run(ctx, &cfg, log)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		if stats.Failed > 0 {
			return 1
		}
	case config.RunWatch:
		if _, err := pipeline.Watch(ctx, &cfg, log); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("%v", err)
			return 1
		}
	default:
		if err := runBot(ctx, &cfg, log); err != nil {
			log.Error("%v", err)
			return 1
		}
	}
	return 0
}

// resolvePaths checks that the input exists, creates the output, and
// refuses an output inside the input so batch and watch never see their
// own results.
func resolvePaths(cfg *config.Config) error {
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("input not found: %s", cfg.InputDir)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory: %s", cfg.OutputDir)
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("cannot resolve output path: %s", cfg.OutputDir)
	}
	return cfg.ValidatePaths(inputAbs, outputAbs)
}

// absPath returns the absolute, symlink-resolved path.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func runBot(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("connect to Telegram: %w", err)
	}
	log.Success("Authorized as @%s", api.Self.UserName)

	var archiver *transfer.Archiver
	if cfg.S3.Enabled {
		if archiver, err = transfer.NewArchiver(cfg.S3.Options()); err != nil {
			return err
		}
	}

	b, err := bot.New(api, bot.Options{
		Config:   cfg,
		Store:    store,
		Log:      log,
		Username: api.Self.UserName,
		Archiver: archiver,
	})
	if err != nil {
		return err
	}

	var updates <-chan tgbotapi.Update
	if cfg.WebhookURL != "" {
		secret := cfg.WebhookSecret
		if secret == "" {
			secret = uuid.NewString()
		}
		updates, err = bot.ListenWebhook(ctx, api, cfg.WebhookURL, secret, cfg.ListenAddr(), log)
		if err != nil {
			return err
		}
		log.Info("Receiving updates via webhook %s%s", cfg.WebhookURL, bot.WebhookPath)
	} else {
		if cfg.WebServer {
			if err := bot.ServeHealth(ctx, cfg.ListenAddr(), log); err != nil {
				return err
			}
		}
		ch, err := bot.Poll(ctx, api, cfg.PollTimeout)
		if err != nil {
			return err
		}
		updates = ch
		log.Info("Receiving updates via long polling")
	}

	b.Serve(ctx, updates)
	log.Info("Shutting down")
	return nil
}
