// Package config holds runtime configuration: defaults, an optional YAML
// file, environment overrides, CLI flag parsing and validation.
//
// Precedence, lowest first: [DefaultConfig], the --config YAML file,
// environment variables, CLI flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/renamebot/internal/naming"
	"github.com/backmassage/renamebot/internal/rename"
	"github.com/backmassage/renamebot/internal/transfer"
)

// --- Enum types for validated string fields ---

// RunMode selects what the process does.
type RunMode string

const (
	RunBot   RunMode = "bot"   // Serve the chat bot (default).
	RunBatch RunMode = "batch" // Rename every file in InputDir once, then exit.
	RunWatch RunMode = "watch" // Rename files as they appear in InputDir.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// S3Config configures the optional archive bucket. Keys support ${VAR}
// expansion in the YAML file.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Options converts the section for [transfer.NewArchiver].
func (s S3Config) Options() transfer.S3Options {
	return transfer.S3Options{
		Endpoint:  s.Endpoint,
		Region:    s.Region,
		Bucket:    s.Bucket,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		UseSSL:    s.UseSSL,
	}
}

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to packages
// that need it. Fields are grouped by concern with inline documentation of
// defaults and fixed values.
type Config struct {
	Mode RunMode `yaml:"mode"` // Default: "bot".

	// Chat gateway.
	BotToken    string  `yaml:"bot_token"`    // $BOT_TOKEN. Required in bot mode.
	WebhookURL  string  `yaml:"webhook_url"`  // $WEBHOOK_URL. Empty means long polling.
	// $WEBHOOK_SECRET. Random per start when empty. Telegram accepts
	// 1-256 characters from A-Z, a-z, 0-9, _ and -.
	WebhookSecret string `yaml:"webhook_secret"`
	Port        int     `yaml:"port"`         // $PORT. Default: 8080.
	WebServer   bool    `yaml:"web_server"`   // $WEB_SERVER. Default: true (bind all interfaces).
	AdminIDs    []int64 `yaml:"admin_ids"`    // $ADMIN_IDS, comma separated.
	PollTimeout int     `yaml:"poll_timeout"` // Long-poll timeout in seconds. Default: 60.

	// Storage.
	DatabasePath string `yaml:"database_path"` // $DATABASE_PATH. Default: "bot_data.db".
	DownloadDir  string `yaml:"download_dir"`  // Per-user output root. Default: "downloads".
	TempDir      string `yaml:"temp_dir"`      // Partial downloads and frame grabs. Default: "temp".

	// Limits.
	MaxFileSize       int64         `yaml:"max_file_size"`       // Bytes. Default: 5 GiB.
	RequestsPerMinute int           `yaml:"requests_per_minute"` // Default: 30.
	UploadsPerHour    int           `yaml:"uploads_per_hour"`    // Default: 50.
	ReferralBonus     time.Duration `yaml:"referral_bonus"`      // Premium credited per referral. Default: 3h.
	ReferralPoints    int           `yaml:"referral_points"`     // Shown on /refer. Default: 10.
	SessionTTL        time.Duration `yaml:"session_ttl"`         // Pending-input expiry. Default: 10m.

	// Thumbnails.
	FFmpegPath    string `yaml:"ffmpeg_path"`    // Default: "ffmpeg".
	AutoThumbnail bool   `yaml:"auto_thumbnail"` // Grab a video frame when no thumbnail is stored. Default: true.

	// Batch and watch modes (InputDir/OutputDir from positional args).
	InputDir     string                  `yaml:"input_dir"`
	OutputDir    string                  `yaml:"output_dir"`
	Template     string                  `yaml:"template"`      // Default: "{title} S{season}E{episode}".
	RenameMode   rename.Mode             `yaml:"rename_mode"`   // Default: "autorename".
	ReplaceRules naming.ReplacementRules `yaml:"replace_rules"` // Applied in order.
	DryRun       bool                    `yaml:"dry_run"`
	PollInterval time.Duration           `yaml:"poll_interval"` // Watch fallback scan period. Default: 2s.
	SettleTime   time.Duration           `yaml:"settle_time"`   // Quiet period before a new file is taken. Default: 1s.

	S3 S3Config `yaml:"s3"`

	// Display and logging.
	Verbose    bool      `yaml:"verbose"`
	ColorMode  ColorMode `yaml:"color"`    // Default: "auto".
	LogFile    string    `yaml:"log_file"` // $LOG_FILE. Optional log file path.
	CheckOnly  bool      `yaml:"-"`        // Run --check diagnostics and exit.
	ConfigFile string    `yaml:"-"`        // --config path, if any.
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// [ParseFlags] applies the file, environment and CLI overrides.
func DefaultConfig() Config {
	return Config{
		Mode:              RunBot,
		Port:              8080,
		WebServer:         true,
		PollTimeout:       60,
		DatabasePath:      "bot_data.db",
		DownloadDir:       "downloads",
		TempDir:           "temp",
		MaxFileSize:       5 << 30,
		RequestsPerMinute: 30,
		UploadsPerHour:    50,
		ReferralBonus:     3 * time.Hour,
		ReferralPoints:    10,
		SessionTTL:        10 * time.Minute,
		FFmpegPath:        "ffmpeg",
		AutoThumbnail:     true,
		Template:          "{title} S{season}E{episode}",
		RenameMode:        rename.ModeAutorename,
		PollInterval:      2 * time.Second,
		SettleTime:        time.Second,
		ColorMode:         ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// ListenAddr is the webhook server address: all interfaces when WebServer
// is set, loopback otherwise.
func (c *Config) ListenAddr() string {
	host := "127.0.0.1"
	if c.WebServer {
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// IsAdmin reports whether id is listed in AdminIDs.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

// Validate checks enum fields and the settings the selected run mode needs.
// CheckOnly skips the mode-specific requirements.
func (c *Config) Validate() error {
	switch c.Mode {
	case RunBot, RunBatch, RunWatch:
		// valid
	default:
		return errors.New("invalid run mode (use 'bot', 'batch' or 'watch')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	m, err := rename.ParseMode(string(c.RenameMode))
	if err != nil {
		return err
	}
	c.RenameMode = m

	if c.Template != "" {
		if _, err := naming.ValidateTemplate(c.Template); err != nil {
			return fmt.Errorf("template: %w", err)
		}
	}
	if c.MaxFileSize <= 0 {
		return errors.New("max file size must be positive")
	}
	if c.RequestsPerMinute <= 0 || c.UploadsPerHour <= 0 {
		return errors.New("rate limits must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Mode == RunWatch && (c.PollInterval <= 0 || c.SettleTime < 0) {
		return errors.New("watch mode needs a positive poll interval")
	}
	if c.S3.Enabled && (c.S3.Endpoint == "" || c.S3.Bucket == "") {
		return errors.New("s3 archive needs endpoint and bucket")
	}
	if c.WebhookSecret != "" && !validSecret(c.WebhookSecret) {
		return errors.New("webhook secret must be 1-256 characters of A-Z, a-z, 0-9, _ or -")
	}

	if c.CheckOnly {
		return nil
	}
	switch c.Mode {
	case RunBot:
		if c.BotToken == "" {
			return errors.New("bot token is required (set BOT_TOKEN or --token)")
		}
	case RunBatch, RunWatch:
		if c.InputDir == "" || c.OutputDir == "" {
			return errors.New("need exactly input_dir and output_dir")
		}
	}
	return nil
}

func validSecret(s string) bool {
	if len(s) > 256 {
		return false
	}
	for _, r := range s {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-'
		if !ok {
			return false
		}
	}
	return true
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory, so batch and watch modes never pick up
// their own output. Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}
