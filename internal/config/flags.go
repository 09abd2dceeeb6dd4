package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into run mode, bot, storage, batch, display and utility.
// Negated flags (e.g. --no-auto-thumb) are applied after Parse so Config
// defaults hold unless set. The --config file and the environment are
// applied before flags are defined, so flag defaults already reflect them.

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/backmassage/renamebot/internal/naming"
	"github.com/backmassage/renamebot/internal/rename"
)

// version is shown in --version and help; override at build time with -ldflags "-X github.com/backmassage/renamebot/internal/config.version=...".
var version = "1.0.0-dev"

// Version returns the build version string.
func Version() string { return version }

// ParseFlags applies the config file, the environment and os.Args to cfg.
// On --help or --version it prints and exits. On error it returns non-nil
// (e.g. unknown flag, missing positional args).
func ParseFlags(cfg *Config) error {
	exit, err := parseArgs(cfg, os.Args[1:], os.Getenv, os.Stdout)
	if exit {
		os.Exit(0)
	}
	return err
}

// parseArgs is ParseFlags without the process side effects. exit is true
// after --help or --version has been printed.
func parseArgs(cfg *Config, args []string, getenv func(string) string, out io.Writer) (exit bool, err error) {
	if path := findConfigArg(args); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return false, err
		}
	}
	if err := ApplyEnv(cfg, getenv); err != nil {
		return false, err
	}

	fs := flag.NewFlagSet("renamebot", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { printUsage(os.Stderr) }

	// Negated/override flags: we capture bools then apply to cfg after Parse,
	// so that defaults hold unless the user passes the flag.
	var negated negatedFlags

	defineModeFlags(fs, cfg)
	defineBotFlags(fs, cfg)
	defineStorageFlags(fs, cfg)
	defineBatchFlags(fs, cfg, &negated)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(args); err != nil {
		return false, err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(out)
		return true, nil
	}
	if negated.showVersion {
		fmt.Fprintln(out, "renamebot v"+version)
		return true, nil
	}
	return false, parsePositionalArgs(fs, cfg)
}

// findConfigArg returns the value of --config/-config before the flag set
// exists, so the file can seed flag defaults.
func findConfigArg(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either invert a default (e.g. noAutoThumb -> AutoThumbnail=false) or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	noAutoThumb bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineModeFlags registers -m/--mode and --config.
func defineModeFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&runModeValue{&cfg.Mode}, "mode", "Run mode: bot | batch | watch")
	fs.Var(&runModeValue{&cfg.Mode}, "m", "Same as --mode")
	// Already consumed by findConfigArg; registered so Parse accepts it.
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file")
}

// defineBotFlags registers --token, --webhook, --webhook-secret, --port, --admins.
func defineBotFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.BotToken, "token", cfg.BotToken, "Bot API token")
	fs.StringVar(&cfg.WebhookURL, "webhook", cfg.WebhookURL, "Public webhook URL (default: long polling)")
	fs.StringVar(&cfg.WebhookSecret, "webhook-secret", cfg.WebhookSecret, "Webhook secret token (default: random)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Webhook listen port")
	fs.Var(&idListValue{&cfg.AdminIDs}, "admins", "Comma-separated admin user ids")
}

// defineStorageFlags registers --db, --download-dir, --temp-dir, --ffmpeg.
func defineStorageFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database path")
	fs.StringVar(&cfg.DownloadDir, "download-dir", cfg.DownloadDir, "Renamed file output root (bot mode)")
	fs.StringVar(&cfg.TempDir, "temp-dir", cfg.TempDir, "Temporary download directory")
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "ffmpeg binary used for thumbnails")
}

// defineBatchFlags registers template, rename mode, replace rules, dry-run, auto-thumb.
func defineBatchFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.StringVar(&cfg.Template, "template", cfg.Template, "Filename template for batch/watch")
	fs.StringVar(&cfg.Template, "t", cfg.Template, "Same as --template")
	fs.Var(&renameModeValue{&cfg.RenameMode}, "rename-mode", "Rename mode: autorename | manual | replace")
	fs.Var(&ruleValue{p: &cfg.ReplaceRules}, "replace", `Replacement rule "old | new" (repeatable)`)
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Preview only; do not copy files")
	fs.BoolVar(&cfg.DryRun, "d", cfg.DryRun, "Same as --dry-run")
	fs.BoolVar(&n.noAutoThumb, "no-auto-thumb", false, "Do not grab video frames as thumbnails")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noAutoThumb {
		cfg.AutoThumbnail = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputDir and OutputDir from the two positional
// args in batch and watch modes. Bot mode and --check take none.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly || cfg.Mode == RunBot {
		if len(args) > 0 {
			return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
		}
		return nil
	}
	switch len(args) {
	case 0:
		// May come from the config file; Validate decides.
		return nil
	case 2:
		cfg.InputDir = NormalizeDirArg(args[0])
		cfg.OutputDir = NormalizeDirArg(args[1])
		return nil
	}
	return fmt.Errorf("need exactly input_dir and output_dir")
}

// printUsage writes the help text. Column-aligned for readability.
func printUsage(w io.Writer) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "renamebot v" + version + " - file renaming bot"},
		{"", ""},
		{"  renamebot [OPTIONS]", ""},
		{"  renamebot --mode batch|watch [OPTIONS] <input_dir> <output_dir>", ""},
		{"", ""},
		{"Mode", ""},
		{"  -m, --mode <bot|batch|watch>", "Run mode (default: bot)"},
		{"  --config <path>", "YAML config file (${VAR} expanded)"},
		{"", ""},
		{"Bot", ""},
		{"  --token <token>", "Bot API token (env: BOT_TOKEN)"},
		{"  --webhook <url>", "Webhook URL; default long polling (env: WEBHOOK_URL)"},
		{"  --webhook-secret <s>", "Webhook secret token; default random (env: WEBHOOK_SECRET)"},
		{"  --port <n>", "Webhook listen port (default: 8080, env: PORT)"},
		{"  --admins <id,id>", "Admin user ids (env: ADMIN_IDS)"},
		{"", ""},
		{"Storage", ""},
		{"  --db <path>", "SQLite database (default: bot_data.db)"},
		{"  --download-dir <dir>", "Renamed file root (default: downloads)"},
		{"  --temp-dir <dir>", "Temporary files (default: temp)"},
		{"  --ffmpeg <path>", "ffmpeg binary for thumbnails"},
		{"  --no-auto-thumb", "Do not grab video frames as thumbnails"},
		{"", ""},
		{"Batch & watch", ""},
		{"  -t, --template <tmpl>", "Template, e.g. \"{title} S{season}E{episode}\""},
		{"  --rename-mode <mode>", "autorename | manual | replace"},
		{"  --replace \"old | new\"", "Replacement rule (repeatable, applied in order)"},
		{"  -d, --dry-run", "Preview only; do not copy files"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file (env: LOG_FILE)"},
		{"  -c, --check", "Diagnostics (token, dirs, database, ffmpeg, S3)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum and list types with flag.Var.

type runModeValue struct{ p *RunMode }

func (r *runModeValue) String() string {
	if r.p == nil {
		return ""
	}
	return string(*r.p)
}
func (r *runModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "bot":
		*r.p = RunBot
	case "batch":
		*r.p = RunBatch
	case "watch":
		*r.p = RunWatch
	default:
		return fmt.Errorf("invalid mode %q (use 'bot', 'batch' or 'watch')", s)
	}
	return nil
}

type renameModeValue struct{ p *rename.Mode }

func (r *renameModeValue) String() string {
	if r.p == nil {
		return ""
	}
	return string(*r.p)
}
func (r *renameModeValue) Set(s string) error {
	m, err := rename.ParseMode(s)
	if err != nil {
		return err
	}
	*r.p = m
	return nil
}

// ruleValue appends one rule per occurrence. The first CLI rule replaces
// any rules from the config file.
type ruleValue struct {
	p   *naming.ReplacementRules
	set bool
}

func (r *ruleValue) String() string {
	if r.p == nil {
		return ""
	}
	parts := make([]string, len(*r.p))
	for i, rule := range *r.p {
		parts[i] = rule.Old + " | " + rule.New
	}
	return strings.Join(parts, ", ")
}
func (r *ruleValue) Set(s string) error {
	rule, err := naming.ParseReplacementRule(s)
	if err != nil {
		return err
	}
	if !r.set {
		*r.p = nil
		r.set = true
	}
	*r.p = append(*r.p, rule)
	return nil
}

type idListValue struct{ p *[]int64 }

func (v *idListValue) String() string {
	if v.p == nil {
		return ""
	}
	parts := make([]string, len(*v.p))
	for i, id := range *v.p {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
func (v *idListValue) Set(s string) error {
	ids, err := ParseIDList(s)
	if err != nil {
		return err
	}
	*v.p = ids
	return nil
}
