package display

import (
	"fmt"
	"io"

	"github.com/backmassage/renamebot/internal/config"
	"github.com/backmassage/renamebot/internal/term"
)

const art = `                                 _           _
 _ __ ___ _ __   __ _ _ __ ___ | |__   ___ | |_
| '__/ _ \ '_ \ / _` + "`" + ` | '_ ` + "`" + ` _ \| '_ \ / _ \| __|
| | |  __/ | | | (_| | | | | | | |_) | (_) | |_
|_|  \___|_| |_|\__,_|_| |_| |_|_.__/ \___/ \__|
`

// PrintBanner writes the ASCII art banner followed by a one-line summary of
// the run mode. Uses Magenta if colors are enabled.
func PrintBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprint(w, term.Paint(term.Magenta, art))
	fmt.Fprintln(w, term.Paint(term.Cyan, "v"+config.Version())+"  "+ModeSummary(cfg))
	fmt.Fprintln(w)
}

// ModeSummary describes what the process is about to do.
func ModeSummary(cfg *config.Config) string {
	switch cfg.Mode {
	case config.RunBatch:
		return fmt.Sprintf("batch %s -> %s", cfg.InputDir, cfg.OutputDir)
	case config.RunWatch:
		return fmt.Sprintf("watching %s -> %s", cfg.InputDir, cfg.OutputDir)
	}
	if cfg.WebhookURL != "" {
		return "bot (webhook on " + cfg.ListenAddr() + ")"
	}
	return "bot (long polling)"
}
