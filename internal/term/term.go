// Package term holds the ANSI color codes shared by logging and display.
//
// The codes are package variables set once by [Configure]. While colors are
// off they are empty, so concatenating them changes nothing.
package term

import (
	"os"
	"strings"

	"github.com/backmassage/renamebot/internal/config"
)

// ANSI color codes. Empty when colors are disabled.
var (
	Red     = ""
	Green   = ""
	Yellow  = ""
	Blue    = ""
	Cyan    = ""
	Magenta = ""
	NC      = "" // reset
)

var palette = [...]*string{&Red, &Green, &Yellow, &Blue, &Cyan, &Magenta, &NC}

var codes = [...]string{
	"\033[1;91m", "\033[1;92m", "\033[1;93m", "\033[1;94m",
	"\033[1;96m", "\033[1;95m", "\033[0m",
}

// Configure turns colors on or off for mode. Called by [logging.NewLogger].
func Configure(mode config.ColorMode) {
	on := resolve(mode, os.Getenv, func() bool { return IsTerminal(os.Stdout) })
	for i, p := range palette {
		if on {
			*p = codes[i]
		} else {
			*p = ""
		}
	}
}

// Enabled reports whether colors are on.
func Enabled() bool { return NC != "" }

// Paint wraps s in color and a reset. It returns s unchanged while colors
// are off.
func Paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + NC
}

// resolve applies mode. In auto mode NO_COLOR (https://no-color.org) and
// TERM=dumb turn colors off, FORCE_COLOR turns them on for non-terminals
// such as a container log collector, and otherwise stdout must be a TTY.
func resolve(mode config.ColorMode, getenv func(string) string, tty func() bool) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if getenv("NO_COLOR") != "" || strings.EqualFold(getenv("TERM"), "dumb") {
		return false
	}
	if getenv("FORCE_COLOR") != "" {
		return true
	}
	return tty()
}

// IsTerminal reports whether f is a character device.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
