package rename

import (
	"fmt"
	"strings"
)

// Mode selects how a new filename is derived.
type Mode string

const (
	ModeAutorename Mode = "autorename" // template applied to extracted variables
	ModeManual     Mode = "manual"     // caption typed by the user
	ModeReplace    Mode = "replace"    // original name with replacement rules
)

// Modes lists every mode in menu order.
var Modes = []Mode{ModeAutorename, ModeManual, ModeReplace}

// ParseMode accepts a mode name case-insensitively. The empty string maps to
// [ModeAutorename].
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeAutorename):
		return ModeAutorename, nil
	case string(ModeManual):
		return ModeManual, nil
	case string(ModeReplace):
		return ModeReplace, nil
	}
	return "", fmt.Errorf("invalid rename mode %q (use autorename, manual or replace)", s)
}

func (m Mode) String() string { return string(m) }

// Title is the label shown on settings buttons.
func (m Mode) Title() string {
	switch m {
	case ModeManual:
		return "Manual"
	case ModeReplace:
		return "Replace"
	}
	return "Auto Rename"
}
