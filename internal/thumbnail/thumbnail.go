// Package thumbnail picks and prepares the preview image attached to a
// renamed document.
//
// Users store one thumbnail per slot. The slot for a file depends on the
// user's [Mode]: a single "default" slot, one per season (s01..s10), or one
// per quality (144p..8000p).
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"

	"github.com/backmassage/renamebot/internal/ffmpeg"
	"github.com/backmassage/renamebot/internal/naming"
)

// Mode selects how thumbnail slots are keyed.
type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeSeason  Mode = "season"
	ModeQuality Mode = "quality"
)

// Modes lists every mode in menu order.
var Modes = []Mode{ModeNormal, ModeSeason, ModeQuality}

// ParseMode accepts a mode name case-insensitively; "" is ModeNormal.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNormal:
		return ModeNormal, nil
	case ModeSeason:
		return ModeSeason, nil
	case ModeQuality:
		return ModeQuality, nil
	}
	return "", fmt.Errorf("unknown thumbnail mode %q", s)
}

// DefaultSlot is used in normal mode and whenever a file's season or
// quality has no slot of its own.
const DefaultSlot = "default"

// SeasonSlots and QualitySlots are the per-mode slot names.
var (
	SeasonSlots  = []string{"s01", "s02", "s03", "s04", "s05", "s06", "s07", "s08", "s09", "s10"}
	QualitySlots = []string{"144p", "240p", "360p", "480p", "720p", "1080p", "1440p", "2160p", "4000p", "8000p"}
)

// Slot returns the thumbnail slot for a file whose extracted variables are
// vars.
func Slot(mode Mode, vars naming.Variables) string {
	switch mode {
	case ModeSeason:
		if s := "s" + vars["season"]; contains(SeasonSlots, s) {
			return s
		}
	case ModeQuality:
		if q := strings.ToLower(vars["quality"]); contains(QualitySlots, q) {
			return q
		}
	}
	return DefaultSlot
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// MaxEdge is the longest side, in pixels, of a normalized thumbnail.
const MaxEdge = 320

// Normalize decodes a JPEG or PNG, shrinks it to fit MaxEdge x MaxEdge
// keeping the aspect ratio, and re-encodes it as JPEG.
func Normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	small := resize.Thumbnail(MaxEdge, MaxEdge, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// FromVideo grabs a frame from the video at path and returns it normalized.
func FromVideo(ctx context.Context, opts ffmpeg.FrameOptions, path, tmpDir string) ([]byte, error) {
	out := filepath.Join(tmpDir, "thumb-"+uuid.NewString()+".jpg")
	defer os.Remove(out)

	if err := ffmpeg.ExtractFrame(ctx, opts, path, out); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, err
	}
	return Normalize(data)
}
