package ffmpeg

import (
	"fmt"
	"strconv"
)

// FrameOptions controls frame extraction.
type FrameOptions struct {
	Binary   string  // ffmpeg executable; "" means "ffmpeg" on PATH
	Seek     float64 // seconds into the input for the first attempt
	MaxWidth int     // output width cap in pixels; 0 keeps source width
	Verbose  bool    // tee stderr and log at info level
}

// DefaultFrameOptions seeks 5 s in, past most black intro frames, and caps
// the width at 320 px.
func DefaultFrameOptions() FrameOptions {
	return FrameOptions{Binary: "ffmpeg", Seek: 5, MaxWidth: 320}
}

// Build returns the argument slice (including the binary) for one
// frame-grab attempt using the retry state's current seek offset.
func Build(opts FrameOptions, rs *RetryState, input, output string) []string {
	bin := opts.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	args := make([]string, 0, 24)
	args = append(args, bin, "-hide_banner", "-nostdin", "-y")

	// Warnings are needed to see "Output file is empty".
	if opts.Verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "warning")
	}

	// Input seeking: fast, keyframe-accurate.
	if rs.Seek > 0 {
		args = append(args, "-ss", strconv.FormatFloat(rs.Seek, 'f', -1, 64))
	}
	args = append(args, "-i", input, "-map", "0:v:0", "-frames:v", "1")

	if opts.MaxWidth > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale='min(%d,iw)':-2", opts.MaxWidth))
	}
	args = append(args, "-q:v", "3", output)
	return args
}
