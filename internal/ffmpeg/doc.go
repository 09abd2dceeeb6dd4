// Package ffmpeg grabs a single video frame with ffmpeg for use as a
// document thumbnail.
//
// Files:
//   - builder.go: argument slice for one frame-grab attempt.
//   - executor.go: run ffmpeg, capture stderr, optional tee to os.Stderr.
//   - errors.go: compiled regexes classifying stderr.
//   - retry.go: one fix per attempt (seek back to the start, then give up).
//   - frame.go: ExtractFrame ties the above together.
package ffmpeg
