package ffmpeg

import (
	"errors"
	"regexp"
)

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by [RetryState.Advance] and [classify].
var (
	reEmptyOutput = regexp.MustCompile(
		`Output file is empty, nothing was encoded|` +
			`Output file #0 does not contain any stream`)

	reNoVideo = regexp.MustCompile(
		`(?i)Stream map '0:v:0' matches no streams|` +
			`matches no streams|` +
			`does not contain any video stream`)

	reBadInput = regexp.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`moov atom not found|` +
			`EBML header parsing failed`)
)

// Sentinel errors returned by [ExtractFrame].
var (
	ErrNoVideoStream = errors.New("input has no video stream")
	ErrBadInput      = errors.New("input is not a readable media file")
	ErrNoFrame       = errors.New("ffmpeg produced no frame")
)

// MatchEmptyOutput reports whether stderr says nothing was written, usually
// because the seek offset is past the end of a short clip.
func MatchEmptyOutput(stderr string) bool {
	return reEmptyOutput.MatchString(stderr)
}

// MatchNoVideo reports whether stderr says the input has no video stream.
func MatchNoVideo(stderr string) bool {
	return reNoVideo.MatchString(stderr)
}

// MatchBadInput reports whether ffmpeg could not parse the input at all.
func MatchBadInput(stderr string) bool {
	return reBadInput.MatchString(stderr)
}

// classify maps stderr from a final failed attempt to a sentinel, or nil when
// nothing matches.
func classify(stderr string) error {
	switch {
	case MatchNoVideo(stderr):
		return ErrNoVideoStream
	case MatchBadInput(stderr):
		return ErrBadInput
	case MatchEmptyOutput(stderr):
		return ErrNoFrame
	}
	return nil
}
