package ffmpeg

// RetryAction identifies which fix was applied (or none).
type RetryAction int

const (
	RetryNone      RetryAction = iota
	RetrySeekStart             // Drop the seek and grab the first frame.
)

const maxAttempts = 2

// RetryState tracks the fixes applied across frame-grab attempts for a
// single file.
type RetryState struct {
	Attempt     int
	MaxAttempts int
	Seek        float64
}

// NewRetryState starts at the configured seek offset.
func NewRetryState(opts FrameOptions) *RetryState {
	return &RetryState{MaxAttempts: maxAttempts, Seek: opts.Seek}
}

// Advance inspects stderr from a failed or empty attempt and applies the
// next fix. Returns RetryNone when nothing applies or the attempt limit is
// reached.
func (s *RetryState) Advance(stderr string, produced bool) RetryAction {
	s.Attempt++
	if s.Attempt >= s.MaxAttempts {
		return RetryNone
	}
	if MatchNoVideo(stderr) || MatchBadInput(stderr) {
		return RetryNone
	}
	if s.Seek > 0 && (!produced || MatchEmptyOutput(stderr)) {
		s.Seek = 0
		return RetrySeekStart
	}
	return RetryNone
}
