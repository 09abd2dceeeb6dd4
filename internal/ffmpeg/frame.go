package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ExtractFrame writes one JPEG frame of input to output. A short clip whose
// length is below the seek offset is retried from the start.
func ExtractFrame(ctx context.Context, opts FrameOptions, input, output string) error {
	rs := NewRetryState(opts)
	for {
		res := Execute(ctx, Build(opts, rs, input, output), opts.Verbose)
		if ctx.Err() != nil {
			os.Remove(output)
			return ctx.Err()
		}
		produced := nonEmpty(output)
		if res.Err == nil && produced {
			return nil
		}
		if rs.Advance(res.Stderr, produced) == RetryNone {
			os.Remove(output)
			if err := classify(res.Stderr); err != nil {
				return err
			}
			if res.Err != nil {
				return fmt.Errorf("ffmpeg: %w: %s", res.Err, lastLine(res.Stderr))
			}
			return ErrNoFrame
		}
	}
}

func nonEmpty(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Size() > 0
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
