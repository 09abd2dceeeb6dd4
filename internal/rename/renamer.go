package rename

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/backmassage/renamebot/internal/naming"
)

// Transfer moves file bytes on behalf of the [Renamer].
type Transfer interface {
	// Download fetches file to a local temporary path. Partial files are
	// removed by the implementation when it fails or ctx is cancelled.
	Download(ctx context.Context, file FileDescriptor) (string, error)
	// Move places the local file src at dst. dst's directory may not exist.
	Move(ctx context.Context, src, dst string) error
	// Discard removes a temporary file that will not be moved.
	Discard(path string) error
}

// Logger is the logging surface used by Renamer.
type Logger interface {
	Warn(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// ProcessingError wraps a transfer failure. Op is "download" or "move".
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Result is the outcome of one [Renamer.Rename] call.
type Result struct {
	Success    bool
	Filename   string // final name after collision resolution, set on success
	OutputPath string // full local path, set on success
	Err        error  // *ProcessingError on failure
}

// ErrorText returns the human-readable failure description, or "" on
// success.
func (r Result) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Renamer downloads files and moves them to collision-free names. It is safe
// for concurrent use; renames that target the same directory serialize on
// the resolver's directory lock.
type Renamer struct {
	transfer Transfer
	resolver *naming.CollisionResolver
	log      Logger
	verbose  bool
}

// NewRenamer creates a Renamer. A nil resolver gets a private one; share a
// resolver between Renamers that write to the same directories.
func NewRenamer(t Transfer, resolver *naming.CollisionResolver, log Logger, verbose bool) *Renamer {
	if resolver == nil {
		resolver = naming.NewCollisionResolver()
	}
	return &Renamer{transfer: t, resolver: resolver, log: log, verbose: verbose}
}

// Rename generates a name for file, downloads it and moves it into destDir.
// On failure no file is left in destDir and the temporary download is
// discarded.
func (r *Renamer) Rename(ctx context.Context, destDir string, file FileDescriptor, caption string, s Settings) Result {
	name := GenerateName(file, caption, s)
	r.log.Debug(r.verbose, "rename %q -> %q (mode=%s)", file.Name, name, s.Mode)

	tmp, err := r.transfer.Download(ctx, file)
	if err != nil {
		return Result{Err: &ProcessingError{Op: "download", Err: err}}
	}

	target, err := r.resolver.Claim(destDir, name, func(target string) error {
		return r.transfer.Move(ctx, tmp, target)
	})
	if err != nil {
		if derr := r.transfer.Discard(tmp); derr != nil {
			r.log.Warn("Could not remove temp file %s: %v", tmp, derr)
		}
		return Result{Err: &ProcessingError{Op: "move", Err: err}}
	}

	return Result{
		Success:    true,
		Filename:   filepath.Base(target),
		OutputPath: target,
	}
}
