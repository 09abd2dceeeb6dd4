package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/backmassage/renamebot/internal/rename"
)

// LocalStore downloads into TempDir through a Fetcher and moves finished
// files with rename(2), falling back to copy+remove across filesystems.
type LocalStore struct {
	TempDir string
	Fetcher Fetcher
}

var _ rename.Transfer = (*LocalStore)(nil)

// NewLocalStore creates tempDir if needed.
func NewLocalStore(tempDir string, f Fetcher) (*LocalStore, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &LocalStore{TempDir: tempDir, Fetcher: f}, nil
}

// Download copies file.Source into a fresh "<uuid>.part" file. The partial
// file is removed when the copy fails or ctx is cancelled.
func (s *LocalStore) Download(ctx context.Context, file rename.FileDescriptor) (string, error) {
	rc, err := s.Fetcher.Fetch(ctx, file.Source)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	path := filepath.Join(s.TempDir, uuid.NewString()+".part")
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}

	_, err = io.Copy(out, &ctxReader{ctx: ctx, r: rc})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Move places src at dst, creating dst's directory.
func (s *LocalStore) Move(ctx context.Context, src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(ctx, src, dst); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// Discard removes path; a missing file is not an error.
func (s *LocalStore) Discard(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func copyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, &ctxReader{ctx: ctx, r: in})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// ctxReader stops a copy at the next Read after ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
