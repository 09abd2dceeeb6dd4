package transfer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/renamebot/internal/naming"
	"github.com/backmassage/renamebot/internal/rename"
)

func TestLocalStore_DownloadMove(t *testing.T) {
	src := filepath.Join(t.TempDir(), "input.mkv")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	store, err := NewLocalStore(filepath.Join(t.TempDir(), "tmp"), FileFetcher{})
	require.NoError(t, err)

	tmp, err := store.Download(context.Background(), rename.FileDescriptor{Source: src})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(tmp, ".part"))

	dst := filepath.Join(t.TempDir(), "nested", "out.mkv")
	require.NoError(t, store.Move(context.Background(), tmp, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.NoFileExists(t, tmp)
	assert.FileExists(t, src, "source must be left untouched")
}

func TestLocalStore_DownloadCancelled(t *testing.T) {
	src := filepath.Join(t.TempDir(), "input.mkv")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))
	tmpDir := filepath.Join(t.TempDir(), "tmp")
	store, err := NewLocalStore(tmpDir, FileFetcher{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Download(ctx, rename.FileDescriptor{Source: src})
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial download must be removed")
}

func TestLocalStore_DiscardMissing(t *testing.T) {
	store := &LocalStore{TempDir: t.TempDir()}
	assert.NoError(t, store.Discard(filepath.Join(store.TempDir, "gone.part")))
}

func TestURLFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/abc" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("remote"))
	}))
	defer srv.Close()

	store, err := NewLocalStore(t.TempDir(), URLFetcher{
		Resolve: func(_ context.Context, id string) (string, error) {
			return srv.URL + "/files/" + id, nil
		},
	})
	require.NoError(t, err)

	tmp, err := store.Download(context.Background(), rename.FileDescriptor{Source: "abc"})
	require.NoError(t, err)
	data, err := os.ReadFile(tmp)
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))

	_, err = store.Download(context.Background(), rename.FileDescriptor{Source: "missing"})
	assert.ErrorContains(t, err, "unexpected status")
}

func TestRenamerWithLocalStore(t *testing.T) {
	in := t.TempDir()
	src := filepath.Join(in, "The.Show.S02E03.720p.mp4")
	require.NoError(t, os.WriteFile(src, []byte("v"), 0o644))

	store, err := NewLocalStore(t.TempDir(), FileFetcher{})
	require.NoError(t, err)
	r := rename.NewRenamer(store, naming.NewCollisionResolver(), nopLogger{}, false)

	dest := t.TempDir()
	file := rename.FileDescriptor{Name: filepath.Base(src), Source: src}
	settings := rename.Settings{Mode: rename.ModeAutorename, Template: "Show S{season}E{episode} {quality}"}

	first := r.Rename(context.Background(), dest, file, "", settings)
	require.True(t, first.Success, first.ErrorText())
	assert.Equal(t, "Show S02E03 720p.mp4", first.Filename)

	second := r.Rename(context.Background(), dest, file, "", settings)
	require.True(t, second.Success, second.ErrorText())
	assert.Equal(t, "Show S02E03 720p_1.mp4", second.Filename)
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "42/2026-03-09/a b.mkv", ArchiveKey(42, "a b.mkv", at))
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...interface{})        {}
func (nopLogger) Debug(bool, string, ...interface{}) {}
