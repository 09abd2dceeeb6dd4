package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Fetcher opens the bytes behind a source handle. The caller closes the
// returned reader.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (io.ReadCloser, error)
}

// FileFetcher treats the source handle as a local path.
type FileFetcher struct{}

func (FileFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(source)
}

// URLFetcher resolves a source handle to a URL and downloads it over HTTP.
type URLFetcher struct {
	// Resolve maps a source handle (for example a chat-platform file id)
	// to a download URL. Nil means the handle already is a URL.
	Resolve func(ctx context.Context, source string) (string, error)
	Client  *http.Client
}

func (f URLFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	url := source
	if f.Resolve != nil {
		var err error
		if url, err = f.Resolve(ctx, source); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", source, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %s", source, resp.Status)
	}
	return resp.Body, nil
}
