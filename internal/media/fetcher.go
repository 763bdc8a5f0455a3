package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// FetchError marks a failed media download: network failure, non-2xx status
// or an empty payload.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// LocalMedia is the scoped scratch copy of a fetched video. Release deletes
// it and is safe to call more than once.
type LocalMedia struct {
	Path string
}

func (m *LocalMedia) Release() error {
	if err := os.Remove(m.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release media file: %w", err)
	}
	return nil
}

// Fetcher downloads a video's bytes into a temp file for local processing.
type Fetcher struct {
	client  *http.Client
	tempDir string
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 5 * time.Minute},
		tempDir: os.TempDir(),
	}
}

// NewFetcherWithDir places scratch files under dir instead of the system
// temp directory.
func NewFetcherWithDir(dir string) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 5 * time.Minute},
		tempDir: dir,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*LocalMedia, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(f.tempDir, "videolang-media-*.mp4")
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create scratch file: %w", err)}
	}

	written, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to write scratch file: %w", err)}
	}
	if written == 0 {
		os.Remove(tmp.Name())
		return nil, &FetchError{URL: url, Err: fmt.Errorf("empty payload")}
	}

	return &LocalMedia{Path: tmp.Name()}, nil
}
