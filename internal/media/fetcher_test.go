package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestFetcherFetch(t *testing.T) {
	content := []byte("fake video bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/video.mp4":
			w.Write(content)
		case "/empty.mp4":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewFetcherWithDir(t.TempDir())

	t.Run("success", func(t *testing.T) {
		local, err := fetcher.Fetch(context.Background(), server.URL+"/video.mp4")
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		defer local.Release()

		data, err := os.ReadFile(local.Path)
		if err != nil {
			t.Fatalf("Failed to read fetched file: %v", err)
		}
		if string(data) != string(content) {
			t.Errorf("Fetched content mismatch: got %q", data)
		}
	})

	t.Run("not found status", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), server.URL+"/missing.mp4")

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("Expected FetchError, got %v", err)
		}
		if fetchErr.Status != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", fetchErr.Status)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), server.URL+"/empty.mp4")

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("Expected FetchError, got %v", err)
		}
	})

	t.Run("network failure", func(t *testing.T) {
		dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		dead.Close()

		_, err := fetcher.Fetch(context.Background(), dead.URL+"/video.mp4")

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("Expected FetchError, got %v", err)
		}
	})
}

func TestLocalMediaReleaseIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes"))
	}))
	defer server.Close()

	fetcher := NewFetcherWithDir(t.TempDir())
	local, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if err := local.Release(); err != nil {
		t.Fatalf("First release failed: %v", err)
	}
	if _, err := os.Stat(local.Path); !os.IsNotExist(err) {
		t.Error("Scratch file still exists after release")
	}
	if err := local.Release(); err != nil {
		t.Errorf("Second release should be a no-op, got %v", err)
	}
}
