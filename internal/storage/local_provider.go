package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// LocalProvider issues upload URLs served by this server's own upload
// endpoint, with the stored file readable under the uploads prefix. It makes
// the backend self-contained where a production deployment would presign
// against an object store.
type LocalProvider struct {
	baseURL string
}

func NewLocalProvider(baseURL string) *LocalProvider {
	return &LocalProvider{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *LocalProvider) UploadURL(filename string) (string, string, error) {
	base := path.Base(filename)
	if base == "" || base == "." || base == "/" {
		return "", "", fmt.Errorf("invalid filename %q", filename)
	}

	ext := path.Ext(base)
	if ext == "" {
		ext = ".mp4"
	}
	name := uuid.New().String() + ext

	escaped := url.PathEscape(name)
	uploadURL := fmt.Sprintf("%s/api/uploads/%s", p.baseURL, escaped)
	// Upload and download share the same location on local storage.
	return uploadURL, uploadURL, nil
}
