package storage

import (
	"io"
)

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

type Storage interface {
	SaveFile(r io.Reader, info FileInfo) (string, error)
	// SaveAs stores under a caller-chosen name, for uploads whose URL was
	// issued ahead of time.
	SaveAs(r io.Reader, filename string) error
	OpenFile(path string) (io.ReadSeekCloser, error)
	DeleteFile(path string) error
}

// UploadURLProvider issues a pair of URLs for direct client upload: where to
// PUT the bytes and where they will be readable afterwards. A single
// stateless call; S3-style presigning or the bundled local provider both fit.
type UploadURLProvider interface {
	UploadURL(filename string) (uploadURL, fileURL string, err error)
}
