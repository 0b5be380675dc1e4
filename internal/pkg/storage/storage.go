package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrInvalidPath  = errors.New("invalid file path")
	ErrFileNotFound = errors.New("file not found")
)

type FileStorage interface {
	// Upload uploads a file and returns the file path/key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download retrieves a file
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error

	// GetURL generates a time-limited view URL
	GetURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// URLSigner produces a token that grants read access to a single path until
// it expires.
type URLSigner interface {
	SignPath(path string, expiry time.Duration) (string, error)
}
