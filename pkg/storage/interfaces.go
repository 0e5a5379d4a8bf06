package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Download when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage is the S3-compatible surface the rest of the backend needs.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Download returns the object body; the caller closes it.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is a no-op for keys that do not exist.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL for reading key without credentials.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
