// Package blob provides the file-byte storage boundary: uploaded images are
// written here while only their embeddings and metadata enter the vector
// store.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no object exists for the requested key.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Store handles storage and retrieval of raw file bytes.
type Store interface {
	// Put writes an object. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open opens an object for reading. Returns ErrNotFound when absent.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Stat returns object metadata. Returns ErrNotFound when absent.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// PresignedURL returns a time-limited URL for direct download, or an
	// error when the backend cannot mint one.
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
