// Package fsstore implements blob.Store on the local filesystem, for
// development and tests.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/papercomputeco/lens/pkg/blob"
)

// Store implements blob.Store under a root directory. Keys map to file
// paths relative to the root; path traversal outside the root is rejected.
type Store struct {
	root string
}

// NewStore creates a filesystem blob store rooted at dir, creating it if
// needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &Store{root: dir}, nil
}

func (s *Store) path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, cleaned), nil
}

// Put writes an object atomically via a temp file and rename.
func (s *Store) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing object %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	return os.Rename(tmp.Name(), target)
}

// Open opens an object for reading.
func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	target, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Stat returns object metadata. Content type is inferred from the key's
// extension.
func (s *Store) Stat(_ context.Context, key string) (blob.ObjectInfo, error) {
	target, err := s.path(key)
	if err != nil {
		return blob.ObjectInfo{}, err
	}
	info, err := os.Stat(target)
	if errors.Is(err, os.ErrNotExist) {
		return blob.ObjectInfo{}, blob.ErrNotFound
	}
	if err != nil {
		return blob.ObjectInfo{}, err
	}
	return blob.ObjectInfo{
		Key:         key,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(key)),
	}, nil
}

// Delete removes an object. Missing objects are not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// PresignedURL is unsupported for local files; callers should stream
// through Open instead.
func (s *Store) PresignedURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", fmt.Errorf("presigned URLs are not supported by the filesystem store")
}
