package testutils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/papercomputeco/lens/pkg/blob"
)

// MockBlobStore is a test blob store backed by an in-memory map.
type MockBlobStore struct {
	Objects map[string][]byte
	Types   map[string]string

	// FailPut causes Put to return an error.
	FailPut bool
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

func (m *MockBlobStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if m.FailPut {
		return fmt.Errorf("mock put failure for: %s", key)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.Objects[key] = data
	m.Types[key] = contentType
	return nil
}

func (m *MockBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.Objects[key]
	if !ok {
		return nil, fmt.Errorf("opening %s: %w", key, blob.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockBlobStore) Stat(_ context.Context, key string) (blob.ObjectInfo, error) {
	data, ok := m.Objects[key]
	if !ok {
		return blob.ObjectInfo{}, fmt.Errorf("stat %s: %w", key, blob.ErrNotFound)
	}

	return blob.ObjectInfo{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: m.Types[key],
	}, nil
}

func (m *MockBlobStore) Delete(_ context.Context, key string) error {
	delete(m.Objects, key)
	delete(m.Types, key)
	return nil
}

func (m *MockBlobStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, ok := m.Objects[key]; !ok {
		return "", fmt.Errorf("presigning %s: %w", key, blob.ErrNotFound)
	}
	return "http://mock-blob/" + key, nil
}
