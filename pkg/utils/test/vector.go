package testutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/lens/pkg/vector"
)

// MockVectorStore is a test vector store that keeps records in memory and
// returns configurable search results.
type MockVectorStore struct {
	Vectors  map[string][]float32
	Metadata map[string]map[string]any

	// Results is returned by SearchSimilar for any query.
	Results []vector.SearchHit

	// FailStore causes StoreEmbedding and BulkStoreEmbeddings to return an error.
	FailStore bool

	// FailOnID causes BulkStoreEmbeddings to report a BatchError for that id
	// while storing the rest.
	FailOnID string

	// Initialized is set to true once Initialize has been called.
	Initialized bool

	// Backend is what Name reports. Defaults to "mock".
	Backend string
}

func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{
		Vectors:  make(map[string][]float32),
		Metadata: make(map[string]map[string]any),
		Results:  make([]vector.SearchHit, 0),
		Backend:  "mock",
	}
}

func (m *MockVectorStore) Initialize(_ context.Context) error {
	m.Initialized = true
	return nil
}

func (m *MockVectorStore) StoreEmbedding(_ context.Context, id string, vec []float32, metadata map[string]any) error {
	if m.FailStore {
		return fmt.Errorf("mock store failure for: %s", id)
	}
	m.Vectors[id] = vector.Normalize(vec)
	m.Metadata[id] = metadata
	return nil
}

func (m *MockVectorStore) BulkStoreEmbeddings(_ context.Context, embeddings []vector.Embedding) error {
	if m.FailStore {
		return fmt.Errorf("mock bulk store failure")
	}

	batchErr := &vector.BatchError{Failed: make(map[string]error)}
	for _, emb := range embeddings {
		if m.FailOnID != "" && emb.ID == m.FailOnID {
			batchErr.Failed[emb.ID] = fmt.Errorf("mock bulk failure for: %s", emb.ID)
			continue
		}
		m.Vectors[emb.ID] = vector.Normalize(emb.Vector)
		m.Metadata[emb.ID] = emb.Metadata
	}

	if len(batchErr.Failed) > 0 {
		return batchErr
	}
	return nil
}

func (m *MockVectorStore) SearchSimilar(_ context.Context, _ []float32, limit int) ([]vector.SearchHit, error) {
	if limit > 0 && len(m.Results) > limit {
		return m.Results[:limit], nil
	}
	return m.Results, nil
}

func (m *MockVectorStore) GetMetadataByID(_ context.Context, id string) (map[string]any, error) {
	meta, ok := m.Metadata[id]
	if !ok {
		return nil, fmt.Errorf("looking up %s: %w", id, vector.ErrNotFound)
	}

	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out, nil
}

func (m *MockVectorStore) GetEmbeddingByID(_ context.Context, id string) ([]float32, error) {
	return m.Vectors[id], nil
}

func (m *MockVectorStore) Name() string {
	return m.Backend
}

func (m *MockVectorStore) Close() error {
	return nil
}
