// Package vector provides the storage contract for image/text embeddings and
// the shared normalization and scoring rules every backend must follow.
package vector

import (
	"context"
	"time"
)

// Record is a stored embedding with its metadata. The vector held by a
// persisted record is always unit-norm; adapters normalize on write.
type Record struct {
	// ID is the caller-supplied unique identifier for the record.
	ID string

	// Vector is the embedding, with length equal to the configured dimension.
	Vector []float32

	// Filename is the display name of the source file. May be empty.
	Filename string

	// UploadTime is when the record was stored.
	UploadTime time.Time

	// Metadata holds free-form JSON-compatible values keyed by string.
	Metadata map[string]any
}

// Embedding is the input to a bulk store: an id, a raw vector, and the
// free-form metadata map it was uploaded with. Well-known keys ("filename",
// "upload_time") are split out by the adapter before persistence.
type Embedding struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// SearchHit is a single similarity search result. Hits are transient and
// never persisted.
type SearchHit struct {
	// ID references the stored Record that matched.
	ID string

	// Score is the similarity in [0, 1]; higher is more similar.
	Score float32

	// Payload is the record's metadata merged with filename and upload_time.
	Payload map[string]any
}

// Store is the contract every vector backend implements. All operations may
// block on network I/O and must be treated as such by callers.
type Store interface {
	// Initialize idempotently provisions the backing schema or collection.
	// It fails if the engine is unreachable; the process must not serve
	// traffic with an uninitialized store.
	Initialize(ctx context.Context) error

	// StoreEmbedding normalizes the vector and upserts it with its metadata.
	// Storing an existing id fully replaces the prior record.
	StoreEmbedding(ctx context.Context, id string, vec []float32, metadata map[string]any) error

	// BulkStoreEmbeddings stores many embeddings in one batched operation.
	// Partial-failure policy is backend specific: relational backends commit
	// the whole batch atomically, iterating backends report failed ids via
	// *BatchError.
	BulkStoreEmbeddings(ctx context.Context, embeddings []Embedding) error

	// SearchSimilar returns up to limit hits ranked by descending cosine
	// similarity to the normalized query vector. An empty corpus yields an
	// empty slice, not an error.
	SearchSimilar(ctx context.Context, vec []float32, limit int) ([]SearchHit, error)

	// GetMetadataByID returns the stored metadata merged with filename.
	// Returns ErrNotFound when no record exists for id.
	GetMetadataByID(ctx context.Context, id string) (map[string]any, error)

	// GetEmbeddingByID returns the stored (normalized) vector, or nil when
	// absent. Diagnostics only; never used for ranking.
	GetEmbeddingByID(ctx context.Context, id string) ([]float32, error)

	// Name returns a stable backend identifier ("postgres", "alloydb",
	// "sqlite", "qdrant") used by callers to branch on capability.
	Name() string

	// Close releases connection pools and handles held by the store.
	Close() error
}
