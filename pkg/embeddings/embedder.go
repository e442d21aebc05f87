// Package embeddings
package embeddings

import "context"

// Embedder produces fixed-length embedding vectors for text and images.
// Implementations wrap an external model; the vector stores only ever see
// the resulting vectors.
type Embedder interface {
	// EmbedText converts text into a vector embedding.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedImage converts raw image bytes into a vector embedding in the
	// same space as EmbedText, so text queries can match stored images.
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
