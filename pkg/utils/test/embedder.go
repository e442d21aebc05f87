package testutils

import (
	"context"
	"fmt"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	TextEmbeddings map[string][]float32

	// ImageEmbedding is returned by EmbedImage for any payload.
	ImageEmbedding []float32

	// FailOn causes EmbedText to return an error when the input text matches
	FailOn string

	// FailImage causes EmbedImage to return an error.
	FailImage bool
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		TextEmbeddings: make(map[string][]float32),
		ImageEmbedding: []float32{0.3, 0.2, 0.1},
	}
}

func (m *MockEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.TextEmbeddings[text]; ok {
		return emb, nil
	}

	// Return a default embedding for any text
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) EmbedImage(_ context.Context, _ []byte) ([]float32, error) {
	if m.FailImage {
		return nil, fmt.Errorf("mock image embedding failure")
	}
	return m.ImageEmbedding, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
