// Package clip implements pkg/embeddings' Embedder against a CLIP inference
// sidecar's HTTP API.
package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default CLIP sidecar URL.
	DefaultBaseURL = "http://localhost:8090"

	// DefaultModel is the default CLIP model identifier.
	DefaultModel = "ViT-B/32"
)

// Embedder wraps a CLIP inference sidecar's embedding API.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the CLIP embedder.
type Config struct {
	// BaseURL is the sidecar URL (e.g., "http://localhost:8090").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the CLIP model identifier. Defaults to DefaultModel if empty.
	Model string

	// Timeout bounds each embedding request. Defaults to 120s.
	Timeout time.Duration
}

type embedRequest struct {
	Model string `json:"model"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewEmbedder creates an embedder backed by a CLIP inference sidecar.
func NewEmbedder(cfg Config) (*Embedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Embedder{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// EmbedText converts text into a vector embedding.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, "/embed/text", embedRequest{
		Model: e.model,
		Text:  text,
	})
}

// EmbedImage converts raw image bytes into a vector embedding.
func (e *Embedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	return e.embed(ctx, "/embed/image", embedRequest{
		Model: e.model,
		Image: base64.StdEncoding.EncodeToString(image),
	})
}

func (e *Embedder) embed(ctx context.Context, path string, reqBody embedRequest) ([]float32, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed request failed: status %d: %s", resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}

	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("embed response contained no embedding")
	}

	return embedResp.Embedding, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}
