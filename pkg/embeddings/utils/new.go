// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"time"

	"github.com/papercomputeco/lens/pkg/embeddings"
	"github.com/papercomputeco/lens/pkg/embeddings/clip"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Timeout      time.Duration
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "clip":
		return clip.NewEmbedder(clip.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			Timeout: o.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
