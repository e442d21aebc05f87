// Package blobutils constructs the configured blob store backend.
package blobutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/lens/pkg/blob"
	"github.com/papercomputeco/lens/pkg/blob/fsstore"
	"github.com/papercomputeco/lens/pkg/blob/miniostore"
)

type NewStoreOpts struct {
	// Provider is "minio" or "fs".
	Provider string

	MinIO miniostore.Config

	// FSRoot is the root directory for the filesystem provider.
	FSRoot string
}

func NewStore(ctx context.Context, o *NewStoreOpts) (blob.Store, error) {
	switch o.Provider {
	case "minio":
		return miniostore.NewStore(ctx, o.MinIO)
	case "fs":
		return fsstore.NewStore(o.FSRoot)
	default:
		return nil, fmt.Errorf("unsupported blob store provider: %s", o.Provider)
	}
}
