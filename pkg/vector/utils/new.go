// Package vectorutils constructs the configured vector store backend.
package vectorutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/vector"
	"github.com/papercomputeco/lens/pkg/vector/alloydb"
	"github.com/papercomputeco/lens/pkg/vector/pgvector"
	"github.com/papercomputeco/lens/pkg/vector/qdrantvec"
	"github.com/papercomputeco/lens/pkg/vector/sqlitevec"
)

// NewStoreOpts selects and configures one backend. Dimensions applies to
// whichever backend the provider names; per-backend sections carry the rest.
type NewStoreOpts struct {
	// Provider is one of "postgres", "alloydb", "sqlite", or "qdrant".
	Provider string

	// Dimensions is the embedding dimension shared by all backends.
	Dimensions uint

	Postgres pgvector.Config
	AlloyDB  alloydb.Config
	SQLite   sqlitevec.Config
	Qdrant   qdrantvec.Config

	Logger *zap.Logger
}

// NewStore returns exactly one live vector store for the configured
// provider. A process constructs this once at startup and passes the store
// explicitly to whatever serves requests; there is no process-wide
// singleton to reach for. An unrecognized provider is an error surfaced at
// this call site.
func NewStore(ctx context.Context, o *NewStoreOpts) (vector.Store, error) {
	switch o.Provider {
	case "postgres":
		cfg := o.Postgres
		cfg.Dimensions = o.Dimensions
		return pgvector.NewStore(cfg, o.Logger)
	case alloydb.Name:
		cfg := o.AlloyDB
		cfg.Dimensions = o.Dimensions
		return alloydb.NewStore(ctx, cfg, o.Logger)
	case sqlitevec.Name:
		cfg := o.SQLite
		cfg.Dimensions = o.Dimensions
		return sqlitevec.NewStore(cfg, o.Logger)
	case qdrantvec.Name:
		cfg := o.Qdrant
		cfg.Dimensions = o.Dimensions
		return qdrantvec.NewStore(cfg, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.Provider)
	}
}
