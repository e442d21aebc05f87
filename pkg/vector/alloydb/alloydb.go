// Package alloydb provides a vector store backed by AlloyDB for PostgreSQL.
// It reuses pgvector's query logic unchanged; the only structural difference
// is that every connection is tunneled through the AlloyDB Go connector,
// which authenticates against the instance URI instead of dialing a raw
// host and port.
package alloydb

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"cloud.google.com/go/alloydbconn"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/vector/pgvector"
)

// Name is the backend identifier reported by stores created here.
const Name = "alloydb"

// Config holds configuration for the AlloyDB vector store.
type Config struct {
	// InstanceURI identifies the AlloyDB instance, e.g.
	// "projects/p/locations/us-central1/clusters/c/instances/primary".
	InstanceURI string

	// User, Password, and Database are the PostgreSQL credentials used once
	// the connector has established the tunnel.
	User     string
	Password string
	Database string

	// PublicIP connects over the instance's public address instead of PSA.
	PublicIP bool

	// Dimensions is the embedding dimension.
	Dimensions uint

	// Table overrides pgvector.DefaultTable when set.
	Table string

	// Pool bounds, mirroring the direct backend.
	MaxConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
	QueryTimeout    time.Duration
}

// NewStore creates an AlloyDB-backed vector store. The returned store shares
// every query path with the direct pgvector backend and reports Name as its
// backend identifier.
func NewStore(ctx context.Context, cfg Config, logger *zap.Logger) (*pgvector.Store, error) {
	if cfg.InstanceURI == "" {
		return nil, fmt.Errorf("alloydb instance URI is required")
	}

	var opts []alloydbconn.Option
	if cfg.PublicIP {
		opts = append(opts, alloydbconn.WithDefaultDialOptions(alloydbconn.WithPublicIP()))
	}

	dialer, err := alloydbconn.NewDialer(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating alloydb dialer: %w", err)
	}

	// pgx never dials the host in this DSN; the connector handles transport
	// and TLS, so the driver-level sslmode stays disabled.
	dsn := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=disable",
		quoteDSNValue(cfg.User), quoteDSNValue(cfg.Password), quoteDSNValue(cfg.Database))

	instanceURI := cfg.InstanceURI
	dial := func(ctx context.Context, _ string, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, instanceURI)
	}

	store, err := pgvector.NewStoreWithDialer(pgvector.Config{
		DSN:             dsn,
		Dimensions:      cfg.Dimensions,
		Table:           cfg.Table,
		MaxConns:        cfg.MaxConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		ConnectTimeout:  cfg.ConnectTimeout,
		QueryTimeout:    cfg.QueryTimeout,
	}, Name, dial, dialer, logger)
	if err != nil {
		dialer.Close()
		return nil, err
	}

	logger.Info("alloydb vector store configured",
		zap.String("instance", cfg.InstanceURI),
		zap.String("database", cfg.Database),
	)

	return store, nil
}

// quoteDSNValue escapes a keyword/value DSN component so credentials with
// spaces or quotes survive libpq-style parsing.
func quoteDSNValue(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + escaped + "'"
}
