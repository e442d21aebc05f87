// Package sqlitevec provides an embedded vector store backed by SQLite with
// the sqlite-vec extension. Unlike the relational backends, the native query
// returns a bounded cosine distance in [0, 2] rather than a similarity, so
// results pass through the shared distance-to-similarity conversion before
// they reach callers.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/vector"
)

// Name is the backend identifier reported by this store.
const Name = "sqlite"

const defaultSearchLimit = 5

// Config holds configuration for the sqlite-vec store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the embedding dimension. Every stored and query vector
	// must match it exactly.
	Dimensions uint
}

// Store implements vector.Store using SQLite with sqlite-vec.
//
// The vec0 virtual table keys embeddings by integer rowid, so a mapping
// table carries the string record id together with filename, upload time,
// and the flattened metadata document.
type Store struct {
	cfg    Config
	db     *sql.DB
	logger *zap.Logger

	// mu serializes writes; a single SQLite connection does not tolerate
	// concurrent writers.
	mu sync.Mutex
}

// NewStore opens the SQLite database and verifies the sqlite-vec extension
// is loaded. Schema provisioning happens in Initialize.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	sqlite_vec.Auto()

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.Dimensions == 0 {
		return nil, fmt.Errorf("embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps every statement on the same session. With
	// ":memory:" a second pooled connection would see its own empty database.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	logger.Info("sqlite-vec store opened",
		zap.String("db_path", cfg.DBPath),
		zap.Uint("dimensions", cfg.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Store{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}, nil
}

// Initialize idempotently creates the mapping table and the vec0 virtual
// table with a cosine distance metric.
func (s *Store) Initialize(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vec_records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id TEXT NOT NULL UNIQUE,
			filename TEXT NOT NULL DEFAULT '',
			upload_time REAL NOT NULL DEFAULT 0,
			metadata TEXT NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		s.cfg.Dimensions,
	)
	if _, err := s.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	s.logger.Info("sqlite-vec store initialized",
		zap.String("backend", Name),
		zap.String("db_path", s.cfg.DBPath),
	)

	return nil
}

func (s *Store) checkDimensions(vec []float32) error {
	if uint(len(vec)) != s.cfg.Dimensions {
		return &vector.DimensionError{Want: int(s.cfg.Dimensions), Got: len(vec)}
	}
	return nil
}

// StoreEmbedding normalizes vec and upserts it with its metadata. The upsert
// probes for an existing row first: vec0 tables do not support UPDATE, so an
// existing embedding is replaced via DELETE + INSERT inside one transaction.
func (s *Store) StoreEmbedding(ctx context.Context, id string, vec []float32, metadata map[string]any) error {
	if err := s.checkDimensions(vec); err != nil {
		return err
	}

	normalized := vector.Normalize(vec)
	filename, uploadTime, rest := vector.SplitMetadata(metadata)

	metadataJSON, err := flattenMetadata(rest)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", id, err)
	}

	embBlob := serializeFloat32(normalized)
	uploadSecs := float64(uploadTime.UnixNano()) / float64(time.Second)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existingRowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM vec_records WHERE record_id = ?`, id,
	).Scan(&existingRowID)

	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			`UPDATE vec_records SET filename = ?, upload_time = ?, metadata = ? WHERE rowid = ?`,
			filename, uploadSecs, metadataJSON, existingRowID,
		); err != nil {
			return fmt.Errorf("updating record %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_embeddings WHERE rowid = ?`, existingRowID,
		); err != nil {
			return fmt.Errorf("deleting old embedding for %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
			existingRowID, embBlob,
		); err != nil {
			return fmt.Errorf("re-inserting embedding for %s: %w", id, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		result, err := tx.ExecContext(ctx,
			`INSERT INTO vec_records(record_id, filename, upload_time, metadata) VALUES (?, ?, ?, ?)`,
			id, filename, uploadSecs, metadataJSON,
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", id, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, embBlob,
		); err != nil {
			return fmt.Errorf("inserting embedding for %s: %w", id, err)
		}
	default:
		return fmt.Errorf("checking for existing record %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("stored embedding",
		zap.String("backend", Name),
		zap.String("id", id),
		zap.String("filename", filename),
	)

	return nil
}

// BulkStoreEmbeddings stores embeddings one at a time. A failed item never
// stops the batch; the returned *BatchError names exactly which ids failed
// while the rest remain committed.
func (s *Store) BulkStoreEmbeddings(ctx context.Context, embeddings []vector.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	failed := make(map[string]error)
	for _, emb := range embeddings {
		if err := s.StoreEmbedding(ctx, emb.ID, emb.Vector, emb.Metadata); err != nil {
			s.logger.Error("bulk store item failed",
				zap.String("backend", Name),
				zap.String("id", emb.ID),
				zap.Error(err),
			)
			failed[emb.ID] = err
		}
	}

	if len(failed) > 0 {
		return &vector.BatchError{Failed: failed}
	}

	s.logger.Info("bulk stored embeddings",
		zap.String("backend", Name),
		zap.Int("count", len(embeddings)),
	)

	return nil
}

// SearchSimilar runs a KNN query against the vec0 table and converts each
// bounded cosine distance into the shared [0, 1] similarity convention.
func (s *Store) SearchSimilar(ctx context.Context, vec []float32, limit int) ([]vector.SearchHit, error) {
	if err := s.checkDimensions(vec); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queryBlob := serializeFloat32(vector.Normalize(vec))

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.record_id, r.filename, r.upload_time, r.metadata, ve.distance
		FROM vec_embeddings ve
		INNER JOIN vec_records r ON r.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, queryBlob, limit)
	if err != nil {
		s.logger.Error("similarity search failed",
			zap.String("backend", Name),
			zap.Error(err),
		)
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	hits := make([]vector.SearchHit, 0, limit)
	for rows.Next() {
		var (
			id           string
			filename     string
			uploadSecs   float64
			metadataJSON string
			distance     float64
		)
		if err := rows.Scan(&id, &filename, &uploadSecs, &metadataJSON, &distance); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}

		payload, err := expandMetadata(metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", id, err)
		}
		payload[vector.MetadataFilenameKey] = filename
		if uploadSecs > 0 {
			payload[vector.MetadataUploadTimeKey] = uploadSecs
		}

		hits = append(hits, vector.SearchHit{
			ID:      id,
			Score:   vector.SimilarityFromBoundedDistance(distance),
			Payload: payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	s.logger.Debug("similarity search",
		zap.String("backend", Name),
		zap.Int("limit", limit),
		zap.Int("hits", len(hits)),
	)

	return hits, nil
}

// GetMetadataByID returns the stored metadata merged with filename. Values
// that were serialized as JSON object strings on write are expanded back
// into the result.
func (s *Store) GetMetadataByID(ctx context.Context, id string) (map[string]any, error) {
	var (
		filename     string
		metadataJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT filename, metadata FROM vec_records WHERE record_id = ?`, id,
	).Scan(&filename, &metadataJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("metadata for %s: %w", id, vector.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting metadata for %s: %w", id, err)
	}

	result, err := expandMetadata(metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding metadata for %s: %w", id, err)
	}
	result[vector.MetadataFilenameKey] = filename

	return result, nil
}

// GetEmbeddingByID returns the stored vector for id, or nil when absent.
func (s *Store) GetEmbeddingByID(ctx context.Context, id string) ([]float32, error) {
	var rowID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT rowid FROM vec_records WHERE record_id = ?`, id,
	).Scan(&rowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up record %s: %w", id, err)
	}

	var embBlob []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT embedding FROM vec_embeddings WHERE rowid = ?`, rowID,
	).Scan(&embBlob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting embedding for %s: %w", id, err)
	}

	return deserializeFloat32(embBlob)
}

// Name returns the backend identifier.
func (s *Store) Name() string {
	return Name
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// flattenMetadata reduces a metadata map to schemaless scalar fields:
// strings, numbers, booleans, and nulls pass through, everything else is
// serialized to its JSON string representation.
func flattenMetadata(metadata map[string]any) (string, error) {
	flat := make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch v.(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64, json.Number:
			flat[k] = v
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("serializing metadata key %q: %w", k, err)
			}
			flat[k] = string(encoded)
		}
	}

	doc, err := json.Marshal(flat)
	if err != nil {
		return "", err
	}
	return string(doc), nil
}

// expandMetadata reverses flattenMetadata: string values holding a JSON
// object are decoded back under their own key, restoring the shape callers
// stored. Strings that do not decode pass through unchanged.
func expandMetadata(doc string) (map[string]any, error) {
	flat := map[string]any{}
	if doc != "" {
		if err := json.Unmarshal([]byte(doc), &flat); err != nil {
			return nil, err
		}
	}

	result := make(map[string]any, len(flat))
	for k, v := range flat {
		s, ok := v.(string)
		if ok && strings.HasPrefix(strings.TrimSpace(s), "{") {
			nested := map[string]any{}
			if err := json.Unmarshal([]byte(s), &nested); err == nil {
				result[k] = nested
				continue
			}
		}
		result[k] = v
	}
	return result, nil
}

// serializeFloat32 converts a vector to the little-endian BLOB format
// sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian BLOB back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
