// Package qdrantvec provides a Qdrant-backed vector store over gRPC. Qdrant
// collections configured with cosine distance report a similarity directly,
// so scores only need clamping into the shared [0, 1] convention.
package qdrantvec

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/vector"
)

// Name is the backend identifier reported by this store.
const Name = "qdrant"

const (
	// DefaultCollection is the default collection name for stored embeddings.
	DefaultCollection = "image_embeddings"

	defaultQueryTimeout = 60 * time.Second
	defaultSearchLimit  = 5

	// recordIDKey carries the caller's original record id in the point
	// payload. Qdrant point ids must be UUIDs or integers, so arbitrary
	// string ids are mapped to deterministic UUIDs and recovered from here.
	recordIDKey = "_record_id"
)

// Config holds configuration for the Qdrant store.
type Config struct {
	// Host and Port locate the Qdrant gRPC endpoint (default port 6334).
	Host string
	Port int

	// APIKey authenticates against Qdrant Cloud. Empty for local instances.
	APIKey string

	// UseTLS enables transport security, required by Qdrant Cloud.
	UseTLS bool

	// Collection overrides DefaultCollection when set.
	Collection string

	// Dimensions is the embedding dimension.
	Dimensions uint

	// QueryTimeout bounds each gRPC call issued by the store.
	QueryTimeout time.Duration
}

// Store implements vector.Store over the Qdrant gRPC API.
type Store struct {
	cfg    Config
	client *qdrant.Client
	logger *zap.Logger
}

// NewStore creates a Qdrant-backed vector store.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if cfg.Dimensions == 0 {
		return nil, fmt.Errorf("embedding dimensions cannot be 0, must be configured")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vector.ErrConnection, err)
	}

	return &Store{
		cfg:    cfg,
		client: client,
		logger: logger,
	}, nil
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

func (s *Store) checkDimensions(vec []float32) error {
	if uint(len(vec)) != s.cfg.Dimensions {
		return &vector.DimensionError{Want: int(s.cfg.Dimensions), Got: len(vec)}
	}
	return nil
}

// Initialize creates the cosine-distance collection if it does not exist.
func (s *Store) Initialize(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, s.cfg.Collection, err)
	}

	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.cfg.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("creating collection %q: %w", s.cfg.Collection, err)
		}
	}

	s.logger.Info("qdrant vector store initialized",
		zap.String("backend", Name),
		zap.String("collection", s.cfg.Collection),
		zap.Uint("dimensions", s.cfg.Dimensions),
	)

	return nil
}

// StoreEmbedding normalizes vec and upserts a single point.
func (s *Store) StoreEmbedding(ctx context.Context, id string, vec []float32, metadata map[string]any) error {
	if err := s.checkDimensions(vec); err != nil {
		return err
	}

	point := s.buildPoint(id, vec, metadata)

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         []*qdrant.PointStruct{point},
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		s.logger.Error("store embedding failed",
			zap.String("backend", Name),
			zap.String("id", id),
			zap.Error(err),
		)
		return fmt.Errorf("storing embedding %s: %w", id, err)
	}

	s.logger.Debug("stored embedding",
		zap.String("backend", Name),
		zap.String("id", id),
	)

	return nil
}

// BulkStoreEmbeddings upserts the whole batch in one call; the server
// applies it as a single operation, so a failure leaves no partial batch.
func (s *Store) BulkStoreEmbeddings(ctx context.Context, embeddings []vector.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(embeddings))
	for _, emb := range embeddings {
		if err := s.checkDimensions(emb.Vector); err != nil {
			return fmt.Errorf("embedding %s: %w", emb.ID, err)
		}
		points = append(points, s.buildPoint(emb.ID, emb.Vector, emb.Metadata))
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		s.logger.Error("bulk store failed",
			zap.String("backend", Name),
			zap.Int("count", len(embeddings)),
			zap.Error(err),
		)
		return fmt.Errorf("bulk storing %d embeddings: %w", len(embeddings), err)
	}

	s.logger.Info("bulk stored embeddings",
		zap.String("backend", Name),
		zap.Int("count", len(embeddings)),
	)

	return nil
}

// SearchSimilar queries the collection and clamps each cosine similarity
// into [0, 1].
func (s *Store) SearchSimilar(ctx context.Context, vec []float32, limit int) ([]vector.SearchHit, error) {
	if err := s.checkDimensions(vec); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	query := vector.Normalize(vec)

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		s.logger.Error("similarity search failed",
			zap.String("backend", Name),
			zap.Error(err),
		)
		return nil, fmt.Errorf("querying collection %q: %w", s.cfg.Collection, err)
	}

	hits := make([]vector.SearchHit, 0, len(points))
	for _, p := range points {
		id, payload := decodePayload(p.GetId(), p.GetPayload())
		hits = append(hits, vector.SearchHit{
			ID:      id,
			Score:   vector.ClampScore(float64(p.GetScore())),
			Payload: payload,
		})
	}

	s.logger.Debug("similarity search",
		zap.String("backend", Name),
		zap.Int("limit", limit),
		zap.Int("hits", len(hits)),
	)

	return hits, nil
}

// GetMetadataByID returns the stored payload merged with filename.
func (s *Store) GetMetadataByID(ctx context.Context, id string) (map[string]any, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.cfg.Collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting metadata for %s: %w", id, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("metadata for %s: %w", id, vector.ErrNotFound)
	}

	_, payload := decodePayload(points[0].GetId(), points[0].GetPayload())
	delete(payload, vector.MetadataUploadTimeKey)
	if _, ok := payload[vector.MetadataFilenameKey]; !ok {
		payload[vector.MetadataFilenameKey] = ""
	}
	return payload, nil
}

// GetEmbeddingByID returns the stored vector for id, or nil when absent.
func (s *Store) GetEmbeddingByID(ctx context.Context, id string) ([]float32, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.cfg.Collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting embedding for %s: %w", id, err)
	}
	if len(points) == 0 {
		return nil, nil
	}

	return points[0].GetVectors().GetVector().GetData(), nil
}

// Name returns the backend identifier.
func (s *Store) Name() string {
	return Name
}

// Close shuts down the gRPC client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) buildPoint(id string, vec []float32, metadata map[string]any) *qdrant.PointStruct {
	normalized := vector.Normalize(vec)
	filename, uploadTime, rest := vector.SplitMetadata(metadata)

	payload := vector.Payload(filename, uploadTime, rest)
	payload[recordIDKey] = id

	return &qdrant.PointStruct{
		Id:      pointID(id),
		Vectors: qdrant.NewVectors(normalized...),
		Payload: qdrant.NewValueMap(payload),
	}
}

// pointID maps a record id to a Qdrant point id. Ids that already are UUIDs
// pass through; anything else maps to a deterministic name-based UUID so
// repeated stores of the same record id hit the same point.
func pointID(id string) *qdrant.PointId {
	if _, err := uuid.Parse(id); err == nil {
		return qdrant.NewID(id)
	}
	derived := uuid.NewSHA1(uuid.NameSpaceOID, []byte(id))
	return qdrant.NewID(derived.String())
}

// decodePayload converts a point payload back into a plain map and recovers
// the original record id.
func decodePayload(pid *qdrant.PointId, payload map[string]*qdrant.Value) (string, map[string]any) {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		result[k] = valueToAny(v)
	}

	id, _ := result[recordIDKey].(string)
	delete(result, recordIDKey)
	if id == "" {
		id = pid.GetUuid()
	}
	return id, result
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, 0, len(values))
		for _, item := range values {
			list = append(list, valueToAny(item))
		}
		return list
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		m := make(map[string]any, len(fields))
		for k, item := range fields {
			m[k] = valueToAny(item)
		}
		return m
	default:
		return nil
	}
}
