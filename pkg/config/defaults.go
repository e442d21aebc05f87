package config

const (
	defaultVectorProvider = "sqlite"
	defaultDimensions     = 512
	defaultTable          = "image_embeddings"

	defaultSQLitePath = "lens.db"

	defaultQdrantHost       = "localhost"
	defaultQdrantPort       = 6334
	defaultQdrantCollection = "image_embeddings"

	defaultEmbeddingProvider = "clip"
	defaultEmbeddingTarget   = "http://localhost:8090"
	defaultEmbeddingModel    = "ViT-B/32"

	defaultBlobProvider = "fs"
	defaultBlobEndpoint = "localhost:9000"
	defaultBlobBucket   = "lens-images"
	defaultBlobRoot     = "blobs"

	defaultAPIListen = ":8081"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Dimensions: defaultDimensions,
			Table:      defaultTable,
		},
		SQLite: SQLiteConfig{
			Path: defaultSQLitePath,
		},
		Qdrant: QdrantConfig{
			Host:       defaultQdrantHost,
			Port:       defaultQdrantPort,
			Collection: defaultQdrantCollection,
		},
		Embedding: EmbeddingConfig{
			Provider: defaultEmbeddingProvider,
			Target:   defaultEmbeddingTarget,
			Model:    defaultEmbeddingModel,
		},
		Blob: BlobConfig{
			Provider: defaultBlobProvider,
			Endpoint: defaultBlobEndpoint,
			Bucket:   defaultBlobBucket,
			Root:     defaultBlobRoot,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
