package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/blob"
	"github.com/papercomputeco/lens/pkg/embeddings"
	"github.com/papercomputeco/lens/pkg/vector"
)

// Server is the API server for ingesting images and querying the lens system
type Server struct {
	config   Config
	store    vector.Store
	embedder embeddings.Embedder
	blobs    blob.Store
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The vector store, embedder, and blob store are injected to allow sharing
// with other components (e.g., the seed command).
func NewServer(config Config, store vector.Store, embedder embeddings.Embedder, blobs blob.Store, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             64 * 1024 * 1024,
	})

	s := &Server{
		config:   config,
		store:    store,
		embedder: embedder,
		blobs:    blobs,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/status", s.handleStatus)

	app.Post("/v1/images", s.handleUploadImage)
	app.Post("/v1/images/bulk", s.handleBulkStore)
	app.Get("/v1/images/:id", s.handleGetImage)
	app.Get("/v1/images/:id/metadata", s.handleGetMetadata)
	app.Get("/v1/images/:id/embedding", s.handleGetEmbedding)

	app.Get("/v1/search", s.handleSearchText)
	app.Post("/v1/search/image", s.handleSearchImage)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("backend", s.store.Name()),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStatus reports which backend is live behind the contract.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(map[string]any{
		"backend": s.store.Name(),
	})
}
