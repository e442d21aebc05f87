package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/blob"
	"github.com/papercomputeco/lens/pkg/vector"
)

// UploadResponse is returned after a successful image ingest.
type UploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Backend  string `json:"backend"`
}

// BulkItem is a single precomputed embedding in a bulk ingest request.
type BulkItem struct {
	ID        string         `json:"id"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// BulkRequest is the body of POST /v1/images/bulk.
type BulkRequest struct {
	Items []BulkItem `json:"items"`
}

// BulkResponse reports the outcome of a bulk ingest.
type BulkResponse struct {
	Stored int               `json:"stored"`
	Failed map[string]string `json:"failed,omitempty"`
}

// handleUploadImage handles POST /v1/images multipart uploads.
// Form fields:
//   - file (required): the image bytes
//   - id (optional): record id, generated when absent
//   - metadata (optional): a JSON object of free-form metadata
func (s *Server) handleUploadImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "file field is required",
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: fmt.Sprintf("opening upload: %v", err),
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: fmt.Sprintf("reading upload: %v", err),
		})
	}

	id := c.FormValue("id")
	if id == "" {
		id = uuid.NewString()
	}

	metadata := map[string]any{}
	if raw := c.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "metadata must be a JSON object",
			})
		}
	}
	metadata[vector.MetadataFilenameKey] = fileHeader.Filename
	metadata[vector.MetadataUploadTimeKey] = time.Now().UTC()

	vec, err := s.embedder.EmbedImage(c.Context(), data)
	if err != nil {
		s.logger.Error("embedding upload failed",
			zap.String("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "embedding the image failed",
		})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := s.blobs.Put(c.Context(), id, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		s.logger.Error("storing blob failed",
			zap.String("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "storing the image bytes failed",
		})
	}

	if err := s.store.StoreEmbedding(c.Context(), id, vec, metadata); err != nil {
		s.logger.Error("storing embedding failed",
			zap.String("id", id),
			zap.String("backend", s.store.Name()),
			zap.Error(err),
		)
		if errors.Is(err, vector.ErrDimensionMismatch) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
				Error: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "storing the embedding failed",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		ID:       id,
		Filename: fileHeader.Filename,
		Backend:  s.store.Name(),
	})
}

// bulkCapable reports whether the live backend supports the bulk ingest
// endpoint. Relational backends commit the whole batch atomically.
func bulkCapable(name string) bool {
	return name == "postgres" || name == "alloydb"
}

// handleBulkStore handles POST /v1/images/bulk with precomputed embeddings.
func (s *Server) handleBulkStore(c *fiber.Ctx) error {
	if !bulkCapable(s.store.Name()) {
		return c.Status(fiber.StatusNotImplemented).JSON(ErrorResponse{
			Error: fmt.Sprintf("bulk ingest is not supported on the %q backend", s.store.Name()),
		})
	}

	req := BulkRequest{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "request body must be JSON",
		})
	}

	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "items must not be empty",
		})
	}

	embeddings := make([]vector.Embedding, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "every item requires an id",
			})
		}
		embeddings = append(embeddings, vector.Embedding{
			ID:       item.ID,
			Vector:   item.Embedding,
			Metadata: item.Metadata,
		})
	}

	err := s.store.BulkStoreEmbeddings(c.Context(), embeddings)
	if err != nil {
		var batchErr *vector.BatchError
		if errors.As(err, &batchErr) {
			failed := make(map[string]string, len(batchErr.Failed))
			for id, itemErr := range batchErr.Failed {
				failed[id] = itemErr.Error()
			}
			return c.Status(fiber.StatusMultiStatus).JSON(BulkResponse{
				Stored: len(embeddings) - len(failed),
				Failed: failed,
			})
		}

		s.logger.Error("bulk store failed",
			zap.Int("count", len(embeddings)),
			zap.String("backend", s.store.Name()),
			zap.Error(err),
		)
		if errors.Is(err, vector.ErrDimensionMismatch) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
				Error: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "bulk store failed",
		})
	}

	return c.JSON(BulkResponse{Stored: len(embeddings)})
}

// handleGetImage streams the original image bytes back from the blob store.
func (s *Server) handleGetImage(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "id parameter required",
		})
	}

	info, err := s.blobs.Stat(c.Context(), id)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "image not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "reading the image failed",
		})
	}

	r, err := s.blobs.Open(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "reading the image failed",
		})
	}

	if info.ContentType != "" {
		c.Set(fiber.HeaderContentType, info.ContentType)
	}
	return c.SendStream(r, int(info.Size))
}

// handleGetMetadata handles GET /v1/images/:id/metadata.
func (s *Server) handleGetMetadata(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "id parameter required",
		})
	}

	meta, err := s.store.GetMetadataByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, vector.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "record not found",
			})
		}
		s.logger.Error("metadata lookup failed",
			zap.String("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "metadata lookup failed",
		})
	}

	return c.JSON(meta)
}

// handleGetEmbedding handles GET /v1/images/:id/embedding. Diagnostics only.
func (s *Server) handleGetEmbedding(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "id parameter required",
		})
	}

	vec, err := s.store.GetEmbeddingByID(c.Context(), id)
	if err != nil {
		s.logger.Error("embedding lookup failed",
			zap.String("id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "embedding lookup failed",
		})
	}

	if vec == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "record not found",
		})
	}

	return c.JSON(map[string]any{
		"id":        id,
		"embedding": vec,
		"dimension": len(vec),
	})
}
