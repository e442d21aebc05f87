package api

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/utils"
	"github.com/papercomputeco/lens/pkg/vector"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 100
)

// SearchResponse is the body returned by the search endpoints.
type SearchResponse struct {
	Query   string             `json:"query,omitempty"`
	Backend string             `json:"backend"`
	Hits    []vector.SearchHit `json:"hits"`
}

// parseLimit reads the limit query parameter, applying the default and the
// upper bound.
func parseLimit(c *fiber.Ctx) (int, error) {
	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return limit, nil
}

// handleSearchText handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - limit (optional, default 5, max 100): number of results to return
func (s *Server) handleSearchText(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	limit, err := parseLimit(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	vec, err := s.embedder.EmbedText(c.Context(), query)
	if err != nil {
		s.logger.Error("embedding query failed",
			zap.String("query", utils.Truncate(query, 80)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "embedding the query failed",
		})
	}

	hits, err := s.store.SearchSimilar(c.Context(), vec, limit)
	if err != nil {
		s.logger.Error("similarity search failed",
			zap.String("backend", s.store.Name()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "similarity search failed",
		})
	}

	return c.JSON(SearchResponse{
		Query:   query,
		Backend: s.store.Name(),
		Hits:    hits,
	})
}

// handleSearchImage handles POST /v1/search/image requests. The body is the
// raw image bytes; limit comes from the query string.
func (s *Server) handleSearchImage(c *fiber.Ctx) error {
	var data []byte
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), "multipart/") {
		// Multipart upload with a "file" field.
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "file field is required",
			})
		}

		f, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "opening the upload failed",
			})
		}
		defer f.Close()

		data, err = io.ReadAll(f)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "reading the upload failed",
			})
		}
	} else {
		data = c.Body()
	}

	if len(data) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "request body must contain image bytes",
		})
	}

	limit, err := parseLimit(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	vec, err := s.embedder.EmbedImage(c.Context(), data)
	if err != nil {
		s.logger.Error("embedding query image failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "embedding the image failed",
		})
	}

	hits, err := s.store.SearchSimilar(c.Context(), vec, limit)
	if err != nil {
		s.logger.Error("similarity search failed",
			zap.String("backend", s.store.Name()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "similarity search failed",
		})
	}

	return c.JSON(SearchResponse{
		Backend: s.store.Name(),
		Hits:    hits,
	})
}
