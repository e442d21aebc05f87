package sqlitevec_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/vector"
	"github.com/papercomputeco/lens/pkg/vector/sqlitevec"
)

var _ = Describe("sqlitevec Store", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	newStore := func(dims uint) *sqlitevec.Store {
		store, err := sqlitevec.NewStore(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: dims,
		}, logger)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Initialize(context.Background())).To(Succeed())
		return store
	}

	Describe("NewStore", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewStore(sqlitevec.Config{DBPath: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewStore(sqlitevec.Config{DBPath: ":memory:"}, logger)
			Expect(err).To(HaveOccurred())
		})

		It("should create a store with an in-memory database", func() {
			store, err := sqlitevec.NewStore(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(store).NotTo(BeNil())
			Expect(store.Name()).To(Equal("sqlite"))
			Expect(store.Close()).To(Succeed())
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Store", func() {
			var _ vector.Store = (*sqlitevec.Store)(nil)
		})
	})

	Describe("Connection handling", func() {
		It("serves concurrent reads from the same in-memory database", func() {
			store := newStore(4)
			defer store.Close()

			err := store.StoreEmbedding(context.Background(), "img-1", []float32{1, 0, 0, 0}, map[string]any{
				"filename": "cat.jpg",
			})
			Expect(err).NotTo(HaveOccurred())

			// A pool that opened a second connection would see an empty
			// ":memory:" database and fail these lookups.
			var wg sync.WaitGroup
			errs := make(chan error, 16)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_, err := store.GetMetadataByID(context.Background(), "img-1")
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
		})
	})

	Describe("Initialize", func() {
		It("is idempotent", func() {
			store := newStore(4)
			defer store.Close()

			Expect(store.Initialize(context.Background())).To(Succeed())
			Expect(store.Initialize(context.Background())).To(Succeed())
		})
	})

	Describe("StoreEmbedding", func() {
		var store *sqlitevec.Store

		BeforeEach(func() {
			store = newStore(4)
		})

		AfterEach(func() {
			Expect(store.Close()).To(Succeed())
		})

		It("stores and retrieves a normalized embedding", func() {
			err := store.StoreEmbedding(context.Background(), "img-1", []float32{3, 4, 0, 0}, map[string]any{
				"filename": "cat.jpg",
			})
			Expect(err).NotTo(HaveOccurred())

			vec, err := store.GetEmbeddingByID(context.Background(), "img-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(HaveLen(4))
			Expect(vector.Norm(vec)).To(BeNumerically("~", 1.0, 1e-6))
		})

		It("rejects a wrong-length vector with no partial record", func() {
			err := store.StoreEmbedding(context.Background(), "img-1", []float32{1, 2}, nil)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())

			vec, err := store.GetEmbeddingByID(context.Background(), "img-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(BeNil())

			_, err = store.GetMetadataByID(context.Background(), "img-1")
			Expect(errors.Is(err, vector.ErrNotFound)).To(BeTrue())
		})

		It("replaces rather than merges on upsert", func() {
			err := store.StoreEmbedding(context.Background(), "img-1", []float32{1, 0, 0, 0}, map[string]any{
				"filename": "old.jpg",
				"color":    "red",
			})
			Expect(err).NotTo(HaveOccurred())

			err = store.StoreEmbedding(context.Background(), "img-1", []float32{0, 1, 0, 0}, map[string]any{
				"filename": "new.jpg",
				"size":     "large",
			})
			Expect(err).NotTo(HaveOccurred())

			meta, err := store.GetMetadataByID(context.Background(), "img-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(meta).To(HaveKeyWithValue("filename", "new.jpg"))
			Expect(meta).To(HaveKeyWithValue("size", "large"))
			Expect(meta).NotTo(HaveKey("color"))

			vec, err := store.GetEmbeddingByID(context.Background(), "img-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec[1]).To(BeNumerically("~", 1.0, 1e-6))
		})

		It("round-trips non-primitive metadata through JSON strings", func() {
			err := store.StoreEmbedding(context.Background(), "img-1", []float32{1, 0, 0, 0}, map[string]any{
				"nested": map[string]any{"a": "b"},
				"tag":    "animal",
			})
			Expect(err).NotTo(HaveOccurred())

			meta, err := store.GetMetadataByID(context.Background(), "img-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(meta).To(HaveKeyWithValue("tag", "animal"))
			Expect(meta).To(HaveKey("nested"))
			Expect(meta["nested"]).To(HaveKeyWithValue("a", "b"))
		})

		It("keeps nested objects under their own key alongside flat values", func() {
			err := store.StoreEmbedding(context.Background(), "img-1", []float32{1, 0, 0, 0}, map[string]any{
				"exif":  map[string]any{"iso": "800", "f": "2.0"},
				"plain": "value",
			})
			Expect(err).NotTo(HaveOccurred())

			meta, err := store.GetMetadataByID(context.Background(), "img-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(meta).To(HaveKeyWithValue("plain", "value"))
			Expect(meta["exif"]).To(HaveKeyWithValue("iso", "800"))
			Expect(meta["exif"]).To(HaveKeyWithValue("f", "2.0"))
			Expect(meta).NotTo(HaveKey("iso"))
			Expect(meta).NotTo(HaveKey("f"))
		})

		It("passes through string values that only look like JSON", func() {
			err := store.StoreEmbedding(context.Background(), "img-1", []float32{1, 0, 0, 0}, map[string]any{
				"note": "{not an object",
			})
			Expect(err).NotTo(HaveOccurred())

			meta, err := store.GetMetadataByID(context.Background(), "img-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(meta).To(HaveKeyWithValue("note", "{not an object"))
		})
	})

	Describe("BulkStoreEmbeddings", func() {
		var store *sqlitevec.Store

		BeforeEach(func() {
			store = newStore(4)
		})

		AfterEach(func() {
			Expect(store.Close()).To(Succeed())
		})

		It("does nothing for an empty batch", func() {
			Expect(store.BulkStoreEmbeddings(context.Background(), nil)).To(Succeed())
		})

		It("stores every item in a clean batch", func() {
			err := store.BulkStoreEmbeddings(context.Background(), []vector.Embedding{
				{ID: "a", Vector: []float32{1, 0, 0, 0}},
				{ID: "b", Vector: []float32{0, 1, 0, 0}},
			})
			Expect(err).NotTo(HaveOccurred())

			vec, err := store.GetEmbeddingByID(context.Background(), "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).NotTo(BeNil())
		})

		It("reports exactly which ids failed and keeps the rest", func() {
			err := store.BulkStoreEmbeddings(context.Background(), []vector.Embedding{
				{ID: "good", Vector: []float32{1, 0, 0, 0}},
				{ID: "bad", Vector: []float32{1, 0}},
			})
			Expect(err).To(HaveOccurred())

			var batchErr *vector.BatchError
			Expect(errors.As(err, &batchErr)).To(BeTrue())
			Expect(batchErr.Failed).To(HaveLen(1))
			Expect(batchErr.Failed).To(HaveKey("bad"))

			vec, getErr := store.GetEmbeddingByID(context.Background(), "good")
			Expect(getErr).NotTo(HaveOccurred())
			Expect(vec).NotTo(BeNil())
		})
	})

	Describe("SearchSimilar", func() {
		var store *sqlitevec.Store

		BeforeEach(func() {
			store = newStore(4)

			embeddings := []vector.Embedding{
				{ID: "x-axis", Vector: []float32{1, 0, 0, 0}, Metadata: map[string]any{"filename": "x.jpg"}},
				{ID: "y-axis", Vector: []float32{0, 1, 0, 0}, Metadata: map[string]any{"filename": "y.jpg"}},
				{ID: "diagonal", Vector: []float32{1, 1, 0, 0}, Metadata: map[string]any{"filename": "d.jpg"}},
			}
			Expect(store.BulkStoreEmbeddings(context.Background(), embeddings)).To(Succeed())
		})

		AfterEach(func() {
			Expect(store.Close()).To(Succeed())
		})

		It("returns the self-match as the top hit with score near 1", func() {
			hits, err := store.SearchSimilar(context.Background(), []float32{1, 0, 0, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).NotTo(BeEmpty())
			Expect(hits[0].ID).To(Equal("x-axis"))
			Expect(hits[0].Score).To(BeNumerically("~", 1.0, 0.01))
		})

		It("returns scores in non-increasing order within [0, 1]", func() {
			hits, err := store.SearchSimilar(context.Background(), []float32{1, 0.5, 0, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(3))

			for i := 1; i < len(hits); i++ {
				Expect(hits[i-1].Score).To(BeNumerically(">=", hits[i].Score))
			}
			for _, hit := range hits {
				Expect(hit.Score).To(BeNumerically(">=", 0))
				Expect(hit.Score).To(BeNumerically("<=", 1))
			}
		})

		It("respects the limit", func() {
			hits, err := store.SearchSimilar(context.Background(), []float32{1, 0, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(2))
		})

		It("carries filename in the payload", func() {
			hits, err := store.SearchSimilar(context.Background(), []float32{0, 1, 0, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits[0].Payload).To(HaveKeyWithValue("filename", "y.jpg"))
		})

		It("rejects a wrong-length query vector", func() {
			_, err := store.SearchSimilar(context.Background(), []float32{1, 0}, 3)
			Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
		})

		It("returns an empty slice for an empty corpus", func() {
			empty := newStore(4)
			defer empty.Close()

			hits, err := empty.SearchSimilar(context.Background(), []float32{1, 0, 0, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty())
		})

		It("keeps the top-1 score within 0.05 of the relational convention", func() {
			// Relational backends score hits as 1 - cosine_distance, which
			// for unit vectors is the dot product. The bounded-distance
			// mapping used here must agree with that convention on the top
			// hit when the corpus holds a near duplicate of the query.
			cosine := func(a, b []float32) float32 {
				an := vector.Normalize(a)
				bn := vector.Normalize(b)
				var dot float32
				for i := range an {
					dot += an[i] * bn[i]
				}
				return dot
			}

			query := []float32{1, 0.1, 0, 0}
			nearDuplicate := []float32{1, 0.12, 0, 0}

			fresh := newStore(4)
			defer fresh.Close()
			Expect(fresh.BulkStoreEmbeddings(context.Background(), []vector.Embedding{
				{ID: "near", Vector: nearDuplicate},
				{ID: "far-y", Vector: []float32{0, 1, 0, 0}},
				{ID: "far-z", Vector: []float32{0, 0, 1, 0}},
			})).To(Succeed())

			hits, err := fresh.SearchSimilar(context.Background(), query, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].ID).To(Equal("near"))

			relationalScore := vector.ClampScore(float64(cosine(query, nearDuplicate)))
			Expect(hits[0].Score).To(BeNumerically("~", relationalScore, 0.05))
		})
	})

	Describe("GetMetadataByID", func() {
		It("returns ErrNotFound for an unknown id", func() {
			store := newStore(4)
			defer store.Close()

			_, err := store.GetMetadataByID(context.Background(), "nope")
			Expect(errors.Is(err, vector.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("GetEmbeddingByID", func() {
		It("returns nil, nil for an unknown id", func() {
			store := newStore(4)
			defer store.Close()

			vec, err := store.GetEmbeddingByID(context.Background(), "nope")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(BeNil())
		})
	})
})
