package pgvector

import (
	"context"
	"errors"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/vector"
)

var _ = Describe("NewStore", func() {
	It("requires a DSN", func() {
		_, err := NewStore(Config{Dimensions: 4}, zap.NewNop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("DSN is required"))
	})

	It("requires dimensions", func() {
		_, err := NewStore(Config{DSN: "postgres://localhost/lens"}, zap.NewNop())
		Expect(err).To(HaveOccurred())
	})

	It("applies pool defaults", func() {
		store, err := NewStore(Config{
			DSN:        "postgres://localhost/lens",
			Dimensions: 4,
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store.cfg.Table).To(Equal(DefaultTable))
		Expect(store.cfg.MaxConns).To(Equal(int32(5)))
		Expect(store.cfg.MaxConnLifetime).To(Equal(30 * time.Minute))
		Expect(store.cfg.ConnectTimeout).To(Equal(10 * time.Second))
		Expect(store.cfg.QueryTimeout).To(Equal(60 * time.Second))
	})

	It("keeps explicit pool settings", func() {
		store, err := NewStore(Config{
			DSN:        "postgres://localhost/lens",
			Dimensions: 4,
			Table:      "custom_embeddings",
			MaxConns:   12,
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store.cfg.Table).To(Equal("custom_embeddings"))
		Expect(store.cfg.MaxConns).To(Equal(int32(12)))
	})

	It("reports the postgres backend name", func() {
		store, err := NewStore(Config{DSN: "postgres://localhost/lens", Dimensions: 4}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Name()).To(Equal("postgres"))
	})
})

var _ = Describe("Interface compliance", func() {
	It("implements vector.Store", func() {
		var _ vector.Store = (*Store)(nil)
	})
})

var _ = Describe("NewStoreWithDialer", func() {
	It("accepts a custom dial function for the pool config", func() {
		// DialFunc must stay assignable to pgconn's connection config, so
		// a plain function literal satisfies it with no conversion.
		var dial DialFunc = func(_ context.Context, _, _ string) (net.Conn, error) {
			return nil, errors.New("not dialed in tests")
		}
		var _ pgconn.DialFunc = dial

		store, err := NewStoreWithDialer(Config{
			DSN:        "postgres://localhost/lens",
			Dimensions: 4,
		}, "alloydb", dial, nil, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Name()).To(Equal("alloydb"))
		Expect(store.dial).NotTo(BeNil())
	})
})

var _ = Describe("dimension checks", func() {
	var store *Store

	BeforeEach(func() {
		var err error
		store, err = NewStore(Config{
			DSN:        "postgres://localhost:1/unreachable",
			Dimensions: 4,
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a short vector before dialing", func() {
		err := store.StoreEmbedding(context.Background(), "id", []float32{1, 2}, nil)
		Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())

		var dimErr *vector.DimensionError
		Expect(errors.As(err, &dimErr)).To(BeTrue())
		Expect(dimErr.Want).To(Equal(4))
		Expect(dimErr.Got).To(Equal(2))
	})

	It("rejects a wrong-length query vector before dialing", func() {
		_, err := store.SearchSimilar(context.Background(), []float32{1, 2, 3, 4, 5}, 3)
		Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
	})
})

var _ = Describe("vector literals", func() {
	It("round-trips a vector through the literal form", func() {
		vec := []float32{0.25, -1.5, 3, 0.0001}
		parsed, err := parseVecLiteral(vecLiteral(vec))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(HaveLen(4))
		for i := range vec {
			Expect(parsed[i]).To(BeNumerically("~", vec[i], 1e-6))
		}
	})

	It("renders the empty vector as []", func() {
		Expect(vecLiteral(nil)).To(Equal("[]"))
	})

	It("rejects a malformed literal", func() {
		_, err := parseVecLiteral("0.1,0.2")
		Expect(err).To(HaveOccurred())
	})

	It("parses a literal with spaces", func() {
		parsed, err := parseVecLiteral("[0.1, 0.2, 0.3]")
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(HaveLen(3))
	})
})
