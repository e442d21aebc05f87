package vectorutils_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/vector/sqlitevec"
	vectorutils "github.com/papercomputeco/lens/pkg/vector/utils"
)

var _ = Describe("NewStore", func() {
	It("rejects an unknown provider", func() {
		_, err := vectorutils.NewStore(context.Background(), &vectorutils.NewStoreOpts{
			Provider:   "cassandra",
			Dimensions: 4,
			Logger:     zap.NewNop(),
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unsupported vector store provider"))
	})

	It("constructs a sqlite store", func() {
		store, err := vectorutils.NewStore(context.Background(), &vectorutils.NewStoreOpts{
			Provider:   "sqlite",
			Dimensions: 4,
			SQLite:     sqlitevec.Config{DBPath: ":memory:"},
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Name()).To(Equal("sqlite"))
		Expect(store.Close()).To(Succeed())
	})

	It("propagates backend validation errors", func() {
		_, err := vectorutils.NewStore(context.Background(), &vectorutils.NewStoreOpts{
			Provider:   "postgres",
			Dimensions: 4,
			Logger:     zap.NewNop(),
		})
		Expect(err).To(HaveOccurred())
	})
})
