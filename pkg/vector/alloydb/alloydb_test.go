package alloydb

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

var _ = Describe("NewStore", func() {
	It("requires an instance URI", func() {
		_, err := NewStore(context.Background(), Config{
			User:       "lens",
			Password:   "secret",
			Database:   "embeddings",
			Dimensions: 4,
		}, zap.NewNop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("instance URI is required"))
	})
})

var _ = Describe("quoteDSNValue", func() {
	It("passes plain values through unquoted", func() {
		Expect(quoteDSNValue("lens")).To(Equal("lens"))
	})

	It("quotes the empty string", func() {
		Expect(quoteDSNValue("")).To(Equal("''"))
	})

	It("quotes values containing spaces", func() {
		Expect(quoteDSNValue("my database")).To(Equal("'my database'"))
	})

	It("escapes single quotes", func() {
		Expect(quoteDSNValue("it's")).To(Equal(`'it\'s'`))
	})

	It("escapes backslashes", func() {
		Expect(quoteDSNValue(`a\b`)).To(Equal(`'a\\b'`))
	})
})
