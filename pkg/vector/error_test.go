package vector_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lens/pkg/vector"
)

var _ = Describe("DimensionError", func() {
	It("unwraps to ErrDimensionMismatch", func() {
		err := &vector.DimensionError{Want: 512, Got: 3}
		Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
	})

	It("reports both lengths", func() {
		err := &vector.DimensionError{Want: 512, Got: 3}
		Expect(err.Error()).To(ContainSubstring("want 512"))
		Expect(err.Error()).To(ContainSubstring("got 3"))
	})

	It("survives wrapping", func() {
		err := fmt.Errorf("storing embedding: %w", &vector.DimensionError{Want: 4, Got: 2})
		Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())

		var dimErr *vector.DimensionError
		Expect(errors.As(err, &dimErr)).To(BeTrue())
		Expect(dimErr.Want).To(Equal(4))
	})
})

var _ = Describe("BatchError", func() {
	It("lists failed ids in sorted order", func() {
		err := &vector.BatchError{Failed: map[string]error{
			"zeta":  errors.New("boom"),
			"alpha": errors.New("boom"),
		}}
		Expect(err.Error()).To(ContainSubstring("2 record(s)"))
		Expect(err.Error()).To(ContainSubstring("alpha, zeta"))
	})

	It("is extractable with errors.As through wrapping", func() {
		wrapped := fmt.Errorf("bulk store: %w", &vector.BatchError{Failed: map[string]error{
			"a": errors.New("boom"),
		}})

		var batchErr *vector.BatchError
		Expect(errors.As(wrapped, &batchErr)).To(BeTrue())
		Expect(batchErr.Failed).To(HaveKey("a"))
	})
})
