package seedcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	testutils "github.com/papercomputeco/lens/pkg/utils/test"
)

// manifest builds a JSONL manifest body for the given number of records.
func manifest(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		line, _ := json.Marshal(manifestLine{
			ID:        fmt.Sprintf("img-%03d", i),
			Embedding: []float32{0.1, 0.2, 0.3},
			Metadata:  map[string]any{"filename": fmt.Sprintf("img-%03d.jpg", i)},
		})
		sb.Write(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

var _ = Describe("seedManifest", func() {
	var (
		ctx   context.Context
		store *testutils.MockVectorStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = testutils.NewMockVectorStore()
	})

	It("stores every record from the manifest", func() {
		stored, failed, err := seedManifest(ctx, store, strings.NewReader(manifest(7)))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(Equal(7))
		Expect(failed).To(BeZero())
		Expect(store.Vectors).To(HaveLen(7))
		Expect(store.Metadata["img-003"]).To(HaveKeyWithValue("filename", "img-003.jpg"))
	})

	It("flushes in batches when the manifest exceeds the batch size", func() {
		stored, failed, err := seedManifest(ctx, store, strings.NewReader(manifest(batchSize+37)))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(Equal(batchSize + 37))
		Expect(failed).To(BeZero())
		Expect(store.Vectors).To(HaveLen(batchSize + 37))
	})

	It("counts per-id failures without aborting", func() {
		store.FailOnID = "img-002"

		stored, failed, err := seedManifest(ctx, store, strings.NewReader(manifest(5)))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(Equal(4))
		Expect(failed).To(Equal(1))
		Expect(store.Vectors).NotTo(HaveKey("img-002"))
		Expect(store.Vectors).To(HaveKey("img-004"))
	})

	It("skips blank lines", func() {
		body := manifest(2) + "\n\n" + manifest(1)
		stored, _, err := seedManifest(ctx, store, strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		// The third chunk reuses img-000, so only two distinct ids remain.
		Expect(stored).To(Equal(3))
		Expect(store.Vectors).To(HaveLen(2))
	})

	It("rejects malformed JSON with the line number", func() {
		body := manifest(1) + "{not json}\n"
		_, _, err := seedManifest(ctx, store, strings.NewReader(body))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("line 2"))
	})

	It("rejects records without an id", func() {
		body := `{"embedding": [0.1]}` + "\n"
		_, _, err := seedManifest(ctx, store, strings.NewReader(body))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("id is required"))
	})

	It("aborts on non-batch store errors", func() {
		store.FailStore = true
		_, _, err := seedManifest(ctx, store, strings.NewReader(manifest(3)))
		Expect(err).To(HaveOccurred())
	})

	It("handles an empty manifest", func() {
		stored, failed, err := seedManifest(ctx, store, strings.NewReader(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(BeZero())
		Expect(failed).To(BeZero())
	})
})
