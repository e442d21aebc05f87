package fsstore_test

import (
	"context"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lens/pkg/blob"
	"github.com/papercomputeco/lens/pkg/blob/fsstore"
)

var _ = Describe("FSStore", func() {
	var (
		ctx   context.Context
		store *fsstore.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = fsstore.NewStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewStore", func() {
		It("requires a root directory", func() {
			_, err := fsstore.NewStore("")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Put and Open", func() {
		It("round-trips object content", func() {
			body := "jpeg bytes"
			err := store.Put(ctx, "images/cat.jpg", strings.NewReader(body), int64(len(body)), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())

			rc, err := store.Open(ctx, "images/cat.jpg")
			Expect(err).NotTo(HaveOccurred())
			defer rc.Close()

			got, err := io.ReadAll(rc)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(got)).To(Equal(body))
		})

		It("overwrites an existing object", func() {
			Expect(store.Put(ctx, "k", strings.NewReader("one"), 3, "")).To(Succeed())
			Expect(store.Put(ctx, "k", strings.NewReader("two"), 3, "")).To(Succeed())

			rc, err := store.Open(ctx, "k")
			Expect(err).NotTo(HaveOccurred())
			defer rc.Close()
			got, _ := io.ReadAll(rc)
			Expect(string(got)).To(Equal("two"))
		})

		It("rejects keys that escape the root", func() {
			err := store.Put(ctx, "../escape", strings.NewReader("x"), 1, "")
			Expect(err).To(HaveOccurred())

			err = store.Put(ctx, "/etc/passwd", strings.NewReader("x"), 1, "")
			Expect(err).To(HaveOccurred())
		})

		It("returns ErrNotFound for a missing object", func() {
			_, err := store.Open(ctx, "nope")
			Expect(err).To(MatchError(blob.ErrNotFound))
		})
	})

	Describe("Stat", func() {
		It("reports size and content type from the extension", func() {
			Expect(store.Put(ctx, "pics/dog.png", strings.NewReader("png!"), 4, "")).To(Succeed())

			info, err := store.Stat(ctx, "pics/dog.png")
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Key).To(Equal("pics/dog.png"))
			Expect(info.Size).To(Equal(int64(4)))
			Expect(info.ContentType).To(Equal("image/png"))
		})

		It("returns ErrNotFound for a missing object", func() {
			_, err := store.Stat(ctx, "missing.jpg")
			Expect(err).To(MatchError(blob.ErrNotFound))
		})
	})

	Describe("Delete", func() {
		It("removes an object", func() {
			Expect(store.Put(ctx, "gone", strings.NewReader("x"), 1, "")).To(Succeed())
			Expect(store.Delete(ctx, "gone")).To(Succeed())

			_, err := store.Open(ctx, "gone")
			Expect(err).To(MatchError(blob.ErrNotFound))
		})

		It("tolerates a missing object", func() {
			Expect(store.Delete(ctx, "never-existed")).To(Succeed())
		})
	})

	Describe("PresignedURL", func() {
		It("is unsupported", func() {
			_, err := store.PresignedURL(ctx, "k", time.Minute)
			Expect(err).To(HaveOccurred())
		})
	})
})
