package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	testutils "github.com/papercomputeco/lens/pkg/utils/test"
)

var _ = Describe("Server", func() {
	var (
		server   *Server
		store    *testutils.MockVectorStore
		embedder *testutils.MockEmbedder
		blobs    *testutils.MockBlobStore
	)

	BeforeEach(func() {
		logger, _ := zap.NewDevelopment()
		store = testutils.NewMockVectorStore()
		embedder = testutils.NewMockEmbedder()
		blobs = testutils.NewMockBlobStore()
		server = NewServer(Config{ListenAddr: ":0"}, store, embedder, blobs, logger)
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("pong"))
		})
	})

	Describe("GET /status", func() {
		It("reports the live backend", func() {
			req, _ := http.NewRequest(http.MethodGet, "/status", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var status map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&status)).To(Succeed())
			Expect(status["backend"]).To(Equal("mock"))
		})
	})
})
