package gemini

import (
	"net/http"
	"net/http/httptest"

	"ai-filesearch-be/internal/pkg/logger"
)

// nopLogger satisfies logger.ILogger without touching the filesystem.
type nopLogger = logger.NopLogger

func newTestClient(server *httptest.Server) *Client {
	return NewClient("test-key", nopLogger{},
		WithBaseURL(server.URL),
		WithUploadBaseURL(server.URL),
		WithModel("test-model"),
	)
}

// countingHandler wraps a handler and counts requests reaching the server.
type countingHandler struct {
	count   int
	handler http.HandlerFunc
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.count++
	if h.handler != nil {
		h.handler(w, r)
	}
}
