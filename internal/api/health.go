package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-review/internal/platform/logger"
)

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		logger.FromContext(r.Context()).Error("failed to write health check response",
			slog.String("error", err.Error()))
	}
}
