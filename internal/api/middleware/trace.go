package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-review/internal/api/shared"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
)

// TraceHeader carries the trace ID on responses, and on requests when an
// upstream proxy already assigned one.
const TraceHeader = "X-Trace-ID"

// NewTraceMiddleware returns middleware that gives every request a trace ID and
// a request-scoped logger carrying it. Apply it early so that every handler
// logs with the trace ID.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if incoming := r.Header.Get(TraceHeader); incoming != "" {
				ctx = shared.WithTraceID(ctx, incoming)
			} else {
				ctx = shared.SetTraceID(ctx)
			}
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithContext(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			w.Header().Set(TraceHeader, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
