package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/steamlink/idgen"
	"github.com/hazyhaar/steamlink/kit"
)

// RequestID tags each request with an ID, echoes it in X-Request-ID and
// stores it under kit.RequestIDKey with a per-request logger under
// LoggerKey. An incoming X-Request-ID is kept.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" || len(id) > 64 {
				id = idgen.New()
			}
			w.Header().Set("X-Request-ID", id)

			ctx := kit.WithRequestID(r.Context(), id)
			reqLogger := logger.With("request_id", id, "method", r.Method, "path", r.URL.Path)
			ctx = context.WithValue(ctx, LoggerKey, reqLogger)
			reqLogger.Debug("shield: request")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
