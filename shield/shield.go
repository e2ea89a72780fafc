// Package shield holds the HTTP middleware in front of steamlink's local
// API: it answers only loopback clients, refuses cross-origin browser
// requests, caps bodies, tags requests with an ID and sets security
// headers.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultLocalStack(logger) {
//	    r.Use(mw)
//	}
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// GetLogger retrieves the per-request logger from the context, or
// slog.Default() if none was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// DefaultLocalStack returns the middleware stack for the loopback API.
// Order: LoopbackOnly → RejectCrossOrigin → HeadToGet → SecurityHeaders →
// MaxJSONBody → RequestID.
func DefaultLocalStack(logger *slog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		LoopbackOnly,
		RejectCrossOrigin,
		HeadToGet,
		SecurityHeaders(APIHeaders()),
		MaxJSONBody(64 << 10),
		RequestID(logger),
	}
}
