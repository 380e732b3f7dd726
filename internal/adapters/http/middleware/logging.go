package middleware

import (
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/logging"
)

// Logging derives a request-scoped logger carrying request_id and
// correlation_id, stores it with logging.WithLogger for handlers and the
// service, and logs each request's start and outcome. The outcome entry is
// ERROR for 5xx, WARN for 4xx and INFO otherwise. At DEBUG the request
// headers are logged with credentials masked.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			reqLogger := logger.With(
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("correlation_id", CorrelationIDFromContext(ctx)),
			)
			ctx = logging.WithLogger(ctx, reqLogger)

			reqLogger.InfoContext(ctx, "request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			if reqLogger.Enabled(ctx, slog.LevelDebug) {
				reqLogger.DebugContext(ctx, "request headers", maskedHeaders(r.Header))
			}

			sr := record(w)
			next.ServeHTTP(sr, r.WithContext(ctx))

			status := sr.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reqLogger.Log(ctx, levelFor(status), "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("bytes", sr.bytes),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// maskedHeaders groups h under "headers" in name order. Credential headers
// are replaced by a fixed marker; repeated values are comma-joined.
func maskedHeaders(h http.Header) slog.Attr {
	names := slices.Sorted(maps.Keys(h))

	attrs := make([]any, 0, len(names))
	for _, name := range names {
		value := strings.Join(h[name], ",")
		if logging.IsSensitiveHeader(name) {
			value = logging.Redacted
		}
		attrs = append(attrs, slog.String(name, value))
	}
	return slog.Group("headers", attrs...)
}
