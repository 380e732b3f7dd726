package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/requestid"
)

// maxIDLength caps caller-supplied request and correlation IDs.
const maxIDLength = 128

// WithRequestID stores id as the request ID of ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return requestid.With(ctx, id)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return requestid.FromContext(ctx)
}

// WithCorrelationID stores id as the correlation ID of ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return requestid.WithCorrelation(ctx, id)
}

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return requestid.CorrelationFromContext(ctx)
}

// RequestID reuses a well-formed inbound X-Request-ID or mints a UUID v4,
// stores it in the request context and echoes it on the response.
func RequestID() func(http.Handler) http.Handler {
	return propagateID(requestid.Header, WithRequestID, func(*http.Request) string {
		return uuid.NewString()
	})
}

// CorrelationID reuses a well-formed inbound X-Correlation-ID and otherwise
// falls back to the request ID, so it must be installed after RequestID.
func CorrelationID() func(http.Handler) http.Handler {
	return propagateID(requestid.CorrelationHeader, WithCorrelationID, func(r *http.Request) string {
		return RequestIDFromContext(r.Context())
	})
}

func propagateID(
	header string,
	store func(context.Context, string) context.Context,
	fallback func(*http.Request) string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(header)
			if !acceptableID(id) {
				id = fallback(r)
			}
			w.Header().Set(header, id)
			next.ServeHTTP(w, r.WithContext(store(r.Context(), id)))
		})
	}
}

// acceptableID reports whether a caller-supplied ID is safe to echo into
// headers and logs: 1 to maxIDLength bytes of visible ASCII.
func acceptableID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for i := range len(id) {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
