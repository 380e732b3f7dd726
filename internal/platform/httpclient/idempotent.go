package httpclient

import (
	"context"
	"net/http"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/requestid"
)

type idempotentKey struct{}

// WithIdempotent declares that repeating the call made with ctx is
// harmless, so a POST or PATCH may be retried.
func WithIdempotent(ctx context.Context) context.Context {
	return context.WithValue(ctx, idempotentKey{}, true)
}

// idempotent reports whether a call may be retried: safe and idempotent
// methods always, anything else only when marked with WithIdempotent.
func idempotent(ctx context.Context, method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	marked, _ := ctx.Value(idempotentKey{}).(bool)
	return marked
}

// forwardIDs copies the request and correlation IDs of ctx onto req.
func forwardIDs(ctx context.Context, req *http.Request) {
	for name, id := range requestid.Headers(ctx) {
		req.Header.Set(name, id)
	}
}
