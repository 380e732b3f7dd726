// Package requestid carries the request and correlation IDs of one unit of
// work through a context. The inbound middleware stores them; the outbound
// client and the event publisher copy them onto what they send.
package requestid

import "context"

// Header names used on HTTP requests, responses and NATS messages.
const (
	Header            = "X-Request-ID"
	CorrelationHeader = "X-Correlation-ID"
)

type ctxKey int

const (
	requestKey ctxKey = iota
	correlationKey
)

// With returns ctx carrying id as its request ID.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey, id)
}

// FromContext returns the request ID of ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestKey).(string)
	return id
}

// WithCorrelation returns ctx carrying id as its correlation ID.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationFromContext returns the correlation ID of ctx, or "".
func CorrelationFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// Headers returns the non-empty IDs of ctx keyed by header name.
func Headers(ctx context.Context) map[string]string {
	h := make(map[string]string, 2)
	if id := FromContext(ctx); id != "" {
		h[Header] = id
	}
	if id := CorrelationFromContext(ctx); id != "" {
		h[CorrelationHeader] = id
	}
	return h
}
