package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/telemetry"
)

const tracerName = "github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/middleware"

// unroutedLabel stands in for the route of requests chi did not match, so
// arbitrary paths never become metric labels.
const unroutedLabel = "unmatched"

// OpenTelemetry continues any W3C trace from the request headers, opens a
// server span and records request count and duration on metrics (nil
// skips recording). Span names and the route label use the matched chi
// pattern such as /todos/{id}, never the raw path.
func OpenTelemetry(metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := otel.Tracer(tracerName).Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					telemetry.AttrHTTPMethod.String(r.Method),
					attribute.String("url.path", r.URL.Path),
				),
			)
			defer span.End()

			sr := record(w)
			next.ServeHTTP(sr, r.WithContext(ctx))

			status := sr.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := matchedRoute(r)
			if route != unroutedLabel {
				span.SetName("HTTP " + r.Method + " " + route)
			}
			span.SetAttributes(
				telemetry.AttrHTTPRoute.String(route),
				telemetry.AttrHTTPStatus.Int(status),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if metrics == nil {
				return
			}
			attrs := metric.WithAttributes(
				telemetry.AttrHTTPMethod.String(r.Method),
				telemetry.AttrHTTPRoute.String(route),
				telemetry.AttrHTTPStatus.Int(status),
				telemetry.AttrResult.String(resultLabel(status)),
			)
			metrics.ServerRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
			metrics.ServerRequestTotal.Add(ctx, 1, attrs)
		})
	}
}

func resultLabel(status int) string {
	if status >= http.StatusBadRequest {
		return "error"
	}
	return "success"
}

// matchedRoute reads the pattern chi matched once routing has run.
func matchedRoute(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unroutedLabel
}
