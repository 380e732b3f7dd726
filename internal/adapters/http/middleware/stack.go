// Package middleware holds the inbound HTTP pipeline of the to-do API.
//
// Default assembles it in this order, outermost first:
//
//	RequestID → CorrelationID → OpenTelemetry → Logging → Recovery → Timeout → router
//
// Recovery sits inside Logging so a recovered panic is logged with the
// request-scoped logger and the completion entry reports the 500. Timeout
// sits innermost so the deadline covers only handler and store work.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/telemetry"
)

// Options configures Default. Metrics may be nil.
type Options struct {
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
	Timeout time.Duration
}

// Default returns the standard pipeline, ready to pass to NewRouter.
func Default(o Options) []func(http.Handler) http.Handler {
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return []func(http.Handler) http.Handler{
		RequestID(),
		CorrelationID(),
		OpenTelemetry(o.Metrics),
		Logging(logger),
		Recovery(logger),
		Timeout(o.Timeout),
	}
}
