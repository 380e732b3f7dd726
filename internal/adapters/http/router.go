// Package http provides the inbound HTTP adapter including routing and server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/dto"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
)

// NewRouter creates an HTTP handler with all application routes registered.
// Middleware is applied globally in the order given, after trailing-slash
// stripping, so /todos and /todos/ address the same route. A nil metrics
// handler leaves /metrics unregistered.
func NewRouter(
	todoHandler *handlers.TodoHandler,
	healthHandler *handlers.HealthHandler,
	metrics http.Handler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.StripSlashes)
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		dto.WriteErrorResponse(w, req, domain.ErrNotFound)
	})

	// Operational endpoints.
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/todos", func(r chi.Router) {
		r.Get("/", todoHandler.List)
		r.Post("/", todoHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", todoHandler.Get)
			r.Put("/", todoHandler.Replace)
			r.Patch("/", todoHandler.Update)
			r.Delete("/", todoHandler.Delete)
			r.Post("/mark_complete", todoHandler.MarkComplete)
		})
	})

	return r
}
