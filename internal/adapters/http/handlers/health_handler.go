package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

const (
	statusOK       = "ok"
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// defaultReadinessTimeout bounds a readiness probe when none is configured.
const defaultReadinessTimeout = 2 * time.Second

// HealthResponse is the body of both health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles liveness and readiness HTTP endpoints.
type HealthHandler struct {
	registry ports.HealthRegistry
	timeout  time.Duration
}

// NewHealthHandler creates a new HealthHandler. Readiness checks that run
// longer than timeout are cancelled; a non-positive timeout selects the
// default.
func NewHealthHandler(registry ports.HealthRegistry, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = defaultReadinessTimeout
	}
	return &HealthHandler{registry: registry, timeout: timeout}
}

// Liveness handles GET /health/live. Always returns 200 OK without touching
// the store or the event bus.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: statusOK})
}

// Readiness handles GET /health/ready. Returns 200 if every registered
// component (store, event publisher) is healthy, 503 otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := h.registry.CheckAll(ctx)

	resp := HealthResponse{
		Status: statusReady,
		Checks: make(map[string]string, len(results)),
	}
	code := http.StatusOK
	for name, err := range results {
		if err == nil {
			resp.Checks[name] = statusOK
			continue
		}
		resp.Checks[name] = err.Error()
		resp.Status = statusNotReady
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, r, code, resp)
}
