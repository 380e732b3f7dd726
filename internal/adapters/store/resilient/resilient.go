// Package resilient decorates a ports.TodoRepository with a per-call
// timeout, a circuit breaker, an OpenTelemetry span per call, and
// Prometheus operation metrics.
//
// Each call flows through:
//
//	Span → Circuit Breaker → Timeout → backend
//
// Breaker rejections and timeouts surface as domain.ErrUnavailable.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/telemetry"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// Compile-time interface check.
var _ ports.TodoRepository = (*Repository)(nil)

// Metric result label values.
const (
	resultSuccess     = "success"
	resultRejected    = "rejected"
	resultError       = "error"
	resultCircuitOpen = "circuit_open"
	resultTimeout     = "timeout"
)

// Repository wraps another repository.
type Repository struct {
	next    ports.TodoRepository
	breaker *gobreaker.CircuitBreaker[struct{}] // nil when disabled
	timeout time.Duration
	metrics *telemetry.StoreMetrics
	tracer  trace.Tracer
}

// New wraps next. A zero cfg.OpTimeout disables the timeout and a zero
// cfg.Breaker.MaxFailures disables the breaker. metrics may be nil.
func New(next ports.TodoRepository, cfg *config.StoreConfig, metrics *telemetry.StoreMetrics, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Repository{
		next:    next,
		timeout: cfg.OpTimeout,
		metrics: metrics,
		tracer:  otel.GetTracerProvider().Tracer("store"),
	}

	if cfg.Breaker.MaxFailures > 0 {
		r.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        next.Name(),
			MaxRequests: toUint32(cfg.Breaker.HalfOpenLimit),
			Timeout:     cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return int(counts.ConsecutiveFailures) >= cfg.Breaker.MaxFailures
			},
			IsSuccessful: isSuccessful,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		})
	}

	return r
}

// isSuccessful reports whether err says nothing about backend health.
func isSuccessful(err error) bool {
	return err == nil ||
		isClientError(err) ||
		errors.Is(err, context.Canceled)
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrConflict)
}

// Name implements ports.HealthChecker.
func (r *Repository) Name() string {
	return r.next.Name()
}

// HealthCheck fails fast while the breaker is open, then defers to the
// backend.
func (r *Repository) HealthCheck(ctx context.Context) error {
	if r.breaker != nil {
		switch state := r.breaker.State(); state {
		case gobreaker.StateClosed:
		case gobreaker.StateHalfOpen:
			return fmt.Errorf("%s: degraded (circuit breaker half-open)", r.Name())
		case gobreaker.StateOpen:
			return fmt.Errorf("%s: failing (circuit breaker open)", r.Name())
		default:
			return fmt.Errorf("%s: unknown circuit breaker state %v", r.Name(), state)
		}
	}
	return r.next.HealthCheck(ctx)
}

// List implements ports.TodoRepository.
func (r *Repository) List(ctx context.Context, filter todo.Filter) ([]todo.Item, error) {
	var items []todo.Item
	err := r.call(ctx, "list", "", func(ctx context.Context) error {
		var err error
		items, err = r.next.List(ctx, filter)
		return err
	})
	return items, err
}

// Create implements ports.TodoRepository.
func (r *Repository) Create(ctx context.Context, item *todo.Item) error {
	return r.call(ctx, "create", item.ID, func(ctx context.Context) error {
		return r.next.Create(ctx, item)
	})
}

// Get implements ports.TodoRepository.
func (r *Repository) Get(ctx context.Context, id string) (*todo.Item, error) {
	var item *todo.Item
	err := r.call(ctx, "get", id, func(ctx context.Context) error {
		var err error
		item, err = r.next.Get(ctx, id)
		return err
	})
	return item, err
}

// Mutate implements ports.TodoRepository.
func (r *Repository) Mutate(ctx context.Context, id string, fn ports.MutateFunc) (*todo.Item, error) {
	var item *todo.Item
	err := r.call(ctx, "mutate", id, func(ctx context.Context) error {
		var err error
		item, err = r.next.Mutate(ctx, id, fn)
		return err
	})
	return item, err
}

// Delete implements ports.TodoRepository.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.call(ctx, "delete", id, func(ctx context.Context) error {
		return r.next.Delete(ctx, id)
	})
}

// Close closes the wrapped repository.
func (r *Repository) Close() error {
	return r.next.Close()
}

// call runs fn through the span, breaker and timeout and records metrics.
func (r *Repository) call(ctx context.Context, op, id string, fn func(context.Context) error) error {
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.operation", op),
			attribute.String("store.backend", r.Name()),
		),
	)
	defer span.End()
	if id != "" {
		span.SetAttributes(attribute.String("todo.id", id))
	}

	err := r.execute(ctx, op, fn)

	if err != nil && !isClientError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.record(op, start, err)

	return err
}

func (r *Repository) execute(ctx context.Context, op string, fn func(context.Context) error) error {
	run := func() (struct{}, error) {
		return struct{}{}, r.withTimeout(ctx, op, fn)
	}

	if r.breaker == nil {
		_, err := run()
		return err
	}

	_, err := r.breaker.Execute(run)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s %s: %w: %w", r.Name(), op, domain.ErrUnavailable, err)
	}
	return err
}

// withTimeout bounds fn by the configured timeout. Only the timeout this
// method set is reported as ErrUnavailable; a caller's own deadline or
// cancellation propagates unchanged.
func (r *Repository) withTimeout(ctx context.Context, op string, fn func(context.Context) error) error {
	if r.timeout <= 0 {
		return fn(ctx)
	}

	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := fn(opCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%s %s timed out after %s: %w: %w", r.Name(), op, r.timeout, domain.ErrUnavailable, err)
	}
	return err
}

func (r *Repository) record(op string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}

	result := resultSuccess
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = resultCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		result = resultTimeout
	case isClientError(err):
		result = resultRejected
	default:
		result = resultError
	}

	labels := []string{op, r.Name(), result}
	r.metrics.OperationsTotal.WithLabelValues(labels...).Inc()
	r.metrics.OperationDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
}

// toUint32 clamps v into the uint32 range.
func toUint32(v int) uint32 {
	if v <= 0 {
		return 0
	}
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
