// Package httpclient is the outbound HTTP client todoctl uses to reach a
// running to-do service. A call goes through, in order:
//
//	circuit breaker → rate limiter → ID headers → client span → retries → transport
//
// Only idempotent calls are retried. GET, HEAD, OPTIONS, PUT and DELETE
// qualify by method; a POST or PATCH qualifies when its context is marked
// with [WithIdempotent]:
//
//	c := httpclient.New(&cfg.Client, "todo-service", metrics, logger)
//	resp, err := c.Do(httpclient.WithIdempotent(ctx), req)
//
// Request and correlation IDs stored with package requestid travel as
// X-Request-ID and X-Correlation-ID.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/telemetry"
)

// Client sends requests to one downstream service.
type Client struct {
	http    *http.Client
	baseURL string
	peer    string
	breaker *gobreaker.CircuitBreaker[*http.Response]
	limiter *rate.Limiter // nil disables rate limiting
	retry   retryPolicy
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// New builds a Client from cfg. peer names the downstream service in spans,
// metrics and breaker logs. metrics and logger may be nil.
func New(cfg *config.ClientConfig, peer string, metrics *telemetry.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		peer:    peer,
		breaker: newBreaker(peer, cfg.CircuitBreaker, logger),
		retry: retryPolicy{
			attempts:   max(cfg.Retry.MaxAttempts, 1),
			initial:    cfg.Retry.InitialInterval,
			ceiling:    cfg.Retry.MaxInterval,
			multiplier: cfg.Retry.Multiplier,
		},
		metrics: metrics,
		logger:  logger,
	}
	if rl := cfg.RateLimit; rl.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), max(rl.BurstSize, 1))
	}
	return c
}

func newBreaker(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: clampUint32(cfg.HalfOpenLimit),
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.MaxFailures
		},
		// A caller giving up says nothing about the service's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// Do sends req.
//
// A non-nil resp always has an open body for the caller to close. When
// retries run out on a retryable status, resp and err are both non-nil.
// Breaker rejections and transport failures return a nil resp.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		forwardIDs(ctx, req)

		spanCtx, span := c.startSpan(ctx, req)
		defer span.End()

		attempts := 1
		if idempotent(ctx, req.Method) {
			attempts = c.retry.attempts
		}
		resp, err := c.send(spanCtx, req.WithContext(spanCtx), attempts)
		endSpan(span, resp, err)
		return resp, err
	})

	c.record(ctx, req.Method, time.Since(start), resp, err)
	return resp, err
}

// BaseURL is the service root requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Name is the downstream service name.
func (c *Client) Name() string {
	return c.peer
}

// HealthCheck reports the breaker state without a network call: closed is
// healthy, half-open degraded and open failing.
func (c *Client) HealthCheck(context.Context) error {
	switch state := c.breaker.State(); state {
	case gobreaker.StateClosed:
		return nil
	case gobreaker.StateHalfOpen:
		return fmt.Errorf("%s: degraded (circuit breaker half-open)", c.peer)
	case gobreaker.StateOpen:
		return fmt.Errorf("%s: failing (circuit breaker open)", c.peer)
	default:
		return fmt.Errorf("%s: circuit breaker in state %v", c.peer, state)
	}
}

func clampUint32(v int) uint32 {
	return uint32(min(max(v, 0), math.MaxUint32))
}
