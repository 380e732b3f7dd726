// Package health provides a thread-safe health check registry for the
// components the service depends on (the to-do store and the event
// publisher). The readiness endpoint uses it to decide whether the service
// can accept traffic.
package health

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// Compile-time interface check.
var _ ports.HealthRegistry = (*Registry)(nil)

// Registry is a thread-safe implementation of [ports.HealthRegistry].
// Components that implement [ports.HealthChecker] are registered at startup
// and checked concurrently on each readiness probe.
type Registry struct {
	mu           sync.RWMutex
	checkers     []ports.HealthChecker
	checkTimeout time.Duration
}

// Option customizes a Registry.
type Option func(*Registry)

// WithCheckTimeout bounds each individual check. Zero means checks are
// bounded only by the caller's context.
func WithCheckTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.checkTimeout = d
	}
}

// New creates an empty health check registry.
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a health checker to the registry. A checker whose Name
// matches an already registered one replaces it. Safe for concurrent use.
func (r *Registry) Register(checker ports.HealthChecker) {
	name := checker.Name()

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.checkers {
		if c.Name() == name {
			r.checkers[i] = checker
			return
		}
	}
	r.checkers = append(r.checkers, checker)
}

// CheckAll runs every registered check at once and returns the outcome
// per component name; nil means healthy. Checks run without holding the
// registry lock.
func (r *Registry) CheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	checkers := slices.Clone(r.checkers)
	r.mu.RUnlock()

	errs := make([]error, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Go(func() { errs[i] = r.check(ctx, c) })
	}
	wg.Wait()

	results := make(map[string]error, len(checkers))
	for i, c := range checkers {
		results[c.Name()] = errs[i]
	}
	return results
}

// check runs c under the per-check timeout. A panicking checker is
// reported as unhealthy instead of crashing the probe.
func (r *Registry) check(ctx context.Context, c ports.HealthChecker) (err error) {
	if r.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.checkTimeout)
		defer cancel()
	}
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("health check %s panicked: %v", c.Name(), v)
		}
	}()
	return c.HealthCheck(ctx)
}
