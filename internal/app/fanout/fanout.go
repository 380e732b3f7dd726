// Package fanout applies one operation to many inputs on a bounded number
// of goroutines and reports results in input order. todoctl uses it for
// "complete ID..." and "delete ID...".
package fanout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Result is the outcome for one input: Value on success, Err otherwise.
type Result[R any] struct {
	Value R
	Err   error
}

// Run calls fn for every item using at most workers goroutines (minimum
// one) and blocks until all items are accounted for. Items not yet started
// when ctx is done get ctx.Err() and fn is not called for them; calls
// already running are left to honour ctx themselves.
func Run[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	var (
		cursor atomic.Int64
		wg     sync.WaitGroup
	)
	for range min(max(workers, 1), len(items)) {
		wg.Go(func() {
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(items) {
					return
				}
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				results[i].Value, results[i].Err = fn(ctx, items[i])
			}
		})
	}
	wg.Wait()
	return results
}

// Join combines the failures in input order, or returns nil.
func Join[R any](results []Result[R]) error {
	errs := make([]error, 0, len(results))
	for _, r := range results {
		errs = append(errs, r.Err)
	}
	return errors.Join(errs...)
}

// Values returns the successful values in input order.
func Values[R any](results []Result[R]) []R {
	out := make([]R, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}
