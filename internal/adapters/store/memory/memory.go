// Package memory provides an in-process implementation of
// ports.TodoRepository. It backs tests, the local profile, and (through a
// Persister) the file store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// Compile-time interface check.
var _ ports.TodoRepository = (*Repository)(nil)

// Persister receives a full snapshot after every successful write. It is
// called with the repository's write lock held, so snapshots are saved in
// write order. A Save error rolls the write back.
type Persister interface {
	Save(items []todo.Item) error
	HealthCheck(ctx context.Context) error
}

// Repository is a map-backed store guarded by a single RWMutex. Mutate
// holds the write lock for the whole read-modify-write.
type Repository struct {
	mu        sync.RWMutex
	items     map[string]todo.Item
	name      string
	persister Persister
}

// Option configures a Repository.
type Option func(*Repository)

// WithPersister attaches a Persister and reports the given name in health
// checks.
func WithPersister(name string, p Persister) Option {
	return func(r *Repository) {
		r.name = name
		r.persister = p
	}
}

// WithItems seeds the repository.
func WithItems(items []todo.Item) Option {
	return func(r *Repository) {
		for i := range items {
			r.items[items[i].ID] = items[i]
		}
	}
}

// New creates an empty Repository.
func New(opts ...Option) *Repository {
	r := &Repository{
		items: make(map[string]todo.Item),
		name:  "store:memory",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements ports.HealthChecker.
func (r *Repository) Name() string {
	return r.name
}

// HealthCheck implements ports.HealthChecker.
func (r *Repository) HealthCheck(ctx context.Context) error {
	if r.persister == nil {
		return nil
	}
	return r.persister.HealthCheck(ctx)
}

// List returns matching items, newest first.
func (r *Repository) List(_ context.Context, filter todo.Filter) ([]todo.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]todo.Item, 0, len(r.items))
	for id := range r.items {
		it := r.items[id]
		if filter.Matches(&it) {
			out = append(out, it)
		}
	}
	todo.SortNewestFirst(out)
	return out, nil
}

// Create stores a new item. Returns domain.ErrConflict if the ID is taken.
func (r *Repository) Create(_ context.Context, item *todo.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; ok {
		return fmt.Errorf("todo %s: %w", item.ID, domain.ErrConflict)
	}

	r.items[item.ID] = *item
	if err := r.persist(); err != nil {
		delete(r.items, item.ID)
		return err
	}
	return nil
}

// Get returns a copy of the item.
func (r *Repository) Get(_ context.Context, id string) (*todo.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, notFound(id)
	}
	return &it, nil
}

// Mutate runs fn on a copy of the item under the write lock and stores the
// result if fn succeeds.
func (r *Repository) Mutate(_ context.Context, id string, fn ports.MutateFunc) (*todo.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.items[id]
	if !ok {
		return nil, notFound(id)
	}

	next := prev
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = prev.ID
	next.CreatedAt = prev.CreatedAt

	r.items[id] = next
	if err := r.persist(); err != nil {
		r.items[id] = prev
		return nil, err
	}

	out := next
	return &out, nil
}

// Delete removes the item.
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.items[id]
	if !ok {
		return notFound(id)
	}

	delete(r.items, id)
	if err := r.persist(); err != nil {
		r.items[id] = prev
		return err
	}
	return nil
}

// Close is a no-op.
func (r *Repository) Close() error {
	return nil
}

// persist hands a snapshot to the persister. Must be called with r.mu held.
func (r *Repository) persist() error {
	if r.persister == nil {
		return nil
	}
	snapshot := make([]todo.Item, 0, len(r.items))
	for id := range r.items {
		snapshot = append(snapshot, r.items[id])
	}
	todo.SortNewestFirst(snapshot)
	if err := r.persister.Save(snapshot); err != nil {
		return fmt.Errorf("persisting snapshot: %w", err)
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("todo %s: %w", id, domain.ErrNotFound)
}
