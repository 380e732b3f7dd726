package ports

import (
	"context"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
)

// MutateFunc changes an item in place. Returning an error aborts the
// mutation without writing.
type MutateFunc func(item *todo.Item) error

// TodoRepository is the persistence port for to-do items. Implemented by
// the store adapters; called by the application layer.
//
// Every implementation is also a HealthChecker.
type TodoRepository interface {
	HealthChecker

	// List returns items matching filter ordered by CreatedAt descending,
	// ties broken by ID descending.
	List(ctx context.Context, filter todo.Filter) ([]todo.Item, error)

	// Create stores a new item. The item's ID must already be assigned.
	Create(ctx context.Context, item *todo.Item) error

	// Get returns a copy of a stored item.
	// Returns domain.ErrNotFound if the item does not exist.
	Get(ctx context.Context, id string) (*todo.Item, error)

	// Mutate atomically reads the item, passes it to fn, and writes the
	// result back. No other Mutate or Delete on the same item interleaves.
	// Returns domain.ErrNotFound if the item does not exist.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*todo.Item, error)

	// Delete removes an item.
	// Returns domain.ErrNotFound if the item does not exist.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying storage resources.
	Close() error
}
