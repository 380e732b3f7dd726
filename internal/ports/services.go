package ports

import (
	"context"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
)

// TodoService defines the service port for the to-do item resource.
// Implemented by the application layer; called by inbound adapters (handlers).
type TodoService interface {
	// List returns all items matching filter, newest first.
	// Pass a zero-value Filter to list everything.
	List(ctx context.Context, filter todo.Filter) ([]todo.Item, error)

	// Create persists a new item and returns it with server-assigned fields
	// (ID, timestamps). Client-supplied ID and timestamps are ignored.
	// Returns domain.ErrValidation if the title is blank.
	Create(ctx context.Context, item *todo.Item) (*todo.Item, error)

	// Get returns the last persisted state of a single item.
	// Returns domain.ErrNotFound if the item does not exist.
	Get(ctx context.Context, id string) (*todo.Item, error)

	// Replace overwrites every client-settable field of an existing item.
	// Returns domain.ErrNotFound or domain.ErrValidation.
	Replace(ctx context.Context, id string, item *todo.Item) (*todo.Item, error)

	// Update applies a partial update; unset patch fields keep their values.
	// Returns domain.ErrNotFound or domain.ErrValidation.
	Update(ctx context.Context, id string, patch todo.Patch) (*todo.Item, error)

	// Delete removes an item.
	// Returns domain.ErrNotFound if the item does not exist.
	Delete(ctx context.Context, id string) error

	// MarkComplete forces Completed to true and advances UpdatedAt, even
	// when the item is already complete.
	// Returns domain.ErrNotFound if the item does not exist.
	MarkComplete(ctx context.Context, id string) (*todo.Item, error)
}
