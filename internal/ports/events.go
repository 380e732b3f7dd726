package ports

import (
	"context"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
)

// EventPublisher announces successful changes to items. Implementations
// must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event todo.Event) error
}
