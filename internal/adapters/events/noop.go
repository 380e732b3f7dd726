package events

import (
	"context"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

var _ ports.EventPublisher = Noop{}

// Noop drops every event. It is wired when events are disabled.
type Noop struct{}

// Publish implements ports.EventPublisher.
func (Noop) Publish(context.Context, todo.Event) error { return nil }

// Name implements ports.HealthChecker.
func (Noop) Name() string { return "events:noop" }

// HealthCheck implements ports.HealthChecker.
func (Noop) HealthCheck(context.Context) error { return nil }

// Close implements io.Closer.
func (Noop) Close() error { return nil }
