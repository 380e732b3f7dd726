// Package app provides application services that orchestrate use cases by
// coordinating between domain logic and infrastructure through port interfaces.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// Compile-time check that TodoService implements ports.TodoService.
var _ ports.TodoService = (*TodoService)(nil)

// TodoService implements ports.TodoService. It owns the system-assigned
// fields (ID, timestamps), enforces the title rule, and delegates
// single-record atomicity to the repository's Mutate.
type TodoService struct {
	repo      ports.TodoRepository
	publisher ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option customizes a TodoService.
type Option func(*TodoService)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) {
		s.now = now
	}
}

// WithIDGenerator replaces the UUID v4 generator used for new item IDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *TodoService) {
		s.newID = newID
	}
}

// NewTodoService creates a TodoService. A nil publisher disables change
// events.
func NewTodoService(repo ports.TodoRepository, publisher ports.EventPublisher, logger *slog.Logger, opts ...Option) *TodoService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &TodoService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all items matching filter, newest first.
func (s *TodoService) List(ctx context.Context, filter todo.Filter) ([]todo.Item, error) {
	s.logger.DebugContext(ctx, "listing todos")

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logFailure(ctx, "List", "", err)
		return nil, err
	}
	return items, nil
}

// Create validates and stores a new item. Only Title, Description and
// Completed are taken from item.
func (s *TodoService) Create(ctx context.Context, item *todo.Item) (*todo.Item, error) {
	created := todo.Item{
		ID:          s.newID(),
		Title:       item.Title,
		Description: item.Description,
		Completed:   item.Completed,
	}
	created.Normalize()
	if err := created.Validate(); err != nil {
		return nil, err
	}
	created.Stamp(s.now())

	s.logger.InfoContext(ctx, "creating todo", slog.String("id", created.ID))

	if err := s.repo.Create(ctx, &created); err != nil {
		s.logFailure(ctx, "Create", created.ID, err)
		return nil, err
	}

	s.publish(ctx, todo.EventCreated, &created)
	return &created, nil
}

// Get returns a single item by ID.
func (s *TodoService) Get(ctx context.Context, id string) (*todo.Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logFailure(ctx, "Get", id, err)
		return nil, err
	}
	return item, nil
}

// Replace overwrites Title, Description and Completed of an existing item.
// The item is looked up before the replacement is validated, so an unknown
// id is not found whatever item holds.
func (s *TodoService) Replace(ctx context.Context, id string, item *todo.Item) (*todo.Item, error) {
	next := todo.Item{
		Title:       item.Title,
		Description: item.Description,
		Completed:   item.Completed,
	}
	next.Normalize()

	s.logger.InfoContext(ctx, "replacing todo", slog.String("id", id))

	updated, err := s.repo.Mutate(ctx, id, func(cur *todo.Item) error {
		if err := next.Validate(); err != nil {
			return err
		}
		cur.Title = next.Title
		cur.Description = next.Description
		cur.Completed = next.Completed
		cur.Touch(s.now())
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "Replace", id, err)
		return nil, err
	}

	s.publish(ctx, todo.EventUpdated, updated)
	return updated, nil
}

// Update applies a partial update. UpdatedAt advances even for an empty
// patch. As with Replace, an unknown id wins over an invalid patch.
func (s *TodoService) Update(ctx context.Context, id string, patch todo.Patch) (*todo.Item, error) {
	s.logger.InfoContext(ctx, "updating todo", slog.String("id", id))

	updated, err := s.repo.Mutate(ctx, id, func(cur *todo.Item) error {
		if err := patch.Validate(); err != nil {
			return err
		}
		patch.Apply(cur)
		if err := cur.Validate(); err != nil {
			return err
		}
		cur.Touch(s.now())
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "Update", id, err)
		return nil, err
	}

	s.publish(ctx, todo.EventUpdated, updated)
	return updated, nil
}

// Delete removes an item.
func (s *TodoService) Delete(ctx context.Context, id string) error {
	s.logger.InfoContext(ctx, "deleting todo", slog.String("id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logFailure(ctx, "Delete", id, err)
		return err
	}

	s.publish(ctx, todo.EventDeleted, &todo.Item{ID: id})
	return nil
}

// MarkComplete forces Completed to true. It never short-circuits: an
// already completed item is saved again with a fresh UpdatedAt.
func (s *TodoService) MarkComplete(ctx context.Context, id string) (*todo.Item, error) {
	s.logger.InfoContext(ctx, "marking todo complete", slog.String("id", id))

	updated, err := s.repo.Mutate(ctx, id, func(cur *todo.Item) error {
		cur.MarkComplete()
		cur.Touch(s.now())
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "MarkComplete", id, err)
		return nil, err
	}

	s.publish(ctx, todo.EventCompleted, updated)
	return updated, nil
}

// publish announces a change. Failures are logged and never returned: the
// change is already persisted.
func (s *TodoService) publish(ctx context.Context, kind todo.EventKind, item *todo.Item) {
	if s.publisher == nil {
		return
	}

	ev := todo.Event{
		Kind:       kind,
		ItemID:     item.ID,
		OccurredAt: todo.Timestamp(s.now()),
	}
	if kind != todo.EventDeleted {
		snapshot := *item
		ev.Item = &snapshot
	}

	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish todo event",
			slog.String("operation", "publish"),
			slog.String("kind", kind.String()),
			slog.String("id", item.ID),
			slog.Any("error", err),
		)
	}
}

// logFailure logs expected client errors at WARN and everything else at
// ERROR.
func (s *TodoService) logFailure(ctx context.Context, operation, id string, err error) {
	attrs := []any{
		slog.String("operation", operation),
		slog.Any("error", err),
	}
	if id != "" {
		attrs = append(attrs, slog.String("id", id))
	}

	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		s.logger.WarnContext(ctx, "todo operation rejected", attrs...)
		return
	}
	s.logger.ErrorContext(ctx, "todo operation failed", attrs...)
}
