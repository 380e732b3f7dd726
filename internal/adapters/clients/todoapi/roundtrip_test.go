package todoapi_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/clients/todoapi"
	adapthttp "github.com/jsamuelsen11/todo-resource-service/internal/adapters/http"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store/memory"
	"github.com/jsamuelsen11/todo-resource-service/internal/app"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/health"
)

func newLiveClient(t *testing.T) *todoapi.Client {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	repo := memory.New()
	registry := health.New()
	registry.Register(repo)

	srv := httptest.NewServer(adapthttp.NewRouter(
		handlers.NewTodoHandler(app.NewTodoService(repo, nil, logger)),
		handlers.NewHealthHandler(registry, time.Second),
		nil,
		middleware.RequestID(),
		middleware.Recovery(logger),
	))
	t.Cleanup(srv.Close)

	return newClient(t, srv.URL, 2)
}

func TestRoundTrip_BuyMilk(t *testing.T) {
	t.Parallel()

	client := newLiveClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, &todo.Item{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Completed || created.Title != "Buy milk" {
		t.Fatalf("Create() = %+v, want open item titled Buy milk", created)
	}

	done, err := client.MarkComplete(ctx, created.ID)
	if err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}
	if !done.Completed {
		t.Fatal("MarkComplete() completed = false, want true")
	}

	got, err := client.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Completed {
		t.Error("Get() completed = false, want true")
	}
	if !got.CreatedAt.Equal(created.CreatedAt) || !got.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("timestamps: created %v -> %v, updated %v -> %v", created.CreatedAt, got.CreatedAt, created.UpdatedAt, got.UpdatedAt)
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := client.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestRoundTrip_UpdateReplaceAndList(t *testing.T) {
	t.Parallel()

	client := newLiveClient(t)
	ctx := context.Background()

	a, err := client.Create(ctx, &todo.Item{Title: "a", Description: "first"})
	if err != nil {
		t.Fatalf("Create(a) error = %v", err)
	}
	b, err := client.Create(ctx, &todo.Item{Title: "b"})
	if err != nil {
		t.Fatalf("Create(b) error = %v", err)
	}

	title := "  renamed  "
	patched, err := client.Update(ctx, a.ID, todo.Patch{Title: &title})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if patched.Title != "renamed" || patched.Description != "first" {
		t.Errorf("Update() = %+v, want trimmed title and kept description", patched)
	}

	replaced, err := client.Replace(ctx, b.ID, &todo.Item{Title: "b2", Completed: true})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if replaced.Title != "b2" || !replaced.Completed {
		t.Errorf("Replace() = %+v, want b2 completed", replaced)
	}

	yes := true
	items, err := client.List(ctx, todo.Filter{Completed: &yes})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != b.ID {
		t.Errorf("List(completed=true) = %+v, want only %s", items, b.ID)
	}

	_, err = client.Update(ctx, a.ID, todo.Patch{Title: new(string)})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Update(blank title) error = %v, want *ValidationError", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Errorf("Fields = %v, want key title", verr.Fields)
	}

	if _, err := client.Get(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(not-a-uuid) error = %v, want ErrNotFound", err)
	}
}
