// Package storetest holds the behavioural test suite shared by every
// ports.TodoRepository implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// Factory returns a fresh, empty repository. The factory is responsible for
// registering cleanup.
type Factory func(t *testing.T) ports.TodoRepository

var baseTime = time.Date(2026, 2, 12, 15, 4, 5, 123456000, time.UTC)

// Item builds a stored-shape item with the given ID created offset seconds
// after a fixed base time.
func Item(id string, offset int) todo.Item {
	ts := baseTime.Add(time.Duration(offset) * time.Second)
	return todo.Item{
		ID:          id,
		Title:       "title " + id,
		Description: "description " + id,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// Run executes the suite against repositories produced by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	t.Run("CreateThenGet", func(t *testing.T) { testCreateThenGet(t, newRepo(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newRepo(t)) })
	t.Run("ListOrder", func(t *testing.T) { testListOrder(t, newRepo(t)) })
	t.Run("ListFilter", func(t *testing.T) { testListFilter(t, newRepo(t)) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, newRepo(t)) })
	t.Run("Mutate", func(t *testing.T) { testMutate(t, newRepo(t)) })
	t.Run("MutateKeepsSystemFields", func(t *testing.T) { testMutateKeepsSystemFields(t, newRepo(t)) })
	t.Run("MutateAbort", func(t *testing.T) { testMutateAbort(t, newRepo(t)) })
	t.Run("MutateMissing", func(t *testing.T) { testMutateMissing(t, newRepo(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newRepo(t)) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, newRepo(t)) })
	t.Run("ConcurrentMutate", func(t *testing.T) { testConcurrentMutate(t, newRepo(t)) })
	t.Run("HealthCheck", func(t *testing.T) { testHealthCheck(t, newRepo(t)) })
}

func mustCreate(t *testing.T, repo ports.TodoRepository, items ...todo.Item) {
	t.Helper()
	for i := range items {
		if err := repo.Create(context.Background(), &items[i]); err != nil {
			t.Fatalf("Create(%s) error: %v", items[i].ID, err)
		}
	}
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func ids(items []todo.Item) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}

func testCreateThenGet(t *testing.T, repo ports.TodoRepository) {
	want := Item("a1", 0)
	want.Completed = true
	mustCreate(t, repo, want)

	got, err := repo.Get(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
}

func testGetMissing(t *testing.T, repo ports.TodoRepository) {
	_, err := repo.Get(context.Background(), "missing")
	requireNotFound(t, err)
}

func testListOrder(t *testing.T, repo ports.TodoRepository) {
	mustCreate(t, repo,
		Item("a", 0),
		Item("c", 20),
		Item("b", 10),
		Item("e", 0),
		Item("d", 0),
	)

	for range 2 {
		got, err := repo.List(context.Background(), todo.Filter{})
		if err != nil {
			t.Fatalf("List error: %v", err)
		}
		want := []string{"c", "b", "e", "d", "a"}
		if diff := cmp.Diff(want, ids(got)); diff != "" {
			t.Errorf("List order mismatch (-want +got):\n%s", diff)
		}
	}
}

func testListFilter(t *testing.T, repo ports.TodoRepository) {
	done := Item("done", 1)
	done.Completed = true
	mustCreate(t, repo, Item("open", 0), done)

	yes, no := true, false

	got, err := repo.List(context.Background(), todo.Filter{Completed: &yes})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if diff := cmp.Diff([]string{"done"}, ids(got)); diff != "" {
		t.Errorf("completed=true mismatch (-want +got):\n%s", diff)
	}

	got, err = repo.List(context.Background(), todo.Filter{Completed: &no})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if diff := cmp.Diff([]string{"open"}, ids(got)); diff != "" {
		t.Errorf("completed=false mismatch (-want +got):\n%s", diff)
	}
}

func testListEmpty(t *testing.T, repo ports.TodoRepository) {
	got, err := repo.List(context.Background(), todo.Filter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List = %#v, want empty non-nil slice", got)
	}
}

func testMutate(t *testing.T, repo ports.TodoRepository) {
	mustCreate(t, repo, Item("m", 0))

	later := baseTime.Add(time.Minute)
	got, err := repo.Mutate(context.Background(), "m", func(it *todo.Item) error {
		it.Title = "changed"
		it.Description = ""
		it.Completed = true
		it.UpdatedAt = later
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate error: %v", err)
	}

	want := Item("m", 0)
	want.Title = "changed"
	want.Description = ""
	want.Completed = true
	want.UpdatedAt = later

	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("Mutate result mismatch (-want +got):\n%s", diff)
	}

	stored, err := repo.Get(context.Background(), "m")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if diff := cmp.Diff(want, *stored); diff != "" {
		t.Errorf("stored mismatch (-want +got):\n%s", diff)
	}
}

func testMutateKeepsSystemFields(t *testing.T, repo ports.TodoRepository) {
	mustCreate(t, repo, Item("k", 0))

	got, err := repo.Mutate(context.Background(), "k", func(it *todo.Item) error {
		it.ID = "hijacked"
		it.CreatedAt = baseTime.Add(-time.Hour)
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate error: %v", err)
	}
	if got.ID != "k" {
		t.Errorf("ID = %q, want %q", got.ID, "k")
	}
	if !got.CreatedAt.Equal(baseTime) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, baseTime)
	}
	if _, err := repo.Get(context.Background(), "hijacked"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(hijacked) error = %v, want ErrNotFound", err)
	}
}

func testMutateAbort(t *testing.T, repo ports.TodoRepository) {
	original := Item("x", 0)
	mustCreate(t, repo, original)

	abort := errors.New("abort")
	_, err := repo.Mutate(context.Background(), "x", func(it *todo.Item) error {
		it.Title = "should not persist"
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("Mutate error = %v, want abort", err)
	}

	stored, err := repo.Get(context.Background(), "x")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if diff := cmp.Diff(original, *stored); diff != "" {
		t.Errorf("stored changed after abort (-want +got):\n%s", diff)
	}
}

func testMutateMissing(t *testing.T, repo ports.TodoRepository) {
	called := false
	_, err := repo.Mutate(context.Background(), "missing", func(*todo.Item) error {
		called = true
		return nil
	})
	requireNotFound(t, err)
	if called {
		t.Error("mutate func called for missing item")
	}
}

func testDelete(t *testing.T, repo ports.TodoRepository) {
	mustCreate(t, repo, Item("d1", 0), Item("d2", 1))

	if err := repo.Delete(context.Background(), "d1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	_, err := repo.Get(context.Background(), "d1")
	requireNotFound(t, err)

	got, err := repo.List(context.Background(), todo.Filter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if diff := cmp.Diff([]string{"d2"}, ids(got)); diff != "" {
		t.Errorf("List after delete mismatch (-want +got):\n%s", diff)
	}
}

func testDeleteMissing(t *testing.T, repo ports.TodoRepository) {
	requireNotFound(t, repo.Delete(context.Background(), "missing"))
}

func testConcurrentMutate(t *testing.T, repo ports.TodoRepository) {
	mustCreate(t, repo, Item("c", 0))

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				_, err := repo.Mutate(context.Background(), "c", func(it *todo.Item) error {
					it.Description += "x"
					return nil
				})
				if err != nil {
					errs <- fmt.Errorf("worker %d op %d: %w", w, i, err)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Mutate: %v", err)
	}

	got, err := repo.Get(context.Background(), "c")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	wantLen := len("description c") + workers*perWorker
	if len(got.Description) != wantLen {
		t.Errorf("len(Description) = %d, want %d (lost update)", len(got.Description), wantLen)
	}
}

func testHealthCheck(t *testing.T, repo ports.TodoRepository) {
	if repo.Name() == "" {
		t.Error("Name() is empty")
	}
	if err := repo.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v, want nil", err)
	}
}
