package store_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store/storetest"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/telemetry"
)

func TestOpen_Drivers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name     string
		cfg      config.StoreConfig
		wantName string
	}{
		{"memory", config.StoreConfig{Driver: config.DriverMemory}, "store:memory"},
		{"file", config.StoreConfig{Driver: config.DriverFile, Path: filepath.Join(dir, "todos.json")}, "store:file"},
		{"sqlite", config.StoreConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "todos.db")}, "store:sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			metrics := telemetry.NewStoreMetrics(prometheus.NewRegistry())
			repo, err := store.Open(context.Background(), &tt.cfg, metrics, slog.New(slog.DiscardHandler))
			if err != nil {
				t.Fatalf("Open error: %v", err)
			}
			t.Cleanup(func() { _ = repo.Close() })

			if repo.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", repo.Name(), tt.wantName)
			}

			it := storetest.Item("x", 0)
			if err := repo.Create(context.Background(), &it); err != nil {
				t.Fatalf("Create error: %v", err)
			}
			got, err := repo.List(context.Background(), todo.Filter{})
			if err != nil || len(got) != 1 {
				t.Errorf("List = %v, %v; want one item", got, err)
			}
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := config.StoreConfig{Driver: "mongo"}
	if _, err := store.Open(context.Background(), &cfg, nil, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatal("Open() = nil error, want unknown driver error")
	}
}
