// Package store opens the configured todo repository backend and wraps it
// with the resilient decorator.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store/file"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store/memory"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store/postgres"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store/resilient"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store/sqlite"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/telemetry"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// Open creates the backend named by cfg.Driver. The caller owns the
// returned repository and must Close it.
func Open(ctx context.Context, cfg *config.StoreConfig, metrics *telemetry.StoreMetrics, logger *slog.Logger) (ports.TodoRepository, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("todo store opened",
		slog.String("driver", cfg.Driver),
		slog.String("backend", backend.Name()),
		slog.Duration("op_timeout", cfg.OpTimeout),
	)

	return resilient.New(backend, cfg, metrics, logger), nil
}

func openBackend(ctx context.Context, cfg *config.StoreConfig) (ports.TodoRepository, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverFile:
		repo, err := file.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening file store: %w", err)
		}
		return repo, nil
	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return repo, nil
	case config.DriverPostgres:
		repo, err := postgres.Open(ctx, cfg.DSN, toInt32(cfg.MaxConns))
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func toInt32(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}
