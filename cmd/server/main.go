// Package main is the entry point for the to-do service. It wires all
// dependencies using samber/do v2, starts the HTTP server, and handles
// graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"
	flag "github.com/spf13/pflag"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/events"
	adapthttp "github.com/jsamuelsen11/todo-resource-service/internal/adapters/http"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store"
	"github.com/jsamuelsen11/todo-resource-service/internal/app"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/health"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/logging"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/telemetry"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

const (
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
	storeOpenTimeout      = 30 * time.Second
	healthCheckTimeout    = time.Second
	readinessTimeout      = 2 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("todo-server", flag.ContinueOnError)
	profile := fs.String("profile", "", "config profile (falls back to $APP_PROFILE, then local)")
	configDir := fs.String("config-dir", "configs", "directory holding base.yaml and <profile>.yaml")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(config.ResolveProfile(*profile), config.WithConfigDir(*configDir))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := telemetry.Init(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	promRegistry, storeMetrics := telemetry.NewRegistry()

	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.Metrics)
	do.ProvideValue(injector, promRegistry)
	do.ProvideValue(injector, storeMetrics)

	var opened closers
	registerDependencies(injector, cfg, logger, &opened)

	// Resolving the server wires the full graph, opening the store and the
	// event publisher.
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		opened.closeAll(logger)
		_ = otel.Shutdown(ctx)
		return fmt.Errorf("resolving server: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := server.Run(sigCtx, serverShutdownTimeout)

	// In-flight requests are drained, so the store and publisher can go.
	opened.closeAll(logger)

	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	if runErr != nil {
		return fmt.Errorf("server failed: %w", runErr)
	}
	logger.Info("shutdown complete")
	return nil
}

// publisher is what the service needs from the event backend: publishing,
// a readiness probe and a close on shutdown.
type publisher interface {
	ports.EventPublisher
	ports.HealthChecker
	io.Closer
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger, opened *closers) {
	do.Provide(injector, func(i do.Injector) (ports.TodoRepository, error) {
		metrics := do.MustInvoke[*telemetry.StoreMetrics](i)

		ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
		defer cancel()
		repo, err := store.Open(ctx, &cfg.Store, metrics, logger)
		if err != nil {
			return nil, err
		}
		opened.add(repo.Name(), repo.Close)
		return repo, nil
	})

	do.Provide(injector, func(_ do.Injector) (publisher, error) {
		if !cfg.Events.Enabled {
			return events.Noop{}, nil
		}
		pub, err := events.NewNATSPublisher(&cfg.Events, logger)
		if err != nil {
			return nil, err
		}
		opened.add(pub.Name(), pub.Close)
		return pub, nil
	})

	do.Provide(injector, func(i do.Injector) (ports.TodoService, error) {
		repo := do.MustInvoke[ports.TodoRepository](i)
		pub := do.MustInvoke[publisher](i)
		return app.NewTodoService(repo, pub, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.HealthRegistry, error) {
		registry := health.New(health.WithCheckTimeout(healthCheckTimeout))
		registry.Register(do.MustInvoke[ports.TodoRepository](i))
		registry.Register(do.MustInvoke[publisher](i))
		return registry, nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.TodoHandler, error) {
		return handlers.NewTodoHandler(do.MustInvoke[ports.TodoService](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		return handlers.NewHealthHandler(do.MustInvoke[ports.HealthRegistry](i), readinessTimeout), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		todoH := do.MustInvoke[*handlers.TodoHandler](i)
		healthH := do.MustInvoke[*handlers.HealthHandler](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		reg := do.MustInvoke[*prometheus.Registry](i)

		return adapthttp.NewRouter(todoH, healthH,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			middleware.Default(middleware.Options{
				Logger:  logger,
				Metrics: metrics,
				Timeout: cfg.Server.RequestTimeout,
			})...,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		return adapthttp.NewServer(&cfg.Server, do.MustInvoke[nethttp.Handler](i), logger), nil
	})
}

// closers records resources opened while the graph resolves so shutdown
// releases exactly those, last opened first.
type closers struct {
	names []string
	fns   []func() error
}

func (c *closers) add(name string, fn func() error) {
	c.names = append(c.names, name)
	c.fns = append(c.fns, fn)
}

func (c *closers) closeAll(logger *slog.Logger) {
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil {
			logger.Error("close error", slog.String("resource", c.names[i]), slog.Any("error", err))
		}
	}
	c.names, c.fns = nil, nil
}
