package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	fallbackDrain     = 10 * time.Second
)

// Server is the to-do API listener with graceful shutdown.
type Server struct {
	srv    *http.Server
	logger *slog.Logger

	bound    chan struct{}
	mu       sync.Mutex
	listener net.Listener
}

// NewServer prepares a server for handler on cfg's address. Nothing is
// bound until Start or Run.
func NewServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		logger: logger,
		bound:  make(chan struct{}),
	}
}

// Run serves until ctx is done and then drains in-flight requests for at
// most drain. It returns early if the listener fails.
func (s *Server) Run(ctx context.Context, drain time.Duration) error {
	served := make(chan error, 1)
	go func() { served <- s.Start() }()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("draining HTTP server", slog.Duration("drain", drain))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drain)
	defer cancel()

	shutdownErr := s.srv.Shutdown(shutdownCtx)
	return errors.Join(<-served, shutdownErr)
}

// Start binds the address and serves until Shutdown. A graceful stop
// returns nil.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.bound)

	s.logger.Info("serving to-do API", slog.String("addr", ln.Addr().String()))
	if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.bound
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends, or ten seconds when ctx has no deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fallbackDrain)
		defer cancel()
	}
	s.logger.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}

// Addr is the bound address once listening (with the real port when 0 was
// configured) and the configured address before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.srv.Addr
	}
	return s.listener.Addr().String()
}
