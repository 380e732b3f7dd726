package http_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	adapthttp "github.com/jsamuelsen11/todo-resource-service/internal/adapters/http"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
)

func localServer(handler http.Handler) *adapthttp.Server {
	return adapthttp.NewServer(&config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}, handler, nil)
}

func waitReady(t *testing.T, s *adapthttp.Server, errCh <-chan error) {
	t.Helper()
	select {
	case <-s.Ready():
	case err := <-errCh:
		t.Fatalf("server stopped before binding: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not bind")
	}
}

func TestServer_Addr(t *testing.T) {
	t.Parallel()

	s := adapthttp.NewServer(&config.ServerConfig{Host: "127.0.0.1", Port: 9090}, http.NotFoundHandler(), nil)
	if got := s.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr() before start = %q, want 127.0.0.1:9090", got)
	}
}

func TestServer_RunServesUntilCanceled(t *testing.T) {
	t.Parallel()

	s := localServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "[]")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, 5*time.Second) }()
	waitReady(t, s, errCh)

	if s.Addr() == "127.0.0.1:0" {
		t.Fatal("Addr() still reports port 0 after binding")
	}

	resp, err := http.Get("http://" + s.Addr() + "/todos")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "[]" {
		t.Errorf("GET = %d %q, want 200 []", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServer_RunDrainsInFlightRequest(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	s := localServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, 5*time.Second) }()
	waitReady(t, s, errCh)

	status := make(chan int, 1)
	go func() {
		resp, err := http.Post("http://"+s.Addr()+"/todos/x/mark_complete", "application/json", http.NoBody)
		if err != nil {
			status <- 0
			return
		}
		_ = resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-started
	cancel()

	if got := <-status; got != http.StatusNoContent {
		t.Errorf("in-flight status = %d, want 204", got)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

func TestServer_StartAndShutdownWithoutDeadline(t *testing.T) {
	t.Parallel()

	s := localServer(http.NotFoundHandler())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	waitReady(t, s, errCh)

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Start() after shutdown = %v, want nil", err)
	}
}

func TestServer_ListenError(t *testing.T) {
	t.Parallel()

	s := adapthttp.NewServer(&config.ServerConfig{Host: "256.0.0.1", Port: 0}, http.NotFoundHandler(), nil)
	if err := s.Run(context.Background(), time.Second); err == nil {
		t.Fatal("Run() = nil, want listen error")
	}
}
