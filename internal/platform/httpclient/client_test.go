package httpclient_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sony/gobreaker/v2"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/httpclient"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/requestid"
)

func testConfig(baseURL string) *config.ClientConfig {
	return &config.ClientConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	}
}

func newClient(t *testing.T, cfg *config.ClientConfig) *httpclient.Client {
	t.Helper()
	return httpclient.New(cfg, "todo-service", nil, slog.New(slog.DiscardHandler))
}

// send issues one call and returns the status (0 when resp is nil) and the
// response body. The body is always closed.
func send(t *testing.T, c *httpclient.Client, ctx context.Context, method, path, body string) (int, string, error) {
	t.Helper()

	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, r)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	resp, err := c.Do(ctx, req)
	if resp == nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b), err
}

// flaky serves failStatus for the first failCount calls and 200 after that.
func flaky(failStatus, failCount int, hits *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if int(hits.Add(1)) <= failCount {
			w.WriteHeader(failStatus)
			_, _ = w.Write([]byte("unavailable"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	}
}

func TestDo_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Method + " " + r.URL.Path))
	}))
	t.Cleanup(srv.Close)

	status, body, err := send(t, newClient(t, testConfig(srv.URL)), context.Background(), http.MethodGet, "/todos", "")
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if status != http.StatusOK || body != "GET /todos" {
		t.Errorf("got %d %q, want 200 %q", status, body, "GET /todos")
	}
}

func TestDo_RetryPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		idempotent bool
		failStatus int
		failCount  int
		wantHits   int32
		wantStatus int
		wantErr    bool
	}{
		{name: "GET retries 5xx until success", method: http.MethodGet, failStatus: 500, failCount: 2, wantHits: 3, wantStatus: 200},
		{name: "GET retries 429", method: http.MethodGet, failStatus: 429, failCount: 1, wantHits: 2, wantStatus: 200},
		{name: "DELETE retries 503", method: http.MethodDelete, failStatus: 503, failCount: 1, wantHits: 2, wantStatus: 200},
		{name: "GET does not retry 4xx", method: http.MethodGet, failStatus: 404, failCount: 1, wantHits: 1, wantStatus: 404},
		{name: "GET does not retry 501", method: http.MethodGet, failStatus: 501, failCount: 1, wantHits: 1, wantStatus: 501},
		{name: "GET gives up after max attempts", method: http.MethodGet, failStatus: 503, failCount: 5, wantHits: 3, wantStatus: 503, wantErr: true},
		{name: "POST is sent once", method: http.MethodPost, failStatus: 503, failCount: 1, wantHits: 1, wantStatus: 503, wantErr: true},
		{name: "PATCH is sent once", method: http.MethodPatch, failStatus: 502, failCount: 1, wantHits: 1, wantStatus: 502, wantErr: true},
		{name: "marked POST retries", method: http.MethodPost, idempotent: true, failStatus: 503, failCount: 1, wantHits: 2, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32
			srv := httptest.NewServer(flaky(tt.failStatus, tt.failCount, &hits))
			t.Cleanup(srv.Close)

			ctx := context.Background()
			if tt.idempotent {
				ctx = httpclient.WithIdempotent(ctx)
			}

			status, _, err := send(t, newClient(t, testConfig(srv.URL)), ctx, tt.method, "/todos", "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if got := hits.Load(); got != tt.wantHits {
				t.Errorf("server hits = %d, want %d", got, tt.wantHits)
			}
		})
	}
}

func TestDo_ExhaustedRetriesKeepLastBody(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(flaky(http.StatusServiceUnavailable, 10, &hits))
	t.Cleanup(srv.Close)

	_, body, err := send(t, newClient(t, testConfig(srv.URL)), context.Background(), http.MethodGet, "/todos", "")
	if err == nil {
		t.Fatal("Do() error = nil, want error after retries")
	}
	if body != "unavailable" {
		t.Errorf("body = %q, want %q", body, "unavailable")
	}
}

func TestDo_BodyReplayedAcrossRetries(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		n := len(bodies)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	ctx := httpclient.WithIdempotent(context.Background())
	if _, _, err := send(t, newClient(t, testConfig(srv.URL)), ctx, http.MethodPatch, "/todos/x", `{"completed":true}`); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{`{"completed":true}`, `{"completed":true}`}
	if diff := cmp.Diff(want, bodies); diff != "" {
		t.Errorf("bodies mismatch (-want +got):\n%s", diff)
	}
}

func TestDo_HonorsRetryAfter(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	start := time.Now()
	status, _, err := send(t, newClient(t, testConfig(srv.URL)), context.Background(), http.MethodGet, "/todos", "")
	elapsed := time.Since(start)
	if err != nil || status != http.StatusOK {
		t.Fatalf("Do() = %d, %v; want 200, nil", status, err)
	}

	// Retry-After asks for 1s, the wait is capped at MaxInterval (100ms).
	if elapsed < 90*time.Millisecond || elapsed > 900*time.Millisecond {
		t.Errorf("elapsed = %v, want the wait stretched to MaxInterval", elapsed)
	}
}

func TestDo_HeaderInjection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ctx      context.Context
		wantReq  string
		wantCorr string
	}{
		{name: "no IDs", ctx: context.Background()},
		{
			name:     "both IDs",
			ctx:      requestid.WithCorrelation(requestid.With(context.Background(), "req-123"), "corr-456"),
			wantReq:  "req-123",
			wantCorr: "corr-456",
		},
		{
			name:    "request ID only",
			ctx:     requestid.With(context.Background(), "req-only"),
			wantReq: "req-only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(r.Header.Get("X-Request-ID") + "|" + r.Header.Get("X-Correlation-ID")))
			}))
			t.Cleanup(srv.Close)

			_, body, err := send(t, newClient(t, testConfig(srv.URL)), tt.ctx, http.MethodGet, "/todos", "")
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if want := tt.wantReq + "|" + tt.wantCorr; body != want {
				t.Errorf("forwarded IDs = %q, want %q", body, want)
			}
		})
	}
}

func TestDo_CircuitBreaker(t *testing.T) {
	t.Parallel()

	var (
		hits       atomic.Int32
		shouldFail atomic.Bool
	)
	shouldFail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if shouldFail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.CircuitBreaker.MaxFailures = 1
	cfg.CircuitBreaker.Timeout = 100 * time.Millisecond
	cfg.Retry.MaxAttempts = 1
	client := newClient(t, cfg)
	ctx := context.Background()

	_, _, _ = send(t, client, ctx, http.MethodGet, "/todos", "")

	before := hits.Load()
	_, _, err := send(t, client, ctx, http.MethodGet, "/todos", "")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("error = %v, want gobreaker.ErrOpenState", err)
	}
	if hits.Load() != before {
		t.Error("server was hit while the breaker is open")
	}
	if err := client.HealthCheck(ctx); err == nil || !strings.Contains(err.Error(), "failing") {
		t.Errorf("HealthCheck() = %v, want failing", err)
	}

	time.Sleep(150 * time.Millisecond)
	if err := client.HealthCheck(ctx); err == nil || !strings.Contains(err.Error(), "degraded") {
		t.Errorf("HealthCheck() = %v, want degraded", err)
	}

	shouldFail.Store(false)
	status, _, err := send(t, client, ctx, http.MethodGet, "/todos", "")
	if err != nil || status != http.StatusOK {
		t.Fatalf("probe = %d, %v; want 200, nil", status, err)
	}
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() after recovery = %v, want nil", err)
	}
}

func TestDo_CancellationDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.CircuitBreaker.MaxFailures = 1
	client := newClient(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := send(t, client, ctx, http.MethodGet, "/todos", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v, want nil after a canceled call", err)
	}
	if status, _, err := send(t, client, context.Background(), http.MethodGet, "/todos", ""); err != nil || status != http.StatusOK {
		t.Errorf("follow-up = %d, %v; want 200, nil", status, err)
	}
}

func TestClient_Accessors(t *testing.T) {
	t.Parallel()

	client := newClient(t, testConfig("http://localhost:8080"))

	if got := client.Name(); got != "todo-service" {
		t.Errorf("Name() = %q, want %q", got, "todo-service")
	}
	if got := client.BaseURL(); got != "http://localhost:8080" {
		t.Errorf("BaseURL() = %q, want %q", got, "http://localhost:8080")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() on a fresh client = %v, want nil", err)
	}
}

func TestNew_ZeroAttemptsStillSendsOnce(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(flaky(http.StatusInternalServerError, 5, &hits))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.Retry.MaxAttempts = 0

	_, _, _ = send(t, newClient(t, cfg), context.Background(), http.MethodGet, "/todos", "")
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}
