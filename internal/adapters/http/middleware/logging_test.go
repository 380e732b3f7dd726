package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/logging"
)

// jsonEntries runs one request through RequestID, CorrelationID and Logging
// with a JSON DEBUG logger and returns the decoded log entries.
func jsonEntries(t *testing.T, h http.HandlerFunc, req *http.Request) []map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	serve(h, req, middleware.RequestID(), middleware.CorrelationID(), middleware.Logging(logger))

	var entries []map[string]any
	for line := range strings.Lines(buf.String()) {
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func entry(t *testing.T, entries []map[string]any, msg string) map[string]any {
	t.Helper()
	for _, e := range entries {
		if e["msg"] == msg {
			return e
		}
	}
	t.Fatalf("no %q entry in %v", msg, entries)
	return nil
}

func TestLogging_CompletionEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantLevel string
		wantCode  float64
		wantBytes float64
	}{
		{
			name: "created",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"id":"1"}`))
			},
			wantLevel: "INFO",
			wantCode:  201,
			wantBytes: 10,
		},
		{
			name:      "nothing written counts as 200",
			handler:   func(http.ResponseWriter, *http.Request) {},
			wantLevel: "INFO",
			wantCode:  200,
		},
		{
			name: "validation failure",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantLevel: "WARN",
			wantCode:  400,
		},
		{
			name: "store unavailable",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantLevel: "ERROR",
			wantCode:  503,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/todos", http.NoBody)
			req.Header.Set("X-Request-ID", "req-1")
			req.Header.Set("X-Correlation-ID", "corr-1")
			done := entry(t, jsonEntries(t, tt.handler, req), "request completed")

			got := map[string]any{
				"level":          done["level"],
				"status":         done["status"],
				"bytes":          done["bytes"],
				"method":         done["method"],
				"path":           done["path"],
				"request_id":     done["request_id"],
				"correlation_id": done["correlation_id"],
			}
			want := map[string]any{
				"level":          tt.wantLevel,
				"status":         tt.wantCode,
				"bytes":          tt.wantBytes,
				"method":         "POST",
				"path":           "/todos",
				"request_id":     "req-1",
				"correlation_id": "corr-1",
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("completion entry mismatch (-want +got):\n%s", diff)
			}
			if _, ok := done["duration"]; !ok {
				t.Error("completion entry has no duration")
			}
		})
	}
}

func TestLogging_HandlersInheritRequestLogger(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/todos", http.NoBody)
	req.Header.Set("X-Request-ID", "req-ctx")
	entries := jsonEntries(t, func(_ http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).InfoContext(r.Context(), "listing todos")
	}, req)

	if got := entry(t, entries, "listing todos")["request_id"]; got != "req-ctx" {
		t.Errorf("handler entry request_id = %v, want req-ctx", got)
	}
}

func TestLogging_DebugHeadersAreMasked(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/todos", http.NoBody)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	req.Header.Set("Cookie", "session=1")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Accept", "text/plain")

	headers, ok := entry(t, jsonEntries(t, func(http.ResponseWriter, *http.Request) {}, req), "request headers")["headers"].(map[string]any)
	if !ok {
		t.Fatal("request headers entry has no headers group")
	}

	want := map[string]any{
		"Accept":        "application/json,text/plain",
		"Authorization": logging.Redacted,
		"Cookie":        logging.Redacted,
	}
	if diff := cmp.Diff(want, headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
}
