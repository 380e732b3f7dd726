package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/requestid"
)

var uuidV4 = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

type seenIDs struct {
	request, correlation, stored string
}

// serveIDs runs a request with the given headers through RequestID and
// CorrelationID and reports what the handler saw.
func serveIDs(t *testing.T, headers map[string]string) (seenIDs, http.Header) {
	t.Helper()

	var seen seenIDs
	h := middleware.RequestID()(middleware.CorrelationID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen.request = middleware.RequestIDFromContext(r.Context())
		seen.correlation = middleware.CorrelationIDFromContext(r.Context())
		seen.stored = requestid.CorrelationFromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/todos", http.NoBody)
	for k, v := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = []string{v}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec.Header()
}

func TestIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		headers         map[string]string
		wantRequest     string // "" means a fresh UUID
		wantCorrelation string // "" means equal to the request ID
	}{
		{
			name: "both minted",
		},
		{
			name:        "inbound request id reused",
			headers:     map[string]string{"X-Request-ID": "req-1"},
			wantRequest: "req-1",
		},
		{
			name:            "inbound correlation id reused",
			headers:         map[string]string{"X-Request-ID": "req-1", "X-Correlation-ID": "corr-1"},
			wantRequest:     "req-1",
			wantCorrelation: "corr-1",
		},
		{
			name:        "oversized correlation id falls back",
			headers:     map[string]string{"X-Request-ID": "req-1", "X-Correlation-ID": strings.Repeat("x", 129)},
			wantRequest: "req-1",
		},
		{name: "request id with space", headers: map[string]string{"X-Request-ID": "abc def"}},
		{name: "request id with control char", headers: map[string]string{"X-Request-ID": "abc\x01"}},
		{name: "request id non-ascii", headers: map[string]string{"X-Request-ID": "idé"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			seen, hdr := serveIDs(t, tt.headers)

			if tt.wantRequest == "" {
				if !uuidV4.MatchString(seen.request) {
					t.Errorf("request id = %q, want fresh UUID v4", seen.request)
				}
			} else if seen.request != tt.wantRequest {
				t.Errorf("request id = %q, want %q", seen.request, tt.wantRequest)
			}

			wantCorr := tt.wantCorrelation
			if wantCorr == "" {
				wantCorr = seen.request
			}
			if seen.correlation != wantCorr {
				t.Errorf("correlation id = %q, want %q", seen.correlation, wantCorr)
			}
			if seen.stored != seen.correlation {
				t.Errorf("requestid correlation = %q, want %q", seen.stored, seen.correlation)
			}

			if got := hdr.Get("X-Request-ID"); got != seen.request {
				t.Errorf("X-Request-ID header = %q, want %q", got, seen.request)
			}
			if got := hdr.Get("X-Correlation-ID"); got != seen.correlation {
				t.Errorf("X-Correlation-ID header = %q, want %q", got, seen.correlation)
			}
		})
	}
}

func TestRequestID_Unique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for range 50 {
		ids, _ := serveIDs(t, nil)
		if seen[ids.request] {
			t.Fatalf("request id %q minted twice", ids.request)
		}
		seen[ids.request] = true
	}
}

func TestIDsFromBareContext(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	if got := middleware.RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext = %q, want empty", got)
	}
	if got := middleware.CorrelationIDFromContext(middleware.WithCorrelationID(ctx, "c")); got != "c" {
		t.Errorf("CorrelationIDFromContext = %q, want %q", got, "c")
	}
}
