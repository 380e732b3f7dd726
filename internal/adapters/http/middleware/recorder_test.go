package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusRecorder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		handle        func(w http.ResponseWriter)
		wantStatus    int
		wantBytes     int64
		wantCommitted bool
	}{
		{
			name:   "nothing written",
			handle: func(http.ResponseWriter) {},
		},
		{
			name:          "explicit status",
			handle:        func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) },
			wantStatus:    http.StatusNoContent,
			wantCommitted: true,
		},
		{
			name: "implicit 200 on write",
			handle: func(w http.ResponseWriter) {
				_, _ = w.Write([]byte("[]"))
				_, _ = w.Write([]byte("\n"))
			},
			wantStatus:    http.StatusOK,
			wantBytes:     3,
			wantCommitted: true,
		},
		{
			name: "second WriteHeader ignored",
			handle: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusCreated)
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus:    http.StatusCreated,
			wantCommitted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			sr := record(rec)
			tt.handle(sr)

			if sr.Status() != tt.wantStatus {
				t.Errorf("Status() = %d, want %d", sr.Status(), tt.wantStatus)
			}
			if sr.bytes != tt.wantBytes {
				t.Errorf("bytes = %d, want %d", sr.bytes, tt.wantBytes)
			}
			if sr.Committed() != tt.wantCommitted {
				t.Errorf("Committed() = %v, want %v", sr.Committed(), tt.wantCommitted)
			}
			if tt.wantCommitted && rec.Code != tt.wantStatus {
				t.Errorf("underlying Code = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	if got := record(rec).Unwrap(); got != rec {
		t.Errorf("Unwrap() = %v, want the wrapped recorder", got)
	}
	if err := http.NewResponseController(record(rec)).Flush(); err != nil {
		t.Errorf("Flush through recorder = %v", err)
	}
}
