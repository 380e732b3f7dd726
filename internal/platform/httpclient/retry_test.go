package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestBackoff_Bounds(t *testing.T) {
	t.Parallel()

	p := retryPolicy{
		initial:    100 * time.Millisecond,
		ceiling:    500 * time.Millisecond,
		multiplier: 2.0,
	}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{attempt: 1, base: 100 * time.Millisecond},
		{attempt: 2, base: 200 * time.Millisecond},
		{attempt: 3, base: 400 * time.Millisecond},
		{attempt: 4, base: 500 * time.Millisecond},
		{attempt: 10, base: 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			t.Parallel()

			lo := time.Duration(float64(tt.base) * (1 - jitter))
			hi := time.Duration(float64(tt.base) * (1 + jitter))
			for range 100 {
				if d := p.backoff(tt.attempt); d < lo || d > hi {
					t.Fatalf("backoff(%d) = %v, want within [%v, %v]", tt.attempt, d, lo, hi)
				}
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "absent", value: "", want: 0},
		{name: "seconds", value: "3", want: 3 * time.Second},
		{name: "negative clamps to zero", value: "-5", want: 0},
		{name: "past date", value: "Mon, 02 Jan 2006 15:04:05 GMT", want: 0},
		{name: "garbage", value: "soon", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseRetryAfter(tt.value); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter_FutureDate(t *testing.T) {
	t.Parallel()

	at := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(at); got < 58*time.Minute || got > time.Hour {
		t.Errorf("parseRetryAfter(%q) = %v, want about one hour", at, got)
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("get: %w", context.DeadlineExceeded), want: false},
		{name: "net error", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: true},
		{name: "unknown", err: errors.New("something failed"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusCreated, false},
		{http.StatusNoContent, false},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusConflict, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusNotImplemented, false},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
		{http.StatusHTTPVersionNotSupported, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()
			if got := isRetryableStatus(tt.status); got != tt.want {
				t.Errorf("isRetryableStatus(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestIdempotent(t *testing.T) {
	t.Parallel()

	marked := WithIdempotent(context.Background())

	tests := []struct {
		name   string
		ctx    context.Context
		method string
		want   bool
	}{
		{name: "GET", ctx: context.Background(), method: http.MethodGet, want: true},
		{name: "PUT", ctx: context.Background(), method: http.MethodPut, want: true},
		{name: "DELETE", ctx: context.Background(), method: http.MethodDelete, want: true},
		{name: "POST", ctx: context.Background(), method: http.MethodPost, want: false},
		{name: "PATCH", ctx: context.Background(), method: http.MethodPatch, want: false},
		{name: "marked POST", ctx: marked, method: http.MethodPost, want: true},
		{name: "marked PATCH", ctx: marked, method: http.MethodPatch, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := idempotent(tt.ctx, tt.method); got != tt.want {
				t.Errorf("idempotent(%s) = %v, want %v", tt.method, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_Delay(t *testing.T) {
	t.Parallel()

	p := retryPolicy{initial: time.Millisecond, ceiling: time.Second, multiplier: 1}

	tests := []struct {
		name       string
		retryAfter time.Duration
		lo, hi     time.Duration
	}{
		{name: "no hint uses backoff", retryAfter: 0, lo: 750 * time.Microsecond, hi: 1250 * time.Microsecond},
		{name: "hint longer than backoff", retryAfter: 300 * time.Millisecond, lo: 300 * time.Millisecond, hi: 300 * time.Millisecond},
		{name: "hint capped at ceiling", retryAfter: time.Hour, lo: time.Second, hi: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if d := p.delay(1, tt.retryAfter); d < tt.lo || d > tt.hi {
				t.Errorf("delay(1, %v) = %v, want within [%v, %v]", tt.retryAfter, d, tt.lo, tt.hi)
			}
		})
	}
}
