package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/logging"
)

// jitter spreads each delay by up to ±25%.
const jitter = 0.25

// retryPolicy is exponential backoff with jitter, capped at ceiling.
type retryPolicy struct {
	attempts   int
	initial    time.Duration
	ceiling    time.Duration
	multiplier float64
}

// backoff is the delay before retry n (n >= 1).
func (p retryPolicy) backoff(n int) time.Duration {
	d := float64(p.initial) * math.Pow(p.multiplier, float64(n-1))
	d = min(d, float64(p.ceiling))
	d += d * jitter * (2*rand.Float64() - 1)
	return time.Duration(max(d, 0))
}

// delay honours a server Retry-After hint when it is longer than the
// backoff, but never waits past the ceiling for it.
func (p retryPolicy) delay(n int, retryAfter time.Duration) time.Duration {
	return max(p.backoff(n), min(retryAfter, p.ceiling))
}

// send performs up to attempts tries of req, replaying a buffered body.
// Responses with a retryable status are drained and closed except the
// last, which is returned with an error.
func (c *Client) send(ctx context.Context, req *http.Request, attempts int) (*http.Response, error) {
	body, err := takeBody(req)
	if err != nil {
		return nil, err
	}

	var (
		lastErr    error
		retryAfter time.Duration
	)
	for n := range attempts {
		if n > 0 {
			if err := c.pause(ctx, req, n, c.retry.delay(n, retryAfter), lastErr); err != nil {
				return nil, err
			}
		}
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}

		resp, err := c.http.Do(req)
		switch {
		case err != nil:
			if !isRetryable(err) {
				return nil, err
			}
			lastErr, retryAfter = err, 0
			continue
		case !isRetryableStatus(resp.StatusCode):
			return resp, nil
		}

		lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, c.peer)
		if n == attempts-1 {
			return resp, lastErr
		}
		retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
	return nil, lastErr
}

// takeBody reads and closes req's body so it can be replayed.
func takeBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	b, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return b, nil
}

func (c *Client) pause(ctx context.Context, req *http.Request, n int, d time.Duration, cause error) error {
	logging.FromContextOr(ctx, c.logger).WarnContext(ctx, "retrying HTTP request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.String("peer_service", c.peer),
		slog.Int("attempt", n+1),
		slog.Int("max_attempts", c.retry.attempts),
		slog.Duration("backoff", d),
		slog.Any("error", cause),
	)

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// parseRetryAfter reads delta-seconds or an HTTP date; anything else is 0.
func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(time.Until(at), 0)
	}
	return 0
}

// isRetryable treats every transport error as transient except the
// caller's own cancellation or deadline.
func isRetryable(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// isRetryableStatus is true for 429 and the transient 5xx codes; 501 and
// 505 are permanent.
func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
