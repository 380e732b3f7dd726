package todoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/httpclient"
)

// requester owns the request lifecycle shared by every Client method: JSON
// encoding, execution through httpclient, status checking, error
// translation and decoding.
type requester struct {
	client *httpclient.Client
	logger *slog.Logger
}

// do sends method path with reqBody encoded as JSON (none when nil) and
// decodes a wantStatus response into respBody (skipped when nil).
func (r *requester) do(ctx context.Context, method, path string, wantStatus int, reqBody, respBody any) error {
	var body io.Reader = http.NoBody
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling %s body for %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.client.BaseURL()+path, body)
	if err != nil {
		return fmt.Errorf("creating %s request for %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return r.execute(ctx, req, wantStatus, respBody)
}

func (r *requester) closeBody(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		r.logger.WarnContext(ctx, "failed to close response body", slog.Any("error", err))
	}
}

func (r *requester) execute(ctx context.Context, req *http.Request, wantStatus int, respBody any) error {
	resp, err := r.client.Do(ctx, req)
	if resp != nil {
		defer r.closeBody(ctx, resp)
	}
	if err != nil {
		// Retries exhausted on a retryable status still carry the response.
		if resp != nil && resp.StatusCode != wantStatus {
			return TranslateHTTPError(resp)
		}
		r.logger.ErrorContext(ctx, "request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode != wantStatus {
		r.logger.DebugContext(ctx, "unexpected status",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Int("status", resp.StatusCode),
			slog.Int("want_status", wantStatus),
		)
		return TranslateHTTPError(resp)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decoding response from %s %s: %w", req.Method, req.URL.Path, err)
		}
	}
	return nil
}
