package todoapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/dto"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
)

const maxErrorBodySize = 1 << 20

// TranslateHTTPError maps a problem+json error response from the to-do
// service back to the domain error the server started from. A 400 carrying
// field errors becomes a *domain.ValidationError keyed the same way the
// server keyed it ("title", "body", "query.completed").
func TranslateHTTPError(resp *http.Response) error {
	pd := parseProblem(resp)

	detail := pd.Detail
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: %w", detail, domain.ErrNotFound)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		if len(pd.Errors) > 0 {
			return toValidationError(pd.Errors)
		}
		return fmt.Errorf("%s: %w", detail, domain.ErrValidation)
	case code == http.StatusConflict:
		return fmt.Errorf("%s: %w", detail, domain.ErrConflict)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%s: %w", detail, domain.ErrForbidden)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w", detail, domain.ErrUnavailable)
	default:
		return fmt.Errorf("unexpected status %d: %s", code, detail)
	}
}

// parseProblem reads an RFC 9457 body. Other content types and malformed
// bodies yield the zero value.
func parseProblem(resp *http.Response) dto.ErrorResponse {
	var pd dto.ErrorResponse
	if resp.Body == nil || !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/problem+json") {
		return pd
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return pd
	}
	if err := json.Unmarshal(body, &pd); err != nil {
		return dto.ErrorResponse{}
	}
	return pd
}

func toValidationError(details []dto.ErrorDetail) *domain.ValidationError {
	fields := make(map[string]string, len(details))
	for _, d := range details {
		fields[strings.TrimPrefix(d.Location, "body.")] = d.Message
	}
	return &domain.ValidationError{Fields: fields}
}
