package dto

import (
	"cmp"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
)

// ProblemContentType is the media type of every error body.
const ProblemContentType = "application/problem+json"

// ErrorResponse is an RFC 9457 problem document.
type ErrorResponse struct {
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// ErrorDetail points at one invalid input. Location is "body.<field>",
// "body" for an unparseable document, or "query.<param>".
type ErrorDetail struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// statuses maps domain sentinels to HTTP codes, first match wins.
var statuses = []struct {
	sentinel error
	status   int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnavailable, http.StatusServiceUnavailable},
}

// Server-side details are fixed strings; the cause is only logged.
var serverDetails = map[int]string{
	http.StatusServiceUnavailable:  "the to-do store is temporarily unavailable",
	http.StatusInternalServerError: "an unexpected error occurred",
}

// NewErrorResponse describes err as a problem for request r.
func NewErrorResponse(r *http.Request, err error) ErrorResponse {
	status := statusFor(err)

	detail, fixed := serverDetails[status]
	if !fixed {
		detail = err.Error()
	}

	resp := ErrorResponse{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.RequestURI,
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = fieldDetails(verr.Fields)
	}
	return resp
}

// WriteErrorResponse sends err as an application/problem+json response.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	resp := NewErrorResponse(r, err)

	w.Header().Set("Content-Type", ProblemContentType)
	w.WriteHeader(resp.Status)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		slog.ErrorContext(r.Context(), "failed to encode error response", slog.Any("error", encErr))
	}
}

func statusFor(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.sentinel) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// fieldDetails turns validation fields into details ordered by location.
// Plain field names live in the body; "body" and "query.*" keys are
// already locations.
func fieldDetails(fields map[string]string) []ErrorDetail {
	details := make([]ErrorDetail, 0, len(fields))
	for field, msg := range fields {
		loc := field
		if field != "body" && !strings.HasPrefix(field, "query.") {
			loc = "body." + field
		}
		details = append(details, ErrorDetail{Location: loc, Message: msg})
	}
	slices.SortFunc(details, func(a, b ErrorDetail) int {
		return cmp.Compare(a.Location, b.Location)
	})
	return details
}
