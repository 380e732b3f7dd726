package dto_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/dto"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
)

func problem(status int, detail, instance string, errs ...dto.ErrorDetail) dto.ErrorResponse {
	return dto.ErrorResponse{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
		Errors:   errs,
	}
}

func TestNewErrorResponse(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("todo abc: %w", domain.ErrNotFound)
	multi := &domain.ValidationError{Fields: map[string]string{
		"title":       domain.MsgRequired,
		"description": "expected string, but got number",
		"completed":   "expected boolean, but got string",
	}}
	badQuery := domain.NewValidationError("query.completed", "must be true or false")
	badJSON := domain.NewValidationError("body", "invalid JSON")

	tests := []struct {
		name   string
		target string
		err    error
		want   dto.ErrorResponse
	}{
		{
			name:   "wrapped not found keeps its message",
			target: "/todos/abc",
			err:    notFound,
			want:   problem(http.StatusNotFound, notFound.Error(), "/todos/abc"),
		},
		{
			name:   "conflict",
			target: "/todos",
			err:    domain.ErrConflict,
			want:   problem(http.StatusConflict, "conflict", "/todos"),
		},
		{
			name:   "forbidden",
			target: "/todos/abc",
			err:    domain.ErrForbidden,
			want:   problem(http.StatusForbidden, "forbidden", "/todos/abc"),
		},
		{
			name:   "body fields sorted by location",
			target: "/todos",
			err:    multi,
			want: problem(http.StatusBadRequest, multi.Error(), "/todos",
				dto.ErrorDetail{Location: "body.completed", Message: "expected boolean, but got string"},
				dto.ErrorDetail{Location: "body.description", Message: "expected string, but got number"},
				dto.ErrorDetail{Location: "body.title", Message: domain.MsgRequired},
			),
		},
		{
			name:   "unparseable body",
			target: "/todos",
			err:    badJSON,
			want: problem(http.StatusBadRequest, badJSON.Error(), "/todos",
				dto.ErrorDetail{Location: "body", Message: "invalid JSON"},
			),
		},
		{
			name:   "query parameter keeps its location",
			target: "/todos?completed=maybe",
			err:    badQuery,
			want: problem(http.StatusBadRequest, badQuery.Error(), "/todos?completed=maybe",
				dto.ErrorDetail{Location: "query.completed", Message: "must be true or false"},
			),
		},
		{
			name:   "unavailable hides the cause",
			target: "/todos",
			err:    fmt.Errorf("dial tcp 10.0.0.5:5432: %w", domain.ErrUnavailable),
			want:   problem(http.StatusServiceUnavailable, "the to-do store is temporarily unavailable", "/todos"),
		},
		{
			name:   "unknown error hides the cause",
			target: "/todos",
			err:    errors.New(`pq: relation "todos" does not exist`),
			want:   problem(http.StatusInternalServerError, "an unexpected error occurred", "/todos"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := dto.NewErrorResponse(httptest.NewRequest(http.MethodGet, tt.target, nil), tt.err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NewErrorResponse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteErrorResponse(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/todos", nil)
	dto.WriteErrorResponse(w, r, domain.NewValidationError("title", domain.MsgRequired))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != dto.ProblemContentType {
		t.Errorf("Content-Type = %q, want %q", ct, dto.ProblemContentType)
	}

	var got dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	want := []dto.ErrorDetail{{Location: "body.title", Message: domain.MsgRequired}}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}
