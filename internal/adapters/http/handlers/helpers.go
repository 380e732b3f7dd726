package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/dto"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/logging"
)

// maxJSONBodyBytes caps request bodies at 1 MiB.
const maxJSONBodyBytes = 1 << 20

// parseID returns the {id} path parameter in canonical lower-case UUID
// form. Anything that is not a UUID cannot name a stored item, so it is
// not found rather than invalid.
func parseID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("todo %q: %w", raw, domain.ErrNotFound)
	}
	return id.String(), nil
}

// parseFilter reads the optional ?completed= query parameter.
func parseFilter(r *http.Request) (todo.Filter, error) {
	var f todo.Filter

	raw := r.URL.Query().Get("completed")
	if raw == "" {
		return f, nil
	}

	completed, err := strconv.ParseBool(raw)
	if err != nil {
		return f, domain.NewValidationError("query.completed", "must be true or false")
	}
	f.Completed = &completed
	return f, nil
}

// writeJSON sends v with status. An encode failure is logged with the
// request's logger; the status line is already on the wire by then.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctx := r.Context()
		logging.FromContextOr(ctx, slog.Default()).ErrorContext(ctx, "failed to encode response", slog.Any("error", err))
	}
}

// decodeBody reads at most maxJSONBodyBytes, checks the document against
// the item body schema, then decodes and validates it into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{ Validate() error }) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.NewValidationError("body", "exceeds 1 MiB")
		}
		return domain.NewValidationError("body", "could not be read")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.NewValidationError("body", "invalid JSON")
	}
	if err := dto.ValidateTodoBody(doc); err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return domain.NewValidationError("body", "invalid JSON")
	}
	return dst.Validate()
}
