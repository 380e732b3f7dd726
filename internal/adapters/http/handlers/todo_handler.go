package handlers

import (
	"net/http"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/dto"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// TodoHandler serves the /todos resource.
type TodoHandler struct {
	svc ports.TodoService
}

// NewTodoHandler returns a TodoHandler backed by svc.
func NewTodoHandler(svc ports.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// List handles GET /todos[?completed=true|false].
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ToTodoListResponse(items))
}

// Create handles POST /todos.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTodoRequest
	if err := decodeBody(w, r, &req); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	item, err := h.svc.Create(r.Context(), req.ToItem())
	respondItem(w, r, http.StatusCreated, item, err)
}

// Get handles GET /todos/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(id string) (*todo.Item, error) {
		return h.svc.Get(r.Context(), id)
	})
}

// Replace handles PUT /todos/{id}. Every writable field is overwritten.
func (h *TodoHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(id string) (*todo.Item, error) {
		var req dto.ReplaceTodoRequest
		if err := h.decodeForItem(w, r, id, &req); err != nil {
			return nil, err
		}
		return h.svc.Replace(r.Context(), id, req.ToItem())
	})
}

// Update handles PATCH /todos/{id}. Absent fields are left alone.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(id string) (*todo.Item, error) {
		var req dto.UpdateTodoRequest
		if err := h.decodeForItem(w, r, id, &req); err != nil {
			return nil, err
		}
		return h.svc.Update(r.Context(), id, req.ToPatch())
	})
}

// Delete handles DELETE /todos/{id} and answers 204 with no body.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err == nil {
		err = h.svc.Delete(r.Context(), id)
	}
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkComplete handles POST /todos/{id}/mark_complete. Any request body is
// ignored.
func (h *TodoHandler) MarkComplete(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(id string) (*todo.Item, error) {
		return h.svc.MarkComplete(r.Context(), id)
	})
}

// withID resolves the {id} path parameter, runs op with it and answers 200
// with the resulting item. An unusable id fails before the body is read.
func (h *TodoHandler) withID(w http.ResponseWriter, r *http.Request, op func(id string) (*todo.Item, error)) {
	id, err := parseID(r)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	item, err := op(id)
	respondItem(w, r, http.StatusOK, item, err)
}

// decodeForItem decodes the body of a write to item id. A bad body is only
// reported once the item is known to exist: an unknown id is not found
// whatever the body holds.
func (h *TodoHandler) decodeForItem(w http.ResponseWriter, r *http.Request, id string, dst interface{ Validate() error }) error {
	bodyErr := decodeBody(w, r, dst)
	if bodyErr == nil {
		return nil
	}
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		return err
	}
	return bodyErr
}

func respondItem(w http.ResponseWriter, r *http.Request, status int, item *todo.Item, err error) {
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, status, dto.ToTodoResponse(item))
}
