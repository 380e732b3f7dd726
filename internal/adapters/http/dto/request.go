package dto

import (
	"strings"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
)

// CreateTodoRequest is the JSON body of POST /todos. Only the writable
// fields are declared; id and timestamps in the body are ignored.
type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Validate checks that the title is present.
// Returns a *domain.ValidationError if any checks fail.
func (r *CreateTodoRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return domain.NewValidationError("title", domain.MsgRequired)
	}
	return nil
}

// ToItem maps the request onto a new domain item.
func (r *CreateTodoRequest) ToItem() *todo.Item {
	return &todo.Item{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
}

// ReplaceTodoRequest is the JSON body of PUT /todos/{id}. Omitted optional
// fields reset to their defaults.
type ReplaceTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Validate checks that the title is present.
func (r *ReplaceTodoRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return domain.NewValidationError("title", domain.MsgRequired)
	}
	return nil
}

// ToItem maps the request onto the replacement field values.
func (r *ReplaceTodoRequest) ToItem() *todo.Item {
	return &todo.Item{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
}

// UpdateTodoRequest is the JSON body of PATCH /todos/{id}.
// All fields are optional; nil means "do not change this field".
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Validate checks that a provided title is not blank.
func (r *UpdateTodoRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return domain.NewValidationError("title", domain.MsgMustNotEmpty)
	}
	return nil
}

// ToPatch maps the request onto a domain patch.
func (r *UpdateTodoRequest) ToPatch() todo.Patch {
	return todo.Patch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
}
