// Package dto provides HTTP request/response data transfer objects and
// RFC 9457 Problem Details error responses for the inbound HTTP adapter layer.
package dto

import (
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
)

// TimeFormat is RFC 3339 with a fixed microsecond fraction, matching the
// precision items are stored with.
const TimeFormat = "2006-01-02T15:04:05.000000Z07:00"

// TodoResponse represents a single to-do item in HTTP responses.
type TodoResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ToTodoResponse converts a domain item to an HTTP response DTO.
func ToTodoResponse(it *todo.Item) TodoResponse {
	return TodoResponse{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Completed:   it.Completed,
		CreatedAt:   it.CreatedAt.UTC().Format(TimeFormat),
		UpdatedAt:   it.UpdatedAt.UTC().Format(TimeFormat),
	}
}

// ToTodoListResponse converts items to the list body, a bare JSON array.
// An empty input yields [] rather than null.
func ToTodoListResponse(items []todo.Item) []TodoResponse {
	out := make([]TodoResponse, len(items))
	for i := range items {
		out[i] = ToTodoResponse(&items[i])
	}
	return out
}
