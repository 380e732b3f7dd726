// Package todoapi is the typed client for the to-do HTTP resource. Client
// implements [ports.TodoService] over the wire, so todoctl drives a remote
// service through the same port the HTTP handlers call locally.
package todoapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/dto"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/httpclient"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

var (
	_ ports.TodoService   = (*Client)(nil)
	_ ports.HealthChecker = (*Client)(nil)
)

// Client talks to a to-do service rooted at the httpclient's base URL.
// HTTP errors come back as the domain errors the server mapped them from.
type Client struct {
	http *httpclient.Client
	req  *requester
}

// New creates a Client on top of client.
func New(client *httpclient.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http: client,
		req:  &requester{client: client, logger: logger},
	}
}

// List calls GET /todos, adding ?completed= when the filter sets it.
func (c *Client) List(ctx context.Context, filter todo.Filter) ([]todo.Item, error) {
	path := "/todos"
	if filter.Completed != nil {
		path += "?" + url.Values{"completed": {strconv.FormatBool(*filter.Completed)}}.Encode()
	}

	var body []dto.TodoResponse
	if err := c.req.do(ctx, http.MethodGet, path, http.StatusOK, nil, &body); err != nil {
		return nil, err
	}

	items := make([]todo.Item, 0, len(body))
	for i := range body {
		it, err := toItem(&body[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, nil
}

// Create calls POST /todos. Only the writable fields of item are sent.
func (c *Client) Create(ctx context.Context, item *todo.Item) (*todo.Item, error) {
	reqBody := dto.CreateTodoRequest{
		Title:       item.Title,
		Description: item.Description,
		Completed:   item.Completed,
	}
	return c.itemCall(ctx, http.MethodPost, "/todos", http.StatusCreated, reqBody)
}

// Get calls GET /todos/{id}.
func (c *Client) Get(ctx context.Context, id string) (*todo.Item, error) {
	path, err := itemPath(id, "")
	if err != nil {
		return nil, err
	}
	return c.itemCall(ctx, http.MethodGet, path, http.StatusOK, nil)
}

// Replace calls PUT /todos/{id}.
func (c *Client) Replace(ctx context.Context, id string, item *todo.Item) (*todo.Item, error) {
	path, err := itemPath(id, "")
	if err != nil {
		return nil, err
	}
	reqBody := dto.ReplaceTodoRequest{
		Title:       item.Title,
		Description: item.Description,
		Completed:   item.Completed,
	}
	return c.itemCall(ctx, http.MethodPut, path, http.StatusOK, reqBody)
}

// Update calls PATCH /todos/{id}. Unset patch fields are omitted from the
// body. Resending the same patch yields the same field values, so the call
// is retried like an idempotent one.
func (c *Client) Update(ctx context.Context, id string, patch todo.Patch) (*todo.Item, error) {
	path, err := itemPath(id, "")
	if err != nil {
		return nil, err
	}
	reqBody := dto.UpdateTodoRequest{
		Title:       patch.Title,
		Description: patch.Description,
		Completed:   patch.Completed,
	}
	return c.itemCall(httpclient.WithIdempotent(ctx), http.MethodPatch, path, http.StatusOK, reqBody)
}

// Delete calls DELETE /todos/{id}.
func (c *Client) Delete(ctx context.Context, id string) error {
	path, err := itemPath(id, "")
	if err != nil {
		return err
	}
	return c.req.do(ctx, http.MethodDelete, path, http.StatusNoContent, nil, nil)
}

// MarkComplete calls POST /todos/{id}/mark_complete with no body.
func (c *Client) MarkComplete(ctx context.Context, id string) (*todo.Item, error) {
	path, err := itemPath(id, "/mark_complete")
	if err != nil {
		return nil, err
	}
	return c.itemCall(httpclient.WithIdempotent(ctx), http.MethodPost, path, http.StatusOK, nil)
}

// Name identifies the remote service in health reports.
func (c *Client) Name() string {
	return "todoapi:" + c.http.Name()
}

// HealthCheck reports the circuit breaker state of the underlying client.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.http.HealthCheck(ctx)
}

func (c *Client) itemCall(ctx context.Context, method, path string, wantStatus int, reqBody any) (*todo.Item, error) {
	var body dto.TodoResponse
	if err := c.req.do(ctx, method, path, wantStatus, reqBody, &body); err != nil {
		return nil, err
	}
	return toItem(&body)
}

// itemPath builds /todos/{id}{suffix}. An empty id would address the
// collection instead, so it is rejected locally as not found.
func itemPath(id, suffix string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("todo %q: %w", id, domain.ErrNotFound)
	}
	return "/todos/" + url.PathEscape(id) + suffix, nil
}

func toItem(r *dto.TodoResponse) (*todo.Item, error) {
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decoding created_at of %s: %w", r.ID, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("decoding updated_at of %s: %w", r.ID, err)
	}
	return &todo.Item{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   created.UTC(),
		UpdatedAt:   updated.UTC(),
	}, nil
}
