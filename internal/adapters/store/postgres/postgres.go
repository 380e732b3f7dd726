// Package postgres provides a ports.TodoRepository backed by PostgreSQL
// through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// Compile-time interface check.
var _ ports.TodoRepository = (*Repository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS todos_created_at_idx ON todos (created_at DESC, id COLLATE "C" DESC);
`

const selectColumns = `SELECT id, title, description, completed, created_at, updated_at FROM todos`

// Repository stores items in the todos table.
type Repository struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, verifies connectivity and applies the schema.
// maxConns <= 0 keeps the pgxpool default.
func Open(ctx context.Context, dsn string, maxConns int32) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w: %w", domain.ErrUnavailable, err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Name implements ports.HealthChecker.
func (r *Repository) Name() string {
	return "store:postgres"
}

// HealthCheck implements ports.HealthChecker.
func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// List returns matching items, newest first.
func (r *Repository) List(ctx context.Context, filter todo.Filter) ([]todo.Item, error) {
	query := selectColumns
	var args []any
	if filter.Completed != nil {
		query += ` WHERE completed = $1`
		args = append(args, *filter.Completed)
	}
	query += ` ORDER BY created_at DESC, id COLLATE "C" DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list todos", err)
	}
	defer rows.Close()

	items := make([]todo.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, classify("scan todo", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list todos", err)
	}
	return items, nil
}

// Create inserts a new item. Returns domain.ErrConflict if the ID is taken.
func (r *Repository) Create(ctx context.Context, item *todo.Item) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO todos (id, title, description, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
		item.ID, item.Title, item.Description, item.Completed, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return classify("insert todo "+item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todo %s: %w", item.ID, domain.ErrConflict)
	}
	return nil
}

// Get returns a single item.
func (r *Repository) Get(ctx context.Context, id string) (*todo.Item, error) {
	return getItem(ctx, r.pool, id, "")
}

// Mutate locks the row with SELECT ... FOR UPDATE, runs fn and writes the
// result in the same transaction.
func (r *Repository) Mutate(ctx context.Context, id string, fn ports.MutateFunc) (*todo.Item, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, classify("begin mutate txn", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := getItem(ctx, tx, id, " FOR UPDATE")
	if err != nil {
		return nil, err
	}

	next := *cur
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt

	_, err = tx.Exec(ctx,
		`UPDATE todos SET title = $1, description = $2, completed = $3, updated_at = $4 WHERE id = $5`,
		next.Title, next.Description, next.Completed, next.UpdatedAt, id,
	)
	if err != nil {
		return nil, classify("update todo "+id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify("commit mutate txn", err)
	}
	return &next, nil
}

// Delete removes an item.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return classify("delete todo "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todo %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getItem(ctx context.Context, q queryer, id, suffix string) (*todo.Item, error) {
	it, err := scanItem(q.QueryRow(ctx, selectColumns+` WHERE id = $1`+suffix, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("todo %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, classify("get todo "+id, err)
	}
	return it, nil
}

func scanItem(row pgx.Row) (*todo.Item, error) {
	var it todo.Item
	if err := row.Scan(&it.ID, &it.Title, &it.Description, &it.Completed, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return &it, nil
}

// classify wraps connection failures with domain.ErrUnavailable. Other
// errors are wrapped as-is.
func classify(op string, err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
