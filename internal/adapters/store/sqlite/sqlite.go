// Package sqlite provides a ports.TodoRepository backed by a SQLite
// database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// Compile-time interface check.
var _ ports.TodoRepository = (*Repository)(nil)

// busyTimeout is how long SQLite waits on a locked database before
// returning SQLITE_BUSY.
const busyTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed   INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS todos_created_at_idx ON todos (created_at DESC, id DESC);
`

const selectColumns = `SELECT id, title, description, completed, created_at, updated_at FROM todos`

// Repository stores items in a single SQLite table. Timestamps are stored
// as Unix microseconds.
type Repository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path is empty")
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; transactions queue on the pool instead of
	// failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w: %w", domain.ErrUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", fmt.Sprint(busyTimeout.Milliseconds()))
	q.Set("_journal_mode", "WAL")
	return "file:" + path + "?" + q.Encode()
}

// Name implements ports.HealthChecker.
func (r *Repository) Name() string {
	return "store:sqlite"
}

// HealthCheck implements ports.HealthChecker.
func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping: %w: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// List returns matching items, newest first.
func (r *Repository) List(ctx context.Context, filter todo.Filter) ([]todo.Item, error) {
	query := selectColumns
	var args []any
	if filter.Completed != nil {
		query += ` WHERE completed = ?`
		args = append(args, *filter.Completed)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]todo.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return items, nil
}

// Create inserts a new item. Returns domain.ErrConflict if the ID is taken.
func (r *Repository) Create(ctx context.Context, item *todo.Item) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, description, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		item.ID, item.Title, item.Description, item.Completed,
		item.CreatedAt.UnixMicro(), item.UpdatedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("insert todo %s: %w", item.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert todo %s: %w", item.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("todo %s: %w", item.ID, domain.ErrConflict)
	}
	return nil
}

// Get returns a single item.
func (r *Repository) Get(ctx context.Context, id string) (*todo.Item, error) {
	return getItem(ctx, r.db, id)
}

// Mutate runs fn inside an immediate transaction, which takes the database
// write lock before the read.
func (r *Repository) Mutate(ctx context.Context, id string, fn ports.MutateFunc) (*todo.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mutate txn: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	next := *cur
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt

	_, err = tx.ExecContext(ctx,
		`UPDATE todos SET title = ?, description = ?, completed = ?, updated_at = ? WHERE id = ?`,
		next.Title, next.Description, next.Completed, next.UpdatedAt.UnixMicro(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update todo %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mutate txn: %w", err)
	}
	return &next, nil
}

// Delete removes an item.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("todo %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getItem(ctx context.Context, q queryer, id string) (*todo.Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("todo %s: %w", id, domain.ErrNotFound)
	}
	return it, err
}

func scanItem(s scanner) (*todo.Item, error) {
	var (
		it               todo.Item
		created, updated int64
	)
	if err := s.Scan(&it.ID, &it.Title, &it.Description, &it.Completed, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}
	it.CreatedAt = time.UnixMicro(created).UTC()
	it.UpdatedAt = time.UnixMicro(updated).UTC()
	return &it, nil
}
