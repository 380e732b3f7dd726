// Package file provides a ports.TodoRepository that keeps items in memory
// and writes a JSON snapshot to disk after every change.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/store/memory"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
)

// Name is reported by the repository's health check.
const Name = "store:file"

const snapshotVersion = 1

type snapshot struct {
	Version int      `json:"version"`
	Items   []record `json:"items"`
}

type record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toRecord(it *todo.Item) record {
	return record{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Completed:   it.Completed,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

func (r *record) toItem() todo.Item {
	return todo.Item{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   todo.Timestamp(r.CreatedAt),
		UpdatedAt:   todo.Timestamp(r.UpdatedAt),
	}
}

// Persister writes snapshots to a single file. Writes go through a temp
// file and rename, so readers never see a partial snapshot.
type Persister struct {
	path string
}

// Save implements memory.Persister.
func (p *Persister) Save(items []todo.Item) error {
	snap := snapshot{Version: snapshotVersion, Items: make([]record, len(items))}
	for i := range items {
		snap.Items[i] = toRecord(&items[i])
	}

	buf, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	buf = append(buf, '\n')

	if err := atomic.WriteFile(p.path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("write snapshot %s: %w", p.path, err)
	}
	return nil
}

// HealthCheck verifies that the snapshot directory still exists and is a
// directory.
func (p *Persister) HealthCheck(_ context.Context) error {
	dir := filepath.Dir(p.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot dir %s is not a directory", dir)
	}
	return nil
}

// Open loads the snapshot at path (a missing file means an empty store)
// and returns a repository that persists to it. The parent directory is
// created if needed.
func Open(path string) (*memory.Repository, error) {
	if path == "" {
		return nil, errors.New("open file store: path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}

	items, err := load(path)
	if err != nil {
		return nil, err
	}

	return memory.New(
		memory.WithItems(items),
		memory.WithPersister(Name, &Persister{path: path}),
	), nil
}

func load(path string) ([]todo.Item, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", path, snap.Version)
	}

	items := make([]todo.Item, len(snap.Items))
	for i := range snap.Items {
		items[i] = snap.Items[i].toItem()
	}
	return items, nil
}
