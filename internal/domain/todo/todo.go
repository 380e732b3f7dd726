// Package todo defines the to-do item record, its field contract, and the
// value types used to filter and partially update it.
package todo

import (
	"strings"
	"time"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
)

// TimestampPrecision is the resolution at which item timestamps are stored.
// Every store round-trips microseconds exactly.
const TimestampPrecision = time.Microsecond

// Item is a single persisted to-do record.
//
// ID, CreatedAt and UpdatedAt are owned by the system and are never taken
// from client input.
type Item struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Normalize trims surrounding whitespace from the text fields.
func (i *Item) Normalize() {
	i.Title = strings.TrimSpace(i.Title)
	i.Description = strings.TrimSpace(i.Description)
}

// Validate checks business rules for the Item entity. The only rule is a
// non-blank title. Returns a *domain.ValidationError or nil.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return domain.NewValidationError("title", domain.MsgRequired)
	}
	return nil
}

// Stamp sets both timestamps for a newly created item.
func (i *Item) Stamp(now time.Time) {
	ts := Timestamp(now)
	i.CreatedAt = ts
	i.UpdatedAt = ts
}

// Touch advances UpdatedAt to now, or to one tick past its previous value
// when the clock has not moved forward, so that UpdatedAt strictly
// increases on every mutation.
func (i *Item) Touch(now time.Time) {
	next := Timestamp(now)
	if !next.After(i.UpdatedAt) {
		next = i.UpdatedAt.Add(TimestampPrecision)
	}
	i.UpdatedAt = next
}

// MarkComplete forces Completed to true. It is unconditional: calling it on
// an already completed item is not an error.
func (i *Item) MarkComplete() {
	i.Completed = true
}

// Timestamp normalizes t to UTC at storage precision.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}
