package todo

import "time"

// EventKind names a change to an item.
type EventKind string

const (
	EventCreated   EventKind = "created"
	EventUpdated   EventKind = "updated"
	EventCompleted EventKind = "completed"
	EventDeleted   EventKind = "deleted"
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	return string(k)
}

// Event describes a successful change to an item. Item is nil for
// EventDeleted.
type Event struct {
	Kind       EventKind
	ItemID     string
	OccurredAt time.Time
	Item       *Item
}
