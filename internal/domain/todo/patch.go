package todo

import (
	"strings"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain"
)

// Patch holds the client-settable fields of a partial update.
// A nil field means "leave unchanged".
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Validate rejects a patch that would blank the title.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return domain.NewValidationError("title", domain.MsgMustNotEmpty)
	}
	return nil
}

// Apply copies the set fields onto it. Text fields are trimmed.
func (p Patch) Apply(it *Item) {
	if p.Title != nil {
		it.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		it.Description = strings.TrimSpace(*p.Description)
	}
	if p.Completed != nil {
		it.Completed = *p.Completed
	}
}
