package todo

import "sort"

// Filter holds optional filter criteria for listing items.
// Zero-value fields mean "no filter" for that dimension.
type Filter struct {
	Completed *bool
}

// Matches reports whether it satisfies every set criterion.
func (f Filter) Matches(it *Item) bool {
	if f.Completed != nil && it.Completed != *f.Completed {
		return false
	}
	return true
}

// SortNewestFirst orders items by CreatedAt descending. Items created at
// the same instant are ordered by ID descending so repeated listings of
// the same data are identical.
func SortNewestFirst(items []Item) {
	sort.SliceStable(items, func(a, b int) bool {
		if !items[a].CreatedAt.Equal(items[b].CreatedAt) {
			return items[a].CreatedAt.After(items[b].CreatedAt)
		}
		return items[a].ID > items[b].ID
	})
}
