package sync

import (
	"sort"

	"github.com/vanvan1998/todoApp/internal/domain"
)

// Sort orders a copy of items by creation time according to mode. SortNone
// preserves snapshot order. created_at uses a fixed lexicographically
// sortable layout, so ordering is a plain string comparison. Ties keep no
// guaranteed relative order.
func Sort(items []domain.Todo, mode domain.SortMode) []domain.Todo {
	out := make([]domain.Todo, len(items))
	copy(out, items)

	switch mode {
	case domain.SortNewest:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	case domain.SortOldest:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	}
	return out
}
