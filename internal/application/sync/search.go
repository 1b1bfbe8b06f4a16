package sync

import (
	"strings"

	"github.com/vanvan1998/todoApp/internal/domain"
)

// Filter returns the items whose title contains every whitespace-separated
// term of query as a literal, case-sensitive substring. A blank or
// whitespace-only query matches everything. This is a conjunctive substring
// filter, not a ranked search.
func Filter(items []domain.Todo, query string) []domain.Todo {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		out := make([]domain.Todo, len(items))
		copy(out, items)
		return out
	}

	out := make([]domain.Todo, 0, len(items))
	for _, item := range items {
		if matchesAll(item.Title, terms) {
			out = append(out, item)
		}
	}
	return out
}

func matchesAll(title string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(title, term) {
			return false
		}
	}
	return true
}
