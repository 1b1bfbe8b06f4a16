package domain

import "fmt"

// SortMode selects the temporal ordering of the displayed todo list.
type SortMode string

const (
	SortNone   SortMode = "none"   // store-provided snapshot order, unchanged
	SortNewest SortMode = "newest" // descending created_at
	SortOldest SortMode = "oldest" // ascending created_at
)

// ParseSortMode validates a client-supplied sort mode string.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case SortNone, SortNewest, SortOldest:
		return SortMode(s), nil
	}
	return "", fmt.Errorf("unknown sort mode %q: %w", s, ErrBadRequest)
}
