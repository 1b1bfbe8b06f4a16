package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vanvan1998/todoApp/internal/domain"
)

func titles(items []domain.Todo) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.Title
	}
	return out
}

func todosWithTitles(ts ...string) []domain.Todo {
	out := make([]domain.Todo, len(ts))
	for i, title := range ts {
		out[i] = domain.Todo{TodoID: title, Title: title}
	}
	return out
}

func TestFilter_BlankQueryMatchesAll(t *testing.T) {
	items := todosWithTitles("Pay rent", "Walk dog")

	assert.Equal(t, []string{"Pay rent", "Walk dog"}, titles(Filter(items, "")))
	assert.Equal(t, []string{"Pay rent", "Walk dog"}, titles(Filter(items, "   ")))
}

func TestFilter_EveryTermMustMatch(t *testing.T) {
	items := todosWithTitles("abcdef", "ab xy", "cd only")

	// "ab cd": both terms must be substrings of the title.
	assert.Equal(t, []string{"abcdef"}, titles(Filter(items, "ab cd")))
}

func TestFilter_CaseSensitive(t *testing.T) {
	items := todosWithTitles("Pay rent", "pay bills")

	assert.Equal(t, []string{"Pay rent"}, titles(Filter(items, "Pay")))
	assert.Equal(t, []string{"pay bills"}, titles(Filter(items, "pay")))
}

func TestFilter_NoMatches(t *testing.T) {
	items := todosWithTitles("Pay rent")
	assert.Empty(t, Filter(items, "groceries"))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	items := todosWithTitles("b", "a")
	_ = Filter(items, "")
	assert.Equal(t, []string{"b", "a"}, titles(items))
}
