package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSelection(t *testing.T) {
	sel := NewSelection("a", "b", "a", "c", "b")
	assert.Equal(t, []string{"a", "b", "c"}, sel.IDs())
	assert.Equal(t, 3, sel.Len())
	assert.True(t, sel.Contains("a"))
	assert.False(t, sel.Contains("d"))
}

func TestSelectionWith(t *testing.T) {
	sel := NewSelection("a")

	grown := sel.With("b")
	assert.Equal(t, []string{"a", "b"}, grown.IDs())
	// The receiver is a value; the original selection is untouched
	assert.Equal(t, []string{"a"}, sel.IDs())

	same := grown.With("a")
	assert.Equal(t, []string{"a", "b"}, same.IDs())
}

func TestSelectionWithout(t *testing.T) {
	sel := NewSelection("a", "b", "c")

	shrunk := sel.Without("b")
	assert.Equal(t, []string{"a", "c"}, shrunk.IDs())
	assert.Equal(t, []string{"a", "b", "c"}, sel.IDs())

	same := sel.Without("d")
	assert.Equal(t, []string{"a", "b", "c"}, same.IDs())
}

func TestSelectionIDsReturnsCopy(t *testing.T) {
	sel := NewSelection("a", "b")
	ids := sel.IDs()
	ids[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, sel.IDs())
}
