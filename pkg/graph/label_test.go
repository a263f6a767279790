package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternReturnsSameIDForRepeatedName(t *testing.T) {
	t1 := NewLabelTable()
	a := t1.Intern("KNOWS")
	b := t1.Intern("KNOWS")
	assert.Equal(t, a, b)
}

func TestInternAssignsDistinctIDs(t *testing.T) {
	t1 := NewLabelTable()
	a := t1.Intern("KNOWS")
	b := t1.Intern("LIKES")
	assert.NotEqual(t, a, b)
}

func TestIDDoesNotInternUnseenName(t *testing.T) {
	t1 := NewLabelTable()
	_, ok := t1.ID("UNSEEN")
	assert.False(t, ok)
	assert.Equal(t, 0, t1.Len())
}

func TestNameResolvesInternedID(t *testing.T) {
	t1 := NewLabelTable()
	id := t1.Intern("KNOWS")
	name, ok := t1.Name(id)
	assert.True(t, ok)
	assert.Equal(t, "KNOWS", name)
}
