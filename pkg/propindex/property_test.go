package propindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyIndexAddLookupRemove(t *testing.T) {
	idx := New()
	idx.Add("Document", "status", "active", 1)
	idx.Add("Document", "status", "active", 2)
	idx.Add("Document", "status", "archived", 3)

	assert.ElementsMatch(t, []uint64{1, 2}, idx.Lookup("Document", "status", "active"))
	assert.ElementsMatch(t, []uint64{3}, idx.Lookup("Document", "status", "archived"))

	idx.Remove("Document", "status", "active", 1)
	assert.ElementsMatch(t, []uint64{2}, idx.Lookup("Document", "status", "active"))

	idx.Remove("Document", "status", "active", 2)
	assert.Nil(t, idx.Lookup("Document", "status", "active"))
}

func TestPropertyIndexDistinguishesLabelsAndProperties(t *testing.T) {
	idx := New()
	idx.Add("Document", "status", "active", 1)
	idx.Add("Ticket", "status", "active", 2)

	assert.ElementsMatch(t, []uint64{1}, idx.Lookup("Document", "status", "active"))
	assert.ElementsMatch(t, []uint64{2}, idx.Lookup("Ticket", "status", "active"))
}

func TestPropertyIndexCoercesNumericEquality(t *testing.T) {
	idx := New()
	idx.Add("Document", "version", 5, 1)
	assert.ElementsMatch(t, []uint64{1}, idx.Lookup("Document", "version", 5.0))
}
