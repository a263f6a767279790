package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCancelRelease(t *testing.T) {
	r := New()
	canceled := false
	id, release := r.Register("SELECT * FROM c", func() { canceled = true })
	require.NotEmpty(t, id)
	assert.Equal(t, 1, r.Len())

	ok := r.Cancel(id)
	assert.True(t, ok)
	assert.True(t, canceled)

	release()
	assert.Equal(t, 0, r.Len())
}

func TestCancelUnknownID(t *testing.T) {
	r := New()
	assert.False(t, r.Cancel("does-not-exist"))
}

func TestListSnapshot(t *testing.T) {
	r := New()
	_, rel1 := r.Register("q1", func() {})
	_, rel2 := r.Register("q2", func() {})
	defer rel1()
	defer rel2()

	entries := r.List()
	assert.Len(t, entries, 2)
}
