package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBorrowedRefReleaseRunsOnce(t *testing.T) {
	calls := 0
	r := newBorrowedRef([]float32{1, 2}, func() { calls++ })
	r.Release()
	r.Release()
	assert.Equal(t, 1, calls)
}

func TestOwnedRefReleaseIsNoop(t *testing.T) {
	r := NewOwnedRef([]float32{1, 2})
	assert.NotPanics(t, r.Release)
}

func TestToOwnedCopiesBorrowedData(t *testing.T) {
	backing := []float32{1, 2, 3}
	r := newBorrowedRef(backing, func() {})
	owned := r.ToOwned()

	backing[0] = 999
	assert.Equal(t, float32(1), owned.Vector()[0])
	assert.Equal(t, RefOwned, owned.Kind())
}

func TestMutableCopiesOnFirstWrite(t *testing.T) {
	backing := []float32{1, 2, 3}
	released := false
	r := newBorrowedRef(backing, func() { released = true })

	m := r.Mutable()
	m[0] = 42
	assert.True(t, released, "Mutable must release the borrowed lock after copying")
	assert.Equal(t, float32(1), backing[0], "original backing slice must be untouched")
	assert.Equal(t, RefOwned, r.Kind())
}
