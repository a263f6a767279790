package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, dim int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Open(path, dim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreAndGetRoundTrip(t *testing.T) {
	s := openTestStore(t, 4)
	vec := []float32{1, 2, 3, 4}
	require.NoError(t, s.Store(1, vec))

	ref, err := s.Get(1)
	require.NoError(t, err)
	defer ref.Release()
	assert.Equal(t, vec, ref.Vector())
}

func TestStoreRejectsDuplicateID(t *testing.T) {
	s := openTestStore(t, 2)
	require.NoError(t, s.Store(1, []float32{1, 2}))
	err := s.Store(1, []float32{3, 4})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestStoreRejectsWrongDimension(t *testing.T) {
	s := openTestStore(t, 3)
	err := s.Store(1, []float32{1, 2})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestGetMissingIDReturnsNotFound(t *testing.T) {
	s := openTestStore(t, 2)
	_, err := s.Get(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsSoftAndPostFiltersReads(t *testing.T) {
	s := openTestStore(t, 2)
	require.NoError(t, s.Store(5, []float32{1, 1}))
	require.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(5))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.DeletedLen())

	_, err := s.Get(5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUnknownIDReturnsNotFound(t *testing.T) {
	s := openTestStore(t, 2)
	assert.ErrorIs(t, s.Delete(42), ErrNotFound)
}

func TestCompactReclaimsDeletedRecords(t *testing.T) {
	s := openTestStore(t, 2)
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, s.Store(i, []float32{float32(i), float32(i)}))
	}
	require.NoError(t, s.Delete(2))
	require.NoError(t, s.Delete(4))
	require.Equal(t, 3, s.Len())

	require.NoError(t, s.Compact())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 0, s.DeletedLen())

	for _, id := range []uint64{1, 3, 5} {
		ref, err := s.Get(id)
		require.NoError(t, err)
		assert.Equal(t, []float32{float32(id), float32(id)}, ref.Vector())
		ref.Release()
	}
	for _, id := range []uint64{2, 4} {
		_, err := s.Get(id)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestReserveCapacityAvoidsPerInsertGrowth(t *testing.T) {
	s := openTestStore(t, 8)
	require.NoError(t, s.ReserveCapacity(1000))
	for i := uint64(1); i <= 100; i++ {
		require.NoError(t, s.Store(i, make([]float32, 8)))
	}
	assert.Equal(t, 100, s.Len())
}

func TestFlushSucceedsOnEmptyAndPopulatedStore(t *testing.T) {
	s := openTestStore(t, 3)
	require.NoError(t, s.Flush())
	require.NoError(t, s.Store(1, []float32{1, 2, 3}))
	require.NoError(t, s.Flush())
}

func TestStoreAsyncRoundTrip(t *testing.T) {
	s := openTestStore(t, 2)
	ctx := context.Background()
	require.NoError(t, s.StoreAsync(ctx, 1, []float32{9, 9}))
	ref, err := s.Get(1)
	require.NoError(t, err)
	defer ref.Release()
	assert.Equal(t, []float32{9, 9}, ref.Vector())
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.dat")

	s1, err := Open(path, 4)
	require.NoError(t, err)
	require.NoError(t, s1.Store(1, []float32{1, 2, 3, 4}))
	require.NoError(t, s1.Store(2, []float32{5, 6, 7, 8}))
	require.NoError(t, s1.Delete(2))
	require.NoError(t, s1.Flush())
	require.NoError(t, s1.Close())

	s2, err := Open(path, 4)
	require.NoError(t, err)
	defer s2.Close()

	assert.Equal(t, 1, s2.Len())
	ref, err := s2.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, ref.Vector())
	ref.Release()

	_, err = s2.Get(2)
	assert.ErrorIs(t, err, ErrNotFound)
}
