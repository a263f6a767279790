package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexSetGetDelete(t *testing.T) {
	idx := NewIndex()
	idx.Set(42, 1000)
	v, ok := idx.Get(42)
	require.True(t, ok)
	assert.EqualValues(t, 1000, v)

	idx.Delete(42)
	_, ok = idx.Get(42)
	assert.False(t, ok)
}

func TestIndexLenMatchesShardSum(t *testing.T) {
	idx := NewIndex()
	for i := uint64(0); i < 500; i++ {
		idx.Set(i, i*8)
	}
	assert.Equal(t, 500, idx.Len())
}

func TestIndexRoundTripsThroughMap(t *testing.T) {
	idx := NewIndex()
	for i := uint64(0); i < 64; i++ {
		idx.Set(i, i+1)
	}
	m := idx.ToMap()
	restored := FromMap(m)
	assert.Equal(t, idx.Len(), restored.Len())
	for k, v := range m {
		got, ok := restored.Get(k)
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}

func TestMappingsRegisterIsOncePerID(t *testing.T) {
	m := NewMappings()
	idx1, ok := m.Register(7)
	require.True(t, ok)

	_, ok = m.Register(7)
	assert.False(t, ok, "duplicate register must return (0, false)")

	ext, ok := m.InternalToExternal(idx1)
	require.True(t, ok)
	assert.EqualValues(t, 7, ext)
}

func TestMappingsUnmapRemovesForwardOnly(t *testing.T) {
	m := NewMappings()
	idx, _ := m.Register(99)
	m.Unmap(99)

	_, ok := m.ExternalToInternal(99)
	assert.False(t, ok)

	// reverse entry is harmless-stale; not part of the public contract
	// but must not panic.
	_, _ = m.InternalToExternal(idx)
}

func TestMappingsAllRestoreAllRoundTrip(t *testing.T) {
	m := NewMappings()
	for i := uint64(0); i < 32; i++ {
		m.Register(i * 10)
	}
	pairs := m.All()
	m2 := NewMappings()
	m2.RestoreAll(pairs)
	m2.SetNextIndex(m.NextIndex())

	for ext, idx := range pairs {
		gotIdx, ok := m2.ExternalToInternal(ext)
		require.True(t, ok)
		assert.Equal(t, idx, gotIdx)
		gotExt, ok := m2.InternalToExternal(idx)
		require.True(t, ok)
		assert.Equal(t, ext, gotExt)
	}
	assert.Equal(t, m.NextIndex(), m2.NextIndex())
}
