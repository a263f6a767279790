package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappedRegionGrowZeroFillsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")
	r, err := OpenMappedRegion(path, 0)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Grow(16))
	assert.Len(t, r.Bytes(), 16)
	for _, b := range r.Bytes() {
		assert.Equal(t, byte(0), b)
	}
}

func TestMappedRegionPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")
	r, err := OpenMappedRegion(path, 8)
	require.NoError(t, err)
	copy(r.Bytes(), []byte{1, 2, 3, 4})
	require.NoError(t, r.Sync())
	require.NoError(t, r.Close())

	r2, err := OpenMappedRegion(path, 0)
	require.NoError(t, err)
	defer r2.Close()
	assert.Equal(t, []byte{1, 2, 3, 4}, r2.Bytes()[:4])
}
