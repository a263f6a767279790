package hnsw

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberlife-coder/velesdb/pkg/distance"
)

func TestDumpAndLoadRoundTripsSearchResults(t *testing.T) {
	g := New(8, DefaultConfig(distance.Euclidean), nil)
	r := rand.New(rand.NewSource(7))
	vectors := make(map[uint64][]float32)
	for i := uint64(1); i <= 40; i++ {
		v := randomVector(8, r)
		vectors[i] = v
		require.NoError(t, g.Insert(i, v))
	}
	require.True(t, g.Delete(5))

	prefix := filepath.Join(t.TempDir(), "graph")
	require.NoError(t, g.Dump(prefix))

	loaded, err := Load(prefix)
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, g.Len(), loaded.Len())
	assert.Equal(t, g.DeletedLen(), loaded.DeletedLen())

	query := vectors[10]
	results, err := loaded.Search(context.Background(), query, 1, Perfect)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(10), results[0].ID)

	deletedResults, err := loaded.Search(context.Background(), vectors[5], 40, Perfect)
	require.NoError(t, err)
	for _, res := range deletedResults {
		assert.NotEqual(t, uint64(5), res.ID)
	}
}

func TestCloseIsIdempotentAndSafeOnFreshGraph(t *testing.T) {
	g := New(4, DefaultConfig(distance.Cosine), nil)
	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
}
