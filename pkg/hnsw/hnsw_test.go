package hnsw

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberlife-coder/velesdb/pkg/distance"
)

func randomVector(dim int, r *rand.Rand) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = r.Float32()*2 - 1
	}
	return v
}

func TestInsertAndSearchFindsExactMatch(t *testing.T) {
	g := New(8, DefaultConfig(distance.Cosine), nil)
	r := rand.New(rand.NewSource(1))

	target := randomVector(8, r)
	require.NoError(t, g.Insert(1, target))
	for i := uint64(2); i <= 50; i++ {
		require.NoError(t, g.Insert(i, randomVector(8, r)))
	}

	results, err := g.Search(context.Background(), target, 5, Perfect)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(1), results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	g := New(4, DefaultConfig(distance.Euclidean), nil)
	require.NoError(t, g.Insert(1, []float32{1, 2, 3, 4}))
	err := g.Insert(1, []float32{1, 2, 3, 4})
	assert.Error(t, err)
}

func TestInsertRejectsDimensionMismatch(t *testing.T) {
	g := New(4, DefaultConfig(distance.Euclidean), nil)
	err := g.Insert(1, []float32{1, 2, 3})
	assert.Error(t, err)
}

func TestSearchOnEmptyGraphReturnsNoResults(t *testing.T) {
	g := New(4, DefaultConfig(distance.Cosine), nil)
	results, err := g.Search(context.Background(), []float32{1, 0, 0, 0}, 5, Balanced)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteFiltersFromSearchResults(t *testing.T) {
	g := New(4, DefaultConfig(distance.Euclidean), nil)
	r := rand.New(rand.NewSource(2))
	target := []float32{0, 0, 0, 0}
	require.NoError(t, g.Insert(1, target))
	for i := uint64(2); i <= 20; i++ {
		require.NoError(t, g.Insert(i, randomVector(4, r)))
	}

	assert.True(t, g.Delete(1))
	assert.False(t, g.Delete(1)) // already gone

	results, err := g.Search(context.Background(), target, 3, Perfect)
	require.NoError(t, err)
	for _, res := range results {
		assert.NotEqual(t, uint64(1), res.ID)
	}
	assert.Equal(t, 19, g.Len())
	assert.Equal(t, 1, g.DeletedLen())
}

func TestNeighborListsNeverExceedConfiguredCap(t *testing.T) {
	cfg := DefaultConfig(distance.Cosine)
	cfg.M = 4
	cfg.EfConstruction = 32
	g := New(6, cfg, nil)
	r := rand.New(rand.NewSource(3))
	for i := uint64(1); i <= 80; i++ {
		require.NoError(t, g.Insert(i, randomVector(6, r)))
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, n := range g.nodes {
		for level, neighbors := range n.neighbors {
			capN := cfg.M
			if level == 0 {
				capN = cfg.mmax0()
			}
			assert.LessOrEqualf(t, len(neighbors), capN, "level %d", level)
		}
	}
}

func TestParallelInsertMatchesSequentialInsert(t *testing.T) {
	g := New(4, DefaultConfig(distance.Euclidean), nil)
	r := rand.New(rand.NewSource(4))
	ids := make([]uint64, 30)
	vecs := make([][]float32, 30)
	for i := range ids {
		ids[i] = uint64(i + 1)
		vecs[i] = randomVector(4, r)
	}
	require.NoError(t, g.ParallelInsert(context.Background(), ids, vecs))
	assert.Equal(t, 30, g.Len())
}

func TestQualityEfSearchMapping(t *testing.T) {
	assert.Equal(t, 16, Fast.EfSearch())
	assert.Equal(t, 64, Balanced.EfSearch())
	assert.Equal(t, 128, Accurate.EfSearch())
	assert.Equal(t, 200, HighRecall.EfSearch())
	assert.Equal(t, 400, Perfect.EfSearch())
}

func TestEfSearchOverrideClampsToMax(t *testing.T) {
	cfg := DefaultConfig(distance.Cosine)
	cfg.EfSearch = 100000
	assert.Equal(t, maxEfSearch, cfg.efSearch())
}
