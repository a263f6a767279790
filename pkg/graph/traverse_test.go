package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds 1 -KNOWS-> 2 -KNOWS-> 3 -KNOWS-> 4 -KNOWS-> 5
func chainStore(t *testing.T) *EdgeStore {
	t.Helper()
	s := NewEdgeStore(NewLabelTable())
	for i := uint64(1); i < 5; i++ {
		_, err := s.AddEdge(i, i, i+1, "KNOWS", nil)
		require.NoError(t, err)
	}
	return s
}

func TestBFSRespectsMaxDepth(t *testing.T) {
	s := chainStore(t)
	results, err := Walk(s, 1, BFS, TraversalOptions{MaxDepth: 2})
	require.NoError(t, err)

	var targets []uint64
	for _, r := range results {
		targets = append(targets, r.TargetID)
	}
	assert.ElementsMatch(t, []uint64{2, 3}, targets)
}

func TestBFSRespectsMinDepth(t *testing.T) {
	s := chainStore(t)
	results, err := Walk(s, 1, BFS, TraversalOptions{MaxDepth: 3, MinDepth: 2})
	require.NoError(t, err)

	var targets []uint64
	for _, r := range results {
		targets = append(targets, r.TargetID)
	}
	assert.ElementsMatch(t, []uint64{3, 4}, targets)
}

func TestTraversalTracksEdgePath(t *testing.T) {
	s := chainStore(t)
	results, err := Walk(s, 1, BFS, TraversalOptions{MaxDepth: 3})
	require.NoError(t, err)

	for _, r := range results {
		if r.TargetID == 4 {
			assert.Equal(t, []uint64{1, 2, 3}, r.Path)
			return
		}
	}
	t.Fatal("expected to reach node 4")
}

func TestTraversalFiltersByLabel(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	_, err := s.AddEdge(1, 1, 2, "KNOWS", nil)
	require.NoError(t, err)
	_, err = s.AddEdge(2, 1, 3, "BLOCKS", nil)
	require.NoError(t, err)

	results, err := Walk(s, 1, BFS, TraversalOptions{MaxDepth: 1, LabelNames: []string{"KNOWS"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(2), results[0].TargetID)
}

func TestTraversalRespectsLimit(t *testing.T) {
	s := chainStore(t)
	results, err := Walk(s, 1, BFS, TraversalOptions{MaxDepth: 4, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestTraversalVisitedOverflowErrors(t *testing.T) {
	s := chainStore(t)
	_, err := Walk(s, 1, BFS, TraversalOptions{MaxDepth: 4, VisitedLimit: 1})
	assert.Error(t, err)
}

func TestDFSAndBFSVisitBranchesInDifferentOrder(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	_, err := s.AddEdge(1, 1, 2, "KNOWS", nil)
	require.NoError(t, err)
	_, err = s.AddEdge(2, 1, 3, "KNOWS", nil)
	require.NoError(t, err)

	bfs := NewIterator(s, 1, BFS, TraversalOptions{MaxDepth: 1})
	first, ok := bfs.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(2), first.TargetID)

	dfs := NewIterator(s, 1, DFS, TraversalOptions{MaxDepth: 1})
	first, ok = dfs.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(3), first.TargetID)
}

func TestMaxDepthIsCappedAndDefaulted(t *testing.T) {
	opts := TraversalOptions{MaxDepth: 1000}.normalized()
	assert.Equal(t, maxDepthCap, opts.MaxDepth)

	opts = TraversalOptions{}.normalized()
	assert.Equal(t, defaultMaxDepth, opts.MaxDepth)
}
