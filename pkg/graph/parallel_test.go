package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelTraverseMergesAcrossStarts(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	_, err := s.AddEdge(1, 1, 2, "KNOWS", nil)
	require.NoError(t, err)
	_, err = s.AddEdge(2, 10, 20, "KNOWS", nil)
	require.NoError(t, err)

	results, err := ParallelTraverse(s, []uint64{1, 10}, BFS, TraversalOptions{MaxDepth: 1}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestParallelTraverseDedupesIdenticalPaths(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	_, err := s.AddEdge(1, 1, 2, "KNOWS", nil)
	require.NoError(t, err)

	results, err := ParallelTraverse(s, []uint64{1, 1, 1}, BFS, TraversalOptions{MaxDepth: 1}, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestParallelTraverseBelowThresholdRunsSequentially(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	_, err := s.AddEdge(1, 1, 2, "KNOWS", nil)
	require.NoError(t, err)

	results, err := ParallelTraverse(s, []uint64{1}, BFS, TraversalOptions{MaxDepth: 1}, 100)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(2), results[0].TargetID)
}

func TestPathSignatureDiffersByStart(t *testing.T) {
	r := TraversalResult{TargetID: 2, Depth: 1, Path: []uint64{1}}
	sigA := pathSignature(1, r)
	sigB := pathSignature(2, r)
	assert.NotEqual(t, sigA, sigB)
}
