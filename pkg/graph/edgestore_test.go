package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeRejectsDuplicateID(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	_, err := s.AddEdge(1, 10, 20, "KNOWS", nil)
	require.NoError(t, err)

	_, err = s.AddEdge(1, 30, 40, "KNOWS", nil)
	assert.Error(t, err)
}

func TestOutgoingAndIncomingEdges(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	_, err := s.AddEdge(1, 10, 20, "KNOWS", nil)
	require.NoError(t, err)
	_, err = s.AddEdge(2, 10, 30, "KNOWS", nil)
	require.NoError(t, err)
	_, err = s.AddEdge(3, 20, 30, "LIKES", nil)
	require.NoError(t, err)

	out := s.OutgoingEdges(10)
	assert.Len(t, out, 2)

	in := s.IncomingEdges(30)
	assert.Len(t, in, 2)
}

func TestDeleteEdgeRemovesFromShard(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	_, err := s.AddEdge(1, 10, 20, "KNOWS", nil)
	require.NoError(t, err)

	s.DeleteEdge(1)
	_, ok := s.GetEdge(1)
	assert.False(t, ok)
	assert.Empty(t, s.OutgoingEdges(10))
}

func TestDeleteNodeCascadesOutgoingAndIncoming(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	_, err := s.AddEdge(1, 10, 20, "KNOWS", nil)
	require.NoError(t, err)
	_, err = s.AddEdge(2, 30, 20, "KNOWS", nil)
	require.NoError(t, err)
	_, err = s.AddEdge(3, 20, 40, "KNOWS", nil)
	require.NoError(t, err)

	removed := s.DeleteNode(20)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, s.EdgeCount())
}

func TestEdgeLabelsAreInterned(t *testing.T) {
	s := NewEdgeStore(NewLabelTable())
	e1, err := s.AddEdge(1, 10, 20, "KNOWS", nil)
	require.NoError(t, err)
	e2, err := s.AddEdge(2, 30, 40, "KNOWS", nil)
	require.NoError(t, err)

	assert.Equal(t, e1.LabelID, e2.LabelID)
	name, ok := s.Labels.Name(e1.LabelID)
	require.True(t, ok)
	assert.Equal(t, "KNOWS", name)
}
