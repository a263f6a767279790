// Package graph implements VelesDB's concurrent typed-edge graph store:
// labeled nodes and directed, typed edges sharing the collection's u64
// id-space, sharded 16 ways by source/node id for parallel access, with
// BFS/DFS traversal bounded against pathological or cyclic graphs.
package graph

// Store is the concurrent graph store a Collection owns: one
// LabelTable shared by nodes and edges, a NodeStore, and an EdgeStore.
// Label ids outlive individual edges and nodes, so the table lives on
// the Store itself rather than on either half.
type Store struct {
	Labels *LabelTable
	Nodes  *NodeStore
	Edges  *EdgeStore
}

// NewStore returns an empty graph store.
func NewStore() *Store {
	labels := NewLabelTable()
	return &Store{
		Labels: labels,
		Nodes:  NewNodeStore(labels),
		Edges:  NewEdgeStore(labels),
	}
}

// AddNode inserts or replaces a labeled node.
func (s *Store) AddNode(id uint64, label string, properties map[string]any, embedding []float32) *GraphNode {
	return s.Nodes.Put(id, label, properties, embedding)
}

// AddEdge inserts a new typed edge; see EdgeStore.AddEdge for the
// duplicate-id error case.
func (s *Store) AddEdge(id, sourceID, targetID uint64, label string, properties map[string]any) (*GraphEdge, error) {
	return s.Edges.AddEdge(id, sourceID, targetID, label, properties)
}

// DeleteNode removes nodeID and cascades: every edge with nodeID as
// source or target is removed too.
func (s *Store) DeleteNode(nodeID uint64) {
	s.Nodes.Delete(nodeID)
	s.Edges.DeleteNode(nodeID)
}

// Walk runs a single-start BFS/DFS traversal.
func (s *Store) Walk(start uint64, mode TraversalMode, opts TraversalOptions) ([]TraversalResult, error) {
	return Walk(s.Edges, start, mode, opts)
}

// ParallelWalk runs a multi-start traversal, deduplicating by path
// signature once the start count reaches threshold.
func (s *Store) ParallelWalk(starts []uint64, mode TraversalMode, opts TraversalOptions, threshold int) ([]TraversalResult, error) {
	return ParallelTraverse(s.Edges, starts, mode, opts, threshold)
}

// NodeCount and EdgeCount report store size, for CollectionStats.
func (s *Store) NodeCount() int { return s.Nodes.Len() }
func (s *Store) EdgeCount() int { return s.Edges.EdgeCount() }
