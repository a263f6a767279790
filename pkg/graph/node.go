package graph

import "sync"

// GraphNode is an optional labeled entity sharing VelesDB's point
// id-space: a node can be the same u64 id as a vector point, carrying
// its own label and property map, with an optional embedding for
// similarity-aware graph queries.
type GraphNode struct {
	ID         uint64
	LabelID    uint32
	Properties map[string]any
	Embedding  []float32
}

type nodeShard struct {
	mu    sync.RWMutex
	nodes map[uint64]*GraphNode
}

// NodeStore is a 16-way sharded map of GraphNode, id mod numShards,
// mirroring EdgeStore's sharding so both halves of a graph store scale
// the same way under concurrent access.
type NodeStore struct {
	Labels *LabelTable
	shards [numShards]*nodeShard
}

// NewNodeStore returns an empty NodeStore sharing labels with the rest
// of the graph store.
func NewNodeStore(labels *LabelTable) *NodeStore {
	s := &NodeStore{Labels: labels}
	for i := range s.shards {
		s.shards[i] = &nodeShard{nodes: make(map[uint64]*GraphNode)}
	}
	return s
}

func (s *NodeStore) shardFor(id uint64) *nodeShard {
	return s.shards[shardIndex(id)]
}

// Put inserts or replaces the node with id.
func (s *NodeStore) Put(id uint64, labelName string, properties map[string]any, embedding []float32) *GraphNode {
	n := &GraphNode{
		ID:         id,
		LabelID:    s.Labels.Intern(labelName),
		Properties: properties,
		Embedding:  embedding,
	}
	shard := s.shardFor(id)
	shard.mu.Lock()
	shard.nodes[id] = n
	shard.mu.Unlock()
	return n
}

// Get returns the node with id, if present.
func (s *NodeStore) Get(id uint64) (*GraphNode, bool) {
	shard := s.shardFor(id)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	n, ok := shard.nodes[id]
	return n, ok
}

// Delete removes the node with id, a no-op if it isn't present.
func (s *NodeStore) Delete(id uint64) {
	shard := s.shardFor(id)
	shard.mu.Lock()
	delete(shard.nodes, id)
	shard.mu.Unlock()
}

// Len returns the total number of stored nodes.
func (s *NodeStore) Len() int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.nodes)
		shard.mu.RUnlock()
	}
	return total
}

// ByLabel returns every node interned under labelName, for label-scoped
// MATCH patterns. This scans all shards; callers doing this often should
// keep a property index instead (pkg/propindex), which this store does
// not duplicate.
func (s *NodeStore) ByLabel(labelName string) []*GraphNode {
	id, ok := s.Labels.ID(labelName)
	if !ok {
		return nil
	}
	var out []*GraphNode
	for _, shard := range s.shards {
		shard.mu.RLock()
		for _, n := range shard.nodes {
			if n.LabelID == id {
				out = append(out, n)
			}
		}
		shard.mu.RUnlock()
	}
	return out
}
