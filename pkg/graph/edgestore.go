package graph

import (
	"sync"

	"github.com/cyberlife-coder/velesdb/internal/verr"
)

// numShards is the shard count for the concurrent edge store. Edges are
// partitioned by source_id mod numShards, not by edge id, so all of a
// given node's outgoing edges live in the same shard. Its incoming edges
// live in their sources' shards.
const numShards = 16

// GraphEdge is a directed, typed relation between two node ids sharing
// VelesDB's point id-space.
type GraphEdge struct {
	ID         uint64
	SourceID   uint64
	TargetID   uint64
	LabelID    uint32
	Properties map[string]any
}

type edgeShard struct {
	mu       sync.RWMutex
	edges    map[uint64]*GraphEdge   // edge id -> edge
	outgoing map[uint64][]uint64     // source id (in this shard) -> edge ids
}

func newEdgeShard() *edgeShard {
	return &edgeShard{
		edges:    make(map[uint64]*GraphEdge),
		outgoing: make(map[uint64][]uint64),
	}
}

// EdgeStore is the concurrent, 16-way sharded typed-edge store. Every edge
// lives in exactly one shard, selected by source_id mod numShards; a
// global id->source map lets AddEdge and GetEdge find an edge's shard
// without scanning every shard, and lets AddEdge reject duplicate ids in
// O(1).
type EdgeStore struct {
	Labels *LabelTable

	shards [numShards]*edgeShard

	idMu      sync.RWMutex
	idToShard map[uint64]uint64 // edge id -> source id, for shard lookup + dup detection
}

// NewEdgeStore returns an empty EdgeStore backed by labels for edge-type
// interning. Pass a fresh LabelTable per graph store instance.
func NewEdgeStore(labels *LabelTable) *EdgeStore {
	s := &EdgeStore{
		Labels:    labels,
		idToShard: make(map[uint64]uint64),
	}
	for i := range s.shards {
		s.shards[i] = newEdgeShard()
	}
	return s
}

func shardIndex(sourceID uint64) int {
	return int(sourceID % numShards)
}

// AddEdge inserts a new edge. It returns verr.KindStorage if id already
// exists: VelesDB has no in-place edge update, callers must delete the
// old edge and add the replacement.
func (s *EdgeStore) AddEdge(id, sourceID, targetID uint64, labelName string, properties map[string]any) (*GraphEdge, error) {
	s.idMu.Lock()
	if _, exists := s.idToShard[id]; exists {
		s.idMu.Unlock()
		return nil, verr.New(verr.KindStorage, "edge %d already exists, delete before re-adding", id)
	}
	s.idToShard[id] = sourceID
	s.idMu.Unlock()

	edge := &GraphEdge{
		ID:         id,
		SourceID:   sourceID,
		TargetID:   targetID,
		LabelID:    s.Labels.Intern(labelName),
		Properties: properties,
	}

	shard := s.shards[shardIndex(sourceID)]
	shard.mu.Lock()
	shard.edges[id] = edge
	shard.outgoing[sourceID] = append(shard.outgoing[sourceID], id)
	shard.mu.Unlock()

	return edge, nil
}

// GetEdge returns the edge with id, if present.
func (s *EdgeStore) GetEdge(id uint64) (*GraphEdge, bool) {
	s.idMu.RLock()
	sourceID, ok := s.idToShard[id]
	s.idMu.RUnlock()
	if !ok {
		return nil, false
	}

	shard := s.shards[shardIndex(sourceID)]
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	edge, ok := shard.edges[id]
	return edge, ok
}

// DeleteEdge removes the edge with id, a no-op if it isn't present.
func (s *EdgeStore) DeleteEdge(id uint64) {
	s.idMu.Lock()
	sourceID, ok := s.idToShard[id]
	if !ok {
		s.idMu.Unlock()
		return
	}
	delete(s.idToShard, id)
	s.idMu.Unlock()

	shard := s.shards[shardIndex(sourceID)]
	shard.mu.Lock()
	delete(shard.edges, id)
	shard.outgoing[sourceID] = removeID(shard.outgoing[sourceID], id)
	if len(shard.outgoing[sourceID]) == 0 {
		delete(shard.outgoing, sourceID)
	}
	shard.mu.Unlock()
}

func removeID(ids []uint64, target uint64) []uint64 {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// OutgoingEdges returns every edge whose source is sourceID.
func (s *EdgeStore) OutgoingEdges(sourceID uint64) []*GraphEdge {
	shard := s.shards[shardIndex(sourceID)]
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	ids := shard.outgoing[sourceID]
	out := make([]*GraphEdge, 0, len(ids))
	for _, id := range ids {
		if e, ok := shard.edges[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// IncomingEdges returns every edge whose target is targetID. There is no
// target-indexed shortcut, so this scans all shards, matching the
// cascade-delete walk described for node removal.
func (s *EdgeStore) IncomingEdges(targetID uint64) []*GraphEdge {
	var out []*GraphEdge
	for i := 0; i < numShards; i++ {
		shard := s.shards[i]
		shard.mu.RLock()
		for _, e := range shard.edges {
			if e.TargetID == targetID {
				out = append(out, e)
			}
		}
		shard.mu.RUnlock()
	}
	return out
}

// DeleteNode removes every edge incident to nodeID: outgoing edges from
// nodeID's own shard, and incoming edges found by scanning all shards.
// Shards are always visited in ascending index order, which is also the
// lock order used by every other cross-shard operation, so concurrent
// DeleteNode calls can never deadlock against each other.
func (s *EdgeStore) DeleteNode(nodeID uint64) (removed int) {
	ownShard := shardIndex(nodeID)

	for i := 0; i < numShards; i++ {
		shard := s.shards[i]
		shard.mu.Lock()
		var toDelete []uint64
		if i == ownShard {
			toDelete = append(toDelete, shard.outgoing[nodeID]...)
		}
		for id, e := range shard.edges {
			if e.TargetID == nodeID && e.SourceID != nodeID {
				toDelete = append(toDelete, id)
			}
		}
		for _, id := range toDelete {
			e := shard.edges[id]
			delete(shard.edges, id)
			shard.outgoing[e.SourceID] = removeID(shard.outgoing[e.SourceID], id)
			if len(shard.outgoing[e.SourceID]) == 0 {
				delete(shard.outgoing, e.SourceID)
			}
		}
		removed += len(toDelete)
		shard.mu.Unlock()
	}

	// idToShard entries for deleted edges are pruned here, after the
	// shard locks are released. pruneIDIndex takes idMu and then each
	// shard's read lock in turn; AddEdge and DeleteEdge release idMu
	// before taking a shard lock, so they never hold both.
	s.pruneIDIndex()

	return removed
}

func (s *EdgeStore) pruneIDIndex() {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	for id, sourceID := range s.idToShard {
		shard := s.shards[shardIndex(sourceID)]
		shard.mu.RLock()
		_, live := shard.edges[id]
		shard.mu.RUnlock()
		if !live {
			delete(s.idToShard, id)
		}
	}
}

// EdgeCount returns the total number of edges across all shards.
func (s *EdgeStore) EdgeCount() int {
	total := 0
	for i := 0; i < numShards; i++ {
		shard := s.shards[i]
		shard.mu.RLock()
		total += len(shard.edges)
		shard.mu.RUnlock()
	}
	return total
}
