package graph

import (
	"github.com/cyberlife-coder/velesdb/internal/verr"
)

// TraversalMode selects breadth-first or depth-first expansion order.
type TraversalMode int

const (
	BFS TraversalMode = iota
	DFS
)

const (
	defaultMaxDepth  = 3
	maxDepthCap      = 100
	defaultVisitCap  = 100_000
)

// TraversalOptions bounds a graph walk. MaxDepth defaults to 3 and is
// capped at 100 regardless of what's requested, to keep a pathological
// or cyclic graph from running forever. VisitedLimit bounds total
// visited nodes for the same reason.
type TraversalOptions struct {
	MaxDepth     int
	MinDepth     int
	LabelNames   []string
	Limit        int
	VisitedLimit int
}

func (o TraversalOptions) normalized() TraversalOptions {
	n := o
	if n.MaxDepth <= 0 {
		n.MaxDepth = defaultMaxDepth
	}
	if n.MaxDepth > maxDepthCap {
		n.MaxDepth = maxDepthCap
	}
	if n.VisitedLimit <= 0 {
		n.VisitedLimit = defaultVisitCap
	}
	return n
}

// TraversalResult is one reachable node yielded by a traversal: the node
// reached, its depth from the start, and the edge-id path taken to get
// there.
type TraversalResult struct {
	TargetID uint64
	Depth    int
	Path     []uint64
}

type frontierItem struct {
	nodeID uint64
	depth  int
	path   []uint64
}

// BfsIterator streams traversal results lazily, so a caller can stop
// pulling results as soon as it has enough without materializing the
// whole reachable set.
type BfsIterator struct {
	store       *EdgeStore
	opts        TraversalOptions
	mode        TraversalMode
	queue       []frontierItem
	visited     map[uint64]struct{}
	labelFilter map[uint32]struct{}
	yielded     int
	err         error
}

// NewIterator returns a lazy traversal iterator starting at start.
func NewIterator(store *EdgeStore, start uint64, mode TraversalMode, opts TraversalOptions) *BfsIterator {
	norm := opts.normalized()

	it := &BfsIterator{
		store:   store,
		opts:    norm,
		mode:    mode,
		queue:   []frontierItem{{nodeID: start, depth: 0, path: nil}},
		visited: map[uint64]struct{}{start: {}},
	}
	if len(norm.LabelNames) > 0 {
		it.labelFilter = make(map[uint32]struct{}, len(norm.LabelNames))
		for _, name := range norm.LabelNames {
			if id, ok := store.Labels.ID(name); ok {
				it.labelFilter[id] = struct{}{}
			}
		}
	}
	return it
}

// Err returns the error that stopped iteration early, if any (currently
// only the visited-set overflow bound).
func (it *BfsIterator) Err() error {
	return it.err
}

func (it *BfsIterator) matchesLabel(e *GraphEdge) bool {
	if it.labelFilter == nil {
		return true
	}
	_, ok := it.labelFilter[e.LabelID]
	return ok
}

func (it *BfsIterator) pop() (frontierItem, bool) {
	if len(it.queue) == 0 {
		return frontierItem{}, false
	}
	if it.mode == DFS {
		last := len(it.queue) - 1
		item := it.queue[last]
		it.queue = it.queue[:last]
		return item, true
	}
	item := it.queue[0]
	it.queue = it.queue[1:]
	return item, true
}

// Next returns the next reachable result, or ok=false once the
// traversal is exhausted (or Err() is set).
func (it *BfsIterator) Next() (TraversalResult, bool) {
	if it.err != nil {
		return TraversalResult{}, false
	}
	if it.opts.Limit > 0 && it.yielded >= it.opts.Limit {
		return TraversalResult{}, false
	}

	for {
		item, ok := it.pop()
		if !ok {
			return TraversalResult{}, false
		}
		var edges []*GraphEdge
		if item.depth < it.opts.MaxDepth {
			edges = it.store.OutgoingEdges(item.nodeID)
		}

		for _, e := range edges {
			if !it.matchesLabel(e) {
				continue
			}
			if _, seen := it.visited[e.TargetID]; seen {
				continue
			}
			if len(it.visited) >= it.opts.VisitedLimit {
				it.err = verr.New(verr.KindQuery, "traversal visited more than %d nodes", it.opts.VisitedLimit)
				return TraversalResult{}, false
			}
			it.visited[e.TargetID] = struct{}{}

			path := make([]uint64, len(item.path)+1)
			copy(path, item.path)
			path[len(item.path)] = e.ID
			depth := item.depth + 1

			it.queue = append(it.queue, frontierItem{nodeID: e.TargetID, depth: depth, path: path})
		}

		if item.depth == 0 || item.depth < it.opts.MinDepth {
			continue
		}
		it.yielded++
		return TraversalResult{TargetID: item.nodeID, Depth: item.depth, Path: item.path}, true
	}
}

// Walk drains a BfsIterator into a slice, for callers that don't need
// the streaming form.
func Walk(store *EdgeStore, start uint64, mode TraversalMode, opts TraversalOptions) ([]TraversalResult, error) {
	it := NewIterator(store, start, mode, opts)
	var out []TraversalResult
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, r)
	}
	return out, it.Err()
}
