package collection

import (
	"context"

	"github.com/cyberlife-coder/velesdb/internal/verr"
	"github.com/cyberlife-coder/velesdb/pkg/fulltext"
	"github.com/cyberlife-coder/velesdb/pkg/graph"
	"github.com/cyberlife-coder/velesdb/pkg/hnsw"
)

// The methods below satisfy pkg/exec.DataSource and pkg/planner.Stats,
// the two seams that keep the query engine from importing collection
// directly. Nothing here is exported to application callers beyond
// what the operation table already names (Payload, VectorOf, ...);
// they're public only because the interfaces they implement live in
// other packages.

// VectorSearch runs an ANN query against the HNSW index.
func (c *Collection) VectorSearch(ctx context.Context, vector []float32, k int, quality hnsw.Quality) ([]hnsw.Result, error) {
	if c.index == nil {
		return nil, verr.New(verr.KindSearchNotSupported, "collection %s has no vector index", c.path)
	}
	return c.index.Search(ctx, vector, k, quality)
}

// VectorOf returns id's stored vector, if vector storage is enabled
// and id has one.
func (c *Collection) VectorOf(id uint64) ([]float32, bool) {
	if c.vectors == nil {
		return nil, false
	}
	ref, err := c.vectors.Get(id)
	if err != nil {
		return nil, false
	}
	defer ref.Release()
	return append([]float32(nil), ref.Vector()...), true
}

// Payload returns id's stored JSON payload.
func (c *Collection) Payload(id uint64) (map[string]any, bool) {
	c.payloadsMu.RLock()
	defer c.payloadsMu.RUnlock()
	p, ok := c.payloads[id]
	return p, ok
}

// AllIDs returns every live point id, the full-scan fallback's input.
func (c *Collection) AllIDs() []uint64 {
	c.payloadsMu.RLock()
	defer c.payloadsMu.RUnlock()
	ids := make([]uint64, 0, len(c.payloads))
	for id := range c.payloads {
		ids = append(ids, id)
	}
	return ids
}

// IndexLookup resolves an equality predicate through the property index.
func (c *Collection) IndexLookup(property string, value any) []uint64 {
	return c.props.Lookup(pointLabel, property, value)
}

// IndexRange resolves a BETWEEN predicate through the range index.
func (c *Collection) IndexRange(property string, low, high any) []uint64 {
	return c.ranges.Between(pointLabel, property, low, high)
}

// TextSearch runs a BM25 query against the text index.
func (c *Collection) TextSearch(query string, limit int) []fulltext.Result {
	return c.text.Search(query, limit)
}

// GraphWalk runs a bounded BFS/DFS traversal from start.
func (c *Collection) GraphWalk(start uint64, mode graph.TraversalMode, opts graph.TraversalOptions) ([]graph.TraversalResult, error) {
	return c.graph.Walk(start, mode, opts)
}

// GraphNode returns a graph node by id.
func (c *Collection) GraphNode(id uint64) (*graph.GraphNode, bool) {
	return c.graph.Nodes.Get(id)
}

// GraphNodesByLabel returns every node with the given label, the MATCH
// planner's start-set resolver when no id predicate narrows it.
func (c *Collection) GraphNodesByLabel(label string) []*graph.GraphNode {
	return c.graph.Nodes.ByLabel(label)
}

// TotalPoints and the two selectivity estimators satisfy
// pkg/planner.Stats, driving the vector-first/index-first/full-scan
// decision from this collection's own property/range indexes rather
// than a separate sampled statistics pass.
func (c *Collection) TotalPoints() int {
	c.payloadsMu.RLock()
	defer c.payloadsMu.RUnlock()
	return len(c.payloads)
}

func (c *Collection) EqSelectivity(property string, value any) float64 {
	total := c.TotalPoints()
	if total == 0 {
		return 1
	}
	n := c.props.Len(pointLabel, property, value)
	return float64(n) / float64(total)
}

func (c *Collection) RangeSelectivity(property string, low, high any) float64 {
	total := c.TotalPoints()
	if total == 0 {
		return 1
	}
	n := len(c.ranges.Between(pointLabel, property, low, high))
	return float64(n) / float64(total)
}
