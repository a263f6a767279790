package collection

import (
	"github.com/cyberlife-coder/velesdb/internal/verr"
	"github.com/cyberlife-coder/velesdb/pkg/graph"
)

// AddGraphNode inserts or replaces a labeled graph node sharing the
// point id-space. label and properties follow the same JSON-shaped
// payload convention points use.
func (c *Collection) AddGraphNode(id uint64, label string, properties map[string]any, embedding []float32) *graph.GraphNode {
	node := c.graph.AddNode(id, label, properties, embedding)
	c.graphMu.Lock()
	c.graphNodes[id] = graphNodeDoc{ID: id, Label: label, Properties: properties, Embedding: embedding}
	c.graphMu.Unlock()
	return node
}

// AddGraphEdge inserts a directed, typed edge between two existing node
// ids. pkg/graph's duplicate-edge-id error is returned wrapped with
// verr.KindGraphNotSupported.
func (c *Collection) AddGraphEdge(id, sourceID, targetID uint64, label string, properties map[string]any) (*graph.GraphEdge, error) {
	edge, err := c.graph.AddEdge(id, sourceID, targetID, label, properties)
	if err != nil {
		return nil, verr.Wrap(verr.KindGraphNotSupported, err, "add edge %d", id)
	}
	c.graphMu.Lock()
	c.graphEdges[id] = graphEdgeDoc{ID: id, SourceID: sourceID, TargetID: targetID, Label: label, Properties: properties}
	c.graphMu.Unlock()
	return edge, nil
}

// DeleteGraphNode removes nodeID and every edge incident to it.
func (c *Collection) DeleteGraphNode(nodeID uint64) {
	c.graph.DeleteNode(nodeID)
	c.graphMu.Lock()
	delete(c.graphNodes, nodeID)
	for id, e := range c.graphEdges {
		if e.SourceID == nodeID || e.TargetID == nodeID {
			delete(c.graphEdges, id)
		}
	}
	c.graphMu.Unlock()
}

// Traverse runs a bounded BFS/DFS walk from start, clamping opts'
// MaxDepth to defaultMaxTraversalDepth (100). A MaxDepth of zero or
// less is left to pkg/graph, which defaults it to 3.
func (c *Collection) Traverse(start uint64, mode graph.TraversalMode, opts graph.TraversalOptions) ([]graph.TraversalResult, error) {
	if opts.MaxDepth > defaultMaxTraversalDepth {
		opts.MaxDepth = defaultMaxTraversalDepth
	}
	results, err := c.graph.Walk(start, mode, opts)
	if err != nil {
		return nil, verr.Wrap(verr.KindGraphNotSupported, err, "traverse from %d", start)
	}
	return results, nil
}
