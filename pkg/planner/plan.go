// Package planner chooses an execution strategy for a parsed VelesQL
// query and compiles it into a Plan that pkg/exec can run: which
// access path to take first (vector search, an equality/range index,
// or a full scan), what residual filtering to apply afterward, and
// how to order/limit the result.
package planner

import (
	"github.com/cyberlife-coder/velesdb/pkg/filter"
	"github.com/cyberlife-coder/velesdb/pkg/graph"
	"github.com/cyberlife-coder/velesdb/pkg/hnsw"
	"github.com/cyberlife-coder/velesdb/pkg/velesql"
)

// Strategy names the access path a Plan takes first.
type Strategy int

const (
	// FullScan evaluates every stored point against the residual
	// filter; the fallback when nothing more selective is available.
	FullScan Strategy = iota
	// VectorFirst runs ANN search first, then applies any remaining
	// metadata predicate to the candidate set (post-filter).
	VectorFirst
	// IndexFirst uses a property/range index to narrow to a small
	// candidate set, then scores or filters survivors.
	IndexFirst
	// GraphTraversal walks the graph store from one or more start
	// nodes, for MATCH queries.
	GraphTraversal
)

func (s Strategy) String() string {
	switch s {
	case VectorFirst:
		return "vector-first"
	case IndexFirst:
		return "index-first"
	case GraphTraversal:
		return "graph-traversal"
	default:
		return "full-scan"
	}
}

// indexSelectivityThreshold is the "<0.5% of rows" cutoff for
// preferring an equality/range index over a vector-first scan.
const indexSelectivityThreshold = 0.005

// metadataSelectivityThreshold applies to a query with no vector
// predicate: an equality/range predicate matching at most 30% of rows
// seeds IndexFirst, and anything coarser falls back to FullScan.
const metadataSelectivityThreshold = 0.30

// IndexLookup names one property-index or range-index access the plan
// can use to seed IndexFirst execution.
type IndexLookup struct {
	Label    string
	Property string
	Eq       any
	Range    bool
	Low, High any
}

// Plan is the compiled, ready-to-execute form of one VelesQL query.
type Plan struct {
	Strategy Strategy
	Query    *velesql.Query

	// VectorFirst / hybrid fields.
	VectorQuery []float32
	FusedQuery  [][]float32
	Fusion      *velesql.FusionClause
	TopK        int
	Quality     hnsw.Quality

	// IndexFirst fields.
	Lookup *IndexLookup

	// GraphTraversal fields.
	StartIDs    []uint64
	StartLookup *IndexLookup
	Mode        graph.TraversalMode
	TraverseOpt graph.TraversalOptions

	// Residual filter applied to whatever the access path produced.
	Residual *filter.Condition

	OrderBy []velesql.OrderItem
	Limit   int
	Offset  int
}

// Explain renders a one-line, human-readable description of the plan,
// for the EXPLAIN/ANALYZE surface.
func (p *Plan) Explain() string {
	switch p.Strategy {
	case VectorFirst:
		return "VectorFirst(k=" + itoa(p.TopK) + ", quality=" + p.Quality.String() + ") -> ResidualFilter -> Sort/Limit"
	case IndexFirst:
		return "IndexFirst(" + p.Lookup.Label + "." + p.Lookup.Property + ") -> Score -> Sort/Limit"
	case GraphTraversal:
		return "GraphTraversal(mode=" + modeName(p.Mode) + ", maxDepth=" + itoa(p.TraverseOpt.MaxDepth) + ")"
	default:
		return "FullScan -> ResidualFilter -> Sort/Limit"
	}
}

func modeName(m graph.TraversalMode) string {
	if m == graph.DFS {
		return "dfs"
	}
	return "bfs"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
