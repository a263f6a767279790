package planner

import (
	"fmt"

	"github.com/cyberlife-coder/velesdb/pkg/graph"
	"github.com/cyberlife-coder/velesdb/pkg/hnsw"
	"github.com/cyberlife-coder/velesdb/pkg/velesql"
)

// Stats supplies the cardinality estimates a Planner needs to choose
// between strategies: total point count and, for a given property
// predicate, the estimated fraction of points it would match.
// Collection's property and range indexes back this in production;
// tests can supply a fixed-answer fake.
type Stats interface {
	TotalPoints() int
	EqSelectivity(property string, value any) float64
	RangeSelectivity(property string, low, high any) float64
}

// Planner compiles a parsed VelesQL query into an executable Plan.
type Planner struct {
	stats          Stats
	defaultTopK    int
	defaultQuality hnsw.Quality
}

// New returns a Planner backed by stats, defaulting TopK and search
// quality for queries that don't specify their own LIMIT/WITH option.
func New(stats Stats) *Planner {
	return &Planner{stats: stats, defaultTopK: 10, defaultQuality: hnsw.Balanced}
}

// Plan compiles q against params, which must already have passed
// velesql.Validate.
func (pl *Planner) Plan(q *velesql.Query, params map[string]any) (*Plan, error) {
	switch q.Kind {
	case velesql.KindSelect:
		return pl.planSelect(q.Select, q, params)
	case velesql.KindMatch:
		return pl.planMatch(q.Match, q, params)
	default:
		return nil, fmt.Errorf("velesql: unknown query kind %d", q.Kind)
	}
}

func (pl *Planner) planSelect(sel *velesql.SelectQuery, q *velesql.Query, params map[string]any) (*Plan, error) {
	vectors, residualConjuncts := splitWhere(sel.Where)
	residualExpr := rebuildResidual(residualConjuncts)

	residualCond, err := ExprToCondition(residualExpr, params)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Query:    q,
		Residual: residualCond,
		OrderBy:  sel.OrderBy,
		Quality:  pl.defaultQuality,
		TopK:     pl.defaultTopK,
	}
	if sel.Limit != nil {
		plan.Limit = *sel.Limit
		plan.TopK = *sel.Limit
	}
	if sel.Offset != nil {
		plan.Offset = *sel.Offset
	}
	if raw, ok := sel.With["quality"]; ok {
		if s, ok := raw.(string); ok {
			plan.Quality = parseQuality(s)
		}
	}

	if len(vectors) > 0 {
		vp := vectors[0]
		if vp.near != nil {
			if len(vp.near.Fused) > 0 {
				fused := make([][]float32, 0, len(vp.near.Fused))
				for _, f := range vp.near.Fused {
					vec, err := resolveVector(f, params)
					if err != nil {
						return nil, err
					}
					fused = append(fused, vec)
				}
				plan.FusedQuery = fused
				plan.Fusion = vp.near.Fusion
			} else {
				vec, err := resolveVector(vp.near.Param, params)
				if err != nil {
					return nil, err
				}
				plan.VectorQuery = vec
			}
		} else if vp.similarity != nil {
			vec, err := resolveVector(vp.similarity.Vector, params)
			if err != nil {
				return nil, err
			}
			plan.VectorQuery = vec
		}

		if lookup := bestIndexLookup(residualConjuncts, params); lookup != nil && pl.selectivityOf(lookup) < indexSelectivityThreshold {
			plan.Strategy = IndexFirst
			plan.Lookup = lookup
			return plan, nil
		}

		plan.Strategy = VectorFirst
		return plan, nil
	}

	if lookup := bestIndexLookup(residualConjuncts, params); lookup != nil {
		sel := pl.selectivityOf(lookup)
		if sel <= metadataSelectivityThreshold {
			plan.Strategy = IndexFirst
			plan.Lookup = lookup
			return plan, nil
		}
	}

	plan.Strategy = FullScan
	return plan, nil
}

func (pl *Planner) selectivityOf(lookup *IndexLookup) float64 {
	if pl.stats == nil {
		return 1.0
	}
	if lookup.Range {
		return pl.stats.RangeSelectivity(lookup.Property, lookup.Low, lookup.High)
	}
	return pl.stats.EqSelectivity(lookup.Property, lookup.Eq)
}

// bestIndexLookup picks the first equality or range conjunct usable as
// an index seed; VelesQL has no multi-column index so only one
// predicate drives the lookup, the rest stay in the residual filter.
func bestIndexLookup(conjuncts []velesql.Expr, params map[string]any) *IndexLookup {
	for _, c := range conjuncts {
		bin, ok := c.(velesql.BinaryExpr)
		if !ok {
			continue
		}
		col, ok := bin.Left.(velesql.ColumnRef)
		if !ok {
			continue
		}
		value, err := resolveValue(bin.Right, params)
		if err != nil {
			continue
		}
		switch bin.Op {
		case "=":
			return &IndexLookup{Property: col.Name, Eq: value}
		}
	}
	for _, c := range conjuncts {
		bt, ok := c.(velesql.BetweenExpr)
		if !ok || bt.Not {
			continue
		}
		col, ok := bt.Expr.(velesql.ColumnRef)
		if !ok {
			continue
		}
		low, err1 := resolveValue(bt.Low, params)
		high, err2 := resolveValue(bt.High, params)
		if err1 != nil || err2 != nil {
			continue
		}
		return &IndexLookup{Property: col.Name, Range: true, Low: low, High: high}
	}
	return nil
}

func resolveVector(e velesql.Expr, params map[string]any) ([]float32, error) {
	val, err := resolveValue(e, params)
	if err != nil {
		return nil, err
	}
	return toFloat32Slice(val)
}

func toFloat32Slice(v any) ([]float32, error) {
	switch vec := v.(type) {
	case []float32:
		return vec, nil
	case []float64:
		out := make([]float32, len(vec))
		for i, f := range vec {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		out := make([]float32, len(vec))
		for i, item := range vec {
			f, ok := toFloat(item)
			if !ok {
				return nil, fmt.Errorf("velesql: vector element %d is not numeric", i)
			}
			out[i] = float32(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("velesql: expected a vector parameter, got %T", v)
	}
}

func parseQuality(s string) hnsw.Quality {
	switch s {
	case "fast":
		return hnsw.Fast
	case "accurate":
		return hnsw.Accurate
	case "high_recall", "high-recall":
		return hnsw.HighRecall
	case "perfect":
		return hnsw.Perfect
	default:
		return hnsw.Balanced
	}
}

func (pl *Planner) planMatch(m *velesql.MatchQuery, q *velesql.Query, params map[string]any) (*Plan, error) {
	if len(m.Pattern.Elements) == 0 {
		return nil, fmt.Errorf("velesql: MATCH pattern has no elements")
	}
	first := m.Pattern.Elements[0].Node

	startID, hasStart, residualWhere := splitMatchWhere(m.Where, first.Variable)

	residualCond, err := ExprToCondition(residualWhere, params)
	if err != nil {
		// The remaining WHERE may still reference other pattern
		// variables exec can't reduce to a plain payload path; leave
		// it for the executor's row-level evaluator rather than
		// failing the plan outright.
		residualCond = nil
	}

	plan := &Plan{
		Query:    q,
		Residual: residualCond,
		OrderBy:  m.OrderBy,
		Mode:     graph.BFS,
	}
	if m.Limit != nil {
		plan.Limit = *m.Limit
	}
	plan.Strategy = GraphTraversal

	if hasStart {
		resolved, err := resolveValue(startID, params)
		if err == nil {
			if id, ok := toUint64(resolved); ok {
				plan.StartIDs = []uint64{id}
			}
		}
	}
	if len(plan.StartIDs) == 0 && len(first.Labels) > 0 {
		plan.StartLookup = &IndexLookup{Label: first.Labels[0]}
	}

	maxDepth := 0
	for _, el := range m.Pattern.Elements {
		if el.Edge != nil && el.Edge.MaxHops != nil && *el.Edge.MaxHops > maxDepth {
			maxDepth = *el.Edge.MaxHops
		}
	}
	if maxDepth == 0 {
		maxDepth = len(m.Pattern.Elements) - 1
		if maxDepth < 1 {
			maxDepth = 1
		}
	}
	plan.TraverseOpt = graph.TraversalOptions{MaxDepth: maxDepth}
	if len(m.Pattern.Elements) > 0 {
		last := m.Pattern.Elements[len(m.Pattern.Elements)-1]
		if last.Node != nil {
			for _, l := range last.Node.Labels {
				plan.TraverseOpt.LabelNames = append(plan.TraverseOpt.LabelNames, l)
			}
		}
	}

	return plan, nil
}

// splitMatchWhere walks a MATCH WHERE clause's top-level AND chain,
// pulling out `variable.id = <value>` as the traversal start-node
// selector and returning the rest as a residual expression. Unlike
// splitWhere's vector-predicate split, this never needs to resolve
// the id eagerly: the caller resolves startExpr against params once
// it has decided to use it.
func splitMatchWhere(where velesql.Expr, variable string) (startExpr velesql.Expr, found bool, residual velesql.Expr) {
	if where == nil {
		return nil, false, nil
	}
	if bin, ok := where.(velesql.BinaryExpr); ok && bin.Op == "AND" {
		leftExpr, leftFound, leftResidual := splitMatchWhere(bin.Left, variable)
		if leftFound {
			return leftExpr, true, rebuildResidual(nonNil(leftResidual, bin.Right))
		}
		rightExpr, rightFound, rightResidual := splitMatchWhere(bin.Right, variable)
		if rightFound {
			return rightExpr, true, rebuildResidual(nonNil(bin.Left, rightResidual))
		}
		return nil, false, where
	}
	if bin, ok := where.(velesql.BinaryExpr); ok && bin.Op == "=" {
		if col, ok := bin.Left.(velesql.ColumnRef); ok && col.Table == variable && col.Name == "id" {
			return bin.Right, true, nil
		}
	}
	return nil, false, where
}

func nonNil(exprs ...velesql.Expr) []velesql.Expr {
	var out []velesql.Expr
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case int64:
		return uint64(n), true
	case float64:
		return uint64(n), true
	default:
		return 0, false
	}
}
