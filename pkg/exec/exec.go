// Package exec runs a compiled pkg/planner.Plan against a Collection's
// storage, index, and graph layers, producing a result set the caller
// projects, sorts, and pages per the originating VelesQL query.
package exec

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cyberlife-coder/velesdb/internal/verr"
	"github.com/cyberlife-coder/velesdb/pkg/convert"
	"github.com/cyberlife-coder/velesdb/pkg/distance"
	"github.com/cyberlife-coder/velesdb/pkg/filter"
	"github.com/cyberlife-coder/velesdb/pkg/fulltext"
	"github.com/cyberlife-coder/velesdb/pkg/fusion"
	"github.com/cyberlife-coder/velesdb/pkg/graph"
	"github.com/cyberlife-coder/velesdb/pkg/hnsw"
	"github.com/cyberlife-coder/velesdb/pkg/planner"
	"github.com/cyberlife-coder/velesdb/pkg/velesql"
)

// Row is one result: a point or graph node id, its payload, and the
// score it was ranked by (vector similarity, fusion score, or 0 for
// unscored metadata-only results).
type Row struct {
	ID      uint64
	Score   float64
	Payload map[string]any
	Node    *graph.GraphNode
	Path    []uint64
}

// ResultSet is a plan's output, ready for the caller to project.
type ResultSet struct {
	Rows []Row
}

// DataSource is everything an Executor needs from the collection that
// owns it: vector search, payload lookup, property indexes, and the
// graph store. Collection implements this directly.
type DataSource interface {
	VectorSearch(ctx context.Context, vector []float32, k int, quality hnsw.Quality) ([]hnsw.Result, error)
	VectorOf(id uint64) ([]float32, bool)
	Payload(id uint64) (map[string]any, bool)
	AllIDs() []uint64
	IndexLookup(property string, value any) []uint64
	IndexRange(property string, low, high any) []uint64
	TextSearch(query string, limit int) []fulltext.Result
	GraphWalk(start uint64, mode graph.TraversalMode, opts graph.TraversalOptions) ([]graph.TraversalResult, error)
	GraphNode(id uint64) (*graph.GraphNode, bool)
	GraphNodesByLabel(label string) []*graph.GraphNode
}

// Executor runs Plans against a DataSource, scoring vector results
// with metric.
type Executor struct {
	ds     DataSource
	metric distance.Metric
}

// New returns an Executor over ds, scoring similarity() expressions
// and IndexFirst vector reranking with metric.
func New(ds DataSource, metric distance.Metric) *Executor {
	return &Executor{ds: ds, metric: metric}
}

// Execute runs plan and returns its raw, unprojected result rows.
func (ex *Executor) Execute(ctx context.Context, plan *planner.Plan, params map[string]any) (*ResultSet, error) {
	var rows []Row
	var err error

	switch plan.Strategy {
	case planner.VectorFirst:
		rows, err = ex.execVectorFirst(ctx, plan)
	case planner.IndexFirst:
		rows, err = ex.execIndexFirst(plan)
	case planner.GraphTraversal:
		rows, err = ex.execGraphTraversal(plan)
	default:
		rows, err = ex.execFullScan(plan)
	}
	if err != nil {
		return nil, err
	}

	if plan.Strategy != planner.GraphTraversal {
		rows, err = ex.applyOrderBy(rows, plan.OrderBy, params)
		if err != nil {
			return nil, err
		}
	}
	rows = paginate(rows, plan.Offset, plan.Limit)
	return &ResultSet{Rows: rows}, nil
}

func (ex *Executor) execVectorFirst(ctx context.Context, plan *planner.Plan) ([]Row, error) {
	var ranked []hnsw.Result
	var err error

	switch {
	case len(plan.FusedQuery) > 0:
		lists := make([][]fusion.Ranked, 0, len(plan.FusedQuery))
		for _, vec := range plan.FusedQuery {
			res, err := ex.ds.VectorSearch(ctx, vec, plan.TopK, plan.Quality)
			if err != nil {
				return nil, err
			}
			lists = append(lists, toRanked(res))
		}
		strategy, fparams := fusionStrategy(plan.Fusion)
		fused := fusion.Fuse(strategy, lists, fparams)
		for _, r := range fused {
			ranked = append(ranked, hnsw.Result{ID: r.ID, Score: float32(r.Score)})
		}
	case plan.VectorQuery != nil:
		ranked, err = ex.ds.VectorSearch(ctx, plan.VectorQuery, plan.TopK, plan.Quality)
		if err != nil {
			return nil, err
		}
	default:
		return nil, verr.New(verr.KindQuery, "vector-first plan has no query vector")
	}

	rows := make([]Row, 0, len(ranked))
	for _, r := range ranked {
		payload, _ := ex.ds.Payload(r.ID)
		if !matches(plan.Residual, payload) {
			continue
		}
		rows = append(rows, Row{ID: r.ID, Score: float64(r.Score), Payload: payload})
	}
	return rows, nil
}

func (ex *Executor) execIndexFirst(plan *planner.Plan) ([]Row, error) {
	var ids []uint64
	if plan.Lookup.Range {
		ids = ex.ds.IndexRange(plan.Lookup.Property, plan.Lookup.Low, plan.Lookup.High)
	} else {
		ids = ex.ds.IndexLookup(plan.Lookup.Property, plan.Lookup.Eq)
	}

	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		payload, _ := ex.ds.Payload(id)
		if !matches(plan.Residual, payload) {
			continue
		}
		row := Row{ID: id, Payload: payload}
		if plan.VectorQuery != nil {
			if vec, ok := ex.ds.VectorOf(id); ok {
				row.Score = float64(distance.Compute(ex.metric, plan.VectorQuery, vec))
			}
		}
		rows = append(rows, row)
	}
	if plan.VectorQuery != nil {
		sortByScore(rows, ex.metric.HigherIsBetter())
	}
	return rows, nil
}

func (ex *Executor) execFullScan(plan *planner.Plan) ([]Row, error) {
	ids := ex.ds.AllIDs()
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		payload, _ := ex.ds.Payload(id)
		if !matches(plan.Residual, payload) {
			continue
		}
		rows = append(rows, Row{ID: id, Payload: payload})
	}
	return rows, nil
}

func (ex *Executor) execGraphTraversal(plan *planner.Plan) ([]Row, error) {
	starts := plan.StartIDs
	if len(starts) == 0 && plan.StartLookup != nil {
		for _, n := range ex.ds.GraphNodesByLabel(plan.StartLookup.Label) {
			starts = append(starts, n.ID)
		}
	}
	if len(starts) == 0 {
		return nil, verr.New(verr.KindQuery, "MATCH pattern has no resolvable start node")
	}

	var rows []Row
	for _, start := range starts {
		results, err := ex.ds.GraphWalk(start, plan.Mode, plan.TraverseOpt)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			node, _ := ex.ds.GraphNode(r.TargetID)
			var payload map[string]any
			if node != nil {
				payload = node.Properties
			}
			if !matches(plan.Residual, payload) {
				continue
			}
			rows = append(rows, Row{ID: r.TargetID, Node: node, Path: r.Path, Payload: payload})
		}
	}
	if plan.Limit > 0 && len(rows) > plan.Limit {
		rows = rows[:plan.Limit]
	}
	return rows, nil
}

func matches(cond *filter.Condition, payload map[string]any) bool {
	if cond == nil {
		return true
	}
	ok, err := filter.Evaluate(cond, payload)
	if err != nil {
		return false
	}
	return ok
}

func toRanked(results []hnsw.Result) []fusion.Ranked {
	out := make([]fusion.Ranked, len(results))
	for i, r := range results {
		out[i] = fusion.Ranked{ID: r.ID, Score: float64(r.Score)}
	}
	return out
}

func fusionStrategy(fc *velesql.FusionClause) (fusion.Strategy, fusion.Params) {
	if fc == nil {
		return fusion.RRFStrategy, fusion.Params{K: 60}
	}
	params := fusion.Params{K: int(fc.Params["k"])}
	switch strings.ToLower(fc.Strategy) {
	case "weighted":
		return fusion.WeightedStrategy, params
	case "maximum":
		return fusion.MaximumStrategy, params
	case "average":
		return fusion.AverageStrategy, params
	case "product":
		return fusion.ProductStrategy, params
	case "minimum":
		return fusion.MinimumStrategy, params
	default:
		return fusion.RRFStrategy, params
	}
}

func sortByScore(rows []Row, higherIsBetter bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if higherIsBetter {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Score < rows[j].Score
	})
}

func (ex *Executor) applyOrderBy(rows []Row, order []velesql.OrderItem, params map[string]any) ([]Row, error) {
	if len(order) == 0 {
		return rows, nil
	}
	type keyed struct {
		row  Row
		keys []float64
	}
	items := make([]keyed, len(rows))
	for i, r := range rows {
		keys := make([]float64, len(order))
		for j, item := range order {
			k, err := ex.orderKey(r, item.Expr, params)
			if err != nil {
				return nil, err
			}
			keys[j] = k
		}
		items[i] = keyed{row: r, keys: keys}
	}
	sort.SliceStable(items, func(a, b int) bool {
		for i, item := range order {
			ka, kb := items[a].keys[i], items[b].keys[i]
			if ka == kb {
				continue
			}
			if item.Desc {
				return ka > kb
			}
			return ka < kb
		}
		return false
	})
	out := make([]Row, len(items))
	for i, it := range items {
		out[i] = it.row
	}
	return out, nil
}

func (ex *Executor) orderKey(r Row, e velesql.Expr, params map[string]any) (float64, error) {
	switch v := e.(type) {
	case velesql.ColumnRef:
		if v.Name == "score" {
			return r.Score, nil
		}
		if r.Payload == nil {
			return 0, nil
		}
		val, ok := filter.ResolvePath(r.Payload, v.Name)
		if !ok {
			return 0, nil
		}
		return toOrderFloat(val), nil
	case velesql.SimilarityExpr:
		vec, ok := ex.ds.VectorOf(r.ID)
		if !ok {
			return 0, nil
		}
		target, err := resolveOrderVector(v.Vector, params)
		if err != nil {
			return 0, err
		}
		return float64(distance.Compute(ex.metric, target, vec)), nil
	default:
		return 0, fmt.Errorf("velesql: unsupported ORDER BY expression %T", e)
	}
}

func resolveOrderVector(e velesql.Expr, params map[string]any) ([]float32, error) {
	switch v := e.(type) {
	case velesql.ParamRef:
		raw, ok := params[v.Name]
		if !ok {
			return nil, verr.MissingParameter(v.Name)
		}
		vec, ok := raw.([]float32)
		if !ok {
			return nil, fmt.Errorf("velesql: parameter %q is not a vector", v.Name)
		}
		return vec, nil
	default:
		return nil, fmt.Errorf("velesql: unsupported similarity() argument %T", e)
	}
}

func toOrderFloat(v any) float64 {
	f, _ := convert.ToFloat64(v)
	return f
}

func paginate(rows []Row, offset, limit int) []Row {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
