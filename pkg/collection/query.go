package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cyberlife-coder/velesdb/internal/verr"
	"github.com/cyberlife-coder/velesdb/pkg/convert"
	"github.com/cyberlife-coder/velesdb/pkg/exec"
	"github.com/cyberlife-coder/velesdb/pkg/velesql"
)

const (
	defaultMaxTraversalDepth = 100
	defaultMaxCardinality    = 100_000
)

// QueryContext bounds one execute_query/execute_aggregate call: a
// deadline, a cooperative cancellation flag checked at iteration
// boundaries, and the traversal-depth/result-cardinality guard rails
// every query is subject to. It is registered in the collection's
// registry for the duration of the call so an operator can cancel it
// by id.
type QueryContext struct {
	ctx            context.Context
	cancel         context.CancelFunc
	maxDepth       int
	maxCardinality int
	release        func()
	registryID     string
}

// NewQueryContext derives a QueryContext from parent, applying timeout
// (zero means no deadline) and registering it for administrative
// cancellation.
func (c *Collection) NewQueryContext(parent context.Context, timeout time.Duration) *QueryContext {
	ctx := parent
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	id, release := c.queries.Register("", cancel)
	return &QueryContext{
		ctx:            ctx,
		cancel:         cancel,
		maxDepth:       defaultMaxTraversalDepth,
		maxCardinality: defaultMaxCardinality,
		release:        release,
		registryID:     id,
	}
}

// Cancel aborts the query and releases its registry entry. Safe to
// call after the query has already finished.
func (qc *QueryContext) Cancel() {
	qc.cancel()
	qc.release()
}

func (qc *QueryContext) close() { qc.release() }

// ExecuteQuery parses (or reuses a cached parse of) src, plans it, and
// runs it against the collection's storage, index, and graph layers,
// returning its rows as JSON-shaped maps. Rate-limited and
// circuit-broken: a collection under sustained failure briefly rejects
// new queries rather than piling load onto a failing dependency.
func (c *Collection) ExecuteQuery(qc *QueryContext, src string, params map[string]any) ([]map[string]any, error) {
	if !c.limiter.Allow() {
		return nil, verr.New(verr.KindQuery, "rate limit exceeded")
	}
	var rows []map[string]any
	err := c.breaker.Call(func() error {
		q, err := velesql.ParseCached(c.cache, src)
		if err != nil {
			return err
		}
		if err := velesql.Validate(q, params); err != nil {
			return err
		}
		plan, err := c.planner.Plan(q, params)
		if err != nil {
			return err
		}
		if plan.TraverseOpt.MaxDepth == 0 || plan.TraverseOpt.MaxDepth > qc.maxDepth {
			plan.TraverseOpt.MaxDepth = qc.maxDepth
		}
		rs, err := c.executor.Execute(qc.ctx, plan, params)
		if err != nil {
			return err
		}
		rows = rowsToMaps(rs, qc.maxCardinality)
		return nil
	})
	return rows, err
}

func rowsToMaps(rs *exec.ResultSet, maxCardinality int) []map[string]any {
	n := len(rs.Rows)
	if n > maxCardinality {
		n = maxCardinality
	}
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		r := rs.Rows[i]
		row := make(map[string]any, len(r.Payload)+2)
		for k, v := range r.Payload {
			row[k] = v
		}
		row["id"] = r.ID
		if r.Score != 0 {
			row["score"] = r.Score
		}
		out[i] = row
	}
	return out
}

// ExecuteAggregate runs src like ExecuteQuery, then reduces its rows by
// the query's GROUP BY keys and any aggregate functions named in its
// select list (count, sum, avg, min, max), returning one JSON object
// per group.
func (c *Collection) ExecuteAggregate(qc *QueryContext, src string, params map[string]any) ([]map[string]any, error) {
	q, err := velesql.ParseCached(c.cache, src)
	if err != nil {
		return nil, err
	}
	if q.Kind != velesql.KindSelect {
		return nil, verr.New(verr.KindQuery, "execute_aggregate requires a SELECT query")
	}
	rows, err := c.ExecuteQuery(qc, src, params)
	if err != nil {
		return nil, err
	}

	groupKeys := make([]string, len(q.Select.GroupBy))
	for i, e := range q.Select.GroupBy {
		if col, ok := e.(velesql.ColumnRef); ok {
			groupKeys[i] = col.Name
		}
	}

	type group struct {
		key   []any
		rows  []map[string]any
	}
	groups := map[string]*group{}
	var order []string
	for _, row := range rows {
		key := make([]any, len(groupKeys))
		parts := make([]string, len(groupKeys))
		for i, k := range groupKeys {
			key[i] = row[k]
			parts[i] = fmt.Sprintf("%v", row[k])
		}
		sig := strings.Join(parts, "\x1f")
		g, ok := groups[sig]
		if !ok {
			g = &group{key: key}
			groups[sig] = g
			order = append(order, sig)
		}
		g.rows = append(g.rows, row)
	}
	if len(groups) == 0 {
		groups[""] = &group{rows: rows}
		order = []string{""}
	}

	out := make([]map[string]any, 0, len(order))
	for _, sig := range order {
		g := groups[sig]
		result := make(map[string]any, len(groupKeys)+len(q.Select.Columns))
		for i, k := range groupKeys {
			result[k] = g.key[i]
		}
		for _, item := range q.Select.Columns {
			fc, ok := item.Expr.(velesql.FuncCall)
			if !ok {
				continue
			}
			name := aggregateAlias(item, fc)
			result[name] = computeAggregate(fc, g.rows)
		}
		out = append(out, result)
	}
	return out, nil
}

func aggregateAlias(item velesql.SelectItem, fc velesql.FuncCall) string {
	if item.Alias != "" {
		return item.Alias
	}
	return strings.ToLower(fc.Name)
}

func computeAggregate(fc velesql.FuncCall, rows []map[string]any) any {
	field := ""
	if len(fc.Args) > 0 {
		if col, ok := fc.Args[0].(velesql.ColumnRef); ok {
			field = col.Name
		}
	}
	switch strings.ToLower(fc.Name) {
	case "count":
		return len(rows)
	case "sum":
		var sum float64
		for _, r := range rows {
			sum += toAggFloat(r[field])
		}
		return sum
	case "avg":
		if len(rows) == 0 {
			return 0.0
		}
		var sum float64
		for _, r := range rows {
			sum += toAggFloat(r[field])
		}
		return sum / float64(len(rows))
	case "min":
		return reduceFloat(rows, field, true)
	case "max":
		return reduceFloat(rows, field, false)
	default:
		return nil
	}
}

func toAggFloat(v any) float64 {
	f, _ := convert.ToFloat64(v)
	return f
}

func reduceFloat(rows []map[string]any, field string, wantMin bool) float64 {
	var best float64
	first := true
	for _, r := range rows {
		v := toAggFloat(r[field])
		if first || (wantMin && v < best) || (!wantMin && v > best) {
			best = v
			first = false
		}
	}
	return best
}
