package velesql

import "github.com/cyberlife-coder/velesdb/internal/verr"

// CollectParams walks a parsed Query and returns every distinct
// `$name` parameter it references, in first-seen order.
func CollectParams(q *Query) []string {
	seen := map[string]struct{}{}
	var order []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}

	switch q.Kind {
	case KindSelect:
		collectSelectParams(q.Select, add)
	case KindMatch:
		collectMatchParams(q.Match, add)
	}
	return order
}

func collectSelectParams(sel *SelectQuery, add func(string)) {
	if sel == nil {
		return
	}
	for _, item := range sel.Columns {
		collectExprParams(item.Expr, add)
	}
	for _, j := range sel.Joins {
		collectExprParams(j.On, add)
	}
	collectExprParams(sel.Where, add)
	for _, e := range sel.GroupBy {
		collectExprParams(e, add)
	}
	collectExprParams(sel.Having, add)
	for _, o := range sel.OrderBy {
		collectExprParams(o.Expr, add)
	}
	if sel.Compound != nil {
		collectSelectParams(sel.Compound.Right, add)
	}
}

func collectMatchParams(m *MatchQuery, add func(string)) {
	if m == nil {
		return
	}
	for _, el := range m.Pattern.Elements {
		if el.Node != nil {
			for _, v := range el.Node.Props {
				collectExprParams(v, add)
			}
		}
		if el.Edge != nil {
			for _, v := range el.Edge.Props {
				collectExprParams(v, add)
			}
		}
	}
	collectExprParams(m.Where, add)
	for _, item := range m.Return {
		collectExprParams(item.Expr, add)
	}
	for _, o := range m.OrderBy {
		collectExprParams(o.Expr, add)
	}
}

func collectExprParams(e Expr, add func(string)) {
	switch v := e.(type) {
	case nil:
		return
	case ParamRef:
		add(v.Name)
	case BinaryExpr:
		collectExprParams(v.Left, add)
		collectExprParams(v.Right, add)
	case UnaryExpr:
		collectExprParams(v.Operand, add)
	case FuncCall:
		for _, a := range v.Args {
			collectExprParams(a, add)
		}
	case NearExpr:
		collectExprParams(v.Param, add)
		for _, f := range v.Fused {
			collectExprParams(f, add)
		}
	case SimilarityExpr:
		collectExprParams(v.Vector, add)
	case InExpr:
		collectExprParams(v.Expr, add)
		collectExprParams(v.Param, add)
		for _, item := range v.List {
			collectExprParams(item, add)
		}
	case BetweenExpr:
		collectExprParams(v.Expr, add)
		collectExprParams(v.Low, add)
		collectExprParams(v.High, add)
	case SubqueryExpr:
		collectSelectParams(v.Query, add)
	}
}

// Validate checks that every parameter CollectParams finds in q is
// present in params, returning a typed verr.KindQuery error naming the
// first missing one rather than letting execution panic on a nil
// lookup.
func Validate(q *Query, params map[string]any) error {
	for _, name := range CollectParams(q) {
		if _, ok := params[name]; !ok {
			return verr.MissingParameter(name)
		}
	}
	return nil
}
