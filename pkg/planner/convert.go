package planner

import (
	"fmt"

	"github.com/cyberlife-coder/velesdb/pkg/convert"
	"github.com/cyberlife-coder/velesdb/pkg/filter"
	"github.com/cyberlife-coder/velesdb/pkg/velesql"
)

// vectorPredicate is one conjunct of a WHERE clause that drives vector
// search rather than metadata filtering: either a NearExpr by itself
// or a similarity(...) comparison against a threshold.
type vectorPredicate struct {
	near       *velesql.NearExpr
	similarity *velesql.SimilarityExpr
	op         string
	threshold  velesql.Expr
}

// splitWhere walks a WHERE expression's top-level AND chain, pulling
// out any vector predicates and returning the rest as residual
// conjuncts. OR-joined expressions are never split: if a vector
// predicate sits inside an OR, it stays in the residual form untouched
// since it cannot be pushed down independently of its sibling.
func splitWhere(e velesql.Expr) (vectors []vectorPredicate, residual []velesql.Expr) {
	if e == nil {
		return nil, nil
	}
	if bin, ok := e.(velesql.BinaryExpr); ok && bin.Op == "AND" {
		lv, lr := splitWhere(bin.Left)
		rv, rr := splitWhere(bin.Right)
		return append(lv, rv...), append(lr, rr...)
	}

	if near, ok := e.(velesql.NearExpr); ok {
		return []vectorPredicate{{near: &near}}, nil
	}
	if bin, ok := e.(velesql.BinaryExpr); ok {
		if sim, ok := bin.Left.(velesql.SimilarityExpr); ok {
			return []vectorPredicate{{similarity: &sim, op: bin.Op, threshold: bin.Right}}, nil
		}
	}
	return nil, []velesql.Expr{e}
}

func rebuildResidual(conjuncts []velesql.Expr) velesql.Expr {
	if len(conjuncts) == 0 {
		return nil
	}
	out := conjuncts[0]
	for _, c := range conjuncts[1:] {
		out = velesql.BinaryExpr{Op: "AND", Left: out, Right: c}
	}
	return out
}

// ExprToCondition translates a VelesQL boolean expression tree into a
// filter.Condition tree, resolving `$param` references against params
// and rejecting anything that isn't representable as a metadata
// predicate (vector predicates must be pulled out by splitWhere first).
func ExprToCondition(e velesql.Expr, params map[string]any) (*filter.Condition, error) {
	if e == nil {
		return nil, nil
	}
	switch v := e.(type) {
	case velesql.BinaryExpr:
		switch v.Op {
		case "AND", "OR":
			left, err := ExprToCondition(v.Left, params)
			if err != nil {
				return nil, err
			}
			right, err := ExprToCondition(v.Right, params)
			if err != nil {
				return nil, err
			}
			if v.Op == "AND" {
				return filter.And(left, right), nil
			}
			return filter.Or(left, right), nil
		case "LIKE", "ILIKE":
			path, err := columnPath(v.Left)
			if err != nil {
				return nil, err
			}
			pattern, err := resolveValue(v.Right, params)
			if err != nil {
				return nil, err
			}
			patternStr, _ := pattern.(string)
			if v.Op == "LIKE" {
				return filter.Like(path, patternStr), nil
			}
			return filter.ILike(path, patternStr), nil
		default:
			path, err := columnPath(v.Left)
			if err != nil {
				return nil, err
			}
			value, err := resolveValue(v.Right, params)
			if err != nil {
				return nil, err
			}
			return comparisonCondition(v.Op, path, value)
		}

	case velesql.UnaryExpr:
		switch v.Op {
		case "NOT":
			child, err := ExprToCondition(v.Operand, params)
			if err != nil {
				return nil, err
			}
			return filter.Not(child), nil
		case "IS NULL":
			path, err := columnPath(v.Operand)
			if err != nil {
				return nil, err
			}
			return filter.IsNull(path), nil
		case "IS NOT NULL":
			path, err := columnPath(v.Operand)
			if err != nil {
				return nil, err
			}
			return filter.IsNotNull(path), nil
		default:
			return nil, fmt.Errorf("velesql: unsupported unary operator %q in filter position", v.Op)
		}

	case velesql.InExpr:
		path, err := columnPath(v.Expr)
		if err != nil {
			return nil, err
		}
		var values []any
		if v.Param != nil {
			resolved, err := resolveValue(v.Param, params)
			if err != nil {
				return nil, err
			}
			list, ok := resolved.([]any)
			if !ok {
				return nil, fmt.Errorf("velesql: IN parameter must resolve to a list")
			}
			values = list
		} else {
			for _, item := range v.List {
				val, err := resolveValue(item, params)
				if err != nil {
					return nil, err
				}
				values = append(values, val)
			}
		}
		cond := filter.In(path, values...)
		if v.Not {
			return filter.Not(cond), nil
		}
		return cond, nil

	case velesql.BetweenExpr:
		path, err := columnPath(v.Expr)
		if err != nil {
			return nil, err
		}
		low, err := resolveValue(v.Low, params)
		if err != nil {
			return nil, err
		}
		high, err := resolveValue(v.High, params)
		if err != nil {
			return nil, err
		}
		cond := filter.Between(path, low, high)
		if v.Not {
			return filter.Not(cond), nil
		}
		return cond, nil

	default:
		return nil, fmt.Errorf("velesql: expression of type %T cannot be used as a metadata filter", e)
	}
}

func comparisonCondition(op, path string, value any) (*filter.Condition, error) {
	switch op {
	case "=":
		return filter.Eq(path, value), nil
	case "!=", "<>":
		return filter.Ne(path, value), nil
	case "<":
		return filter.Lt(path, value), nil
	case "<=":
		return filter.Lte(path, value), nil
	case ">":
		return filter.Gt(path, value), nil
	case ">=":
		return filter.Gte(path, value), nil
	default:
		return nil, fmt.Errorf("velesql: unsupported comparison operator %q in filter position", op)
	}
}

func columnPath(e velesql.Expr) (string, error) {
	col, ok := e.(velesql.ColumnRef)
	if !ok {
		return "", fmt.Errorf("velesql: expected a column reference, got %T", e)
	}
	return col.Name, nil
}

// resolveValue evaluates a literal, parameter reference, NOW(), or
// INTERVAL expression to its concrete Go value at plan time.
func resolveValue(e velesql.Expr, params map[string]any) (any, error) {
	switch v := e.(type) {
	case velesql.Literal:
		return v.Value, nil
	case velesql.ParamRef:
		val, ok := params[v.Name]
		if !ok {
			return nil, fmt.Errorf("velesql: missing parameter %q", v.Name)
		}
		return val, nil
	case velesql.NowExpr:
		return velesql.EvalNow(nil), nil
	case velesql.IntervalExpr:
		secs, err := velesql.EvalInterval(v)
		if err != nil {
			return nil, err
		}
		return secs, nil
	case velesql.BinaryExpr:
		left, err := resolveValue(v.Left, params)
		if err != nil {
			return nil, err
		}
		right, err := resolveValue(v.Right, params)
		if err != nil {
			return nil, err
		}
		return applyArith(v.Op, left, right)
	default:
		return nil, fmt.Errorf("velesql: expression of type %T is not a constant value", e)
	}
}

func applyArith(op string, left, right any) (any, error) {
	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, fmt.Errorf("velesql: arithmetic operator %q needs numeric operands", op)
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("velesql: division by zero")
		}
		return lf / rf, nil
	default:
		return nil, fmt.Errorf("velesql: unsupported arithmetic operator %q", op)
	}
}

func toFloat(v any) (float64, bool) {
	return convert.ToFloat64(v)
}
