// Package filter evaluates condition trees against schemaless JSON-like
// payloads: comparisons, IN, BETWEEN, LIKE/ILIKE, IS NULL, and boolean
// combinators over a dotted/bracketed property path.
package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/cyberlife-coder/velesdb/internal/verr"
	"github.com/cyberlife-coder/velesdb/pkg/convert"
)

// Op identifies a condition node's evaluation rule.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLte
	OpGt
	OpGte
	OpLike
	OpILike
	OpIn
	OpBetween
	OpIsNull
	OpIsNotNull
	OpAnd
	OpOr
	OpNot
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLike:
		return "LIKE"
	case OpILike:
		return "ILIKE"
	case OpIn:
		return "IN"
	case OpBetween:
		return "BETWEEN"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNot:
		return "NOT"
	default:
		return "?"
	}
}

// Condition is one node of a WHERE expression tree. Leaf nodes (every Op
// except And/Or/Not) compare the value at Path against Value, Values, or
// Low/High. And/Or hold two or more Children; Not holds exactly one.
type Condition struct {
	Op       Op
	Path     string
	Value    any
	Values   []any
	Low      any
	High     any
	Children []*Condition
}

// Eq builds a Path = Value condition, and so on for the other comparison
// operators.
func Eq(path string, value any) *Condition  { return &Condition{Op: OpEq, Path: path, Value: value} }
func Ne(path string, value any) *Condition  { return &Condition{Op: OpNe, Path: path, Value: value} }
func Lt(path string, value any) *Condition  { return &Condition{Op: OpLt, Path: path, Value: value} }
func Lte(path string, value any) *Condition { return &Condition{Op: OpLte, Path: path, Value: value} }
func Gt(path string, value any) *Condition  { return &Condition{Op: OpGt, Path: path, Value: value} }
func Gte(path string, value any) *Condition { return &Condition{Op: OpGte, Path: path, Value: value} }

// Like builds a Path LIKE pattern condition using SQL wildcards % and _,
// with \ as the escape character. ILike is its case-insensitive variant.
func Like(path, pattern string) *Condition {
	return &Condition{Op: OpLike, Path: path, Value: pattern}
}
func ILike(path, pattern string) *Condition {
	return &Condition{Op: OpILike, Path: path, Value: pattern}
}

// In builds a Path IN (values...) condition.
func In(path string, values ...any) *Condition {
	return &Condition{Op: OpIn, Path: path, Values: values}
}

// Between builds a Path BETWEEN low AND high condition, inclusive of both
// bounds.
func Between(path string, low, high any) *Condition {
	return &Condition{Op: OpBetween, Path: path, Low: low, High: high}
}

// IsNull and IsNotNull test for the absence or presence of Path.
func IsNull(path string) *Condition    { return &Condition{Op: OpIsNull, Path: path} }
func IsNotNull(path string) *Condition { return &Condition{Op: OpIsNotNull, Path: path} }

// And, Or, and Not combine subconditions. And/Or require at least two
// children; Not takes exactly one.
func And(children ...*Condition) *Condition { return &Condition{Op: OpAnd, Children: children} }
func Or(children ...*Condition) *Condition  { return &Condition{Op: OpOr, Children: children} }
func Not(child *Condition) *Condition       { return &Condition{Op: OpNot, Children: []*Condition{child}} }

// Evaluate walks cond against payload, a decoded JSON document (the shape
// produced by encoding/json.Unmarshal into an any: map[string]any,
// []any, string, float64, bool, or nil).
func Evaluate(cond *Condition, payload any) (bool, error) {
	if cond == nil {
		return true, nil
	}
	switch cond.Op {
	case OpAnd:
		for _, c := range cond.Children {
			ok, err := Evaluate(c, payload)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case OpOr:
		for _, c := range cond.Children {
			ok, err := Evaluate(c, payload)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		if len(cond.Children) != 1 {
			return false, verr.New(verr.KindQuery, "NOT requires exactly one child condition")
		}
		ok, err := Evaluate(cond.Children[0], payload)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}

	actual, found := ResolvePath(payload, cond.Path)

	switch cond.Op {
	case OpIsNull:
		return !found || actual == nil, nil
	case OpIsNotNull:
		return found && actual != nil, nil
	}
	if !found {
		return false, nil
	}

	switch cond.Op {
	case OpEq:
		return compareEqual(actual, cond.Value), nil
	case OpNe:
		return !compareEqual(actual, cond.Value), nil
	case OpLt:
		return compareOrdered(actual, cond.Value) < 0, nil
	case OpLte:
		return compareOrdered(actual, cond.Value) <= 0, nil
	case OpGt:
		return compareOrdered(actual, cond.Value) > 0, nil
	case OpGte:
		return compareOrdered(actual, cond.Value) >= 0, nil
	case OpBetween:
		return compareOrdered(actual, cond.Low) >= 0 && compareOrdered(actual, cond.High) <= 0, nil
	case OpIn:
		for _, v := range cond.Values {
			if compareEqual(actual, v) {
				return true, nil
			}
		}
		return false, nil
	case OpLike:
		pattern, _ := cond.Value.(string)
		return matchLike(fmt.Sprintf("%v", actual), pattern, false)
	case OpILike:
		pattern, _ := cond.Value.(string)
		return matchLike(fmt.Sprintf("%v", actual), pattern, true)
	default:
		return false, verr.New(verr.KindQuery, "unsupported condition operator %v", cond.Op)
	}
}

// compareEqual compares two decoded-JSON values for equality, coercing
// numeric types (int64/int/float64) onto a common float64 before
// comparing so 5 and 5.0 are equal.
func compareEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// compareOrdered orders two values using a best-effort coercion: numeric
// if both sides parse as numbers, lexicographic string comparison
// otherwise. Used by <, <=, >, >=, BETWEEN.
func compareOrdered(a, b any) int {
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	return strings.Compare(as, bs)
}

func toFloat64(v any) (float64, bool) {
	if f, ok := convert.ToFloat64(v); ok {
		return f, true
	}
	switch n := v.(type) {
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}

// likeRegexCache memoizes the regexp compiled from a LIKE/ILIKE pattern,
// the same precompile-once-reuse-forever idiom as a fixed set of
// package-level regexp vars, generalized to a runtime-supplied pattern
// set with a sync.Map in place of static var declarations.
var likeRegexCache sync.Map // pattern string -> *regexp.Regexp

// matchLike converts an SQL LIKE/ILIKE pattern (% = any run, _ = any
// single character, \ escapes the next character) to an anchored regular
// expression and matches s against it.
func matchLike(s, pattern string, caseInsensitive bool) (bool, error) {
	cacheKey := pattern
	if caseInsensitive {
		cacheKey = "i:" + pattern
	}
	if cached, ok := likeRegexCache.Load(cacheKey); ok {
		return cached.(*regexp.Regexp).MatchString(s), nil
	}

	var b strings.Builder
	b.WriteString("^")
	if caseInsensitive {
		b.WriteString("(?i)")
	}
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteString(regexp.QuoteMeta(string(runes[i])))
			} else {
				b.WriteString(regexp.QuoteMeta(`\`))
			}
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false, verr.Wrap(verr.KindQuery, err, "compile LIKE pattern %q", pattern)
	}
	likeRegexCache.Store(cacheKey, re)
	return re.MatchString(s), nil
}

// pathSegment is one step of a parsed property path: either a map key
// (Key set, Index ignored) or an array index (IsIndex true).
type pathSegment struct {
	Key     string
	Index   int
	IsIndex bool
}

// ParsePath splits a dotted/bracketed property path such as
// "metadata.source" or "items[0].sku" into its segments. A leading
// segment never starts with '['; brackets following a key denote array
// indices into that key's value.
func ParsePath(path string) []pathSegment {
	var segs []pathSegment
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, pathSegment{Key: cur.String()})
			cur.Reset()
		}
	}
	runes := []rune(path)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.':
			flush()
		case '[':
			flush()
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if idx, err := strconv.Atoi(string(runes[i+1 : j])); err == nil {
				segs = append(segs, pathSegment{Index: idx, IsIndex: true})
			}
			i = j
		default:
			cur.WriteRune(runes[i])
		}
	}
	flush()
	return segs
}

// ResolvePath walks payload along path's dotted/bracketed segments and
// returns the value found there, or (nil, false) if any segment is
// missing or type-incompatible with its container.
func ResolvePath(payload any, path string) (any, bool) {
	cur := payload
	for _, seg := range ParsePath(path) {
		if seg.IsIndex {
			arr, ok := cur.([]any)
			if !ok || seg.Index < 0 || seg.Index >= len(arr) {
				return nil, false
			}
			cur = arr[seg.Index]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[seg.Key]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// SortByPath returns a comparator suitable for sort.Slice that orders
// payloads ascending on the value at path, using the same coercion rules
// as the ordered comparison operators.
func SortByPath(payloads []any, path string) func(i, j int) bool {
	return func(i, j int) bool {
		a, _ := ResolvePath(payloads[i], path)
		b, _ := ResolvePath(payloads[j], path)
		return compareOrdered(a, b) < 0
	}
}
