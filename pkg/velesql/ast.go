package velesql

// QueryKind distinguishes the two top-level query forms VelesQL
// accepts: a relational SELECT and a Cypher-lite MATCH.
type QueryKind int

const (
	KindSelect QueryKind = iota
	KindMatch
)

// Query is the parsed result of one VelesQL statement.
type Query struct {
	Kind   QueryKind
	Select *SelectQuery
	Match  *MatchQuery
	Source string
}

// SelectQuery is the AST for a SELECT statement, including its
// optional fusion clause and compound (UNION/INTERSECT/EXCEPT) tail.
type SelectQuery struct {
	Distinct  bool
	Columns   []SelectItem
	From      string
	FromAlias string
	Joins     []Join
	Where     Expr
	GroupBy   []Expr
	Having    Expr
	OrderBy   []OrderItem
	Limit     *int
	Offset    *int
	With      map[string]any
	Fusion    *FusionClause
	Compound  *CompoundQuery
}

// SelectItem is one projected column or expression, with its optional
// alias (the AS clause).
type SelectItem struct {
	Expr  Expr
	Alias string
}

// JoinType enumerates SQL join kinds.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
)

// Join is one JOIN clause: either an ON predicate or a USING column list.
type Join struct {
	Type  JoinType
	Table string
	Alias string
	On    Expr
	Using []string
}

// OrderItem is one ORDER BY expression with its sort direction.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// FusionClause configures a USING FUSION strategy for combining ranked
// result sets (vector + text, or multiple query vectors).
type FusionClause struct {
	Strategy string
	Params   map[string]float64
}

// CompoundOp enumerates the set operations a SELECT tail may apply.
type CompoundOp int

const (
	CompoundUnion CompoundOp = iota
	CompoundUnionAll
	CompoundIntersect
	CompoundExcept
)

// CompoundQuery chains a set operation onto a preceding SELECT.
type CompoundQuery struct {
	Op    CompoundOp
	Right *SelectQuery
}

// Direction constrains which way a relationship pattern may point.
type Direction int

const (
	DirBoth Direction = iota
	DirOut
	DirIn
)

// NodePattern is one `(alias:Label {prop: val})` element of a MATCH
// pattern.
type NodePattern struct {
	Variable string
	Labels   []string
	Props    map[string]Expr
}

// EdgePattern is one `[alias:TYPE*min..max]` relationship element of a
// MATCH pattern, including type unions (`:A|B`) and variable-length
// hop ranges.
type EdgePattern struct {
	Variable  string
	Types     []string
	Direction Direction
	MinHops   *int
	MaxHops   *int
	Props     map[string]Expr
}

// PatternElement is a node, optionally followed by the edge connecting
// it to the next node in the pattern chain.
type PatternElement struct {
	Node *NodePattern
	Edge *EdgePattern
}

// GraphPattern is the full chain of nodes and edges in one MATCH clause.
type GraphPattern struct {
	Elements []PatternElement
}

// MatchQuery is the AST for a MATCH statement.
type MatchQuery struct {
	Pattern  GraphPattern
	Optional bool
	Where    Expr
	Return   []SelectItem
	OrderBy  []OrderItem
	Limit    *int
}

// Expr is any VelesQL scalar or boolean expression node.
type Expr interface{ exprMarker() }

// Literal is a constant value: string, number, bool, or nil.
type Literal struct{ Value any }

func (Literal) exprMarker() {}

// ParamRef is a `$name` bound-parameter reference.
type ParamRef struct{ Name string }

func (ParamRef) exprMarker() {}

// ColumnRef is a (possibly table-qualified) column or property
// reference.
type ColumnRef struct{ Table, Name string }

func (ColumnRef) exprMarker() {}

// BinaryExpr is a two-operand operator expression: comparison,
// arithmetic, AND/OR, LIKE/ILIKE. IN and BETWEEN have their own
// InExpr and BetweenExpr nodes.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

func (BinaryExpr) exprMarker() {}

// UnaryExpr is a single-operand operator expression: NOT, unary minus,
// IS NULL.
type UnaryExpr struct {
	Op      string
	Operand Expr
}

func (UnaryExpr) exprMarker() {}

// FuncCall is a named function application, including aggregates
// (COUNT, SUM, AVG, MIN, MAX) and scalar functions.
type FuncCall struct {
	Name string
	Args []Expr
}

func (FuncCall) exprMarker() {}

// NearExpr is a `vector NEAR $param` or `vector NEAR_FUSED [...]
// USING FUSION '...'` vector-search predicate.
type NearExpr struct {
	Param  Expr
	Fused  []Expr
	Fusion *FusionClause
}

func (NearExpr) exprMarker() {}

// SimilarityExpr is a `similarity(field, $vec)` scalar call usable in
// WHERE, ORDER BY, or projections.
type SimilarityExpr struct {
	Field  string
	Vector Expr
}

func (SimilarityExpr) exprMarker() {}

// SubqueryExpr is a nested SELECT appearing in a value position.
// Correlated is set when the subquery references an outer column.
type SubqueryExpr struct {
	Query      *SelectQuery
	Correlated bool
}

func (SubqueryExpr) exprMarker() {}

// IntervalExpr is an `INTERVAL '7 days'`-style duration literal,
// evaluated to seconds at execution time.
type IntervalExpr struct {
	Amount float64
	Unit   string
}

func (IntervalExpr) exprMarker() {}

// NowExpr is the zero-arg `NOW()` function, evaluated to the current
// epoch-second count at execution time.
type NowExpr struct{}

func (NowExpr) exprMarker() {}

// InExpr is a `expr IN (list)` or `expr IN $param` predicate.
type InExpr struct {
	Expr  Expr
	List  []Expr
	Param Expr
	Not   bool
}

func (InExpr) exprMarker() {}

// BetweenExpr is a `expr BETWEEN lo AND hi` predicate.
type BetweenExpr struct {
	Expr Expr
	Low  Expr
	High Expr
	Not  bool
}

func (BetweenExpr) exprMarker() {}
