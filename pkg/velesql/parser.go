package velesql

import (
	"strconv"
	"strings"

	"github.com/cyberlife-coder/velesdb/internal/verr"
)

// Parser turns VelesQL source text into a Query AST via recursive
// descent over a fully pre-lexed token stream.
type Parser struct {
	src    string
	tokens []Token
	pos    int
}

// NewParser lexes src in full and returns a Parser positioned at the
// first token.
func NewParser(src string) (*Parser, error) {
	lex := NewLexer(src)
	var tokens []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	return &Parser{src: src, tokens: tokens}, nil
}

// ParseQuery parses src as either a SELECT or a MATCH statement.
func ParseQuery(src string) (*Query, error) {
	p, err := NewParser(src)
	if err != nil {
		return nil, err
	}
	return p.ParseQuery()
}

func (p *Parser) cur() Token  { return p.tokens[p.pos] }
func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atKeyword(word string) bool {
	t := p.cur()
	return t.Kind == TokKeyword && strings.EqualFold(t.Text, word)
}

func (p *Parser) atAnyKeyword(words ...string) bool {
	for _, w := range words {
		if p.atKeyword(w) {
			return true
		}
	}
	return false
}

func (p *Parser) expectKeyword(word string) error {
	if !p.atKeyword(word) {
		return p.errorf("expected %q", strings.ToUpper(word))
	}
	p.advance()
	return nil
}

func (p *Parser) expectKind(kind TokenKind, desc string) (Token, error) {
	if p.cur().Kind != kind {
		return Token{}, p.errorf("expected %s", desc)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return verr.Parse(verr.Position{Offset: p.cur().Pos}, p.cur().Text, format, args...)
}

// ParseQuery dispatches on the leading keyword.
func (p *Parser) ParseQuery() (*Query, error) {
	switch {
	case p.atKeyword("select"):
		sel, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		return &Query{Kind: KindSelect, Select: sel, Source: p.src}, nil
	case p.atKeyword("match") || p.atKeyword("optional"):
		m, err := p.parseMatch()
		if err != nil {
			return nil, err
		}
		return &Query{Kind: KindMatch, Match: m, Source: p.src}, nil
	default:
		return nil, p.errorf("expected SELECT or MATCH")
	}
}

// ---- SELECT ----

func (p *Parser) parseSelect() (*SelectQuery, error) {
	if err := p.expectKeyword("select"); err != nil {
		return nil, err
	}
	q := &SelectQuery{}
	if p.atKeyword("distinct") {
		p.advance()
		q.Distinct = true
	}

	cols, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	q.Columns = cols

	if err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	from, err := p.expectKind(TokIdent, "table name")
	if err != nil {
		return nil, err
	}
	q.From = from.Text
	q.FromAlias = q.From
	if p.cur().Kind == TokIdent {
		q.FromAlias = p.advance().Text
	} else if p.atKeyword("as") {
		p.advance()
		alias, err := p.expectKind(TokIdent, "alias")
		if err != nil {
			return nil, err
		}
		q.FromAlias = alias.Text
	}

	for p.atAnyKeyword("join", "inner", "left", "right", "full") {
		j, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		q.Joins = append(q.Joins, j)
	}

	if p.atKeyword("where") {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Where = expr
	}

	if p.atKeyword("group") {
		p.advance()
		if err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		exprs, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		q.GroupBy = exprs
	}

	if p.atKeyword("having") {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Having = expr
	}

	if p.atKeyword("order") {
		p.advance()
		if err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		q.OrderBy = items
	}

	if p.atKeyword("limit") {
		p.advance()
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		q.Limit = &n
	}

	if p.atKeyword("offset") {
		p.advance()
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		q.Offset = &n
	}

	if p.atKeyword("with") {
		p.advance()
		opts, err := p.parseWithOptions()
		if err != nil {
			return nil, err
		}
		q.With = opts
	}

	if p.atKeyword("using") {
		p.advance()
		if err := p.expectKeyword("fusion"); err != nil {
			return nil, err
		}
		fc, err := p.parseFusionClause()
		if err != nil {
			return nil, err
		}
		q.Fusion = fc
	}

	if p.atAnyKeyword("union", "intersect", "except") {
		op := CompoundUnion
		switch {
		case p.atKeyword("union"):
			p.advance()
			if p.atKeyword("all") {
				p.advance()
				op = CompoundUnionAll
			} else {
				op = CompoundUnion
			}
		case p.atKeyword("intersect"):
			p.advance()
			op = CompoundIntersect
		case p.atKeyword("except"):
			p.advance()
			op = CompoundExcept
		}
		right, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		q.Compound = &CompoundQuery{Op: op, Right: right}
	}

	return q, nil
}

func (p *Parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem
	for {
		if p.cur().Kind == TokStar {
			p.advance()
			items = append(items, SelectItem{Expr: ColumnRef{Name: "*"}})
		} else {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			alias := ""
			if p.atKeyword("as") {
				p.advance()
				tok, err := p.expectKind(TokIdent, "alias")
				if err != nil {
					return nil, err
				}
				alias = tok.Text
			} else if p.cur().Kind == TokIdent {
				alias = p.advance().Text
			}
			items = append(items, SelectItem{Expr: expr, Alias: alias})
		}
		if p.cur().Kind == TokComma {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseJoin() (Join, error) {
	jt := JoinInner
	switch {
	case p.atKeyword("inner"):
		p.advance()
	case p.atKeyword("left"):
		p.advance()
		jt = JoinLeft
	case p.atKeyword("right"):
		p.advance()
		jt = JoinRight
	case p.atKeyword("full"):
		p.advance()
		jt = JoinFull
	}
	if p.atKeyword("join") {
		p.advance()
	} else {
		return Join{}, p.errorf("expected JOIN")
	}

	table, err := p.expectKind(TokIdent, "joined table name")
	if err != nil {
		return Join{}, err
	}
	j := Join{Type: jt, Table: table.Text, Alias: table.Text}
	if p.cur().Kind == TokIdent {
		j.Alias = p.advance().Text
	}

	switch {
	case p.atKeyword("on"):
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return Join{}, err
		}
		j.On = expr
	case p.atKeyword("using"):
		p.advance()
		if _, err := p.expectKind(TokLParen, "'('"); err != nil {
			return Join{}, err
		}
		for {
			col, err := p.expectKind(TokIdent, "column name")
			if err != nil {
				return Join{}, err
			}
			j.Using = append(j.Using, col.Text)
			if p.cur().Kind == TokComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectKind(TokRParen, "')'"); err != nil {
			return Join{}, err
		}
	default:
		return Join{}, p.errorf("expected ON or USING after JOIN")
	}
	return j, nil
}

func (p *Parser) parseOrderByList() ([]OrderItem, error) {
	var items []OrderItem
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		desc := false
		if p.atKeyword("asc") {
			p.advance()
		} else if p.atKeyword("desc") {
			p.advance()
			desc = true
		}
		items = append(items, OrderItem{Expr: expr, Desc: desc})
		if p.cur().Kind == TokComma {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseWithOptions() (map[string]any, error) {
	if _, err := p.expectKind(TokLParen, "'(' after WITH"); err != nil {
		return nil, err
	}
	opts := map[string]any{}
	for p.cur().Kind != TokRParen {
		key, err := p.expectKind(TokIdent, "option name")
		if err != nil {
			return nil, err
		}
		switch {
		case p.cur().Kind == TokColon:
			p.advance()
		case p.cur().Kind == TokOp && p.cur().Text == "=":
			p.advance()
		default:
			return nil, p.errorf("expected ':' or '=' after option name")
		}
		val, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		opts[key.Text] = literalValue(val)
		if p.cur().Kind == TokComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectKind(TokRParen, "')'"); err != nil {
		return nil, err
	}
	return opts, nil
}

func literalValue(e Expr) any {
	if lit, ok := e.(Literal); ok {
		return lit.Value
	}
	return e
}

func (p *Parser) parseFusionClause() (*FusionClause, error) {
	tok, err := p.expectKind(TokString, "fusion strategy name")
	if err != nil {
		return nil, err
	}
	fc := &FusionClause{Strategy: strings.ToLower(tok.Text), Params: map[string]float64{}}
	if p.cur().Kind == TokLParen {
		p.advance()
		for p.cur().Kind != TokRParen {
			key, err := p.expectKind(TokIdent, "fusion param name")
			if err != nil {
				return nil, err
			}
			if p.cur().Kind == TokColon {
				p.advance()
			}
			numTok, err := p.expectKind(TokNumber, "fusion param value")
			if err != nil {
				return nil, err
			}
			f, err := strconv.ParseFloat(numTok.Text, 64)
			if err != nil {
				return nil, p.errorf("invalid fusion parameter %q", numTok.Text)
			}
			fc.Params[key.Text] = f
			if p.cur().Kind == TokComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectKind(TokRParen, "')'"); err != nil {
			return nil, err
		}
	}
	return fc, nil
}

func (p *Parser) parseIntLiteral() (int, error) {
	tok, err := p.expectKind(TokNumber, "integer literal")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.Text)
	if err != nil {
		return 0, p.errorf("expected integer, got %q", tok.Text)
	}
	return n, nil
}

func (p *Parser) parseExprList() ([]Expr, error) {
	var out []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.cur().Kind == TokComma {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// ---- MATCH ----

func (p *Parser) parseMatch() (*MatchQuery, error) {
	m := &MatchQuery{}
	if p.atKeyword("optional") {
		p.advance()
		m.Optional = true
	}
	if err := p.expectKeyword("match"); err != nil {
		return nil, err
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	m.Pattern = pattern

	if p.atKeyword("where") {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m.Where = expr
	}

	if err := p.expectKeyword("return"); err != nil {
		return nil, err
	}
	items, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	m.Return = items

	if p.atKeyword("order") {
		p.advance()
		if err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		ob, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		m.OrderBy = ob
	}

	if p.atKeyword("limit") {
		p.advance()
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		m.Limit = &n
	}

	return m, nil
}

func (p *Parser) parsePattern() (GraphPattern, error) {
	var pattern GraphPattern
	node, err := p.parseNodePattern()
	if err != nil {
		return pattern, err
	}
	pattern.Elements = append(pattern.Elements, PatternElement{Node: node})

	for p.cur().Kind == TokDash || p.cur().Kind == TokArrowLeft || p.cur().Kind == TokArrowRight {
		edge, err := p.parseEdgePattern()
		if err != nil {
			return pattern, err
		}
		nextNode, err := p.parseNodePattern()
		if err != nil {
			return pattern, err
		}
		last := len(pattern.Elements) - 1
		pattern.Elements[last].Edge = edge
		pattern.Elements = append(pattern.Elements, PatternElement{Node: nextNode})
	}
	return pattern, nil
}

func (p *Parser) parseNodePattern() (*NodePattern, error) {
	if _, err := p.expectKind(TokLParen, "'(' to open node pattern"); err != nil {
		return nil, err
	}
	n := &NodePattern{}
	if p.cur().Kind == TokIdent {
		n.Variable = p.advance().Text
	}
	for p.cur().Kind == TokColon {
		p.advance()
		label, err := p.expectKind(TokIdent, "label name")
		if err != nil {
			return nil, err
		}
		n.Labels = append(n.Labels, label.Text)
	}
	if p.cur().Kind == TokLBrace {
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		n.Props = props
	}
	if _, err := p.expectKind(TokRParen, "')' to close node pattern"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parsePropertyMap() (map[string]Expr, error) {
	if _, err := p.expectKind(TokLBrace, "'{'"); err != nil {
		return nil, err
	}
	props := map[string]Expr{}
	for p.cur().Kind != TokRBrace {
		key, err := p.expectKind(TokIdent, "property name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(TokColon, "':'"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		props[key.Text] = val
		if p.cur().Kind == TokComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectKind(TokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return props, nil
}

// parseEdgePattern parses one of: -->, <--, --, -[...]->, <-[...]-, -[...]-
func (p *Parser) parseEdgePattern() (*EdgePattern, error) {
	e := &EdgePattern{Direction: DirBoth}

	if p.cur().Kind == TokArrowLeft {
		p.advance()
		e.Direction = DirIn
		if p.cur().Kind == TokLBracket {
			if err := p.parseEdgeBody(e); err != nil {
				return nil, err
			}
		}
		if _, err := p.expectKind(TokDash, "'-' to close relationship"); err != nil {
			return nil, err
		}
		return e, nil
	}

	// leading dash
	if _, err := p.expectKind(TokDash, "'-' to open relationship"); err != nil {
		return nil, err
	}
	if p.cur().Kind == TokLBracket {
		if err := p.parseEdgeBody(e); err != nil {
			return nil, err
		}
	}
	switch p.cur().Kind {
	case TokArrowRight:
		p.advance()
		e.Direction = DirOut
	case TokDash:
		p.advance()
		e.Direction = DirBoth
	default:
		return nil, p.errorf("expected '->' or '-' to close relationship")
	}
	return e, nil
}

func (p *Parser) parseEdgeBody(e *EdgePattern) error {
	if _, err := p.expectKind(TokLBracket, "'['"); err != nil {
		return err
	}
	if p.cur().Kind == TokIdent {
		e.Variable = p.advance().Text
	}
	if p.cur().Kind == TokColon {
		p.advance()
		for {
			typ, err := p.expectKind(TokIdent, "relationship type")
			if err != nil {
				return err
			}
			e.Types = append(e.Types, typ.Text)
			if p.cur().Kind == TokPipe {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().Kind == TokStar {
		p.advance()
		min, max := 1, 1
		if p.cur().Kind == TokNumber {
			n, err := p.parseIntLiteral()
			if err != nil {
				return err
			}
			min, max = n, n
		}
		if p.cur().Kind == TokDot {
			p.advance()
			if p.cur().Kind == TokDot {
				p.advance()
			}
			if p.cur().Kind == TokNumber {
				n, err := p.parseIntLiteral()
				if err != nil {
					return err
				}
				max = n
			} else {
				max = maxHopsUnbounded
			}
		}
		e.MinHops = &min
		e.MaxHops = &max
	}
	if p.cur().Kind == TokLBrace {
		props, err := p.parsePropertyMap()
		if err != nil {
			return err
		}
		e.Props = props
	}
	_, err := p.expectKind(TokRBracket, "']'")
	return err
}

const maxHopsUnbounded = 1 << 20

// ---- Expressions (precedence climbing) ----

func (p *Parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.atKeyword("not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	switch {
	case p.cur().Kind == TokOp && isCompareOp(p.cur().Text):
		op := p.advance().Text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: op, Left: left, Right: right}, nil

	case p.atKeyword("in"):
		p.advance()
		return p.parseInTail(left, false)

	case p.atKeyword("not") && p.peekIsKeyword(1, "in"):
		p.advance()
		p.advance()
		return p.parseInTail(left, true)

	case p.atKeyword("between"):
		p.advance()
		return p.parseBetweenTail(left, false)

	case p.atKeyword("not") && p.peekIsKeyword(1, "between"):
		p.advance()
		p.advance()
		return p.parseBetweenTail(left, true)

	case p.atAnyKeyword("like", "ilike"):
		op := strings.ToUpper(p.advance().Text)
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: op, Left: left, Right: right}, nil

	case p.atKeyword("is"):
		p.advance()
		not := false
		if p.atKeyword("not") {
			p.advance()
			not = true
		}
		if err := p.expectKeyword("null"); err != nil {
			return nil, err
		}
		op := "IS NULL"
		if not {
			op = "IS NOT NULL"
		}
		return UnaryExpr{Op: op, Operand: left}, nil
	}
	return left, nil
}

func (p *Parser) peekIsKeyword(offset int, word string) bool {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return false
	}
	t := p.tokens[idx]
	return t.Kind == TokKeyword && strings.EqualFold(t.Text, word)
}

func isCompareOp(text string) bool {
	switch text {
	case "=", "!=", "<>", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func (p *Parser) parseInTail(left Expr, not bool) (Expr, error) {
	if p.cur().Kind == TokParam {
		param := ParamRef{Name: p.advance().Text}
		return InExpr{Expr: left, Param: param, Not: not}, nil
	}
	if _, err := p.expectKind(TokLParen, "'(' after IN"); err != nil {
		return nil, err
	}
	list, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(TokRParen, "')'"); err != nil {
		return nil, err
	}
	return InExpr{Expr: left, List: list, Not: not}, nil
}

func (p *Parser) parseBetweenTail(left Expr, not bool) (Expr, error) {
	low, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("and"); err != nil {
		return nil, err
	}
	high, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return BetweenExpr{Expr: left, Low: low, High: high, Not: not}, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for (p.cur().Kind == TokOp && (p.cur().Text == "+")) || p.cur().Kind == TokDash {
		op := p.advance().Text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == TokOp && (p.cur().Text == "*" || p.cur().Text == "/" || p.cur().Text == "%") {
		op := p.advance().Text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
	// `*` is tokenized separately from TokOp for SELECT * convenience;
	// handle bare `col * col` via TokStar too.
	for p.cur().Kind == TokStar {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "*", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.cur().Kind == TokDash {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()

	switch {
	case tok.Kind == TokNumber:
		p.advance()
		v, err := ParseNumberLiteral(tok.Text)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		return Literal{Value: v}, nil

	case tok.Kind == TokString:
		p.advance()
		return Literal{Value: tok.Text}, nil

	case tok.Kind == TokParam:
		p.advance()
		return ParamRef{Name: tok.Text}, nil

	case tok.Kind == TokLParen:
		p.advance()
		if p.atKeyword("select") {
			sub, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectKind(TokRParen, "')'"); err != nil {
				return nil, err
			}
			return SubqueryExpr{Query: sub, Correlated: referencesOuterColumn(sub)}, nil
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case tok.Kind == TokLBracket:
		return p.parseArrayLiteral()

	case tok.Kind == TokKeyword && strings.EqualFold(tok.Text, "true"):
		p.advance()
		return Literal{Value: true}, nil
	case tok.Kind == TokKeyword && strings.EqualFold(tok.Text, "false"):
		p.advance()
		return Literal{Value: false}, nil
	case tok.Kind == TokKeyword && strings.EqualFold(tok.Text, "null"):
		p.advance()
		return Literal{Value: nil}, nil

	case tok.Kind == TokKeyword && strings.EqualFold(tok.Text, "now"):
		p.advance()
		if _, err := p.expectKind(TokLParen, "'(' after NOW"); err != nil {
			return nil, err
		}
		if _, err := p.expectKind(TokRParen, "')' after NOW("); err != nil {
			return nil, err
		}
		return NowExpr{}, nil

	case tok.Kind == TokKeyword && strings.EqualFold(tok.Text, "interval"):
		p.advance()
		litTok, err := p.expectKind(TokString, "interval literal string")
		if err != nil {
			return nil, err
		}
		return parseIntervalLiteral(litTok.Text, p)

	case tok.Kind == TokKeyword && strings.EqualFold(tok.Text, "near"):
		p.advance()
		return p.parseNearExpr(false)

	case tok.Kind == TokKeyword && strings.EqualFold(tok.Text, "near_fused"):
		p.advance()
		return p.parseNearExpr(true)

	case tok.Kind == TokKeyword && strings.EqualFold(tok.Text, "similarity"):
		p.advance()
		if _, err := p.expectKind(TokLParen, "'(' after similarity"); err != nil {
			return nil, err
		}
		fieldTok, err := p.expectKind(TokIdent, "field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(TokComma, "','"); err != nil {
			return nil, err
		}
		vec, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return SimilarityExpr{Field: fieldTok.Text, Vector: vec}, nil

	case tok.Kind == TokIdent:
		p.advance()
		name := tok.Text
		if strings.EqualFold(name, "vector") && p.atKeyword("near") {
			p.advance()
			return p.parseNearExpr(false)
		}
		if strings.EqualFold(name, "vector") && p.atKeyword("near_fused") {
			p.advance()
			return p.parseNearExpr(true)
		}
		if p.cur().Kind == TokLParen {
			p.advance()
			var args []Expr
			for p.cur().Kind != TokRParen {
				if p.cur().Kind == TokStar {
					p.advance()
					args = append(args, ColumnRef{Name: "*"})
				} else {
					a, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
				}
				if p.cur().Kind == TokComma {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expectKind(TokRParen, "')'"); err != nil {
				return nil, err
			}
			return FuncCall{Name: name, Args: args}, nil
		}
		if p.cur().Kind == TokDot {
			p.advance()
			field, err := p.expectKind(TokIdent, "column name after '.'")
			if err != nil {
				return nil, err
			}
			return ColumnRef{Table: name, Name: field.Text}, nil
		}
		return ColumnRef{Name: name}, nil

	default:
		return nil, p.errorf("unexpected token in expression")
	}
}

func (p *Parser) parseArrayLiteral() (Expr, error) {
	if _, err := p.expectKind(TokLBracket, "'['"); err != nil {
		return nil, err
	}
	var elems []Expr
	for p.cur().Kind != TokRBracket {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.cur().Kind == TokComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectKind(TokRBracket, "']'"); err != nil {
		return nil, err
	}
	return FuncCall{Name: "ARRAY", Args: elems}, nil
}

func (p *Parser) parseNearExpr(fused bool) (Expr, error) {
	n := &NearExpr{}
	if fused {
		arr, err := p.parseArrayLiteral()
		if err != nil {
			return nil, err
		}
		n.Fused = arr.(FuncCall).Args
		if p.atKeyword("using") {
			p.advance()
			if err := p.expectKeyword("fusion"); err != nil {
				return nil, err
			}
			fc, err := p.parseFusionClause()
			if err != nil {
				return nil, err
			}
			n.Fusion = fc
		}
		return *n, nil
	}
	param, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	n.Param = param
	return *n, nil
}

func parseIntervalLiteral(text string, p *Parser) (Expr, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return nil, p.errorf("invalid interval literal %q, expected '<amount> <unit>'", text)
	}
	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, p.errorf("invalid interval amount %q", fields[0])
	}
	return IntervalExpr{Amount: amount, Unit: strings.TrimSuffix(strings.ToLower(fields[1]), "s")}, nil
}

// referencesOuterColumn is the cheap correlation heuristic: it reports
// whether a subquery's WHERE clause holds a table-qualified column
// reference whose qualifier is not the subquery's own FROM alias.
// Unqualified columns are taken as the subquery's own.
func referencesOuterColumn(q *SelectQuery) bool {
	if q.Where == nil {
		return false
	}
	return exprReferencesOuter(q.Where, q.FromAlias)
}

func exprReferencesOuter(e Expr, ownAlias string) bool {
	switch v := e.(type) {
	case ColumnRef:
		return v.Table != "" && v.Table != ownAlias
	case BinaryExpr:
		return exprReferencesOuter(v.Left, ownAlias) || exprReferencesOuter(v.Right, ownAlias)
	case UnaryExpr:
		return exprReferencesOuter(v.Operand, ownAlias)
	case FuncCall:
		for _, a := range v.Args {
			if exprReferencesOuter(a, ownAlias) {
				return true
			}
		}
		return false
	case InExpr:
		if exprReferencesOuter(v.Expr, ownAlias) {
			return true
		}
		for _, a := range v.List {
			if exprReferencesOuter(a, ownAlias) {
				return true
			}
		}
		return false
	case BetweenExpr:
		return exprReferencesOuter(v.Expr, ownAlias) || exprReferencesOuter(v.Low, ownAlias) || exprReferencesOuter(v.High, ownAlias)
	case SimilarityExpr:
		return exprReferencesOuter(v.Vector, ownAlias)
	default:
		return false
	}
}
