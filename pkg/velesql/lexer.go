// Package velesql implements VelesDB's query language: a SELECT
// dialect for vector/metadata search and a Cypher-lite MATCH dialect
// for graph pattern traversal, sharing one lexer, AST, and parameter
// binding layer.
package velesql

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cyberlife-coder/velesdb/internal/verr"
)

// TokenKind classifies one lexical token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokKeyword
	TokNumber
	TokString
	TokParam  // $name
	TokOp     // = != <> < <= > >= + / % (- is TokDash, * is TokStar)
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokLBrace
	TokRBrace
	TokComma
	TokDot
	TokColon
	TokStar
	TokArrowRight // ->
	TokArrowLeft  // <-
	TokDash       // -
	TokPipe       // | (relationship-type union)
)

// Token is one lexed unit, with its source position for error messages.
type Token struct {
	Kind Token_Kind
	Text string
	Pos  int
}

// Token_Kind is an alias kept for readability of the Token struct
// field above without a stutter on first read.
type Token_Kind = TokenKind

var keywords = map[string]bool{
	"select": true, "distinct": true, "from": true, "join": true, "inner": true,
	"left": true, "right": true, "full": true, "on": true, "using": true,
	"where": true, "group": true, "by": true, "having": true, "order": true,
	"asc": true, "desc": true, "limit": true, "offset": true, "with": true,
	"fusion": true, "union": true, "all": true, "intersect": true, "except": true,
	"and": true, "or": true, "not": true, "in": true, "between": true,
	"like": true, "ilike": true, "is": true, "null": true, "as": true,
	"match": true, "optional": true, "return": true, "near": true,
	"near_fused": true, "similarity": true, "now": true, "interval": true,
	"true": true, "false": true,
}

// Lexer tokenizes VelesQL source text.
type Lexer struct {
	src []rune
	pos int
}

// NewLexer returns a Lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src)}
}

func (l *Lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekRuneAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		if unicode.IsSpace(r) {
			l.pos++
			continue
		}
		// "--" starts a line comment, except in the MATCH
		// relationship forms "-->" and "--(".
		if r == '-' && l.peekRuneAt(1) == '-' && l.peekRuneAt(2) != '>' && l.peekRuneAt(2) != '(' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

// Next returns the next token, or a TokEOF token at end of input.
func (l *Lexer) Next() (Token, error) {
	l.skipSpaceAndComments()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Pos: start}, nil
	}

	r := l.src[l.pos]

	switch {
	case r == '$':
		l.pos++
		nameStart := l.pos
		for l.pos < len(l.src) && (isIdentRune(l.src[l.pos])) {
			l.pos++
		}
		if l.pos == nameStart {
			return Token{}, verr.Parse(verr.Position{Offset: start}, string(r), "expected parameter name after '$'")
		}
		return Token{Kind: TokParam, Text: string(l.src[nameStart:l.pos]), Pos: start}, nil

	case r == '\'' || r == '"':
		return l.lexString(r, start)

	case unicode.IsDigit(r):
		return l.lexNumber(start), nil

	case isIdentStart(r):
		for l.pos < len(l.src) && isIdentRune(l.src[l.pos]) {
			l.pos++
		}
		text := string(l.src[start:l.pos])
		kind := TokIdent
		if keywords[strings.ToLower(text)] {
			kind = TokKeyword
		}
		return Token{Kind: kind, Text: text, Pos: start}, nil

	default:
		return l.lexSymbol(start)
	}
}

func (l *Lexer) lexString(quote rune, start int) (Token, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, verr.Parse(verr.Position{Offset: start}, "", "unterminated string literal")
		}
		r := l.src[l.pos]
		if r == quote {
			l.pos++
			break
		}
		if r == '\\' && l.peekRuneAt(1) != 0 {
			sb.WriteRune(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		sb.WriteRune(r)
		l.pos++
	}
	return Token{Kind: TokString, Text: sb.String(), Pos: start}, nil
}

func (l *Lexer) lexNumber(start int) Token {
	for l.pos < len(l.src) && unicode.IsDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.peekRune() == '.' && unicode.IsDigit(l.peekRuneAt(1)) {
		l.pos++
		for l.pos < len(l.src) && unicode.IsDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	return Token{Kind: TokNumber, Text: string(l.src[start:l.pos]), Pos: start}
}

func (l *Lexer) lexSymbol(start int) (Token, error) {
	r := l.src[l.pos]
	two := ""
	if l.pos+1 < len(l.src) {
		two = string(l.src[l.pos : l.pos+2])
	}

	switch two {
	case "!=", "<>", "<=", ">=":
		l.pos += 2
		return Token{Kind: TokOp, Text: two, Pos: start}, nil
	case "->":
		l.pos += 2
		return Token{Kind: TokArrowRight, Text: two, Pos: start}, nil
	case "<-":
		l.pos += 2
		return Token{Kind: TokArrowLeft, Text: two, Pos: start}, nil
	}

	l.pos++
	switch r {
	case '(':
		return Token{Kind: TokLParen, Text: "(", Pos: start}, nil
	case ')':
		return Token{Kind: TokRParen, Text: ")", Pos: start}, nil
	case '[':
		return Token{Kind: TokLBracket, Text: "[", Pos: start}, nil
	case ']':
		return Token{Kind: TokRBracket, Text: "]", Pos: start}, nil
	case '{':
		return Token{Kind: TokLBrace, Text: "{", Pos: start}, nil
	case '}':
		return Token{Kind: TokRBrace, Text: "}", Pos: start}, nil
	case ',':
		return Token{Kind: TokComma, Text: ",", Pos: start}, nil
	case '.':
		return Token{Kind: TokDot, Text: ".", Pos: start}, nil
	case ':':
		return Token{Kind: TokColon, Text: ":", Pos: start}, nil
	case '*':
		return Token{Kind: TokStar, Text: "*", Pos: start}, nil
	case '-':
		return Token{Kind: TokDash, Text: "-", Pos: start}, nil
	case '|':
		return Token{Kind: TokPipe, Text: "|", Pos: start}, nil
	case '=', '<', '>', '+', '/', '%':
		return Token{Kind: TokOp, Text: string(r), Pos: start}, nil
	default:
		return Token{}, verr.Parse(verr.Position{Offset: start}, string(r), "unexpected character %q", r)
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// ParseNumberLiteral converts a lexed number token's text to an int64
// or float64, matching the grammar's literal-typing rule (no decimal
// point -> integer).
func ParseNumberLiteral(text string) (any, error) {
	if !strings.Contains(text, ".") {
		n, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric literal %q: %w", text, err)
	}
	return f, nil
}
