// Package parser turns NebulaSQL text into an AST.
//
// # Usage
//
//	stmt, err := parser.Parse("SELECT a FROM s WINDOW TUMBLING(SIZE 10 SEC)")
//	if err != nil {
//	    var pe *parser.ParseError
//	    errors.As(err, &pe) // pe.Line(), pe.Column(), pe.Expected
//	}
//
// Keyword reservation and numeric literal classification are fixed per
// Parser through its dialect:
//
//	p := parser.New(dialect.ANSI)
//	stmt, err := p.Parse(sql)
//
// A Parser holds no mutable state and may be shared between goroutines.
//
// # Grammar Overview
//
//	singleStatement → query ';'* EOF
//	query           → queryTerm [ORDER BY sortItem, ...] [LIMIT (ALL | n)] [OFFSET n]
//	queryTerm       → queryPrimary | queryTerm UNION queryTerm
//	queryPrimary    → querySpecification | fromStatement | TABLE name
//	                | VALUES expr, ... alias | '(' query ')'
//	querySpec       → selectClause fromClause [WHERE expr]
//	                  [[aggregationClause] windowClause [watermarkClause]]
//	                  [HAVING expr] [sinkClause]
//
// See each file for the detailed rules of its section. The first error
// aborts the parse; no partial tree is returned.
package parser

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// Parser parses NebulaSQL with a fixed dialect.
type Parser struct {
	dialect *dialect.Dialect
}

// New returns a parser for d. A nil dialect selects dialect.Default().
func New(d *dialect.Dialect) *Parser {
	if d == nil {
		d = dialect.Default()
	}
	return &Parser{dialect: d}
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() *dialect.Dialect {
	return p.dialect
}

// Parse parses the default dialect.
func Parse(sql string) (*SingleStatement, error) {
	return New(nil).Parse(sql)
}

// ParseWithDialect parses sql with a specific dialect and returns the AST.
func ParseWithDialect(sql string, d *dialect.Dialect) (*SingleStatement, error) {
	return New(d).Parse(sql)
}

// Parse parses exactly one statement followed by optional semicolons.
func (p *Parser) Parse(sql string) (*SingleStatement, error) {
	var stmt *SingleStatement
	err := p.run(sql, func(s *state) {
		stmt = s.parseSingleStatement()
	})
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

// ParseScript parses zero or more statements separated by semicolons.
func (p *Parser) ParseScript(sql string) ([]*SingleStatement, error) {
	var stmts []*SingleStatement
	err := p.run(sql, func(s *state) {
		stmts = s.parseScript()
	})
	if err != nil {
		return nil, err
	}
	return stmts, nil
}

// ParseExpression parses a single standalone expression.
func (p *Parser) ParseExpression(sql string) (Expr, error) {
	var expr Expr
	err := p.run(sql, func(s *state) {
		expr = s.parseExpression()
		s.expectEOF()
	})
	if err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) run(sql string, fn func(*state)) (err error) {
	toks, err := Tokenize(sql)
	if err != nil {
		return err
	}
	s := newState(toks, p.dialect)
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			err = s.err
		}
	}()
	fn(s)
	return nil
}

// bailout unwinds the recursive descent after the first error.
type bailout struct{}

// state is the per-call parser state over an eagerly lexed token slice.
type state struct {
	dialect *dialect.Dialect
	tokens  []token.Token
	pos     int
	token   token.Token // tokens[pos]
	err     *ParseError

	// furthest is the deepest error from an abandoned speculation.
	furthest *ParseError

	// Token kinds checked at expectAt, reported when an error is raised there.
	expectAt int
	expected map[string]struct{}
}

func newState(toks []token.Token, d *dialect.Dialect) *state {
	s := &state{
		dialect:  d,
		tokens:   toks,
		expected: make(map[string]struct{}),
	}
	s.token = toks[0]
	return s
}

// ---------- Token Helpers ----------

// nextToken advances to the next token. EOF is sticky.
func (s *state) nextToken() {
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	s.token = s.tokens[s.pos]
}

// at returns the token n positions ahead of the current one.
func (s *state) at(n int) token.Token {
	i := s.pos + n
	if i >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1]
	}
	return s.tokens[i]
}

// prevEnd returns the end of the last consumed token.
func (s *state) prevEnd() token.Position {
	if s.pos == 0 {
		return s.token.Pos
	}
	return s.tokens[s.pos-1].End()
}

// spanFrom returns the span from start to the end of the last consumed token.
func (s *state) spanFrom(start token.Position) token.Span {
	return token.Span{Start: start, End: s.prevEnd()}
}

// expecting records that kind would have been accepted at the current token.
func (s *state) expecting(kind string) {
	switch {
	case s.pos > s.expectAt:
		s.expectAt = s.pos
		clear(s.expected)
	case s.pos < s.expectAt:
		return
	}
	s.expected[kind] = struct{}{}
}

// check returns true if the current token is of the given type. A failed
// check is remembered for the expected set of a later error.
func (s *state) check(t token.TokenType) bool {
	if s.token.Type == t {
		return true
	}
	s.expecting(t.String())
	return false
}

// checkPeek returns true if the next token is of the given type.
func (s *state) checkPeek(t token.TokenType) bool {
	return s.at(1).Type == t
}

// checkPeek2 returns true if the token after next is of the given type.
func (s *state) checkPeek2(t token.TokenType) bool {
	return s.at(2).Type == t
}

// match consumes the current token if it matches and returns true.
func (s *state) match(t token.TokenType) bool {
	if s.check(t) {
		s.nextToken()
		return true
	}
	return false
}

// expect consumes a token of type t or fails.
func (s *state) expect(t token.TokenType) token.Token {
	if !s.check(t) {
		s.errorUnexpected()
	}
	tok := s.token
	s.nextToken()
	return tok
}

// expectEOF fails with KindTrailingInput unless the input is exhausted.
func (s *state) expectEOF() {
	if s.check(token.EOF) {
		return
	}
	s.fail(KindTrailingInput, "")
}

// expectInteger consumes an INTEGER_VALUE and returns its value.
func (s *state) expectInteger() int64 {
	if !s.check(token.INTEGER_VALUE) {
		s.errorUnexpected()
	}
	n, err := strconv.ParseInt(s.token.Literal, 10, 64)
	if err != nil {
		s.fail(KindSyntax, ErrIntegerRange, s.token.Literal)
	}
	s.nextToken()
	return n
}

// ---------- Errors ----------

// errorUnexpected fails at the current token with the expected set.
func (s *state) errorUnexpected() {
	s.fail(KindSyntax, "")
}

// fail records the error at the current token and unwinds. An empty format
// produces the standard "unexpected X, expected Y" message.
func (s *state) fail(kind ErrorKind, format string, args ...any) {
	pe := &ParseError{
		Kind:  kind,
		Pos:   s.token.Pos,
		Found: s.token.String(),
	}
	if s.expectAt == s.pos && len(s.expected) > 0 {
		pe.Expected = sortedKeys(s.expected)
	}
	switch {
	case format != "":
		pe.Message = fmt.Sprintf(format, args...)
	case len(pe.Expected) > 0:
		pe.Message = fmt.Sprintf(ErrUnexpectedToken, pe.Found, expectedList(pe.Expected))
	default:
		pe.Message = fmt.Sprintf(ErrUnexpectedTokenBare, pe.Found)
	}
	if s.furthest != nil && s.furthest.Pos.Offset > pe.Pos.Offset {
		pe = s.furthest
	}
	s.err = pe
	panic(bailout{})
}

// ---------- Speculation ----------

type mark struct {
	pos      int
	expectAt int
	expected map[string]struct{}
}

func (s *state) mark() mark {
	m := mark{pos: s.pos, expectAt: s.expectAt, expected: make(map[string]struct{}, len(s.expected))}
	for k := range s.expected {
		m.expected[k] = struct{}{}
	}
	return m
}

func (s *state) reset(m mark) {
	s.pos = m.pos
	s.token = s.tokens[m.pos]
	s.expectAt = m.expectAt
	s.expected = m.expected
	s.err = nil
}

// try runs fn speculatively. On failure the state is rewound and try
// returns false; errors other than parse failures propagate. The failure is
// kept so a later error can report the branch that got furthest.
func (s *state) try(fn func()) (ok bool) {
	m := s.mark()
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			if s.furthest == nil || s.err.Pos.Offset > s.furthest.Pos.Offset {
				s.furthest = s.err
			}
			s.reset(m)
			ok = false
		}
	}()
	fn()
	return true
}
