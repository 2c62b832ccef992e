package parser

import (
	"strings"

	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// Primary expressions, constants and identifiers.
//
// Grammar:
//
//	primaryExpression → "*"
//	                  | qualifiedName "." "*"
//	                  | "(" query ")"
//	                  | "(" namedExpression ("," namedExpression)+ ")"
//	                  | functionName "(" [expression ("," expression)*] ")"
//	                  | "(" expression ")"
//	                  | constant
//	                  | identifier
//	                  | primaryExpression "." identifier
//	functionName      → MIN | MAX | AVG | SUM | COUNT | MEDIAN | identifier
//	constant          → NULL | identifier STRING | number | TRUE | FALSE | STRING+
//	number            → "-"? (INTEGER_VALUE | DECIMAL_VALUE | EXPONENT_VALUE | typed literal)
//	errorCapturingIdentifier → identifier ("-" identifier)*

// parsePrimaryExpression parses a primary expression and its .field chain.
func (s *state) parsePrimaryExpression() Expr {
	start := s.token.Pos
	expr := s.parsePrimaryBase()
	for s.check(token.DOT) && s.dialect.IsIdentifier(s.at(1).Type) {
		s.nextToken()
		field := s.parseIdentifier()
		expr = &Dereference{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Base: expr, Field: field}
	}
	return expr
}

func (s *state) parsePrimaryBase() Expr {
	start := s.token.Pos

	if s.match(token.ASTERISK) {
		return &StarExpr{NodeInfo: NodeInfo{Span: s.spanFrom(start)}}
	}
	if n := s.qualifiedStarLength(); n > 0 {
		star := &QualifiedStar{}
		for i := 0; i < n; i++ {
			star.Qualifier = append(star.Qualifier, s.parseIdentifier())
			s.expect(token.DOT)
		}
		s.expect(token.ASTERISK)
		star.Span = s.spanFrom(start)
		return star
	}
	if s.check(token.LPAREN) {
		return s.parseParenthesized()
	}
	if isAggregateName(s.token.Type) && s.checkPeek(token.LPAREN) {
		return s.parseFunctionCall(true)
	}
	if c := s.parseConstant(); c != nil {
		return c
	}

	if !s.checkIdentifier() {
		s.expecting("expression")
		s.errorUnexpected()
	}
	switch {
	case s.checkPeek(token.LPAREN):
		return s.parseFunctionCall(false)
	case s.checkPeek(token.STRING):
		typ := s.parseIdentifier()
		value := unquoteString(s.expect(token.STRING).Literal)
		return &TypeConstructor{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Type: typ, Value: value}
	}
	name := s.parseIdentifier()
	return &ColumnRef{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Name: name}
}

// qualifiedStarLength returns the number of qualifier parts when the input
// is ident ("." ident)* "." "*", or 0.
func (s *state) qualifiedStarLength() int {
	n := 0
	for i := 0; s.dialect.IsIdentifier(s.at(i).Type) && s.at(i+1).Type == token.DOT; i += 2 {
		n++
		if s.at(i+2).Type == token.ASTERISK {
			return n
		}
	}
	return 0
}

// parseParenthesized parses a scalar subquery, a row constructor or a
// parenthesized expression.
func (s *state) parseParenthesized() Expr {
	start := s.token.Pos
	s.expect(token.LPAREN)

	if isQueryStart(s.token.Type) {
		var q *Query
		if s.try(func() {
			q = s.parseQuery()
			s.expect(token.RPAREN)
		}) {
			return &SubqueryExpr{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Query: q}
		}
	}

	first := s.parseNamedExpression()
	if first.Alias == nil && first.Aliases == nil && s.match(token.RPAREN) {
		return &ParenExpr{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Expr: first.Expr}
	}
	row := &RowConstructor{Items: []*NamedExpression{first}}
	s.expect(token.COMMA)
	row.Items = append(row.Items, s.parseNamedExpression())
	for s.match(token.COMMA) {
		row.Items = append(row.Items, s.parseNamedExpression())
	}
	s.expect(token.RPAREN)
	row.Span = s.spanFrom(start)
	return row
}

func isAggregateName(t token.TokenType) bool {
	switch t {
	case token.MIN, token.MAX, token.AVG, token.SUM, token.COUNT, token.MEDIAN:
		return true
	}
	return false
}

// parseFunctionCall parses name(args). The current token is the name.
func (s *state) parseFunctionCall(aggregate bool) *FunctionCall {
	start := s.token.Pos
	fn := &FunctionCall{Aggregate: aggregate}
	if aggregate {
		fn.Name = &Identifier{NodeInfo: NodeInfo{Span: s.token.Span()}, Value: s.token.Literal, Kind: IdentKeyword}
		s.nextToken()
	} else {
		fn.Name = s.parseIdentifier()
	}
	s.expect(token.LPAREN)
	if !s.check(token.RPAREN) {
		fn.Args = s.parseExpressionList()
	}
	s.expect(token.RPAREN)
	fn.Span = s.spanFrom(start)
	return fn
}

// parseConstant parses a literal constant, or returns nil without
// consuming anything.
func (s *state) parseConstant() Expr {
	start := s.token.Pos
	switch {
	case s.match(token.NULL):
		return &NullLiteral{NodeInfo: NodeInfo{Span: s.spanFrom(start)}}
	case s.match(token.TRUE):
		return &BooleanLiteral{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Value: true}
	case s.match(token.FALSE):
		return &BooleanLiteral{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Value: false}
	case s.check(token.STRING):
		lit := &StringLiteral{}
		for s.check(token.STRING) {
			lit.Values = append(lit.Values, unquoteString(s.token.Literal))
			s.nextToken()
		}
		lit.Span = s.spanFrom(start)
		return lit
	case token.IsNumber(s.token.Type), s.token.Type == token.MINUS && token.IsNumber(s.at(1).Type):
		return s.parseNumber()
	}
	s.expecting("number")
	return nil
}

// parseNumber parses an optionally negated numeric literal.
func (s *state) parseNumber() *NumericLiteral {
	start := s.token.Pos
	lit := &NumericLiteral{Negative: s.match(token.MINUS)}
	if !token.IsNumber(s.token.Type) {
		s.expecting("number")
		s.errorUnexpected()
	}
	lit.Text = s.token.Literal
	lit.Kind = s.numberKind(s.token.Type)
	s.nextToken()
	lit.Span = s.spanFrom(start)
	return lit
}

func (s *state) numberKind(t token.TokenType) NumberKind {
	switch t {
	case token.DECIMAL_VALUE:
		if s.dialect.LegacyExponentAsDecimal() {
			return LegacyDecimalLiteral
		}
		return DecimalLiteral
	case token.EXPONENT_VALUE:
		if s.dialect.LegacyExponentAsDecimal() {
			return LegacyDecimalLiteral
		}
		return ExponentLiteral
	case token.BIGINT_LITERAL:
		return BigIntLiteral
	case token.SMALLINT_LITERAL:
		return SmallIntLiteral
	case token.TINYINT_LITERAL:
		return TinyIntLiteral
	case token.DOUBLE_LITERAL:
		return DoubleLiteral
	case token.FLOAT_LITERAL:
		return FloatLiteral
	case token.BIGDECIMAL_LIT:
		return BigDecimalLiteral
	}
	return IntegerLiteral
}

// ---------- Identifiers ----------

// checkIdentifier reports whether the current token may be used as an
// identifier in the active keyword mode.
func (s *state) checkIdentifier() bool {
	if s.dialect.IsIdentifier(s.token.Type) {
		return true
	}
	s.expecting(token.IDENT.String())
	return false
}

// parseIdentifier parses identifier → strictIdentifier | strictNonReserved (non-ANSI only).
func (s *state) parseIdentifier() *Identifier {
	if !s.checkIdentifier() {
		s.errorUnexpected()
	}
	return s.consumeIdentifier()
}

// parseStrictIdentifier parses strictIdentifier, which excludes the join keywords.
func (s *state) parseStrictIdentifier() *Identifier {
	if !s.dialect.IsStrictIdentifier(s.token.Type) {
		s.expecting(token.IDENT.String())
		s.errorUnexpected()
	}
	return s.consumeIdentifier()
}

func (s *state) consumeIdentifier() *Identifier {
	tok := s.token
	s.nextToken()
	id := &Identifier{NodeInfo: NodeInfo{Span: tok.Span()}, Value: tok.Literal}
	switch {
	case tok.Type == token.BACKQUOTED_IDENT:
		id.Kind = IdentQuoted
		id.Value = unquoteBackquoted(tok.Literal)
	case token.IsKeyword(tok.Type):
		id.Kind = IdentKeyword
	}
	return id
}

// parseErrorCapturingIdentifier parses identifier ("-" identifier)*. A
// hyphenated name becomes an ErrorIdent.
func (s *state) parseErrorCapturingIdentifier() Name {
	start := s.token.Pos
	first := s.parseIdentifier()
	if !(s.check(token.MINUS) && s.dialect.IsIdentifier(s.at(1).Type)) {
		return first
	}
	ei := &ErrorIdent{Parts: []*Identifier{first}}
	for s.check(token.MINUS) && s.dialect.IsIdentifier(s.at(1).Type) {
		s.nextToken()
		ei.Parts = append(ei.Parts, s.parseIdentifier())
	}
	ei.Span = s.spanFrom(start)
	return ei
}

// parseIdentifierList parses "(" errorCapturingIdentifier ("," ...)* ")".
func (s *state) parseIdentifierList() []Name {
	s.expect(token.LPAREN)
	names := []Name{s.parseErrorCapturingIdentifier()}
	for s.match(token.COMMA) {
		names = append(names, s.parseErrorCapturingIdentifier())
	}
	s.expect(token.RPAREN)
	return names
}

// parseMultipartIdentifier parses errorCapturingIdentifier ("." ...)*.
func (s *state) parseMultipartIdentifier() *MultipartIdentifier {
	start := s.token.Pos
	m := &MultipartIdentifier{Parts: []Name{s.parseErrorCapturingIdentifier()}}
	for s.match(token.DOT) {
		m.Parts = append(m.Parts, s.parseErrorCapturingIdentifier())
	}
	m.Span = s.spanFrom(start)
	return m
}

// clauseKeywords never start an implicit alias, so "FROM t WHERE ..." does
// not read WHERE as the alias of t even where WHERE is non-reserved.
var clauseKeywords = map[token.TokenType]bool{
	token.FROM: true, token.WHERE: true, token.GROUP: true, token.HAVING: true,
	token.WINDOW: true, token.WATERMARK: true, token.INTO: true, token.ORDER: true,
	token.LIMIT: true, token.OFFSET: true, token.UNION: true, token.JOIN: true,
	token.INNER: true, token.NATURAL: true, token.ON: true, token.SELECT: true,
}

// canStartImplicitAlias reports whether the current token may begin an alias
// written without AS.
func (s *state) canStartImplicitAlias(strict bool) bool {
	t := s.token.Type
	if clauseKeywords[t] {
		return false
	}
	ok := s.dialect.IsIdentifier(t)
	if strict {
		ok = s.dialect.IsStrictIdentifier(t)
	}
	if !ok {
		s.expecting(token.IDENT.String())
	}
	return ok
}

// ---------- Literal decoding ----------

// unquoteString decodes a '...' or "..." token literal. Backslash escapes
// follow the usual SQL conventions; \% and \_ keep their backslash so LIKE
// patterns stay intact.
func unquoteString(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	body := lit[1 : len(lit)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch n := body[i]; n {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case '0':
			b.WriteByte(0)
		case 'Z':
			b.WriteByte(0x1A)
		case '%', '_':
			b.WriteByte('\\')
			b.WriteByte(n)
		default:
			b.WriteByte(n)
		}
	}
	return b.String()
}

// unquoteBackquoted decodes a `...` identifier literal.
func unquoteBackquoted(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	return strings.ReplaceAll(lit[1:len(lit)-1], "``", "`")
}
