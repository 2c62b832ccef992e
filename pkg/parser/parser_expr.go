package parser

import "github.com/leapstack-labs/nebulasql/pkg/token"

// Expression parsing by precedence climbing.
//
// Boolean level (loosest first):
//
//	OR (1) < AND (2) < NOT operand < EXISTS (query) < valueExpression [predicate]
//
// Value level:
//
//	precComparison = 1  (= <=> <> != < <= > >=, non-associative)
//	precBitOr      = 2  (|)
//	precBitXor     = 3  (^)
//	precBitAnd     = 4  (&)
//	precAdditive   = 5  (+ - ||)
//	precMultiply   = 6  (* / % DIV)
//
// Unary + - ~ bind tighter than every binary operator, and dereference
// (a.b) binds tightest of all. Each binary level parses its right operand one
// level tighter, so chains associate to the left.

const (
	precNone = iota
	precComparison
	precBitOr
	precBitXor
	precBitAnd
	precAdditive
	precMultiply
)

const (
	precLogicalOr  = 1
	precLogicalAnd = 2
)

// parseExpression parses expression → booleanExpression.
func (s *state) parseExpression() Expr {
	return s.parseBooleanExpression()
}

// parseBooleanExpression parses OR/AND chains.
func (s *state) parseBooleanExpression() Expr {
	return s.parseBooleanWithPrecedence(precLogicalOr)
}

func (s *state) parseBooleanWithPrecedence(minPrec int) Expr {
	start := s.token.Pos
	left := s.parseBooleanUnary()
	for {
		var op LogicalOp
		var prec int
		switch {
		case s.check(token.OR):
			op, prec = OpOr, precLogicalOr
		case s.check(token.AND):
			op, prec = OpAnd, precLogicalAnd
		default:
			return left
		}
		if prec < minPrec {
			return left
		}
		s.nextToken()
		right := s.parseBooleanWithPrecedence(prec + 1)
		left = &LogicalExpr{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Op: op, Left: left, Right: right}
	}
}

// parseBooleanUnary parses NOT, EXISTS or a predicated value expression.
func (s *state) parseBooleanUnary() Expr {
	start := s.token.Pos
	switch {
	case s.check(token.NOT):
		s.nextToken()
		operand := s.parseBooleanUnary()
		return &NotExpr{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Operand: operand}
	case s.check(token.EXISTS) && s.checkPeek(token.LPAREN) && isQueryStart(s.at(2).Type):
		var q *Query
		if s.try(func() {
			s.nextToken()
			s.nextToken()
			q = s.parseQuery()
			s.expect(token.RPAREN)
		}) {
			return &ExistsExpr{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Query: q}
		}
	}

	value := s.parseValueExpression()
	pred := s.parsePredicate()
	if pred == nil {
		return value
	}
	return &PredicatedExpr{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Value: value, Predicate: pred}
}

// parsePredicate parses the optional predicate after a value expression.
func (s *state) parsePredicate() Predicate {
	start := s.token.Pos
	if s.check(token.IS) {
		return s.parseIsPredicate()
	}

	not := false
	if s.check(token.NOT) {
		switch s.at(1).Type {
		case token.BETWEEN, token.IN, token.RLIKE, token.LIKE:
			not = true
			s.nextToken()
		default:
			return nil
		}
	}
	neg := Negation{Not: not}

	switch {
	case s.match(token.BETWEEN):
		lower := s.parseValueExpression()
		s.expect(token.AND)
		upper := s.parseValueExpression()
		return &BetweenPredicate{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Negation: neg, Lower: lower, Upper: upper}

	case s.match(token.IN):
		s.expect(token.LPAREN)
		if isQueryStart(s.token.Type) {
			var q *Query
			if s.try(func() {
				q = s.parseQuery()
				s.expect(token.RPAREN)
			}) {
				return &InSubqueryPredicate{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Negation: neg, Query: q}
			}
		}
		values := s.parseExpressionList()
		s.expect(token.RPAREN)
		return &InListPredicate{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Negation: neg, Values: values}

	case s.match(token.RLIKE):
		pattern := s.parseValueExpression()
		return &RLikePredicate{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Negation: neg, Pattern: pattern}

	case s.match(token.LIKE):
		if q, ok := s.likeQuantifier(); ok {
			s.nextToken()
			s.expect(token.LPAREN)
			var patterns []Expr
			if !s.check(token.RPAREN) {
				patterns = s.parseExpressionList()
			}
			s.expect(token.RPAREN)
			return &LikeQuantifiedPredicate{
				NodeInfo:   NodeInfo{Span: s.spanFrom(start)},
				Negation:   neg,
				Quantifier: q,
				Patterns:   patterns,
			}
		}
		like := &LikePredicate{Negation: neg, Pattern: s.parseValueExpression()}
		if s.match(token.ESCAPE) {
			esc := unquoteString(s.expect(token.STRING).Literal)
			like.Escape = &esc
		}
		like.Span = s.spanFrom(start)
		return like
	}
	return nil
}

// likeQuantifier reports ANY/SOME/ALL directly followed by '('.
func (s *state) likeQuantifier() (LikeQuantifier, bool) {
	if !s.checkPeek(token.LPAREN) {
		return "", false
	}
	switch s.token.Type {
	case token.ANY:
		return QuantifierAny, true
	case token.SOME:
		return QuantifierSome, true
	case token.ALL:
		return QuantifierAll, true
	}
	return "", false
}

// parseIsPredicate parses IS [NOT] NULL|TRUE|FALSE|UNKNOWN|DISTINCT FROM expr.
func (s *state) parseIsPredicate() Predicate {
	start := s.token.Pos
	s.expect(token.IS)
	neg := Negation{Not: s.match(token.NOT)}
	switch {
	case s.match(token.NULL):
		return &IsNullPredicate{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Negation: neg}
	case s.match(token.TRUE):
		return &IsTruthPredicate{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Negation: neg, Value: TruthTrue}
	case s.match(token.FALSE):
		return &IsTruthPredicate{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Negation: neg, Value: TruthFalse}
	case s.match(token.UNKNOWN):
		return &IsTruthPredicate{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Negation: neg, Value: TruthUnknown}
	case s.match(token.DISTINCT):
		s.expect(token.FROM)
		right := s.parseValueExpression()
		return &IsDistinctFromPredicate{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Negation: neg, Right: right}
	}
	s.errorUnexpected()
	return nil
}

// parseValueExpression parses a full value expression including comparisons.
func (s *state) parseValueExpression() Expr {
	return s.parseValueWithPrecedence(precComparison)
}

// parseValueWithPrecedence implements precedence climbing over the binary
// value operators whose precedence is at least minPrec.
func (s *state) parseValueWithPrecedence(minPrec int) Expr {
	start := s.token.Pos
	left := s.parseUnaryExpression()
	for {
		prec := s.binaryPrecedence()
		if prec == precNone || prec < minPrec {
			return left
		}
		opTok := s.token
		s.nextToken()
		right := s.parseValueWithPrecedence(prec + 1)
		span := s.spanFrom(start)

		if prec == precComparison {
			left = &ComparisonExpr{NodeInfo: NodeInfo{Span: span}, Op: comparisonOps[opTok.Type], Left: left, Right: right}
			if s.binaryPrecedence() == precComparison {
				s.fail(KindSyntax, ErrChainedComparison)
			}
			continue
		}
		left = &BinaryExpr{NodeInfo: NodeInfo{Span: span}, Op: binaryOps[opTok.Type], Left: left, Right: right}
	}
}

var comparisonOps = map[token.TokenType]ComparisonOp{
	token.EQ:   CmpEq,
	token.NSEQ: CmpNullEq,
	token.NEQ:  CmpNeq,
	token.NEQJ: CmpNeqJ,
	token.LT:   CmpLt,
	token.LTE:  CmpLte,
	token.GT:   CmpGt,
	token.GTE:  CmpGte,
}

var binaryOps = map[token.TokenType]BinaryOp{
	token.PIPE:      OpBitOr,
	token.HAT:       OpBitXor,
	token.AMPERSAND: OpBitAnd,
	token.PLUS:      OpAdd,
	token.MINUS:     OpSub,
	token.CONCAT:    OpConcat,
	token.ASTERISK:  OpMul,
	token.SLASH:     OpDiv,
	token.PERCENT:   OpMod,
	token.DIV:       OpIntDiv,
}

// binaryPrecedence returns the precedence of the current token as a binary
// value operator, or precNone.
func (s *state) binaryPrecedence() int {
	switch s.token.Type {
	case token.EQ, token.NSEQ, token.NEQ, token.NEQJ, token.LT, token.LTE, token.GT, token.GTE:
		return precComparison
	case token.PIPE:
		return precBitOr
	case token.HAT:
		return precBitXor
	case token.AMPERSAND:
		return precBitAnd
	case token.PLUS, token.MINUS, token.CONCAT:
		return precAdditive
	case token.ASTERISK, token.SLASH, token.PERCENT, token.DIV:
		return precMultiply
	}
	return precNone
}

// parseUnaryExpression parses + - ~ prefixes. A minus directly before a
// numeric literal belongs to the literal.
func (s *state) parseUnaryExpression() Expr {
	start := s.token.Pos
	var op UnaryOp
	switch s.token.Type {
	case token.MINUS:
		if token.IsNumber(s.at(1).Type) {
			return s.parsePrimaryExpression()
		}
		op = UnaryMinus
	case token.PLUS:
		op = UnaryPlus
	case token.TILDE:
		op = UnaryTilde
	default:
		return s.parsePrimaryExpression()
	}
	s.nextToken()
	operand := s.parseUnaryExpression()
	return &UnaryExpr{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Op: op, Operand: operand}
}

// parseExpressionList parses expr ("," expr)*.
func (s *state) parseExpressionList() []Expr {
	exprs := []Expr{s.parseExpression()}
	for s.match(token.COMMA) {
		exprs = append(exprs, s.parseExpression())
	}
	return exprs
}
