package parser

import "github.com/leapstack-labs/nebulasql/pkg/token"

// Statement parsing: statement entry points, query terms, SELECT list,
// ORDER BY / LIMIT / OFFSET and sinks.
//
// Grammar:
//
//	singleStatement   → query ';'* EOF
//	query             → queryTerm queryOrganization
//	queryOrganization → [ORDER BY sortItem ("," sortItem)*] [LIMIT (ALL | INTEGER)] [OFFSET INTEGER]
//	queryTerm         → queryPrimary (UNION queryPrimary)*
//	queryPrimary      → querySpecification | fromStatement | TABLE multipartIdentifier
//	                  | inlineTable | "(" query ")"
//	querySpec         → selectClause fromClause [whereClause]
//	                    [windowedAggregationClause] [havingClause] [sinkClause]
//	fromStatement     → fromClause fromStatementBody+
//	fromStatementBody → selectClause [whereClause] [aggregationClause]
//	selectClause      → SELECT hint* namedExpression ("," namedExpression)*
//	hint              → "/*+" hintStatement (","? hintStatement)* "*/"
//	hintStatement     → identifier ["(" primaryExpression ("," primaryExpression)* ")"]
//	namedExpression   → expression [AS? (errorCapturingIdentifier | identifierList)]
//	sortItem          → expression [ASC | DESC] [NULLS (FIRST | LAST)]
//	sinkClause        → INTO (FILE "(" STRING "," CSV_FORMAT "," STRING ")" | PRINT) [AS]

// parseSingleStatement parses one statement and requires end of input after
// optional semicolons.
func (s *state) parseSingleStatement() *SingleStatement {
	start := s.token.Pos
	q := s.parseQuery()
	for s.match(token.SEMICOLON) {
	}
	s.expectEOF()
	return &SingleStatement{NodeInfo: NodeInfo{Span: token.Span{Start: start, End: q.Span.End}}, Query: q}
}

// parseScript parses statements separated by one or more semicolons.
func (s *state) parseScript() []*SingleStatement {
	var stmts []*SingleStatement
	for {
		for s.match(token.SEMICOLON) {
		}
		if s.check(token.EOF) {
			return stmts
		}
		start := s.token.Pos
		q := s.parseQuery()
		stmts = append(stmts, &SingleStatement{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Query: q})
		if !s.check(token.SEMICOLON) {
			s.expectEOF()
			return stmts
		}
	}
}

// parseQuery parses a query term and its organization.
func (s *state) parseQuery() *Query {
	start := s.token.Pos
	q := &Query{Term: s.parseQueryTerm()}

	if s.check(token.ORDER) && s.checkPeek(token.BY) {
		s.nextToken()
		s.nextToken()
		q.OrderBy = append(q.OrderBy, s.parseSortItem())
		for s.match(token.COMMA) {
			q.OrderBy = append(q.OrderBy, s.parseSortItem())
		}
	}
	if s.match(token.LIMIT) {
		if s.match(token.ALL) {
			q.Limit = &Limit{All: true}
		} else {
			q.Limit = &Limit{Count: s.expectInteger()}
		}
	}
	if s.match(token.OFFSET) {
		n := s.expectInteger()
		q.Offset = &n
	}

	q.Span = s.spanFrom(start)
	return q
}

// parseQueryTerm parses UNION chains, left-associative.
func (s *state) parseQueryTerm() QueryTerm {
	start := s.token.Pos
	var left QueryTerm = s.parseQueryPrimary()
	for s.match(token.UNION) {
		right := s.parseQueryPrimary()
		left = &SetOperation{
			NodeInfo: NodeInfo{Span: s.spanFrom(start)},
			Op:       SetUnion,
			Left:     left,
			Right:    right,
		}
	}
	return left
}

// isQueryStart reports whether t can begin a query.
func isQueryStart(t token.TokenType) bool {
	switch t {
	case token.SELECT, token.FROM, token.TABLE, token.VALUES, token.LPAREN:
		return true
	}
	return false
}

func (s *state) parseQueryPrimary() QueryPrimary {
	start := s.token.Pos
	switch {
	case s.check(token.SELECT):
		return s.parseQuerySpecification()
	case s.check(token.FROM):
		return s.parseFromStatement()
	case s.check(token.TABLE):
		s.nextToken()
		name := s.parseMultipartIdentifier()
		return &TableQuery{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Name: name}
	case s.check(token.VALUES):
		return s.parseInlineTable()
	case s.check(token.LPAREN):
		s.nextToken()
		q := s.parseQuery()
		s.expect(token.RPAREN)
		return &SubqueryPrimary{NodeInfo: NodeInfo{Span: s.spanFrom(start)}, Query: q}
	}
	s.errorUnexpected()
	return nil
}

// parseQuerySpecification parses SELECT ... FROM ... and its trailing clauses.
func (s *state) parseQuerySpecification() *QuerySpecification {
	start := s.token.Pos
	spec := &QuerySpecification{
		Select: s.parseSelectClause(),
		From:   s.parseFromClause(),
	}
	if s.match(token.WHERE) {
		spec.Where = s.parseBooleanExpression()
	}
	if s.check(token.GROUP) || s.check(token.WINDOW) {
		spec.Aggregation = s.parseWindowedAggregation()
	}
	if s.check(token.WATERMARK) && spec.Aggregation == nil {
		s.fail(KindSyntax, ErrWatermarkNoWindow)
	}
	if s.check(token.HAVING) {
		if spec.Aggregation == nil {
			s.fail(KindSyntax, ErrHavingWithoutWindow)
		}
		s.nextToken()
		spec.Having = s.parseBooleanExpression()
	}
	if s.check(token.INTO) {
		spec.Sink = s.parseSinkClause()
	}
	spec.Span = s.spanFrom(start)
	return spec
}

// parseFromStatement parses FROM-first syntax.
func (s *state) parseFromStatement() *FromStatement {
	start := s.token.Pos
	stmt := &FromStatement{From: s.parseFromClause()}
	for {
		bodyStart := s.token.Pos
		body := &FromStatementBody{Select: s.parseSelectClause()}
		if s.match(token.WHERE) {
			body.Where = s.parseBooleanExpression()
		}
		if s.check(token.GROUP) {
			body.GroupBy = s.parseAggregationClause()
		}
		body.Span = s.spanFrom(bodyStart)
		stmt.Bodies = append(stmt.Bodies, body)
		if !s.check(token.SELECT) {
			break
		}
	}
	stmt.Span = s.spanFrom(start)
	return stmt
}

// parseSelectClause parses SELECT [hints] namedExpression, ...
func (s *state) parseSelectClause() *SelectClause {
	start := s.token.Pos
	s.expect(token.SELECT)
	sel := &SelectClause{}
	for s.check(token.HINT_START) {
		sel.Hints = append(sel.Hints, s.parseHint())
	}
	sel.Items = append(sel.Items, s.parseNamedExpression())
	for s.match(token.COMMA) {
		sel.Items = append(sel.Items, s.parseNamedExpression())
	}
	sel.Span = s.spanFrom(start)
	return sel
}

func (s *state) parseHint() *Hint {
	start := s.token.Pos
	s.expect(token.HINT_START)
	h := &Hint{}
	h.Statements = append(h.Statements, s.parseHintStatement())
	for !s.check(token.HINT_END) {
		s.match(token.COMMA)
		h.Statements = append(h.Statements, s.parseHintStatement())
	}
	s.expect(token.HINT_END)
	h.Span = s.spanFrom(start)
	return h
}

func (s *state) parseHintStatement() *HintStatement {
	start := s.token.Pos
	hs := &HintStatement{Name: s.parseIdentifier()}
	if s.match(token.LPAREN) {
		hs.Params = append(hs.Params, s.parsePrimaryExpression())
		for s.match(token.COMMA) {
			hs.Params = append(hs.Params, s.parsePrimaryExpression())
		}
		s.expect(token.RPAREN)
	}
	hs.Span = s.spanFrom(start)
	return hs
}

// parseNamedExpression parses expr [[AS] alias | [AS] (a, b)].
func (s *state) parseNamedExpression() *NamedExpression {
	start := s.token.Pos
	ne := &NamedExpression{Expr: s.parseExpression()}
	switch {
	case s.match(token.AS):
		ne.As = true
		if s.check(token.LPAREN) {
			ne.Aliases = s.parseIdentifierList()
		} else {
			ne.Alias = s.parseErrorCapturingIdentifier()
		}
	case s.check(token.LPAREN):
		ne.Aliases = s.parseIdentifierList()
	case s.canStartImplicitAlias(false):
		ne.Alias = s.parseErrorCapturingIdentifier()
	}
	ne.Span = s.spanFrom(start)
	return ne
}

// parseSortItem parses expr [ASC|DESC] [NULLS FIRST|LAST].
func (s *state) parseSortItem() *SortItem {
	start := s.token.Pos
	item := &SortItem{Expr: s.parseExpression()}
	switch {
	case s.match(token.ASC):
		item.Ordering = OrderAsc
	case s.match(token.DESC):
		item.Ordering = OrderDesc
	}
	if s.match(token.NULLS) {
		switch {
		case s.match(token.FIRST):
			item.Nulls = NullsFirst
		case s.match(token.LAST):
			item.Nulls = NullsLast
		default:
			s.errorUnexpected()
		}
	}
	item.Span = s.spanFrom(start)
	return item
}

// parseSinkClause parses INTO FILE(...) | INTO PRINT, with an optional trailing AS.
func (s *state) parseSinkClause() *SinkClause {
	start := s.token.Pos
	s.expect(token.INTO)
	sc := &SinkClause{}
	sinkStart := s.token.Pos
	switch {
	case s.match(token.PRINT):
		sc.Sink = &PrintSink{NodeInfo: NodeInfo{Span: s.spanFrom(sinkStart)}}
	case s.match(token.FILE):
		s.expect(token.LPAREN)
		fs := &FileSink{Path: unquoteString(s.expect(token.STRING).Literal)}
		s.expect(token.COMMA)
		s.expect(token.CSV_FORMAT)
		fs.Format = FormatCSV
		s.expect(token.COMMA)
		fs.Append = unquoteString(s.expect(token.STRING).Literal)
		s.expect(token.RPAREN)
		fs.Span = s.spanFrom(sinkStart)
		sc.Sink = fs
	default:
		s.errorUnexpected()
	}
	sc.As = s.match(token.AS)
	sc.Span = s.spanFrom(start)
	return sc
}
