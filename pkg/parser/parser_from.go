package parser

import "github.com/leapstack-labs/nebulasql/pkg/token"

// FROM clause parsing: relations, joins, derived tables and inline tables.
//
// Grammar:
//
//	fromClause      → FROM relation ("," relation)*
//	relation        → relationPrimary joinRelation*
//	joinRelation    → [INNER] JOIN relationPrimary [ON booleanExpression]
//	                | NATURAL [INNER] JOIN relationPrimary
//	relationPrimary → multipartIdentifier tableAlias
//	                | "(" query ")" tableAlias
//	                | "(" relation ")" tableAlias
//	                | inlineTable
//	                | errorCapturingIdentifier "(" [expression ("," expression)*] ")" tableAlias
//	inlineTable     → VALUES expression ("," expression)* tableAlias
//	tableAlias      → [[AS] strictIdentifier [identifierList]]

func (s *state) parseFromClause() *FromClause {
	start := s.token.Pos
	s.expect(token.FROM)
	from := &FromClause{Relations: []*Relation{s.parseRelation()}}
	for s.match(token.COMMA) {
		from.Relations = append(from.Relations, s.parseRelation())
	}
	from.Span = s.spanFrom(start)
	return from
}

func (s *state) parseRelation() *Relation {
	start := s.token.Pos
	rel := &Relation{Primary: s.parseRelationPrimary()}
	for {
		join := s.parseJoinRelation()
		if join == nil {
			break
		}
		rel.Joins = append(rel.Joins, join)
	}
	rel.Span = s.spanFrom(start)
	return rel
}

// parseJoinRelation returns nil when no join follows.
func (s *state) parseJoinRelation() *JoinRelation {
	start := s.token.Pos
	join := &JoinRelation{}
	switch {
	case s.match(token.NATURAL):
		join.Natural = true
		join.Inner = s.match(token.INNER)
		s.expect(token.JOIN)
		join.Right = s.parseRelationPrimary()
	case s.check(token.INNER), s.check(token.JOIN):
		join.Inner = s.match(token.INNER)
		s.expect(token.JOIN)
		join.Right = s.parseRelationPrimary()
		if s.match(token.ON) {
			join.On = s.parseBooleanExpression()
		}
	default:
		return nil
	}
	join.Span = s.spanFrom(start)
	return join
}

func (s *state) parseRelationPrimary() RelationPrimary {
	start := s.token.Pos

	switch {
	case s.check(token.LPAREN):
		s.nextToken()
		if isQueryStart(s.token.Type) {
			var q *Query
			if s.try(func() {
				q = s.parseQuery()
				s.expect(token.RPAREN)
			}) {
				aq := &AliasedQuery{Query: q, Alias: s.parseTableAlias()}
				aq.Span = s.spanFrom(start)
				return aq
			}
		}
		ar := &AliasedRelation{Relation: s.parseRelation()}
		s.expect(token.RPAREN)
		ar.Alias = s.parseTableAlias()
		ar.Span = s.spanFrom(start)
		return ar

	case s.check(token.VALUES):
		return s.parseInlineTable()
	}

	first := s.parseErrorCapturingIdentifier()
	if s.match(token.LPAREN) {
		fn := &FunctionTable{Name: first}
		if !s.check(token.RPAREN) {
			fn.Args = s.parseExpressionList()
		}
		s.expect(token.RPAREN)
		fn.Alias = s.parseTableAlias()
		fn.Span = s.spanFrom(start)
		return fn
	}

	name := &MultipartIdentifier{Parts: []Name{first}}
	for s.match(token.DOT) {
		name.Parts = append(name.Parts, s.parseErrorCapturingIdentifier())
	}
	name.Span = s.spanFrom(start)
	tn := &TableName{Name: name, Alias: s.parseTableAlias()}
	tn.Span = s.spanFrom(start)
	return tn
}

// parseTableAlias returns nil when no alias is written.
func (s *state) parseTableAlias() *TableAlias {
	start := s.token.Pos
	alias := &TableAlias{}
	switch {
	case s.match(token.AS):
		alias.As = true
	case !s.canStartImplicitAlias(true):
		return nil
	}
	alias.Name = s.parseStrictIdentifier()
	if s.check(token.LPAREN) {
		alias.Columns = s.parseIdentifierList()
	}
	alias.Span = s.spanFrom(start)
	return alias
}

// parseInlineTable parses VALUES row, row, ... [alias].
func (s *state) parseInlineTable() *InlineTable {
	start := s.token.Pos
	s.expect(token.VALUES)
	tbl := &InlineTable{Rows: s.parseExpressionList()}
	tbl.Alias = s.parseTableAlias()
	tbl.Span = s.spanFrom(start)
	return tbl
}
