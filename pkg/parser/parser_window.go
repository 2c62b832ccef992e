package parser

import "github.com/leapstack-labs/nebulasql/pkg/token"

// Windowed aggregation parsing: GROUP BY, WINDOW and WATERMARK.
//
// Grammar:
//
//	windowedAggregation → [aggregationClause] windowClause [watermarkClause]
//	aggregationClause   → GROUP BY GROUPING SETS "(" groupingSet ("," groupingSet)* ")"
//	                    | GROUP BY expression ("," expression)*
//	                      [WITH ROLLUP | WITH CUBE | GROUPING SETS "(" groupingSet ("," groupingSet)* ")"]
//	groupingSet         → "(" [expression ("," expression)*] ")" | expression
//	windowClause        → WINDOW windowSpec
//	windowSpec          → TUMBLING "(" INTEGER_VALUE ")"
//	                    | TUMBLING "(" [IDENTIFIER ","] sizeParameter ")"
//	                    | SLIDING "(" [IDENTIFIER ","] sizeParameter "," advanceBy ")"
//	                    | THRESHOLD "(" expression ["," INTEGER_VALUE] ")"
//	sizeParameter       → SIZE INTEGER_VALUE timeUnit
//	advanceBy           → ADVANCE BY INTEGER_VALUE timeUnit
//	watermarkClause     → WATERMARK "(" identifier "," INTEGER_VALUE timeUnit ")"
//	timeUnit            → MS | SEC | MIN | HOUR | DAY

func (s *state) parseWindowedAggregation() *WindowedAggregation {
	start := s.token.Pos
	wa := &WindowedAggregation{}
	if s.check(token.GROUP) {
		wa.GroupBy = s.parseAggregationClause()
	}
	wa.Window = s.parseWindowClause()
	if s.check(token.WATERMARK) {
		wa.Watermark = s.parseWatermarkClause()
	}
	wa.Span = s.spanFrom(start)
	return wa
}

func (s *state) parseAggregationClause() *AggregationClause {
	start := s.token.Pos
	s.expect(token.GROUP)
	s.expect(token.BY)
	agg := &AggregationClause{}

	if s.check(token.GROUPING) && s.checkPeek(token.SETS) {
		agg.Kind = GroupingSetsKind
		agg.Sets = s.parseGroupingSets()
		agg.Span = s.spanFrom(start)
		return agg
	}

	agg.Exprs = s.parseExpressionList()
	switch {
	case s.check(token.WITH) && s.checkPeek(token.ROLLUP):
		s.nextToken()
		s.nextToken()
		agg.Kind = GroupingRollup
	case s.check(token.WITH) && s.checkPeek(token.CUBE):
		s.nextToken()
		s.nextToken()
		agg.Kind = GroupingCube
	case s.check(token.GROUPING):
		agg.Kind = GroupingSetsKind
		agg.Sets = s.parseGroupingSets()
	}
	agg.Span = s.spanFrom(start)
	return agg
}

// parseGroupingSets parses GROUPING SETS (set, set, ...).
func (s *state) parseGroupingSets() []*GroupingSet {
	s.expect(token.GROUPING)
	s.expect(token.SETS)
	s.expect(token.LPAREN)
	sets := []*GroupingSet{s.parseGroupingSet()}
	for s.match(token.COMMA) {
		sets = append(sets, s.parseGroupingSet())
	}
	s.expect(token.RPAREN)
	return sets
}

// parseGroupingSet prefers the parenthesized form, so (a) is a set of one
// column rather than a parenthesized expression.
func (s *state) parseGroupingSet() *GroupingSet {
	start := s.token.Pos
	if s.check(token.LPAREN) {
		var set *GroupingSet
		if s.try(func() {
			s.nextToken()
			set = &GroupingSet{Parenthesized: true}
			if !s.check(token.RPAREN) {
				set.Exprs = s.parseExpressionList()
			}
			s.expect(token.RPAREN)
			if !s.check(token.COMMA) && !s.check(token.RPAREN) {
				s.errorUnexpected()
			}
		}) {
			set.Span = s.spanFrom(start)
			return set
		}
	}
	set := &GroupingSet{Exprs: []Expr{s.parseExpression()}}
	set.Span = s.spanFrom(start)
	return set
}

func (s *state) parseWindowClause() *WindowClause {
	start := s.token.Pos
	s.expect(token.WINDOW)
	wc := &WindowClause{Spec: s.parseWindowSpec()}
	wc.Span = s.spanFrom(start)
	return wc
}

// parseWindowSpec tells a count window from a time window by its argument:
// TUMBLING(10) counts rows, TUMBLING(SIZE 10 SEC) measures time.
func (s *state) parseWindowSpec() WindowSpec {
	start := s.token.Pos
	switch {
	case s.check(token.TUMBLING):
		if s.at(1).Type == token.LPAREN && s.at(2).Type == token.INTEGER_VALUE && s.at(3).Type == token.RPAREN {
			s.nextToken()
			s.nextToken()
			cw := &CountWindow{Count: s.expectInteger()}
			s.expect(token.RPAREN)
			cw.Span = s.spanFrom(start)
			return cw
		}
		s.nextToken()
		s.expect(token.LPAREN)
		tw := &TumblingWindow{Timestamp: s.parseTimestampParameter()}
		tw.Size = s.parseSizeParameter()
		s.expect(token.RPAREN)
		tw.Span = s.spanFrom(start)
		return tw

	case s.match(token.SLIDING):
		s.expect(token.LPAREN)
		sw := &SlidingWindow{Timestamp: s.parseTimestampParameter()}
		sw.Size = s.parseSizeParameter()
		s.expect(token.COMMA)
		s.expect(token.ADVANCE)
		s.expect(token.BY)
		sw.Advance = s.parseTimeMeasure()
		s.expect(token.RPAREN)
		sw.Span = s.spanFrom(start)
		return sw

	case s.match(token.THRESHOLD):
		s.expect(token.LPAREN)
		tw := &ThresholdWindow{Condition: s.parseExpression()}
		if s.match(token.COMMA) {
			n := s.expectInteger()
			tw.MinCount = &n
		}
		s.expect(token.RPAREN)
		tw.Span = s.spanFrom(start)
		return tw
	}
	s.check(token.SLIDING)
	s.check(token.THRESHOLD)
	s.errorUnexpected()
	return nil
}

// parseTimestampParameter parses an optional leading "column ,". Only a
// plain identifier token names the timestamp column.
func (s *state) parseTimestampParameter() *Identifier {
	if !s.check(token.IDENT) {
		return nil
	}
	id := s.consumeIdentifier()
	s.expect(token.COMMA)
	return id
}

func (s *state) parseSizeParameter() TimeMeasure {
	s.expect(token.SIZE)
	return s.parseTimeMeasure()
}

// parseTimeMeasure parses INTEGER_VALUE timeUnit.
func (s *state) parseTimeMeasure() TimeMeasure {
	m := TimeMeasure{Value: s.expectInteger()}
	unit, ok := timeUnits[s.token.Type]
	if !ok {
		for t := range timeUnits {
			s.check(t)
		}
		s.errorUnexpected()
	}
	s.nextToken()
	m.Unit = unit
	return m
}

func (s *state) parseWatermarkClause() *WatermarkClause {
	start := s.token.Pos
	s.expect(token.WATERMARK)
	s.expect(token.LPAREN)
	wm := &WatermarkClause{Column: s.parseIdentifier()}
	s.expect(token.COMMA)
	wm.Delay = s.parseTimeMeasure()
	s.expect(token.RPAREN)
	wm.Span = s.spanFrom(start)
	return wm
}
