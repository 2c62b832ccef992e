package format

import (
	"strconv"

	"github.com/leapstack-labs/nebulasql/pkg/parser"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

func (p *Printer) formatStatement(stmt *parser.SingleStatement) {
	if stmt == nil {
		return
	}
	var trailing []*token.Comment
	comments := p.comments
	if p.compact {
		comments = nil
	}
	for _, c := range comments {
		if c.Span.Start.Offset < stmt.Span.Start.Offset {
			p.write(c.Text)
			p.writeln()
		} else {
			trailing = append(trailing, c)
		}
	}
	p.formatQuery(stmt.Query)
	if p.terminate {
		p.semicolon()
	}
	for _, c := range trailing {
		p.write(c.Text)
		p.writeln()
	}
}

func (p *Printer) formatQuery(q *parser.Query) {
	if q == nil {
		return
	}
	p.formatQueryTerm(q.Term)

	if len(q.OrderBy) > 0 {
		p.block(func() {
			p.formatList(len(q.OrderBy), func(i int) { p.formatSortItem(q.OrderBy[i]) }, ",", true)
		}, token.ORDER, token.BY)
	}
	if q.Limit != nil {
		p.kw(token.LIMIT)
		p.space()
		if q.Limit.All {
			p.kw(token.ALL)
		} else {
			p.write(strconv.FormatInt(q.Limit.Count, 10))
		}
		p.writeln()
	}
	if q.Offset != nil {
		p.kw(token.OFFSET)
		p.space()
		p.write(strconv.FormatInt(*q.Offset, 10))
		p.writeln()
	}
}

func (p *Printer) formatQueryTerm(term parser.QueryTerm) {
	switch t := term.(type) {
	case *parser.SetOperation:
		p.formatQueryTerm(t.Left)
		p.kw(token.UNION)
		p.writeln()
		p.formatQueryTerm(t.Right)
	case *parser.QuerySpecification:
		p.formatQuerySpecification(t)
	case *parser.FromStatement:
		p.formatFromStatement(t)
	case *parser.TableQuery:
		p.kw(token.TABLE)
		p.space()
		p.formatMultipart(t.Name)
		p.writeln()
	case *parser.InlineTable:
		p.formatInlineTable(t)
		p.writeln()
	case *parser.SubqueryPrimary:
		p.formatParenQuery(t.Query)
		p.writeln()
	}
}

// formatParenQuery prints ( query ) with the query indented.
func (p *Printer) formatParenQuery(q *parser.Query) {
	p.write("(")
	p.writeln()
	p.indent()
	p.formatQuery(q)
	p.dedent()
	p.write(")")
}

func (p *Printer) formatQuerySpecification(spec *parser.QuerySpecification) {
	p.formatSelectClause(spec.Select)
	p.formatFromClause(spec.From)

	if spec.Where != nil {
		p.block(func() { p.formatExpr(spec.Where) }, token.WHERE)
	}
	if spec.Aggregation != nil {
		p.formatWindowedAggregation(spec.Aggregation)
	}
	if spec.Having != nil {
		p.block(func() { p.formatExpr(spec.Having) }, token.HAVING)
	}
	if spec.Sink != nil {
		p.formatSinkClause(spec.Sink)
		p.writeln()
	}
}

func (p *Printer) formatFromStatement(fs *parser.FromStatement) {
	p.formatFromClause(fs.From)
	for _, body := range fs.Bodies {
		p.formatSelectClause(body.Select)
		if body.Where != nil {
			p.block(func() { p.formatExpr(body.Where) }, token.WHERE)
		}
		if body.GroupBy != nil {
			p.formatAggregationClause(body.GroupBy)
		}
	}
}

func (p *Printer) formatSelectClause(sel *parser.SelectClause) {
	if sel == nil {
		return
	}
	p.kw(token.SELECT)
	for _, h := range sel.Hints {
		p.space()
		p.formatHint(h)
	}
	p.writeln()

	p.indent()
	p.formatList(len(sel.Items), func(i int) { p.formatNamedExpression(sel.Items[i]) }, ",", true)
	p.writeln()
	p.dedent()
}

func (p *Printer) formatHint(h *parser.Hint) {
	p.write("/*+ ")
	p.formatList(len(h.Statements), func(i int) {
		hs := h.Statements[i]
		p.formatIdentifier(hs.Name)
		if len(hs.Params) > 0 {
			p.write("(")
			p.formatExprList(hs.Params)
			p.write(")")
		}
	}, ", ", false)
	p.write(" */")
}

// formatNamedExpression always writes AS before an alias.
func (p *Printer) formatNamedExpression(ne *parser.NamedExpression) {
	p.formatExpr(ne.Expr)
	switch {
	case ne.Alias != nil:
		p.space()
		p.kw(token.AS)
		p.space()
		p.formatName(ne.Alias)
	case len(ne.Aliases) > 0:
		p.space()
		p.kw(token.AS)
		p.space()
		p.formatNameList(ne.Aliases)
	}
}

func (p *Printer) formatSortItem(item *parser.SortItem) {
	p.formatExpr(item.Expr)
	switch item.Ordering {
	case parser.OrderAsc:
		p.space()
		p.kw(token.ASC)
	case parser.OrderDesc:
		p.space()
		p.kw(token.DESC)
	}
	switch item.Nulls {
	case parser.NullsFirst:
		p.space()
		p.kw(token.NULLS, token.FIRST)
	case parser.NullsLast:
		p.space()
		p.kw(token.NULLS, token.LAST)
	}
}

func (p *Printer) formatSinkClause(sc *parser.SinkClause) {
	p.kw(token.INTO)
	p.space()
	switch s := sc.Sink.(type) {
	case *parser.PrintSink:
		p.kw(token.PRINT)
	case *parser.FileSink:
		p.kw(token.FILE)
		p.write("(")
		p.write(quoteString(s.Path))
		p.write(", ")
		p.keyword(s.Format.String())
		p.write(", ")
		p.write(quoteString(s.Append))
		p.write(")")
	}
	if sc.As {
		p.space()
		p.kw(token.AS)
	}
}

// ---------- Relations ----------

func (p *Printer) formatFromClause(from *parser.FromClause) {
	if from == nil {
		return
	}
	p.kw(token.FROM)
	p.space()
	p.formatList(len(from.Relations), func(i int) { p.formatRelation(from.Relations[i]) }, ", ", false)
	p.writeln()
}

func (p *Printer) formatRelation(rel *parser.Relation) {
	p.formatRelationPrimary(rel.Primary)
	for _, join := range rel.Joins {
		p.writeln()
		p.formatJoin(join)
	}
}

func (p *Printer) formatJoin(join *parser.JoinRelation) {
	if join.Natural {
		p.kw(token.NATURAL)
		p.space()
	}
	if join.Inner {
		p.kw(token.INNER)
		p.space()
	}
	p.kw(token.JOIN)
	p.space()
	p.formatRelationPrimary(join.Right)
	if join.On != nil {
		p.space()
		p.kw(token.ON)
		p.space()
		p.formatExpr(join.On)
	}
}

func (p *Printer) formatRelationPrimary(rel parser.RelationPrimary) {
	switch r := rel.(type) {
	case *parser.TableName:
		p.formatMultipart(r.Name)
		p.formatTableAlias(r.Alias)
	case *parser.AliasedQuery:
		p.formatParenQuery(r.Query)
		p.formatTableAlias(r.Alias)
	case *parser.AliasedRelation:
		p.write("(")
		p.indent()
		p.formatRelation(r.Relation)
		p.dedent()
		p.write(")")
		p.formatTableAlias(r.Alias)
	case *parser.InlineTable:
		p.formatInlineTable(r)
	case *parser.FunctionTable:
		p.formatName(r.Name)
		p.write("(")
		p.formatExprList(r.Args)
		p.write(")")
		p.formatTableAlias(r.Alias)
	}
}

func (p *Printer) formatInlineTable(t *parser.InlineTable) {
	p.kw(token.VALUES)
	p.space()
	p.formatExprList(t.Rows)
	p.formatTableAlias(t.Alias)
}

func (p *Printer) formatTableAlias(a *parser.TableAlias) {
	if a == nil {
		return
	}
	p.space()
	p.kw(token.AS)
	p.space()
	p.formatIdentifier(a.Name)
	if len(a.Columns) > 0 {
		p.formatNameList(a.Columns)
	}
}

// ---------- Windowed aggregation ----------

func (p *Printer) formatWindowedAggregation(wa *parser.WindowedAggregation) {
	if wa.GroupBy != nil {
		p.formatAggregationClause(wa.GroupBy)
	}
	if wa.Window != nil {
		p.kw(token.WINDOW)
		p.space()
		p.formatWindowSpec(wa.Window.Spec)
		p.writeln()
	}
	if wa.Watermark != nil {
		p.kw(token.WATERMARK)
		p.write("(")
		p.formatIdentifier(wa.Watermark.Column)
		p.write(", ")
		p.formatTimeMeasure(wa.Watermark.Delay)
		p.write(")")
		p.writeln()
	}
}

func (p *Printer) formatAggregationClause(agg *parser.AggregationClause) {
	p.kw(token.GROUP, token.BY)
	if len(agg.Exprs) > 0 {
		p.writeln()
		p.indent()
		p.formatList(len(agg.Exprs), func(i int) { p.formatExpr(agg.Exprs[i]) }, ",", true)
		p.dedent()
	}
	switch agg.Kind {
	case parser.GroupingRollup:
		p.writeln()
		p.kw(token.WITH, token.ROLLUP)
	case parser.GroupingCube:
		p.writeln()
		p.kw(token.WITH, token.CUBE)
	case parser.GroupingSetsKind:
		if len(agg.Exprs) > 0 {
			p.writeln()
		} else {
			p.space()
		}
		p.kw(token.GROUPING, token.SETS)
		p.write(" (")
		p.formatList(len(agg.Sets), func(i int) { p.formatGroupingSet(agg.Sets[i]) }, ", ", false)
		p.write(")")
	}
	p.writeln()
}

func (p *Printer) formatGroupingSet(set *parser.GroupingSet) {
	if !set.Parenthesized {
		p.formatExprList(set.Exprs)
		return
	}
	p.write("(")
	p.formatExprList(set.Exprs)
	p.write(")")
}

func (p *Printer) formatWindowSpec(spec parser.WindowSpec) {
	switch w := spec.(type) {
	case *parser.CountWindow:
		p.kw(token.TUMBLING)
		p.write("(")
		p.write(strconv.FormatInt(w.Count, 10))
		p.write(")")
	case *parser.TumblingWindow:
		p.kw(token.TUMBLING)
		p.write("(")
		p.formatTimestampParameter(w.Timestamp)
		p.kw(token.SIZE)
		p.space()
		p.formatTimeMeasure(w.Size)
		p.write(")")
	case *parser.SlidingWindow:
		p.kw(token.SLIDING)
		p.write("(")
		p.formatTimestampParameter(w.Timestamp)
		p.kw(token.SIZE)
		p.space()
		p.formatTimeMeasure(w.Size)
		p.write(", ")
		p.kw(token.ADVANCE, token.BY)
		p.space()
		p.formatTimeMeasure(w.Advance)
		p.write(")")
	case *parser.ThresholdWindow:
		p.kw(token.THRESHOLD)
		p.write("(")
		p.formatExpr(w.Condition)
		if w.MinCount != nil {
			p.write(", ")
			p.write(strconv.FormatInt(*w.MinCount, 10))
		}
		p.write(")")
	}
}

func (p *Printer) formatTimestampParameter(id *parser.Identifier) {
	if id == nil {
		return
	}
	p.formatIdentifier(id)
	p.write(", ")
}

func (p *Printer) formatTimeMeasure(m parser.TimeMeasure) {
	p.write(strconv.FormatInt(m.Value, 10))
	p.space()
	p.keyword(m.Unit.String())
}
