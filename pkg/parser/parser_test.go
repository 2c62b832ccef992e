package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

func mustParse(t *testing.T, sql string) *parser.SingleStatement {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err, parser.FormatErrorContext(sql, err))
	require.NotNil(t, stmt)
	return stmt
}

func querySpec(t *testing.T, stmt *parser.SingleStatement) *parser.QuerySpecification {
	t.Helper()
	spec, ok := stmt.Query.Term.(*parser.QuerySpecification)
	require.True(t, ok, "expected QuerySpecification, got %T", stmt.Query.Term)
	return spec
}

func tableName(t *testing.T, rel *parser.Relation) *parser.TableName {
	t.Helper()
	tn, ok := rel.Primary.(*parser.TableName)
	require.True(t, ok, "expected TableName, got %T", rel.Primary)
	return tn
}

// ---------- Query specification ----------

func TestParseSelectFromWhere(t *testing.T) {
	stmt := mustParse(t, "SELECT a, b AS x FROM s WHERE a > 1")
	spec := querySpec(t, stmt)

	require.Len(t, spec.Select.Items, 2)
	first := spec.Select.Items[0]
	assert.Nil(t, first.Alias)
	col, ok := first.Expr.(*parser.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "a", col.Name.Value)

	second := spec.Select.Items[1]
	assert.True(t, second.As)
	require.NotNil(t, second.Alias)
	assert.Equal(t, "x", second.Alias.Text())

	require.Len(t, spec.From.Relations, 1)
	assert.Equal(t, "s", tableName(t, spec.From.Relations[0]).Name.String())

	cmp, ok := spec.Where.(*parser.ComparisonExpr)
	require.True(t, ok, "got %T", spec.Where)
	assert.Equal(t, parser.CmpGt, cmp.Op)

	assert.Nil(t, spec.Aggregation)
	assert.Nil(t, spec.Having)
	assert.Nil(t, spec.Sink)
}

func TestParseStatementSpan(t *testing.T) {
	stmt := mustParse(t, "SELECT a FROM s;;")
	assert.Equal(t, 1, stmt.Span.Start.Column)
	assert.Equal(t, 16, stmt.Span.End.Column)
}

func TestParseImplicitAliases(t *testing.T) {
	stmt := mustParse(t, "SELECT a x, 1 (y, z) FROM s t WHERE x = 1")
	spec := querySpec(t, stmt)

	require.Len(t, spec.Select.Items, 2)
	assert.False(t, spec.Select.Items[0].As)
	assert.Equal(t, "x", spec.Select.Items[0].Alias.Text())
	require.Len(t, spec.Select.Items[1].Aliases, 2)
	assert.Equal(t, "y", spec.Select.Items[1].Aliases[0].Text())

	tn := tableName(t, spec.From.Relations[0])
	require.NotNil(t, tn.Alias)
	assert.False(t, tn.Alias.As)
	assert.Equal(t, "t", tn.Alias.Name.Value)
	assert.NotNil(t, spec.Where)
}

func TestClauseKeywordsAreNotAliases(t *testing.T) {
	tests := []string{
		"SELECT a FROM s WHERE a = 1",
		"SELECT a FROM s WINDOW TUMBLING(10)",
		"SELECT a FROM s GROUP BY a WINDOW TUMBLING(10)",
		"SELECT a FROM s INTO PRINT",
		"SELECT a FROM s ORDER BY a",
		"SELECT a FROM s LIMIT 5",
		"SELECT a FROM s UNION SELECT b FROM t",
	}
	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			stmt := mustParse(t, sql)
			var spec *parser.QuerySpecification
			switch term := stmt.Query.Term.(type) {
			case *parser.QuerySpecification:
				spec = term
			case *parser.SetOperation:
				spec = term.Left.(*parser.QuerySpecification)
			}
			require.NotNil(t, spec)
			assert.Nil(t, spec.Select.Items[0].Alias)
			assert.Nil(t, tableName(t, spec.From.Relations[0]).Alias)
		})
	}
}

func TestParseQualifiedNames(t *testing.T) {
	stmt := mustParse(t, "SELECT s.*, a.b.c FROM db.s")
	spec := querySpec(t, stmt)

	star, ok := spec.Select.Items[0].Expr.(*parser.QualifiedStar)
	require.True(t, ok, "got %T", spec.Select.Items[0].Expr)
	require.Len(t, star.Qualifier, 1)
	assert.Equal(t, "s", star.Qualifier[0].Value)

	// a.b.c is ((a).b).c
	outer, ok := spec.Select.Items[1].Expr.(*parser.Dereference)
	require.True(t, ok, "got %T", spec.Select.Items[1].Expr)
	assert.Equal(t, "c", outer.Field.Value)
	inner, ok := outer.Base.(*parser.Dereference)
	require.True(t, ok)
	assert.Equal(t, "b", inner.Field.Value)
	base, ok := inner.Base.(*parser.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "a", base.Name.Value)

	tn := tableName(t, spec.From.Relations[0])
	assert.Equal(t, "db.s", tn.Name.String())
}

func TestParseSinkClause(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		spec := querySpec(t, mustParse(t, "SELECT * FROM s"))
		assert.Nil(t, spec.Sink)
	})

	t.Run("print", func(t *testing.T) {
		spec := querySpec(t, mustParse(t, "SELECT * FROM s INTO PRINT"))
		require.NotNil(t, spec.Sink)
		_, ok := spec.Sink.Sink.(*parser.PrintSink)
		assert.True(t, ok)
		assert.False(t, spec.Sink.As)
	})

	t.Run("file", func(t *testing.T) {
		spec := querySpec(t, mustParse(t, "SELECT * FROM s INTO FILE('out.csv', CSV_FORMAT, 'true') AS"))
		require.NotNil(t, spec.Sink)
		assert.True(t, spec.Sink.As)
		fs, ok := spec.Sink.Sink.(*parser.FileSink)
		require.True(t, ok)
		assert.Equal(t, "out.csv", fs.Path)
		assert.Equal(t, parser.FormatCSV, fs.Format)
		appendMode, err := fs.AppendMode()
		require.NoError(t, err)
		assert.True(t, appendMode)
	})

	t.Run("on each union branch", func(t *testing.T) {
		stmt := mustParse(t, "SELECT a FROM s INTO PRINT UNION SELECT a FROM t INTO PRINT")
		sinks := parser.Collect[*parser.SinkClause](stmt)
		assert.Len(t, sinks, 2)
	})

	t.Run("file with bad append flag", func(t *testing.T) {
		spec := querySpec(t, mustParse(t, "SELECT * FROM s INTO FILE('out.csv', CSV_FORMAT, 'sometimes')"))
		fs := spec.Sink.Sink.(*parser.FileSink)
		_, err := fs.AppendMode()
		assert.Error(t, err)
	})
}

func TestParseQueryOrganization(t *testing.T) {
	stmt := mustParse(t, "SELECT a FROM s ORDER BY a DESC NULLS LAST, b LIMIT 10 OFFSET 5")
	q := stmt.Query

	require.Len(t, q.OrderBy, 2)
	assert.Equal(t, parser.OrderDesc, q.OrderBy[0].Ordering)
	assert.Equal(t, parser.NullsLast, q.OrderBy[0].Nulls)
	assert.Equal(t, parser.OrderUnspecified, q.OrderBy[1].Ordering)

	require.NotNil(t, q.Limit)
	assert.False(t, q.Limit.All)
	assert.Equal(t, int64(10), q.Limit.Count)
	require.NotNil(t, q.Offset)
	assert.Equal(t, int64(5), *q.Offset)

	all := mustParse(t, "SELECT a FROM s LIMIT ALL")
	require.NotNil(t, all.Query.Limit)
	assert.True(t, all.Query.Limit.All)
}

func TestParseUnionIsLeftAssociative(t *testing.T) {
	stmt := mustParse(t, "SELECT a FROM x UNION SELECT a FROM y UNION SELECT a FROM z")
	top, ok := stmt.Query.Term.(*parser.SetOperation)
	require.True(t, ok)
	assert.Equal(t, parser.SetUnion, top.Op)

	left, ok := top.Left.(*parser.SetOperation)
	require.True(t, ok, "left operand should be the first UNION")
	assert.IsType(t, &parser.QuerySpecification{}, left.Left)
	assert.IsType(t, &parser.QuerySpecification{}, left.Right)
	assert.IsType(t, &parser.QuerySpecification{}, top.Right)
}

func TestParseQueryPrimaries(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want any
	}{
		{"table", "TABLE db.s", &parser.TableQuery{}},
		{"values", "VALUES (1, 2), (3, 4) AS t(a, b)", &parser.InlineTable{}},
		{"parenthesized", "(SELECT a FROM s)", &parser.SubqueryPrimary{}},
		{"from first", "FROM s SELECT a WHERE a > 1 SELECT b", &parser.FromStatement{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := mustParse(t, tt.sql)
			assert.IsType(t, tt.want, stmt.Query.Term)
		})
	}

	fs := mustParse(t, "FROM s SELECT a WHERE a > 1 SELECT b").Query.Term.(*parser.FromStatement)
	require.Len(t, fs.Bodies, 2)
	assert.NotNil(t, fs.Bodies[0].Where)
	assert.Nil(t, fs.Bodies[1].Where)

	vt := mustParse(t, "VALUES (1, 2), (3, 4) AS t(a, b)").Query.Term.(*parser.InlineTable)
	assert.Len(t, vt.Rows, 2)
	require.NotNil(t, vt.Alias)
	assert.Len(t, vt.Alias.Columns, 2)
}

func TestParseHints(t *testing.T) {
	spec := querySpec(t, mustParse(t, "SELECT /*+ broadcast(t), coalesce(3) */ a FROM s"))
	require.Len(t, spec.Select.Hints, 1)
	hint := spec.Select.Hints[0]
	require.Len(t, hint.Statements, 2)
	assert.Equal(t, "broadcast", hint.Statements[0].Name.Value)
	assert.Len(t, hint.Statements[1].Params, 1)
}

// ---------- Relations ----------

func TestParseJoins(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		natural bool
		inner   bool
		on      bool
	}{
		{"plain join", "SELECT * FROM a JOIN b ON a.id = b.id", false, false, true},
		{"inner join", "SELECT * FROM a INNER JOIN b ON a.id = b.id", false, true, true},
		{"join without criteria", "SELECT * FROM a JOIN b", false, false, false},
		{"natural join", "SELECT * FROM a NATURAL JOIN b", true, false, false},
		{"natural inner join", "SELECT * FROM a NATURAL INNER JOIN b", true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := querySpec(t, mustParse(t, tt.sql))
			rel := spec.From.Relations[0]
			require.Len(t, rel.Joins, 1)
			join := rel.Joins[0]
			assert.Equal(t, tt.natural, join.Natural)
			assert.Equal(t, tt.inner, join.Inner)
			assert.Equal(t, tt.on, join.On != nil)
			assert.IsType(t, &parser.TableName{}, join.Right)
		})
	}
}

func TestParseRelationPrimaries(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want any
	}{
		{"aliased query", "SELECT * FROM (SELECT a FROM s) AS q", &parser.AliasedQuery{}},
		{"aliased relation", "SELECT * FROM (a JOIN b) j", &parser.AliasedRelation{}},
		{"inline table", "SELECT * FROM VALUES (1), (2) AS v(x)", &parser.InlineTable{}},
		{"function table", "SELECT * FROM range(1, 10) r", &parser.FunctionTable{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := querySpec(t, mustParse(t, tt.sql))
			assert.IsType(t, tt.want, spec.From.Relations[0].Primary)
		})
	}
}

func TestParseMultipleRelations(t *testing.T) {
	spec := querySpec(t, mustParse(t, "SELECT * FROM a, b x"))
	require.Len(t, spec.From.Relations, 2)
	assert.Equal(t, "x", tableName(t, spec.From.Relations[1]).Alias.Name.Value)
}

func TestErrorIdentCapture(t *testing.T) {
	spec := querySpec(t, mustParse(t, "SELECT a AS my-col FROM my-stream"))

	alias, ok := spec.Select.Items[0].Alias.(*parser.ErrorIdent)
	require.True(t, ok, "got %T", spec.Select.Items[0].Alias)
	assert.Equal(t, "my-col", alias.Text())
	require.Len(t, alias.Parts, 2)

	tn := tableName(t, spec.From.Relations[0])
	require.Len(t, tn.Name.Parts, 1)
	ei, ok := tn.Name.Parts[0].(*parser.ErrorIdent)
	require.True(t, ok)
	assert.Equal(t, "my-stream", ei.Text())
}

func TestHyphenInExpressionIsSubtraction(t *testing.T) {
	spec := querySpec(t, mustParse(t, "SELECT a-b FROM s"))
	bin, ok := spec.Select.Items[0].Expr.(*parser.BinaryExpr)
	require.True(t, ok, "got %T", spec.Select.Items[0].Expr)
	assert.Equal(t, parser.OpSub, bin.Op)
}

// ---------- Keyword modes ----------

func TestNonReservedKeywordsAsIdentifiers(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		d       *dialect.Dialect
		wantErr bool
	}{
		{"start is an identifier by default", "SELECT start FROM s", dialect.Nebula, false},
		{"start is reserved in ANSI mode", "SELECT start FROM s", dialect.ANSI, true},
		{"end is reserved by default", "SELECT end FROM s", dialect.Nebula, true},
		{"when is reserved by default", "SELECT a AS when FROM s", dialect.Nebula, true},
		{"backquoted end is an identifier", "SELECT `end` FROM s", dialect.Nebula, false},
		{"window is non-reserved in both", "SELECT `window`, limit FROM s", dialect.ANSI, false},
		{"join keyword as column by default", "SELECT a.left FROM s", dialect.Nebula, false},
		{"join keyword rejected in ANSI mode", "SELECT a.left FROM s", dialect.ANSI, true},
		{"table alias cannot be a join keyword", "SELECT * FROM s left", dialect.Nebula, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseWithDialect(tt.sql, tt.d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err, parser.FormatErrorContext(tt.sql, err))
		})
	}
}

func TestKeywordIdentifierKind(t *testing.T) {
	spec := querySpec(t, mustParse(t, "SELECT start, `quoted col` FROM s"))
	start := spec.Select.Items[0].Expr.(*parser.ColumnRef)
	assert.Equal(t, parser.IdentKeyword, start.Name.Kind)
	assert.Equal(t, "start", start.Name.Value)

	quoted := spec.Select.Items[1].Expr.(*parser.ColumnRef)
	assert.Equal(t, parser.IdentQuoted, quoted.Name.Kind)
	assert.Equal(t, "quoted col", quoted.Name.Value)
}

// ---------- Scripts ----------

func TestParseScript(t *testing.T) {
	stmts, err := parser.New(nil).ParseScript("SELECT a FROM s;; SELECT b FROM t;")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	empty, err := parser.New(nil).ParseScript(" ; ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParserIsReusable(t *testing.T) {
	p := parser.New(dialect.ANSI)
	for i := 0; i < 3; i++ {
		_, err := p.Parse("SELECT a FROM s")
		require.NoError(t, err)
	}
	assert.Equal(t, dialect.ANSI, p.Dialect())
}
