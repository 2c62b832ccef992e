package format

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

func TestFormat_BasicSelect(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:  "simple select",
			input: "SELECT a, b FROM s",
			expected: `SELECT
  a,
  b
FROM s
`,
		},
		{
			name:  "select with where",
			input: "select a from s where x = 1",
			expected: `SELECT
  a
FROM s
WHERE
  x = 1
`,
		},
		{
			name:  "implicit aliases gain AS",
			input: "SELECT a x, b AS y FROM s t",
			expected: `SELECT
  a AS x,
  b AS y
FROM s AS t
`,
		},
		{
			name:  "qualified star",
			input: "SELECT s.* FROM s",
			expected: `SELECT
  s.*
FROM s
`,
		},
		{
			name:  "hint",
			input: "SELECT /*+ REPARTITION(4) */ a FROM s",
			expected: `SELECT /*+ REPARTITION(4) */
  a
FROM s
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.input, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormat_Streaming(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:  "count window",
			input: "SELECT COUNT(*) FROM s WINDOW TUMBLING(10)",
			expected: `SELECT
  COUNT(*)
FROM s
WINDOW TUMBLING(10)
`,
		},
		{
			name:  "group by with sliding window and watermark",
			input: "SELECT a, avg(v) FROM s GROUP BY a WINDOW SLIDING(ts, SIZE 1 MIN, ADVANCE BY 10 SEC) WATERMARK(ts, 5 SEC)",
			expected: `SELECT
  a,
  AVG(v)
FROM s
GROUP BY
  a
WINDOW SLIDING(ts, SIZE 1 MIN, ADVANCE BY 10 SEC)
WATERMARK(ts, 5 SEC)
`,
		},
		{
			name:  "threshold window with having",
			input: "SELECT MAX(v) FROM s WINDOW THRESHOLD(v > 10, 2) HAVING MAX(v) > 20",
			expected: `SELECT
  MAX(v)
FROM s
WINDOW THRESHOLD(v > 10, 2)
HAVING
  MAX(v) > 20
`,
		},
		{
			name:  "rollup",
			input: "SELECT a, b FROM s GROUP BY a, b WITH ROLLUP WINDOW TUMBLING(SIZE 1 HOUR)",
			expected: `SELECT
  a,
  b
FROM s
GROUP BY
  a,
  b
WITH ROLLUP
WINDOW TUMBLING(SIZE 1 HOUR)
`,
		},
		{
			name:  "grouping sets only",
			input: "SELECT a FROM s GROUP BY GROUPING SETS ((a, b), a, ()) WINDOW TUMBLING(5)",
			expected: `SELECT
  a
FROM s
GROUP BY GROUPING SETS ((a, b), a, ())
WINDOW TUMBLING(5)
`,
		},
		{
			name:  "print sink",
			input: "SELECT a FROM s INTO PRINT",
			expected: `SELECT
  a
FROM s
INTO PRINT
`,
		},
		{
			name:  "file sink keeps AS",
			input: `SELECT a FROM s INTO FILE("out.csv", csv_format, 'true') AS`,
			expected: `SELECT
  a
FROM s
INTO FILE('out.csv', CSV_FORMAT, 'true') AS
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.input, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormat_Relations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:  "join on",
			input: "SELECT a FROM s JOIN t ON s.id = t.id",
			expected: `SELECT
  a
FROM s
JOIN t ON s.id = t.id
`,
		},
		{
			name:  "natural inner join",
			input: "SELECT a FROM s NATURAL INNER JOIN t",
			expected: `SELECT
  a
FROM s
NATURAL INNER JOIN t
`,
		},
		{
			name:  "derived table",
			input: "SELECT a FROM (SELECT a FROM s) t",
			expected: `SELECT
  a
FROM (
  SELECT
    a
  FROM s
) AS t
`,
		},
		{
			name:  "table function and column aliases",
			input: "SELECT id FROM range(1, 10) r(id)",
			expected: `SELECT
  id
FROM range(1, 10) AS r(id)
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.input, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormat_QueryOrganization(t *testing.T) {
	got, err := Format("SELECT a FROM s UNION SELECT a FROM t ORDER BY a DESC NULLS LAST LIMIT 10 OFFSET 5", nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT
  a
FROM s
UNION
SELECT
  a
FROM t
ORDER BY
  a DESC NULLS LAST
LIMIT 10
OFFSET 5
`, got)
}

func TestFormat_LongConditionsBreak(t *testing.T) {
	got, err := Format("SELECT a FROM s WHERE a = 1 AND b = 2 OR c = 3", nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT
  a
FROM s
WHERE
  a = 1
  AND b = 2
  OR c = 3
`, got)
}

func TestFormat_KeywordCase(t *testing.T) {
	got, err := Format("SELECT COUNT(*) AS n FROM s WHERE a IS NOT NULL WINDOW TUMBLING(SIZE 1 SEC)", nil,
		WithKeywordCase(Lower))
	require.NoError(t, err)
	assert.Equal(t, `select
  count(*) as n
from s
where
  a is not null
window tumbling(size 1 sec)
`, got)
}

func TestParseKeywordCase(t *testing.T) {
	c, ok := ParseKeywordCase("LOWER")
	assert.True(t, ok)
	assert.Equal(t, Lower, c)

	c, ok = ParseKeywordCase("upper")
	assert.True(t, ok)
	assert.Equal(t, Upper, c)

	_, ok = ParseKeywordCase("title")
	assert.False(t, ok)
}

func TestFormat_Comments(t *testing.T) {
	got, err := Format("-- totals\nSELECT a FROM s /* done */", nil)
	require.NoError(t, err)
	assert.Equal(t, "-- totals\nSELECT\n  a\nFROM s\n/* done */\n", got)
}

func TestFormatScript(t *testing.T) {
	got, err := FormatScript("SELECT a FROM s; -- second\nSELECT b FROM t;", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n  a\nFROM s;\n\n-- second\nSELECT\n  b\nFROM t;\n", got)
}

func TestFormat_Error(t *testing.T) {
	_, err := Format("SELECT FROM", nil)
	require.Error(t, err)
	var pe *parser.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestExpr(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a+1>2", "a + 1 > 2"},
		{"a + 1 > 2 AND b IN (SELECT x FROM t)", "a + 1 > 2 AND b IN (SELECT x FROM t)"},
		{"NOT a BETWEEN 1 AND 5", "NOT a BETWEEN 1 AND 5"},
		{"a NOT LIKE 'x%' ESCAPE '!'", "a NOT LIKE 'x%' ESCAPE '!'"},
		{"a like any ('x', 'y')", "a LIKE ANY ('x', 'y')"},
		{"a IS NOT DISTINCT FROM b", "a IS NOT DISTINCT FROM b"},
		{"b IS UNKNOWN", "b IS UNKNOWN"},
		{"- -1", "- -1"},
		{"-(1)", "-(1)"},
		{"~a & b | c ^ d", "~a & b | c ^ d"},
		{"a div 2", "a DIV 2"},
		{"'it\\'s' \"x\"", `'it\'s' 'x'`},
		{"DATE '2024-01-01'", "DATE '2024-01-01'"},
		{"`my``col` + 1.5D", "`my``col` + 1.5D"},
		{"(a, b AS c)", "(a, b AS c)"},
		{"EXISTS (SELECT 1 FROM s)", "EXISTS (SELECT 1 FROM s)"},
		{"a.b.c", "a.b.c"},
	}

	p := parser.New(nil)
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := p.ParseExpression(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Expr(e))
		})
	}
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `'a\\b'`, quoteString(`a\b`))
	assert.Equal(t, `'line\nnext'`, quoteString("line\nnext"))
	assert.Equal(t, `'\'q\''`, quoteString(`'q'`))
}

// Formatting its own output must be a fixed point.
// shapeOf parses sql and returns its tree without positions.
func shapeOf(t *testing.T, sql string) *TreeNode {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	tree := Tree(stmt)
	var strip func(*TreeNode)
	strip = func(n *TreeNode) {
		n.Pos = ""
		n.Span = token.Span{}
		for _, c := range n.Children {
			strip(c)
		}
	}
	strip(tree)
	return tree
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		"SELECT a, b FROM s WHERE a > 1",
		"SELECT a my-alias FROM s",
		"SELECT a FROM s AS t(x, y) JOIN u v ON t.x = v.x INNER JOIN w",
		"SELECT -1, - -1, +a, ~b, 1.5e3, 10L, 2S, 3Y, 4.0F, 5BD FROM s",
		"SELECT a FROM s WHERE a IN (1, 2) OR a NOT IN (SELECT b FROM t) AND c RLIKE 'x.*'",
		"SELECT `a``b`, 'esc\\'aped\\n' 'more' FROM s",
		"SELECT a, SUM(b) FROM s GROUP BY a WITH CUBE WINDOW TUMBLING(ts, SIZE 10 SEC) WATERMARK(ts, 2 SEC) HAVING SUM(b) > 0 INTO PRINT",
		"SELECT a FROM s GROUP BY a GROUPING SETS ((a), ()) WINDOW SLIDING(SIZE 1 DAY, ADVANCE BY 1 HOUR)",
		"SELECT a FROM s WINDOW THRESHOLD(a IS NOT NULL)",
		"FROM s SELECT a WHERE a > 1 GROUP BY a SELECT b",
		"TABLE db.s ORDER BY a LIMIT ALL",
		"VALUES (1, 2), (3, 4) AS v(x, y)",
		"(SELECT a FROM s) UNION (SELECT a FROM t) UNION TABLE u",
		"SELECT (SELECT MAX(a) FROM t) AS m, (a, b) AS (x, y) FROM (s JOIN t) AS st",
		"SELECT * FROM s WHERE EXISTS (SELECT 1 FROM t WHERE t.a = s.a) AND NOT (a <=> b)",
		"SELECT a FROM s INTO FILE('out.csv', CSV_FORMAT, 'false')",
	}

	for _, sql := range inputs {
		t.Run(sql, func(t *testing.T) {
			first, err := Format(sql, nil)
			require.NoError(t, err)

			second, err := Format(first, nil)
			require.NoError(t, err, "formatted output must parse:\n%s", first)
			assert.Equal(t, first, second)

			assert.Equal(t, shapeOf(t, sql), shapeOf(t, first), "reparsed tree differs for:\n%s", first)

			lower, err := Format(sql, nil, WithKeywordCase(Lower))
			require.NoError(t, err)
			again, err := Format(lower, nil)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		})
	}
}

func TestFormat_LegacyDialect(t *testing.T) {
	got, err := Format("SELECT 1.5E2 FROM s", dialect.Legacy)
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n  1.5E2\nFROM s\n", got)
}

func TestSQL_Nodes(t *testing.T) {
	stmt, err := parser.Parse("SELECT a FROM s WINDOW TUMBLING(SIZE 5 MIN)")
	require.NoError(t, err)

	spec := stmt.Query.Term.(*parser.QuerySpecification)
	assert.Equal(t, "TUMBLING(SIZE 5 MIN)\n", SQL(spec.Aggregation.Window.Spec))
	assert.Equal(t, "TUMBLING(SIZE 5 MIN)", SQL(spec.Aggregation.Window.Spec, Compact()))
	assert.Equal(t, "s\n", SQL(spec.From.Relations[0]))
	assert.Equal(t, "", SQL(spec.Select))
}

func TestTree(t *testing.T) {
	stmt, err := parser.Parse("SELECT a, COUNT(*) AS n FROM s WINDOW TUMBLING(10)")
	require.NoError(t, err)

	tree := Tree(stmt)
	require.NotNil(t, tree)
	assert.Equal(t, "SingleStatement", tree.Kind)
	assert.Equal(t, "1:1", tree.Pos)

	query := tree.Children[0]
	assert.Equal(t, "Query", query.Kind)
	spec := query.Children[0]
	require.Len(t, spec.Children, 3)
	assert.Equal(t, "SelectClause", spec.Children[0].Kind)
	assert.Equal(t, "FromClause", spec.Children[1].Kind)
	assert.Equal(t, "WindowedAggregation", spec.Children[2].Kind)

	named := spec.Children[0].Children[1]
	assert.Equal(t, "NamedExpression", named.Kind)
	assert.Equal(t, "AS n", named.Value)
	require.Len(t, named.Children, 1)
	assert.Equal(t, "FunctionCall", named.Children[0].Kind)
	assert.Equal(t, "COUNT", named.Children[0].Value)

	window := spec.Children[2].Children[0].Children[0]
	assert.Equal(t, "CountWindow", window.Kind)
	assert.Equal(t, "10", window.Value)
	assert.Equal(t, 38, window.Span.Start.Offset)

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"CountWindow","value":"10"`)

	text := tree.Text()
	assert.Contains(t, text, "ColumnRef a")
	assert.Contains(t, text, "TableName")
	assert.Contains(t, text, "CountWindow 10")
}

func TestTree_Nil(t *testing.T) {
	assert.Nil(t, Tree(nil))
	var tn *TreeNode
	assert.Equal(t, "", tn.Text())
}
