package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

func mustExpr(t *testing.T, sql string) parser.Expr {
	t.Helper()
	e, err := parser.New(nil).ParseExpression(sql)
	require.NoError(t, err, parser.FormatErrorContext(sql, err))
	return e
}

// shape renders an expression with explicit grouping so tests can assert
// tree structure compactly.
func shape(e parser.Expr) string {
	switch n := e.(type) {
	case *parser.LogicalExpr:
		return "(" + shape(n.Left) + " " + string(n.Op) + " " + shape(n.Right) + ")"
	case *parser.NotExpr:
		return "(NOT " + shape(n.Operand) + ")"
	case *parser.BinaryExpr:
		return "(" + shape(n.Left) + " " + string(n.Op) + " " + shape(n.Right) + ")"
	case *parser.ComparisonExpr:
		return "(" + shape(n.Left) + " " + string(n.Op) + " " + shape(n.Right) + ")"
	case *parser.UnaryExpr:
		return "(" + string(n.Op) + shape(n.Operand) + ")"
	case *parser.ColumnRef:
		return n.Name.Value
	case *parser.NumericLiteral:
		return n.SQL()
	case *parser.ParenExpr:
		return "[" + shape(n.Expr) + "]"
	case *parser.Dereference:
		return shape(n.Base) + "." + n.Field.Value
	case *parser.PredicatedExpr:
		return "(" + shape(n.Value) + " <pred>)"
	}
	return "?"
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c", "((a * b) + c)"},
		{"a - b - c", "((a - b) - c)"},
		{"a / b % c DIV d", "(((a / b) % c) DIV d)"},
		{"a || b + c", "((a || b) + c)"},
		{"a & b | c ^ d", "((a & b) | (c ^ d))"},
		{"a | b & c", "(a | (b & c))"},
		{"a ^ b & c", "(a ^ (b & c))"},
		{"a + 1 = b * 2", "((a + 1) = (b * 2))"},
		{"a = 1 OR b = 2 AND c = 3", "((a = 1) OR ((b = 2) AND (c = 3)))"},
		{"a OR b OR c", "((a OR b) OR c)"},
		{"NOT a = 1 AND b", "((NOT (a = 1)) AND b)"},
		{"NOT NOT a", "(NOT (NOT a))"},
		{"-a * b", "((-a) * b)"},
		{"~a + b", "((~a) + b)"},
		{"- -a", "(-(-a))"},
		{"(a + b) * c", "([(a + b)] * c)"},
		{"a.b.c + 1", "(a.b.c + 1)"},
		{"a - 1", "(a - 1)"},
		{"a -1", "(a - 1)"},
		{"-1 - -2", "(-1 - -2)"},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, shape(mustExpr(t, tt.sql)))
		})
	}
}

func TestChainedComparisonIsRejected(t *testing.T) {
	for _, sql := range []string{"a < b < c", "a = b = c", "1 = 1 <> 2"} {
		t.Run(sql, func(t *testing.T) {
			_, err := parser.New(nil).ParseExpression(sql)
			require.Error(t, err)
			assert.ErrorIs(t, err, parser.ErrSyntax)
			assert.Contains(t, err.Error(), parser.ErrChainedComparison)
		})
	}
}

func TestComparisonOperators(t *testing.T) {
	tests := []struct {
		sql  string
		want parser.ComparisonOp
	}{
		{"a = b", parser.CmpEq},
		{"a == b", parser.CmpEq},
		{"a <=> b", parser.CmpNullEq},
		{"a <> b", parser.CmpNeq},
		{"a != b", parser.CmpNeqJ},
		{"a < b", parser.CmpLt},
		{"a <= b", parser.CmpLte},
		{"a !> b", parser.CmpLte},
		{"a > b", parser.CmpGt},
		{"a >= b", parser.CmpGte},
		{"a !< b", parser.CmpGte},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			cmp, ok := mustExpr(t, tt.sql).(*parser.ComparisonExpr)
			require.True(t, ok)
			assert.Equal(t, tt.want, cmp.Op)
		})
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		sql     string
		want    any
		negated bool
	}{
		{"a BETWEEN 1 AND 10", &parser.BetweenPredicate{}, false},
		{"a NOT BETWEEN 1 AND 10", &parser.BetweenPredicate{}, true},
		{"a IN (1, 2, 3)", &parser.InListPredicate{}, false},
		{"a NOT IN (1)", &parser.InListPredicate{}, true},
		{"a IN (SELECT b FROM s)", &parser.InSubqueryPredicate{}, false},
		{"a IN ((1), 2)", &parser.InListPredicate{}, false},
		{"a RLIKE '^x'", &parser.RLikePredicate{}, false},
		{"a LIKE 'x%'", &parser.LikePredicate{}, false},
		{"a NOT LIKE 'x%'", &parser.LikePredicate{}, true},
		{"a LIKE ANY ('x%', 'y%')", &parser.LikeQuantifiedPredicate{}, false},
		{"a LIKE ALL ()", &parser.LikeQuantifiedPredicate{}, false},
		{"a IS NULL", &parser.IsNullPredicate{}, false},
		{"a IS NOT NULL", &parser.IsNullPredicate{}, true},
		{"a IS TRUE", &parser.IsTruthPredicate{}, false},
		{"a IS NOT UNKNOWN", &parser.IsTruthPredicate{}, true},
		{"a IS DISTINCT FROM b", &parser.IsDistinctFromPredicate{}, false},
		{"a IS NOT DISTINCT FROM b + 1", &parser.IsDistinctFromPredicate{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			pe, ok := mustExpr(t, tt.sql).(*parser.PredicatedExpr)
			require.True(t, ok)
			assert.IsType(t, tt.want, pe.Predicate)
			assert.Equal(t, tt.negated, pe.Predicate.Negated())
		})
	}
}

func TestLikeEscape(t *testing.T) {
	pe := mustExpr(t, `a LIKE 'x\%%' ESCAPE '!'`).(*parser.PredicatedExpr)
	like := pe.Predicate.(*parser.LikePredicate)
	require.NotNil(t, like.Escape)
	assert.Equal(t, "!", *like.Escape)
	assert.Equal(t, `x\%%`, like.Pattern.(*parser.StringLiteral).Value())
}

func TestPredicateOnComparison(t *testing.T) {
	pe, ok := mustExpr(t, "a = b IS NULL").(*parser.PredicatedExpr)
	require.True(t, ok)
	assert.IsType(t, &parser.ComparisonExpr{}, pe.Value)
}

func TestNotWithoutPredicateKeywordIsNotConsumed(t *testing.T) {
	spec := querySpec(t, mustParse(t, "SELECT a FROM s WHERE NOT a"))
	assert.IsType(t, &parser.NotExpr{}, spec.Where)
}

func TestPrimaryExpressions(t *testing.T) {
	tests := []struct {
		sql  string
		want any
	}{
		{"*", &parser.StarExpr{}},
		{"s.*", &parser.QualifiedStar{}},
		{"db.s.*", &parser.QualifiedStar{}},
		{"(SELECT a FROM s)", &parser.SubqueryExpr{}},
		{"(a, b)", &parser.RowConstructor{}},
		{"(a AS x, b y)", &parser.RowConstructor{}},
		{"(a)", &parser.ParenExpr{}},
		{"count(*)", &parser.FunctionCall{}},
		{"lower(a, 'x')", &parser.FunctionCall{}},
		{"now()", &parser.FunctionCall{}},
		{"NULL", &parser.NullLiteral{}},
		{"TRUE", &parser.BooleanLiteral{}},
		{"'a' 'b'", &parser.StringLiteral{}},
		{"DATE '2024-01-01'", &parser.TypeConstructor{}},
		{"a", &parser.ColumnRef{}},
		{"f(x).field", &parser.Dereference{}},
		{"EXISTS (SELECT 1 FROM s)", &parser.ExistsExpr{}},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.IsType(t, tt.want, mustExpr(t, tt.sql))
		})
	}
}

func TestAggregateFunctions(t *testing.T) {
	for _, name := range []string{"MIN", "MAX", "AVG", "SUM", "COUNT", "MEDIAN"} {
		t.Run(name, func(t *testing.T) {
			fn, ok := mustExpr(t, name+"(x)").(*parser.FunctionCall)
			require.True(t, ok)
			assert.True(t, fn.Aggregate)
			assert.Equal(t, name, fn.Name.Value)
			assert.Len(t, fn.Args, 1)
		})
	}

	fn := mustExpr(t, "my_udf(x)").(*parser.FunctionCall)
	assert.False(t, fn.Aggregate)
}

func TestStringLiteralUnescaping(t *testing.T) {
	lit := mustExpr(t, `'a\tb' "c\'d" 'e\_f'`).(*parser.StringLiteral)
	assert.Equal(t, []string{"a\tb", "c'd", `e\_f`}, lit.Values)
	assert.Equal(t, "a\tbc'de\\_f", lit.Value())
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		sql      string
		d        *dialect.Dialect
		kind     parser.NumberKind
		negative bool
	}{
		{"42", dialect.Nebula, parser.IntegerLiteral, false},
		{"-42", dialect.Nebula, parser.IntegerLiteral, true},
		{"1.5", dialect.Nebula, parser.DecimalLiteral, false},
		{"1e10", dialect.Nebula, parser.ExponentLiteral, false},
		{"1e10", dialect.Legacy, parser.LegacyDecimalLiteral, false},
		{"1.5", dialect.Legacy, parser.LegacyDecimalLiteral, false},
		{"42", dialect.Legacy, parser.IntegerLiteral, false},
		{"10L", dialect.Nebula, parser.BigIntLiteral, false},
		{"10S", dialect.Nebula, parser.SmallIntLiteral, false},
		{"10Y", dialect.Nebula, parser.TinyIntLiteral, false},
		{"1.5D", dialect.Nebula, parser.DoubleLiteral, false},
		{"1.5F", dialect.Nebula, parser.FloatLiteral, false},
		{"-1.5BD", dialect.Nebula, parser.BigDecimalLiteral, true},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name+"/"+tt.sql, func(t *testing.T) {
			e, err := parser.New(tt.d).ParseExpression(tt.sql)
			require.NoError(t, err)
			lit, ok := e.(*parser.NumericLiteral)
			require.True(t, ok, "got %T", e)
			assert.Equal(t, tt.kind, lit.Kind)
			assert.Equal(t, tt.negative, lit.Negative)
			assert.Equal(t, tt.sql, lit.SQL())
		})
	}
}

func TestNumericLiteralConversion(t *testing.T) {
	n := mustExpr(t, "-007").(*parser.NumericLiteral)
	v, err := n.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v)

	big := mustExpr(t, "10L").(*parser.NumericLiteral)
	v, err = big.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(10), v)

	f := mustExpr(t, ".25D").(*parser.NumericLiteral)
	fv, err := f.Float64()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, fv, 1e-9)
}
