package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

func parseErr(t *testing.T, sql string) *parser.ParseError {
	t.Helper()
	_, err := parser.Parse(sql)
	require.Error(t, err)
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	return pe
}

func TestEmptyInput(t *testing.T) {
	pe := parseErr(t, "")
	assert.Equal(t, parser.KindSyntax, pe.Kind)
	assert.Equal(t, "end of input", pe.Found)
	assert.Equal(t, []string{"'('", "FROM", "SELECT", "TABLE", "VALUES"}, pe.Expected)
	assert.Equal(t,
		"syntax error at line 1, column 1: unexpected end of input, expected one of {'(', FROM, SELECT, TABLE, VALUES}",
		pe.Error())
}

func TestTrailingInput(t *testing.T) {
	pe := parseErr(t, "SELECT a FROM s x y")
	assert.Equal(t, parser.KindTrailingInput, pe.Kind)
	assert.ErrorIs(t, pe, parser.ErrTrailingInput)
	assert.NotErrorIs(t, pe, parser.ErrSyntax)
	assert.Equal(t, 1, pe.Line())
	assert.Equal(t, 19, pe.Column())
	assert.Equal(t, "IDENTIFIER y", pe.Found)
	assert.Contains(t, pe.Expected, "';'")
	assert.Contains(t, pe.Expected, "WHERE")
}

func TestTrailingInputAfterSemicolon(t *testing.T) {
	pe := parseErr(t, "SELECT a FROM s; SELECT b FROM t")
	assert.Equal(t, parser.KindTrailingInput, pe.Kind)
	assert.Equal(t, 18, pe.Column())
}

func TestMissingFrom(t *testing.T) {
	pe := parseErr(t, "SELECT a")
	assert.Equal(t, parser.KindSyntax, pe.Kind)
	assert.Contains(t, pe.Expected, "FROM")
	assert.Contains(t, pe.Expected, "','")
}

func TestErrorPositionMultiline(t *testing.T) {
	pe := parseErr(t, "SELECT a\nFROM s\nWHERE")
	assert.Equal(t, 3, pe.Line())
	assert.Equal(t, 6, pe.Column())
	assert.Equal(t, "end of input", pe.Found)
}

func TestLexErrorsSurfaceThroughParse(t *testing.T) {
	pe := parseErr(t, "SELECT 'abc FROM s")
	assert.Equal(t, parser.KindLex, pe.Kind)
	assert.ErrorIs(t, pe, parser.ErrLex)
	assert.Empty(t, pe.Expected)
}

func TestErrorsAreDeterministic(t *testing.T) {
	inputs := []string{
		"SELECT FROM",
		"SELECT a FROM s WHERE",
		"SELECT a FROM s WINDOW TUMBLING(SIZE 1)",
		"SELECT (a FROM s",
		"SELECT a FROM s x y",
	}
	for _, sql := range inputs {
		t.Run(sql, func(t *testing.T) {
			first := parseErr(t, sql)
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, parseErr(t, sql))
			}
		})
	}
}

func TestAbandonedSubqueryReportsFurthestError(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		column int
	}{
		{"relation subquery", "SELECT * FROM (SELECT a FROM s WHERE) x", 37},
		{"scalar subquery", "SELECT (SELECT a FROM s WHERE) FROM t", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := parseErr(t, tt.sql)
			assert.Equal(t, parser.KindSyntax, pe.Kind)
			assert.Equal(t, tt.column, pe.Column())
			assert.Equal(t, "')'", pe.Found)
			assert.Equal(t, pe, parseErr(t, tt.sql))
		})
	}
}

func TestFormatErrorContext(t *testing.T) {
	sql := "SELECT a\nFROM s x y"
	_, err := parser.Parse(sql)
	require.Error(t, err)

	got := parser.FormatErrorContext(sql, err)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, err.Error(), lines[0])
	assert.Equal(t, "   2 | FROM s x y", lines[1])
	assert.Equal(t, "     |          ^", lines[2])

	assert.Equal(t, "", parser.FormatErrorContext(sql, nil))
}

func TestParseExpressionTrailingInput(t *testing.T) {
	_, err := parser.New(nil).ParseExpression("a + b c")
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrTrailingInput)
}
