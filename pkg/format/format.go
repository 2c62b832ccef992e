package format

import (
	"strings"

	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// SQL renders any statement, query or expression node as canonical SQL.
// Nodes that are not printable on their own render as "".
func SQL(node parser.Node, opts ...Option) string {
	p := newPrinter(opts...)
	switch n := node.(type) {
	case *parser.SingleStatement:
		p.formatStatement(n)
	case *parser.Query:
		p.formatQuery(n)
	case parser.QueryTerm:
		p.formatQueryTerm(n)
	case *parser.Relation:
		p.formatRelation(n)
	case parser.RelationPrimary:
		p.formatRelationPrimary(n)
	case parser.WindowSpec:
		p.formatWindowSpec(n)
	case *parser.NamedExpression:
		p.formatNamedExpression(n)
	case parser.Expr:
		p.formatExpr(n)
	default:
		return ""
	}
	return p.String()
}

// Expr renders an expression on a single line.
func Expr(e parser.Expr, opts ...Option) string {
	return SQL(e, append(opts, Compact())...)
}

// Format parses sql with d and returns it in canonical layout, keeping
// comments around the statement.
func Format(sql string, d *dialect.Dialect, opts ...Option) (string, error) {
	stmts, comments, err := parseScript(sql, d)
	if err != nil {
		return "", err
	}
	if len(stmts) == 1 {
		return SQL(stmts[0], append(opts, WithComments(comments))...), nil
	}
	return script(stmts, comments, opts), nil
}

// FormatScript formats every statement of sql, each terminated by ';'.
func FormatScript(sql string, d *dialect.Dialect, opts ...Option) (string, error) {
	stmts, comments, err := parseScript(sql, d)
	if err != nil {
		return "", err
	}
	return script(stmts, comments, opts), nil
}

func parseScript(sql string, d *dialect.Dialect) ([]*parser.SingleStatement, []*token.Comment, error) {
	lexer := parser.NewLexer(sql)
	if _, err := lexer.All(); err != nil {
		return nil, nil, err
	}
	stmts, err := parser.New(d).ParseScript(sql)
	if err != nil {
		return nil, nil, err
	}
	return stmts, lexer.Comments, nil
}

// script attaches each comment to the first statement that ends after it.
func script(stmts []*parser.SingleStatement, comments []*token.Comment, opts []Option) string {
	owned := make([][]*token.Comment, len(stmts))
	for _, c := range comments {
		i := 0
		for i < len(stmts)-1 && stmts[i].Span.End.Offset < c.Span.Start.Offset {
			i++
		}
		if len(stmts) > 0 {
			owned[i] = append(owned[i], c)
		}
	}

	var sb strings.Builder
	for i, stmt := range stmts {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(SQL(stmt, append(opts, WithComments(owned[i]), terminated())...))
	}
	return sb.String()
}
