package format

import (
	"strings"

	"github.com/leapstack-labs/nebulasql/pkg/parser"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

const complexityThreshold = 5

func (p *Printer) formatExpr(e parser.Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *parser.LogicalExpr:
		p.formatLogicalExpr(expr)
	case *parser.NotExpr:
		p.kw(token.NOT)
		p.space()
		p.formatExpr(expr.Operand)
	case *parser.ExistsExpr:
		p.kw(token.EXISTS)
		p.space()
		p.formatParenQuery(expr.Query)
	case *parser.PredicatedExpr:
		p.formatExpr(expr.Value)
		p.formatPredicate(expr.Predicate)
	case *parser.UnaryExpr:
		p.formatUnaryExpr(expr)
	case *parser.BinaryExpr:
		p.formatExpr(expr.Left)
		p.space()
		p.keyword(string(expr.Op))
		p.space()
		p.formatExpr(expr.Right)
	case *parser.ComparisonExpr:
		p.formatExpr(expr.Left)
		p.space()
		p.write(string(expr.Op))
		p.space()
		p.formatExpr(expr.Right)
	case *parser.StarExpr:
		p.write("*")
	case *parser.QualifiedStar:
		for _, q := range expr.Qualifier {
			p.formatIdentifier(q)
			p.write(".")
		}
		p.write("*")
	case *parser.SubqueryExpr:
		p.formatParenQuery(expr.Query)
	case *parser.RowConstructor:
		p.write("(")
		p.formatList(len(expr.Items), func(i int) { p.formatNamedExpression(expr.Items[i]) }, ", ", false)
		p.write(")")
	case *parser.FunctionCall:
		p.formatFunctionCall(expr)
	case *parser.ParenExpr:
		p.write("(")
		p.formatExpr(expr.Expr)
		p.write(")")
	case *parser.ColumnRef:
		p.formatIdentifier(expr.Name)
	case *parser.Dereference:
		p.formatExpr(expr.Base)
		if _, ok := expr.Base.(*parser.NumericLiteral); ok {
			p.space()
		}
		p.write(".")
		p.formatIdentifier(expr.Field)
	case *parser.NullLiteral:
		p.kw(token.NULL)
	case *parser.BooleanLiteral:
		if expr.Value {
			p.kw(token.TRUE)
		} else {
			p.kw(token.FALSE)
		}
	case *parser.StringLiteral:
		p.formatList(len(expr.Values), func(i int) { p.write(quoteString(expr.Values[i])) }, " ", false)
	case *parser.TypeConstructor:
		p.formatIdentifier(expr.Type)
		p.space()
		p.write(quoteString(expr.Value))
	case *parser.NumericLiteral:
		p.write(expr.SQL())
	}
}

func (p *Printer) exprComplexity(e parser.Expr) int {
	if e == nil {
		return 0
	}

	switch expr := e.(type) {
	case *parser.LogicalExpr:
		return 1 + p.exprComplexity(expr.Left) + p.exprComplexity(expr.Right)
	case *parser.BinaryExpr:
		return 1 + p.exprComplexity(expr.Left) + p.exprComplexity(expr.Right)
	case *parser.ComparisonExpr:
		return 1 + p.exprComplexity(expr.Left) + p.exprComplexity(expr.Right)
	case *parser.NotExpr:
		return 1 + p.exprComplexity(expr.Operand)
	case *parser.UnaryExpr:
		return 1 + p.exprComplexity(expr.Operand)
	case *parser.PredicatedExpr:
		return 2 + p.exprComplexity(expr.Value)
	case *parser.FunctionCall:
		score := 2
		for _, arg := range expr.Args {
			score += p.exprComplexity(arg)
		}
		return score
	case *parser.ParenExpr:
		return p.exprComplexity(expr.Expr)
	case *parser.ExistsExpr, *parser.SubqueryExpr:
		return complexityThreshold
	default:
		return 1
	}
}

// formatLogicalExpr puts each operator of a long AND/OR chain on its own line.
func (p *Printer) formatLogicalExpr(expr *parser.LogicalExpr) {
	shouldBreak := p.exprComplexity(expr) > complexityThreshold

	p.formatExpr(expr.Left)

	if shouldBreak {
		p.writeln()
	} else {
		p.space()
	}
	p.keyword(string(expr.Op))
	p.space()

	p.formatExpr(expr.Right)
}

func (p *Printer) formatUnaryExpr(expr *parser.UnaryExpr) {
	p.write(string(expr.Op))
	// "--" would open a line comment.
	if expr.Op == parser.UnaryMinus && startsWithMinus(expr.Operand) {
		p.space()
	}
	p.formatExpr(expr.Operand)
}

func startsWithMinus(e parser.Expr) bool {
	switch expr := e.(type) {
	case *parser.NumericLiteral:
		return expr.Negative
	case *parser.UnaryExpr:
		return expr.Op == parser.UnaryMinus
	case *parser.BinaryExpr:
		return startsWithMinus(expr.Left)
	case *parser.ComparisonExpr:
		return startsWithMinus(expr.Left)
	case *parser.PredicatedExpr:
		return startsWithMinus(expr.Value)
	case *parser.Dereference:
		return startsWithMinus(expr.Base)
	}
	return false
}

func (p *Printer) formatFunctionCall(fn *parser.FunctionCall) {
	if fn.Aggregate {
		p.keyword(fn.Name.Value)
	} else {
		p.formatIdentifier(fn.Name)
	}
	p.write("(")
	p.formatExprList(fn.Args)
	p.write(")")
}

func (p *Printer) formatPredicate(pred parser.Predicate) {
	p.space()
	switch pr := pred.(type) {
	case *parser.IsNullPredicate:
		p.formatIs(pr.Negated())
		p.kw(token.NULL)
		return
	case *parser.IsTruthPredicate:
		p.formatIs(pr.Negated())
		p.keyword(string(pr.Value))
		return
	case *parser.IsDistinctFromPredicate:
		p.formatIs(pr.Negated())
		p.kw(token.DISTINCT, token.FROM)
		p.space()
		p.formatExpr(pr.Right)
		return
	}

	if pred.Negated() {
		p.kw(token.NOT)
		p.space()
	}
	switch pr := pred.(type) {
	case *parser.BetweenPredicate:
		p.kw(token.BETWEEN)
		p.space()
		p.formatExpr(pr.Lower)
		p.space()
		p.kw(token.AND)
		p.space()
		p.formatExpr(pr.Upper)
	case *parser.InListPredicate:
		p.kw(token.IN)
		p.write(" (")
		p.formatExprList(pr.Values)
		p.write(")")
	case *parser.InSubqueryPredicate:
		p.kw(token.IN)
		p.space()
		p.formatParenQuery(pr.Query)
	case *parser.RLikePredicate:
		p.kw(token.RLIKE)
		p.space()
		p.formatExpr(pr.Pattern)
	case *parser.LikeQuantifiedPredicate:
		p.kw(token.LIKE)
		p.space()
		p.keyword(string(pr.Quantifier))
		p.write(" (")
		p.formatExprList(pr.Patterns)
		p.write(")")
	case *parser.LikePredicate:
		p.kw(token.LIKE)
		p.space()
		p.formatExpr(pr.Pattern)
		if pr.Escape != nil {
			p.space()
			p.kw(token.ESCAPE)
			p.space()
			p.write(quoteString(*pr.Escape))
		}
	}
}

func (p *Printer) formatIs(negated bool) {
	p.kw(token.IS)
	p.space()
	if negated {
		p.kw(token.NOT)
		p.space()
	}
}

func (p *Printer) formatExprList(exprs []parser.Expr) {
	p.formatList(len(exprs), func(i int) { p.formatExpr(exprs[i]) }, ", ", false)
}

// ---------- Names ----------

func (p *Printer) formatIdentifier(id *parser.Identifier) {
	if id == nil {
		return
	}
	if id.Kind == parser.IdentQuoted {
		p.write("`" + strings.ReplaceAll(id.Value, "`", "``") + "`")
		return
	}
	p.write(id.Value)
}

func (p *Printer) formatName(n parser.Name) {
	switch name := n.(type) {
	case *parser.Identifier:
		p.formatIdentifier(name)
	case *parser.ErrorIdent:
		p.formatList(len(name.Parts), func(i int) { p.formatIdentifier(name.Parts[i]) }, "-", false)
	}
}

func (p *Printer) formatNameList(names []parser.Name) {
	p.write("(")
	p.formatList(len(names), func(i int) { p.formatName(names[i]) }, ", ", false)
	p.write(")")
}

func (p *Printer) formatMultipart(m *parser.MultipartIdentifier) {
	if m == nil {
		return
	}
	p.formatList(len(m.Parts), func(i int) { p.formatName(m.Parts[i]) }, ".", false)
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
	"\x00", `\0`,
	"\x1a", `\Z`,
)

// quoteString renders s as a single-quoted literal that lexes back to s.
func quoteString(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}
