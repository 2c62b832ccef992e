package parser

import (
	"strings"

	"github.com/spf13/cast"
)

// Expr is any boolean, value or primary expression.
type Expr interface {
	Node
	exprNode()
}

// ---------- Boolean expressions ----------

// LogicalOp is AND or OR.
type LogicalOp string

// Logical operators.
const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// LogicalExpr is left AND|OR right.
type LogicalExpr struct {
	NodeInfo
	Op    LogicalOp
	Left  Expr
	Right Expr
}

// NotExpr is NOT operand.
type NotExpr struct {
	NodeInfo
	Operand Expr
}

// ExistsExpr is EXISTS (query).
type ExistsExpr struct {
	NodeInfo
	Query *Query
}

// PredicatedExpr is a value expression with one attached predicate.
// A value expression without a predicate is not wrapped.
type PredicatedExpr struct {
	NodeInfo
	Value     Expr
	Predicate Predicate
}

func (*LogicalExpr) exprNode()    {}
func (*NotExpr) exprNode()        {}
func (*ExistsExpr) exprNode()     {}
func (*PredicatedExpr) exprNode() {}

// ---------- Predicates ----------

// Predicate is the postfix part of a PredicatedExpr.
type Predicate interface {
	Node
	predicate()
	// Negated reports whether NOT was written.
	Negated() bool
}

// Negation is embedded by predicates that accept NOT.
type Negation struct {
	Not bool
}

// Negated reports whether NOT was written.
func (n Negation) Negated() bool { return n.Not }

// BetweenPredicate is [NOT] BETWEEN lower AND upper.
type BetweenPredicate struct {
	NodeInfo
	Negation
	Lower Expr
	Upper Expr
}

// InListPredicate is [NOT] IN (expr, ...).
type InListPredicate struct {
	NodeInfo
	Negation
	Values []Expr
}

// InSubqueryPredicate is [NOT] IN (query).
type InSubqueryPredicate struct {
	NodeInfo
	Negation
	Query *Query
}

// RLikePredicate is [NOT] RLIKE pattern.
type RLikePredicate struct {
	NodeInfo
	Negation
	Pattern Expr
}

// LikeQuantifier is ANY, SOME or ALL.
type LikeQuantifier string

// Like quantifiers.
const (
	QuantifierAny  LikeQuantifier = "ANY"
	QuantifierSome LikeQuantifier = "SOME"
	QuantifierAll  LikeQuantifier = "ALL"
)

// LikeQuantifiedPredicate is [NOT] LIKE ANY|SOME|ALL (pattern, ...).
type LikeQuantifiedPredicate struct {
	NodeInfo
	Negation
	Quantifier LikeQuantifier
	Patterns   []Expr
}

// LikePredicate is [NOT] LIKE pattern [ESCAPE 'c'].
type LikePredicate struct {
	NodeInfo
	Negation
	Pattern Expr
	Escape  *string
}

// IsNullPredicate is IS [NOT] NULL.
type IsNullPredicate struct {
	NodeInfo
	Negation
}

// TruthValue is the operand of IS [NOT] TRUE|FALSE|UNKNOWN.
type TruthValue string

// Truth values.
const (
	TruthTrue    TruthValue = "TRUE"
	TruthFalse   TruthValue = "FALSE"
	TruthUnknown TruthValue = "UNKNOWN"
)

// IsTruthPredicate is IS [NOT] TRUE|FALSE|UNKNOWN.
type IsTruthPredicate struct {
	NodeInfo
	Negation
	Value TruthValue
}

// IsDistinctFromPredicate is IS [NOT] DISTINCT FROM right.
type IsDistinctFromPredicate struct {
	NodeInfo
	Negation
	Right Expr
}

func (*BetweenPredicate) predicate()        {}
func (*InListPredicate) predicate()         {}
func (*InSubqueryPredicate) predicate()     {}
func (*RLikePredicate) predicate()          {}
func (*LikeQuantifiedPredicate) predicate() {}
func (*LikePredicate) predicate()           {}
func (*IsNullPredicate) predicate()         {}
func (*IsTruthPredicate) predicate()        {}
func (*IsDistinctFromPredicate) predicate() {}

// ---------- Value expressions ----------

// UnaryOp is a prefix arithmetic operator.
type UnaryOp string

// Unary operators.
const (
	UnaryPlus  UnaryOp = "+"
	UnaryMinus UnaryOp = "-"
	UnaryTilde UnaryOp = "~"
)

// UnaryExpr is + - or ~ applied to an operand.
type UnaryExpr struct {
	NodeInfo
	Op      UnaryOp
	Operand Expr
}

// BinaryOp is an arithmetic, bitwise or concatenation operator.
type BinaryOp string

// Binary operators, loosest to tightest.
const (
	OpBitOr  BinaryOp = "|"
	OpBitXor BinaryOp = "^"
	OpBitAnd BinaryOp = "&"
	OpAdd    BinaryOp = "+"
	OpSub    BinaryOp = "-"
	OpConcat BinaryOp = "||"
	OpMul    BinaryOp = "*"
	OpDiv    BinaryOp = "/"
	OpMod    BinaryOp = "%"
	OpIntDiv BinaryOp = "DIV"
)

// BinaryExpr is left op right for arithmetic and bitwise operators.
type BinaryExpr struct {
	NodeInfo
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// ComparisonOp is a comparison operator in canonical spelling.
type ComparisonOp string

// Comparison operators. == is read as =, !> as <= and !< as >=.
const (
	CmpEq     ComparisonOp = "="
	CmpNullEq ComparisonOp = "<=>"
	CmpNeq    ComparisonOp = "<>"
	CmpNeqJ   ComparisonOp = "!="
	CmpLt     ComparisonOp = "<"
	CmpLte    ComparisonOp = "<="
	CmpGt     ComparisonOp = ">"
	CmpGte    ComparisonOp = ">="
)

// ComparisonExpr is left op right. It does not chain.
type ComparisonExpr struct {
	NodeInfo
	Op    ComparisonOp
	Left  Expr
	Right Expr
}

func (*UnaryExpr) exprNode()      {}
func (*BinaryExpr) exprNode()     {}
func (*ComparisonExpr) exprNode() {}

// ---------- Primary expressions ----------

// StarExpr is a bare *.
type StarExpr struct {
	NodeInfo
}

// QualifiedStar is name.* or a.b.*.
type QualifiedStar struct {
	NodeInfo
	Qualifier []*Identifier
}

// SubqueryExpr is a scalar (query).
type SubqueryExpr struct {
	NodeInfo
	Query *Query
}

// RowConstructor is (expr [AS a], expr [AS b], ...) with at least two items.
type RowConstructor struct {
	NodeInfo
	Items []*NamedExpression
}

// FunctionCall is name(args). Aggregate names (MIN, MAX, AVG, SUM, COUNT,
// MEDIAN) are keywords and set Aggregate.
type FunctionCall struct {
	NodeInfo
	Name      *Identifier
	Aggregate bool
	Args      []Expr
}

// ParenExpr is (expr).
type ParenExpr struct {
	NodeInfo
	Expr Expr
}

// ColumnRef is a bare identifier in expression position.
type ColumnRef struct {
	NodeInfo
	Name *Identifier
}

// Dereference is base.field. Chains associate to the left.
type Dereference struct {
	NodeInfo
	Base  Expr
	Field *Identifier
}

func (*StarExpr) exprNode()       {}
func (*QualifiedStar) exprNode()  {}
func (*SubqueryExpr) exprNode()   {}
func (*RowConstructor) exprNode() {}
func (*FunctionCall) exprNode()   {}
func (*ParenExpr) exprNode()      {}
func (*ColumnRef) exprNode()      {}
func (*Dereference) exprNode()    {}

// ---------- Constants ----------

// NullLiteral is NULL.
type NullLiteral struct {
	NodeInfo
}

// BooleanLiteral is TRUE or FALSE.
type BooleanLiteral struct {
	NodeInfo
	Value bool
}

// StringLiteral is one or more adjacent string tokens, each unescaped.
type StringLiteral struct {
	NodeInfo
	Values []string
}

// Value returns the concatenation of all parts.
func (s *StringLiteral) Value() string {
	return strings.Join(s.Values, "")
}

// TypeConstructor is type 'value', e.g. DATE '2024-01-01'.
type TypeConstructor struct {
	NodeInfo
	Type  *Identifier
	Value string
}

// NumberKind tags a numeric literal.
type NumberKind int

// Numeric literal kinds.
const (
	IntegerLiteral NumberKind = iota
	DecimalLiteral
	ExponentLiteral
	LegacyDecimalLiteral // decimal or exponent form when legacy mode is on
	BigIntLiteral        // 10L
	SmallIntLiteral      // 10S
	TinyIntLiteral       // 10Y
	DoubleLiteral        // 1.5D
	FloatLiteral         // 1.5F
	BigDecimalLiteral    // 1.5BD
)

var numberKindNames = [...]string{
	IntegerLiteral:       "IntegerLiteral",
	DecimalLiteral:       "DecimalLiteral",
	ExponentLiteral:      "ExponentLiteral",
	LegacyDecimalLiteral: "LegacyDecimalLiteral",
	BigIntLiteral:        "BigIntLiteral",
	SmallIntLiteral:      "SmallIntLiteral",
	TinyIntLiteral:       "TinyIntLiteral",
	DoubleLiteral:        "DoubleLiteral",
	FloatLiteral:         "FloatLiteral",
	BigDecimalLiteral:    "BigDecimalLiteral",
}

func (k NumberKind) String() string {
	if int(k) < len(numberKindNames) {
		return numberKindNames[k]
	}
	return "UnknownLiteral"
}

// NumericLiteral is a number with an optional leading minus. Text is the
// literal as written without the sign, suffix included.
type NumericLiteral struct {
	NodeInfo
	Kind     NumberKind
	Negative bool
	Text     string
}

// SQL returns the literal as written, sign included.
func (n *NumericLiteral) SQL() string {
	if n.Negative {
		return "-" + n.Text
	}
	return n.Text
}

// number returns the signed literal without its type suffix. Leading zeros
// are dropped so the conversion never reads the text as octal.
func (n *NumericLiteral) number() string {
	text := n.Text
	switch n.Kind {
	case BigDecimalLiteral:
		text = text[:len(text)-2]
	case BigIntLiteral, SmallIntLiteral, TinyIntLiteral, DoubleLiteral, FloatLiteral:
		text = text[:len(text)-1]
	}
	text = strings.TrimLeft(text, "0")
	if text == "" || text[0] == '.' || text[0] == 'e' || text[0] == 'E' {
		text = "0" + text
	}
	if n.Negative {
		return "-" + text
	}
	return text
}

// Int64 converts the literal to an int64.
func (n *NumericLiteral) Int64() (int64, error) {
	return cast.ToInt64E(n.number())
}

// Float64 converts the literal to a float64.
func (n *NumericLiteral) Float64() (float64, error) {
	return cast.ToFloat64E(n.number())
}

func (*NullLiteral) exprNode()     {}
func (*BooleanLiteral) exprNode()  {}
func (*StringLiteral) exprNode()   {}
func (*TypeConstructor) exprNode() {}
func (*NumericLiteral) exprNode()  {}
