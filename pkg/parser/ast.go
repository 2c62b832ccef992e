package parser

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// Node is implemented by every AST node.
type Node interface {
	GetSpan() token.Span
}

// NodeInfo provides the source span of a node. Every node embeds it.
type NodeInfo struct {
	Span token.Span
}

// GetSpan returns the node's source span.
func (n *NodeInfo) GetSpan() token.Span {
	return n.Span
}

// ---------- Statements and queries ----------

// SingleStatement is the root of a parse: one query, optionally followed by semicolons.
type SingleStatement struct {
	NodeInfo
	Query *Query
}

// Query is a query term plus its organization (ORDER BY, LIMIT, OFFSET).
type Query struct {
	NodeInfo
	Term    QueryTerm
	OrderBy []*SortItem
	Limit   *Limit // nil when absent
	Offset  *int64 // nil when absent
}

// Limit is LIMIT ALL or LIMIT n.
type Limit struct {
	All   bool
	Count int64
}

// QueryTerm is a QueryPrimary or a set operation over query terms.
type QueryTerm interface {
	Node
	queryTerm()
}

// QueryPrimary is one of QuerySpecification, FromStatement, TableQuery,
// InlineTable or SubqueryPrimary.
type QueryPrimary interface {
	QueryTerm
	queryPrimary()
}

// SetOperator is the operator of a SetOperation.
type SetOperator string

// SetOperator constants.
const (
	SetUnion SetOperator = "UNION"
)

// SetOperation combines two query terms. Chains are left-associative.
type SetOperation struct {
	NodeInfo
	Op    SetOperator
	Left  QueryTerm
	Right QueryTerm
}

// QuerySpecification is SELECT ... FROM ... with its optional clauses.
type QuerySpecification struct {
	NodeInfo
	Select      *SelectClause
	From        *FromClause
	Where       Expr                 // nil when absent
	Aggregation *WindowedAggregation // nil when absent
	Having      Expr                 // nil when absent
	Sink        *SinkClause          // nil: rows are returned to the caller
}

// FromStatement is FROM-first syntax: FROM relations followed by one or more select bodies.
type FromStatement struct {
	NodeInfo
	From   *FromClause
	Bodies []*FromStatementBody
}

// FromStatementBody is one SELECT body of a FromStatement.
type FromStatementBody struct {
	NodeInfo
	Select  *SelectClause
	Where   Expr
	GroupBy *AggregationClause
}

// TableQuery is TABLE name.
type TableQuery struct {
	NodeInfo
	Name *MultipartIdentifier
}

// SubqueryPrimary is a parenthesized query used as a query term.
type SubqueryPrimary struct {
	NodeInfo
	Query *Query
}

func (*SetOperation) queryTerm()       {}
func (*QuerySpecification) queryTerm() {}
func (*FromStatement) queryTerm()      {}
func (*TableQuery) queryTerm()         {}
func (*InlineTable) queryTerm()        {}
func (*SubqueryPrimary) queryTerm()    {}

func (*QuerySpecification) queryPrimary() {}
func (*FromStatement) queryPrimary()      {}
func (*TableQuery) queryPrimary()         {}
func (*InlineTable) queryPrimary()        {}
func (*SubqueryPrimary) queryPrimary()    {}

// SelectClause is SELECT with optional hints and the projection list.
type SelectClause struct {
	NodeInfo
	Hints []*Hint
	Items []*NamedExpression
}

// Hint is one /*+ ... */ block.
type Hint struct {
	NodeInfo
	Statements []*HintStatement
}

// HintStatement is name or name(params).
type HintStatement struct {
	NodeInfo
	Name   *Identifier
	Params []Expr
}

// NamedExpression is a projection with an optional alias or alias list.
type NamedExpression struct {
	NodeInfo
	Expr    Expr
	As      bool   // AS keyword written
	Alias   Name   // single alias; nil when absent
	Aliases []Name // (a, b) alias list; nil when absent
}

// SortOrdering is ASC, DESC or unspecified.
type SortOrdering int

// SortOrdering values.
const (
	OrderUnspecified SortOrdering = iota
	OrderAsc
	OrderDesc
)

// NullOrdering is NULLS FIRST, NULLS LAST or unspecified.
type NullOrdering int

// NullOrdering values.
const (
	NullsUnspecified NullOrdering = iota
	NullsFirst
	NullsLast
)

// SortItem is one ORDER BY entry.
type SortItem struct {
	NodeInfo
	Expr     Expr
	Ordering SortOrdering
	Nulls    NullOrdering
}

// ---------- Sinks ----------

// SinkClause is INTO sink [AS].
type SinkClause struct {
	NodeInfo
	Sink Sink
	As   bool
}

// Sink is FileSink or PrintSink.
type Sink interface {
	Node
	sink()
}

// FileFormat enumerates file sink formats.
type FileFormat int

// File formats.
const (
	FormatCSV FileFormat = iota
)

func (f FileFormat) String() string {
	switch f {
	case FormatCSV:
		return "CSV_FORMAT"
	}
	return "UNKNOWN_FORMAT"
}

// FileSink is FILE('path', format, 'append').
type FileSink struct {
	NodeInfo
	Path   string
	Format FileFormat
	Append string
}

// AppendMode interprets the append argument ("true", "1", "false", ...).
func (s *FileSink) AppendMode() (bool, error) {
	return cast.ToBoolE(strings.TrimSpace(s.Append))
}

// PrintSink writes rows to standard output.
type PrintSink struct {
	NodeInfo
}

func (*FileSink) sink()  {}
func (*PrintSink) sink() {}
