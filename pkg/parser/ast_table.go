package parser

import "strings"

// FromClause is FROM relation, relation, ...
type FromClause struct {
	NodeInfo
	Relations []*Relation
}

// Relation is a relation primary followed by zero or more joins.
type Relation struct {
	NodeInfo
	Primary RelationPrimary
	Joins   []*JoinRelation
}

// JoinRelation is [NATURAL] [INNER] JOIN right [ON condition].
type JoinRelation struct {
	NodeInfo
	Natural bool
	Inner   bool // INNER keyword written
	Right   RelationPrimary
	On      Expr // nil when absent; always nil for NATURAL joins
}

// RelationPrimary is one of TableName, AliasedQuery, AliasedRelation,
// InlineTable or FunctionTable.
type RelationPrimary interface {
	Node
	relationPrimary()
}

// TableName references a (possibly qualified) stream or table.
type TableName struct {
	NodeInfo
	Name  *MultipartIdentifier
	Alias *TableAlias
}

// AliasedQuery is (query) [alias].
type AliasedQuery struct {
	NodeInfo
	Query *Query
	Alias *TableAlias
}

// AliasedRelation is (relation) [alias].
type AliasedRelation struct {
	NodeInfo
	Relation *Relation
	Alias    *TableAlias
}

// InlineTable is VALUES row, row, ... [alias]. It is both a query primary and a relation.
type InlineTable struct {
	NodeInfo
	Rows  []Expr
	Alias *TableAlias
}

// FunctionTable is a table-valued function call: name(args) [alias].
type FunctionTable struct {
	NodeInfo
	Name  Name
	Args  []Expr
	Alias *TableAlias
}

func (*TableName) relationPrimary()       {}
func (*AliasedQuery) relationPrimary()    {}
func (*AliasedRelation) relationPrimary() {}
func (*InlineTable) relationPrimary()     {}
func (*FunctionTable) relationPrimary()   {}

// TableAlias is [AS] name [(col, ...)].
type TableAlias struct {
	NodeInfo
	As      bool
	Name    *Identifier
	Columns []Name
}

// ---------- Names ----------

// Name is an identifier position that captures hyphenated names:
// either *Identifier or *ErrorIdent.
type Name interface {
	Node
	name()
	// Text is the name as written, parts joined by '-' for ErrorIdent.
	Text() string
}

// IdentKind records how an identifier was written.
type IdentKind int

// Identifier kinds.
const (
	IdentUnquoted IdentKind = iota // orders
	IdentQuoted                    // `my col`
	IdentKeyword                   // a non-reserved keyword used as a name
)

// Identifier is a single name. Value is unescaped for quoted identifiers and
// keeps its source spelling otherwise.
type Identifier struct {
	NodeInfo
	Value string
	Kind  IdentKind
}

// ErrorIdent is a hyphenated name such as my-table, captured instead of being
// read as subtraction. It is not rejected by the parser; consumers decide
// how to report it.
type ErrorIdent struct {
	NodeInfo
	Parts []*Identifier
}

func (*Identifier) name() {}
func (*ErrorIdent) name() {}

// Text returns the identifier value.
func (i *Identifier) Text() string { return i.Value }

// Text returns the parts joined with '-'.
func (e *ErrorIdent) Text() string {
	parts := make([]string, len(e.Parts))
	for i, p := range e.Parts {
		parts[i] = p.Value
	}
	return strings.Join(parts, "-")
}

// MultipartIdentifier is a dotted name such as catalog.db.stream.
type MultipartIdentifier struct {
	NodeInfo
	Parts []Name
}

// String joins the parts with '.'.
func (m *MultipartIdentifier) String() string {
	parts := make([]string, len(m.Parts))
	for i, p := range m.Parts {
		parts[i] = p.Text()
	}
	return strings.Join(parts, ".")
}
