// Package dialect holds the keyword-reservation modes of NebulaSQL.
//
// A Dialect is an immutable pair of mode flags fixed when a parser is built:
//
//   - AnsiKeywords: only the ansiNonReserved keywords may be used as
//     identifiers. Otherwise the larger nonReserved set may, and the
//     strictNonReserved join keywords are accepted where a plain identifier
//     (but not a strict one, such as a table alias) is expected.
//   - LegacyExponentAsDecimal: exponent and decimal literals collapse to a
//     single legacy decimal literal kind.
package dialect

import (
	"sort"

	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// Dialect is a named, immutable keyword mode.
// Construct one with NewDialect(...).Build(); do not mutate a built Dialect.
type Dialect struct {
	Name        string
	Description string

	ansiKeywords            bool
	legacyExponentAsDecimal bool
}

// AnsiKeywords reports whether ANSI keyword reservation is in effect.
func (d *Dialect) AnsiKeywords() bool { return d.ansiKeywords }

// LegacyExponentAsDecimal reports whether exponent literals are read as legacy decimals.
func (d *Dialect) LegacyExponentAsDecimal() bool { return d.legacyExponentAsDecimal }

// IsStrictIdentifier reports whether t may appear where a strictIdentifier is
// expected: plain and backquoted identifiers, plus the non-reserved keywords
// of the active mode.
func (d *Dialect) IsStrictIdentifier(t token.TokenType) bool {
	switch t {
	case token.IDENT, token.BACKQUOTED_IDENT:
		return true
	}
	if d.ansiKeywords {
		return ansiNonReserved[t]
	}
	return nonReserved[t]
}

// IsIdentifier reports whether t may appear where an identifier is expected.
func (d *Dialect) IsIdentifier(t token.TokenType) bool {
	if d.IsStrictIdentifier(t) {
		return true
	}
	return !d.ansiKeywords && strictNonReserved[t]
}

// IsReserved reports whether keyword t can never be used as an identifier in this mode.
func (d *Dialect) IsReserved(t token.TokenType) bool {
	return token.IsKeyword(t) && !d.IsIdentifier(t)
}

// Builder builds a Dialect.
type Builder struct {
	d Dialect
}

// NewDialect starts a dialect with default (non-ANSI, non-legacy) modes.
func NewDialect(name string) *Builder {
	return &Builder{d: Dialect{Name: name}}
}

// Describe sets a one-line description shown by tooling.
func (b *Builder) Describe(desc string) *Builder {
	b.d.Description = desc
	return b
}

// AnsiKeywords sets the keyword reservation mode.
func (b *Builder) AnsiKeywords(on bool) *Builder {
	b.d.ansiKeywords = on
	return b
}

// LegacyExponentAsDecimal sets the numeric literal mode.
func (b *Builder) LegacyExponentAsDecimal(on bool) *Builder {
	b.d.legacyExponentAsDecimal = on
	return b
}

// Build returns the finished dialect.
func (b *Builder) Build() *Dialect {
	d := b.d
	return &d
}

// With returns a copy of d with both modes replaced. The name is kept so
// diagnostics still point at the base dialect.
func (d *Dialect) With(ansiKeywords, legacyExponentAsDecimal bool) *Dialect {
	c := *d
	c.ansiKeywords = ansiKeywords
	c.legacyExponentAsDecimal = legacyExponentAsDecimal
	return &c
}

// Keyword sets. The join keywords are strict: they never name a table alias.
var (
	strictNonReserved = setOf(
		token.FULL, token.INNER, token.JOIN, token.LEFT, token.NATURAL,
		token.ON, token.RIGHT, token.UNION, token.USING,
	)

	ansiNonReserved = setOf(
		token.ASC, token.AT, token.BETWEEN, token.BY, token.CUBE, token.DELETE,
		token.DESC, token.DIV, token.DROP, token.EXISTS, token.FIRST, token.GROUPING,
		token.INSERT, token.LAST, token.LIKE, token.LIMIT, token.MERGE, token.NULLS,
		token.QUERY, token.RLIKE, token.ROLLUP, token.SETS, token.TRUE, token.TYPE,
		token.VALUES, token.WINDOW,
	)

	nonReserved = setOf(
		token.ALL, token.AND, token.ANY, token.AS, token.ASC, token.AT,
		token.BETWEEN, token.BY, token.CUBE, token.DELETE, token.DESC,
		token.DISTINCT, token.DIV, token.DROP, token.ESCAPE, token.EXISTS,
		token.FALSE, token.FIRST, token.FROM, token.GROUP, token.GROUPING,
		token.HAVING, token.IN, token.INSERT, token.INTO, token.IS, token.LAST,
		token.LIKE, token.LIMIT, token.MERGE, token.NOT, token.NULL, token.NULLS,
		token.OR, token.ORDER, token.QUERY, token.RLIKE, token.ROLLUP,
		token.SELECT, token.SETS, token.SOME, token.TABLE, token.TRUE,
		token.TYPE, token.VALUES, token.WHERE, token.WINDOW, token.WITH,
		// START stays usable as a column name outside ANSI mode.
		token.START,
	)
)

func setOf(types ...token.TokenType) map[token.TokenType]bool {
	m := make(map[token.TokenType]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

func sortedSet(m map[token.TokenType]bool) []token.TokenType {
	out := make([]token.TokenType, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StrictNonReserved returns the strict non-reserved keywords in token order.
func StrictNonReserved() []token.TokenType { return sortedSet(strictNonReserved) }

// AnsiNonReserved returns the keywords usable as identifiers in ANSI mode.
func AnsiNonReserved() []token.TokenType { return sortedSet(ansiNonReserved) }

// NonReserved returns the keywords usable as identifiers in default mode.
func NonReserved() []token.TokenType { return sortedSet(nonReserved) }
