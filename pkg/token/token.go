// Package token defines the lexical vocabulary of NebulaSQL.
//
// Every keyword known to the grammar is a distinct token kind, including the
// streaming keywords (TUMBLING, WATERMARK, ...) and the aggregate function
// names. Whether a keyword may double as an identifier is decided by the
// dialect package, not here.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

//nolint:revive // ALL_CAPS names follow SQL token conventions
const (
	// Special tokens
	EOF TokenType = iota

	// Identifiers and literals
	IDENT            // orders, _tmp, 1a
	BACKQUOTED_IDENT // `weird name`
	STRING           // 'hello' or "hello"
	INTEGER_VALUE    // 123
	DECIMAL_VALUE    // 1.5, .5, 1.
	EXPONENT_VALUE   // 1e10, 1.5E-3
	BIGINT_LITERAL   // 10L
	SMALLINT_LITERAL // 10S
	TINYINT_LITERAL  // 10Y
	DOUBLE_LITERAL   // 1.5D
	FLOAT_LITERAL    // 1.5F
	BIGDECIMAL_LIT   // 1.5BD

	// Operators and punctuation
	EQ         // = or ==
	NSEQ       // <=>
	NEQ        // <>
	NEQJ       // !=
	LT         // <
	LTE        // <= or !>
	GT         // >
	GTE        // >= or !<
	PLUS       // +
	MINUS      // -
	ASTERISK   // *
	SLASH      // /
	PERCENT    // %
	TILDE      // ~
	AMPERSAND  // &
	PIPE       // |
	CONCAT     // ||
	HAT        // ^
	DOT        // .
	COMMA      // ,
	LPAREN     // (
	RPAREN     // )
	SEMICOLON  // ;
	HINT_START // /*+
	HINT_END   // */

	// Keywords (alphabetical)
	ADVANCE
	ALL
	AND
	ANY
	AS
	ASC
	AT
	AVG
	BETWEEN
	BY
	COMMENT
	COUNT
	CSV_FORMAT
	CUBE
	DAY
	DELETE
	DESC
	DISTINCT
	DIV
	DROP
	ELSE
	END
	ESCAPE
	EXISTS
	FALSE
	FILE
	FIRST
	FOR
	FROM
	FULL
	GROUP
	GROUPING
	HAVING
	HOUR
	IF
	IN
	INNER
	INSERT
	INTO
	IS
	JOIN
	LAST
	LEFT
	LIKE
	LIMIT
	LIST
	MAX
	MEDIAN
	MERGE
	MIN
	MS
	NATURAL
	NOT
	NULL
	NULLS
	OF
	OFFSET
	ON
	OR
	ORDER
	PRINT
	QUERY
	RECOVER
	RIGHT
	RLIKE
	ROLLUP
	SEC
	SELECT
	SETS
	SIZE
	SLIDING
	SOME
	START
	SUM
	TABLE
	THRESHOLD
	TO
	TRUE
	TUMBLING
	TYPE
	UNION
	UNKNOWN
	USE
	USING
	VALUES
	WATERMARK
	WHEN
	WHERE
	WINDOW
	WITH

	maxToken
)

var tokenNames = map[TokenType]string{
	EOF:              "EOF",
	IDENT:            "IDENTIFIER",
	BACKQUOTED_IDENT: "BACKQUOTED_IDENTIFIER",
	STRING:           "STRING",
	INTEGER_VALUE:    "INTEGER_VALUE",
	DECIMAL_VALUE:    "DECIMAL_VALUE",
	EXPONENT_VALUE:   "EXPONENT_VALUE",
	BIGINT_LITERAL:   "BIGINT_LITERAL",
	SMALLINT_LITERAL: "SMALLINT_LITERAL",
	TINYINT_LITERAL:  "TINYINT_LITERAL",
	DOUBLE_LITERAL:   "DOUBLE_LITERAL",
	FLOAT_LITERAL:    "FLOAT_LITERAL",
	BIGDECIMAL_LIT:   "BIGDECIMAL_LITERAL",

	EQ:         "'='",
	NSEQ:       "'<=>'",
	NEQ:        "'<>'",
	NEQJ:       "'!='",
	LT:         "'<'",
	LTE:        "'<='",
	GT:         "'>'",
	GTE:        "'>='",
	PLUS:       "'+'",
	MINUS:      "'-'",
	ASTERISK:   "'*'",
	SLASH:      "'/'",
	PERCENT:    "'%'",
	TILDE:      "'~'",
	AMPERSAND:  "'&'",
	PIPE:       "'|'",
	CONCAT:     "'||'",
	HAT:        "'^'",
	DOT:        "'.'",
	COMMA:      "','",
	LPAREN:     "'('",
	RPAREN:     "')'",
	SEMICOLON:  "';'",
	HINT_START: "'/*+'",
	HINT_END:   "'*/'",
}

// keywords maps lowercase spellings to keyword token types.
var keywords = make(map[string]TokenType)

// keywordText holds the canonical (upper case) spelling of each keyword.
var keywordText = map[TokenType]string{
	ADVANCE: "ADVANCE", ALL: "ALL", AND: "AND", ANY: "ANY", AS: "AS", ASC: "ASC",
	AT: "AT", AVG: "AVG", BETWEEN: "BETWEEN", BY: "BY", COMMENT: "COMMENT",
	COUNT: "COUNT", CSV_FORMAT: "CSV_FORMAT", CUBE: "CUBE", DAY: "DAY",
	DELETE: "DELETE", DESC: "DESC", DISTINCT: "DISTINCT", DIV: "DIV", DROP: "DROP",
	ELSE: "ELSE", END: "END", ESCAPE: "ESCAPE", EXISTS: "EXISTS", FALSE: "FALSE",
	FILE: "FILE", FIRST: "FIRST", FOR: "FOR", FROM: "FROM", FULL: "FULL",
	GROUP: "GROUP", GROUPING: "GROUPING", HAVING: "HAVING", HOUR: "HOUR", IF: "IF",
	IN: "IN", INNER: "INNER", INSERT: "INSERT", INTO: "INTO", IS: "IS", JOIN: "JOIN",
	LAST: "LAST", LEFT: "LEFT", LIKE: "LIKE", LIMIT: "LIMIT", LIST: "LIST",
	MAX: "MAX", MEDIAN: "MEDIAN", MERGE: "MERGE", MIN: "MIN", MS: "MS",
	NATURAL: "NATURAL", NOT: "NOT", NULL: "NULL", NULLS: "NULLS", OF: "OF",
	OFFSET: "OFFSET", ON: "ON", OR: "OR", ORDER: "ORDER", PRINT: "PRINT",
	QUERY: "QUERY", RECOVER: "RECOVER", RIGHT: "RIGHT", RLIKE: "RLIKE",
	ROLLUP: "ROLLUP", SEC: "SEC", SELECT: "SELECT", SETS: "SETS", SIZE: "SIZE",
	SLIDING: "SLIDING", SOME: "SOME", START: "START", SUM: "SUM", TABLE: "TABLE",
	THRESHOLD: "THRESHOLD", TO: "TO", TRUE: "TRUE", TUMBLING: "TUMBLING",
	TYPE: "TYPE", UNION: "UNION", UNKNOWN: "UNKNOWN", USE: "USE", USING: "USING",
	VALUES: "VALUES", WATERMARK: "WATERMARK", WHEN: "WHEN", WHERE: "WHERE",
	WINDOW: "WINDOW", WITH: "WITH",
}

func init() {
	for t, text := range keywordText {
		keywords[strings.ToLower(text)] = t
	}
}

// String returns the display name of the token type as used in diagnostics.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	if text, ok := keywordText[t]; ok {
		return text
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// LookupIdent returns the keyword token type for ident, or IDENT.
// The lookup is case-insensitive.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

// Keywords returns the canonical spelling of every keyword, in token order.
func Keywords() []string {
	out := make([]string, 0, len(keywordText))
	for t := ADVANCE; t < maxToken; t++ {
		out = append(out, keywordText[t])
	}
	return out
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= ADVANCE && t < maxToken
}

// IsOperator returns true if the token type is an operator or punctuation.
func IsOperator(t TokenType) bool {
	return t >= EQ && t <= HINT_END
}

// IsNumber returns true for every numeric literal class.
func IsNumber(t TokenType) bool {
	return t >= INTEGER_VALUE && t <= BIGDECIMAL_LIT
}

// IsComparison returns true for the comparison operators.
func IsComparison(t TokenType) bool {
	return t >= EQ && t <= GTE
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// End returns the position just past the token's last byte.
// Literal holds the raw source text, so this is exact for single-line tokens.
func (t Token) End() Position {
	end := t.Pos
	end.Offset += len(t.Literal)
	end.Column += len([]rune(t.Literal))
	return end
}

// Span returns the source range covered by the token.
func (t Token) Span() Span {
	return Span{Start: t.Pos, End: t.End()}
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case IDENT, BACKQUOTED_IDENT, STRING:
		return fmt.Sprintf("%s %s", t.Type, t.Literal)
	}
	if IsNumber(t.Type) {
		return fmt.Sprintf("%s %s", t.Type, t.Literal)
	}
	return fmt.Sprintf("'%s'", t.Literal)
}

// CommentKind distinguishes line and block comments.
type CommentKind int

// Comment kinds.
const (
	LineComment  CommentKind = iota // -- comment
	BlockComment                    // /* comment */
)

// Comment is a comment skipped by the lexer, kept for tooling.
type Comment struct {
	Kind CommentKind
	Text string // includes delimiters
	Span Span
}
