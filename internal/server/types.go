package server

import (
	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

// Modes selects the keyword modes for one request. An empty Dialect uses
// the server's; the two flags can switch a mode on but never off.
type Modes struct {
	Dialect                 string `json:"dialect,omitempty"`
	AnsiKeywords            bool   `json:"ansi_keywords,omitempty"`
	LegacyExponentAsDecimal bool   `json:"legacy_exponent_as_decimal,omitempty"`
}

// ParseRequest is the body of POST /api/parse.
type ParseRequest struct {
	Modes
	SQL  string `json:"sql"`
	Expr bool   `json:"expr,omitempty"` // parse a single expression
}

// ParseResponse carries one tree and one canonical rendering per statement.
type ParseResponse struct {
	Statements []*format.TreeNode `json:"statements"`
	Canonical  []string           `json:"canonical"`
}

// FormatRequest is the body of POST /api/format.
type FormatRequest struct {
	Modes
	SQL         string `json:"sql"`
	KeywordCase string `json:"keyword_case,omitempty"`
	Compact     bool   `json:"compact,omitempty"`
}

// FormatResponse is the formatted script.
type FormatResponse struct {
	Formatted string `json:"formatted"`
	Changed   bool   `json:"changed"`
}

// CheckRequest is the body of POST /api/check.
type CheckRequest struct {
	Modes
	SQL string `json:"sql"`
}

// CheckResponse lists lint findings for a script that parsed.
type CheckResponse struct {
	Statements  int               `json:"statements"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
}

// TokensRequest is the body of POST /api/tokens.
type TokensRequest struct {
	SQL      string `json:"sql"`
	Comments bool   `json:"comments,omitempty"`
}

// Token is one lexed token.
type Token struct {
	Type    string `json:"type"`
	Literal string `json:"literal"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Offset  int    `json:"offset"`
}

// ParseErrorInfo is the JSON form of a parse failure.
type ParseErrorInfo struct {
	Kind     string   `json:"kind"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Found    string   `json:"found,omitempty"`
	Expected []string `json:"expected,omitempty"`
	Message  string   `json:"message"`
	Context  string   `json:"context,omitempty"`
}

// ErrorResponse is written for every non-2xx reply.
type ErrorResponse struct {
	Error      string          `json:"error"`
	ParseError *ParseErrorInfo `json:"parse_error,omitempty"`
}

// DialectInfo describes a registered dialect.
type DialectInfo struct {
	Name                    string `json:"name"`
	Description             string `json:"description"`
	AnsiKeywords            bool   `json:"ansi_keywords"`
	LegacyExponentAsDecimal bool   `json:"legacy_exponent_as_decimal"`
	Default                 bool   `json:"default"`
}

// RuleInfo describes a lint rule and the severity the server applies.
type RuleInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	ConfigKeys  []string `json:"config_keys,omitempty"`
}
