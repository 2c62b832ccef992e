package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

// Error kinds. Every kind is terminal for the parse call that produced it.
const (
	// KindSyntax: the tokens match no grammar alternative at Pos.
	KindSyntax ErrorKind = iota
	// KindLex: a character (or unterminated literal) matches no token class.
	KindLex
	// KindTrailingInput: a complete statement is followed by something other than ';' or EOF.
	KindTrailingInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindTrailingInput:
		return "unexpected trailing input"
	default:
		return "syntax error"
	}
}

// Sentinels matched by ParseError.Is, for use with errors.Is.
var (
	ErrSyntax        = errors.New("syntax error")
	ErrLex           = errors.New("lex error")
	ErrTrailingInput = errors.New("unexpected trailing input")
)

// ParseError is the single diagnostic produced by a failed parse.
type ParseError struct {
	Kind     ErrorKind
	Pos      token.Position
	Found    string   // offending token, "" for lex errors
	Expected []string // sorted, de-duplicated token kinds acceptable at Pos
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d: %s", e.Kind, e.Pos.Line, e.Pos.Column, e.Message)
}

// Is reports whether target is the sentinel for e's kind.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrSyntax:
		return e.Kind == KindSyntax
	case ErrLex:
		return e.Kind == KindLex
	case ErrTrailingInput:
		return e.Kind == KindTrailingInput
	}
	return false
}

// Line returns the 1-based line of the error.
func (e *ParseError) Line() int { return e.Pos.Line }

// Column returns the 1-based column of the error.
func (e *ParseError) Column() int { return e.Pos.Column }

// Common error messages
const (
	ErrUnexpectedToken     = "unexpected %s, expected %s"
	ErrUnexpectedTokenBare = "unexpected %s"
	ErrUnterminatedString  = "unterminated string literal"
	ErrUnterminatedQuoted  = "unterminated quoted identifier"
	ErrUnterminatedComment = "unterminated comment"
	ErrUnrecognizedChar    = "unrecognized character %q"
	ErrInvalidUTF8         = "invalid UTF-8 byte %#02x"
	ErrIntegerRange        = "integer %s out of range"
	ErrChainedComparison   = "comparison operators cannot be chained, combine them with AND"
	ErrHavingWithoutWindow = "HAVING requires a preceding WINDOW clause"
	ErrWatermarkNoWindow   = "WATERMARK requires a preceding WINDOW clause"
)

func newLexError(pos token.Position, format string, args ...any) *ParseError {
	return &ParseError{Kind: KindLex, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// expectedList renders an expected set for a message.
func expectedList(expected []string) string {
	switch len(expected) {
	case 0:
		return ""
	case 1:
		return expected[0]
	}
	return "one of {" + strings.Join(expected, ", ") + "}"
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FormatErrorContext renders the source line of err with a caret under the
// error column. It returns err.Error() unchanged for non-ParseErrors.
func FormatErrorContext(sql string, err error) string {
	var pe *ParseError
	if !errors.As(err, &pe) || !pe.Pos.IsValid() {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	lines := strings.Split(sql, "\n")
	var b strings.Builder
	b.WriteString(pe.Error())
	if pe.Pos.Line-1 < len(lines) {
		line := strings.TrimRight(lines[pe.Pos.Line-1], "\r")
		gutter := fmt.Sprintf("%4d | ", pe.Pos.Line)
		b.WriteString("\n")
		b.WriteString(gutter)
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(strings.Repeat(" ", len(gutter)-2))
		b.WriteString("| ")
		b.WriteString(strings.Repeat(" ", max(pe.Pos.Column-1, 0)))
		b.WriteString("^")
	}
	return b.String()
}
