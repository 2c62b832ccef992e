// Package lint reports questionable but syntactically valid NebulaSQL.
//
// Rules register themselves from init functions and run over a parsed
// statement:
//
//	stmt, _ := parser.Parse(sql)
//	diags := lint.Run(stmt, lint.NewConfig())
//
// # Configuration
//
// Config disables rules, overrides their severity and passes rule options:
//
//	cfg := lint.NewConfig()
//	cfg.SetSeverity(lint.RuleHyphenatedIdentifier, lint.SeverityError)
//	cfg.SetSeverity(lint.RuleZeroWindow, lint.SeverityOff)
//	cfg.SetRuleOptions(lint.RuleWindowSizeLimit, map[string]any{"max_size": "6h"})
//
// # Rules
//
//   - hyphenated-identifier: a name such as my-col captured where the
//     grammar expects a plain identifier.
//   - sliding-advance: a sliding window that advances further than its size.
//   - zero-window: a window of size, count or advance 0.
//   - window-size-limit: a time window larger than the configured max_size.
package lint

import (
	"strings"

	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// Severity indicates the importance of a diagnostic.
type Severity int

// Severity levels for diagnostics.
const (
	// SeverityError indicates a critical issue that should be fixed.
	SeverityError Severity = iota
	// SeverityWarning indicates a potential issue that should be reviewed.
	SeverityWarning
	// SeverityInfo indicates informational feedback.
	SeverityInfo
	// SeverityHint indicates a suggestion for improvement.
	SeverityHint
	// SeverityOff disables a rule when used as an override.
	SeverityOff
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	case SeverityOff:
		return "off"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityWarning and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, true
	case "warning", "warn":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	case "hint":
		return SeverityHint, true
	case "off", "none":
		return SeverityOff, true
	default:
		return SeverityWarning, false
	}
}

// Diagnostic represents a lint finding.
type Diagnostic struct {
	Rule     string         `json:"rule" yaml:"rule"`
	Severity Severity       `json:"severity" yaml:"severity"`
	Message  string         `json:"message" yaml:"message"`
	Pos      token.Position `json:"pos" yaml:"pos"`
	EndPos   token.Position `json:"end_pos" yaml:"end_pos"`
	Fixes    []Fix          `json:"fixes,omitempty" yaml:"fixes,omitempty"`
}

// Fix represents a suggested code fix.
type Fix struct {
	Description string     `json:"description" yaml:"description"`
	TextEdits   []TextEdit `json:"edits" yaml:"edits"`
}

// TextEdit replaces the text between Pos and EndPos.
type TextEdit struct {
	Pos     token.Position `json:"pos" yaml:"pos"`
	EndPos  token.Position `json:"end_pos" yaml:"end_pos"`
	NewText string         `json:"new_text" yaml:"new_text"`
}
