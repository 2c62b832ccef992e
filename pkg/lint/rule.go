package lint

import "github.com/leapstack-labs/nebulasql/pkg/parser"

// RuleDef is a data-driven rule definition.
// Rules are stateless; all context comes through the Check parameters.
type RuleDef struct {
	ID          string    // e.g. "sliding-advance"
	Description string    // Human-readable description
	Severity    Severity  // Default severity
	Check       CheckFunc // The check function
	ConfigKeys  []string  // Options the rule reads

	Rationale   string
	BadExample  string
	GoodExample string
}

// CheckFunc analyzes a statement and returns diagnostics. Severity is
// filled in by the analyzer.
type CheckFunc func(stmt *parser.SingleStatement, opts map[string]any) []Diagnostic
