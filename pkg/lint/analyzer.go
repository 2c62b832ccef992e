package lint

import (
	"sort"

	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

// Analyzer runs lint rules against parsed statements.
type Analyzer struct {
	config *Config
}

// NewAnalyzer creates a new analyzer with optional configuration.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	return &Analyzer{config: config}
}

// Run analyzes stmt with cfg.
func Run(stmt *parser.SingleStatement, cfg *Config) []Diagnostic {
	return NewAnalyzer(cfg).Analyze(stmt)
}

// Analyze runs every enabled rule, registered or added to the config,
// and returns the diagnostics in source order.
func (a *Analyzer) Analyze(stmt *parser.SingleStatement) []Diagnostic {
	if stmt == nil {
		return nil
	}

	var diagnostics []Diagnostic
	for _, rule := range a.config.Rules() {
		if a.config.IsDisabled(rule.ID) {
			continue
		}
		diags := rule.Check(stmt, a.config.GetRuleOptions(rule.ID))
		for i := range diags {
			diags[i].Rule = rule.ID
			diags[i].Severity = a.config.GetSeverity(rule.ID, rule.Severity)
		}
		diagnostics = append(diagnostics, diags...)
	}

	sort.SliceStable(diagnostics, func(i, j int) bool {
		return diagnostics[i].Pos.Offset < diagnostics[j].Pos.Offset
	})
	return diagnostics
}

// AnalyzeMultiple runs analysis on multiple statements.
func (a *Analyzer) AnalyzeMultiple(stmts []*parser.SingleStatement) []Diagnostic {
	var diagnostics []Diagnostic
	for _, stmt := range stmts {
		diagnostics = append(diagnostics, a.Analyze(stmt)...)
	}
	return diagnostics
}
