package lsp

import (
	"errors"
	"strings"

	"github.com/leapstack-labs/nebulasql/pkg/lint"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

const (
	sourceParser = "nebulasql"
	sourceLint   = "nebulasql-lint"
)

// publishDiagnostics parses the document and publishes parse and lint findings.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil {
		return
	}

	diagnostics := s.diagnose(doc)
	version := doc.Version
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     &version,
		Diagnostics: diagnostics,
	})
}

// diagnose returns the diagnostics for doc. A parse failure yields a single
// diagnostic and no lint findings.
func (s *Server) diagnose(doc *Document) []Diagnostic {
	diagnostics := []Diagnostic{}
	s.fixes.clearURI(doc.URI)

	if strings.TrimSpace(doc.Content) == "" {
		return diagnostics
	}

	stmts, err := parser.New(s.dialect).ParseScript(doc.Content)
	if err != nil {
		return append(diagnostics, s.parseErrorToDiagnostic(doc, err))
	}

	lintDiags := s.analyzer.AnalyzeMultiple(stmts)
	for _, d := range lintDiags {
		diagnostics = append(diagnostics, Diagnostic{
			Range:    toRange(d.Pos, d.EndPos),
			Severity: toLSPSeverity(d.Severity),
			Code:     d.Rule,
			Source:   sourceLint,
			Message:  d.Message,
		})
	}
	s.cacheDiagnosticFixes(doc.URI, lintDiags)
	return diagnostics
}

// parseErrorToDiagnostic underlines the offending token, or one character
// when the error sits at end of input.
func (s *Server) parseErrorToDiagnostic(doc *Document, err error) Diagnostic {
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		return Diagnostic{
			Range:    Range{End: Position{Character: 1}},
			Severity: DiagnosticSeverityError,
			Source:   sourceParser,
			Message:  err.Error(),
		}
	}

	start := toPosition(pe.Pos)
	rng := Range{Start: start, End: Position{Line: start.Line, Character: start.Character + 1}}
	if _, word := doc.GetWordAtPosition(start); word.Start == start && word.End != start {
		rng.End = word.End
	}

	return Diagnostic{
		Range:    rng,
		Severity: DiagnosticSeverityError,
		Code:     strings.ReplaceAll(pe.Kind.String(), " ", "-"),
		Source:   sourceParser,
		Message:  pe.Message,
	}
}

// toLSPSeverity converts lint.Severity to LSP DiagnosticSeverity.
func toLSPSeverity(s lint.Severity) DiagnosticSeverity {
	switch s {
	case lint.SeverityError:
		return DiagnosticSeverityError
	case lint.SeverityWarning:
		return DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return DiagnosticSeverityInformation
	case lint.SeverityHint:
		return DiagnosticSeverityHint
	default:
		return DiagnosticSeverityWarning
	}
}
