package lsp

import (
	"encoding/json"
	"sync"

	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

// fixCache stores the fixes of the last published diagnostics.
type fixCache struct {
	mu    sync.RWMutex
	fixes map[string]map[fixKey][]lint.Fix // URI -> diagnostic -> fixes
}

// fixKey identifies a diagnostic by rule and start position, so two
// findings of one rule keep separate fixes.
type fixKey struct {
	rule  string
	start Position
}

func newFixCache() *fixCache {
	return &fixCache{fixes: make(map[string]map[fixKey][]lint.Fix)}
}

func (c *fixCache) cacheFixes(uri string, key fixKey, fixes []lint.Fix) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fixes[uri] == nil {
		c.fixes[uri] = make(map[fixKey][]lint.Fix)
	}
	c.fixes[uri][key] = fixes
}

func (c *fixCache) getFixes(uri string, key fixKey) []lint.Fix {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fixes[uri][key]
}

func (c *fixCache) clearURI(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fixes, uri)
}

// handleCodeAction handles the textDocument/codeAction request.
func (s *Server) handleCodeAction(msg *JSONRPCMessage) error {
	var params CodeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	s.sendResponse(msg.ID, s.getCodeActions(params), nil)
	return nil
}

// getCodeActions turns the cached fixes of the given diagnostics into quick fixes.
func (s *Server) getCodeActions(params CodeActionParams) []CodeAction {
	actions := []CodeAction{}

	if len(params.Context.Only) > 0 {
		wanted := false
		for _, kind := range params.Context.Only {
			if kind == CodeActionKindQuickFix {
				wanted = true
				break
			}
		}
		if !wanted {
			return actions
		}
	}

	uri := params.TextDocument.URI
	for _, diag := range params.Context.Diagnostics {
		if diag.Source != sourceLint {
			continue
		}
		fixes := s.fixes.getFixes(uri, fixKey{rule: diag.Code, start: diag.Range.Start})
		for _, fix := range fixes {
			actions = append(actions, CodeAction{
				Title:       fix.Description,
				Kind:        CodeActionKindQuickFix,
				Diagnostics: []Diagnostic{diag},
				IsPreferred: len(fixes) == 1,
				Edit: &WorkspaceEdit{
					Changes: map[string][]TextEdit{
						uri: convertTextEdits(fix.TextEdits),
					},
				},
			})
		}
	}
	return actions
}

// convertTextEdits converts lint.TextEdit to LSP TextEdit.
func convertTextEdits(edits []lint.TextEdit) []TextEdit {
	result := make([]TextEdit, len(edits))
	for i, edit := range edits {
		result[i] = TextEdit{
			Range:   Range{Start: toPosition(edit.Pos), End: toPosition(edit.EndPos)},
			NewText: edit.NewText,
		}
	}
	return result
}

// cacheDiagnosticFixes stores fixes from lint diagnostics for later retrieval.
func (s *Server) cacheDiagnosticFixes(uri string, diagnostics []lint.Diagnostic) {
	for _, diag := range diagnostics {
		if len(diag.Fixes) > 0 {
			s.fixes.cacheFixes(uri, fixKey{rule: diag.Rule, start: toPosition(diag.Pos)}, diag.Fixes)
		}
	}
}
