package lsp

import (
	"encoding/json"

	"github.com/leapstack-labs/nebulasql/pkg/format"
)

// handleFormatting replaces the document with its canonical layout. A
// document that does not parse is left alone.
func (s *Server) handleFormatting(msg *JSONRPCMessage) error {
	var params DocumentFormattingParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	s.sendResponse(msg.ID, s.formatDocument(params.TextDocument.URI), nil)
	return nil
}

func (s *Server) formatDocument(uri string) []TextEdit {
	edits := []TextEdit{}
	doc := s.documents.Get(uri)
	if doc == nil {
		return edits
	}

	formatted, err := format.Format(doc.Content, s.dialect, format.WithKeywordCase(s.caser))
	if err != nil {
		s.logger.Debug("format skipped", "uri", uri, "error", err)
		return edits
	}
	if formatted == doc.Content {
		return edits
	}
	return append(edits, TextEdit{Range: doc.FullRange(), NewText: formatted})
}
