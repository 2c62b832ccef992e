package lsp

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// aggregate describes a built-in aggregate function.
type aggregate struct {
	signature string
	doc       string
}

var aggregates = map[string]aggregate{
	"AVG":    {"AVG(expr)", "Average of the non-null values in the window."},
	"COUNT":  {"COUNT(expr | *)", "Number of rows, or of non-null values of expr, in the window."},
	"MAX":    {"MAX(expr)", "Largest value in the window."},
	"MEDIAN": {"MEDIAN(expr)", "Median of the values in the window."},
	"MIN":    {"MIN(expr)", "Smallest value in the window."},
	"SUM":    {"SUM(expr)", "Sum of the values in the window."},
}

var timeUnitDocs = map[string]string{
	"MS":   "milliseconds",
	"SEC":  "seconds",
	"MIN":  "minutes",
	"HOUR": "hours",
	"DAY":  "days",
}

// windowSnippets expand a window kind into its full argument list.
var windowSnippets = map[string]CompletionItem{
	"TUMBLING": {
		Label:      "TUMBLING(SIZE n unit)",
		Detail:     "time tumbling window",
		InsertText: "TUMBLING(SIZE ${1:1} ${2:MIN})",
	},
	"SLIDING": {
		Label:      "SLIDING(SIZE n unit, ADVANCE BY n unit)",
		Detail:     "sliding window",
		InsertText: "SLIDING(SIZE ${1:10} ${2:MIN}, ADVANCE BY ${3:1} ${4:MIN})",
	},
	"THRESHOLD": {
		Label:      "THRESHOLD(condition)",
		Detail:     "threshold window",
		InsertText: "THRESHOLD(${1:condition})",
	},
}

var keywordDocs = map[string]string{
	"WINDOW":    "Starts the window clause: `WINDOW TUMBLING(...)`, `SLIDING(...)` or `THRESHOLD(...)`.",
	"TUMBLING":  "Fixed, non-overlapping window. `TUMBLING([ts,] SIZE n unit)` for time, `TUMBLING(n)` for a count of rows.",
	"SLIDING":   "Overlapping window. `SLIDING([ts,] SIZE n unit, ADVANCE BY n unit)`.",
	"THRESHOLD": "Window bounded by a predicate over the stream. `THRESHOLD(condition [, minCount])`.",
	"WATERMARK": "Allowed lateness of the preceding window. `WATERMARK(column, n unit)`.",
	"SIZE":      "Length of a time window.",
	"ADVANCE":   "Step of a sliding window: `ADVANCE BY n unit`.",
	"INTO":      "Sink clause: `INTO PRINT` or `INTO FILE('path', CSV_FORMAT, 'append')`.",
	"PRINT":     "Sink that prints result rows.",
	"FILE":      "File sink: `FILE('path', CSV_FORMAT, 'append')`.",
	"UNION":     "Combines two queries. `UNION` keeps duplicates unless written `UNION DISTINCT`.",
}

// getCompletions returns completion items for the given position.
func (s *Server) getCompletions(params CompletionParams) []CompletionItem {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	before := doc.GetTextBefore(params.Position)
	prefix := extractPrefix(before)
	stmt := currentStatement(before[:len(before)-len(prefix)])

	var items []CompletionItem
	if expected, ok := s.expectedAt(stmt); ok {
		items = s.expectedItems(expected, doc)
	} else {
		items = s.keywordItems()
	}
	return filterPrefix(items, prefix)
}

// expectedAt parses text and, when it stops at end of input, returns the
// token kinds the grammar would accept there.
func (s *Server) expectedAt(text string) ([]string, bool) {
	_, err := parser.New(s.dialect).Parse(text)
	var pe *parser.ParseError
	if !errors.As(err, &pe) || pe.Kind != parser.KindSyntax || pe.Found != "end of input" {
		return nil, false
	}
	return pe.Expected, len(pe.Expected) > 0
}

// expectedItems maps an expected set to completions. IDENTIFIER expands to
// the names already used in the document.
func (s *Server) expectedItems(expected []string, doc *Document) []CompletionItem {
	var items []CompletionItem
	wantIdent, wantExpr := false, false
	for _, e := range expected {
		switch e {
		case token.IDENT.String():
			wantIdent = true
		case "expression":
			wantIdent, wantExpr = true, true
		}
	}

	for _, e := range expected {
		t := token.LookupIdent(e)
		if !token.IsKeyword(t) || strings.ToUpper(e) != e {
			continue
		}
		switch {
		case timeUnitDocs[e] != "" && !wantIdent:
			items = append(items, CompletionItem{Label: e, Kind: CompletionItemKindUnit, Detail: timeUnitDocs[e]})
		case aggregates[e].signature != "":
			items = append(items, s.functionItem(e))
		default:
			items = append(items, CompletionItem{Label: e, Kind: CompletionItemKindKeyword})
			if snip, ok := windowSnippets[e]; ok && s.snippets {
				snip.Kind = CompletionItemKindSnippet
				snip.InsertTextFormat = InsertTextFormatSnippet
				items = append(items, snip)
			}
		}
	}

	if wantExpr {
		for _, name := range sortedKeys(aggregates) {
			items = append(items, s.functionItem(name))
		}
	}
	if wantIdent {
		for _, name := range documentNames(doc.Content) {
			items = append(items, CompletionItem{Label: name, Kind: CompletionItemKindVariable, SortText: "0" + name})
		}
	}
	return dedupe(items)
}

// dedupe drops repeated labels of the same kind, keeping the first.
func dedupe(items []CompletionItem) []CompletionItem {
	type key struct {
		label string
		kind  CompletionItemKind
	}
	seen := make(map[key]bool, len(items))
	out := items[:0]
	for _, item := range items {
		k := key{item.Label, item.Kind}
		if !seen[k] {
			seen[k] = true
			out = append(out, item)
		}
	}
	return out
}

// keywordItems is the fallback: every keyword and aggregate.
func (s *Server) keywordItems() []CompletionItem {
	var items []CompletionItem
	for _, kw := range token.Keywords() {
		if _, ok := aggregates[kw]; ok {
			items = append(items, s.functionItem(kw))
			continue
		}
		items = append(items, CompletionItem{Label: kw, Kind: CompletionItemKindKeyword})
	}
	return items
}

func (s *Server) functionItem(name string) CompletionItem {
	fn := aggregates[name]
	item := CompletionItem{
		Label:         name,
		Kind:          CompletionItemKindFunction,
		Detail:        fn.signature,
		Documentation: fn.doc,
	}
	if s.snippets {
		item.InsertText = name + "(${1})"
		item.InsertTextFormat = InsertTextFormatSnippet
	}
	return item
}

// documentNames returns the distinct unquoted identifiers of content, in
// first-use order. Lex errors end the scan.
func documentNames(content string) []string {
	lexer := parser.NewLexer(content)
	seen := make(map[string]bool)
	var names []string
	for {
		tok, err := lexer.NextToken()
		if err != nil || tok.Type == token.EOF {
			return names
		}
		if tok.Type == token.IDENT && !seen[tok.Literal] {
			seen[tok.Literal] = true
			names = append(names, tok.Literal)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func filterPrefix(items []CompletionItem, prefix string) []CompletionItem {
	if prefix == "" {
		return items
	}
	out := items[:0]
	for _, item := range items {
		if len(item.Label) >= len(prefix) && strings.EqualFold(item.Label[:len(prefix)], prefix) {
			out = append(out, item)
		}
	}
	return out
}

// extractPrefix gets the word being typed before the cursor.
func extractPrefix(before string) string {
	start := len(before)
	for start > 0 && isIdentChar(before[start-1]) {
		start--
	}
	return before[start:]
}

// currentStatement returns the text after the last ';' of before.
func currentStatement(before string) string {
	if i := strings.LastIndexByte(before, ';'); i >= 0 {
		return before[i+1:]
	}
	return before
}

// getHover describes the keyword, aggregate or alias under the cursor.
func (s *Server) getHover(params HoverParams) *Hover {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	word, rng := doc.GetWordAtPosition(params.Position)
	if word == "" {
		return nil
	}
	markdown := func(value string) *Hover {
		return &Hover{Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: value}, Range: &rng}
	}

	upper := strings.ToUpper(word)
	if fn, ok := aggregates[upper]; ok {
		return markdown(fmt.Sprintf("**%s** (aggregate)\n\n```sql\n%s\n```\n\n%s", upper, fn.signature, fn.doc))
	}

	if t := token.LookupIdent(word); token.IsKeyword(t) {
		var b strings.Builder
		fmt.Fprintf(&b, "**%s** keyword\n\n", upper)
		if d, ok := keywordDocs[upper]; ok {
			b.WriteString(d + "\n\n")
		} else if unit, ok := timeUnitDocs[upper]; ok {
			b.WriteString("Time unit: " + unit + ".\n\n")
		}
		if s.dialect.IsReserved(t) {
			fmt.Fprintf(&b, "Reserved in dialect `%s`: backquote it to use it as a name.", s.dialect.Name)
		} else {
			fmt.Fprintf(&b, "Non-reserved in dialect `%s`: usable as a name.", s.dialect.Name)
		}
		return markdown(b.String())
	}

	if def := s.findAlias(doc, word); def != nil {
		if def.expr != nil {
			return markdown(fmt.Sprintf("**%s**: alias of `%s`", word, format.Expr(def.expr, format.WithKeywordCase(s.caser))))
		}
		return markdown(fmt.Sprintf("**%s**: relation alias", word))
	}
	return nil
}

// getDefinition jumps from a name to the select-list or relation alias
// that introduces it.
func (s *Server) getDefinition(params DefinitionParams) *Location {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	word, _ := doc.GetWordAtPosition(params.Position)
	if word == "" {
		return nil
	}
	def := s.findAlias(doc, word)
	if def == nil {
		return nil
	}
	return &Location{URI: doc.URI, Range: toRange(def.span.Start, def.span.End)}
}

// aliasDef is a name introduced by AS.
type aliasDef struct {
	span token.Span
	expr parser.Expr // nil for relation aliases
}

// findAlias returns the first alias in doc spelled like name, ignoring case.
func (s *Server) findAlias(doc *Document, name string) *aliasDef {
	stmts, err := parser.New(s.dialect).ParseScript(doc.Content)
	if err != nil {
		return nil
	}

	var defs []aliasDef
	for _, stmt := range stmts {
		for _, ne := range parser.Collect[*parser.NamedExpression](stmt) {
			if ne.Alias != nil && strings.EqualFold(ne.Alias.Text(), name) {
				defs = append(defs, aliasDef{span: ne.Alias.GetSpan(), expr: ne.Expr})
			}
		}
		for _, ta := range parser.Collect[*parser.TableAlias](stmt) {
			if ta.Name != nil && strings.EqualFold(ta.Name.Value, name) {
				defs = append(defs, aliasDef{span: ta.Name.GetSpan()})
			}
		}
	}
	if len(defs) == 0 {
		return nil
	}
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].span.Start.Offset < defs[j].span.Start.Offset })
	return &defs[0]
}
