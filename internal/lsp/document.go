package lsp

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// Document represents an open text document in the editor.
type Document struct {
	URI     string // Document URI (file:///path/to/file.sql)
	Content string // Full document content
	Version int    // Version number, incremented on each change
	Lines   []int  // Byte offsets of line starts
}

// DocumentStore manages open documents in memory.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*Document
}

// NewDocumentStore creates a new document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*Document),
	}
}

// Open adds or replaces a document in the store.
func (s *DocumentStore) Open(uri string, content string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[uri] = newDocument(uri, content, version)
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, uri)
}

// Get retrieves a document by URI. The returned document is never mutated,
// so callers may keep it after the store changes.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.documents[uri]
}

// Update replaces an open document's content. Unknown URIs are ignored.
func (s *DocumentStore) Update(uri string, content string, version int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[uri]; !ok {
		return false
	}
	s.documents[uri] = newDocument(uri, content, version)
	return true
}

// Len returns the number of open documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

func newDocument(uri, content string, version int) *Document {
	return &Document{
		URI:     uri,
		Content: content,
		Version: version,
		Lines:   computeLineOffsets(content),
	}
}

// computeLineOffsets calculates byte offsets for each line start.
func computeLineOffsets(content string) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineEnd returns the byte offset of the end of line, before its newline.
func (d *Document) lineEnd(line int) int {
	if line+1 < len(d.Lines) {
		return d.Lines[line+1] - 1
	}
	return len(d.Content)
}

// PositionToOffset converts a Position to a byte offset in the document.
// Characters past the end of a line clamp to the line end.
func (d *Document) PositionToOffset(pos Position) int {
	if d == nil || len(d.Lines) == 0 {
		return 0
	}

	line := int(pos.Line)
	if line >= len(d.Lines) {
		return len(d.Content)
	}

	offset := d.Lines[line]
	end := d.lineEnd(line)
	for n := uint32(0); n < pos.Character && offset < end; n++ {
		_, size := utf8.DecodeRuneInString(d.Content[offset:])
		offset += size
	}
	return offset
}

// OffsetToPosition converts a byte offset to a Position.
func (d *Document) OffsetToPosition(offset int) Position {
	if d == nil || len(d.Lines) == 0 {
		return Position{}
	}
	offset = max(0, min(offset, len(d.Content)))

	line := sort.Search(len(d.Lines), func(i int) bool { return d.Lines[i] > offset }) - 1
	return Position{
		Line:      uint32(line),                                                    //nolint:gosec // G115: line index is non-negative
		Character: uint32(utf8.RuneCountInString(d.Content[d.Lines[line]:offset])), //nolint:gosec // G115: rune count is non-negative
	}
}

// GetTextBefore returns the text before the given position.
func (d *Document) GetTextBefore(pos Position) string {
	offset := d.PositionToOffset(pos)
	if offset <= 0 {
		return ""
	}
	return d.Content[:offset]
}

// GetLine returns the content of a specific line without its newline.
func (d *Document) GetLine(line int) string {
	if d == nil || line < 0 || line >= len(d.Lines) {
		return ""
	}
	return strings.TrimSuffix(d.Content[d.Lines[line]:d.lineEnd(line)], "\r")
}

// GetWordAtPosition returns the word at the given position and its range.
func (d *Document) GetWordAtPosition(pos Position) (string, Range) {
	offset := d.PositionToOffset(pos)

	start := offset
	for start > 0 && isIdentChar(d.Content[start-1]) {
		start--
	}
	end := offset
	for end < len(d.Content) && isIdentChar(d.Content[end]) {
		end++
	}

	if start == end {
		return "", Range{Start: pos, End: pos}
	}
	return d.Content[start:end], Range{
		Start: d.OffsetToPosition(start),
		End:   d.OffsetToPosition(end),
	}
}

// FullRange covers the whole document.
func (d *Document) FullRange() Range {
	return Range{End: d.OffsetToPosition(len(d.Content))}
}

// isIdentChar returns true if the byte can be part of an unquoted identifier.
func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}

// toPosition converts a 1-based parser position. Invalid positions map to
// the document start.
func toPosition(p token.Position) Position {
	return Position{
		Line:      uint32(max(0, p.Line-1)),   //nolint:gosec // G115: clamped to non-negative
		Character: uint32(max(0, p.Column-1)), //nolint:gosec // G115: clamped to non-negative
	}
}

// toRange converts a parser span, widening an empty one by a character.
func toRange(start, end token.Position) Range {
	r := Range{Start: toPosition(start), End: toPosition(end)}
	if !end.IsValid() || r.End == r.Start {
		r.End = Position{Line: r.Start.Line, Character: r.Start.Character + 1}
	}
	return r
}

// URIToPath converts a file:// URI to a file system path.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return u.Path
}

// PathToURI converts a file system path to a file:// URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}
