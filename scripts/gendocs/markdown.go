package main

import (
	"bytes"
	"fmt"
	"strings"
)

// generatedHeader marks files (or sections) written by this generator.
const generatedHeader = "<!-- Code generated by gendocs. DO NOT EDIT. -->"

// MarkdownWriter accumulates a markdown document.
type MarkdownWriter struct {
	buf bytes.Buffer
}

// NewMarkdownWriter returns an empty writer.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Frontmatter writes a YAML front matter block.
func (w *MarkdownWriter) Frontmatter(title, description string) {
	w.Line("---")
	w.Line("title: " + quoteYAML(title))
	w.Line("description: " + quoteYAML(description))
	w.Line("---")
	w.Newline()
}

// GeneratedMarker writes the generated-file comment.
func (w *MarkdownWriter) GeneratedMarker() {
	w.Line(generatedHeader)
	w.Newline()
}

// Header writes a header of the given level.
func (w *MarkdownWriter) Header(level int, text string) {
	w.Line(strings.Repeat("#", level) + " " + text)
	w.Newline()
}

// Paragraph writes text followed by a blank line.
func (w *MarkdownWriter) Paragraph(text string) {
	w.Line(strings.TrimSpace(text))
	w.Newline()
}

// CodeBlock writes a fenced code block.
func (w *MarkdownWriter) CodeBlock(lang, code string) {
	w.Line("```" + lang)
	w.Line(strings.TrimRight(code, "\n"))
	w.Line("```")
	w.Newline()
}

// BulletList writes one bullet per item.
func (w *MarkdownWriter) BulletList(items []string) {
	for _, item := range items {
		w.Line("- " + item)
	}
	w.Newline()
}

// Table writes a pipe table. Pipes inside cells are escaped.
func (w *MarkdownWriter) Table(headers []string, rows [][]string) {
	w.Line("| " + strings.Join(escapeCells(headers), " | ") + " |")
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	w.Line("| " + strings.Join(sep, " | ") + " |")
	for _, row := range rows {
		w.Line("| " + strings.Join(escapeCells(row), " | ") + " |")
	}
	w.Newline()
}

// Line writes s and a newline.
func (w *MarkdownWriter) Line(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

// Newline writes a blank line.
func (w *MarkdownWriter) Newline() {
	w.buf.WriteByte('\n')
}

// Text writes s verbatim.
func (w *MarkdownWriter) Text(s string) {
	w.buf.WriteString(s)
}

// String returns the document.
func (w *MarkdownWriter) String() string {
	return w.buf.String()
}

// Bytes returns the document.
func (w *MarkdownWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// InlineCode wraps s in backticks.
func InlineCode(s string) string {
	return "`" + s + "`"
}

// Bold wraps s in double asterisks.
func Bold(s string) string {
	return "**" + s + "**"
}

// cleanDescription joins a multi-line description into one line.
func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(cleanDescription(c), "|", `\|`)
	}
	return out
}

func quoteYAML(s string) string {
	return fmt.Sprintf("%q", s)
}
