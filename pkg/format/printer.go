// Package format prints NebulaSQL ASTs back to canonical SQL and to
// inspectable trees.
package format

import (
	"bytes"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/nebulasql/pkg/token"
)

const indentSize = 2

// KeywordCase selects how keywords are spelled in the output.
type KeywordCase int

// Keyword cases.
const (
	Upper KeywordCase = iota
	Lower
)

// ParseKeywordCase maps "upper" or "lower" to a KeywordCase.
func ParseKeywordCase(s string) (KeywordCase, bool) {
	switch strings.ToLower(s) {
	case "", "upper":
		return Upper, true
	case "lower":
		return Lower, true
	}
	return Upper, false
}

func (c KeywordCase) String() string {
	if c == Lower {
		return "lower"
	}
	return "upper"
}

// Option configures a Printer.
type Option func(*Printer)

// WithKeywordCase sets the keyword spelling.
func WithKeywordCase(c KeywordCase) Option {
	return func(p *Printer) {
		if c == Lower {
			p.caser = cases.Lower(language.Und)
		} else {
			p.caser = cases.Upper(language.Und)
		}
	}
}

// WithComments prints comments collected by the lexer around the statement.
// Comments that start before the statement lead it; the rest trail it.
func WithComments(comments []*token.Comment) Option {
	return func(p *Printer) {
		p.comments = comments
	}
}

// Compact prints everything on one line.
func Compact() Option {
	return func(p *Printer) {
		p.compact = true
	}
}

func terminated() Option {
	return func(p *Printer) {
		p.terminate = true
	}
}

// Printer handles SQL formatting with proper indentation and style.
type Printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
	compact     bool
	pendingNL   bool // compact mode: a line break was requested
	caser       cases.Caser
	comments    []*token.Comment
	terminate   bool // end statements with ';'
}

func newPrinter(opts ...Option) *Printer {
	p := &Printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
		caser:       cases.Upper(language.Und),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// String returns the formatted output.
func (p *Printer) String() string {
	if p.compact {
		return strings.TrimSpace(p.output.String())
	}
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

func (p *Printer) write(s string) {
	if s == "" {
		return
	}
	if p.compact {
		if p.pendingNL {
			p.pendingNL = false
			if p.output.Len() > 0 && !strings.HasPrefix(s, ")") && !strings.HasPrefix(s, ",") && !p.endsWith('(') {
				p.output.WriteByte(' ')
			}
		}
		p.output.WriteString(s)
		return
	}
	if p.atLineStart && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *Printer) endsWith(b byte) bool {
	buf := p.output.Bytes()
	return len(buf) > 0 && buf[len(buf)-1] == b
}

func (p *Printer) writeln() {
	if p.compact {
		p.pendingNL = true
		return
	}
	p.output.WriteByte('\n')
	p.atLineStart = true
}

// semicolon ends the current statement, joining the last line.
func (p *Printer) semicolon() {
	p.pendingNL = false
	if p.endsWith('\n') {
		p.output.Truncate(p.output.Len() - 1)
		p.atLineStart = false
	}
	p.write(";")
	p.writeln()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) space() {
	p.write(" ")
}

// kw prints keywords in the configured case, separated by spaces.
func (p *Printer) kw(tokens ...token.TokenType) {
	for i, t := range tokens {
		if i > 0 {
			p.space()
		}
		p.write(p.caser.String(t.String()))
	}
}

// keyword prints free text in keyword case.
func (p *Printer) keyword(s string) {
	p.write(p.caser.String(s))
}

// formatList prints a list of items with separators.
// count is the number of items, format is called for each index,
// sep is the separator string, multiline adds newlines after separators.
func (p *Printer) formatList(count int, format func(i int), sep string, multiline bool) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
			if multiline {
				p.writeln()
			}
		}
	}
}

// block prints a keyword line followed by an indented body.
func (p *Printer) block(body func(), kws ...token.TokenType) {
	p.kw(kws...)
	p.writeln()
	p.indent()
	body()
	p.dedent()
	p.writeln()
}
