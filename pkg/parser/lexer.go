package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// Lexer tokenizes NebulaSQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based, in runes)

	inHint bool // between /*+ and */

	// Comments collected during lexing.
	Comments []*token.Comment
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Tokenize returns every token of input, ending with EOF.
func Tokenize(input string) ([]token.Token, error) {
	return NewLexer(input).All()
}

// All lexes the remaining input. The slice always ends with an EOF token
// unless an error is returned.
func (l *Lexer) All() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	prev := byte(0)
	if l.pos < len(l.input) && l.readPos > 0 {
		prev = l.input[l.pos]
	}
	l.pos = l.readPos
	l.readPos++

	switch {
	case prev == '\n':
		l.line++
		l.col = 1
	case l.pos == 0:
		l.col = 1
	case l.ch&0xC0 != 0x80 || l.pos >= len(l.input):
		// UTF-8 continuation bytes share the column of their lead byte.
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	return l.peekAt(1)
}

func (l *Lexer) peekAt(n int) byte {
	i := l.pos + n
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token or a lex error.
func (l *Lexer) NextToken() (token.Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{}, err
	}

	pos := l.currentPos()
	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: pos}, nil
	}

	// Multi-character operators, longest first.
	switch {
	case strings.HasPrefix(l.input[l.pos:], "/*+"):
		l.inHint = true
		return l.operator(token.HINT_START, 3, pos), nil
	case l.inHint && l.ch == '*' && l.peekChar() == '/':
		l.inHint = false
		return l.operator(token.HINT_END, 2, pos), nil
	case strings.HasPrefix(l.input[l.pos:], "<=>"):
		return l.operator(token.NSEQ, 3, pos), nil
	}

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			return l.operator(token.EQ, 2, pos), nil
		}
		return l.operator(token.EQ, 1, pos), nil
	case '<':
		switch l.peekChar() {
		case '=':
			return l.operator(token.LTE, 2, pos), nil
		case '>':
			return l.operator(token.NEQ, 2, pos), nil
		}
		return l.operator(token.LT, 1, pos), nil
	case '>':
		if l.peekChar() == '=' {
			return l.operator(token.GTE, 2, pos), nil
		}
		return l.operator(token.GT, 1, pos), nil
	case '!':
		switch l.peekChar() {
		case '=':
			return l.operator(token.NEQJ, 2, pos), nil
		case '>':
			return l.operator(token.LTE, 2, pos), nil
		case '<':
			return l.operator(token.GTE, 2, pos), nil
		}
	case '|':
		if l.peekChar() == '|' {
			return l.operator(token.CONCAT, 2, pos), nil
		}
		return l.operator(token.PIPE, 1, pos), nil
	case '+':
		return l.operator(token.PLUS, 1, pos), nil
	case '-':
		return l.operator(token.MINUS, 1, pos), nil
	case '*':
		return l.operator(token.ASTERISK, 1, pos), nil
	case '/':
		return l.operator(token.SLASH, 1, pos), nil
	case '%':
		return l.operator(token.PERCENT, 1, pos), nil
	case '~':
		return l.operator(token.TILDE, 1, pos), nil
	case '&':
		return l.operator(token.AMPERSAND, 1, pos), nil
	case '^':
		return l.operator(token.HAT, 1, pos), nil
	case ',':
		return l.operator(token.COMMA, 1, pos), nil
	case '(':
		return l.operator(token.LPAREN, 1, pos), nil
	case ')':
		return l.operator(token.RPAREN, 1, pos), nil
	case ';':
		return l.operator(token.SEMICOLON, 1, pos), nil
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber(pos), nil
		}
		return l.operator(token.DOT, 1, pos), nil
	case '\'', '"':
		return l.readString(pos)
	case '`':
		return l.readQuotedIdentifier(pos)
	}

	switch {
	case isDigit(l.ch):
		return l.readNumber(pos), nil
	case identCharLen(l.input[l.pos:], true) > 0:
		lit := l.readWord()
		return token.Token{Type: token.LookupIdent(lit), Literal: lit, Pos: pos}, nil
	}
	if r, size := utf8.DecodeRuneInString(l.input[l.pos:]); r == utf8.RuneError && size == 1 {
		return token.Token{}, newLexError(pos, ErrInvalidUTF8, l.ch)
	}
	return token.Token{}, newLexError(pos, ErrUnrecognizedChar, l.currentRune())
}

// operator consumes n bytes as a token of type t.
func (l *Lexer) operator(t token.TokenType, n int, pos token.Position) token.Token {
	start := l.pos
	for i := 0; i < n; i++ {
		l.readChar()
	}
	return token.Token{Type: t, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) currentRune() rune {
	for _, r := range l.input[l.pos:] {
		return r
	}
	return 0
}

// skipWhitespaceAndComments skips whitespace and collects comments.
// A /*+ sequence is a hint, not a comment.
func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			l.collectLineComment()
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' && l.peekAt(2) != '+' {
			if err := l.collectBlockComment(); err != nil {
				return err
			}
			continue
		}

		return nil
	}
}

// collectLineComment collects a line comment.
func (l *Lexer) collectLineComment() {
	startPos := l.currentPos()
	startOffset := l.pos

	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind: token.LineComment,
		Text: l.input[startOffset:l.pos],
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
}

// collectBlockComment collects a block comment. Block comments nest.
func (l *Lexer) collectBlockComment() error {
	startPos := l.currentPos()
	startOffset := l.pos

	l.readChar() // skip '/'
	l.readChar() // skip '*'

	depth := 1
	for depth > 0 {
		switch {
		case l.atEOF():
			return newLexError(startPos, ErrUnterminatedComment)
		case l.ch == '/' && l.peekChar() == '*':
			depth++
			l.readChar()
		case l.ch == '*' && l.peekChar() == '/':
			depth--
			l.readChar()
		}
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind: token.BlockComment,
		Text: l.input[startOffset:l.pos],
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
	return nil
}

// readString reads a '...' or "..." literal. A backslash escapes the next
// character. The token literal is the raw text including quotes.
func (l *Lexer) readString(pos token.Position) (token.Token, error) {
	quote := l.ch
	start := l.pos
	l.readChar() // skip opening quote

	for {
		switch {
		case l.atEOF():
			return token.Token{}, newLexError(pos, ErrUnterminatedString)
		case l.ch == '\\':
			l.readChar()
			if l.atEOF() {
				return token.Token{}, newLexError(pos, ErrUnterminatedString)
			}
		case l.ch == quote:
			l.readChar()
			return token.Token{Type: token.STRING, Literal: l.input[start:l.pos], Pos: pos}, nil
		}
		l.readChar()
	}
}

// readQuotedIdentifier reads a backquoted identifier. A doubled backquote escapes one.
func (l *Lexer) readQuotedIdentifier(pos token.Position) (token.Token, error) {
	start := l.pos
	l.readChar() // skip opening backquote

	for {
		switch {
		case l.atEOF():
			return token.Token{}, newLexError(pos, ErrUnterminatedQuoted)
		case l.ch == '`' && l.peekChar() == '`':
			l.readChar()
		case l.ch == '`':
			l.readChar()
			return token.Token{Type: token.BACKQUOTED_IDENT, Literal: l.input[start:l.pos], Pos: pos}, nil
		}
		l.readChar()
	}
}

// readWord reads an unquoted identifier or keyword.
func (l *Lexer) readWord() string {
	start := l.pos
	for !l.atEOF() {
		n := identCharLen(l.input[l.pos:], l.pos == start)
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal. When a run of word characters starting
// at the same offset is longer, the run is an identifier instead (1a, 2x_y).
func (l *Lexer) readNumber(pos token.Position) token.Token {
	start := l.pos
	n, typ := scanNumber(l.input[start:])
	if w := wordLen(l.input[start:]); w > n {
		n, typ = w, token.IDENT
	}
	for i := 0; i < n; i++ {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	if typ == token.IDENT {
		typ = token.LookupIdent(lit)
	}
	return token.Token{Type: typ, Literal: lit, Pos: pos}
}

// scanNumber returns the length and class of the numeric literal at the
// start of s, or 0 if there is none.
func scanNumber(s string) (int, token.TokenType) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := i
	decimal := false
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if intDigits > 0 || j > i+1 {
			decimal = true
			i = j
		}
	}
	if i == 0 {
		return 0, token.IDENT
	}

	exponent := false
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			exponent = true
			i = k
		}
	}

	rest := strings.ToUpper(s[i:min(len(s), i+2)])
	switch {
	case strings.HasPrefix(rest, "BD"):
		return i + 2, token.BIGDECIMAL_LIT
	case strings.HasPrefix(rest, "D"):
		return i + 1, token.DOUBLE_LITERAL
	case strings.HasPrefix(rest, "F"):
		return i + 1, token.FLOAT_LITERAL
	}
	if !decimal && !exponent {
		switch {
		case strings.HasPrefix(rest, "L"):
			return i + 1, token.BIGINT_LITERAL
		case strings.HasPrefix(rest, "S"):
			return i + 1, token.SMALLINT_LITERAL
		case strings.HasPrefix(rest, "Y"):
			return i + 1, token.TINYINT_LITERAL
		}
		return i, token.INTEGER_VALUE
	}
	if exponent {
		return i, token.EXPONENT_VALUE
	}
	return i, token.DECIMAL_VALUE
}

func wordLen(s string) int {
	i := 0
	for i < len(s) {
		n := identCharLen(s[i:], false)
		if n == 0 {
			break
		}
		i += n
	}
	return i
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// identCharLen returns the byte length of the identifier character at the
// start of s, or 0 if there is none. Non-ASCII letters and digits count;
// invalid UTF-8 never does.
func identCharLen(s string, first bool) int {
	if s == "" {
		return 0
	}
	if ch := s[0]; ch < utf8.RuneSelf {
		if isLetter(ch) || ch == '_' || (!first && isDigit(ch)) {
			return 1
		}
		return 0
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size == 1 {
		return 0
	}
	if unicode.IsLetter(r) || (!first && (unicode.IsDigit(r) || unicode.IsMark(r))) {
		return size
	}
	return 0
}
