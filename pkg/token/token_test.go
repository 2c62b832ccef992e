package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{"select", SELECT},
		{"SeLeCt", SELECT},
		{"tumbling", TUMBLING},
		{"csv_format", CSV_FORMAT},
		{"orders", IDENT},
		{"_tmp", IDENT},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.input))
		})
	}
}

func TestEveryKeywordHasText(t *testing.T) {
	for tt := ADVANCE; tt < maxToken; tt++ {
		text, ok := keywordText[tt]
		assert.True(t, ok, "keyword %d has no spelling", tt)
		assert.Equal(t, tt, LookupIdent(text))
	}
	assert.Len(t, Keywords(), int(maxToken-ADVANCE))
}

func TestTokenTypeClasses(t *testing.T) {
	assert.True(t, IsKeyword(WINDOW))
	assert.False(t, IsKeyword(IDENT))
	assert.True(t, IsOperator(LPAREN))
	assert.False(t, IsOperator(SELECT))
	assert.True(t, IsNumber(BIGDECIMAL_LIT))
	assert.False(t, IsNumber(STRING))
	assert.True(t, IsComparison(NSEQ))
	assert.False(t, IsComparison(PLUS))
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{Token{Type: EOF}, "end of input"},
		{Token{Type: IDENT, Literal: "a"}, "IDENTIFIER a"},
		{Token{Type: INTEGER_VALUE, Literal: "10"}, "INTEGER_VALUE 10"},
		{Token{Type: SELECT, Literal: "select"}, "'select'"},
		{Token{Type: COMMA, Literal: ","}, "','"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tok.String())
	}

	assert.Equal(t, "'('", LPAREN.String())
	assert.Equal(t, "WINDOW", WINDOW.String())
}

func TestTokenEnd(t *testing.T) {
	tok := Token{Type: STRING, Literal: "'é'", Pos: Position{Line: 1, Column: 3, Offset: 2}}
	assert.Equal(t, Position{Line: 1, Column: 6, Offset: 6}, tok.End())
	assert.True(t, tok.Span().Contains(5))
	assert.False(t, tok.Span().Contains(6))
}

func TestPositionString(t *testing.T) {
	assert.Equal(t, "3:7", Position{Line: 3, Column: 7}.String())
	assert.Equal(t, "-", Position{}.String())
}
