package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/tinyjs/pkg/token"
)

func TestNextTokenPunctuators(t *testing.T) {
	input := `( ) { } [ ] ; , . : ?`
	want := []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.SEMI, token.COMMA,
		token.DOT, token.COLON, token.QUESTION, token.EOF,
	}

	l := New(1, input)
	for i, kind := range want {
		tok := l.NextToken()
		assert.Equalf(t, kind, tok.Kind, "token %d", i)
	}
}

func TestNextTokenOperators(t *testing.T) {
	input := `+ - * / % ! < > <= >= === !== && || ++ --`
	want := []token.Kind{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.BANG, token.LT, token.GT, token.LE, token.GE,
		token.EQ, token.NEQ, token.AND, token.OR, token.INC, token.DEC,
		token.EOF,
	}

	l := New(1, input)
	for i, kind := range want {
		tok := l.NextToken()
		assert.Equalf(t, kind, tok.Kind, "token %d", i)
	}
}

func TestNextTokenKeywordsVsIdentifiers(t *testing.T) {
	input := `var function foo return bar`
	l := New(1, input)

	tok := l.NextToken()
	assert.Equal(t, token.VAR, tok.Kind)
	tok = l.NextToken()
	assert.Equal(t, token.FUNCTION, tok.Kind)
	tok = l.NextToken()
	assert.Equal(t, token.IDENT, tok.Kind)
	assert.Equal(t, "foo", tok.Literal)
	tok = l.NextToken()
	assert.Equal(t, token.RETURN, tok.Kind)
	tok = l.NextToken()
	assert.Equal(t, token.IDENT, tok.Kind)
	assert.Equal(t, "bar", tok.Literal)
}

func TestNextTokenNumberAndString(t *testing.T) {
	input := `42 3.14 "hello"`
	l := New(1, input)

	tok := l.NextToken()
	assert.Equal(t, token.NUMBER, tok.Kind)
	assert.Equal(t, "42", tok.Literal)

	tok = l.NextToken()
	assert.Equal(t, token.NUMBER, tok.Kind)
	assert.Equal(t, "3.14", tok.Literal)

	tok = l.NextToken()
	assert.Equal(t, token.STRING, tok.Kind)
	assert.Equal(t, "hello", tok.Literal)
}

func TestNextTokenTracksLineAndColumn(t *testing.T) {
	input := "a\nb"
	l := New(7, input)

	first := l.NextToken()
	assert.Equal(t, 7, first.Pos.SourceID)
	assert.Equal(t, 1, first.Pos.Line)

	second := l.NextToken()
	assert.Equal(t, 2, second.Pos.Line)
}
