package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(src string) []TokenType {
	l := New(src, "test.tsx")
	var out []TokenType
	for {
		tok := l.NextToken()
		out = append(out, tok.Type)
		if tok.Type == EOF {
			break
		}
	}
	return out
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	types := tokenTypes("let count = $state(0);")
	want := []TokenType{LET, IDENT, ASSIGN, IDENT, LPAREN, NUMBER, RPAREN, SEMICOLON, EOF}
	require.Equal(t, want, types)
	assert.Equal(t, LET, types[0])
	assert.Equal(t, IDENT, types[1]) // count
	assert.Equal(t, IDENT, types[3]) // $state is a plain identifier at the lexer level
}

func TestLexerCompoundOperators(t *testing.T) {
	l := New("count += 1; count++; a === b; a ?? b; a?.b", "t")
	var lits []string
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		lits = append(lits, tok.Literal)
	}
	assert.Contains(t, lits, "+=")
	assert.Contains(t, lits, "++")
	assert.Contains(t, lits, "===")
	assert.Contains(t, lits, "??")
	assert.Contains(t, lits, "?.")
}

func TestLexerDivisionVsRegex(t *testing.T) {
	// after an identifier, `/` is division
	l := New("a / b", "t")
	assert.Equal(t, IDENT, l.NextToken().Type)
	assert.Equal(t, SLASH, l.NextToken().Type)

	// at the start of an expression, `/.../ ` is a regex literal
	l2 := New("= /abc/g", "t")
	assert.Equal(t, ASSIGN, l2.NextToken().Type)
	tok := l2.NextToken()
	assert.Equal(t, REGEX, tok.Type)
	assert.Equal(t, "/abc/g", tok.Literal)
}

func TestLexerTemplateLiteralWithInterpolation(t *testing.T) {
	l := New("`hello ${name}!`", "t")
	tok := l.NextToken()
	require.Equal(t, TEMPLATE_STRING, tok.Type)
	assert.Equal(t, "`hello ${name}!`", tok.Literal)
}

func TestLexerBigIntLiteral(t *testing.T) {
	l := New("100n", "t")
	tok := l.NextToken()
	assert.Equal(t, BIGINT, tok.Type)
	assert.Equal(t, "100n", tok.Literal)
}

func TestLexerLineColumnTracking(t *testing.T) {
	l := New("let a = 1;\nlet b = 2;", "t")
	var last Token
	for i := 0; i < 6; i++ {
		last = l.NextToken()
	}
	assert.Equal(t, 2, last.Line)
}
