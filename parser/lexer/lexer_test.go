// Copyright © 2018 The ELPS authors

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pyscope/parser/token"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []*token.Token
	}{
		{``, []*token.Token{
			testToken(token.EOF, ""),
		}},
		{`abc`, []*token.Token{
			testToken(token.NAME, "abc"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{"x = 1\n", []*token.Token{
			testToken(token.NAME, "x"),
			testToken(token.ASSIGN, "="),
			testToken(token.INT, "1"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.EOF, ""),
		}},
		{"if x:\n    y\nz\n", []*token.Token{
			testToken(token.IF, "if"),
			testToken(token.NAME, "x"),
			testToken(token.COLON, ":"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.INDENT, ""),
			testToken(token.NAME, "y"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.DEDENT, ""),
			testToken(token.NAME, "z"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.EOF, ""),
		}},
		{"def f():\n  return 1", []*token.Token{
			testToken(token.DEF, "def"),
			testToken(token.NAME, "f"),
			testToken(token.PAREN_L, "("),
			testToken(token.PAREN_R, ")"),
			testToken(token.COLON, ":"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.INDENT, ""),
			testToken(token.RETURN, "return"),
			testToken(token.INT, "1"),
			testToken(token.NEWLINE, ""),
			testToken(token.DEDENT, ""),
			testToken(token.EOF, ""),
		}},
		{"(a,\n b)\n", []*token.Token{
			testToken(token.PAREN_L, "("),
			testToken(token.NAME, "a"),
			testToken(token.COMMA, ","),
			testToken(token.NAME, "b"),
			testToken(token.PAREN_R, ")"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.EOF, ""),
		}},
		{"x = 1 # c\n\n# only\n", []*token.Token{
			testToken(token.NAME, "x"),
			testToken(token.ASSIGN, "="),
			testToken(token.INT, "1"),
			testToken(token.COMMENT, "# c"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.COMMENT, "# only"),
			testToken(token.EOF, ""),
		}},
		{"x = \\\n  1\n", []*token.Token{
			testToken(token.NAME, "x"),
			testToken(token.ASSIGN, "="),
			testToken(token.INT, "1"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.EOF, ""),
		}},
		{`a **= b // c -> ... != d`, []*token.Token{
			testToken(token.NAME, "a"),
			testToken(token.STARSTAR_EQ, "**="),
			testToken(token.NAME, "b"),
			testToken(token.SLASHSLASH, "//"),
			testToken(token.NAME, "c"),
			testToken(token.ARROW, "->"),
			testToken(token.ELLIPSIS, "..."),
			testToken(token.NEQ, "!="),
			testToken(token.NAME, "d"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{`s = r'\'' + """a
b""" + b"x" + ''`, []*token.Token{
			testToken(token.NAME, "s"),
			testToken(token.ASSIGN, "="),
			testToken(token.STRING, `r'\''`),
			testToken(token.PLUS, "+"),
			testToken(token.STRING, "\"\"\"a\nb\"\"\""),
			testToken(token.PLUS, "+"),
			testToken(token.STRING, `b"x"`),
			testToken(token.PLUS, "+"),
			testToken(token.STRING, `''`),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{`0x1F 1_000 3.14 .5 1e-3 2j`, []*token.Token{
			testToken(token.INT, "0x1F"),
			testToken(token.INT, "1_000"),
			testToken(token.FLOAT, "3.14"),
			testToken(token.FLOAT, ".5"),
			testToken(token.FLOAT, "1e-3"),
			testToken(token.FLOAT, "2j"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{`None True nonlocal print`, []*token.Token{
			testToken(token.NONE, "None"),
			testToken(token.TRUE, "True"),
			testToken(token.NONLOCAL, "nonlocal"),
			testToken(token.NAME, "print"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{`async def f(): await (y := g[1:2])`, []*token.Token{
			testToken(token.ASYNC, "async"),
			testToken(token.DEF, "def"),
			testToken(token.NAME, "f"),
			testToken(token.PAREN_L, "("),
			testToken(token.PAREN_R, ")"),
			testToken(token.COLON, ":"),
			testToken(token.AWAIT, "await"),
			testToken(token.PAREN_L, "("),
			testToken(token.NAME, "y"),
			testToken(token.COLONEQ, ":="),
			testToken(token.NAME, "g"),
			testToken(token.BRACK_L, "["),
			testToken(token.INT, "1"),
			testToken(token.COLON, ":"),
			testToken(token.INT, "2"),
			testToken(token.BRACK_R, "]"),
			testToken(token.PAREN_R, ")"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{`f"a{b!r:>{w}}" rf'{c}'`, []*token.Token{
			testToken(token.STRING, `f"a{b!r:>{w}}"`),
			testToken(token.STRING, `rf'{c}'`),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{`'abc`, []*token.Token{
			testToken(token.ERROR, "unterminated string literal"),
		}},
		{"if x:\n    a\n  b\n", []*token.Token{
			testToken(token.IF, "if"),
			testToken(token.NAME, "x"),
			testToken(token.COLON, ":"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.INDENT, ""),
			testToken(token.NAME, "a"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.DEDENT, ""),
			testToken(token.ERROR, "unindent does not match any outer indentation level"),
		}},
		{"x $ y", []*token.Token{
			testToken(token.NAME, "x"),
			testToken(token.ERROR, `unexpected character '$'`),
		}},
	}
	for i, test := range tests {
		tokens := lexAll(t, test.input)
		for _, tok := range tokens {
			tok.Source = nil
		}
		assert.Equal(t, test.tokens, tokens, "test %d: %q", i, test.input)
	}
}

func TestLexerLocations(t *testing.T) {
	tokens := lexAll(t, "if x:\n\tyé = 1\n")
	require.Len(t, tokens, 11)
	indent := tokens[4]
	require.Equal(t, token.INDENT, indent.Type)
	assert.Equal(t, "test.py:2:2", indent.Source.String())
	name := tokens[5]
	assert.Equal(t, "yé", name.Text)
	assert.Equal(t, 7, name.Source.Pos)
	eq := tokens[6]
	assert.Equal(t, 5, eq.Source.Col)
	assert.Equal(t, 11, eq.Source.Pos)
}

func TestLexerEOFRepeats(t *testing.T) {
	lex := New(token.NewScanner("", []byte("x")))
	var last []*token.Token
	for i := 0; i < 4; i++ {
		last = lex.ReadToken()
	}
	require.NotEmpty(t, last)
	assert.Equal(t, token.EOF, last[len(last)-1].Type)
}

func lexAll(t *testing.T, input string) []*token.Token {
	lex := New(token.NewScanner("test.py", []byte(input)))
	var tokens []*token.Token
	for n := 0; n < 100000; n++ {
		toks := lex.ReadToken()
		require.NotEmpty(t, toks)
		tokens = append(tokens, toks...)
		switch toks[len(toks)-1].Type {
		case token.EOF, token.ERROR:
			return tokens
		}
	}
	t.Fatalf("apparent infinite scanning loop: %q", input)
	return nil
}

func testToken(typ token.Type, text string) *token.Token {
	return &token.Token{
		Type: typ,
		Text: text,
	}
}
