// Copyright © 2018 The ELPS authors

package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/luthersystems/pyscope/parser/token"
)

// LexFn is a lexer state.  Each state scans zero or more runes and returns
// the tokens produced along the way.
type LexFn func(*Lexer) []*token.Token

const tabWidth = 8

var stringPrefixes = map[string]bool{
	"r": true, "u": true, "b": true, "f": true,
	"br": true, "rb": true, "fr": true, "rf": true,
}

// Lexer converts source text into tokens following python layout rules.
// Indentation changes at the start of logical lines produce INDENT and
// DEDENT tokens, newlines inside brackets are ignored, and blank lines never
// produce NEWLINE tokens.
type Lexer struct {
	scanner *token.Scanner
	lex     LexFn
	indents []int
	depth   int
	last    token.Type
}

// New returns a lexer reading runes from s.
func New(s *token.Scanner) *Lexer {
	return &Lexer{
		scanner: s,
		lex:     (*Lexer).readLineStart,
		indents: []int{0},
		last:    token.NEWLINE,
	}
}

// ReadToken returns the next tokens in the stream.  ReadToken never returns
// an empty slice.  After the EOF token has been returned subsequent calls
// continue to return EOF.
func (lex *Lexer) ReadToken() []*token.Token {
	for {
		toks := lex.lex(lex)
		if len(toks) > 0 {
			if typ := toks[len(toks)-1].Type; typ != token.COMMENT {
				lex.last = typ
			}
			return toks
		}
	}
}

func (lex *Lexer) readLineStart() []*token.Token {
	width := 0
	for indenting := true; indenting; {
		switch lex.peekRune() {
		case ' ':
			width++
		case '\t':
			width = (width/tabWidth + 1) * tabWidth
		case '\f':
			width = 0
		default:
			indenting = false
			continue
		}
		_ = lex.scanner.ScanRune()
	}
	lex.scanner.Ignore()
	switch lex.peekRune() {
	case '#':
		return lex.readComment()
	case '\r', '\n':
		// blank line
		lex.skipNewline()
		lex.scanner.Ignore()
		return nil
	}
	if lex.scanner.EOF() {
		lex.lex = (*Lexer).readToken
		return nil
	}
	lex.lex = (*Lexer).readToken
	top := lex.indents[len(lex.indents)-1]
	switch {
	case width > top:
		lex.indents = append(lex.indents, width)
		return lex.emit(token.INDENT, "")
	case width < top:
		var toks []*token.Token
		for width < lex.indents[len(lex.indents)-1] {
			lex.indents = lex.indents[:len(lex.indents)-1]
			toks = append(toks, lex.emit(token.DEDENT, "")...)
		}
		if width != lex.indents[len(lex.indents)-1] {
			return append(toks, lex.errorf("unindent does not match any outer indentation level")...)
		}
		return toks
	}
	return nil
}

func (lex *Lexer) readToken() []*token.Token {
	lex.skipWhitespace()
	if !lex.scanner.Accept(func(c rune) bool { return true }) {
		if lex.scanner.EOF() {
			return lex.readEOF()
		}
		if err := lex.scanner.Err(); err != nil {
			lex.lex = (*Lexer).readEOF
			return lex.emitError(err, false)
		}
	}
	c := lex.scanner.Rune()
	switch c {
	case '\r', '\n':
		if c == '\r' {
			lex.scanner.AcceptRune('\n')
		}
		if lex.depth > 0 {
			lex.scanner.Ignore()
			return nil
		}
		lex.lex = (*Lexer).readLineStart
		return lex.emitText(token.NEWLINE)
	case '#':
		return lex.readComment()
	case '\\':
		if !lex.skipNewline() {
			return lex.errorf("unexpected character after line continuation character")
		}
		lex.scanner.Ignore()
		return nil
	case '(':
		lex.depth++
		return lex.emitText(token.PAREN_L)
	case '[':
		lex.depth++
		return lex.emitText(token.BRACK_L)
	case '{':
		lex.depth++
		return lex.emitText(token.BRACE_L)
	case ')':
		return lex.closeBracket(token.PAREN_R)
	case ']':
		return lex.closeBracket(token.BRACK_R)
	case '}':
		return lex.closeBracket(token.BRACE_R)
	case ',':
		return lex.emitText(token.COMMA)
	case ';':
		return lex.emitText(token.SEMICOLON)
	case '~':
		return lex.emitText(token.TILDE)
	case ':':
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.COLONEQ)
		}
		return lex.emitText(token.COLON)
	case '@':
		return lex.withEq(token.AT, token.AT)
	case '.':
		if isDigit(lex.peekRune()) {
			return lex.readFloatFraction()
		}
		if lex.peekRune() == '.' {
			if r, _ := lex.scanner.PeekN(1); r == '.' {
				lex.scanner.AcceptSeqRune('.')
				return lex.emitText(token.ELLIPSIS)
			}
		}
		return lex.emitText(token.DOT)
	case '+':
		return lex.withEq(token.PLUS, token.PLUS_EQ)
	case '-':
		if lex.scanner.AcceptRune('>') {
			return lex.emitText(token.ARROW)
		}
		return lex.withEq(token.MINUS, token.MINUS_EQ)
	case '*':
		if lex.scanner.AcceptRune('*') {
			return lex.withEq(token.STARSTAR, token.STARSTAR_EQ)
		}
		return lex.withEq(token.STAR, token.STAR_EQ)
	case '/':
		if lex.scanner.AcceptRune('/') {
			return lex.withEq(token.SLASHSLASH, token.SLASHSLASH_EQ)
		}
		return lex.withEq(token.SLASH, token.SLASH_EQ)
	case '%':
		return lex.withEq(token.PERCENT, token.PERCENT_EQ)
	case '&':
		return lex.withEq(token.AMP, token.AMP_EQ)
	case '|':
		return lex.withEq(token.PIPE, token.PIPE_EQ)
	case '^':
		return lex.withEq(token.CARET, token.XOR_EQ)
	case '<':
		if lex.scanner.AcceptRune('<') {
			return lex.withEq(token.LTLT, token.LTLT_EQ)
		}
		return lex.withEq(token.LT, token.LE)
	case '>':
		if lex.scanner.AcceptRune('>') {
			return lex.withEq(token.GTGT, token.GTGT_EQ)
		}
		return lex.withEq(token.GT, token.GE)
	case '=':
		return lex.withEq(token.ASSIGN, token.EQL)
	case '!':
		if lex.scanner.AcceptRune('=') {
			return lex.emitText(token.NEQ)
		}
		return lex.errorf("unexpected character %q", c)
	case '"', '\'':
		return lex.readString(c)
	}
	if isDigit(c) {
		return lex.readNumber()
	}
	if isWordStart(c) {
		return lex.readName()
	}
	return lex.errorf("unexpected character %q", c)
}

// readEOF terminates the final logical line and closes every open block.
func (lex *Lexer) readEOF() []*token.Token {
	lex.lex = (*Lexer).readEOF
	lex.scanner.Ignore()
	var toks []*token.Token
	switch lex.last {
	case token.NEWLINE, token.INDENT, token.DEDENT, token.EOF:
	default:
		toks = append(toks, lex.emit(token.NEWLINE, "")...)
	}
	for len(lex.indents) > 1 {
		lex.indents = lex.indents[:len(lex.indents)-1]
		toks = append(toks, lex.emit(token.DEDENT, "")...)
	}
	return append(toks, lex.emit(token.EOF, "")...)
}

func (lex *Lexer) readComment() []*token.Token {
	lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' && c != '\r' })
	return lex.emitText(token.COMMENT)
}

func (lex *Lexer) readName() []*token.Token {
	lex.scanner.AcceptSeq(isWord)
	text := lex.scanner.Text()
	if stringPrefixes[strings.ToLower(text)] {
		if q := lex.peekRune(); q == '"' || q == '\'' {
			_ = lex.scanner.ScanRune()
			return lex.readString(q)
		}
	}
	if typ, ok := token.Keyword(text); ok {
		return lex.emitText(typ)
	}
	return lex.emitText(token.NAME)
}

// readString scans the remainder of a string literal whose opening quote q
// has already been scanned.
func (lex *Lexer) readString(q rune) []*token.Token {
	triple := false
	if lex.peekRune() == q {
		if r, _ := lex.scanner.PeekN(1); r == q {
			lex.scanner.AcceptRune(q)
			lex.scanner.AcceptRune(q)
			triple = true
		} else {
			_ = lex.scanner.ScanRune()
			return lex.emitText(token.STRING)
		}
	}
	closing := string(q)
	if triple {
		closing = strings.Repeat(closing, 3)
	}
	for {
		if !triple && (lex.peekRune() == '\n' || lex.peekRune() == '\r') {
			return lex.errorf("unterminated string literal")
		}
		if _, ok := lex.scanner.AcceptString(closing); ok {
			return lex.emitText(token.STRING)
		}
		if !lex.scanner.Accept(func(c rune) bool { return true }) {
			if triple {
				return lex.errorf("unterminated triple-quoted string literal")
			}
			return lex.errorf("unterminated string literal")
		}
		if lex.scanner.Rune() == '\\' {
			// Escapes are validated by consumers; only the quote matters here.
			_ = lex.scanner.ScanRune()
		}
	}
}

func (lex *Lexer) readNumber() []*token.Token {
	if lex.scanner.Rune() == '0' && lex.scanner.AcceptAny("xXoObB") {
		n := lex.scanner.AcceptSeq(func(c rune) bool { return isHexDigit(c) || c == '_' })
		if n == 0 {
			return lex.errorf("invalid integer literal: %v", lex.scanner.Text())
		}
		return lex.emitText(token.INT)
	}
	lex.acceptDigits()
	switch {
	case lex.scanner.AcceptRune('.'):
		return lex.readFloatFraction()
	case lex.scanner.AcceptAny("eE"):
		return lex.readFloatExponent()
	case lex.scanner.AcceptAny("jJ"):
		return lex.emitText(token.FLOAT)
	default:
		return lex.emitText(token.INT)
	}
	// the returned string may not actually be a usable number (overflow), but
	// consumers find that out at parse time -- not scan time.
}

func (lex *Lexer) readFloatFraction() []*token.Token {
	lex.acceptDigits()
	if lex.scanner.AcceptAny("eE") {
		return lex.readFloatExponent()
	}
	lex.scanner.AcceptAny("jJ")
	return lex.emitText(token.FLOAT)
}

func (lex *Lexer) readFloatExponent() []*token.Token {
	lex.scanner.AcceptAny("+-") // optional sign
	if lex.acceptDigits() == 0 {
		return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
	}
	lex.scanner.AcceptAny("jJ")
	return lex.emitText(token.FLOAT)
}

func (lex *Lexer) acceptDigits() int {
	return lex.scanner.AcceptSeq(func(c rune) bool { return isDigit(c) || c == '_' })
}

func (lex *Lexer) closeBracket(typ token.Type) []*token.Token {
	if lex.depth > 0 {
		lex.depth--
	}
	return lex.emitText(typ)
}

func (lex *Lexer) withEq(typ, eqTyp token.Type) []*token.Token {
	if typ != eqTyp && lex.scanner.AcceptRune('=') {
		return lex.emitText(eqTyp)
	}
	return lex.emitText(typ)
}

func (lex *Lexer) emit(typ token.Type, text string) []*token.Token {
	tok := []*token.Token{{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}}
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) emitText(typ token.Type) []*token.Token {
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

func (lex *Lexer) emitError(err error, expectEOF bool) []*token.Token {
	if err == io.EOF {
		if expectEOF {
			return lex.emit(token.EOF, "")
		}
		return lex.emit(token.ERROR, "unexpected EOF")
	}
	return lex.emit(token.ERROR, err.Error())
}

func (lex *Lexer) errorf(format string, v ...interface{}) []*token.Token {
	return lex.emitError(fmt.Errorf(format, v...), false)
}

func (lex *Lexer) skipWhitespace() {
	if lex.scanner.AcceptSeqAny(" \t\f") > 0 {
		lex.scanner.Ignore()
	}
}

// skipNewline scans a single line terminator if one is next.
func (lex *Lexer) skipNewline() bool {
	if lex.scanner.AcceptRune('\r') {
		lex.scanner.AcceptRune('\n')
		return true
	}
	return lex.scanner.AcceptRune('\n')
}

func (lex *Lexer) peekRune() rune {
	r, _ := lex.scanner.Peek()
	return r
}

func isWordStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isWord(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c rune) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
