// Copyright © 2018 The ELPS authors

package token

import (
	"io"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerEOF(t *testing.T) {
	s := NewScanner("", []byte(strings.Repeat("x", 10)))
	s.AcceptSeq(func(c rune) bool { return true })
	s.Ignore()
	if s.Accept(func(c rune) bool { return true }) {
		t.Fatal("not EOF")
	}
	if !s.EOF() {
		t.Fatal("not EOF")
	}
	assert.Equal(t, io.EOF, s.ScanRune())
	assert.NoError(t, s.Err())
}

func TestScanner(t *testing.T) {
	s := NewScanner("", []byte(strings.Repeat("x", 30)))

	var tokens []*Token
	for _, n := range []int{10, 7, 10} {
		for i := 0; i < n; i++ {
			require.NoError(t, s.ScanRune())
		}
		tokens = append(tokens, s.EmitToken(NAME))
	}

	assert.Equal(t, 27, s.Loc().Pos)
	assert.Equal(t, "xxxxxxxxxx", tokens[0].Text)
	assert.Equal(t, 0, tokens[0].Source.Pos)
	assert.Equal(t, "xxxxxxx", tokens[1].Text)
	assert.Equal(t, 10, tokens[1].Source.Pos)
	assert.Equal(t, "xxxxxxxxxx", tokens[2].Text)
	assert.Equal(t, 17, tokens[2].Source.Pos)
	assert.Equal(t, 'x', s.Rune())
}

func TestScannerLoc(t *testing.T) {
	s := NewScanner("test", []byte(strings.Repeat("123456789\n", 3)))

	var tokens []*Token
	for _, n := range []int{10, 10, 5, 5} {
		for i := 0; i < n; i++ {
			require.NoError(t, s.ScanRune())
		}
		tokens = append(tokens, s.EmitToken(INT))
	}

	assert.Equal(t, 0, tokens[0].Source.Pos)
	assert.Equal(t, 10, tokens[1].Source.Pos)
	assert.Equal(t, 20, tokens[2].Source.Pos)
	assert.Equal(t, 25, tokens[3].Source.Pos)
	assert.Equal(t, "test:1:1", tokens[0].Source.String())
	assert.Equal(t, "test:2:1", tokens[1].Source.String())
	assert.Equal(t, "test:3:1", tokens[2].Source.String())
	assert.Equal(t, "test:3:6", tokens[3].Source.String())
	assert.Equal(t, "test:4:1", s.Loc().String())
}

func TestScannerAt(t *testing.T) {
	src := []byte("ab\ncd{x}")
	s := NewScannerAt(src[:7], &Location{File: "test", Pos: 5, Line: 2, Col: 3})
	require.NoError(t, s.ScanRune())
	brace := s.EmitToken(BRACE_L)
	assert.Equal(t, "{", brace.Text)
	assert.Equal(t, "test:2:3", brace.Source.String())
	require.NoError(t, s.ScanRune())
	x := s.EmitToken(NAME)
	assert.Equal(t, "x", x.Text)
	assert.Equal(t, 6, x.Source.Pos)
	assert.Equal(t, 4, x.Source.Col)
	assert.True(t, s.EOF())
}

func TestScannerUnicodeColumns(t *testing.T) {
	s := NewScanner("u", []byte("héllo = 1"))
	n := s.AcceptSeq(func(c rune) bool { return unicode.IsLetter(c) })
	assert.Equal(t, 5, n)
	tok := s.EmitToken(NAME)
	assert.Equal(t, "héllo", tok.Text)
	assert.Equal(t, 6, tok.End().Pos)
	assert.Equal(t, 6, tok.End().Col)
	assert.Equal(t, 6, s.LocStart().Col)
}

func TestScannerAccept(t *testing.T) {
	s := NewScanner("", []byte("**=abc 0123"))
	assert.True(t, s.AcceptRune('*'))
	r, ok := s.Peek()
	assert.True(t, ok)
	assert.Equal(t, '*', r)
	r, ok = s.PeekN(1)
	assert.True(t, ok)
	assert.Equal(t, '=', r)
	assert.Equal(t, 2, s.AcceptSeqAny("*="))
	assert.Equal(t, "**=", s.EmitToken(STARSTAR_EQ).Text)

	n, ok := s.AcceptString("abd")
	assert.False(t, ok)
	assert.Equal(t, 2, n)
	assert.True(t, s.AcceptRune('c'))
	assert.Equal(t, 1, s.AcceptSeqRune(' '))
	s.Ignore()
	assert.Equal(t, 4, s.AcceptSeqDigit())
	assert.Equal(t, "0123", s.EmitToken(INT).Text)
	_, ok = s.PeekN(3)
	assert.False(t, ok)
}

func TestScannerInvalidUTF8(t *testing.T) {
	s := NewScanner("bad", []byte{'a', 0xff, 'b'})
	require.NoError(t, s.ScanRune())
	_, ok := s.Peek()
	assert.False(t, ok)
	assert.Error(t, s.ScanRune())
	assert.Error(t, s.Err())
	assert.False(t, s.EOF())
}

func TestReadScanner(t *testing.T) {
	s, err := ReadScanner("r", strings.NewReader("a\nb"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a\nb"), s.Source())
}
