// Copyright © 2018 The ELPS authors

package token

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	used := make(map[string]bool)
	for tok := Type(0); tok < numTokenTypes; tok++ {
		str := tok.String()
		if str == "" {
			t.Errorf("token type %x has empty string value", tok)
			continue
		}
		if used[str] {
			t.Errorf("token type string used twice: %v", tok)
		}
		used[str] = true
	}
	assert.Equal(t, "invalid", numTokenTypes.String())
}

func TestKeyword(t *testing.T) {
	typ, ok := Keyword("nonlocal")
	assert.True(t, ok)
	assert.Equal(t, NONLOCAL, typ)
	assert.True(t, typ.IsKeyword())

	typ, ok = Keyword("await")
	assert.True(t, ok)
	assert.Equal(t, AWAIT, typ)
	assert.True(t, ASYNC.IsKeyword())
	assert.False(t, COLONEQ.IsAssignOp())

	_, ok = Keyword("print")
	assert.False(t, ok)
	assert.False(t, NAME.IsKeyword())
	assert.True(t, ASSIGN.IsAssignOp())
	assert.True(t, XOR_EQ.IsAssignOp())
	assert.False(t, EQL.IsAssignOp())
}

func TestLocationAdvance(t *testing.T) {
	loc := &Location{File: "f", Pos: 4, Line: 2, Col: 3}
	end := loc.Advance("abc")
	assert.Equal(t, "f:2:6", end.String())
	assert.Equal(t, 7, end.Pos)

	end = loc.Advance("'''a\nbé")
	assert.Equal(t, 3, end.Line)
	assert.Equal(t, 3, end.Col)
	assert.Equal(t, 4+len("'''a\nbé"), end.Pos)

	// the receiver is never modified
	assert.Equal(t, "f:2:3", loc.String())
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "f", (&Location{File: "f", Pos: -1}).String())
	assert.Equal(t, "f[12]", (&Location{File: "f", Pos: 12}).String())
	assert.Equal(t, "f:3", (&Location{File: "f", Line: 3}).String())
}

func TestLocationError(t *testing.T) {
	err := &LocationError{Err: io.ErrUnexpectedEOF, Source: &Location{File: "a.py", Line: 1, Col: 2}}
	assert.Equal(t, "a.py:1:2: unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}
