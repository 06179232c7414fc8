// Copyright © 2024 The ELPS authors

package workspace

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParsePosition parses a cursor position of the form LINE:COL.  Both
// numbers are 1-based and columns count runes.
func ParsePosition(s string) (line, col int, err error) {
	ls, cs, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid position %q: want LINE:COL", s)
	}
	line, err = strconv.Atoi(ls)
	if err != nil || line < 1 {
		return 0, 0, fmt.Errorf("invalid line in position %q", s)
	}
	col, err = strconv.Atoi(cs)
	if err != nil || col < 1 {
		return 0, 0, fmt.Errorf("invalid column in position %q", s)
	}
	return line, col, nil
}

// Offset converts a 1-based line and rune column into a byte offset in src.
// The column just past the end of a line is accepted.
func Offset(src []byte, line, col int) (int, error) {
	offset := 0
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(src[offset:], '\n')
		if i < 0 {
			return 0, fmt.Errorf("line %d out of range", line)
		}
		offset += i + 1
	}
	for c := 1; c < col; c++ {
		if offset >= len(src) || src[offset] == '\n' {
			return 0, fmt.Errorf("column %d out of range on line %d", col, line)
		}
		_, size := utf8.DecodeRune(src[offset:])
		offset += size
	}
	return offset, nil
}
