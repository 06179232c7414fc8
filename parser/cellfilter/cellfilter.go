// Copyright © 2024 The ELPS authors

// Package cellfilter removes interactive shell annotations from notebook
// cells so that the remaining source can be parsed as ordinary python.
//
// Line magics (%time), cell magics (%%bash) and shell escapes (!ls) are
// replaced in place.  The replacement has exactly the same length as the
// original line so byte offsets, line numbers and the columns of every token
// outside annotation lines are preserved.
package cellfilter

import "bytes"

// Filter returns a copy of src with every annotation line replaced by the
// expression statement "0" followed by spaces.  The indentation of the
// annotation line is kept so that a block containing only annotations still
// parses.  Cell markers such as "#%%" are comments and are left untouched.
func Filter(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	forEachMagic(out, func(line []byte) {
		line[0] = '0'
		for i := 1; i < len(line); i++ {
			line[i] = ' '
		}
	})
	return out
}

// HasMagics reports whether Filter would change src.
func HasMagics(src []byte) bool {
	found := false
	forEachMagic(src, func([]byte) { found = true })
	return found
}

// forEachMagic calls fn with the annotation portion of each annotation line,
// from the first non-blank byte up to (not including) the line terminator.
func forEachMagic(src []byte, fn func(line []byte)) {
	for len(src) > 0 {
		end := bytes.IndexByte(src, '\n')
		next := end + 1
		if end < 0 {
			end = len(src)
			next = len(src)
		}
		line := bytes.TrimRight(src[:end], "\r")
		body := bytes.TrimLeft(line, " \t\f")
		if len(body) > 0 && (body[0] == '%' || body[0] == '!') {
			fn(line[len(line)-len(body):])
		}
		src = src[next:]
	}
}
