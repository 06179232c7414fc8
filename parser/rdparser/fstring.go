// Copyright © 2024 The ELPS authors

package rdparser

import (
	"fmt"
	"strings"

	"github.com/luthersystems/pyscope/parser/token"
	"github.com/luthersystems/pyscope/syntax"
)

// fieldSpan is the byte range of a replacement field expression within the
// text of a string literal token.
type fieldSpan struct {
	start, end int
}

// isFormatted reports whether the string literal text has an f prefix.
func isFormatted(text string) bool {
	q := strings.IndexAny(text, `'"`)
	return q > 0 && strings.ContainsAny(text[:q], "fF")
}

// formatFields locates the expressions of the replacement fields of the
// formatted string literal text, including fields nested in format specs.
// Offsets in errors are relative to text.
func formatFields(text string) ([]fieldSpan, int, error) {
	q := strings.IndexAny(text, `'"`)
	raw := strings.ContainsAny(text[:q], "rR")
	quote := 1
	if strings.HasPrefix(text[q:], strings.Repeat(text[q:q+1], 3)) && len(text)-q >= 6 {
		quote = 3
	}
	end := len(text) - quote
	var spans []fieldSpan
	for i := q + quote; i < end; {
		switch c := text[i]; {
		case c == '\\' && !raw:
			if strings.HasPrefix(text[i:], `\N{`) {
				j := strings.IndexByte(text[i:end], '}')
				if j < 0 {
					return nil, i, fmt.Errorf("malformed \\N character escape")
				}
				i += j + 1
				continue
			}
			i++
			if i < end && text[i] != '{' && text[i] != '}' {
				i++
			}
		case c == '{' && i+1 < end && text[i+1] == '{':
			i += 2
		case c == '{':
			next, err := scanField(text, i+1, end, &spans)
			if err != nil {
				return nil, i, err
			}
			i = next
		case c == '}' && i+1 < end && text[i+1] == '}':
			i += 2
		case c == '}':
			return nil, i, fmt.Errorf("f-string: single '}' is not allowed")
		default:
			i++
		}
	}
	return spans, 0, nil
}

// scanField scans one replacement field whose expression starts at start,
// just beyond its opening brace.  It returns the offset following the
// closing brace.
func scanField(text string, start, end int, spans *[]fieldSpan) (int, error) {
	depth := 0
	for i := start; i < end; i++ {
		c := text[i]
		switch {
		case c == '\'' || c == '"':
			j := skipQuoted(text, i, end)
			if j < 0 {
				return 0, fmt.Errorf("f-string: unterminated string")
			}
			i = j - 1
		case c == '(' || c == '[' || c == '{':
			depth++
		case depth > 0 && (c == ')' || c == ']' || c == '}'):
			depth--
		case depth > 0:
		case c == '}' || c == ':' || (c == '!' && (i+1 >= end || text[i+1] != '=')):
			exprEnd := trimSelfDocumenting(text, start, i)
			if strings.TrimSpace(text[start:exprEnd]) == "" {
				return 0, fmt.Errorf("f-string: empty expression not allowed")
			}
			*spans = append(*spans, fieldSpan{start, exprEnd})
			return scanFieldTail(text, i, end, spans)
		}
	}
	return 0, fmt.Errorf("f-string: expecting '}'")
}

// scanFieldTail scans the conversion and format spec following a field
// expression, starting at the '!', ':' or '}' that ended it.
func scanFieldTail(text string, i, end int, spans *[]fieldSpan) (int, error) {
	if text[i] == '!' {
		i += 2
	}
	if i < end && text[i] == ':' {
		i++
		for i < end && text[i] != '}' {
			if text[i] != '{' {
				i++
				continue
			}
			next, err := scanField(text, i+1, end, spans)
			if err != nil {
				return 0, err
			}
			i = next
		}
	}
	if i >= end || text[i] != '}' {
		return 0, fmt.Errorf("f-string: expecting '}'")
	}
	return i + 1, nil
}

// skipQuoted returns the offset just beyond the string starting at text[i],
// or -1 if it is not terminated before end.
func skipQuoted(text string, i, end int) int {
	closing := text[i : i+1]
	if strings.HasPrefix(text[i:end], strings.Repeat(closing, 3)) {
		closing = strings.Repeat(closing, 3)
	}
	j := strings.Index(text[i+len(closing):end], closing)
	if j < 0 {
		return -1
	}
	return i + len(closing) + j + len(closing)
}

// trimSelfDocumenting drops the trailing '=' of a field such as {x=}.
func trimSelfDocumenting(text string, start, end int) int {
	expr := strings.TrimRight(text[start:end], " \t\r\n")
	if n := len(expr); n > 0 && expr[n-1] == '=' {
		if n == 1 || !strings.ContainsRune("=!<>", rune(expr[n-2])) {
			return start + n - 1
		}
	}
	return end
}

// parseFormatFields parses the replacement field expressions of the
// formatted string literal tok.
func (p *Parser) parseFormatFields(tok *token.Token) []syntax.Expr {
	spans, offset, err := formatFields(tok.Text)
	if err != nil {
		p.errorf(tok.Source.Advance(tok.Text[:offset]), "%v", err)
	}
	buf := p.buf
	if buf == nil {
		buf = append(make([]byte, tok.Source.Pos), tok.Text...)
	}
	fields := make([]syntax.Expr, 0, len(spans))
	for _, span := range spans {
		// start at the opening brace so the lexer ignores line breaks
		lbrace := tok.Source.Advance(tok.Text[:span.start-1])
		end := tok.Source.Pos + span.end
		sub := &Parser{
			src:  NewTokenSource(token.NewScannerAt(buf[:end], lbrace)),
			buf:  buf,
			file: p.file,
		}
		sub.expect(token.BRACE_L)
		x := sub.parseTestListStarExpr()
		sub.skipNewlines()
		sub.expect(token.EOF)
		fields = append(fields, x)
	}
	return fields
}
