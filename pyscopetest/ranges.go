// Copyright © 2024 The ELPS authors

/*
Package pyscopetest provides helpers for testing the resolver against
fixtures.

Expected occurrences are written as range specs, a comma separated list of
0-based row:column pairs with an optional site tag:

	spec  := range (',' range)*
	range := pos pos tag?
	pos   := /[0-9]+/ ':' /[0-9]+/
	tag   := /[a-z]+/
*/
package pyscopetest

import (
	"fmt"
	"strconv"
	"strings"

	parsec "github.com/prataprc/goparsec"

	"github.com/luthersystems/pyscope/analysis"
)

// Range is a 0-based source range with an optional occurrence tag ("mut"
// or "decl").
type Range struct {
	StartRow, StartCol int
	EndRow, EndCol     int
	Tag                string
}

func (r Range) String() string {
	s := fmt.Sprintf("%d:%d %d:%d", r.StartRow, r.StartCol, r.EndRow, r.EndCol)
	if r.Tag != "" {
		s += " " + r.Tag
	}
	return s
}

// FormatRanges renders ranges in spec form.
func FormatRanges(ranges []Range) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// OccurrenceRanges converts occurrences to ranges.
func OccurrenceRanges(occs []*analysis.Occurrence) []Range {
	ranges := make([]Range, 0, len(occs))
	for _, o := range occs {
		start, end := o.Start(), o.End()
		ranges = append(ranges, Range{
			StartRow: start.Line - 1,
			StartCol: start.Col - 1,
			EndRow:   end.Line - 1,
			EndCol:   end.Col - 1,
			Tag:      o.Site.Tag(),
		})
	}
	return ranges
}

// ParseRanges parses a range spec.  The empty spec yields no ranges.
func ParseRanges(spec string) ([]Range, error) {
	if strings.TrimSpace(spec) == "" {
		return []Range{}, nil
	}
	s := parsec.NewScanner([]byte(spec))
	root, s := newRangeParser()(s)
	_, s = s.SkipWS()
	if root == nil || !s.Endof() {
		return nil, fmt.Errorf("invalid range spec at offset %d: %q", s.GetCursor(), spec)
	}
	nodes, ok := root.([]parsec.ParsecNode)
	if !ok {
		return nil, fmt.Errorf("invalid range spec: %q", spec)
	}
	ranges := make([]Range, 0, len(nodes))
	for _, n := range nodes {
		r, ok := n.(Range)
		if !ok {
			return nil, fmt.Errorf("invalid range spec: %q", spec)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func newRangeParser() parsec.Parser {
	number := parsec.Token(`[0-9]+`, "NUMBER")
	colon := parsec.Atom(":", "COLON")
	comma := parsec.Atom(",", "COMMA")
	tag := parsec.Token(`[a-z]+`, "TAG")
	pos := parsec.And(nil, number, colon, number)
	rng := parsec.And(nodifyRange, pos, pos, parsec.Maybe(nil, tag))
	return parsec.Kleene(nil, rng, comma)
}

func nodifyRange(nodes []parsec.ParsecNode) parsec.ParsecNode {
	start := positionOf(nodes[0])
	end := positionOf(nodes[1])
	r := Range{StartRow: start[0], StartCol: start[1], EndRow: end[0], EndCol: end[1]}
	r.Tag = tagOf(nodes[2])
	return r
}

// tagOf extracts the optional tag.  Maybe wraps a match in a single element
// slice when it has no nodifier.
func tagOf(node parsec.ParsecNode) string {
	switch n := node.(type) {
	case *parsec.Terminal:
		return n.GetValue()
	case []parsec.ParsecNode:
		if len(n) == 1 {
			return tagOf(n[0])
		}
	}
	return ""
}

// positionOf extracts row and column from a parsed pos node.
func positionOf(node parsec.ParsecNode) [2]int {
	var pos [2]int
	parts := node.([]parsec.ParsecNode)
	pos[0], _ = strconv.Atoi(parts[0].(*parsec.Terminal).GetValue())
	pos[1], _ = strconv.Atoi(parts[2].(*parsec.Terminal).GetValue())
	return pos
}
