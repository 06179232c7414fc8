// Copyright © 2024 The ELPS authors

// Package diagnostic provides Rust-style annotated error rendering for
// pyscope CLI output.  Resolver diagnostics, syntax errors and rename
// conflicts are converted into a common Diagnostic before rendering.
package diagnostic

import "sort"

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column, in runes
	EndCol int    // 1-based inclusive end column (0 = auto-detect from source)
	Label  string // text shown under the underline
}

// Diagnostic is one reported problem.  The first span, when present, is the
// primary location.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	Notes    []string // "= note:" lines
}

// Primary returns the primary span of d.
func (d Diagnostic) Primary() (Span, bool) {
	if len(d.Spans) == 0 {
		return Span{}, false
	}
	return d.Spans[0], true
}

// Sort orders ds by the position of their primary span.  Diagnostics without
// a span sort first and otherwise keep their relative order.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, aok := ds[i].Primary()
		b, bok := ds[j].Primary()
		switch {
		case !aok || !bok:
			return !aok && bok
		case a.File != b.File:
			return a.File < b.File
		case a.Line != b.Line:
			return a.Line < b.Line
		default:
			return a.Col < b.Col
		}
	})
}

// Count returns the number of diagnostics in ds with severity s.
func Count(ds []Diagnostic, s Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == s {
			n++
		}
	}
	return n
}
