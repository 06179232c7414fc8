// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"errors"
	"fmt"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/parser/token"
	"github.com/luthersystems/pyscope/refactor"
)

// FromError converts a syntax or structural error into a Diagnostic.  Errors
// carrying no source location produce a diagnostic without spans.
func FromError(err error) Diagnostic {
	d := Diagnostic{Severity: SeverityError, Message: err.Error()}

	var lerr *token.LocationError
	var serr *analysis.StructuralError
	switch {
	case errors.As(err, &lerr):
		d.Message = "syntax error: " + lerr.Err.Error()
		d.Spans = spanAt(lerr.Source)
	case errors.As(err, &serr):
		d.Message = serr.Msg
		d.Spans = spanAt(serr.Source)
		if serr.Internal {
			d.Message = "internal error: " + serr.Msg
			d.Notes = append(d.Notes, "this is a bug in the resolver; please report it with the input file")
		}
	}
	return d
}

// FromAnalysis converts a resolver diagnostic.
func FromAnalysis(ad analysis.Diagnostic) Diagnostic {
	d := Diagnostic{
		Severity: SeverityWarning,
		Message:  ad.Message,
		Spans:    spanAt(ad.Source),
	}
	if ad.Severity == analysis.SeverityError {
		d.Severity = SeverityError
	}
	if len(d.Spans) > 0 {
		d.Spans[0].EndCol = d.Spans[0].Col + len([]rune(ad.Name)) - 1
	}
	if ad.Related != nil {
		d.Notes = append(d.Notes, "first declared at "+ad.Related.String())
	}
	return d
}

// FromConflict converts a rename conflict.  The span marks the occurrence
// whose meaning would change.
func FromConflict(c refactor.Conflict) Diagnostic {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf("%s: %s", c.Kind, c.Message),
	}
	if !c.Blocking() {
		d.Severity = SeverityWarning
	}
	if c.Occurrence != nil {
		d.Spans = spanAt(c.Occurrence.Start())
		if len(d.Spans) > 0 {
			d.Spans[0].EndCol = d.Spans[0].Col + len([]rune(c.Occurrence.Name())) - 1
		}
	}
	if c.Other != nil {
		if src := c.Other.Source(); src != nil {
			d.Notes = append(d.Notes, fmt.Sprintf("%s %q is bound at %s", c.Other.Kind, c.Other.Name, src))
		}
	}
	return d
}

func spanAt(loc *token.Location) []Span {
	if loc == nil || loc.Line <= 0 {
		return nil
	}
	file := loc.File
	if loc.Path != "" {
		file = loc.Path
	}
	return []Span{{File: file, Line: loc.Line, Col: loc.Col}}
}
