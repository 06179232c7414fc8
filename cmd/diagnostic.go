// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/diagnostic"
	lintpkg "github.com/luthersystems/pyscope/lint"
	"github.com/luthersystems/pyscope/refactor"
	"github.com/luthersystems/pyscope/workspace"
)

func colorMode() diagnostic.ColorMode {
	mode, err := diagnostic.ParseColorMode(viper.GetString("color"))
	if err != nil {
		return diagnostic.ColorAuto
	}
	return mode
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// renderError renders err with diagnostic formatting.  Rename conflicts are
// rendered one per conflicting occurrence.
func renderError(w io.Writer, err error) {
	r := newRenderer()
	var cerr *refactor.ConflictError
	if errors.As(err, &cerr) {
		var ds []diagnostic.Diagnostic
		for _, c := range cerr.Conflicts {
			ds = append(ds, diagnostic.FromConflict(c))
		}
		diagnostic.Sort(ds)
		_ = r.RenderAll(w, ds)
		return
	}
	_ = r.Render(w, diagnostic.FromError(err))
}

// lintDiagToDiagnostic converts a lint.Diagnostic to a diagnostic.Diagnostic.
func lintDiagToDiagnostic(ld lintpkg.Diagnostic) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityWarning,
		Message:  ld.Message + " (" + ld.Analyzer + ")",
	}
	switch ld.Severity {
	case lintpkg.SeverityError:
		d.Severity = diagnostic.SeverityError
	case lintpkg.SeverityInfo:
		d.Severity = diagnostic.SeverityNote
	}
	if ld.Pos.Line > 0 {
		span := diagnostic.Span{
			File: ld.Pos.File,
			Line: ld.Pos.Line,
			Col:  ld.Pos.Col,
		}
		if ld.Len > 0 {
			span.EndCol = ld.Pos.Col + ld.Len - 1
		}
		d.Spans = append(d.Spans, span)
	}
	d.Notes = append(d.Notes, ld.Notes...)
	d.Notes = append(d.Notes, "to suppress: add \"# nolint:"+ld.Analyzer+"\" as a comment on this line")
	return d
}

// renderLintDiagnostics renders lint diagnostics with diagnostic formatting.
func renderLintDiagnostics(w io.Writer, diags []lintpkg.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	var ds []diagnostic.Diagnostic
	for _, ld := range diags {
		ds = append(ds, lintDiagToDiagnostic(ld))
	}
	_ = newRenderer().RenderAll(w, ds)
	errs := diagnostic.Count(ds, diagnostic.SeverityError)
	warns := diagnostic.Count(ds, diagnostic.SeverityWarning)
	fmt.Fprintf(w, "\n%d %s, %d %s\n", errs, plural(errs, "error", "errors"), warns, plural(warns, "warning", "warnings"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// analyzeFile reads and resolves a single file named on the command line.
func analyzeFile(path string, st *settings) ([]byte, *analysis.Result, error) {
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return nil, nil, err
	}
	cfg := st.workspace
	cfg.Notebook = cfg.Notebook || workspace.IsNotebookExport(path)
	_, res, err := workspace.AnalyzeFile(src, path, &cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Debugf("%s: %d scopes, %d occurrences", path, len(res.Graph.Scopes()), len(res.Graph.AllOccurrences()))
	return src, res, nil
}

// occurrenceAt finds the occurrence at a LINE:COL position or a byte offset.
// Exactly one of at and offset must be given; offset is ignored when
// negative.
func occurrenceAt(res *analysis.Result, at string, offset int) (*analysis.Occurrence, error) {
	switch {
	case at != "" && offset >= 0:
		return nil, errors.New("--at and --offset are mutually exclusive")
	case at != "":
		line, col, err := workspace.ParsePosition(at)
		if err != nil {
			return nil, err
		}
		if o := res.Graph.OccurrenceAtLine(line, col); o != nil {
			return o, nil
		}
		return nil, fmt.Errorf("no name at %s", at)
	case offset >= 0:
		if o := res.Graph.OccurrenceAt(offset); o != nil {
			return o, nil
		}
		return nil, fmt.Errorf("no name at offset %d", offset)
	default:
		return nil, errors.New("a position is required: use --at LINE:COL or --offset N")
	}
}
