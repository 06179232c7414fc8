// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"errors"
	"strings"
	"testing"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/parser/rdparser"
	"github.com/luthersystems/pyscope/refactor"
)

func analyze(t *testing.T, src string) *analysis.Result {
	t.Helper()
	file, err := rdparser.Parse("test.py", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	res, err := analysis.Analyze(file, nil)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestFromErrorSyntax(t *testing.T) {
	_, err := rdparser.Parse("bad.py", []byte("x = 1\ndef (:\n"))
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	d := FromError(err)
	if d.Severity != SeverityError {
		t.Errorf("severity = %v, want error", d.Severity)
	}
	if !strings.HasPrefix(d.Message, "syntax error: ") {
		t.Errorf("message = %q, want syntax error prefix", d.Message)
	}
	if len(d.Spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(d.Spans))
	}
	if d.Spans[0].Line != 2 || !strings.HasSuffix(d.Spans[0].File, "bad.py") {
		t.Errorf("span = %+v, want bad.py line 2", d.Spans[0])
	}
}

func TestFromErrorPlain(t *testing.T) {
	d := FromError(errors.New("open missing.py: no such file"))
	if d.Message != "open missing.py: no such file" {
		t.Errorf("message = %q", d.Message)
	}
	if len(d.Spans) != 0 {
		t.Errorf("spans = %d, want 0", len(d.Spans))
	}
}

func TestFromAnalysis(t *testing.T) {
	res := analyze(t, "def f():\n    global x\n    nonlocal x\n")
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected resolver diagnostics")
	}
	var conflict *analysis.Diagnostic
	for i := range res.Diagnostics {
		if res.Diagnostics[i].Kind == analysis.RedeclarationConflict {
			conflict = &res.Diagnostics[i]
		}
	}
	if conflict == nil {
		t.Fatalf("no redeclaration conflict in %v", res.Diagnostics)
	}
	d := FromAnalysis(*conflict)
	if d.Severity != SeverityError {
		t.Errorf("severity = %v, want error", d.Severity)
	}
	if len(d.Spans) != 1 || d.Spans[0].Line != 3 || d.Spans[0].Col != 14 || d.Spans[0].EndCol != 14 {
		t.Errorf("spans = %+v, want 3:14-14", d.Spans)
	}
	if len(d.Notes) != 1 || !strings.Contains(d.Notes[0], "first declared at") {
		t.Errorf("notes = %q", d.Notes)
	}
}

func TestFromConflict(t *testing.T) {
	res := analyze(t, "def f(a):\n    b = 1\n    return a + b\n")
	a := res.Graph.OccurrenceAtLine(1, 7)
	if a == nil || a.Binding() == nil {
		t.Fatal("no binding for a")
	}
	_, err := refactor.RenameBinding(res, a.Binding(), "b")
	var cerr *refactor.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want a conflict", err)
	}
	d := FromConflict(cerr.Conflicts[0])
	if d.Severity != SeverityError {
		t.Errorf("severity = %v, want error", d.Severity)
	}
	if !strings.HasPrefix(d.Message, "collision: ") {
		t.Errorf("message = %q", d.Message)
	}
	if len(d.Spans) != 1 || d.Spans[0].EndCol != d.Spans[0].Col {
		t.Errorf("spans = %+v", d.Spans)
	}
	if len(d.Notes) != 1 || !strings.Contains(d.Notes[0], `assignment "b" is bound at`) {
		t.Errorf("notes = %q", d.Notes)
	}

	plan, err := refactor.RenameBinding(res, a.Binding(), "len")
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(plan.Warnings))
	}
	if w := FromConflict(plan.Warnings[0]); w.Severity != SeverityWarning {
		t.Errorf("severity = %v, want warning", w.Severity)
	}
}

func TestSort(t *testing.T) {
	ds := []Diagnostic{
		{Message: "b2", Spans: []Span{{File: "b.py", Line: 2, Col: 1}}},
		{Message: "a3", Spans: []Span{{File: "a.py", Line: 3, Col: 5}}},
		{Message: "none"},
		{Message: "a1", Spans: []Span{{File: "a.py", Line: 1, Col: 9}}},
		{Message: "a3-early", Spans: []Span{{File: "a.py", Line: 3, Col: 2}}},
	}
	Sort(ds)
	var got []string
	for _, d := range ds {
		got = append(got, d.Message)
	}
	want := "none a1 a3-early a3 b2"
	if strings.Join(got, " ") != want {
		t.Errorf("got order %v, want %s", got, want)
	}
}

func TestCount(t *testing.T) {
	ds := []Diagnostic{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityError},
	}
	if n := Count(ds, SeverityError); n != 2 {
		t.Errorf("errors: got %d, want 2", n)
	}
	if n := Count(ds, SeverityNote); n != 0 {
		t.Errorf("notes: got %d, want 0", n)
	}
}
