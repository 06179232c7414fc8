// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bytes"
	"strings"
	"testing"
)

// testRenderer returns a Renderer with colors disabled and a fake source reader.
func testRenderer(sources map[string]string) *Renderer {
	return &Renderer{
		Color: ColorNever,
		Width: 80,
		SourceReader: func(name string) ([]byte, error) {
			s, ok := sources[name]
			if !ok {
				return nil, &fakeErr{name}
			}
			return []byte(s), nil
		},
	}
}

type fakeErr struct{ name string }

func (e *fakeErr) Error() string { return "not found: " + e.name }

func render(t *testing.T, r *Renderer, d Diagnostic) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestRenderError(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.py": "def f(x):\n    nonlocal x\n",
	})

	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  `name "x" is parameter and nonlocal`,
		Spans: []Span{
			{File: "test.py", Line: 2, Col: 14, EndCol: 14, Label: "declared here"},
		},
	})

	assertContains(t, got, `error: name "x" is parameter and nonlocal`)
	assertContains(t, got, "--> test.py:2:14")
	assertContains(t, got, " 2 |      nonlocal x")
	assertContains(t, got, "               ^ declared here")
}

func TestRenderWarning(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.py": "x = 1\nlist = [x]",
	})

	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Message:  `assignment "list" shadows a builtin`,
		Spans:    []Span{{File: "test.py", Line: 2, Col: 1}},
	})

	assertContains(t, got, `warning: assignment "list" shadows a builtin`)
	assertContains(t, got, "--> test.py:2:1")
	assertContains(t, got, "list = [x]")
	assertContains(t, got, "  ^^^^\n")
}

func TestRenderNoSource(t *testing.T) {
	r := testRenderer(nil)

	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "some error",
		Spans:    []Span{{File: "<stdin>", Line: 5, Col: 3}},
	})

	assertContains(t, got, "error: some error")
	assertContains(t, got, "--> <stdin>:5:3")
	// Should have a gutter but no source line
	assertContains(t, got, "|")
	assertNotContains(t, got, "^")
}

func TestRenderNotes(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.py": "def f():\n    tmp = 1\n",
	})

	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Message:  `local variable "tmp" is assigned but never used`,
		Spans:    []Span{{File: "test.py", Line: 2, Col: 5, EndCol: 7}},
		Notes: []string{
			"rename it to _tmp to mark it intentionally unused",
			"to suppress: add \"# nolint:unused-variable\" as a comment on this line",
		},
	})

	assertContains(t, got, "= note: rename it to _tmp to mark it intentionally unused")
	assertContains(t, got, "= note: to suppress:")
}

func TestRenderWrapsLongNotes(t *testing.T) {
	r := testRenderer(nil)
	r.Width = 40

	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "m",
		Notes:    []string{"the quick brown fox jumps over the lazy dog and keeps running far away"},
	})

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected the note to wrap, got:\n%s", got)
	}
	if !strings.HasPrefix(lines[1], "   = note: the quick") {
		t.Errorf("unexpected first note line %q", lines[1])
	}
	for _, line := range lines[2:] {
		if !strings.HasPrefix(line, strings.Repeat(" ", len(notePrefix))) {
			t.Errorf("continuation line %q is not aligned with the note text", line)
		}
		if strings.HasPrefix(line, strings.Repeat(" ", len(notePrefix)+1)) {
			t.Errorf("continuation line %q is over-indented", line)
		}
	}
	if strings.Join(strings.Fields(got), " ") != "error: m = note: the quick brown fox jumps over the lazy dog and keeps running far away" {
		t.Errorf("wrapping changed the note text:\n%s", got)
	}
}

func TestRenderAutoDetectEndCol(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.py": "print(undefined_name)",
	})

	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  `undefined name "undefined_name"`,
		Spans:    []Span{{File: "test.py", Line: 1, Col: 7}}, // EndCol=0 → auto-detect
	})

	assertContains(t, got, "        "+strings.Repeat("^", len("undefined_name"))+"\n")
}

func TestRenderUnicodeColumns(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.py": "café = naïve",
	})

	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  `undefined name "naïve"`,
		Spans:    []Span{{File: "test.py", Line: 1, Col: 8}},
	})

	// columns count runes, not bytes
	assertContains(t, got, "  "+strings.Repeat(" ", 7)+"^^^^^\n")
}

func TestRenderMultipleDiagnostics(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.py": "global x\nglobal x\nnonlocal y",
	})

	diags := []Diagnostic{
		{
			Severity: SeverityWarning,
			Message:  `name "x" is already declared global`,
			Spans:    []Span{{File: "test.py", Line: 2, Col: 8}},
		},
		{
			Severity: SeverityError,
			Message:  "nonlocal declaration not allowed at module level",
			Spans:    []Span{{File: "test.py", Line: 3, Col: 10}},
		},
	}

	var buf bytes.Buffer
	if err := r.RenderAll(&buf, diags); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	parts := strings.Split(got, "\n\n")
	if len(parts) < 2 {
		t.Errorf("expected diagnostics separated by blank line, got:\n%s", got)
	}
	assertContains(t, got, "already declared global")
	assertContains(t, got, "not allowed at module level")
}

func TestRenderNoSpans(t *testing.T) {
	r := testRenderer(nil)

	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "open missing.py: no such file or directory",
	})

	assertContains(t, got, "error: open missing.py: no such file or directory")
	assertNotContains(t, got, "-->")
}

func TestRenderColor(t *testing.T) {
	r := testRenderer(nil)
	r.Color = ColorAlways

	got := render(t, r, Diagnostic{Severity: SeverityError, Message: "boom"})
	assertContains(t, got, ansiPalette.boldRed)
	assertContains(t, got, ansiPalette.reset)

	r.Color = ColorAuto
	got = render(t, r, Diagnostic{Severity: SeverityError, Message: "boom"})
	assertNotContains(t, got, "\033[")
}

func TestParseColorMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want ColorMode
	}{
		{"", ColorAuto},
		{"auto", ColorAuto},
		{"always", ColorAlways},
		{"never", ColorNever},
	} {
		got, err := ParseColorMode(tc.in)
		if err != nil {
			t.Errorf("ParseColorMode(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseColorMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Error("expected an error for an unknown color mode")
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("output does not contain %q:\n%s", want, got)
	}
}

func assertNotContains(t *testing.T, got, unwanted string) {
	t.Helper()
	if strings.Contains(got, unwanted) {
		t.Errorf("output unexpectedly contains %q:\n%s", unwanted, got)
	}
}
