// Copyright © 2024 The ELPS authors

package lint

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/pyscope/analysis"
)

// AnalyzerUndefinedName reports reads of names that are bound nowhere in
// the file and are not predeclared.
var AnalyzerUndefinedName = &Analyzer{
	Name:     "undefined-name",
	Doc:      "Report references to names that are not defined.\n\nA name is undefined when no enclosing scope binds it and it is not a builtin. Rebinding declarations (global, nonlocal) are not reported.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		g := pass.Semantics.Graph
		for _, o := range g.Unresolved() {
			if o.Site == analysis.SiteRebind || g.Outcome(o).Predeclared {
				continue
			}
			pass.Report(Diagnostic{
				Pos:     PositionOf(o.Start()),
				Len:     utf8.RuneCountInString(o.Name()),
				Message: fmt.Sprintf("undefined name %q", o.Name()),
			})
		}
		return nil
	},
}

// AnalyzerUnusedVariable reports function locals that are written but never
// read.
var AnalyzerUnusedVariable = &Analyzer{
	Name:     "unused-variable",
	Doc:      "Report local variables that are assigned but never read.\n\nOnly plain assignments inside functions are considered. Names starting with an underscore are exempt, as are variables shared with a nested scope through nonlocal.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		g := pass.Semantics.Graph
		WalkScopes(pass.Semantics.Root, func(s *analysis.Scope, _ int) {
			if s.Kind != analysis.ScopeFunction {
				return
			}
			for _, b := range s.Bindings() {
				if b.Kind != analysis.BindAssignment || strings.HasPrefix(b.Name, "_") {
					continue
				}
				if Reads(g, b) > 0 || b.Def == nil || escapes(g, b) {
					continue
				}
				pass.ReportWithNotes(Diagnostic{
					Pos:     PositionOf(b.Source()),
					Len:     utf8.RuneCountInString(b.Name),
					Message: fmt.Sprintf("local variable %q is assigned but never used", b.Name),
				}, fmt.Sprintf("rename it to _%s to mark it intentionally unused", b.Name))
			}
		})
		return nil
	},
}

// AnalyzerRedeclaration surfaces the consistency problems found while
// building scopes: conflicting and invalid global/nonlocal declarations.
var AnalyzerRedeclaration = &Analyzer{
	Name:     "redeclaration",
	Doc:      "Report conflicting or invalid global and nonlocal declarations.\n\nA name declared both global and nonlocal in one scope keeps its first declaration. A parameter cannot be declared global or nonlocal, and nonlocal requires an enclosing function binding the name.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		for _, d := range pass.Semantics.Diagnostics {
			diag := Diagnostic{
				Pos:      PositionOf(d.Source),
				Len:      utf8.RuneCountInString(d.Name),
				Message:  d.Message,
				Severity: fromAnalysis(d.Severity),
			}
			if d.Related != nil {
				pass.ReportWithNotes(diag, fmt.Sprintf("first declared at %s", d.Related))
				continue
			}
			pass.Report(diag)
		}
		return nil
	},
}

// AnalyzerShadowedBuiltin reports bindings that hide a predeclared name.
var AnalyzerShadowedBuiltin = &Analyzer{
	Name:     "shadowed-builtin",
	Doc:      "Report definitions that shadow a builtin name.\n\nShadowing builtins such as list or id makes the builtin unreachable in the scope and every scope nested in it.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		g := pass.Semantics.Graph
		WalkScopes(pass.Semantics.Root, func(s *analysis.Scope, _ int) {
			for _, b := range s.Bindings() {
				if b.Kind == analysis.BindImportedGlobal || !g.Predeclared(b.Name) {
					continue
				}
				pass.Reportf(b.Source(), "%s %q shadows a builtin", b.Kind, b.Name)
			}
		})
		return nil
	},
}

// AnalyzerNames returns a sorted list of all default analyzer names.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		fmt.Fprintf(&b, "  %s\n", a.Name)
		lines := strings.Split(a.Doc, "\n")
		fmt.Fprintf(&b, "    %s\n\n", lines[0])
	}
	return b.String()
}
