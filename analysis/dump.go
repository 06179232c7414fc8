// Copyright © 2024 The ELPS authors

package analysis

import (
	"fmt"
	"strings"
)

// Dump renders the scope tree, bindings, redirects, unresolved occurrences
// and diagnostics of res.  The output is deterministic: analyzing the same
// tree twice yields the same text.
func Dump(res *Result) string {
	var buf strings.Builder
	dumpScope(&buf, res.Graph, res.Root, 0)
	if free := res.Graph.Unresolved(); len(free) > 0 {
		buf.WriteString("unresolved:\n")
		for _, o := range free {
			mark := ""
			if o.predeclared {
				mark = " predeclared"
			}
			fmt.Fprintf(&buf, "  %s %s%s\n", o.Name(), formatOccurrence(o), mark)
		}
	}
	if len(res.Diagnostics) > 0 {
		buf.WriteString("diagnostics:\n")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&buf, "  %s\n", d)
		}
	}
	return buf.String()
}

func dumpScope(buf *strings.Builder, g *Graph, s *Scope, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(buf, "%s%s %s\n", indent, s.Kind, s.Name)
	for _, b := range s.Bindings() {
		var occs []string
		for _, o := range g.Occurrences(b) {
			occs = append(occs, formatOccurrence(o))
		}
		fmt.Fprintf(buf, "%s  %s (%s): %s\n", indent, b.Name, b.Kind, strings.Join(occs, ", "))
	}
	for _, name := range s.RedirectedNames() {
		target := s.redirects[name]
		fmt.Fprintf(buf, "%s  %s %s -> %s %s\n", indent, s.declared[name], name, target.Scope.Kind, target.Scope.Name)
	}
	for _, child := range s.Children {
		dumpScope(buf, g, child, depth+1)
	}
}

// formatOccurrence renders o as line:col followed by its site tag, with
// rebind occurrences marked explicitly.
func formatOccurrence(o *Occurrence) string {
	start := o.Start()
	tag := o.Site.Tag()
	if o.Site == SiteRebind {
		tag = "rebind"
	}
	if tag != "" {
		return fmt.Sprintf("%d:%d %s", start.Line, start.Col, tag)
	}
	return fmt.Sprintf("%d:%d", start.Line, start.Col)
}
