// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	snap, ok := s.resolved(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	occ := occurrenceAt(snap, params.Position)
	if occ == nil {
		return nil, nil
	}
	r := occurrenceRange(occ)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: buildHoverContent(snap.result.Graph, occ),
		},
		Range: &r,
	}, nil
}

// buildHoverContent builds Markdown hover text for an occurrence.
func buildHoverContent(g *analysis.Graph, occ *analysis.Occurrence) string {
	var sb strings.Builder
	out := g.Outcome(occ)
	if out.Kind != analysis.Resolved {
		if out.Predeclared {
			fmt.Fprintf(&sb, "**builtin** `%s`", occ.Name())
		} else {
			fmt.Fprintf(&sb, "**undefined** `%s`", occ.Name())
		}
		return sb.String()
	}

	b := out.Binding
	fmt.Fprintf(&sb, "**%s** `%s`", b.Kind, b.Name)
	fmt.Fprintf(&sb, "\n\nbound in %s", scopeLabel(b.Scope))
	if b.Scope != occ.Scope {
		sb.WriteString(" (from an enclosing scope)")
	}

	refs := g.Occurrences(b)
	fmt.Fprintf(&sb, "\n\n%d %s", len(refs), plural(len(refs), "occurrence", "occurrences"))

	if src := b.Source(); src != nil {
		fmt.Fprintf(&sb, "\n\n*Defined at line %d*", src.Line)
	}
	return sb.String()
}

// scopeLabel describes a scope for display, e.g. "function `f`".
func scopeLabel(s *analysis.Scope) string {
	if s.Kind == analysis.ScopeModule || s.Name == "" {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s `%s`", s.Kind, s.Name)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
