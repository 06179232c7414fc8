// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
)

// textDocumentCompletion handles the textDocument/completion request.  It
// offers the names visible from the scope at the cursor, innermost first,
// followed by the predeclared names.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	snap, ok := s.resolved(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	offset := offsetAt(snap.content, params.Position)
	if offset < 0 {
		return nil, nil
	}
	prefix := wordBefore(snap.content, offset)
	scope := snap.result.Graph.ScopeAt(offset)
	return s.scopeCompletions(scope, prefix), nil
}

// scopeCompletions returns completion items for the names visible from
// scope that start with prefix.
func (s *Server) scopeCompletions(scope *analysis.Scope, prefix string) []protocol.CompletionItem {
	items := []protocol.CompletionItem{}
	seen := make(map[string]bool)
	add := func(name string, kind protocol.CompletionItemKind, detail string) {
		if seen[name] || !strings.HasPrefix(name, prefix) {
			return
		}
		seen[name] = true
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   &kind,
			Detail: strPtr(detail),
		})
	}

	for _, sc := range analysis.Path(scope) {
		for _, b := range sc.Bindings() {
			add(b.Name, mapCompletionItemKind(b.Kind), b.Kind.String()+" in "+sc.Kind.String())
		}
	}
	universe := s.cfg.Analysis.Universe
	if universe == nil {
		universe = analysis.Builtins
	}
	for _, name := range universe.Names() {
		add(name, protocol.CompletionItemKindFunction, "builtin")
	}
	return items
}
