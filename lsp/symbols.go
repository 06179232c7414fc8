// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/syntax"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol
// request.  Functions and classes nest their own definitions; module and
// class variables are listed alongside them.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	snap, ok := s.resolved(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return scopeSymbols(snap.result.Root), nil
}

// scopeSymbols returns the symbols defined directly in scope.
func scopeSymbols(scope *analysis.Scope) []protocol.DocumentSymbol {
	symbols := []protocol.DocumentSymbol{}
	nested := make(map[*syntax.Ident]*analysis.Scope)
	for _, child := range scope.Children {
		if name := definedName(child); name != nil {
			nested[name] = child
		}
	}
	for _, b := range scope.Bindings() {
		if b.Def == nil || b.Kind == analysis.BindImportedGlobal {
			continue
		}
		if b.Kind == analysis.BindParameter {
			continue
		}
		if scope.Kind == analysis.ScopeFunction && b.Kind == analysis.BindAssignment {
			continue
		}
		sym := protocol.DocumentSymbol{
			Name:           b.Name,
			Detail:         strPtr(b.Kind.String()),
			Kind:           mapBindingKind(b),
			Range:          occurrenceRange(b.Def),
			SelectionRange: occurrenceRange(b.Def),
		}
		if child := nested[b.Def.Ident]; child != nil {
			if r, ok := nodeRange(child.Node); ok {
				sym.Range = r
			}
			sym.Children = scopeSymbols(child)
		}
		symbols = append(symbols, sym)
	}
	return symbols
}

// definedName returns the name of the def or class statement that
// introduced scope, or nil.
func definedName(scope *analysis.Scope) *syntax.Ident {
	switch n := scope.Node.(type) {
	case *syntax.DefStmt:
		return n.Name
	case *syntax.ClassStmt:
		return n.Name
	}
	return nil
}

func nodeRange(n syntax.Node) (protocol.Range, bool) {
	if n == nil {
		return protocol.Range{}, false
	}
	start, end := n.Span()
	if start == nil || end == nil || start.Line == 0 {
		return protocol.Range{}, false
	}
	return lspRange(start, end, 0), true
}
