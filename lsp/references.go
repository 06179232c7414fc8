// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
)

// textDocumentReferences handles the textDocument/references request.
// Unresolved names refer to every unresolved occurrence of the same name.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	snap, ok := s.resolved(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	occ := occurrenceAt(snap, params.Position)
	if occ == nil {
		return nil, nil
	}
	g := snap.result.Graph
	def := g.Definition(occ)

	var locs []protocol.Location
	for _, o := range g.ReferencesOf(occ) {
		if o == def && !params.Context.IncludeDeclaration {
			continue
		}
		locs = append(locs, protocol.Location{
			URI:   params.TextDocument.URI,
			Range: occurrenceRange(o),
		})
	}
	return locs, nil
}

// textDocumentDocumentHighlight handles the textDocument/documentHighlight
// request.  Writes are distinguished from reads.
func (s *Server) textDocumentDocumentHighlight(_ *glsp.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	snap, ok := s.resolved(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	occ := occurrenceAt(snap, params.Position)
	if occ == nil {
		return nil, nil
	}
	var highlights []protocol.DocumentHighlight
	for _, o := range snap.result.Graph.ReferencesOf(occ) {
		kind := protocol.DocumentHighlightKindRead
		if o.Role() == analysis.Write {
			kind = protocol.DocumentHighlightKindWrite
		}
		highlights = append(highlights, protocol.DocumentHighlight{
			Range: occurrenceRange(o),
			Kind:  &kind,
		})
	}
	return highlights, nil
}

// textDocumentDefinition handles the textDocument/definition request.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	snap, ok := s.resolved(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	occ := occurrenceAt(snap, params.Position)
	if occ == nil {
		return nil, nil
	}
	// Free and predeclared names have no navigable source.
	def := snap.result.Graph.Definition(occ)
	if def == nil {
		return nil, nil
	}
	return protocol.Location{
		URI:   params.TextDocument.URI,
		Range: occurrenceRange(def),
	}, nil
}
