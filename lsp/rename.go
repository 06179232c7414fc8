// Copyright © 2024 The ELPS authors

package lsp

import (
	"errors"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/refactor"
)

// textDocumentPrepareRename validates that the name under the cursor is
// renameable and returns its range.
func (s *Server) textDocumentPrepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	snap, ok := s.resolved(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	occ := occurrenceAt(snap, params.Position)
	// Per LSP spec, prepareRename returns null (not error) for
	// non-renameable names.
	if occ == nil || occ.Binding() == nil {
		return nil, nil
	}
	return &protocol.RangeWithPlaceholder{
		Range:       occurrenceRange(occ),
		Placeholder: occ.Name(),
	}, nil
}

// textDocumentRename handles the textDocument/rename request.  Renames that
// would change the meaning of any occurrence are refused with the conflicts
// as the error text.
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	snap, ok := s.resolved(params.TextDocument.URI)
	if !ok {
		return nil, fmt.Errorf("document not analyzed: %s", params.TextDocument.URI)
	}
	occ := occurrenceAt(snap, params.Position)
	if occ == nil {
		return nil, refactor.ErrNoOccurrence
	}
	if occ.Binding() == nil {
		return nil, fmt.Errorf("%w: %q", refactor.ErrUnresolved, occ.Name())
	}

	plan, err := refactor.RenameBinding(snap.result, occ.Binding(), params.NewName)
	if err != nil {
		var conflictErr *refactor.ConflictError
		if errors.As(err, &conflictErr) {
			log.Infof("%s: rename %s to %s refused: %v", snap.uri, occ.Name(), params.NewName, err)
		}
		return nil, err
	}
	for _, w := range plan.Warnings {
		log.Infof("%s: rename %s to %s: %s", snap.uri, plan.OldName, plan.NewName, w)
	}

	edits := make([]protocol.TextEdit, 0, len(plan.Edits))
	for _, e := range plan.Edits {
		edits = append(edits, protocol.TextEdit{
			Range:   occurrenceRange(e.Occurrence),
			NewText: e.NewText,
		})
	}
	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{
			params.TextDocument.URI: edits,
		},
	}, nil
}
