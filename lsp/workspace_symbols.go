// Copyright © 2024 The ELPS authors

package lsp

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/workspace"
)

// indexedSymbol is a module-level definition found by the workspace scan.
type indexedSymbol struct {
	path string
	info protocol.SymbolInformation
}

// ensureWorkspaceIndex scans the workspace root once.  Files that fail to
// parse or resolve are left out of the index.
func (s *Server) ensureWorkspaceIndex() {
	s.indexOnce.Do(func() {
		if s.rootPath == "" {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("workspace index panic: %v", r)
			}
		}()
		results, err := workspace.Scan(context.Background(), s.rootPath, &s.cfg)
		if err != nil {
			log.Warningf("workspace index: %v", err)
			return
		}
		var index []indexedSymbol
		for _, r := range results {
			if r.Err != nil {
				log.Debugf("workspace index: skipping %s: %v", r.Filename, r.Err)
				continue
			}
			path, _ := filepath.Abs(r.Filename)
			for _, info := range moduleSymbols(pathToURI(path), r.Result) {
				index = append(index, indexedSymbol{path: path, info: info})
			}
		}
		log.Infof("workspace index: %d symbols in %d files", len(index), len(results))
		s.indexMu.Lock()
		s.index = index
		s.indexMu.Unlock()
	})
}

// moduleSymbols returns the module-level definitions of a resolved file.
func moduleSymbols(uri string, res *analysis.Result) []protocol.SymbolInformation {
	var syms []protocol.SymbolInformation
	for _, b := range res.Root.Bindings() {
		if b.Def == nil || b.Kind == analysis.BindImport {
			continue
		}
		syms = append(syms, protocol.SymbolInformation{
			Name:     b.Name,
			Kind:     mapBindingKind(b),
			Location: protocol.Location{URI: uri, Range: occurrenceRange(b.Def)},
		})
	}
	return syms
}

// workspaceSymbol handles the workspace/symbol request.  It returns the
// module-level definitions of the workspace matching the query.  Open
// documents take precedence over the indexed copy of the same file.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	s.ensureWorkspaceIndex()
	query := strings.ToLower(params.Query)

	results := []protocol.SymbolInformation{}
	open := make(map[string]bool)
	for _, doc := range s.docs.All() {
		snap, ok := s.resolved(doc.URI)
		if !ok {
			continue
		}
		open[uriToPath(doc.URI)] = true
		for _, info := range moduleSymbols(doc.URI, snap.result) {
			if matchesQuery(info.Name, query) {
				results = append(results, info)
			}
		}
	}

	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	for _, sym := range s.index {
		if open[sym.path] || !matchesQuery(sym.info.Name, query) {
			continue
		}
		results = append(results, sym.info)
	}
	return results, nil
}

// matchesQuery performs case-insensitive substring matching. An empty query
// matches everything (per LSP spec: empty string requests all symbols).
func matchesQuery(name, lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), lowerQuery)
}
