// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"sort"
	"sync"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/parser/cellfilter"
	"github.com/luthersystems/pyscope/parser/rdparser"
	"github.com/luthersystems/pyscope/syntax"
	"github.com/luthersystems/pyscope/workspace"
)

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu       sync.Mutex
	URI      string
	Version  int32
	Content  string
	notebook bool

	file     *syntax.File
	parseErr error

	analyzed    bool
	analysis    *analysis.Result
	analysisErr error
}

// parse parses the document content and caches the tree.  Parsing is fault
// tolerant: on a syntax error the statements preceding it are kept so that
// queries keep working on the rest of the file.
func (d *Document) parse() {
	path := uriToPath(d.URI)
	src := []byte(d.Content)
	if d.notebook || workspace.IsNotebookExport(path) {
		src = cellfilter.Filter(src)
	}
	d.file, d.parseErr = rdparser.ParseFaultTolerant(path, src)
	d.analyzed = false
	d.analysis = nil
	d.analysisErr = nil
}

// analyze resolves the cached tree.  A panic in the resolver is converted
// into an analysis error so it cannot take down the server.
func (d *Document) analyze(cfg *analysis.Config) {
	d.analyzed = true
	if d.file == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("%s: analysis panic: %v", d.URI, r)
			d.analysis = nil
			d.analysisErr = fmt.Errorf("internal error: %v", r)
		}
	}()
	d.analysis, d.analysisErr = analysis.Analyze(d.file, cfg)
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu       sync.RWMutex
	docs     map[string]*Document
	notebook bool
}

// NewDocumentStore creates an empty document store.  When notebook is true
// interactive shell annotations are filtered from every document.
func NewDocumentStore(notebook bool) *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document), notebook: notebook}
}

// Open adds a document to the store and parses it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:      uri,
		Version:  version,
		Content:  content,
		notebook: s.notebook,
	}
	doc.parse()
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and re-parses it.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri, notebook: s.notebook}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.parse()
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// All returns every open document ordered by URI.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	docs := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	s.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })
	return docs
}

// snapshot is a consistent view of a document's analysis state.
type snapshot struct {
	uri         string
	content     string
	file        *syntax.File
	parseErr    error
	result      *analysis.Result
	analysisErr error
}

func (d *Document) snapshot() snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return snapshot{
		uri:         d.URI,
		content:     d.Content,
		file:        d.file,
		parseErr:    d.parseErr,
		result:      d.analysis,
		analysisErr: d.analysisErr,
	}
}

// resolved returns the document snapshot for a query, analyzing the
// document first if needed.  ok is false when the document is unknown or
// could not be resolved.
func (s *Server) resolved(uri string) (snap snapshot, ok bool) {
	doc := s.docs.Get(uri)
	if doc == nil {
		return snapshot{}, false
	}
	s.ensureAnalysis(doc)
	snap = doc.snapshot()
	return snap, snap.result != nil
}
