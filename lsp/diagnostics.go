// Copyright © 2024 The ELPS authors

package lsp

import (
	"errors"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/lint"
	"github.com/luthersystems/pyscope/parser/token"
)

const debounceDelay = 300 * time.Millisecond

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	// Debounce: delay analysis to avoid thrashing during rapid edits.
	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("%s: diagnostics panic: %v", doc.URI, r)
			}
		}()
		d := s.docs.Get(doc.URI)
		if d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	// Cancel any pending debounce and publish immediately.
	s.cancelDebounce(params.TextDocument.URI)

	doc := s.docs.Get(params.TextDocument.URI)
	if doc != nil {
		s.analyzeAndPublish(doc)
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// analyzeAndPublish resolves and lints a document and publishes the
// resulting diagnostics to the client.
func (s *Server) analyzeAndPublish(doc *Document) {
	s.ensureAnalysis(doc)
	snap := doc.snapshot()
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         snap.uri,
		Diagnostics: s.diagnostics(snap),
	})
}

// diagnostics collects syntax errors, structural errors and lint findings.
// Resolver diagnostics reach the client through the redeclaration check.
func (s *Server) diagnostics(snap snapshot) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}

	if snap.parseErr != nil {
		diags = append(diags, protocol.Diagnostic{
			Range:    errorRange(snap.parseErr),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr("pyscope"),
			Message:  errorMessage(snap.parseErr),
		})
	}
	if snap.analysisErr != nil {
		diags = append(diags, protocol.Diagnostic{
			Range:    errorRange(snap.analysisErr),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr("pyscope"),
			Message:  errorMessage(snap.analysisErr),
		})
	}
	if snap.result == nil {
		return diags
	}

	lintDiags, err := s.linter.LintResult(uriToPath(snap.uri), snap.file, snap.result)
	if err != nil {
		log.Warningf("%s: lint: %v", snap.uri, err)
		return diags
	}
	for _, d := range lintDiags {
		diags = append(diags, convertLintDiagnostic(d))
	}
	return diags
}

// convertLintDiagnostic converts a lint.Diagnostic to an LSP Diagnostic.
func convertLintDiagnostic(d lint.Diagnostic) protocol.Diagnostic {
	width := d.Len
	if width <= 0 {
		width = 1
	}
	start := &token.Location{Line: d.Pos.Line, Col: d.Pos.Col}
	sev := mapLintSeverity(d.Severity)
	message := d.Message
	for _, note := range d.Notes {
		message += "\nnote: " + note
	}
	return protocol.Diagnostic{
		Range:    lspRange(start, nil, width),
		Severity: &sev,
		Source:   strPtr("pyscope-lint"),
		Code:     &protocol.IntegerOrString{Value: d.Analyzer},
		Message:  message,
	}
}

// mapLintSeverity converts a lint.Severity to a protocol.DiagnosticSeverity.
func mapLintSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

// errorRange extracts the source position of a syntax or structural error
// as a one character range.  Errors without a position map to the start of
// the file.
func errorRange(err error) protocol.Range {
	var locErr *token.LocationError
	if errors.As(err, &locErr) && locErr.Source != nil && locErr.Source.Line > 0 {
		return lspRange(locErr.Source, nil, 1)
	}
	var structErr *analysis.StructuralError
	if errors.As(err, &structErr) && structErr.Source != nil && structErr.Source.Line > 0 {
		return lspRange(structErr.Source, nil, 1)
	}
	return protocol.Range{}
}

// errorMessage strips the location prefix the client already shows.
func errorMessage(err error) string {
	var locErr *token.LocationError
	if errors.As(err, &locErr) && locErr.Err != nil {
		return locErr.Err.Error()
	}
	var structErr *analysis.StructuralError
	if errors.As(err, &structErr) {
		return structErr.Msg
	}
	return err.Error()
}

func strPtr(s string) *string {
	return &s
}
