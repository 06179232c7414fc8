// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"
	"unicode"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/parser/token"
)

// lspPosition converts a 1-based location to a 0-based LSP position.
func lspPosition(loc *token.Location) protocol.Position {
	line := loc.Line
	col := loc.Col
	if line > 0 {
		line--
	}
	if col > 0 {
		col--
	}
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(col),
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// lspRange converts a location to an LSP range.  When end is nil the range
// is width characters wide.
func lspRange(start, end *token.Location, width int) protocol.Range {
	r := protocol.Range{Start: lspPosition(start)}
	if end != nil && end.Line > 0 {
		r.End = lspPosition(end)
	} else {
		r.End = protocol.Position{
			Line:      r.Start.Line,
			Character: r.Start.Character + safeUint(width),
		}
	}
	return r
}

// occurrenceRange returns the range of the identifier of o.
func occurrenceRange(o *analysis.Occurrence) protocol.Range {
	return lspRange(o.Start(), o.End(), utf8.RuneCountInString(o.Name()))
}

// offsetAt converts a 0-based LSP position into a byte offset in content.
// Characters are counted in runes.  It returns -1 when the position lies
// outside content.
func offsetAt(content string, pos protocol.Position) int {
	line := int(pos.Line)
	offset := 0
	for ; line > 0; line-- {
		i := strings.IndexByte(content[offset:], '\n')
		if i < 0 {
			return -1
		}
		offset += i + 1
	}
	for n := int(pos.Character); n > 0; n-- {
		if offset >= len(content) || content[offset] == '\n' {
			return -1
		}
		_, size := utf8.DecodeRuneInString(content[offset:])
		offset += size
	}
	return offset
}

// occurrenceAt returns the occurrence under the cursor.  A cursor placed
// just after an identifier selects that identifier.
func occurrenceAt(snap snapshot, pos protocol.Position) *analysis.Occurrence {
	offset := offsetAt(snap.content, pos)
	if offset < 0 || snap.result == nil {
		return nil
	}
	g := snap.result.Graph
	if o := g.OccurrenceAt(offset); o != nil {
		return o
	}
	if offset > 0 {
		return g.OccurrenceAt(offset - 1)
	}
	return nil
}

// wordBefore returns the identifier prefix ending at the byte offset.
func wordBefore(content string, offset int) string {
	if offset < 0 || offset > len(content) {
		return ""
	}
	start := offset
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(content[:start])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		start -= size
	}
	return content[start:offset]
}

// mapBindingKind converts a binding kind to an LSP symbol kind.
func mapBindingKind(b *analysis.Binding) protocol.SymbolKind {
	switch b.Kind {
	case analysis.BindFunction:
		if b.Scope != nil && b.Scope.Kind == analysis.ScopeClass {
			return protocol.SymbolKindMethod
		}
		return protocol.SymbolKindFunction
	case analysis.BindClass:
		return protocol.SymbolKindClass
	case analysis.BindImport:
		return protocol.SymbolKindModule
	default:
		return protocol.SymbolKindVariable
	}
}

// mapCompletionItemKind converts a binding kind to an LSP completion kind.
func mapCompletionItemKind(kind analysis.BindingKind) protocol.CompletionItemKind {
	switch kind {
	case analysis.BindFunction:
		return protocol.CompletionItemKindFunction
	case analysis.BindClass:
		return protocol.CompletionItemKindClass
	case analysis.BindImport:
		return protocol.CompletionItemKindModule
	default:
		return protocol.CompletionItemKindVariable
	}
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
