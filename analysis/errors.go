// Copyright © 2024 The ELPS authors

package analysis

import (
	"fmt"

	"github.com/luthersystems/pyscope/parser/token"
)

// StructuralError reports a syntax tree the resolver cannot interpret.  It
// is fatal for the unit: Analyze returns no Result alongside it.  Internal
// is set when the error exposes a resolver invariant violation rather than
// malformed input.
type StructuralError struct {
	Source   *token.Location
	Msg      string
	Internal bool
}

func (e *StructuralError) Error() string {
	msg := e.Msg
	if e.Internal {
		msg = "internal error: " + msg
	}
	if e.Source == nil {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Source, msg)
}

// DiagnosticKind classifies a recoverable consistency problem.
type DiagnosticKind int

const (
	RedeclarationConflict DiagnosticKind = iota
	InvalidRebinding
)

func (k DiagnosticKind) String() string {
	switch k {
	case RedeclarationConflict:
		return "redeclaration-conflict"
	case InvalidRebinding:
		return "invalid-rebinding"
	default:
		return "unknown"
	}
}

// Severity indicates the importance of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic is a problem found while building scopes.  Diagnostics never
// stop resolution.
type Diagnostic struct {
	Kind     DiagnosticKind
	Severity Severity
	Name     string
	Source   *token.Location
	Related  *token.Location // the earlier declaration, when there is one
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Source, d.Severity, d.Message, d.Kind)
}
