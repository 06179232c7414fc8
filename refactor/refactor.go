// Copyright © 2024 The ELPS authors

// Package refactor checks and plans renames using only the queries exposed
// by an analysis.Result.
package refactor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/parser/token"
)

// ConflictKind classifies why a rename would change program meaning.
type ConflictKind int

const (
	// InvalidName means the new name is not an identifier or is a keyword.
	InvalidName ConflictKind = iota
	// Collision means the scope owning the binding already binds the new
	// name.
	Collision
	// Shadowed means an occurrence of the binding would resolve to a
	// different binding of the new name found earlier on its path.
	Shadowed
	// Capture means an existing occurrence of the new name would start
	// resolving to the renamed binding.
	Capture
	// ShadowsPredeclared means the new name hides a predeclared name.
	ShadowsPredeclared
)

func (k ConflictKind) String() string {
	switch k {
	case InvalidName:
		return "invalid-name"
	case Collision:
		return "collision"
	case Shadowed:
		return "shadowed"
	case Capture:
		return "capture"
	case ShadowsPredeclared:
		return "shadows-predeclared"
	default:
		return "unknown"
	}
}

// Conflict is one reason a rename is unsafe.  ShadowsPredeclared conflicts
// are warnings; every other kind blocks the rename.
type Conflict struct {
	Kind     ConflictKind
	Severity analysis.Severity
	// Occurrence is the occurrence whose meaning would change, if any.
	Occurrence *analysis.Occurrence
	// Other is the existing binding of the new name involved, if any.
	Other   *analysis.Binding
	Message string
}

func (c Conflict) String() string {
	if c.Occurrence != nil {
		return fmt.Sprintf("%s: %s: %s", c.Occurrence.Start(), c.Kind, c.Message)
	}
	return fmt.Sprintf("%s: %s", c.Kind, c.Message)
}

// Blocking reports whether c prevents the rename.
func (c Conflict) Blocking() bool {
	return c.Severity == analysis.SeverityError
}

// ConflictError is returned by Rename when blocking conflicts exist.
type ConflictError struct {
	Conflicts []Conflict
}

func (err *ConflictError) Error() string {
	msgs := make([]string, 0, len(err.Conflicts))
	for _, c := range err.Conflicts {
		if c.Blocking() {
			msgs = append(msgs, c.String())
		}
	}
	return "unsafe rename: " + strings.Join(msgs, "; ")
}

var (
	// ErrNoOccurrence is returned when no identifier lies under the cursor.
	ErrNoOccurrence = errors.New("no identifier at offset")
	// ErrUnresolved is returned when the identifier under the cursor is
	// free or predeclared.
	ErrUnresolved = errors.New("cannot rename an unresolved name")
)

// IsIdentifier reports whether name is a valid identifier and not a
// reserved word.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := token.Keyword(name); ok {
		return false
	}
	for i, c := range name {
		if c == '_' || unicode.IsLetter(c) {
			continue
		}
		if i > 0 && unicode.IsDigit(c) {
			continue
		}
		return false
	}
	return true
}

// CheckRename reports every conflict renaming b to newName would cause in
// res.  It returns nil when the rename is safe.
func CheckRename(res *analysis.Result, b *analysis.Binding, newName string) []Conflict {
	if !IsIdentifier(newName) {
		return []Conflict{{
			Kind:     InvalidName,
			Severity: analysis.SeverityError,
			Message:  fmt.Sprintf("%q is not a valid identifier", newName),
		}}
	}
	if newName == b.Name {
		return nil
	}
	c := &checker{res: res, b: b, newName: newName, seen: make(map[*analysis.Scope]bool)}
	for _, o := range res.Graph.Occurrences(b) {
		c.occurrence(o)
	}
	for _, o := range res.Graph.AllOccurrences() {
		if o.Name() == newName {
			c.capture(o)
		}
	}
	if res.Graph.Predeclared(newName) {
		c.conflicts = append(c.conflicts, Conflict{
			Kind:     ShadowsPredeclared,
			Severity: analysis.SeverityWarning,
			Message:  fmt.Sprintf("%q hides the predeclared name", newName),
		})
	}
	return c.conflicts
}

type checker struct {
	res       *analysis.Result
	b         *analysis.Binding
	newName   string
	seen      map[*analysis.Scope]bool
	conflicts []Conflict
}

// denotes returns the binding name means within s itself, following a
// redirect.
func denotes(s *analysis.Scope, name string) *analysis.Binding {
	if b := s.LookupLocal(name); b != nil {
		return b
	}
	return s.Redirect(name)
}

// occurrence checks that o still reaches the renamed binding.  The walk
// stops at the scope through which o currently resolves.
func (c *checker) occurrence(o *analysis.Occurrence) {
	for _, s := range analysis.Path(o.Scope) {
		other := denotes(s, c.newName)
		stop := denotes(s, c.b.Name) == c.b
		if other != nil && other != c.b && !c.seen[s] {
			c.seen[s] = true
			kind := Shadowed
			msg := fmt.Sprintf("%q would resolve to the %s %q in %s scope %s",
				o.Name(), other.Kind, c.newName, s.Kind, s.Name)
			if stop {
				kind = Collision
				msg = fmt.Sprintf("%s scope %s already binds %q", s.Kind, s.Name, c.newName)
			}
			c.conflicts = append(c.conflicts, Conflict{
				Kind:       kind,
				Severity:   analysis.SeverityError,
				Occurrence: o,
				Other:      other,
				Message:    msg,
			})
		}
		if stop {
			return
		}
	}
}

// capture checks that the existing occurrence o of the new name does not
// start resolving to the renamed binding.
func (c *checker) capture(o *analysis.Occurrence) {
	for _, s := range analysis.Path(o.Scope) {
		if denotes(s, c.newName) != nil {
			return
		}
		if denotes(s, c.b.Name) == c.b {
			c.conflicts = append(c.conflicts, Conflict{
				Kind:       Capture,
				Severity:   analysis.SeverityError,
				Occurrence: o,
				Message:    fmt.Sprintf("%q would be captured by the renamed %s", c.newName, c.b.Kind),
			})
			return
		}
	}
}

// Edit replaces the source bytes [Start, End) with NewText.
type Edit struct {
	Start, End int
	Occurrence *analysis.Occurrence
	NewText    string
}

// Plan is a checked rename.
type Plan struct {
	Binding  *analysis.Binding
	OldName  string
	NewName  string
	Edits    []Edit // sorted by Start
	Warnings []Conflict
}

// Rename plans renaming the binding of the identifier at offset to newName.
// Blocking conflicts yield a *ConflictError.
func Rename(res *analysis.Result, offset int, newName string) (*Plan, error) {
	o := res.Graph.OccurrenceAt(offset)
	if o == nil {
		return nil, ErrNoOccurrence
	}
	b := o.Binding()
	if b == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnresolved, o.Name())
	}
	return RenameBinding(res, b, newName)
}

// RenameBinding is Rename for a known binding.
func RenameBinding(res *analysis.Result, b *analysis.Binding, newName string) (*Plan, error) {
	conflicts := CheckRename(res, b, newName)
	plan := &Plan{Binding: b, OldName: b.Name, NewName: newName}
	for _, c := range conflicts {
		if c.Blocking() {
			return nil, &ConflictError{Conflicts: conflicts}
		}
		plan.Warnings = append(plan.Warnings, c)
	}
	for _, o := range res.Graph.Occurrences(b) {
		plan.Edits = append(plan.Edits, Edit{
			Start:      o.Start().Pos,
			End:        o.End().Pos,
			Occurrence: o,
			NewText:    newName,
		})
	}
	sort.Slice(plan.Edits, func(i, j int) bool {
		return plan.Edits[i].Start < plan.Edits[j].Start
	})
	return plan, nil
}

// Apply returns a copy of src with the edits of plan applied.  src must be
// the text the plan was computed from.
func Apply(src []byte, plan *Plan) []byte {
	out := append([]byte(nil), src...)
	for i := len(plan.Edits) - 1; i >= 0; i-- {
		e := plan.Edits[i]
		tail := append([]byte(e.NewText), out[e.End:]...)
		out = append(out[:e.Start], tail...)
	}
	return out
}
