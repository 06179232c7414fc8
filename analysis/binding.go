// Copyright © 2024 The ELPS authors

package analysis

import (
	"github.com/luthersystems/pyscope/parser/token"
	"github.com/luthersystems/pyscope/syntax"
)

// BindingKind classifies how a name came to be bound.
type BindingKind int

const (
	BindAssignment     BindingKind = iota // assignment, for/with/except target, del
	BindParameter                         // def or lambda parameter
	BindFunction                          // def name
	BindClass                             // class name
	BindImport                            // import alias
	BindImportedGlobal                    // created by a global or nonlocal declaration
)

func (k BindingKind) String() string {
	switch k {
	case BindAssignment:
		return "assignment"
	case BindParameter:
		return "parameter"
	case BindFunction:
		return "function"
	case BindClass:
		return "class"
	case BindImport:
		return "import"
	case BindImportedGlobal:
		return "imported-global"
	default:
		return "unknown"
	}
}

// Binding is the unique declaration of a name within one Scope.
type Binding struct {
	Name  string
	Kind  BindingKind
	Scope *Scope
	Def   *Occurrence // first textual write; nil when no write exists in Scope
}

// Source returns the location of the defining occurrence, or nil.
func (b *Binding) Source() *token.Location {
	if b.Def == nil {
		return nil
	}
	return b.Def.Start()
}

// Role is the coarse use of an occurrence.
type Role int

const (
	Read Role = iota
	Write
)

func (r Role) String() string {
	if r == Write {
		return "write"
	}
	return "read"
}

// Site refines the role of an occurrence.
type Site int

const (
	SiteRead    Site = iota // plain use
	SiteAssign              // assignment target, augmented assignment, del
	SiteDeclare             // def/class name, parameter, import alias
	SiteRebind              // name listed by global or nonlocal
)

func (s Site) String() string {
	switch s {
	case SiteRead:
		return "read"
	case SiteAssign:
		return "assign"
	case SiteDeclare:
		return "declare"
	case SiteRebind:
		return "rebind"
	default:
		return "unknown"
	}
}

// Tag returns the short marker used when rendering occurrence ranges:
// "mut" for assignments, "decl" for declarations and "" otherwise.
func (s Site) Tag() string {
	switch s {
	case SiteAssign:
		return "mut"
	case SiteDeclare:
		return "decl"
	}
	return ""
}

// Role returns the role implied by the site.
func (s Site) Role() Role {
	if s == SiteAssign || s == SiteDeclare {
		return Write
	}
	return Read
}

// Occurrence is one mention of a name in the source.
type Occurrence struct {
	Ident *syntax.Ident
	Scope *Scope // the scope the occurrence lexically appears in
	Site  Site

	binding     *Binding
	predeclared bool
}

// Name returns the identifier text.
func (o *Occurrence) Name() string { return o.Ident.Name }

// Role returns Read or Write.
func (o *Occurrence) Role() Role { return o.Site.Role() }

func (o *Occurrence) Start() *token.Location { return o.Ident.NamePos }

func (o *Occurrence) End() *token.Location { return syntax.End(o.Ident) }

// Binding returns the binding o resolved to, or nil when o is unresolved.
func (o *Occurrence) Binding() *Binding { return o.binding }

// Contains reports whether the byte offset lies within o.
func (o *Occurrence) Contains(offset int) bool {
	return o.Start().Pos <= offset && offset < o.End().Pos
}

// OutcomeKind is the result of resolving an occurrence.
type OutcomeKind int

const (
	Unresolved OutcomeKind = iota
	Resolved
	Ambiguous // never present in a Result; reported as a StructuralError
)

func (k OutcomeKind) String() string {
	switch k {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Outcome is the resolution of one occurrence.
type Outcome struct {
	Kind        OutcomeKind
	Binding     *Binding // set when Kind is Resolved
	Predeclared bool     // unresolved name found in the Universe
}
