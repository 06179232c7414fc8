// Copyright © 2024 The ELPS authors

package analysis

import (
	"sort"

	"github.com/luthersystems/pyscope/parser/token"
	"github.com/luthersystems/pyscope/syntax"
)

// ScopeKind classifies the kind of scope.
type ScopeKind int

const (
	ScopeModule        ScopeKind = iota // file level
	ScopeFunction                       // def or lambda body
	ScopeClass                          // class body
	ScopeComprehension                  // list/set/dict comprehension or generator expression
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	case ScopeComprehension:
		return "comprehension"
	default:
		return "unknown"
	}
}

// Scope represents a lexical scope in the source.
type Scope struct {
	Kind     ScopeKind
	Name     string // def or class name, or a placeholder such as <lambda>
	Parent   *Scope
	Children []*Scope
	Node     syntax.Node // the node that introduced this scope

	bindings  map[string]*Binding
	redirects map[string]*Binding
	declared  map[string]token.Type // GLOBAL or NONLOCAL per redirected name
	order     []string              // names in first-binding order

	pending []pendingDecl
	rebinds []pendingRebind
	occs    []*Occurrence
}

type pendingDecl struct {
	kind BindingKind
	occ  *Occurrence
}

type pendingRebind struct {
	decl token.Type // GLOBAL or NONLOCAL
	occ  *Occurrence
}

// pendingBinds reports whether a binding candidate for name has been
// recorded in s.
func (s *Scope) pendingBinds(name string) bool {
	for _, d := range s.pending {
		if d.occ.Name() == name {
			return true
		}
	}
	return false
}

// NewScope creates a new scope of the given kind with the given parent.
func NewScope(kind ScopeKind, parent *Scope, node syntax.Node) *Scope {
	s := &Scope{
		Kind:      kind,
		Parent:    parent,
		Node:      node,
		bindings:  make(map[string]*Binding),
		redirects: make(map[string]*Binding),
		declared:  make(map[string]token.Type),
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// IsFunctionLike reports whether s is a Function or Comprehension scope.
// Only function-like scopes skip enclosing class scopes during resolution.
func (s *Scope) IsFunctionLike() bool {
	return s.Kind == ScopeFunction || s.Kind == ScopeComprehension
}

// Define adds a binding to this scope.  It replaces any binding of the same
// name.
func (s *Scope) Define(b *Binding) {
	b.Scope = s
	if _, ok := s.bindings[b.Name]; !ok {
		s.order = append(s.order, b.Name)
	}
	s.bindings[b.Name] = b
}

// LookupLocal returns the binding s itself owns for name.  Redirected names
// have no local binding.
func (s *Scope) LookupLocal(name string) *Binding {
	return s.bindings[name]
}

// Redirect returns the ancestor binding a rebinding declaration in s
// redirects name to, or nil.
func (s *Scope) Redirect(name string) *Binding {
	return s.redirects[name]
}

// Declared returns the declaration (token.GLOBAL or token.NONLOCAL) that
// redirected name in s, or token.INVALID.
func (s *Scope) Declared(name string) token.Type {
	if typ, ok := s.declared[name]; ok {
		return typ
	}
	return token.INVALID
}

// Names returns the names s owns bindings for, in the order they were first
// bound.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.bindings))
	for _, name := range s.order {
		if _, ok := s.bindings[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Bindings returns the bindings owned by s in the order of Names.
func (s *Scope) Bindings() []*Binding {
	var bs []*Binding
	for _, name := range s.Names() {
		bs = append(bs, s.bindings[name])
	}
	return bs
}

// RedirectedNames returns the names redirected by rebinding declarations in
// s, sorted.
func (s *Scope) RedirectedNames() []string {
	names := make([]string, 0, len(s.redirects))
	for name := range s.redirects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Span returns the source range of the node that introduced s.
func (s *Scope) Span() (start, end *token.Location) {
	if s.Node == nil {
		return nil, nil
	}
	return s.Node.Span()
}

// Contains reports whether the byte offset lies within the span of s.  The
// module scope contains every offset.  Parts of the node that are evaluated
// in the enclosing scope, such as decorators, parameter defaults and class
// bases, are not contained.
func (s *Scope) Contains(offset int) bool {
	if s.Kind == ScopeModule {
		return true
	}
	start, end := s.Span()
	if start == nil || end == nil {
		return false
	}
	if offset < start.Pos || offset >= end.Pos {
		return false
	}
	for _, n := range evaluatedOutside(s.Node) {
		if x0, x1 := n.Span(); x0 != nil && x1 != nil && x0.Pos <= offset && offset < x1.Pos {
			return false
		}
	}
	return true
}

// evaluatedOutside returns the parts of a scope-creating node that belong to
// the enclosing scope.
func evaluatedOutside(node syntax.Node) []syntax.Node {
	var out []syntax.Node
	add := func(x syntax.Expr) {
		if x != nil {
			out = append(out, x)
		}
	}
	params := func(params []*syntax.Param) {
		for _, p := range params {
			if p != nil {
				add(p.Annotation)
				add(p.Default)
			}
		}
	}
	switch n := node.(type) {
	case *syntax.DefStmt:
		for _, d := range n.Decorators {
			out = append(out, d)
		}
		if n.Name != nil {
			out = append(out, n.Name)
		}
		params(n.Params)
		add(n.Result)
	case *syntax.ClassStmt:
		for _, d := range n.Decorators {
			out = append(out, d)
		}
		if n.Name != nil {
			out = append(out, n.Name)
		}
		for _, arg := range n.Args {
			add(arg)
		}
	case *syntax.LambdaExpr:
		params(n.Params)
	case *syntax.Comprehension:
		if len(n.Clauses) > 0 {
			if first, ok := n.Clauses[0].(*syntax.ForClause); ok {
				add(first.X)
			}
		}
	}
	return out
}

// Depth returns the number of ancestors of s.
func (s *Scope) Depth() int {
	depth := 0
	for p := s.Parent; p != nil; p = p.Parent {
		depth++
	}
	return depth
}

// lookup returns the binding name denotes in s, following a redirect.
func (s *Scope) lookup(name string) (b *Binding, ambiguous bool) {
	local, redirect := s.bindings[name], s.redirects[name]
	if local != nil && redirect != nil {
		return nil, true
	}
	if local != nil {
		return local, false
	}
	return redirect, false
}

// enclosingFunction returns the nearest function scope enclosing s, passing
// through class scopes.
func (s *Scope) enclosingFunction() *Scope {
	for p := s.Parent; p != nil; p = p.Parent {
		if p.Kind == ScopeFunction {
			return p
		}
		if p.Kind == ScopeModule {
			return nil
		}
	}
	return nil
}

// Resolve returns the binding name denotes when read from scope, or nil when
// the name is free.  Class scopes other than scope itself are passed through
// without a lookup.
func Resolve(scope *Scope, name string) *Binding {
	b, _ := resolve(scope, name)
	return b
}

// resolve is Resolve reporting the scope whose name table was found to be
// inconsistent, if any.
func resolve(scope *Scope, name string) (b *Binding, ambiguousIn *Scope) {
	for s := scope; s != nil; s = s.Parent {
		if s.Kind == ScopeClass && s != scope {
			continue
		}
		found, ambiguous := s.lookup(name)
		if ambiguous {
			return nil, s
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}

// Path returns the scopes consulted when resolving a name from scope, in
// order, honouring the class-skip rule.
func Path(scope *Scope) []*Scope {
	var path []*Scope
	for s := scope; s != nil; s = s.Parent {
		if s.Kind == ScopeClass && s != scope {
			continue
		}
		path = append(path, s)
	}
	return path
}
