// Copyright © 2024 The ELPS authors

// Package analysis resolves every identifier occurrence of a parsed Python
// source unit to the binding it denotes.
//
// Analysis runs in two traversals.  The first builds the scope tree and
// classifies every binding occurrence into the scope that owns it, applying
// whole-body hoisting and global/nonlocal redirects.  The second resolves
// each occurrence by walking the scope chain outward, passing through class
// scopes that do not directly contain the occurrence.  The result is a
// Graph mapping bindings to their occurrences.
//
// Analysis never modifies the syntax tree and keeps no state between calls,
// so independent units may be analyzed concurrently.
package analysis

import (
	"fmt"

	"github.com/luthersystems/pyscope/syntax"
)

// Config controls the behavior of the analyzer.
type Config struct {
	// Universe holds the names injected by the runtime.  Unresolved
	// occurrences of these names are marked Predeclared.  Defaults to
	// Builtins.
	Universe *Universe

	// Filename is the source file being analyzed.  It locates structural
	// errors in trees that lack positions.
	Filename string
}

// Result holds the output of semantic analysis.
type Result struct {
	Root        *Scope
	Graph       *Graph
	Diagnostics []Diagnostic
}

// Analyze builds the scope tree of file and resolves every occurrence.  A
// tree violating the syntax contract yields a *StructuralError and no
// Result.
func Analyze(file *syntax.File, cfg *Config) (res *Result, err error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if file == nil {
		return nil, &StructuralError{Msg: "nil file"}
	}
	universe := cfg.Universe
	if universe == nil {
		universe = Builtins
	}

	b := &builder{cfg: cfg}
	defer func() {
		if r := recover(); r != nil {
			bail, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			res, err = nil, bail.err
		}
	}()

	// Pass 1: scope tree, occurrences and binding candidates.
	b.file(file)
	for _, s := range b.scopes {
		b.declare(s)
	}
	// Pass 2: rebinding declarations, parents before children.
	for _, s := range b.scopes {
		b.rebind(s)
	}

	r := &resolver{universe: universe}
	r.scope(b.root)
	if r.err != nil {
		return nil, r.err
	}
	return &Result{
		Root:        b.root,
		Graph:       newGraph(universe, b.scopes, r.occs),
		Diagnostics: b.diags,
	}, nil
}

// resolver attaches every occurrence to its binding.  It traverses the
// scope tree depth-first.
type resolver struct {
	universe *Universe
	occs     []*Occurrence
	err      *StructuralError
}

func (r *resolver) scope(s *Scope) {
	for _, occ := range s.occs {
		if r.err != nil {
			return
		}
		r.occurrence(occ)
	}
	for _, child := range s.Children {
		r.scope(child)
	}
}

func (r *resolver) occurrence(occ *Occurrence) {
	name := occ.Name()
	b, ambiguousIn := resolve(occ.Scope, name)
	if ambiguousIn != nil {
		r.err = &StructuralError{
			Source:   occ.Start(),
			Internal: true,
			Msg: fmt.Sprintf("ambiguous resolution of %q in %s scope %s: local %s binding and redirect to %s scope %s",
				name, ambiguousIn.Kind, ambiguousIn.Name,
				ambiguousIn.bindings[name].Kind,
				ambiguousIn.redirects[name].Scope.Kind, ambiguousIn.redirects[name].Scope.Name),
		}
		return
	}
	if occ.Site.Role() == Write && b == nil {
		r.err = &StructuralError{
			Source:   occ.Start(),
			Internal: true,
			Msg:      fmt.Sprintf("write of %q has no binding", name),
		}
		return
	}
	occ.binding = b
	occ.predeclared = b == nil && r.universe.Has(name)
	r.occs = append(r.occs, occ)
}
