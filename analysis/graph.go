// Copyright © 2024 The ELPS authors

package analysis

import (
	"sort"
	"unicode/utf8"
)

// Graph is the reference graph of one analyzed unit.  It is read-only.
type Graph struct {
	universe *Universe
	scopes   []*Scope
	occs     []*Occurrence // source order
	bindings []*Binding    // order of first occurrence
	refs     map[*Binding][]*Occurrence
}

func newGraph(universe *Universe, scopes []*Scope, occs []*Occurrence) *Graph {
	g := &Graph{
		universe: universe,
		scopes:   scopes,
		occs:     append([]*Occurrence(nil), occs...),
		refs:     make(map[*Binding][]*Occurrence),
	}
	sort.SliceStable(g.occs, func(i, j int) bool {
		return g.occs[i].Start().Pos < g.occs[j].Start().Pos
	})
	for _, occ := range g.occs {
		b := occ.binding
		if b == nil {
			continue
		}
		if _, ok := g.refs[b]; !ok {
			g.bindings = append(g.bindings, b)
		}
		g.refs[b] = append(g.refs[b], occ)
	}
	return g
}

// Occurrences returns the occurrences resolved to b in source order.
func (g *Graph) Occurrences(b *Binding) []*Occurrence {
	return g.refs[b]
}

// Outcome returns the resolution of o.
func (g *Graph) Outcome(o *Occurrence) Outcome {
	if o.binding != nil {
		return Outcome{Kind: Resolved, Binding: o.binding}
	}
	return Outcome{Kind: Unresolved, Predeclared: o.predeclared}
}

// Bindings returns every binding with at least one occurrence, ordered by
// its first occurrence.
func (g *Graph) Bindings() []*Binding {
	return g.bindings
}

// AllOccurrences returns every occurrence in source order.
func (g *Graph) AllOccurrences() []*Occurrence {
	return g.occs
}

// Unresolved returns the occurrences that resolved to no binding, including
// predeclared names.
func (g *Graph) Unresolved() []*Occurrence {
	var occs []*Occurrence
	for _, o := range g.occs {
		if o.binding == nil {
			occs = append(occs, o)
		}
	}
	return occs
}

// FreeOccurrences returns the unresolved occurrences of name.
func (g *Graph) FreeOccurrences(name string) []*Occurrence {
	var occs []*Occurrence
	for _, o := range g.occs {
		if o.binding == nil && o.Name() == name {
			occs = append(occs, o)
		}
	}
	return occs
}

// OccurrenceAt returns the occurrence whose identifier covers the byte
// offset, or nil.
func (g *Graph) OccurrenceAt(offset int) *Occurrence {
	i := sort.Search(len(g.occs), func(i int) bool {
		return g.occs[i].End().Pos > offset
	})
	if i < len(g.occs) && g.occs[i].Contains(offset) {
		return g.occs[i]
	}
	return nil
}

// OccurrenceAtLine returns the occurrence covering the 1-based line and
// rune column, or nil.
func (g *Graph) OccurrenceAtLine(line, col int) *Occurrence {
	for _, o := range g.occs {
		start := o.Start()
		if start.Line != line {
			continue
		}
		if start.Col <= col && col < start.Col+utf8.RuneCountInString(o.Name()) {
			return o
		}
	}
	return nil
}

// References returns every occurrence sharing the binding of the occurrence
// at offset.  When that occurrence is unresolved, the unresolved occurrences
// of the same name are returned.
func (g *Graph) References(offset int) []*Occurrence {
	o := g.OccurrenceAt(offset)
	if o == nil {
		return nil
	}
	return g.ReferencesOf(o)
}

// ReferencesOf is References for a known occurrence.
func (g *Graph) ReferencesOf(o *Occurrence) []*Occurrence {
	if o.binding == nil {
		return g.FreeOccurrences(o.Name())
	}
	return g.refs[o.binding]
}

// Definition returns the defining occurrence of the binding o resolves to.
// When the binding has no write in its own scope, its first occurrence is
// returned.  Unresolved occurrences have no definition.
func (g *Graph) Definition(o *Occurrence) *Occurrence {
	b := o.binding
	if b == nil {
		return nil
	}
	if b.Def != nil {
		return b.Def
	}
	if refs := g.refs[b]; len(refs) > 0 {
		return refs[0]
	}
	return nil
}

// ScopeAt returns the innermost scope whose node covers the byte offset.
func (g *Graph) ScopeAt(offset int) *Scope {
	if len(g.scopes) == 0 {
		return nil
	}
	best := g.scopes[0]
	for {
		next := best
		for _, child := range best.Children {
			if child.Contains(offset) {
				next = child
			}
		}
		if next == best {
			return best
		}
		best = next
	}
}

// Predeclared reports whether name belongs to the universe the unit was
// resolved against.
func (g *Graph) Predeclared(name string) bool {
	return g.universe.Has(name)
}

// Scopes returns every scope in pre-order, starting with the module.
func (g *Graph) Scopes() []*Scope {
	return g.scopes
}
