// Copyright © 2024 The ELPS authors

package lint

import "github.com/luthersystems/pyscope/analysis"

// WalkScopes calls fn for every scope in the tree rooted at root, depth-first
// in pre-order.  depth is zero for root.
func WalkScopes(root *analysis.Scope, fn func(scope *analysis.Scope, depth int)) {
	walkScope(root, 0, fn)
}

func walkScope(s *analysis.Scope, depth int, fn func(*analysis.Scope, int)) {
	if s == nil {
		return
	}
	fn(s, depth)
	for _, child := range s.Children {
		walkScope(child, depth+1, fn)
	}
}

// Reads returns the number of occurrences reading b.  Rebinding
// declarations do not count as reads.
func Reads(g *analysis.Graph, b *analysis.Binding) int {
	n := 0
	for _, o := range g.Occurrences(b) {
		if o.Site == analysis.SiteRead {
			n++
		}
	}
	return n
}

// escapes reports whether b is referenced from a scope other than its own.
func escapes(g *analysis.Graph, b *analysis.Binding) bool {
	for _, o := range g.Occurrences(b) {
		if o.Scope != b.Scope {
			return true
		}
	}
	return false
}

// Writes returns the number of occurrences writing b.
func Writes(g *analysis.Graph, b *analysis.Binding) int {
	n := 0
	for _, o := range g.Occurrences(b) {
		if o.Role() == analysis.Write {
			n++
		}
	}
	return n
}
