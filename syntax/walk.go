// Copyright © 2024 The ELPS authors

package syntax

// Walk calls fn for every node in the tree rooted at n, depth-first, in
// source order.  parent is nil for n itself.  When fn returns false the
// children of node are not visited.
func Walk(n Node, fn func(node Node, parent Node, depth int) bool) {
	walkNode(n, nil, 0, fn)
}

func walkNode(node Node, parent Node, depth int, fn func(Node, Node, int) bool) {
	if isNil(node) {
		return
	}
	if !fn(node, parent, depth) {
		return
	}
	for _, child := range Children(node) {
		walkNode(child, node, depth+1, fn)
	}
}

// Idents returns every identifier in the tree rooted at n in source order.
// Attribute names, keyword argument names and import paths are included;
// callers that need variable references should consult the resolver.
func Idents(n Node) []*Ident {
	var ids []*Ident
	Walk(n, func(node Node, _ Node, _ int) bool {
		if id, ok := node.(*Ident); ok {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var c children
	switch n := n.(type) {
	case *File:
		c.stmts(n.Stmts)
	case *ExprStmt:
		c.add(n.X)
	case *AssignStmt:
		for _, lhs := range n.LHS {
			c.add(lhs)
		}
		c.add(n.Annotation)
		c.add(n.RHS)
	case *DefStmt:
		for _, d := range n.Decorators {
			c.add(d)
		}
		c.add(n.Name)
		for _, p := range n.Params {
			c.add(p)
		}
		c.add(n.Result)
		c.stmts(n.Body)
	case *ClassStmt:
		for _, d := range n.Decorators {
			c.add(d)
		}
		c.add(n.Name)
		c.exprs(n.Args)
		c.stmts(n.Body)
	case *Decorator:
		c.add(n.X)
	case *Param:
		c.add(n.Name)
		c.add(n.Annotation)
		c.add(n.Default)
	case *RebindStmt:
		for _, id := range n.Names {
			c.add(id)
		}
	case *ReturnStmt:
		c.add(n.Result)
	case *IfStmt:
		c.add(n.Cond)
		c.stmts(n.True)
		c.stmts(n.False)
	case *ForStmt:
		c.add(n.Vars)
		c.add(n.X)
		c.stmts(n.Body)
		c.stmts(n.Else)
	case *WhileStmt:
		c.add(n.Cond)
		c.stmts(n.Body)
		c.stmts(n.Else)
	case *WithStmt:
		for _, item := range n.Items {
			c.add(item)
		}
		c.stmts(n.Body)
	case *WithItem:
		c.add(n.X)
		c.add(n.Target)
	case *TryStmt:
		c.stmts(n.Body)
		for _, h := range n.Handlers {
			c.add(h)
		}
		c.stmts(n.Else)
		c.stmts(n.Finally)
	case *ExceptClause:
		c.add(n.Type)
		c.add(n.Name)
		c.stmts(n.Body)
	case *ImportStmt:
		for _, id := range n.Module {
			c.add(id)
		}
		for _, name := range n.Names {
			c.add(name)
		}
	case *ImportName:
		for _, id := range n.Path {
			c.add(id)
		}
		c.add(n.Alias)
	case *DelStmt:
		c.exprs(n.Targets)
	case *RaiseStmt:
		c.add(n.X)
		c.add(n.Cause)
	case *AssertStmt:
		c.add(n.Cond)
		c.add(n.Msg)
	case *BinaryExpr:
		c.add(n.X)
		c.add(n.Y)
	case *UnaryExpr:
		c.add(n.X)
	case *NamedExpr:
		c.add(n.Name)
		c.add(n.Value)
	case *Literal:
		c.exprs(n.Fields)
	case *CondExpr:
		c.add(n.True)
		c.add(n.Cond)
		c.add(n.False)
	case *CallExpr:
		c.add(n.Fn)
		c.exprs(n.Args)
	case *KeywordArg:
		c.add(n.Name)
		c.add(n.Value)
	case *StarExpr:
		c.add(n.X)
	case *DotExpr:
		c.add(n.X)
		c.add(n.Name)
	case *IndexExpr:
		c.add(n.X)
		c.add(n.Y)
	case *SliceExpr:
		c.add(n.Lo)
		c.add(n.Hi)
		c.add(n.Step)
	case *TupleExpr:
		c.exprs(n.List)
	case *ListExpr:
		c.exprs(n.List)
	case *SetExpr:
		c.exprs(n.List)
	case *DictExpr:
		for _, e := range n.List {
			c.add(e)
		}
	case *DictEntry:
		c.add(n.Key)
		c.add(n.Value)
	case *LambdaExpr:
		for _, p := range n.Params {
			c.add(p)
		}
		c.add(n.Body)
	case *Comprehension:
		c.add(n.Body)
		for _, cl := range n.Clauses {
			c.add(cl)
		}
	case *ForClause:
		c.add(n.Vars)
		c.add(n.X)
	case *IfClause:
		c.add(n.Cond)
	case *YieldExpr:
		c.add(n.X)
	}
	return c
}

type children []Node

func (c *children) add(n Node) {
	if !isNil(n) {
		*c = append(*c, n)
	}
}

func (c *children) stmts(stmts []Stmt) {
	for _, s := range stmts {
		c.add(s)
	}
}

func (c *children) exprs(exprs []Expr) {
	for _, x := range exprs {
		c.add(x)
	}
}

// isNil reports whether n is nil, including the typed nil pointers held by
// optional fields.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Ident:
		return n == nil
	case *Param:
		return n == nil
	case *Decorator:
		return n == nil
	case *ImportName:
		return n == nil
	case *WithItem:
		return n == nil
	case *ExceptClause:
		return n == nil
	case *DictEntry:
		return n == nil
	}
	return false
}
