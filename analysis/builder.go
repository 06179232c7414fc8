// Copyright © 2024 The ELPS authors

package analysis

import (
	"fmt"

	"github.com/luthersystems/pyscope/parser/token"
	"github.com/luthersystems/pyscope/syntax"
)

// builder walks a file once, creating the scope tree and recording every
// identifier occurrence along with the binding candidates of each scope.
// Bindings are created afterwards by declare and rebind, scope by scope.
type builder struct {
	cfg    *Config
	root   *Scope
	scopes []*Scope // pre-order
	diags  []Diagnostic
}

// bailout aborts the build with a structural error.
type bailout struct {
	err *StructuralError
}

func (b *builder) errorf(loc *token.Location, format string, v ...interface{}) {
	if loc == nil {
		loc = &token.Location{File: b.cfg.Filename, Pos: -1}
	}
	panic(bailout{&StructuralError{Source: loc, Msg: fmt.Sprintf(format, v...)}})
}

func (b *builder) newScope(kind ScopeKind, parent *Scope, node syntax.Node, name string) *Scope {
	s := NewScope(kind, parent, node)
	s.Name = name
	b.scopes = append(b.scopes, s)
	return s
}

func (b *builder) file(f *syntax.File) {
	b.root = b.newScope(ScopeModule, nil, f, "<module>")
	b.stmts(b.root, f.Stmts)
}

func (b *builder) stmts(scope *Scope, stmts []syntax.Stmt) {
	for _, stmt := range stmts {
		b.stmt(scope, stmt)
	}
}

func (b *builder) stmt(scope *Scope, stmt syntax.Stmt) {
	switch syntax.Classify(stmt) {
	case syntax.ClassSimpleAssign, syntax.ClassUnpackAssign:
		b.assign(scope, stmt.(*syntax.AssignStmt))
	case syntax.ClassFunctionDef:
		b.def(scope, stmt.(*syntax.DefStmt))
	case syntax.ClassClassDef:
		b.class(scope, stmt.(*syntax.ClassStmt))
	case syntax.ClassRebind:
		b.rebindStmt(scope, stmt.(*syntax.RebindStmt))
	case syntax.ClassImport:
		b.importStmt(scope, stmt.(*syntax.ImportStmt))
	case syntax.ClassCompound:
		b.compound(scope, stmt)
	case syntax.ClassComprehension, syntax.ClassExpression:
		b.simple(scope, stmt)
	default:
		if _, ok := stmt.(*syntax.BranchStmt); !ok {
			b.errorf(nil, "unexpected statement %T", stmt)
		}
	}
}

func (b *builder) assign(scope *Scope, stmt *syntax.AssignStmt) {
	b.expr(scope, stmt.Annotation)
	b.expr(scope, stmt.RHS)
	for _, lhs := range stmt.LHS {
		b.target(scope, lhs)
	}
}

func (b *builder) def(scope *Scope, def *syntax.DefStmt) {
	for _, d := range def.Decorators {
		b.expr(scope, d.X)
	}
	b.paramExprs(scope, def.Params)
	b.expr(scope, def.Result)
	b.bind(scope, b.ident(def.Name, def.Def), SiteDeclare, BindFunction)

	fn := b.newScope(ScopeFunction, scope, def, def.Name.Name)
	b.params(fn, def.Params)
	b.stmts(fn, def.Body)
}

// paramExprs records defaults and annotations, which are evaluated in the
// scope containing the definition.
func (b *builder) paramExprs(scope *Scope, params []*syntax.Param) {
	for _, p := range params {
		if p == nil {
			b.errorf(nil, "nil parameter")
		}
		b.expr(scope, p.Annotation)
		b.expr(scope, p.Default)
	}
}

func (b *builder) params(fn *Scope, params []*syntax.Param) {
	for _, p := range params {
		switch p.Kind {
		case syntax.ParamStar, syntax.ParamSlash:
			continue
		}
		b.bind(fn, b.ident(p.Name, p.Pos), SiteDeclare, BindParameter)
	}
}

func (b *builder) class(scope *Scope, class *syntax.ClassStmt) {
	for _, d := range class.Decorators {
		b.expr(scope, d.X)
	}
	for _, arg := range class.Args {
		b.expr(scope, arg)
	}
	b.bind(scope, b.ident(class.Name, class.Class), SiteDeclare, BindClass)

	body := b.newScope(ScopeClass, scope, class, class.Name.Name)
	b.stmts(body, class.Body)
}

func (b *builder) rebindStmt(scope *Scope, stmt *syntax.RebindStmt) {
	if stmt.Token != token.GLOBAL && stmt.Token != token.NONLOCAL {
		b.errorf(stmt.Pos, "unexpected rebinding declaration %v", stmt.Token)
	}
	for _, id := range stmt.Names {
		occ := b.use(scope, b.ident(id, stmt.Pos), SiteRebind)
		scope.rebinds = append(scope.rebinds, pendingRebind{decl: stmt.Token, occ: occ})
	}
}

func (b *builder) importStmt(scope *Scope, stmt *syntax.ImportStmt) {
	for _, name := range stmt.Names {
		if name == nil || len(name.Path) == 0 {
			b.errorf(stmt.Import, "import without a name")
		}
		b.bind(scope, b.ident(name.Bound(), stmt.Import), SiteDeclare, BindImport)
	}
}

// compound records a block statement.  Its bodies belong to scope.
func (b *builder) compound(scope *Scope, stmt syntax.Stmt) {
	switch stmt := stmt.(type) {
	case *syntax.IfStmt:
		b.expr(scope, stmt.Cond)
		b.stmts(scope, stmt.True)
		b.stmts(scope, stmt.False)
	case *syntax.ForStmt:
		b.expr(scope, stmt.X)
		b.target(scope, stmt.Vars)
		b.stmts(scope, stmt.Body)
		b.stmts(scope, stmt.Else)
	case *syntax.WhileStmt:
		b.expr(scope, stmt.Cond)
		b.stmts(scope, stmt.Body)
		b.stmts(scope, stmt.Else)
	case *syntax.WithStmt:
		for _, item := range stmt.Items {
			b.expr(scope, item.X)
			if item.Target != nil {
				b.target(scope, item.Target)
			}
		}
		b.stmts(scope, stmt.Body)
	case *syntax.TryStmt:
		b.stmts(scope, stmt.Body)
		for _, h := range stmt.Handlers {
			b.expr(scope, h.Type)
			if h.Name != nil {
				b.bind(scope, h.Name, SiteAssign, BindAssignment)
			}
			b.stmts(scope, h.Body)
		}
		b.stmts(scope, stmt.Else)
		b.stmts(scope, stmt.Finally)
	}
}

// simple records the expressions of a statement that binds nothing, except
// del whose targets are writes.
func (b *builder) simple(scope *Scope, stmt syntax.Stmt) {
	switch stmt := stmt.(type) {
	case *syntax.ExprStmt:
		b.expr(scope, stmt.X)
	case *syntax.ReturnStmt:
		b.expr(scope, stmt.Result)
	case *syntax.RaiseStmt:
		b.expr(scope, stmt.X)
		b.expr(scope, stmt.Cause)
	case *syntax.AssertStmt:
		b.expr(scope, stmt.Cond)
		b.expr(scope, stmt.Msg)
	case *syntax.DelStmt:
		for _, x := range stmt.Targets {
			b.target(scope, x)
		}
	}
}

// target records the names bound by an assignment target.
func (b *builder) target(scope *Scope, x syntax.Expr) {
	switch x := x.(type) {
	case *syntax.Ident:
		b.bind(scope, x, SiteAssign, BindAssignment)
	case *syntax.TupleExpr:
		for _, elem := range x.List {
			b.target(scope, elem)
		}
	case *syntax.ListExpr:
		for _, elem := range x.List {
			b.target(scope, elem)
		}
	case *syntax.StarExpr:
		b.target(scope, x.X)
	case *syntax.DotExpr:
		b.expr(scope, x.X)
	case *syntax.IndexExpr:
		b.expr(scope, x.X)
		b.expr(scope, x.Y)
	case nil:
		b.errorf(nil, "missing assignment target")
	default:
		b.errorf(syntax.Start(x), "invalid assignment target %T", x)
	}
}

func (b *builder) exprs(scope *Scope, xs []syntax.Expr) {
	for _, x := range xs {
		b.expr(scope, x)
	}
}

// expr records the reads of an expression.  Keyword argument names and
// attribute names are not occurrences.
func (b *builder) expr(scope *Scope, x syntax.Expr) {
	switch x := x.(type) {
	case nil:
	case *syntax.Ident:
		b.use(scope, x, SiteRead)
	case *syntax.Literal:
		b.exprs(scope, x.Fields)
	case *syntax.NamedExpr:
		b.expr(scope, x.Value)
		b.namedTarget(scope, x)
	case *syntax.CallExpr:
		b.expr(scope, x.Fn)
		b.exprs(scope, x.Args)
	case *syntax.KeywordArg:
		b.expr(scope, x.Value)
	case *syntax.StarExpr:
		b.expr(scope, x.X)
	case *syntax.DotExpr:
		b.expr(scope, x.X)
	case *syntax.IndexExpr:
		b.expr(scope, x.X)
		b.expr(scope, x.Y)
	case *syntax.SliceExpr:
		b.expr(scope, x.Lo)
		b.expr(scope, x.Hi)
		b.expr(scope, x.Step)
	case *syntax.TupleExpr:
		b.exprs(scope, x.List)
	case *syntax.ListExpr:
		b.exprs(scope, x.List)
	case *syntax.SetExpr:
		b.exprs(scope, x.List)
	case *syntax.DictExpr:
		for _, e := range x.List {
			b.expr(scope, e)
		}
	case *syntax.DictEntry:
		b.expr(scope, x.Key)
		b.expr(scope, x.Value)
	case *syntax.UnaryExpr:
		b.expr(scope, x.X)
	case *syntax.BinaryExpr:
		b.expr(scope, x.X)
		b.expr(scope, x.Y)
	case *syntax.CondExpr:
		b.expr(scope, x.Cond)
		b.expr(scope, x.True)
		b.expr(scope, x.False)
	case *syntax.YieldExpr:
		b.expr(scope, x.X)
	case *syntax.LambdaExpr:
		b.paramExprs(scope, x.Params)
		fn := b.newScope(ScopeFunction, scope, x, "<lambda>")
		b.params(fn, x.Params)
		b.expr(fn, x.Body)
	case *syntax.Comprehension:
		b.comprehension(scope, x)
	default:
		b.errorf(syntax.Start(x), "unexpected expression %T", x)
	}
}

// comprehension records a comprehension.  The first iterable is evaluated
// in the enclosing scope; everything else lives in the comprehension's own
// scope.
func (b *builder) comprehension(scope *Scope, comp *syntax.Comprehension) {
	if len(comp.Clauses) == 0 {
		b.errorf(comp.Lbrack, "comprehension without a for clause")
	}
	first, ok := comp.Clauses[0].(*syntax.ForClause)
	if !ok {
		b.errorf(comp.Lbrack, "comprehension must begin with a for clause")
	}
	b.expr(scope, first.X)

	inner := b.newScope(ScopeComprehension, scope, comp, comprehensionName(comp))
	for i, clause := range comp.Clauses {
		switch clause := clause.(type) {
		case *syntax.ForClause:
			if i > 0 {
				b.expr(inner, clause.X)
			}
			b.target(inner, clause.Vars)
		case *syntax.IfClause:
			b.expr(inner, clause.Cond)
		default:
			b.errorf(comp.Lbrack, "unexpected comprehension clause %T", clause)
		}
	}
	b.expr(inner, comp.Body)
}

// namedTarget binds the target of an assignment expression.  Inside a
// comprehension the name belongs to the nearest enclosing scope that is not
// a comprehension.
func (b *builder) namedTarget(scope *Scope, x *syntax.NamedExpr) {
	target := scope
	for target.Kind == ScopeComprehension && target.Parent != nil {
		target = target.Parent
	}
	if target != scope {
		if target.Kind == ScopeClass {
			b.diags = append(b.diags, Diagnostic{
				Kind:     InvalidRebinding,
				Severity: SeverityError,
				Name:     x.Name.Name,
				Source:   x.Name.NamePos,
				Message:  "assignment expression within a comprehension cannot be used in a class body",
			})
		}
		for s := scope; s != target; s = s.Parent {
			if s.pendingBinds(x.Name.Name) {
				b.diags = append(b.diags, Diagnostic{
					Kind:     InvalidRebinding,
					Severity: SeverityError,
					Name:     x.Name.Name,
					Source:   x.Name.NamePos,
					Message:  fmt.Sprintf("assignment expression cannot rebind comprehension iteration variable %q", x.Name.Name),
				})
				break
			}
		}
	}
	b.bind(target, b.ident(x.Name, x.ColonEq), SiteAssign, BindAssignment)
}

func comprehensionName(comp *syntax.Comprehension) string {
	switch comp.Kind {
	case token.BRACK_L:
		return "<listcomp>"
	case token.BRACE_L:
		if _, ok := comp.Body.(*syntax.DictEntry); ok {
			return "<dictcomp>"
		}
		return "<setcomp>"
	default:
		return "<genexpr>"
	}
}

// ident checks that a required identifier is present and located.
func (b *builder) ident(id *syntax.Ident, context *token.Location) *syntax.Ident {
	if id == nil {
		b.errorf(context, "missing identifier")
	}
	return id
}

// use records an occurrence of id in scope.
func (b *builder) use(scope *Scope, id *syntax.Ident, site Site) *Occurrence {
	if id == nil {
		b.errorf(nil, "missing identifier")
	}
	if id.NamePos == nil {
		b.errorf(nil, "identifier %q has no position", id.Name)
	}
	occ := &Occurrence{Ident: id, Scope: scope, Site: site}
	scope.occs = append(scope.occs, occ)
	return occ
}

// bind records a writing occurrence of id and a binding candidate in scope.
func (b *builder) bind(scope *Scope, id *syntax.Ident, site Site, kind BindingKind) {
	occ := b.use(scope, id, site)
	scope.pending = append(scope.pending, pendingDecl{kind: kind, occ: occ})
}

// declare creates the bindings of s from its candidates.  Every name written
// anywhere in the body is local to the whole body.  Parameters keep their
// kind; otherwise the last textual candidate defines the kind.
func (b *builder) declare(s *Scope) {
	for _, d := range s.pending {
		name := d.occ.Name()
		existing := s.bindings[name]
		if existing == nil {
			s.Define(&Binding{Name: name, Kind: d.kind, Def: d.occ})
			continue
		}
		if before(d.occ, existing.Def) {
			existing.Def = d.occ
		}
		if existing.Kind != BindParameter {
			existing.Kind = d.kind
		}
	}
	s.pending = nil
}

// rebind applies the global and nonlocal declarations of s.  Parents are
// processed before their children, so the target scope's own bindings are
// already declared.
func (b *builder) rebind(s *Scope) {
	first := make(map[string]pendingRebind)
	for _, r := range s.rebinds {
		name := r.occ.Name()
		if prev, ok := first[name]; ok {
			if prev.decl != r.decl {
				b.diags = append(b.diags, Diagnostic{
					Kind:     RedeclarationConflict,
					Severity: SeverityError,
					Name:     name,
					Source:   r.occ.Start(),
					Related:  prev.occ.Start(),
					Message:  fmt.Sprintf("name %q is declared both %s and %s", name, prev.decl, r.decl),
				})
			}
			continue
		}
		first[name] = r
		b.redirect(s, r.occ, r.decl)
	}
	s.rebinds = nil
}

func (b *builder) redirect(s *Scope, occ *Occurrence, decl token.Type) {
	name := occ.Name()
	if s.Kind == ScopeModule {
		if decl == token.NONLOCAL {
			b.invalid(occ, SeverityError, "nonlocal declaration not allowed at module level")
		}
		return
	}
	if local := s.bindings[name]; local != nil && local.Kind == BindParameter {
		b.invalid(occ, SeverityError, fmt.Sprintf("name %q is parameter and %s", name, decl))
		return
	}

	var target *Binding
	switch decl {
	case token.GLOBAL:
		target = b.root.bindings[name]
		if target == nil {
			target = &Binding{Name: name, Kind: BindImportedGlobal}
			b.root.Define(target)
		}
	case token.NONLOCAL:
		target = b.nonlocalTarget(s, occ)
		if target == nil {
			return
		}
	}
	delete(s.bindings, name)
	s.redirects[name] = target
	s.declared[name] = decl
}

// nonlocalTarget finds the binding a nonlocal declaration in s refers to:
// the nearest enclosing function that binds the name or itself redirects it
// with nonlocal.  A global declaration in between hides every outer binding.
func (b *builder) nonlocalTarget(s *Scope, occ *Occurrence) *Binding {
	name := occ.Name()
	nearest := s.enclosingFunction()
	if nearest == nil {
		b.invalid(occ, SeverityError, fmt.Sprintf("no enclosing function for nonlocal %q", name))
		return nil
	}
search:
	for fn := nearest; fn != nil; fn = fn.enclosingFunction() {
		if local := fn.bindings[name]; local != nil {
			return local
		}
		switch fn.declared[name] {
		case token.NONLOCAL:
			return fn.redirects[name]
		case token.GLOBAL:
			break search
		}
	}
	b.invalid(occ, SeverityWarning, fmt.Sprintf("no binding for nonlocal %q found", name))
	if r := nearest.redirects[name]; r != nil {
		return r
	}
	target := &Binding{Name: name, Kind: BindImportedGlobal}
	nearest.Define(target)
	return target
}

func (b *builder) invalid(occ *Occurrence, sev Severity, msg string) {
	b.diags = append(b.diags, Diagnostic{
		Kind:     InvalidRebinding,
		Severity: sev,
		Name:     occ.Name(),
		Source:   occ.Start(),
		Message:  msg,
	})
}

func before(a, b *Occurrence) bool {
	if b == nil {
		return true
	}
	return a.Start().Pos < b.Start().Pos
}
