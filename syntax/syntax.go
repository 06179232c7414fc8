// Copyright © 2024 The ELPS authors

// Package syntax defines the syntax tree consumed by the scope resolver.
//
// The node set is closed: every statement and expression produced by the
// parser is one of the types declared here.  Trees are never modified after
// parsing, so a tree may be analyzed any number of times, concurrently.
package syntax

import "github.com/luthersystems/pyscope/parser/token"

// A Node is a node in a syntax tree.
type Node interface {
	// Span returns the start and end position of the node.  The end
	// position is just beyond the last rune of the node.
	Span() (start, end *token.Location)
}

// Start returns the start position of n.
func Start(n Node) *token.Location {
	start, _ := n.Span()
	return start
}

// End returns the end position of n.
func End(n Node) *token.Location {
	_, end := n.Span()
	return end
}

// A File represents a parsed source unit.
type File struct {
	Path     string
	Stmts    []Stmt
	Comments []*token.Token
	EOF      *token.Location
}

func (x *File) Span() (start, end *token.Location) {
	if len(x.Stmts) == 0 {
		loc := &token.Location{File: x.Path, Line: 1, Col: 1}
		if x.EOF != nil {
			return loc, x.EOF
		}
		return loc, loc
	}
	start = Start(x.Stmts[0])
	end = End(x.Stmts[len(x.Stmts)-1])
	return &token.Location{File: start.File, Path: start.Path, Line: 1, Col: 1}, end
}

// A Stmt is a statement.
type Stmt interface {
	Node
	stmt()
}

func (*AssertStmt) stmt() {}
func (*AssignStmt) stmt() {}
func (*BranchStmt) stmt() {}
func (*ClassStmt) stmt()  {}
func (*DefStmt) stmt()    {}
func (*DelStmt) stmt()    {}
func (*ExprStmt) stmt()   {}
func (*ForStmt) stmt()    {}
func (*IfStmt) stmt()     {}
func (*ImportStmt) stmt() {}
func (*RaiseStmt) stmt()  {}
func (*RebindStmt) stmt() {}
func (*ReturnStmt) stmt() {}
func (*TryStmt) stmt()    {}
func (*WhileStmt) stmt()  {}
func (*WithStmt) stmt()   {}

// An AssignStmt represents an assignment:
//
//	x = 0
//	x, *y = y = f()
//	x += 1
//	x: int = 2
//
// Chained assignments list every target in LHS.  An annotated declaration
// without a value has a nil RHS.
type AssignStmt struct {
	OpPos      *token.Location
	Op         token.Type // ASSIGN | PLUS_EQ | ... | XOR_EQ
	LHS        []Expr
	Annotation Expr // optional
	RHS        Expr // nil only for a bare annotation
}

func (x *AssignStmt) Span() (start, end *token.Location) {
	start = Start(x.LHS[0])
	switch {
	case x.RHS != nil:
		end = End(x.RHS)
	case x.Annotation != nil:
		end = End(x.Annotation)
	default:
		end = End(x.LHS[len(x.LHS)-1])
	}
	return start, end
}

// Augmented reports whether x is an augmented assignment such as x += 1.
func (x *AssignStmt) Augmented() bool {
	return x.Op != token.ASSIGN
}

// ParamKind distinguishes the forms a formal parameter may take.
type ParamKind uint8

const (
	ParamPlain  ParamKind = iota // name, name=default
	ParamVarArg                  // *name
	ParamKwArg                   // **name
	ParamStar                    // bare * separating keyword-only parameters
	ParamSlash                   // bare / ending positional-only parameters
)

// A Param is a formal parameter of a DefStmt or LambdaExpr.
type Param struct {
	Pos        *token.Location // position of the name or of the leading * or **
	Kind       ParamKind
	Name       *Ident // nil for ParamStar and ParamSlash
	Annotation Expr   // optional
	Default    Expr   // optional
}

func (x *Param) Span() (start, end *token.Location) {
	switch {
	case x.Default != nil:
		end = End(x.Default)
	case x.Annotation != nil:
		end = End(x.Annotation)
	case x.Name != nil:
		end = End(x.Name)
	default:
		end = x.Pos.Advance("*")
	}
	return x.Pos, end
}

// A DefStmt represents a function definition.
type DefStmt struct {
	Decorators []*Decorator
	Async      *token.Location // nil unless "async def"
	Def        *token.Location
	Name       *Ident
	Params     []*Param
	Result     Expr // return annotation, optional
	Body       []Stmt
}

func (x *DefStmt) Span() (start, end *token.Location) {
	start = x.Def
	if x.Async != nil {
		start = x.Async
	}
	if len(x.Decorators) > 0 {
		start = x.Decorators[0].At
	}
	return start, End(x.Body[len(x.Body)-1])
}

// A Decorator is an expression applied to a function or class definition.
type Decorator struct {
	At *token.Location
	X  Expr
}

func (x *Decorator) Span() (start, end *token.Location) {
	return x.At, End(x.X)
}

// A ClassStmt represents a class definition.  Args holds the base classes
// along with any keyword arguments (e.g. metaclass=M).
type ClassStmt struct {
	Decorators []*Decorator
	Class      *token.Location
	Name       *Ident
	Args       []Expr // optional
	Body       []Stmt
}

func (x *ClassStmt) Span() (start, end *token.Location) {
	start = x.Class
	if len(x.Decorators) > 0 {
		start = x.Decorators[0].At
	}
	return start, End(x.Body[len(x.Body)-1])
}

// A RebindStmt redirects names into an enclosing scope:
//
//	global x, y
//	nonlocal z
type RebindStmt struct {
	Pos   *token.Location
	Token token.Type // GLOBAL | NONLOCAL
	Names []*Ident
}

func (x *RebindStmt) Span() (start, end *token.Location) {
	return x.Pos, End(x.Names[len(x.Names)-1])
}

// An ExprStmt is an expression evaluated for side effects.
type ExprStmt struct {
	X Expr
}

func (x *ExprStmt) Span() (start, end *token.Location) {
	return x.X.Span()
}

// An IfStmt is a conditional: If Cond: True; else: False.
// 'elif' is desugared into a chain of IfStmts.
type IfStmt struct {
	If      *token.Location // IF or ELIF
	Cond    Expr
	True    []Stmt
	ElsePos *token.Location // ELSE or ELIF
	False   []Stmt          // optional
}

func (x *IfStmt) Span() (start, end *token.Location) {
	body := x.False
	if body == nil {
		body = x.True
	}
	return x.If, End(body[len(body)-1])
}

// A ForStmt represents a loop: for Vars in X: Body else: Else.
type ForStmt struct {
	Async *token.Location // nil unless "async for"
	For   *token.Location
	Vars  Expr // name, or tuple of names
	X     Expr
	Body  []Stmt
	Else  []Stmt // optional
}

func (x *ForStmt) Span() (start, end *token.Location) {
	if x.Async != nil {
		return x.Async, endOfBlocks(x.Body, x.Else)
	}
	return x.For, endOfBlocks(x.Body, x.Else)
}

// A WhileStmt represents a loop: while Cond: Body else: Else.
type WhileStmt struct {
	While *token.Location
	Cond  Expr
	Body  []Stmt
	Else  []Stmt // optional
}

func (x *WhileStmt) Span() (start, end *token.Location) {
	return x.While, endOfBlocks(x.Body, x.Else)
}

// A WithStmt represents a context manager block: with X as Target: Body.
type WithStmt struct {
	Async *token.Location // nil unless "async with"
	With  *token.Location
	Items []*WithItem
	Body  []Stmt
}

func (x *WithStmt) Span() (start, end *token.Location) {
	start = x.With
	if x.Async != nil {
		start = x.Async
	}
	return start, End(x.Body[len(x.Body)-1])
}

// A WithItem is one context manager of a WithStmt.
type WithItem struct {
	X      Expr
	Target Expr // optional
}

func (x *WithItem) Span() (start, end *token.Location) {
	if x.Target != nil {
		return Start(x.X), End(x.Target)
	}
	return x.X.Span()
}

// A TryStmt represents exception handling blocks.
type TryStmt struct {
	Try      *token.Location
	Body     []Stmt
	Handlers []*ExceptClause
	Else     []Stmt // optional
	Finally  []Stmt // optional
}

func (x *TryStmt) Span() (start, end *token.Location) {
	end = End(x.Body[len(x.Body)-1])
	if n := len(x.Handlers); n > 0 {
		end = End(x.Handlers[n-1])
	}
	if len(x.Else) > 0 {
		end = End(x.Else[len(x.Else)-1])
	}
	if len(x.Finally) > 0 {
		end = End(x.Finally[len(x.Finally)-1])
	}
	return x.Try, end
}

// An ExceptClause is a single handler: except Type as Name: Body.
type ExceptClause struct {
	Except *token.Location
	Type   Expr   // optional
	Name   *Ident // optional
	Body   []Stmt
}

func (x *ExceptClause) Span() (start, end *token.Location) {
	return x.Except, End(x.Body[len(x.Body)-1])
}

// An ImportStmt represents either form of import:
//
//	import a.b as c, d
//	from ..m import x as y, z
//	from m import *
//
// Module names and imported attribute names are not variable references;
// only the identifier returned by ImportName.Bound introduces a binding.
type ImportStmt struct {
	Import *token.Location // IMPORT or FROM
	From   bool
	Level  int      // leading dots of a relative from-import
	Module []*Ident // dotted module path of a from-import
	Names  []*ImportName
	Star   bool
	EndPos *token.Location
}

func (x *ImportStmt) Span() (start, end *token.Location) {
	return x.Import, x.EndPos
}

// An ImportName is one imported item with an optional alias.
type ImportName struct {
	Path  []*Ident // dotted path; a single name in a from-import
	Alias *Ident   // optional
}

func (x *ImportName) Span() (start, end *token.Location) {
	start = Start(x.Path[0])
	if x.Alias != nil {
		return start, End(x.Alias)
	}
	return start, End(x.Path[len(x.Path)-1])
}

// Bound returns the identifier that the import binds in the current scope.
// A plain "import a.b" binds the first component of the path.
func (x *ImportName) Bound() *Ident {
	if x.Alias != nil {
		return x.Alias
	}
	return x.Path[0]
}

// A DelStmt removes bindings or items: del x, y[0].
type DelStmt struct {
	Del     *token.Location
	Targets []Expr
}

func (x *DelStmt) Span() (start, end *token.Location) {
	return x.Del, End(x.Targets[len(x.Targets)-1])
}

// A RaiseStmt raises an exception: raise X from Cause.
type RaiseStmt struct {
	Raise *token.Location
	X     Expr // optional
	Cause Expr // optional
}

func (x *RaiseStmt) Span() (start, end *token.Location) {
	switch {
	case x.Cause != nil:
		return x.Raise, End(x.Cause)
	case x.X != nil:
		return x.Raise, End(x.X)
	}
	return x.Raise, x.Raise.Advance("raise")
}

// An AssertStmt checks a condition: assert Cond, Msg.
type AssertStmt struct {
	Assert *token.Location
	Cond   Expr
	Msg    Expr // optional
}

func (x *AssertStmt) Span() (start, end *token.Location) {
	if x.Msg != nil {
		return x.Assert, End(x.Msg)
	}
	return x.Assert, End(x.Cond)
}

// A BranchStmt changes the flow of control: break, continue, pass.
type BranchStmt struct {
	Token    token.Type // BREAK | CONTINUE | PASS
	TokenPos *token.Location
}

func (x *BranchStmt) Span() (start, end *token.Location) {
	return x.TokenPos, x.TokenPos.Advance(x.Token.String())
}

// A ReturnStmt returns from a function.
type ReturnStmt struct {
	Return *token.Location
	Result Expr // may be nil
}

func (x *ReturnStmt) Span() (start, end *token.Location) {
	if x.Result == nil {
		return x.Return, x.Return.Advance("return")
	}
	return x.Return, End(x.Result)
}

func endOfBlocks(blocks ...[]Stmt) *token.Location {
	var end *token.Location
	for _, b := range blocks {
		if len(b) > 0 {
			end = End(b[len(b)-1])
		}
	}
	return end
}
