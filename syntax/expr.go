// Copyright © 2024 The ELPS authors

package syntax

import "github.com/luthersystems/pyscope/parser/token"

// An Expr is an expression.
type Expr interface {
	Node
	expr()
}

func (*BinaryExpr) expr()    {}
func (*CallExpr) expr()      {}
func (*Comprehension) expr() {}
func (*CondExpr) expr()      {}
func (*DictEntry) expr()     {}
func (*DictExpr) expr()      {}
func (*DotExpr) expr()       {}
func (*Ident) expr()         {}
func (*IndexExpr) expr()     {}
func (*KeywordArg) expr()    {}
func (*LambdaExpr) expr()    {}
func (*ListExpr) expr()      {}
func (*Literal) expr()       {}
func (*NamedExpr) expr()     {}
func (*SetExpr) expr()       {}
func (*SliceExpr) expr()     {}
func (*StarExpr) expr()      {}
func (*TupleExpr) expr()     {}
func (*UnaryExpr) expr()     {}
func (*YieldExpr) expr()     {}

// An Ident represents an identifier.
type Ident struct {
	NamePos *token.Location
	Name    string
}

func (x *Ident) Span() (start, end *token.Location) {
	return x.NamePos, x.NamePos.Advance(x.Name)
}

// A Literal represents a literal string, number, None, True, False or
// Ellipsis.  Adjacent string literals are merged into a single Literal whose
// Raw text spans all of them.  Fields holds the expressions of the
// replacement fields of formatted string literals, in source order.
type Literal struct {
	Token    token.Type // STRING | INT | FLOAT | NONE | TRUE | FALSE | ELLIPSIS
	TokenPos *token.Location
	Raw      string // uninterpreted text
	Fields   []Expr
}

func (x *Literal) Span() (start, end *token.Location) {
	return x.TokenPos, x.TokenPos.Advance(x.Raw)
}

// A CallExpr represents a function call expression: Fn(Args).  Args may
// contain *KeywordArg and *StarExpr values.
type CallExpr struct {
	Fn     Expr
	Lparen *token.Location
	Args   []Expr
	Rparen *token.Location
}

func (x *CallExpr) Span() (start, end *token.Location) {
	return Start(x.Fn), x.Rparen.Advance(")")
}

// A KeywordArg represents a named argument: Name=Value.  Name is not a
// variable reference.
type KeywordArg struct {
	Name  *Ident
	Value Expr
}

func (x *KeywordArg) Span() (start, end *token.Location) {
	return x.Name.NamePos, End(x.Value)
}

// A StarExpr represents an unpacking: *X or **X.  It appears in call
// arguments, displays and assignment targets.
type StarExpr struct {
	Star *token.Location
	Op   token.Type // STAR | STARSTAR
	X    Expr
}

func (x *StarExpr) Span() (start, end *token.Location) {
	return x.Star, End(x.X)
}

// A DotExpr represents an attribute selector: X.Name.
type DotExpr struct {
	X    Expr
	Dot  *token.Location
	Name *Ident
}

func (x *DotExpr) Span() (start, end *token.Location) {
	return Start(x.X), End(x.Name)
}

// A Comprehension represents a list, set, dict or generator comprehension:
//
//	[Body for ... if ...]
//	{Body for ... if ...}
//	(Body for ... if ...)
//
// The Body of a dict comprehension is a *DictEntry.  A generator passed as
// the sole argument of a call has no parentheses of its own; Lbrack and
// Rbrack are those of the call.
type Comprehension struct {
	Kind    token.Type // BRACK_L | BRACE_L | PAREN_L
	Lbrack  *token.Location
	Body    Expr
	Clauses []Node // = *ForClause | *IfClause
	Rbrack  *token.Location
}

func (x *Comprehension) Span() (start, end *token.Location) {
	return x.Lbrack, x.Rbrack.Advance("]")
}

// A ForClause represents a for clause in a comprehension: for Vars in X.
type ForClause struct {
	Async *token.Location // nil unless "async for"
	For   *token.Location
	Vars  Expr // name, or tuple of names
	In    *token.Location
	X     Expr
}

func (x *ForClause) Span() (start, end *token.Location) {
	if x.Async != nil {
		return x.Async, End(x.X)
	}
	return x.For, End(x.X)
}

// An IfClause represents an if clause in a comprehension: if Cond.
type IfClause struct {
	If   *token.Location
	Cond Expr
}

func (x *IfClause) Span() (start, end *token.Location) {
	return x.If, End(x.Cond)
}

// A DictExpr represents a dictionary literal: { List }.
type DictExpr struct {
	Lbrace *token.Location
	List   []*DictEntry
	Rbrace *token.Location
}

func (x *DictExpr) Span() (start, end *token.Location) {
	return x.Lbrace, x.Rbrace.Advance("}")
}

// A DictEntry represents a dictionary entry: Key: Value.  An unpacking
// entry (**m) has a nil Key and a *StarExpr Value.
type DictEntry struct {
	Key   Expr
	Colon *token.Location
	Value Expr
}

func (x *DictEntry) Span() (start, end *token.Location) {
	if x.Key == nil {
		return x.Value.Span()
	}
	return Start(x.Key), End(x.Value)
}

// A LambdaExpr represents an inline function.
type LambdaExpr struct {
	Lambda *token.Location
	Params []*Param
	Body   Expr
}

func (x *LambdaExpr) Span() (start, end *token.Location) {
	return x.Lambda, End(x.Body)
}

// A ListExpr represents a list literal: [ List ].
type ListExpr struct {
	Lbrack *token.Location
	List   []Expr
	Rbrack *token.Location
}

func (x *ListExpr) Span() (start, end *token.Location) {
	return x.Lbrack, x.Rbrack.Advance("]")
}

// A SetExpr represents a set literal: { List }.
type SetExpr struct {
	Lbrace *token.Location
	List   []Expr
	Rbrace *token.Location
}

func (x *SetExpr) Span() (start, end *token.Location) {
	return x.Lbrace, x.Rbrace.Advance("}")
}

// CondExpr represents the conditional: True if Cond else False.
type CondExpr struct {
	If      *token.Location
	Cond    Expr
	True    Expr
	ElsePos *token.Location
	False   Expr
}

func (x *CondExpr) Span() (start, end *token.Location) {
	return Start(x.True), End(x.False)
}

// A TupleExpr represents a tuple literal: (List).
type TupleExpr struct {
	Lparen *token.Location // optional (e.g. in x, y = 0, 1), but required if List is empty
	List   []Expr
	Rparen *token.Location
}

func (x *TupleExpr) Span() (start, end *token.Location) {
	if x.Lparen != nil {
		return x.Lparen, x.Rparen.Advance(")")
	}
	return Start(x.List[0]), End(x.List[len(x.List)-1])
}

// A NamedExpr represents an assignment expression: Name := Value.
type NamedExpr struct {
	Name    *Ident
	ColonEq *token.Location
	Value   Expr
}

func (x *NamedExpr) Span() (start, end *token.Location) {
	return x.Name.NamePos, End(x.Value)
}

// A UnaryExpr represents a unary expression: Op X.
type UnaryExpr struct {
	OpPos *token.Location
	Op    token.Type // PLUS | MINUS | TILDE | NOT | AWAIT
	X     Expr
}

func (x *UnaryExpr) Span() (start, end *token.Location) {
	return x.OpPos, End(x.X)
}

// A BinaryExpr represents a binary expression: X Op Y.  The negated
// comparisons "not in" and "is not" have Op IN or IS with Not set.
type BinaryExpr struct {
	X     Expr
	OpPos *token.Location
	Op    token.Type
	Not   bool
	Y     Expr
}

func (x *BinaryExpr) Span() (start, end *token.Location) {
	return Start(x.X), End(x.Y)
}

// A SliceExpr represents a slice within a subscript: Lo:Hi:Step.
type SliceExpr struct {
	Colon        *token.Location // first colon
	Lo, Hi, Step Expr            // all optional
	EndPos       *token.Location
}

func (x *SliceExpr) Span() (start, end *token.Location) {
	if x.Lo != nil {
		return Start(x.Lo), x.EndPos
	}
	return x.Colon, x.EndPos
}

// An IndexExpr represents a subscript expression: X[Y].
type IndexExpr struct {
	X      Expr
	Lbrack *token.Location
	Y      Expr // may be a *SliceExpr or a *TupleExpr of them
	Rbrack *token.Location
}

func (x *IndexExpr) Span() (start, end *token.Location) {
	return Start(x.X), x.Rbrack.Advance("]")
}

// A YieldExpr represents yield X or yield from X.
type YieldExpr struct {
	Yield *token.Location
	From  bool
	X     Expr // optional
}

func (x *YieldExpr) Span() (start, end *token.Location) {
	if x.X != nil {
		return x.Yield, End(x.X)
	}
	return x.Yield, x.Yield.Advance("yield")
}
