// Copyright © 2018 The ELPS authors

// Package rdparser is a recursive descent parser for python source text.
// It produces the syntax trees defined in package syntax.
package rdparser

import (
	"fmt"

	"github.com/luthersystems/pyscope/parser/token"
	"github.com/luthersystems/pyscope/syntax"
)

// Parse parses src as a complete source unit.  Any syntax error is returned
// as a *token.LocationError and no tree is produced.
func Parse(filename string, src []byte) (*syntax.File, error) {
	p := New(token.NewScanner(filename, src))
	return p.ParseFile()
}

// ParseFaultTolerant parses src and always returns a file.  When a syntax
// error is encountered the file contains every top-level statement that was
// parsed successfully before it, and the error is returned alongside.
func ParseFaultTolerant(filename string, src []byte) (*syntax.File, error) {
	p := New(token.NewScanner(filename, src))
	p.tolerant = true
	return p.ParseFile()
}

// ParseExpr parses src as a single expression.
func ParseExpr(filename string, src []byte) (x syntax.Expr, err error) {
	p := New(token.NewScanner(filename, src))
	defer p.recover(&err)
	p.skipNewlines()
	x = p.parseTestList()
	p.skipNewlines()
	p.expect(token.EOF)
	return x, nil
}

// Parser is a python parser.
type Parser struct {
	src      *TokenSource
	buf      []byte
	file     string
	tolerant bool
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
// Adjacent string literals are only merged into a single literal when the
// parser has access to the underlying source text.
func NewFromSource(src *TokenSource) *Parser {
	return &Parser{
		src: src,
	}
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner) *Parser {
	p := NewFromSource(NewTokenSource(scanner))
	p.buf = scanner.Source()
	p.file = scanner.LocStart().File
	return p
}

// bailout carries a syntax error up the stack to the recover call in the
// exported entry points.
type bailout struct {
	err *token.LocationError
}

func (p *Parser) recover(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

// ParseFile parses every statement remaining in the token stream.
func (p *Parser) ParseFile() (*syntax.File, error) {
	f := &syntax.File{Path: p.file}
	var err error
	func() {
		defer p.recover(&err)
		for {
			p.skipNewlines()
			if p.PeekType() == token.EOF {
				f.EOF = p.PeekLocation()
				return
			}
			f.Stmts = append(f.Stmts, p.parseStmt()...)
		}
	}()
	f.Comments = p.src.Comments
	if err != nil && !p.tolerant {
		return nil, err
	}
	return f, err
}

func (p *Parser) parseStmt() []syntax.Stmt {
	switch p.PeekType() {
	case token.IF:
		return []syntax.Stmt{p.parseIfStmt()}
	case token.WHILE:
		return []syntax.Stmt{p.parseWhileStmt()}
	case token.FOR:
		return []syntax.Stmt{p.parseForStmt()}
	case token.TRY:
		return []syntax.Stmt{p.parseTryStmt()}
	case token.WITH:
		return []syntax.Stmt{p.parseWithStmt()}
	case token.DEF:
		return []syntax.Stmt{p.parseDefStmt(nil)}
	case token.CLASS:
		return []syntax.Stmt{p.parseClassStmt(nil)}
	case token.AT:
		return []syntax.Stmt{p.parseDecorated()}
	case token.ASYNC:
		return []syntax.Stmt{p.parseAsync(nil)}
	}
	return p.parseSimpleStmts()
}

// parseSimpleStmts parses small statements separated by semicolons up to
// the end of the logical line.
func (p *Parser) parseSimpleStmts() []syntax.Stmt {
	var stmts []syntax.Stmt
	for {
		stmts = append(stmts, p.parseSmallStmt())
		if !p.Accept(token.SEMICOLON) {
			break
		}
		if p.PeekType() == token.NEWLINE || p.PeekType() == token.EOF {
			break
		}
	}
	if !p.Accept(token.NEWLINE) && p.PeekType() != token.EOF {
		p.errorf(p.PeekLocation(), "unexpected %s at end of statement", p.describe(p.src.Peek()))
	}
	return stmts
}

func (p *Parser) parseSmallStmt() syntax.Stmt {
	switch p.PeekType() {
	case token.PASS, token.BREAK, token.CONTINUE:
		tok := p.ReadToken()
		return &syntax.BranchStmt{Token: tok.Type, TokenPos: tok.Source}
	case token.RETURN:
		pos := p.ReadToken().Source
		stmt := &syntax.ReturnStmt{Return: pos}
		if !p.atStmtEnd() {
			stmt.Result = p.parseTestList()
		}
		return stmt
	case token.RAISE:
		pos := p.ReadToken().Source
		stmt := &syntax.RaiseStmt{Raise: pos}
		if !p.atStmtEnd() {
			stmt.X = p.parseTest()
			if p.Accept(token.FROM) {
				stmt.Cause = p.parseTest()
			}
		}
		return stmt
	case token.GLOBAL, token.NONLOCAL:
		tok := p.ReadToken()
		stmt := &syntax.RebindStmt{Pos: tok.Source, Token: tok.Type}
		for {
			stmt.Names = append(stmt.Names, p.parseIdent())
			if !p.Accept(token.COMMA) {
				break
			}
		}
		return stmt
	case token.DEL:
		pos := p.ReadToken().Source
		targets := p.parseExprList()
		if tuple, ok := targets.(*syntax.TupleExpr); ok && tuple.Lparen == nil {
			for _, x := range tuple.List {
				p.checkTarget(x, false)
			}
			return &syntax.DelStmt{Del: pos, Targets: tuple.List}
		}
		p.checkTarget(targets, false)
		return &syntax.DelStmt{Del: pos, Targets: []syntax.Expr{targets}}
	case token.ASSERT:
		pos := p.ReadToken().Source
		stmt := &syntax.AssertStmt{Assert: pos, Cond: p.parseTest()}
		if p.Accept(token.COMMA) {
			stmt.Msg = p.parseTest()
		}
		return stmt
	case token.IMPORT:
		return p.parseImportStmt()
	case token.FROM:
		return p.parseFromImportStmt()
	}
	return p.parseExprStmt()
}

func (p *Parser) parseExprStmt() syntax.Stmt {
	if p.PeekType() == token.YIELD {
		return &syntax.ExprStmt{X: p.parseYieldExpr()}
	}
	x := p.parseTestListStarExpr()
	typ := p.PeekType()
	switch {
	case typ == token.COLON:
		p.ReadToken()
		p.checkTarget(x, true)
		stmt := &syntax.AssignStmt{Op: token.ASSIGN, LHS: []syntax.Expr{x}}
		stmt.Annotation = p.parseTest()
		if p.PeekType() == token.ASSIGN {
			stmt.OpPos = p.ReadToken().Source
			stmt.RHS = p.parseAssignValue()
		}
		return stmt
	case typ == token.ASSIGN:
		stmt := &syntax.AssignStmt{Op: token.ASSIGN, LHS: []syntax.Expr{x}}
		for p.PeekType() == token.ASSIGN {
			pos := p.ReadToken().Source
			if stmt.OpPos == nil {
				stmt.OpPos = pos
			}
			stmt.LHS = append(stmt.LHS, p.parseAssignValue())
		}
		stmt.RHS = stmt.LHS[len(stmt.LHS)-1]
		stmt.LHS = stmt.LHS[:len(stmt.LHS)-1]
		for _, lhs := range stmt.LHS {
			p.checkTarget(lhs, false)
		}
		return stmt
	case typ.IsAssignOp():
		tok := p.ReadToken()
		p.checkTarget(x, true)
		return &syntax.AssignStmt{
			OpPos: tok.Source,
			Op:    tok.Type,
			LHS:   []syntax.Expr{x},
			RHS:   p.parseAssignValue(),
		}
	}
	return &syntax.ExprStmt{X: x}
}

func (p *Parser) parseAssignValue() syntax.Expr {
	if p.PeekType() == token.YIELD {
		return p.parseYieldExpr()
	}
	return p.parseTestListStarExpr()
}

// checkTarget reports an error if x cannot appear on the left of an
// assignment.  Single targets (augmented and annotated assignments) must
// not destructure.
func (p *Parser) checkTarget(x syntax.Expr, single bool) {
	switch x := x.(type) {
	case *syntax.Ident, *syntax.DotExpr, *syntax.IndexExpr:
		return
	case *syntax.TupleExpr:
		if !single {
			for _, elt := range x.List {
				p.checkTarget(elt, false)
			}
			return
		}
	case *syntax.ListExpr:
		if !single {
			for _, elt := range x.List {
				p.checkTarget(elt, false)
			}
			return
		}
	case *syntax.StarExpr:
		if !single && x.Op == token.STAR {
			p.checkTarget(x.X, false)
			return
		}
	}
	p.errorf(syntax.Start(x), "cannot assign to %s", describeExpr(x))
}

func (p *Parser) parseImportStmt() syntax.Stmt {
	stmt := &syntax.ImportStmt{Import: p.ReadToken().Source}
	for {
		name := &syntax.ImportName{Path: p.parseDottedName()}
		if p.Accept(token.AS) {
			name.Alias = p.parseIdent()
		}
		stmt.Names = append(stmt.Names, name)
		if !p.Accept(token.COMMA) {
			break
		}
	}
	stmt.EndPos = syntax.End(stmt.Names[len(stmt.Names)-1])
	return stmt
}

func (p *Parser) parseFromImportStmt() syntax.Stmt {
	stmt := &syntax.ImportStmt{Import: p.ReadToken().Source, From: true}
	for {
		if p.Accept(token.DOT) {
			stmt.Level++
		} else if p.Accept(token.ELLIPSIS) {
			stmt.Level += 3
		} else {
			break
		}
	}
	if p.PeekType() != token.IMPORT || stmt.Level == 0 {
		stmt.Module = p.parseDottedName()
	}
	p.expect(token.IMPORT)
	if p.Accept(token.STAR) {
		stmt.Star = true
		stmt.EndPos = p.src.Token.End()
		return stmt
	}
	paren := p.Accept(token.PAREN_L)
	for {
		name := &syntax.ImportName{Path: []*syntax.Ident{p.parseIdent()}}
		if p.Accept(token.AS) {
			name.Alias = p.parseIdent()
		}
		stmt.Names = append(stmt.Names, name)
		if !p.Accept(token.COMMA) {
			break
		}
		if paren && p.PeekType() == token.PAREN_R {
			break
		}
	}
	stmt.EndPos = syntax.End(stmt.Names[len(stmt.Names)-1])
	if paren {
		stmt.EndPos = p.expect(token.PAREN_R).End()
	}
	return stmt
}

func (p *Parser) parseDottedName() []*syntax.Ident {
	path := []*syntax.Ident{p.parseIdent()}
	for p.Accept(token.DOT) {
		path = append(path, p.parseIdent())
	}
	return path
}

func (p *Parser) parseIfStmt() syntax.Stmt {
	pos := p.ReadToken().Source // IF or ELIF
	stmt := &syntax.IfStmt{If: pos, Cond: p.parseTest()}
	p.expect(token.COLON)
	stmt.True = p.parseSuite()
	switch p.PeekType() {
	case token.ELIF:
		stmt.ElsePos = p.PeekLocation()
		stmt.False = []syntax.Stmt{p.parseIfStmt()}
	case token.ELSE:
		stmt.ElsePos = p.ReadToken().Source
		p.expect(token.COLON)
		stmt.False = p.parseSuite()
	}
	return stmt
}

func (p *Parser) parseWhileStmt() syntax.Stmt {
	stmt := &syntax.WhileStmt{While: p.ReadToken().Source, Cond: p.parseTest()}
	p.expect(token.COLON)
	stmt.Body = p.parseSuite()
	stmt.Else = p.parseElse()
	return stmt
}

func (p *Parser) parseForStmt() *syntax.ForStmt {
	stmt := &syntax.ForStmt{For: p.ReadToken().Source}
	stmt.Vars = p.parseExprList()
	p.checkTarget(stmt.Vars, false)
	p.expect(token.IN)
	stmt.X = p.parseTestList()
	p.expect(token.COLON)
	stmt.Body = p.parseSuite()
	stmt.Else = p.parseElse()
	return stmt
}

func (p *Parser) parseElse() []syntax.Stmt {
	if !p.Accept(token.ELSE) {
		return nil
	}
	p.expect(token.COLON)
	return p.parseSuite()
}

func (p *Parser) parseTryStmt() syntax.Stmt {
	stmt := &syntax.TryStmt{Try: p.ReadToken().Source}
	p.expect(token.COLON)
	stmt.Body = p.parseSuite()
	for p.PeekType() == token.EXCEPT {
		h := &syntax.ExceptClause{Except: p.ReadToken().Source}
		if p.PeekType() != token.COLON {
			h.Type = p.parseTest()
			if p.Accept(token.AS) {
				h.Name = p.parseIdent()
			}
		}
		p.expect(token.COLON)
		h.Body = p.parseSuite()
		stmt.Handlers = append(stmt.Handlers, h)
	}
	if len(stmt.Handlers) > 0 {
		stmt.Else = p.parseElse()
	}
	if p.Accept(token.FINALLY) {
		p.expect(token.COLON)
		stmt.Finally = p.parseSuite()
	}
	if len(stmt.Handlers) == 0 && stmt.Finally == nil {
		p.errorf(p.PeekLocation(), "expected 'except' or 'finally' block")
	}
	return stmt
}

func (p *Parser) parseWithStmt() *syntax.WithStmt {
	stmt := &syntax.WithStmt{With: p.ReadToken().Source}
	for {
		item := &syntax.WithItem{X: p.parseTest()}
		if p.Accept(token.AS) {
			item.Target = p.parseExpr()
			p.checkTarget(item.Target, false)
		}
		stmt.Items = append(stmt.Items, item)
		if !p.Accept(token.COMMA) {
			break
		}
	}
	p.expect(token.COLON)
	stmt.Body = p.parseSuite()
	return stmt
}

func (p *Parser) parseDecorated() syntax.Stmt {
	var decorators []*syntax.Decorator
	for p.PeekType() == token.AT {
		d := &syntax.Decorator{At: p.ReadToken().Source, X: p.parseTest()}
		p.expect(token.NEWLINE)
		decorators = append(decorators, d)
	}
	switch p.PeekType() {
	case token.DEF:
		return p.parseDefStmt(decorators)
	case token.CLASS:
		return p.parseClassStmt(decorators)
	case token.ASYNC:
		return p.parseAsync(decorators)
	}
	p.errorf(p.PeekLocation(), "expected function or class definition after decorator")
	return nil
}

// parseAsync parses a coroutine definition or an asynchronous for or with
// statement.  Only definitions may be decorated.
func (p *Parser) parseAsync(decorators []*syntax.Decorator) syntax.Stmt {
	async := p.ReadToken().Source
	switch typ := p.PeekType(); {
	case typ == token.DEF:
		stmt := p.parseDefStmt(decorators)
		stmt.Async = async
		return stmt
	case typ == token.FOR && decorators == nil:
		stmt := p.parseForStmt()
		stmt.Async = async
		return stmt
	case typ == token.WITH && decorators == nil:
		stmt := p.parseWithStmt()
		stmt.Async = async
		return stmt
	}
	if decorators != nil {
		p.errorf(p.PeekLocation(), "expected 'def' after 'async', found %s", p.describe(p.src.Peek()))
	}
	p.errorf(p.PeekLocation(), "expected 'def', 'for' or 'with' after 'async', found %s", p.describe(p.src.Peek()))
	return nil
}

func (p *Parser) parseDefStmt(decorators []*syntax.Decorator) *syntax.DefStmt {
	stmt := &syntax.DefStmt{Decorators: decorators, Def: p.ReadToken().Source}
	stmt.Name = p.parseIdent()
	p.expect(token.PAREN_L)
	stmt.Params = p.parseParams(token.PAREN_R, true)
	p.expect(token.PAREN_R)
	if p.Accept(token.ARROW) {
		stmt.Result = p.parseTest()
	}
	p.expect(token.COLON)
	stmt.Body = p.parseSuite()
	return stmt
}

func (p *Parser) parseClassStmt(decorators []*syntax.Decorator) syntax.Stmt {
	stmt := &syntax.ClassStmt{Decorators: decorators, Class: p.ReadToken().Source}
	stmt.Name = p.parseIdent()
	if lparen := p.PeekLocation(); p.Accept(token.PAREN_L) {
		stmt.Args = p.parseArgs(lparen)
		p.expect(token.PAREN_R)
	}
	p.expect(token.COLON)
	stmt.Body = p.parseSuite()
	return stmt
}

// parseParams parses formal parameters up to (not including) the closing
// token.  Annotations are only permitted in def statements.
func (p *Parser) parseParams(closing token.Type, annotated bool) []*syntax.Param {
	var params []*syntax.Param
	seen := make(map[string]bool)
	for p.PeekType() != closing {
		param := &syntax.Param{Pos: p.PeekLocation()}
		switch {
		case p.Accept(token.STARSTAR):
			param.Kind = syntax.ParamKwArg
		case p.Accept(token.STAR):
			param.Kind = syntax.ParamVarArg
			if p.PeekType() == token.COMMA || p.PeekType() == closing {
				param.Kind = syntax.ParamStar
			}
		case p.Accept(token.SLASH):
			param.Kind = syntax.ParamSlash
		}
		if param.Kind != syntax.ParamStar && param.Kind != syntax.ParamSlash {
			param.Name = p.parseIdent()
			if seen[param.Name.Name] {
				p.errorf(param.Name.NamePos, "duplicate argument %q in function definition", param.Name.Name)
			}
			seen[param.Name.Name] = true
			if annotated && p.Accept(token.COLON) {
				param.Annotation = p.parseTest()
			}
			if param.Kind == syntax.ParamPlain && p.Accept(token.ASSIGN) {
				param.Default = p.parseTest()
			}
		}
		params = append(params, param)
		if !p.Accept(token.COMMA) {
			break
		}
	}
	return params
}

// parseSuite parses the body of a compound statement: either simple
// statements on the same line or an indented block.
func (p *Parser) parseSuite() []syntax.Stmt {
	if !p.Accept(token.NEWLINE) {
		return p.parseSimpleStmts()
	}
	p.expect(token.INDENT)
	var body []syntax.Stmt
	for !p.Accept(token.DEDENT) {
		if p.Accept(token.NEWLINE) {
			continue
		}
		if p.PeekType() == token.EOF {
			p.errorf(p.PeekLocation(), "unexpected EOF in indented block")
		}
		body = append(body, p.parseStmt()...)
	}
	if len(body) == 0 {
		p.errorf(p.src.Token.Source, "expected an indented block")
	}
	return body
}

func (p *Parser) atStmtEnd() bool {
	switch p.PeekType() {
	case token.NEWLINE, token.SEMICOLON, token.EOF:
		return true
	}
	return false
}

func (p *Parser) skipNewlines() {
	for p.Accept(token.NEWLINE) {
	}
}

func (p *Parser) parseIdent() *syntax.Ident {
	tok := p.expect(token.NAME)
	return &syntax.Ident{NamePos: tok.Source, Name: tok.Text}
}

// ReadToken advances the token stream and returns the new current token.
func (p *Parser) ReadToken() *token.Token {
	p.checkScanError()
	p.src.Scan()
	return p.src.Token
}

func (p *Parser) PeekType() token.Type {
	p.checkScanError()
	return p.src.Peek().Type
}

func (p *Parser) PeekLocation() *token.Location {
	return p.src.Peek().Source
}

func (p *Parser) Accept(typ ...token.Type) bool {
	p.checkScanError()
	return p.src.AcceptType(typ...)
}

func (p *Parser) expect(typ token.Type) *token.Token {
	if !p.Accept(typ) {
		p.errorf(p.PeekLocation(), "expected %s, found %s", describeType(typ), p.describe(p.src.Peek()))
	}
	return p.src.Token
}

// checkScanError converts a lexical error at the head of the stream into a
// syntax error.
func (p *Parser) checkScanError() {
	if tok := p.src.Peek(); tok.Type == token.ERROR {
		p.errorf(tok.Source, "%s", tok.Text)
	}
}

func (p *Parser) errorf(loc *token.Location, format string, v ...interface{}) {
	panic(bailout{&token.LocationError{
		Err:    fmt.Errorf(format, v...),
		Source: loc,
	}})
}

func (p *Parser) describe(tok *token.Token) string {
	switch tok.Type {
	case token.NAME, token.INT, token.FLOAT, token.STRING:
		return fmt.Sprintf("%s %q", tok.Type, tok.Text)
	}
	return describeType(tok.Type)
}

func describeType(typ token.Type) string {
	switch typ {
	case token.NEWLINE, token.INDENT, token.DEDENT, token.EOF, token.NAME,
		token.INT, token.FLOAT, token.STRING:
		return typ.String()
	}
	return fmt.Sprintf("'%s'", typ)
}

func describeExpr(x syntax.Expr) string {
	switch x := x.(type) {
	case *syntax.Literal:
		return "literal"
	case *syntax.CallExpr:
		return "function call"
	case *syntax.UnaryExpr:
		if x.Op == token.AWAIT {
			return "await expression"
		}
		return "operator"
	case *syntax.BinaryExpr:
		return "operator"
	case *syntax.NamedExpr:
		return "named expression"
	case *syntax.LambdaExpr:
		return "lambda"
	case *syntax.Comprehension:
		return "comprehension"
	case *syntax.CondExpr:
		return "conditional expression"
	case *syntax.StarExpr:
		if x.Op == token.STARSTAR {
			return "double starred expression"
		}
		return "starred"
	case *syntax.TupleExpr:
		return "tuple"
	case *syntax.ListExpr:
		return "list"
	}
	return "expression"
}
