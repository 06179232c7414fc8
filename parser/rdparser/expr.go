// Copyright © 2018 The ELPS authors

package rdparser

import (
	"strings"

	"github.com/luthersystems/pyscope/parser/token"
	"github.com/luthersystems/pyscope/syntax"
)

// Binary operator precedence levels, loosest first.
const (
	precOr = iota
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precArith
	precTerm
	numPrec
)

var precedence = map[token.Type]int{
	token.OR:         precOr,
	token.AND:        precAnd,
	token.LT:         precCompare,
	token.GT:         precCompare,
	token.LE:         precCompare,
	token.GE:         precCompare,
	token.EQL:        precCompare,
	token.NEQ:        precCompare,
	token.IN:         precCompare,
	token.IS:         precCompare,
	token.PIPE:       precBitOr,
	token.CARET:      precBitXor,
	token.AMP:        precBitAnd,
	token.LTLT:       precShift,
	token.GTGT:       precShift,
	token.PLUS:       precArith,
	token.MINUS:      precArith,
	token.STAR:       precTerm,
	token.SLASH:      precTerm,
	token.SLASHSLASH: precTerm,
	token.PERCENT:    precTerm,
	token.AT:         precTerm,
}

// parseTest parses a full expression including conditionals and lambdas.
func (p *Parser) parseTest() syntax.Expr {
	if p.PeekType() == token.LAMBDA {
		return p.parseLambda()
	}
	x := p.parseTestPrec(precOr)
	if p.PeekType() == token.COLONEQ {
		return p.parseNamedExpr(x)
	}
	if p.PeekType() != token.IF {
		return x
	}
	cond := &syntax.CondExpr{If: p.ReadToken().Source, True: x}
	cond.Cond = p.parseTestPrec(precOr)
	cond.ElsePos = p.expect(token.ELSE).Source
	cond.False = p.parseTest()
	return cond
}

// parseNamedExpr parses the value of an assignment expression whose target
// x has been parsed.
func (p *Parser) parseNamedExpr(x syntax.Expr) syntax.Expr {
	id, ok := x.(*syntax.Ident)
	if !ok {
		p.errorf(syntax.Start(x), "cannot use assignment expressions with %s", describeExpr(x))
	}
	named := &syntax.NamedExpr{Name: id, ColonEq: p.ReadToken().Source}
	named.Value = p.parseTest()
	return named
}

// parseTestNoCond parses an expression that may not be an unparenthesized
// conditional, such as the condition of a comprehension if clause.
func (p *Parser) parseTestNoCond() syntax.Expr {
	if p.PeekType() == token.LAMBDA {
		return p.parseLambda()
	}
	return p.parseTestPrec(precOr)
}

// parseExpr parses a bitwise-or expression, the operand of comparisons and
// the form of for loop targets.
func (p *Parser) parseExpr() syntax.Expr {
	return p.parseTestPrec(precBitOr)
}

func (p *Parser) parseTestPrec(prec int) syntax.Expr {
	if prec >= numPrec {
		return p.parseFactor()
	}
	if prec == precNot && p.PeekType() == token.NOT {
		pos := p.ReadToken().Source
		x := p.parseTestPrec(precNot)
		return &syntax.UnaryExpr{OpPos: pos, Op: token.NOT, X: x}
	}
	return p.parseBinopExpr(prec)
}

func (p *Parser) parseBinopExpr(prec int) syntax.Expr {
	x := p.parseTestPrec(prec + 1)
	for {
		typ := p.PeekType()
		opprec, ok := precedence[typ]
		if typ == token.NOT {
			// only "not in" may follow an operand
			opprec, ok = precCompare, true
		}
		if !ok || opprec < prec {
			return x
		}
		tok := p.ReadToken()
		bin := &syntax.BinaryExpr{X: x, OpPos: tok.Source, Op: tok.Type}
		switch tok.Type {
		case token.NOT:
			p.expect(token.IN)
			bin.Op = token.IN
			bin.Not = true
		case token.IS:
			bin.Not = p.Accept(token.NOT)
		}
		bin.Y = p.parseTestPrec(opprec + 1)
		x = bin
	}
}

func (p *Parser) parseFactor() syntax.Expr {
	switch p.PeekType() {
	case token.PLUS, token.MINUS, token.TILDE:
		tok := p.ReadToken()
		return &syntax.UnaryExpr{OpPos: tok.Source, Op: tok.Type, X: p.parseFactor()}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() syntax.Expr {
	var x syntax.Expr
	if p.PeekType() == token.AWAIT {
		pos := p.ReadToken().Source
		x = &syntax.UnaryExpr{OpPos: pos, Op: token.AWAIT, X: p.parsePrimaryWithSuffix()}
	} else {
		x = p.parsePrimaryWithSuffix()
	}
	if p.PeekType() != token.STARSTAR {
		return x
	}
	tok := p.ReadToken()
	return &syntax.BinaryExpr{X: x, OpPos: tok.Source, Op: tok.Type, Y: p.parseFactor()}
}

func (p *Parser) parsePrimaryWithSuffix() syntax.Expr {
	x := p.parsePrimary()
	for {
		switch p.PeekType() {
		case token.DOT:
			dot := p.ReadToken().Source
			x = &syntax.DotExpr{X: x, Dot: dot, Name: p.parseIdent()}
		case token.PAREN_L:
			lparen := p.ReadToken().Source
			args := p.parseArgs(lparen)
			rparen := p.expect(token.PAREN_R).Source
			x = &syntax.CallExpr{Fn: x, Lparen: lparen, Args: args, Rparen: rparen}
		case token.BRACK_L:
			lbrack := p.ReadToken().Source
			y := p.parseSubscriptList()
			rbrack := p.expect(token.BRACK_R).Source
			x = &syntax.IndexExpr{X: x, Lbrack: lbrack, Y: y, Rbrack: rbrack}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() syntax.Expr {
	switch p.PeekType() {
	case token.NAME:
		tok := p.ReadToken()
		return &syntax.Ident{NamePos: tok.Source, Name: tok.Text}
	case token.INT, token.FLOAT, token.NONE, token.TRUE, token.FALSE, token.ELLIPSIS:
		tok := p.ReadToken()
		return &syntax.Literal{Token: tok.Type, TokenPos: tok.Source, Raw: tok.Text}
	case token.STRING:
		return p.parseStrings()
	case token.PAREN_L:
		return p.parseParenExpr()
	case token.BRACK_L:
		return p.parseListExpr()
	case token.BRACE_L:
		return p.parseBraceExpr()
	}
	tok := p.src.Peek()
	p.errorf(tok.Source, "unexpected %s", p.describe(tok))
	return nil
}

// parseStrings merges adjacent string literals into one Literal.
func (p *Parser) parseStrings() syntax.Expr {
	first := p.ReadToken()
	last := first
	texts := []string{first.Text}
	var fields []syntax.Expr
	for tok := first; ; tok = p.ReadToken() {
		if isFormatted(tok.Text) {
			fields = append(fields, p.parseFormatFields(tok)...)
		}
		if tok != first {
			last = tok
			texts = append(texts, tok.Text)
		}
		if p.PeekType() != token.STRING {
			break
		}
	}
	raw := strings.Join(texts, " ")
	if last != first && p.buf != nil {
		raw = string(p.buf[first.Source.Pos:last.End().Pos])
	}
	return &syntax.Literal{Token: token.STRING, TokenPos: first.Source, Raw: raw, Fields: fields}
}

func (p *Parser) parseParenExpr() syntax.Expr {
	lparen := p.ReadToken().Source
	if p.Accept(token.PAREN_R) {
		return &syntax.TupleExpr{Lparen: lparen, Rparen: p.src.Token.Source}
	}
	if p.PeekType() == token.YIELD {
		x := p.parseYieldExpr()
		p.expect(token.PAREN_R)
		return x
	}
	x := p.parseTestOrStar()
	if p.atCompFor() {
		comp := p.parseComprehension(token.PAREN_L, lparen, x)
		comp.Rbrack = p.expect(token.PAREN_R).Source
		return comp
	}
	if !p.Accept(token.COMMA) {
		p.expect(token.PAREN_R)
		return x
	}
	list := p.parseTrailingList([]syntax.Expr{x}, token.PAREN_R)
	rparen := p.expect(token.PAREN_R).Source
	return &syntax.TupleExpr{Lparen: lparen, List: list, Rparen: rparen}
}

func (p *Parser) parseListExpr() syntax.Expr {
	lbrack := p.ReadToken().Source
	if p.Accept(token.BRACK_R) {
		return &syntax.ListExpr{Lbrack: lbrack, Rbrack: p.src.Token.Source}
	}
	x := p.parseTestOrStar()
	if p.atCompFor() {
		comp := p.parseComprehension(token.BRACK_L, lbrack, x)
		comp.Rbrack = p.expect(token.BRACK_R).Source
		return comp
	}
	list := []syntax.Expr{x}
	if p.Accept(token.COMMA) {
		list = p.parseTrailingList(list, token.BRACK_R)
	}
	rbrack := p.expect(token.BRACK_R).Source
	return &syntax.ListExpr{Lbrack: lbrack, List: list, Rbrack: rbrack}
}

func (p *Parser) parseBraceExpr() syntax.Expr {
	lbrace := p.ReadToken().Source
	if p.Accept(token.BRACE_R) {
		return &syntax.DictExpr{Lbrace: lbrace, Rbrace: p.src.Token.Source}
	}
	if p.PeekType() == token.STARSTAR {
		return p.parseDictRest(lbrace, p.parseDictEntry())
	}
	x := p.parseTestOrStar()
	if _, star := x.(*syntax.StarExpr); !star && p.PeekType() == token.COLON {
		entry := &syntax.DictEntry{Key: x, Colon: p.ReadToken().Source, Value: p.parseTest()}
		if p.atCompFor() {
			comp := p.parseComprehension(token.BRACE_L, lbrace, entry)
			comp.Rbrack = p.expect(token.BRACE_R).Source
			return comp
		}
		return p.parseDictRest(lbrace, entry)
	}
	if p.atCompFor() {
		comp := p.parseComprehension(token.BRACE_L, lbrace, x)
		comp.Rbrack = p.expect(token.BRACE_R).Source
		return comp
	}
	list := []syntax.Expr{x}
	if p.Accept(token.COMMA) {
		list = p.parseTrailingList(list, token.BRACE_R)
	}
	rbrace := p.expect(token.BRACE_R).Source
	return &syntax.SetExpr{Lbrace: lbrace, List: list, Rbrace: rbrace}
}

func (p *Parser) parseDictRest(lbrace *token.Location, first *syntax.DictEntry) syntax.Expr {
	dict := &syntax.DictExpr{Lbrace: lbrace, List: []*syntax.DictEntry{first}}
	for p.Accept(token.COMMA) {
		if p.PeekType() == token.BRACE_R {
			break
		}
		dict.List = append(dict.List, p.parseDictEntry())
	}
	dict.Rbrace = p.expect(token.BRACE_R).Source
	return dict
}

func (p *Parser) parseDictEntry() *syntax.DictEntry {
	if p.PeekType() == token.STARSTAR {
		tok := p.ReadToken()
		return &syntax.DictEntry{Value: &syntax.StarExpr{Star: tok.Source, Op: tok.Type, X: p.parseExpr()}}
	}
	entry := &syntax.DictEntry{Key: p.parseTest()}
	entry.Colon = p.expect(token.COLON).Source
	entry.Value = p.parseTest()
	return entry
}

// parseTrailingList parses the remaining elements of a comma separated
// display after its first comma, up to the closing token.
func (p *Parser) parseTrailingList(list []syntax.Expr, closing token.Type) []syntax.Expr {
	for p.PeekType() != closing {
		list = append(list, p.parseTestOrStar())
		if !p.Accept(token.COMMA) {
			break
		}
	}
	return list
}

func (p *Parser) parseComprehension(kind token.Type, lbrack *token.Location, body syntax.Expr) *syntax.Comprehension {
	comp := &syntax.Comprehension{Kind: kind, Lbrack: lbrack, Body: body}
	for {
		switch p.PeekType() {
		case token.FOR, token.ASYNC:
			clause := &syntax.ForClause{}
			if p.Accept(token.ASYNC) {
				clause.Async = p.src.Token.Source
			}
			clause.For = p.expect(token.FOR).Source
			clause.Vars = p.parseExprList()
			p.checkTarget(clause.Vars, false)
			clause.In = p.expect(token.IN).Source
			clause.X = p.parseTestPrec(precOr)
			comp.Clauses = append(comp.Clauses, clause)
		case token.IF:
			clause := &syntax.IfClause{If: p.ReadToken().Source}
			clause.Cond = p.parseTestNoCond()
			comp.Clauses = append(comp.Clauses, clause)
		default:
			return comp
		}
	}
}

// parseArgs parses call arguments (or class bases) up to the closing
// parenthesis.  A generator expression may appear as the sole argument.
func (p *Parser) parseArgs(lparen *token.Location) []syntax.Expr {
	var args []syntax.Expr
	for p.PeekType() != token.PAREN_R {
		var arg syntax.Expr
		switch p.PeekType() {
		case token.STAR, token.STARSTAR:
			tok := p.ReadToken()
			arg = &syntax.StarExpr{Star: tok.Source, Op: tok.Type, X: p.parseTest()}
		default:
			arg = p.parseTest()
			if id, ok := arg.(*syntax.Ident); ok && p.Accept(token.ASSIGN) {
				arg = &syntax.KeywordArg{Name: id, Value: p.parseTest()}
			} else if p.atCompFor() {
				if len(args) > 0 {
					p.errorf(syntax.Start(arg), "generator expression must be parenthesized")
				}
				comp := p.parseComprehension(token.PAREN_L, lparen, arg)
				comp.Rbrack = p.PeekLocation()
				arg = comp
			}
		}
		args = append(args, arg)
		if !p.Accept(token.COMMA) {
			break
		}
	}
	return args
}

func (p *Parser) parseSubscriptList() syntax.Expr {
	x := p.parseSubscript()
	if p.PeekType() != token.COMMA {
		return x
	}
	list := []syntax.Expr{x}
	for p.Accept(token.COMMA) {
		if p.PeekType() == token.BRACK_R {
			break
		}
		list = append(list, p.parseSubscript())
	}
	return &syntax.TupleExpr{List: list}
}

func (p *Parser) parseSubscript() syntax.Expr {
	var lo syntax.Expr
	if p.PeekType() != token.COLON {
		lo = p.parseTest()
		if p.PeekType() != token.COLON {
			return lo
		}
	}
	slice := &syntax.SliceExpr{Colon: p.ReadToken().Source, Lo: lo}
	if !p.atSubscriptEnd() {
		slice.Hi = p.parseTest()
	}
	if p.Accept(token.COLON) && !p.atSubscriptEnd() {
		slice.Step = p.parseTest()
	}
	slice.EndPos = p.src.Token.End()
	return slice
}

func (p *Parser) atSubscriptEnd() bool {
	switch p.PeekType() {
	case token.BRACK_R, token.COMMA, token.COLON:
		return true
	}
	return false
}

func (p *Parser) parseLambda() syntax.Expr {
	lambda := &syntax.LambdaExpr{Lambda: p.ReadToken().Source}
	lambda.Params = p.parseParams(token.COLON, false)
	p.expect(token.COLON)
	lambda.Body = p.parseTest()
	return lambda
}

func (p *Parser) parseYieldExpr() syntax.Expr {
	yield := &syntax.YieldExpr{Yield: p.expect(token.YIELD).Source}
	if p.Accept(token.FROM) {
		yield.From = true
		yield.X = p.parseTest()
		return yield
	}
	if startsExpr(p.PeekType()) {
		yield.X = p.parseTestListStarExpr()
	}
	return yield
}

func (p *Parser) parseTestOrStar() syntax.Expr {
	if p.PeekType() == token.STAR {
		pos := p.ReadToken().Source
		return &syntax.StarExpr{Star: pos, Op: token.STAR, X: p.parseExpr()}
	}
	return p.parseTest()
}

func (p *Parser) parseExprOrStar() syntax.Expr {
	if p.PeekType() == token.STAR {
		pos := p.ReadToken().Source
		return &syntax.StarExpr{Star: pos, Op: token.STAR, X: p.parseExpr()}
	}
	return p.parseExpr()
}

// parseTestList parses a comma separated list of expressions.  More than
// one element (or a trailing comma) yields an unparenthesized TupleExpr.
func (p *Parser) parseTestList() syntax.Expr {
	return p.parseSequence(p.parseTest)
}

func (p *Parser) parseTestListStarExpr() syntax.Expr {
	return p.parseSequence(p.parseTestOrStar)
}

func (p *Parser) parseExprList() syntax.Expr {
	return p.parseSequence(p.parseExprOrStar)
}

func (p *Parser) parseSequence(elem func() syntax.Expr) syntax.Expr {
	x := elem()
	if p.PeekType() != token.COMMA {
		return x
	}
	list := []syntax.Expr{x}
	for p.Accept(token.COMMA) {
		if !startsExpr(p.PeekType()) {
			break
		}
		list = append(list, elem())
	}
	return &syntax.TupleExpr{List: list}
}

// atCompFor reports whether a comprehension for clause follows.
func (p *Parser) atCompFor() bool {
	switch p.PeekType() {
	case token.FOR, token.ASYNC:
		return true
	}
	return false
}

func startsExpr(typ token.Type) bool {
	switch typ {
	case token.NAME, token.INT, token.FLOAT, token.STRING,
		token.PAREN_L, token.BRACK_L, token.BRACE_L,
		token.PLUS, token.MINUS, token.TILDE, token.STAR,
		token.NOT, token.LAMBDA, token.NONE, token.TRUE, token.FALSE,
		token.ELLIPSIS, token.AWAIT:
		return true
	}
	return false
}
