// Package parser implements a recursive-descent / precedence-climbing
// parser for the ES5 subset, producing the pkg/ast tree that pkg/compiler
// consumes. This mirrors the teacher's (kristofer/smog) parser shape — a
// two-token lookahead window (curTok/peekTok) and one parse function per
// grammar rule — generalized from Smalltalk message precedence to the
// classic C-family precedence table.
package parser

import (
	"fmt"
	"strconv"

	"github.com/kristofer/tinyjs/pkg/ast"
	"github.com/kristofer/tinyjs/pkg/lexer"
	"github.com/kristofer/tinyjs/pkg/token"
)

// Parser holds the parsing state for one source file.
type Parser struct {
	l        *lexer.Lexer
	sourceID int
	filename string

	curTok  token.Token
	peekTok token.Token

	errors []string
}

// New creates a parser over src, tagging the resulting Program with
// sourceID/filename per spec §6's translation-unit contract.
func New(sourceID int, filename, src string) *Parser {
	p := &Parser{l: lexer.New(sourceID, src), sourceID: sourceID, filename: filename}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf("%s:%d:%d: %s", p.filename, p.curTok.Pos.Line, p.curTok.Pos.Col, fmt.Sprintf(format, args...)))
}

func (p *Parser) expect(k token.Kind) token.Token {
	tok := p.curTok
	if tok.Kind != k {
		p.errorf("expected %s, got %s", k, tok.Kind)
	}
	p.next()
	return tok
}

func (p *Parser) at(k token.Kind) bool { return p.curTok.Kind == k }

// Parse parses the whole source file into a Program.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{SourceID: p.sourceID, Filename: p.filename}
	for !p.at(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("parse errors:\n%s", joinErrors(p.errors))
	}
	return prog, nil
}

func joinErrors(errs []string) string {
	s := ""
	for i, e := range errs {
		if i > 0 {
			s += "\n"
		}
		s += e
	}
	return s
}

func (p *Parser) skipSemi() {
	if p.at(token.SEMI) {
		p.next()
	}
}

// --- Statements ---

func (p *Parser) parseStatement() ast.Statement {
	switch p.curTok.Kind {
	case token.VAR:
		return p.parseVarStatement()
	case token.FUNCTION:
		return p.parseFunctionDeclaration()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.BREAK:
		pos := p.curTok.Pos
		p.next()
		p.skipSemi()
		return &ast.BreakStatement{Position: pos}
	case token.CONTINUE:
		pos := p.curTok.Pos
		p.next()
		p.skipSemi()
		return &ast.ContinueStatement{Position: pos}
	case token.THROW:
		return p.parseThrowStatement()
	case token.TRY:
		return p.parseTryStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.SEMI:
		p.next()
		return nil
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseVarStatement() ast.Statement {
	pos := p.curTok.Pos
	p.next() // consume 'var'
	stmt := &ast.VarStatement{Position: pos}
	for {
		name := p.expect(token.IDENT).Literal
		stmt.Names = append(stmt.Names, name)
		if p.at(token.ASSIGN) {
			p.next()
			stmt.Inits = append(stmt.Inits, p.parseExpression(precLowest))
		} else {
			stmt.Inits = append(stmt.Inits, nil)
		}
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	p.skipSemi()
	return stmt
}

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	pos := p.curTok.Pos
	fn := p.parseFunctionLiteral(pos)
	return &ast.FunctionDeclaration{Position: pos, Fn: fn}
}

func (p *Parser) parseFunctionLiteral(pos token.Position) *ast.FunctionLiteral {
	p.next() // consume 'function'
	fn := &ast.FunctionLiteral{Position: pos}
	if p.at(token.IDENT) {
		fn.Name = p.curTok.Literal
		p.next()
	}
	p.expect(token.LPAREN)
	for !p.at(token.RPAREN) {
		fn.Params = append(fn.Params, p.expect(token.IDENT).Literal)
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if s := p.parseStatement(); s != nil {
			fn.Body = append(fn.Body, s)
		}
	}
	p.expect(token.RBRACE)
	return fn
}

func (p *Parser) parseReturnStatement() ast.Statement {
	pos := p.curTok.Pos
	p.next()
	stmt := &ast.ReturnStatement{Position: pos}
	if !p.at(token.SEMI) && !p.at(token.RBRACE) && !p.at(token.EOF) {
		stmt.Value = p.parseExpression(precLowest)
	}
	p.skipSemi()
	return stmt
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	pos := p.curTok.Pos
	p.expect(token.LBRACE)
	block := &ast.BlockStatement{Position: pos}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if s := p.parseStatement(); s != nil {
			block.Body = append(block.Body, s)
		}
	}
	p.expect(token.RBRACE)
	return block
}

func (p *Parser) parseIfStatement() ast.Statement {
	pos := p.curTok.Pos
	p.next()
	p.expect(token.LPAREN)
	cond := p.parseExpression(precLowest)
	p.expect(token.RPAREN)
	then := p.parseStatement()
	stmt := &ast.IfStatement{Position: pos, Cond: cond, Then: then}
	if p.at(token.ELSE) {
		p.next()
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	pos := p.curTok.Pos
	p.next()
	p.expect(token.LPAREN)
	cond := p.parseExpression(precLowest)
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return &ast.WhileStatement{Position: pos, Cond: cond, Body: body}
}

func (p *Parser) parseForStatement() ast.Statement {
	pos := p.curTok.Pos
	p.next()
	p.expect(token.LPAREN)

	stmt := &ast.ForStatement{Position: pos}
	if p.at(token.SEMI) {
		p.next()
	} else if p.at(token.VAR) {
		stmt.Init = p.parseVarStatement()
	} else {
		stmt.Init = p.parseExpressionStatement()
	}

	if !p.at(token.SEMI) {
		stmt.Cond = p.parseExpression(precLowest)
	}
	p.expect(token.SEMI)

	if !p.at(token.RPAREN) {
		stmt.Update = p.parseExpression(precLowest)
	}
	p.expect(token.RPAREN)

	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseThrowStatement() ast.Statement {
	pos := p.curTok.Pos
	p.next()
	val := p.parseExpression(precLowest)
	p.skipSemi()
	return &ast.ThrowStatement{Position: pos, Value: val}
}

func (p *Parser) parseTryStatement() ast.Statement {
	pos := p.curTok.Pos
	p.next()
	tryBlock := p.parseBlockStatement()
	stmt := &ast.TryStatement{Position: pos, Try: tryBlock.Body}
	p.expect(token.CATCH)
	p.expect(token.LPAREN)
	stmt.CatchParam = p.expect(token.IDENT).Literal
	p.expect(token.RPAREN)
	catchBlock := p.parseBlockStatement()
	stmt.Catch = catchBlock.Body
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	pos := p.curTok.Pos
	expr := p.parseExpression(precLowest)
	p.skipSemi()
	return &ast.ExpressionStatement{Position: pos, Expr: expr}
}

// --- Expressions: precedence-climbing ---

type precedence int

const (
	precLowest precedence = iota
	precAssign
	precConditional
	precLogicalOr
	precLogicalAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precCall
)

func binPrecedence(k token.Kind) precedence {
	switch k {
	case token.ASSIGN:
		return precAssign
	case token.QUESTION:
		return precConditional
	case token.OR:
		return precLogicalOr
	case token.AND:
		return precLogicalAnd
	case token.EQ, token.NEQ:
		return precEquality
	case token.LT, token.GT, token.LE, token.GE:
		return precRelational
	case token.PLUS, token.MINUS:
		return precAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiplicative
	case token.LPAREN, token.DOT, token.LBRACKET:
		return precCall
	default:
		return precLowest
	}
}

func (p *Parser) parseExpression(min precedence) ast.Expression {
	left := p.parseUnary()

	for {
		opPrec := binPrecedence(p.curTok.Kind)
		if opPrec <= min {
			break
		}
		switch p.curTok.Kind {
		case token.ASSIGN:
			pos := p.curTok.Pos
			p.next()
			value := p.parseExpression(precAssign - 1)
			left = &ast.AssignExpr{Position: pos, Target: left, Value: value}
		case token.QUESTION:
			pos := p.curTok.Pos
			p.next()
			then := p.parseExpression(precLowest)
			p.expect(token.COLON)
			els := p.parseExpression(precConditional)
			left = &ast.ConditionalExpr{Position: pos, Cond: left, Then: then, Else: els}
		case token.LPAREN:
			left = p.parseCallArgs(left, false)
		case token.DOT:
			pos := p.curTok.Pos
			p.next()
			name := p.expect(token.IDENT).Literal
			left = &ast.MemberExpr{Position: pos, Target: left, Key: &ast.StringLiteral{Position: pos, Value: name}}
		case token.LBRACKET:
			pos := p.curTok.Pos
			p.next()
			key := p.parseExpression(precLowest)
			p.expect(token.RBRACKET)
			left = &ast.MemberExpr{Position: pos, Target: left, Key: key, Computed: true}
		default:
			pos := p.curTok.Pos
			op := p.curTok.Kind.String()
			p.next()
			right := p.parseExpression(opPrec)
			left = &ast.BinaryExpr{Position: pos, Op: op, Left: left, Right: right}
		}
	}
	return left
}

func (p *Parser) parseCallArgs(callee ast.Expression, isNew bool) ast.Expression {
	pos := p.curTok.Pos
	p.expect(token.LPAREN)
	call := &ast.CallExpr{Position: pos, Callee: callee, IsNew: isNew}
	for !p.at(token.RPAREN) {
		call.Args = append(call.Args, p.parseExpression(precAssign))
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return call
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.curTok.Kind {
	case token.PLUS, token.MINUS, token.BANG:
		pos := p.curTok.Pos
		op := p.curTok.Kind.String()
		p.next()
		return &ast.UnaryExpr{Position: pos, Op: op, Operand: p.parseUnary()}
	case token.INC, token.DEC:
		pos := p.curTok.Pos
		op := p.curTok.Kind.String()
		p.next()
		return &ast.UnaryExpr{Position: pos, Op: op, Operand: p.parseUnary()}
	case token.TYPEOF:
		pos := p.curTok.Pos
		p.next()
		return &ast.UnaryExpr{Position: pos, Op: "typeof", Operand: p.parseUnary()}
	case token.VOID:
		pos := p.curTok.Pos
		p.next()
		return &ast.UnaryExpr{Position: pos, Op: "void", Operand: p.parseUnary()}
	case token.NEW:
		pos := p.curTok.Pos
		p.next()
		callee := p.parsePostfix()
		if call, ok := callee.(*ast.CallExpr); ok {
			call.IsNew = true
			return call
		}
		return &ast.CallExpr{Position: pos, Callee: callee, IsNew: true}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimaryChain()
	if p.curTok.Kind == token.INC || p.curTok.Kind == token.DEC {
		pos := p.curTok.Pos
		op := p.curTok.Kind.String()
		p.next()
		return &ast.PostfixExpr{Position: pos, Op: op, Operand: expr}
	}
	return expr
}

// parsePrimaryChain parses a primary expression followed by any run of
// `.key`, `[key]`, `(args)` postfix operators, so member/call chains bind
// tighter than the generic binary-operator loop in parseExpression.
func (p *Parser) parsePrimaryChain() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch p.curTok.Kind {
		case token.DOT:
			pos := p.curTok.Pos
			p.next()
			name := p.expect(token.IDENT).Literal
			expr = &ast.MemberExpr{Position: pos, Target: expr, Key: &ast.StringLiteral{Position: pos, Value: name}}
		case token.LBRACKET:
			pos := p.curTok.Pos
			p.next()
			key := p.parseExpression(precLowest)
			p.expect(token.RBRACKET)
			expr = &ast.MemberExpr{Position: pos, Target: expr, Key: key, Computed: true}
		case token.LPAREN:
			expr = p.parseCallArgs(expr, false)
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.curTok
	switch tok.Kind {
	case token.NUMBER:
		p.next()
		return parseNumberLiteral(tok)
	case token.STRING:
		p.next()
		return &ast.StringLiteral{Position: tok.Pos, Value: tok.Literal}
	case token.TRUE:
		p.next()
		return &ast.BoolLiteral{Position: tok.Pos, Value: true}
	case token.FALSE:
		p.next()
		return &ast.BoolLiteral{Position: tok.Pos, Value: false}
	case token.NULL:
		p.next()
		return &ast.NullLiteral{Position: tok.Pos}
	case token.UNDEFINED:
		p.next()
		return &ast.UndefinedLiteral{Position: tok.Pos}
	case token.THIS:
		p.next()
		return &ast.ThisExpr{Position: tok.Pos}
	case token.IDENT:
		p.next()
		return &ast.Identifier{Position: tok.Pos, Name: tok.Literal}
	case token.FUNCTION:
		return p.parseFunctionLiteral(tok.Pos)
	case token.LPAREN:
		p.next()
		expr := p.parseExpression(precLowest)
		p.expect(token.RPAREN)
		return expr
	case token.LBRACE:
		return p.parseObjectLiteral()
	case token.LBRACKET:
		return p.parseArrayLiteral()
	default:
		p.errorf("unexpected token %s", tok.Kind)
		p.next()
		return &ast.UndefinedLiteral{Position: tok.Pos}
	}
}

func parseNumberLiteral(tok token.Token) ast.Expression {
	lit := tok.Literal
	if iv, err := strconv.ParseInt(lit, 10, 32); err == nil {
		return &ast.NumberLiteral{Position: tok.Pos, Value: float64(iv), IsInt: true, IntValue: int32(iv)}
	}
	fv, _ := strconv.ParseFloat(lit, 64)
	return &ast.NumberLiteral{Position: tok.Pos, Value: fv}
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	pos := p.curTok.Pos
	p.expect(token.LBRACE)
	lit := &ast.ObjectLiteral{Position: pos}
	for !p.at(token.RBRACE) {
		var key string
		switch p.curTok.Kind {
		case token.IDENT:
			key = p.curTok.Literal
			p.next()
		case token.STRING:
			key = p.curTok.Literal
			p.next()
		case token.NUMBER:
			key = p.curTok.Literal
			p.next()
		default:
			p.errorf("expected property key, got %s", p.curTok.Kind)
			p.next()
		}
		p.expect(token.COLON)
		value := p.parseExpression(precAssign)
		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, value)
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return lit
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	pos := p.curTok.Pos
	p.expect(token.LBRACKET)
	lit := &ast.ArrayLiteral{Position: pos}
	for !p.at(token.RBRACKET) {
		lit.Elements = append(lit.Elements, p.parseExpression(precAssign))
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACKET)
	return lit
}
