// Package ast defines the syntax tree for the ES5 subset. This is the
// "parsed translation unit" spec §6 describes as the compiler's input —
// pkg/parser is the only producer, pkg/compiler is the only consumer.
package ast

import "github.com/kristofer/tinyjs/pkg/token"

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Position
}

// Expression is a node that yields a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a node executed for effect.
type Statement interface {
	Node
	statementNode()
}

// Program is the root of one source file's tree, tagged with the source id
// spec §6 requires ({source-filename, statement-root, source-id}).
type Program struct {
	SourceID   int
	Filename   string
	Statements []Statement
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Position{SourceID: p.SourceID}
}

// --- Expressions ---

type NumberLiteral struct {
	Position token.Position
	Value    float64
	IsInt    bool
	IntValue int32
}

func (n *NumberLiteral) Pos() token.Position { return n.Position }
func (n *NumberLiteral) expressionNode()     {}

type StringLiteral struct {
	Position token.Position
	Value    string
}

func (n *StringLiteral) Pos() token.Position { return n.Position }
func (n *StringLiteral) expressionNode()     {}

type BoolLiteral struct {
	Position token.Position
	Value    bool
}

func (n *BoolLiteral) Pos() token.Position { return n.Position }
func (n *BoolLiteral) expressionNode()     {}

type NullLiteral struct{ Position token.Position }

func (n *NullLiteral) Pos() token.Position { return n.Position }
func (n *NullLiteral) expressionNode()     {}

type UndefinedLiteral struct{ Position token.Position }

func (n *UndefinedLiteral) Pos() token.Position { return n.Position }
func (n *UndefinedLiteral) expressionNode()     {}

type Identifier struct {
	Position token.Position
	Name     string
}

func (n *Identifier) Pos() token.Position { return n.Position }
func (n *Identifier) expressionNode()     {}

type ThisExpr struct{ Position token.Position }

func (n *ThisExpr) Pos() token.Position { return n.Position }
func (n *ThisExpr) expressionNode()     {}

// ObjectLiteral is `{ key: value, ... }`.
type ObjectLiteral struct {
	Position token.Position
	Keys     []string
	Values   []Expression
}

func (n *ObjectLiteral) Pos() token.Position { return n.Position }
func (n *ObjectLiteral) expressionNode()     {}

// ArrayLiteral is `[ a, b, ... ]`.
type ArrayLiteral struct {
	Position token.Position
	Elements []Expression
}

func (n *ArrayLiteral) Pos() token.Position { return n.Position }
func (n *ArrayLiteral) expressionNode()     {}

// FunctionLiteral is a `function(...) {...}` expression (also used for
// `function name(...) {...}` declarations, wrapped in a statement).
type FunctionLiteral struct {
	Position token.Position
	Name     string // "" for anonymous
	Params   []string
	Body     []Statement
}

func (n *FunctionLiteral) Pos() token.Position { return n.Position }
func (n *FunctionLiteral) expressionNode()     {}

// MemberExpr is `target.key` or `target[key]`.
type MemberExpr struct {
	Position token.Position
	Target   Expression
	Key      Expression // StringLiteral for `.key`, arbitrary for `[key]`
	Computed bool
}

func (n *MemberExpr) Pos() token.Position { return n.Position }
func (n *MemberExpr) expressionNode()     {}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	Position token.Position
	Callee   Expression
	Args     []Expression
	IsNew    bool
}

func (n *CallExpr) Pos() token.Position { return n.Position }
func (n *CallExpr) expressionNode()     {}

// UnaryExpr covers prefix `+ - ! typeof void ++ --`.
type UnaryExpr struct {
	Position token.Position
	Op       string
	Operand  Expression
}

func (n *UnaryExpr) Pos() token.Position { return n.Position }
func (n *UnaryExpr) expressionNode()     {}

// PostfixExpr covers postfix `++`/`--`.
type PostfixExpr struct {
	Position token.Position
	Op       string
	Operand  Expression
}

func (n *PostfixExpr) Pos() token.Position { return n.Position }
func (n *PostfixExpr) expressionNode()     {}

// BinaryExpr covers arithmetic, relational, equality, and `&&`/`||`.
type BinaryExpr struct {
	Position token.Position
	Op       string
	Left     Expression
	Right    Expression
}

func (n *BinaryExpr) Pos() token.Position { return n.Position }
func (n *BinaryExpr) expressionNode()     {}

// AssignExpr is `target = value` (target is an Identifier or MemberExpr).
type AssignExpr struct {
	Position token.Position
	Target   Expression
	Value    Expression
}

func (n *AssignExpr) Pos() token.Position { return n.Position }
func (n *AssignExpr) expressionNode()     {}

// ConditionalExpr is `cond ? then : else`.
type ConditionalExpr struct {
	Position token.Position
	Cond     Expression
	Then     Expression
	Else     Expression
}

func (n *ConditionalExpr) Pos() token.Position { return n.Position }
func (n *ConditionalExpr) expressionNode()     {}

// --- Statements ---

type ExpressionStatement struct {
	Position token.Position
	Expr     Expression
}

func (n *ExpressionStatement) Pos() token.Position { return n.Position }
func (n *ExpressionStatement) statementNode()      {}

// VarStatement is `var a = 1, b, c = 2;`.
type VarStatement struct {
	Position token.Position
	Names    []string
	Inits    []Expression // nil entry when no initializer
}

func (n *VarStatement) Pos() token.Position { return n.Position }
func (n *VarStatement) statementNode()      {}

// FunctionDeclaration is `function name(...) {...}` as a statement (hoisted).
type FunctionDeclaration struct {
	Position token.Position
	Fn       *FunctionLiteral
}

func (n *FunctionDeclaration) Pos() token.Position { return n.Position }
func (n *FunctionDeclaration) statementNode()      {}

type ReturnStatement struct {
	Position token.Position
	Value    Expression // nil for bare `return;`
}

func (n *ReturnStatement) Pos() token.Position { return n.Position }
func (n *ReturnStatement) statementNode()      {}

type BlockStatement struct {
	Position token.Position
	Body     []Statement
}

func (n *BlockStatement) Pos() token.Position { return n.Position }
func (n *BlockStatement) statementNode()      {}

type IfStatement struct {
	Position token.Position
	Cond     Expression
	Then     Statement
	Else     Statement // nil when absent
}

func (n *IfStatement) Pos() token.Position { return n.Position }
func (n *IfStatement) statementNode()      {}

type WhileStatement struct {
	Position token.Position
	Cond     Expression
	Body     Statement
}

func (n *WhileStatement) Pos() token.Position { return n.Position }
func (n *WhileStatement) statementNode()      {}

// ForStatement is the classic three-clause for; any clause may be nil, and
// the compiler emits no instructions for a missing clause.
type ForStatement struct {
	Position token.Position
	Init     Statement // ExpressionStatement or VarStatement, or nil
	Cond     Expression
	Update   Expression
	Body     Statement
}

func (n *ForStatement) Pos() token.Position { return n.Position }
func (n *ForStatement) statementNode()      {}

type BreakStatement struct{ Position token.Position }

func (n *BreakStatement) Pos() token.Position { return n.Position }
func (n *BreakStatement) statementNode()      {}

type ContinueStatement struct{ Position token.Position }

func (n *ContinueStatement) Pos() token.Position { return n.Position }
func (n *ContinueStatement) statementNode()      {}

type ThrowStatement struct {
	Position token.Position
	Value    Expression
}

func (n *ThrowStatement) Pos() token.Position { return n.Position }
func (n *ThrowStatement) statementNode()      {}

// TryStatement is `try { } catch (e) { }`; the catch clause and its
// binding are always present in this subset (no finally), so CatchParam
// is never "" in a parsed tree.
type TryStatement struct {
	Position   token.Position
	Try        []Statement
	CatchParam string
	Catch      []Statement
}

func (n *TryStatement) Pos() token.Position { return n.Position }
func (n *TryStatement) statementNode()      {}
