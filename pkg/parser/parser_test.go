package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/tinyjs/pkg/ast"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(1, "<test>", src)
	prog, err := p.Parse()
	require.NoError(t, err, "parser errors: %v", p.Errors())
	return prog
}

func TestParseVarStatement(t *testing.T) {
	prog := parseProgram(t, `var a = 1, b, c = 2;`)
	require.Len(t, prog.Statements, 1)
	stmt, ok := prog.Statements[0].(*ast.VarStatement)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, stmt.Names)
	require.Len(t, stmt.Inits, 3)
	assert.Nil(t, stmt.Inits[1])
	assert.NotNil(t, stmt.Inits[0])
	assert.NotNil(t, stmt.Inits[2])
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := parseProgram(t, `function add(a, b) { return a + b; }`)
	require.Len(t, prog.Statements, 1)
	decl, ok := prog.Statements[0].(*ast.FunctionDeclaration)
	require.True(t, ok)
	assert.Equal(t, "add", decl.Fn.Name)
	assert.Equal(t, []string{"a", "b"}, decl.Fn.Params)
	require.Len(t, decl.Fn.Body, 1)
	_, ok = decl.Fn.Body[0].(*ast.ReturnStatement)
	assert.True(t, ok)
}

func TestParseBinaryPrecedence(t *testing.T) {
	prog := parseProgram(t, `1 + 2 * 3;`)
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	bin, ok := stmt.Expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)

	right, ok := bin.Right.(*ast.BinaryExpr)
	require.True(t, ok, "multiplication must bind tighter than addition")
	assert.Equal(t, "*", right.Op)
}

func TestParseMemberAndCall(t *testing.T) {
	prog := parseProgram(t, `obj.method(1, 2);`)
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	call, ok := stmt.Expr.(*ast.CallExpr)
	require.True(t, ok)
	assert.Len(t, call.Args, 2)

	member, ok := call.Callee.(*ast.MemberExpr)
	require.True(t, ok)
	assert.False(t, member.Computed)
}

func TestParseObjectLiteral(t *testing.T) {
	prog := parseProgram(t, `var o = { x: 1, y: 2 };`)
	stmt := prog.Statements[0].(*ast.VarStatement)
	lit, ok := stmt.Inits[0].(*ast.ObjectLiteral)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, lit.Keys)
}

func TestParseTryCatch(t *testing.T) {
	prog := parseProgram(t, `try { throw 1; } catch (e) { }`)
	stmt, ok := prog.Statements[0].(*ast.TryStatement)
	require.True(t, ok)
	assert.Equal(t, "e", stmt.CatchParam)
	require.Len(t, stmt.Try, 1)
	_, ok = stmt.Try[0].(*ast.ThrowStatement)
	assert.True(t, ok)
}

func TestParseForStatement(t *testing.T) {
	prog := parseProgram(t, `for (var i = 0; i < 10; i = i + 1) { }`)
	stmt, ok := prog.Statements[0].(*ast.ForStatement)
	require.True(t, ok)
	assert.NotNil(t, stmt.Init)
	assert.NotNil(t, stmt.Cond)
	assert.NotNil(t, stmt.Update)
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	p := New(1, "<test>", `var = ;`)
	_, err := p.Parse()
	assert.Error(t, err)
	assert.NotEmpty(t, p.Errors())
}
