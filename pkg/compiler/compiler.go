// Package compiler lowers a pkg/ast tree into a pkg/bytecode Program.
//
// Compilation is single pass per statement with one exception: each
// function body is pre-scanned (a "hoisting" prepass) to collect every
// var and function declaration reachable without crossing into a nested
// function literal, so identifiers can be resolved to a local slot,
// captured upvalue, or global before the emitting pass reaches their use.
//
// Stack discipline: every expression-compiling method leaves exactly one
// value on the operand stack. Every statement-compiling method leaves the
// stack exactly as it found it.
package compiler

import (
	"github.com/kristofer/tinyjs/pkg/ast"
	"github.com/kristofer/tinyjs/pkg/bytecode"
)

// FuncRef is a constant-pool marker: when the VM's put_const executes
// with a FuncRef constant, it allocates a Lambda object bound to
// Functions[Index] and capturing the current environment, instead of
// pushing the marker itself. This keeps closure creation on the same
// "one polymorphic opcode, constant-pool-tagged" path as every other
// literal, rather than adding a dedicated make-closure opcode.
type FuncRef struct{ Index int }

// NullConst and UndefinedConst are the constant-pool markers for the
// `null` and `undefined` literals, for the same reason FuncRef exists:
// put_const is the only literal-pushing opcode, so every literal kind
// needs a distinguishable Go type living in the constant pool.
type NullConst struct{}
type UndefinedConst struct{}

type loopCtx struct {
	breakJumps    []int
	continueJumps []int
}

// funcCompiler holds the in-progress state for one FunctionProto.
type funcCompiler struct {
	proto  bytecode.FunctionProto
	scope  *funcScope
	parent *funcCompiler
	loops  []*loopCtx
}

// Compiler drives compilation of one Program, accumulating every nested
// function into a flat Functions slice and sharing one constant pool.
type Compiler struct {
	consts   []interface{}
	constIdx map[interface{}]int
	funcs    []bytecode.FunctionProto
	cur      *funcCompiler
	filename string
}

// New creates a compiler for a single translation unit.
func New(filename string) *Compiler {
	return &Compiler{constIdx: make(map[interface{}]int), filename: filename}
}

// Compile lowers prog into a Program whose entry function runs prog's
// top-level statements.
func Compile(filename string, prog *ast.Program, preludeNames []string) (*bytecode.Program, error) {
	c := New(filename)
	entryIndex, err := c.compileFunction("", nil, prog.Statements, nil)
	if err != nil {
		return nil, err
	}
	return &bytecode.Program{
		Consts:      c.consts,
		Functions:   c.funcs,
		EntryIndex:  entryIndex,
		HeapPrelude: preludeNames,
	}, nil
}

func (c *Compiler) addConst(v interface{}) int {
	if idx, ok := c.constIdx[v]; ok {
		return idx
	}
	idx := len(c.consts)
	c.consts = append(c.consts, v)
	// Only string, float64 and bool constants are recorded for reuse;
	// FuncRef/NullConst/UndefinedConst get a fresh pool entry on every
	// call.
	switch v.(type) {
	case string, float64, bool:
		c.constIdx[v] = idx
	}
	return idx
}

func (c *Compiler) emit(op bytecode.Opcode, args ...int16) int {
	inst := bytecode.Instruction{Op: op}
	for i, a := range args {
		inst.Args[i] = a
	}
	c.cur.proto.Code = append(c.cur.proto.Code, inst)
	return len(c.cur.proto.Code) - 1
}

func (c *Compiler) here() int { return len(c.cur.proto.Code) }

// patchJump backfills a previously emitted jump's offset so it targets the
// instruction after `target - 1`, i.e. resolves to "jump to here" when
// called with target == c.here().
func (c *Compiler) patchJump(at int, target int) {
	offset := target - (at + 1)
	c.cur.proto.Code[at].Args[0] = int16(offset)
}

// compileFunction compiles one function body (or the top-level program,
// when name=="" and enclosing==nil) into a new FunctionProto, returning
// its index in c.funcs.
func (c *Compiler) compileFunction(name string, params []string, body []ast.Statement, enclosing *funcCompiler) (int, error) {
	var parentScope *funcScope
	if enclosing != nil {
		parentScope = enclosing.scope
	}
	fc := &funcCompiler{
		proto:  bytecode.FunctionProto{Name: name, Params: params, SourceFile: c.filename},
		scope:  newFuncScope(parentScope),
		parent: enclosing,
	}
	for _, p := range params {
		fc.scope.declare(p)
	}

	prevCur := c.cur
	c.cur = fc
	hoist(fc.scope, body)
	if err := c.emitHoistedBindings(body); err != nil {
		c.cur = prevCur
		return 0, err
	}
	for i, stmt := range body {
		// The top-level program returns the value of its final statement
		// when that statement is an expression statement.
		if es, ok := stmt.(*ast.ExpressionStatement); ok && enclosing == nil && i == len(body)-1 {
			if err := c.compileExpression(es.Expr); err != nil {
				c.cur = prevCur
				return 0, err
			}
			c.emit(bytecode.Ret)
			continue
		}
		if err := c.compileStatement(stmt); err != nil {
			c.cur = prevCur
			return 0, err
		}
	}
	c.emit(bytecode.PutConst, int16(c.addConst(UndefinedConst{})))
	c.emit(bytecode.Ret)

	fc.proto.NumLocals = len(fc.scope.names)
	idx := len(c.funcs)
	c.funcs = append(c.funcs, fc.proto)
	c.cur = prevCur
	return idx, nil
}

// emitHoistedBindings pre-binds every hoisted function declaration in
// body to a freshly created closure, so calling a function declared later
// in the same scope (textually) already works at the top of the block -
// the defining ES5 hoisting guarantee. Plain `var` names are left
// undefined; their initializer (if any) runs at its normal textual
// position during the main emission pass.
func (c *Compiler) emitHoistedBindings(body []ast.Statement) error {
	for _, stmt := range body {
		decl, ok := stmt.(*ast.FunctionDeclaration)
		if !ok {
			continue
		}
		if err := c.bindFunctionLiteral(decl.Fn); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) bindFunctionLiteral(fn *ast.FunctionLiteral) error {
	idx, err := c.compileFunction(fn.Name, fn.Params, fn.Body, c.cur)
	if err != nil {
		return err
	}
	refIdx := c.addConst(FuncRef{Index: idx})
	c.emit(bytecode.PutConst, int16(refIdx))
	if fn.Name != "" {
		c.emitStoreName(fn.Name)
		c.emit(bytecode.Discard)
	}
	return nil
}

// --- name resolution helpers ---

func (c *Compiler) nameConstIdx(name string) int16 { return int16(c.addConst(name)) }

// emitLoadName pushes the current value of name.
func (c *Compiler) emitLoadName(name string) {
	depth := c.cur.scope.resolve(name)
	idx := c.nameConstIdx(name)
	if depth == 0 {
		c.emit(bytecode.DupLocal, idx)
	} else {
		c.emit(bytecode.RefUpval, idx, int16(depth))
	}
}

// emitRefName pushes a (handle, key) reference to name, consumed by
// Emplace. Only meaningful at depth 0 - upvalues store directly via
// StoreUpval and never need a generic reference.
func (c *Compiler) emitRefName(name string) {
	idx := c.nameConstIdx(name)
	c.emit(bytecode.RefLocal, idx)
}

// emitStoreName stores the value already on top of the stack into name,
// leaving that value on the stack.
func (c *Compiler) emitStoreName(name string) {
	depth := c.cur.scope.resolve(name)
	idx := c.nameConstIdx(name)
	if depth == 0 {
		c.emitRefName(name)
		c.emit(bytecode.Emplace)
	} else {
		c.emit(bytecode.Dup)
		c.emit(bytecode.StoreUpval, idx, int16(depth))
	}
}
