package compiler

import (
	"fmt"

	"github.com/kristofer/tinyjs/pkg/ast"
	"github.com/kristofer/tinyjs/pkg/bytecode"
)

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emit(bytecode.PutConst, int16(c.addConst(e.Value)))
		return nil

	case *ast.StringLiteral:
		c.emit(bytecode.PutConst, int16(c.addConst(e.Value)))
		return nil

	case *ast.BoolLiteral:
		c.emit(bytecode.PutConst, int16(c.addConst(e.Value)))
		return nil

	case *ast.NullLiteral:
		c.emit(bytecode.PutConst, int16(c.addConst(NullConst{})))
		return nil

	case *ast.UndefinedLiteral:
		c.emit(bytecode.PutConst, int16(c.addConst(UndefinedConst{})))
		return nil

	case *ast.ThisExpr:
		c.emit(bytecode.PutThis)
		return nil

	case *ast.Identifier:
		c.emitLoadName(e.Name)
		return nil

	case *ast.ObjectLiteral:
		return c.compileObjectLiteral(e)

	case *ast.ArrayLiteral:
		return c.compileArrayLiteral(e)

	case *ast.FunctionLiteral:
		return c.bindAnonymousFunctionLiteral(e)

	case *ast.MemberExpr:
		return c.compileMemberRead(e)

	case *ast.CallExpr:
		return c.compileCall(e)

	case *ast.UnaryExpr:
		return c.compileUnary(e)

	case *ast.PostfixExpr:
		return c.compileIncDec(e.Operand, e.Op == "++", false)

	case *ast.BinaryExpr:
		return c.compileBinary(e)

	case *ast.AssignExpr:
		return c.compileAssign(e)

	case *ast.ConditionalExpr:
		return c.compileConditional(e)

	default:
		return fmt.Errorf("%s: unknown expression type %T", c.filename, expr)
	}
}

func (c *Compiler) bindAnonymousFunctionLiteral(fn *ast.FunctionLiteral) error {
	idx, err := c.compileFunction(fn.Name, fn.Params, fn.Body, c.cur)
	if err != nil {
		return err
	}
	c.emit(bytecode.PutConst, int16(c.addConst(FuncRef{Index: idx})))
	return nil
}

func (c *Compiler) compileObjectLiteral(e *ast.ObjectLiteral) error {
	c.emit(bytecode.PutObjDud)
	for i, key := range e.Keys {
		if err := c.compileExpression(e.Values[i]); err != nil {
			return err
		}
		c.emit(bytecode.PutProtoKey, int16(c.addConst(key)))
	}
	return nil
}

func (c *Compiler) compileArrayLiteral(e *ast.ArrayLiteral) error {
	for _, el := range e.Elements {
		if err := c.compileExpression(el); err != nil {
			return err
		}
	}
	c.emit(bytecode.MakeArr, int16(len(e.Elements)))
	return nil
}

// pushMemberKey pushes the key half of a MemberExpr: a constant string for
// `.key`, or the evaluated expression for `[key]`.
func (c *Compiler) pushMemberKey(e *ast.MemberExpr) error {
	if !e.Computed {
		lit := e.Key.(*ast.StringLiteral)
		c.emit(bytecode.PutConst, int16(c.addConst(lit.Value)))
		return nil
	}
	return c.compileExpression(e.Key)
}

func (c *Compiler) compileMemberRead(e *ast.MemberExpr) error {
	if err := c.compileExpression(e.Target); err != nil {
		return err
	}
	if err := c.pushMemberKey(e); err != nil {
		return err
	}
	c.emit(bytecode.GetProp)
	return nil
}

func (c *Compiler) compileCall(e *ast.CallExpr) error {
	if e.IsNew {
		if err := c.compileExpression(e.Callee); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := c.compileExpression(arg); err != nil {
				return err
			}
		}
		c.emit(bytecode.CtorCall, int16(len(e.Args)))
		return nil
	}

	if member, ok := e.Callee.(*ast.MemberExpr); ok {
		if err := c.compileExpression(member.Target); err != nil {
			return err
		}
		c.emit(bytecode.Dup)
		if err := c.pushMemberKey(member); err != nil {
			return err
		}
		c.emit(bytecode.GetProp)
	} else {
		c.emit(bytecode.PutConst, int16(c.addConst(UndefinedConst{})))
		if err := c.compileExpression(e.Callee); err != nil {
			return err
		}
	}

	for _, arg := range e.Args {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}
	c.emit(bytecode.ObjectCall, int16(len(e.Args)))
	return nil
}

func (c *Compiler) compileUnary(e *ast.UnaryExpr) error {
	switch e.Op {
	case "++", "--":
		return c.compileIncDec(e.Operand, e.Op == "++", true)
	case "typeof":
		if err := c.compileExpression(e.Operand); err != nil {
			return err
		}
		c.emit(bytecode.Typename)
		return nil
	case "void":
		if err := c.compileExpression(e.Operand); err != nil {
			return err
		}
		c.emit(bytecode.Discard)
		c.emit(bytecode.PutConst, int16(c.addConst(UndefinedConst{})))
		return nil
	case "!":
		if err := c.compileExpression(e.Operand); err != nil {
			return err
		}
		c.emit(bytecode.TestFalsy)
		return nil
	case "-":
		if err := c.compileExpression(e.Operand); err != nil {
			return err
		}
		c.emit(bytecode.Numify)
		c.emit(bytecode.PutConst, int16(c.addConst(-1.0)))
		c.emit(bytecode.Mul)
		return nil
	case "+":
		if err := c.compileExpression(e.Operand); err != nil {
			return err
		}
		c.emit(bytecode.Numify)
		return nil
	default:
		return fmt.Errorf("%s: unknown unary operator %q", c.filename, e.Op)
	}
}

// compileIncDec implements both prefix and postfix ++/--. See the package
// doc in compiler.go for the stack-shape reasoning: identifiers resolve
// directly (no temporaries needed), while a MemberExpr operand spills its
// object and key into synthetic locals once so they can be read and then
// written without re-evaluating - and thus re-running the side effects of
// - the target/key sub-expressions.
func (c *Compiler) compileIncDec(operand ast.Expression, isInc bool, prefix bool) error {
	step := c.stepOp(isInc)

	switch target := operand.(type) {
	case *ast.Identifier:
		depth := c.cur.scope.resolve(target.Name)
		idx := c.nameConstIdx(target.Name)
		if depth == 0 {
			c.emit(bytecode.DupLocal, idx) // old
			if !prefix {
				c.emit(bytecode.Dup) // old, old
			}
			c.emit(bytecode.PutConst, int16(c.addConst(1.0)))
			c.emit(step) // [.. new] or [old, new]
			c.emit(bytecode.RefLocal, idx)
			c.emit(bytecode.Emplace)
			if !prefix {
				c.emit(bytecode.Discard) // drop new, keep old
			}
			return nil
		}
		c.emit(bytecode.RefUpval, idx, int16(depth)) // old
		if !prefix {
			c.emit(bytecode.Dup) // old, old
		}
		c.emit(bytecode.PutConst, int16(c.addConst(1.0)))
		c.emit(step) // [new] or [old, new]
		// StoreUpval consumes its operand entirely, so duplicate the
		// value being stored first to leave a copy as this
		// expression's result.
		c.emit(bytecode.Dup)
		c.emit(bytecode.StoreUpval, idx, int16(depth))
		if !prefix {
			c.emit(bytecode.Discard)
		}
		return nil

	case *ast.MemberExpr:
		tObj := c.cur.scope.newTemp()
		if err := c.compileExpression(target.Target); err != nil {
			return err
		}
		c.emitRefName(tObj)
		c.emit(bytecode.Emplace)
		c.emit(bytecode.Discard) // drop the obj value this Emplace left

		var keyIsTemp bool
		tKey := ""
		if target.Computed {
			tKey = c.cur.scope.newTemp()
			keyIsTemp = true
			if err := c.compileExpression(target.Key); err != nil {
				return err
			}
			c.emitRefName(tKey)
			c.emit(bytecode.Emplace)
			c.emit(bytecode.Discard) // drop the key value this Emplace left
		}

		pushKey := func() error {
			if keyIsTemp {
				c.emitLoadName(tKey)
				return nil
			}
			return c.pushMemberKey(target)
		}

		c.emitLoadName(tObj)
		if err := pushKey(); err != nil {
			return err
		}
		c.emit(bytecode.GetProp) // old

		tOld := ""
		if !prefix {
			tOld = c.cur.scope.newTemp()
			c.emitRefName(tOld)
			c.emit(bytecode.Emplace) // leaves old
		}

		c.emit(bytecode.PutConst, int16(c.addConst(1.0)))
		c.emit(step) // new

		tNew := c.cur.scope.newTemp()
		c.emitRefName(tNew)
		c.emit(bytecode.Emplace) // leaves new
		c.emit(bytecode.Discard)

		c.emitLoadName(tObj)
		if err := pushKey(); err != nil {
			return err
		}
		c.emitLoadName(tNew)
		c.emit(bytecode.PutProp)
		c.emit(bytecode.Discard)

		if prefix {
			c.emitLoadName(tNew)
		} else {
			c.emitLoadName(tOld)
		}
		return nil

	default:
		return fmt.Errorf("%s: invalid increment/decrement target %T", c.filename, operand)
	}
}

func (c *Compiler) stepOp(isInc bool) bytecode.Opcode {
	if isInc {
		return bytecode.Add
	}
	return bytecode.Sub
}

func (c *Compiler) compileBinary(e *ast.BinaryExpr) error {
	switch e.Op {
	case "&&":
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		c.emit(bytecode.Dup)
		shortCircuit := c.emit(bytecode.JumpElse, 0)
		c.emit(bytecode.Discard)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.patchJump(shortCircuit, c.here())
		return nil
	case "||":
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		c.emit(bytecode.Dup)
		c.emit(bytecode.TestFalsy)
		shortCircuit := c.emit(bytecode.JumpElse, 0)
		c.emit(bytecode.Discard)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.patchJump(shortCircuit, c.here())
		return nil
	}

	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	switch e.Op {
	case "+":
		c.emit(bytecode.Add)
	case "-":
		c.emit(bytecode.Sub)
	case "*":
		c.emit(bytecode.Mul)
	case "/":
		c.emit(bytecode.Div)
	case "%":
		c.emit(bytecode.Mod)
	case "===":
		c.emit(bytecode.StrictEq)
	case "!==":
		c.emit(bytecode.Ne)
	case "<":
		c.emit(bytecode.Lt)
	case "<=":
		c.emit(bytecode.Le)
	case ">":
		c.emit(bytecode.Gt)
	case ">=":
		c.emit(bytecode.Ge)
	default:
		return fmt.Errorf("%s: unknown binary operator %q", c.filename, e.Op)
	}
	return nil
}

func (c *Compiler) compileAssign(e *ast.AssignExpr) error {
	switch target := e.Target.(type) {
	case *ast.Identifier:
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		c.emitStoreName(target.Name)
		return nil
	case *ast.MemberExpr:
		if err := c.compileExpression(target.Target); err != nil {
			return err
		}
		if err := c.pushMemberKey(target); err != nil {
			return err
		}
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		c.emit(bytecode.PutProp)
		return nil
	default:
		return fmt.Errorf("%s: invalid assignment target %T", c.filename, e.Target)
	}
}

func (c *Compiler) compileConditional(e *ast.ConditionalExpr) error {
	if err := c.compileExpression(e.Cond); err != nil {
		return err
	}
	elseJump := c.emit(bytecode.JumpElse, 0)
	if err := c.compileExpression(e.Then); err != nil {
		return err
	}
	endJump := c.emit(bytecode.Jump, 0)
	c.patchJump(elseJump, c.here())
	if err := c.compileExpression(e.Else); err != nil {
		return err
	}
	c.patchJump(endJump, c.here())
	return nil
}
