package compiler

import (
	"fmt"

	"github.com/kristofer/tinyjs/pkg/ast"
	"github.com/kristofer/tinyjs/pkg/bytecode"
)

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if err := c.compileExpression(s.Expr); err != nil {
			return err
		}
		c.emit(bytecode.Discard)
		return nil

	case *ast.VarStatement:
		for i, name := range s.Names {
			init := s.Inits[i]
			if init == nil {
				continue
			}
			if err := c.compileExpression(init); err != nil {
				return err
			}
			c.emitStoreName(name)
			c.emit(bytecode.Discard)
		}
		return nil

	case *ast.FunctionDeclaration:
		// Already bound in emitHoistedBindings; nothing to emit here.
		return nil

	case *ast.ReturnStatement:
		if s.Value != nil {
			if err := c.compileExpression(s.Value); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.PutConst, int16(c.addConst(UndefinedConst{})))
		}
		c.emit(bytecode.Ret)
		return nil

	case *ast.BlockStatement:
		for _, inner := range s.Body {
			if err := c.compileStatement(inner); err != nil {
				return err
			}
		}
		return nil

	case *ast.IfStatement:
		return c.compileIf(s)

	case *ast.WhileStatement:
		return c.compileWhile(s)

	case *ast.ForStatement:
		return c.compileFor(s)

	case *ast.BreakStatement:
		if len(c.cur.loops) == 0 {
			return fmt.Errorf("%s: break outside loop", c.filename)
		}
		loop := c.cur.loops[len(c.cur.loops)-1]
		loop.breakJumps = append(loop.breakJumps, c.emit(bytecode.Jump, 0))
		return nil

	case *ast.ContinueStatement:
		if len(c.cur.loops) == 0 {
			return fmt.Errorf("%s: continue outside loop", c.filename)
		}
		loop := c.cur.loops[len(c.cur.loops)-1]
		loop.continueJumps = append(loop.continueJumps, c.emit(bytecode.Jump, 0))
		return nil

	case *ast.ThrowStatement:
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		c.emit(bytecode.Throw)
		return nil

	case *ast.TryStatement:
		return c.compileTry(s)

	default:
		return fmt.Errorf("%s: unknown statement type %T", c.filename, stmt)
	}
}

func (c *Compiler) compileIf(s *ast.IfStatement) error {
	if err := c.compileExpression(s.Cond); err != nil {
		return err
	}
	elseJump := c.emit(bytecode.JumpElse, 0)
	if err := c.compileStatement(s.Then); err != nil {
		return err
	}
	if s.Else == nil {
		c.patchJump(elseJump, c.here())
		return nil
	}
	endJump := c.emit(bytecode.Jump, 0)
	c.patchJump(elseJump, c.here())
	if err := c.compileStatement(s.Else); err != nil {
		return err
	}
	c.patchJump(endJump, c.here())
	return nil
}

func (c *Compiler) compileWhile(s *ast.WhileStatement) error {
	loop := &loopCtx{}
	c.cur.loops = append(c.cur.loops, loop)

	condStart := c.here()
	if err := c.compileExpression(s.Cond); err != nil {
		return err
	}
	exitJump := c.emit(bytecode.JumpElse, 0)
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	c.emit(bytecode.Jump, int16(condStart-(c.here()+1)))
	c.patchJump(exitJump, c.here())

	for _, at := range loop.breakJumps {
		c.patchJump(at, c.here())
	}
	for _, at := range loop.continueJumps {
		c.patchJump(at, condStart)
	}
	c.cur.loops = c.cur.loops[:len(c.cur.loops)-1]
	return nil
}

func (c *Compiler) compileFor(s *ast.ForStatement) error {
	if s.Init != nil {
		if err := c.compileStatement(s.Init); err != nil {
			return err
		}
	}

	loop := &loopCtx{}
	c.cur.loops = append(c.cur.loops, loop)

	condStart := c.here()
	var exitJump int
	hasCond := s.Cond != nil
	if hasCond {
		if err := c.compileExpression(s.Cond); err != nil {
			return err
		}
		exitJump = c.emit(bytecode.JumpElse, 0)
	}

	if err := c.compileStatement(s.Body); err != nil {
		return err
	}

	updateStart := c.here()
	if s.Update != nil {
		if err := c.compileExpression(s.Update); err != nil {
			return err
		}
		c.emit(bytecode.Discard)
	}
	c.emit(bytecode.Jump, int16(condStart-(c.here()+1)))

	if hasCond {
		c.patchJump(exitJump, c.here())
	}
	for _, at := range loop.breakJumps {
		c.patchJump(at, c.here())
	}
	for _, at := range loop.continueJumps {
		c.patchJump(at, updateStart)
	}
	c.cur.loops = c.cur.loops[:len(c.cur.loops)-1]
	return nil
}

// compileTry emits the try block followed by an unconditional jump past
// the catch handler, then the catch handler itself. The VM's exception
// unwinder is responsible for transferring control to the catch handler's
// start address (recorded alongside the try region) when an exception
// propagates out of the try block; it pushes the thrown value and jumps to
// the handler's compiled code, which begins with the `catch` opcode that
// pops that value and binds it to the catch parameter's name.
func (c *Compiler) compileTry(s *ast.TryStatement) error {
	tryStart := c.here()
	for _, inner := range s.Try {
		if err := c.compileStatement(inner); err != nil {
			return err
		}
	}
	skipCatch := c.emit(bytecode.Jump, 0)

	catchStart := c.here()
	paramIdx := c.nameConstIdx(s.CatchParam)
	c.emit(bytecode.Catch, paramIdx)
	for _, inner := range s.Catch {
		if err := c.compileStatement(inner); err != nil {
			return err
		}
	}
	c.patchJump(skipCatch, c.here())

	c.cur.proto.TryRegions = append(c.cur.proto.TryRegions, bytecode.TryRegion{
		Start:      tryStart,
		End:        catchStart,
		CatchStart: catchStart,
	})
	return nil
}
