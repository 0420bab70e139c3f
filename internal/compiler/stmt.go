package compiler

import (
	"fmt"

	"lumen/internal/bytecode"
	"lumen/internal/parser"
)

func (c *Compiler) compileStmt(s parser.Stmt) error {
	switch n := s.(type) {
	case *parser.LetStmt:
		return c.compileLet(n)
	case *parser.IfStmt:
		return c.compileIf(n)
	case *parser.WhileStmt:
		return c.compileWhile(n)
	case *parser.ForStmt:
		return c.compileFor(n)
	case *parser.FnStmt:
		return c.compileFnStmt(n)
	case *parser.ReturnStmt:
		return c.compileReturn(n)
	case *parser.BlockStmt:
		return c.compileBlock(n)
	case *parser.ExprStmt:
		return c.compileExprStmt(n)
	default:
		return fmt.Errorf("compiler: unknown statement type %T", s)
	}
}

func (c *Compiler) compileLet(s *parser.LetStmt) error {
	reg, err := c.reserveRegs(1)
	if err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	if err := c.compileExprInto(s.Expr, reg); err != nil {
		return err
	}
	if err := c.registerVar(s.Name, reg); err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	return nil
}

// compileFnStmt is sugar for `let name = fn(params) { body }` — a
// named function declaration is just an anonymous one bound to a
// local, matching the language's "functions are values" model.
func (c *Compiler) compileFnStmt(s *parser.FnStmt) error {
	reg, err := c.reserveRegs(1)
	if err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	if err := c.registerVar(s.Name, reg); err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	return c.compileFunctionInto(s.Name, s.Params, s.Body, reg, s.Line)
}

func (c *Compiler) compileBlock(s *parser.BlockStmt) error {
	savedVars := c.vars
	savedNvars := c.nvars
	savedFreereg := c.freereg

	for _, inner := range s.Stmts {
		if err := c.compileStmt(inner); err != nil {
			return err
		}
		c.freereg = c.nvars
	}

	c.vars = savedVars
	c.nvars = savedNvars
	c.freereg = savedFreereg
	return nil
}

func (c *Compiler) compileExprStmt(s *parser.ExprStmt) error {
	reg, err := c.reserveRegs(1)
	if err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	if err := c.compileExprInto(s.Expr, reg); err != nil {
		return err
	}
	c.freereg = c.nvars
	return nil
}

func (c *Compiler) compileReturn(s *parser.ReturnStmt) error {
	if s.Expr == nil {
		c.emit(bytecode.EncodeABC(bytecode.Return, false, 0, false, 1, 0), s.Line)
		return nil
	}
	op, err := c.rk(s.Expr)
	if err != nil {
		return err
	}
	c.emit(bytecode.EncodeABC(bytecode.Return, op.mode, op.val, false, 0, 0), s.Line)
	return nil
}

func (c *Compiler) compileIf(s *parser.IfStmt) error {
	condReg, err := c.reserveRegs(1)
	if err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	if err := c.compileExprInto(s.Cond, condReg); err != nil {
		return err
	}
	c.freereg = condReg

	c.emit(bytecode.EncodeABC(bytecode.Test, false, condReg, false, 0, 0), s.Line)
	jmpElse := c.emitJumpPlaceholder(s.Line)

	if err := c.compileStmt(s.Then); err != nil {
		return err
	}
	c.freereg = c.nvars

	if s.Else != nil {
		jmpEnd := c.emitJumpPlaceholder(s.Line)
		if err := c.patchJumpHere(jmpElse); err != nil {
			return c.errf(s.Line, "%s", err.Error())
		}
		if err := c.compileStmt(s.Else); err != nil {
			return err
		}
		c.freereg = c.nvars
		if err := c.patchJumpHere(jmpEnd); err != nil {
			return c.errf(s.Line, "%s", err.Error())
		}
	} else {
		if err := c.patchJumpHere(jmpElse); err != nil {
			return c.errf(s.Line, "%s", err.Error())
		}
	}
	return nil
}

func (c *Compiler) compileWhile(s *parser.WhileStmt) error {
	loopStart := len(c.closure.Code)

	condReg, err := c.reserveRegs(1)
	if err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	if err := c.compileExprInto(s.Cond, condReg); err != nil {
		return err
	}
	c.freereg = condReg

	c.emit(bytecode.EncodeABC(bytecode.Test, false, condReg, false, 0, 0), s.Line)
	jmpEnd := c.emitJumpPlaceholder(s.Line)

	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	c.freereg = c.nvars

	if err := c.emitBackwardJump(loopStart, s.Line); err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	if err := c.patchJumpHere(jmpEnd); err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	return nil
}

func (c *Compiler) compileFor(s *parser.ForStmt) error {
	savedVars := c.vars
	savedNvars := c.nvars
	savedFreereg := c.freereg
	defer func() {
		c.vars = savedVars
		c.nvars = savedNvars
		c.freereg = savedFreereg
	}()

	if s.Init != nil {
		if err := c.compileStmt(s.Init); err != nil {
			return err
		}
		c.freereg = c.nvars
	}

	loopStart := len(c.closure.Code)

	var jmpEnd int
	hasCond := s.Cond != nil
	if hasCond {
		condReg, err := c.reserveRegs(1)
		if err != nil {
			return c.errf(s.Line, "%s", err.Error())
		}
		if err := c.compileExprInto(s.Cond, condReg); err != nil {
			return err
		}
		c.freereg = c.nvars

		c.emit(bytecode.EncodeABC(bytecode.Test, false, condReg, false, 0, 0), s.Line)
		jmpEnd = c.emitJumpPlaceholder(s.Line)
	}

	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	c.freereg = c.nvars

	if s.Post != nil {
		if err := c.compileStmt(s.Post); err != nil {
			return err
		}
		c.freereg = c.nvars
	}

	if err := c.emitBackwardJump(loopStart, s.Line); err != nil {
		return c.errf(s.Line, "%s", err.Error())
	}
	if hasCond {
		if err := c.patchJumpHere(jmpEnd); err != nil {
			return c.errf(s.Line, "%s", err.Error())
		}
	}
	return nil
}

// ---- jumps ----

func (c *Compiler) emitJumpPlaceholder(line int) int {
	return c.emit(bytecode.EncodeABx(bytecode.Jmp, false, 0, 0), line)
}

func (c *Compiler) patchJumpHere(jmpIdx int) error {
	target := len(c.closure.Code)
	offset := target - jmpIdx
	if offset > maxJump {
		return fmt.Errorf("block is too long")
	}
	c.closure.Code[jmpIdx] = bytecode.EncodeABx(bytecode.Jmp, false, 0, uint16(offset))
	return nil
}

func (c *Compiler) emitBackwardJump(loopStart int, line int) error {
	idx := len(c.closure.Code) // index this Jmp instruction will occupy
	offset := idx - loopStart
	if offset > maxJump {
		return fmt.Errorf("block is too long")
	}
	c.emit(bytecode.EncodeABx(bytecode.Jmp, false, 1, uint16(offset)), line)
	return nil
}
