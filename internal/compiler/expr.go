package compiler

import (
	"fmt"

	"lumen/internal/bytecode"
	"lumen/internal/parser"
	"lumen/internal/value"
)

// compileExprInto evaluates e, placing its result in register dst.
func (c *Compiler) compileExprInto(e parser.Expr, dst uint8) error {
	switch n := e.(type) {
	case *parser.NumberExpr:
		return c.loadConstInto(value.Number(n.Value), dst, n.Line)
	case *parser.StringExpr:
		return c.loadConstInto(value.String(n.Value), dst, n.Line)
	case *parser.BoolExpr:
		c.emit(bytecode.EncodeABC(bytecode.LoadBool, false, dst, false, boolB(n.Value), 0), n.Line)
		return nil
	case *parser.NilExpr:
		c.emit(bytecode.EncodeABC(bytecode.LoadNil, false, dst, false, 0, 0), n.Line)
		return nil
	case *parser.NameExpr:
		return c.loadNameInto(n, dst)
	case *parser.AnonFnExpr:
		return c.compileFunctionInto(newAnonName(), n.Params, n.Body, dst, n.Line)
	case *parser.ArrayExpr:
		return c.compileArrayInto(n, dst)
	case *parser.TableExpr:
		return c.compileTableInto(n, dst)
	case *parser.IndexExpr:
		return c.compileIndexInto(n, dst)
	case *parser.CallExpr:
		return c.compileCallInto(n, dst)
	case *parser.UnaryExpr:
		return c.compileUnaryInto(n, dst)
	case *parser.BinaryExpr:
		return c.compileBinaryInto(n, dst)
	default:
		return fmt.Errorf("compiler: unknown expression type %T", e)
	}
}

func boolB(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (c *Compiler) loadConstInto(v value.Value, dst uint8, line int) error {
	idx, err := c.addConst(v)
	if err != nil {
		return c.errf(line, "%s", err.Error())
	}
	c.emit(bytecode.EncodeABx(bytecode.LoadConst, false, dst, uint16(idx)), line)
	return nil
}

func (c *Compiler) loadNameInto(n *parser.NameExpr, dst uint8) error {
	if slot, ok := c.resolveLocal(n.Name); ok {
		if slot != dst {
			c.emit(bytecode.EncodeABC(bytecode.Move, false, dst, false, slot, 0), n.Line)
		}
		return nil
	}
	if slot, ok, err := c.resolveUpval(n.Name); err != nil {
		return c.errf(n.Line, "%s", err.Error())
	} else if ok {
		c.emit(bytecode.EncodeABC(bytecode.GetUpVal, false, dst, false, slot, 0), n.Line)
		return nil
	}
	idx, err := c.addConst(value.String(n.Name))
	if err != nil {
		return c.errf(n.Line, "%s", err.Error())
	}
	c.emit(bytecode.EncodeABx(bytecode.GetGlobal, false, dst, uint16(idx)), n.Line)
	return nil
}

func (c *Compiler) compileArrayInto(n *parser.ArrayExpr, dst uint8) error {
	base := dst
	count := len(n.Elems)
	if _, err := c.reserveRegs(count); err != nil {
		return c.errf(n.Line, "%s", err.Error())
	}
	for i, el := range n.Elems {
		if err := c.compileExprInto(el, base+1+uint8(i)); err != nil {
			return err
		}
	}
	c.emit(bytecode.EncodeABC(bytecode.NewArray, false, base, false, base+uint8(count), 0), n.Line)
	c.freereg = base + 1
	return nil
}

func (c *Compiler) compileTableInto(n *parser.TableExpr, dst uint8) error {
	base := dst
	count := len(n.Pairs) * 2
	if _, err := c.reserveRegs(count); err != nil {
		return c.errf(n.Line, "%s", err.Error())
	}
	for i, pair := range n.Pairs {
		keyReg := base + uint8(i*2)
		valReg := base + uint8(i*2) + 1
		if err := c.compileExprInto(pair.Key, keyReg); err != nil {
			return err
		}
		if err := c.compileExprInto(pair.Value, valReg); err != nil {
			return err
		}
	}
	c.emit(bytecode.EncodeABC(bytecode.NewTable, false, base, false, base+uint8(count), 0), n.Line)
	c.freereg = base + 1
	return nil
}

func (c *Compiler) compileIndexInto(n *parser.IndexExpr, dst uint8) error {
	if err := c.compileExprInto(n.Obj, dst); err != nil {
		return err
	}
	c.freereg = dst + 1
	key, err := c.rk(n.Key)
	if err != nil {
		return err
	}
	c.freereg = dst + 1
	c.emit(bytecode.EncodeABC(bytecode.GetObj, false, dst, key.mode, key.val, 0), n.Line)
	return nil
}

func (c *Compiler) compileCallInto(n *parser.CallExpr, dst uint8) error {
	base := dst
	nargs := len(n.Args)
	if _, err := c.reserveRegs(1 + nargs); err != nil {
		return c.errf(n.Line, "%s", err.Error())
	}
	if err := c.compileExprInto(n.Fn, base); err != nil {
		return err
	}
	for i, a := range n.Args {
		if err := c.compileExprInto(a, base+1+uint8(i)); err != nil {
			return err
		}
	}
	c.emit(bytecode.EncodeABC(bytecode.Call, false, base, false, base+uint8(1+nargs), base), n.Line)
	c.freereg = base + 1
	return nil
}

func (c *Compiler) compileUnaryInto(n *parser.UnaryExpr, dst uint8) error {
	op, err := c.rk(n.Expr)
	if err != nil {
		return err
	}
	switch n.Op {
	case "-":
		c.emit(bytecode.EncodeABC(bytecode.Neg, false, dst, op.mode, op.val, 0), n.Line)
	case "!":
		c.emit(bytecode.EncodeABC(bytecode.Not, false, dst, op.mode, op.val, 0), n.Line)
	default:
		return c.errf(n.Line, "unknown unary operator %q", n.Op)
	}
	return nil
}

func (c *Compiler) compileBinaryInto(n *parser.BinaryExpr, dst uint8) error {
	switch n.Op {
	case "=":
		return c.compileAssignInto(n, dst)
	case "&&":
		return c.compileLogicalInto(n, dst, true)
	case "||":
		return c.compileLogicalInto(n, dst, false)
	}

	lhs, err := c.rk(n.Lhs)
	if err != nil {
		return err
	}
	rhs, err := c.rk(n.Rhs)
	if err != nil {
		return err
	}

	var op bytecode.Op
	if isRelOp(n.Op) {
		op = relOp(n.Op)
	} else {
		op = arithOp(n.Op)
	}
	c.emit(bytecode.EncodeABC(op, lhs.mode, lhs.val, rhs.mode, rhs.val, dst), n.Line)
	return nil
}

// compileLogicalInto implements && and || via Test+Jmp short-circuit:
// evaluate lhs into dst; for && skip the short-circuit jump when lhs
// is truthy (fall through to evaluate rhs); for || skip it when lhs
// is falsy. Either way, reaching the jump means keep lhs's value and
// skip rhs.
func (c *Compiler) compileLogicalInto(n *parser.BinaryExpr, dst uint8, isAnd bool) error {
	if err := c.compileExprInto(n.Lhs, dst); err != nil {
		return err
	}
	c.freereg = dst + 1

	testB := uint8(0)
	if !isAnd {
		testB = 1
	}
	c.emit(bytecode.EncodeABC(bytecode.Test, false, dst, false, testB, 0), n.Line)
	jmpEnd := c.emitJumpPlaceholder(n.Line)

	if err := c.compileExprInto(n.Rhs, dst); err != nil {
		return err
	}
	c.freereg = dst + 1

	if err := c.patchJumpHere(jmpEnd); err != nil {
		return c.errf(n.Line, "%s", err.Error())
	}
	return nil
}

func (c *Compiler) compileAssignInto(n *parser.BinaryExpr, dst uint8) error {
	switch target := n.Lhs.(type) {
	case *parser.NameExpr:
		if err := c.compileExprInto(n.Rhs, dst); err != nil {
			return err
		}
		if slot, ok := c.resolveLocal(target.Name); ok {
			if slot != dst {
				c.emit(bytecode.EncodeABC(bytecode.Move, false, slot, false, dst, 0), n.Line)
			}
			return nil
		}
		if slot, ok, err := c.resolveUpval(target.Name); err != nil {
			return c.errf(n.Line, "%s", err.Error())
		} else if ok {
			c.emit(bytecode.EncodeABC(bytecode.SetUpVal, false, slot, false, dst, 0), n.Line)
			return nil
		}
		idx, err := c.addConst(value.String(target.Name))
		if err != nil {
			return c.errf(n.Line, "%s", err.Error())
		}
		c.emit(bytecode.EncodeABx(bytecode.SetGlobal, false, dst, uint16(idx)), n.Line)
		return nil

	case *parser.IndexExpr:
		objReg, err := c.reserveRegs(1)
		if err != nil {
			return c.errf(n.Line, "%s", err.Error())
		}
		if err := c.compileExprInto(target.Obj, objReg); err != nil {
			return err
		}
		key, err := c.rk(target.Key)
		if err != nil {
			return err
		}
		valReg, err := c.exprToNextReg(n.Rhs)
		if err != nil {
			return err
		}
		c.emit(bytecode.EncodeABC(bytecode.SetObj, key.mode, key.val, false, valReg, objReg), n.Line)
		if valReg != dst {
			c.emit(bytecode.EncodeABC(bytecode.Move, false, dst, false, valReg, 0), n.Line)
		}
		c.freereg = dst + 1
		return nil

	default:
		return c.errf(n.Line, "invalid assignment target")
	}
}
