package compiler

import (
	"lumen/internal/bytecode"
	"lumen/internal/parser"
	"lumen/internal/value"
)

// operand is an RK-encoded operand: either a constant-pool index
// (mode=true) or a register number (mode=false).
type operand struct {
	mode bool
	val  uint8
}

// rk resolves e to an RK operand without necessarily emitting any
// instruction: literals that fit the constant pool and locals resolve
// directly; anything else is evaluated into a fresh scratch register.
func (c *Compiler) rk(e parser.Expr) (operand, error) {
	switch n := e.(type) {
	case *parser.NumberExpr:
		idx, err := c.addConst(value.Number(n.Value))
		if err != nil {
			return operand{}, c.errf(n.Line, "%s", err.Error())
		}
		if idx < 255 {
			return operand{mode: true, val: uint8(idx)}, nil
		}
	case *parser.StringExpr:
		idx, err := c.addConst(value.String(n.Value))
		if err != nil {
			return operand{}, c.errf(n.Line, "%s", err.Error())
		}
		if idx < 255 {
			return operand{mode: true, val: uint8(idx)}, nil
		}
	case *parser.NameExpr:
		if slot, ok := c.resolveLocal(n.Name); ok {
			return operand{mode: false, val: slot}, nil
		}
	}

	reg, err := c.exprToNextReg(e)
	if err != nil {
		return operand{}, err
	}
	return operand{mode: false, val: reg}, nil
}

// exprToNextReg evaluates e into a freshly reserved scratch register
// and returns it.
func (c *Compiler) exprToNextReg(e parser.Expr) (uint8, error) {
	reg, err := c.reserveRegs(1)
	if err != nil {
		return 0, c.errf(lineOf(e), "%s", err.Error())
	}
	if err := c.compileExprInto(e, reg); err != nil {
		return 0, err
	}
	return reg, nil
}

func lineOf(e parser.Expr) int {
	switch n := e.(type) {
	case *parser.StringExpr:
		return n.Line
	case *parser.NumberExpr:
		return n.Line
	case *parser.NameExpr:
		return n.Line
	case *parser.BoolExpr:
		return n.Line
	case *parser.NilExpr:
		return n.Line
	case *parser.AnonFnExpr:
		return n.Line
	case *parser.ArrayExpr:
		return n.Line
	case *parser.TableExpr:
		return n.Line
	case *parser.IndexExpr:
		return n.Line
	case *parser.CallExpr:
		return n.Line
	case *parser.UnaryExpr:
		return n.Line
	case *parser.BinaryExpr:
		return n.Line
	}
	return 0
}

// relOp maps a source comparison operator to its (inverted-naming)
// opcode: Gt implements `<`, Ge implements `<=`, Lt implements `>`,
// Le implements `>=` — preserved exactly as the language defines it.
func relOp(op string) bytecode.Op {
	switch op {
	case "<":
		return bytecode.Gt
	case "<=":
		return bytecode.Ge
	case ">":
		return bytecode.Lt
	case ">=":
		return bytecode.Le
	case "==":
		return bytecode.Eq
	case "!=":
		return bytecode.Neq
	}
	return bytecode.Eq
}

func isRelOp(op string) bool {
	switch op {
	case "<", "<=", ">", ">=", "==", "!=":
		return true
	}
	return false
}

func arithOp(op string) bytecode.Op {
	switch op {
	case "+":
		return bytecode.Add
	case "-":
		return bytecode.Sub
	case "*":
		return bytecode.Mul
	case "/":
		return bytecode.Div
	case "%":
		return bytecode.Mod
	}
	return bytecode.Add
}
