// Package compiler implements Lumen's one-pass, tree-walking bytecode
// compiler: register allocation, constant pool deduplication, RK
// operand resolution, control-flow lowering via Test+Jmp, and
// upvalue capture-prologue emission.
package compiler

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"lumen/internal/bytecode"
	"lumen/internal/errors"
	"lumen/internal/parser"
	"lumen/internal/value"
)

const maxRegisters = 255
const maxConsts = 65535
const maxJump = 65535
const maxCallDepth = 20000

// varInfo names one slot a Compiler can resolve a bare identifier to.
// In c.vars, pos is a register slot in this very frame. In c.upvals,
// pos is either the register slot in the enclosing frame (before
// capture) or the upvalue slot assigned to it in this frame (after
// capture) — see resolveUpval.
type varInfo struct {
	name     string
	pos      uint8
	captured bool
}

// Compiler builds a single Closure. Nested function literals get
// their own child Compiler seeded with the enclosing frame's locals
// and upvalues as capture candidates.
type Compiler struct {
	file    string
	closure *value.Closure

	vars   []varInfo // locals currently in scope, newest first (shadowing)
	upvals []varInfo // capture candidates for this frame

	nvars   uint8
	freereg uint8
	ncap    uint8 // number of upvalues already captured (== prologue instruction count)
}

// Compile compiles a complete program into its top-level closure.
func Compile(prog []parser.Stmt, file string) (*value.Closure, error) {
	c := &Compiler{
		file: file,
		closure: &value.Closure{
			Name:     "main",
			FileName: file,
		},
	}
	for _, s := range prog {
		if err := c.compileStmt(s); err != nil {
			return nil, err
		}
		c.freereg = c.nvars
	}
	c.finalReturn()
	c.closure.NUpvals = int(c.ncap)
	return c.closure, nil
}

// finalReturn appends an implicit `return nil` unless the last
// emitted instruction is already a Return.
func (c *Compiler) finalReturn() {
	n := len(c.closure.Code)
	if n > 0 && c.closure.Code[n-1].Op() == bytecode.Return {
		return
	}
	line := 0
	if n > 0 {
		line = c.closure.Lines[n-1]
	}
	c.emit(bytecode.EncodeABC(bytecode.Return, false, 0, false, 1, 0), line)
}

func (c *Compiler) errf(line int, format string, args ...any) error {
	return errors.NewCompileError(c.file, line, format, args...)
}

// emit appends an instruction and its source line, after any
// already-inserted upvalue capture-prologue instructions.
func (c *Compiler) emit(i bytecode.Instruction, line int) int {
	c.closure.Code = append(c.closure.Code, i)
	c.closure.Lines = append(c.closure.Lines, line)
	return len(c.closure.Code) - 1
}

// ---- registers ----

func (c *Compiler) reserveRegs(n int) (uint8, error) {
	start := c.freereg
	if int(c.freereg)+n > maxRegisters {
		return 0, fmt.Errorf("function or expression too complex")
	}
	c.freereg += uint8(n)
	return start, nil
}

func (c *Compiler) registerVar(name string, reg uint8) error {
	if reg >= maxRegisters {
		return fmt.Errorf("too many local variables")
	}
	c.vars = append([]varInfo{{name: name, pos: reg}}, c.vars...)
	c.nvars = reg + 1
	c.freereg = c.nvars
	return nil
}

func (c *Compiler) resolveLocal(name string) (uint8, bool) {
	for _, v := range c.vars {
		if v.name == name {
			return v.pos, true
		}
	}
	return 0, false
}

// resolveUpval resolves name against this frame's capture candidate
// list, inserting a capture-prologue instruction the first time a
// given candidate is actually used.
func (c *Compiler) resolveUpval(name string) (uint8, bool, error) {
	for i, u := range c.upvals {
		if u.name != name {
			continue
		}
		if u.captured {
			return u.pos, true, nil
		}
		pos := c.ncap
		if int(pos)+1 > maxRegisters {
			return 0, false, fmt.Errorf("too many upvalues")
		}
		prologue := bytecode.EncodeABC(bytecode.GetUpVal, false, pos, false, u.pos, 1)
		c.closure.Code = append(c.closure.Code, 0)
		c.closure.Lines = append(c.closure.Lines, 0)
		copy(c.closure.Code[pos+1:], c.closure.Code[pos:len(c.closure.Code)-1])
		copy(c.closure.Lines[pos+1:], c.closure.Lines[pos:len(c.closure.Lines)-1])
		c.closure.Code[pos] = prologue
		c.closure.Lines[pos] = 0
		c.ncap++
		c.upvals[i].captured = true
		c.upvals[i].pos = pos
		return pos, true, nil
	}
	return 0, false, nil
}

// ---- constants ----

func (c *Compiler) addConst(v value.Value) (int, error) {
	idx := slices.IndexFunc(c.closure.Consts, func(existing value.Value) bool {
		return existing.Kind() == v.Kind() && value.Equal(existing, v)
	})
	if idx >= 0 {
		return idx, nil
	}
	if len(c.closure.Consts) >= maxConsts {
		return 0, fmt.Errorf("constant overflow")
	}
	c.closure.Consts = append(c.closure.Consts, v)
	return len(c.closure.Consts) - 1, nil
}

// addClosureConst records a nested function's template, returning its
// index into FuncConsts — a pool kept separate from Consts so a
// callable value is never stored as a plain constant; every call to
// Closure makes a fresh Function (with its own captured upvalues) from
// the template it names.
func (c *Compiler) addClosureConst(cl *value.Closure) (int, error) {
	if len(c.closure.FuncConsts) >= maxConsts {
		return 0, fmt.Errorf("constant overflow")
	}
	c.closure.FuncConsts = append(c.closure.FuncConsts, cl)
	return len(c.closure.FuncConsts) - 1, nil
}

func newAnonName() string {
	return "<anonymous:" + uuid.NewString()[:8] + ">"
}
