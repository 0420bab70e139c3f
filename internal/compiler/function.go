package compiler

import (
	"lumen/internal/bytecode"
	"lumen/internal/parser"
	"lumen/internal/value"
)

// compileFunctionInto compiles a function literal (named or anonymous)
// into a child Closure and emits a Closure instruction in the parent
// that loads it into dst. The child's upvalue candidate list is seeded
// from every name currently resolvable in the parent — its locals and,
// in turn, its own upvalues — exactly as func_body seeds a nested
// scope: resolution only happens lazily, the first time the child body
// actually references one of these names (see resolveUpval).
func (c *Compiler) compileFunctionInto(name string, params []string, body *parser.BlockStmt, dst uint8, line int) error {
	child := &Compiler{
		file: c.file,
		closure: &value.Closure{
			Name:     name,
			FileName: c.file,
			NParams:  len(params),
		},
	}
	child.upvals = make([]varInfo, 0, len(c.vars)+len(c.upvals))
	for _, v := range c.vars {
		child.upvals = append(child.upvals, varInfo{name: v.name, pos: v.pos})
	}
	for _, v := range c.upvals {
		child.upvals = append(child.upvals, varInfo{name: v.name, pos: v.pos})
	}

	for _, p := range params {
		reg, err := child.reserveRegs(1)
		if err != nil {
			return child.errf(line, "%s", err.Error())
		}
		if err := child.registerVar(p, reg); err != nil {
			return child.errf(line, "%s", err.Error())
		}
	}

	for _, s := range body.Stmts {
		if err := child.compileStmt(s); err != nil {
			return err
		}
		child.freereg = child.nvars
	}
	child.finalReturn()
	child.closure.NUpvals = int(child.ncap)

	idx, err := c.addClosureConst(child.closure)
	if err != nil {
		return c.errf(line, "%s", err.Error())
	}
	c.emit(bytecode.EncodeABx(bytecode.Closure, false, dst, uint16(idx)), line)
	return nil
}
