// Package disasm renders a compiled Closure back into the textual
// disassembly format original_source's vm/code.rs produces, for the
// CLI's -l/-ll modes.
package disasm

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"lumen/internal/bytecode"
	"lumen/internal/value"
)

// Print writes cl's disassembly to w. When recursive is true, every
// nested function template in cl.FuncConsts is printed afterward, at
// one deeper indent, and so on transitively.
func Print(w io.Writer, cl *value.Closure, recursive bool) {
	printClosure(w, cl, recursive, 0)
}

func printClosure(w io.Writer, cl *value.Closure, recursive bool, depth int) {
	indent := indentOf(depth)

	fmt.Fprintf(w, "%s%s <%s> (%s instructions)\n", indent, cl.Name, cl.FileName, humanize.Comma(int64(len(cl.Code))))
	fmt.Fprintf(w, "%s%d params, %d constants, %d functions\n", indent, cl.NParams, len(cl.Consts), len(cl.FuncConsts))

	for i, instr := range cl.Code {
		line := 0
		if i < len(cl.Lines) {
			line = cl.Lines[i]
		}
		fmt.Fprintf(w, "%s\t%d\t[%d]\t%s\n", indent, i+1, line, formatInstruction(instr))
	}

	fmt.Fprintf(w, "%sconstants (%d)\n", indent, len(cl.Consts))
	for i, k := range cl.Consts {
		fmt.Fprintf(w, "%s\t%d\t%s\n", indent, i+1, value.Debug(k))
	}

	if !recursive {
		return
	}
	for _, fn := range cl.FuncConsts {
		fmt.Fprintln(w)
		printClosure(w, fn, true, depth+1)
	}
}

func indentOf(depth int) string {
	out := ""
	for i := 0; i < depth; i++ {
		out += "  "
	}
	return out
}

func formatInstruction(i bytecode.Instruction) string {
	return fmt.Sprintf("%s %s", i.Op(), bytecode.FormatOperands(i))
}
