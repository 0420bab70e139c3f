package bytecode

import "fmt"

// FormatOperands renders the operand portion of a disassembly line: a
// leading "-" on an operand means it's RK-encoded (constant-pool
// mode) rather than a register number. ABC instructions print
// "A B C"; ABx instructions print "A Bx".
func FormatOperands(i Instruction) string {
	op := i.Op()
	if op.Mode() == ModeABx {
		return fmt.Sprintf("%s%d %d", signPrefix(i.AMode()), i.A(), i.Bx())
	}
	return fmt.Sprintf("%s%d %s%d %d", signPrefix(i.AMode()), i.A(), signPrefix(i.BMode()), i.B(), i.C())
}

func signPrefix(rk bool) string {
	if rk {
		return "-"
	}
	return ""
}
