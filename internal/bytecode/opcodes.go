// Package bytecode defines Lumen's instruction encoding: a flat
// 32-bit word format with two operand layouts (ABC and ABx), and the
// 31 opcodes the compiler emits and the VM dispatches on. This
// package has no dependency on the runtime value model — it only
// knows about bits, so the compiler, VM, and disassembler can all
// import it without a cycle.
package bytecode

// Op identifies an opcode. The numeric values 0-30 are part of the
// wire format (stable bytecode dumps rely on them), so this list must
// never be reordered.
type Op uint8

const (
	Move Op = iota
	LoadConst
	LoadBool
	LoadNil
	GetUpVal
	SetUpVal
	GetGlobal
	SetGlobal
	NewTable
	NewArray
	GetObj
	SetObj
	Add
	Sub
	Mul
	Div
	Mod
	Eq
	Neq
	Gt // implements `<` — see Lt below, the naming is inverted on purpose
	Ge
	Lt // implements `>` — mirror image of Gt
	Le
	Neg
	Not
	Jmp
	Test
	Call
	Closure
	Return
	Close

	numOps
)

var opNames = [numOps]string{
	Move:      "Move",
	LoadConst: "LoadConst",
	LoadBool:  "LoadBool",
	LoadNil:   "LoadNil",
	GetUpVal:  "GetUpVal",
	SetUpVal:  "SetUpVal",
	GetGlobal: "GetGlobal",
	SetGlobal: "SetGlobal",
	NewTable:  "NewTable",
	NewArray:  "NewArray",
	GetObj:    "GetObj",
	SetObj:    "SetObj",
	Add:       "Add",
	Sub:       "Sub",
	Mul:       "Mul",
	Div:       "Div",
	Mod:       "Mod",
	Eq:        "Eq",
	Neq:       "Neq",
	Gt:        "Gt",
	Ge:        "Ge",
	Lt:        "Lt",
	Le:        "Le",
	Neg:       "Neg",
	Not:       "Not",
	Jmp:       "Jmp",
	Test:      "Test",
	Call:      "Call",
	Closure:   "Closure",
	Return:    "Return",
	Close:     "Close",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "Unknown"
}

// Mode tells a consumer how to read the operand fields of an
// instruction carrying this opcode.
type Mode uint8

const (
	ModeABC Mode = iota
	ModeABx
)

var opModes = [numOps]Mode{
	Move:      ModeABC,
	LoadConst: ModeABx,
	LoadBool:  ModeABC,
	LoadNil:   ModeABC,
	GetUpVal:  ModeABC,
	SetUpVal:  ModeABC,
	GetGlobal: ModeABx,
	SetGlobal: ModeABx,
	NewTable:  ModeABC,
	NewArray:  ModeABC,
	GetObj:    ModeABC,
	SetObj:    ModeABC,
	Add:       ModeABC,
	Sub:       ModeABC,
	Mul:       ModeABC,
	Div:       ModeABC,
	Mod:       ModeABC,
	Eq:        ModeABC,
	Neq:       ModeABC,
	Gt:        ModeABC,
	Ge:        ModeABC,
	Lt:        ModeABC,
	Le:        ModeABC,
	Neg:       ModeABC,
	Not:       ModeABC,
	Jmp:       ModeABx,
	Test:      ModeABC,
	Call:      ModeABC,
	Closure:   ModeABx,
	Return:    ModeABC,
	Close:     ModeABC,
}

func (o Op) Mode() Mode {
	if int(o) < len(opModes) {
		return opModes[o]
	}
	return ModeABC
}
