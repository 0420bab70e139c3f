package compiler_test

import (
	"testing"

	"github.com/kr/pretty"

	"lumen/internal/bytecode"
	"lumen/internal/compiler"
	"lumen/internal/lexer"
	"lumen/internal/parser"
	"lumen/internal/value"
)

func compileSource(t *testing.T, src string) *value.Closure {
	t.Helper()
	tokens, err := lexer.NewScanner(src, "test.lm").ScanTokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.New(tokens, "test.lm").Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cl, err := compiler.Compile(prog, "test.lm")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return cl
}

func opSeq(cl *value.Closure) []bytecode.Op {
	ops := make([]bytecode.Op, len(cl.Code))
	for i, instr := range cl.Code {
		ops[i] = instr.Op()
	}
	return ops
}

func TestConstantPoolDeduplicatesRepeatedLiteral(t *testing.T) {
	cl := compileSource(t, "return 1 + 1")
	if len(cl.Consts) != 1 {
		t.Fatalf("expected a single deduplicated constant, got %d: %# v", len(cl.Consts), pretty.Formatter(cl.Consts))
	}
	if !cl.Consts[0].IsNumber() || cl.Consts[0].AsNumber() != 1 {
		t.Fatalf("unexpected constant pool contents: %# v", pretty.Formatter(cl.Consts))
	}
}

func TestConstantPoolKeepsDistinctLiteralsSeparate(t *testing.T) {
	cl := compileSource(t, `return 1 + "1"`)
	if len(cl.Consts) != 2 {
		t.Fatalf("expected a number and a string to occupy separate slots, got %d: %# v", len(cl.Consts), pretty.Formatter(cl.Consts))
	}
}

func TestArithmeticEmitsAddAfterTwoLoads(t *testing.T) {
	cl := compileSource(t, "let a = 1\nlet b = 2\nreturn a + b")
	ops := opSeq(cl)
	addAt := -1
	for i, op := range ops {
		if op == bytecode.Add {
			addAt = i
			break
		}
	}
	if addAt < 2 {
		t.Fatalf("expected an Add instruction preceded by two loads, got ops: %v", ops)
	}
}

// TestIfStatementJumpsLandInBounds compiles an if/else and checks every
// Jmp instruction's target offset stays inside the instruction stream,
// the same invariant vm.go relies on when it executes Jmp.
func TestIfStatementJumpsLandInBounds(t *testing.T) {
	src := `
let x = 1
if x < 2 {
	x = 10
} else {
	x = 20
}
return x
`
	cl := compileSource(t, src)
	foundJmp := false
	for i, instr := range cl.Code {
		if instr.Op() != bytecode.Jmp {
			continue
		}
		foundJmp = true
		offset := int(instr.Bx())
		target := i + offset
		if instr.A() != 0 {
			target = i - offset
		}
		if target < 0 || target >= len(cl.Code) {
			t.Fatalf("Jmp at %d targets out-of-range instruction %d (len %d)", i, target, len(cl.Code))
		}
	}
	if !foundJmp {
		t.Fatalf("expected at least one Jmp instruction in compiled if/else, got ops: %v", opSeq(cl))
	}
}

// TestNestedClosureCapturesUpvalueWithPrologue mirrors the
// makeCounter/inc pattern: the inner closure's template should record
// exactly one upvalue and start with the GetUpVal prologue instruction
// resolveUpval inserts the first time the capture is actually used.
func TestNestedClosureCapturesUpvalueWithPrologue(t *testing.T) {
	src := `
fn outer() {
	let n = 0
	fn inner() {
		n = n + 1
		return n
	}
	return inner
}
return outer
`
	cl := compileSource(t, src)
	if len(cl.FuncConsts) != 1 {
		t.Fatalf("expected one nested function template for outer, got %d", len(cl.FuncConsts))
	}
	outerFn := cl.FuncConsts[0]
	if len(outerFn.FuncConsts) != 1 {
		t.Fatalf("expected one nested function template for inner, got %d", len(outerFn.FuncConsts))
	}
	innerFn := outerFn.FuncConsts[0]
	if innerFn.NUpvals != 1 {
		t.Fatalf("expected inner to capture exactly one upvalue, got %d", innerFn.NUpvals)
	}
	if len(innerFn.Code) == 0 || innerFn.Code[0].Op() != bytecode.GetUpVal {
		t.Fatalf("expected a GetUpVal prologue as inner's first instruction, got ops: %v", opSeq(innerFn))
	}
}

func TestImplicitReturnNilAppendedWhenMissing(t *testing.T) {
	cl := compileSource(t, "let x = 1")
	n := len(cl.Code)
	if n == 0 || cl.Code[n-1].Op() != bytecode.Return {
		t.Fatalf("expected an implicit trailing Return, got ops: %v", opSeq(cl))
	}
}

func TestExplicitReturnIsNotDuplicated(t *testing.T) {
	cl := compileSource(t, "return 1")
	count := 0
	for _, op := range opSeq(cl) {
		if op == bytecode.Return {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one Return, got %d: %v", count, opSeq(cl))
	}
}
