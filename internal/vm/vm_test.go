package vm_test

import (
	"strings"
	"testing"

	"lumen/internal/compiler"
	"lumen/internal/lexer"
	"lumen/internal/parser"
	"lumen/internal/value"
	"lumen/internal/vm"
)

// runSource compiles and runs src end to end, exercising the real
// lexer -> parser -> compiler -> vm pipeline the way a script actually
// executes.
func runSource(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	tokens, err := lexer.NewScanner(src, "test.lm").ScanTokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.New(tokens, "test.lm").Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	closure, err := compiler.Compile(prog, "test.lm")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return vm.New().Run(closure)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"return 1 + 2 * 3", 7},
		{"return (1 + 2) * 3", 9},
		{"return 10 - 4 / 2", 8},
		{"return 7 % 3", 1},
		{"return -(3 + 4)", -7},
	}
	for _, tt := range tests {
		got, err := runSource(t, tt.src)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.src, err)
		}
		if !got.IsNumber() || got.AsNumber() != tt.want {
			t.Errorf("%q: got %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestArrayIndexing(t *testing.T) {
	src := `
let a = [10, 20, 30]
a[1] = 99
return a[0] + a[1] + a[2]
`
	got, err := runSource(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsNumber() || got.AsNumber() != 139 {
		t.Fatalf("got %v, want 139", got)
	}
}

func TestTableFieldAccess(t *testing.T) {
	src := `
let t = { "x": 1, "y": 2 }
t["z"] = 3
return t["x"] + t["y"] + t["z"]
`
	got, err := runSource(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsNumber() || got.AsNumber() != 6 {
		t.Fatalf("got %v, want 6", got)
	}
}

func TestRecursiveFib(t *testing.T) {
	src := `
fn fib(n) {
	if n < 2 {
		return n
	}
	return fib(n - 1) + fib(n - 2)
}
return fib(10)
`
	got, err := runSource(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsNumber() || got.AsNumber() != 55 {
		t.Fatalf("got %v, want 55", got)
	}
}

func TestClosureCounter(t *testing.T) {
	src := `
fn makeCounter() {
	let n = 0
	fn inc() {
		n = n + 1
		return n
	}
	return inc
}
let counter = makeCounter()
counter()
counter()
return counter()
`
	got, err := runSource(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsNumber() || got.AsNumber() != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}

// TestUpvalueWriteBackOnReturn checks that a closure's mutation of a
// captured variable is visible to the creating frame once the closure
// returns, as long as that frame is still alive to read it.
func TestUpvalueWriteBackOnReturn(t *testing.T) {
	src := `
let x = 1;
(fn () {
	x = 2
})()
return x
`
	got, err := runSource(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsNumber() || got.AsNumber() != 2 {
		t.Fatalf("got %v, want 2", got)
	}
}

func TestTypeErrorAddingNilToNumber(t *testing.T) {
	_, err := runSource(t, "return 1 + nil")
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "attempt to add a number and nil value") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestWhileLoop(t *testing.T) {
	src := `
let i = 0
let sum = 0
while i < 5 {
	sum = sum + i
	i = i + 1
}
return sum
`
	got, err := runSource(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsNumber() || got.AsNumber() != 10 {
		t.Fatalf("got %v, want 10", got)
	}
}

func TestForLoop(t *testing.T) {
	src := `
let sum = 0
for (let i = 0; i < 5; i = i + 1) {
	sum = sum + i
}
return sum
`
	got, err := runSource(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsNumber() || got.AsNumber() != 10 {
		t.Fatalf("got %v, want 10", got)
	}
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"if 0 { return true } return false", true},
		{"if \"\" { return true } return false", true},
		{"if nil { return true } return false", false},
		{"if false { return true } return false", false},
	}
	for _, tt := range tests {
		got, err := runSource(t, tt.src)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.src, err)
		}
		if !got.IsBool() || got.AsBool() != tt.want {
			t.Errorf("%q: got %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestCallingNonFunctionIsTypeError(t *testing.T) {
	_, err := runSource(t, "let x = 5\nreturn x()")
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "attempt to call a number value") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestStackOverflowOnUnboundedRecursion(t *testing.T) {
	src := `
fn loop() {
	return loop()
}
return loop()
`
	_, err := runSource(t, src)
	if err == nil {
		t.Fatal("expected a stack overflow error")
	}
	if !strings.Contains(err.Error(), "stack overflow") {
		t.Fatalf("unexpected error message: %v", err)
	}
}
