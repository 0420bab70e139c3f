package bytecode_test

import (
	"testing"

	"lumen/internal/bytecode"
)

func TestEncodeABCRoundTrips(t *testing.T) {
	i := bytecode.EncodeABC(bytecode.Add, true, 3, false, 200, 17)
	if i.Op() != bytecode.Add {
		t.Errorf("Op() = %v, want Add", i.Op())
	}
	if !i.AMode() {
		t.Error("AMode() = false, want true")
	}
	if i.A() != 3 {
		t.Errorf("A() = %d, want 3", i.A())
	}
	if i.BMode() {
		t.Error("BMode() = true, want false")
	}
	if i.B() != 200 {
		t.Errorf("B() = %d, want 200", i.B())
	}
	if i.C() != 17 {
		t.Errorf("C() = %d, want 17", i.C())
	}
}

func TestEncodeABxRoundTrips(t *testing.T) {
	i := bytecode.EncodeABx(bytecode.LoadConst, false, 5, 0xBEEF)
	if i.Op() != bytecode.LoadConst {
		t.Errorf("Op() = %v, want LoadConst", i.Op())
	}
	if i.A() != 5 {
		t.Errorf("A() = %d, want 5", i.A())
	}
	if i.Bx() != 0xBEEF {
		t.Errorf("Bx() = %#x, want 0xBEEF", i.Bx())
	}
}

func TestOpModeTable(t *testing.T) {
	if bytecode.Add.Mode() != bytecode.ModeABC {
		t.Error("Add should be ABC mode")
	}
	if bytecode.LoadConst.Mode() != bytecode.ModeABx {
		t.Error("LoadConst should be ABx mode")
	}
	if bytecode.Jmp.Mode() != bytecode.ModeABx {
		t.Error("Jmp should be ABx mode")
	}
}

func TestFormatOperandsABC(t *testing.T) {
	i := bytecode.EncodeABC(bytecode.Add, false, 1, true, 2, 3)
	got := bytecode.FormatOperands(i)
	want := "1 -2 3"
	if got != want {
		t.Errorf("FormatOperands() = %q, want %q", got, want)
	}
}

func TestFormatOperandsABx(t *testing.T) {
	i := bytecode.EncodeABx(bytecode.LoadConst, true, 0, 42)
	got := bytecode.FormatOperands(i)
	want := "-0 42"
	if got != want {
		t.Errorf("FormatOperands() = %q, want %q", got, want)
	}
}
