package vm

import (
	"math"

	"lumen/internal/bytecode"
	"lumen/internal/errors"
	"lumen/internal/value"
)

// arith implements the five binary arithmetic opcodes. Add additionally
// accepts two strings (concatenation); every other combination,
// including a mixed number/string pair, is a TypeError rather than an
// implicit coercion.
func arith(op bytecode.Op, a, b value.Value) (value.Value, *errors.RuntimeError) {
	if op == bytecode.Add && a.IsString() && b.IsString() {
		return value.String(a.AsString() + b.AsString()), nil
	}
	if !a.IsNumber() || !b.IsNumber() {
		return value.Value{}, errors.NewTypeErrorPair(arithAction(op), a.Kind(), b.Kind())
	}
	x, y := a.AsNumber(), b.AsNumber()
	switch op {
	case bytecode.Add:
		return value.Number(x + y), nil
	case bytecode.Sub:
		return value.Number(x - y), nil
	case bytecode.Mul:
		return value.Number(x * y), nil
	case bytecode.Div:
		return value.Number(x / y), nil
	case bytecode.Mod:
		return value.Number(math.Mod(x, y)), nil
	}
	return value.Value{}, errors.NewTypeErrorPair(arithAction(op), a.Kind(), b.Kind())
}

func arithAction(op bytecode.Op) string {
	switch op {
	case bytecode.Add:
		return "add"
	case bytecode.Sub:
		return "subtract"
	case bytecode.Mul:
		return "multiply"
	case bytecode.Div:
		return "divide"
	case bytecode.Mod:
		return "mod"
	}
	return "operate on"
}

// compare implements the six relational/equality opcodes. Eq/Neq work
// on any pair of values via value.Equal. The other four carry the
// naming inversion baked into the compiler's relOp: opcode Gt performs
// `<`, Ge performs `<=`, Lt performs `>`, Le performs `>=` — so the
// dispatch below must apply that same inversion, not the opcode's
// literal name, to land back on the source operator it was compiled
// from. Both operands must be numbers.
func compare(op bytecode.Op, a, b value.Value) (bool, *errors.RuntimeError) {
	switch op {
	case bytecode.Eq:
		return value.Equal(a, b), nil
	case bytecode.Neq:
		return !value.Equal(a, b), nil
	}
	if !a.IsNumber() || !b.IsNumber() {
		return false, errors.NewTypeErrorPair("compare", a.Kind(), b.Kind())
	}
	x, y := a.AsNumber(), b.AsNumber()
	switch op {
	case bytecode.Gt:
		return x < y, nil
	case bytecode.Ge:
		return x <= y, nil
	case bytecode.Lt:
		return x > y, nil
	case bytecode.Le:
		return x >= y, nil
	}
	return false, errors.NewTypeErrorPair("compare", a.Kind(), b.Kind())
}

// indexValue implements GetObj for both container kinds. A read past
// an array's end yields nil rather than an error — only a float or
// negative index is rejected outright; only a write validates bounds
// (see setIndexValue).
func indexValue(obj, key value.Value) (value.Value, *errors.RuntimeError) {
	switch {
	case obj.IsArray():
		idx, rerr := arrayIndex(key)
		if rerr != nil {
			return value.Nil(), rerr
		}
		return obj.AsArray().Get(idx), nil
	case obj.IsTable():
		v, ok := obj.AsTable().Get(key)
		if !ok {
			return value.Nil(), nil
		}
		return v, nil
	default:
		return value.Nil(), errors.NewTypeError("index", obj.Kind())
	}
}

func setIndexValue(obj, key, val value.Value) *errors.RuntimeError {
	switch {
	case obj.IsArray():
		idx, rerr := arrayIndex(key)
		if rerr != nil {
			return rerr
		}
		arr := obj.AsArray()
		if idx > arr.Len() {
			return errors.NewArrayIdxBound()
		}
		arr.Set(idx, val)
		return nil
	case obj.IsTable():
		if rerr := checkTableKey(key); rerr != nil {
			return rerr
		}
		obj.AsTable().Set(key, val)
		return nil
	default:
		return errors.NewTypeError("index", obj.Kind())
	}
}

func arrayIndex(key value.Value) (int, *errors.RuntimeError) {
	if !key.IsNumber() {
		return 0, errors.NewTypeError("index", key.Kind())
	}
	n := key.AsNumber()
	if n != math.Trunc(n) {
		return 0, errors.NewArrayIdxFloat()
	}
	idx := int(n)
	if idx < 0 {
		return 0, errors.NewArrayIdxNeg()
	}
	return idx, nil
}

func checkTableKey(key value.Value) *errors.RuntimeError {
	if key.IsNil() {
		return errors.NewTableIdxNil()
	}
	if key.IsNumber() && math.IsNaN(key.AsNumber()) {
		return errors.NewTableIdxNaN()
	}
	return nil
}
