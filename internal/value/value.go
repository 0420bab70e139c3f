// Package value implements Lumen's runtime value model: a tagged
// union of the eight variants the language knows about, plus the two
// shared mutable container types (Array, Table) and the Closure
// representation the compiler and VM pass around.
package value

import (
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindClosure
	KindNativeFunc
	KindArray
	KindTable
)

// TypeName returns the lowercase name used in error messages and
// debug output ("attempt to add a table and number value", etc).
func (k Kind) TypeName() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindClosure, KindNativeFunc:
		return "function"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Value is a small tagged struct rather than an interface: reference
// variants (Closure, NativeFunc, Array, Table) carry a pointer in ref,
// scalar variants carry num/str/boolean directly. Copying a Value is
// always a shallow copy, which is exactly what gives Array/Table their
// "copying the value copies the handle, not the contents" semantics.
type Value struct {
	kind    Kind
	num     float64
	str     string
	boolean bool
	ref     any
}

func Nil() Value                         { return Value{kind: KindNil} }
func Bool(b bool) Value                  { return Value{kind: KindBool, boolean: b} }
func Number(n float64) Value             { return Value{kind: KindNumber, num: n} }
func String(s string) Value              { return Value{kind: KindString, str: s} }
func FromFunction(f *Function) Value     { return Value{kind: KindClosure, ref: f} }
func FromNativeFunc(f *NativeFunc) Value { return Value{kind: KindNativeFunc, ref: f} }
func FromArray(a *Array) Value           { return Value{kind: KindArray, ref: a} }
func FromTable(t *Table) Value           { return Value{kind: KindTable, ref: t} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsClosure() bool    { return v.kind == KindClosure }
func (v Value) IsNativeFunc() bool { return v.kind == KindNativeFunc }
func (v Value) IsArray() bool      { return v.kind == KindArray }
func (v Value) IsTable() bool      { return v.kind == KindTable }
func (v Value) IsCallable() bool   { return v.kind == KindClosure || v.kind == KindNativeFunc }

func (v Value) AsBool() bool               { return v.boolean }
func (v Value) AsNumber() float64          { return v.num }
func (v Value) AsString() string           { return v.str }
func (v Value) AsFunction() *Function      { return v.ref.(*Function) }
func (v Value) AsNativeFunc() *NativeFunc { return v.ref.(*NativeFunc) }
func (v Value) AsArray() *Array            { return v.ref.(*Array) }
func (v Value) AsTable() *Table            { return v.ref.(*Table) }

// Truthy implements the language's truthiness law: false and nil are
// the only falsey values, everything else (0, "", [], {}) is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.boolean
	default:
		return true
	}
}

// Equal implements value equality: scalars compare by value (NaN is
// never equal to anything, including itself), reference types compare
// by identity (pointer equality), matching the distinct variants never
// being equal to each other.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.boolean == b.boolean
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindClosure:
		return a.AsFunction() == b.AsFunction()
	case KindNativeFunc:
		return a.AsNativeFunc() == b.AsNativeFunc()
	case KindArray:
		return a.AsArray() == b.AsArray()
	case KindTable:
		return a.AsTable() == b.AsTable()
	}
	return false
}

// HashNumber returns the raw IEEE-754 bit pattern of n, so that
// 0.0 and -0.0 hash differently even though they compare equal under
// Go's own ==; Lumen table keys hash on the bit pattern, not the
// numeric value, per the language's number-hashing rule.
func HashNumber(n float64) uint64 {
	return math.Float64bits(n)
}

// Debug renders v the way the interpreter's `print`/disassembler do:
// strings print themselves, numbers print the shortest round-trip
// decimal, functions print "function: {name}".
func Debug(v Value) string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	case KindClosure:
		return "function: " + v.AsFunction().Proto.Name
	case KindNativeFunc:
		return "function: " + v.AsNativeFunc().Name
	case KindArray:
		return debugArray(v.AsArray())
	case KindTable:
		return debugTable(v.AsTable())
	}
	return "?"
}

func debugArray(a *Array) string {
	out := "["
	for i, el := range a.Elems {
		if i > 0 {
			out += ", "
		}
		if el.IsString() {
			out += strconv.Quote(el.AsString())
		} else {
			out += Debug(el)
		}
	}
	return out + "]"
}

func debugTable(t *Table) string {
	out := "{"
	first := true
	for _, k := range t.Keys() {
		if !first {
			out += ", "
		}
		first = false
		v, _ := t.Get(k)
		if k.IsString() {
			out += strconv.Quote(k.AsString())
		} else {
			out += Debug(k)
		}
		out += ": "
		if v.IsString() {
			out += strconv.Quote(v.AsString())
		} else {
			out += Debug(v)
		}
	}
	return out + "}"
}
