package value

// Array is a shared, mutable, ordered sequence — a pointer, so every
// Value holding the same *Array aliases the same backing slice.
type Array struct {
	Elems []Value
}

func NewArray(elems []Value) *Array {
	return &Array{Elems: elems}
}

func (a *Array) Len() int { return len(a.Elems) }

// Get returns the element at idx, or Nil if idx is past the end (the
// language has no "array index error" for an out-of-range *read*,
// only for writes — see setIndexValue in internal/vm).
func (a *Array) Get(idx int) Value {
	if idx < 0 || idx >= len(a.Elems) {
		return Nil()
	}
	return a.Elems[idx]
}

// Set writes v at idx. If idx == len(a.Elems) the array grows by one
// (append semantics); a caller must have already range-checked idx
// against a.Len()+1 — values further out than that are a bounds error
// the VM raises before calling Set.
func (a *Array) Set(idx int, v Value) {
	if idx == len(a.Elems) {
		a.Elems = append(a.Elems, v)
		return
	}
	a.Elems[idx] = v
}

// tableKey is the comparable, hashable projection of a Value used as
// a map key. Numbers hash on their raw bit pattern (so 0.0 and -0.0
// are distinct keys) rather than on Go's float equality.
type tableKey struct {
	kind    Kind
	bits    uint64
	str     string
	boolean bool
	ref     any
}

func keyOf(v Value) tableKey {
	k := tableKey{kind: v.kind}
	switch v.kind {
	case KindNumber:
		k.bits = HashNumber(v.num)
	case KindString:
		k.str = v.str
	case KindBool:
		k.boolean = v.boolean
	case KindClosure, KindNativeFunc, KindArray, KindTable:
		k.ref = v.ref
	}
	return k
}

// Table is a shared, mutable Value-to-Value map with insertion-order
// iteration (useful for stable disassembly/debug output; the language
// itself makes no ordering guarantee).
type Table struct {
	index map[tableKey]int
	keys  []Value
	vals  []Value
}

func NewTable() *Table {
	return &Table{index: make(map[tableKey]int)}
}

func (t *Table) Get(key Value) (Value, bool) {
	i, ok := t.index[keyOf(key)]
	if !ok {
		return Nil(), false
	}
	return t.vals[i], true
}

// Set inserts or overwrites key=v. Callers (internal/vm) are
// responsible for rejecting Nil/NaN keys before calling Set — Table
// itself doesn't enforce that so it stays a plain data structure.
func (t *Table) Set(key, v Value) {
	k := keyOf(key)
	if i, ok := t.index[k]; ok {
		t.vals[i] = v
		return
	}
	t.index[k] = len(t.keys)
	t.keys = append(t.keys, key)
	t.vals = append(t.vals, v)
}

func (t *Table) Len() int { return len(t.keys) }

// Keys returns the table's keys in insertion order.
func (t *Table) Keys() []Value {
	return t.keys
}
