// Package vm implements Lumen's register-based bytecode interpreter:
// fetch-decode-dispatch over a Closure's instruction stream, one
// independently allocated register file per active call, globals, and
// translation of runtime faults into internal/errors' RuntimeError
// taxonomy with a full stack trace.
package vm

import (
	"fmt"

	"lumen/internal/bytecode"
	"lumen/internal/errors"
	"lumen/internal/value"
)

// registerWindow is one more than the compiler's maxRegisters, so every
// 8-bit register operand (0-255) indexes in range.
const registerWindow = 256

// maxCallDepth bounds recursion the same way the compiler bounds
// registers and the constant pool: past this many nested calls Lumen
// reports StackOverflow instead of handing the failure to the Go
// runtime as a real stack overflow.
const maxCallDepth = 20000

// callInfo is one active call's state. Every call gets its own
// independently allocated register array rather than a window into a
// shared stack: simpler, and it sidesteps the aliasing hazard of a
// slice that can be reallocated out from under a caller mid-recursion.
type callInfo struct {
	fn   *value.Function
	regs []value.Value
	pc   int
}

// VM is a single script's runtime state: the active call stack and the
// global variable table. A VM is not meant to be reused across
// unrelated scripts — construct a fresh one per Run.
type VM struct {
	frames  []*callInfo
	globals map[string]value.Value
}

func New() *VM {
	return &VM{globals: make(map[string]value.Value)}
}

// Global reads a global variable, used by native functions through the
// value.Host interface.
func (vm *VM) Global(name string) (value.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// SetGlobal defines or overwrites a global, used both by the SetGlobal
// opcode and by native functions (and internal/stdlib's installer).
func (vm *VM) SetGlobal(name string, v value.Value) {
	vm.globals[name] = v
}

// Run executes a compiled program's top-level closure to completion
// and returns its final return value.
func (vm *VM) Run(main *value.Closure) (value.Value, error) {
	return vm.call(&value.Function{Proto: main}, nil)
}

// scriptError is the error type every runtime fault surfaces as:
// already formatted with file, line and stack trace at the point it
// was raised, since frames are popped as the call stack unwinds.
type scriptError struct {
	err    *errors.RuntimeError
	file   string
	line   int
	frames []errors.Frame
}

func (e *scriptError) Error() string {
	return errors.Format(e.file, e.line, e.err, e.frames)
}

func (e *scriptError) Unwrap() error { return e.err }

func (vm *VM) snapshotFrames() []errors.Frame {
	frames := make([]errors.Frame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i].fn.Proto
		frames = append(frames, errors.Frame{FileName: f.FileName, Name: f.Name})
	}
	return frames
}

// raise wraps a RuntimeError raised while executing frame into a
// scriptError carrying the stack trace as it stood at the moment of
// the fault.
func (vm *VM) raise(frame *callInfo, err *errors.RuntimeError) error {
	line := 0
	lines := frame.fn.Proto.Lines
	if idx := frame.pc - 1; idx >= 0 && idx < len(lines) {
		line = lines[idx]
	}
	return &scriptError{
		err:    err,
		file:   frame.fn.Proto.FileName,
		line:   line,
		frames: vm.snapshotFrames(),
	}
}

// call pushes a new frame for fn, runs it to its Return, and pops it.
// args beyond fn's declared parameters are ignored; missing ones read
// as nil, matching every register's zero value.
func (vm *VM) call(fn *value.Function, args []value.Value) (value.Value, error) {
	if len(vm.frames) >= maxCallDepth {
		line := 0
		file := fn.Proto.FileName
		if len(vm.frames) > 0 {
			top := vm.frames[len(vm.frames)-1]
			if idx := top.pc - 1; idx >= 0 && idx < len(top.fn.Proto.Lines) {
				line = top.fn.Proto.Lines[idx]
			}
			file = top.fn.Proto.FileName
		}
		return value.Nil(), &scriptError{
			err:    errors.NewStackOverflow(),
			file:   file,
			line:   line,
			frames: vm.snapshotFrames(),
		}
	}

	frame := &callInfo{
		fn:   fn,
		regs: make([]value.Value, registerWindow),
		pc:   fn.Proto.NUpvals, // skip the leading upvalue capture-prologue block
	}
	n := fn.Proto.NParams
	if n > len(args) {
		n = len(args)
	}
	copy(frame.regs[:n], args[:n])

	vm.frames = append(vm.frames, frame)
	result, err := vm.execute(frame)
	vm.frames = vm.frames[:len(vm.frames)-1]
	return result, err
}

// writeBackUpvalues copies each of fn's upvalues back into the
// register it was captured from in its creator frame: for each
// (source_slot, value) pair, copy the current value into the creator
// frame's register at source_slot. If the creator frame has already
// returned, CreatorRegs still names its register array, but nothing
// will read it again.
func writeBackUpvalues(fn *value.Function) {
	for _, u := range fn.Upvals {
		if u.CreatorRegs != nil {
			u.CreatorRegs[u.SourceSlot] = u.Value
		}
	}
}

// rk reads an RK-encoded operand: a constant-pool value when mode is
// set, otherwise a plain register read.
func rk(frame *callInfo, consts []value.Value, mode bool, v uint8) value.Value {
	if mode {
		return consts[v]
	}
	return frame.regs[v]
}

func (vm *VM) execute(frame *callInfo) (value.Value, error) {
	proto := frame.fn.Proto
	code := proto.Code
	consts := proto.Consts
	regs := frame.regs

	for {
		idx := frame.pc
		instr := code[idx]
		frame.pc = idx + 1

		switch instr.Op() {

		case bytecode.Move:
			regs[instr.A()] = regs[instr.B()]

		case bytecode.LoadConst:
			regs[instr.A()] = consts[instr.Bx()]

		case bytecode.LoadBool:
			regs[instr.A()] = value.Bool(instr.B() == 1)

		case bytecode.LoadNil:
			regs[instr.A()] = value.Nil()

		case bytecode.GetUpVal:
			regs[instr.A()] = frame.fn.Upvals[instr.B()].Value

		case bytecode.SetUpVal:
			frame.fn.Upvals[instr.A()].Value = regs[instr.B()]

		case bytecode.GetGlobal:
			name := consts[instr.Bx()].AsString()
			v, ok := vm.globals[name]
			if !ok {
				v = value.Nil()
			}
			regs[instr.A()] = v

		case bytecode.SetGlobal:
			name := consts[instr.Bx()].AsString()
			vm.globals[name] = regs[instr.A()]

		case bytecode.NewArray:
			a, b := int(instr.A()), int(instr.B())
			elems := make([]value.Value, 0, b-a)
			for i := a + 1; i <= b; i++ {
				elems = append(elems, regs[i])
			}
			regs[a] = value.FromArray(value.NewArray(elems))

		case bytecode.NewTable:
			a, b := int(instr.A()), int(instr.B())
			tbl := value.NewTable()
			for i := a; i < b; i += 2 {
				key, val := regs[i], regs[i+1]
				if rerr := checkTableKey(key); rerr != nil {
					return value.Nil(), vm.raise(frame, rerr)
				}
				tbl.Set(key, val)
			}
			regs[a] = value.FromTable(tbl)

		case bytecode.GetObj:
			a := instr.A()
			key := rk(frame, consts, instr.BMode(), instr.B())
			result, rerr := indexValue(regs[a], key)
			if rerr != nil {
				return value.Nil(), vm.raise(frame, rerr)
			}
			regs[a] = result

		case bytecode.SetObj:
			key := rk(frame, consts, instr.AMode(), instr.A())
			val := regs[instr.B()]
			obj := regs[instr.C()]
			if rerr := setIndexValue(obj, key, val); rerr != nil {
				return value.Nil(), vm.raise(frame, rerr)
			}

		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod:
			lhs := rk(frame, consts, instr.AMode(), instr.A())
			rhs := rk(frame, consts, instr.BMode(), instr.B())
			result, rerr := arith(instr.Op(), lhs, rhs)
			if rerr != nil {
				return value.Nil(), vm.raise(frame, rerr)
			}
			regs[instr.C()] = result

		case bytecode.Eq, bytecode.Neq, bytecode.Gt, bytecode.Ge, bytecode.Lt, bytecode.Le:
			lhs := rk(frame, consts, instr.AMode(), instr.A())
			rhs := rk(frame, consts, instr.BMode(), instr.B())
			result, rerr := compare(instr.Op(), lhs, rhs)
			if rerr != nil {
				return value.Nil(), vm.raise(frame, rerr)
			}
			regs[instr.C()] = value.Bool(result)

		case bytecode.Neg:
			operand := rk(frame, consts, instr.BMode(), instr.B())
			if !operand.IsNumber() {
				return value.Nil(), vm.raise(frame, errors.NewTypeError("negate", operand.Kind()))
			}
			regs[instr.A()] = value.Number(-operand.AsNumber())

		case bytecode.Not:
			operand := rk(frame, consts, instr.BMode(), instr.B())
			regs[instr.A()] = value.Bool(!operand.Truthy())

		case bytecode.Jmp:
			offset := int(instr.Bx())
			if instr.A() == 0 {
				frame.pc = idx + offset
			} else {
				frame.pc = idx - offset
			}

		case bytecode.Test:
			want := instr.B() == 0
			if regs[instr.A()].Truthy() == want {
				frame.pc++
			}

		case bytecode.Call:
			a, b, c := int(instr.A()), int(instr.B()), int(instr.C())
			nargs := b - a - 1
			args := make([]value.Value, nargs)
			copy(args, regs[a+1:a+1+nargs])

			callee := regs[a]
			var result value.Value
			var err error
			switch {
			case callee.IsClosure():
				result, err = vm.call(callee.AsFunction(), args)
			case callee.IsNativeFunc():
				result, err = vm.callNative(frame, callee.AsNativeFunc(), args)
			default:
				return value.Nil(), vm.raise(frame, errors.NewTypeError("call", callee.Kind()))
			}
			if err != nil {
				return value.Nil(), err
			}
			regs[c] = result

		case bytecode.Closure:
			proto2 := proto.FuncConsts[instr.Bx()]
			fn := &value.Function{Proto: proto2, Upvals: make([]value.Upvalue, proto2.NUpvals)}
			// Store the new function before capturing, so a named
			// function that refers to itself captures its own value.
			regs[instr.A()] = value.FromFunction(fn)
			for i := 0; i < proto2.NUpvals; i++ {
				src := proto2.Code[i].B()
				fn.Upvals[i] = value.Upvalue{SourceSlot: src, Value: regs[src], CreatorRegs: regs}
			}

		case bytecode.Return:
			writeBackUpvalues(frame.fn)
			if instr.B() == 1 {
				return value.Nil(), nil
			}
			return rk(frame, consts, instr.AMode(), instr.A()), nil

		case bytecode.Close:
			// No-op: upvalues are captured by value when Closure runs,
			// not as live references into this frame, so there is no
			// open upvalue left to close.

		default:
			return value.Nil(), vm.raise(frame, errors.NewCustomError(fmt.Sprintf("unimplemented opcode %s", instr.Op())))
		}
	}
}

// callNative invokes a native function with its own Host view of args.
// A native returning a plain Go error (not already a *errors.RuntimeError)
// is reported to the script as a CustomError carrying that message —
// this is how internal/stdlib surfaces host-level failures (e.g. a
// file that can't be opened) as script runtime errors.
func (vm *VM) callNative(frame *callInfo, nf *value.NativeFunc, args []value.Value) (value.Value, error) {
	h := &nativeHost{vm: vm, args: args}
	result, err := nf.Fn(h)
	if err == nil {
		return result, nil
	}
	if re, ok := err.(*errors.RuntimeError); ok {
		return value.Nil(), vm.raise(frame, re)
	}
	return value.Nil(), vm.raise(frame, errors.NewCustomError(err.Error()))
}

type nativeHost struct {
	vm   *VM
	args []value.Value
	pos  int
}

func (h *nativeHost) NextArg() (value.Value, bool) {
	if h.pos >= len(h.args) {
		return value.Nil(), false
	}
	v := h.args[h.pos]
	h.pos++
	return v, true
}

func (h *nativeHost) ArgCount() int { return len(h.args) }

func (h *nativeHost) Global(name string) (value.Value, bool) { return h.vm.Global(name) }

func (h *nativeHost) SetGlobal(name string, v value.Value) { h.vm.SetGlobal(name, v) }
