// Package stdlib installs Lumen's global built-ins and the math/string
// library tables into a fresh internal/vm.VM, the way
// original_source's vm/env module loads its globals at startup.
package stdlib

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"lumen/internal/errors"
	"lumen/internal/value"
	"lumen/internal/vm"
)

// Install registers every global built-in and library table this
// implementation supplements onto v. Call it once per VM before
// running a script.
func Install(v *vm.VM) {
	cache := make(map[string]value.Value)

	register(v, "print", builtinPrint)
	register(v, "write", builtinWrite)
	register(v, "len", builtinLen)
	register(v, "error", builtinError)
	register(v, "clock", builtinClock)
	register(v, "read", builtinRead)
	register(v, "require", func(h value.Host) (value.Value, error) {
		return requireFn(v, cache, h)
	})

	installMath(v)
	installString(v)
}

func register(v *vm.VM, name string, fn func(value.Host) (value.Value, error)) {
	v.SetGlobal(name, value.FromNativeFunc(&value.NativeFunc{Name: name, Fn: fn}))
}

// tableBuiltin adds name -> fn as an entry of tbl, the same shape
// original_source's tbl_builtin helper gives every math.*/string.*
// entry.
func tableBuiltin(tbl *value.Table, name string, fn func(value.Host) (value.Value, error)) {
	tbl.Set(value.String(name), value.FromNativeFunc(&value.NativeFunc{Name: name, Fn: fn}))
}

func allArgs(h value.Host) []value.Value {
	args := make([]value.Value, 0, h.ArgCount())
	for {
		v, ok := h.NextArg()
		if !ok {
			break
		}
		args = append(args, v)
	}
	return args
}

func builtinWrite(h value.Host) (value.Value, error) {
	args := allArgs(h)
	for i, a := range args {
		if i > 0 {
			fmt.Print("\t")
		}
		fmt.Print(value.Debug(a))
	}
	return value.Nil(), nil
}

func builtinPrint(h value.Host) (value.Value, error) {
	if _, err := builtinWrite(h); err != nil {
		return value.Nil(), err
	}
	fmt.Println()
	return value.Nil(), nil
}

func builtinLen(h value.Host) (value.Value, error) {
	v, ok := h.NextArg()
	if !ok {
		return value.Nil(), errors.NewCustomError("expected value")
	}
	switch {
	case v.IsArray():
		return value.Number(float64(v.AsArray().Len())), nil
	case v.IsTable():
		return value.Number(float64(v.AsTable().Len())), nil
	case v.IsString():
		return value.Number(float64(len(v.AsString()))), nil
	default:
		return value.Nil(), errors.NewTypeError("get len on", v.Kind())
	}
}

func builtinError(h value.Host) (value.Value, error) {
	v, ok := h.NextArg()
	if !ok || !v.IsString() {
		return value.Nil(), errors.NewCustomError("expected string")
	}
	return value.Nil(), errors.NewCustomError(v.AsString())
}

func builtinClock(h value.Host) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

func builtinRead(h value.Host) (value.Value, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return value.Nil(), errors.NewCustomError("unable to read from stdin")
	}
	return value.String(strings.TrimRight(line, "\r\n")), nil
}

// requireFn runs a second script file on the same VM — sharing its
// globals and call stack — and caches the result by path so a file
// required twice only compiles and runs once. The `@lib.so`
// dynamic-library loading form original_source supports has no
// counterpart here: see SPEC_FULL.md's Supplemented Features section.
func requireFn(v *vm.VM, cache map[string]value.Value, h value.Host) (value.Value, error) {
	pathVal, ok := h.NextArg()
	if !ok || !pathVal.IsString() {
		return value.Nil(), errors.NewCustomError("expected string")
	}
	path := pathVal.AsString()
	if cached, ok := cache[path]; ok {
		return cached, nil
	}
	closure, err := compileFile(path)
	if err != nil {
		return value.Nil(), err
	}
	result, err := v.Run(closure)
	if err != nil {
		return value.Nil(), err
	}
	cache[path] = result
	return result, nil
}
