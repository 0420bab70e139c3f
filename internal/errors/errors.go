// Package errors implements Lumen's runtime error taxonomy and stack
// trace rendering. These are the errors a running script can raise —
// distinct from host-level failures (bad CLI args, unreadable files),
// which are reported with github.com/pkg/errors instead (see
// cmd/lumen and internal/stdlib).
package errors

import (
	"fmt"
	"strings"

	"lumen/internal/value"
)

// Kind identifies which of the eight runtime error variants an error
// carries.
type Kind int

const (
	TypeError Kind = iota
	StackOverflow
	ArrayIdxFloat
	ArrayIdxNeg
	ArrayIdxBound
	TableIdxNil
	TableIdxNaN
	CustomError
)

// RuntimeError is the single error type the VM ever raises for
// script-level failures. Construct one with the matching New*
// function rather than the struct literal.
type RuntimeError struct {
	Kind     Kind
	Action   string
	TypeA    value.Kind
	TypeB    value.Kind
	HasTypeB bool
	Message  string
}

func NewTypeError(action string, a value.Kind) *RuntimeError {
	return &RuntimeError{Kind: TypeError, Action: action, TypeA: a}
}

func NewTypeErrorPair(action string, a, b value.Kind) *RuntimeError {
	return &RuntimeError{Kind: TypeError, Action: action, TypeA: a, TypeB: b, HasTypeB: true}
}

func NewStackOverflow() *RuntimeError { return &RuntimeError{Kind: StackOverflow} }
func NewArrayIdxFloat() *RuntimeError  { return &RuntimeError{Kind: ArrayIdxFloat} }
func NewArrayIdxNeg() *RuntimeError    { return &RuntimeError{Kind: ArrayIdxNeg} }
func NewArrayIdxBound() *RuntimeError  { return &RuntimeError{Kind: ArrayIdxBound} }
func NewTableIdxNil() *RuntimeError    { return &RuntimeError{Kind: TableIdxNil} }
func NewTableIdxNaN() *RuntimeError    { return &RuntimeError{Kind: TableIdxNaN} }
func NewCustomError(msg string) *RuntimeError {
	return &RuntimeError{Kind: CustomError, Message: msg}
}

// Error implements the standard error interface, stringifying each
// variant with its exact wording.
func (e *RuntimeError) Error() string {
	switch e.Kind {
	case TypeError:
		if e.HasTypeB {
			return fmt.Sprintf("attempt to %s a %s and %s value", e.Action, e.TypeA.TypeName(), e.TypeB.TypeName())
		}
		return fmt.Sprintf("attempt to %s a %s value", e.Action, e.TypeA.TypeName())
	case StackOverflow:
		return "stack overflow"
	case ArrayIdxFloat:
		return "array index must be an integer"
	case ArrayIdxNeg:
		return "array index must be positive"
	case ArrayIdxBound:
		return "array index out of bounds"
	case TableIdxNil:
		return "table index is nil"
	case TableIdxNaN:
		return "table index is NaN"
	case CustomError:
		return e.Message
	}
	return "unknown error"
}

// Frame is one entry of a call stack snapshot, most-recent-call-first.
type Frame struct {
	FileName string
	Name     string
}

func (f Frame) String() string {
	return fmt.Sprintf("\t[%s] in function %s\n", f.FileName, f.Name)
}

// Trace renders the "stack trace:\n..." block. frames is ordered
// most-recent-first. A StackOverflow renders the overflowing (top)
// frame once, then a literal "..." line, then the same frame line
// again, then every frame below it whose name+file differs from the
// top frame — otherwise a StackOverflow trace would be thousands of
// identical recursive-call lines.
func Trace(kind Kind, frames []Frame) string {
	var b strings.Builder
	b.WriteString("stack trace:\n")

	if len(frames) == 0 {
		return b.String()
	}

	if kind == StackOverflow {
		top := frames[0]
		b.WriteString(top.String())
		b.WriteString("\t...\n")
		b.WriteString(top.String())
		for _, f := range frames[1:] {
			if f != top {
				b.WriteString(f.String())
			}
		}
		return b.String()
	}

	for _, f := range frames {
		b.WriteString(f.String())
	}
	return b.String()
}

// Format produces the final "{file}:{line}: {message}\nstack trace:\n..."
// text reported to the CLI for an uncaught runtime error.
func Format(file string, line int, err *RuntimeError, frames []Frame) string {
	return fmt.Sprintf("%s:%d: %s\n%s", file, line, err.Error(), Trace(err.Kind, frames))
}

// CompileError is returned by the lexer/parser/compiler for a static
// error — "{file}:{line}: {msg}", no stack trace (there's no call
// stack yet at compile time).
type CompileError struct {
	File string
	Line int
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func NewCompileError(file string, line int, format string, args ...any) *CompileError {
	return &CompileError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}
