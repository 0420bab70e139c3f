package errors_test

import (
	"strings"
	"testing"

	"lumen/internal/errors"
	"lumen/internal/value"
)

func TestTypeErrorMessage(t *testing.T) {
	err := errors.NewTypeErrorPair("add", value.KindNumber, value.KindNil)
	want := "attempt to add a number and nil value"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestTypeErrorSingleType(t *testing.T) {
	err := errors.NewTypeError("call", value.KindNumber)
	want := "attempt to call a number value"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestCustomErrorMessageVerbatim(t *testing.T) {
	err := errors.NewCustomError("boom")
	if err.Error() != "boom" {
		t.Errorf("custom error message should be verbatim, got %q", err.Error())
	}
}

func TestFormatIncludesFileLineAndTrace(t *testing.T) {
	frames := []errors.Frame{{FileName: "main.lm", Name: "main"}}
	got := errors.Format("main.lm", 3, errors.NewStackOverflow(), frames)
	if !strings.HasPrefix(got, "main.lm:3: stack overflow\n") {
		t.Errorf("unexpected format: %q", got)
	}
	if !strings.Contains(got, "stack trace:") {
		t.Errorf("expected a stack trace section, got %q", got)
	}
}

func TestStackOverflowTraceCollapsesRepeatedFrames(t *testing.T) {
	frame := errors.Frame{FileName: "main.lm", Name: "loop"}
	frames := make([]errors.Frame, 50)
	for i := range frames {
		frames[i] = frame
	}
	trace := errors.Trace(errors.StackOverflow, frames)
	if strings.Count(trace, frame.String()) != 2 {
		t.Errorf("expected the repeated top frame to appear exactly twice, got trace: %q", trace)
	}
	if !strings.Contains(trace, "...") {
		t.Errorf("expected an ellipsis marker, got %q", trace)
	}
}

func TestCompileErrorFormat(t *testing.T) {
	err := errors.NewCompileError("a.lm", 7, "unexpected token %q", "}")
	want := `a.lm:7: unexpected token "}"`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
