package stdlib

import (
	"os"

	pkgerrors "github.com/pkg/errors"

	"lumen/internal/compiler"
	"lumen/internal/lexer"
	"lumen/internal/parser"
	"lumen/internal/value"
)

// compileFile reads, lexes, parses and compiles a script file. Errors
// here are host-boundary failures (bad path, lex/parse/compile
// errors), wrapped with github.com/pkg/errors for context. Because
// require returns them as plain Go errors, internal/vm's callNative
// reports the wrapped message to the calling script as a CustomError.
func compileFile(path string) (*value.Closure, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "require %q", path)
	}

	tokens, err := lexer.NewScanner(string(src), path).ScanTokens()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "require %q", path)
	}
	prog, err := parser.New(tokens, path).Parse()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "require %q", path)
	}
	closure, err := compiler.Compile(prog, path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "require %q", path)
	}
	return closure, nil
}
