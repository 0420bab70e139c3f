// Command lumen is the CLI entry point: run a script, or disassemble
// its compiled main closure (-l) or the whole closure tree (-ll).
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	pkgerrors "github.com/pkg/errors"

	"lumen/internal/compiler"
	"lumen/internal/disasm"
	"lumen/internal/lexer"
	"lumen/internal/parser"
	"lumen/internal/stdlib"
	"lumen/internal/value"
	"lumen/internal/vm"
)

type mode int

const (
	modeRun mode = iota
	modeDisasm
	modeDisasmRecursive
	modeUsage
)

func parseArgs(args []string) (mode, string, error) {
	if len(args) == 0 {
		return modeUsage, "", nil
	}
	switch args[0] {
	case "-l":
		if len(args) < 2 {
			return modeUsage, "", pkgerrors.New("expected file name")
		}
		return modeDisasm, args[1], nil
	case "-ll":
		if len(args) < 2 {
			return modeUsage, "", pkgerrors.New("expected file name")
		}
		return modeDisasmRecursive, args[1], nil
	default:
		return modeRun, args[0], nil
	}
}

func compileFile(path string) (*value.Closure, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "could not open %q", path)
	}
	tokens, err := lexer.NewScanner(string(src), path).ScanTokens()
	if err != nil {
		return nil, err
	}
	prog, err := parser.New(tokens, path).Parse()
	if err != nil {
		return nil, err
	}
	return compiler.Compile(prog, path)
}

func run(path string) error {
	closure, err := compileFile(path)
	if err != nil {
		return err
	}
	v := vm.New()
	stdlib.Install(v)
	_, err = v.Run(closure)
	return err
}

func printUsage(prog string) {
	fmt.Printf("%s [options] filename\n", prog)
	fmt.Println("Options:")
	fmt.Println("    -l   print bytecode of main function")
	fmt.Println("    -ll  print bytecode of main function and all sub functions")
}

func main() {
	os.Exit(dispatch(os.Args))
}

// dispatch runs the CLI for argv (argv[0] is the program name, matching
// os.Args) and returns the process exit code. Split out from main so the
// testscript harness in main_test.go can drive it in-process.
func dispatch(argv []string) int {
	prog := "lumen"
	if len(argv) > 0 {
		prog = argv[0]
	}

	m, path, err := parseArgs(argv[1:])
	if err != nil {
		return reportErr(err)
	}

	switch m {
	case modeUsage:
		printUsage(prog)
		return 0

	case modeRun:
		if err := run(path); err != nil {
			return reportErr(err)
		}

	case modeDisasm:
		closure, err := compileFile(path)
		if err != nil {
			return reportErr(err)
		}
		disasm.Print(os.Stdout, closure, false)

	case modeDisasmRecursive:
		closure, err := compileFile(path)
		if err != nil {
			return reportErr(err)
		}
		disasm.Print(os.Stdout, closure, true)
	}
	return 0
}

// reportErr prints err to stderr, colorized in red when stderr is a
// terminal, and returns the exit code the caller should use.
func reportErr(err error) int {
	msg := err.Error()
	if isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintf(os.Stderr, "\x1b[31m%s\x1b[0m\n", msg)
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
	return 1
}
