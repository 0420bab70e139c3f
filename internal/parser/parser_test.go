package parser_test

import (
	"testing"

	"lumen/internal/lexer"
	"lumen/internal/parser"
)

func parseSource(t *testing.T, src string) []parser.Stmt {
	t.Helper()
	tokens, err := lexer.NewScanner(src, "test.lm").ScanTokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.New(tokens, "test.lm").Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestParseLetBindsNameToExpr(t *testing.T) {
	prog := parseSource(t, "let x = 1 + 2")
	if len(prog) != 1 {
		t.Fatalf("expected one statement, got %d", len(prog))
	}
	let, ok := prog[0].(*parser.LetStmt)
	if !ok {
		t.Fatalf("expected *LetStmt, got %T", prog[0])
	}
	if let.Name != "x" {
		t.Errorf("got name %q, want x", let.Name)
	}
	bin, ok := let.Expr.(*parser.BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected a + BinaryExpr, got %#v", let.Expr)
	}
}

func TestParsePrecedenceOfMulOverAdd(t *testing.T) {
	prog := parseSource(t, "return 1 + 2 * 3")
	ret := prog[0].(*parser.ReturnStmt)
	add, ok := ret.Expr.(*parser.BinaryExpr)
	if !ok || add.Op != "+" {
		t.Fatalf("expected top-level +, got %#v", ret.Expr)
	}
	if _, ok := add.Lhs.(*parser.NumberExpr); !ok {
		t.Errorf("expected lhs to be a plain number, got %#v", add.Lhs)
	}
	mul, ok := add.Rhs.(*parser.BinaryExpr)
	if !ok || mul.Op != "*" {
		t.Fatalf("expected rhs to be a * BinaryExpr, got %#v", add.Rhs)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := parseSource(t, `
if x < 2 {
	return 1
} else {
	return 2
}
`)
	ifStmt, ok := prog[0].(*parser.IfStmt)
	if !ok {
		t.Fatalf("expected *IfStmt, got %T", prog[0])
	}
	if ifStmt.Else == nil {
		t.Fatal("expected an else branch")
	}
}

func TestParseElseIfChainsAsNestedIfStmt(t *testing.T) {
	prog := parseSource(t, `
if a {
	return 1
} else if b {
	return 2
}
`)
	ifStmt := prog[0].(*parser.IfStmt)
	elseIf, ok := ifStmt.Else.(*parser.IfStmt)
	if !ok {
		t.Fatalf("expected else-if to parse as a nested *IfStmt, got %T", ifStmt.Else)
	}
	if _, ok := elseIf.Cond.(*parser.NameExpr); !ok {
		t.Errorf("expected else-if condition to be a bare name, got %#v", elseIf.Cond)
	}
}

func TestParseForLoopClauses(t *testing.T) {
	prog := parseSource(t, "for (let i = 0; i < 5; i = i + 1) { }")
	forStmt, ok := prog[0].(*parser.ForStmt)
	if !ok {
		t.Fatalf("expected *ForStmt, got %T", prog[0])
	}
	if forStmt.Init == nil || forStmt.Cond == nil || forStmt.Post == nil {
		t.Fatal("expected all three for-clauses to be present")
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := parseSource(t, `
fn add(a, b) {
	return a + b
}
`)
	fn, ok := prog[0].(*parser.FnStmt)
	if !ok {
		t.Fatalf("expected *FnStmt, got %T", prog[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Errorf("got name %q params %v", fn.Name, fn.Params)
	}
}

func TestParseArrayLiteral(t *testing.T) {
	prog := parseSource(t, "let a = [1, 2, 3]")
	let := prog[0].(*parser.LetStmt)
	arr, ok := let.Expr.(*parser.ArrayExpr)
	if !ok || len(arr.Elems) != 3 {
		t.Fatalf("expected a 3-element array literal, got %#v", let.Expr)
	}
}

func TestParseTableLiteralWithStringKeys(t *testing.T) {
	prog := parseSource(t, `let t = { "x": 1, "y": 2 }`)
	let := prog[0].(*parser.LetStmt)
	tbl, ok := let.Expr.(*parser.TableExpr)
	if !ok || len(tbl.Pairs) != 2 {
		t.Fatalf("expected a 2-pair table literal, got %#v", let.Expr)
	}
}

func TestParseAssignmentToIndexExpr(t *testing.T) {
	prog := parseSource(t, "a[0] = 1")
	exprStmt, ok := prog[0].(*parser.ExprStmt)
	if !ok {
		t.Fatalf("expected *ExprStmt, got %T", prog[0])
	}
	assign, ok := exprStmt.Expr.(*parser.BinaryExpr)
	if !ok || assign.Op != "=" {
		t.Fatalf("expected a top-level assignment, got %#v", exprStmt.Expr)
	}
	if _, ok := assign.Lhs.(*parser.IndexExpr); !ok {
		t.Errorf("expected lhs to be an *IndexExpr, got %#v", assign.Lhs)
	}
}

func TestParseCallExpression(t *testing.T) {
	prog := parseSource(t, "return fib(n - 1)")
	ret := prog[0].(*parser.ReturnStmt)
	call, ok := ret.Expr.(*parser.CallExpr)
	if !ok || len(call.Args) != 1 {
		t.Fatalf("expected a 1-arg call expression, got %#v", ret.Expr)
	}
}
