package lexer_test

import (
	"testing"

	"lumen/internal/lexer"
)

func scan(t *testing.T, src string) []lexer.Token {
	t.Helper()
	tokens, err := lexer.NewScanner(src, "test.lm").ScanTokens()
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	return tokens
}

func types(tokens []lexer.Token) []lexer.TokenType {
	out := make([]lexer.TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	tokens := scan(t, "let x = fn")
	got := types(tokens)
	want := []lexer.TokenType{lexer.TokenLet, lexer.TokenIdent, lexer.TokenEq, lexer.TokenFn, lexer.TokenEOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanTwoCharOperatorsPreferLongestMatch(t *testing.T) {
	tokens := scan(t, "<= >= == != && ||")
	got := types(tokens)
	want := []lexer.TokenType{lexer.TokenLe, lexer.TokenGe, lexer.TokenEqEq, lexer.TokenNeq, lexer.TokenAndAnd, lexer.TokenOrOr, lexer.TokenEOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanLineCommentIsSkipped(t *testing.T) {
	tokens := scan(t, "1 // a comment\n2")
	got := types(tokens)
	want := []lexer.TokenType{lexer.TokenNumber, lexer.TokenNumber, lexer.TokenEOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanStringLiteralStripsQuotes(t *testing.T) {
	tokens := scan(t, `"hello"`)
	if len(tokens) != 2 || tokens[0].Type != lexer.TokenString || tokens[0].Lexeme != "hello" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestScanNumberWithDecimalPoint(t *testing.T) {
	tokens := scan(t, "3.14")
	if len(tokens) != 2 || tokens[0].Type != lexer.TokenNumber || tokens[0].Lexeme != "3.14" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestUnterminatedStringIsAnError(t *testing.T) {
	_, err := lexer.NewScanner(`"unterminated`, "test.lm").ScanTokens()
	if err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
}

func TestUnexpectedCharacterIsAnError(t *testing.T) {
	_, err := lexer.NewScanner("@", "test.lm").ScanTokens()
	if err == nil {
		t.Fatal("expected an error for an unsupported character")
	}
}
