package parser

import (
	"fmt"
	"strconv"

	"lumen/internal/lexer"
)

// Parser is a recursive-descent, precedence-climbing parser. Its
// internal mechanics aren't part of this module's external contract —
// only the AST node set in ast.go and the operator precedence are —
// but it needs to exist for the CLI to have a working front end.
type Parser struct {
	tokens []lexer.Token
	pos    int
	file   string
}

func New(tokens []lexer.Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file}
}

// Parse consumes the whole token stream, returning the top-level
// statement list.
func (p *Parser) Parse() ([]Stmt, error) {
	var stmts []Stmt
	for !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (p *Parser) errf(line int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.file, line, fmt.Sprintf(format, args...))
}

func (p *Parser) peek() lexer.Token  { return p.tokens[p.pos] }
func (p *Parser) prev() lexer.Token  { return p.tokens[p.pos-1] }
func (p *Parser) atEnd() bool        { return p.peek().Type == lexer.TokenEOF }
func (p *Parser) check(t lexer.TokenType) bool {
	return !p.atEnd() && p.peek().Type == t
}

func (p *Parser) advance() lexer.Token {
	if !p.atEnd() {
		p.pos++
	}
	return p.prev()
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(t lexer.TokenType, msg string) (lexer.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errf(p.peek().Line, "%s", msg)
}

// optionalSemi consumes a trailing ';' if present; statements don't
// require one.
func (p *Parser) optionalSemi() {
	p.match(lexer.TokenSemi)
}

// ---- statements ----

func (p *Parser) statement() (Stmt, error) {
	switch {
	case p.check(lexer.TokenLet):
		return p.letStmt()
	case p.check(lexer.TokenIf):
		return p.ifStmt()
	case p.check(lexer.TokenWhile):
		return p.whileStmt()
	case p.check(lexer.TokenFor):
		return p.forStmt()
	case p.check(lexer.TokenFn):
		return p.fnStmt()
	case p.check(lexer.TokenReturn):
		return p.returnStmt()
	case p.check(lexer.TokenLBrace):
		return p.block()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) letStmt() (Stmt, error) {
	line := p.advance().Line // consume 'let'
	name, err := p.expect(lexer.TokenIdent, "expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEq, "expected '=' after variable name"); err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.optionalSemi()
	return &LetStmt{Name: name.Lexeme, Expr: e, Line: line}, nil
}

func (p *Parser) ifStmt() (Stmt, error) {
	line := p.advance().Line // 'if'
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	var elseBranch Stmt
	if p.match(lexer.TokenElse) {
		if p.check(lexer.TokenIf) {
			elseBranch, err = p.ifStmt()
		} else {
			elseBranch, err = p.block()
		}
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{Cond: cond, Then: then, Else: elseBranch, Line: line}, nil
}

func (p *Parser) whileStmt() (Stmt, error) {
	line := p.advance().Line // 'while'
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body, Line: line}, nil
}

func (p *Parser) forStmt() (Stmt, error) {
	line := p.advance().Line // 'for'
	if _, err := p.expect(lexer.TokenLParen, "expected '(' after 'for'"); err != nil {
		return nil, err
	}

	var init Stmt
	var err error
	if !p.check(lexer.TokenSemi) {
		init, err = p.simpleStmt()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemi, "expected ';' after for-loop initializer"); err != nil {
		return nil, err
	}

	var cond Expr
	if !p.check(lexer.TokenSemi) {
		cond, err = p.expr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemi, "expected ';' after for-loop condition"); err != nil {
		return nil, err
	}

	var post Stmt
	if !p.check(lexer.TokenRParen) {
		post, err = p.simpleStmt()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenRParen, "expected ')' after for-loop clauses"); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ForStmt{Init: init, Cond: cond, Post: post, Body: body, Line: line}, nil
}

// simpleStmt parses a let-statement or expression-statement without
// consuming a trailing semicolon — used for for-loop init/post
// clauses where the semicolons are the loop's own delimiters.
func (p *Parser) simpleStmt() (Stmt, error) {
	if p.check(lexer.TokenLet) {
		line := p.advance().Line
		name, err := p.expect(lexer.TokenIdent, "expected variable name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenEq, "expected '=' after variable name"); err != nil {
			return nil, err
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &LetStmt{Name: name.Lexeme, Expr: e, Line: line}, nil
	}
	line := p.peek().Line
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: e, Line: line}, nil
}

func (p *Parser) fnStmt() (Stmt, error) {
	line := p.advance().Line // 'fn'
	name, err := p.expect(lexer.TokenIdent, "expected function name")
	if err != nil {
		return nil, err
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &FnStmt{Name: name.Lexeme, Params: params, Body: body.(*BlockStmt), Line: line}, nil
}

func (p *Parser) paramList() ([]string, error) {
	if _, err := p.expect(lexer.TokenLParen, "expected '(' to start parameter list"); err != nil {
		return nil, err
	}
	var params []string
	if !p.check(lexer.TokenRParen) {
		for {
			name, err := p.expect(lexer.TokenIdent, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, name.Lexeme)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.TokenRParen, "expected ')' after parameter list"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) returnStmt() (Stmt, error) {
	line := p.advance().Line // 'return'
	var e Expr
	if !p.check(lexer.TokenSemi) && !p.check(lexer.TokenRBrace) && !p.atEnd() {
		var err error
		e, err = p.expr()
		if err != nil {
			return nil, err
		}
	}
	p.optionalSemi()
	return &ReturnStmt{Expr: e, Line: line}, nil
}

func (p *Parser) block() (Stmt, error) {
	open, err := p.expect(lexer.TokenLBrace, "expected '{'")
	if err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.check(lexer.TokenRBrace) && !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(lexer.TokenRBrace, "expected '}' to close block"); err != nil {
		return nil, err
	}
	return &BlockStmt{Stmts: stmts, Line: open.Line}, nil
}

func (p *Parser) exprStmt() (Stmt, error) {
	line := p.peek().Line
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.optionalSemi()
	return &ExprStmt{Expr: e, Line: line}, nil
}

// ---- expressions, precedence low to high: = , || , && , == != , < <= > >= , + - , * / % ----

func (p *Parser) expr() (Expr, error) { return p.assignment() }

func (p *Parser) assignment() (Expr, error) {
	lhs, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.match(lexer.TokenEq) {
		line := p.prev().Line
		switch lhs.(type) {
		case *NameExpr, *IndexExpr:
		default:
			return nil, p.errf(line, "invalid assignment target")
		}
		rhs, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Lhs: lhs, Op: "=", Rhs: rhs, Line: line}, nil
	}
	return lhs, nil
}

func (p *Parser) or() (Expr, error) {
	lhs, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenOrOr) {
		line := p.prev().Line
		rhs, err := p.and()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Lhs: lhs, Op: "||", Rhs: rhs, Line: line}
	}
	return lhs, nil
}

func (p *Parser) and() (Expr, error) {
	lhs, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenAndAnd) {
		line := p.prev().Line
		rhs, err := p.equality()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Lhs: lhs, Op: "&&", Rhs: rhs, Line: line}
	}
	return lhs, nil
}

func (p *Parser) equality() (Expr, error) {
	lhs, err := p.relational()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenEqEq) || p.check(lexer.TokenNeq) {
		op := p.advance()
		rhs, err := p.relational()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Lhs: lhs, Op: string(op.Type), Rhs: rhs, Line: op.Line}
	}
	return lhs, nil
}

func (p *Parser) relational() (Expr, error) {
	lhs, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenLt) || p.check(lexer.TokenLe) || p.check(lexer.TokenGt) || p.check(lexer.TokenGe) {
		op := p.advance()
		rhs, err := p.additive()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Lhs: lhs, Op: string(op.Type), Rhs: rhs, Line: op.Line}
	}
	return lhs, nil
}

func (p *Parser) additive() (Expr, error) {
	lhs, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		op := p.advance()
		rhs, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Lhs: lhs, Op: string(op.Type), Rhs: rhs, Line: op.Line}
	}
	return lhs, nil
}

func (p *Parser) multiplicative() (Expr, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenStar) || p.check(lexer.TokenSlash) || p.check(lexer.TokenPercent) {
		op := p.advance()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Lhs: lhs, Op: string(op.Type), Rhs: rhs, Line: op.Line}
	}
	return lhs, nil
}

func (p *Parser) unary() (Expr, error) {
	if p.check(lexer.TokenMinus) || p.check(lexer.TokenBang) {
		op := p.advance()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: string(op.Type), Expr: e, Line: op.Line}, nil
	}
	return p.callIndex()
}

func (p *Parser) callIndex() (Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(lexer.TokenLParen):
			line := p.advance().Line
			var args []Expr
			if !p.check(lexer.TokenRParen) {
				for {
					a, err := p.expr()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if !p.match(lexer.TokenComma) {
						break
					}
				}
			}
			if _, err := p.expect(lexer.TokenRParen, "expected ')' after arguments"); err != nil {
				return nil, err
			}
			e = &CallExpr{Fn: e, Args: args, Line: line}

		case p.check(lexer.TokenLBracket):
			line := p.advance().Line
			key, err := p.expr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokenRBracket, "expected ']' after index"); err != nil {
				return nil, err
			}
			e = &IndexExpr{Obj: e, Key: key, Line: line}

		case p.check(lexer.TokenDot):
			line := p.advance().Line
			name, err := p.expect(lexer.TokenIdent, "expected field name after '.'")
			if err != nil {
				return nil, err
			}
			e = &IndexExpr{Obj: e, Key: &StringExpr{Value: name.Lexeme, Line: line}, Line: line}

		default:
			return e, nil
		}
	}
}

func (p *Parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		n, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errf(tok.Line, "invalid number literal %q", tok.Lexeme)
		}
		return &NumberExpr{Value: n, Line: tok.Line}, nil

	case lexer.TokenString:
		p.advance()
		return &StringExpr{Value: tok.Lexeme, Line: tok.Line}, nil

	case lexer.TokenTrue:
		p.advance()
		return &BoolExpr{Value: true, Line: tok.Line}, nil

	case lexer.TokenFalse:
		p.advance()
		return &BoolExpr{Value: false, Line: tok.Line}, nil

	case lexer.TokenNil:
		p.advance()
		return &NilExpr{Line: tok.Line}, nil

	case lexer.TokenIdent:
		p.advance()
		return &NameExpr{Name: tok.Lexeme, Line: tok.Line}, nil

	case lexer.TokenFn:
		return p.anonFn()

	case lexer.TokenLParen:
		p.advance()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen, "expected ')' to close grouping"); err != nil {
			return nil, err
		}
		return e, nil

	case lexer.TokenLBracket:
		return p.arrayLiteral()

	case lexer.TokenLBrace:
		return p.tableLiteral()

	default:
		return nil, p.errf(tok.Line, "unexpected token %q", tok.Lexeme)
	}
}

func (p *Parser) anonFn() (Expr, error) {
	line := p.advance().Line // 'fn'
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &AnonFnExpr{Params: params, Body: body.(*BlockStmt), Line: line}, nil
}

func (p *Parser) arrayLiteral() (Expr, error) {
	line := p.advance().Line // '['
	var elems []Expr
	if !p.check(lexer.TokenRBracket) {
		for {
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.TokenRBracket, "expected ']' to close array literal"); err != nil {
		return nil, err
	}
	return &ArrayExpr{Elems: elems, Line: line}, nil
}

func (p *Parser) tableLiteral() (Expr, error) {
	line := p.advance().Line // '{'
	var pairs []TablePair
	if !p.check(lexer.TokenRBrace) {
		for {
			var key Expr
			if p.check(lexer.TokenIdent) {
				tok := p.advance()
				key = &StringExpr{Value: tok.Lexeme, Line: tok.Line}
			} else if p.check(lexer.TokenLBracket) {
				p.advance()
				k, err := p.expr()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(lexer.TokenRBracket, "expected ']' after computed key"); err != nil {
					return nil, err
				}
				key = k
			} else {
				k, err := p.expr()
				if err != nil {
					return nil, err
				}
				key = k
			}
			if _, err := p.expect(lexer.TokenColon, "expected ':' after table key"); err != nil {
				return nil, err
			}
			val, err := p.expr()
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, TablePair{Key: key, Value: val})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.TokenRBrace, "expected '}' to close table literal"); err != nil {
		return nil, err
	}
	return &TableExpr{Pairs: pairs, Line: line}, nil
}
