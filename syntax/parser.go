package syntax

import (
	"fmt"
	"io"
	"runtime"
	"strconv"

	"acc/ast"
	"acc/report"
)

// NOTE: All parsing functions (that are not utility/API functions) are
// commented with the EBNF notation of the grammar they parse.

// Parser is the parser for a source file.  It is a recursive descent parser:
// all parsing functions assume that they begin with the parser positioned on
// the first token of their production and must consume all tokens (including
// the last) of their production, leaving the parser on the next token.
// Syntax errors are raised as panics of *report.LocalCompileError and are
// caught by Parse.  Parsers are created once per file.
type Parser struct {
	// lexer is the Lexer this parser is using to lex the source file.
	lexer *Lexer

	// tok is the current token the parser is positioned on.
	tok *Token

	// absPath and reprPath identify the file being parsed.
	absPath, reprPath string
}

// NewParser creates a new parser for the given file.
func NewParser(r io.Reader, absPath, reprPath string) *Parser {
	return &Parser{
		lexer:    NewLexer(r),
		absPath:  absPath,
		reprPath: reprPath,
	}
}

// Parse parses the whole file into a program.  If the file is malformed, the
// returned error is a *report.LocalCompileError locating the problem.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if x := recover(); x != nil {
			if _, ok := x.(runtime.Error); ok {
				panic(x)
			}

			// lexer read failures are propagated along with syntax errors
			if perr, ok := x.(error); ok {
				prog, err = nil, perr
				return
			}

			panic(x)
		}
	}()

	p.next()
	return p.parseProgram(), nil
}

// ParseString is a convenience wrapper which parses source text held in
// memory.
func ParseString(src string) (*ast.Program, error) {
	return NewParser(stringReader(src), "", "<string>").Parse()
}

// -----------------------------------------------------------------------------

// next moves the parser forward one token.
func (p *Parser) next() {
	tok, err := p.lexer.NextToken()
	if err != nil {
		panic(err)
	}

	p.tok = tok
}

// got returns true if the parser is on a token of a given kind.
func (p *Parser) got(kind int) bool {
	return p.tok.Kind == kind
}

// assert checks if the parser is on a token of a given kind and rejects the
// token if not.
func (p *Parser) assert(kind int) {
	if !p.got(kind) {
		p.reject(tokenNames[kind])
	}
}

// want asserts that the parser is on a token of the given kind, moves past it
// and returns it.
func (p *Parser) want(kind int) *Token {
	p.assert(kind)
	tok := p.tok
	p.next()
	return tok
}

// reject raises an unexpected token error.
func (p *Parser) reject(expected string) {
	found := tokenNames[p.tok.Kind]
	if p.tok.Kind == TOK_IDENT || p.tok.Kind == TOK_NUMLIT {
		found = fmt.Sprintf("`%s`", p.tok.Value)
	}

	panic(report.Raise(p.tok.Span, "expected %s but found %s", expected, found))
}

// -----------------------------------------------------------------------------

// program := func* ;
func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}

	for !p.got(TOK_EOF) {
		prog.Functions = append(prog.Functions, p.parseFunc())
	}

	return prog
}

// func := 'fn' ident '(' [ident {',' ident}] ')' block ;
func (p *Parser) parseFunc() *ast.Function {
	start := p.want(TOK_FN).Span
	name := p.want(TOK_IDENT)

	p.want(TOK_LPAREN)

	var params []ast.Name
	if !p.got(TOK_RPAREN) {
		for {
			params = append(params, ast.Name(p.want(TOK_IDENT).Value))

			if !p.got(TOK_COMMA) {
				break
			}

			p.next()
		}
	}

	p.want(TOK_RPAREN)

	body, end := p.parseBlock()

	return &ast.Function{
		ASTBase:  ast.NewASTBaseOver(start, end),
		Name:     ast.Name(name.Value),
		Params:   params,
		Body:     body,
		AbsPath:  p.absPath,
		ReprPath: p.reprPath,
	}
}

// block := '{' {stmt} '}' ;
func (p *Parser) parseBlock() ([]ast.Stmt, *report.TextSpan) {
	p.want(TOK_LBRACE)

	stmts := []ast.Stmt{}
	for !p.got(TOK_RBRACE) {
		stmts = append(stmts, p.parseStmt())
	}

	return stmts, p.want(TOK_RBRACE).Span
}

// stmt := let_stmt | return_stmt | if_stmt | for_stmt | simple_stmt ';' ;
func (p *Parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case TOK_LET:
		return p.parseLet()
	case TOK_RETURN:
		start := p.tok.Span
		p.next()

		value := p.parseExpr()
		end := p.want(TOK_SEMI).Span

		return &ast.ReturnStmt{ASTBase: ast.NewASTBaseOver(start, end), Value: value}
	case TOK_IF:
		return p.parseIf()
	case TOK_FOR:
		return p.parseFor()
	default:
		stmt := p.parseSimpleStmt()
		p.want(TOK_SEMI)
		return stmt
	}
}

// let_stmt := 'let' ident '=' expr ';' ;
func (p *Parser) parseLet() ast.Stmt {
	start := p.want(TOK_LET).Span
	name := p.want(TOK_IDENT)
	p.want(TOK_ASSIGN)

	init := p.parseExpr()
	end := p.want(TOK_SEMI).Span

	return &ast.LetStmt{
		ASTBase:     ast.NewASTBaseOver(start, end),
		Name:        ast.Name(name.Value),
		Initializer: init,
	}
}

// if_stmt := 'if' '(' expr ')' block ['else' (block | if_stmt)] ;
func (p *Parser) parseIf() ast.Stmt {
	start := p.want(TOK_IF).Span

	p.want(TOK_LPAREN)
	cond := p.parseExpr()
	p.want(TOK_RPAREN)

	then, end := p.parseBlock()
	els := []ast.Stmt{}

	if p.got(TOK_ELSE) {
		p.next()

		if p.got(TOK_IF) {
			elif := p.parseIf()
			els = append(els, elif)
			end = elif.Span()
		} else {
			els, end = p.parseBlock()
		}
	}

	return &ast.IfStmt{
		ASTBase: ast.NewASTBaseOver(start, end),
		Cond:    cond,
		Then:    then,
		Else:    els,
	}
}

// for_stmt := 'for' '(' let_stmt expr ';' simple_stmt ')' block ;
func (p *Parser) parseFor() ast.Stmt {
	start := p.want(TOK_FOR).Span

	p.want(TOK_LPAREN)
	init := p.parseLet()
	cond := p.parseExpr()
	p.want(TOK_SEMI)
	step := p.parseSimpleStmt()
	p.want(TOK_RPAREN)

	body, end := p.parseBlock()

	return &ast.ForStmt{
		ASTBase: ast.NewASTBaseOver(start, end),
		Init:    init,
		Cond:    cond,
		Step:    step,
		Body:    body,
	}
}

// simple_stmt := ident '=' expr | expr ;
func (p *Parser) parseSimpleStmt() ast.Stmt {
	expr := p.parseExpr()

	if p.got(TOK_ASSIGN) {
		ident, ok := expr.(*ast.Identifier)
		if !ok {
			panic(report.Raise(expr.Span(), "cannot assign to `%s`", ast.Repr(expr)))
		}

		p.next()
		value := p.parseExpr()

		return &ast.AssignStmt{
			ASTBase: ast.NewASTBaseOver(ident.Span(), value.Span()),
			Name:    ident.Name,
			Value:   value,
		}
	}

	return &ast.ExprStmt{ASTBase: ast.NewASTBaseOn(expr.Span()), Expr: expr}
}

// -----------------------------------------------------------------------------

// expr := term {('+' | '-') term} ;
func (p *Parser) parseExpr() ast.Expr {
	lhs := p.parseTerm()

	for p.got(TOK_PLUS) || p.got(TOK_MINUS) {
		op := ast.OpAdd
		if p.got(TOK_MINUS) {
			op = ast.OpSub
		}

		p.next()
		rhs := p.parseTerm()

		lhs = &ast.BinaryOp{
			ASTBase: ast.NewASTBaseOver(lhs.Span(), rhs.Span()),
			Op:      op,
			Lhs:     lhs,
			Rhs:     rhs,
		}
	}

	return lhs
}

// term := factor {('*' | '/') factor} ;
func (p *Parser) parseTerm() ast.Expr {
	lhs := p.parseFactor()

	for p.got(TOK_STAR) || p.got(TOK_DIV) {
		op := ast.OpMul
		if p.got(TOK_DIV) {
			op = ast.OpDiv
		}

		p.next()
		rhs := p.parseFactor()

		lhs = &ast.BinaryOp{
			ASTBase: ast.NewASTBaseOver(lhs.Span(), rhs.Span()),
			Op:      op,
			Lhs:     lhs,
			Rhs:     rhs,
		}
	}

	return lhs
}

// factor := int_lit | string_lit | ident ['(' [expr {',' expr}] ')'] | '(' expr ')' ;
func (p *Parser) parseFactor() ast.Expr {
	tok := p.tok

	switch tok.Kind {
	case TOK_NUMLIT:
		p.next()

		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			panic(report.Raise(tok.Span, "integer literal `%s` does not fit in 64 bits", tok.Value))
		}

		return &ast.IntLiteral{ASTBase: ast.NewASTBaseOn(tok.Span), Value: n}
	case TOK_STRINGLIT:
		p.next()
		return &ast.StringLiteral{ASTBase: ast.NewASTBaseOn(tok.Span), Value: tok.Value}
	case TOK_IDENT:
		p.next()

		if !p.got(TOK_LPAREN) {
			return &ast.Identifier{ASTBase: ast.NewASTBaseOn(tok.Span), Name: ast.Name(tok.Value)}
		}

		p.next()

		var args []ast.Expr
		if !p.got(TOK_RPAREN) {
			for {
				args = append(args, p.parseExpr())

				if !p.got(TOK_COMMA) {
					break
				}

				p.next()
			}
		}

		end := p.want(TOK_RPAREN).Span

		return &ast.Call{
			ASTBase: ast.NewASTBaseOver(tok.Span, end),
			Func:    ast.Name(tok.Value),
			Args:    args,
		}
	case TOK_LPAREN:
		p.next()
		expr := p.parseExpr()
		p.want(TOK_RPAREN)
		return expr
	}

	p.reject("expression")
	return nil
}
