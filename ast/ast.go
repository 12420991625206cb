// Package ast defines the abstract syntax tree produced by the parser and
// consumed by the IR generator.  The tree is never mutated after parsing.
package ast

import "acc/report"

// The abstract interface for all AST nodes.
type ASTNode interface {
	// The text span of the AST.
	Span() *report.TextSpan
}

// A utility base struct for all AST nodes.
type ASTBase struct {
	// The span over which the AST node occurs.
	span *report.TextSpan
}

// NewASTBaseOn creates a new AST base with the given span.
func NewASTBaseOn(span *report.TextSpan) ASTBase {
	return ASTBase{span: span}
}

// NewASTBaseOver creates a new AST base spanning over two spans.
func NewASTBaseOver(start, end *report.TextSpan) ASTBase {
	return ASTBase{span: report.NewSpanOver(start, end)}
}

func (ab ASTBase) Span() *report.TextSpan {
	return ab.span
}

// Name is an identifier.  Names are compared by value.
type Name string

// -----------------------------------------------------------------------------

// Function is a function definition.  Every parameter and the return value
// share the language's one scalar type.
type Function struct {
	ASTBase

	// The function's name.
	Name Name

	// The ordered parameter names.
	Params []Name

	// The ordered statements of the function body.
	Body []Stmt

	// The absolute and representative paths of the file the function was
	// defined in.  These are only used for error reporting and may be empty.
	AbsPath, ReprPath string
}

// Program is an ordered collection of functions.
type Program struct {
	Functions []*Function
}

// Lookup returns the function in the program with the given name.
func (p *Program) Lookup(name Name) (*Function, bool) {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn, true
		}
	}

	return nil, false
}
