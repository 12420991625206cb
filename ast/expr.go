package ast

import (
	"fmt"
	"strconv"
)

// Expr is the sealed interface implemented by all expression nodes.
type Expr interface {
	ASTNode

	// exprNode marks the node as an expression.
	exprNode()
}

// IntLiteral is a signed 64-bit integer literal.
type IntLiteral struct {
	ASTBase

	Value int64
}

// StringLiteral is a string literal.  The quotes have been stripped from its
// value.
type StringLiteral struct {
	ASTBase

	Value string
}

// Identifier is a reference to a named value.
type Identifier struct {
	ASTBase

	Name Name
}

// BinaryOp is the application of a binary operator.  The LHS is always
// evaluated before the RHS.
type BinaryOp struct {
	ASTBase

	Op       Oper
	Lhs, Rhs Expr
}

// Call is a function call.  Arguments are evaluated in order.
type Call struct {
	ASTBase

	Func Name
	Args []Expr
}

func (*IntLiteral) exprNode()    {}
func (*StringLiteral) exprNode() {}
func (*Identifier) exprNode()    {}
func (*BinaryOp) exprNode()      {}
func (*Call) exprNode()          {}

// -----------------------------------------------------------------------------

// Oper is a binary arithmetic operator.
type Oper int

// Enumeration of operators.
const (
	OpAdd Oper = iota
	OpSub
	OpMul
	OpDiv
)

func (op Oper) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}

	return "Oper(" + strconv.Itoa(int(op)) + ")"
}

// -----------------------------------------------------------------------------

// The constructors below build span-less nodes.  They are used by tests and by
// tooling that synthesizes code.

// Int returns an integer literal.
func Int(n int64) Expr {
	return &IntLiteral{Value: n}
}

// Str returns a string literal.
func Str(s string) Expr {
	return &StringLiteral{Value: s}
}

// Ident returns an identifier reference.
func Ident(name Name) Expr {
	return &Identifier{Name: name}
}

// Binary returns a binary operator application.
func Binary(op Oper, lhs, rhs Expr) Expr {
	return &BinaryOp{Op: op, Lhs: lhs, Rhs: rhs}
}

// Add returns `lhs + rhs`.
func Add(lhs, rhs Expr) Expr { return Binary(OpAdd, lhs, rhs) }

// Sub returns `lhs - rhs`.
func Sub(lhs, rhs Expr) Expr { return Binary(OpSub, lhs, rhs) }

// Mul returns `lhs * rhs`.
func Mul(lhs, rhs Expr) Expr { return Binary(OpMul, lhs, rhs) }

// Div returns `lhs / rhs`.
func Div(lhs, rhs Expr) Expr { return Binary(OpDiv, lhs, rhs) }

// CallOf returns a call to the named function.
func CallOf(name Name, args ...Expr) Expr {
	return &Call{Func: name, Args: args}
}

// Repr returns a compact source-like representation of an expression.
func Repr(expr Expr) string {
	switch v := expr.(type) {
	case *IntLiteral:
		return strconv.FormatInt(v.Value, 10)
	case *StringLiteral:
		return strconv.Quote(v.Value)
	case *Identifier:
		return string(v.Name)
	case *BinaryOp:
		return fmt.Sprintf("(%s %s %s)", Repr(v.Lhs), v.Op, Repr(v.Rhs))
	case *Call:
		s := string(v.Func) + "("
		for i, arg := range v.Args {
			if i > 0 {
				s += ", "
			}
			s += Repr(arg)
		}
		return s + ")"
	}

	return fmt.Sprintf("<%T>", expr)
}
