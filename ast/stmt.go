package ast

// Stmt is the sealed interface implemented by all statement nodes.
type Stmt interface {
	ASTNode

	// stmtNode marks the node as a statement.
	stmtNode()
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	ASTBase

	Expr Expr
}

// LetStmt declares a new local variable.
type LetStmt struct {
	ASTBase

	Name        Name
	Initializer Expr
}

// ReturnStmt returns a value from the enclosing function.
type ReturnStmt struct {
	ASTBase

	Value Expr
}

// IfStmt is a conditional.  Both bodies are always present: a missing `else`
// is an empty slice.
type IfStmt struct {
	ASTBase

	Cond Expr
	Then []Stmt
	Else []Stmt
}

// ForStmt is a C-style loop.  The initializer runs once before the loop, the
// condition before every iteration and the step after every body.
type ForStmt struct {
	ASTBase

	Init Stmt
	Cond Expr

	// The step is either an *ExprStmt or an *AssignStmt.
	Step Stmt

	Body []Stmt
}

// AssignStmt stores a new value into an existing variable.
type AssignStmt struct {
	ASTBase

	Name  Name
	Value Expr
}

func (*ExprStmt) stmtNode()   {}
func (*LetStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}
func (*IfStmt) stmtNode()     {}
func (*ForStmt) stmtNode()    {}
func (*AssignStmt) stmtNode() {}

// -----------------------------------------------------------------------------

// Eval returns an expression statement.
func Eval(expr Expr) Stmt {
	return &ExprStmt{Expr: expr}
}

// Let returns a variable declaration.
func Let(name Name, init Expr) Stmt {
	return &LetStmt{Name: name, Initializer: init}
}

// Return returns a return statement.
func Return(value Expr) Stmt {
	return &ReturnStmt{Value: value}
}

// If returns a conditional.  Nil bodies are replaced by empty ones.
func If(cond Expr, then, els []Stmt) Stmt {
	if then == nil {
		then = []Stmt{}
	}

	if els == nil {
		els = []Stmt{}
	}

	return &IfStmt{Cond: cond, Then: then, Else: els}
}

// For returns a loop.  A nil body is replaced by an empty one.
func For(init Stmt, cond Expr, step Stmt, body []Stmt) Stmt {
	if body == nil {
		body = []Stmt{}
	}

	return &ForStmt{Init: init, Cond: cond, Step: step, Body: body}
}

// Assign returns an assignment.
func Assign(name Name, value Expr) Stmt {
	return &AssignStmt{Name: name, Value: value}
}

// Func returns a function definition.
func Func(name Name, params []Name, body ...Stmt) *Function {
	return &Function{Name: name, Params: params, Body: body}
}
