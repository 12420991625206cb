package generate

import (
	"tlog.app/go/tlog"

	"acc/ast"
)

// genBlock generates a sequence of statements in order starting at the
// cursor.  Statements following a terminator are still generated so that
// their errors are reported, but into a block no branch can reach.
func (g *Generator) genBlock(bc *buildContext, stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		bc.ensureOpen()

		if err := g.genStmt(bc, stmt); err != nil {
			return err
		}
	}

	return nil
}

// genStmt generates a single statement.
func (g *Generator) genStmt(bc *buildContext, stmt ast.Stmt) error {
	tlog.V("lower").Printw("stmt", "typ", tlog.NextAsType, stmt, "block", bc.cursor().Name())

	switch v := stmt.(type) {
	case *ast.ExprStmt:
		_, err := g.genExpr(bc, v.Expr)
		return err
	case *ast.LetStmt:
		return g.genLet(bc, v)
	case *ast.AssignStmt:
		return g.genAssign(bc, v)
	case *ast.ReturnStmt:
		val, err := g.genExpr(bc, v.Value)
		if err != nil {
			return err
		}

		bc.cursor().NewRet(val)
		return nil
	case *ast.IfStmt:
		return g.genIf(bc, v)
	case *ast.ForStmt:
		return g.genFor(bc, v)
	}

	return lowerErrorf(ErrUnsupported, stmt, "", "statement of type %T", stmt)
}

// genLet generates a variable declaration.  The initializer is evaluated
// before the name is bound so it may refer to a previous binding of the same
// name.  Declaring a name again gives it a new slot.
func (g *Generator) genLet(bc *buildContext, let *ast.LetStmt) error {
	val, err := g.genExpr(bc, let.Initializer)
	if err != nil {
		return err
	}

	slot := bc.bind(let.Name)
	bc.cursor().NewStore(val, slot)
	return nil
}

// genAssign generates an assignment to an existing variable or parameter.
func (g *Generator) genAssign(bc *buildContext, assign *ast.AssignStmt) error {
	slot, ok := bc.lookup(assign.Name)
	if !ok {
		return lowerErrorf(ErrUnresolvedSymbol, assign, assign.Name, "assignment to undeclared variable")
	}

	val, err := g.genExpr(bc, assign.Value)
	if err != nil {
		return err
	}

	bc.cursor().NewStore(val, slot)
	return nil
}
