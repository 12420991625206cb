package generate

import (
	"github.com/llir/llvm/ir"

	"acc/ast"
)

// genIf generates an if statement.  Both branches always get their own block
// and both fall through to a common merge block where the cursor is left.
func (g *Generator) genIf(bc *buildContext, ifStmt *ast.IfStmt) error {
	cond, err := g.genCondition(bc, ifStmt.Cond)
	if err != nil {
		return err
	}

	thenBlock := bc.appendBlock("then")
	elseBlock := bc.appendBlock("else")
	mergeBlock := bc.appendBlock("ifcont")

	bc.cursor().NewCondBr(cond, thenBlock, elseBlock)

	for _, branch := range []struct {
		block *ir.Block
		body  []ast.Stmt
	}{
		{thenBlock, ifStmt.Then},
		{elseBlock, ifStmt.Else},
	} {
		bc.setCursor(branch.block)
		if err := g.genBlock(bc, branch.body); err != nil {
			return err
		}

		// a branch which ends in a return does not reach the merge block
		if !bc.terminated() {
			if err := bc.br(mergeBlock); err != nil {
				return err
			}
		}
	}

	bc.setCursor(mergeBlock)
	return nil
}

// genFor generates a for loop.  The condition is tested in its own block
// before every iteration; the body block runs the body and then the step
// before branching back to the condition.
func (g *Generator) genFor(bc *buildContext, forStmt *ast.ForStmt) error {
	if forStmt.Init != nil {
		if err := g.genStmt(bc, forStmt.Init); err != nil {
			return err
		}
	}

	condBlock := bc.appendBlock("loop.cond")
	bodyBlock := bc.appendBlock("loop.body")
	afterBlock := bc.appendBlock("loop.after")

	// the initializer may itself have terminated the pre-loop block
	bc.ensureOpen()
	if err := bc.br(condBlock); err != nil {
		return err
	}

	bc.setCursor(condBlock)
	cond, err := g.genCondition(bc, forStmt.Cond)
	if err != nil {
		return err
	}

	bc.cursor().NewCondBr(cond, bodyBlock, afterBlock)

	bc.setCursor(bodyBlock)
	if err := g.genBlock(bc, forStmt.Body); err != nil {
		return err
	}

	if forStmt.Step != nil {
		bc.ensureOpen()
		if err := g.genStmt(bc, forStmt.Step); err != nil {
			return err
		}
	}

	if !bc.terminated() {
		if err := bc.br(condBlock); err != nil {
			return err
		}
	}

	bc.setCursor(afterBlock)
	return nil
}
