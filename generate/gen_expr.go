package generate

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"

	"acc/ast"
)

// genExpr generates an expression at the cursor and returns its scalar value.
func (g *Generator) genExpr(bc *buildContext, expr ast.Expr) (value.Value, error) {
	switch v := expr.(type) {
	case *ast.IntLiteral:
		return constant.NewInt(scalarType, v.Value), nil
	case *ast.Identifier:
		slot, ok := bc.lookup(v.Name)
		if !ok {
			return nil, lowerErrorf(ErrUnresolvedSymbol, v, v.Name, "no variable or parameter with that name")
		}

		return bc.cursor().NewLoad(scalarType, slot), nil
	case *ast.BinaryOp:
		return g.genBinaryOp(bc, v)
	case *ast.Call:
		return g.genCall(bc, v)
	case *ast.StringLiteral:
		return nil, lowerErrorf(ErrUnsupported, v, "", "string literals cannot be lowered")
	}

	return nil, lowerErrorf(ErrUnsupported, expr, "", "expression of type %T", expr)
}

// genBinaryOp generates an arithmetic operator application.  The LHS is
// generated in full before the RHS.  Division is signed and truncating;
// division by zero and overflow are left to the target.
func (g *Generator) genBinaryOp(bc *buildContext, bop *ast.BinaryOp) (value.Value, error) {
	lhs, err := g.genExpr(bc, bop.Lhs)
	if err != nil {
		return nil, err
	}

	rhs, err := g.genExpr(bc, bop.Rhs)
	if err != nil {
		return nil, err
	}

	// the cursor may have moved while generating the operands
	block := bc.cursor()

	switch bop.Op {
	case ast.OpAdd:
		return block.NewAdd(lhs, rhs), nil
	case ast.OpSub:
		return block.NewSub(lhs, rhs), nil
	case ast.OpMul:
		return block.NewMul(lhs, rhs), nil
	case ast.OpDiv:
		return block.NewSDiv(lhs, rhs), nil
	}

	return nil, lowerErrorf(ErrUnsupported, bop, "", "operator %s", bop.Op)
}

// genCall generates a function call.  The callee must be declared in the
// module, take as many arguments as are given and produce a value.
func (g *Generator) genCall(bc *buildContext, call *ast.Call) (value.Value, error) {
	llFunc, ok := g.funcs[call.Func]
	if !ok {
		return nil, lowerErrorf(ErrUnknownFunction, call, call.Func, "no function with that name")
	}

	if len(llFunc.Params) != len(call.Args) {
		return nil, lowerErrorf(ErrArityMismatch, call, call.Func,
			"takes %d arguments but %d were given", len(llFunc.Params), len(call.Args))
	}

	if !llFunc.Sig.RetType.Equal(scalarType) {
		return nil, lowerErrorf(ErrVoidCall, call, call.Func, "function does not return a value")
	}

	args := make([]value.Value, len(call.Args))
	for i, arg := range call.Args {
		val, err := g.genExpr(bc, arg)
		if err != nil {
			return nil, err
		}

		args[i] = val
	}

	return bc.cursor().NewCall(llFunc, args...), nil
}

// genCondition generates an expression and compares it against zero to
// produce a boolean suitable for a conditional branch.
func (g *Generator) genCondition(bc *buildContext, cond ast.Expr) (value.Value, error) {
	val, err := g.genExpr(bc, cond)
	if err != nil {
		return nil, err
	}

	return bc.cursor().NewICmp(enum.IPredNE, val, constant.NewInt(scalarType, 0)), nil
}
