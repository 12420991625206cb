package generate

import (
	"context"

	"github.com/llir/llvm/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"acc/ast"
)

// LowerFunc lowers a function definition into the module.  The function is
// declared if it has not been already, its parameters are copied into stack
// slots, its body is lowered and the result is verified.  On success the
// function is handed to the backend's pass pipeline.  On any failure the
// function is removed from the module entirely: a function is either fully
// lowered and verified or absent.
func (g *Generator) LowerFunc(ctx context.Context, fn *ast.Function) (llFunc *ir.Func, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "lower func", "name", fn.Name, "params", len(fn.Params))
	defer tr.Finish("err", &err)

	if _, ok := g.defined[fn.Name]; ok {
		return nil, lowerErrorf(ErrDuplicateFunction, fn, fn.Name, "function defined multiple times")
	}

	if _, ok := g.externs[fn.Name]; ok {
		return nil, lowerErrorf(ErrDuplicateFunction, fn, fn.Name, "function collides with an extern")
	}

	llFunc, err = g.DeclareFunc(fn)
	if err != nil {
		return nil, err
	}

	g.defined[fn.Name] = struct{}{}

	if err = g.genFuncBody(llFunc, fn); err == nil {
		pruneUnreachable(llFunc)
		err = Verify(llFunc)
	}

	if err != nil {
		g.discard(fn.Name, llFunc)
		return nil, attachFunc(err, fn.Name)
	}

	if g.passes != nil {
		if err = g.passes.RunOnFunc(llFunc); err != nil {
			g.discard(fn.Name, llFunc)
			return nil, errors.Wrap(err, "func %v: run passes", fn.Name)
		}
	}

	tr.Printw("lowered", "blocks", len(llFunc.Blocks))

	return llFunc, nil
}

// genFuncBody generates the entry block, the parameter slots and the body of
// the function.
func (g *Generator) genFuncBody(llFunc *ir.Func, fn *ast.Function) error {
	bc := newBuildContext(llFunc)

	// every parameter is copied into its own stack slot so that it may be
	// assigned to like any other local
	for i, name := range fn.Params {
		param := llFunc.Params[i]
		param.SetName(bc.uniqueName(string(name)))

		slot := bc.bind(name)
		bc.entry.NewStore(param, slot)
	}

	return g.genBlock(bc, fn.Body)
}

// attachFunc records the name of the failing function on a lowering error.
func attachFunc(err error, name ast.Name) error {
	if le, ok := err.(*LowerError); ok && le.Func == "" {
		le.Func = name
	}

	return err
}
