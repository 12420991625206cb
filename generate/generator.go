// Package generate lowers function bodies into LLVM IR: each function becomes
// a control-flow graph of basic blocks whose locals live in stack slots.
package generate

import (
	"context"
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/tlog"

	"acc/ast"
)

// FuncPassManager is the backend's function optimization pipeline.  It is
// handed every function that lowered and verified successfully.
type FuncPassManager interface {
	RunOnFunc(f *ir.Func) error
}

// Generator is responsible for converting the AST into LLVM IR.  A generator
// owns one LLVM module and the module's function namespace.  Functions are
// lowered one at a time, each with its own build context.
type Generator struct {
	// mod is the LLVM module being generated.
	mod *ir.Module

	// funcs is the module's function namespace: every function which may be
	// called, whether it is defined, declared or external.
	funcs map[ast.Name]*ir.Func

	// defined records the functions whose bodies have been lowered.
	defined map[ast.Name]struct{}

	// externs records the functions defined outside of the program.
	externs map[ast.Name]struct{}

	// passes is the backend pipeline run over each verified function.  It may
	// be nil in which case no passes are run.
	passes FuncPassManager
}

// NewGenerator creates a new generator with an empty module.
func NewGenerator(passes FuncPassManager) *Generator {
	return &Generator{
		mod:     ir.NewModule(),
		funcs:   make(map[ast.Name]*ir.Func),
		defined: make(map[ast.Name]struct{}),
		externs: make(map[ast.Name]struct{}),
		passes:  passes,
	}
}

// Module returns the module being generated.
func (g *Generator) Module() *ir.Module {
	return g.mod
}

// -----------------------------------------------------------------------------

// DeclareFunc adds the signature of fn to the module: one scalar parameter per
// declared parameter and a scalar result.  Declaring an already declared
// function with the same arity returns the existing declaration.
func (g *Generator) DeclareFunc(fn *ast.Function) (*ir.Func, error) {
	if llFunc, ok := g.funcs[fn.Name]; ok {
		if len(llFunc.Params) != len(fn.Params) {
			return nil, lowerErrorf(ErrArityMismatch, fn, fn.Name,
				"declared with %d parameters, defined with %d", len(llFunc.Params), len(fn.Params))
		}

		return llFunc, nil
	}

	params := make([]*ir.Param, len(fn.Params))
	for i, name := range fn.Params {
		params[i] = ir.NewParam(string(name), scalarType)
	}

	llFunc := g.mod.NewFunc(string(fn.Name), scalarType, params...)

	g.funcs[fn.Name] = llFunc
	return llFunc, nil
}

// DeclareExtern declares a function defined outside of the program, such as a
// C library function.  Externs without a result can be declared but calling
// them is a lowering failure.
func (g *Generator) DeclareExtern(name ast.Name, arity int, returns bool) (*ir.Func, error) {
	if _, ok := g.funcs[name]; ok {
		return nil, &LowerError{Kind: ErrDuplicateFunction, Name: name, Detail: "extern collides with an existing function"}
	}

	params := make([]*ir.Param, arity)
	for i := range params {
		params[i] = ir.NewParam(fmt.Sprintf("a%d", i), scalarType)
	}

	var retType types.Type = scalarType
	if !returns {
		retType = types.Void
	}

	llFunc := g.mod.NewFunc(string(name), retType, params...)
	g.funcs[name] = llFunc
	g.externs[name] = struct{}{}
	return llFunc, nil
}

// LowerProgram declares every function of the program so that calls may refer
// to functions defined later in the source and then lowers them in order.
// The first failure aborts lowering.  If entry is not empty, the program must
// define a function with that name.
func (g *Generator) LowerProgram(ctx context.Context, prog *ast.Program, entry ast.Name) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lower program", "funcs", len(prog.Functions), "entry", entry)
	defer tr.Finish("err", &err)

	if entry != "" {
		if _, ok := prog.Lookup(entry); !ok {
			return &LowerError{Kind: ErrUnknownFunction, Name: entry, Detail: "missing entry function"}
		}
	}

	for _, fn := range prog.Functions {
		if _, err := g.DeclareFunc(fn); err != nil {
			return err
		}
	}

	for _, fn := range prog.Functions {
		if _, err := g.LowerFunc(ctx, fn); err != nil {
			return err
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// discard removes a function from the module and its namespace.
func (g *Generator) discard(name ast.Name, llFunc *ir.Func) {
	for i, f := range g.mod.Funcs {
		if f == llFunc {
			g.mod.Funcs = append(g.mod.Funcs[:i], g.mod.Funcs[i+1:]...)
			break
		}
	}

	delete(g.funcs, name)
	delete(g.defined, name)
}
