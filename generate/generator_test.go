package generate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acc/ast"
	"acc/irexec"
)

type recordingPasses struct {
	funcs []string
	err   error
}

func (p *recordingPasses) RunOnFunc(f *ir.Func) error {
	p.funcs = append(p.funcs, f.Name())
	return p.err
}

func lower(t *testing.T, g *Generator, fn *ast.Function) (*ir.Func, error) {
	t.Helper()

	return g.LowerFunc(context.Background(), fn)
}

func mustLower(t *testing.T, g *Generator, fn *ast.Function) *ir.Func {
	t.Helper()

	f, err := lower(t, g, fn)
	require.NoError(t, err)
	require.NotNil(t, f)

	return f
}

func run(t *testing.T, g *Generator, name string, args ...int64) int64 {
	t.Helper()

	res, err := irexec.NewMachine(g.Module()).WithMaxSteps(1_000_000).Call(name, args...)
	require.NoError(t, err)

	return res
}

func blockNames(f *ir.Func) []string {
	names := make([]string, len(f.Blocks))
	for i, b := range f.Blocks {
		names[i] = b.Name()
	}

	return names
}

// assertAbsent checks that a failed function left nothing in the module.
func assertAbsent(t *testing.T, g *Generator, name string) {
	t.Helper()

	for _, f := range g.Module().Funcs {
		assert.NotEqual(t, name, f.Name(), "failed function left in module")
	}

	_, ok := g.funcs[ast.Name(name)]
	assert.False(t, ok, "failed function left in namespace")
}

// -----------------------------------------------------------------------------

func TestReturnLiteral(t *testing.T) {
	for _, n := range []int64{0, 42, -1, math.MaxInt64, math.MinInt64} {
		g := NewGenerator(nil)
		f := mustLower(t, g, ast.Func("main", nil, ast.Return(ast.Int(n))))

		assert.Equal(t, []string{"entry"}, blockNames(f))
		assert.Equal(t, n, run(t, g, "main"))
	}
}

func TestParamsAndArithmetic(t *testing.T) {
	g := NewGenerator(nil)

	// (a - b) * (a + b) / 2
	mustLower(t, g, ast.Func("calc", []ast.Name{"a", "b"},
		ast.Return(ast.Div(
			ast.Mul(ast.Sub(ast.Ident("a"), ast.Ident("b")), ast.Add(ast.Ident("a"), ast.Ident("b"))),
			ast.Int(2),
		)),
	))

	assert.Equal(t, int64(12), run(t, g, "calc", 5, 1))
	assert.Equal(t, int64(-12), run(t, g, "calc", 1, 5))
	assert.Equal(t, int64(-4), run(t, g, "calc", 0, -3), "division truncates toward zero")
}

func TestIfProducesThreeBlocks(t *testing.T) {
	g := NewGenerator(nil)

	f := mustLower(t, g, ast.Func("pick", []ast.Name{"c"},
		ast.Let("r", ast.Int(1)),
		ast.If(ast.Ident("c"), []ast.Stmt{ast.Assign("r", ast.Int(2))}, nil),
		ast.Return(ast.Ident("r")),
	))

	assert.Equal(t, []string{"entry", "then", "else", "ifcont"}, blockNames(f))

	// the empty else still branches to the merge block
	elseBlock := f.Blocks[2]
	assert.Empty(t, elseBlock.Insts)
	require.IsType(t, &ir.TermBr{}, elseBlock.Term)
	assert.Equal(t, f.Blocks[3], elseBlock.Term.Succs()[0])

	assert.Equal(t, int64(2), run(t, g, "pick", 7))
	assert.Equal(t, int64(1), run(t, g, "pick", 0))
}

func TestIfEmptyBranches(t *testing.T) {
	g := NewGenerator(nil)

	f := mustLower(t, g, ast.Func("f", nil,
		ast.If(ast.Int(1), nil, nil),
		ast.Return(ast.Int(5)),
	))

	assert.Len(t, f.Blocks, 4)
	assert.Equal(t, int64(5), run(t, g, "f"))
}

func TestIfBothBranchesReturn(t *testing.T) {
	g := NewGenerator(nil)

	f := mustLower(t, g, ast.Func("sign", []ast.Name{"x"},
		ast.If(ast.Ident("x"),
			[]ast.Stmt{ast.Return(ast.Int(1))},
			[]ast.Stmt{ast.Return(ast.Int(0))},
		),
	))

	// the merge block has no predecessors and is pruned
	assert.Equal(t, []string{"entry", "then", "else"}, blockNames(f))
	assert.Equal(t, int64(1), run(t, g, "sign", -4))
	assert.Equal(t, int64(0), run(t, g, "sign", 0))
}

func TestForRunsBodyThreeTimes(t *testing.T) {
	g := NewGenerator(nil)
	_, err := g.DeclareExtern("tick", 0, true)
	require.NoError(t, err)

	f := mustLower(t, g, ast.Func("main", nil,
		ast.Let("n", ast.Int(0)),
		ast.For(
			ast.Let("i", ast.Int(0)),
			ast.Sub(ast.Ident("i"), ast.Int(3)),
			ast.Assign("i", ast.Add(ast.Ident("i"), ast.Int(1))),
			[]ast.Stmt{
				ast.Eval(ast.CallOf("tick")),
				ast.Assign("n", ast.Add(ast.Ident("n"), ast.Int(1))),
			},
		),
		ast.Return(ast.Ident("n")),
	))

	assert.Equal(t, []string{"entry", "loop.cond", "loop.body", "loop.after"}, blockNames(f))

	// the condition block holds the test and nothing else
	cond := f.Blocks[1]
	require.IsType(t, &ir.TermCondBr{}, cond.Term)
	assert.Equal(t, []*ir.Block{f.Blocks[2], f.Blocks[3]}, cond.Term.Succs())

	ticks := 0
	res, err := irexec.NewMachine(g.Module()).
		Bind("tick", func(...int64) (int64, error) { ticks++; return 0, nil }).
		Call("main")
	require.NoError(t, err)

	assert.Equal(t, int64(3), res)
	assert.Equal(t, 3, ticks)
}

func TestForFalseInitially(t *testing.T) {
	g := NewGenerator(nil)

	mustLower(t, g, ast.Func("main", nil,
		ast.Let("n", ast.Int(7)),
		ast.For(ast.Let("i", ast.Int(0)), ast.Int(0), ast.Assign("n", ast.Int(0)), []ast.Stmt{
			ast.Assign("n", ast.Int(1)),
		}),
		ast.Return(ast.Ident("n")),
	))

	assert.Equal(t, int64(7), run(t, g, "main"), "neither body nor step runs")
}

func TestForBodyReturns(t *testing.T) {
	g := NewGenerator(nil)

	mustLower(t, g, ast.Func("first", []ast.Name{"n"},
		ast.For(ast.Let("i", ast.Int(0)), ast.Sub(ast.Ident("i"), ast.Ident("n")), ast.Assign("i", ast.Add(ast.Ident("i"), ast.Int(1))), []ast.Stmt{
			ast.Return(ast.Add(ast.Ident("i"), ast.Int(100))),
		}),
		ast.Return(ast.Int(-1)),
	))

	assert.Equal(t, int64(100), run(t, g, "first", 5))
	assert.Equal(t, int64(-1), run(t, g, "first", 0))
}

func TestEvaluationOrder(t *testing.T) {
	g := NewGenerator(nil)
	_, err := g.DeclareExtern("rec", 1, true)
	require.NoError(t, err)

	mustLower(t, g, ast.Func("main", nil,
		ast.Return(ast.Sub(
			ast.CallOf("rec", ast.Int(1)),
			ast.Mul(ast.CallOf("rec", ast.Int(2)), ast.CallOf("rec", ast.CallOf("rec", ast.Int(3)))),
		)),
	))

	var order []int64
	res, err := irexec.NewMachine(g.Module()).
		Bind("rec", func(args ...int64) (int64, error) { order = append(order, args[0]); return args[0], nil }).
		Call("main")
	require.NoError(t, err)

	assert.Equal(t, int64(1-2*3), res)
	assert.Equal(t, []int64{1, 2, 3, 3}, order)
}

func TestLetRebinds(t *testing.T) {
	g := NewGenerator(nil)

	mustLower(t, g, ast.Func("main", []ast.Name{"x"},
		ast.Let("x", ast.Add(ast.Ident("x"), ast.Int(1))),
		ast.Let("x", ast.Mul(ast.Ident("x"), ast.Int(10))),
		ast.Return(ast.Ident("x")),
	))

	assert.Equal(t, int64(30), run(t, g, "main", 2))
}

func TestLocalNamesDoNotClash(t *testing.T) {
	g := NewGenerator(nil)

	f := mustLower(t, g, ast.Func("clash", []ast.Name{"entry", "then"},
		ast.If(ast.Ident("entry"), []ast.Stmt{ast.Return(ast.Ident("then"))}, nil),
		ast.Return(ast.Int(0)),
	))

	seen := map[string]bool{}
	for _, p := range f.Params {
		seen[p.Name()] = true
	}

	for _, b := range f.Blocks {
		assert.False(t, seen[b.Name()], "block %s clashes", b.Name())
		seen[b.Name()] = true
	}

	assert.Equal(t, int64(9), run(t, g, "clash", 1, 9))
	assert.Equal(t, int64(0), run(t, g, "clash", 0, 9))
}

func TestSlotsPrecedeCode(t *testing.T) {
	g := NewGenerator(nil)

	f := mustLower(t, g, ast.Func("f", []ast.Name{"a"},
		ast.If(ast.Ident("a"), []ast.Stmt{ast.Let("b", ast.Int(1))}, []ast.Stmt{ast.Let("c", ast.Int(2))}),
		ast.Return(ast.Int(0)),
	))

	entry := f.Blocks[0]
	require.GreaterOrEqual(t, len(entry.Insts), 3)
	for _, inst := range entry.Insts[:3] {
		assert.IsType(t, &ir.InstAlloca{}, inst)
	}

	for _, b := range f.Blocks[1:] {
		for _, inst := range b.Insts {
			_, isSlot := inst.(*ir.InstAlloca)
			assert.False(t, isSlot, "slot outside entry block %s", b.Name())
		}
	}
}

// -----------------------------------------------------------------------------

func TestLoweringFailures(t *testing.T) {
	for name, tc := range map[string]struct {
		body []ast.Stmt
		kind error
	}{
		"unresolved return": {
			body: []ast.Stmt{ast.Return(ast.Ident("undeclared"))},
			kind: ErrUnresolvedSymbol,
		},
		"unresolved assign": {
			body: []ast.Stmt{ast.Assign("y", ast.Int(1)), ast.Return(ast.Int(0))},
			kind: ErrUnresolvedSymbol,
		},
		"let is not visible in its initializer": {
			body: []ast.Stmt{ast.Let("z", ast.Ident("z")), ast.Return(ast.Int(0))},
			kind: ErrUnresolvedSymbol,
		},
		"unknown function": {
			body: []ast.Stmt{ast.Return(ast.CallOf("nowhere"))},
			kind: ErrUnknownFunction,
		},
		"string literal": {
			body: []ast.Stmt{ast.Eval(ast.Str("hi")), ast.Return(ast.Int(0))},
			kind: ErrUnsupported,
		},
		"arity mismatch": {
			body: []ast.Stmt{ast.Return(ast.CallOf("put", ast.Int(1), ast.Int(2)))},
			kind: ErrArityMismatch,
		},
		"void call": {
			body: []ast.Stmt{ast.Eval(ast.CallOf("halt", ast.Int(0))), ast.Return(ast.Int(0))},
			kind: ErrVoidCall,
		},
		"falls off the end": {
			body: []ast.Stmt{ast.Let("x", ast.Int(1))},
			kind: ErrVerification,
		},
		"empty body": {
			kind: ErrVerification,
		},
		"error in dead code": {
			body: []ast.Stmt{ast.Return(ast.Int(1)), ast.Return(ast.Ident("gone"))},
			kind: ErrUnresolvedSymbol,
		},
		"error in loop step": {
			body: []ast.Stmt{
				ast.For(ast.Let("i", ast.Int(0)), ast.Ident("i"), ast.Assign("j", ast.Int(0)), nil),
				ast.Return(ast.Int(0)),
			},
			kind: ErrUnresolvedSymbol,
		},
		"error in else": {
			body: []ast.Stmt{
				ast.If(ast.Int(1), nil, []ast.Stmt{ast.Eval(ast.CallOf("missing"))}),
				ast.Return(ast.Int(0)),
			},
			kind: ErrUnknownFunction,
		},
	} {
		t.Run(name, func(t *testing.T) {
			passes := &recordingPasses{}
			g := NewGenerator(passes)

			_, err := g.DeclareExtern("put", 1, true)
			require.NoError(t, err)
			_, err = g.DeclareExtern("halt", 1, false)
			require.NoError(t, err)

			f, err := lower(t, g, ast.Func("broken", nil, tc.body...))
			require.Error(t, err)
			assert.Nil(t, f)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)

			var le *LowerError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, ast.Name("broken"), le.Func)

			assertAbsent(t, g, "broken")
			assert.Len(t, g.Module().Funcs, 2, "only the externs remain")
			assert.Empty(t, passes.funcs, "failed function reached the pass pipeline")
		})
	}
}

func TestUnresolvedSymbolName(t *testing.T) {
	g := NewGenerator(nil)

	_, err := lower(t, g, ast.Func("f", nil, ast.Return(ast.Ident("undeclared"))))

	var le *LowerError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ast.Name("undeclared"), le.Name)
	assert.Contains(t, err.Error(), "undeclared")
	assert.Empty(t, g.Module().Funcs)
}

func TestDeadCodeIsDropped(t *testing.T) {
	g := NewGenerator(nil)

	f := mustLower(t, g, ast.Func("f", nil,
		ast.Return(ast.Int(1)),
		ast.Let("x", ast.Int(2)),
		ast.Return(ast.Ident("x")),
	))

	assert.Equal(t, []string{"entry"}, blockNames(f))
	assert.Equal(t, int64(1), run(t, g, "f"))
}

func TestPassPipeline(t *testing.T) {
	passes := &recordingPasses{}
	g := NewGenerator(passes)

	mustLower(t, g, ast.Func("a", nil, ast.Return(ast.Int(1))))
	mustLower(t, g, ast.Func("b", nil, ast.Return(ast.CallOf("a"))))
	assert.Equal(t, []string{"a", "b"}, passes.funcs)

	passes.err = errors.New("pipeline broke")
	_, err := lower(t, g, ast.Func("c", nil, ast.Return(ast.Int(3))))
	require.Error(t, err)
	assertAbsent(t, g, "c")
}

func TestDuplicateFunction(t *testing.T) {
	g := NewGenerator(nil)

	fn := ast.Func("f", nil, ast.Return(ast.Int(1)))
	mustLower(t, g, fn)

	_, err := lower(t, g, fn)
	assert.True(t, errors.Is(err, ErrDuplicateFunction))
	assert.Len(t, g.Module().Funcs, 1, "the first definition survives")

	_, err = g.DeclareExtern("f", 0, true)
	assert.True(t, errors.Is(err, ErrDuplicateFunction))

	_, err = g.DeclareExtern("ext", 0, true)
	require.NoError(t, err)
	_, err = lower(t, g, ast.Func("ext", nil, ast.Return(ast.Int(1))))
	assert.True(t, errors.Is(err, ErrDuplicateFunction))
}

func TestDeclareFunc(t *testing.T) {
	g := NewGenerator(nil)

	fn := ast.Func("f", []ast.Name{"a", "b"}, ast.Return(ast.Int(0)))

	first, err := g.DeclareFunc(fn)
	require.NoError(t, err)

	second, err := g.DeclareFunc(fn)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Empty(t, first.Blocks)

	_, err = g.DeclareFunc(ast.Func("f", []ast.Name{"a"}))
	assert.True(t, errors.Is(err, ErrArityMismatch))
}

func TestLoweringIsIdempotent(t *testing.T) {
	prog := []*ast.Function{
		ast.Func("sum", []ast.Name{"n"},
			ast.Let("acc", ast.Int(0)),
			ast.For(ast.Let("i", ast.Int(0)), ast.Sub(ast.Ident("i"), ast.Ident("n")), ast.Assign("i", ast.Add(ast.Ident("i"), ast.Int(1))), []ast.Stmt{
				ast.If(ast.Ident("i"), []ast.Stmt{ast.Assign("acc", ast.Add(ast.Ident("acc"), ast.Ident("i")))}, nil),
			}),
			ast.Return(ast.Ident("acc")),
		),
	}

	emit := func() string {
		g := NewGenerator(nil)
		for _, fn := range prog {
			mustLower(t, g, fn)
		}

		return g.Module().String()
	}

	assert.Equal(t, emit(), emit())
}

func TestLowerProgram(t *testing.T) {
	ctx := context.Background()

	prog := &ast.Program{Functions: []*ast.Function{
		ast.Func("main", nil, ast.Return(ast.CallOf("fact", ast.Int(5)))),
		ast.Func("fact", []ast.Name{"n"},
			ast.If(ast.Ident("n"), nil, []ast.Stmt{ast.Return(ast.Int(1))}),
			ast.Return(ast.Mul(ast.Ident("n"), ast.CallOf("fact", ast.Sub(ast.Ident("n"), ast.Int(1))))),
		),
	}}

	g := NewGenerator(nil)
	require.NoError(t, g.LowerProgram(ctx, prog, "main"))
	assert.Equal(t, int64(120), run(t, g, "main"))

	err := NewGenerator(nil).LowerProgram(ctx, prog, "start")
	assert.True(t, errors.Is(err, ErrUnknownFunction))

	prog.Functions = append(prog.Functions, ast.Func("bad", nil, ast.Return(ast.Ident("nope"))))
	g = NewGenerator(nil)
	err = g.LowerProgram(ctx, prog, "main")
	assert.True(t, errors.Is(err, ErrUnresolvedSymbol))
	assertAbsent(t, g, "bad")
}

func TestVerify(t *testing.T) {
	m := ir.NewModule()

	f := m.NewFunc("f", scalarType)
	assert.True(t, errors.Is(Verify(f), ErrVerification), "no blocks")

	entry := f.NewBlock("entry")
	assert.True(t, errors.Is(Verify(f), ErrVerification), "no terminator")

	other := m.NewFunc("g", scalarType).NewBlock("foreign")
	entry.NewBr(other)
	assert.True(t, errors.Is(Verify(f), ErrVerification), "foreign target")

	entry.NewRet(nil)
	assert.True(t, errors.Is(Verify(f), ErrVerification), "void return")

	island := f.NewBlock("island")
	island.NewRet(constant.NewInt(scalarType, 0))
	entry.NewBr(island)
	assert.NoError(t, Verify(f))

	f.NewBlock("unreachable").NewBr(island)
	assert.True(t, errors.Is(Verify(f), ErrVerification), "unreachable block")

	pruneUnreachable(f)
	assert.NoError(t, Verify(f))
	assert.Len(t, f.Blocks, 2)
}
