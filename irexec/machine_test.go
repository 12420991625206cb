package irexec

import (
	"errors"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(n int64) *constant.Int {
	return constant.NewInt(types.I64, n)
}

// countdown builds `f(n) { let acc = 0; for (; n; n = n - 1) acc = acc + n; return acc }`.
func countdown(m *ir.Module) *ir.Func {
	n := ir.NewParam("n", types.I64)
	f := m.NewFunc("sum", types.I64, n)

	entry := f.NewBlock("entry")
	cond := f.NewBlock("loop.cond")
	body := f.NewBlock("loop.body")
	after := f.NewBlock("loop.after")

	nSlot := entry.NewAlloca(types.I64)
	acc := entry.NewAlloca(types.I64)
	entry.NewStore(n, nSlot)
	entry.NewStore(i64(0), acc)
	entry.NewBr(cond)

	nv := cond.NewLoad(types.I64, nSlot)
	cond.NewCondBr(cond.NewICmp(enum.IPredNE, nv, i64(0)), body, after)

	av := body.NewLoad(types.I64, acc)
	bn := body.NewLoad(types.I64, nSlot)
	body.NewStore(body.NewAdd(av, bn), acc)
	body.NewStore(body.NewSub(bn, i64(1)), nSlot)
	body.NewBr(cond)

	after.NewRet(after.NewLoad(types.I64, acc))

	return f
}

func TestCallLoop(t *testing.T) {
	m := ir.NewModule()
	countdown(m)

	res, err := NewMachine(m).Call("sum", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(10), res)

	res, err = NewMachine(m).Call("sum", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res)
}

func TestStepLimit(t *testing.T) {
	m := ir.NewModule()
	countdown(m)

	_, err := NewMachine(m).WithMaxSteps(20).Call("sum", 1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepLimit))
}

func TestDivideByZero(t *testing.T) {
	m := ir.NewModule()

	x := ir.NewParam("x", types.I64)
	y := ir.NewParam("y", types.I64)
	f := m.NewFunc("div", types.I64, x, y)
	entry := f.NewBlock("entry")
	entry.NewRet(entry.NewSDiv(x, y))

	mach := NewMachine(m)

	res, err := mach.Call("div", -7, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), res, "division truncates toward zero")

	_, err = mach.Call("div", 1, 0)
	assert.True(t, errors.Is(err, ErrDivideByZero))
}

func TestHostCalls(t *testing.T) {
	m := ir.NewModule()

	ext := m.NewFunc("record", types.I64, ir.NewParam("a0", types.I64))
	f := m.NewFunc("main", types.I64)
	entry := f.NewBlock("entry")
	a := entry.NewCall(ext, i64(1))
	b := entry.NewCall(ext, i64(2))
	entry.NewRet(entry.NewSub(a, b))

	var order []int64
	mach := NewMachine(m).Bind("record", func(args ...int64) (int64, error) {
		order = append(order, args[0])
		return args[0] * 10, nil
	})

	res, err := mach.Call("main")
	require.NoError(t, err)
	assert.Equal(t, int64(-10), res)
	assert.Equal(t, []int64{1, 2}, order)

	_, err = NewMachine(m).Call("main")
	assert.True(t, errors.Is(err, ErrUnboundFunction))
}

func TestCallDepth(t *testing.T) {
	m := ir.NewModule()

	f := m.NewFunc("loop", types.I64)
	entry := f.NewBlock("entry")
	entry.NewRet(entry.NewCall(f))

	_, err := NewMachine(m).WithMaxDepth(16).Call("loop")
	assert.True(t, errors.Is(err, ErrCallDepth))
}

func TestCompare(t *testing.T) {
	for _, tc := range []struct {
		pred enum.IPred
		x, y int64
		res  int64
	}{
		{enum.IPredEQ, 3, 3, 1},
		{enum.IPredNE, 3, 3, 0},
		{enum.IPredSLT, -1, 0, 1},
		{enum.IPredSGE, -1, 0, 0},
		{enum.IPredSGT, 5, 4, 1},
		{enum.IPredSLE, 5, 4, 0},
	} {
		res, err := compare(tc.pred, tc.x, tc.y)
		require.NoError(t, err)
		assert.Equal(t, tc.res, res, "%v %d %d", tc.pred, tc.x, tc.y)
	}

	_, err := compare(enum.IPredUGT, 1, 0)
	assert.True(t, errors.Is(err, ErrUnsupported))
}
