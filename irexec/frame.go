package irexec

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/errors"
)

// frame is the activation of one function call.
type frame struct {
	m *Machine
	f *ir.Func

	// vals holds the value of every parameter and executed instruction.
	vals map[value.Value]int64

	// slots holds the memory behind every executed alloca.
	slots map[value.Value]*int64
}

func newFrame(m *Machine, f *ir.Func, args []int64) *frame {
	fr := &frame{
		m:     m,
		f:     f,
		vals:  make(map[value.Value]int64, len(f.Params)),
		slots: make(map[value.Value]*int64),
	}

	for i, param := range f.Params {
		fr.vals[param] = args[i]
	}

	return fr
}

// run executes the function from its entry block until it returns.
func (fr *frame) run() (int64, error) {
	block := fr.f.Blocks[0]

	for {
		for _, inst := range block.Insts {
			if err := fr.tick(); err != nil {
				return 0, err
			}

			if err := fr.exec(inst); err != nil {
				return 0, errors.Wrap(err, "%v: %v", fr.f.Name(), block.Name())
			}
		}

		if err := fr.tick(); err != nil {
			return 0, err
		}

		switch term := block.Term.(type) {
		case *ir.TermRet:
			if term.X == nil {
				return 0, nil
			}

			return fr.operand(term.X)
		case *ir.TermBr:
			block = term.Succs()[0]
		case *ir.TermCondBr:
			cond, err := fr.operand(term.Cond)
			if err != nil {
				return 0, err
			}

			succs := term.Succs()
			if cond != 0 {
				block = succs[0]
			} else {
				block = succs[1]
			}
		case nil:
			return 0, errors.New("%v: block %v has no terminator", fr.f.Name(), block.Name())
		default:
			return 0, errors.Wrap(ErrUnsupported, "%v: terminator %T", fr.f.Name(), term)
		}
	}
}

func (fr *frame) tick() error {
	fr.m.steps++

	if fr.m.maxSteps > 0 && fr.m.steps > fr.m.maxSteps {
		return errors.Wrap(ErrStepLimit, "%v after %d steps", fr.f.Name(), fr.m.maxSteps)
	}

	return nil
}

// exec executes a single non-terminator instruction.
func (fr *frame) exec(inst ir.Instruction) (err error) {
	var res int64

	switch v := inst.(type) {
	case *ir.InstAlloca:
		// a slot is zeroed each time its alloca executes
		fr.slots[v] = new(int64)
		return nil
	case *ir.InstStore:
		slot, err := fr.slot(v.Dst)
		if err != nil {
			return err
		}

		val, err := fr.operand(v.Src)
		if err != nil {
			return err
		}

		*slot = val
		return nil
	case *ir.InstLoad:
		slot, err := fr.slot(v.Src)
		if err != nil {
			return err
		}

		res = *slot
	case *ir.InstAdd:
		res, err = fr.binary(v.X, v.Y, func(x, y int64) (int64, error) { return x + y, nil })
	case *ir.InstSub:
		res, err = fr.binary(v.X, v.Y, func(x, y int64) (int64, error) { return x - y, nil })
	case *ir.InstMul:
		res, err = fr.binary(v.X, v.Y, func(x, y int64) (int64, error) { return x * y, nil })
	case *ir.InstSDiv:
		res, err = fr.binary(v.X, v.Y, func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, ErrDivideByZero
			}

			return x / y, nil
		})
	case *ir.InstICmp:
		res, err = fr.binary(v.X, v.Y, func(x, y int64) (int64, error) {
			return compare(v.Pred, x, y)
		})
	case *ir.InstCall:
		res, err = fr.callInst(v)
	default:
		return errors.Wrap(ErrUnsupported, "%T", inst)
	}

	if err != nil {
		return err
	}

	fr.vals[inst.(value.Value)] = res
	return nil
}

func (fr *frame) callInst(call *ir.InstCall) (int64, error) {
	callee, ok := call.Callee.(*ir.Func)
	if !ok {
		return 0, errors.Wrap(ErrUnsupported, "indirect call")
	}

	args := make([]int64, len(call.Args))
	for i, arg := range call.Args {
		val, err := fr.operand(arg)
		if err != nil {
			return 0, err
		}

		args[i] = val
	}

	return fr.m.call(callee.Name(), args)
}

func (fr *frame) binary(x, y value.Value, op func(x, y int64) (int64, error)) (int64, error) {
	lhs, err := fr.operand(x)
	if err != nil {
		return 0, err
	}

	rhs, err := fr.operand(y)
	if err != nil {
		return 0, err
	}

	return op(lhs, rhs)
}

// operand returns the value of an instruction operand.
func (fr *frame) operand(v value.Value) (int64, error) {
	switch v := v.(type) {
	case *constant.Int:
		return v.X.Int64(), nil
	}

	val, ok := fr.vals[v]
	if !ok {
		return 0, errors.New("use of undefined value %v", v.Ident())
	}

	return val, nil
}

func (fr *frame) slot(v value.Value) (*int64, error) {
	slot, ok := fr.slots[v]
	if !ok {
		return nil, errors.New("access through unallocated pointer %v", v.Ident())
	}

	return slot, nil
}

func compare(pred enum.IPred, x, y int64) (int64, error) {
	var ok bool

	switch pred {
	case enum.IPredEQ:
		ok = x == y
	case enum.IPredNE:
		ok = x != y
	case enum.IPredSGT:
		ok = x > y
	case enum.IPredSGE:
		ok = x >= y
	case enum.IPredSLT:
		ok = x < y
	case enum.IPredSLE:
		ok = x <= y
	default:
		return 0, errors.Wrap(ErrUnsupported, "icmp %v", pred)
	}

	if ok {
		return 1, nil
	}

	return 0, nil
}
