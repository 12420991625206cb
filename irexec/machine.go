// Package irexec executes lowered LLVM IR in-process.  It understands exactly
// the instruction subset the generator emits: stack slots, 64-bit integer
// arithmetic, comparisons, branches, calls and returns.
package irexec

import (
	"github.com/llir/llvm/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

var (
	// ErrDivideByZero is the trap raised by a signed division by zero.
	ErrDivideByZero = errors.New("integer divide by zero")

	// ErrStepLimit indicates that execution ran past the machine's step budget.
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrCallDepth indicates that calls nested deeper than the machine allows.
	ErrCallDepth = errors.New("call depth exceeded")

	// ErrUnboundFunction indicates a call to a function that has neither a
	// body nor a host binding.
	ErrUnboundFunction = errors.New("unbound function")

	// ErrUnsupported indicates an instruction outside of the executable subset.
	ErrUnsupported = errors.New("unsupported instruction")
)

// DefaultMaxDepth is the default bound on nested calls.
const DefaultMaxDepth = 4096

// HostFunc implements an external function in Go.  Its result is discarded if
// the function is declared without one.
type HostFunc func(args ...int64) (int64, error)

// Machine runs the functions of one module.  A machine is not safe for
// concurrent use.
type Machine struct {
	funcs map[string]*ir.Func
	host  map[string]HostFunc

	// maxSteps bounds the number of instructions one call may execute.  Zero
	// means unbounded.
	maxSteps int64
	maxDepth int

	steps int64
	depth int
}

// NewMachine creates a machine for mod.
func NewMachine(mod *ir.Module) *Machine {
	m := &Machine{
		funcs:    make(map[string]*ir.Func, len(mod.Funcs)),
		host:     make(map[string]HostFunc),
		maxDepth: DefaultMaxDepth,
	}

	for _, f := range mod.Funcs {
		m.funcs[f.Name()] = f
	}

	return m
}

// Bind provides the implementation of an external function.
func (m *Machine) Bind(name string, fn HostFunc) *Machine {
	m.host[name] = fn
	return m
}

// WithMaxSteps bounds the number of instructions a single call may execute.
func (m *Machine) WithMaxSteps(n int64) *Machine {
	m.maxSteps = n
	return m
}

// WithMaxDepth bounds the depth of nested calls.
func (m *Machine) WithMaxDepth(n int) *Machine {
	m.maxDepth = n
	return m
}

// Steps returns the number of instructions executed by the last call.
func (m *Machine) Steps() int64 {
	return m.steps
}

// Call runs the named function with the given arguments and returns its
// result.
func (m *Machine) Call(name string, args ...int64) (int64, error) {
	m.steps = 0
	m.depth = 0

	res, err := m.call(name, args)

	tlog.V("exec").Printw("call", "func", name, "args", args, "result", res, "steps", m.steps, "err", err)

	return res, err
}

func (m *Machine) call(name string, args []int64) (int64, error) {
	if f, ok := m.funcs[name]; ok && len(f.Blocks) > 0 {
		if len(f.Params) != len(args) {
			return 0, errors.New("%v: takes %d arguments but %d were given", name, len(f.Params), len(args))
		}

		if m.depth >= m.maxDepth {
			return 0, errors.Wrap(ErrCallDepth, "%v", name)
		}

		m.depth++
		defer func() { m.depth-- }()

		return newFrame(m, f, args).run()
	}

	if fn, ok := m.host[name]; ok {
		return fn(args...)
	}

	return 0, errors.Wrap(ErrUnboundFunction, "%v", name)
}
