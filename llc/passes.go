// Package llc is the backend of the compiler: it schedules optimisation passes
// over lowered functions and drives the external LLVM tools which turn a module
// into assembly or object code.
package llc

import (
	"strings"

	"github.com/llir/llvm/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// DefaultPasses is the function pass pipeline used when a project does not
// configure one.  Promoting stack slots comes first: every local is lowered to
// a slot.
var DefaultPasses = []string{"mem2reg", "instcombine", "reassociate", "gvn", "simplifycfg"}

// PassManager is the function pass pipeline.  Functions handed to it are
// optimised when the module is compiled by a Machine using the same passes.
type PassManager struct {
	passes []string
	funcs  []*ir.Func
}

// NewPassManager creates a pass manager running passes in order.  An empty
// pass list disables optimisation.
func NewPassManager(passes []string) (*PassManager, error) {
	for _, pass := range passes {
		if pass == "" || strings.ContainsAny(pass, ", \t") {
			return nil, errors.New("invalid pass name: %q", pass)
		}
	}

	return &PassManager{passes: passes}, nil
}

// RunOnFunc schedules a verified function for optimisation.
func (pm *PassManager) RunOnFunc(f *ir.Func) error {
	if len(f.Blocks) == 0 {
		return errors.New("func %v: cannot optimise a declaration", f.Name())
	}

	pm.funcs = append(pm.funcs, f)

	tlog.V("passes").Printw("scheduled", "func", f.Name(), "passes", pm.passes)

	return nil
}

// Funcs returns the functions scheduled so far in the order they were given.
func (pm *PassManager) Funcs() []*ir.Func {
	return pm.funcs
}

// Passes returns the pass pipeline.
func (pm *PassManager) Passes() []string {
	return pm.passes
}

// pipeline formats the passes for `opt -passes`.
func (pm *PassManager) pipeline() string {
	return strings.Join(pm.passes, ",")
}
