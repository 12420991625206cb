package generate

import (
	"github.com/llir/llvm/ir"
	"tlog.app/go/tlog"

	"acc/ast"
)

// Verify checks the structural legality of a lowered function: it must have
// an entry block, every block must end in a terminator, every branch must
// target a block of the same function, every block must be reachable from the
// entry and every return must produce a scalar.
func Verify(f *ir.Func) error {
	name := ast.Name(f.Name())

	fail := func(detail string, args ...interface{}) error {
		le := lowerErrorf(ErrVerification, nil, "", detail, args...)
		le.Func = name
		return le
	}

	if len(f.Blocks) == 0 {
		return fail("function has no body")
	}

	owned := make(map[*ir.Block]struct{}, len(f.Blocks))
	for _, block := range f.Blocks {
		owned[block] = struct{}{}
	}

	for _, block := range f.Blocks {
		if block.Term == nil {
			return fail("block %s has no terminator", block.Name())
		}

		for _, succ := range block.Term.Succs() {
			if _, ok := owned[succ]; !ok {
				return fail("block %s branches to foreign block %s", block.Name(), succ.Name())
			}
		}

		if ret, ok := block.Term.(*ir.TermRet); ok {
			if ret.X == nil || !ret.X.Type().Equal(scalarType) {
				return fail("block %s does not return a scalar", block.Name())
			}
		}
	}

	reachable := reachableBlocks(f)
	for _, block := range f.Blocks {
		if _, ok := reachable[block]; !ok {
			return fail("block %s is unreachable from entry", block.Name())
		}
	}

	tlog.V("verify").Printw("verified", "func", name, "blocks", len(f.Blocks))

	return nil
}

// pruneUnreachable removes every block that no path from the entry block
// reaches.  Such blocks hold only code following a return.
func pruneUnreachable(f *ir.Func) {
	if len(f.Blocks) == 0 {
		return
	}

	reachable := reachableBlocks(f)

	kept := f.Blocks[:0]
	for _, block := range f.Blocks {
		if _, ok := reachable[block]; ok {
			kept = append(kept, block)
		} else {
			tlog.V("verify").Printw("pruned block", "func", f.Name(), "block", block.Name())
		}
	}

	f.Blocks = kept
}

// reachableBlocks returns the set of blocks reachable from the entry block.
// Blocks without a terminator have no successors.
func reachableBlocks(f *ir.Func) map[*ir.Block]struct{} {
	entry := f.Blocks[0]
	seen := map[*ir.Block]struct{}{entry: {}}

	work := []*ir.Block{entry}
	for len(work) > 0 {
		block := work[len(work)-1]
		work = work[:len(work)-1]

		if block.Term == nil {
			continue
		}

		for _, succ := range block.Term.Succs() {
			if _, ok := seen[succ]; !ok {
				seen[succ] = struct{}{}
				work = append(work, succ)
			}
		}
	}

	return seen
}
