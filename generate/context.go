package generate

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/errors"

	"acc/ast"
)

// scalarType is the language's one scalar type.
var scalarType = types.I64

// buildContext is the mutable lowering state of a single function: the local
// symbol table and the insertion cursor.  A context is used for exactly one
// function and is never shared.
type buildContext struct {
	// fn is the function being built.
	fn *ir.Func

	// entry is the function's entry block.  All stack slots live at its start.
	entry *ir.Block

	// block is the cursor: the block new instructions are appended to.
	block *ir.Block

	// locals maps every bound name to its stack slot.  Bindings are never
	// removed: once bound, a name is visible for the rest of the function.
	locals map[ast.Name]*ir.InstAlloca

	// nslots is the number of stack slots placed at the start of the entry
	// block so far.
	nslots int

	// usedNames is the set of local identifiers (parameters, slots and blocks)
	// already taken in the function.
	usedNames map[string]struct{}
}

// newBuildContext creates a context for fn with a fresh entry block as its
// cursor.
func newBuildContext(fn *ir.Func) *buildContext {
	bc := &buildContext{
		fn:        fn,
		locals:    make(map[ast.Name]*ir.InstAlloca),
		usedNames: make(map[string]struct{}),
	}

	bc.entry = fn.NewBlock(bc.uniqueName("entry"))
	bc.block = bc.entry

	return bc
}

// uniqueName returns base if it is not yet used as a local identifier in the
// function and base with a numeric suffix otherwise.
func (bc *buildContext) uniqueName(base string) string {
	name := base
	for n := 1; ; n++ {
		if _, ok := bc.usedNames[name]; !ok {
			break
		}

		name = fmt.Sprintf("%s.%d", base, n)
	}

	bc.usedNames[name] = struct{}{}
	return name
}

// -----------------------------------------------------------------------------

// bind allocates a new stack slot for name at the start of the entry block and
// makes it the name's storage for the rest of the function.  Slots are placed
// before any other instruction so they exist regardless of which branch
// initializes them.
func (bc *buildContext) bind(name ast.Name) *ir.InstAlloca {
	slot := ir.NewAlloca(scalarType)
	slot.SetName(bc.uniqueName(string(name) + ".addr"))

	insts := make([]ir.Instruction, 0, len(bc.entry.Insts)+1)
	insts = append(insts, bc.entry.Insts[:bc.nslots]...)
	insts = append(insts, slot)
	insts = append(insts, bc.entry.Insts[bc.nslots:]...)
	bc.entry.Insts = insts
	bc.nslots++

	bc.locals[name] = slot
	return slot
}

// lookup returns the stack slot bound to name.
func (bc *buildContext) lookup(name ast.Name) (*ir.InstAlloca, bool) {
	slot, ok := bc.locals[name]
	return slot, ok
}

// setCursor moves the insertion cursor to block.
func (bc *buildContext) setCursor(block *ir.Block) {
	bc.block = block
}

// cursor returns the block new instructions are appended to.
func (bc *buildContext) cursor() *ir.Block {
	return bc.block
}

// -----------------------------------------------------------------------------

// appendBlock adds a new basic block to the current function.  It does *not*
// move the cursor to the new block.
func (bc *buildContext) appendBlock(kind string) *ir.Block {
	return bc.fn.NewBlock(bc.uniqueName(kind))
}

// terminated returns whether the cursor block already ends in a terminator.
func (bc *buildContext) terminated() bool {
	return bc.block.Term != nil
}

// ensureOpen makes sure the cursor is on a block that can still accept
// instructions.  Code following a terminator is unreachable: it is lowered
// into a fresh block with no predecessors which is pruned before
// verification.
func (bc *buildContext) ensureOpen() {
	if bc.terminated() {
		bc.block = bc.appendBlock("dead")
	}
}

// br terminates the cursor block with an unconditional branch.
func (bc *buildContext) br(target *ir.Block) error {
	if bc.terminated() {
		return errors.New("block %s is already terminated", bc.block.Name())
	}

	bc.block.NewBr(target)
	return nil
}
