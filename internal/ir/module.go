package ir

import (
	"strconv"

	"github.com/google/uuid"
)

// Module is a complete compilation unit: a set of routines (functions and
// procedures) and module-level variables (globals), plus a BuildID: a fresh
// random UUID per module, not linked to any parser-table build.
type Module struct {
	Name      string
	Functions []*Function
	Procedures []*Procedure
	Variables []*Variable
	BuildID   uuid.UUID
}

// NewModule creates an empty module with a fresh BuildID.
func NewModule(name string) *Module {
	return &Module{Name: name, BuildID: uuid.New()}
}

// FindFunction returns the function named name, or nil.
func (m *Module) FindFunction(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FindProcedure returns the procedure named name, or nil.
func (m *Module) FindProcedure(name string) *Procedure {
	for _, p := range m.Procedures {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Builder incrementally constructs a Module: functions/procedures are
// created and set as current, blocks are created and set as current within
// them, and instructions are emitted into the current block. This mirrors
// the irutils.Builder object wasm2ppci.py drives (new_function, new_block,
// set_block, emit).
type Builder struct {
	Module    *Module
	function  Routine
	block     *BasicBlock
	blockSeq  int
}

// NewBuilder returns a Builder targeting a fresh module named name.
func NewBuilder(name string) *Builder {
	return &Builder{Module: NewModule(name)}
}

// NewFunction creates a Function with the given return type, adds it to
// the module, and returns it. It does not become the current function
// until SetFunction is called.
func (b *Builder) NewFunction(name string, ret Type) *Function {
	f := &Function{Name: name, ReturnType: ret}
	b.Module.Functions = append(b.Module.Functions, f)
	return f
}

// NewProcedure creates a Procedure, adds it to the module, and returns it.
func (b *Builder) NewProcedure(name string) *Procedure {
	p := &Procedure{Name: name}
	b.Module.Procedures = append(b.Module.Procedures, p)
	return p
}

// SetFunction makes r the current routine that NewBlock/Emit target.
func (b *Builder) SetFunction(r Routine) {
	b.function = r
	b.block = nil
}

// Function returns the current routine.
func (b *Builder) Function() Routine { return b.function }

// Block returns the current block.
func (b *Builder) Block() *BasicBlock { return b.block }

// NewBlock creates a new, empty block scoped to the current routine and
// registers it in that routine's block list; it does not become current
// until SetBlock is called. If name is empty, a sequential name is
// generated from the routine's name.
func (b *Builder) NewBlock(name string) *BasicBlock {
	if name == "" {
		b.blockSeq++
		name = b.function.RoutineName() + "_block" + strconv.Itoa(b.blockSeq)
	}
	block := &BasicBlock{Name: name}
	switch r := b.function.(type) {
	case *Function:
		r.blocks = append(r.blocks, block)
		if r.EntryBlock == nil {
			r.EntryBlock = block
		}
	case *Procedure:
		r.blocks = append(r.blocks, block)
		if r.EntryBlock == nil {
			r.EntryBlock = block
		}
	}
	return block
}

// DeleteUnreachable removes, from the current routine, every block not
// reachable from its EntryBlock by following Jump/CJump targets. Blocks
// left behind by a lowering that jumps directly past them (the else-branch
// reuse case in the lower package, and dead code after an unconditional
// branch) are dropped rather than left to satisfy a vacuous "every block
// has a terminator" invariant with dead instructions.
func (b *Builder) DeleteUnreachable() {
	var blocks *[]*BasicBlock
	var entry *BasicBlock
	switch r := b.function.(type) {
	case *Function:
		blocks, entry = &r.blocks, r.EntryBlock
	case *Procedure:
		blocks, entry = &r.blocks, r.EntryBlock
	default:
		return
	}
	if entry == nil {
		return
	}

	reachable := map[*BasicBlock]bool{entry: true}
	worklist := []*BasicBlock{entry}
	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]
		for _, inst := range cur.Instructions {
			var next []*BasicBlock
			switch t := inst.(type) {
			case *Jump:
				next = []*BasicBlock{t.Target}
			case *CJump:
				next = []*BasicBlock{t.True, t.False}
			}
			for _, n := range next {
				if !reachable[n] {
					reachable[n] = true
					worklist = append(worklist, n)
				}
			}
		}
	}

	kept := (*blocks)[:0]
	for _, blk := range *blocks {
		if reachable[blk] {
			kept = append(kept, blk)
		}
	}
	*blocks = kept
}

// SetBlock makes block the current block that Emit appends to.
func (b *Builder) SetBlock(block *BasicBlock) {
	b.block = block
}

// Emit appends inst to the current block and returns inst, so callers can
// use the emitted instruction's result (when it has one) as an operand to
// the next instruction in the same expression.
func (b *Builder) Emit(inst Instruction) Instruction {
	b.block.Append(inst)
	return inst
}
