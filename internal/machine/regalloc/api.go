package regalloc

import "fmt"

// Instr abstracts one machine instruction for the allocator. Concrete
// ISA backends (internal/machine/amd64) implement this over their own
// instruction representation; the allocator never inspects opcodes.
type Instr interface {
	fmt.Stringer
	// Defs returns the virtual registers this instruction defines.
	// Per spec.md §4.1, every lowered instruction defines at most one
	// vreg except call, which defines none directly (its result is
	// copied out of RAX by a following copy instruction).
	Defs() []VReg
	// Uses returns the virtual registers this instruction reads.
	Uses() []VReg
	// AssignUses rewrites this instruction's use operands in place,
	// in the same order Uses() returned them.
	AssignUses([]RealReg)
	// AssignDef rewrites this instruction's single def operand, if any.
	AssignDef(RealReg)
	// IsCopy reports whether this is a register-to-register move
	// eligible for coalescing (spec.md §4.5).
	IsCopy() bool
	// IsCall reports whether this instruction clobbers the caller-saved
	// register set (spec.md §4.3 "vregs live across a call site").
	IsCall() bool
}

// Block abstracts one basic block of the function's layout order for
// the allocator.
type Block interface {
	ID() int
	// Preds returns the ids of predecessor blocks.
	Preds() []int
	// Succs returns the ids of successor blocks.
	Succs() []int
	// Instrs returns this block's instructions in program order.
	Instrs() []Instr
}

// Function is the CFG the allocator operates over and the callback
// surface it uses to materialize spill code. Concrete implementations
// live in internal/machine.Function.
type Function interface {
	// Blocks returns all blocks in layout (program) order.
	Blocks() []Block
	// NumVRegs returns one past the highest VReg id in use, sizing the
	// allocator's per-vreg tables.
	NumVRegs() int
	// ClobberedRegisters is called once allocation succeeds, reporting
	// the callee-saved registers the allocator actually assigned so the
	// prologue/epilogue pass (spec.md §4.7) knows what to save.
	ClobberedRegisters([]RealReg)
	// InsertStoreAfter inserts a store of v to a fresh stack slot
	// immediately after instr, as part of the spill protocol
	// (spec.md §4.3 "spill a vreg").
	InsertStoreAfter(v VReg, instr Instr)
	// InsertLoadBefore inserts a load of v's spill slot into a freshly
	// minted vreg immediately before instr, returning that vreg.
	InsertLoadBefore(v VReg, instr Instr) VReg
	// Done is called once allocation has fully converged (no further
	// spill rounds needed).
	Done()
}

// ProgramPoint is a gapped, monotonically increasing position used for
// liveness queries (spec.md §4.2 "program-point numbering").
// Instructions are numbered programPointGap apart. No point is ever
// inserted between two others: computeLiveness renumbers the whole
// function from scratch after every spill round.
type ProgramPoint int

const programPointGap = 16

// vregRange is a single [start, end) live segment for one vreg, in
// ProgramPoint units. end is exclusive: liveness closes a segment at
// p+1 for a last use at point p, so that use lies inside the segment.
type vregRange struct {
	start, end ProgramPoint
}

func (r vregRange) overlaps(o vregRange) bool {
	return r.start < o.end && o.start < r.end
}
