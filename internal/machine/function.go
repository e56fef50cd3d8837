package machine

import (
	"github.com/gocc/llc/internal/arena"
	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// CallingConvention is a target-specific description of argument
// passing; System V is the only one this module implements
// (spec.md §3 "calling convention" field of the machine function).
type CallingConvention struct {
	ArgRegs []regalloc.RealReg
}

// Function is the post-lowering analogue of ir.Function: an arena of
// machine instructions, an arena of machine basic blocks, a layout
// threading both into order, a stack-slot table, a vreg table, and
// the set of callee-saved registers the allocator found clobbered
// (spec.md §3 "Machine function").
type Function struct {
	Name       string
	CC         CallingConvention
	ParamVRegs []regalloc.VReg
	Declare    bool

	// Types is the owning module's type table, carried so that
	// ISA-agnostic passes (spill-code width selection, printing) can
	// compute sizes without importing the lowering layer.
	Types *ir.Table

	blocks arena.Pool[MachineBlock]
	insts  arena.Pool[Instruction]
	vregs  *vregTable
	slots  []StackSlot

	headBlock, tailBlock BlockID

	clobbered map[regalloc.RealReg]bool

	// spillSlots remembers the stack slot allocated for a spilled vreg,
	// so every store and reload the spiller emits for that vreg uses
	// the same slot. Reload vregs are fresh ids, so spilling one of
	// them later allocates a new slot.
	spillSlots map[regalloc.VReg]SlotID

	slotsComputed bool
	slotTotal     int

	// SpillHooks are the ISA-specific store/load emitters the
	// lowering/passes layer installs before invoking regalloc.Allocate
	// (spec.md §9 "instruction-info capability ... emitting spill/
	// reload skeletons").
	SpillHooks SpillHooks
}

// SpillHooks groups the two ISA-specific spill-code emitters regalloc
// calls back into via (*Function).InsertStoreAfter/InsertLoadBefore.
type SpillHooks struct {
	StoreAfter func(f *Function, v regalloc.VReg, at *Instruction, slot SlotID)
	LoadBefore func(f *Function, v regalloc.VReg, at *Instruction, slot SlotID) regalloc.VReg
}

var _ regalloc.Function = (*Function)(nil)

// NewFunction returns an empty machine function ready for lowering to
// append blocks and instructions into.
func NewFunction(name string) *Function {
	return &Function{
		Name:       name,
		vregs:      newVRegTable(),
		headBlock:  BlockIDInvalid,
		tailBlock:  BlockIDInvalid,
		clobbered:  make(map[regalloc.RealReg]bool),
		spillSlots: make(map[regalloc.VReg]SlotID),
	}
}

// NewVReg mints a fresh virtual register of the given IR type.
func (f *Function) NewVReg(ty ir.TypeID) regalloc.VReg { return f.vregs.New(ty) }

// NewSlot allocates a stack slot of the given IR type, size, and
// alignment, returning its id. Offsets are computed later (§4.5).
func (f *Function) NewSlot(ty ir.TypeID, size, align, numElems int) SlotID {
	f.slots = append(f.slots, StackSlot{Type: ty, Size: size, Alignment: align, NumElements: numElems})
	return SlotID(len(f.slots) - 1)
}

// Slot returns a pointer to the slot row for in-place offset updates.
func (f *Function) Slot(id SlotID) *StackSlot { return &f.slots[id] }

// NumSlots returns the number of declared stack slots.
func (f *Function) NumSlots() int { return len(f.slots) }

// AddBlock appends a new, empty machine block at the end of the
// layout and returns its id.
func (f *Function) AddBlock(name string) BlockID {
	row, idx := f.blocks.Allocate()
	id := BlockID(idx)
	*row = MachineBlock{id: id, name: name, head: InstIDInvalid, tail: InstIDInvalid, prev: f.tailBlock, next: BlockIDInvalid, linked: true}
	if f.tailBlock == BlockIDInvalid {
		f.headBlock = id
	} else {
		f.blocks.View(int(f.tailBlock)).next = id
	}
	f.tailBlock = id
	return id
}

// Block returns the block row for id.
func (f *Function) Block(id BlockID) *MachineBlock { return f.blocks.View(int(id)) }

// Inst returns the instruction row for id.
func (f *Function) Inst(id InstID) *Instruction { return f.insts.View(int(id)) }

// AppendInst allocates inst and links it at the tail of bid's
// instruction list, recording vreg use/def rows and CFG successor
// edges for control-flow operands.
func (f *Function) AppendInst(bid BlockID, inst Instruction) InstID {
	row, idx := f.insts.Allocate()
	id := InstID(idx)
	inst.id = id
	inst.parent = bid
	inst.prev = InstIDInvalid
	inst.next = InstIDInvalid
	inst.linked = true
	*row = inst

	b := f.Block(bid)
	if b.tail == InstIDInvalid {
		b.head = id
	} else {
		f.Inst(b.tail).next = id
		row.prev = b.tail
	}
	b.tail = id

	f.recordUses(row)
	f.wireSuccessors(bid, row)
	return id
}

// InsertBefore splices inst into bid's layout immediately before
// anchor, returning the new instruction's id. Used by φ-elimination
// (copies before a terminator) and the spiller (stores/loads around a
// spilled vreg's defs/uses).
func (f *Function) InsertBefore(bid BlockID, anchor InstID, inst Instruction) InstID {
	row, idx := f.insts.Allocate()
	id := InstID(idx)
	inst.id = id
	inst.parent = bid
	inst.linked = true
	*row = inst

	b := f.Block(bid)
	if anchor == InstIDInvalid {
		// append at tail.
		row.prev = b.tail
		row.next = InstIDInvalid
		if b.tail == InstIDInvalid {
			b.head = id
		} else {
			f.Inst(b.tail).next = id
		}
		b.tail = id
	} else {
		a := f.Inst(anchor)
		row.prev = a.prev
		row.next = anchor
		if a.prev == InstIDInvalid {
			b.head = id
		} else {
			f.Inst(a.prev).next = id
		}
		a.prev = id
	}
	f.recordUses(row)
	return id
}

// InsertAfter splices inst into anchor's block immediately after
// anchor, returning the new instruction's id. Used by the spill
// protocol's store-after-def insertion (spec.md §4.3).
func (f *Function) InsertAfter(anchor InstID, inst Instruction) InstID {
	a := f.Inst(anchor)
	return f.InsertBefore(a.parent, a.next, inst)
}

// Unlink removes inst from bid's layout without freeing its arena row
// (spec.md §3 "deletion is a layout-level unlink").
func (f *Function) Unlink(id InstID) {
	inst := f.Inst(id)
	if !inst.linked {
		return
	}
	b := f.Block(inst.parent)
	if inst.prev == InstIDInvalid {
		b.head = inst.next
	} else {
		f.Inst(inst.prev).next = inst.next
	}
	if inst.next == InstIDInvalid {
		b.tail = inst.prev
	} else {
		f.Inst(inst.next).prev = inst.prev
	}
	inst.linked = false
}

// recordUses updates the vreg-users map for every vreg-kind operand
// inst mentions (spec.md §3 invariant: vreg-users rows ⟺ operand
// mentions).
func (f *Function) recordUses(inst *Instruction) {
	for _, o := range inst.Operands {
		if o.Kind == OperandVReg && o.VReg != regalloc.VRegInvalid {
			f.vregs.recordUse(o.VReg, inst.id, o.Input, o.Output)
		}
	}
	for _, src := range inst.Phi {
		if src.Operand.Kind == OperandVReg && src.Operand.VReg != regalloc.VRegInvalid {
			f.vregs.recordUse(src.Operand.VReg, inst.id, true, false)
		}
	}
}

// wireSuccessors maintains block preds/succs when inst is a control
// transfer (JMP/Jcc); mirrors ir.Function.wireTerminator.
func (f *Function) wireSuccessors(bid BlockID, inst *Instruction) {
	if inst.opcode != OpJMP && inst.opcode != OpJcc {
		return
	}
	for _, o := range inst.Operands {
		if o.Kind == OperandBlock {
			f.Block(bid).addSucc(o.Block)
			f.Block(o.Block).addPred(bid)
		}
	}
}

// Blocks implements regalloc.Function.
func (f *Function) Blocks() []regalloc.Block {
	out := make([]regalloc.Block, 0, f.blocks.Allocated())
	for id := f.headBlock; id != BlockIDInvalid; id = f.Block(id).next {
		out = append(out, &blockView{f: f, id: id})
	}
	return out
}

// AllBlockIDs returns every block id in layout order, for passes that
// want raw ids rather than the regalloc.Block wrapper.
func (f *Function) AllBlockIDs() []BlockID {
	var out []BlockID
	for id := f.headBlock; id != BlockIDInvalid; id = f.Block(id).next {
		out = append(out, id)
	}
	return out
}

// InstIDsOf returns every instruction id in bid in layout order.
func (f *Function) InstIDsOf(bid BlockID) []InstID {
	var out []InstID
	b := f.Block(bid)
	for id := b.head; id != InstIDInvalid; id = f.Inst(id).next {
		out = append(out, id)
	}
	return out
}

// NumVRegs implements regalloc.Function.
func (f *Function) NumVRegs() int { return f.vregs.NumVRegs() }

// VRegType returns the IR type a vreg was minted with.
func (f *Function) VRegType(v regalloc.VReg) ir.TypeID { return f.vregs.TypeOf(v) }

// TypeSizeOf returns the byte size of the IR type v was minted with.
func (f *Function) TypeSizeOf(v regalloc.VReg) int { return f.Types.SizeOf(f.VRegType(v)) }

// ClobberedRegisters implements regalloc.Function.
func (f *Function) ClobberedRegisters(regs []regalloc.RealReg) {
	for _, r := range regs {
		f.clobbered[r] = true
	}
}

// Clobbered returns the callee-saved registers the allocator found
// written, sorted by the caller for determinism (spec.md §4.6 step 2).
func (f *Function) Clobbered() map[regalloc.RealReg]bool { return f.clobbered }

// InsertStoreAfter implements regalloc.Function: it defers to a
// callback the lower/passes layer installs, since building the actual
// MOV store instruction requires ISA-specific opcode/width knowledge
// this package intentionally does not have (spec.md §9 "two
// abstraction boundaries for ISA variation").
func (f *Function) InsertStoreAfter(v regalloc.VReg, instr regalloc.Instr) {
	if f.SpillHooks.StoreAfter == nil {
		return
	}
	slot := f.spillSlotFor(v)
	f.SpillHooks.StoreAfter(f, v, instr.(*Instruction), slot)
}

// InsertLoadBefore implements regalloc.Function.
func (f *Function) InsertLoadBefore(v regalloc.VReg, instr regalloc.Instr) regalloc.VReg {
	if f.SpillHooks.LoadBefore == nil {
		return v
	}
	slot := f.spillSlotFor(v)
	return f.SpillHooks.LoadBefore(f, v, instr.(*Instruction), slot)
}

func (f *Function) spillSlotFor(v regalloc.VReg) SlotID {
	if id, ok := f.spillSlots[v]; ok {
		return id
	}
	ty := f.VRegType(v)
	id := f.NewSlot(ty, 8, 8, 1)
	f.spillSlots[v] = id
	return id
}

// Done implements regalloc.Function; finalization work (none needed
// beyond what commit() already did) lives in the caller.
func (f *Function) Done() {}

// EnsureComputedOffsets assigns every declared slot a cumulative,
// alignment-respecting offset from the frame base and returns the
// total footprint (spec.md §4.5 "ensure_computed_offsets"). Repeat
// calls are idempotent once the first has run.
func (f *Function) EnsureComputedOffsets() int {
	if f.slotsComputed {
		return f.slotTotal
	}
	running := 0
	for i := range f.slots {
		s := &f.slots[i]
		if s.Alignment > 0 {
			running = roundUp(running, s.Alignment)
		}
		running += s.TotalSize()
		s.Offset = running
		s.AlignedSize = s.TotalSize()
	}
	f.slotTotal = running
	f.slotsComputed = true
	return running
}
