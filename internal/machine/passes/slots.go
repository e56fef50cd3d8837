package passes

import (
	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
)

// lowerSlots replaces every abstract Slot(id) memory operand with a
// concrete [rbp - off] form (spec.md §4.5). A memory group whose Slot
// field is already -1 (the register-indirect fallback built by
// lower.memOperandFor for a runtime pointer) is left untouched, since
// it carries no slot to resolve.
func lowerSlots(mf *machine.Function) {
	mf.EnsureComputedOffsets()
	for _, bid := range mf.AllBlockIDs() {
		for _, iid := range mf.InstIDsOf(bid) {
			inst := mf.Inst(iid)
			ops := inst.Operands
			for i := 0; i < len(ops); i++ {
				if ops[i].Kind != machine.OperandMemStart {
					continue
				}
				lowerOneSlot(mf, ops[i+1:i+1+machine.MemSlotCount])
			}
		}
	}
}

// lowerOneSlot rewrites one five-entry memory payload group in place:
// slot, disp, base, index, scale.
func lowerOneSlot(mf *machine.Function, mem []machine.Operand) {
	if mem[0].Kind != machine.OperandSlot || mem[0].Slot < 0 {
		return
	}
	slot := mf.Slot(mem[0].Slot)
	disp := int32(-slot.Offset) + mem[1].Imm

	mem[0] = machine.Operand{Kind: machine.OperandNone}
	mem[1] = machine.Imm32Operand(disp)
	mem[2] = machine.Operand{Kind: machine.OperandPhysReg, Reg: amd64.RBP, Input: true}
}
