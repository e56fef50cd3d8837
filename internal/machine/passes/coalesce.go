package passes

import "github.com/gocc/llc/internal/machine"

// coalesceCopies deletes any post-allocation MOVrr32/MOVrr64 whose
// source and destination resolved to the same physical register unit
// (spec.md §4.7). This runs after allocation, so every vreg operand
// has already become a PhysReg operand.
func coalesceCopies(mf *machine.Function) {
	for _, bid := range mf.AllBlockIDs() {
		for _, iid := range mf.InstIDsOf(bid) {
			inst := mf.Inst(iid)
			if inst.Opcode() != machine.OpMOVrr32 && inst.Opcode() != machine.OpMOVrr64 {
				continue
			}
			if len(inst.Operands) != 2 {
				continue
			}
			dst, src := inst.Operands[0], inst.Operands[1]
			if dst.Kind == machine.OperandPhysReg && src.Kind == machine.OperandPhysReg && dst.Reg == src.Reg {
				mf.Unlink(iid)
			}
		}
	}
}
