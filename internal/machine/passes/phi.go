package passes

import "github.com/gocc/llc/internal/machine"

// eliminatePhis converts every machine Phi into explicit copies at
// the end of each predecessor block, then removes the Phi (spec.md
// §4.4). A single pass suffices: the copies it inserts are never
// themselves Phis.
func eliminatePhis(mf *machine.Function) {
	for _, bid := range mf.AllBlockIDs() {
		for _, iid := range mf.InstIDsOf(bid) {
			inst := mf.Inst(iid)
			if !inst.IsPhi() {
				continue
			}
			dst := inst.Operands[0]
			wide := mf.TypeSizeOf(dst.VReg) > 4
			for _, src := range inst.Phi {
				copyOp := copyInstFor(dst, src.Operand, wide)
				insertBeforeTerminator(mf, src.Pred, copyOp)
			}
			mf.Unlink(iid)
		}
	}
}

// copyInstFor builds the MOVri32/MOVrr32 (or 64-bit width) that
// assigns src into dst's vreg, per spec.md §4.4's copy-insertion rule.
func copyInstFor(dst, src machine.Operand, wide bool) machine.Instruction {
	op := machine.OpMOVrr32
	if wide {
		op = machine.OpMOVrr64
	}
	if src.Kind == machine.OperandImm32 {
		op = machine.OpMOVri32
		if wide {
			op = machine.OpMOVri64
		}
	}
	return machine.NewInst(op,
		machine.Operand{Kind: machine.OperandVReg, VReg: dst.VReg, Input: false, Output: true},
		src,
	)
}

// insertBeforeTerminator splices inst into bid's layout immediately
// before its terminator (the last instruction of a block, always a
// JMP/Jcc/RET/CALL-adjacent control transfer once lowering has run).
func insertBeforeTerminator(mf *machine.Function, bid machine.BlockID, inst machine.Instruction) {
	ids := mf.InstIDsOf(bid)
	if len(ids) == 0 {
		mf.AppendInst(bid, inst)
		return
	}
	last := ids[len(ids)-1]
	mf.InsertBefore(bid, last, inst)
}
