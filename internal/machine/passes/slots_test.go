package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
)

func TestLowerSlotsRewritesSlotToRBP(t *testing.T) {
	f := machine.NewFunction("main")
	f.Types = ir.NewTable()
	blk := f.AddBlock("entry")

	slot := f.NewSlot(ir.I32, 4, 4, 1)
	mem := machine.MemSlotOperand(slot)
	ops := append(append([]machine.Operand{}, mem...), machine.Imm32Operand(2))
	store := machine.NewInst(machine.OpMOVmr32, ops...)
	iid := f.AppendInst(blk, store)

	lowerSlots(f)

	inst := f.Inst(iid)
	require.Equal(t, machine.OperandMemStart, inst.Operands[0].Kind)
	require.Equal(t, machine.OperandNone, inst.Operands[1].Kind)
	require.Equal(t, int32(-4), inst.Operands[2].Imm)
	require.Equal(t, machine.OperandPhysReg, inst.Operands[3].Kind)
	require.Equal(t, amd64.RBP, inst.Operands[3].Reg)
}

func TestLowerSlotsLeavesRegisterIndirectAlone(t *testing.T) {
	f := machine.NewFunction("main")
	f.Types = ir.NewTable()
	blk := f.AddBlock("entry")

	mem := machine.MemRBPOperand(-8, amd64.RBP)
	inst := machine.NewInst(machine.OpMOVrm32, append([]machine.Operand{}, mem...)...)
	iid := f.AppendInst(blk, inst)

	lowerSlots(f)

	got := f.Inst(iid)
	require.Equal(t, int32(-8), got.Operands[2].Imm, "already-lowered memory operand must be untouched")
}
