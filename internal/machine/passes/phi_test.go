package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine"
)

func TestEliminatePhisRemovesPhiAndInsertsCopies(t *testing.T) {
	f := machine.NewFunction("main")
	f.Types = ir.NewTable()

	pred1 := f.AddBlock("pred1")
	pred2 := f.AddBlock("pred2")
	join := f.AddBlock("join")

	dst := f.NewVReg(ir.I32)
	src1 := f.NewVReg(ir.I32)
	src2 := f.NewVReg(ir.I32)

	f.AppendInst(pred1, machine.NewInst(machine.OpJMP, machine.BlockOperand(join)))
	f.AppendInst(pred2, machine.NewInst(machine.OpJMP, machine.BlockOperand(join)))

	phi := machine.NewInst(machine.OpPhi, machine.RegOperand(dst, false, true))
	phi.Phi = []machine.PhiSource{
		{Operand: machine.RegOperand(src1, true, false), Pred: pred1},
		{Operand: machine.RegOperand(src2, true, false), Pred: pred2},
	}
	f.AppendInst(join, phi)
	f.AppendInst(join, machine.NewInst(machine.OpRET))

	eliminatePhis(f)

	for _, iid := range f.InstIDsOf(join) {
		require.False(t, f.Inst(iid).IsPhi(), "no Phi may remain after elimination")
	}

	pred1Insts := f.InstIDsOf(pred1)
	require.Len(t, pred1Insts, 2, "a copy must be inserted before pred1's terminator")
	copyInst := f.Inst(pred1Insts[0])
	require.Equal(t, machine.OpMOVrr32, copyInst.Opcode())
	require.Equal(t, dst, copyInst.Operands[0].VReg)
	require.Equal(t, src1, copyInst.Operands[1].VReg)

	pred2Insts := f.InstIDsOf(pred2)
	require.Len(t, pred2Insts, 2)
	copyInst2 := f.Inst(pred2Insts[0])
	require.Equal(t, src2, copyInst2.Operands[1].VReg)
}

func TestEliminatePhisWithImmediateSource(t *testing.T) {
	f := machine.NewFunction("main")
	f.Types = ir.NewTable()

	pred := f.AddBlock("pred")
	join := f.AddBlock("join")
	dst := f.NewVReg(ir.I32)

	f.AppendInst(pred, machine.NewInst(machine.OpJMP, machine.BlockOperand(join)))
	phi := machine.NewInst(machine.OpPhi, machine.RegOperand(dst, false, true))
	phi.Phi = []machine.PhiSource{{Operand: machine.Imm32Operand(7), Pred: pred}}
	f.AppendInst(join, phi)
	f.AppendInst(join, machine.NewInst(machine.OpRET))

	eliminatePhis(f)

	ids := f.InstIDsOf(pred)
	require.Len(t, ids, 2)
	copyInst := f.Inst(ids[0])
	require.Equal(t, machine.OpMOVri32, copyInst.Opcode())
	require.Equal(t, int32(7), copyInst.Operands[1].Imm)
}
