package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// buildRetOnlyFunction returns a function with one slot and a single
// RET, matching scenario B's frame shape (one 4-byte local, 16-byte
// adjustment, no callee-saved clobbers).
func buildRetOnlyFunction(t *testing.T) *machine.Function {
	t.Helper()
	f := machine.NewFunction("main")
	f.Types = ir.NewTable()
	entry := f.AddBlock("entry")
	f.NewSlot(ir.I32, 4, 4, 1)
	f.AppendInst(entry, machine.NewInst(machine.OpRET))
	return f
}

func TestInsertPrologueEpilogueNoClobbers(t *testing.T) {
	f := buildRetOnlyFunction(t)

	insertPrologueEpilogue(f)

	entry := f.AllBlockIDs()[0]
	ids := f.InstIDsOf(entry)

	// push rbp; mov rbp, rsp; sub rsp, 16; ret preceded by add rsp, 16; pop rbp
	require.Equal(t, machine.OpPUSH64, f.Inst(ids[0]).Opcode())
	require.Equal(t, amd64.RBP, f.Inst(ids[0]).Operands[0].Reg)
	require.Equal(t, machine.OpMOVrr64, f.Inst(ids[1]).Opcode())
	require.Equal(t, machine.OpSUB, f.Inst(ids[2]).Opcode())
	require.Equal(t, int32(16), f.Inst(ids[2]).Operands[1].Imm)

	last := len(ids) - 1
	require.Equal(t, machine.OpRET, f.Inst(ids[last]).Opcode())
	require.Equal(t, machine.OpPOP64, f.Inst(ids[last-1]).Opcode())
	require.Equal(t, amd64.RBP, f.Inst(ids[last-1]).Operands[0].Reg)
	require.Equal(t, machine.OpADD, f.Inst(ids[last-2]).Opcode())
	require.Equal(t, int32(16), f.Inst(ids[last-2]).Operands[1].Imm)
}

func TestInsertPrologueEpilogueWithClobberedCalleeSaved(t *testing.T) {
	f := buildRetOnlyFunction(t)
	f.ClobberedRegisters([]regalloc.RealReg{amd64.RBX, amd64.R12})

	insertPrologueEpilogue(f)

	entry := f.AllBlockIDs()[0]
	ids := f.InstIDsOf(entry)

	// push rbp; push rbx; push r12; mov rbp, rsp; sub rsp, adj (if any)
	require.Equal(t, machine.OpPUSH64, f.Inst(ids[0]).Opcode())
	require.Equal(t, amd64.RBP, f.Inst(ids[0]).Operands[0].Reg)
	require.Equal(t, amd64.RBX, f.Inst(ids[1]).Operands[0].Reg)
	require.Equal(t, amd64.R12, f.Inst(ids[2]).Operands[0].Reg)
	require.Equal(t, machine.OpMOVrr64, f.Inst(ids[3]).Opcode())

	last := len(ids) - 1
	require.Equal(t, machine.OpRET, f.Inst(ids[last]).Opcode())
	require.Equal(t, machine.OpPOP64, f.Inst(ids[last-1]).Opcode())
	require.Equal(t, amd64.RBP, f.Inst(ids[last-1]).Operands[0].Reg)
	// pops unwind in reverse clobber order: r12 first, then rbx.
	require.Equal(t, amd64.RBX, f.Inst(ids[last-2]).Operands[0].Reg)
	require.Equal(t, amd64.R12, f.Inst(ids[last-3]).Operands[0].Reg)
}

func TestFrameAlignmentInvariant(t *testing.T) {
	f := buildRetOnlyFunction(t)
	insertPrologueEpilogue(f)

	slotSize := f.EnsureComputedOffsets()
	csr := sortedClobbered(f)
	saved64 := 1 + len(csr)
	adj := roundUp(slotSize+8*saved64+8, 16) - 8*saved64 - 8
	require.Equal(t, 0, (adj+8*saved64+8)%16, "frame alignment invariant must hold")
}
