package amd64

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine"
)

func TestPrintSimpleReturn(t *testing.T) {
	types := ir.NewTable()
	mf := machine.NewFunction("main")
	mf.Types = types
	entry := mf.AddBlock("entry")
	mf.AppendInst(entry, machine.NewInst(machine.OpMOVri32,
		machine.PhysOperand(RAX, false, true), machine.Imm32Operand(42)))
	mf.AppendInst(entry, machine.NewInst(machine.OpRET))

	mm := &machine.Module{Functions: []*machine.Function{mf}, Types: types}
	out := Print(mm)

	require.Contains(t, out, ".globl main")
	require.Contains(t, out, "main:")
	require.Contains(t, out, "mov eax, 42")
	require.Contains(t, out, "ret")
	require.False(t, strings.Contains(out, ".LBL"), "single-block function must not emit a block label")
}

func TestPrintSkipsDeclaredFunctions(t *testing.T) {
	decl := machine.NewFunction("extern_fn")
	decl.Declare = true
	mm := &machine.Module{Functions: []*machine.Function{decl}, Types: ir.NewTable()}
	out := Print(mm)
	require.NotContains(t, out, "extern_fn")
}

func TestPrintMemoryOperand(t *testing.T) {
	types := ir.NewTable()
	mf := machine.NewFunction("main")
	mf.Types = types
	entry := mf.AddBlock("entry")
	mem := machine.MemRBPOperand(-4, RBP)
	ops := append(append([]machine.Operand{}, mem...), machine.Imm32Operand(2))
	mf.AppendInst(entry, machine.NewInst(machine.OpMOVmr32, ops...))
	mf.AppendInst(entry, machine.NewInst(machine.OpRET))

	mm := &machine.Module{Functions: []*machine.Function{mf}, Types: types}
	out := Print(mm)
	require.Contains(t, out, "mov dword ptr [rbp-4], 2")
}

func TestPrintNonEntryBlockGetsLabel(t *testing.T) {
	types := ir.NewTable()
	mf := machine.NewFunction("main")
	mf.Types = types
	entry := mf.AddBlock("entry")
	other := mf.AddBlock("other")
	mf.AppendInst(entry, machine.NewInst(machine.OpJMP, machine.BlockOperand(other)))
	mf.AppendInst(other, machine.NewInst(machine.OpRET))

	mm := &machine.Module{Functions: []*machine.Function{mf}, Types: types}
	out := Print(mm)
	require.Contains(t, out, ".LBL")
	require.Contains(t, out, "jmp .LBL")
}

func TestPrintGlobalString(t *testing.T) {
	types := ir.NewTable()
	g := &ir.GlobalVar{Name: "@.str", HasInitStr: true, InitString: "hi"}
	mm := &machine.Module{Globals: []*ir.GlobalVar{g}, Types: types}
	out := Print(mm)
	require.Contains(t, out, "@.str:")
	require.Contains(t, out, `.string "hi"`)
}
