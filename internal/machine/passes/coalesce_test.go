package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
)

func TestCoalesceCopiesRemovesSelfMoves(t *testing.T) {
	f := machine.NewFunction("main")
	blk := f.AddBlock("entry")

	selfMove := f.AppendInst(blk, machine.NewInst(machine.OpMOVrr32,
		machine.PhysOperand(amd64.RAX, false, true),
		machine.PhysOperand(amd64.RAX, true, false)))
	real := f.AppendInst(blk, machine.NewInst(machine.OpMOVrr32,
		machine.PhysOperand(amd64.RCX, false, true),
		machine.PhysOperand(amd64.RAX, true, false)))

	coalesceCopies(f)

	ids := f.InstIDsOf(blk)
	require.Len(t, ids, 1)
	require.Equal(t, real, ids[0])
	require.NotContains(t, ids, selfMove)
}

func TestCoalesceCopiesKeepsCrossRegisterMoves(t *testing.T) {
	f := machine.NewFunction("main")
	blk := f.AddBlock("entry")
	f.AppendInst(blk, machine.NewInst(machine.OpMOVrr64,
		machine.PhysOperand(amd64.RDX, false, true),
		machine.PhysOperand(amd64.RSI, true, false)))

	coalesceCopies(f)

	require.Len(t, f.InstIDsOf(blk), 1)
}
