package asmcheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
)

func TestRegRegAddIsEncodable(t *testing.T) {
	err := RegReg(machine.OpADD, 4, amd64.RCX, amd64.RAX)
	require.NoError(t, err)
}

func TestRegImmMovIsEncodable(t *testing.T) {
	err := RegImm(machine.OpMOVri32, 4, amd64.RAX, 42)
	require.NoError(t, err)
}

func TestRegMemLoadIsEncodable(t *testing.T) {
	err := RegMem(machine.OpMOVrm32, 4, amd64.RAX, amd64.RBP, -4, 0, false, 0)
	require.NoError(t, err)
}

func TestRegMemWithScaledIndexIsEncodable(t *testing.T) {
	err := RegMem(machine.OpMOVrm32, 4, amd64.RAX, amd64.RBX, 0, amd64.RCX, true, 4)
	require.NoError(t, err)
}

func TestSinglePushPopAreEncodable(t *testing.T) {
	require.NoError(t, Single(machine.OpPUSH64, amd64.RBP))
	require.NoError(t, Single(machine.OpPOP64, amd64.RBP))
}

func TestUnsupportedOpcodeReturnsError(t *testing.T) {
	err := RegReg(machine.OpPhi, 4, amd64.RAX, amd64.RCX)
	require.Error(t, err)
}
