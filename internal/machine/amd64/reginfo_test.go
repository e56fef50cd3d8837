package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameForWidth(t *testing.T) {
	require.Equal(t, "eax", NameForWidth(RAX, 4))
	require.Equal(t, "rax", NameForWidth(RAX, 8))
	require.Equal(t, "r12d", NameForWidth(R12, 4))
	require.Equal(t, "r12", NameForWidth(R12, 8))
}

func TestArgRegsOrder(t *testing.T) {
	require.Equal(t, RDI, ArgRegs[0])
	require.Equal(t, RSI, ArgRegs[1])
	require.Equal(t, RDX, ArgRegs[2])
	require.Equal(t, RCX, ArgRegs[3])
	require.Equal(t, R8, ArgRegs[4])
	require.Equal(t, R9, ArgRegs[5])
}

func TestScratchRegExcludedFromAllocatable(t *testing.T) {
	for _, r := range RegisterInfo.Allocatable() {
		require.NotEqual(t, R11, r, "R11 must be reserved as scratch, not allocatable")
	}
}

func TestRBPRSPNotAllocatable(t *testing.T) {
	for _, r := range RegisterInfo.AllocatableRegisters {
		require.NotEqual(t, RBP, r)
		require.NotEqual(t, RSP, r)
	}
}
