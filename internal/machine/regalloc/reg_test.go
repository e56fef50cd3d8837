package regalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocatableExcludesScratch(t *testing.T) {
	ri := &RegisterInfo{
		AllocatableRegisters: []RealReg{0, 1, 2, 3},
		ScratchReg:           2,
	}
	require.Equal(t, []RealReg{0, 1, 3}, ri.Allocatable())
}

func TestVRegStringAndInvalid(t *testing.T) {
	require.Equal(t, "v0", VReg(0).String())
	require.Equal(t, "v42", VReg(42).String())
	require.NotEqual(t, VReg(0), VRegInvalid)
}
