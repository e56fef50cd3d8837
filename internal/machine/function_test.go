package machine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocc/llc/internal/ir"
)

func TestEnsureComputedOffsetsSingleSlot(t *testing.T) {
	types := ir.NewTable()
	f := NewFunction("main")
	f.Types = types

	id := f.NewSlot(ir.I32, 4, 4, 1)

	total := f.EnsureComputedOffsets()
	require.Equal(t, 4, total)
	require.Equal(t, 4, f.Slot(id).Offset)
}

func TestEnsureComputedOffsetsIsIdempotent(t *testing.T) {
	f := NewFunction("main")
	f.Types = ir.NewTable()
	id := f.NewSlot(ir.I32, 4, 4, 1)

	first := f.EnsureComputedOffsets()
	f.Slot(id).Offset = 999 // simulate a later pass mutating the row
	second := f.EnsureComputedOffsets()
	require.Equal(t, first, second)
	require.Equal(t, 999, f.Slot(id).Offset, "idempotent call must not recompute once slotsComputed")
}

func TestEnsureComputedOffsetsAlignmentPadding(t *testing.T) {
	f := NewFunction("main")
	f.Types = ir.NewTable()

	byteSlot := f.NewSlot(ir.I8, 1, 1, 1)
	intSlot := f.NewSlot(ir.I32, 4, 4, 1)

	f.EnsureComputedOffsets()
	require.Equal(t, 1, f.Slot(byteSlot).Offset)
	// intSlot must round up past the 1-byte slot to a 4-byte boundary
	// before accumulating its own size.
	require.Equal(t, 8, f.Slot(intSlot).Offset)
}

func TestNewSlotAssignsSequentialIDs(t *testing.T) {
	f := NewFunction("main")
	f.Types = ir.NewTable()

	a := f.NewSlot(ir.I32, 4, 4, 1)
	b := f.NewSlot(ir.I64, 8, 8, 1)
	require.Equal(t, SlotID(0), a)
	require.Equal(t, SlotID(1), b)
	require.Equal(t, 2, f.NumSlots())
}
