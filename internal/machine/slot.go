package machine

import "github.com/gocc/llc/internal/ir"

// SlotID is an arena index into a function's stack-slot table.
type SlotID int

// StackSlot is a record {type, size, alignment, num_elements, offset}
// in per-function arena order (spec.md §3 "Stack slots"). Offset is
// meaningless until the slot-offset-lowering pass (§4.5) runs; before
// that AlignedSize is 0, the "not yet computed" sentinel.
type StackSlot struct {
	Type        ir.TypeID
	Size        int
	Alignment   int
	NumElements int

	// Offset and AlignedSize are filled in by (*Function).EnsureComputedOffsets;
	// AlignedSize stays 0 until then. Repeat calls are idempotent: the
	// function's slotsComputed flag, not AlignedSize, records that
	// offsets have been computed.
	Offset      int
	AlignedSize int
}

// TotalSize returns this slot's footprint in bytes.
func (s *StackSlot) TotalSize() int { return s.Size * s.NumElements }

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}
