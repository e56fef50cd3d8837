package machine

import "github.com/gocc/llc/internal/machine/regalloc"

// OperandKind tags the payload an Operand carries (spec.md §3
// "tagged record {payload, input?, output?, implicit?}").
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandPhysReg
	OperandVReg
	OperandImm32
	OperandSlot
	OperandBlock
	OperandLabel
	OperandGlobalAddress
	// OperandMemStart marks the start of a memory operand group. It is
	// always followed by exactly five payload slots in fixed order:
	// slot, displacement, base-register, index-register, scale
	// (spec.md §3). This inline encoding is what keeps the register
	// allocator and the slot lowerer's operand walk a flat scan
	// instead of a typed-union switch.
	OperandMemStart
)

// MemSlotCount is the number of payload slots following an
// OperandMemStart sentinel: slot, disp, base, index, scale.
const MemSlotCount = 5

// Operand is one machine-instruction operand.
type Operand struct {
	Kind OperandKind

	Reg    regalloc.RealReg
	VReg   regalloc.VReg
	Imm    int32
	Slot   SlotID
	Block  BlockID
	Label  string
	Global string

	Input    bool
	Output   bool
	Implicit bool
}

// RegOperand builds a vreg operand flagged for the given read/write role.
func RegOperand(v regalloc.VReg, read, write bool) Operand {
	return Operand{Kind: OperandVReg, VReg: v, Input: read, Output: write}
}

// PhysOperand builds a fixed-physical-register operand (e.g. RAX for
// the return value, or an argument register during copy_args_to_vregs).
func PhysOperand(r regalloc.RealReg, read, write bool) Operand {
	return Operand{Kind: OperandPhysReg, Reg: r, Input: read, Output: write}
}

// Imm32Operand builds a 32-bit immediate operand.
func Imm32Operand(v int32) Operand { return Operand{Kind: OperandImm32, Imm: v, Input: true} }

// BlockOperand builds a jump-target operand referencing a machine block.
func BlockOperand(b BlockID) Operand { return Operand{Kind: OperandBlock, Block: b, Input: true} }

// GlobalOperand builds a global-address operand.
func GlobalOperand(name string) Operand {
	return Operand{Kind: OperandGlobalAddress, Global: name, Input: true}
}

// MemSlotOperand builds the six-entry encoding of a reference to stack
// slot s, before slot-offset lowering has assigned a base register:
// the sentinel, the slot id, a zero displacement, no base/index vreg
// yet, and a zero scale (spec.md §3 "MemStart followed by exactly
// five payload slots: slot, displacement, base-register,
// index-register, scale").
func MemSlotOperand(s SlotID) []Operand {
	return []Operand{
		{Kind: OperandMemStart},
		{Kind: OperandSlot, Slot: s},
		{Kind: OperandImm32, Imm: 0},
		{Kind: OperandVReg, VReg: regalloc.VRegInvalid},
		{Kind: OperandVReg, VReg: regalloc.VRegInvalid},
		{Kind: OperandImm32, Imm: 0},
	}
}

// MemRBPOperand builds the six-entry encoding of `[rbp + disp]` using
// base register rbp (disp is negative for a frame slot: -4 gives
// `[rbp-4]`), the form every memory operand takes after
// slot-offset lowering (§4.5). Exported for internal/machine/passes.
func MemRBPOperand(disp int32, rbp regalloc.RealReg) []Operand {
	return []Operand{
		{Kind: OperandMemStart},
		{Kind: OperandSlot, Slot: -1},
		{Kind: OperandImm32, Imm: disp},
		{Kind: OperandPhysReg, Reg: rbp},
		{Kind: OperandVReg, VReg: regalloc.VRegInvalid},
		{Kind: OperandImm32, Imm: 0},
	}
}
