package machine

import (
	"fmt"
	"strings"

	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// InstID is an arena index into a machine function's instruction table.
type InstID int

// BlockID is an arena index into a machine function's block table.
type BlockID int

// Opcode enumerates the x86-64 machine opcodes this target emits
// (spec.md §3 "Machine instruction").
type Opcode uint8

const (
	OpNone Opcode = iota
	OpMOVri32 // mov r32, imm32
	OpMOVri64 // mov r64, imm (used by φ-elimination for 64-bit immediate copies)
	OpMOVrr32 // mov r32, r32
	OpMOVrr64
	OpMOVrm32 // mov r32, [mem]  (load)
	OpMOVrm64
	OpMOVmr32 // mov [mem], r32 (store)
	OpMOVmr64
	OpLEA
	OpADD
	OpSUB
	OpCMP
	OpJcc
	OpJMP
	OpCALL
	OpRET
	OpPUSH64
	OpPOP64
	OpPhi
	OpTEST
)

func (op Opcode) String() string {
	switch op {
	case OpMOVri32:
		return "mov"
	case OpMOVri64:
		return "mov"
	case OpMOVrr32, OpMOVrr64:
		return "mov"
	case OpMOVrm32, OpMOVrm64:
		return "mov"
	case OpMOVmr32, OpMOVmr64:
		return "mov"
	case OpLEA:
		return "lea"
	case OpADD:
		return "add"
	case OpSUB:
		return "sub"
	case OpCMP:
		return "cmp"
	case OpJcc:
		return "j"
	case OpJMP:
		return "jmp"
	case OpCALL:
		return "call"
	case OpRET:
		return "ret"
	case OpPUSH64:
		return "push"
	case OpPOP64:
		return "pop"
	case OpTEST:
		return "test"
	case OpPhi:
		return "phi"
	default:
		return "?"
	}
}

// CondCode is the condition carried by a Jcc, set from the ICmp
// predicate it follows (spec.md §4.1 "ICmp ... remembered and
// consumed by a subsequent CondBr").
type CondCode uint8

const (
	CondNone CondCode = iota
	CondE
	CondNE
	CondL
	CondLE
	CondG
	CondGE
	CondB
	CondBE
	CondA
	CondAE
)

func (c CondCode) String() string {
	switch c {
	case CondE:
		return "e"
	case CondNE:
		return "ne"
	case CondL:
		return "l"
	case CondLE:
		return "le"
	case CondG:
		return "g"
	case CondGE:
		return "ge"
	case CondB:
		return "b"
	case CondBE:
		return "be"
	case CondA:
		return "a"
	case CondAE:
		return "ae"
	default:
		return ""
	}
}

// CondFromICmp maps an IR icmp predicate to the x86 condition code
// that tests the equivalent CMP flags.
func CondFromICmp(p ir.ICmpPredicate) CondCode {
	switch p {
	case ir.ICmpEQ:
		return CondE
	case ir.ICmpNE:
		return CondNE
	case ir.ICmpSLT:
		return CondL
	case ir.ICmpSLE:
		return CondLE
	case ir.ICmpSGT:
		return CondG
	case ir.ICmpSGE:
		return CondGE
	case ir.ICmpULT:
		return CondB
	case ir.ICmpULE:
		return CondBE
	case ir.ICmpUGT:
		return CondA
	case ir.ICmpUGE:
		return CondAE
	default:
		return CondNone
	}
}

// PhiSource is one (value, predecessor-block) pair on a machine Phi,
// copied verbatim from the IR phi it replaces (spec.md §4.1).
type PhiSource struct {
	Operand Operand
	Pred    BlockID
}

// Instruction is one machine instruction: an opcode, a flat operand
// vector (memory operands inlined per spec.md §3), and bookkeeping
// fields the passes consult directly rather than through accessors,
// mirroring how the IR side keeps Args/Targets public on ir.Instruction.
type Instruction struct {
	id     InstID
	parent BlockID
	opcode Opcode

	Operands []Operand
	Cond     CondCode
	Callee   string // direct-call target name; empty for indirect (unused, no function pointers in this subset)
	Phi      []PhiSource

	prev, next InstID
	linked     bool
}

// NewInst returns a zero-valued Instruction of the given opcode with
// the given operands, ready for Function.AppendInst/InsertBefore to
// assign an id and splice into the layout.
func NewInst(op Opcode, operands ...Operand) Instruction {
	return Instruction{opcode: op, Operands: operands, prev: InstIDInvalid, next: InstIDInvalid}
}

// InstIDInvalid and BlockIDInvalid mark "no instruction"/"no block" in
// layout links and unset operand fields.
const (
	InstIDInvalid  InstID  = -1
	BlockIDInvalid BlockID = -1
)

func (i *Instruction) ID() InstID      { return i.id }
func (i *Instruction) Opcode() Opcode  { return i.opcode }
func (i *Instruction) Parent() BlockID { return i.parent }
func (i *Instruction) Next() InstID    { return i.next }
func (i *Instruction) Prev() InstID    { return i.prev }

// Defs implements regalloc.Instr: every vreg-kind operand flagged
// Output, across both the plain operand list and any memory group's
// base/index slots (an indexed store's index register is as much a
// def-site consumer as a use, but never a def; only plain operands or
// a two-address idiom's destination can be Output).
func (i *Instruction) Defs() []regalloc.VReg {
	var out []regalloc.VReg
	for _, o := range i.Operands {
		if o.Kind == OperandVReg && o.Output && o.VReg != regalloc.VRegInvalid {
			out = append(out, o.VReg)
		}
	}
	return out
}

// Uses implements regalloc.Instr.
func (i *Instruction) Uses() []regalloc.VReg {
	var out []regalloc.VReg
	for _, o := range i.Operands {
		if o.Kind == OperandVReg && o.Input && o.VReg != regalloc.VRegInvalid {
			out = append(out, o.VReg)
		}
	}
	return out
}

// AssignUses implements regalloc.Instr: rewrites, in order, every
// VReg-kind input operand to the matching physical register.
func (i *Instruction) AssignUses(regs []regalloc.RealReg) {
	j := 0
	for k := range i.Operands {
		o := &i.Operands[k]
		if o.Kind == OperandVReg && o.Input && o.VReg != regalloc.VRegInvalid {
			o.Kind = OperandPhysReg
			o.Reg = regs[j]
			j++
		}
	}
}

// AssignDef implements regalloc.Instr.
func (i *Instruction) AssignDef(r regalloc.RealReg) {
	for k := range i.Operands {
		o := &i.Operands[k]
		if o.Kind == OperandVReg && o.Output && o.VReg != regalloc.VRegInvalid {
			o.Kind = OperandPhysReg
			o.Reg = r
		}
	}
}

// IsCopy implements regalloc.Instr.
func (i *Instruction) IsCopy() bool {
	return i.opcode == OpMOVrr32 || i.opcode == OpMOVrr64
}

// IsCall implements regalloc.Instr.
func (i *Instruction) IsCall() bool { return i.opcode == OpCALL }

// IsPhi reports whether this is a machine Phi, not yet eliminated.
func (i *Instruction) IsPhi() bool { return i.opcode == OpPhi }

func (i *Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", i.opcode)
	for k, o := range i.Operands {
		if k > 0 {
			b.WriteString(", ")
		} else {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%v", o)
	}
	return b.String()
}
