package passes

import (
	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// installSpillHooks wires the ISA-specific store/load emitters
// regalloc's spiller calls back into (spec.md §9 "instruction-info
// capability ... emitting spill/reload skeletons").
func installSpillHooks(mf *machine.Function) {
	mf.SpillHooks = machine.SpillHooks{
		StoreAfter: storeAfter,
		LoadBefore: loadBefore,
	}
}

// storeAfter implements spec.md §4.3 step 2: rename v's def to a fresh
// vreg and insert a store of it to slot immediately after the def. A
// def that is also a use on the same operand (the two-address
// ADD/SUB idiom's read-modify-write destination) additionally gets a
// load of the same fresh vreg inserted immediately before the
// instruction, so it reads the prior value out of the slot rather
// than an uninitialized register.
func storeAfter(f *machine.Function, v regalloc.VReg, at *machine.Instruction, slot machine.SlotID) {
	fresh, alsoUse := renameDef(f, v, at)
	if alsoUse {
		op := loadOpcodeFor(f, fresh)
		mem := machine.MemSlotOperand(slot)
		ops := append([]machine.Operand{machine.RegOperand(fresh, false, true)}, mem...)
		f.InsertBefore(at.Parent(), at.ID(), machine.NewInst(op, ops...))
	}
	op := storeOpcodeFor(f, fresh)
	mem := machine.MemSlotOperand(slot)
	ops := append(mem, machine.RegOperand(fresh, true, false))
	f.InsertAfter(at.ID(), machine.NewInst(op, ops...))
}

// loadBefore implements spec.md §4.3 step 3: mint a fresh vreg, insert
// a load of slot into it immediately before the use, and rename the
// use operand to the fresh vreg.
func loadBefore(f *machine.Function, v regalloc.VReg, at *machine.Instruction, slot machine.SlotID) regalloc.VReg {
	ty := f.VRegType(v)
	fresh := f.NewVReg(ty)
	renameUse(at, v, fresh)
	op := loadOpcodeFor(f, fresh)
	mem := machine.MemSlotOperand(slot)
	ops := append([]machine.Operand{machine.RegOperand(fresh, false, true)}, mem...)
	f.InsertBefore(at.Parent(), at.ID(), machine.NewInst(op, ops...))
	return fresh
}

// renameDef rewrites every Output vreg operand on at equal to v into a
// freshly minted vreg of the same type, returning it and whether any
// renamed operand was also an Input (spec.md §4.3 "rename v to a
// freshly minted vreg v'"; the two-address idiom's single operand
// carries both roles).
func renameDef(f *machine.Function, v regalloc.VReg, at *machine.Instruction) (regalloc.VReg, bool) {
	ty := f.VRegType(v)
	fresh := f.NewVReg(ty)
	alsoUse := false
	for k := range at.Operands {
		o := &at.Operands[k]
		if o.Kind == machine.OperandVReg && o.Output && o.VReg == v {
			o.VReg = fresh
			if o.Input {
				alsoUse = true
			}
		}
	}
	return fresh, alsoUse
}

func renameUse(at *machine.Instruction, v, fresh regalloc.VReg) {
	for k := range at.Operands {
		o := &at.Operands[k]
		if o.Kind == machine.OperandVReg && o.Input && o.VReg == v {
			o.VReg = fresh
		}
	}
}

func storeOpcodeFor(f *machine.Function, v regalloc.VReg) machine.Opcode {
	if f.TypeSizeOf(v) > 4 {
		return machine.OpMOVmr64
	}
	return machine.OpMOVmr32
}

func loadOpcodeFor(f *machine.Function, v regalloc.VReg) machine.Opcode {
	if f.TypeSizeOf(v) > 4 {
		return machine.OpMOVrm64
	}
	return machine.OpMOVrm32
}
