package lower

import (
	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// valueOperand materializes a machine operand for an IR value
// (spec.md §4.1 "Operand materialization"): a constant becomes an
// immediate, an instruction result becomes its recorded vreg (minting
// an on-demand LEA for an alloca's address if the consumer needs the
// pointer as a value rather than a memory operand), a parameter
// becomes its copy_args_to_vregs vreg, and a global becomes a
// GlobalAddress operand.
func (st *state) valueOperand(v ir.Value, read, write bool) (machine.Operand, error) {
	switch v.Kind {
	case ir.ValueConstInt:
		return machine.Imm32Operand(int32(v.Int)), nil
	case ir.ValueConstAggregateZero:
		return machine.Imm32Operand(0), nil
	case ir.ValueGlobalRef:
		return machine.GlobalOperand(v.Global), nil
	case ir.ValueParam:
		if v.Param >= len(st.mf.ParamVRegs) {
			return machine.Operand{}, &ir.InvariantError{Context: "lower", Detail: "parameter index out of range"}
		}
		return machine.RegOperand(st.mf.ParamVRegs[v.Param], read, write), nil
	case ir.ValueInstResult:
		if vr, ok := st.resultOf[v.Inst]; ok {
			return machine.RegOperand(vr, read, write), nil
		}
		if slot, ok := st.allocaOf[v.Inst]; ok {
			vr := st.materializeAddress(gepAddr{slot: slot})
			return machine.RegOperand(vr, read, write), nil
		}
		if addr, ok := st.gepOf[v.Inst]; ok {
			vr := st.materializeAddress(addr)
			return machine.RegOperand(vr, read, write), nil
		}
		return machine.Operand{}, &ir.InvariantError{Context: "lower", Detail: "value references an instruction lowered to no vreg"}
	default:
		return machine.Operand{}, &ir.UnsupportedFeatureError{Feature: "value kind in this lowering context"}
	}
}

// materializeAddress emits `LEA vreg, [rbp-relative slot+disp]` the
// first time an alloca's or GEP's address is needed as a plain value
// rather than folded into a consumer's memory operand (spec.md §4.1
// "produce LEA vreg, [slot] or defer to consumer").
func (st *state) materializeAddress(addr gepAddr) regalloc.VReg {
	vr := st.mf.NewVReg(st.mod.Types.Pointer(ir.I8))
	mem := memSlotDisp(addr)
	ops := append([]machine.Operand{machine.RegOperand(vr, false, true)}, mem...)
	st.mf.AppendInst(st.curBlock, machine.NewInst(machine.OpLEA, ops...))
	return vr
}

// memOperandFor resolves a pointer-typed value to a six-entry memory
// operand group. An alloca or a statically-resolved GEP folds
// straight to a slot+displacement reference; anything else (a pointer
// value computed at runtime, e.g. loaded from memory) falls back to
// register-indirect addressing through the value's own vreg.
func (st *state) memOperandFor(ptr ir.Value) ([]machine.Operand, error) {
	if ptr.Kind == ir.ValueInstResult {
		if slot, ok := st.allocaOf[ptr.Inst]; ok {
			return memSlotDisp(gepAddr{slot: slot}), nil
		}
		if addr, ok := st.gepOf[ptr.Inst]; ok {
			return memSlotDisp(addr), nil
		}
	}
	op, err := st.valueOperand(ptr, true, false)
	if err != nil {
		return nil, err
	}
	if op.Kind != machine.OperandVReg {
		return nil, &ir.InvariantError{Context: "lower", Detail: "pointer operand did not resolve to an address"}
	}
	return []machine.Operand{
		{Kind: machine.OperandMemStart},
		{Kind: machine.OperandSlot, Slot: -1},
		machine.Imm32Operand(0),
		op,
		{Kind: machine.OperandVReg, VReg: regalloc.VRegInvalid},
		machine.Imm32Operand(0),
	}, nil
}

// memSlotDisp builds a slot-relative memory operand group, folding in
// addr's constant displacement and, if present, its single dynamic
// scaled index (spec.md §3's fixed slot/disp/base/index/scale layout).
func memSlotDisp(addr gepAddr) []machine.Operand {
	mem := machine.MemSlotOperand(addr.slot)
	mem[2] = machine.Imm32Operand(addr.disp)
	if addr.hasIndex {
		mem[4] = machine.RegOperand(addr.index, true, false)
		mem[5] = machine.Imm32Operand(addr.scale)
	}
	return mem
}
