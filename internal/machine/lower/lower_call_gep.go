package lower

import (
	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
)

// lowerGEP resolves a getelementptr to a slot-relative address (spec.md
// §4.1 "Compute byte offsets using size_of of pointee types"). When the
// base traces to a known alloca slot and every index is a compile-time
// constant, the whole chain folds to a constant displacement and no
// instruction is emitted; a non-constant index instead contributes a
// single scaled-index component to the resolved address, since x86
// addressing carries at most one scaled index.
func (st *state) lowerGEP(iid ir.InstID, inst *ir.Instruction) error {
	base := inst.Args[0]
	if base.Kind != ir.ValueInstResult {
		return &ir.UnsupportedFeatureError{Feature: "getelementptr on a non-alloca base"}
	}
	slot, ok := st.allocaOf[base.Inst]
	baseDisp := int32(0)
	if !ok {
		addr, ok2 := st.gepOf[base.Inst]
		if !ok2 {
			return &ir.UnsupportedFeatureError{Feature: "getelementptr on a non-slot base"}
		}
		slot = addr.slot
		baseDisp = addr.disp
	}

	// base.Type is the pointer-to-baseTy type of the operand as parsed;
	// recover the pointee directly.
	baseTy := st.mod.Types.Get(base.Type).Elem

	result := gepAddr{slot: slot, disp: baseDisp}
	cur := baseTy
	for k, idxVal := range inst.Args[1:] {
		first := k == 0
		if first {
			// The first index walks array-of-baseTy: whole-aggregate
			// pointer arithmetic, element type unchanged.
			if err := st.accumulateIndex(&result, idxVal, baseTy); err != nil {
				return err
			}
			continue
		}
		t := st.mod.Types.Get(cur)
		for t.Kind == ir.TypeNamed {
			t = st.mod.Types.Get(t.Elem)
		}
		switch t.Kind {
		case ir.TypeArray:
			if err := st.accumulateIndex(&result, idxVal, t.Elem); err != nil {
				return err
			}
			cur = t.Elem
		case ir.TypeStruct:
			if idxVal.Kind != ir.ValueConstInt {
				return &ir.InvariantError{Context: "lower", Detail: "struct field index must be constant"}
			}
			off := int32(0)
			for i := 0; i < int(idxVal.Int) && i < len(t.Fields); i++ {
				off += int32(st.mod.Types.SizeOf(t.Fields[i]))
			}
			result.disp += off
			if int(idxVal.Int) < len(t.Fields) {
				cur = t.Fields[idxVal.Int]
			}
		default:
			// Scalar pointee with a trailing index: no further
			// structure to step into.
		}
	}

	st.gepOf[iid] = result
	return nil
}

// accumulateIndex folds idxVal*size_of(elemTy) into addr's displacement
// when idxVal is constant, or records it as addr's single dynamic
// scaled-index component otherwise.
func (st *state) accumulateIndex(addr *gepAddr, idxVal ir.Value, elemTy ir.TypeID) error {
	elemSize := int32(st.mod.Types.SizeOf(elemTy))
	if idxVal.Kind == ir.ValueConstInt {
		addr.disp += int32(idxVal.Int) * elemSize
		return nil
	}
	op, err := st.valueOperand(idxVal, true, false)
	if err != nil {
		return err
	}
	if op.Kind != machine.OperandVReg {
		return &ir.InvariantError{Context: "lower", Detail: "dynamic GEP index did not resolve to a vreg"}
	}
	addr.hasIndex = true
	addr.index = op.VReg
	addr.scale = elemSize
	return nil
}

// lowerCall moves arguments into the System V argument registers in
// order, emits CALL, and moves RAX into a fresh vreg for the result
// (spec.md §4.1 "Call").
func (st *state) lowerCall(iid ir.InstID, inst *ir.Instruction) error {
	for i, a := range inst.Args {
		if i >= len(amd64.ArgRegs) {
			return &ir.UnsupportedFeatureError{Feature: "call with more than six arguments"}
		}
		v, err := st.valueOperand(a, true, false)
		if err != nil {
			return err
		}
		op := machine.OpMOVrr32
		if v.Kind == machine.OperandImm32 {
			op = machine.OpMOVri32
		} else if st.mod.Types.SizeOf(a.Type) > 4 {
			op = machine.OpMOVrr64
		}
		st.mf.AppendInst(st.curBlock, machine.NewInst(op,
			machine.PhysOperand(amd64.ArgRegs[i], false, true), v))
	}

	call := machine.NewInst(machine.OpCALL)
	call.Callee = inst.Callee
	st.mf.AppendInst(st.curBlock, call)

	if inst.ResultType == ir.Void {
		return nil
	}
	dst := st.mf.NewVReg(inst.ResultType)
	st.resultOf[iid] = dst
	op := machine.OpMOVrr32
	if st.mod.Types.SizeOf(inst.ResultType) > 4 {
		op = machine.OpMOVrr64
	}
	st.mf.AppendInst(st.curBlock, machine.NewInst(op,
		machine.RegOperand(dst, false, true), machine.PhysOperand(amd64.RAX, true, false)))
	return nil
}
