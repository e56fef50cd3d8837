package parse

import (
	"github.com/gocc/llc/internal/ir"
)

var icmpPreds = map[string]ir.ICmpPredicate{
	"eq": ir.ICmpEQ, "ne": ir.ICmpNE, "slt": ir.ICmpSLT, "sle": ir.ICmpSLE,
	"sgt": ir.ICmpSGT, "sge": ir.ICmpSGE, "ult": ir.ICmpULT, "ule": ir.ICmpULE,
	"ugt": ir.ICmpUGT, "uge": ir.ICmpUGE,
}

// parseInstruction parses one instruction (optionally `%name = `-prefixed)
// and appends it to block bid.
func (p *Parser) parseInstruction(m *ir.Module, st *fnState, bid ir.BlockID) error {
	destName := ""
	if p.tok.Kind == TokLocal {
		next, err := p.peekTok()
		if err == nil && next.Kind == TokPunct && next.Text == "=" {
			destName = p.tok.Text
			if err := p.next(); err != nil {
				return err
			}
			if err := p.next(); err != nil { // consume '='
				return err
			}
		}
	}

	if p.tok.Kind != TokIdent {
		return errf(p.tok.Line, "expected instruction opcode, got %q", p.tok.Text)
	}
	op := p.tok.Text
	line := p.tok.Line
	if err := p.next(); err != nil {
		return err
	}

	var inst ir.Instruction
	switch op {
	case "alloca":
		ty, err := p.parseType(m)
		if err != nil {
			return err
		}
		count := int64(1)
		if p.is(TokPunct, ",") {
			if pk, _ := p.peekTok(); pk.Kind == TokInt {
				if err := p.next(); err != nil {
					return err
				}
				count = p.tok.Int
				if err := p.next(); err != nil {
					return err
				}
			}
		}
		if err := p.consumeTrailingCommaModifiers(); err != nil {
			return err
		}
		inst = newInst(ir.OpAlloca)
		inst.AllocType = ty
		inst.AllocCount = count
		inst.ResultType = m.Types.Pointer(ty)

	case "load":
		ty, err := p.parseType(m)
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		if _, err := p.parseType(m); err != nil { // pointer type of the arg, redundant with ty*
			return err
		}
		ptr, err := p.parseValueOperand(st)
		if err != nil {
			return err
		}
		if err := p.consumeTrailingCommaModifiers(); err != nil {
			return err
		}
		inst = newInst(ir.OpLoad)
		inst.Args = []ir.Value{ptr}
		inst.ResultType = ty

	case "store":
		valTy, err := p.parseType(m)
		if err != nil {
			return err
		}
		val, err := p.parseValueOperandTyped(st, valTy)
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		if _, err := p.parseType(m); err != nil {
			return err
		}
		ptr, err := p.parseValueOperand(st)
		if err != nil {
			return err
		}
		if err := p.consumeTrailingCommaModifiers(); err != nil {
			return err
		}
		inst = newInst(ir.OpStore)
		inst.Args = []ir.Value{val, ptr}

	case "add", "sub", "mul":
		ty, err := p.parseType(m)
		if err != nil {
			return err
		}
		a, err := p.parseValueOperandTyped(st, ty)
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		b, err := p.parseValueOperandTyped(st, ty)
		if err != nil {
			return err
		}
		switch op {
		case "add":
			inst = newInst(ir.OpAdd)
		case "sub":
			inst = newInst(ir.OpSub)
		case "mul":
			inst = newInst(ir.OpMul)
		}
		inst.Args = []ir.Value{a, b}
		inst.ResultType = ty

	case "icmp":
		if p.tok.Kind != TokIdent {
			return errf(line, "expected icmp predicate")
		}
		pred, ok := icmpPreds[p.tok.Text]
		if !ok {
			return errf(line, "unknown icmp predicate %q", p.tok.Text)
		}
		if err := p.next(); err != nil {
			return err
		}
		ty, err := p.parseType(m)
		if err != nil {
			return err
		}
		a, err := p.parseValueOperandTyped(st, ty)
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		b, err := p.parseValueOperandTyped(st, ty)
		if err != nil {
			return err
		}
		inst = newInst(ir.OpICmp)
		inst.Args = []ir.Value{a, b}
		inst.Pred = pred
		inst.ResultType = ir.I1

	case "zext", "sext", "trunc", "bitcast", "ptrtoint", "inttoptr":
		srcTy, err := p.parseType(m)
		if err != nil {
			return err
		}
		v, err := p.parseValueOperandTyped(st, srcTy)
		if err != nil {
			return err
		}
		if err := p.expectKeyword("to"); err != nil {
			return err
		}
		dstTy, err := p.parseType(m)
		if err != nil {
			return err
		}
		switch op {
		case "zext":
			inst = newInst(ir.OpZext)
		case "sext":
			inst = newInst(ir.OpSext)
		case "trunc":
			inst = newInst(ir.OpTrunc)
		case "bitcast":
			inst = newInst(ir.OpBitcast)
		case "ptrtoint":
			inst = newInst(ir.OpPtrToInt)
		case "inttoptr":
			inst = newInst(ir.OpIntToPtr)
		}
		inst.Args = []ir.Value{v}
		inst.ResultType = dstTy

	case "getelementptr":
		inst, err := p.parseGEP(m, st)
		if err != nil {
			return err
		}
		return st.finish(destName, bid, inst)

	case "call":
		inst, err := p.parseCall(m, st)
		if err != nil {
			return err
		}
		return st.finish(destName, bid, inst)

	case "br":
		inst, err := p.parseBr(m, st)
		if err != nil {
			return err
		}
		return st.finish("", bid, inst)

	case "phi":
		ty, err := p.parseType(m)
		if err != nil {
			return err
		}
		inst = newInst(ir.OpPhi)
		inst.ResultType = ty
		id := st.f.AppendInst(bid, inst)
		var raws []rawIncoming
		for {
			if err := p.expectPunct("["); err != nil {
				return err
			}
			var raw rawIncoming
			if p.tok.Kind == TokInt {
				cv := ir.Value{Kind: ir.ValueConstInt, Type: ty, Int: p.tok.Int}
				raw.constVal = &cv
				if err := p.next(); err != nil {
					return err
				}
			} else if p.tok.Kind == TokLocal {
				raw.valName = p.tok.Text
				if err := p.next(); err != nil {
					return err
				}
			} else {
				return errf(p.tok.Line, "expected phi incoming value")
			}
			if err := p.expectPunct(","); err != nil {
				return err
			}
			if p.tok.Kind != TokLocal {
				return errf(p.tok.Line, "expected phi predecessor label")
			}
			raw.blockName = p.tok.Text
			if err := p.next(); err != nil {
				return err
			}
			if err := p.expectPunct("]"); err != nil {
				return err
			}
			raws = append(raws, raw)
			if p.is(TokPunct, ",") {
				if err := p.next(); err != nil {
					return err
				}
				continue
			}
			break
		}
		st.pendingPhi = append(st.pendingPhi, pendingPhi{id: id, incoming: raws})
		if destName != "" {
			st.valueByName[destName] = ir.Value{Kind: ir.ValueInstResult, Type: ty, Inst: id}
		}
		return nil

	case "ret":
		inst = newInst(ir.OpRet)
		if !p.isKeyword("void") {
			ty, err := p.parseType(m)
			if err != nil {
				return err
			}
			v, err := p.parseValueOperandTyped(st, ty)
			if err != nil {
				return err
			}
			inst.Args = []ir.Value{v}
		} else {
			if err := p.next(); err != nil {
				return err
			}
		}

	default:
		return &ir.UnsupportedFeatureError{Feature: "opcode " + op}
	}

	return st.finish(destName, bid, inst)
}

func newInst(op ir.Opcode) ir.Instruction {
	return ir.NewInst(op)
}

// finish appends inst (setting its name) to block bid and, if destName is
// non-empty, registers its result in the name table.
func (st *fnState) finish(destName string, bid ir.BlockID, inst ir.Instruction) error {
	inst = inst.WithName(destName)
	id := st.f.AppendInst(bid, inst)
	if destName != "" {
		row := st.f.Inst(id)
		st.valueByName[destName] = ir.Value{Kind: ir.ValueInstResult, Type: row.ResultTypeOf(), Inst: id}
	}
	return nil
}

func (st *fnState) resolvePendingPhis() error {
	for _, pp := range st.pendingPhi {
		var incoming []ir.PhiIncoming
		for _, raw := range pp.incoming {
			pred, ok := st.blockByName[raw.blockName]
			if !ok {
				return errf(0, "phi predecessor label %%%s not found", raw.blockName)
			}
			var v ir.Value
			if raw.constVal != nil {
				v = *raw.constVal
			} else {
				rv, ok := st.valueByName[raw.valName]
				if !ok {
					return errf(0, "undefined value %%%s referenced by phi", raw.valName)
				}
				v = rv
			}
			incoming = append(incoming, ir.PhiIncoming{Value: v, Pred: pred})
		}
		st.f.SetPhiIncoming(pp.id, incoming)
	}
	return nil
}

// parseValueOperand parses a value reference (%name, @name, or an integer
// literal) whose type was already consumed by the caller.
func (p *Parser) parseValueOperand(st *fnState) (ir.Value, error) {
	return p.parseValueOperandTyped(st, ir.Void)
}

func (p *Parser) parseValueOperandTyped(st *fnState, ty ir.TypeID) (ir.Value, error) {
	switch {
	case p.tok.Kind == TokLocal:
		name := p.tok.Text
		if err := p.next(); err != nil {
			return ir.Value{}, err
		}
		v, ok := st.valueByName[name]
		if !ok {
			return ir.Value{}, errf(p.tok.Line, "undefined value %%%s", name)
		}
		return v, nil
	case p.tok.Kind == TokGlobal:
		name := p.tok.Text
		if err := p.next(); err != nil {
			return ir.Value{}, err
		}
		return ir.Value{Kind: ir.ValueGlobalRef, Type: ty, Global: name}, nil
	case p.tok.Kind == TokInt:
		v := p.tok.Int
		if err := p.next(); err != nil {
			return ir.Value{}, err
		}
		return ir.Value{Kind: ir.ValueConstInt, Type: ty, Int: v}, nil
	case p.isKeyword("zeroinitializer"):
		if err := p.next(); err != nil {
			return ir.Value{}, err
		}
		return ir.Value{Kind: ir.ValueConstAggregateZero, Type: ty}, nil
	case p.isKeyword("null"):
		if err := p.next(); err != nil {
			return ir.Value{}, err
		}
		return ir.Value{Kind: ir.ValueConstInt, Type: ty, Int: 0}, nil
	default:
		return ir.Value{}, errf(p.tok.Line, "expected value operand, got %q", p.tok.Text)
	}
}

// consumeTrailingCommaModifiers skips `, align N` and similar trailing
// modifiers that don't affect lowering.
func (p *Parser) consumeTrailingCommaModifiers() error {
	for p.is(TokPunct, ",") {
		if err := p.next(); err != nil {
			return err
		}
		if err := p.skipToNextInstBoundary(); err != nil {
			return err
		}
	}
	return nil
}

// skipToNextInstBoundary consumes tokens up to (not including) the next
// ',' or end-of-line-ish boundary; used for modifiers this subset
// discards without interpreting.
func (p *Parser) skipToNextInstBoundary() error {
	line := p.tok.Line
	for p.tok.Line == line && !p.is(TokPunct, ",") && p.tok.Kind != TokEOF {
		if err := p.next(); err != nil {
			return err
		}
	}
	return nil
}
