package parse

import (
	"github.com/gocc/llc/internal/ir"
)

// parseGEP parses `getelementptr <ty>, <ty>* <base>, <idxty> <idx>, ...`
// and computes the pointer-to-element result type by walking idx.
func (p *Parser) parseGEP(m *ir.Module, st *fnState) (ir.Instruction, error) {
	baseTy, err := p.parseType(m)
	if err != nil {
		return ir.Instruction{}, err
	}
	if err := p.expectPunct(","); err != nil {
		return ir.Instruction{}, err
	}
	if _, err := p.parseType(m); err != nil { // pointer-to-baseTy type of the base operand
		return ir.Instruction{}, err
	}
	base, err := p.parseValueOperand(st)
	if err != nil {
		return ir.Instruction{}, err
	}

	args := []ir.Value{base}
	indices := make([]int64, 0, 2)
	cur := baseTy
	first := true
	for p.is(TokPunct, ",") {
		if err := p.next(); err != nil {
			return ir.Instruction{}, err
		}
		if _, err := p.parseType(m); err != nil {
			return ir.Instruction{}, err
		}
		idx, err := p.parseValueOperand(st)
		if err != nil {
			return ir.Instruction{}, err
		}
		args = append(args, idx)
		if idx.Kind == ir.ValueConstInt {
			indices = append(indices, idx.Int)
		} else {
			indices = append(indices, 0)
		}

		if first {
			// the first index walks array-of-baseTy; the element type is
			// unchanged (pointer arithmetic over the whole aggregate).
			first = false
			continue
		}
		cur = stepGEP(m, cur, idx.Int)
	}

	inst := ir.NewInst(ir.OpGetElementPtr)
	inst.Args = args
	inst.ResultType = m.Types.Pointer(cur)
	return inst, nil
}

func stepGEP(m *ir.Module, ty ir.TypeID, idx int64) ir.TypeID {
	t := m.Types.Get(ty)
	switch t.Kind {
	case ir.TypeArray:
		return t.Elem
	case ir.TypeStruct:
		if int(idx) >= 0 && int(idx) < len(t.Fields) {
			return t.Fields[idx]
		}
		return ty
	case ir.TypeNamed:
		return stepGEP(m, t.Elem, idx)
	default:
		return ty
	}
}

// parseCall parses `call <retty> @callee(<ty> <val>, ...)`, skipping any
// calling-convention or return-attribute keywords beforehand.
func (p *Parser) parseCall(m *ir.Module, st *fnState) (ir.Instruction, error) {
	for p.isKeyword("ccc") || p.isKeyword("fastcc") || p.isKeyword("tailcc") {
		if err := p.next(); err != nil {
			return ir.Instruction{}, err
		}
	}
	retTy, err := p.parseType(m)
	if err != nil {
		return ir.Instruction{}, err
	}
	if p.tok.Kind != TokGlobal {
		return ir.Instruction{}, errf(p.tok.Line, "expected callee (@name), got %q", p.tok.Text)
	}
	callee := p.tok.Text
	if err := p.next(); err != nil {
		return ir.Instruction{}, err
	}
	if err := p.expectPunct("("); err != nil {
		return ir.Instruction{}, err
	}
	var args []ir.Value
	for !p.is(TokPunct, ")") {
		ty, err := p.parseType(m)
		if err != nil {
			return ir.Instruction{}, err
		}
		for p.tok.Kind == TokIdent && paramAttrKeywords[p.tok.Text] {
			if err := p.next(); err != nil {
				return ir.Instruction{}, err
			}
		}
		v, err := p.parseValueOperandTyped(st, ty)
		if err != nil {
			return ir.Instruction{}, err
		}
		args = append(args, v)
		if p.is(TokPunct, ",") {
			if err := p.next(); err != nil {
				return ir.Instruction{}, err
			}
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return ir.Instruction{}, err
	}
	for p.tok.Kind == TokIdent && funcAttrKeywords[p.tok.Text] {
		if err := p.next(); err != nil {
			return ir.Instruction{}, err
		}
	}

	inst := ir.NewInst(ir.OpCall)
	inst.Callee = callee
	inst.Args = args
	inst.ResultType = retTy
	return inst, nil
}

// parseBr parses `br label %L` or `br i1 %c, label %T, label %F`.
func (p *Parser) parseBr(m *ir.Module, st *fnState) (ir.Instruction, error) {
	if p.isKeyword("label") {
		if err := p.next(); err != nil {
			return ir.Instruction{}, err
		}
		target, err := p.parseLabel()
		if err != nil {
			return ir.Instruction{}, err
		}
		bid, ok := st.blockByName[target]
		if !ok {
			return ir.Instruction{}, errf(p.tok.Line, "undefined label %%%s", target)
		}
		inst := ir.NewInst(ir.OpBr)
		inst.Targets = []ir.BlockID{bid}
		return inst, nil
	}

	if _, err := p.parseType(m); err != nil { // `i1`
		return ir.Instruction{}, err
	}
	cond, err := p.parseValueOperand(st)
	if err != nil {
		return ir.Instruction{}, err
	}
	if err := p.expectPunct(","); err != nil {
		return ir.Instruction{}, err
	}
	if err := p.expectKeyword("label"); err != nil {
		return ir.Instruction{}, err
	}
	tName, err := p.parseLabel()
	if err != nil {
		return ir.Instruction{}, err
	}
	if err := p.expectPunct(","); err != nil {
		return ir.Instruction{}, err
	}
	if err := p.expectKeyword("label"); err != nil {
		return ir.Instruction{}, err
	}
	fName, err := p.parseLabel()
	if err != nil {
		return ir.Instruction{}, err
	}
	tb, ok := st.blockByName[tName]
	if !ok {
		return ir.Instruction{}, errf(p.tok.Line, "undefined label %%%s", tName)
	}
	fb, ok := st.blockByName[fName]
	if !ok {
		return ir.Instruction{}, errf(p.tok.Line, "undefined label %%%s", fName)
	}
	inst := ir.NewInst(ir.OpCondBr)
	inst.Args = []ir.Value{cond}
	inst.Targets = []ir.BlockID{tb, fb}
	return inst, nil
}

func (p *Parser) parseLabel() (string, error) {
	if p.tok.Kind != TokLocal {
		return "", errf(p.tok.Line, "expected label (%%name), got %q", p.tok.Text)
	}
	name := p.tok.Text
	return name, p.next()
}
