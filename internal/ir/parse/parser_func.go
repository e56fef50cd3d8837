package parse

import (
	"github.com/gocc/llc/internal/ir"
)

// parseFunction parses a `define`/`declare` per spec.md §6.
func (p *Parser) parseFunction(m *ir.Module, isDeclare bool) error {
	if err := p.next(); err != nil { // consume 'define'/'declare'
		return err
	}

	// optional preemption/visibility/linkage keywords before the result type.
	var linkage ir.Linkage
	var visibility ir.Visibility
	for p.tok.Kind == TokIdent {
		switch p.tok.Text {
		case "dso_local", "dso_preemptable":
		case "private":
			linkage = ir.LinkagePrivate
		case "internal":
			linkage = ir.LinkageInternal
		case "hidden":
			visibility = ir.VisibilityHidden
		case "protected":
			visibility = ir.VisibilityProtected
		default:
			goto gotResultType
		}
		if err := p.next(); err != nil {
			return err
		}
	}
gotResultType:

	resultType, err := p.parseType(m)
	if err != nil {
		return err
	}

	if p.tok.Kind != TokGlobal {
		return errf(p.tok.Line, "expected function name (@name), got %q", p.tok.Text)
	}
	name := p.tok.Text
	if err := p.next(); err != nil {
		return err
	}

	fn := ir.NewFunction(name, resultType)
	fn.Linkage = linkage
	fn.Visibility = visibility
	fn.Declare = isDeclare

	params, varArgs, paramNames, err := p.parseParamList(m, !isDeclare)
	if err != nil {
		return err
	}
	fn.Params = params
	_ = varArgs

	for p.tok.Kind == TokIdent && funcAttrKeywords[p.tok.Text] {
		attr, err := p.consumeAttr(m)
		if err != nil {
			return err
		}
		fn.Attrs = append(fn.Attrs, attr)
	}
	for p.tok.Kind == TokString || (len(p.tok.Text) > 0 && p.tok.Text[0] == '#') {
		attr, err := p.consumeAttr(m)
		if err != nil {
			return err
		}
		fn.Attrs = append(fn.Attrs, attr)
	}

	if isDeclare {
		m.AddFunction(fn)
		return nil
	}

	if err := p.expectPunct("{"); err != nil {
		return err
	}

	st := &fnState{
		f:           fn,
		valueByName: make(map[string]ir.Value),
		blockByName: make(map[string]ir.BlockID),
	}
	for i, pn := range paramNames {
		st.valueByName[pn] = ir.Value{Kind: ir.ValueParam, Type: params[i].Type, Param: i}
	}

	if err := p.parseFunctionBody(m, st); err != nil {
		return err
	}

	if err := p.expectPunct("}"); err != nil {
		return err
	}

	if err := st.resolvePendingPhis(); err != nil {
		return err
	}

	m.AddFunction(fn)
	return nil
}

// parseParamList parses `(<ty> <attrs>* [%name], ...)`. Parameter names
// are only present (and required) in a `define`; a `declare` lists bare
// types.
func (p *Parser) parseParamList(m *ir.Module, withNames bool) ([]ir.Param, bool, []string, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, false, nil, err
	}
	var params []ir.Param
	var names []string
	varArgs := false
	for !p.is(TokPunct, ")") {
		if p.isKeyword("...") {
			varArgs = true
			if err := p.next(); err != nil {
				return nil, false, nil, err
			}
			break
		}
		ty, err := p.parseType(m)
		if err != nil {
			return nil, false, nil, err
		}
		var attrs []string
		for (p.tok.Kind == TokIdent && paramAttrKeywords[p.tok.Text]) ||
			p.tok.Kind == TokString ||
			(len(p.tok.Text) > 0 && p.tok.Text[0] == '#') ||
			p.isKeyword("align") || p.isKeyword("sret") ||
			p.isKeyword("dereferenceable") || p.isKeyword("dereferenceableornull") {
			a, err := p.consumeAttr(m)
			if err != nil {
				return nil, false, nil, err
			}
			attrs = append(attrs, a)
		}
		name := ""
		if withNames {
			if p.tok.Kind != TokLocal {
				return nil, false, nil, errf(p.tok.Line, "expected parameter name, got %q", p.tok.Text)
			}
			name = p.tok.Text
			if err := p.next(); err != nil {
				return nil, false, nil, err
			}
		}
		params = append(params, ir.Param{Type: ty, Attrs: attrs})
		names = append(names, name)
		if p.is(TokPunct, ",") {
			if err := p.next(); err != nil {
				return nil, false, nil, err
			}
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, false, nil, err
	}
	return params, varArgs, names, nil
}

// parseFunctionBody parses the sequence of labeled blocks making up a
// function's CFG.
func (p *Parser) parseFunctionBody(m *ir.Module, st *fnState) error {
	// First block is implicitly named "entry" if unlabeled.
	first := true
	for !p.is(TokPunct, "}") {
		label := ""
		if p.tok.Kind == TokIdent {
			next, err := p.peekTok()
			if err == nil && next.Kind == TokPunct && next.Text == ":" {
				label = p.tok.Text
				if err := p.next(); err != nil {
					return err
				}
				if err := p.next(); err != nil { // consume ':'
					return err
				}
			}
		}
		if label == "" {
			if first {
				label = "entry"
			} else {
				label = ""
			}
		}
		bid := st.f.AddBlock(label)
		st.blockByName[label] = bid
		first = false

		for !p.is(TokPunct, "}") {
			if p.tok.Kind == TokIdent {
				if next, err := p.peekTok(); err == nil && next.Kind == TokPunct && next.Text == ":" {
					break // next labeled block begins.
				}
			}
			if err := p.parseInstruction(m, st, bid); err != nil {
				return err
			}
		}
	}
	return nil
}
