package parse

import (
	"github.com/gocc/llc/internal/ir"
)

// parseGlobal parses one `@name = [linkage] [visibility] [unnamed_addr]
// (global|constant) <ty> [<init>] [, align N]` declaration.
func (p *Parser) parseGlobal(m *ir.Module) error {
	name := p.tok.Text
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}

	g := &ir.GlobalVar{Name: name}

	for {
		switch p.tok.Text {
		case "private":
			g.Linkage = ir.LinkagePrivate
		case "internal":
			g.Linkage = ir.LinkageInternal
		case "weak":
			g.Linkage = ir.LinkageWeak
		case "linkonce":
			g.Linkage = ir.LinkageLinkOnce
		case "hidden":
			g.Visibility = ir.VisibilityHidden
		case "protected":
			g.Visibility = ir.VisibilityProtected
		case "unnamed_addr", "local_unnamed_addr":
			g.UnnamedAddr = true
		case "dso_local", "dso_preemptable":
			// preemption keyword: accepted and not recorded.
		default:
			goto afterModifiers
		}
		if err := p.next(); err != nil {
			return err
		}
	}
afterModifiers:

	switch p.tok.Text {
	case "constant":
		g.Constant = true
	case "global":
		g.Constant = false
	default:
		return errf(p.tok.Line, "expected 'global' or 'constant', got %q", p.tok.Text)
	}
	if err := p.next(); err != nil {
		return err
	}

	ty, err := p.parseType(m)
	if err != nil {
		return err
	}
	g.Type = ty

	if !p.is(TokPunct, ",") && p.tok.Kind != TokEOF {
		switch {
		case p.tok.Kind == TokString:
			g.HasInitStr = true
			g.InitString = p.tok.Text
			if err := p.next(); err != nil {
				return err
			}
		case p.isKeyword("zeroinitializer"):
			v := ir.Value{Kind: ir.ValueConstAggregateZero, Type: ty}
			g.Init = &v
			if err := p.next(); err != nil {
				return err
			}
		case p.tok.Kind == TokInt:
			v := ir.Value{Kind: ir.ValueConstInt, Type: ty, Int: p.tok.Int}
			g.Init = &v
			if err := p.next(); err != nil {
				return err
			}
		}
	}

	for p.is(TokPunct, ",") {
		if err := p.next(); err != nil {
			return err
		}
		if p.isKeyword("align") {
			if err := p.next(); err != nil {
				return err
			}
			g.Align = int(p.tok.Int)
			if err := p.next(); err != nil {
				return err
			}
		} else {
			// Unsupported trailing modifier (e.g. section "..."): skip its value.
			if err := p.next(); err != nil {
				return err
			}
		}
	}

	m.Globals = append(m.Globals, g)
	return nil
}
