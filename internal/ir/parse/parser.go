package parse

import (
	"strconv"

	"github.com/gocc/llc/internal/ir"
)

// paramAttrKeywords and funcAttrKeywords are the fixed keyword sets
// spec.md §6 lists. Anything else either takes an explicit "(N)" payload
// (align, sret, dereferenceable, dereferenceableornull) or is the
// "kind"="value" / #N forms, both handled specially in the parser.
var paramAttrKeywords = map[string]bool{
	"zeroext": true, "signext": true, "inreg": true, "byval": true,
	"inalloca": true, "readonly": true, "noalias": true, "nocapture": true,
	"nofree": true, "nest": true, "returned": true, "nonnull": true,
	"noundef": true, "swiftself": true, "swifterror": true, "immarg": true,
	"writeonly": true,
}

var funcAttrKeywords = map[string]bool{
	"alwaysinline": true, "builtin": true, "cold": true, "convergent": true,
	"inaccessiblememonly": true, "inaccessiblememorargmemonly": true,
	"inlinehint": true, "jumptable": true, "minimizesize": true, "naked": true,
	"nobuiltin": true, "nocfcheck": true, "noduplicate": true, "nofree": true,
	"noimplicitfloat": true, "noinline": true, "nonlazybind": true,
	"noredzone": true, "noreturn": true, "norecurse": true, "willreturn": true,
	"returnstwice": true, "nosync": true, "nounwind": true,
	"optforfuzzing": true, "optnone": true, "optsize": true, "readnone": true,
	"readonly": true, "writeonly": true, "argmemonly": true, "safestack": true,
	"sanitizeaddress": true, "sanitizememory": true, "sanitizethread": true,
	"sanitizehwaddress": true, "sanitizememtag": true, "shadowcallstack": true,
	"speculativeloadhardening": true, "speculatable": true, "ssp": true,
	"sspreq": true, "sspstrong": true, "strictfp": true, "uwtable": true,
}

// Parser consumes tokens from a Lexer and builds an *ir.Module.
type Parser struct {
	lex  *Lexer
	tok  Token
	peek *Token
}

// Parse parses the textual IR source and returns the resulting module, or
// a parse error with a line-number hint.
func Parse(src string) (*ir.Module, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p.parseModule()
}

func (p *Parser) next() error {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return nil
	}
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *Parser) peekTok() (Token, error) {
	if p.peek == nil {
		t, err := p.lex.Next()
		if err != nil {
			return Token{}, err
		}
		p.peek = &t
	}
	return *p.peek, nil
}

func (p *Parser) is(kind TokenKind, text string) bool {
	return p.tok.Kind == kind && (text == "" || p.tok.Text == text)
}

func (p *Parser) isKeyword(kw string) bool { return p.is(TokIdent, kw) }

func (p *Parser) expectPunct(s string) error {
	if !p.is(TokPunct, s) {
		return errf(p.tok.Line, "expected %q, got %q", s, p.tok.Text)
	}
	return p.next()
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return errf(p.tok.Line, "expected %q, got %q", kw, p.tok.Text)
	}
	return p.next()
}

// fnState tracks the name resolution context local to one function body.
type fnState struct {
	f           *ir.Function
	valueByName map[string]ir.Value
	blockByName map[string]ir.BlockID
	pendingPhi  []pendingPhi
}

type pendingPhi struct {
	id       ir.InstID
	incoming []rawIncoming
}

type rawIncoming struct {
	valName, blockName string
	constVal           *ir.Value
}

func (p *Parser) parseModule() (*ir.Module, error) {
	m := ir.NewModule()
	for p.tok.Kind != TokEOF {
		switch {
		case p.isKeyword("source_filename"):
			if err := p.next(); err != nil {
				return nil, err
			}
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			m.SourceFilename = p.tok.Text
			if err := p.next(); err != nil {
				return nil, err
			}
		case p.isKeyword("target"):
			if err := p.next(); err != nil {
				return nil, err
			}
			kind := p.tok.Text // "datalayout" or "triple"
			if err := p.next(); err != nil {
				return nil, err
			}
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			val := p.tok.Text
			if kind == "triple" {
				m.TargetTriple = val
			} else {
				m.DataLayout = val
			}
			if err := p.next(); err != nil {
				return nil, err
			}
		case p.isKeyword("define"):
			if err := p.parseFunction(m, false); err != nil {
				return nil, err
			}
		case p.isKeyword("declare"):
			if err := p.parseFunction(m, true); err != nil {
				return nil, err
			}
		case p.tok.Kind == TokGlobal:
			if err := p.parseGlobal(m); err != nil {
				return nil, err
			}
		case p.is(TokPunct, "!"):
			// named/numbered metadata: skipped to the end of the line and
			// not stored; Module.Metadata stays empty.
			if err := p.skipMetadataLine(); err != nil {
				return nil, err
			}
		case p.isKeyword("attributes"):
			if err := p.parseAttrGroup(m); err != nil {
				return nil, err
			}
		default:
			return nil, errf(p.tok.Line, "unexpected top-level token %q", p.tok.Text)
		}
	}
	return m, nil
}

func (p *Parser) skipMetadataLine() error {
	line := p.tok.Line
	for p.tok.Line == line && p.tok.Kind != TokEOF {
		if err := p.next(); err != nil {
			return err
		}
	}
	return nil
}

// parseAttrGroup parses `attributes #N = { kw kw "k"="v" ... }`.
func (p *Parser) parseAttrGroup(m *ir.Module) error {
	if err := p.next(); err != nil { // consume 'attributes'
		return err
	}
	if len(p.tok.Text) == 0 || p.tok.Text[0] != '#' {
		return errf(p.tok.Line, "expected #N, got %q", p.tok.Text)
	}
	idText := p.tok.Text[1:]
	id := 0
	for i := 0; i < len(idText); i++ {
		id = id*10 + int(idText[i]-'0')
	}
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	var attrs []string
	for !p.is(TokPunct, "}") {
		a, err := p.consumeAttr(m)
		if err != nil {
			return err
		}
		attrs = append(attrs, a)
	}
	if err := p.expectPunct("}"); err != nil {
		return err
	}
	m.AttrGroups[id] = ir.AttrGroup{ID: id, Attrs: attrs}
	return nil
}

// parseType parses a type per the grammar of spec.md §6.
func (p *Parser) parseType(m *ir.Module) (ir.TypeID, error) {
	var base ir.TypeID
	switch {
	case p.isKeyword("void"):
		base = ir.Void
		if err := p.next(); err != nil {
			return 0, err
		}
	case p.isKeyword("metadata"):
		base = ir.Metadata
		if err := p.next(); err != nil {
			return 0, err
		}
	case p.tok.Kind == TokIdent && len(p.tok.Text) > 1 && p.tok.Text[0] == 'i' && isAllDigits(p.tok.Text[1:]):
		bits, _ := strconv.Atoi(p.tok.Text[1:])
		switch bits {
		case 1:
			base = ir.I1
		case 8:
			base = ir.I8
		case 16:
			base = ir.I16
		case 32:
			base = ir.I32
		case 64:
			base = ir.I64
		default:
			return 0, &ir.UnsupportedFeatureError{Feature: "integer width i" + p.tok.Text[1:]}
		}
		if err := p.next(); err != nil {
			return 0, err
		}
	case p.tok.Kind == TokLocal:
		name := p.tok.Text
		if err := p.next(); err != nil {
			return 0, err
		}
		base = m.Types.Named(name, ir.Void)
	case p.is(TokPunct, "["):
		if err := p.next(); err != nil {
			return 0, err
		}
		if p.tok.Kind != TokInt {
			return 0, errf(p.tok.Line, "expected array length")
		}
		n := int(p.tok.Int)
		if err := p.next(); err != nil {
			return 0, err
		}
		if err := p.expectKeyword("x"); err != nil {
			return 0, err
		}
		elem, err := p.parseType(m)
		if err != nil {
			return 0, err
		}
		if err := p.expectPunct("]"); err != nil {
			return 0, err
		}
		base = m.Types.Array(elem, n)
	case p.is(TokPunct, "{") || p.is(TokPunct, "<"):
		packed := p.is(TokPunct, "<")
		if packed {
			if err := p.next(); err != nil {
				return 0, err
			}
		}
		if err := p.expectPunct("{"); err != nil {
			return 0, err
		}
		var fields []ir.TypeID
		for !p.is(TokPunct, "}") {
			f, err := p.parseType(m)
			if err != nil {
				return 0, err
			}
			fields = append(fields, f)
			if p.is(TokPunct, ",") {
				if err := p.next(); err != nil {
					return 0, err
				}
			}
		}
		if err := p.expectPunct("}"); err != nil {
			return 0, err
		}
		if packed {
			if err := p.expectPunct(">"); err != nil {
				return 0, err
			}
		}
		base = m.Types.Struct(fields, packed)
	default:
		return 0, errf(p.tok.Line, "expected type, got %q", p.tok.Text)
	}

	// postfix: pointer stars. Function types `T (T, ...)` are not parsed.
	for {
		if p.is(TokPunct, "*") {
			base = m.Types.Pointer(base)
			if err := p.next(); err != nil {
				return 0, err
			}
			continue
		}
		break
	}
	return base, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// consumeAttr consumes one parameter- or function-attribute token,
// returning its textual spelling. Parenthesized-argument attributes
// (align(N), sret(ty), dereferenceable(N)) are consumed whole.
func (p *Parser) consumeAttr(m *ir.Module) (string, error) {
	if p.tok.Kind == TokString {
		kind := p.tok.Text
		if err := p.next(); err != nil {
			return "", err
		}
		spelling := `"` + kind + `"`
		if p.is(TokPunct, "=") {
			if err := p.next(); err != nil {
				return "", err
			}
			val := p.tok.Text
			spelling += `="` + val + `"`
			if err := p.next(); err != nil {
				return "", err
			}
		}
		return spelling, nil
	}
	if len(p.tok.Text) > 0 && p.tok.Text[0] == '#' {
		spelling := p.tok.Text
		if err := p.next(); err != nil {
			return "", err
		}
		return spelling, nil
	}
	name := p.tok.Text
	if err := p.next(); err != nil {
		return "", err
	}
	switch name {
	case "align", "dereferenceable", "dereferenceableornull":
		if p.is(TokPunct, "(") {
			if err := p.next(); err != nil {
				return "", err
			}
			n := p.tok.Text
			if err := p.next(); err != nil {
				return "", err
			}
			if err := p.expectPunct(")"); err != nil {
				return "", err
			}
			return name + "(" + n + ")", nil
		}
	case "sret":
		if p.is(TokPunct, "(") {
			if err := p.next(); err != nil {
				return "", err
			}
			ty, err := p.parseType(m)
			if err != nil {
				return "", err
			}
			if err := p.expectPunct(")"); err != nil {
				return "", err
			}
			return "sret(" + m.Types.String(ty) + ")", nil
		}
	}
	return name, nil
}
