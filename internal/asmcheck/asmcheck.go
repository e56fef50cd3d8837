// Package asmcheck is a test-only helper that cross-checks the
// register/opcode shapes this back end emits against a real x86-64
// encoder, so a printer bug that names an unencodable combination (a
// transposed operand, a register golang-asm would reject) fails a
// test instead of silently producing bogus-but-plausible-looking text.
//
// It is grounded on internal/asm/golang_asm's wrapper around
// github.com/twitchyliquid64/golang-asm, trimmed down to the handful
// of addressing forms this back end's printer ever produces: reg-reg,
// reg-mem (with an optional scaled index), reg-imm, and bare
// single-register forms (push/pop).
package asmcheck

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// builder wraps a golang-asm Builder so callers can emit one
// instruction and immediately ask whether it assembled cleanly.
type builder struct {
	b *goasm.Builder
}

func newBuilder() (*builder, error) {
	b, err := goasm.NewBuilder("amd64", 16)
	if err != nil {
		return nil, fmt.Errorf("asmcheck: %w", err)
	}
	return &builder{b: b}, nil
}

func (bu *builder) assemble(p *obj.Prog) (err error) {
	bu.b.AddInstruction(p)
	defer func() {
		// golang-asm panics rather than erroring on some malformed
		// encodings; convert that into a plain error for callers.
		if r := recover(); r != nil {
			err = fmt.Errorf("asmcheck: %v", r)
		}
	}()
	bu.b.Assemble()
	return nil
}

// regOp maps one of our RealReg ids, at a given width, to golang-asm's
// register constant.
func regOp(r regalloc.RealReg, width int) int16 {
	if width > 4 {
		return reg64[r]
	}
	return reg32[r]
}

var reg64 = map[regalloc.RealReg]int16{
	amd64.RAX: x86.REG_AX, amd64.RCX: x86.REG_CX, amd64.RDX: x86.REG_DX,
	amd64.RBX: x86.REG_BX, amd64.RSP: x86.REG_SP, amd64.RBP: x86.REG_BP,
	amd64.RSI: x86.REG_SI, amd64.RDI: x86.REG_DI,
	amd64.R8: x86.REG_R8, amd64.R9: x86.REG_R9, amd64.R10: x86.REG_R10,
	amd64.R11: x86.REG_R11, amd64.R12: x86.REG_R12, amd64.R13: x86.REG_R13,
	amd64.R14: x86.REG_R14, amd64.R15: x86.REG_R15,
}

var reg32 = map[regalloc.RealReg]int16{
	amd64.RAX: x86.REG_AX, amd64.RCX: x86.REG_CX, amd64.RDX: x86.REG_DX,
	amd64.RBX: x86.REG_BX, amd64.RSP: x86.REG_SP, amd64.RBP: x86.REG_BP,
	amd64.RSI: x86.REG_SI, amd64.RDI: x86.REG_DI,
	amd64.R8: x86.REG_R8, amd64.R9: x86.REG_R9, amd64.R10: x86.REG_R10,
	amd64.R11: x86.REG_R11, amd64.R12: x86.REG_R12, amd64.R13: x86.REG_R13,
	amd64.R14: x86.REG_R14, amd64.R15: x86.REG_R15,
}

// opcodeFor maps the subset of machine.Opcode this package supports
// checking to golang-asm's As constants, split by operand width.
func opcodeFor(op machine.Opcode, width int) (int16, error) {
	wide := width > 4
	switch op {
	case machine.OpMOVri32, machine.OpMOVri64, machine.OpMOVrr32, machine.OpMOVrr64,
		machine.OpMOVrm32, machine.OpMOVrm64, machine.OpMOVmr32, machine.OpMOVmr64:
		if wide {
			return x86.AMOVQ, nil
		}
		return x86.AMOVL, nil
	case machine.OpLEA:
		return x86.ALEAQ, nil
	case machine.OpADD:
		if wide {
			return x86.AADDQ, nil
		}
		return x86.AADDL, nil
	case machine.OpSUB:
		if wide {
			return x86.ASUBQ, nil
		}
		return x86.ASUBL, nil
	case machine.OpCMP:
		if wide {
			return x86.ACMPQ, nil
		}
		return x86.ACMPL, nil
	case machine.OpTEST:
		if wide {
			return x86.ATESTQ, nil
		}
		return x86.ATESTL, nil
	case machine.OpPUSH64:
		return x86.APUSHQ, nil
	case machine.OpPOP64:
		return x86.APOPQ, nil
	case machine.OpCALL:
		return x86.ACALL, nil
	case machine.OpRET:
		return x86.ARET, nil
	case machine.OpJMP:
		return x86.AJMP, nil
	default:
		return 0, fmt.Errorf("asmcheck: unsupported opcode %s", op)
	}
}

// RegReg checks that `op dst, src` (both plain registers) is a shape
// golang-asm accepts, at the given operand width in bytes (4 or 8).
func RegReg(op machine.Opcode, width int, dst, src regalloc.RealReg) error {
	bu, err := newBuilder()
	if err != nil {
		return err
	}
	as, err := opcodeFor(op, width)
	if err != nil {
		return err
	}
	p := bu.b.NewProg()
	p.As = obj.As(as)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = regOp(dst, width)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = regOp(src, width)
	return bu.assemble(p)
}

// RegImm checks that `op dst, imm` is a valid shape.
func RegImm(op machine.Opcode, width int, dst regalloc.RealReg, imm int32) error {
	bu, err := newBuilder()
	if err != nil {
		return err
	}
	as, err := opcodeFor(op, width)
	if err != nil {
		return err
	}
	p := bu.b.NewProg()
	p.As = obj.As(as)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = regOp(dst, width)
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = int64(imm)
	return bu.assemble(p)
}

// RegMem checks that `op dst, [base + index*scale + disp]` is a valid
// shape. index is only used when hasIndex is true.
func RegMem(op machine.Opcode, width int, dst, base regalloc.RealReg, disp int32, index regalloc.RealReg, hasIndex bool, scale int32) error {
	bu, err := newBuilder()
	if err != nil {
		return err
	}
	as, err := opcodeFor(op, width)
	if err != nil {
		return err
	}
	p := bu.b.NewProg()
	p.As = obj.As(as)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = regOp(dst, width)
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = regOp(base, 8)
	p.From.Offset = int64(disp)
	if hasIndex {
		p.From.Index = regOp(index, 8)
		p.From.Scale = int16(scale)
	}
	return bu.assemble(p)
}

// Single checks a bare single-register form (push/pop).
func Single(op machine.Opcode, r regalloc.RealReg) error {
	bu, err := newBuilder()
	if err != nil {
		return err
	}
	as, err := opcodeFor(op, 8)
	if err != nil {
		return err
	}
	p := bu.b.NewProg()
	p.As = obj.As(as)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = regOp(r, 8)
	p.To.Type = obj.TYPE_NONE
	return bu.assemble(p)
}
