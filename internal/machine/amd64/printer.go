package amd64

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine"
)

// Print renders mm as Intel-syntax x86-64 assembly with no prefix
// (spec.md §6 "Output"). One .text section per module; declared
// (bodiless) functions are skipped entirely since they have nothing
// local to emit.
func Print(mm *machine.Module) string {
	var b strings.Builder
	b.WriteString(".text\n")
	for _, fn := range mm.Functions {
		if fn.Declare {
			continue
		}
		printFunction(&b, fn)
	}
	for _, g := range mm.Globals {
		printGlobal(&b, mm.Types, g)
	}
	return b.String()
}

func printFunction(b *strings.Builder, fn *machine.Function) {
	fmt.Fprintf(b, ".globl %s\n", fn.Name)
	fmt.Fprintf(b, "%s:\n", fn.Name)
	for k, bid := range fn.AllBlockIDs() {
		if k > 0 {
			fmt.Fprintf(b, "%s:\n", blockLabel(fn, bid))
		}
		for _, iid := range fn.InstIDsOf(bid) {
			printInst(b, fn, fn.Inst(iid))
		}
	}
}

// printInst renders one instruction, two-space indented, in the
// schematic forms spec.md §6 gives (`mov dword ptr [rbp-4], 2`,
// `add ecx, 1`, `ret`).
func printInst(b *strings.Builder, fn *machine.Function, inst *machine.Instruction) {
	switch inst.Opcode() {
	case machine.OpRET:
		b.WriteString("  ret\n")
		return
	case machine.OpJMP:
		fmt.Fprintf(b, "  jmp %s\n", blockLabel(fn, inst.Operands[0].Block))
		return
	case machine.OpJcc:
		fmt.Fprintf(b, "  j%s %s\n", inst.Cond, blockLabel(fn, inst.Operands[0].Block))
		return
	case machine.OpCALL:
		fmt.Fprintf(b, "  call %s\n", inst.Callee)
		return
	case machine.OpPUSH64:
		fmt.Fprintf(b, "  push %s\n", operandText(fn, inst.Operands[0], 8))
		return
	case machine.OpPOP64:
		fmt.Fprintf(b, "  pop %s\n", operandText(fn, inst.Operands[0], 8))
		return
	}

	mnemonic := inst.Opcode().String()
	width := widthOf(inst.Opcode())
	if len(inst.Operands) > 0 && inst.Operands[0].Kind == machine.OperandPhysReg && inst.Operands[0].Reg == RSP {
		// frame adjustment (`sub rsp, adj` / `add rsp, adj`) is 64-bit.
		width = 8
	}
	parts := make([]string, 0, len(inst.Operands))
	i := 0
	for i < len(inst.Operands) {
		o := inst.Operands[i]
		if o.Kind == machine.OperandMemStart {
			parts = append(parts, memText(fn, inst.Operands[i+1:i+1+machine.MemSlotCount], width))
			i += 1 + machine.MemSlotCount
			continue
		}
		parts = append(parts, operandText(fn, o, width))
		i++
	}
	fmt.Fprintf(b, "  %s %s\n", mnemonic, strings.Join(parts, ", "))
}

// widthOf returns the operand width in bytes an opcode's register/
// memory operands print at.
func widthOf(op machine.Opcode) int {
	switch op {
	case machine.OpMOVri64, machine.OpMOVrr64, machine.OpMOVrm64, machine.OpMOVmr64, machine.OpLEA:
		return 8
	default:
		return 4
	}
}

// blockLabel renders bid as `.LBL<n>_<k>`, block-index-scoped: n is
// the block's own id, k its position in layout order (spec.md §6).
func blockLabel(fn *machine.Function, bid machine.BlockID) string {
	for k, id := range fn.AllBlockIDs() {
		if id == bid {
			return fmt.Sprintf(".LBL%d_%d", bid, k)
		}
	}
	return fmt.Sprintf(".LBL%d_?", bid)
}

func operandText(fn *machine.Function, o machine.Operand, width int) string {
	switch o.Kind {
	case machine.OperandPhysReg:
		return NameForWidth(o.Reg, width)
	case machine.OperandImm32:
		return strconv.Itoa(int(o.Imm))
	case machine.OperandGlobalAddress:
		return "offset " + o.Global
	default:
		return "?"
	}
}

// memText renders a five-entry memory payload group (slot, disp, base,
// index, scale) as `size ptr [base + index*scale + disp]` with
// omitted zero components (spec.md §6). Only reachable after slot
// lowering has run, so base is always a PhysReg.
func memText(fn *machine.Function, mem []machine.Operand, width int) string {
	disp, base, index, scale := mem[1], mem[2], mem[3], mem[4]

	var sb strings.Builder
	sb.WriteString(ptrSize(width))
	sb.WriteString(" ptr [")
	wrote := false
	if base.Kind == machine.OperandPhysReg {
		sb.WriteString(Name64(base.Reg))
		wrote = true
	}
	if index.Kind == machine.OperandPhysReg && scale.Imm != 0 {
		if wrote {
			sb.WriteString(" + ")
		}
		fmt.Fprintf(&sb, "%s*%d", Name64(index.Reg), scale.Imm)
		wrote = true
	}
	if disp.Imm != 0 || !wrote {
		if disp.Imm < 0 {
			fmt.Fprintf(&sb, "-%d", -disp.Imm)
		} else if wrote {
			fmt.Fprintf(&sb, " + %d", disp.Imm)
		} else {
			fmt.Fprintf(&sb, "%d", disp.Imm)
		}
	}
	sb.WriteString("]")
	return sb.String()
}

func ptrSize(width int) string {
	if width > 4 {
		return "qword"
	}
	return "dword"
}

// printGlobal emits a string-array global's backing data (spec.md §6
// "Global variables with string-array initializers emit .string").
// Scalar-initialized globals are out of this subset's emission path
// (no data section layout beyond strings is specified).
func printGlobal(b *strings.Builder, types *ir.Table, g *ir.GlobalVar) {
	if !g.HasInitStr {
		return
	}
	fmt.Fprintf(b, "%s:\n", g.Name)
	fmt.Fprintf(b, "  .string %q\n", g.InitString)
}
