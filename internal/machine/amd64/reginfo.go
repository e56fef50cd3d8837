// Package amd64 supplies the two ISA-specific capabilities spec.md §9
// calls for: a register-info table (argument order, callee/caller-saved
// sets) and an instruction-info/printer pair that knows how to render
// machine instructions as Intel-syntax text. Nothing in internal/machine
// or internal/machine/regalloc depends on this package; it is wired in
// by internal/machine/lower, internal/machine/passes, internal/asmcheck
// and cmd/llc (the printer), mirroring wazevo's isa/amd64 boundary.
package amd64

import "github.com/gocc/llc/internal/machine/regalloc"

// Physical register ids. The numbering matches the ModRM/REX encoding
// order a real assembler would use (not that this back end emits
// machine code — only text — but it keeps RealReg values meaningful
// if an encoder is ever added).
const (
	RAX regalloc.RealReg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	numRegs
)

// ArgRegs is the System V integer argument-register order (spec.md
// §4.1 "copy_args_to_vregs ... RDI, RSI, RDX, RCX, R8, R9").
var ArgRegs = []regalloc.RealReg{RDI, RSI, RDX, RCX, R8, R9}

// names64/32/16/8 give each register's spelling at a given operand
// width, for the printer.
var names64 = map[regalloc.RealReg]string{
	RAX: "rax", RCX: "rcx", RDX: "rdx", RBX: "rbx", RSP: "rsp", RBP: "rbp",
	RSI: "rsi", RDI: "rdi", R8: "r8", R9: "r9", R10: "r10", R11: "r11",
	R12: "r12", R13: "r13", R14: "r14", R15: "r15",
}

var names32 = map[regalloc.RealReg]string{
	RAX: "eax", RCX: "ecx", RDX: "edx", RBX: "ebx", RSP: "esp", RBP: "ebp",
	RSI: "esi", RDI: "edi", R8: "r8d", R9: "r9d", R10: "r10d", R11: "r11d",
	R12: "r12d", R13: "r13d", R14: "r14d", R15: "r15d",
}

// Name64 returns r's 64-bit spelling (used for PUSH/POP/LEA/addresses).
func Name64(r regalloc.RealReg) string { return names64[r] }

// Name32 returns r's 32-bit spelling (used for the i32-only arithmetic
// this subset's MOV/ADD/SUB/CMP opcodes cover).
func Name32(r regalloc.RealReg) string { return names32[r] }

// NameForWidth dispatches to Name32 or Name64 by byte width.
func NameForWidth(r regalloc.RealReg, widthBytes int) string {
	if widthBytes > 4 {
		return Name64(r)
	}
	return Name32(r)
}

// calleeSaved is the System V callee-saved set this back end tracks
// for prologue/epilogue purposes; RSP/RBP are handled specially by
// the prologue pass itself and excluded here.
var calleeSaved = map[regalloc.RealReg]bool{
	RBX: true, R12: true, R13: true, R14: true, R15: true,
}

var callerSaved = map[regalloc.RealReg]bool{
	RAX: true, RCX: true, RDX: true, RSI: true, RDI: true,
	R8: true, R9: true, R10: true, R11: true,
}

// allocatable lists candidate registers in preference order: caller-saved
// scratch registers first (cheapest — no save/restore), then
// callee-saved, with RAX last since it is also the call-result and
// return-value register and is best kept free for those roles, and
// R11 listed last as RegisterInfo.ScratchReg, which Allocatable()
// removes so the allocator never assigns it.
var allocatable = []regalloc.RealReg{
	RCX, RDX, RSI, RDI, R8, R9, R10,
	RBX, R12, R13, R14, R15,
	RAX,
	R11, // ScratchReg, see RegisterInfo below.
}

// RegisterInfo is the RegisterInfo regalloc.Allocate consults for this
// target.
var RegisterInfo = &regalloc.RegisterInfo{
	AllocatableRegisters: allocatable,
	CalleeSavedRegisters: calleeSaved,
	CallerSavedRegisters: callerSaved,
	RealRegName:          Name64,
	ScratchReg:           R11,
}
