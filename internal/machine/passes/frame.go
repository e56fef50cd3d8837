package passes

import (
	"sort"

	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// insertPrologueEpilogue emits the System V frame setup/teardown
// around mf's entry and every RET (spec.md §4.6). Must run after slot
// offsets are known (lowerSlots has already called
// EnsureComputedOffsets, which is idempotent).
func insertPrologueEpilogue(mf *machine.Function) {
	slotSize := mf.EnsureComputedOffsets()
	csr := sortedClobbered(mf)
	saved64 := 1 + len(csr)
	adj := roundUp(slotSize+8*saved64+8, 16) - 8*saved64 - 8

	insertPrologue(mf, csr, adj)
	insertEpilogues(mf, csr, adj)
}

// sortedClobbered returns the callee-saved registers the allocator
// found clobbered, in a deterministic (numeric) order.
func sortedClobbered(mf *machine.Function) []regalloc.RealReg {
	var out []regalloc.RealReg
	for r := range mf.Clobbered() {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// insertPrologue emits, at the very start of the entry block in
// program order: PUSH RBP; PUSH r for each r in csr; MOV RBP, RSP;
// SUB RSP, adj (spec.md §4.6 step 4). Each InsertBefore call targets
// the block's original first instruction, so building them in this
// order yields that exact sequence.
func insertPrologue(mf *machine.Function, csr []regalloc.RealReg, adj int) {
	entry := mf.AllBlockIDs()[0]
	ids := mf.InstIDsOf(entry)
	var anchor machine.InstID = machine.InstIDInvalid
	if len(ids) > 0 {
		anchor = ids[0]
	}

	insert := func(inst machine.Instruction) {
		mf.InsertBefore(entry, anchor, inst)
	}

	insert(push(amd64.RBP))
	for _, r := range csr {
		insert(push(r))
	}
	insert(machine.NewInst(machine.OpMOVrr64,
		machine.PhysOperand(amd64.RBP, false, true),
		machine.PhysOperand(amd64.RSP, true, false)))
	if adj > 0 {
		insert(machine.NewInst(machine.OpSUB,
			machine.PhysOperand(amd64.RSP, true, true),
			machine.Imm32Operand(int32(adj))))
	}
}

// insertEpilogues emits, immediately before every RET: ADD RSP, adj
// (if present); POP r for each r in csr in reverse; POP RBP
// (spec.md §4.6 step 5).
func insertEpilogues(mf *machine.Function, csr []regalloc.RealReg, adj int) {
	for _, bid := range mf.AllBlockIDs() {
		for _, iid := range mf.InstIDsOf(bid) {
			inst := mf.Inst(iid)
			if inst.Opcode() != machine.OpRET {
				continue
			}
			if adj > 0 {
				mf.InsertBefore(bid, iid, machine.NewInst(machine.OpADD,
					machine.PhysOperand(amd64.RSP, true, true),
					machine.Imm32Operand(int32(adj))))
			}
			for i := len(csr) - 1; i >= 0; i-- {
				mf.InsertBefore(bid, iid, pop(csr[i]))
			}
			mf.InsertBefore(bid, iid, pop(amd64.RBP))
		}
	}
}

func push(r regalloc.RealReg) machine.Instruction {
	return machine.NewInst(machine.OpPUSH64, machine.PhysOperand(r, true, false))
}

func pop(r regalloc.RealReg) machine.Instruction {
	return machine.NewInst(machine.OpPOP64, machine.PhysOperand(r, false, true))
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}
