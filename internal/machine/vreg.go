package machine

import (
	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// VRegUse records one {instruction, reads?, writes?} row of the
// vreg-users map (spec.md §3 "per-function vreg-users map").
type VRegUse struct {
	Inst  InstID
	Reads bool
	Write bool
}

// vregTable mints dense vreg ids and tracks each vreg's IR type and
// its use/def rows.
type vregTable struct {
	types []ir.TypeID
	users [][]VRegUse
}

func newVRegTable() *vregTable {
	return &vregTable{}
}

// New mints a fresh vreg of the given IR type.
func (t *vregTable) New(ty ir.TypeID) regalloc.VReg {
	id := regalloc.VReg(len(t.types))
	t.types = append(t.types, ty)
	t.users = append(t.users, nil)
	return id
}

// NumVRegs returns one past the highest minted vreg id.
func (t *vregTable) NumVRegs() int { return len(t.types) }

// TypeOf returns the IR type a vreg was minted with.
func (t *vregTable) TypeOf(v regalloc.VReg) ir.TypeID { return t.types[v] }

// recordUse appends a {inst, reads, writes} row for v. Called by
// AppendInst whenever an instruction mentions a vreg operand.
func (t *vregTable) recordUse(v regalloc.VReg, inst InstID, reads, writes bool) {
	t.users[v] = append(t.users[v], VRegUse{Inst: inst, Reads: reads, Write: writes})
}

// Users returns the use/def rows recorded for v.
func (t *vregTable) Users(v regalloc.VReg) []VRegUse { return t.users[v] }
