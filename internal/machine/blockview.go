package machine

import "github.com/gocc/llc/internal/machine/regalloc"

// blockView adapts a machine function's block/layout storage to the
// regalloc.Block interface without copying the instruction list on
// every call; Instrs() is only materialized when asked.
type blockView struct {
	f  *Function
	id BlockID
}

func (v *blockView) ID() int { return int(v.id) }

func (v *blockView) Preds() []int {
	ps := v.f.Block(v.id).Preds()
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = int(p)
	}
	return out
}

func (v *blockView) Succs() []int {
	ss := v.f.Block(v.id).Succs()
	out := make([]int, len(ss))
	for i, s := range ss {
		out[i] = int(s)
	}
	return out
}

func (v *blockView) Instrs() []regalloc.Instr {
	ids := v.f.InstIDsOf(v.id)
	out := make([]regalloc.Instr, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.f.Inst(id))
	}
	return out
}
