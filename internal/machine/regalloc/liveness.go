package regalloc

// Liveness holds the result of program-point numbering and per-block
// dataflow for one function (spec.md §4.2). It is rebuilt from scratch
// after every spill round, since spilling inserts new instructions and
// shortens the live ranges of the vregs it rewrites.
type Liveness struct {
	pointOf   map[Instr]ProgramPoint
	instrAt   map[ProgramPoint]Instr
	blockSpan map[int]vregRange // block id -> [first point, last point]
	ranges    [][]vregRange     // ranges[vreg] = sorted, non-overlapping live segments
	lastPoint ProgramPoint
}

// computeLiveness numbers every instruction in f and runs block-level
// liveness dataflow to a fixpoint, then derives per-vreg live segments.
func computeLiveness(f Function) *Liveness {
	blocks := f.Blocks()
	lv := &Liveness{
		pointOf:   make(map[Instr]ProgramPoint),
		instrAt:   make(map[ProgramPoint]Instr),
		blockSpan: make(map[int]vregRange),
		ranges:    make([][]vregRange, f.NumVRegs()),
	}

	var pp ProgramPoint
	for _, b := range blocks {
		first := pp
		for _, inst := range b.Instrs() {
			lv.pointOf[inst] = pp
			lv.instrAt[pp] = inst
			pp += programPointGap
		}
		last := pp
		lv.blockSpan[b.ID()] = vregRange{start: first, end: last}
	}
	lv.lastPoint = pp

	byID := make(map[int]Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID()] = b
	}

	uevar := make(map[int]map[VReg]bool, len(blocks))
	varkill := make(map[int]map[VReg]bool, len(blocks))
	for _, b := range blocks {
		ue := map[VReg]bool{}
		vk := map[VReg]bool{}
		for _, inst := range b.Instrs() {
			for _, u := range inst.Uses() {
				if !vk[u] {
					ue[u] = true
				}
			}
			for _, d := range inst.Defs() {
				vk[d] = true
			}
		}
		uevar[b.ID()] = ue
		varkill[b.ID()] = vk
	}

	liveIn := make(map[int]map[VReg]bool, len(blocks))
	liveOut := make(map[int]map[VReg]bool, len(blocks))
	for _, b := range blocks {
		liveIn[b.ID()] = map[VReg]bool{}
		liveOut[b.ID()] = map[VReg]bool{}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range blocks {
			out := map[VReg]bool{}
			for _, s := range b.Succs() {
				for v := range liveIn[s] {
					out[v] = true
				}
			}
			in := map[VReg]bool{}
			for v := range uevar[b.ID()] {
				in[v] = true
			}
			for v := range out {
				if !varkill[b.ID()][v] {
					in[v] = true
				}
			}
			if !setEqual(in, liveIn[b.ID()]) || !setEqual(out, liveOut[b.ID()]) {
				changed = true
			}
			liveIn[b.ID()] = in
			liveOut[b.ID()] = out
		}
	}

	// Derive exact per-vreg live segments by walking each block
	// backwards from its liveOut set, per spec.md §4.2 "live segment
	// construction".
	openAt := make([]ProgramPoint, f.NumVRegs())
	for i := range openAt {
		openAt[i] = -1
	}
	for _, b := range blocks {
		span := lv.blockSpan[b.ID()]
		instrs := b.Instrs()
		live := map[VReg]bool{}
		for v := range liveOut[b.ID()] {
			live[v] = true
			openAt[v] = span.end
		}
		for i := len(instrs) - 1; i >= 0; i-- {
			inst := instrs[i]
			p := lv.pointOf[inst]
			for _, d := range inst.Defs() {
				if live[d] {
					lv.addRange(d, p, openAt[d])
				} else {
					lv.addRange(d, p, p+1)
				}
				delete(live, d)
				openAt[d] = -1
			}
			for _, u := range inst.Uses() {
				if !live[u] {
					live[u] = true
					openAt[u] = p + 1
				}
			}
		}
		for v := range live {
			lv.addRange(v, span.start, openAt[v])
			openAt[v] = span.start
		}
	}

	for v := range lv.ranges {
		sortRanges(lv.ranges[v])
	}
	return lv
}

func (lv *Liveness) addRange(v VReg, start, end ProgramPoint) {
	if end <= start {
		end = start + 1
	}
	lv.ranges[v] = append(lv.ranges[v], vregRange{start: start, end: end})
}

// PointOf returns the program point at which inst was numbered.
func (lv *Liveness) PointOf(inst Instr) ProgramPoint { return lv.pointOf[inst] }

// Ranges returns v's live segments, earliest first.
func (lv *Liveness) Ranges(v VReg) []vregRange { return lv.ranges[v] }

// FirstUse returns the program point at which v's earliest live
// segment begins, or -1 if v is never live.
func (lv *Liveness) FirstUse(v VReg) ProgramPoint {
	if len(lv.ranges[v]) == 0 {
		return -1
	}
	return lv.ranges[v][0].start
}

// LiveAcrossCall reports whether v has a live segment spanning a call
// instruction at program point callPoint (spec.md §4.3 "vregs alive
// around a call site").
func (lv *Liveness) LiveAcrossCall(v VReg, callPoint ProgramPoint) bool {
	for _, r := range lv.ranges[v] {
		if r.start <= callPoint && callPoint < r.end {
			return true
		}
	}
	return false
}

func setEqual(a, b map[VReg]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func sortRanges(rs []vregRange) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j-1].start > rs[j].start; j-- {
			rs[j-1], rs[j] = rs[j], rs[j-1]
		}
	}
}
