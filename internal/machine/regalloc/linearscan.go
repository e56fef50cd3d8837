package regalloc

import "sort"

// maxSpillRounds bounds the spill/retry loop. Each round either
// succeeds or strictly reduces the number of simultaneously-live
// vregs, so this is a generous ceiling rather than an expected count.
const maxSpillRounds = 64

// Allocate runs linear-scan register allocation with spilling over f,
// per spec.md §4.3. Step 2 first spills every vreg live across a call
// unconditionally, then it repeatedly numbers the function, attempts a
// scan, and on failure asks the spiller to rewrite the offending vreg
// before retrying, until every vreg gets a physical register.
func Allocate(f Function, ri *RegisterInfo) error {
	if err := spillCallCrossingVRegs(f); err != nil {
		return err
	}
	for round := 0; round < maxSpillRounds; round++ {
		lv := computeLiveness(f)
		s := &scanner{f: f, ri: ri, lv: lv, assigned: make(map[VReg]RealReg)}
		spilled := s.run()
		if spilled == VRegInvalid {
			s.commit()
			f.Done()
			return nil
		}
		spillVReg(f, lv, spilled)
	}
	return &SpillLimitExceededError{}
}

// spillCallCrossingVRegs implements spec.md §4.3 step 2: every vreg
// live across a call is spilled before the main scan even starts,
// mirroring collect_vregs_alive_around_call being invoked
// unconditionally ahead of the worklist loop in the reference
// allocator. CALL carries no Defs()/Uses(), so nothing in the main
// scan otherwise stops a call-crossing vreg from landing in a
// caller-saved register once the callee-saved ones run out; spilling
// first is what actually guarantees caller-saved registers survive
// the call, rather than merely preferring that they do.
func spillCallCrossingVRegs(f Function) error {
	for round := 0; round < maxSpillRounds; round++ {
		lv := computeLiveness(f)
		victim, ok := firstCallCrossingVReg(f, lv)
		if !ok {
			return nil
		}
		spillVReg(f, lv, victim)
	}
	return &SpillLimitExceededError{}
}

// firstCallCrossingVReg returns the lowest-numbered vreg with a live
// range spanning some call instruction's program point, if any.
func firstCallCrossingVReg(f Function, lv *Liveness) (VReg, bool) {
	var callPoints []ProgramPoint
	for _, b := range f.Blocks() {
		for _, inst := range b.Instrs() {
			if inst.IsCall() {
				callPoints = append(callPoints, lv.PointOf(inst))
			}
		}
	}
	for v := 0; v < f.NumVRegs(); v++ {
		for _, cp := range callPoints {
			if lv.LiveAcrossCall(VReg(v), cp) {
				return VReg(v), true
			}
		}
	}
	return VRegInvalid, false
}

// SpillLimitExceededError is returned when allocation fails to
// converge within maxSpillRounds, which in practice indicates a
// vreg with more live, simultaneous uses than the target has
// registers for (spec.md §4.3 "at most two defs is a static error"
// class of unallocatable programs).
type SpillLimitExceededError struct{}

func (*SpillLimitExceededError) Error() string {
	return "regalloc: spill rounds exceeded, function is not allocatable"
}

// active is one currently live vreg occupying a physical register
// during the scan.
type active struct {
	vreg VReg
	reg  RealReg
	end  ProgramPoint
}

type scanner struct {
	f        Function
	ri       *RegisterInfo
	lv       *Liveness
	assigned map[VReg]RealReg
	active   []active
}

// run performs one linear-scan pass. It returns VRegInvalid on full
// success, or the vreg that needs to be spilled before retrying.
func (s *scanner) run() VReg {
	order := s.order()
	hints := s.copyHints()

	for _, v := range order {
		start := s.lv.FirstUse(v)
		if start < 0 {
			continue // never live, e.g. a def whose result is unused.
		}
		s.expireBefore(start)

		candidates := s.candidatesFor(v, hints)
		reg, ok := s.firstFree(candidates)
		if !ok {
			victim, ok := s.spillCandidate(v)
			if !ok {
				return v
			}
			return victim
		}
		end := rangeEnd(s.lv.Ranges(v))
		s.assigned[v] = reg
		s.active = append(s.active, active{vreg: v, reg: reg, end: end})
	}
	return VRegInvalid
}

// order returns vregs sorted by the program point their first live
// segment begins (spec.md §4.3 step 3).
func (s *scanner) order() []VReg {
	var order []VReg
	for v := 0; v < s.f.NumVRegs(); v++ {
		if s.lv.FirstUse(VReg(v)) >= 0 {
			order = append(order, VReg(v))
		}
	}
	sort.Slice(order, func(i, j int) bool {
		return s.lv.FirstUse(order[i]) < s.lv.FirstUse(order[j])
	})
	return order
}

// copyHints maps a vreg-to-vreg copy's destination to the physical
// register already hinted for its source, one hop per copy, each
// destination at most once (the seen set). Hints are never seeded
// from physical registers: Instr exposes only vreg operands, so a copy
// into or out of a fixed register contributes nothing, and the
// returned map is always empty.
func (s *scanner) copyHints() map[VReg]RealReg {
	hints := make(map[VReg]RealReg)
	seen := make(map[VReg]bool)
	for _, b := range s.f.Blocks() {
		for _, inst := range b.Instrs() {
			if !inst.IsCopy() {
				continue
			}
			defs, uses := inst.Defs(), inst.Uses()
			if len(defs) != 1 || len(uses) != 1 {
				continue
			}
			dst, src := defs[0], uses[0]
			if r, ok := hints[src]; ok && !seen[dst] {
				hints[dst] = r
				seen[dst] = true
			}
		}
	}
	return hints
}

// candidatesFor orders candidate physical registers for v: the copy
// hint first (if free), then the rest of the allocatable set in
// RegisterInfo order. No vreg reaching the main scan is ever live
// across a call — spillCallCrossingVRegs has already forced those
// into memory — so there is no need to steer v toward callee-saved
// registers here.
func (s *scanner) candidatesFor(v VReg, hints map[VReg]RealReg) []RealReg {
	alloc := s.ri.Allocatable()
	var out []RealReg
	if h, ok := hints[v]; ok {
		out = append(out, h)
	}
	for _, r := range alloc {
		out = append(out, r)
	}
	return out
}

func (s *scanner) firstFree(candidates []RealReg) (RealReg, bool) {
	used := make(map[RealReg]bool, len(s.active))
	for _, a := range s.active {
		used[a.reg] = true
	}
	seen := make(map[RealReg]bool, len(candidates))
	for _, r := range candidates {
		if seen[r] || used[r] {
			continue
		}
		seen[r] = true
		return r, true
	}
	return 0, false
}

// expireBefore removes active entries whose live range has ended at
// or before point.
func (s *scanner) expireBefore(point ProgramPoint) {
	kept := s.active[:0]
	for _, a := range s.active {
		if a.end > point {
			kept = append(kept, a)
		}
	}
	s.active = kept
}

// spillCandidate picks the active vreg whose range ends farthest in
// the future (the classic Poletto & Sarkar heuristic: spilling it
// frees the longest stretch of register pressure). If v itself
// outlives every active entry, v is the one to spill instead.
func (s *scanner) spillCandidate(v VReg) (VReg, bool) {
	if len(s.active) == 0 {
		return VRegInvalid, false
	}
	farthest := s.active[0]
	for _, a := range s.active[1:] {
		if a.end > farthest.end {
			farthest = a
		}
	}
	vEnd := rangeEnd(s.lv.Ranges(v))
	if farthest.end > vEnd {
		return farthest.vreg, true
	}
	return v, true
}

// commit rewrites every instruction's operands with the final
// assignment and reports clobbered callee-saved registers.
func (s *scanner) commit() {
	var clobbered []RealReg
	clobberedSet := make(map[RealReg]bool)
	for _, b := range s.f.Blocks() {
		for _, inst := range b.Instrs() {
			uses := inst.Uses()
			rewritten := make([]RealReg, len(uses))
			for i, u := range uses {
				rewritten[i] = s.assigned[u]
			}
			inst.AssignUses(rewritten)
			for _, d := range inst.Defs() {
				r := s.assigned[d]
				inst.AssignDef(r)
				if s.ri.CalleeSavedRegisters[r] && !clobberedSet[r] {
					clobberedSet[r] = true
					clobbered = append(clobbered, r)
				}
			}
		}
	}
	s.f.ClobberedRegisters(clobbered)
}

func rangeEnd(rs []vregRange) ProgramPoint {
	end := ProgramPoint(0)
	for _, r := range rs {
		if r.end > end {
			end = r.end
		}
	}
	return end
}
