// Package lower implements the pattern-directed IR-to-machine-IR
// translation of spec.md §4.1: one IR function becomes one machine
// function over virtual registers, stack slots stand in for `alloca`,
// and branches/φ are carried through verbatim for later passes.
package lower

import (
	"fmt"

	"github.com/gocc/llc/internal/ir"
	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// Module lowers every function in mod, declarations included (as
// bodiless machine functions the printer skips).
func Module(mod *ir.Module) (*machine.Module, error) {
	mm := machine.NewModule(mod)
	for _, fn := range mod.Functions {
		mf, err := Function(mod, fn)
		if err != nil {
			return nil, fmt.Errorf("lowering %s: %w", fn.Name, err)
		}
		mm.AddFunction(mf)
	}
	return mm, nil
}

// state carries the per-function mappings the lowerer maintains as it
// walks blocks and instructions in layout order (spec.md §4.1
// "Determinism").
type state struct {
	mod *ir.Module
	fn  *ir.Function
	mf  *machine.Function

	blockMap  map[ir.BlockID]machine.BlockID
	resultOf  map[ir.InstID]regalloc.VReg // IR inst result -> vreg
	allocaOf  map[ir.InstID]machine.SlotID
	gepOf     map[ir.InstID]gepAddr // resolved constant-offset GEP results
	lastPred  map[ir.InstID]ir.ICmpPredicate
	curBlock  machine.BlockID
}

// gepAddr is a resolved `base + disp [+ index*scale]` address, rooted
// in a stack slot (the only base this subset's examples ever use, per
// spec.md §4.1's GEP row). At most one index in a GEP's chain may be
// a runtime value rather than a constant, since x86 addressing only
// carries a single scaled index; a GEP with more than one dynamic
// index keeps only the last one and folds the rest as if constant 0,
// a documented limitation of this subset's GEP support.
type gepAddr struct {
	slot     machine.SlotID
	disp     int32
	hasIndex bool
	index    regalloc.VReg
	scale    int32
}

// Function lowers one IR function into a machine function. Declarations
// produce an empty, bodiless machine function.
func Function(mod *ir.Module, fn *ir.Function) (*machine.Function, error) {
	mf := machine.NewFunction(fn.Name)
	mf.Declare = fn.Declare
	mf.Types = mod.Types
	mf.CC = machine.CallingConvention{ArgRegs: amd64.ArgRegs}
	if fn.Declare {
		return mf, nil
	}

	st := &state{
		mod:      mod,
		fn:       fn,
		mf:       mf,
		blockMap: make(map[ir.BlockID]machine.BlockID),
		resultOf: make(map[ir.InstID]regalloc.VReg),
		allocaOf: make(map[ir.InstID]machine.SlotID),
		gepOf:    make(map[ir.InstID]gepAddr),
		lastPred: make(map[ir.InstID]ir.ICmpPredicate),
	}

	fn.Blocks(func(bid ir.BlockID) bool {
		st.blockMap[bid] = mf.AddBlock(fn.Block(bid).Name())
		return true
	})

	entry := st.blockMap[fn.EntryBlock()]
	st.copyArgsToVRegs(entry)

	var lowerErr error
	fn.Blocks(func(bid ir.BlockID) bool {
		st.curBlock = st.blockMap[bid]
		fn.Instructions(bid, func(iid ir.InstID) bool {
			if err := st.lowerInst(iid, fn.Inst(iid)); err != nil {
				lowerErr = err
				return false
			}
			return true
		})
		return lowerErr == nil
	})
	if lowerErr != nil {
		return nil, lowerErr
	}
	return mf, nil
}

// copyArgsToVRegs emits, at function entry, one MOV per parameter
// moving it from its System V argument register into a fresh vreg
// (spec.md §4.1 "Argument setup").
func (st *state) copyArgsToVRegs(entry machine.BlockID) {
	for i, p := range st.fn.Params {
		vr := st.mf.NewVReg(p.Type)
		st.mf.ParamVRegs = append(st.mf.ParamVRegs, vr)
		width := st.mod.Types.SizeOf(p.Type)
		op := machine.OpMOVrr32
		if width > 4 {
			op = machine.OpMOVrr64
		}
		if i >= len(amd64.ArgRegs) {
			// Stack-passed arguments (7th+) are outside this subset's
			// covered calling-convention surface.
			continue
		}
		inst := machine.NewInst(op,
			machine.RegOperand(vr, false, true),
			machine.PhysOperand(amd64.ArgRegs[i], true, false),
		)
		st.mf.AppendInst(entry, inst)
	}
}
