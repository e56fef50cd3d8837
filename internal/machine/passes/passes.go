// Package passes implements the fixed post-lowering pipeline of
// spec.md §2: register allocation, φ-elimination, copy coalescing,
// slot-offset lowering, and prologue/epilogue insertion, run in that
// order over one machine function at a time.
package passes

import (
	"github.com/gocc/llc/internal/machine"
	"github.com/gocc/llc/internal/machine/amd64"
	"github.com/gocc/llc/internal/machine/regalloc"
)

// Run applies the full pipeline to mf. Declared (bodiless) functions
// are left untouched.
func Run(mf *machine.Function) error {
	if mf.Declare {
		return nil
	}
	installSpillHooks(mf)
	if err := regalloc.Allocate(mf, amd64.RegisterInfo); err != nil {
		return err
	}
	eliminatePhis(mf)
	coalesceCopies(mf)
	lowerSlots(mf)
	insertPrologueEpilogue(mf)
	return nil
}

// RunModule applies Run to every function in mm.
func RunModule(mm *machine.Module) error {
	for _, mf := range mm.Functions {
		if err := Run(mf); err != nil {
			return err
		}
	}
	return nil
}
