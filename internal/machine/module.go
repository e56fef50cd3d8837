package machine

import "github.com/gocc/llc/internal/ir"

// Module mirrors ir.Module (spec.md §3 "Machine module: mirrors IR
// module; each IR function has a corresponding machine function").
// The printer reads Globals/Types straight from the source IR module
// since lowering never changes a global's type or initializer.
type Module struct {
	SourceFilename string
	Functions      []*Function
	Globals        []*ir.GlobalVar
	Types          *ir.Table
}

// NewModule returns an empty machine module sharing src's type table
// and global-variable list.
func NewModule(src *ir.Module) *Module {
	return &Module{SourceFilename: src.SourceFilename, Types: src.Types, Globals: src.Globals}
}

// AddFunction appends fn to the module.
func (m *Module) AddFunction(fn *Function) { m.Functions = append(m.Functions, fn) }
