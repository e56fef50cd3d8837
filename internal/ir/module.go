package ir

// GlobalVar is a module-level `@name = ...` declaration.
type GlobalVar struct {
	Name         string
	Linkage      Linkage
	Visibility   Visibility
	Constant     bool
	Type         TypeID
	Init         *Value // nil if the global has no initializer.
	InitString   string // populated when Init is a string-array initializer.
	HasInitStr   bool
	Align        int
	UnnamedAddr  bool
}

// AttrGroup is a `#N` attribute-group definition, a set of keyword or
// "kind"="value" attributes shared by reference across functions/params.
type AttrGroup struct {
	ID    int
	Attrs []string
}

// NamedMetadata is a `!name = !{...}` module-level metadata entry. Its
// contents are opaque and never consulted by lowering. The parser skips
// metadata lines and does not fill Module.Metadata.
type NamedMetadata struct {
	Name  string
	Nodes []string
}

// Module is the top-level compilation unit: an arena of functions, a
// table of globals, attribute groups, the target triple/datalayout
// strings, and named metadata.
type Module struct {
	SourceFilename string
	TargetTriple   string
	DataLayout     string

	Types *Table

	Functions  []*Function
	Globals    []*GlobalVar
	AttrGroups map[int]AttrGroup
	Metadata   []NamedMetadata
}

// NewModule returns an empty module with a fresh type table.
func NewModule() *Module {
	return &Module{
		Types:      NewTable(),
		AttrGroups: make(map[int]AttrGroup),
	}
}

// AddFunction appends fn to the module's function arena.
func (m *Module) AddFunction(fn *Function) {
	m.Functions = append(m.Functions, fn)
}

// FindFunction returns the function named name, or nil.
func (m *Module) FindFunction(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
