package ir

import "fmt"

// ValueID is an integer name for a Value. Functions keep no value arena:
// values are stored inline in instruction operands, and ValueID is only
// the type of Value.GEPBase.
type ValueID int

// ValueKind discriminates the shape of a Value.
type ValueKind uint8

const (
	ValueInvalid ValueKind = iota
	ValueInstResult // the result of an instruction; Value.Inst names it.
	ValueParam      // a function parameter, by index.
	ValueConstInt
	ValueConstAggregateZero
	ValueGlobalRef
	ValueConstExprGEP
	ValueInlineAsm
)

// Value is one operand-shaped entity: either a reference to something that
// produces a value (an instruction result or a parameter), or a constant.
// Constants of small integer widths are interned implicitly: a ConstInt
// is fully described by its (Type, Int) fields, so callers compare those
// two fields directly without a table lookup. Value itself is not
// comparable with == because it holds a slice (GEPIndices).
type Value struct {
	Kind ValueKind
	Type TypeID

	Inst  InstID // ValueInstResult
	Param int    // ValueParam

	Int int64 // ValueConstInt

	Global string // ValueGlobalRef

	// ValueConstExprGEP: a constant getelementptr, base + Indices applied as
	// in the GetElementPtr instruction but evaluated as a constant.
	GEPBase    ValueID
	GEPIndices []int64

	AsmText string // ValueInlineAsm
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInstResult:
		return fmt.Sprintf("%%inst%d", v.Inst)
	case ValueParam:
		return fmt.Sprintf("%%arg%d", v.Param)
	case ValueConstInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueConstAggregateZero:
		return "zeroinitializer"
	case ValueGlobalRef:
		return "@" + v.Global
	case ValueConstExprGEP:
		return "getelementptr(...)"
	case ValueInlineAsm:
		return "asm " + v.AsmText
	default:
		return "<invalid value>"
	}
}
