package ir

import (
	"fmt"
	"strings"
)

// TypeID is the interned identity of a Type. Two structurally identical
// types always share a TypeID; identity comparison is therefore just
// integer equality.
type TypeID int

// TypeKind discriminates the shape of a Type.
type TypeKind uint8

const (
	TypeInvalid TypeKind = iota
	TypeVoid
	TypeInt   // width in Bits: 1, 8, 16, 32, 64.
	TypePtr
	TypeArray
	TypeStruct
	TypeFunc
	TypeNamed // an alias (%name) resolved to Elem.
	TypeMetadata
)

// Type is a structural, interned type. Compound fields are only meaningful
// for the corresponding TypeKind.
type Type struct {
	Kind TypeKind

	Bits int // TypeInt

	Elem  TypeID // TypePtr, TypeArray, TypeNamed
	Count int    // TypeArray

	Fields []TypeID // TypeStruct
	Packed bool     // TypeStruct

	Params   []TypeID // TypeFunc
	Result   TypeID   // TypeFunc
	VarArgs  bool     // TypeFunc
	AliasFor string   // TypeNamed, the `%name` spelling.
}

// Table is the module-wide intern table for Types. Primitive kinds are
// singletons created by NewTable; compound types are de-duplicated by a
// structural key so that Intern(T1) == Intern(T2) whenever T1 and T2 have
// identical shape.
type Table struct {
	types []Type
	byKey map[string]TypeID
}

// Well-known singleton ids, valid for every Table returned by NewTable.
const (
	Void TypeID = iota
	I1
	I8
	I16
	I32
	I64
	Metadata
	firstDynamicType
)

// NewTable returns a Table pre-populated with the primitive singletons.
func NewTable() *Table {
	t := &Table{byKey: make(map[string]TypeID, 64)}
	t.types = append(t.types,
		Type{Kind: TypeVoid},
		Type{Kind: TypeInt, Bits: 1},
		Type{Kind: TypeInt, Bits: 8},
		Type{Kind: TypeInt, Bits: 16},
		Type{Kind: TypeInt, Bits: 32},
		Type{Kind: TypeInt, Bits: 64},
		Type{Kind: TypeMetadata},
	)
	return t
}

// Get returns the Type for id. Panics if id is unknown (arena-integrity
// bug).
func (t *Table) Get(id TypeID) Type {
	if int(id) < 0 || int(id) >= len(t.types) {
		panic("BUG: type id out of range")
	}
	return t.types[id]
}

func (t *Table) intern(key string, mk func() Type) TypeID {
	if id, ok := t.byKey[key]; ok {
		return id
	}
	id := TypeID(len(t.types))
	t.types = append(t.types, mk())
	t.byKey[key] = id
	return id
}

// Pointer interns a pointer-to-elem type.
func (t *Table) Pointer(elem TypeID) TypeID {
	return t.intern(fmt.Sprintf("ptr:%d", elem), func() Type {
		return Type{Kind: TypePtr, Elem: elem}
	})
}

// Array interns a [count x elem] type.
func (t *Table) Array(elem TypeID, count int) TypeID {
	return t.intern(fmt.Sprintf("arr:%d:%d", elem, count), func() Type {
		return Type{Kind: TypeArray, Elem: elem, Count: count}
	})
}

// Struct interns a {fields...} (or <{fields...}> when packed) type.
func (t *Table) Struct(fields []TypeID, packed bool) TypeID {
	var sb strings.Builder
	sb.WriteString("struct:")
	if packed {
		sb.WriteByte('p')
	}
	for _, f := range fields {
		fmt.Fprintf(&sb, ":%d", f)
	}
	fs := append([]TypeID(nil), fields...)
	return t.intern(sb.String(), func() Type {
		return Type{Kind: TypeStruct, Fields: fs, Packed: packed}
	})
}

// Func interns a function-value type T (P1, P2, ...).
func (t *Table) Func(result TypeID, params []TypeID, varArgs bool) TypeID {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func:%d:%v", result, varArgs)
	for _, p := range params {
		fmt.Fprintf(&sb, ":%d", p)
	}
	ps := append([]TypeID(nil), params...)
	return t.intern(sb.String(), func() Type {
		return Type{Kind: TypeFunc, Result: result, Params: ps, VarArgs: varArgs}
	})
}

// Named interns a %name alias resolving to elem.
func (t *Table) Named(name string, elem TypeID) TypeID {
	return t.intern("named:"+name, func() Type {
		return Type{Kind: TypeNamed, AliasFor: name, Elem: elem}
	})
}

// SizeOf returns the x86-64 System V size in bytes of t, per the datalayout
// rules spec.md pins: iN occupies ceil(N/8) bytes, pointers are 8 bytes,
// arrays are element-size*count, structs sum their elements rounded to 8
// unless packed.
func (t *Table) SizeOf(id TypeID) int {
	ty := t.Get(id)
	switch ty.Kind {
	case TypeVoid:
		return 0
	case TypeInt:
		return (ty.Bits + 7) / 8
	case TypePtr:
		return 8
	case TypeArray:
		return t.SizeOf(ty.Elem) * ty.Count
	case TypeStruct:
		size := 0
		for _, f := range ty.Fields {
			size += t.SizeOf(f)
		}
		if ty.Packed {
			return size
		}
		return roundUp(size, 8)
	case TypeNamed:
		return t.SizeOf(ty.Elem)
	case TypeMetadata:
		return 0
	default:
		panic("BUG: SizeOf on invalid type")
	}
}

// AlignOf returns the required alignment in bytes of t.
func (t *Table) AlignOf(id TypeID) int {
	ty := t.Get(id)
	switch ty.Kind {
	case TypeInt:
		sz := (ty.Bits + 7) / 8
		if sz > 8 {
			return 8
		}
		return sz
	case TypePtr:
		return 8
	case TypeArray:
		return t.AlignOf(ty.Elem)
	case TypeStruct:
		if ty.Packed {
			return 1
		}
		max := 1
		for _, f := range ty.Fields {
			if a := t.AlignOf(f); a > max {
				max = a
			}
		}
		return max
	case TypeNamed:
		return t.AlignOf(ty.Elem)
	default:
		return 1
	}
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

// String renders t in the textual-IR spelling, for diagnostics.
func (t *Table) String(id TypeID) string {
	ty := t.Get(id)
	switch ty.Kind {
	case TypeVoid:
		return "void"
	case TypeInt:
		return fmt.Sprintf("i%d", ty.Bits)
	case TypePtr:
		return t.String(ty.Elem) + "*"
	case TypeArray:
		return fmt.Sprintf("[%d x %s]", ty.Count, t.String(ty.Elem))
	case TypeStruct:
		parts := make([]string, len(ty.Fields))
		for i, f := range ty.Fields {
			parts[i] = t.String(f)
		}
		body := strings.Join(parts, ", ")
		if ty.Packed {
			return "<{" + body + "}>"
		}
		return "{" + body + "}"
	case TypeFunc:
		parts := make([]string, len(ty.Params))
		for i, p := range ty.Params {
			parts[i] = t.String(p)
		}
		return fmt.Sprintf("%s (%s)", t.String(ty.Result), strings.Join(parts, ", "))
	case TypeNamed:
		return "%" + ty.AliasFor
	case TypeMetadata:
		return "metadata"
	default:
		return "<invalid>"
	}
}
