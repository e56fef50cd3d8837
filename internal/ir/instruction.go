package ir

// InstID identifies an Instruction within a Function's instruction arena.
type InstID int

// BlockID identifies a BasicBlock within a Function's block arena.
type BlockID int

// Opcode enumerates the instruction set of the textual IR subset this
// back end accepts (spec.md §6).
type Opcode uint8

const (
	OpInvalid Opcode = iota
	OpAlloca
	OpLoad
	OpStore
	OpAdd
	OpSub
	OpMul
	OpICmp
	OpZext
	OpSext
	OpTrunc
	OpBitcast
	OpPtrToInt
	OpIntToPtr
	OpGetElementPtr
	OpCall
	OpBr
	OpCondBr
	OpPhi
	OpRet
)

func (o Opcode) String() string {
	switch o {
	case OpAlloca:
		return "alloca"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpICmp:
		return "icmp"
	case OpZext:
		return "zext"
	case OpSext:
		return "sext"
	case OpTrunc:
		return "trunc"
	case OpBitcast:
		return "bitcast"
	case OpPtrToInt:
		return "ptrtoint"
	case OpIntToPtr:
		return "inttoptr"
	case OpGetElementPtr:
		return "getelementptr"
	case OpCall:
		return "call"
	case OpBr:
		return "br"
	case OpCondBr:
		return "br" // conditional form: `br i1 %c, label %T, label %F`
	case OpPhi:
		return "phi"
	case OpRet:
		return "ret"
	default:
		return "<invalid opcode>"
	}
}

// ICmpPredicate enumerates the integer comparison predicates spec.md §6
// lists for `icmp`.
type ICmpPredicate uint8

const (
	ICmpInvalid ICmpPredicate = iota
	ICmpEQ
	ICmpNE
	ICmpSLT
	ICmpSLE
	ICmpSGT
	ICmpSGE
	ICmpULT
	ICmpULE
	ICmpUGT
	ICmpUGE
)

var icmpNames = map[ICmpPredicate]string{
	ICmpEQ: "eq", ICmpNE: "ne", ICmpSLT: "slt", ICmpSLE: "sle",
	ICmpSGT: "sgt", ICmpSGE: "sge", ICmpULT: "ult", ICmpULE: "ule",
	ICmpUGT: "ugt", ICmpUGE: "uge",
}

func (p ICmpPredicate) String() string { return icmpNames[p] }

// PhiIncoming is one (value, predecessor-block) pair of a Phi.
type PhiIncoming struct {
	Value Value
	Pred  BlockID
}

// Instruction is the single flattened representation used for every
// opcode; the fields actually meaningful for a given instruction depend on
// its Opcode, documented per-field below. This mirrors how a typed union
// would be expressed without sum types: one struct, opcode-directed
// consumption.
type Instruction struct {
	id     InstID
	opcode Opcode
	parent BlockID
	name   string // optional destination name, e.g. "%b".

	// Generic operand slots, meaning depends on Opcode:
	//   Alloca:        AllocType, AllocCount
	//   Load:           Args[0] = pointer
	//   Store:          Args[0] = value, Args[1] = pointer
	//   Add/Sub/Mul:    Args[0], Args[1]
	//   ICmp:           Args[0], Args[1], Pred
	//   Zext/Sext/Trunc/Bitcast/PtrToInt/IntToPtr: Args[0], ResultType
	//   GetElementPtr:  Args[0] = base pointer, Args[1:] = indices
	//   Call:           Callee, Args = call arguments
	//   Br:             Targets[0]
	//   CondBr:         Args[0] = condition, Targets[0]=true, Targets[1]=false
	//   Phi:            Incoming
	//   Ret:            Args[0] (absent for `ret void`)
	Args    []Value
	Targets []BlockID
	Incoming []PhiIncoming

	AllocType  TypeID
	AllocCount int64

	ResultType TypeID
	Pred       ICmpPredicate
	Callee     string

	// uses is the set of instructions that reference this instruction's
	// result as an operand, recomputed on creation and maintained on
	// argument replacement (spec.md §3 "Instructions").
	uses map[InstID]struct{}

	// prev/next form the intrusive doubly-linked layout list within the
	// parent block; InstIDInvalid terminates either end. This is the
	// "layout vs. data" separation of spec.md §3: the instruction arena is
	// append-only, but this list is what gives the block its order and
	// permits O(1) insert/remove by id.
	prev, next InstID
	linked     bool
}

// NewInst returns a zero-valued Instruction with the given opcode, ready
// to have its operand fields set by a builder (e.g. the parser) before
// being appended to a function via Function.AppendInst.
func NewInst(op Opcode) Instruction {
	return Instruction{opcode: op}
}

// WithName returns a copy of i with its destination name set to name.
func (i Instruction) WithName(name string) Instruction {
	i.name = name
	return i
}

// ResultTypeOf returns the type of the value this instruction produces,
// which is meaningful for every instruction where HasResult() is true.
func (i *Instruction) ResultTypeOf() TypeID { return i.ResultType }

// InstIDInvalid marks the absent end of the instruction layout list.
const InstIDInvalid InstID = -1

// BlockIDInvalid marks the absent end of the block layout list, or an
// unset block reference.
const BlockIDInvalid BlockID = -1

// Next returns the next instruction in layout order, or InstIDInvalid.
func (i *Instruction) Next() InstID { return i.next }

// Prev returns the previous instruction in layout order, or InstIDInvalid.
func (i *Instruction) Prev() InstID { return i.prev }

// ID returns this instruction's arena id.
func (i *Instruction) ID() InstID { return i.id }

// Opcode returns the instruction's opcode.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Parent returns the block id this instruction's layout entry belongs to.
func (i *Instruction) Parent() BlockID { return i.parent }

// Name returns the optional destination name ("" if none).
func (i *Instruction) Name() string { return i.name }

// HasResult reports whether this instruction produces a value consumable
// by other instructions (everything except Store, Br, CondBr, Ret).
func (i *Instruction) HasResult() bool {
	switch i.opcode {
	case OpStore, OpBr, OpCondBr, OpRet:
		return false
	default:
		return true
	}
}

// Uses returns the set of instruction ids that reference this
// instruction's result as an operand.
func (i *Instruction) Uses() map[InstID]struct{} { return i.uses }

func (i *Instruction) addUser(user InstID) {
	if i.uses == nil {
		i.uses = make(map[InstID]struct{})
	}
	i.uses[user] = struct{}{}
}

func (i *Instruction) removeUser(user InstID) {
	delete(i.uses, user)
}
