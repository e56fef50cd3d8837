package ir

import (
	"fmt"

	"github.com/gocc/llc/internal/arena"
)

// Linkage and Visibility mirror the LLVM-ish keywords spec.md §6 lists on
// `define`/`declare`/global headers. Only this subset is modeled; the
// preemption keywords (dso_local, dso_preemptable) are accepted by the
// parser and not recorded.
type Linkage uint8

const (
	LinkageExternal Linkage = iota
	LinkagePrivate
	LinkageInternal
	LinkageWeak
	LinkageLinkOnce
)

type Visibility uint8

const (
	VisibilityDefault Visibility = iota
	VisibilityHidden
	VisibilityProtected
)

// Param is one function parameter: its type plus the attribute keywords
// spec.md §6 lists (zeroext, signext, sret, align(N), ...).
type Param struct {
	Type  TypeID
	Attrs []string
}

// Function is one `define`/`declare`d function: a header plus an owned CFG
// (block and instruction arenas) and the layout that orders them.
type Function struct {
	Name       string
	ResultType TypeID
	Params     []Param
	Linkage    Linkage
	Visibility Visibility
	Attrs      []string // function-attribute keywords, stored verbatim.
	Declare    bool     // true for `declare` (no body).

	blocks       arena.Pool[BasicBlock]
	instructions arena.Pool[Instruction]

	blockHead, blockTail BlockID
}

// NewFunction returns an empty function ready for blocks to be appended.
func NewFunction(name string, resultType TypeID) *Function {
	f := &Function{
		Name:       name,
		ResultType: resultType,
		blockHead:  BlockIDInvalid,
		blockTail:  BlockIDInvalid,
	}
	f.blocks = arena.NewPool[BasicBlock]()
	f.instructions = arena.NewPool[Instruction]()
	return f
}

// NumBlocks returns the number of blocks ever allocated (including any
// later invalidated — arenas never shrink).
func (f *Function) NumBlocks() int { return f.blocks.Allocated() }

// NumInstructions returns the number of instructions ever allocated.
func (f *Function) NumInstructions() int { return f.instructions.Allocated() }

// Block resolves a BlockID to its row. Panics on an id foreign to this
// function (arena-integrity bug).
func (f *Function) Block(id BlockID) *BasicBlock { return f.blocks.View(int(id)) }

// Inst resolves an InstID to its row.
func (f *Function) Inst(id InstID) *Instruction { return f.instructions.View(int(id)) }

// EntryBlock returns the id of the first block in layout order, or
// BlockIDInvalid if the function has no body (a `declare`).
func (f *Function) EntryBlock() BlockID { return f.blockHead }

// AddBlock appends a new, empty block to the end of the function's block
// layout and returns its id.
func (f *Function) AddBlock(name string) BlockID {
	row, id := f.blocks.Allocate()
	bid := BlockID(id)
	*row = BasicBlock{id: bid, name: name, head: InstIDInvalid, tail: InstIDInvalid, prev: BlockIDInvalid, next: BlockIDInvalid}
	if f.blockTail == BlockIDInvalid {
		f.blockHead = bid
	} else {
		tail := f.Block(f.blockTail)
		tail.next = bid
		row.prev = f.blockTail
	}
	f.blockTail = bid
	row.linked = true
	return bid
}

// Blocks iterates block ids in layout order.
func (f *Function) Blocks(yield func(BlockID) bool) {
	for id := f.blockHead; id != BlockIDInvalid; {
		next := f.Block(id).next
		if !yield(id) {
			return
		}
		id = next
	}
}

// Instructions iterates instruction ids of block b in layout order.
func (f *Function) Instructions(b BlockID, yield func(InstID) bool) {
	blk := f.Block(b)
	for id := blk.head; id != InstIDInvalid; {
		next := f.Inst(id).next
		if !yield(id) {
			return
		}
		id = next
	}
}

// AppendInst allocates a new instruction from inst (id/parent/layout
// links are overwritten), appends it to the tail of block b's layout, and
// records its use edges against its operands. Terminators additionally
// wire the block-level predecessor/successor sets.
func (f *Function) AppendInst(b BlockID, inst Instruction) InstID {
	row, id := f.instructions.Allocate()
	iid := InstID(id)
	inst.id = iid
	inst.parent = b
	inst.prev, inst.next = InstIDInvalid, InstIDInvalid
	*row = inst

	blk := f.Block(b)
	if blk.tail == InstIDInvalid {
		blk.head = iid
	} else {
		tailRow := f.Inst(blk.tail)
		tailRow.next = iid
		row.prev = blk.tail
	}
	blk.tail = iid
	row.linked = true

	f.recordUses(row)
	f.wireTerminator(blk, row)
	return iid
}

// recordUses registers this instruction as a user of every instruction it
// references by Args, and of every Phi incoming value.
func (f *Function) recordUses(inst *Instruction) {
	note := func(v Value) {
		if v.Kind == ValueInstResult {
			f.Inst(v.Inst).addUser(inst.id)
		}
	}
	for _, a := range inst.Args {
		note(a)
	}
	for _, in := range inst.Incoming {
		note(in.Value)
	}
}

func (f *Function) wireTerminator(blk *BasicBlock, inst *Instruction) {
	switch inst.opcode {
	case OpBr:
		t := inst.Targets[0]
		blk.addSucc(t)
		f.Block(t).addPred(blk.id)
	case OpCondBr:
		for _, t := range inst.Targets {
			blk.addSucc(t)
			f.Block(t).addPred(blk.id)
		}
	}
}

// ReplaceArg replaces inst's n-th argument with v, maintaining use edges.
func (f *Function) ReplaceArg(inst InstID, n int, v Value) {
	row := f.Inst(inst)
	old := row.Args[n]
	if old.Kind == ValueInstResult {
		f.Inst(old.Inst).removeUser(inst)
	}
	row.Args[n] = v
	if v.Kind == ValueInstResult {
		f.Inst(v.Inst).addUser(inst)
	}
}

// Unlink removes inst from its block's layout without freeing its arena
// row; the row remains addressable but is no longer visited by
// Instructions. This is the "layout-level unlink" deletion model of
// spec.md §3 "Lifecycles".
func (f *Function) Unlink(id InstID) {
	row := f.Inst(id)
	if !row.linked {
		return
	}
	blk := f.Block(row.parent)
	if row.prev != InstIDInvalid {
		f.Inst(row.prev).next = row.next
	} else {
		blk.head = row.next
	}
	if row.next != InstIDInvalid {
		f.Inst(row.next).prev = row.prev
	} else {
		blk.tail = row.prev
	}
	row.linked = false
}

// InsertBefore inserts a newly-allocated instruction into the layout
// immediately before `before`, returning its id.
func (f *Function) InsertBefore(before InstID, inst Instruction) InstID {
	beforeRow := f.Inst(before)
	b := beforeRow.parent

	row, id := f.instructions.Allocate()
	iid := InstID(id)
	inst.id = iid
	inst.parent = b
	*row = inst

	blk := f.Block(b)
	prev := beforeRow.prev
	row.prev, row.next = prev, before
	beforeRow.prev = iid
	if prev != InstIDInvalid {
		f.Inst(prev).next = iid
	} else {
		blk.head = iid
	}
	row.linked = true

	f.recordUses(row)
	return iid
}

// SetPhiIncoming finalizes a Phi instruction's incoming list once the
// function's full name table is known (incoming values referencing a
// successor-of-a-loop-back-edge block are only resolvable after the whole
// body has been parsed). Records use edges for the newly-attached values.
func (f *Function) SetPhiIncoming(id InstID, incoming []PhiIncoming) {
	row := f.Inst(id)
	row.Incoming = incoming
	for _, in := range incoming {
		if in.Value.Kind == ValueInstResult {
			f.Inst(in.Value.Inst).addUser(id)
		}
	}
}

// String renders the function header for diagnostics.
func (f *Function) String() string {
	if f.Declare {
		return fmt.Sprintf("declare %s()", f.Name)
	}
	return fmt.Sprintf("define %s() { ... }", f.Name)
}
