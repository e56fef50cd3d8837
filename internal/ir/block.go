package ir

// BasicBlock holds a block's identity, its name, the predecessor/successor
// sets materialized during parsing from terminators (and maintained by
// later transforms), and the head/tail of its instruction layout list.
// The arena row never moves; only the layout fields change as
// instructions are inserted or unlinked.
type BasicBlock struct {
	id   BlockID
	name string

	head, tail InstID // layout list of instructions in this block.

	preds []BlockID
	succs []BlockID

	// prev/next link this block into the function-wide block layout list.
	prev, next BlockID
	linked     bool
}

// ID returns this block's arena id.
func (b *BasicBlock) ID() BlockID { return b.id }

// Name returns the block's symbolic name, e.g. "entry" or "" if unnamed
// (in which case callers format it as blockN).
func (b *BasicBlock) Name() string { return b.name }

// Preds returns the predecessor block ids.
func (b *BasicBlock) Preds() []BlockID { return b.preds }

// Succs returns the successor block ids.
func (b *BasicBlock) Succs() []BlockID { return b.succs }

// Head returns the first instruction id in this block's layout, or
// InstIDInvalid if empty.
func (b *BasicBlock) Head() InstID { return b.head }

// Tail returns the last instruction id in this block's layout, or
// InstIDInvalid if empty.
func (b *BasicBlock) Tail() InstID { return b.tail }

// Next returns the next block in function layout order.
func (b *BasicBlock) Next() BlockID { return b.next }

// Prev returns the previous block in function layout order.
func (b *BasicBlock) Prev() BlockID { return b.prev }

func (b *BasicBlock) addSucc(s BlockID) {
	for _, x := range b.succs {
		if x == s {
			return
		}
	}
	b.succs = append(b.succs, s)
}

func (b *BasicBlock) addPred(p BlockID) {
	for _, x := range b.preds {
		if x == p {
			return
		}
	}
	b.preds = append(b.preds, p)
}
