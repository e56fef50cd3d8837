package machine

// MachineBlock is one basic block of a machine function's layout
// (spec.md §3 "arena of machine basic blocks"). Like ir.BasicBlock,
// existence (the arena row) is separate from order (the linked list
// threaded through prev/next and head/tail).
type MachineBlock struct {
	id   BlockID
	name string

	head, tail InstID
	preds      []BlockID
	succs      []BlockID

	prev, next BlockID
	linked     bool
}

func (b *MachineBlock) ID() BlockID       { return b.id }
func (b *MachineBlock) Name() string      { return b.name }
func (b *MachineBlock) Preds() []BlockID  { return b.preds }
func (b *MachineBlock) Succs() []BlockID  { return b.succs }
func (b *MachineBlock) Head() InstID      { return b.head }
func (b *MachineBlock) Tail() InstID      { return b.tail }
func (b *MachineBlock) Next() BlockID     { return b.next }
func (b *MachineBlock) addSucc(s BlockID) { b.succs = append(b.succs, s) }
func (b *MachineBlock) addPred(p BlockID) { b.preds = append(b.preds, p) }
