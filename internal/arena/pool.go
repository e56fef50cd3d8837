// Package arena implements the append-only, integer-addressed storage used
// throughout the IR and machine-IR models: every aggregate that needs to be
// referenced from more than one place (functions, blocks, instructions,
// values, stack slots, virtual registers) lives in an arena and is referred
// to elsewhere only by its small integer id, never by pointer. This breaks
// the reference cycles that predecessor/successor sets, use/def maps and
// parent-pointers would otherwise form, and lets ids stay valid across
// mutation of unrelated rows.
package arena

const pageSize = 128

// Pool is an arena of T, indexed by a dense, monotonically increasing id.
// Rows are never removed; "deletion" is always a layout-level unlink,
// leaving the row allocated but orphaned.
type Pool[T any] struct {
	pages            []*[pageSize]T
	allocated, index int
}

// NewPool returns an empty Pool.
func NewPool[T any]() Pool[T] {
	var p Pool[T]
	p.Reset()
	return p
}

// Allocated returns the number of rows allocated so far.
func (p *Pool[T]) Allocated() int {
	return p.allocated
}

// Allocate appends a new zero-valued T and returns a pointer to it together
// with its id. The pointer is only valid until the next Reset.
func (p *Pool[T]) Allocate() (*T, int) {
	if p.index == pageSize {
		if len(p.pages) == cap(p.pages) {
			p.pages = append(p.pages, new([pageSize]T))
		} else {
			i := len(p.pages)
			p.pages = p.pages[:i+1]
			if p.pages[i] == nil {
				p.pages[i] = new([pageSize]T)
			}
		}
		p.index = 0
	}
	id := p.allocated
	ret := &p.pages[len(p.pages)-1][p.index]
	p.index++
	p.allocated++
	return ret, id
}

// View returns a pointer to the id-th row. Panics if id is out of range,
// which is always an arena-integrity bug (invariant 1 of the testable
// properties): a valid id must always resolve in its owning arena.
func (p *Pool[T]) View(id int) *T {
	if id < 0 || id >= p.allocated {
		panic("BUG: arena id out of range")
	}
	page, index := id/pageSize, id%pageSize
	return &p.pages[page][index]
}

// Reset clears the pool back to empty, releasing references held by T for
// the garbage collector.
func (p *Pool[T]) Reset() {
	for _, page := range p.pages {
		var zero T
		for i := range page {
			page[i] = zero
		}
	}
	p.pages = p.pages[:0]
	p.index = pageSize
	p.allocated = 0
}
