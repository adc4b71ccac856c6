package chainedpool

import "unsafe"

// metaPool is a fixed-capacity store of chunk[T] records backed by a
// real Go slice, never by a raw []byte reinterpretation the way blockpool
// backs ordinary Storage Cells. chunk[T] always carries real heap
// pointers of its own — its backing buffer (buf []byte) and its
// freeListImpl (a *freelist.List or *ConcurrentList) — and the garbage
// collector derives a span's scan bitmap from the allocation's static
// type. A []byte backing array is declared pointer-free, so the GC would
// never trace through it to find those embedded pointers, leaving the
// chunk's own buffer and free-list struct reachable only through bytes
// it will never scan: exactly the corruption spec §5's "Lifetimes"
// invariant exists to rule out. Using []chunk[T] here instead means the
// runtime's own type descriptor for chunk[T] drives scanning, so every
// chunk record's pointers stay visible for as long as a record is live.
//
// The free list over meta-pool slots is a plain slice of *chunk[T]
// (real, GC-visible pointers into records), not an intrusive list
// threaded through the records' own memory — chunk[T] has no spare
// pointer-typed field to borrow for that, and at most maxChunks records
// ever exist, so a separate slice costs nothing that matters.
type metaPool[T any] struct {
	records []chunk[T]
	free    []*chunk[T]
}

func newMetaPool[T any](capacity int) *metaPool[T] {
	m := &metaPool[T]{
		records: make([]chunk[T], capacity),
		free:    make([]*chunk[T], 0, capacity),
	}
	for i := range m.records {
		m.free = append(m.free, &m.records[i])
	}
	return m
}

// create installs value into a free slot and returns its address.
// Returns (nil, false) if every slot is occupied.
func (m *metaPool[T]) create(value chunk[T]) (*chunk[T], bool) {
	n := len(m.free)
	if n == 0 {
		return nil, false
	}
	c := m.free[n-1]
	m.free = m.free[:n-1]
	*c = value
	return c, true
}

// destroy returns c's slot to the free list. Pre: c was returned by
// create on this metaPool and has not been destroyed since.
func (m *metaPool[T]) destroy(c *chunk[T]) {
	var zero chunk[T]
	*c = zero
	m.free = append(m.free, c)
}

// usedMemory is the size in bytes of the records slice's backing array,
// constant for the metaPool's lifetime.
func (m *metaPool[T]) usedMemory() int {
	return int(unsafe.Sizeof(chunk[T]{})) * len(m.records)
}
