// Package freelist implements the intrusive LIFO free list shared by every
// pool in goregion (spec §4.2, §4.3): a contiguous, fixed-stride byte
// buffer, chained once at construction, with allocation and release done
// purely by pointer-chasing — no search, no side table. Node pointers live
// inside the cells they describe; a separate free-list vector would double
// the memory footprint and defeat the cache locality the design exists for.
//
// List is the single-threaded variant. ConcurrentList is the lock-free
// variant used by the concurrent block pool and by each chunk of the
// concurrent chained pool.
package freelist

import "unsafe"

// List is a non-atomic intrusive free list over capacity cells of stride
// bytes each, starting at base. The caller guarantees base points at a
// live allocation of at least capacity*stride bytes, aligned for the
// cells' own alignment requirement.
type List struct {
	base     unsafe.Pointer
	stride   uintptr
	capacity int
	head     unsafe.Pointer // nil is the "one past the end" sentinel
}

// New builds a List over [base, base+capacity*stride), with every cell
// chained onto the free list in index order and head at cell 0.
func New(base unsafe.Pointer, stride uintptr, capacity int) *List {
	l := &List{base: base, stride: stride, capacity: capacity}
	l.Reset()
	return l
}

// Reset rechains every cell in index order, discarding whatever was
// previously emplaced in them. Used at construction.
func (l *List) Reset() {
	for i := 0; i < l.capacity; i++ {
		var next unsafe.Pointer
		if i+1 < l.capacity {
			next = l.cellAt(i + 1)
		}
		*(*unsafe.Pointer)(l.cellAt(i)) = next
	}
	if l.capacity > 0 {
		l.head = l.cellAt(0)
	} else {
		l.head = nil
	}
}

func (l *List) cellAt(i int) unsafe.Pointer {
	return unsafe.Add(l.base, uintptr(i)*l.stride)
}

// Allocate returns the current head and advances head to head's stored
// next pointer. Returns false when the list is empty.
func (l *List) Allocate() (unsafe.Pointer, bool) {
	if l.head == nil {
		return nil, false
	}
	p := l.head
	l.head = *(*unsafe.Pointer)(p)
	return p, true
}

// Release pushes p back onto the free list. Pre: p was returned by
// Allocate and not released since. Returns false, without mutating any
// state, if p does not fall within this list's backing buffer.
func (l *List) Release(p unsafe.Pointer) bool {
	if !l.owns(p) {
		return false
	}
	*(*unsafe.Pointer)(p) = l.head
	l.head = p
	return true
}

// Full reports whether the list has no free cells left.
func (l *List) Full() bool {
	return l.head == nil
}

// Capacity returns the total number of cells, free or live.
func (l *List) Capacity() int {
	return l.capacity
}

func (l *List) owns(p unsafe.Pointer) bool {
	if p == nil || l.capacity == 0 {
		return false
	}
	off := uintptr(p) - uintptr(l.base)
	if off%l.stride != 0 {
		return false
	}
	return off/l.stride < uintptr(l.capacity)
}
