package freelist

import (
	"sync/atomic"
	"unsafe"
)

// ConcurrentList is the lock-free, wait-free-on-the-fast-path intrusive
// free list specified in spec §4.3: a single atomic head word, CAS'd by
// both Allocate and Release. There is no hazard-pointer scheme and no tag
// bits, because the backing buffer is never returned to the system
// allocator while the list lives — a released cell is always a valid free
// cell by the time any CAS touching it can commit, so the classical ABA
// reclaim hazard does not apply here (spec §4.3, §9).
type ConcurrentList struct {
	base     unsafe.Pointer
	stride   uintptr
	capacity int
	head     unsafe.Pointer // CAS'd; nil is the empty sentinel
}

// NewConcurrent builds a ConcurrentList over [base, base+capacity*stride),
// chained in index order exactly like List.
func NewConcurrent(base unsafe.Pointer, stride uintptr, capacity int) *ConcurrentList {
	l := &ConcurrentList{base: base, stride: stride, capacity: capacity}
	l.Reset()
	return l
}

// Reset rechains every cell. Not safe to call concurrently with any other
// operation on the list — it is only used at construction, before the list
// is shared.
func (l *ConcurrentList) Reset() {
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

func (l *ConcurrentList) cellAt(i int) unsafe.Pointer {
	return unsafe.Add(l.base, uintptr(i)*l.stride)
}

// Allocate is lock-free: it loads head, and on a full pool returns false
// without touching memory. Otherwise it CASes head from the observed cell
// to that cell's stored next pointer, retrying (with a fresh sentinel
// check, since another thread may have emptied the list in the meantime)
// on CAS failure.
func (l *ConcurrentList) Allocate() (unsafe.Pointer, bool) {
	for {
		head := atomic.LoadPointer(&l.head)
		if head == nil {
			return nil, false
		}
		next := atomic.LoadPointer((*unsafe.Pointer)(head))
		if atomic.CompareAndSwapPointer(&l.head, head, next) {
			return head, true
		}
	}
}

// Release is wait-free in the uncontended case and lock-free under
// contention: it publishes p as the new head only once its CAS commits,
// so the released cell is never visible to another allocator before then.
func (l *ConcurrentList) Release(p unsafe.Pointer) bool {
	if !l.owns(p) {
		return false
	}
	for {
		head := atomic.LoadPointer(&l.head)
		atomic.StorePointer((*unsafe.Pointer)(p), head)
		if atomic.CompareAndSwapPointer(&l.head, head, p) {
			return true
		}
	}
}

// Full reports whether the list currently has no free cells.
func (l *ConcurrentList) Full() bool {
	return atomic.LoadPointer(&l.head) == nil
}

// Capacity returns the total number of cells, free or live.
func (l *ConcurrentList) Capacity() int {
	return l.capacity
}

func (l *ConcurrentList) owns(p unsafe.Pointer) bool {
	if p == nil || l.capacity == 0 {
		return false
	}
	off := uintptr(p) - uintptr(l.base)
	if off%l.stride != 0 {
		return false
	}
	return off/l.stride < uintptr(l.capacity)
}
