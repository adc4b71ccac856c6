// Package blockpool implements the fixed-size block pool of spec §4.2 and
// §4.3: a preallocated, fixed-capacity array of Storage Cells recycled in
// O(1) through an intrusive LIFO free list. It is the component a chained
// pool (package chainedpool) builds each chunk out of.
//
// Pool is the single-threaded variant. ConcurrentPool is the lock-free
// variant, safe for any number of concurrent callers.
package blockpool

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/arenakit/goregion/internal/cell"
	"github.com/arenakit/goregion/internal/debugcheck"
	"github.com/arenakit/goregion/internal/freelist"
)

// Pool is a fixed-capacity, single-threaded pool of T values backed by one
// contiguous, aligned allocation. Every address Allocate returns lies
// inside that allocation and is aligned to alignof(T) (or pointer
// alignment, whichever is stricter).
type Pool[T any] struct {
	buf  []byte
	list *freelist.List
}

// New creates a Pool with room for exactly capacity T values. capacity
// must be positive.
func New[T any](capacity int) (*Pool[T], error) {
	if capacity <= 0 {
		return nil, errors.Errorf("blockpool: capacity must be positive, got %d", capacity)
	}
	stride := cell.Stride[T]()
	align := cell.Align[T]()
	buf, base := cell.AlignedBuffer(int(stride)*capacity, align)
	debugcheck.Assert(cell.IsPowerOfTwo(align), "block pool alignment %d is not a power of two", align)
	debugcheck.Assert(uintptr(len(buf)) >= stride*uintptr(capacity), "backing buffer %d too small for %d cells of stride %d", len(buf), capacity, stride)
	return &Pool[T]{
		buf:  buf,
		list: freelist.New(base, stride, capacity),
	}, nil
}

// Allocate returns a pointer to the next free cell and advances the free
// list. The cell is not cleared: its first word still holds the free-list
// link and the rest whatever was last stored there. Returns (nil, false)
// when the pool is full.
func (p *Pool[T]) Allocate() (*T, bool) {
	raw, ok := p.list.Allocate()
	if !ok {
		return nil, false
	}
	return (*T)(raw), true
}

// Release returns ptr to the free list. Pre: ptr was returned by Allocate
// on this pool and has not been released since. Returns false, leaving the
// pool untouched, if ptr does not belong to this pool's backing buffer.
func (p *Pool[T]) Release(ptr *T) bool {
	return p.list.Release(unsafe.Pointer(ptr))
}

// Create allocates a cell and copies value into it, the Go rendering of
// the spec's placement-construct: there is no separate constructor call,
// only a value already built by the caller. Returns (nil, false) when the
// pool is full.
func (p *Pool[T]) Create(value T) (*T, bool) {
	ptr, ok := p.Allocate()
	if !ok {
		return nil, false
	}
	*ptr = value
	return ptr, true
}

// Destroy releases ptr back to the pool. Go has no destructors to run;
// callers owning resources that value embeds (open files, etc.) must
// release them before calling Destroy, mirroring the caller contract in
// spec §4.1.
func (p *Pool[T]) Destroy(ptr *T) bool {
	return p.Release(ptr)
}

// Full reports whether the pool has no free cells left.
func (p *Pool[T]) Full() bool {
	return p.list.Full()
}

// Capacity returns the total number of cells the pool was constructed
// with, free or live.
func (p *Pool[T]) Capacity() int {
	return p.list.Capacity()
}

// UsedMemory returns the size in bytes of the pool's backing buffer. This
// is constant for the lifetime of the pool: cells are never partially
// released, only the whole backing allocation at once.
func (p *Pool[T]) UsedMemory() int {
	return len(p.buf)
}
