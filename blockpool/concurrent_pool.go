package blockpool

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/arenakit/goregion/internal/cell"
	"github.com/arenakit/goregion/internal/debugcheck"
	"github.com/arenakit/goregion/internal/freelist"
)

// ConcurrentPool is the lock-free variant of Pool (spec §4.3): Allocate is
// lock-free and Release is wait-free in the uncontended fast path, for any
// number of concurrent goroutines. It shares Pool's layout and sizing
// rules exactly; only the free-list algorithm differs.
type ConcurrentPool[T any] struct {
	buf  []byte
	list *freelist.ConcurrentList
}

// NewConcurrent creates a ConcurrentPool with room for exactly capacity T
// values. capacity must be positive.
func NewConcurrent[T any](capacity int) (*ConcurrentPool[T], error) {
	if capacity <= 0 {
		return nil, errors.Errorf("blockpool: capacity must be positive, got %d", capacity)
	}
	stride := cell.Stride[T]()
	align := cell.Align[T]()
	buf, base := cell.AlignedBuffer(int(stride)*capacity, align)
	debugcheck.Assert(cell.IsPowerOfTwo(align), "concurrent block pool alignment %d is not a power of two", align)
	return &ConcurrentPool[T]{
		buf:  buf,
		list: freelist.NewConcurrent(base, stride, capacity),
	}, nil
}

// Allocate returns a pointer to a free cell, not cleared (see
// Pool.Allocate), or (nil, false) if the pool is full at the moment of the
// attempt.
func (p *ConcurrentPool[T]) Allocate() (*T, bool) {
	raw, ok := p.list.Allocate()
	if !ok {
		return nil, false
	}
	return (*T)(raw), true
}

// Release returns ptr to the free list. See Pool.Release for the caller
// contract; it is identical here.
func (p *ConcurrentPool[T]) Release(ptr *T) bool {
	return p.list.Release(unsafe.Pointer(ptr))
}

// Create allocates a cell and copies value into it. See Pool.Create.
func (p *ConcurrentPool[T]) Create(value T) (*T, bool) {
	ptr, ok := p.Allocate()
	if !ok {
		return nil, false
	}
	*ptr = value
	return ptr, true
}

// Destroy releases ptr back to the pool. See Pool.Destroy.
func (p *ConcurrentPool[T]) Destroy(ptr *T) bool {
	return p.Release(ptr)
}

// Full reports whether the pool currently has no free cells.
func (p *ConcurrentPool[T]) Full() bool {
	return p.list.Full()
}

// Capacity returns the total number of cells, free or live.
func (p *ConcurrentPool[T]) Capacity() int {
	return p.list.Capacity()
}

// UsedMemory returns the size in bytes of the pool's backing buffer.
func (p *ConcurrentPool[T]) UsedMemory() int {
	return len(p.buf)
}
