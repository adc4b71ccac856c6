package chainedpool

import (
	"sync/atomic"
	"unsafe"

	"github.com/arenakit/goregion/internal/cell"
	"github.com/arenakit/goregion/internal/freelist"
)

// freeListImpl is satisfied by both freelist.List and freelist.ConcurrentList.
// A chunk is built over whichever one matches the owning pool's variant
// (spec design note: "not duplicate code... the same algorithms with
// atomics collapsed to plain loads and stores"), so chunk itself is shared
// between Pool and ConcurrentPool; each pool keeps its own growth and
// retirement code on top of it.
type freeListImpl interface {
	Allocate() (unsafe.Pointer, bool)
	Release(unsafe.Pointer) bool
	Full() bool
	Capacity() int
}

// chunk is a Block Pool plus its live-allocation counter (spec §3
// "Chunk"): the unit of growth and retirement for the chained pool. live
// is kept atomic unconditionally — it is read and written from the
// retirement path even for the single-threaded Pool's own bookkeeping, and
// an atomic counter costs nothing extra on the uncontended path.
type chunk[T any] struct {
	buf  []byte
	list freeListImpl
	live int64
}

func buildChunk[T any](capacity int, concurrent bool) chunk[T] {
	s := stride[T]()
	buf, base := cell.AlignedBuffer(int(s)*capacity, cellAlign[T]())
	var list freeListImpl
	if concurrent {
		list = freelist.NewConcurrent(base, s, capacity)
	} else {
		list = freelist.New(base, s, capacity)
	}
	return chunk[T]{buf: buf, list: list}
}

// allocate hands out a cell from this chunk, stamping it with a pointer
// back to the chunk itself before the caller ever sees it.
func (c *chunk[T]) allocate() (*T, bool) {
	raw, ok := c.list.Allocate()
	if !ok {
		return nil, false
	}
	ptr := (*T)(raw)
	stampOwner(ptr, c)
	atomic.AddInt64(&c.live, 1)
	return ptr, true
}

// release returns ptr to this chunk's free list and decrements live.
// Returns (false, false) without touching live if ptr does not belong to
// this chunk's backing buffer. Otherwise the second result, wasLast,
// reports whether this call observed the 1->0 transition on the single
// atomic decrement (spec §4.5: "if the pre-decrement value was 1, call
// the retirement routine") — so that of two goroutines racing to release
// a chunk's last two live cells, exactly one is told to retire it.
func (c *chunk[T]) release(ptr *T) (ok, wasLast bool) {
	if !c.list.Release(unsafe.Pointer(ptr)) {
		return false, false
	}
	return true, atomic.AddInt64(&c.live, -1) == 0
}

func (c *chunk[T]) liveCount() int64 {
	return atomic.LoadInt64(&c.live)
}

func (c *chunk[T]) full() bool {
	return c.list.Full()
}

func (c *chunk[T]) usedMemory() int {
	return len(c.buf)
}
