package chainedpool

import (
	"github.com/pkg/errors"

	"github.com/arenakit/goregion/internal/debugcheck"
)

// ConcurrentPool is the concurrent chained pool of spec §4.5. A single
// readers-writer spinlock protects the structure of active and the
// identity of reserved; each chunk's own free list runs the lock-free
// protocol of blockpool.ConcurrentPool independently, under no outer lock
// at all. The meta pool is mutated only while the write lock is held.
type ConcurrentPool[T any] struct {
	chunkCapacity int
	maxChunks     int
	metaPool      *metaPool[T]
	lock          rwSpinLock
	active        []*chunk[T]
	reserved      *chunk[T]
}

// NewConcurrent creates a ConcurrentPool with one initial chunk. Both
// arguments must be positive.
func NewConcurrent[T any](chunkCapacity, maxChunks int) (*ConcurrentPool[T], error) {
	if chunkCapacity <= 0 {
		return nil, errors.Errorf("chainedpool: chunkCapacity must be positive, got %d", chunkCapacity)
	}
	if maxChunks <= 0 {
		return nil, errors.Errorf("chainedpool: maxChunks must be positive, got %d", maxChunks)
	}
	p := &ConcurrentPool[T]{
		chunkCapacity: chunkCapacity,
		maxChunks:     maxChunks,
		metaPool:      newMetaPool[T](maxChunks),
	}
	first, ok := p.allocChunkLocked()
	if !ok {
		return nil, errors.New("chainedpool: meta pool exhausted creating the initial chunk")
	}
	p.active = append(p.active, first)
	return p, nil
}

func (p *ConcurrentPool[T]) allocChunkLocked() (*chunk[T], bool) {
	built := buildChunk[T](p.chunkCapacity, true)
	return p.metaPool.create(built)
}

// Allocate implements the allocate protocol of spec §4.5 exactly: a
// read-locked fast-path scan of active, and — on a full traversal with no
// success — a write-locked structural change (promote reserved, or grow),
// re-validated against a snapshot of len(active) to close the TOCTOU
// window between dropping the read lock and taking the write lock.
func (p *ConcurrentPool[T]) Allocate() (*T, bool) {
	for {
		p.lock.rLock()
		for _, c := range p.active {
			if ptr, ok := c.allocate(); ok {
				p.lock.rUnlock()
				return ptr, true
			}
		}
		observed := len(p.active)
		p.lock.rUnlock()

		p.lock.lock()
		if len(p.active) != observed {
			// Another thread grew or shrunk the chain; retry the fast path.
			p.lock.unlock()
			continue
		}

		if p.reserved != nil {
			c := p.reserved
			p.reserved = nil
			p.active = append(p.active, c)
			p.lock.unlock()
			continue
		}

		c, ok := p.allocChunkLocked()
		if !ok {
			p.lock.unlock()
			return nil, false
		}
		p.active = append(p.active, c)
		p.lock.unlock()
	}
}

// Release recovers the owning chunk via trailing metadata, releases there
// (lock-free, no outer lock needed), and retires the chunk under the write
// lock if that release brought it to zero live blocks.
func (p *ConcurrentPool[T]) Release(ptr *T) bool {
	c := recoverChunk(ptr)
	if c == nil {
		return false
	}
	ok, wasLast := c.release(ptr)
	if !ok {
		return false
	}
	if wasLast {
		p.retire(c)
	}
	return true
}

func (p *ConcurrentPool[T]) retire(c *chunk[T]) {
	p.lock.lock()
	defer p.lock.unlock()

	if c.liveCount() != 0 {
		// A concurrent allocate reused this chunk before we got the write
		// lock; nothing to retire (spec §4.5 release protocol step 2).
		return
	}
	if p.reserved == c {
		// An earlier retire call already installed c after a later
		// allocate/release pair brought it back to zero; nothing to do.
		return
	}
	debugcheck.Assert(p.reserved != c, "chunk %p already held in reserved", c)
	if p.reserved != nil && p.reserved != c {
		p.metaPool.destroy(p.reserved)
	}
	p.removeActiveLocked(c)
	p.reserved = c
}

func (p *ConcurrentPool[T]) removeActiveLocked(c *chunk[T]) {
	for i, x := range p.active {
		if x == c {
			p.active = append(p.active[:i], p.active[i+1:]...)
			return
		}
	}
}

// Create allocates a cell and copies value into it.
func (p *ConcurrentPool[T]) Create(value T) (*T, bool) {
	ptr, ok := p.Allocate()
	if !ok {
		return nil, false
	}
	*ptr = value
	return ptr, true
}

// Destroy releases ptr back to the pool.
func (p *ConcurrentPool[T]) Destroy(ptr *T) bool {
	return p.Release(ptr)
}

// UsedMemory is the meta pool's backing buffer plus every chunk currently
// reachable from active or reserved.
func (p *ConcurrentPool[T]) UsedMemory() int {
	p.lock.rLock()
	defer p.lock.rUnlock()
	total := p.metaPool.usedMemory()
	for _, c := range p.active {
		total += c.usedMemory()
	}
	if p.reserved != nil {
		total += p.reserved.usedMemory()
	}
	return total
}

// ActiveChunks returns the number of chunks currently in the active list.
func (p *ConcurrentPool[T]) ActiveChunks() int {
	p.lock.rLock()
	defer p.lock.rUnlock()
	return len(p.active)
}

// HasReserved reports whether a retired chunk is currently held for reuse.
func (p *ConcurrentPool[T]) HasReserved() bool {
	p.lock.rLock()
	defer p.lock.rUnlock()
	return p.reserved != nil
}
