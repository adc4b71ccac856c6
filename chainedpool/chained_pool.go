// Package chainedpool implements the chained pool of spec §4.4/§4.5: an
// ordered list of Block Pool "chunks" grown on demand and retired, one at
// a time, into a single reserved slot for reuse. This is the component
// that dominates the core's line count — growth and retirement are where
// nearly every subtlety in the spec lives.
package chainedpool

import (
	"github.com/pkg/errors"

	"github.com/arenakit/goregion/internal/debugcheck"
)

// Pool is the single-threaded chained pool.
type Pool[T any] struct {
	chunkCapacity int
	maxChunks     int
	metaPool      *metaPool[T]
	active        []*chunk[T]
	reserved      *chunk[T]
}

// New creates a Pool with one initial chunk of chunkCapacity cells, able
// to grow up to maxChunks chunks (chunk records live in an internal
// meta-pool sized for exactly maxChunks). Both arguments must be positive.
func New[T any](chunkCapacity, maxChunks int) (*Pool[T], error) {
	if chunkCapacity <= 0 {
		return nil, errors.Errorf("chainedpool: chunkCapacity must be positive, got %d", chunkCapacity)
	}
	if maxChunks <= 0 {
		return nil, errors.Errorf("chainedpool: maxChunks must be positive, got %d", maxChunks)
	}
	p := &Pool[T]{
		chunkCapacity: chunkCapacity,
		maxChunks:     maxChunks,
		metaPool:      newMetaPool[T](maxChunks),
	}
	first, ok := p.allocChunk()
	if !ok {
		return nil, errors.New("chainedpool: meta pool exhausted creating the initial chunk")
	}
	p.active = append(p.active, first)
	return p, nil
}

func (p *Pool[T]) allocChunk() (*chunk[T], bool) {
	built := buildChunk[T](p.chunkCapacity, false)
	return p.metaPool.create(built)
}

// Allocate returns a block from the first chunk in active with free
// capacity (spec §4.4); on a full traversal it promotes reserved into
// active, or grows a fresh chunk via the meta pool; it fails only when
// neither is possible.
func (p *Pool[T]) Allocate() (*T, bool) {
	for _, c := range p.active {
		if ptr, ok := c.allocate(); ok {
			return ptr, true
		}
	}

	if p.reserved != nil {
		c := p.reserved
		p.reserved = nil
		p.active = append(p.active, c)
		return c.allocate()
	}

	c, ok := p.allocChunk()
	if !ok {
		return nil, false
	}
	p.active = append(p.active, c)
	return c.allocate()
}

// Release recovers the owning chunk from ptr's trailing metadata,
// releases it there, and retires the chunk if that was its last live
// block.
func (p *Pool[T]) Release(ptr *T) bool {
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

// retire implements spec §4.4's retirement steps: displace whatever was in
// reserved (destroying it via the meta pool), remove c from active, and
// install c as the new reserved chunk.
func (p *Pool[T]) retire(c *chunk[T]) {
	debugcheck.Assert(c.liveCount() == 0, "retiring chunk %p with %d live blocks", c, c.liveCount())
	if p.reserved != nil && p.reserved != c {
		p.metaPool.destroy(p.reserved)
	}
	p.removeActive(c)
	p.reserved = c
}

func (p *Pool[T]) removeActive(c *chunk[T]) {
	for i, x := range p.active {
		if x == c {
			p.active = append(p.active[:i], p.active[i+1:]...)
			return
		}
	}
}

// Create allocates a cell and copies value into it.
func (p *Pool[T]) Create(value T) (*T, bool) {
	ptr, ok := p.Allocate()
	if !ok {
		return nil, false
	}
	*ptr = value
	return ptr, true
}

// Destroy releases ptr back to the pool.
func (p *Pool[T]) Destroy(ptr *T) bool {
	return p.Release(ptr)
}

// UsedMemory is the meta pool's backing buffer plus every chunk currently
// reachable from active or reserved (spec §10 of SPEC_FULL.md: retirement
// recycles a chunk's backing buffer rather than freeing it, so there is no
// third bucket to account for).
func (p *Pool[T]) UsedMemory() int {
	total := p.metaPool.usedMemory()
	for _, c := range p.active {
		total += c.usedMemory()
	}
	if p.reserved != nil {
		total += p.reserved.usedMemory()
	}
	return total
}

// ActiveChunks returns the number of chunks currently in the active list,
// for diagnostics and tests.
func (p *Pool[T]) ActiveChunks() int {
	return len(p.active)
}

// HasReserved reports whether a retired chunk is currently held for reuse.
func (p *Pool[T]) HasReserved() bool {
	return p.reserved != nil
}
