package stackregion

import (
	"unsafe"

	"github.com/arenakit/goregion/internal/pool"
)

// pooledRegion wraps a Region with the intrusive linked-list fields the
// per-P pool needs. Region must stay the first field: Put recovers the
// enclosing pooledRegion from a *Region by reinterpreting its address,
// which is only safe while the two share field zero's offset.
type pooledRegion struct {
	Region
	next *pooledRegion
}

func (n *pooledRegion) Next() *pooledRegion        { return n.next }
func (n *pooledRegion) SetNext(next *pooledRegion) { n.next = next }

// RegionPool recycles fixed-size stack regions across short-lived scratch
// allocations. A server handling one request per goroutine typically
// wants a scratch Region for the lifetime of that request and nothing
// longer; RegionPool turns that churn into per-P reuse instead of a fresh
// slice allocation on every request.
//
// Grounded on the source's per-P object pool (internal/pool), generalized
// from an arbitrary Linkable node to a fixed-size scratch Region.
type RegionPool struct {
	regionSize int
	pool       *pool.Pool[pooledRegion, *pooledRegion]
}

// NewRegionPool creates a RegionPool whose borrowed Regions each wrap a
// freshly allocated buffer of regionSize bytes. regionSize must be
// positive.
func NewRegionPool(regionSize int) *RegionPool {
	rp := &RegionPool{regionSize: regionSize}
	rp.pool = pool.New(func() *pooledRegion {
		buf := make([]byte, regionSize)
		return &pooledRegion{Region: *New(buf)}
	})
	return rp
}

// Get borrows a Region, already Clear()-ed, ready for immediate use.
func (rp *RegionPool) Get() *Region {
	n := rp.pool.Get()
	n.Region.Clear()
	return &n.Region
}

// Put returns a Region borrowed from Get back to the pool. The caller
// must not touch r again afterward; any Scope still open on r is
// invalidated.
func (rp *RegionPool) Put(r *Region) {
	n := (*pooledRegion)(unsafe.Pointer(r))
	rp.pool.Put(n)
}

// RegionSize returns the byte size of Regions this pool hands out.
func (rp *RegionPool) RegionSize() int {
	return rp.regionSize
}
