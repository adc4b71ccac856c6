// Package stackregion implements the stack / dual-stack region of spec
// §4.6: a fixed byte buffer with a single bump-pointer head, LIFO markers,
// and an optional top-down/bottom-up split over one shared buffer. Next to
// blockpool and chainedpool this is mechanical scaffolding — spec §1 calls
// out the single-threaded bump-pointer case explicitly as out of scope for
// deep design attention, specified only at its interface to the rest of
// the library, which is exactly the shape this package takes.
//
// Grounded on the teacher's pkg/pjrt arenaContainer: a preallocated region
// with a current offset, a Reset that rewinds without freeing, and a Free
// that releases the whole thing at once — generalized here to a pure-Go
// buffer (no cgo) with both growth directions and scoped rewind markers.
package stackregion

import (
	"unsafe"

	"github.com/arenakit/goregion/internal/cell"
	"github.com/arenakit/goregion/internal/debugcheck"
)

func sizeOf[T any]() int  { return int(cell.SizeOf[T]()) }
func alignOf[T any]() int { return int(cell.AlignOf[T]()) }

// Marker is a saved Region head, used to rewind allocations in LIFO order.
type Marker int

// Region is a fixed-capacity bump-pointer allocator over a caller-supplied
// buffer. A Region constructed with New grows upward from the start of
// the buffer; the downward-growing half used by DualStack is built
// internally via newDirected.
type Region struct {
	buf  []byte
	base unsafe.Pointer
	size int
	head int
	down bool
}

// New creates a Region over buffer, growing upward from offset 0.
func New(buffer []byte) *Region {
	return newDirected(buffer, false)
}

func newDirected(buffer []byte, down bool) *Region {
	r := &Region{buf: buffer, size: len(buffer), down: down}
	if len(buffer) > 0 {
		r.base = unsafe.Pointer(&buffer[0])
	}
	if down {
		r.head = r.size
	}
	return r
}

// Allocate bumps head by n bytes (unaligned) and returns a pointer to the
// allocation, or nil if the region has insufficient free bytes.
func (r *Region) Allocate(n int) unsafe.Pointer {
	return r.AllocateAligned(n, 1)
}

// AllocateAligned bumps head by n bytes, first aligning it to align (a
// power of two), and returns a pointer to the allocation, or nil if the
// region has insufficient free bytes.
func (r *Region) AllocateAligned(n, align int) unsafe.Pointer {
	if align <= 0 {
		align = 1
	}
	debugcheck.Assert(cell.IsPowerOfTwo(uintptr(align)), "region alignment %d is not a power of two", align)
	if n < 0 {
		return nil
	}
	if r.down {
		newHead := alignDown(r.head-n, align)
		if newHead < 0 {
			return nil
		}
		r.head = newHead
		return unsafe.Add(r.base, r.head)
	}
	start := alignUp(r.head, align)
	if start+n > r.size {
		return nil
	}
	r.head = start + n
	return unsafe.Add(r.base, start)
}

// Head returns the current head as a Marker, suitable for a later Free.
func (r *Region) Head() Marker {
	return Marker(r.head)
}

// Free rewinds head to a previously recorded Marker. Pre: m was returned
// by Head on this Region at a point no later allocation has already
// rewound past — the caller is responsible for LIFO discipline.
func (r *Region) Free(m Marker) {
	r.head = int(m)
}

// Clear rewinds the Region to its empty state.
func (r *Region) Clear() {
	if r.down {
		r.head = r.size
	} else {
		r.head = 0
	}
}

// FreeBytes returns the number of bytes still available to allocate.
func (r *Region) FreeBytes() int {
	if r.down {
		return r.head
	}
	return r.size - r.head
}

// Create allocates space for a T, copies value into it, and returns a
// pointer into the Region's buffer. Returns (nil, false) if the Region
// has insufficient free bytes.
func Create[T any](r *Region, value T) (*T, bool) {
	ptr := r.AllocateAligned(sizeOf[T](), alignOf[T]())
	if ptr == nil {
		return nil, false
	}
	p := (*T)(ptr)
	*p = value
	return p, true
}

// Destroy marks ptr's storage as no longer live. A stack region has no
// per-object free — space is only reclaimed by Free(marker) or Clear() —
// so this zeroes the value (the Go analogue of "the destructor has been
// run") without changing FreeBytes. Callers that need the space back must
// rewind to a Marker taken before ptr was allocated.
func Destroy[T any](ptr *T) {
	var zero T
	*ptr = zero
}

// Scope is the Go rendering of the source's RAII-style scoped marker
// (spec §4.6, §6): Enter records the Region's current head, and Close
// rewinds to it. Go has no destructors, so callers use defer:
//
//	scope := region.Enter()
//	defer scope.Close()
type Scope struct {
	region *Region
	marker Marker
}

// Enter records r's current head in a new Scope.
func (r *Region) Enter() *Scope {
	return &Scope{region: r, marker: r.Head()}
}

// Close rewinds the Scope's Region to the head recorded by Enter.
func (s *Scope) Close() {
	s.region.Free(s.marker)
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

func alignDown(n, align int) int {
	return n &^ (align - 1)
}
