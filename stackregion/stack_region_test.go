package stackregion

import (
	"testing"
)

// TestStackScopeRewind is seed scenario 6 from spec §8.
func TestStackScopeRewind(t *testing.T) {
	buf := make([]byte, 1024)
	r := New(buf)
	m0 := r.Head()

	if r.Allocate(100) == nil {
		t.Fatal("allocate(100) should succeed in a fresh 1024-byte region")
	}

	func() {
		scope := r.Enter()
		defer scope.Close()
		if r.Allocate(200) == nil {
			t.Fatal("allocate(200) inside the scope should succeed")
		}
	}()

	if r.Head() != m0+100 {
		t.Fatalf("expected head to rewind to m0+100=%d after leaving the scope, got %d", m0+100, r.Head())
	}

	r.Free(m0)
	if r.FreeBytes() != 1024 {
		t.Fatalf("expected free_bytes == 1024 after rewinding to m0, got %d", r.FreeBytes())
	}
}

// TestClearIdempotence is the universal property from spec §8: clear();
// allocate(k); free(marker_at_zero) returns head to the start state.
func TestClearIdempotence(t *testing.T) {
	buf := make([]byte, 256)
	r := New(buf)

	r.Clear()
	zero := r.Head()
	r.Allocate(64)
	r.Free(zero)

	if r.Head() != zero {
		t.Fatalf("expected head back at the start-state marker, got %d want %d", r.Head(), zero)
	}
	if r.FreeBytes() != 256 {
		t.Fatalf("expected all bytes free again, got %d", r.FreeBytes())
	}
}

func TestAllocateExhaustion(t *testing.T) {
	buf := make([]byte, 16)
	r := New(buf)

	if r.Allocate(16) == nil {
		t.Fatal("allocate(16) should exactly fill a 16-byte region")
	}
	if r.Allocate(1) != nil {
		t.Fatal("allocate(1) past capacity should return nil")
	}
}

func TestAllocateAlignedRespectsAlignment(t *testing.T) {
	buf := make([]byte, 64)
	r := New(buf)

	r.Allocate(3) // misalign the head deliberately
	p := r.AllocateAligned(8, 8)
	if p == nil {
		t.Fatal("expected an aligned allocation to succeed with room to spare")
	}
	if uintptr(p)%8 != 0 {
		t.Fatal("expected returned address to be 8-byte aligned")
	}
}

func TestCreateTypedValue(t *testing.T) {
	buf := make([]byte, 64)
	r := New(buf)

	type point struct{ X, Y int64 }
	p, ok := Create(r, point{X: 1, Y: 2})
	if !ok || p.X != 1 || p.Y != 2 {
		t.Fatalf("expected constructed value back, got %+v ok=%v", p, ok)
	}
	Destroy(p)
	if p.X != 0 || p.Y != 0 {
		t.Fatal("expected Destroy to zero the value")
	}
}

func TestDualStackMeetWithoutOverlap(t *testing.T) {
	buf := make([]byte, 100)
	d := NewDualStack(buf)

	if d.Bottom().Allocate(40) == nil {
		t.Fatal("bottom allocate should succeed")
	}
	if d.Top().Allocate(40) == nil {
		t.Fatal("top allocate should succeed")
	}
	if got := d.Gap(); got != 20 {
		t.Fatalf("expected a 20-byte gap between the two regions, got %d", got)
	}
}

func TestRegionPoolRecycles(t *testing.T) {
	rp := NewRegionPool(128)

	r1 := rp.Get()
	if r1.FreeBytes() != 128 {
		t.Fatalf("expected a freshly borrowed region to be empty, got %d free bytes", r1.FreeBytes())
	}
	r1.Allocate(64)
	rp.Put(r1)

	r2 := rp.Get()
	if r2.FreeBytes() != 128 {
		t.Fatalf("expected a recycled region to come back Clear()-ed, got %d free bytes", r2.FreeBytes())
	}
	rp.Put(r2)
}

func TestRegionPoolConcurrentBorrow(t *testing.T) {
	rp := NewRegionPool(256)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				r := rp.Get()
				r.Allocate(32)
				rp.Put(r)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
