package freelist

import (
	"testing"
	"unsafe"
)

func newBuf(stride uintptr, capacity int) unsafe.Pointer {
	buf := make([]byte, int(stride)*capacity)
	return unsafe.Pointer(&buf[0])
}

func TestListExhaustion(t *testing.T) {
	const stride = unsafe.Sizeof(uintptr(0))
	l := New(newBuf(stride, 4), stride, 4)

	var got []unsafe.Pointer
	for i := 0; i < 4; i++ {
		p, ok := l.Allocate()
		if !ok {
			t.Fatalf("allocate %d: unexpected exhaustion", i)
		}
		got = append(got, p)
	}
	if !l.Full() {
		t.Fatal("expected list to be full after 4 allocations")
	}
	if _, ok := l.Allocate(); ok {
		t.Fatal("fifth allocate should fail")
	}

	if !l.Release(got[1]) {
		t.Fatal("release of live cell should succeed")
	}
	p, ok := l.Allocate()
	if !ok || p != got[1] {
		t.Fatalf("expected just-released cell back, got %v ok=%v", p, ok)
	}

	for _, p := range got {
		l.Release(p)
	}
	if l.Full() {
		t.Fatal("list should not be full after releasing everything")
	}
}

func TestListLIFOOrdering(t *testing.T) {
	const stride = unsafe.Sizeof(uintptr(0))
	l := New(newBuf(stride, 3), stride, 3)

	a, _ := l.Allocate()
	b, _ := l.Allocate()
	c, _ := l.Allocate()

	l.Release(b)
	if got, _ := l.Allocate(); got != b {
		t.Fatalf("expected b back first, got %v", got)
	}

	l.Release(c)
	l.Release(a)

	if got, _ := l.Allocate(); got != a {
		t.Fatalf("expected a back, got %v", got)
	}
	if got, _ := l.Allocate(); got != c {
		t.Fatalf("expected c back, got %v", got)
	}
}

func TestListReleaseForeignPointer(t *testing.T) {
	const stride = unsafe.Sizeof(uintptr(0))
	l := New(newBuf(stride, 2), stride, 2)

	other := make([]byte, stride)
	if l.Release(unsafe.Pointer(&other[0])) {
		t.Fatal("releasing a pointer outside the backing buffer must fail")
	}
}

func TestConcurrentListBasic(t *testing.T) {
	const stride = unsafe.Sizeof(uintptr(0))
	l := NewConcurrent(newBuf(stride, 4), stride, 4)

	var got []unsafe.Pointer
	for i := 0; i < 4; i++ {
		p, ok := l.Allocate()
		if !ok {
			t.Fatalf("allocate %d failed", i)
		}
		got = append(got, p)
	}
	if _, ok := l.Allocate(); ok {
		t.Fatal("expected exhaustion")
	}
	for _, p := range got {
		if !l.Release(p) {
			t.Fatalf("release of %v should succeed", p)
		}
	}
	if l.Full() {
		t.Fatal("expected free capacity after releasing everything")
	}
}
