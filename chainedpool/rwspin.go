package chainedpool

import (
	"runtime"
	"sync/atomic"
)

// rwSpinLock is the readers-writer spinlock of spec §5: a single atomic
// integer, 0 = idle, positive = reader count, -1 = writer held. Readers
// acquire by CAS from n >= 0 to n+1; the writer acquires by CAS from 0 to
// -1; releases are a plain decrement (reader) or a store of 0 (writer).
// There is no reader-to-writer upgrade — ConcurrentPool always drops its
// read lock before attempting the write lock and re-validates state
// afterward (spec §4.5 steps 3-4), which is what makes that absence safe.
type rwSpinLock struct {
	state atomic.Int32
}

func (l *rwSpinLock) rLock() {
	for {
		n := l.state.Load()
		if n >= 0 && l.state.CompareAndSwap(n, n+1) {
			return
		}
		runtime.Gosched()
	}
}

func (l *rwSpinLock) rUnlock() {
	l.state.Add(-1)
}

func (l *rwSpinLock) lock() {
	for {
		if l.state.CompareAndSwap(0, -1) {
			return
		}
		runtime.Gosched()
	}
}

func (l *rwSpinLock) unlock() {
	l.state.Store(0)
}
