package pool

import _ "unsafe" // for go:linkname

// runtime_procPin/runtime_procUnpin pin the calling goroutine to its
// current P for the duration of a Get/Put, the same primitive sync.Pool
// itself is built on. Linked in directly rather than through the
// exported runtime/pprof-adjacent API, since none is exported.
//
//go:linkname runtime_procPin runtime.procPin
func runtime_procPin() int

//go:linkname runtime_procUnpin runtime.procUnpin
func runtime_procUnpin()
