package stackregion

// DualStack partitions one shared buffer into a top-down and a bottom-up
// Region (spec §4.6): the two halves may meet but never overlap, and the
// caller is responsible for that — DualStack does not enforce a collision
// check, matching the source's behavior.
type DualStack struct {
	buf    []byte
	top    *Region
	bottom *Region
}

// NewDualStack creates a DualStack over buffer: Bottom grows upward from
// offset 0, Top grows downward from the end.
func NewDualStack(buffer []byte) *DualStack {
	return &DualStack{
		buf:    buffer,
		bottom: newDirected(buffer, false),
		top:    newDirected(buffer, true),
	}
}

// Top returns the downward-growing Region.
func (d *DualStack) Top() *Region {
	return d.top
}

// Bottom returns the upward-growing Region.
func (d *DualStack) Bottom() *Region {
	return d.bottom
}

// Gap returns the number of bytes currently unclaimed between the two
// regions' heads. This is additive instrumentation (SPEC_FULL.md §10): it
// lets a caller that wants to self-enforce a non-collision policy do so,
// without DualStack itself performing the check spec §4.6 says it does
// not perform.
func (d *DualStack) Gap() int {
	return d.top.head - d.bottom.head
}
