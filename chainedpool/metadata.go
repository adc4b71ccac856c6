package chainedpool

import (
	"unsafe"

	"github.com/arenakit/goregion/internal/cell"
)

// Every cell the chained pool hands out is followed, within the same
// cell, by a small trailer recording the address of the owning chunk
// (spec §3 "Allocation metadata", §4.4 "Metadata placement"). The trailer
// is a single pointer, so its alignment requirement is pointer alignment.

// stride returns the per-cell size for a chunk of T: room for the payload
// (or the free-list link, whichever is larger, as in blockpool), followed
// by padding up to pointer alignment, followed by the metadata pointer
// itself, the whole thing aligned to T's own alignment so cells tile
// cleanly.
func stride[T any]() uintptr {
	return cell.AlignUp(metaOffset[T]()+cell.PointerSize, cellAlign[T]())
}

// metaOffset is the byte offset, from the start of a cell, of the
// metadata trailer: align_up(payload_bytes, alignof(metadata)), per
// spec §4.4.
func metaOffset[T any]() uintptr {
	payload := cell.Max(cell.SizeOf[T](), cell.PointerSize)
	return cell.AlignUp(payload, cell.PointerSize)
}

// cellAlign is the alignment every cell's base address must honor.
func cellAlign[T any]() uintptr {
	return cell.Align[T]()
}

func metadataSlot[T any](cellBase unsafe.Pointer) *unsafe.Pointer {
	return (*unsafe.Pointer)(unsafe.Add(cellBase, metaOffset[T]()))
}

// stampOwner writes the owning chunk's address into ptr's trailing
// metadata.
func stampOwner[T any](ptr *T, owner *chunk[T]) {
	*metadataSlot[T](unsafe.Pointer(ptr)) = unsafe.Pointer(owner)
}

// recoverChunk reads the owning chunk back out of ptr's trailing
// metadata. This is O(1): no lookup table, just a pointer-sized read at a
// fixed offset from ptr, which is the entire point of stamping the owner
// in-cell rather than in a side table keyed by address (spec §9).
func recoverChunk[T any](ptr *T) *chunk[T] {
	if ptr == nil {
		return nil
	}
	raw := *metadataSlot[T](unsafe.Pointer(ptr))
	return (*chunk[T])(raw)
}
