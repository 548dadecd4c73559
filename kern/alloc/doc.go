// Package alloc implements the kernel heap: a boundary-tag allocator over a
// single contiguous arena obtained from an arena.Provider.
//
// # Layout
//
// Every block carries a one-word header and an identical one-word footer
// holding its total size with the allocated flag in the low bit. The arena is
// bracketed by two sentinel words (tag 1) so neighbour lookups never leave it.
// Free blocks are kept on a doubly linked list in ascending address order; the
// links occupy the first two payload words of each free block.
//
// # Placement
//
// Four strategies share one split/remove path:
//
//   - FirstFit: lowest address that fits
//   - BestFit: smallest block that fits
//   - WorstFit: largest block that fits
//   - NextFit: first fit resuming after the last placement
//
// A block is split when the remainder is at least four words; otherwise the
// slack stays with the allocation.
//
// # Growth
//
// The first allocation grows the provider by whole pages and lays out the
// arena. A failed search grows it by one page and extends the arena, but the
// failing call still returns ErrNoSpace.
//
// # Free and Realloc
//
// Free merges the released block with free physical neighbours, so no two
// adjacent blocks are ever both free. Realloc shrinks in place, absorbs
// following free blocks, or moves the payload to a new block.
//
// # Usage
//
//	mem, _ := arena.NewMem(1 << 20)
//	a := alloc.New(mem, nil)
//
//	addr, payload, err := a.Alloc(64)
//	if err != nil {
//	    return err
//	}
//	copy(payload, record)
//	defer a.Free(addr)
//
// Set KCORE_LOG_ALLOC=1 to log every operation at debug level.
//
// # Thread Safety
//
// An Allocator is not safe for concurrent use.
package alloc
