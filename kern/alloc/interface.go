package alloc

// Heap is the allocation surface consumed by kernel code and the workload
// drivers. *Allocator is the only implementation.
type Heap interface {
	// Alloc returns the payload address and payload bytes of a new block of at
	// least size bytes, or ErrNoSpace.
	Alloc(size uint32) (Addr, []byte, error)

	// Free releases a block. Null and already-free addresses are ignored.
	Free(addr Addr) error

	// Realloc resizes a block, preserving min(old, new) payload bytes. The
	// returned address may differ from addr.
	Realloc(addr Addr, size uint32) (Addr, []byte, error)
}

var _ Heap = (*Allocator)(nil)
