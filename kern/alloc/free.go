package alloc

import "fmt"

// Free releases the block at addr and merges it with free physical
// neighbours. Null and blocks that are already free are ignored. An address
// that does not name a block in the arena yields ErrBadAddr.
func (a *Allocator) Free(addr Addr) error {
	if addr == Null {
		a.stats.IgnoredFrees++
		return nil
	}
	if !a.valid(addr) {
		return fmt.Errorf("%w: 0x%X", ErrBadAddr, addr)
	}
	if a.isFree(addr) {
		a.stats.IgnoredFrees++
		if logAlloc {
			a.log.Debug().Uint32("addr", addr).Msg("ignored free of free block")
		}
		return nil
	}

	size := a.blockSize(addr)
	a.stats.FreeCalls++
	a.stats.BytesInUse -= int64(size)
	merged := a.release(addr)

	if logAlloc {
		a.log.Debug().Uint32("addr", addr).Uint32("size", size).Uint32("merged", merged).Msg("free")
	}
	return nil
}

// release turns the allocated block at addr into free space, coalescing with
// its physical neighbours, and returns the address of the resulting free
// block. It does not touch BytesInUse.
//
// The four cases:
//
//	prev alloc, next alloc: tag free, insert in address order
//	prev alloc, next free:  absorb next, take over its list slot
//	prev free,  next alloc: grow prev in place (its slot is unchanged)
//	prev free,  next free:  unlink next, grow prev over all three
func (a *Allocator) release(addr Addr) Addr {
	size := a.blockSize(addr)
	prevSize, prevFree := a.prevTag(addr)
	next := a.nextBlock(addr)
	nextFree := a.isFree(next)

	switch {
	case !prevFree && !nextFree:
		a.setBlockData(addr, size, false)
		a.listInsertOrdered(addr)
		return addr

	case !prevFree && nextFree:
		a.stats.CoalesceForward++
		merged := size + a.blockSize(next)
		a.listReplace(next, addr)
		a.setBlockData(addr, merged, false)
		return addr

	case prevFree && !nextFree:
		a.stats.CoalesceBackward++
		prev := addr - prevSize
		a.setBlockData(prev, prevSize+size, false)
		return prev

	default:
		a.stats.CoalesceForward++
		a.stats.CoalesceBackward++
		prev := addr - prevSize
		merged := prevSize + size + a.blockSize(next)
		a.listRemove(next)
		a.setBlockData(prev, merged, false)
		return prev
	}
}

// reclaim carves the allocated block [addr, addr+size) back out of the free
// block at anchor that release folded it into. Whatever lies before and after
// it was a whole free block before the release, so both pieces are either
// empty or at least MinBlockSize.
func (a *Allocator) reclaim(anchor, addr Addr, size uint32) {
	total := a.blockSize(anchor)
	before := addr - anchor
	after := anchor + total - (addr + size)
	tail := addr + size

	switch {
	case before > 0:
		a.setBlockData(anchor, before, false)
		if after > 0 {
			a.setBlockData(tail, after, false)
			a.listInsertAfter(anchor, tail)
		}
	case after > 0:
		a.listReplace(anchor, tail)
		a.setBlockData(tail, after, false)
	default:
		a.listRemove(anchor)
	}
	a.setBlockData(addr, size, true)
}
