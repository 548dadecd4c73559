package alloc

import (
	"fmt"

	"github.com/joshuapare/kcore/internal/format"
)

// Realloc resizes the block at addr to hold size payload bytes and returns its
// (possibly new) address. The first min(old, new) payload bytes are preserved.
//
//   - Realloc(Null, 0) does nothing.
//   - Realloc(Null, n) is Alloc(n).
//   - Realloc(addr, 0) frees addr and returns Null.
//
// Growth first tries to absorb free blocks that physically follow addr. If
// that is not enough, the block is freed and a new one is allocated with the
// configured strategy; the payload is copied across. When that allocation
// fails too, addr is restored unchanged and ErrNoSpace is returned.
func (a *Allocator) Realloc(addr Addr, size uint32) (Addr, []byte, error) {
	a.stats.ReallocCalls++

	switch {
	case addr == Null && size == 0:
		return Null, nil, nil
	case addr == Null:
		return a.Alloc(size)
	case size == 0:
		return Null, nil, a.Free(addr)
	}

	if !a.valid(addr) || a.isFree(addr) {
		return Null, nil, fmt.Errorf("%w: realloc of 0x%X", ErrBadAddr, addr)
	}
	if size > maxRequest {
		return Null, nil, fmt.Errorf("%w: request of %d bytes", ErrNoSpace, size)
	}

	total := format.BlockSizeFor(size)
	cur := a.blockSize(addr)

	if total <= cur {
		a.shrink(addr, cur, total)
		a.stats.ReallocInPlace++
		return addr, a.payload(addr), nil
	}
	if a.absorb(addr, cur, total) {
		a.stats.ReallocInPlace++
		return addr, a.payload(addr), nil
	}
	return a.move(addr, cur, total)
}

// shrink trims the block at addr to total bytes when the remainder is large
// enough to stand alone; the remainder is released and may coalesce forward.
func (a *Allocator) shrink(addr Addr, cur, total uint32) {
	rem := cur - total
	if rem < format.SplitThreshold {
		return
	}
	a.stats.SplitCount++
	tail := addr + total
	a.setBlockData(addr, total, true)
	a.setBlockData(tail, rem, true)
	a.stats.BytesInUse -= int64(rem)
	a.release(tail)

	if logAlloc {
		a.log.Debug().Uint32("addr", addr).Uint32("from", cur).Uint32("to", total).Msg("realloc shrink")
	}
}

// absorb grows the block at addr into the run of free blocks that physically
// follows it. Nothing is modified unless the run is large enough.
func (a *Allocator) absorb(addr Addr, cur, total uint32) bool {
	first := a.nextBlock(addr)
	acc := cur
	last := first
	for blk := first; a.isFree(blk); blk = a.nextBlock(blk) {
		acc += a.blockSize(blk)
		last = blk
		if acc >= total {
			break
		}
	}
	if acc < total {
		return false
	}

	// Unlink everything past the first absorbed block before any tag or link
	// inside the run is overwritten.
	for blk := a.nextBlock(first); blk <= last; blk = a.nextBlock(blk) {
		a.listRemove(blk)
	}

	rem := acc - total
	if rem >= format.SplitThreshold {
		a.stats.SplitCount++
		tail := addr + total
		a.listReplace(first, tail)
		a.setBlockData(addr, total, true)
		a.setBlockData(tail, rem, false)
		a.stats.BytesInUse += int64(total - cur)
	} else {
		a.listRemove(first)
		a.setBlockData(addr, acc, true)
		a.stats.BytesInUse += int64(acc - cur)
	}

	if logAlloc {
		a.log.Debug().Uint32("addr", addr).Uint32("from", cur).Uint32("to", a.blockSize(addr)).Msg("realloc absorb")
	}
	return true
}

// move frees the block at addr and places a new block of total bytes with the
// configured strategy, copying the old payload over. If nothing fits the old
// block is carved back out of free space with its payload intact.
func (a *Allocator) move(addr Addr, cur, total uint32) (Addr, []byte, error) {
	s := a.cfg.Strategy
	if int(s) >= len(strategyTable) {
		return Null, nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}

	old := a.payload(addr)
	snapshot := make([]byte, len(old))
	copy(snapshot, old)

	a.stats.BytesInUse -= int64(cur)
	anchor := a.release(addr)

	blk := strategyTable[s](a, total)
	if blk == Null {
		a.reclaim(anchor, addr, cur)
		a.stats.BytesInUse += int64(cur)
		copy(a.payload(addr), snapshot)
		a.stats.AllocMisses++
		a.growOnMiss()
		return Null, nil, fmt.Errorf("%w: realloc of 0x%X to %d bytes", ErrNoSpace, addr, total)
	}

	a.cursor = a.place(blk, total)
	dst := a.payload(blk)
	copy(dst, snapshot)
	a.stats.ReallocMoves++

	if logAlloc {
		a.log.Debug().Uint32("from", addr).Uint32("to", blk).Uint32("size", total).Msg("realloc move")
	}
	return blk, dst, nil
}
