package alloc

import (
	"fmt"

	"github.com/joshuapare/kcore/internal/format"
)

// searchFunc returns the free block chosen for a request of total bytes
// (payload plus tags), or Null.
type searchFunc func(a *Allocator, total uint32) Addr

// strategyTable maps every Strategy to its search policy. Splitting and list
// maintenance are shared by all of them (see place).
var strategyTable = [...]searchFunc{
	FirstFit: (*Allocator).findFirst,
	BestFit:  (*Allocator).findBest,
	WorstFit: (*Allocator).findWorst,
	NextFit:  (*Allocator).findNext,
}

// findFirst takes the lowest-addressed block that fits.
func (a *Allocator) findFirst(total uint32) Addr {
	for cur := a.head; cur != Null; cur = a.listNext(cur) {
		if a.blockSize(cur) >= total {
			return cur
		}
	}
	return Null
}

// findBest takes the smallest block that fits. The list is address ordered and
// only a strictly smaller block replaces the candidate, so ties go to the
// lowest address.
func (a *Allocator) findBest(total uint32) Addr {
	best, bestSize := Null, uint32(0)
	for cur := a.head; cur != Null; cur = a.listNext(cur) {
		size := a.blockSize(cur)
		if size < total {
			continue
		}
		if best == Null || size < bestSize {
			best, bestSize = cur, size
			if size == total {
				break
			}
		}
	}
	return best
}

// findWorst takes the largest block that fits, lowest address on ties.
func (a *Allocator) findWorst(total uint32) Addr {
	worst, worstSize := Null, uint32(0)
	for cur := a.head; cur != Null; cur = a.listNext(cur) {
		size := a.blockSize(cur)
		if size >= total && size > worstSize {
			worst, worstSize = cur, size
		}
	}
	return worst
}

// findNext scans forward from the cursor to the end of the list, then wraps to
// the head and stops when it reaches the cursor again.
func (a *Allocator) findNext(total uint32) Addr {
	from := a.cursor
	if from == Null {
		return a.findFirst(total)
	}
	for cur := from; cur != Null; cur = a.listNext(cur) {
		if a.blockSize(cur) >= total {
			return cur
		}
	}
	for cur := a.head; cur != Null && cur != from; cur = a.listNext(cur) {
		if a.blockSize(cur) >= total {
			return cur
		}
	}
	return Null
}

// place allocates total bytes from the free block blk. A remainder of at least
// SplitThreshold becomes a free block that takes blk's list slot; a smaller one
// stays with the allocation. Returns the free block that now follows the
// placement in list order (the next-fit resume point).
func (a *Allocator) place(blk Addr, total uint32) Addr {
	size := a.blockSize(blk)
	rem := size - total

	if rem >= format.SplitThreshold {
		a.stats.SplitCount++
		tail := blk + total
		a.setBlockData(blk, total, true)
		a.setBlockData(tail, rem, false)
		a.listReplace(blk, tail)
		a.stats.BytesInUse += int64(total)
		return tail
	}

	next := a.listNext(blk)
	a.setBlockData(blk, size, true)
	a.listRemove(blk)
	a.stats.BytesInUse += int64(size)
	return next
}

// Alloc allocates size payload bytes with the configured strategy.
func (a *Allocator) Alloc(size uint32) (Addr, []byte, error) {
	return a.AllocWith(size, a.cfg.Strategy)
}

// AllocWith allocates size payload bytes using strategy s.
//
// The request is rounded up to an even size of at least MinPayload. The first
// call on an uninitialised allocator grows the provider to fit the request and
// lays out the arena. When no block fits, the arena grows by one increment and
// the call fails with ErrNoSpace; the added space serves later calls.
func (a *Allocator) AllocWith(size uint32, s Strategy) (Addr, []byte, error) {
	a.stats.AllocCalls++

	if int(s) >= len(strategyTable) {
		return Null, nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}
	if size > maxRequest {
		a.stats.AllocMisses++
		return Null, nil, fmt.Errorf("%w: request of %d bytes", ErrNoSpace, size)
	}

	need := format.PayloadFloor(size)
	if !a.initialized {
		if err := a.bootstrap(need); err != nil {
			a.stats.AllocMisses++
			return Null, nil, err
		}
	}
	total := need + format.TagOverhead

	blk := strategyTable[s](a, total)
	if blk == Null {
		a.stats.AllocMisses++
		if logAlloc {
			a.log.Debug().Uint32("size", size).Uint32("total", total).Stringer("strategy", s).Msg("no fit")
		}
		a.growOnMiss()
		return Null, nil, ErrNoSpace
	}

	a.cursor = a.place(blk, total)

	if logAlloc {
		a.log.Debug().
			Uint32("addr", blk).
			Uint32("size", size).
			Uint32("block", a.blockSize(blk)).
			Stringer("strategy", s).
			Msg("alloc")
	}
	return blk, a.payload(blk), nil
}
