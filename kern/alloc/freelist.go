package alloc

import "github.com/joshuapare/kcore/internal/format"

// The free list is doubly linked through the first two payload words of every
// free block and kept in ascending address order. Only free blocks carry
// links; allocation hands those words back to the caller.

func (a *Allocator) links(addr Addr) (prev, next Addr) {
	data := a.data()
	return format.ReadU32(data, format.PrevLinkOffset(addr)), format.ReadU32(data, format.NextLinkOffset(addr))
}

func (a *Allocator) setPrev(addr, prev Addr) {
	format.PutU32(a.data(), format.PrevLinkOffset(addr), prev)
}

func (a *Allocator) setNext(addr, next Addr) {
	format.PutU32(a.data(), format.NextLinkOffset(addr), next)
}

func (a *Allocator) listNext(addr Addr) Addr {
	_, next := a.links(addr)
	return next
}

// listInsertHead makes addr the first entry.
func (a *Allocator) listInsertHead(addr Addr) {
	a.setPrev(addr, Null)
	a.setNext(addr, a.head)
	if a.head != Null {
		a.setPrev(a.head, addr)
	} else {
		a.tail = addr
	}
	a.head = addr
	a.freeCount++
}

// listInsertTail makes addr the last entry.
func (a *Allocator) listInsertTail(addr Addr) {
	a.setNext(addr, Null)
	a.setPrev(addr, a.tail)
	if a.tail != Null {
		a.setNext(a.tail, addr)
	} else {
		a.head = addr
	}
	a.tail = addr
	a.freeCount++
}

// listInsertAfter links addr immediately after at.
func (a *Allocator) listInsertAfter(at, addr Addr) {
	_, next := a.links(at)
	if next == Null {
		a.listInsertTail(addr)
		return
	}
	a.setPrev(addr, at)
	a.setNext(addr, next)
	a.setNext(at, addr)
	a.setPrev(next, addr)
	a.freeCount++
}

// listInsertBefore links addr immediately before at.
func (a *Allocator) listInsertBefore(at, addr Addr) {
	prev, _ := a.links(at)
	if prev == Null {
		a.listInsertHead(addr)
		return
	}
	a.listInsertAfter(prev, addr)
}

// listInsertOrdered links addr at its address-ordered position. Releases at
// the top of the arena are the common case, so the tail is checked first.
func (a *Allocator) listInsertOrdered(addr Addr) {
	if a.tail == Null || a.tail < addr {
		a.listInsertTail(addr)
		return
	}
	for cur := a.head; cur != Null; cur = a.listNext(cur) {
		if cur > addr {
			a.listInsertBefore(cur, addr)
			return
		}
	}
	a.listInsertTail(addr)
}

// listRemove unlinks addr. A next-fit cursor parked on addr moves to the
// following entry.
func (a *Allocator) listRemove(addr Addr) {
	prev, next := a.links(addr)
	if prev != Null {
		a.setNext(prev, next)
	} else {
		a.head = next
	}
	if next != Null {
		a.setPrev(next, prev)
	} else {
		a.tail = prev
	}
	if a.cursor == addr {
		a.cursor = next
	}
	a.freeCount--
}

// listReplace puts addr into old's slot. The caller guarantees that addr sits
// between old's list neighbours in address order.
func (a *Allocator) listReplace(old, addr Addr) {
	prev, next := a.links(old)
	a.setPrev(addr, prev)
	a.setNext(addr, next)
	if prev != Null {
		a.setNext(prev, addr)
	} else {
		a.head = addr
	}
	if next != Null {
		a.setPrev(next, addr)
	} else {
		a.tail = addr
	}
	if a.cursor == old {
		a.cursor = addr
	}
}

// FreeBlocks returns the free list in list order.
func (a *Allocator) FreeBlocks() []BlockInfo {
	out := make([]BlockInfo, 0, a.freeCount)
	for cur := a.head; cur != Null; cur = a.listNext(cur) {
		out = append(out, BlockInfo{Addr: cur, Size: a.blockSize(cur), Free: true})
	}
	return out
}

// FreeCount returns the number of free-list entries.
func (a *Allocator) FreeCount() int { return a.freeCount }
