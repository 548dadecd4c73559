package alloc

import (
	"github.com/joshuapare/kcore/internal/buf"
	"github.com/joshuapare/kcore/internal/format"
)

// Block store primitives. All addresses are payload addresses; the header is
// the word before, the footer the last word of the block.

// blockSize returns the total size of the block at addr from its header.
func (a *Allocator) blockSize(addr Addr) uint32 {
	size, _ := format.DecodeTag(format.ReadTag(a.data(), addr))
	return size
}

// isFree reports whether the block at addr is free. Sentinels read as
// allocated, so this is safe one block past either end of the arena.
func (a *Allocator) isFree(addr Addr) bool {
	_, allocated := format.DecodeTag(format.ReadTag(a.data(), addr))
	return !allocated
}

// setBlockData writes identical header and footer tags for the block at addr.
func (a *Allocator) setBlockData(addr Addr, size uint32, allocated bool) {
	format.WriteTags(a.data(), addr, size, allocated)
}

// nextBlock returns the payload address of the physical successor of addr.
// For the last block this addresses the word after the trailing sentinel,
// whose "header" is the sentinel itself.
func (a *Allocator) nextBlock(addr Addr) Addr {
	return addr + a.blockSize(addr)
}

// prevTag reads the footer of the physical predecessor of addr (the leading
// sentinel for the first block).
func (a *Allocator) prevTag(addr Addr) (size uint32, free bool) {
	size, allocated := format.DecodeTag(format.ReadU32(a.data(), format.HeaderOffset(addr)-format.TagSize))
	return size, !allocated
}

// valid reports whether addr plausibly names a block: inside the arena, even,
// with a well-formed header that matches its footer.
func (a *Allocator) valid(addr Addr) bool {
	if !a.initialized || addr%2 != 0 {
		return false
	}
	lo := int(format.FirstBlock(a.start))
	limit := int(format.EndSentinel(a.start, a.length))
	if !buf.Within(lo, limit, int(addr), format.MinPayload+format.TagSize) {
		return false
	}
	data := a.data()
	header := format.ReadTag(data, addr)
	size, _ := format.DecodeTag(header)
	if size < format.MinBlockSize || size%2 != 0 {
		return false
	}
	if !buf.Within(lo-format.TagSize, limit, format.HeaderOffset(addr), int(size)) {
		return false
	}
	return format.ReadFooter(data, addr, size) == header
}

// BlockSize returns the total size of the block at addr, or 0 if addr does not
// name a block.
func (a *Allocator) BlockSize(addr Addr) uint32 {
	if !a.valid(addr) {
		return 0
	}
	return a.blockSize(addr)
}

// IsFree reports whether addr names a free block.
func (a *Allocator) IsFree(addr Addr) bool {
	return a.valid(addr) && a.isFree(addr)
}

// Payload returns the payload bytes of the allocated block at addr, or nil.
// The slice's capacity ends at the block's footer.
func (a *Allocator) Payload(addr Addr) []byte {
	if !a.valid(addr) || a.isFree(addr) {
		return nil
	}
	return a.payload(addr)
}

func (a *Allocator) payload(addr Addr) []byte {
	p, _ := buf.Slice(a.data(), int(addr), int(a.blockSize(addr))-format.TagOverhead)
	return p
}
