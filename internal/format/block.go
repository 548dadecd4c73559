package format

import (
	"fmt"

	"github.com/joshuapare/kcore/internal/buf"
)

// Block is a decoded view of one block in the arena.
type Block struct {
	Addr   uint32 // Payload address (header sits one word before)
	Size   uint32 // Total size including header and footer
	Free   bool   // True when the header's allocated bit is clear
	Header uint32 // Raw header tag
	Footer uint32 // Raw footer tag
}

// Payload returns the payload size of the block.
func (b Block) Payload() uint32 {
	return b.Size - TagOverhead
}

// FirstBlock returns the payload address of the first block of an arena that
// starts at start: one word for the leading sentinel, one for the header.
func FirstBlock(start uint32) uint32 {
	return start + SentinelSize + TagSize
}

// EndSentinel returns the offset of the trailing sentinel of an arena.
func EndSentinel(start, length uint32) uint32 {
	return start + length - SentinelSize
}

// NextBlock decodes the block at addr and returns it together with the payload
// address of its physical successor. limit is the offset of the trailing
// sentinel; a block may not extend past it.
func NextBlock(b []byte, addr, limit uint32) (Block, uint32, error) {
	hdr := HeaderOffset(addr)
	if hdr < 0 || !buf.Has(b, hdr, TagSize) {
		return Block{}, 0, fmt.Errorf("block 0x%X: %w", addr, ErrTruncated)
	}
	header := ReadU32(b, hdr)
	size, allocated := DecodeTag(header)
	if size < MinBlockSize || size%2 != 0 {
		return Block{}, 0, fmt.Errorf("block 0x%X: size %d: %w", addr, size, ErrBadTag)
	}
	end, ok := buf.AddOverflowSafe(hdr, int(size))
	if !ok || end > int(limit) {
		return Block{}, 0, fmt.Errorf("block 0x%X: size %d past arena end: %w", addr, size, ErrTruncated)
	}
	footer := ReadU32(b, FooterOffset(addr, size))
	return Block{
		Addr:   addr,
		Size:   size,
		Free:   !allocated,
		Header: header,
		Footer: footer,
	}, addr + size, nil
}
