package format

// Block layout inside the arena (addresses are payload addresses):
//
//	addr-4          addr                        addr+size-8   addr+size-4
//	+--------+------------------------------------+--------+
//	| header | payload (prev, next links if free) | footer |
//	+--------+------------------------------------+--------+
//
// Header and footer hold the same tag: size | allocated. The footer lets a block
// find its physical predecessor by reading the word just before its own header.

// EncodeTag packs a total block size and the allocated flag into one word.
func EncodeTag(size uint32, allocated bool) uint32 {
	if allocated {
		return size | AllocatedBit
	}
	return size & SizeMask
}

// DecodeTag splits a tag into its size and allocated flag.
func DecodeTag(tag uint32) (size uint32, allocated bool) {
	return tag & SizeMask, tag&AllocatedBit != 0
}

// HeaderOffset returns the offset of the header of the block at addr.
func HeaderOffset(addr uint32) int {
	return int(addr) - TagSize
}

// FooterOffset returns the offset of the footer of a block at addr of the
// given total size.
func FooterOffset(addr, size uint32) int {
	return int(addr) + int(size) - TagOverhead
}

// PrevLinkOffset returns the offset of the previous-free link of a free block.
func PrevLinkOffset(addr uint32) int {
	return int(addr) + prevLinkOffset
}

// NextLinkOffset returns the offset of the next-free link of a free block.
func NextLinkOffset(addr uint32) int {
	return int(addr) + nextLinkOffset
}

// ReadTag reads the header tag of the block at addr.
func ReadTag(b []byte, addr uint32) uint32 {
	return ReadU32(b, HeaderOffset(addr))
}

// ReadFooter reads the footer tag of the block at addr with the given size.
func ReadFooter(b []byte, addr, size uint32) uint32 {
	return ReadU32(b, FooterOffset(addr, size))
}

// WriteTags writes identical header and footer tags for the block at addr.
func WriteTags(b []byte, addr, size uint32, allocated bool) {
	tag := EncodeTag(size, allocated)
	PutU32(b, HeaderOffset(addr), tag)
	PutU32(b, FooterOffset(addr, size), tag)
}
