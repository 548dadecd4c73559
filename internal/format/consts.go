// Package format holds the low-level layout of the kernel heap arena: word
// encoding, boundary tags and the placement of free-list links. It is shared by
// the allocator and the invariant verifier so both agree on a single encoding.
package format

const (
	// WordSize is the size of one machine word in the arena. Every tag and
	// free-list link is a single little-endian uint32.
	WordSize = 4

	// TagSize is the size of a boundary tag (header or footer).
	TagSize = WordSize

	// TagOverhead is the per-block metadata: one header plus one footer.
	TagOverhead = 2 * TagSize

	// MinPayload is the smallest payload a block can carry. A free block stores
	// its previous and next free-list links in the first two payload words, so
	// the payload must be able to hold both.
	MinPayload = 2 * WordSize

	// MinBlockSize is the smallest total block size (payload plus tags).
	MinBlockSize = MinPayload + TagOverhead

	// SplitThreshold is the smallest remainder that is carved off into its own
	// free block. Anything smaller stays attached to the allocation as internal
	// fragmentation.
	SplitThreshold = 4 * WordSize

	// SentinelSize is the size of each boundary sentinel bracketing the arena.
	SentinelSize = WordSize

	// ArenaOverhead is the fixed cost of an arena: its two sentinels.
	ArenaOverhead = 2 * SentinelSize

	// AllocatedBit is packed into the low bit of every tag. Block sizes are
	// always even so the bit never collides with the size.
	AllocatedBit = 0x1

	// SizeMask strips the allocated bit from a tag.
	SizeMask = ^uint32(AllocatedBit)

	// SentinelTag marks the permanently allocated one-word blocks at both ends
	// of the arena. Size 1 is below MinBlockSize so it can never be mistaken for
	// a real block.
	SentinelTag = 0x1

	// PageSize is the default growth granularity of the arena.
	PageSize = 0x1000

	// NullLink is the link value meaning "no neighbour" in the free list.
	NullLink = 0

	// prevLinkOffset and nextLinkOffset locate the free-list links inside a
	// free block's payload.
	prevLinkOffset = 0
	nextLinkOffset = WordSize
)
