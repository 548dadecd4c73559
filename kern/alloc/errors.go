package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block large enough was found. When the
	// miss also triggered growth, the new space is usable on the next call.
	ErrNoSpace = errors.New("alloc: no free block large enough")

	// ErrBadAddr indicates an address that does not name a block in the arena.
	ErrBadAddr = errors.New("alloc: bad block address")

	// ErrGrowFail indicates that the arena provider refused to grow.
	ErrGrowFail = errors.New("alloc: grow failed")

	// ErrUnknownStrategy indicates a placement strategy outside the strategy table.
	ErrUnknownStrategy = errors.New("alloc: unknown placement strategy")

	// ErrArenaTooSmall indicates an Init region that cannot hold the sentinels
	// plus one minimum block.
	ErrArenaTooSmall = errors.New("alloc: arena too small")
)
