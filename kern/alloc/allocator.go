package alloc

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/joshuapare/kcore/internal/buf"
	"github.com/joshuapare/kcore/internal/format"
	"github.com/joshuapare/kcore/internal/logger"
	"github.com/joshuapare/kcore/kern/arena"
	"github.com/joshuapare/kcore/kern/verify"
)

// Runtime flag for per-operation logging - controlled by KCORE_LOG_ALLOC env var.
var logAlloc = os.Getenv("KCORE_LOG_ALLOC") != ""

const (
	// missGrowth is the fixed increment requested from the provider after a
	// failed search, before page rounding.
	missGrowth = 4 * format.WordSize

	// maxRequest bounds a single request so size arithmetic stays in uint32.
	maxRequest = arena.MaxLimit
)

// Allocator manages one arena as boundary-tagged blocks with an address-ordered
// free list whose links live inside the free blocks themselves.
//
// The arena looks like this once initialised:
//
//	start                                                    start+length
//	| S | H  payload  F | H  payload  F | ... | H  payload  F | S |
//
// where S is a one-word sentinel (tag 1), H/F are header/footer tags.
//
// Not safe for concurrent use: callers serialize Alloc, Free and Realloc.
type Allocator struct {
	p   arena.Provider
	cfg Config
	log zerolog.Logger

	start       uint32
	length      uint32
	initialized bool

	// Free list, kept in ascending address order.
	head      Addr
	tail      Addr
	freeCount int

	// cursor is the free block following the last placement (next-fit rover).
	cursor Addr

	stats Stats
}

// New creates an allocator over p. The arena is set up lazily by the first
// allocation, or explicitly with Init.
func New(p arena.Provider, cfg *Config) *Allocator {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	c := *cfg
	if c.PageSize <= 0 || c.PageSize%arena.PageSize != 0 || c.PageSize&(c.PageSize-1) != 0 {
		c.PageSize = arena.PageSize
	}

	a := &Allocator{p: p, cfg: c}
	if c.Logger != nil {
		a.log = *c.Logger
	} else {
		a.log = logger.Component("alloc")
	}
	return a
}

// Init lays out an arena over [start, start+length) of the provider's region:
// two sentinels and one free block spanning everything in between. length is
// rounded up to an even count. A zero length is a no-op.
//
// Init discards any previous layout.
func (a *Allocator) Init(start, length uint32) error {
	length = format.AlignEven(length)
	if length == 0 {
		return nil
	}
	if start%2 != 0 {
		return fmt.Errorf("%w: unaligned arena start 0x%X", ErrBadAddr, start)
	}
	if length < format.ArenaOverhead+format.MinBlockSize {
		return fmt.Errorf("%w: %d bytes", ErrArenaTooSmall, length)
	}
	if !buf.Has(a.data(), int(start), int(length)) {
		return fmt.Errorf("%w: region [0x%X, +%d) outside provider", ErrBadAddr, start, length)
	}

	a.start, a.length = start, length
	a.initialized = true
	a.head, a.tail, a.freeCount, a.cursor = Null, Null, 0, Null
	a.stats.BytesInUse = 0

	data := a.data()
	format.PutU32(data, int(start), format.SentinelTag)
	format.PutU32(data, int(format.EndSentinel(start, length)), format.SentinelTag)

	first := format.FirstBlock(start)
	a.setBlockData(first, length-format.ArenaOverhead, false)
	a.listInsertHead(first)

	if logAlloc {
		a.log.Debug().Uint32("start", start).Uint32("length", length).Msg("arena initialized")
	}
	return nil
}

// Initialized reports whether the arena has been laid out.
func (a *Allocator) Initialized() bool { return a.initialized }

// bootstrap grows the provider enough for a first request of need payload
// bytes and initialises the arena over the new region.
func (a *Allocator) bootstrap(need uint32) error {
	required := int(need) + format.TagOverhead + format.ArenaOverhead
	delta := format.RoundPage(required, a.cfg.PageSize)

	start, err := a.p.Grow(delta)
	if err != nil {
		a.log.Warn().Err(err).Int("delta", delta).Msg("initial growth failed")
		return fmt.Errorf("%w: %w: %w", ErrNoSpace, ErrGrowFail, err)
	}
	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(delta)

	brk := a.p.Break()
	return a.Init(uint32(start), uint32(brk-start))
}

// growOnMiss asks the provider for one growth increment after a failed search
// and, when the new pages are contiguous with the arena, turns them into a free
// block (merged with a free tail). The failed call does not retry.
func (a *Allocator) growOnMiss() {
	delta := format.RoundPage(missGrowth, a.cfg.PageSize)
	old, err := a.p.Grow(delta)
	if err != nil {
		if logAlloc {
			a.log.Debug().Err(err).Int("delta", delta).Msg("growth on miss refused")
		}
		return
	}
	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(delta)

	end := a.start + a.length
	if uint32(old) != end {
		// Someone else moved the break; the pages cannot extend this arena.
		a.log.Warn().Int("break", old).Uint32("arenaEnd", end).Msg("discarding non-contiguous growth")
		return
	}
	a.extend(uint32(delta))
}

// extend appends delta bytes to the arena. The old trailing sentinel becomes
// the header of a new block that is released through the coalescing path.
func (a *Allocator) extend(delta uint32) {
	blk := a.start + a.length // payload address; header overwrites the old sentinel
	a.length += delta

	data := a.data()
	format.PutU32(data, int(format.EndSentinel(a.start, a.length)), format.SentinelTag)
	a.setBlockData(blk, delta, true)
	a.release(blk)

	if logAlloc {
		a.log.Debug().Uint32("addr", blk).Uint32("delta", delta).Uint32("length", a.length).Msg("arena extended")
	}
}

// data returns the provider's current region. Re-read after any growth.
func (a *Allocator) data() []byte {
	return a.p.Bytes()
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// Layout returns a raw view of the arena for the invariant verifier.
func (a *Allocator) Layout() verify.Arena {
	return verify.Arena{
		Data:      a.data(),
		Start:     a.start,
		Length:    a.length,
		Head:      a.head,
		Tail:      a.tail,
		FreeCount: a.freeCount,
	}
}

// Check validates every structural invariant of the arena. An uninitialised
// allocator is trivially valid.
func (a *Allocator) Check() error {
	if !a.initialized {
		return nil
	}
	return verify.AllInvariants(a.Layout())
}

// Bounds returns the arena's start and length.
func (a *Allocator) Bounds() (start, length uint32) {
	return a.start, a.length
}

// Strategy returns the strategy used by Alloc and Realloc.
func (a *Allocator) Strategy() Strategy {
	return a.cfg.Strategy
}
