package alloc

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/joshuapare/kcore/kern/arena"
)

// Addr is a payload address: a byte offset into the arena provider's region.
type Addr = uint32

// Null is the failure/absent address. No payload can live at offset 0 because
// the leading sentinel and first header occupy it.
const Null Addr = 0

// Strategy selects how a free block is chosen for an allocation.
type Strategy uint8

const (
	FirstFit Strategy = iota // lowest-addressed block that fits
	BestFit                  // smallest block that fits, lowest address on ties
	WorstFit                 // largest block that fits, lowest address on ties
	NextFit                  // first fit scanning from the last placement, wrapping
)

var strategyNames = [...]string{
	FirstFit: "first-fit",
	BestFit:  "best-fit",
	WorstFit: "worst-fit",
	NextFit:  "next-fit",
}

// Strategies lists every implemented strategy in table order.
func Strategies() []Strategy {
	return []Strategy{FirstFit, BestFit, WorstFit, NextFit}
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// ParseStrategy accepts the names printed by String plus the short forms ff,
// bf, wf and nf.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "first-fit", "firstfit", "ff":
		return FirstFit, nil
	case "best-fit", "bestfit", "bf":
		return BestFit, nil
	case "worst-fit", "worstfit", "wf":
		return WorstFit, nil
	case "next-fit", "nextfit", "nf":
		return NextFit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Config tunes an Allocator.
type Config struct {
	// Strategy used by Alloc and by the Realloc fallback path.
	Strategy Strategy

	// PageSize is the growth granularity; must be a multiple of arena.PageSize.
	PageSize int

	// Logger receives operation events. Nil uses the global logger.
	Logger *zerolog.Logger
}

// DefaultConfig is used when New receives a nil config.
var DefaultConfig = Config{
	Strategy: FirstFit,
	PageSize: arena.PageSize,
}

// BlockInfo describes one block for diagnostics.
type BlockInfo struct {
	Addr Addr   `json:"addr"`
	Size uint32 `json:"size"`
	Free bool   `json:"free"`
}

// Stats holds allocator counters.
type Stats struct {
	AllocCalls       int   // Alloc/AllocWith calls
	AllocMisses      int   // calls that found no block
	FreeCalls        int   // Free calls that released a block
	IgnoredFrees     int   // Free calls on Null or already-free blocks
	ReallocCalls     int   // Realloc calls
	ReallocInPlace   int   // Realloc satisfied without moving
	ReallocMoves     int   // Realloc that fell back to free + alloc
	SplitCount       int   // blocks split on placement or shrink
	CoalesceForward  int   // merges with the following block
	CoalesceBackward int   // merges with the preceding block
	GrowCalls        int   // successful provider growth
	GrowBytes        int64 // bytes added by growth
	BytesInUse       int64 // total size of allocated blocks
}
