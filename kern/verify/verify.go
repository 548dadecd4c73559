package verify

import (
	"fmt"

	"github.com/joshuapare/kcore/internal/buf"
	"github.com/joshuapare/kcore/internal/format"
)

// ValidationError describes one invariant violation.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Arena is a raw view of an allocator's state.
type Arena struct {
	Data      []byte // provider region; the arena lives at [Start, Start+Length)
	Start     uint32
	Length    uint32
	Head      uint32 // first free block, 0 if none
	Tail      uint32 // last free block, 0 if none
	FreeCount int
}

// block is one entry of a physical walk.
type block struct {
	addr uint32
	size uint32
	free bool
}

// AllInvariants validates every arena invariant in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(a Arena) error {
	if err := Sentinels(a); err != nil {
		return err
	}
	blocks, err := walk(a)
	if err != nil {
		return err
	}
	if err := noAdjacentFree(blocks); err != nil {
		return err
	}
	return freeListOrder(a, blocks)
}

// Sentinels validates the arena bounds and both boundary words.
func Sentinels(a Arena) error {
	if a.Length%2 != 0 || a.Length < format.ArenaOverhead+format.MinBlockSize {
		return &ValidationError{
			Type:    "Sentinels",
			Message: fmt.Sprintf("bad arena length %d", a.Length),
			Offset:  -1,
		}
	}
	if !buf.Has(a.Data, int(a.Start), int(a.Length)) {
		return &ValidationError{
			Type:    "Sentinels",
			Message: fmt.Sprintf("arena [0x%X, +%d) outside region of %d bytes", a.Start, a.Length, len(a.Data)),
			Offset:  -1,
		}
	}
	for _, off := range []uint32{a.Start, format.EndSentinel(a.Start, a.Length)} {
		if tag := format.ReadU32(a.Data, int(off)); tag != format.SentinelTag {
			return &ValidationError{
				Type:    "Sentinels",
				Message: fmt.Sprintf("sentinel holds 0x%X, expected 0x%X", tag, format.SentinelTag),
				Offset:  int(off),
			}
		}
	}
	return nil
}

// Tags validates every block's boundary tags and the conservation of size.
func Tags(a Arena) error {
	if err := Sentinels(a); err != nil {
		return err
	}
	_, err := walk(a)
	return err
}

// NoAdjacentFree validates that every free block is bounded by allocated
// blocks or sentinels.
func NoAdjacentFree(a Arena) error {
	blocks, err := walk(a)
	if err != nil {
		return err
	}
	return noAdjacentFree(blocks)
}

// FreeListOrder validates the free list against a physical walk.
func FreeListOrder(a Arena) error {
	blocks, err := walk(a)
	if err != nil {
		return err
	}
	return freeListOrder(a, blocks)
}

// walk visits every block from the first header to the trailing sentinel.
// It covers both tag consistency and conservation: the walk must land exactly
// on the sentinel.
func walk(a Arena) ([]block, error) {
	limit := format.EndSentinel(a.Start, a.Length)
	addr := format.FirstBlock(a.Start)

	var blocks []block
	var total uint32
	for format.HeaderOffset(addr) < int(limit) {
		b, next, err := format.NextBlock(a.Data, addr, limit)
		if err != nil {
			return nil, &ValidationError{
				Type:    "Tags",
				Message: err.Error(),
				Offset:  format.HeaderOffset(addr),
			}
		}
		if b.Header != b.Footer {
			return nil, &ValidationError{
				Type:    "Tags",
				Message: fmt.Sprintf("header 0x%X != footer 0x%X", b.Header, b.Footer),
				Offset:  format.HeaderOffset(addr),
				Details: map[string]interface{}{
					"addr":   addr,
					"size":   b.Size,
					"footer": format.FooterOffset(addr, b.Size),
				},
			}
		}
		blocks = append(blocks, block{addr: b.Addr, size: b.Size, free: b.Free})
		total += b.Size
		addr = next
	}

	if got := total + format.ArenaOverhead; got != a.Length {
		return nil, &ValidationError{
			Type:    "Conservation",
			Message: fmt.Sprintf("blocks plus sentinels = %d, arena length = %d", got, a.Length),
			Offset:  -1,
			Details: map[string]interface{}{
				"blocks": len(blocks),
				"sum":    total,
			},
		}
	}
	return blocks, nil
}

func noAdjacentFree(blocks []block) error {
	for i := 1; i < len(blocks); i++ {
		if blocks[i-1].free && blocks[i].free {
			return &ValidationError{
				Type:    "NoAdjacentFree",
				Message: fmt.Sprintf("free blocks 0x%X and 0x%X are adjacent", blocks[i-1].addr, blocks[i].addr),
				Offset:  format.HeaderOffset(blocks[i].addr),
			}
		}
	}
	return nil
}

func freeListOrder(a Arena, blocks []block) error {
	free := make(map[uint32]bool)
	for _, b := range blocks {
		if b.free {
			free[b.addr] = true
		}
	}

	listErr := func(off uint32, msg string, args ...interface{}) error {
		return &ValidationError{Type: "FreeListOrder", Message: fmt.Sprintf(msg, args...), Offset: int(off)}
	}

	var prev uint32 = format.NullLink
	seen := 0
	for cur := a.Head; cur != format.NullLink; {
		if seen > len(blocks) {
			return listErr(cur, "free list longer than the arena has blocks (cycle?)")
		}
		if !free[cur] {
			return listErr(cur, "list entry is not a free block")
		}
		if prev != format.NullLink && cur <= prev {
			return listErr(cur, "list not ascending: 0x%X after 0x%X", cur, prev)
		}
		back := format.ReadU32(a.Data, format.PrevLinkOffset(cur))
		if back != prev {
			return listErr(cur, "prev link 0x%X, expected 0x%X", back, prev)
		}
		seen++
		prev = cur
		cur = format.ReadU32(a.Data, format.NextLinkOffset(cur))
	}

	if prev != a.Tail {
		return listErr(prev, "list ends at 0x%X but tail is 0x%X", prev, a.Tail)
	}
	if seen != len(free) {
		return &ValidationError{
			Type:    "FreeListOrder",
			Message: fmt.Sprintf("list holds %d blocks, arena has %d free", seen, len(free)),
			Offset:  -1,
		}
	}
	if seen != a.FreeCount {
		return &ValidationError{
			Type:    "FreeListOrder",
			Message: fmt.Sprintf("list holds %d blocks, count says %d", seen, a.FreeCount),
			Offset:  -1,
		}
	}
	return nil
}
