package alloc

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/kcore/internal/format"
)

// Blocks walks the arena in address order and returns every block. The walk
// stops at the first malformed tag; Check reports the corruption itself.
func (a *Allocator) Blocks() []BlockInfo {
	if !a.initialized {
		return nil
	}
	data := a.data()
	limit := format.EndSentinel(a.start, a.length)

	var out []BlockInfo
	addr := format.FirstBlock(a.start)
	for format.HeaderOffset(addr) < int(limit) {
		blk, next, err := format.NextBlock(data, addr, limit)
		if err != nil {
			break
		}
		out = append(out, BlockInfo{Addr: blk.Addr, Size: blk.Size, Free: blk.Free})
		addr = next
	}
	return out
}

// Dump writes one line per block followed by a summary. It is a debugging aid
// and has no effect on the arena.
func (a *Allocator) Dump(w io.Writer) error {
	p := message.NewPrinter(language.English)

	if !a.initialized {
		_, err := p.Fprintf(w, "arena not initialized\n")
		return err
	}

	if _, err := p.Fprintf(w, "arena [0x%X, 0x%X) %d bytes, %s\n",
		a.start, a.start+a.length, a.length, a.cfg.Strategy); err != nil {
		return err
	}

	var free, used, largest uint32
	for _, b := range a.Blocks() {
		state := "alloc"
		if b.Free {
			state = "free"
			free += b.Size
			largest = max(largest, b.Size)
		} else {
			used += b.Size
		}
		if _, err := p.Fprintf(w, "  0x%08X %10d %s\n", b.Addr, b.Size, state); err != nil {
			return err
		}
	}

	_, err := p.Fprintf(w, "used %d, free %d in %d blocks, largest free %d\n",
		used, free, a.freeCount, largest)
	return err
}

// String summarizes the allocator state on one line.
func (a *Allocator) String() string {
	return fmt.Sprintf("alloc{%s start=0x%X len=%d free=%d inuse=%d}",
		a.cfg.Strategy, a.start, a.length, a.freeCount, a.stats.BytesInUse)
}
