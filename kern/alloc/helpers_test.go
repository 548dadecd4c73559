package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kcore/internal/format"
	"github.com/joshuapare/kcore/kern/arena"
)

// newTestAllocator lays out an arena of exactly length bytes at offset 0 of a
// fresh provider.
func newTestAllocator(t *testing.T, cfg *Config, length uint32) *Allocator {
	t.Helper()
	mem, err := arena.NewMem(1 << 20)
	require.NoError(t, err)
	_, err = mem.Grow(format.RoundPage(int(length), arena.PageSize))
	require.NoError(t, err)

	a := New(mem, cfg)
	require.NoError(t, a.Init(0, length))
	requireValid(t, a)
	return a
}

// newLazyAllocator returns an allocator that sets itself up on first use over
// a provider limited to limit bytes.
func newLazyAllocator(t *testing.T, cfg *Config, limit int) *Allocator {
	t.Helper()
	mem, err := arena.NewMem(limit)
	require.NoError(t, err)
	return New(mem, cfg)
}

// withHoles builds an arena whose free list holds exactly one block per
// payload size, in the given address order, each fenced by a 16-byte
// allocated separator. The arena has no other free space. Returns the hole
// addresses.
func withHoles(t *testing.T, cfg *Config, payloads ...uint32) (*Allocator, []Addr) {
	t.Helper()
	const fence = 16

	length := uint32(format.ArenaOverhead)
	for _, p := range payloads {
		length += format.BlockSizeFor(p) + format.BlockSizeFor(fence)
	}
	a := newTestAllocator(t, cfg, length)

	holes := make([]Addr, 0, len(payloads))
	for _, p := range payloads {
		h, _, err := a.AllocWith(p, FirstFit)
		require.NoError(t, err)
		_, _, err = a.AllocWith(fence, FirstFit)
		require.NoError(t, err)
		holes = append(holes, h)
	}
	require.Zero(t, a.FreeCount(), "arena should be full")

	for _, h := range holes {
		require.NoError(t, a.Free(h))
	}
	require.Equal(t, len(payloads), a.FreeCount())
	requireValid(t, a)
	return a, holes
}

// requireValid runs the full invariant check plus the in-use accounting.
func requireValid(t *testing.T, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check())

	var inUse int64
	for _, b := range a.Blocks() {
		if !b.Free {
			inUse += int64(b.Size)
		}
	}
	require.Equal(t, inUse, a.Stats().BytesInUse, "bytes in use drifted")
}

func fill(p []byte, n int, v byte) {
	for i := 0; i < n && i < len(p); i++ {
		p[i] = v + byte(i)
	}
}

func requireFilled(t *testing.T, p []byte, n int, v byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(p), n)
	for i := 0; i < n; i++ {
		require.Equal(t, v+byte(i), p[i], "byte %d", i)
	}
}
