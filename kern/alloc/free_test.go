package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fourBlocks fills an arena with four 32-byte allocated blocks A, B, C, D.
func fourBlocks(t *testing.T) (*Allocator, [4]Addr) {
	t.Helper()
	a := newTestAllocator(t, nil, 8+4*32)
	var addrs [4]Addr
	for i := range addrs {
		addr, _, err := a.Alloc(24)
		require.NoError(t, err)
		addrs[i] = addr
	}
	require.Zero(t, a.FreeCount())
	return a, addrs
}

func Test_Free_NoFreeNeighbours(t *testing.T) {
	a, b := fourBlocks(t)

	require.NoError(t, a.Free(b[1]))
	require.Equal(t, []BlockInfo{{Addr: b[1], Size: 32, Free: true}}, a.FreeBlocks())
	require.Zero(t, a.Stats().CoalesceForward+a.Stats().CoalesceBackward)
	requireValid(t, a)
}

func Test_Free_CoalesceForward(t *testing.T) {
	a, b := fourBlocks(t)

	require.NoError(t, a.Free(b[2]))
	require.NoError(t, a.Free(b[1]))

	require.Equal(t, []BlockInfo{{Addr: b[1], Size: 64, Free: true}}, a.FreeBlocks())
	require.Equal(t, 1, a.Stats().CoalesceForward)
	require.Zero(t, a.Stats().CoalesceBackward)
	requireValid(t, a)
}

func Test_Free_CoalesceBackward(t *testing.T) {
	a, b := fourBlocks(t)

	require.NoError(t, a.Free(b[0]))
	require.NoError(t, a.Free(b[1]))

	require.Equal(t, []BlockInfo{{Addr: b[0], Size: 64, Free: true}}, a.FreeBlocks())
	require.Equal(t, 1, a.Stats().CoalesceBackward)
	requireValid(t, a)
}

func Test_Free_CoalesceBoth(t *testing.T) {
	a, b := fourBlocks(t)

	require.NoError(t, a.Free(b[0]))
	require.NoError(t, a.Free(b[2]))
	require.Equal(t, 2, a.FreeCount())

	require.NoError(t, a.Free(b[1]))
	require.Equal(t, []BlockInfo{{Addr: b[0], Size: 96, Free: true}}, a.FreeBlocks())
	require.Equal(t, 1, a.Stats().CoalesceForward)
	require.Equal(t, 1, a.Stats().CoalesceBackward)
	requireValid(t, a)
}

func Test_Free_Everything(t *testing.T) {
	a, b := fourBlocks(t)

	for _, i := range []int{3, 0, 2, 1} {
		require.NoError(t, a.Free(b[i]))
		requireValid(t, a)
	}
	require.Equal(t, []BlockInfo{{Addr: b[0], Size: 128, Free: true}}, a.FreeBlocks())
	require.Zero(t, a.Stats().BytesInUse)
}

func Test_Free_InsertsInAddressOrder(t *testing.T) {
	a := newTestAllocator(t, nil, 8+8*32)
	var addrs []Addr
	for range 8 {
		addr, _, err := a.Alloc(24)
		require.NoError(t, err)
		addrs = append(addrs, addr)
	}

	// Free every other block, highest first, then one in the middle.
	for _, i := range []int{6, 4, 0, 2} {
		require.NoError(t, a.Free(addrs[i]))
		requireValid(t, a)
	}

	var got []Addr
	for _, b := range a.FreeBlocks() {
		got = append(got, b.Addr)
	}
	require.Equal(t, []Addr{addrs[0], addrs[2], addrs[4], addrs[6]}, got)
}

func Test_Free_IgnoresNullAndDoubleFree(t *testing.T) {
	a, b := fourBlocks(t)

	require.NoError(t, a.Free(Null))
	require.NoError(t, a.Free(b[1]))
	before := a.Blocks()

	require.NoError(t, a.Free(b[1]))
	require.Equal(t, before, a.Blocks())
	require.Equal(t, 2, a.Stats().IgnoredFrees)
	require.Equal(t, 1, a.Stats().FreeCalls)
	requireValid(t, a)
}

func Test_Free_BadAddress(t *testing.T) {
	a, b := fourBlocks(t)

	for _, addr := range []Addr{3, b[1] + 1, 1 << 20, b[3] + 32} {
		require.ErrorIs(t, a.Free(addr), ErrBadAddr, "addr 0x%X", addr)
	}
	requireValid(t, a)
}

func Test_Free_BeforeInit(t *testing.T) {
	a := newLazyAllocator(t, nil, 1<<16)
	require.ErrorIs(t, a.Free(8), ErrBadAddr)
	require.NoError(t, a.Free(Null))
}

func Test_AllocFree_RoundTrip(t *testing.T) {
	a := newTestAllocator(t, nil, 1024)
	keep, _, err := a.Alloc(100)
	require.NoError(t, err)
	before := a.Blocks()

	for _, size := range []uint32{0, 8, 33, 200, 600} {
		addr, _, err := a.Alloc(size)
		require.NoError(t, err)
		require.NoError(t, a.Free(addr))
		require.Equal(t, before, a.Blocks(), "size %d", size)
		requireValid(t, a)
	}
	require.False(t, a.IsFree(keep))
}

func Test_BlockAccessors(t *testing.T) {
	a, b := fourBlocks(t)

	require.Equal(t, uint32(32), a.BlockSize(b[0]))
	require.False(t, a.IsFree(b[0]))
	require.Len(t, a.Payload(b[0]), 24)

	require.NoError(t, a.Free(b[0]))
	require.True(t, a.IsFree(b[0]))
	require.Nil(t, a.Payload(b[0]))

	require.Zero(t, a.BlockSize(5))
	require.False(t, a.IsFree(5))
	require.Nil(t, a.Payload(1<<20))
}
