package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kcore/internal/format"
)

// Test_FirstFit_SkipsSmallHoles: holes {40, 16, 64} in address order and a
// request that only fits the 64-byte hole.
func Test_FirstFit_SkipsSmallHoles(t *testing.T) {
	for _, s := range []Strategy{FirstFit, BestFit} {
		t.Run(s.String(), func(t *testing.T) {
			a, holes := withHoles(t, &Config{Strategy: s}, 40, 16, 64)

			addr, payload, err := a.Alloc(50)
			require.NoError(t, err)
			require.Equal(t, holes[2], addr)
			require.Len(t, payload, 64, "remainder below split threshold stays with the block")
			requireValid(t, a)
		})
	}
}

// Test_BestFit_PicksSmallestFit: holes {40, 64, 48} and a request that needs
// more than 40 bytes.
func Test_BestFit_PicksSmallestFit(t *testing.T) {
	a, holes := withHoles(t, &Config{Strategy: BestFit}, 40, 64, 48)

	addr, _, err := a.Alloc(42)
	require.NoError(t, err)
	require.Equal(t, holes[2], addr)
	requireValid(t, a)
}

func Test_BestFit_TieGoesToLowestAddress(t *testing.T) {
	a, holes := withHoles(t, &Config{Strategy: BestFit}, 64, 32, 32)

	addr, _, err := a.Alloc(30)
	require.NoError(t, err)
	require.Equal(t, holes[1], addr)
}

func Test_Strategies_Choice(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     int // index of the chosen hole
	}{
		{FirstFit, 1},
		{BestFit, 2},
		{WorstFit, 3},
		{NextFit, 1},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			a, holes := withHoles(t, &Config{Strategy: tt.strategy}, 16, 48, 40, 96)

			addr, _, err := a.Alloc(36)
			require.NoError(t, err)
			require.Equal(t, holes[tt.want], addr)
			requireValid(t, a)
		})
	}
}

func Test_WorstFit_TieGoesToLowestAddress(t *testing.T) {
	a, holes := withHoles(t, &Config{Strategy: WorstFit}, 32, 80, 80)

	addr, _, err := a.Alloc(8)
	require.NoError(t, err)
	require.Equal(t, holes[1], addr)
	requireValid(t, a)
}

func Test_NextFit_ResumesAfterLastPlacement(t *testing.T) {
	a, holes := withHoles(t, &Config{Strategy: NextFit}, 24, 24, 24)

	first, _, err := a.Alloc(24)
	require.NoError(t, err)
	require.Equal(t, holes[0], first)

	second, _, err := a.Alloc(24)
	require.NoError(t, err)
	require.Equal(t, holes[1], second)

	// holes[0] is free again and lower, but the rover is past it.
	require.NoError(t, a.Free(first))
	third, _, err := a.Alloc(24)
	require.NoError(t, err)
	require.Equal(t, holes[2], third)

	// Rover ran off the end; the scan restarts at the head.
	fourth, _, err := a.Alloc(24)
	require.NoError(t, err)
	require.Equal(t, holes[0], fourth)
	requireValid(t, a)
}

func Test_NextFit_Wraps(t *testing.T) {
	a, holes := withHoles(t, &Config{Strategy: NextFit}, 24, 24, 8)

	addr, _, err := a.Alloc(24)
	require.NoError(t, err)
	require.Equal(t, holes[0], addr)

	// Splits holes[1]; the rover parks on the 16-byte remainder.
	split, _, err := a.Alloc(8)
	require.NoError(t, err)
	require.Equal(t, holes[1], split)

	require.NoError(t, a.Free(holes[0]))

	// Nothing at or after the rover fits 24; the wrapped scan finds holes[0].
	addr, _, err = a.Alloc(24)
	require.NoError(t, err)
	require.Equal(t, holes[0], addr)
	requireValid(t, a)
}

func Test_NextFit_NoFitAnywhere(t *testing.T) {
	a, _ := withHoles(t, &Config{Strategy: NextFit}, 24, 8)

	_, _, err := a.Alloc(8)
	require.NoError(t, err)

	_, _, err = a.Alloc(64)
	require.ErrorIs(t, err, ErrNoSpace)
	requireValid(t, a)
}

func Test_Alloc_SplitsLargeRemainder(t *testing.T) {
	a := newTestAllocator(t, nil, 256)

	addr, payload, err := a.Alloc(40)
	require.NoError(t, err)
	require.Equal(t, format.FirstBlock(0), addr)
	require.Len(t, payload, 40)
	require.Equal(t, uint32(48), a.BlockSize(addr))
	require.Equal(t, 1, a.Stats().SplitCount)

	free := a.FreeBlocks()
	require.Len(t, free, 1)
	require.Equal(t, addr+48, free[0].Addr)
	require.Equal(t, uint32(256-8-48), free[0].Size)
	requireValid(t, a)
}

func Test_Alloc_RoundsRequest(t *testing.T) {
	a := newTestAllocator(t, nil, 256)

	tests := []struct {
		size    uint32
		payload int
	}{
		{0, format.MinPayload},
		{1, format.MinPayload},
		{8, 8},
		{9, 10},
		{31, 32},
	}
	for _, tt := range tests {
		addr, payload, err := a.Alloc(tt.size)
		require.NoError(t, err)
		require.Len(t, payload, tt.payload, "size %d", tt.size)
		require.Zero(t, addr%2)
	}
	requireValid(t, a)
}

func Test_Alloc_KeepsSmallRemainder(t *testing.T) {
	// One 40-byte free block: a 24-byte request leaves 8, below the threshold.
	a := newTestAllocator(t, nil, 48)

	addr, payload, err := a.Alloc(24)
	require.NoError(t, err)
	require.Len(t, payload, 32)
	require.Equal(t, uint32(40), a.BlockSize(addr))
	require.Zero(t, a.FreeCount())
	requireValid(t, a)
}

func Test_AllocWith_UnknownStrategy(t *testing.T) {
	a := newTestAllocator(t, nil, 256)

	_, _, err := a.AllocWith(16, Strategy(42))
	require.ErrorIs(t, err, ErrUnknownStrategy)
	requireValid(t, a)
}

func Test_Alloc_RequestTooLarge(t *testing.T) {
	a := newTestAllocator(t, nil, 256)

	_, _, err := a.Alloc(maxRequest + 2)
	require.ErrorIs(t, err, ErrNoSpace)
	require.Equal(t, 1, a.Stats().AllocMisses)
}

func Test_ParseStrategy(t *testing.T) {
	for _, s := range Strategies() {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		require.Equal(t, s, got)
	}

	got, err := ParseStrategy(" WF ")
	require.NoError(t, err)
	require.Equal(t, WorstFit, got)

	_, err = ParseStrategy("buddy")
	require.True(t, errors.Is(err, ErrUnknownStrategy))
	require.Equal(t, "strategy(9)", Strategy(9).String())
}
