package workload

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kcore/kern/alloc"
)

func Test_Fragmentation_Deterministic(t *testing.T) {
	cfg := FragConfig{Strategy: alloc.BestFit, Seed: 99, Steps: 1500, Verify: true}

	r1, err := Fragmentation(cfg)
	require.NoError(t, err)
	r2, err := Fragmentation(cfg)
	require.NoError(t, err)

	require.Equal(t, r1, r2)
	require.Equal(t, 1500, r1.Ops)
	require.Equal(t, "best-fit", r1.Strategy)
	require.GreaterOrEqual(t, r1.Fragmentation, 0.0)
	require.Less(t, r1.Fragmentation, 1.0)
}

func Test_Fragmentation_TinyArenaFails(t *testing.T) {
	r, err := Fragmentation(FragConfig{Seed: 3, Steps: 400, Limit: 4096, MaxSize: 900, Verify: true})
	require.NoError(t, err)
	require.Positive(t, r.Failures)
	require.Equal(t, uint32(4096), r.ArenaBytes)
}

func Test_CompareStrategies(t *testing.T) {
	reports, err := CompareStrategies(FragConfig{Seed: 5, Steps: 800, Verify: true})
	require.NoError(t, err)
	require.Len(t, reports, len(alloc.Strategies()))

	for i, s := range alloc.Strategies() {
		require.Equal(t, s.String(), reports[i].Strategy)
		require.Equal(t, 800, reports[i].Ops)
	}
}

func Test_ExternalFragmentation(t *testing.T) {
	require.Zero(t, ExternalFragmentation(0, 0))
	require.Zero(t, ExternalFragmentation(100, 100))
	require.InDelta(t, 0.75, ExternalFragmentation(400, 100), 1e-9)
}
