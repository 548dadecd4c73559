package workload

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/joshuapare/kcore/kern/alloc"
	"github.com/joshuapare/kcore/kern/arena"
)

// FragConfig tunes a fragmentation run.
type FragConfig struct {
	Strategy alloc.Strategy
	Seed     int64
	Steps    int  // random operations to perform
	Limit    int  // provider reservation in bytes (page multiple)
	MaxSize  int  // largest request in bytes
	Verify   bool // check invariants after every step
}

// DefaultFragConfig is used for zero fields of a FragConfig.
var DefaultFragConfig = FragConfig{
	Strategy: alloc.FirstFit,
	Seed:     1,
	Steps:    5000,
	Limit:    64 * arena.PageSize,
	MaxSize:  512,
}

func (c FragConfig) withDefaults() FragConfig {
	if c.Steps <= 0 {
		c.Steps = DefaultFragConfig.Steps
	}
	if c.Limit <= 0 {
		c.Limit = DefaultFragConfig.Limit
	}
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultFragConfig.MaxSize
	}
	return c
}

// Fragmentation runs a seeded mix of allocations (50%), frees (30%) and
// reallocs (20%) against a fresh allocator and reports the final layout.
// A given seed and strategy always reproduce the same run.
func Fragmentation(cfg FragConfig) (*Report, error) {
	cfg = cfg.withDefaults()

	mem, err := arena.NewMem(cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("fragmentation: %w", err)
	}
	a := alloc.New(mem, &alloc.Config{Strategy: cfg.Strategy})

	rng := rand.New(rand.NewSource(cfg.Seed))
	var live []alloc.Addr
	r := &Report{}

	for i := range cfg.Steps {
		r.Ops++
		roll := rng.Intn(10)
		size := uint32(1 + rng.Intn(cfg.MaxSize))

		switch {
		case roll < 5 || len(live) == 0:
			addr, _, err := a.Alloc(size)
			if err != nil {
				if !errors.Is(err, alloc.ErrNoSpace) {
					return nil, fmt.Errorf("step %d: %w", i, err)
				}
				r.Failures++
				break
			}
			live = append(live, addr)

		case roll < 8:
			j := rng.Intn(len(live))
			if err := a.Free(live[j]); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]

		default:
			j := rng.Intn(len(live))
			addr, _, err := a.Realloc(live[j], size)
			if err != nil {
				if !errors.Is(err, alloc.ErrNoSpace) {
					return nil, fmt.Errorf("step %d: %w", i, err)
				}
				r.Failures++
				break
			}
			live[j] = addr
		}

		if cfg.Verify {
			if err := a.Check(); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		}
	}

	summarize(r, a, len(live))
	return r, nil
}

// CompareStrategies runs Fragmentation once per strategy with the same seed.
func CompareStrategies(cfg FragConfig) ([]*Report, error) {
	reports := make([]*Report, 0, len(alloc.Strategies()))
	for _, s := range alloc.Strategies() {
		c := cfg
		c.Strategy = s
		r, err := Fragmentation(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}
