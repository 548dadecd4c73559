package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kcore/internal/workload"
	"github.com/joshuapare/kcore/kern/alloc"
)

var (
	fragStrategy string
	fragSeed     int64
	fragSteps    int
	fragLimit    int
	fragMaxSize  int
	fragVerify   bool
)

func init() {
	d := workload.DefaultFragConfig
	cmd := newFragCmd()
	cmd.Flags().StringVarP(&fragStrategy, "strategy", "s", "all", "Strategy to run, or 'all' to compare every strategy")
	cmd.Flags().Int64Var(&fragSeed, "seed", d.Seed, "Random seed")
	cmd.Flags().IntVar(&fragSteps, "steps", d.Steps, "Number of random operations")
	cmd.Flags().IntVar(&fragLimit, "limit", d.Limit, "Arena reservation in bytes (page multiple)")
	cmd.Flags().IntVar(&fragMaxSize, "max-size", d.MaxSize, "Largest request in bytes")
	cmd.Flags().BoolVar(&fragVerify, "verify", false, "Check heap invariants after every step")
	rootCmd.AddCommand(cmd)
}

func newFragCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frag",
		Short: "Compare fragmentation across placement strategies",
		Long: `Frag runs a seeded mix of allocations, frees and reallocs and reports how
fragmented the heap ends up. The same seed reproduces the same run.

Example:
  kcorectl frag
  kcorectl frag --strategy next-fit --steps 20000 --verify
  kcorectl frag --seed 7 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrag(args)
		},
	}
}

func runFrag(args []string) error {
	cfg := workload.FragConfig{
		Seed:    fragSeed,
		Steps:   fragSteps,
		Limit:   fragLimit,
		MaxSize: fragMaxSize,
		Verify:  fragVerify,
	}

	var reports []*workload.Report
	if strings.EqualFold(fragStrategy, "all") {
		printVerbose("Comparing %d strategies over %d steps (seed %d)\n", len(alloc.Strategies()), fragSteps, fragSeed)
		rs, err := workload.CompareStrategies(cfg)
		if err != nil {
			return fmt.Errorf("frag: %w", err)
		}
		reports = rs
	} else {
		s, err := alloc.ParseStrategy(fragStrategy)
		if err != nil {
			return err
		}
		cfg.Strategy = s
		r, err := workload.Fragmentation(cfg)
		if err != nil {
			return fmt.Errorf("frag: %w", err)
		}
		reports = []*workload.Report{r}
	}

	if jsonOut {
		return printJSON(reports)
	}

	printInfo("%-10s %8s %8s %6s %10s %10s %7s %7s\n",
		"STRATEGY", "FAILURES", "LIVE", "FREE", "FREE BYTES", "LARGEST", "FRAG", "GROWS")
	for _, r := range reports {
		printInfo("%-10s %8d %8d %6d %10d %10d %6.1f%% %7d\n",
			r.Strategy, r.Failures, r.Live, r.FreeBlocks, r.FreeBytes, r.LargestFree,
			r.Fragmentation*100, r.Stats.GrowCalls)
	}
	return nil
}
