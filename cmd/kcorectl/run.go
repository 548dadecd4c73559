package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kcore/internal/logger"
	"github.com/joshuapare/kcore/internal/workload"
	"github.com/joshuapare/kcore/kern/alloc"
	"github.com/joshuapare/kcore/kern/arena"
)

var (
	runStrategy string
	runLimit    int
	runVerify   bool
	runMapped   bool
	runBlocks   bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVarP(&runStrategy, "strategy", "s", "first-fit", "Placement strategy (first-fit, best-fit, worst-fit, next-fit)")
	cmd.Flags().IntVar(&runLimit, "limit", 16*arena.PageSize, "Arena reservation in bytes (page multiple)")
	cmd.Flags().BoolVar(&runVerify, "verify", false, "Check heap invariants after every mutating instruction")
	cmd.Flags().BoolVar(&runMapped, "mapped", false, "Back the arena with an anonymous mapping")
	cmd.Flags().BoolVar(&runBlocks, "blocks", false, "Print the final block layout")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script|->",
		Short: "Execute an allocation script",
		Long: `Run reads an allocation script and executes it against a fresh heap.

Each line holds one instruction; '#' starts a comment:
  alloc   <id> <size>   allocate size bytes and bind the block to id
  free    <id>          release the block bound to id
  realloc <id> <size>   resize the block bound to id
  check                 verify heap invariants
  dump                  print the block layout

Example:
  kcorectl run trace.txt --strategy best-fit --verify
  echo "alloc a 40" | kcorectl run - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args)
		},
	}
}

func runRun(args []string) error {
	strategy, err := alloc.ParseStrategy(runStrategy)
	if err != nil {
		return err
	}

	script, err := readScript(args[0])
	if err != nil {
		return err
	}
	printVerbose("Parsed %d instructions\n", len(script.Ops))

	p, closer, err := newProvider(runLimit, runMapped)
	if err != nil {
		return err
	}
	defer closer()
	if l, ok := p.(interface{ Limit() int }); ok {
		printVerbose("Reserved %d bytes\n", l.Limit())
	}

	a := alloc.New(p, &alloc.Config{Strategy: strategy})

	var out io.Writer = os.Stdout
	if jsonOut || quiet {
		out = io.Discard
	}
	report, err := workload.RunScript(script, a, &workload.ScriptOptions{Verify: runVerify, Out: out})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger.Info("script finished", "ops", report.Ops, "failures", report.Failures, "live", report.Live)
	if !runBlocks {
		report.Blocks = nil
	}

	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	if runBlocks && !quiet {
		return a.Dump(os.Stdout)
	}
	return nil
}

// readScript parses path, or stdin when path is "-".
func readScript(path string) (*workload.Script, error) {
	if path == "-" {
		return workload.ParseScript(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return workload.ParseScript(f)
}

// newProvider reserves limit bytes from the selected provider.
func newProvider(limit int, mapped bool) (arena.Provider, func(), error) {
	if mapped {
		m, err := arena.NewMapped(limit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to map arena: %w", err)
		}
		return m, func() { _ = m.Close() }, nil
	}
	m, err := arena.NewMem(limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reserve arena: %w", err)
	}
	return m, func() {}, nil
}

func printReport(r *workload.Report) {
	printInfo("\nStrategy: %s\n", r.Strategy)
	printInfo("  Instructions:   %d\n", r.Ops)
	printInfo("  Failures:       %d\n", r.Failures)
	printInfo("  Live blocks:    %d\n", r.Live)
	printInfo("  Arena bytes:    %d\n", r.ArenaBytes)
	printInfo("  Bytes in use:   %d\n", r.Stats.BytesInUse)
	printInfo("  Free bytes:     %d in %d blocks\n", r.FreeBytes, r.FreeBlocks)
	printInfo("  Largest free:   %d\n", r.LargestFree)
	printInfo("  Fragmentation:  %.1f%%\n", r.Fragmentation*100)

	printVerbose("\nCounters:\n")
	printVerbose("  Splits:         %d\n", r.Stats.SplitCount)
	printVerbose("  Coalesces:      %d forward, %d backward\n", r.Stats.CoalesceForward, r.Stats.CoalesceBackward)
	printVerbose("  Reallocs:       %d (%d in place, %d moved)\n", r.Stats.ReallocCalls, r.Stats.ReallocInPlace, r.Stats.ReallocMoves)
	printVerbose("  Growth:         %d calls, %d bytes\n", r.Stats.GrowCalls, r.Stats.GrowBytes)
}
