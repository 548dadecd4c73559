package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kcore/internal/workload"
)

var (
	pcCPUs      int
	pcProducers int
	pcConsumers int
	pcItems     int
	pcCapacity  int
	pcRate      float64
	pcBurst     int
	pcTimeout   time.Duration
)

func init() {
	d := workload.DefaultPCConfig
	cmd := newPCCmd()
	cmd.Flags().IntVar(&pcCPUs, "cpus", d.CPUs, "Simulated processing units")
	cmd.Flags().IntVar(&pcProducers, "producers", d.Producers, "Producer contexts")
	cmd.Flags().IntVar(&pcConsumers, "consumers", d.Consumers, "Consumer contexts")
	cmd.Flags().IntVar(&pcItems, "items", d.Items, "Items to move through the buffer")
	cmd.Flags().IntVar(&pcCapacity, "capacity", d.Capacity, "Buffer slots")
	cmd.Flags().Float64Var(&pcRate, "rate", 0, "Producer items per second (0 = unpaced)")
	cmd.Flags().IntVar(&pcBurst, "burst", 1, "Producer rate limiter burst")
	cmd.Flags().DurationVar(&pcTimeout, "timeout", 30*time.Second, "Abort the run after this long")
	rootCmd.AddCommand(cmd)
}

func newPCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pc",
		Short: "Run a producer/consumer workload on wait channels",
		Long: `Pc moves integers from producers to consumers through a bounded buffer.
Producers sleep on a not-full channel and consumers on a not-empty channel,
all scheduled on the simulated processors. A lost wakeup shows up as a timeout.

Example:
  kcorectl pc --cpus 1 --items 10000
  kcorectl pc --rate 500 --burst 10 --jaeger http://localhost:14268/api/traces`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPC(cmd.Context(), args)
		},
	}
}

func runPC(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, pcTimeout)
	defer cancel()

	printVerbose("Moving %d items: %d producers, %d consumers, %d slots, %d CPUs\n",
		pcItems, pcProducers, pcConsumers, pcCapacity, pcCPUs)

	r, err := workload.ProducerConsumer(ctx, workload.PCConfig{
		CPUs:      pcCPUs,
		Producers: pcProducers,
		Consumers: pcConsumers,
		Items:     pcItems,
		Capacity:  pcCapacity,
		Rate:      pcRate,
		Burst:     pcBurst,
	})
	if err != nil {
		return fmt.Errorf("pc: %w", err)
	}

	if jsonOut {
		return printJSON(r)
	}

	printInfo("\nProducer/consumer:\n")
	printInfo("  Produced:        %d\n", r.Produced)
	printInfo("  Consumed:        %d\n", r.Consumed)
	printInfo("  Sum:             %d\n", r.Sum)
	printInfo("  Producer sleeps: %d\n", r.ProducerSleeps)
	printInfo("  Consumer sleeps: %d\n", r.ConsumerSleeps)
	printInfo("  Wakeups:         %d\n", r.Wakeups)
	printInfo("  Dispatches:      %d\n", r.Dispatches)
	printInfo("  Yields:          %d\n", r.Yields)
	printVerbose("  Lock spins:      %d\n", r.LockSpins)
	printInfo("  Elapsed:         %s\n", r.Elapsed.Round(time.Microsecond))
	return nil
}
