package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/kcore/internal/logger"
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	jsonOut   bool
	jaegerURL string

	tp *tracesdk.TracerProvider

	// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=..."
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "kcorectl",
	Short: "Drive the kcore heap allocator and wait channels",
	Long: `kcorectl runs workloads against the kcore kernel heap allocator and
its sleep/wakeup channels: scripted allocation sequences, strategy comparisons
and a producer/consumer run on the scheduler simulator.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown(cmd.Context())
	},
}

func init() {
	rootCmd.Version = buildVersion()
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"kcorectl {{.Version}}\n  commit: %s\n  built: %s\n  go: %s %s/%s\n",
		commit, date, runtime.Version(), runtime.GOOS, runtime.GOARCH))

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&jaegerURL, "jaeger", "", "Export traces to this Jaeger collector endpoint")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "err", err.Error())
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildVersion prefers the linker-stamped version, then the module version
// recorded by go install.
func buildVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

// setup configures logging and, when requested, tracing.
func setup(cmd *cobra.Command, args []string) error {
	opts := logger.Options{Enabled: verbose, Output: os.Stderr}
	if verbose {
		opts.Level = "debug"
	}
	if err := logger.Init(opts); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	if jaegerURL != "" {
		p, err := tracerProvider(jaegerURL)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		tp = p
		otel.SetTracerProvider(tp)
		printVerbose("Exporting traces to %s\n", jaegerURL)
	}
	return nil
}

// teardown flushes pending spans.
func teardown(ctx context.Context) error {
	if tp == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := tp.Shutdown(ctx)
	tp = nil
	return err
}

// Helper functions for output

// printer formats numbers with digit grouping.
var printer = message.NewPrinter(language.English)

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
