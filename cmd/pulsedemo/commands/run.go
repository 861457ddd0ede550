package commands

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/archlens/pulse"
)

// runCmdDefaultIterations is how many times the demo workload loops when
// --iterations is not given.
const runCmdDefaultIterations = 500

// NewRunCommand builds the "run" subcommand: installs a Library, drives
// a small instrumented workload (a couple of nested Function/Block
// scopes plus a handful of contract checks) on the calling goroutine, then
// shuts the Library down so its final aggregates and self-telemetry
// flush before the process exits.
func NewRunCommand() *cobra.Command {
	var (
		configPath string
		sinkYAML   string
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Install pulse, drive a small instrumented workload, and shut down",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, configPath, sinkYAML, iterations)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to pulsedemo.yaml (defaults to ./pulsedemo.yaml if present)")
	cmd.Flags().StringVar(&sinkYAML, "sinks", "", "path to a sink-spec YAML document (see sink.LoadSpecs)")
	cmd.Flags().IntVar(&iterations, "iterations", runCmdDefaultIterations, "number of workload iterations to run")

	return cmd
}

func runDemo(cmd *cobra.Command, configPath, sinkSpecPath string, iterations int) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	demoCfg, err := loadDemoConfig(configPath)
	if err != nil {
		return err
	}

	var sinkYAML []byte
	if sinkSpecPath != "" {
		sinkYAML, err = os.ReadFile(sinkSpecPath)
		if err != nil {
			return fmt.Errorf("pulsedemo: read sink spec %s: %w", sinkSpecPath, err)
		}
	}

	pulseCfg, err := toPulseConfig(demoCfg, sinkYAML)
	if err != nil {
		return err
	}

	lib, err := pulse.Install(pulseCfg)
	if err != nil {
		return fmt.Errorf("pulsedemo: install: %w", err)
	}

	thread := lib.AcquireThread(ctx)

	runWorkload(lib, thread, iterations)

	if err := thread.Release(); err != nil {
		return fmt.Errorf("pulsedemo: release thread: %w", err)
	}

	if err := lib.Shutdown(ctx); err != nil {
		return fmt.Errorf("pulsedemo: shutdown: %w", err)
	}

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "ran %d iterations, mode=%s\n", iterations, pulseCfg.Mode)

	return nil
}

// runWorkload exercises the library's nested-scope profiling and
// contract checks: an outer "decode" Function wrapping an inner
// "validate" Block, with an Argument check guarding the simulated input
// size and an Ensure guard re-checking at scope exit that the size is
// non-negative.
func runWorkload(lib *pulse.Library, thread *pulse.Thread, iterations int) {
	for i := 0; i < iterations; i++ {
		decodeOne(lib, thread, i)
	}
}

func decodeOne(lib *pulse.Library, thread *pulse.Thread, seed int) {
	defer thread.Function("decode", "demo-session", 1)()

	size := 16 + rand.Intn(256)
	_ = lib.Argument(size > 0, "decode: input size must be positive, got %d", size)

	guard := lib.Ensure(func() bool { return size >= 0 })
	defer guard.Release(nil)

	func() {
		defer thread.Block("validate", 1)()

		time.Sleep(time.Microsecond * time.Duration(1+seed%5))
		_ = lib.Confirm(size < 1<<20, "decode: input size %d exceeds maximum", size)
	}()
}
