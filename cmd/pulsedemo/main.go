// Package main provides the pulsedemo CLI: a worked example exercising
// the pulse library end to end (install, a couple of instrumented
// functions, a report command, shutdown). Its flag/config parsing is
// deliberately outside the core library per spec.md §1 — pulse itself
// never reads os.Args or the environment.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/archlens/pulse/cmd/pulsedemo/commands"
	"github.com/archlens/pulse/pkg/version"
)

func main() {
	root := &cobra.Command{
		Use:     "pulsedemo",
		Short:   "Worked example driving the pulse instrumentation library",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
	}

	root.AddCommand(commands.NewRunCommand())
	root.AddCommand(commands.NewReportCommand())

	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "pulsedemo: %v\n", err)
		os.Exit(1)
	}
}
