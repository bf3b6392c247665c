// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"doppio-engine/internal/config"
)

// Build-time variables set via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	verbose bool
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "doppio-engine",
	Short: "Remote-compute orchestration backend for GPU training jobs",
	Long: titleStyle.Render("doppio-engine") + subtitleStyle.Render(" - a declarative skill execution engine") + `

doppio-engine drives a dependency-ordered step graph ("skill") across a
fleet of hosts (local shell, SSH cloud instances, rented GPU instances)
and storage backends (object stores, network drives, SSH filesystems),
streaming progress back as it runs.

` + subtitleStyle.Render("Quick Start:") + `
  1. Write a skill file in TOML: [skill], [[step]], [step.run_commands]
  2. Validate it:  doppio-engine validate train.toml
  3. Run it:       doppio-engine run train.toml

` + subtitleStyle.Render("Examples:") + `
  doppio-engine validate train.toml      Check a skill for structural errors
  doppio-engine describe train.toml      Render a skill's summary and step graph
  doppio-engine run train.toml           Run a skill to completion
  doppio-engine logs <execution-id>      Tail a finished execution's log
  doppio-engine config show              Show current configuration`,
}

func getVersionString() string {
	if version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate)
}

// Execute adds all child commands to the root command and runs it. Called
// once by main.main.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/doppio-engine/config.toml)")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newDescribeCommand())
	rootCmd.AddCommand(newLogsCommand())
	rootCmd.AddCommand(newCancelCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newStorageCommand())
	rootCmd.AddCommand(newCompletionCommand())
}

func initRootConfig() {
	cfg, err := config.Load()
	if err != nil {
		if verbose {
			fmt.Fprintln(os.Stderr, warningStyle.Render("Warning: ")+fmt.Sprintf("failed to load config: %v", err))
		}
		return
	}
	if !verbose {
		verbose = cfg.UI.Verbose
	}
}
