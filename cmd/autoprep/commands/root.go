package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	specPath   string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autoprep",
		Short: "Autoprep - Autonomous Data Preparation Agent",
		Long: `Autoprep is an autonomous agent that cleans and prepares tabular
datasets for a stated modeling goal.

It profiles the input CSV, asks an LLM for a step-by-step preparation
plan, generates pandas code for each step, and executes that code in an
isolated Python subprocess. Failed steps are fed back to the LLM for
repair, with a bounded retry budget per step. Every step's outcome is
recorded in an append-only ledger.

Features:
  - Statistical dataset profiling
  - LLM-driven planning and code generation
  - Self-correcting execution with bounded repair cycles
  - Subprocess isolation for generated code
  - Append-only run ledger with optional SQLite persistence`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&specPath, "spec", "s", "", "run spec file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newProfileCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}
