// Package main provides the entry point for the agenthours CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/agenthours/cmd/agenthours/commands"
	"github.com/Sumatoshi-tech/agenthours/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agenthours",
		Short: "Agenthours - AI-assisted work time reconstruction",
		Long: `Agenthours reconstructs working time from AI assistant logs and
compares commit productivity across tracking configurations.

Commands:
  compare   Compare commit rates across tracking configurations
  sessions  Reconstruct work sessions from assistant logs
  gitstats  Per-day commit statistics for one repository
  tracker   Inspect assistant log sources
  sync      Snapshot assistant logs into a bundle directory`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress warnings")
	rootCmd.PersistentFlags().String("config", "", "config file path (default: .agenthours.yaml in CWD or $HOME)")

	rootCmd.AddCommand(commands.NewCompareCommand())
	rootCmd.AddCommand(commands.NewSessionsCommand())
	rootCmd.AddCommand(commands.NewGitStatsCommand())
	rootCmd.AddCommand(commands.NewTrackerCommand())
	rootCmd.AddCommand(commands.NewSyncCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "agenthours %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
