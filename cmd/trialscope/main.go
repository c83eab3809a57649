// Package main provides the trialscope CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "trialscope",
		Short: "Clinical operations metrics for study readiness",
		Long: `Trialscope turns per-study clinical-operations counters into a dashboard
model: composite data quality scores, a database lock readiness verdict,
ranked sites, rule-based insights and role-tagged recommendations.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search for .trialscope/config.yaml)")

	rootCmd.AddCommand(
		newBuildCmd(),
		newScoreCmd(),
		newClassifyCmd(),
		newDiffCmd(),
		newPublishCmd(),
		newServeCmd(),
	)
	return rootCmd
}
