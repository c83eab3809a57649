package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trialscope/trialscope/pkg/surface"
)

func newBuildCmd() *cobra.Command {
	var (
		snapshotPath string
		outputFmt    string
		now          string
		overrides    engineOverrides
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the dashboard model from a snapshot",
		Long: `Runs the full pipeline over one snapshot: scoring, readiness, hierarchy
roll-up and ranking, insights, recommendations and trends.

Without --snapshot the configured data source is read. Pass
--snapshot baseline to use the embedded reference study.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			overrides.apply(cfg)

			renderer, err := surface.ForFormat(outputFmt)
			if err != nil {
				return err
			}
			at, err := parseNow(now)
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}
			snap, err := readSnapshot(cmd.Context(), cfg, snapshotPath)
			if err != nil {
				return err
			}

			model := engine.Build(snap, at)
			if err := renderer.Render(os.Stdout, model); err != nil {
				return fmt.Errorf("rendering: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Snapshot JSON file, or \"baseline\" (default: configured source)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text, json or markdown")
	cmd.Flags().StringVar(&now, "now", "", "Generation time as RFC3339 (default: current time)")
	cmd.Flags().StringVar(&overrides.profile, "profile", "", "DQI weight profile: standard or decomposed")
	cmd.Flags().StringVar(&overrides.ladder, "ladder", "", "Readiness ladder: standard or lenient")

	return cmd
}
