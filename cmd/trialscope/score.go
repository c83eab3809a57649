package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

func newScoreCmd() *cobra.Command {
	var (
		snapshotPath string
		profileName  string
		outputFmt    string
		compare      bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the composite data quality index",
		Long: `Computes the DQI of a snapshot with one weight profile and prints each
factor's ratio, weight and contribution. --compare scores every profile
side by side.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			snap, err := readSnapshot(cmd.Context(), cfg, snapshotPath)
			if err != nil {
				return err
			}

			names := []string{firstNonEmpty(profileName, cfg.Scoring.Profile)}
			if compare {
				names = []string{scoring.ProfileStandard, scoring.ProfileDecomposed}
			}
			results, err := scoreProfiles(snap, names)
			if err != nil {
				return err
			}

			switch outputFmt {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return fmt.Errorf("encoding JSON: %w", err)
				}
			default:
				for _, r := range results {
					printComposite(os.Stdout, r)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Snapshot JSON file, or \"baseline\" (default: configured source)")
	cmd.Flags().StringVar(&profileName, "profile", "", "DQI weight profile: standard or decomposed")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&compare, "compare", false, "Score with every weight profile")

	return cmd
}

func scoreProfiles(snap *snapshot.Snapshot, names []string) ([]scoring.CompositeResult, error) {
	normalized := snapshot.Normalize(snap)
	results := make([]scoring.CompositeResult, 0, len(names))
	for _, name := range names {
		profile, err := scoring.ProfileByName(name)
		if err != nil {
			return nil, err
		}
		results = append(results, scoring.NewCalculator(profile).Compute(normalized))
	}
	return results, nil
}

func printComposite(w io.Writer, r scoring.CompositeResult) {
	fmt.Fprintf(w, "DQI %d (%s profile)\n", r.Score, r.Profile)
	for _, c := range r.Breakdown {
		note := ""
		if c.Defaulted {
			note = "  no data, counted as resolved"
		}
		fmt.Fprintf(w, "  %-28s weight %.2f  ratio %.3f  +%5.1f%s\n", c.Name, c.Weight, c.Ratio, c.Contribution, note)
	}
	fmt.Fprintln(w)
}
