package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	var (
		openSAEs   int
		resolution float64
		ladderName string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify database lock readiness",
		Long: `Applies the readiness ladder to an open SAE count and a query resolution
rate (0-100): ready, at-risk or not-ready.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if openSAEs < 0 {
				return fmt.Errorf("--open-saes must not be negative")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Scoring.Ladder = firstNonEmpty(ladderName, cfg.Scoring.Ladder)

			ladder, err := ladderFor(cfg)
			if err != nil {
				return err
			}
			verdict := ladder.Classify(openSAEs, resolution)
			fmt.Fprintf(os.Stdout, "%s\n", verdict)
			fmt.Fprintf(os.Stderr, "ladder %s: ready at %.0f%% resolution with no open SAEs, at-risk below %d open SAEs from %.0f%% resolution\n",
				ladder.Name, ladder.ReadyResolution, ladder.OpenSAECeiling, ladder.ResolutionFloor)
			return nil
		},
	}

	cmd.Flags().IntVar(&openSAEs, "open-saes", 0, "Open serious adverse events")
	cmd.Flags().Float64Var(&resolution, "resolution", 0, "Query resolution rate, 0-100")
	cmd.Flags().StringVar(&ladderName, "ladder", "", "Readiness ladder: standard or lenient")
	_ = cmd.MarkFlagRequired("resolution")

	return cmd
}
