package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trialscope/trialscope/internal/source"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

func newPublishCmd() *cobra.Command {
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload a snapshot to the configured data source",
		Long: `Validates a snapshot document and writes it to the configured source
(local directory, S3 or GCS) where the service picks it up on its next refresh.
Pass --snapshot baseline to seed the source with the reference study.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var data []byte
			if snapshotPath == "baseline" {
				data = snapshot.BaselineJSON()
			} else {
				data, err = os.ReadFile(snapshotPath)
				if err != nil {
					return fmt.Errorf("reading snapshot: %w", err)
				}
			}

			src, err := source.Open(cmd.Context(), cfg.Source)
			if err != nil {
				return err
			}
			if err := src.Publish(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Snapshot published: %s\n", src.Location())
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Snapshot JSON file, or \"baseline\" (required)")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}
