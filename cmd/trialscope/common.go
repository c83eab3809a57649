package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialscope/trialscope/internal/source"
	"github.com/trialscope/trialscope/pkg/config"
	"github.com/trialscope/trialscope/pkg/dashboard"
	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

// loadConfig reads the --config file, or the nearest .trialscope/config.yaml
// above the working directory, falling back to defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		path = config.FindConfigFile(cwd)
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return cfg, nil
}

// engineOverrides are the per-invocation scoring selections that take
// precedence over the config file.
type engineOverrides struct {
	profile string
	ladder  string
}

func (o engineOverrides) apply(cfg *config.Config) {
	cfg.Scoring.Profile = firstNonEmpty(o.profile, cfg.Scoring.Profile)
	cfg.Scoring.Ladder = firstNonEmpty(o.ladder, cfg.Scoring.Ladder)
}

func newEngine(cfg *config.Config) (*dashboard.Engine, error) {
	opts, err := cfg.DashboardOptions()
	if err != nil {
		return nil, err
	}
	return dashboard.NewEngine(opts), nil
}

// readSnapshot loads the snapshot named by path. "baseline" selects the
// embedded fixture and "" reads the configured data source.
func readSnapshot(ctx context.Context, cfg *config.Config, path string) (*snapshot.Snapshot, error) {
	switch path {
	case "baseline":
		return snapshot.Baseline(), nil
	case "":
		src, err := source.Open(ctx, cfg.Source)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "Reading snapshot from %s\n", src.Location())
		return src.Fetch(ctx)
	default:
		return snapshot.Load(path)
	}
}

func parseNow(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now must be RFC3339: %w", err)
	}
	return t, nil
}

func ladderFor(cfg *config.Config) (scoring.Ladder, error) {
	ladder, err := scoring.LadderByName(cfg.Scoring.Ladder)
	if err != nil {
		return scoring.Ladder{}, err
	}
	o := cfg.Scoring.LadderOverride
	return ladder.WithOverride(o.OpenSAECeiling, o.ResolutionFloor), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
