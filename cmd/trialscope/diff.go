package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialscope/trialscope/pkg/dashboard"
)

func newDiffCmd() *cobra.Command {
	var (
		basePath  string
		headPath  string
		outputFmt string
		overrides engineOverrides
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare headline KPIs between two snapshots",
		Long:  `Builds both snapshots with the same configuration and reports how each headline KPI and site status moved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			overrides.apply(cfg)
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			base, err := readSnapshot(cmd.Context(), cfg, basePath)
			if err != nil {
				return fmt.Errorf("base snapshot: %w", err)
			}
			head, err := readSnapshot(cmd.Context(), cfg, headPath)
			if err != nil {
				return fmt.Errorf("head snapshot: %w", err)
			}

			now := time.Now().UTC()
			result := compareModels(engine.Build(base, now), engine.Build(head, now))

			switch outputFmt {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return fmt.Errorf("encoding JSON: %w", err)
				}
			default:
				printDiff(os.Stdout, result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&basePath, "base", "", "Earlier snapshot JSON file, or \"baseline\" (required)")
	cmd.Flags().StringVar(&headPath, "head", "", "Later snapshot JSON file (default: configured source)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().StringVar(&overrides.profile, "profile", "", "DQI weight profile: standard or decomposed")
	cmd.Flags().StringVar(&overrides.ladder, "ladder", "", "Readiness ladder: standard or lenient")
	_ = cmd.MarkFlagRequired("base")

	return cmd
}

type kpiChange struct {
	Label string  `json:"label"`
	Base  float64 `json:"base"`
	Head  float64 `json:"head"`
	Delta float64 `json:"delta"`
}

type siteChange struct {
	ID   string `json:"id"`
	Base string `json:"base"`
	Head string `json:"head"`
}

type modelDiff struct {
	ReadinessBase string       `json:"readinessBase"`
	ReadinessHead string       `json:"readinessHead"`
	KPIs          []kpiChange  `json:"kpis"`
	Sites         []siteChange `json:"sites"`
}

func compareModels(base, head *dashboard.Model) modelDiff {
	d := modelDiff{
		ReadinessBase: string(base.ExecutiveKPIs.ReadinessStatus.Current),
		ReadinessHead: string(head.ExecutiveKPIs.ReadinessStatus.Current),
	}

	pairs := [][2]dashboard.KPI{
		{base.ExecutiveKPIs.DQI, head.ExecutiveKPIs.DQI},
		{base.ExecutiveKPIs.QueryResolution, head.ExecutiveKPIs.QueryResolution},
		{base.ExecutiveKPIs.CleanPatients, head.ExecutiveKPIs.CleanPatients},
		{base.ExecutiveKPIs.OpenSAEs, head.ExecutiveKPIs.OpenSAEs},
		{base.ExecutiveKPIs.SitesAtRisk, head.ExecutiveKPIs.SitesAtRisk},
	}
	for _, p := range pairs {
		d.KPIs = append(d.KPIs, kpiChange{
			Label: p[1].Label,
			Base:  p[0].Current,
			Head:  p[1].Current,
			Delta: p[1].Current - p[0].Current,
		})
	}

	before := make(map[string]string)
	for _, row := range base.Patients {
		before[row.SiteID] = string(row.Status)
	}
	for _, row := range head.Patients {
		prev, ok := before[row.SiteID]
		if !ok {
			prev = "new"
		}
		if prev != string(row.Status) {
			d.Sites = append(d.Sites, siteChange{ID: row.SiteID, Base: prev, Head: string(row.Status)})
		}
	}
	return d
}

func printDiff(w io.Writer, d modelDiff) {
	fmt.Fprintf(w, "Readiness: %s -> %s\n\n", d.ReadinessBase, d.ReadinessHead)
	for _, k := range d.KPIs {
		fmt.Fprintf(w, "  %-18s %8.1f -> %8.1f  (%+.1f)\n", k.Label, k.Base, k.Head, k.Delta)
	}
	if len(d.Sites) == 0 {
		fmt.Fprintln(w, "\nNo site status changes.")
		return
	}
	fmt.Fprintln(w, "\nSite status changes:")
	for _, s := range d.Sites {
		fmt.Fprintf(w, "  %-10s %s -> %s\n", s.ID, s.Base, s.Head)
	}
}
