package dashboard_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/trialscope/trialscope/pkg/dashboard"
	"github.com/trialscope/trialscope/pkg/hierarchy"
	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

func testdataPath(name string) string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "testdata", name)
}

func TestBuildSmallStudyFixture(t *testing.T) {
	snap, err := snapshot.Load(testdataPath("small_study.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	model := dashboard.NewEngine(dashboard.DefaultOptions()).Build(snap, now)

	// 394/400 resolved with no open SAEs: 98.5% clears the ready bar.
	if got := model.ExecutiveKPIs.ReadinessStatus.Current; got != scoring.ReadinessReady {
		t.Errorf("readiness = %s, want ready", got)
	}

	dqi := model.Trends[dashboard.SeriesDQI]
	if dqi.Synthetic || len(dqi.Points) != 7 {
		t.Fatalf("dqi series synthetic=%v points=%d, want supplied 7", dqi.Synthetic, len(dqi.Points))
	}
	if got := model.ExecutiveKPIs.DQI.Previous; got != 95 {
		t.Errorf("dqi previous = %v, want 95 from the supplied history", got)
	}
	if !model.Trends[dashboard.SeriesOpenSAEs].Synthetic {
		t.Error("open SAE series has no history and should be synthetic")
	}

	// Four sites: both lists hold all four under the overlap policy.
	if len(model.TopSites) != 4 || len(model.BottomSites) != 4 {
		t.Fatalf("top %d bottom %d, want 4 and 4", len(model.TopSites), len(model.BottomSites))
	}
	if model.BottomSites[0].ID != "302" {
		t.Errorf("worst site = %s, want 302", model.BottomSites[0].ID)
	}
	// 301, 401 and 402 tie; the stable sort keeps document order.
	for i, want := range []string{"301", "401", "402"} {
		if model.TopSites[i].ID != want {
			t.Errorf("top[%d] = %s, want %s", i, model.TopSites[i].ID, want)
		}
	}

	if model.Provenance.DataSource != "EDC extract, study TS-204" || model.Provenance.LastUpdated != "2025-03-10T06:00:00Z" {
		t.Errorf("provenance = %+v", model.Provenance)
	}
}

func TestBuildSmallStudyCapHalf(t *testing.T) {
	snap, err := snapshot.Load(testdataPath("small_study.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts := dashboard.DefaultOptions()
	opts.Ranking = hierarchy.Options{Policy: hierarchy.PolicyCapHalf}
	model := dashboard.NewEngine(opts).Build(snap, now)

	if len(model.TopSites) != 2 || len(model.BottomSites) != 2 {
		t.Fatalf("top %d bottom %d, want 2 and 2", len(model.TopSites), len(model.BottomSites))
	}
	seen := map[string]bool{}
	for _, s := range model.TopSites {
		seen[s.ID] = true
	}
	for _, s := range model.BottomSites {
		if seen[s.ID] {
			t.Errorf("site %s appears in both lists", s.ID)
		}
	}
	if model.Provenance.RankingPolicy != string(hierarchy.PolicyCapHalf) {
		t.Errorf("ranking policy = %s", model.Provenance.RankingPolicy)
	}
}
