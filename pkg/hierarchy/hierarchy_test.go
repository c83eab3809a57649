package hierarchy_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/trialscope/trialscope/pkg/hierarchy"
	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

func regionsFrom(t *testing.T, doc string) *snapshot.RegionMap {
	t.Helper()
	snap, err := snapshot.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return snap.Regions
}

// sitesDoc builds a single-region tree with one site per entry in opens,
// each site holding 100 queries.
func sitesDoc(opens ...int) string {
	var sites []string
	for i, open := range opens {
		sites = append(sites, fmt.Sprintf(`"S%02d":{"patients":1,"total_queries":100,"open_queries":%d}`, i+1, open))
	}
	return `{"regions":{"R":{"countries":{"C":{"sites":{` + strings.Join(sites, ",") + `}}}}}}`
}

func ids(sites []hierarchy.Site) []string {
	out := make([]string, len(sites))
	for i, s := range sites {
		out[i] = s.ID
	}
	return out
}

func TestRegionScoreRecomputedFromTotals(t *testing.T) {
	regions := regionsFrom(t, `{"regions":{"Europe":{"countries":{
		"DEU":{"sites":{"1":{"patients":4,"total_queries":100,"open_queries":0}}},
		"FRA":{"sites":{"2":{"patients":6,"total_queries":10,"open_queries":10}}}
	}}}}`)

	result := hierarchy.Aggregate(regions, hierarchy.DefaultOptions())
	if len(result.Regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(result.Regions))
	}
	region := result.Regions[0]

	deu, fra := region.Countries[0], region.Countries[1]
	if deu.Score != 100 || fra.Score != 20 {
		t.Fatalf("country scores = %d, %d; want 100, 20", deu.Score, fra.Score)
	}

	// 110 queries, 10 open: rate 90.9 -> round(72.7 + 20) = 93.
	// The mean of the country scores would be 60.
	if region.Score != 93 {
		t.Errorf("region score = %d, want 93", region.Score)
	}
	if mean := (deu.Score + fra.Score) / 2; region.Score == mean {
		t.Errorf("region score equals child mean %d", mean)
	}
	if region.Patients != 10 || region.TotalQueries != 110 || region.OpenQueries != 10 {
		t.Errorf("region roll-up = %+v", region)
	}
	if region.ID != "europe" || region.TotalCountries != 2 || region.TotalSites != 2 {
		t.Errorf("region identity = %s countries=%d sites=%d", region.ID, region.TotalCountries, region.TotalSites)
	}
}

func TestRankOverlapWithFewSites(t *testing.T) {
	result := hierarchy.Aggregate(regionsFrom(t, sitesDoc(0, 10, 40)), hierarchy.DefaultOptions())

	if got := ids(result.TopSites); strings.Join(got, ",") != "S01,S02,S03" {
		t.Errorf("top = %v", got)
	}
	if got := ids(result.BottomSites); strings.Join(got, ",") != "S03,S02,S01" {
		t.Errorf("bottom = %v", got)
	}
}

func TestRankCapHalfWithFewSites(t *testing.T) {
	opts := hierarchy.Options{Policy: hierarchy.PolicyCapHalf, Size: 5}
	result := hierarchy.Aggregate(regionsFrom(t, sitesDoc(0, 10, 40)), opts)

	if got := ids(result.TopSites); strings.Join(got, ",") != "S01" {
		t.Errorf("top = %v", got)
	}
	if got := ids(result.BottomSites); strings.Join(got, ",") != "S03" {
		t.Errorf("bottom = %v", got)
	}
}

func TestRankDisjointWithTenOrMoreSites(t *testing.T) {
	for _, policy := range []hierarchy.Policy{hierarchy.PolicyOverlap, hierarchy.PolicyCapHalf} {
		for _, n := range []int{10, 11, 15} {
			opens := make([]int, n)
			for i := range opens {
				opens[i] = (i * 7) % 50
			}
			result := hierarchy.Aggregate(regionsFrom(t, sitesDoc(opens...)), hierarchy.Options{Policy: policy, Size: 5})

			if len(result.TopSites) != 5 || len(result.BottomSites) != 5 {
				t.Fatalf("%s n=%d: list sizes %d/%d", policy, n, len(result.TopSites), len(result.BottomSites))
			}
			seen := map[string]bool{}
			for _, s := range result.TopSites {
				seen[s.ID] = true
			}
			for _, s := range result.BottomSites {
				if seen[s.ID] {
					t.Errorf("%s n=%d: site %s in both lists", policy, n, s.ID)
				}
			}
		}
	}
}

func TestRankStableOnTies(t *testing.T) {
	doc := sitesDoc(20, 0, 20, 0, 20, 0)
	first := hierarchy.Aggregate(regionsFrom(t, doc), hierarchy.DefaultOptions())

	wantTop := "S02,S04,S06,S01,S03"
	if got := strings.Join(ids(first.TopSites), ","); got != wantTop {
		t.Errorf("top = %s, want %s", got, wantTop)
	}
	wantBottom := "S05,S03,S01,S06,S04"
	if got := strings.Join(ids(first.BottomSites), ","); got != wantBottom {
		t.Errorf("bottom = %s, want %s", got, wantBottom)
	}

	for i := 0; i < 20; i++ {
		again := hierarchy.Aggregate(regionsFrom(t, doc), hierarchy.DefaultOptions())
		if strings.Join(ids(again.TopSites), ",") != wantTop || strings.Join(ids(again.BottomSites), ",") != wantBottom {
			t.Fatalf("run %d reordered ties", i)
		}
	}
}

func TestRankDoesNotReorderInput(t *testing.T) {
	result := hierarchy.Aggregate(regionsFrom(t, sitesDoc(50, 0, 25)), hierarchy.DefaultOptions())
	if got := strings.Join(ids(result.Sites), ","); got != "S01,S02,S03" {
		t.Errorf("Sites reordered: %s", got)
	}
}

func TestAggregateNilTree(t *testing.T) {
	result := hierarchy.Aggregate(nil, hierarchy.DefaultOptions())
	if len(result.Regions) != 0 || len(result.Sites) != 0 || len(result.TopSites) != 0 || len(result.BottomSites) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if result.Study.Score != 100 || result.Study.Status != scoring.StatusHealthy {
		t.Errorf("empty study score = %+v", result.Study)
	}
}

func TestAggregateBaseline(t *testing.T) {
	snap := snapshot.Baseline()
	result := hierarchy.Aggregate(snap.Regions, hierarchy.DefaultOptions())

	if len(result.Sites) != 12 {
		t.Errorf("expected 12 sites, got %d", len(result.Sites))
	}
	patients := 0
	for _, r := range result.Regions {
		patients += r.Patients
	}
	if patients != snap.TotalPatients() {
		t.Errorf("region patients = %d, want %d", patients, snap.TotalPatients())
	}

	for _, s := range append(result.TopSites, result.BottomSites...) {
		if s.Score < 0 || s.Score > 100 {
			t.Errorf("site %s score %d out of bounds", s.ID, s.Score)
		}
	}
	for i := 1; i < len(result.TopSites); i++ {
		if result.TopSites[i].Score > result.TopSites[i-1].Score {
			t.Errorf("top list not descending at %d", i)
		}
	}
	for i := 1; i < len(result.BottomSites); i++ {
		if result.BottomSites[i].Score < result.BottomSites[i-1].Score {
			t.Errorf("bottom list not ascending at %d", i)
		}
	}
}

func TestCriticalSitesAndSitesAtRisk(t *testing.T) {
	// Scores: 100 healthy, 60 critical, 84 at-risk, 20 critical.
	result := hierarchy.Aggregate(regionsFrom(t, sitesDoc(0, 50, 20, 100)), hierarchy.DefaultOptions())

	if got := result.SitesAtRisk(); got != 3 {
		t.Errorf("SitesAtRisk() = %d, want 3", got)
	}
	if got := strings.Join(ids(result.CriticalSites()), ","); got != "S04,S02" {
		t.Errorf("CriticalSites() = %s, want S04,S02", got)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    hierarchy.Policy
		wantErr bool
	}{
		{"", hierarchy.PolicyOverlap, false},
		{"overlap", hierarchy.PolicyOverlap, false},
		{"cap_half", hierarchy.PolicyCapHalf, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		got, err := hierarchy.ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
