// Package hierarchy rolls site counters up the region, country, site tree
// and ranks sites by their proxy score.
//
// Country and region scores are recomputed from their own aggregate query
// totals, never averaged from child scores, so a region's score need not
// equal the mean of its countries' scores.
package hierarchy

import (
	"strings"

	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

// Site is a scored site leaf.
type Site struct {
	ID           string `json:"id"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	Patients     int    `json:"patients"`
	TotalQueries int    `json:"totalQueries"`
	OpenQueries  int    `json:"openQueries"`
	scoring.EntityScore
}

// Country is a scored roll-up of its sites.
type Country struct {
	Code         string `json:"code"`
	TotalSites   int    `json:"totalSites"`
	Patients     int    `json:"patients"`
	TotalQueries int    `json:"totalQueries"`
	OpenQueries  int    `json:"openQueries"`
	scoring.EntityScore
	Sites []Site `json:"sites"`
}

// Region is a scored roll-up of its countries.
type Region struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	TotalCountries int    `json:"totalCountries"`
	TotalSites     int    `json:"totalSites"`
	Patients       int    `json:"patients"`
	TotalQueries   int    `json:"totalQueries"`
	OpenQueries    int    `json:"openQueries"`
	scoring.EntityScore
	Countries []Country `json:"countries"`
}

// Result is the output of one aggregation pass.
type Result struct {
	Regions []Region
	// Sites lists every site in traversal order: region, then country, then
	// site, each in document order.
	Sites       []Site
	TopSites    []Site
	BottomSites []Site
	// Study scores the whole tree from its summed query totals.
	Study scoring.EntityScore
}

// SitesAtRisk counts sites whose status is not healthy.
func (r *Result) SitesAtRisk() int {
	n := 0
	for _, s := range r.Sites {
		if s.Status != scoring.StatusHealthy {
			n++
		}
	}
	return n
}

// CriticalSites returns critical sites in ranking order, worst first.
func (r *Result) CriticalSites() []Site {
	ranked := sortByScore(r.Sites)
	var out []Site
	for i := len(ranked) - 1; i >= 0; i-- {
		if ranked[i].Status == scoring.StatusCritical {
			out = append(out, ranked[i])
		}
	}
	return out
}

// Aggregate walks the region tree and ranks its sites. A nil tree yields an
// empty result with a fully resolved study score.
func Aggregate(regions *snapshot.RegionMap, opts Options) *Result {
	result := &Result{
		Regions: []Region{},
		Sites:   []Site{},
	}

	studyTotal, studyOpen := 0, 0
	if regions != nil {
		for rp := regions.Oldest(); rp != nil; rp = rp.Next() {
			region := aggregateRegion(rp.Key, rp.Value)
			result.Regions = append(result.Regions, region)
			for _, c := range region.Countries {
				result.Sites = append(result.Sites, c.Sites...)
			}
			studyTotal += region.TotalQueries
			studyOpen += region.OpenQueries
		}
	}

	result.Study = scoring.ScoreEntity(studyTotal, studyOpen)
	result.TopSites, result.BottomSites = Rank(result.Sites, opts)
	return result
}

func aggregateRegion(name string, in snapshot.Region) Region {
	region := Region{
		ID:        RegionID(name),
		Name:      name,
		Countries: []Country{},
	}
	if in.Countries != nil {
		for cp := in.Countries.Oldest(); cp != nil; cp = cp.Next() {
			country := aggregateCountry(name, cp.Key, cp.Value)
			region.Countries = append(region.Countries, country)
			region.TotalSites += country.TotalSites
			region.Patients += country.Patients
			region.TotalQueries += country.TotalQueries
			region.OpenQueries += country.OpenQueries
		}
	}
	region.TotalCountries = len(region.Countries)
	region.EntityScore = scoring.ScoreEntity(region.TotalQueries, region.OpenQueries)
	return region
}

func aggregateCountry(region, code string, in snapshot.Country) Country {
	country := Country{
		Code:         code,
		TotalSites:   in.TotalSites,
		TotalQueries: in.TotalQueries,
		OpenQueries:  in.OpenQueries,
		Sites:        []Site{},
	}
	if in.Sites != nil {
		for sp := in.Sites.Oldest(); sp != nil; sp = sp.Next() {
			site := Site{
				ID:           sp.Key,
				Region:       region,
				Country:      code,
				Patients:     sp.Value.Patients,
				TotalQueries: sp.Value.TotalQueries,
				OpenQueries:  sp.Value.OpenQueries,
				EntityScore:  scoring.ScoreEntity(sp.Value.TotalQueries, sp.Value.OpenQueries),
			}
			country.Sites = append(country.Sites, site)
			country.Patients += site.Patients
		}
	}
	if country.TotalSites < len(country.Sites) {
		country.TotalSites = len(country.Sites)
	}
	country.EntityScore = scoring.ScoreEntity(country.TotalQueries, country.OpenQueries)
	return country
}

// RegionID derives a stable identifier from a region name:
// "North America" -> "north-america".
func RegionID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
