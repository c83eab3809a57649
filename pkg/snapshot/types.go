// Package snapshot defines the raw per-study counter snapshot consumed by the
// metrics engine. Every field is optional in the wire format; a missing
// counter decodes to its zero value and Normalize fills the derived fields.
// Snapshots are immutable once normalized.
package snapshot

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Snapshot is one refresh cycle's worth of pre-extracted study counters.
type Snapshot struct {
	LastUpdated         string          `json:"lastUpdated,omitempty"`
	DataSource          string          `json:"dataSource,omitempty"`
	GovernanceStatement string          `json:"governanceStatement,omitempty"`
	ExtractionStats     ExtractionStats `json:"extractionStats"`

	Queries     Queries     `json:"queries"`
	SAEs        SAEs        `json:"saes"`
	Visits      Visits      `json:"visits"`
	Lab         Lab         `json:"lab"`
	Pages       Pages       `json:"pages"`
	Coding      Coding      `json:"coding"`
	SDV         SDV         `json:"sdv"`
	Signatures  Signatures  `json:"signatures"`
	EDRR        EDRR        `json:"edrr"`
	Inactivated Inactivated `json:"inactivated"`

	// Regions is keyed region name -> country code -> site id. Iteration
	// order is the order keys appeared in the source document.
	Regions *RegionMap `json:"regions,omitempty"`

	// DQITrend is the legacy single-series history. Trends holds named
	// series; a "dqi" entry there takes precedence over DQITrend.
	DQITrend   []Point            `json:"dqiTrend,omitempty"`
	Trends     map[string][]Point `json:"trends,omitempty"`
	CurrentDQI float64            `json:"currentDQI,omitempty"`
}

// ExtractionStats describes the upstream extraction run that produced the snapshot.
type ExtractionStats struct {
	StudiesProcessed int            `json:"studiesProcessed"`
	FilesProcessed   map[string]int `json:"filesProcessed,omitempty"`
	RecordsExtracted map[string]int `json:"recordsExtracted,omitempty"`
	Errors           int            `json:"errors"`
}

// Queries holds data-query counters.
type Queries struct {
	Total  int `json:"total"`
	Open   int `json:"open"`
	Closed int `json:"closed"`
	// ResolutionRate is a percentage. Nil means the source did not supply
	// it; Normalize derives it from Total and Open.
	ResolutionRate *float64   `json:"resolutionRate,omitempty"`
	Aging          QueryAging `json:"aging"`
}

// QueryAging buckets open queries by days since opened.
type QueryAging struct {
	Days0To7   int `json:"0-7 days"`
	Days8To14  int `json:"8-14 days"`
	Days15To30 int `json:"15-30 days"`
	Over30     int `json:">30 days"`
}

// SAEs holds serious adverse event counters.
type SAEs struct {
	Total               int `json:"total"`
	Open                int `json:"open"`
	PatientsWithOpenSAE int `json:"patientsWithOpenSAE"`
	SitesWithOpenSAE    int `json:"sitesWithOpenSAE"`
}

type Visits struct {
	TotalMissing  int `json:"totalMissing"`
	Overdue30Days int `json:"overdue30Days"`
}

type Lab struct {
	TotalIssues int `json:"totalIssues"`
}

type Pages struct {
	TotalMissing int `json:"totalMissing"`
}

// Coding holds medical (MedDRA) and drug (WHO-DD) coding counters.
type Coding struct {
	MedDRA       CodingDictionary `json:"meddra"`
	WHODD        CodingDictionary `json:"whodd"`
	TotalUncoded int              `json:"totalUncoded"`
}

type CodingDictionary struct {
	Total   int `json:"total"`
	Uncoded int `json:"uncoded"`
}

// SDV holds source data verification counters.
type SDV struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
	// VerificationRate is a percentage; nil means derive from Verified/Total.
	VerificationRate *float64 `json:"verificationRate,omitempty"`
}

// Signatures holds investigator signature counters.
type Signatures struct {
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
}

// EDRR holds third-party data reconciliation counters.
type EDRR struct {
	OpenIssues int `json:"openIssues"`
}

type Inactivated struct {
	TotalForms int `json:"totalForms"`
}

// RegionMap maps region name to its countries, preserving document order.
type RegionMap = orderedmap.OrderedMap[string, Region]

// CountryMap maps country code to its sites, preserving document order.
type CountryMap = orderedmap.OrderedMap[string, Country]

// SiteMap maps site id to its counters, preserving document order.
type SiteMap = orderedmap.OrderedMap[string, Site]

type Region struct {
	Countries      *CountryMap `json:"countries,omitempty"`
	TotalCountries int         `json:"total_countries"`
}

type Country struct {
	TotalSites   int      `json:"total_sites"`
	TotalQueries int      `json:"total_queries"`
	OpenQueries  int      `json:"open_queries"`
	Sites        *SiteMap `json:"sites,omitempty"`
}

type Site struct {
	Patients     int `json:"patients"`
	TotalQueries int `json:"total_queries"`
	OpenQueries  int `json:"open_queries"`
}

// DateLayout is the wire format of point dates.
const DateLayout = "2006-01-02"

// Point is one dated observation of a metric. Date is formatted with DateLayout.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// NewRegionMap returns an empty region map.
func NewRegionMap() *RegionMap { return orderedmap.New[string, Region]() }

// NewCountryMap returns an empty country map.
func NewCountryMap() *CountryMap { return orderedmap.New[string, Country]() }

// NewSiteMap returns an empty site map.
func NewSiteMap() *SiteMap { return orderedmap.New[string, Site]() }

// QueryResolutionRate returns the query resolution percentage. On a
// normalized snapshot this is always set.
func (s *Snapshot) QueryResolutionRate() float64 {
	if s.Queries.ResolutionRate != nil {
		return *s.Queries.ResolutionRate
	}
	return ResolutionPercent(s.Queries.Total, s.Queries.Open)
}

// SDVRate returns the verification percentage.
func (s *Snapshot) SDVRate() float64 {
	if s.SDV.VerificationRate != nil {
		return *s.SDV.VerificationRate
	}
	return ResolutionPercent(s.SDV.Total, s.SDV.Total-s.SDV.Verified)
}

// TotalPatients sums site patient counts across the region tree.
func (s *Snapshot) TotalPatients() int {
	total := 0
	s.EachSite(func(_, _, _ string, site Site) {
		total += site.Patients
	})
	return total
}

// EachSite visits every site leaf in region, country, site document order.
func (s *Snapshot) EachSite(fn func(region, country, siteID string, site Site)) {
	if s.Regions == nil {
		return
	}
	for rp := s.Regions.Oldest(); rp != nil; rp = rp.Next() {
		if rp.Value.Countries == nil {
			continue
		}
		for cp := rp.Value.Countries.Oldest(); cp != nil; cp = cp.Next() {
			if cp.Value.Sites == nil {
				continue
			}
			for sp := cp.Value.Sites.Oldest(); sp != nil; sp = sp.Next() {
				fn(rp.Key, cp.Key, sp.Key, sp.Value)
			}
		}
	}
}

// ResolutionPercent returns (total-outstanding)/total as a percentage in
// [0, 100]. A zero total counts as fully resolved.
func ResolutionPercent(total, outstanding int) float64 {
	if total <= 0 {
		return 100
	}
	resolved := float64(total-outstanding) / float64(total) * 100
	if resolved < 0 {
		return 0
	}
	if resolved > 100 {
		return 100
	}
	return resolved
}
