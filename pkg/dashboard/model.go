// Package dashboard assembles the dashboard model: the only structure the
// presentation layer reads. A model is rebuilt wholesale from one snapshot
// and never patched.
package dashboard

import (
	"github.com/trialscope/trialscope/pkg/narrative"
	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/snapshot"
	"github.com/trialscope/trialscope/pkg/trend"
)

// Model is the finished dashboard model.
type Model struct {
	ExecutiveKPIs        ExecutiveKPIs              `json:"executiveKPIs"`
	ReadinessCriteria    []Criterion                `json:"readinessCriteria"`
	Regions              []RegionView               `json:"regions"`
	TopSites             []SiteView                 `json:"topSites"`
	BottomSites          []SiteView                 `json:"bottomSites"`
	Patients             []PatientRow               `json:"patients"`
	Bottlenecks          Bottlenecks                `json:"bottlenecks"`
	SAEs                 []SAERow                   `json:"saes"`
	AIInsights           []narrative.Insight        `json:"aiInsights"`
	AgentRecommendations []narrative.Recommendation `json:"agentRecommendations"`
	Trends               map[string]trend.Series    `json:"trends"`
	DQIBreakdown         scoring.CompositeResult    `json:"dqiBreakdown"`
	Provenance           Provenance                 `json:"provenance"`
}

// Direction is the movement of a KPI since the previous interval.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// KPI is a numeric headline metric. When Synthetic is set there is no
// recorded history: Previous equals Current and Trend is flat.
type KPI struct {
	Label     string    `json:"label"`
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	Target    float64   `json:"target"`
	Unit      string    `json:"unit"`
	Trend     Direction `json:"trend"`
	Synthetic bool      `json:"synthetic"`
}

// ReadinessKPI is the readiness verdict headline. Synthetic has the same
// meaning as on KPI.
type ReadinessKPI struct {
	Label     string            `json:"label"`
	Current   scoring.Readiness `json:"current"`
	Previous  scoring.Readiness `json:"previous"`
	Target    scoring.Readiness `json:"target"`
	Trend     Direction         `json:"trend"`
	Synthetic bool              `json:"synthetic"`
}

// ExecutiveKPIs are the headline metrics.
type ExecutiveKPIs struct {
	DQI             KPI          `json:"dqi"`
	CleanPatients   KPI          `json:"cleanPatients"`
	SitesAtRisk     KPI          `json:"sitesAtRisk"`
	OpenSAEs        KPI          `json:"openSAEs"`
	ReadinessStatus ReadinessKPI `json:"readinessStatus"`
	QueryResolution KPI          `json:"queryResolution"`
}

// CriterionStatus is the outcome of one readiness criterion.
type CriterionStatus string

const (
	CriterionPass CriterionStatus = "pass"
	CriterionFail CriterionStatus = "fail"
)

// Criterion is one line of the readiness checklist.
type Criterion struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Threshold string          `json:"threshold"`
	Current   float64         `json:"current"`
	Status    CriterionStatus `json:"status"`
	Source    string          `json:"source"`
}

// RegionView is a scored region with its countries.
type RegionView struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	DQI            int            `json:"dqi"`
	CleanPercent   int            `json:"cleanPercent"`
	Status         scoring.Status `json:"status"`
	ResolutionRate float64        `json:"resolutionRate"`
	Patients       int            `json:"patients"`
	TotalSites     int            `json:"totalSites"`
	TotalQueries   int            `json:"totalQueries"`
	OpenQueries    int            `json:"openQueries"`
	Countries      []CountryView  `json:"countries"`
}

// CountryView is a scored country.
type CountryView struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	DQI            int            `json:"dqi"`
	CleanPercent   int            `json:"cleanPercent"`
	Status         scoring.Status `json:"status"`
	ResolutionRate float64        `json:"resolutionRate"`
	Patients       int            `json:"patients"`
	Sites          int            `json:"sites"`
	TotalQueries   int            `json:"totalQueries"`
	OpenQueries    int            `json:"openQueries"`
}

// SiteView is a scored site as shown in the ranking lists.
type SiteView struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Region         string         `json:"region"`
	Country        string         `json:"country"`
	DQI            int            `json:"dqi"`
	CleanPercent   int            `json:"cleanPercent"`
	Status         scoring.Status `json:"status"`
	ResolutionRate float64        `json:"resolutionRate"`
	Patients       int            `json:"patients"`
	TotalQueries   int            `json:"totalQueries"`
	OpenQueries    int            `json:"openQueries"`
}

// PatientRow summarizes patient cleanliness at one site.
type PatientRow struct {
	SiteID        string         `json:"siteId"`
	Region        string         `json:"region"`
	Country       string         `json:"country"`
	Patients      int            `json:"patients"`
	CleanPatients int            `json:"cleanPatients"`
	OpenQueries   int            `json:"openQueries"`
	Status        scoring.Status `json:"status"`
}

// SAERow is one line of the safety event summary.
type SAERow struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
	Source string `json:"source"`
}

// Bottleneck is the outstanding work in one counter category.
type Bottleneck struct {
	Outstanding int    `json:"outstanding"`
	Total       int    `json:"total"`
	Overdue     int    `json:"overdue"`
	Source      string `json:"source"`
}

// QueryAging buckets open queries by age.
type QueryAging struct {
	Days0To7   int `json:"0-7 days"`
	Days8To14  int `json:"8-14 days"`
	Days15To30 int `json:"15-30 days"`
	Over30     int `json:">30 days"`
}

// Bottlenecks groups outstanding work by category.
type Bottlenecks struct {
	Queries     Bottleneck `json:"queries"`
	QueryAging  QueryAging `json:"queryAging"`
	Visits      Bottleneck `json:"visits"`
	Lab         Bottleneck `json:"lab"`
	Coding      Bottleneck `json:"coding"`
	SDV         Bottleneck `json:"sdv"`
	Signatures  Bottleneck `json:"signatures"`
	Pages       Bottleneck `json:"pages"`
	EDRR        Bottleneck `json:"edrr"`
	Inactivated Bottleneck `json:"inactivated"`
}

// Source values for Provenance.Source.
const (
	SourceLive     = "live"
	SourceBaseline = "baseline"
)

// Provenance records how and from what a model was built.
type Provenance struct {
	GeneratedAt         string                   `json:"generatedAt"`
	RefreshID           string                   `json:"refreshId"`
	Source              string                   `json:"source"`
	SourceError         string                   `json:"sourceError,omitempty"`
	LastUpdated         string                   `json:"lastUpdated"`
	DataSource          string                   `json:"dataSource"`
	GovernanceStatement string                   `json:"governanceStatement"`
	Profile             string                   `json:"profile"`
	Ladder              scoring.Ladder           `json:"ladder"`
	RankingPolicy       string                   `json:"rankingPolicy"`
	ReportedDQI         float64                  `json:"reportedDQI"`
	ExtractionStats     snapshot.ExtractionStats `json:"extractionStats"`
}
