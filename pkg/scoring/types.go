// Package scoring implements the study data-quality scoring engine.
// It turns counter snapshots into explainable, weight-backed scores: the
// composite quality index (DQI), per-entity proxy scores and the readiness
// verdict. Every number is reproducible from the documented arithmetic.
package scoring

// CompositeResult is the output of scoring a snapshot with one weight profile.
// Immutable once computed.
type CompositeResult struct {
	Score     int         `json:"score"`   // 0-100
	Profile   string      `json:"profile"` // weight profile name
	Breakdown []Component `json:"breakdown"`
}

// Component is a single weighted factor's contribution to a composite score.
type Component struct {
	Key          string  `json:"key"`          // machine key: "safety_resolution"
	Name         string  `json:"name"`         // human name: "Safety resolution"
	Weight       float64 `json:"weight"`       // 0.0-1.0
	Ratio        float64 `json:"ratio"`        // 0.0-1.0
	Contribution float64 `json:"contribution"` // Weight * Ratio * 100
	Source       string  `json:"source"`       // counter category the ratio reads
	// Defaulted is true when the category had no data and the ratio fell
	// back to fully resolved.
	Defaulted bool `json:"defaulted"`
}

// Status is the health tier of a scored entity (site, country, region, study).
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusAtRisk   Status = "at-risk"
	StatusCritical Status = "critical"
)

// Readiness is the study-level readiness verdict.
type Readiness string

const (
	ReadinessReady    Readiness = "ready"
	ReadinessAtRisk   Readiness = "at-risk"
	ReadinessNotReady Readiness = "not-ready"
)

// Level orders readiness verdicts: ready=2, at-risk=1, not-ready=0.
func (r Readiness) Level() int {
	switch r {
	case ReadinessReady:
		return 2
	case ReadinessAtRisk:
		return 1
	default:
		return 0
	}
}

// EntityScore is the proxy score of a node in the site hierarchy.
type EntityScore struct {
	ResolutionRate float64 `json:"resolutionRate"` // percentage
	Score          int     `json:"score"`
	CleanPercent   int     `json:"cleanPercent"`
	Status         Status  `json:"status"`
}

// StatusFromScore maps an entity score to its health tier. The same
// thresholds apply to sites, countries, regions and the study.
func StatusFromScore(score int) Status {
	switch {
	case score >= HealthyThreshold:
		return StatusHealthy
	case score >= AtRiskThreshold:
		return StatusAtRisk
	default:
		return StatusCritical
	}
}
