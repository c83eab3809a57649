package narrative

import (
	"time"

	"github.com/trialscope/trialscope/pkg/scoring"
)

// Priority tiers an insight.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Insight is a templated risk summary for one counter category.
type Insight struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Source      string   `json:"source"`
	GeneratedAt string   `json:"generatedAt"`
}

// InsightRule is one row of the insight table.
type InsightRule struct {
	ID       string
	Category string
	Title    string
	Source   string
	When     Condition
	Priority Priority
	Escalate *Escalation
	Message  Template
}

// InsightGenerator evaluates an insight table.
type InsightGenerator struct {
	Rules []InsightRule
}

// NewInsightGenerator returns a generator over the default table.
func NewInsightGenerator() *InsightGenerator {
	return &InsightGenerator{Rules: DefaultInsightRules()}
}

// Generate emits one insight per matching rule, in table order.
func (g *InsightGenerator) Generate(f *Facts, now time.Time) []Insight {
	out := []Insight{}
	for _, r := range g.Rules {
		if r.When != nil && !r.When(f) {
			continue
		}
		priority := r.Priority
		if r.Escalate != nil && r.Escalate.applies(f) {
			priority = r.Escalate.To
		}
		out = append(out, Insight{
			ID:          r.ID,
			Category:    r.Category,
			Priority:    priority,
			Title:       r.Title,
			Message:     r.Message.Render(f),
			Source:      r.Source,
			GeneratedAt: timestamp(now),
		})
	}
	return out
}

// DefaultInsightRules returns the built-in insight table.
func DefaultInsightRules() []InsightRule {
	return []InsightRule{
		{
			ID:       "readiness",
			Category: "readiness",
			Title:    "Database lock readiness",
			Source:   "Composite quality index",
			When:     func(f *Facts) bool { return f.Readiness != scoring.ReadinessReady },
			Priority: PriorityHigh,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return float64(f.Readiness.Level()) },
				Threshold: 1,
				Below:     true,
				To:        PriorityCritical,
			},
			Message: Template{
				Format: "Study is %s for database lock: DQI %d, %d open SAEs, %.1f%% of queries resolved.",
				Args: func(f *Facts) []any {
					return []any{f.Readiness, f.DQI, f.Snapshot.SAEs.Open, f.QueryResolution}
				},
			},
		},
		{
			ID:       "safety",
			Category: "safety",
			Title:    "Open serious adverse events",
			Source:   scoring.SourceSAE,
			When:     func(f *Facts) bool { return f.Snapshot.SAEs.Open > 0 },
			Priority: PriorityHigh,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return float64(f.Snapshot.SAEs.Open) },
				Threshold: 100,
				To:        PriorityCritical,
			},
			Message: Template{
				Format: "%d of %d SAEs remain open, affecting %d patients at %d sites. Each needs safety review before lock.",
				Args: func(f *Facts) []any {
					s := f.Snapshot.SAEs
					return []any{s.Open, s.Total, s.PatientsWithOpenSAE, s.SitesWithOpenSAE}
				},
			},
		},
		{
			ID:       "queries",
			Category: "queries",
			Title:    "Query backlog",
			Source:   scoring.SourceQueries,
			When:     func(f *Facts) bool { return f.Snapshot.Queries.Open > 0 },
			Priority: PriorityMedium,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return f.QueryResolution },
				Threshold: 90,
				Below:     true,
				To:        PriorityHigh,
			},
			Message: Template{
				Format: "%d of %d queries are open (%.1f%% resolved); %d have been open more than 30 days.",
				Args: func(f *Facts) []any {
					q := f.Snapshot.Queries
					return []any{q.Open, q.Total, f.QueryResolution, q.Aging.Over30}
				},
			},
		},
		{
			ID:       "visits",
			Category: "visits",
			Title:    "Missing and overdue visits",
			Source:   scoring.SourceVisits,
			When:     func(f *Facts) bool { return f.Snapshot.Visits.TotalMissing > 0 },
			Priority: PriorityMedium,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return float64(f.Snapshot.Visits.Overdue30Days) },
				Threshold: 50,
				To:        PriorityHigh,
			},
			Message: Template{
				Format: "%d visits are missing, %d of them overdue by more than 30 days.",
				Args: func(f *Facts) []any {
					v := f.Snapshot.Visits
					return []any{v.TotalMissing, v.Overdue30Days}
				},
			},
		},
		{
			ID:       "pages",
			Category: "pages",
			Title:    "Missing CRF pages",
			Source:   scoring.SourcePages,
			When:     func(f *Facts) bool { return f.Snapshot.Pages.TotalMissing > 0 },
			Priority: PriorityMedium,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return float64(f.Snapshot.Pages.TotalMissing) },
				Threshold: 100,
				To:        PriorityHigh,
			},
			Message: Template{
				Format: "%d expected CRF pages have not been entered.",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.Pages.TotalMissing} },
			},
		},
		{
			ID:       "lab",
			Category: "lab",
			Title:    "Lab data issues",
			Source:   scoring.SourceLab,
			When:     func(f *Facts) bool { return f.Snapshot.Lab.TotalIssues > 0 },
			Priority: PriorityMedium,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return float64(f.Snapshot.Lab.TotalIssues) },
				Threshold: 100,
				To:        PriorityHigh,
			},
			Message: Template{
				Format: "%d lab records are missing a lab name or reference range.",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.Lab.TotalIssues} },
			},
		},
		{
			ID:       "coding",
			Category: "coding",
			Title:    "Uncoded terms",
			Source:   scoring.SourceCoding,
			When:     func(f *Facts) bool { return f.Snapshot.Coding.TotalUncoded > 0 },
			Priority: PriorityMedium,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return float64(f.Snapshot.Coding.TotalUncoded) },
				Threshold: 100,
				To:        PriorityHigh,
			},
			Message: Template{
				Format: "%d terms await coding: %d MedDRA, %d WHO-DD.",
				Args: func(f *Facts) []any {
					c := f.Snapshot.Coding
					return []any{c.TotalUncoded, c.MedDRA.Uncoded, c.WHODD.Uncoded}
				},
			},
		},
		{
			ID:       "sdv",
			Category: "sdv",
			Title:    "Source data verification lag",
			Source:   scoring.SourceSDV,
			When:     func(f *Facts) bool { return f.Snapshot.SDV.Pending > 0 },
			Priority: PriorityMedium,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return f.SDVRate },
				Threshold: 80,
				Below:     true,
				To:        PriorityHigh,
			},
			Message: Template{
				Format: "%.1f%% of %d CRFs are source-verified; %d are pending.",
				Args: func(f *Facts) []any {
					return []any{f.SDVRate, f.Snapshot.SDV.Total, f.Snapshot.SDV.Pending}
				},
			},
		},
		{
			ID:       "signatures",
			Category: "signatures",
			Title:    "Overdue investigator signatures",
			Source:   scoring.SourceSignatures,
			When:     func(f *Facts) bool { return f.Snapshot.Signatures.Overdue > 0 },
			Priority: PriorityMedium,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return float64(f.Snapshot.Signatures.Overdue) },
				Threshold: 25,
				To:        PriorityHigh,
			},
			Message: Template{
				Format: "%d of %d pending investigator signatures are overdue.",
				Args: func(f *Facts) []any {
					s := f.Snapshot.Signatures
					return []any{s.Overdue, s.Pending}
				},
			},
		},
		{
			ID:       "edrr",
			Category: "reconciliation",
			Title:    "Open reconciliation issues",
			Source:   scoring.SourceEDRR,
			When:     func(f *Facts) bool { return f.Snapshot.EDRR.OpenIssues > 0 },
			Priority: PriorityLow,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return float64(f.Snapshot.EDRR.OpenIssues) },
				Threshold: 50,
				To:        PriorityMedium,
			},
			Message: Template{
				Format: "%d third-party data reconciliation issues are open.",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.EDRR.OpenIssues} },
			},
		},
		{
			ID:       "critical-sites",
			Category: "sites",
			Title:    "Critical sites",
			Source:   scoring.SourceHierarchy,
			When:     func(f *Facts) bool { return len(f.CriticalSites) > 0 },
			Priority: PriorityHigh,
			Escalate: &Escalation{
				Metric:    func(f *Facts) float64 { return float64(len(f.CriticalSites)) },
				Threshold: 3,
				To:        PriorityCritical,
			},
			Message: Template{
				Format: "%d sites score below %d. Lowest is site %s (%s, %s) at %d with %d of %d queries open.",
				Args: func(f *Facts) []any {
					w, _ := f.WorstSite()
					return []any{len(f.CriticalSites), scoring.AtRiskThreshold, w.ID, w.Country, w.Region, w.Score, w.OpenQueries, w.TotalQueries}
				},
			},
		},
	}
}
