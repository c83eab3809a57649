package narrative

import (
	"time"

	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

// Role is the team an action item is assigned to.
type Role string

const (
	RoleCRA    Role = "CRA"
	RoleSafety Role = "Safety"
	RoleDQT    Role = "DQT"
	RoleSite   Role = "Site"
)

// ActionPriority tiers a recommendation.
type ActionPriority string

const (
	ActionCritical ActionPriority = "CRITICAL"
	ActionHigh     ActionPriority = "HIGH"
	ActionMedium   ActionPriority = "MEDIUM"
)

// Recommendation is a role-tagged action item with a deadline.
type Recommendation struct {
	ID              string         `json:"id"`
	Role            Role           `json:"role"`
	Priority        ActionPriority `json:"priority"`
	Action          string         `json:"action"`
	Deadline        string         `json:"deadline"`
	EstimatedImpact string         `json:"estimatedImpact"`
	Source          string         `json:"source"`
}

// RecommendationRule is one row of the recommendation table.
type RecommendationRule struct {
	ID           string
	Role         Role
	Priority     ActionPriority
	DeadlineDays int
	Source       string
	When         Condition
	Action       Template
	Impact       Template
}

// RecommendationGenerator evaluates a recommendation table. Items are
// emitted in table order, not sorted by priority.
type RecommendationGenerator struct {
	Rules []RecommendationRule
}

// NewRecommendationGenerator returns a generator over the default table.
func NewRecommendationGenerator() *RecommendationGenerator {
	return &RecommendationGenerator{Rules: DefaultRecommendationRules()}
}

// Generate emits one recommendation per matching rule. Deadlines are now
// plus the rule's offset, formatted as dates.
func (g *RecommendationGenerator) Generate(f *Facts, now time.Time) []Recommendation {
	out := []Recommendation{}
	for _, r := range g.Rules {
		if r.When != nil && !r.When(f) {
			continue
		}
		out = append(out, Recommendation{
			ID:              r.ID,
			Role:            r.Role,
			Priority:        r.Priority,
			Action:          r.Action.Render(f),
			Deadline:        now.UTC().AddDate(0, 0, r.DeadlineDays).Format(DateLayout),
			EstimatedImpact: r.Impact.Render(f),
			Source:          r.Source,
		})
	}
	return out
}

// DefaultRecommendationRules returns the built-in recommendation table.
func DefaultRecommendationRules() []RecommendationRule {
	return []RecommendationRule{
		{
			ID:           "safety-review",
			Role:         RoleSafety,
			Priority:     ActionCritical,
			DeadlineDays: 7,
			Source:       scoring.SourceSAE,
			When:         func(f *Facts) bool { return f.Snapshot.SAEs.Open > 0 },
			Action: Template{
				Format: "Complete safety review and reconciliation of %d open SAEs across %d patients",
				Args: func(f *Facts) []any {
					return []any{f.Snapshot.SAEs.Open, f.Snapshot.SAEs.PatientsWithOpenSAE}
				},
			},
			Impact: Template{
				Format: "Clears %d open SAEs, a precondition for database lock",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.SAEs.Open} },
			},
		},
		{
			ID:           "aged-queries",
			Role:         RoleCRA,
			Priority:     ActionHigh,
			DeadlineDays: 14,
			Source:       scoring.SourceQueries,
			When:         func(f *Facts) bool { return f.Snapshot.Queries.Aging.Over30 > 0 },
			Action: Template{
				Format: "Escalate %d queries open more than 30 days with site staff",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.Queries.Aging.Over30} },
			},
			Impact: Template{
				Format: "Query resolution rises from %.1f%% to %.1f%%",
				Args: func(f *Facts) []any {
					q := f.Snapshot.Queries
					return []any{f.QueryResolution, snapshot.ResolutionPercent(q.Total, q.Open-q.Aging.Over30)}
				},
			},
		},
		{
			ID:           "overdue-visits",
			Role:         RoleSite,
			Priority:     ActionHigh,
			DeadlineDays: 14,
			Source:       scoring.SourceVisits,
			When:         func(f *Facts) bool { return f.Snapshot.Visits.Overdue30Days > 0 },
			Action: Template{
				Format: "Schedule or document %d visits overdue by more than 30 days",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.Visits.Overdue30Days} },
			},
			Impact: Template{
				Format: "Missing visits drop from %d to %d",
				Args: func(f *Facts) []any {
					v := f.Snapshot.Visits
					return []any{v.TotalMissing, v.TotalMissing - v.Overdue30Days}
				},
			},
		},
		{
			ID:           "lab-reconciliation",
			Role:         RoleDQT,
			Priority:     ActionHigh,
			DeadlineDays: 14,
			Source:       scoring.SourceLab,
			When:         func(f *Facts) bool { return f.Snapshot.Lab.TotalIssues > 0 },
			Action: Template{
				Format: "Reconcile %d lab records missing lab names or reference ranges",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.Lab.TotalIssues} },
			},
			Impact: Template{
				Format: "Clears %d lab issues from the lab/coding factor",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.Lab.TotalIssues} },
			},
		},
		{
			ID:           "coding-backlog",
			Role:         RoleDQT,
			Priority:     ActionMedium,
			DeadlineDays: 21,
			Source:       scoring.SourceCoding,
			When:         func(f *Facts) bool { return f.Snapshot.Coding.TotalUncoded > 0 },
			Action: Template{
				Format: "Code %d outstanding terms (%d MedDRA, %d WHO-DD)",
				Args: func(f *Facts) []any {
					c := f.Snapshot.Coding
					return []any{c.TotalUncoded, c.MedDRA.Uncoded, c.WHODD.Uncoded}
				},
			},
			Impact: Template{
				Format: "Coding completion rises from %.1f%% to 100.0%%",
				Args: func(f *Facts) []any {
					c := f.Snapshot.Coding
					return []any{snapshot.ResolutionPercent(c.MedDRA.Total+c.WHODD.Total, c.TotalUncoded)}
				},
			},
		},
		{
			ID:           "sdv-backlog",
			Role:         RoleCRA,
			Priority:     ActionMedium,
			DeadlineDays: 21,
			Source:       scoring.SourceSDV,
			When:         func(f *Facts) bool { return f.Snapshot.SDV.Pending > 0 },
			Action: Template{
				Format: "Plan monitoring visits to verify %d pending CRFs",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.SDV.Pending} },
			},
			Impact: Template{
				Format: "SDV rises from %.1f%% to 100.0%%",
				Args:   func(f *Facts) []any { return []any{f.SDVRate} },
			},
		},
		{
			ID:           "overdue-signatures",
			Role:         RoleSite,
			Priority:     ActionMedium,
			DeadlineDays: 14,
			Source:       scoring.SourceSignatures,
			When:         func(f *Facts) bool { return f.Snapshot.Signatures.Overdue > 0 },
			Action: Template{
				Format: "Obtain %d overdue investigator signatures",
				Args:   func(f *Facts) []any { return []any{f.Snapshot.Signatures.Overdue} },
			},
			Impact: Template{
				Format: "Pending signatures drop from %d to %d",
				Args: func(f *Facts) []any {
					s := f.Snapshot.Signatures
					return []any{s.Pending, max(0, s.Pending-s.Overdue)}
				},
			},
		},
		{
			ID:           "critical-site-visit",
			Role:         RoleCRA,
			Priority:     ActionHigh,
			DeadlineDays: 7,
			Source:       scoring.SourceHierarchy,
			When:         func(f *Facts) bool { return len(f.CriticalSites) > 0 },
			Action: Template{
				Format: "Conduct a targeted monitoring visit at site %s (%s, %s)",
				Args: func(f *Facts) []any {
					w, _ := f.WorstSite()
					return []any{w.ID, w.Country, w.Region}
				},
			},
			Impact: Template{
				Format: "Site score %d with %d of %d queries open; reaching %d restores at-risk status",
				Args: func(f *Facts) []any {
					w, _ := f.WorstSite()
					return []any{w.Score, w.OpenQueries, w.TotalQueries, scoring.AtRiskThreshold}
				},
			},
		},
	}
}
