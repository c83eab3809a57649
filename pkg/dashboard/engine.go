package dashboard

import (
	"fmt"
	"math"
	"time"

	"github.com/trialscope/trialscope/pkg/hierarchy"
	"github.com/trialscope/trialscope/pkg/narrative"
	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/snapshot"
	"github.com/trialscope/trialscope/pkg/trend"
)

// Trend series names.
const (
	SeriesDQI             = "dqi"
	SeriesQueryResolution = "queryResolution"
	SeriesCleanPatients   = "cleanPatients"
	SeriesOpenSAEs        = "openSAEs"
	SeriesOpenQueries     = "openQueries"
	SeriesSitesAtRisk     = "sitesAtRisk"
)

// KPI targets.
const (
	TargetDQI             = 95
	TargetCleanPatients   = 90
	TargetQueryResolution = scoring.ReadyResolutionRate
	TargetSDV             = 95
)

// Options selects the scoring profile, readiness ladder, ranking policy and
// history window.
type Options struct {
	Profile       scoring.Profile
	Ladder        scoring.Ladder
	Ranking       hierarchy.Options
	HistoryLength int
	IntervalDays  int
}

// DefaultOptions returns the standard profile and ladder, overlap ranking
// and a seven-point weekly history.
func DefaultOptions() Options {
	return Options{
		Profile:       scoring.StandardProfile(),
		Ladder:        scoring.StandardLadder(),
		Ranking:       hierarchy.DefaultOptions(),
		HistoryLength: trend.DefaultHistoryLength,
		IntervalDays:  trend.DefaultIntervalDays,
	}
}

// Engine builds dashboard models. It holds no state between builds.
type Engine struct {
	opts            Options
	calculator      *scoring.Calculator
	insights        *narrative.InsightGenerator
	recommendations *narrative.RecommendationGenerator
}

// NewEngine creates an engine with the default rule tables.
func NewEngine(opts Options) *Engine {
	if len(opts.Profile.Factors) == 0 {
		opts.Profile = scoring.StandardProfile()
	}
	if opts.Ladder.Name == "" {
		opts.Ladder = scoring.StandardLadder()
	}
	return &Engine{
		opts:            opts,
		calculator:      scoring.NewCalculator(opts.Profile),
		insights:        narrative.NewInsightGenerator(),
		recommendations: narrative.NewRecommendationGenerator(),
	}
}

// Options returns the engine's configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// Build runs the full pipeline over one snapshot. The input is not
// modified. For a fixed snapshot and now, the result is identical on every
// call.
func (e *Engine) Build(snap *snapshot.Snapshot, now time.Time) *Model {
	s := snapshot.Normalize(snap)

	agg := hierarchy.Aggregate(s.Regions, e.opts.Ranking)
	dqi := e.calculator.Compute(s)
	queryResolution := s.QueryResolutionRate()
	sdvRate := s.SDVRate()
	cleanPatients := scoring.CleanPercent(queryResolution)
	sitesAtRisk := agg.SitesAtRisk()
	readiness := e.opts.Ladder.Classify(s.SAEs.Open, queryResolution)

	facts := &narrative.Facts{
		Snapshot:        s,
		DQI:             dqi.Score,
		QueryResolution: queryResolution,
		SDVRate:         sdvRate,
		Readiness:       readiness,
		SitesAtRisk:     sitesAtRisk,
		CriticalSites:   agg.CriticalSites(),
	}

	synth := trend.Synthesizer{
		HistoryLength: e.opts.HistoryLength,
		IntervalDays:  e.opts.IntervalDays,
		Now:           now,
	}
	trends := map[string]trend.Series{
		SeriesDQI:             synth.Synthesize(SeriesDQI, float64(dqi.Score), providedDQI(s), trend.Percent()),
		SeriesQueryResolution: synth.Synthesize(SeriesQueryResolution, queryResolution, s.Trends[SeriesQueryResolution], trend.Percent()),
		SeriesCleanPatients:   synth.Synthesize(SeriesCleanPatients, float64(cleanPatients), s.Trends[SeriesCleanPatients], trend.Percent()),
		SeriesOpenSAEs:        synth.Synthesize(SeriesOpenSAEs, float64(s.SAEs.Open), s.Trends[SeriesOpenSAEs], trend.Count()),
		SeriesOpenQueries:     synth.Synthesize(SeriesOpenQueries, float64(s.Queries.Open), s.Trends[SeriesOpenQueries], trend.Count()),
		SeriesSitesAtRisk:     synth.Synthesize(SeriesSitesAtRisk, float64(sitesAtRisk), s.Trends[SeriesSitesAtRisk], trend.Count()),
	}

	model := &Model{
		ExecutiveKPIs: ExecutiveKPIs{
			DQI:             kpi("Data Quality Index", float64(dqi.Score), trends[SeriesDQI], TargetDQI, "score"),
			CleanPatients:   kpi("Clean Patients", float64(cleanPatients), trends[SeriesCleanPatients], TargetCleanPatients, "%"),
			SitesAtRisk:     kpi("Sites at Risk", float64(sitesAtRisk), trends[SeriesSitesAtRisk], 0, "sites"),
			OpenSAEs:        kpi("Open SAEs", float64(s.SAEs.Open), trends[SeriesOpenSAEs], 0, "events"),
			QueryResolution: kpi("Query Resolution", queryResolution, trends[SeriesQueryResolution], TargetQueryResolution, "%"),
		},
		ReadinessCriteria:    readinessCriteria(s, queryResolution, sdvRate),
		Regions:              regionViews(agg.Regions),
		TopSites:             siteViews(agg.TopSites),
		BottomSites:          siteViews(agg.BottomSites),
		Patients:             patientRows(agg.Sites),
		Bottlenecks:          bottlenecks(s),
		SAEs:                 saeRows(s),
		AIInsights:           e.insights.Generate(facts, now),
		AgentRecommendations: e.recommendations.Generate(facts, now),
		Trends:               trends,
		DQIBreakdown:         dqi,
		Provenance: Provenance{
			GeneratedAt:         now.UTC().Format(time.RFC3339),
			Source:              SourceLive,
			LastUpdated:         s.LastUpdated,
			DataSource:          s.DataSource,
			GovernanceStatement: s.GovernanceStatement,
			Profile:             e.opts.Profile.Name,
			Ladder:              e.opts.Ladder,
			RankingPolicy:       string(rankingPolicy(e.opts.Ranking)),
			ReportedDQI:         s.CurrentDQI,
			ExtractionStats:     s.ExtractionStats,
		},
	}

	model.ExecutiveKPIs.ReadinessStatus = e.readinessKPI(readiness, trends[SeriesOpenSAEs], trends[SeriesQueryResolution])
	return model
}

// readinessKPI reclassifies the previous interval from the open-SAE and
// query-resolution series. A synthetic input series yields no previous verdict.
func (e *Engine) readinessKPI(current scoring.Readiness, saes, resolution trend.Series) ReadinessKPI {
	k := ReadinessKPI{
		Label:    "Readiness Status",
		Current:  current,
		Previous: current,
		Target:   scoring.ReadinessReady,
		Trend:    DirectionFlat,
	}
	if saes.Synthetic || resolution.Synthetic {
		k.Synthetic = true
		return k
	}
	k.Previous = e.opts.Ladder.Classify(int(math.Round(saes.Previous())), resolution.Previous())
	k.Trend = direction(float64(current.Level()), float64(k.Previous.Level()))
	return k
}

// providedDQI prefers the named "dqi" series over the legacy dqiTrend field.
func providedDQI(s *snapshot.Snapshot) []snapshot.Point {
	if series, ok := s.Trends[SeriesDQI]; ok && len(series) > 0 {
		return series
	}
	return s.DQITrend
}

func rankingPolicy(opts hierarchy.Options) hierarchy.Policy {
	if opts.Policy == "" {
		return hierarchy.PolicyOverlap
	}
	return opts.Policy
}

func kpi(label string, current float64, series trend.Series, target float64, unit string) KPI {
	k := KPI{
		Label:    label,
		Current:  current,
		Previous: current,
		Target:   target,
		Unit:     unit,
		Trend:    DirectionFlat,
	}
	if series.Synthetic {
		k.Synthetic = true
		return k
	}
	k.Previous = series.Previous()
	k.Trend = direction(current, k.Previous)
	return k
}

func direction(current, previous float64) Direction {
	switch {
	case current > previous:
		return DirectionUp
	case current < previous:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

func readinessCriteria(s *snapshot.Snapshot, queryResolution, sdvRate float64) []Criterion {
	return []Criterion{
		criterion("open-saes", "No open SAEs", "= 0", float64(s.SAEs.Open), s.SAEs.Open == 0, scoring.SourceSAE),
		criterion("query-resolution", "Query resolution",
			fmt.Sprintf(">= %g%%", scoring.ReadyResolutionRate), queryResolution,
			queryResolution >= scoring.ReadyResolutionRate, scoring.SourceQueries),
		criterion("sdv", "Source data verification",
			fmt.Sprintf(">= %d%%", TargetSDV), sdvRate, sdvRate >= TargetSDV, scoring.SourceSDV),
		criterion("overdue-visits", "No visits overdue 30+ days", "= 0",
			float64(s.Visits.Overdue30Days), s.Visits.Overdue30Days == 0, scoring.SourceVisits),
		criterion("uncoded-terms", "All terms coded", "= 0",
			float64(s.Coding.TotalUncoded), s.Coding.TotalUncoded == 0, scoring.SourceCoding),
		criterion("overdue-signatures", "No overdue PI signatures", "= 0",
			float64(s.Signatures.Overdue), s.Signatures.Overdue == 0, scoring.SourceSignatures),
	}
}

func criterion(id, label, threshold string, current float64, pass bool, source string) Criterion {
	status := CriterionFail
	if pass {
		status = CriterionPass
	}
	return Criterion{
		ID:        id,
		Label:     label,
		Threshold: threshold,
		Current:   current,
		Status:    status,
		Source:    source,
	}
}

func regionViews(regions []hierarchy.Region) []RegionView {
	out := make([]RegionView, 0, len(regions))
	for _, r := range regions {
		view := RegionView{
			ID:             r.ID,
			Name:           r.Name,
			DQI:            r.Score,
			CleanPercent:   r.CleanPercent,
			Status:         r.Status,
			ResolutionRate: round1(r.ResolutionRate),
			Patients:       r.Patients,
			TotalSites:     r.TotalSites,
			TotalQueries:   r.TotalQueries,
			OpenQueries:    r.OpenQueries,
			Countries:      make([]CountryView, 0, len(r.Countries)),
		}
		for _, c := range r.Countries {
			view.Countries = append(view.Countries, CountryView{
				ID:             c.Code,
				Name:           c.Code,
				DQI:            c.Score,
				CleanPercent:   c.CleanPercent,
				Status:         c.Status,
				ResolutionRate: round1(c.ResolutionRate),
				Patients:       c.Patients,
				Sites:          c.TotalSites,
				TotalQueries:   c.TotalQueries,
				OpenQueries:    c.OpenQueries,
			})
		}
		out = append(out, view)
	}
	return out
}

func siteViews(sites []hierarchy.Site) []SiteView {
	out := make([]SiteView, 0, len(sites))
	for _, s := range sites {
		out = append(out, SiteView{
			ID:             s.ID,
			Name:           "Site " + s.ID,
			Region:         s.Region,
			Country:        s.Country,
			DQI:            s.Score,
			CleanPercent:   s.CleanPercent,
			Status:         s.Status,
			ResolutionRate: round1(s.ResolutionRate),
			Patients:       s.Patients,
			TotalQueries:   s.TotalQueries,
			OpenQueries:    s.OpenQueries,
		})
	}
	return out
}

func patientRows(sites []hierarchy.Site) []PatientRow {
	out := make([]PatientRow, 0, len(sites))
	for _, s := range sites {
		out = append(out, PatientRow{
			SiteID:        s.ID,
			Region:        s.Region,
			Country:       s.Country,
			Patients:      s.Patients,
			CleanPatients: int(math.Round(float64(s.Patients) * float64(s.CleanPercent) / 100)),
			OpenQueries:   s.OpenQueries,
			Status:        s.Status,
		})
	}
	return out
}

func saeRows(s *snapshot.Snapshot) []SAERow {
	return []SAERow{
		{ID: "total", Label: "Total SAEs", Count: s.SAEs.Total, Source: scoring.SourceSAE},
		{ID: "open", Label: "Open SAEs", Count: s.SAEs.Open, Source: scoring.SourceSAE},
		{ID: "closed", Label: "Closed SAEs", Count: s.SAEs.Total - s.SAEs.Open, Source: scoring.SourceSAE},
		{ID: "patients", Label: "Patients with open SAE", Count: s.SAEs.PatientsWithOpenSAE, Source: scoring.SourceSAE},
		{ID: "sites", Label: "Sites with open SAE", Count: s.SAEs.SitesWithOpenSAE, Source: scoring.SourceSAE},
	}
}

func bottlenecks(s *snapshot.Snapshot) Bottlenecks {
	return Bottlenecks{
		Queries: Bottleneck{
			Outstanding: s.Queries.Open,
			Total:       s.Queries.Total,
			Overdue:     s.Queries.Aging.Over30,
			Source:      scoring.SourceQueries,
		},
		QueryAging: QueryAging{
			Days0To7:   s.Queries.Aging.Days0To7,
			Days8To14:  s.Queries.Aging.Days8To14,
			Days15To30: s.Queries.Aging.Days15To30,
			Over30:     s.Queries.Aging.Over30,
		},
		Visits: Bottleneck{
			Outstanding: s.Visits.TotalMissing,
			Overdue:     s.Visits.Overdue30Days,
			Source:      scoring.SourceVisits,
		},
		Lab: Bottleneck{Outstanding: s.Lab.TotalIssues, Source: scoring.SourceLab},
		Coding: Bottleneck{
			Outstanding: s.Coding.TotalUncoded,
			Total:       s.Coding.MedDRA.Total + s.Coding.WHODD.Total,
			Source:      scoring.SourceCoding,
		},
		SDV: Bottleneck{
			Outstanding: s.SDV.Pending,
			Total:       s.SDV.Total,
			Source:      scoring.SourceSDV,
		},
		Signatures: Bottleneck{
			Outstanding: s.Signatures.Pending,
			Overdue:     s.Signatures.Overdue,
			Source:      scoring.SourceSignatures,
		},
		Pages:       Bottleneck{Outstanding: s.Pages.TotalMissing, Source: scoring.SourcePages},
		EDRR:        Bottleneck{Outstanding: s.EDRR.OpenIssues, Source: scoring.SourceEDRR},
		Inactivated: Bottleneck{Outstanding: s.Inactivated.TotalForms, Source: "Inactivated Forms Report"},
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
