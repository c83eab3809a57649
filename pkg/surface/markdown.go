package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/trialscope/trialscope/pkg/dashboard"
	"github.com/trialscope/trialscope/pkg/narrative"
	"github.com/trialscope/trialscope/pkg/scoring"
)

// MarkdownRenderer writes a Markdown status report.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, model *dashboard.Model) error {
	report := r.BuildReport(model)
	_, err := fmt.Fprintf(w, "%s\n", report.Summary)
	return err
}

// BuildReport creates the Report for a model.
func (r *MarkdownRenderer) BuildReport(model *dashboard.Model) Report {
	k := model.ExecutiveKPIs
	return Report{
		Title:      fmt.Sprintf("DQI %.0f, readiness %s", k.DQI.Current, k.ReadinessStatus.Current),
		Summary:    buildMarkdownSummary(model),
		Conclusion: readinessToConclusion(k.ReadinessStatus.Current),
	}
}

func readinessToConclusion(r scoring.Readiness) string {
	switch r {
	case scoring.ReadinessReady:
		return "success"
	case scoring.ReadinessAtRisk:
		return "neutral"
	default:
		return "failure"
	}
}

func buildMarkdownSummary(model *dashboard.Model) string {
	var sb strings.Builder
	k := model.ExecutiveKPIs

	fmt.Fprintf(&sb, "## Study status: %s (DQI %.0f)\n\n", k.ReadinessStatus.Current, k.DQI.Current)

	sb.WriteString("### Headline KPIs\n\n")
	sb.WriteString("| KPI | Current | Previous | Target |\n|-----|---------|----------|--------|\n")
	for _, kpi := range []dashboard.KPI{k.DQI, k.QueryResolution, k.CleanPatients, k.OpenSAEs, k.SitesAtRisk} {
		prev := formatValue(kpi.Previous, kpi.Unit)
		if kpi.Synthetic {
			prev = "n/a"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			kpi.Label, formatValue(kpi.Current, kpi.Unit), prev, formatValue(kpi.Target, kpi.Unit))
	}
	sb.WriteString("\n")

	sb.WriteString("### Readiness criteria\n\n")
	for _, c := range model.ReadinessCriteria {
		icon := ":white_check_mark:"
		if c.Status == dashboard.CriterionFail {
			icon = ":x:"
		}
		fmt.Fprintf(&sb, "- %s **%s** (%s): %g\n", icon, c.Label, c.Threshold, c.Current)
	}
	sb.WriteString("\n")

	if len(model.AIInsights) > 0 {
		sb.WriteString("### Insights\n\n")
		for i, in := range model.AIInsights {
			if i >= 5 {
				fmt.Fprintf(&sb, "_... and %d more insights_\n", len(model.AIInsights)-5)
				break
			}
			fmt.Fprintf(&sb, "- %s **%s**: %s _(%s)_\n", priorityIcon(in.Priority), in.Title, in.Message, in.Source)
		}
		sb.WriteString("\n")
	}

	if len(model.AgentRecommendations) > 0 {
		sb.WriteString("### Recommendations\n\n")
		for _, rec := range model.AgentRecommendations {
			fmt.Fprintf(&sb, "- **[%s] %s** %s (by %s)\n", rec.Priority, rec.Role, rec.Action, rec.Deadline)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "_Generated %s from %s data", model.Provenance.GeneratedAt, model.Provenance.Source)
	if model.Provenance.DataSource != "" {
		fmt.Fprintf(&sb, " (%s)", model.Provenance.DataSource)
	}
	sb.WriteString("._\n")
	return sb.String()
}

func priorityIcon(p narrative.Priority) string {
	switch p {
	case narrative.PriorityCritical:
		return ":red_circle:"
	case narrative.PriorityHigh:
		return ":orange_circle:"
	case narrative.PriorityMedium:
		return ":yellow_circle:"
	default:
		return ":blue_circle:"
	}
}

func formatValue(v float64, unit string) string {
	if unit == "%" {
		return fmt.Sprintf("%.1f%%", v)
	}
	return fmt.Sprintf("%g", v)
}
