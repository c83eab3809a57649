package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/trialscope/trialscope/pkg/dashboard"
	"github.com/trialscope/trialscope/pkg/scoring"
)

// TerminalRenderer renders a dashboard model as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func readinessColor(r scoring.Readiness) string {
	switch r {
	case scoring.ReadinessReady:
		return colorGreen
	case scoring.ReadinessAtRisk:
		return colorYellow
	default:
		return colorRed
	}
}

func statusColor(s scoring.Status) string {
	switch s {
	case scoring.StatusHealthy:
		return colorGreen
	case scoring.StatusAtRisk:
		return colorYellow
	default:
		return colorRed
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, model *dashboard.Model) error {
	k := model.ExecutiveKPIs
	status := k.ReadinessStatus.Current

	// Header
	fmt.Fprintf(w, "%s\n",
		bold(fmt.Sprintf("Trialscope: DQI %.0f | Readiness %s",
			k.DQI.Current, colored(string(status), readinessColor(status)))))
	fmt.Fprintf(w, "%s\n\n", dim(fmt.Sprintf("profile %s, ladder %s (%d open SAEs / %.0f%% resolution)",
		model.Provenance.Profile, model.Provenance.Ladder.Name,
		model.Provenance.Ladder.OpenSAECeiling, model.Provenance.Ladder.ResolutionFloor)))

	// KPIs
	fmt.Fprintln(w, "KPIs:")
	for _, kpi := range []dashboard.KPI{k.DQI, k.QueryResolution, k.CleanPatients, k.OpenSAEs, k.SitesAtRisk} {
		prev := "prev " + formatValue(kpi.Previous, kpi.Unit)
		if kpi.Synthetic {
			prev = "no history"
		}
		fmt.Fprintf(w, "  %-18s %8s  %s %s\n",
			kpi.Label, formatValue(kpi.Current, kpi.Unit), arrow(kpi.Trend), dim(prev))
	}
	fmt.Fprintln(w)

	// DQI breakdown
	fmt.Fprintln(w, "DQI breakdown:")
	for _, c := range model.DQIBreakdown.Breakdown {
		line := fmt.Sprintf("  (%5.1f) %s", c.Contribution, c.Name)
		if c.Defaulted {
			line += dim(" (no data, counted as resolved)")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	// Readiness checklist
	fmt.Fprintln(w, "Readiness criteria:")
	for _, c := range model.ReadinessCriteria {
		mark := colored("✓", colorGreen)
		if c.Status == dashboard.CriterionFail {
			mark = colored("✗", colorRed)
		}
		fmt.Fprintf(w, "  %s %s %s\n", mark, c.Label, dim("("+c.Threshold+")"))
	}
	fmt.Fprintln(w)

	// Sites
	if len(model.BottomSites) > 0 {
		fmt.Fprintln(w, "Lowest-scoring sites:")
		for _, s := range model.BottomSites {
			fmt.Fprintf(w, "  %s %-10s %3d  %s\n",
				colored("●", statusColor(s.Status)), s.ID, s.DQI, dim(s.Country+", "+s.Region))
		}
		fmt.Fprintln(w)
	}

	// Insights
	if len(model.AIInsights) > 0 {
		fmt.Fprintln(w, "Insights:")
		for _, in := range model.AIInsights {
			fmt.Fprintf(w, "  [%s] %s\n", strings.ToUpper(string(in.Priority)), bold(in.Title))
			for _, line := range wrapText(in.Message, 70) {
				fmt.Fprintf(w, "    %s\n", dim(line))
			}
		}
		fmt.Fprintln(w)
	}

	// Recommendations
	if len(model.AgentRecommendations) > 0 {
		fmt.Fprintln(w, "Recommended actions:")
		for _, rec := range model.AgentRecommendations {
			fmt.Fprintf(w, "  • %s %s: %s %s\n", rec.Priority, rec.Role, rec.Action, dim("by "+rec.Deadline))
		}
		fmt.Fprintln(w)
	}

	if model.Provenance.Source == dashboard.SourceBaseline {
		fmt.Fprintf(w, "%s\n", colored("Showing baseline data: "+model.Provenance.SourceError, colorYellow))
	}
	return nil
}

func arrow(d dashboard.Direction) string {
	switch d {
	case dashboard.DirectionUp:
		return "↑"
	case dashboard.DirectionDown:
		return "↓"
	default:
		return "→"
	}
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
