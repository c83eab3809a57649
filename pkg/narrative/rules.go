// Package narrative turns counters into insight and recommendation text.
//
// Both generators evaluate a rule table in declaration order: each rule has
// a condition, a priority, a message template and a source attribution.
// Rules are data; adding one never touches the evaluation loop. Output is a
// pure function of the facts and the supplied generation time.
package narrative

import (
	"fmt"
	"time"

	"github.com/trialscope/trialscope/pkg/hierarchy"
	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

// Facts are the inputs every rule may read: the normalized snapshot plus
// the scores computed from it.
type Facts struct {
	Snapshot        *snapshot.Snapshot
	DQI             int
	QueryResolution float64
	SDVRate         float64
	Readiness       scoring.Readiness
	SitesAtRisk     int
	// CriticalSites lists critical sites worst first.
	CriticalSites []hierarchy.Site
}

// WorstSite returns the lowest-ranked critical site.
func (f *Facts) WorstSite() (hierarchy.Site, bool) {
	if len(f.CriticalSites) == 0 {
		return hierarchy.Site{}, false
	}
	return f.CriticalSites[0], true
}

// Condition guards a rule.
type Condition func(f *Facts) bool

// Template is a printf format with its arguments drawn from the facts.
type Template struct {
	Format string
	Args   func(f *Facts) []any
}

// Render fills the template.
func (t Template) Render(f *Facts) string {
	if t.Args == nil {
		return t.Format
	}
	return fmt.Sprintf(t.Format, t.Args(f)...)
}

// Escalation raises a rule's priority when a metric crosses a breakpoint.
type Escalation struct {
	Metric    func(f *Facts) float64
	Threshold float64
	// Below escalates when the metric is under Threshold instead of over it.
	Below bool
	To    Priority
}

func (e *Escalation) applies(f *Facts) bool {
	v := e.Metric(f)
	if e.Below {
		return v < e.Threshold
	}
	return v > e.Threshold
}

// DateLayout is the wire format of recommendation deadlines.
const DateLayout = snapshot.DateLayout

func timestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}
