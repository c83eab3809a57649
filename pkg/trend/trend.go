// Package trend produces the fixed-length history series shown next to each
// headline metric. A supplied series is used as-is when it is usable;
// otherwise a deterministic linear ramp ending at the current value is
// generated and flagged synthetic on the series and on every point.
package trend

import (
	"math"
	"sort"
	"time"

	"github.com/trialscope/trialscope/pkg/snapshot"
)

// DateLayout is the wire format of point dates.
const DateLayout = snapshot.DateLayout

// Defaults for the history window and the synthetic ramp.
const (
	DefaultHistoryLength = 7
	DefaultIntervalDays  = 7
	DefaultStep          = 1.5
)

// Point is one dated value in a series.
type Point struct {
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	Synthetic bool    `json:"synthetic"`
}

// Series is an ordered history for one metric, oldest first.
type Series struct {
	Name      string  `json:"name"`
	Synthetic bool    `json:"synthetic"`
	Points    []Point `json:"points"`
}

// Current returns the newest value, or 0 for an empty series.
func (s Series) Current() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Value
}

// Previous returns the value one interval before the newest, falling back
// to the newest value when the series has a single point.
func (s Series) Previous() float64 {
	if len(s.Points) < 2 {
		return s.Current()
	}
	return s.Points[len(s.Points)-2].Value
}

// Shape describes how a metric's synthetic ramp is drawn.
type Shape struct {
	// Step is subtracted once per interval going back in time. A positive
	// step draws an improving metric where higher is better; use a
	// negative step for metrics where lower is better.
	Step float64
	// Min and Max clamp synthetic values. Ignored when Max <= Min.
	Min, Max float64
	// Integer rounds synthetic values to whole numbers instead of one decimal.
	Integer bool
}

// Percent is the shape of a 0-100 metric that improves upward.
func Percent() Shape {
	return Shape{Step: DefaultStep, Min: 0, Max: 100}
}

// Count is the shape of a non-negative counter that improves downward.
func Count() Shape {
	return Shape{Step: -DefaultStep, Min: 0, Max: math.MaxInt32, Integer: true}
}

// Synthesizer builds series of a fixed length ending at Now.
type Synthesizer struct {
	HistoryLength int
	IntervalDays  int
	Now           time.Time
}

// NewSynthesizer returns a synthesizer with the default window.
func NewSynthesizer(now time.Time) Synthesizer {
	return Synthesizer{
		HistoryLength: DefaultHistoryLength,
		IntervalDays:  DefaultIntervalDays,
		Now:           now,
	}
}

// Synthesize returns the series for one metric. A provided series is used
// when it holds at least HistoryLength points that are not all identical;
// the newest HistoryLength points are kept in date order. Anything else
// yields a synthetic ramp whose last point is exactly current.
func (s Synthesizer) Synthesize(name string, current float64, provided []snapshot.Point, shape Shape) Series {
	n := s.HistoryLength
	if n <= 0 {
		n = DefaultHistoryLength
	}

	if usable(provided, n) {
		return fromProvided(name, provided, n)
	}
	return s.ramp(name, current, n, shape)
}

func usable(provided []snapshot.Point, n int) bool {
	if len(provided) < n {
		return false
	}
	for _, p := range provided[1:] {
		if p.Value != provided[0].Value {
			return true
		}
	}
	return false
}

func fromProvided(name string, provided []snapshot.Point, n int) Series {
	sorted := make([]snapshot.Point, len(provided))
	copy(sorted, provided)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})
	sorted = sorted[len(sorted)-n:]

	series := Series{Name: name, Points: make([]Point, 0, n)}
	for _, p := range sorted {
		series.Points = append(series.Points, Point{Date: p.Date, Value: p.Value})
	}
	return series
}

func (s Synthesizer) ramp(name string, current float64, n int, shape Shape) Series {
	interval := s.IntervalDays
	if interval <= 0 {
		interval = DefaultIntervalDays
	}
	end := s.Now.UTC().Truncate(24 * time.Hour)

	series := Series{Name: name, Synthetic: true, Points: make([]Point, 0, n)}
	for i := n - 1; i >= 0; i-- {
		value := current
		if i > 0 {
			value = shape.round(shape.clamp(current - float64(i)*shape.Step))
		}
		series.Points = append(series.Points, Point{
			Date:      end.AddDate(0, 0, -i*interval).Format(DateLayout),
			Value:     value,
			Synthetic: true,
		})
	}
	return series
}

func (sh Shape) clamp(v float64) float64 {
	if sh.Max <= sh.Min {
		return v
	}
	return math.Max(sh.Min, math.Min(sh.Max, v))
}

func (sh Shape) round(v float64) float64 {
	if sh.Integer {
		return math.Round(v)
	}
	return math.Round(v*10) / 10
}
