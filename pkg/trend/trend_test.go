package trend_test

import (
	"testing"
	"time"

	"github.com/trialscope/trialscope/pkg/snapshot"
	"github.com/trialscope/trialscope/pkg/trend"
)

var now = time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC)

func TestSynthesizeFallback(t *testing.T) {
	s := trend.NewSynthesizer(now)
	series := s.Synthesize("dqi", 80, nil, trend.Percent())

	if len(series.Points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(series.Points))
	}
	if !series.Synthetic {
		t.Error("expected series to be flagged synthetic")
	}
	for i, p := range series.Points {
		if !p.Synthetic {
			t.Errorf("point %d not flagged synthetic", i)
		}
		if i > 0 && p.Date <= series.Points[i-1].Date {
			t.Errorf("dates not increasing at %d: %s <= %s", i, p.Date, series.Points[i-1].Date)
		}
	}
	if got := series.Current(); got != 80 {
		t.Errorf("last point = %f, want 80", got)
	}
	if series.Points[6].Date != "2025-03-14" || series.Points[0].Date != "2025-01-31" {
		t.Errorf("window = %s..%s", series.Points[0].Date, series.Points[6].Date)
	}
	if series.Points[0].Value != 71 {
		t.Errorf("oldest point = %f, want 71", series.Points[0].Value)
	}
	if series.Previous() != 78.5 {
		t.Errorf("previous = %f, want 78.5", series.Previous())
	}
}

func TestSynthesizeEmptyProvidedSeries(t *testing.T) {
	series := trend.NewSynthesizer(now).Synthesize("dqi", 80, []snapshot.Point{}, trend.Percent())
	if !series.Synthetic || len(series.Points) != 7 {
		t.Errorf("expected 7-point synthetic series, got synthetic=%v len=%d", series.Synthetic, len(series.Points))
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	s := trend.NewSynthesizer(now)
	a := s.Synthesize("dqi", 63.4, nil, trend.Percent())
	b := s.Synthesize("dqi", 63.4, nil, trend.Percent())
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, a.Points[i], b.Points[i])
		}
	}
}

func TestSynthesizeClampsToRange(t *testing.T) {
	series := trend.NewSynthesizer(now).Synthesize("dqi", 2, nil, trend.Percent())
	for _, p := range series.Points {
		if p.Value < 0 || p.Value > 100 {
			t.Errorf("value %f out of range", p.Value)
		}
	}

	counts := trend.NewSynthesizer(now).Synthesize("openSAEs", 3, nil, trend.Count())
	if counts.Points[0].Value != 12 {
		t.Errorf("oldest open SAE value = %f, want 12", counts.Points[0].Value)
	}
	if counts.Current() != 3 {
		t.Errorf("current open SAE value = %f, want 3", counts.Current())
	}
}

func TestSynthesizeUsesProvidedSeries(t *testing.T) {
	provided := []snapshot.Point{
		{Date: "2025-03-10", Value: 88},
		{Date: "2025-02-01", Value: 70},
		{Date: "2025-02-08", Value: 72},
		{Date: "2025-02-15", Value: 75},
		{Date: "2025-02-22", Value: 79},
		{Date: "2025-03-01", Value: 83},
		{Date: "2025-01-25", Value: 60},
		{Date: "2025-01-18", Value: 55},
	}

	series := trend.NewSynthesizer(now).Synthesize("dqi", 90, provided, trend.Percent())
	if series.Synthetic {
		t.Error("provided series flagged synthetic")
	}
	if len(series.Points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(series.Points))
	}
	if series.Points[0].Date != "2025-01-25" || series.Points[6].Date != "2025-03-10" {
		t.Errorf("window = %s..%s", series.Points[0].Date, series.Points[6].Date)
	}
	for _, p := range series.Points {
		if p.Synthetic {
			t.Errorf("provided point %s flagged synthetic", p.Date)
		}
	}
	if series.Current() != 88 {
		t.Errorf("current = %f, want provided 88", series.Current())
	}
	if provided[0].Date != "2025-03-10" {
		t.Error("provided slice was reordered")
	}
}

func TestSynthesizeRejectsUnusableSeries(t *testing.T) {
	flat := make([]snapshot.Point, 7)
	for i := range flat {
		flat[i] = snapshot.Point{Date: time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC).Format(trend.DateLayout), Value: 50}
	}
	short := []snapshot.Point{{Date: "2025-03-01", Value: 40}, {Date: "2025-03-08", Value: 45}}

	tests := []struct {
		name     string
		provided []snapshot.Point
	}{
		{"degenerate", flat},
		{"too short", short},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := trend.NewSynthesizer(now).Synthesize("dqi", 80, tt.provided, trend.Percent())
			if !series.Synthetic {
				t.Error("expected synthetic fallback")
			}
			if series.Current() != 80 {
				t.Errorf("current = %f, want 80", series.Current())
			}
		})
	}
}

func TestSynthesizeCustomWindow(t *testing.T) {
	s := trend.Synthesizer{HistoryLength: 3, IntervalDays: 1, Now: now}
	series := s.Synthesize("queryResolution", 92.3, nil, trend.Percent())
	want := []trend.Point{
		{Date: "2025-03-12", Value: 89.3, Synthetic: true},
		{Date: "2025-03-13", Value: 90.8, Synthetic: true},
		{Date: "2025-03-14", Value: 92.3, Synthetic: true},
	}
	if len(series.Points) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(series.Points))
	}
	for i := range want {
		if series.Points[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, series.Points[i], want[i])
		}
	}
}
