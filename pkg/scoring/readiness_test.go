package scoring_test

import (
	"testing"

	"github.com/trialscope/trialscope/pkg/scoring"
)

func TestClassifyStandardLadder(t *testing.T) {
	tests := []struct {
		openSAEs   int
		resolution float64
		want       scoring.Readiness
	}{
		{0, 98, scoring.ReadinessReady},
		{0, 100, scoring.ReadinessReady},
		{0, 97.9, scoring.ReadinessAtRisk},
		{5, 90, scoring.ReadinessAtRisk},
		{9, 99, scoring.ReadinessAtRisk},
		{10, 99, scoring.ReadinessNotReady},
		{1, 89.9, scoring.ReadinessNotReady},
		{0, 80, scoring.ReadinessNotReady},
	}
	for _, tt := range tests {
		if got := scoring.Classify(tt.openSAEs, tt.resolution); got != tt.want {
			t.Errorf("Classify(%d, %.1f) = %s, want %s", tt.openSAEs, tt.resolution, got, tt.want)
		}
	}
}

func TestClassifyLenientLadder(t *testing.T) {
	ladder, err := scoring.LadderByName(scoring.LadderLenient)
	if err != nil {
		t.Fatalf("LadderByName() error: %v", err)
	}

	tests := []struct {
		openSAEs   int
		resolution float64
		want       scoring.Readiness
	}{
		{0, 98, scoring.ReadinessReady},
		{50, 86, scoring.ReadinessAtRisk},
		{99, 85, scoring.ReadinessAtRisk},
		{100, 95, scoring.ReadinessNotReady},
		{5, 84, scoring.ReadinessNotReady},
	}
	for _, tt := range tests {
		if got := ladder.Classify(tt.openSAEs, tt.resolution); got != tt.want {
			t.Errorf("lenient Classify(%d, %.1f) = %s, want %s", tt.openSAEs, tt.resolution, got, tt.want)
		}
	}

	// The same input lands differently on the two ladders.
	if got := scoring.StandardLadder().Classify(50, 86); got != scoring.ReadinessNotReady {
		t.Errorf("standard Classify(50, 86) = %s, want not-ready", got)
	}
}

func TestLadderOverride(t *testing.T) {
	ladder := scoring.StandardLadder().WithOverride(3, 95)
	if ladder.OpenSAECeiling != 3 || ladder.ResolutionFloor != 95 {
		t.Fatalf("override not applied: %+v", ladder)
	}
	if got := ladder.Classify(5, 96); got != scoring.ReadinessNotReady {
		t.Errorf("Classify(5, 96) = %s, want not-ready", got)
	}

	// Zero values keep the ladder's own thresholds.
	unchanged := scoring.LenientLadder().WithOverride(0, 0)
	if unchanged != scoring.LenientLadder() {
		t.Errorf("zero override changed ladder: %+v", unchanged)
	}
}

func TestLadderByNameUnknown(t *testing.T) {
	if _, err := scoring.LadderByName("strict"); err == nil {
		t.Error("expected error for unknown ladder")
	}
}

func TestReadinessLevel(t *testing.T) {
	if scoring.ReadinessReady.Level() != 2 || scoring.ReadinessAtRisk.Level() != 1 || scoring.ReadinessNotReady.Level() != 0 {
		t.Error("unexpected readiness levels")
	}
}
