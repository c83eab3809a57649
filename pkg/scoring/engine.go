package scoring

import (
	"math"

	"github.com/trialscope/trialscope/pkg/snapshot"
)

// Factor is the interface that all composite score factors implement.
type Factor interface {
	// Key returns the machine-readable factor identifier.
	Key() string
	// Name returns the human-readable factor name.
	Name() string
	// SourceName returns the counter category the factor reads.
	SourceName() string
	// Ratio returns the factor's quality ratio in [0, 1]. defaulted is true
	// when the category had no data and the ratio fell back to 1.
	Ratio(s *snapshot.Snapshot) (ratio float64, defaulted bool)
}

// WeightedFactor pairs a factor with its weight inside a profile.
type WeightedFactor struct {
	Weight float64
	Factor Factor
}

// Profile is a named set of weighted factors. Weights sum to 1.
type Profile struct {
	Name    string
	Factors []WeightedFactor
}

// TotalWeight sums the profile's factor weights.
func (p Profile) TotalWeight() float64 {
	total := 0.0
	for _, wf := range p.Factors {
		total += wf.Weight
	}
	return total
}

// Calculator computes composite scores with one profile.
type Calculator struct {
	profile Profile
}

// NewCalculator creates a calculator for the given profile.
func NewCalculator(profile Profile) *Calculator {
	return &Calculator{profile: profile}
}

// Profile returns the calculator's weight profile.
func (c *Calculator) Profile() Profile {
	return c.profile
}

// Compute scores a snapshot. The result is a pure function of the snapshot:
// missing categories are fully resolved, and every ratio is clamped to
// [0, 1] so the score always lands in [0, 100].
func (c *Calculator) Compute(s *snapshot.Snapshot) CompositeResult {
	if s == nil {
		s = snapshot.Normalize(nil)
	}

	result := CompositeResult{
		Profile:   c.profile.Name,
		Breakdown: make([]Component, 0, len(c.profile.Factors)),
	}

	sum := 0.0
	for _, wf := range c.profile.Factors {
		ratio, defaulted := wf.Factor.Ratio(s)
		ratio = clamp01(ratio)
		sum += wf.Weight * ratio
		result.Breakdown = append(result.Breakdown, Component{
			Key:          wf.Factor.Key(),
			Name:         wf.Factor.Name(),
			Weight:       wf.Weight,
			Ratio:        ratio,
			Contribution: wf.Weight * ratio * 100,
			Source:       wf.Factor.SourceName(),
			Defaulted:    defaulted,
		})
	}

	result.Score = ClampScore(int(math.Round(sum * 100)))
	return result
}

// ComputeCompositeScore scores a snapshot with the standard profile.
func ComputeCompositeScore(s *snapshot.Snapshot) CompositeResult {
	return NewCalculator(StandardProfile()).Compute(s)
}

// ResolutionFactor scores (total - outstanding) / total.
type ResolutionFactor struct {
	FactorKey   string
	FactorName  string
	Source      string
	Total       func(*snapshot.Snapshot) int
	Outstanding func(*snapshot.Snapshot) int
}

func (f *ResolutionFactor) Key() string        { return f.FactorKey }
func (f *ResolutionFactor) Name() string       { return f.FactorName }
func (f *ResolutionFactor) SourceName() string { return f.Source }

func (f *ResolutionFactor) Ratio(s *snapshot.Snapshot) (float64, bool) {
	total := f.Total(s)
	if total <= 0 {
		return 1, true
	}
	return clamp01(float64(total-f.Outstanding(s)) / float64(total)), false
}

// PenaltyFactor scores 1 - outstanding/scale for categories that only
// report outstanding items.
type PenaltyFactor struct {
	FactorKey   string
	FactorName  string
	Source      string
	Scale       float64
	Outstanding func(*snapshot.Snapshot) int
}

func (f *PenaltyFactor) Key() string        { return f.FactorKey }
func (f *PenaltyFactor) Name() string       { return f.FactorName }
func (f *PenaltyFactor) SourceName() string { return f.Source }

func (f *PenaltyFactor) Ratio(s *snapshot.Snapshot) (float64, bool) {
	if f.Scale <= 0 {
		return 1, true
	}
	return clamp01(1 - float64(f.Outstanding(s))/f.Scale), false
}

// VerificationFactor scores the SDV rate less a per-signature penalty.
type VerificationFactor struct {
	PerPendingSignature float64
}

func (f *VerificationFactor) Key() string  { return "verification" }
func (f *VerificationFactor) Name() string { return "Verification & signatures" }
func (f *VerificationFactor) SourceName() string {
	return SourceSDV + "; " + SourceSignatures
}

func (f *VerificationFactor) Ratio(s *snapshot.Snapshot) (float64, bool) {
	base := 1.0
	if s.SDV.Total > 0 {
		base = float64(s.SDV.Verified) / float64(s.SDV.Total)
	}
	defaulted := s.SDV.Total <= 0 && s.Signatures.Pending <= 0
	return clamp01(base - float64(s.Signatures.Pending)*f.PerPendingSignature), defaulted
}

// ClampScore bounds a score to [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
