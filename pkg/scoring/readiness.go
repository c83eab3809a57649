package scoring

import "fmt"

// Ladder names.
const (
	LadderStandard = "standard"
	LadderLenient  = "lenient"
)

// Readiness ladder thresholds.
const (
	ReadyResolutionRate = 98.0

	StandardOpenSAECeiling  = 10
	StandardResolutionFloor = 90.0

	LenientOpenSAECeiling  = 100
	LenientResolutionFloor = 85.0
)

// Ladder is an ordered set of readiness thresholds, evaluated first match wins:
// ready, then at-risk, then not-ready.
type Ladder struct {
	Name string `json:"name"`
	// ReadyResolution is the query resolution percentage required for ready,
	// together with zero open SAEs.
	ReadyResolution float64 `json:"readyResolution"`
	// OpenSAECeiling is the exclusive upper bound on open SAEs for at-risk.
	OpenSAECeiling int `json:"openSAECeiling"`
	// ResolutionFloor is the inclusive lower bound on resolution for at-risk.
	ResolutionFloor float64 `json:"resolutionFloor"`
}

// StandardLadder returns the canonical 10/90 ladder.
func StandardLadder() Ladder {
	return Ladder{
		Name:            LadderStandard,
		ReadyResolution: ReadyResolutionRate,
		OpenSAECeiling:  StandardOpenSAECeiling,
		ResolutionFloor: StandardResolutionFloor,
	}
}

// LenientLadder returns the 100/85 ladder.
func LenientLadder() Ladder {
	return Ladder{
		Name:            LadderLenient,
		ReadyResolution: ReadyResolutionRate,
		OpenSAECeiling:  LenientOpenSAECeiling,
		ResolutionFloor: LenientResolutionFloor,
	}
}

// LadderByName returns a named readiness ladder.
func LadderByName(name string) (Ladder, error) {
	switch name {
	case "", LadderStandard:
		return StandardLadder(), nil
	case LadderLenient:
		return LenientLadder(), nil
	default:
		return Ladder{}, fmt.Errorf("unknown readiness ladder %q", name)
	}
}

// WithOverride returns a copy of the ladder with non-zero overrides applied.
func (l Ladder) WithOverride(openSAECeiling int, resolutionFloor float64) Ladder {
	if openSAECeiling > 0 {
		l.OpenSAECeiling = openSAECeiling
	}
	if resolutionFloor > 0 {
		l.ResolutionFloor = resolutionFloor
	}
	return l
}

// Classify returns the readiness verdict for the given open SAE count and
// query resolution percentage.
func (l Ladder) Classify(openSAEs int, queryResolutionRate float64) Readiness {
	switch {
	case openSAEs == 0 && queryResolutionRate >= l.ReadyResolution:
		return ReadinessReady
	case openSAEs < l.OpenSAECeiling && queryResolutionRate >= l.ResolutionFloor:
		return ReadinessAtRisk
	default:
		return ReadinessNotReady
	}
}

// Classify applies the standard ladder.
func Classify(openSAEs int, queryResolutionRate float64) Readiness {
	return StandardLadder().Classify(openSAEs, queryResolutionRate)
}
