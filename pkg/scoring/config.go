package scoring

// Entity status thresholds, shared by every level of the hierarchy.
const (
	HealthyThreshold = 85
	AtRiskThreshold  = 70
)

// Proxy formula coefficients for per-entity scores.
const (
	EntityScoreSlope  = 0.8
	EntityScoreOffset = 20.0
	CleanPercentSlope = 0.85
)

// DefaultWeights holds the default weights and scales for both composite profiles.
type DefaultWeights struct {
	// Standard profile (30/25/20/15/10)
	Safety       float64
	Query        float64
	Completeness float64
	LabCoding    float64
	Verification float64

	// Decomposed profile (30/25/10/10/10/10/5)
	DecomposedSafety       float64
	DecomposedQuery        float64
	DecomposedVisit        float64
	DecomposedLab          float64
	DecomposedCoding       float64
	DecomposedVerification float64
	DecomposedSignature    float64

	// Penalty scales for categories that report outstanding items without a
	// total: ratio = 1 - outstanding/scale.
	CompletenessScale float64 // missing visits + missing pages
	LabCodingScale    float64 // lab issues + uncoded terms
	VisitScale        float64
	LabScale          float64

	// SignaturePenalty is subtracted from the verification ratio per
	// pending signature in the standard profile.
	SignaturePenalty float64
}

// Defaults returns the default scoring weights.
func Defaults() DefaultWeights {
	return DefaultWeights{
		Safety:       0.30,
		Query:        0.25,
		Completeness: 0.20,
		LabCoding:    0.15,
		Verification: 0.10,

		DecomposedSafety:       0.30,
		DecomposedQuery:        0.25,
		DecomposedVisit:        0.10,
		DecomposedLab:          0.10,
		DecomposedCoding:       0.10,
		DecomposedVerification: 0.10,
		DecomposedSignature:    0.05,

		CompletenessScale: 1000,
		LabCodingScale:    500,
		VisitScale:        1000,
		LabScale:          500,

		SignaturePenalty: 0.01,
	}
}
