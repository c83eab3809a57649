package scoring

import (
	"fmt"

	"github.com/trialscope/trialscope/pkg/snapshot"
)

// Profile names.
const (
	ProfileStandard   = "standard"
	ProfileDecomposed = "decomposed"
)

// Source attributions for the counter categories the factors read.
const (
	SourceSAE        = "SAE Dashboard (DM + Safety)"
	SourceQueries    = "CPID EDC Metrics: Query Report"
	SourceVisits     = "Visit Projection Tracker"
	SourcePages      = "Missing Pages Report"
	SourceLab        = "Missing Lab Name & Missing Ranges"
	SourceCoding     = "Global Coding Report (MedDRA + WHO-DD)"
	SourceSDV        = "CPID EDC Metrics: SDV"
	SourceSignatures = "CPID EDC Metrics: PI Signature Report"
	SourceEDRR       = "Compiled EDRR"
	SourceHierarchy  = "Regional site hierarchy"
)

// StandardProfile returns the 30/25/20/15/10 composite profile.
func StandardProfile() Profile {
	w := Defaults()
	return Profile{
		Name: ProfileStandard,
		Factors: []WeightedFactor{
			{Weight: w.Safety, Factor: safetyFactor()},
			{Weight: w.Query, Factor: queryFactor()},
			{Weight: w.Completeness, Factor: &PenaltyFactor{
				FactorKey:  "completeness",
				FactorName: "Visit/page completeness",
				Source:     SourceVisits + "; " + SourcePages,
				Scale:      w.CompletenessScale,
				Outstanding: func(s *snapshot.Snapshot) int {
					return s.Visits.TotalMissing + s.Pages.TotalMissing
				},
			}},
			{Weight: w.LabCoding, Factor: &PenaltyFactor{
				FactorKey:  "lab_coding",
				FactorName: "Lab/coding readiness",
				Source:     SourceLab + "; " + SourceCoding,
				Scale:      w.LabCodingScale,
				Outstanding: func(s *snapshot.Snapshot) int {
					return s.Lab.TotalIssues + s.Coding.TotalUncoded
				},
			}},
			{Weight: w.Verification, Factor: &VerificationFactor{
				PerPendingSignature: w.SignaturePenalty,
			}},
		},
	}
}

// DecomposedProfile returns the 30/25/10/10/10/10/5 composite profile, in
// which completeness is split into visit, lab, coding and signature factors.
func DecomposedProfile() Profile {
	w := Defaults()
	return Profile{
		Name: ProfileDecomposed,
		Factors: []WeightedFactor{
			{Weight: w.DecomposedSafety, Factor: safetyFactor()},
			{Weight: w.DecomposedQuery, Factor: queryFactor()},
			{Weight: w.DecomposedVisit, Factor: &PenaltyFactor{
				FactorKey:   "visit_completeness",
				FactorName:  "Visit completeness",
				Source:      SourceVisits,
				Scale:       w.VisitScale,
				Outstanding: func(s *snapshot.Snapshot) int { return s.Visits.TotalMissing },
			}},
			{Weight: w.DecomposedLab, Factor: &PenaltyFactor{
				FactorKey:   "lab_readiness",
				FactorName:  "Lab readiness",
				Source:      SourceLab,
				Scale:       w.LabScale,
				Outstanding: func(s *snapshot.Snapshot) int { return s.Lab.TotalIssues },
			}},
			{Weight: w.DecomposedCoding, Factor: &ResolutionFactor{
				FactorKey:  "coding_completion",
				FactorName: "Coding completion",
				Source:     SourceCoding,
				Total: func(s *snapshot.Snapshot) int {
					return s.Coding.MedDRA.Total + s.Coding.WHODD.Total
				},
				Outstanding: func(s *snapshot.Snapshot) int { return s.Coding.TotalUncoded },
			}},
			{Weight: w.DecomposedVerification, Factor: &ResolutionFactor{
				FactorKey:   "sdv_rate",
				FactorName:  "Source data verification",
				Source:      SourceSDV,
				Total:       func(s *snapshot.Snapshot) int { return s.SDV.Total },
				Outstanding: func(s *snapshot.Snapshot) int { return s.SDV.Pending },
			}},
			{Weight: w.DecomposedSignature, Factor: &ResolutionFactor{
				FactorKey:   "signature_timeliness",
				FactorName:  "Signature timeliness",
				Source:      SourceSignatures,
				Total:       func(s *snapshot.Snapshot) int { return s.Signatures.Pending },
				Outstanding: func(s *snapshot.Snapshot) int { return s.Signatures.Overdue },
			}},
		},
	}
}

// ProfileByName returns a named composite profile.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", ProfileStandard:
		return StandardProfile(), nil
	case ProfileDecomposed:
		return DecomposedProfile(), nil
	default:
		return Profile{}, fmt.Errorf("unknown scoring profile %q", name)
	}
}

func safetyFactor() Factor {
	return &ResolutionFactor{
		FactorKey:   "safety_resolution",
		FactorName:  "Safety resolution",
		Source:      SourceSAE,
		Total:       func(s *snapshot.Snapshot) int { return s.SAEs.Total },
		Outstanding: func(s *snapshot.Snapshot) int { return s.SAEs.Open },
	}
}

func queryFactor() Factor {
	return &ResolutionFactor{
		FactorKey:   "query_resolution",
		FactorName:  "Query resolution",
		Source:      SourceQueries,
		Total:       func(s *snapshot.Snapshot) int { return s.Queries.Total },
		Outstanding: func(s *snapshot.Snapshot) int { return s.Queries.Open },
	}
}
