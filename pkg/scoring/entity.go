package scoring

import (
	"math"

	"github.com/trialscope/trialscope/pkg/snapshot"
)

// EntityProxyScore maps a query resolution percentage to an entity score:
// round(rate*0.8 + 20), clamped to [0, 100].
func EntityProxyScore(resolutionRate float64) int {
	return ClampScore(int(math.Round(resolutionRate*EntityScoreSlope + EntityScoreOffset)))
}

// CleanPercent estimates the share of clean patients from a query
// resolution percentage: round(rate*0.85), clamped to [0, 100].
func CleanPercent(resolutionRate float64) int {
	return ClampScore(int(math.Round(resolutionRate * CleanPercentSlope)))
}

// ScoreEntity scores a hierarchy node from its own aggregate query totals.
// A node without queries counts as fully resolved.
func ScoreEntity(totalQueries, openQueries int) EntityScore {
	rate := snapshot.ResolutionPercent(totalQueries, openQueries)
	score := EntityProxyScore(rate)
	return EntityScore{
		ResolutionRate: rate,
		Score:          score,
		CleanPercent:   CleanPercent(rate),
		Status:         StatusFromScore(score),
	}
}
