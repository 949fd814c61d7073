package ranking

import (
	"fmt"

	"watchlist/internal/screening/models"
)

// ThresholdMode selects how confidence_rating bounds the ranked list.
type ThresholdMode string

const (
	// ThresholdCeiling keeps candidates with confidence <= rating.
	ThresholdCeiling ThresholdMode = "ceiling"
	// ThresholdFloor keeps candidates with confidence >= rating.
	ThresholdFloor ThresholdMode = "floor"
)

// ParseThresholdMode accepts "ceiling" or "floor"; empty means ceiling.
func ParseThresholdMode(s string) (ThresholdMode, error) {
	switch ThresholdMode(s) {
	case "", ThresholdCeiling:
		return ThresholdCeiling, nil
	case ThresholdFloor:
		return ThresholdFloor, nil
	}
	return "", fmt.Errorf("unknown threshold mode %q", s)
}

// FilterByConfidence keeps ranked candidates on the allowed side of rating,
// preserving order.
func FilterByConfidence(ranked []models.ScoredCandidate, rating float64, mode ThresholdMode) []models.ScoredCandidate {
	out := make([]models.ScoredCandidate, 0, len(ranked))
	for _, c := range ranked {
		keep := c.Confidence <= rating
		if mode == ThresholdFloor {
			keep = c.Confidence >= rating
		}
		if keep {
			out = append(out, c)
		}
	}
	return out
}

// Page returns limit items starting at the 1-based position offset.
// Offsets below 1 start at the first item.
func Page(ranked []models.ScoredCandidate, limit, offset int) []models.ScoredCandidate {
	if limit < 1 {
		limit = 1
	}
	skip := max(0, offset-1)
	if skip >= len(ranked) {
		return []models.ScoredCandidate{}
	}
	return ranked[skip : skip+min(limit, len(ranked)-skip)]
}
