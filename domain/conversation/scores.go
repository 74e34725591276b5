package conversation

import (
	"fmt"

	apperrors "clarityos-backend/pkg/errors"
)

// Score bounds for a single rubric dimension.
const (
	MinDimensionScore = 0
	MaxDimensionScore = 2
	MaxTotalScore     = 4 * MaxDimensionScore
)

// DimensionScores holds the four fixed rubric ratings the model assigns
// each turn. The dimensions are the same for every card; their scored
// meaning is card-specific.
type DimensionScores struct {
	Audience int `json:"audience"`
	Benefit  int `json:"benefit"`
	Belief   int `json:"belief"`
	Impact   int `json:"impact"`
}

// Validate checks every dimension is within bounds.
func (s DimensionScores) Validate() error {
	for name, v := range map[string]int{
		"audience": s.Audience,
		"benefit":  s.Benefit,
		"belief":   s.Belief,
		"impact":   s.Impact,
	} {
		if v < MinDimensionScore || v > MaxDimensionScore {
			return apperrors.NewValidationError(
				fmt.Sprintf("score %q out of range: got %d, want %d-%d", name, v, MinDimensionScore, MaxDimensionScore))
		}
	}
	return nil
}

// Total returns the cumulative score across all four dimensions.
func (s DimensionScores) Total() int {
	return s.Audience + s.Benefit + s.Belief + s.Impact
}

// Merge ratchets scores upward: each dimension keeps the higher of the
// two ratings. A weak later answer never erases earlier progress.
func (s DimensionScores) Merge(other DimensionScores) DimensionScores {
	return DimensionScores{
		Audience: max(s.Audience, other.Audience),
		Benefit:  max(s.Benefit, other.Benefit),
		Belief:   max(s.Belief, other.Belief),
		Impact:   max(s.Impact, other.Impact),
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
