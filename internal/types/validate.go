package types

import (
	"fmt"

	"github.com/workscorehq/workscore/internal/errors"
)

// Validate performs the ingestion range checks. Negative counts and ratios
// are rejected, never clamped to zero: a negative value is an upstream
// data-quality bug and masking it would poison the score silently.
func (v *ActivityVariables) Validate() error {
	if v.UserID == "" {
		return errors.NewInvalidVariable("user_id", "user_id must not be empty")
	}
	if v.Period == "" {
		return errors.NewInvalidVariable("period", "period must not be empty")
	}
	if v.BasePoints < 0 {
		return errors.NewInvalidVariable("base_points", fmt.Sprintf("base_points must be >= 0, got %v", v.BasePoints))
	}
	if v.DifficultyFactor < 0 {
		return errors.NewInvalidVariable("difficulty_factor", fmt.Sprintf("difficulty_factor must be >= 0, got %v", v.DifficultyFactor))
	}
	if v.PeerReviewScore < 0 {
		return errors.NewInvalidVariable("peer_review_score", fmt.Sprintf("peer_review_score must be >= 0, got %v", v.PeerReviewScore))
	}
	if v.StabilityRate < 0 {
		return errors.NewInvalidVariable("stability_rate", fmt.Sprintf("stability_rate must be >= 0, got %v", v.StabilityRate))
	}
	if v.KnowledgeIndex < 0 {
		return errors.NewInvalidVariable("knowledge_index", fmt.Sprintf("knowledge_index must be >= 0, got %v", v.KnowledgeIndex))
	}
	if v.KudosCount < 0 {
		return errors.NewInvalidVariable("kudos_count", fmt.Sprintf("kudos_count must be >= 0, got %d", v.KudosCount))
	}
	if v.DelaysCaused < 0 {
		return errors.NewInvalidVariable("delays_caused", fmt.Sprintf("delays_caused must be >= 0, got %d", v.DelaysCaused))
	}
	if v.ReworkCount < 0 {
		return errors.NewInvalidVariable("rework_count", fmt.Sprintf("rework_count must be >= 0, got %d", v.ReworkCount))
	}
	if v.UnresolvedBlockers < 0 {
		return errors.NewInvalidVariable("unresolved_blockers", fmt.Sprintf("unresolved_blockers must be >= 0, got %d", v.UnresolvedBlockers))
	}
	for name, count := range v.Activities {
		if count < 0 {
			return errors.NewInvalidVariable("activities."+name, fmt.Sprintf("activity count must be >= 0, got %v", count))
		}
	}
	return nil
}

// ClampRatios caps the ratio fields at 1. Upstream normalization sometimes
// overshoots slightly; values above 1 are slop, values below 0 are bugs and
// belong to Validate.
func (v *ActivityVariables) ClampRatios() {
	if v.PeerReviewScore > 1 {
		v.PeerReviewScore = 1
	}
	if v.StabilityRate > 1 {
		v.StabilityRate = 1
	}
}
