// Package normalize rescales raw scores within a team so rankings stay
// statistically honest regardless of team size.
package normalize

import (
	"sort"

	"github.com/workscorehq/workscore/internal/config"
	"github.com/workscorehq/workscore/internal/types"
)

// Member pairs a user with their computed breakdown for one period.
type Member struct {
	UserID    string
	Breakdown types.ScoreBreakdown
}

// Normalizer assigns team-relative percentiles and the dispersion index.
// It only reads breakdowns, never mutates them.
type Normalizer struct {
	cfg config.NormalizeConfig
}

// NewNormalizer creates a normalizer with the given policy.
func NewNormalizer(cfg config.NormalizeConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Normalize produces one NormalizedScore per member. Percentile ranking is
// disabled below the minimum team size (insufficient sample for a rank
// anyone should trust), and the whole team is flagged when the dispersion
// index exceeds the configured ceiling. Input order is irrelevant: ranking
// sorts internally and ties break deterministically.
func (n *Normalizer) Normalize(teamID string, members []Member) map[string]types.NormalizedScore {
	out := make(map[string]types.NormalizedScore, len(members))
	if len(members) == 0 {
		return out
	}

	raws := make([]float64, len(members))
	for i, m := range members {
		raws[i] = m.Breakdown.RawScore
	}
	dispersion := Gini(raws)

	if len(members) < n.cfg.MinTeamSize {
		for _, m := range members {
			out[m.UserID] = types.NormalizedScore{
				RawScore:        m.Breakdown.RawScore,
				TeamID:          teamID,
				DispersionIndex: dispersion,
				Ranked:          false,
				Status:          types.RankTeamTooSmall,
			}
		}
		return out
	}

	status := types.RankOK
	if dispersion > n.cfg.DispersionCeiling {
		status = types.RankHighDispersion
	}

	// Rank descending by raw score; ties break on higher quality
	// multiplier, then lexicographic user id, so two runs over the same
	// inputs always agree.
	ranked := append([]Member(nil), members...)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Breakdown.RawScore != b.Breakdown.RawScore {
			return a.Breakdown.RawScore > b.Breakdown.RawScore
		}
		if a.Breakdown.QualityMultiplier != b.Breakdown.QualityMultiplier {
			return a.Breakdown.QualityMultiplier > b.Breakdown.QualityMultiplier
		}
		return a.UserID < b.UserID
	})

	total := float64(len(ranked))
	for i, m := range ranked {
		rank := float64(i + 1)
		out[m.UserID] = types.NormalizedScore{
			RawScore:        m.Breakdown.RawScore,
			Percentile:      (total - rank + 1) / total * 100,
			Ranked:          true,
			TeamID:          teamID,
			DispersionIndex: dispersion,
			Status:          status,
		}
	}
	return out
}
