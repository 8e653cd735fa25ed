package scoring

import (
	"fmt"
	"sort"

	"github.com/workscorehq/workscore/internal/config"
	"github.com/workscorehq/workscore/internal/types"
)

// Scorer turns one member's activity variables into a ScoreBreakdown with
// an evidence trail. Pure and stateless: the same variables and coefficients
// always produce the same breakdown.
type Scorer struct {
	cfg config.ScoringConfig
}

// NewScorer creates a composite scorer over the given coefficients.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes raw_score = base_work * quality * collaboration *
// recognition - penalty and records one evidence line per contributing or
// penalizing term, in reading order: what was done, then what adjusted it,
// then what reduced it.
func (s *Scorer) Score(vars types.ActivityVariables) (types.ScoreBreakdown, error) {
	evidence := make([]string, 0, 8)

	baseWork := s.baseWork(vars, &evidence)

	quality, err := Quality(s.cfg, vars.PeerReviewScore, vars.StabilityRate)
	if err != nil {
		return types.ScoreBreakdown{}, err
	}
	evidence = append(evidence, fmt.Sprintf(
		"quality: multiplier %.3f (peer review %.2f, stability %.2f)",
		quality, vars.PeerReviewScore, vars.StabilityRate))

	collaboration, err := Collaboration(s.cfg, vars.KnowledgeIndex)
	if err != nil {
		return types.ScoreBreakdown{}, err
	}
	evidence = append(evidence, fmt.Sprintf(
		"collaboration: multiplier %.3f (knowledge index %.2f)",
		collaboration, vars.KnowledgeIndex))

	recognition, err := Recognition(s.cfg, vars.KudosCount)
	if err != nil {
		return types.ScoreBreakdown{}, err
	}
	if vars.KudosCount > 0 {
		evidence = append(evidence, fmt.Sprintf(
			"recognition: %d peer kudos -> multiplier %.3f (log-damped)",
			vars.KudosCount, recognition))
	} else {
		evidence = append(evidence, "recognition: no peer kudos, multiplier 1.000")
	}

	penalty, err := Penalty(s.cfg, vars.DelaysCaused, vars.UnresolvedBlockers, vars.ReworkCount)
	if err != nil {
		return types.ScoreBreakdown{}, err
	}
	if penalty.Delays > 0 {
		evidence = append(evidence, fmt.Sprintf(
			"penalty: %d delays caused -> -%.1f", vars.DelaysCaused, penalty.Delays))
	}
	if penalty.Blockers > 0 {
		evidence = append(evidence, fmt.Sprintf(
			"penalty: %d unresolved blockers -> -%.1f", vars.UnresolvedBlockers, penalty.Blockers))
	}
	if penalty.Rework > 0 {
		evidence = append(evidence, fmt.Sprintf(
			"penalty: %d rework items -> -%.1f", vars.ReworkCount, penalty.Rework))
	}

	rawScore := baseWork*quality*collaboration*recognition - penalty.Total()

	return types.ScoreBreakdown{
		BaseWork:                baseWork,
		QualityMultiplier:       quality,
		CollaborationMultiplier: collaboration,
		RecognitionMultiplier:   recognition,
		PenaltyTotal:            penalty.Total(),
		RawScore:                rawScore,
		Evidence:                evidence,
	}, nil
}

// baseWork sums the weighted activity counts and applies the difficulty
// factor. Activity names are visited in sorted order so the evidence trail
// is reproducible across runs.
func (s *Scorer) baseWork(vars types.ActivityVariables, evidence *[]string) float64 {
	var sum float64

	if len(vars.Activities) > 0 {
		names := make([]string, 0, len(vars.Activities))
		for name := range vars.Activities {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			count := vars.Activities[name]
			if count == 0 {
				continue
			}
			weight := s.cfg.WeightFor(vars.Role, name)
			points := weight * count
			sum += points
			*evidence = append(*evidence, fmt.Sprintf(
				"base: %s x%.0f (weight %.1f) -> %.1f points", name, count, weight, points))
		}
	} else {
		sum = vars.BasePoints
		*evidence = append(*evidence, fmt.Sprintf("base: %.1f pre-weighted points", sum))
	}

	if vars.DifficultyFactor != 1 {
		*evidence = append(*evidence, fmt.Sprintf(
			"base: difficulty factor x%.2f -> %.1f", vars.DifficultyFactor, sum*vars.DifficultyFactor))
	}
	return sum * vars.DifficultyFactor
}
