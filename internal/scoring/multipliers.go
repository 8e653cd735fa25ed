package scoring

import (
	"fmt"
	"math"

	"github.com/workscorehq/workscore/internal/config"
	"github.com/workscorehq/workscore/internal/errors"
)

// Quality computes 1 + alpha*R + beta*S over the peer review score R and
// stability rate S, both in [0,1]. With non-negative coefficients the
// multiplier never drops below 1: quality can only amplify base work.
func Quality(cfg config.ScoringConfig, reviewScore, stabilityRate float64) (float64, error) {
	if reviewScore < 0 {
		return 0, errors.NewInvalidVariable("peer_review_score", fmt.Sprintf("must be >= 0, got %v", reviewScore))
	}
	if stabilityRate < 0 {
		return 0, errors.NewInvalidVariable("stability_rate", fmt.Sprintf("must be >= 0, got %v", stabilityRate))
	}
	if reviewScore > 1 {
		return 0, errors.NewInvalidVariable("peer_review_score", fmt.Sprintf("must be <= 1, got %v", reviewScore))
	}
	if stabilityRate > 1 {
		return 0, errors.NewInvalidVariable("stability_rate", fmt.Sprintf("must be <= 1, got %v", stabilityRate))
	}
	return 1 + cfg.Alpha*reviewScore + cfg.Beta*stabilityRate, nil
}

// Collaboration computes 1 + gamma*K over the knowledge-sharing index K.
// Unbounded above: knowledge sharing should not cap.
func Collaboration(cfg config.ScoringConfig, knowledgeIndex float64) (float64, error) {
	if knowledgeIndex < 0 {
		return 0, errors.NewInvalidVariable("knowledge_index", fmt.Sprintf("must be >= 0, got %v", knowledgeIndex))
	}
	return 1 + cfg.Gamma*knowledgeIndex, nil
}

// Recognition computes 1 + delta*log(1+U) over the kudos count U. The
// logarithm bounds the influence of popularity: each additional kudo is
// worth less than the one before it, so recognition-farming cannot
// dominate the score.
func Recognition(cfg config.ScoringConfig, kudosCount int) (float64, error) {
	if kudosCount < 0 {
		return 0, errors.NewInvalidVariable("kudos_count", fmt.Sprintf("must be >= 0, got %d", kudosCount))
	}
	return 1 + cfg.Delta*math.Log1p(float64(kudosCount)), nil
}
