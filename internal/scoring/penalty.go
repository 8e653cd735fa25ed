package scoring

import (
	"fmt"

	"github.com/workscorehq/workscore/internal/config"
	"github.com/workscorehq/workscore/internal/errors"
)

// PenaltyTerms is the per-signal decomposition of the blocker penalty,
// kept so the evidence trail can name each term.
type PenaltyTerms struct {
	Delays   float64
	Blockers float64
	Rework   float64
}

// Total returns the summed penalty, clamped to >= 0 as a post-condition.
// With non-negative weights the clamp never fires, but the guarantee that
// a penalty can never add points must not depend on configuration.
func (p PenaltyTerms) Total() float64 {
	total := p.Delays + p.Blockers + p.Rework
	if total < 0 {
		return 0
	}
	return total
}

// Penalty computes lambda_delays*D + lambda_blockers*F + lambda_rework*Rw
// over the friction counts. Monotonic in each input; zero friction means
// zero penalty.
func Penalty(cfg config.ScoringConfig, delays, blockers, rework int) (PenaltyTerms, error) {
	if delays < 0 {
		return PenaltyTerms{}, errors.NewInvalidVariable("delays_caused", fmt.Sprintf("must be >= 0, got %d", delays))
	}
	if blockers < 0 {
		return PenaltyTerms{}, errors.NewInvalidVariable("unresolved_blockers", fmt.Sprintf("must be >= 0, got %d", blockers))
	}
	if rework < 0 {
		return PenaltyTerms{}, errors.NewInvalidVariable("rework_count", fmt.Sprintf("must be >= 0, got %d", rework))
	}
	return PenaltyTerms{
		Delays:   cfg.LambdaDelays * float64(delays),
		Blockers: cfg.LambdaBlockers * float64(blockers),
		Rework:   cfg.LambdaRework * float64(rework),
	}, nil
}
