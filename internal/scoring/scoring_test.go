package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workscorehq/workscore/internal/config"
	"github.com/workscorehq/workscore/internal/errors"
	"github.com/workscorehq/workscore/internal/types"
)

// neutralConfig zeroes every coefficient so multipliers collapse to 1 and
// penalties to 0.
func neutralConfig() config.ScoringConfig {
	return config.ScoringConfig{DefaultWeight: 1}
}

func TestQualityMultiplier(t *testing.T) {
	cfg := config.ScoringConfig{Alpha: 0.5, Beta: 0.3}

	tests := []struct {
		name      string
		review    float64
		stability float64
		expected  float64
	}{
		{"both zero", 0, 0, 1.0},
		{"perfect review", 1, 0, 1.5},
		{"perfect stability", 0, 1, 1.3},
		{"both perfect", 1, 1, 1.8},
		{"midpoint", 0.5, 0.5, 1.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Quality(cfg, tt.review, tt.stability)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, q, 1e-9)
		})
	}
}

func TestQualityRejectsOutOfRange(t *testing.T) {
	cfg := config.ScoringConfig{Alpha: 0.5, Beta: 0.3}

	for _, tt := range []struct {
		name      string
		review    float64
		stability float64
	}{
		{"negative review", -0.1, 0.5},
		{"negative stability", 0.5, -0.1},
		{"review above one", 1.1, 0.5},
		{"stability above one", 0.5, 1.1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Quality(cfg, tt.review, tt.stability)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidVariable(err))
		})
	}
}

func TestCollaborationMultiplier(t *testing.T) {
	cfg := config.ScoringConfig{Gamma: 0.2}

	c, err := Collaboration(cfg, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c, 1e-9)

	c, err = Collaboration(cfg, 2.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, c, 1e-9)

	// Unbounded above.
	c, err = Collaboration(cfg, 100)
	require.NoError(t, err)
	assert.InDelta(t, 21.0, c, 1e-9)

	_, err = Collaboration(cfg, -1)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidVariable(err))
}

func TestRecognitionLogDamping(t *testing.T) {
	cfg := config.ScoringConfig{Delta: 0.5}

	r, err := Recognition(cfg, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-9)

	r, err = Recognition(cfg, 10)
	require.NoError(t, err)
	assert.InDelta(t, 1+0.5*math.Log1p(10), r, 1e-9)
	assert.InDelta(t, 2.199, r, 0.001)

	_, err = Recognition(cfg, -1)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidVariable(err))
}

// Each additional kudo is worth strictly less than the previous one.
func TestRecognitionDiminishingReturns(t *testing.T) {
	cfg := config.ScoringConfig{Delta: 0.5}

	prev, err := Recognition(cfg, 0)
	require.NoError(t, err)
	prevGain := math.Inf(1)

	for k := 1; k <= 100; k++ {
		r, err := Recognition(cfg, k)
		require.NoError(t, err)
		gain := r - prev
		assert.Greater(t, gain, 0.0, "kudos %d", k)
		assert.Less(t, gain, prevGain, "kudos %d", k)
		prev, prevGain = r, gain
	}
}

func TestPenaltyComputation(t *testing.T) {
	cfg := config.ScoringConfig{LambdaDelays: 10, LambdaBlockers: 10, LambdaRework: 5}

	p, err := Penalty(cfg, 0, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, p.Total())

	p, err = Penalty(cfg, 2, 1, 3)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, p.Delays, 1e-9)
	assert.InDelta(t, 10.0, p.Blockers, 1e-9)
	assert.InDelta(t, 15.0, p.Rework, 1e-9)
	assert.InDelta(t, 45.0, p.Total(), 1e-9)
}

func TestPenaltyMonotonic(t *testing.T) {
	cfg := config.ScoringConfig{LambdaDelays: 10, LambdaBlockers: 10, LambdaRework: 5}

	var prev float64
	for n := 0; n <= 10; n++ {
		p, err := Penalty(cfg, n, n, n)
		require.NoError(t, err)
		total := p.Total()
		assert.GreaterOrEqual(t, total, prev)
		assert.GreaterOrEqual(t, total, 0.0)
		prev = total
	}
}

func TestPenaltyRejectsNegativeCounts(t *testing.T) {
	cfg := config.ScoringConfig{LambdaDelays: 10}

	for _, tt := range []struct {
		name                     string
		delays, blockers, rework int
	}{
		{"negative delays", -1, 0, 0},
		{"negative blockers", 0, -1, 0},
		{"negative rework", 0, 0, -1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Penalty(cfg, tt.delays, tt.blockers, tt.rework)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidVariable(err))
		})
	}
}

// With all coefficients zeroed the raw score equals base work.
func TestScoreNeutralCoefficients(t *testing.T) {
	scorer := NewScorer(neutralConfig())

	breakdown, err := scorer.Score(types.ActivityVariables{
		UserID:           "alice",
		Period:           "2026-08",
		BasePoints:       100,
		DifficultyFactor: 1,
		PeerReviewScore:  0.9,
		KnowledgeIndex:   3,
		KudosCount:       50,
	})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, breakdown.BaseWork, 1e-9)
	assert.InDelta(t, 1.0, breakdown.QualityMultiplier, 1e-9)
	assert.InDelta(t, 1.0, breakdown.CollaborationMultiplier, 1e-9)
	assert.InDelta(t, 1.0, breakdown.RecognitionMultiplier, 1e-9)
	assert.Zero(t, breakdown.PenaltyTotal)
	assert.InDelta(t, breakdown.BaseWork, breakdown.RawScore, 1e-9)
}

// 100 pre-weighted points, difficulty 1.2, one delay at weight 5:
// 100*1.2 - 5 = 115.
func TestScoreDifficultyAndPenalty(t *testing.T) {
	cfg := neutralConfig()
	cfg.LambdaDelays = 5
	scorer := NewScorer(cfg)

	breakdown, err := scorer.Score(types.ActivityVariables{
		UserID:           "alice",
		Period:           "2026-08",
		BasePoints:       100,
		DifficultyFactor: 1.2,
		DelaysCaused:     1,
	})
	require.NoError(t, err)

	assert.InDelta(t, 120.0, breakdown.BaseWork, 1e-9)
	assert.InDelta(t, 5.0, breakdown.PenaltyTotal, 1e-9)
	assert.InDelta(t, 115.0, breakdown.RawScore, 1e-9)
}

// Adding 10 kudos at delta 0.5 to the previous scenario lifts the raw
// score to 120*(1+0.5*ln(11)) - 5 ~= 258.9.
func TestScoreRecognitionLift(t *testing.T) {
	cfg := neutralConfig()
	cfg.LambdaDelays = 5
	cfg.Delta = 0.5
	scorer := NewScorer(cfg)

	breakdown, err := scorer.Score(types.ActivityVariables{
		UserID:           "alice",
		Period:           "2026-08",
		BasePoints:       100,
		DifficultyFactor: 1.2,
		DelaysCaused:     1,
		KudosCount:       10,
	})
	require.NoError(t, err)

	assert.InDelta(t, 2.199, breakdown.RecognitionMultiplier, 0.001)
	assert.InDelta(t, 258.9, breakdown.RawScore, 0.1)
}

func TestScoreRoleWeightedActivities(t *testing.T) {
	cfg := neutralConfig()
	cfg.RoleWeights = map[string]map[string]float64{
		"default": {"commits": 2, "reviews": 3},
		"manager": {"meetings": 4},
	}
	scorer := NewScorer(cfg)

	breakdown, err := scorer.Score(types.ActivityVariables{
		UserID:           "alice",
		Period:           "2026-08",
		Role:             "engineer", // absent role falls back to default weights
		Activities:       map[string]float64{"commits": 10, "reviews": 4},
		DifficultyFactor: 1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 32.0, breakdown.BaseWork, 1e-9) // 10*2 + 4*3

	breakdown, err = scorer.Score(types.ActivityVariables{
		UserID:           "bob",
		Period:           "2026-08",
		Role:             "manager",
		Activities:       map[string]float64{"meetings": 5},
		DifficultyFactor: 1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, breakdown.BaseWork, 1e-9)
}

// Evidence lines follow the contract order: base, quality, collaboration,
// recognition, penalties.
func TestScoreEvidenceOrder(t *testing.T) {
	cfg := config.ScoringConfig{
		Alpha: 0.5, Beta: 0.3, Gamma: 0.2, Delta: 0.5,
		LambdaDelays: 10, LambdaBlockers: 10, LambdaRework: 5,
		DefaultWeight: 1,
	}
	scorer := NewScorer(cfg)

	breakdown, err := scorer.Score(types.ActivityVariables{
		UserID:             "alice",
		Period:             "2026-08",
		BasePoints:         100,
		DifficultyFactor:   1.2,
		PeerReviewScore:    0.8,
		StabilityRate:      0.9,
		KnowledgeIndex:     2,
		KudosCount:         5,
		DelaysCaused:       1,
		UnresolvedBlockers: 2,
		ReworkCount:        3,
	})
	require.NoError(t, err)

	require.Len(t, breakdown.Evidence, 8)
	assert.Contains(t, breakdown.Evidence[0], "base:")
	assert.Contains(t, breakdown.Evidence[1], "difficulty factor")
	assert.Contains(t, breakdown.Evidence[2], "quality:")
	assert.Contains(t, breakdown.Evidence[3], "collaboration:")
	assert.Contains(t, breakdown.Evidence[4], "recognition:")
	assert.Contains(t, breakdown.Evidence[5], "delays")
	assert.Contains(t, breakdown.Evidence[6], "blockers")
	assert.Contains(t, breakdown.Evidence[7], "rework")
}

func TestScoreEvidenceDeterministic(t *testing.T) {
	cfg := neutralConfig()
	cfg.RoleWeights = map[string]map[string]float64{
		"default": {"commits": 2, "reviews": 3, "issues_closed": 5, "messages": 0.5},
	}
	scorer := NewScorer(cfg)

	vars := types.ActivityVariables{
		UserID: "alice",
		Period: "2026-08",
		Activities: map[string]float64{
			"messages": 40, "commits": 10, "issues_closed": 2, "reviews": 4,
		},
		DifficultyFactor: 1,
	}

	first, err := scorer.Score(vars)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := scorer.Score(vars)
		require.NoError(t, err)
		assert.Equal(t, first.Evidence, again.Evidence)
		assert.Equal(t, first.RawScore, again.RawScore)
	}
}

func TestScorePropagatesValidationErrors(t *testing.T) {
	scorer := NewScorer(neutralConfig())

	_, err := scorer.Score(types.ActivityVariables{
		UserID:           "alice",
		Period:           "2026-08",
		BasePoints:       100,
		DifficultyFactor: 1,
		PeerReviewScore:  -0.5,
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidVariable(err))
}
