// Package indicators derives burnout risk, attrition risk, and promotion
// readiness from scored variables plus append-only score history. All rules
// are threshold- and trend-based; nothing here is stochastic, because a
// number that feeds compensation decisions must reproduce exactly.
package indicators

import (
	"fmt"

	"github.com/workscorehq/workscore/internal/config"
	"github.com/workscorehq/workscore/internal/types"
)

// Input is everything the engine needs for one member. History slices are
// chronological and exclude the current period; the current observation is
// appended internally.
type Input struct {
	Vars       types.ActivityVariables
	Breakdown  types.ScoreBreakdown
	Normalized types.NormalizedScore

	// Team context for the current period.
	TeamBaseWork  float64
	TeamMedianRaw float64

	// Past periods from the history store.
	History      []types.HistoryPoint
	BlockerTrend []int
	KudosTrend   []int
}

// Engine computes DerivedIndicators. It reads breakdowns and history, never
// mutates them.
type Engine struct {
	cfg config.IndicatorConfig
}

// NewEngine creates an indicator engine with the given thresholds.
func NewEngine(cfg config.IndicatorConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Derive computes all three indicators for one member.
func (e *Engine) Derive(in Input) types.DerivedIndicators {
	series := append(append([]types.HistoryPoint(nil), in.History...), types.HistoryPoint{
		Period:   in.Vars.Period,
		RawScore: in.Breakdown.RawScore,
	})
	blockers := append(append([]int(nil), in.BlockerTrend...), in.Vars.UnresolvedBlockers)
	kudos := append(append([]int(nil), in.KudosTrend...), in.Vars.KudosCount)

	trendStatus := types.TrendOK
	if len(series) < 2 {
		trendStatus = types.TrendInsufficientHistory
	}

	burnout := e.burnoutRisk(in, blockers)
	level, triggers := e.attritionRisk(in, burnout, series, kudos, trendStatus)
	promotion := e.promotionReadiness(in, series, trendStatus)

	return types.DerivedIndicators{
		BurnoutRisk:        burnout,
		AttritionRisk:      level,
		AttritionTriggers:  triggers,
		PromotionReadiness: promotion,
		TrendStatus:        trendStatus,
		ScoreHistory:       series,
	}
}

// burnoutRisk combines workload concentration with the blocker trend.
// Crossing the workload-share threshold alone is a red flag and lands the
// risk at 70+; below the threshold the share contributes sub-critically.
func (e *Engine) burnoutRisk(in Input, blockers []int) float64 {
	var risk float64

	if in.TeamBaseWork > 0 {
		share := in.Breakdown.BaseWork / in.TeamBaseWork
		t := e.cfg.WorkloadShareThreshold
		if share > t {
			risk = 70 + 30*(share-t)/(1-t)
		} else {
			risk = 40 * share / t
		}
	}

	if rising(tail(blockers, e.cfg.TrendWindow)) {
		risk += 20
	}

	if risk < 0 {
		return 0
	}
	if risk > 100 {
		return 100
	}
	return risk
}

// attritionRisk applies the decision table. Each trigger is reported with
// its condition so the category is never a bare verdict.
func (e *Engine) attritionRisk(in Input, burnout float64, series []types.HistoryPoint, kudos []int, trendStatus string) (types.AttritionLevel, []string) {
	var triggers []string

	if burnout >= e.cfg.BurnoutHighThreshold {
		triggers = append(triggers, fmt.Sprintf(
			"burnout risk %.0f at or above threshold %.0f", burnout, e.cfg.BurnoutHighThreshold))
	}

	if trendStatus == types.TrendOK {
		window := tail(series, e.cfg.TrendWindow)
		ys := make([]float64, len(window))
		for i, p := range window {
			ys[i] = p.RawScore
		}
		// Declining trend despite a strong raw score marks the undervalued
		// high performer, the profile most likely to walk.
		if slope(ys) < 0 && in.Breakdown.RawScore >= in.TeamMedianRaw {
			triggers = append(triggers, "score declining despite raw score at or above team median")
		}

		var recentKudos int
		for _, k := range tail(kudos, e.cfg.TrendWindow) {
			recentKudos += k
		}
		if recentKudos == 0 && in.Breakdown.BaseWork > 0 {
			triggers = append(triggers, fmt.Sprintf(
				"no peer kudos over the last %d periods despite visible work", e.cfg.TrendWindow))
		}
	}

	switch {
	case len(triggers) >= 2:
		return types.AttritionHigh, triggers
	case len(triggers) == 1:
		return types.AttritionMedium, triggers
	default:
		return types.AttritionLow, nil
	}
}

// promotionReadiness blends percentile, mentorship-style collaboration, and
// the history trend slope. Monotone in each input. Readiness above the
// configured floor requires a positive slope over at least three periods.
func (e *Engine) promotionReadiness(in Input, series []types.HistoryPoint, trendStatus string) float64 {
	percentile := in.Normalized.Percentile
	if !in.Normalized.Ranked {
		// Unranked members get a neutral percentile component rather than
		// a misleading 0 or 100.
		percentile = 50
	}

	mentorship := in.Vars.KnowledgeIndex * 25
	if mentorship > 100 {
		mentorship = 100
	}

	window := tail(series, e.cfg.TrendWindow)
	ys := make([]float64, len(window))
	for i, p := range window {
		ys[i] = p.RawScore
	}
	trendSlope := slope(ys)

	trendComponent := 50 + trendSlope
	if trendComponent < 0 {
		trendComponent = 0
	}
	if trendComponent > 100 {
		trendComponent = 100
	}

	wp := e.cfg.PromotionPercentileWeight
	wm := e.cfg.PromotionMentorshipWeight
	wt := e.cfg.PromotionTrendWeight
	readiness := (wp*percentile + wm*mentorship + wt*trendComponent) / (wp + wm + wt)

	// Without a sustained positive trend the score stays capped: a single
	// good period is not readiness.
	sustained := trendStatus == types.TrendOK && len(series) >= 3 && trendSlope > 0
	if !sustained && readiness > e.cfg.PromotionFloor {
		readiness = e.cfg.PromotionFloor
	}

	if readiness < 0 {
		return 0
	}
	if readiness > 100 {
		return 100
	}
	return readiness
}
