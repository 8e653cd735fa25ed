// Package engine orchestrates a scoring run: concurrent fan-out per roster
// member, a synchronization barrier before team-level computation, and a
// deterministic, sorted result set. Two runs over identical inputs are
// byte-for-byte reproducible.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/workscorehq/workscore/internal/config"
	"github.com/workscorehq/workscore/internal/connector"
	"github.com/workscorehq/workscore/internal/errors"
	"github.com/workscorehq/workscore/internal/history"
	"github.com/workscorehq/workscore/internal/indicators"
	"github.com/workscorehq/workscore/internal/monitoring"
	"github.com/workscorehq/workscore/internal/normalize"
	"github.com/workscorehq/workscore/internal/scoring"
	"github.com/workscorehq/workscore/internal/types"
)

// RunRequest identifies one scoring run.
type RunRequest struct {
	TeamID string   `json:"team_id"`
	Period string   `json:"period"`
	Roster []string `json:"roster"`
}

// RunResult is the externally visible outcome of a run. Results carry one
// entry per roster member, sorted by user id.
type RunResult struct {
	RunID     string                `json:"run_id"`
	TeamID    string                `json:"team_id"`
	Period    string                `json:"period"`
	Results   []types.ScoringResult `json:"results"`
	CreatedAt time.Time             `json:"created_at"`
}

// HistoryStore is the slice of the history package the orchestrator needs.
type HistoryStore interface {
	AppendRun(ctx context.Context, run history.Run, records []history.Record) error
	HistoryBefore(ctx context.Context, userID, period string) ([]history.Record, error)
}

// Orchestrator owns the lifecycle of ScoringResult objects for a run. The
// normalizer and indicator engine only read and annotate breakdowns.
type Orchestrator struct {
	cfg        *config.Config
	conn       connector.Connector
	store      HistoryStore
	scorer     *scoring.Scorer
	normalizer *normalize.Normalizer
	deriver    *indicators.Engine
	metrics    *monitoring.Metrics
	logger     *monitoring.Logger

	// group guarantees at most one in-flight computation per
	// (user, period) pair across concurrent runs.
	group singleflight.Group
}

// New validates the configuration and wires the orchestrator. A
// configuration error here is fatal: no run starts on an unexplainable
// formula.
func New(cfg *config.Config, conn connector.Connector, store HistoryStore, metrics *monitoring.Metrics, logger *monitoring.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = monitoring.NewLogger(cfg.LogLevel)
	}
	return &Orchestrator{
		cfg:        cfg,
		conn:       conn,
		store:      store,
		scorer:     scoring.NewScorer(cfg.Scoring),
		normalizer: normalize.NewNormalizer(cfg.Normalize),
		deriver:    indicators.NewEngine(cfg.Indicators),
		metrics:    metrics,
		logger:     logger,
	}, nil
}

type memberOutcome struct {
	userID    string
	vars      types.ActivityVariables
	breakdown types.ScoreBreakdown
	err       error
}

// Run executes one scoring run. A single member's failure never aborts the
// batch: that member is marked incomplete with a reason and the rest of
// the team is still scored, normalized, and recorded.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	start := time.Now()

	if req.TeamID == "" {
		return nil, errors.NewInvalidVariable("team_id", "team_id must not be empty")
	}
	if req.Period == "" {
		return nil, errors.NewInvalidVariable("period", "period must not be empty")
	}
	if len(req.Roster) == 0 {
		return nil, errors.NewInvalidVariable("roster", "roster must not be empty")
	}

	roster := dedupe(req.Roster)

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	outcomes := o.fanOut(runCtx, roster, req.Period)

	// Barrier passed: everything below is single-threaded and reads the
	// per-member breakdowns without mutating them.
	var members []normalize.Member
	var teamBaseWork float64
	var raws []float64
	for _, oc := range outcomes {
		if oc.err != nil {
			continue
		}
		members = append(members, normalize.Member{UserID: oc.userID, Breakdown: oc.breakdown})
		teamBaseWork += oc.breakdown.BaseWork
		raws = append(raws, oc.breakdown.RawScore)
	}
	normalized := o.normalizer.Normalize(req.TeamID, members)
	teamMedian := normalize.Median(raws)

	results := make([]types.ScoringResult, 0, len(outcomes))
	records := make([]history.Record, 0, len(members))
	runID := uuid.New().String()
	now := time.Now().UTC()
	incomplete := 0

	for _, oc := range outcomes {
		if oc.err != nil {
			incomplete++
			appErr := errors.ToAppError(oc.err)
			results = append(results, types.ScoringResult{
				UserID: oc.userID,
				Period: req.Period,
				Status: types.StatusIncomplete,
				Reason: appErr.Error(),
			})
			if o.metrics != nil {
				o.metrics.ObserveMember(types.StatusIncomplete)
			}
			continue
		}

		norm := normalized[oc.userID]
		derived := o.derive(runCtx, oc, norm, teamBaseWork, teamMedian)

		breakdown := oc.breakdown
		results = append(results, types.ScoringResult{
			UserID:     oc.userID,
			Period:     req.Period,
			Status:     types.StatusComplete,
			Breakdown:  &breakdown,
			Normalized: &norm,
			Indicators: &derived,
		})
		records = append(records, history.Record{
			UserID:             oc.userID,
			Period:             req.Period,
			RawScore:           oc.breakdown.RawScore,
			PenaltyTotal:       oc.breakdown.PenaltyTotal,
			UnresolvedBlockers: oc.vars.UnresolvedBlockers,
			KudosCount:         oc.vars.KudosCount,
			Breakdown:          oc.breakdown,
			RunID:              runID,
			CreatedAt:          now,
		})
		if o.metrics != nil {
			o.metrics.ObserveMember(types.StatusComplete)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].UserID < results[j].UserID })

	// Single writer: the history append happens once, after the barrier.
	// The run context may already be past its deadline, so the append uses
	// the caller's context.
	if o.store != nil && len(records) > 0 {
		if err := o.store.AppendRun(ctx, history.Run{
			RunID:     runID,
			TeamID:    req.TeamID,
			Period:    req.Period,
			CreatedAt: now,
		}, records); err != nil {
			if o.metrics != nil {
				o.metrics.ObserveRun("error", time.Since(start))
			}
			return nil, errors.NewInternalError("failed to append score history", err)
		}
	}

	if o.metrics != nil {
		o.metrics.ObserveRun("ok", time.Since(start))
	}
	o.logger.RunLogger(runID, req.TeamID, req.Period, len(roster), incomplete, time.Since(start))

	return &RunResult{
		RunID:     runID,
		TeamID:    req.TeamID,
		Period:    req.Period,
		Results:   results,
		CreatedAt: now,
	}, nil
}

// fanOut computes every member concurrently and returns outcomes in roster
// order. Each task operates on its own copy of the variables; the only
// suspension point is the connector fetch.
func (o *Orchestrator) fanOut(ctx context.Context, roster []string, period string) []memberOutcome {
	outcomes := make([]memberOutcome, len(roster))

	var sem chan struct{}
	if o.cfg.MaxConcurrency > 0 {
		sem = make(chan struct{}, o.cfg.MaxConcurrency)
	}

	done := make(chan struct{})
	for i, userID := range roster {
		go func(i int, userID string) {
			defer func() { done <- struct{}{} }()

			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					outcomes[i] = memberOutcome{userID: userID, err: ctx.Err()}
					return
				}
			}

			outcomes[i] = o.scoreMember(ctx, userID, period)
		}(i, userID)
	}
	for range roster {
		<-done
	}
	return outcomes
}

// scoreMember fetches, validates, and scores one member. Deduplicated per
// (user, period) so concurrent runs never compute the same pair twice.
func (o *Orchestrator) scoreMember(ctx context.Context, userID, period string) memberOutcome {
	v, err, _ := o.group.Do(userID+"|"+period, func() (interface{}, error) {
		vars, err := o.conn.FetchActivity(ctx, userID, period)
		if err != nil {
			return nil, err
		}
		if err := vars.Validate(); err != nil {
			return nil, err
		}
		vars.ClampRatios()

		breakdown, err := o.scorer.Score(vars)
		if err != nil {
			return nil, err
		}
		return memberOutcome{userID: userID, vars: vars, breakdown: breakdown}, nil
	})
	if err != nil {
		return memberOutcome{userID: userID, err: err}
	}
	return v.(memberOutcome)
}

// derive assembles the indicator inputs from the history store. A failed
// history read degrades to an empty trend (reported as insufficient
// history) rather than failing a member that already scored.
func (o *Orchestrator) derive(ctx context.Context, oc memberOutcome, norm types.NormalizedScore, teamBaseWork, teamMedian float64) types.DerivedIndicators {
	var past []history.Record
	if o.store != nil {
		var err error
		past, err = o.store.HistoryBefore(ctx, oc.userID, oc.vars.Period)
		if err != nil {
			o.logger.Warn("history read failed, deriving without trend",
				"user_id", oc.userID, "error", err)
			past = nil
		}
	}

	blockers := make([]int, len(past))
	kudos := make([]int, len(past))
	for i, r := range past {
		blockers[i] = r.UnresolvedBlockers
		kudos[i] = r.KudosCount
	}

	return o.deriver.Derive(indicators.Input{
		Vars:          oc.vars,
		Breakdown:     oc.breakdown,
		Normalized:    norm,
		TeamBaseWork:  teamBaseWork,
		TeamMedianRaw: teamMedian,
		History:       history.Points(past),
		BlockerTrend:  blockers,
		KudosTrend:    kudos,
	})
}

// dedupe drops duplicate roster entries, preserving first-seen order.
func dedupe(roster []string) []string {
	seen := make(map[string]bool, len(roster))
	out := make([]string, 0, len(roster))
	for _, id := range roster {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
