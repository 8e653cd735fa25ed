package types

// Member computation status values.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

// Normalization status values.
const (
	RankOK             = "ok"
	RankTeamTooSmall   = "team_too_small"
	RankHighDispersion = "high_dispersion"
)

// Trend status values for history-dependent indicators.
const (
	TrendOK                  = "ok"
	TrendInsufficientHistory = "insufficient_history"
)

// AttritionLevel is the categorical attrition risk.
type AttritionLevel string

const (
	AttritionLow    AttritionLevel = "Low"
	AttritionMedium AttritionLevel = "Medium"
	AttritionHigh   AttritionLevel = "High"
)

// ActivityVariables is the normalized per-user input for one scoring period.
// Records arrive from the connector layer and are treated as untrusted until
// Validate has run.
type ActivityVariables struct {
	UserID string `json:"user_id"`
	Period string `json:"period"`

	// Role selects the weight vector applied to Activities.
	Role string `json:"role,omitempty"`

	// Activities holds raw per-type counts (commits, issues_closed, ...).
	// When empty, BasePoints is used as the pre-weighted base directly.
	Activities map[string]float64 `json:"activities,omitempty"`
	BasePoints float64            `json:"base_points"`

	DifficultyFactor float64 `json:"difficulty_factor"`

	// Ratios, clamped to [0,1] at ingestion.
	PeerReviewScore float64 `json:"peer_review_score"`
	StabilityRate   float64 `json:"stability_rate"`

	KnowledgeIndex float64 `json:"knowledge_index"`
	KudosCount     int     `json:"kudos_count"`

	// Friction signals feeding the blocker penalty.
	DelaysCaused       int `json:"delays_caused"`
	ReworkCount        int `json:"rework_count"`
	UnresolvedBlockers int `json:"unresolved_blockers"`
}

// ScoreBreakdown is the audited decomposition of one raw score. Immutable
// once computed for a period; a new period produces a new breakdown.
type ScoreBreakdown struct {
	BaseWork                float64  `json:"base_work"`
	QualityMultiplier       float64  `json:"quality_multiplier"`
	CollaborationMultiplier float64  `json:"collaboration_multiplier"`
	RecognitionMultiplier   float64  `json:"recognition_multiplier"`
	PenaltyTotal            float64  `json:"penalty_total"`
	RawScore                float64  `json:"raw_score"`
	Evidence                []string `json:"evidence"`
}

// NormalizedScore is the team-relative view of one raw score.
type NormalizedScore struct {
	RawScore        float64 `json:"raw_score"`
	Percentile      float64 `json:"team_relative_percentile"`
	Ranked          bool    `json:"ranked"`
	TeamID          string  `json:"team_id"`
	DispersionIndex float64 `json:"dispersion_index"`
	Status          string  `json:"status"`
}

// HistoryPoint is one append-only history entry.
type HistoryPoint struct {
	Period   string  `json:"period"`
	RawScore float64 `json:"raw_score"`
}

// DerivedIndicators are the secondary signals computed from the same inputs
// plus score history.
type DerivedIndicators struct {
	BurnoutRisk        float64        `json:"burnout_risk"`
	AttritionRisk      AttritionLevel `json:"attrition_risk"`
	AttritionTriggers  []string       `json:"attrition_triggers,omitempty"`
	PromotionReadiness float64        `json:"promotion_readiness"`
	TrendStatus        string         `json:"trend_status"`
	ScoreHistory       []HistoryPoint `json:"score_history"`
}

// ScoringResult is the externally visible aggregate for one roster member.
// Created per run, read-only afterward.
type ScoringResult struct {
	UserID     string             `json:"user_id"`
	Period     string             `json:"period"`
	Status     string             `json:"status"`
	Reason     string             `json:"reason,omitempty"`
	Breakdown  *ScoreBreakdown    `json:"breakdown,omitempty"`
	Normalized *NormalizedScore   `json:"normalized,omitempty"`
	Indicators *DerivedIndicators `json:"indicators,omitempty"`
}
