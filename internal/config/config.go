// Package config defines the engine configuration surface.
//
// Every formula coefficient lives here, never in code: the scoring formula
// is public and auditable, and different deployments tune it differently.
package config

import "time"

// ScoringConfig carries the composite-scorer coefficients.
type ScoringConfig struct {
	// Multiplier coefficients: quality = 1 + alpha*R + beta*S,
	// collaboration = 1 + gamma*K, recognition = 1 + delta*log(1+U).
	Alpha float64 `koanf:"alpha"`
	Beta  float64 `koanf:"beta"`
	Gamma float64 `koanf:"gamma"`
	Delta float64 `koanf:"delta"`

	// Penalty weights: penalty = lambda_delays*D + lambda_blockers*F +
	// lambda_rework*Rw.
	LambdaDelays   float64 `koanf:"lambda_delays"`
	LambdaBlockers float64 `koanf:"lambda_blockers"`
	LambdaRework   float64 `koanf:"lambda_rework"`

	// RoleWeights maps role -> activity type -> weight. Roles absent from
	// the map fall back to the "default" entry; activity types absent from
	// a role's vector fall back to DefaultWeight.
	RoleWeights   map[string]map[string]float64 `koanf:"role_weights"`
	DefaultWeight float64                       `koanf:"default_weight"`
}

// NormalizeConfig carries the team-normalizer policy knobs.
type NormalizeConfig struct {
	// MinTeamSize disables percentile ranking below this roster size.
	MinTeamSize int `koanf:"min_team_size"`

	// DispersionCeiling flags the team as unstable when the Gini index of
	// raw scores exceeds it.
	DispersionCeiling float64 `koanf:"dispersion_ceiling"`
}

// IndicatorConfig carries the derived-indicator thresholds.
type IndicatorConfig struct {
	// WorkloadShareThreshold is the share of team base work above which a
	// member's burnout risk starts rising.
	WorkloadShareThreshold float64 `koanf:"workload_share_threshold"`

	// BurnoutHighThreshold marks burnout risk as an attrition trigger.
	BurnoutHighThreshold float64 `koanf:"burnout_high_threshold"`

	// TrendWindow is the number of trailing periods trend slopes are
	// computed over.
	TrendWindow int `koanf:"trend_window"`

	// PromotionFloor caps promotion readiness when the score trend is not
	// positive over TrendWindow periods.
	PromotionFloor float64 `koanf:"promotion_floor"`

	// Promotion readiness blend weights over percentile, mentorship
	// contribution, and trend slope.
	PromotionPercentileWeight float64 `koanf:"promotion_percentile_weight"`
	PromotionMentorshipWeight float64 `koanf:"promotion_mentorship_weight"`
	PromotionTrendWeight      float64 `koanf:"promotion_trend_weight"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the history database.
	DataDir string `koanf:"data_dir"`

	// RunTimeout bounds one scoring run; pending member fetches past it
	// are canceled and marked incomplete.
	RunTimeout time.Duration `koanf:"run_timeout"`

	// MaxConcurrency caps in-flight member computations per run.
	// Zero means one goroutine per roster member.
	MaxConcurrency int `koanf:"max_concurrency"`

	// RateLimitPerMinute caps requests per client IP on the HTTP surface.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	Scoring    ScoringConfig   `koanf:"scoring"`
	Normalize  NormalizeConfig `koanf:"normalize"`
	Indicators IndicatorConfig `koanf:"indicators"`
}

// New returns a Config populated with defaults. The defaults mirror the
// methodology document: dispersion ceiling 0.3, minimum team size 3,
// workload concentration threshold 60%.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8080",
		DataDir:            "./data",
		RunTimeout:         30 * time.Second,
		MaxConcurrency:     0,
		RateLimitPerMinute: 60,
		Scoring: ScoringConfig{
			Alpha:          0.5,
			Beta:           0.3,
			Gamma:          0.2,
			Delta:          0.5,
			LambdaDelays:   10,
			LambdaBlockers: 10,
			LambdaRework:   5,
			RoleWeights: map[string]map[string]float64{
				"default": {
					"commits":       2.0,
					"reviews":       3.0,
					"issues_closed": 5.0,
					"messages":      0.5,
					"meetings":      1.0,
				},
			},
			DefaultWeight: 1.0,
		},
		Normalize: NormalizeConfig{
			MinTeamSize:       3,
			DispersionCeiling: 0.3,
		},
		Indicators: IndicatorConfig{
			WorkloadShareThreshold:    0.6,
			BurnoutHighThreshold:      70,
			TrendWindow:               3,
			PromotionFloor:            40,
			PromotionPercentileWeight: 0.5,
			PromotionMentorshipWeight: 0.3,
			PromotionTrendWeight:      0.2,
		},
	}
}

// WeightsForRole resolves the weight vector for a role, falling back to the
// "default" vector.
func (s ScoringConfig) WeightsForRole(role string) map[string]float64 {
	if w, ok := s.RoleWeights[role]; ok {
		return w
	}
	return s.RoleWeights["default"]
}

// WeightFor resolves a single activity weight for a role.
func (s ScoringConfig) WeightFor(role, activity string) float64 {
	if w, ok := s.WeightsForRole(role)[activity]; ok {
		return w
	}
	return s.DefaultWeight
}
