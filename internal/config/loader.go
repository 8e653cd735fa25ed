package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/workscorehq/workscore/internal/errors"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if WORKSCORE_CONFIG is set
//  3. env (prefix WORKSCORE_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("WORKSCORE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.NewConfigurationError("failed to load config file", err)
		}
	}

	// WORKSCORE_ADDR -> addr, WORKSCORE_SCORING.ALPHA not expressible via
	// env; nested keys use double underscores: WORKSCORE_SCORING__ALPHA.
	envProvider := env.Provider("WORKSCORE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "workscore_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.NewConfigurationError("failed to load environment", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.NewConfigurationError("failed to unmarshal config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects coefficient sets that would make the formula
// unexplainable. A run never starts on an invalid configuration.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.NewConfigurationError("addr must not be empty", nil)
	}
	if c.RunTimeout <= 0 {
		return errors.NewConfigurationError("run_timeout must be positive", nil)
	}

	s := c.Scoring
	for name, v := range map[string]float64{
		"scoring.alpha":           s.Alpha,
		"scoring.beta":            s.Beta,
		"scoring.gamma":           s.Gamma,
		"scoring.delta":           s.Delta,
		"scoring.lambda_delays":   s.LambdaDelays,
		"scoring.lambda_blockers": s.LambdaBlockers,
		"scoring.lambda_rework":   s.LambdaRework,
		"scoring.default_weight":  s.DefaultWeight,
	} {
		if v < 0 {
			return errors.NewConfigurationError(fmt.Sprintf("%s must be >= 0, got %v", name, v), nil)
		}
	}
	for role, weights := range s.RoleWeights {
		for activity, w := range weights {
			if w < 0 {
				return errors.NewConfigurationError(
					fmt.Sprintf("scoring.role_weights.%s.%s must be >= 0, got %v", role, activity, w), nil)
			}
		}
	}

	if c.Normalize.MinTeamSize < 1 {
		return errors.NewConfigurationError("normalize.min_team_size must be >= 1", nil)
	}
	if c.Normalize.DispersionCeiling <= 0 || c.Normalize.DispersionCeiling > 1 {
		return errors.NewConfigurationError("normalize.dispersion_ceiling must be in (0,1]", nil)
	}

	ind := c.Indicators
	if ind.WorkloadShareThreshold <= 0 || ind.WorkloadShareThreshold > 1 {
		return errors.NewConfigurationError("indicators.workload_share_threshold must be in (0,1]", nil)
	}
	if ind.BurnoutHighThreshold < 0 || ind.BurnoutHighThreshold > 100 {
		return errors.NewConfigurationError("indicators.burnout_high_threshold must be in [0,100]", nil)
	}
	if ind.TrendWindow < 2 {
		return errors.NewConfigurationError("indicators.trend_window must be >= 2", nil)
	}
	if ind.PromotionFloor < 0 || ind.PromotionFloor > 100 {
		return errors.NewConfigurationError("indicators.promotion_floor must be in [0,100]", nil)
	}
	blend := ind.PromotionPercentileWeight + ind.PromotionMentorshipWeight + ind.PromotionTrendWeight
	if blend <= 0 {
		return errors.NewConfigurationError("indicators promotion blend weights must sum to > 0", nil)
	}

	return nil
}
