package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := New()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Normalize.MinTeamSize)
	assert.InDelta(t, 0.3, cfg.Normalize.DispersionCeiling, 1e-9)
	assert.InDelta(t, 0.6, cfg.Indicators.WorkloadShareThreshold, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.RunTimeout)
}

func TestValidateRejectsBadCoefficients(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative alpha", func(c *Config) { c.Scoring.Alpha = -0.1 }},
		{"negative lambda", func(c *Config) { c.Scoring.LambdaDelays = -1 }},
		{"negative role weight", func(c *Config) {
			c.Scoring.RoleWeights["default"]["commits"] = -2
		}},
		{"zero team size", func(c *Config) { c.Normalize.MinTeamSize = 0 }},
		{"dispersion ceiling above one", func(c *Config) { c.Normalize.DispersionCeiling = 1.5 }},
		{"dispersion ceiling zero", func(c *Config) { c.Normalize.DispersionCeiling = 0 }},
		{"share threshold above one", func(c *Config) { c.Indicators.WorkloadShareThreshold = 1.2 }},
		{"trend window too short", func(c *Config) { c.Indicators.TrendWindow = 1 }},
		{"zero blend weights", func(c *Config) {
			c.Indicators.PromotionPercentileWeight = 0
			c.Indicators.PromotionMentorshipWeight = 0
			c.Indicators.PromotionTrendWeight = 0
		}},
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"zero run timeout", func(c *Config) { c.RunTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWeightResolution(t *testing.T) {
	s := ScoringConfig{
		RoleWeights: map[string]map[string]float64{
			"default": {"commits": 2, "reviews": 3},
			"manager": {"meetings": 4},
		},
		DefaultWeight: 1,
	}

	// Known role, known activity.
	assert.Equal(t, 4.0, s.WeightFor("manager", "meetings"))
	// Unknown role falls back to the default vector.
	assert.Equal(t, 2.0, s.WeightFor("engineer", "commits"))
	// Unknown activity falls back to DefaultWeight.
	assert.Equal(t, 1.0, s.WeightFor("manager", "commits"))
	assert.Equal(t, 1.0, s.WeightFor("engineer", "pager_duty"))
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
scoring:
  alpha: 0.7
  delta: 0.1
normalize:
  min_team_size: 5
`), 0644))

	t.Setenv("WORKSCORE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 0.7, cfg.Scoring.Alpha, 1e-9)
	assert.InDelta(t, 0.1, cfg.Scoring.Delta, 1e-9)
	assert.Equal(t, 5, cfg.Normalize.MinTeamSize)

	// Untouched keys keep their defaults.
	assert.InDelta(t, 0.3, cfg.Scoring.Beta, 1e-9)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9000\"\n"), 0644))

	t.Setenv("WORKSCORE_CONFIG", path)
	t.Setenv("WORKSCORE_ADDR", ":7070")
	t.Setenv("WORKSCORE_SCORING__ALPHA", "0.9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.InDelta(t, 0.9, cfg.Scoring.Alpha, 1e-9)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring:\n  alpha: -1\n"), 0644))

	t.Setenv("WORKSCORE_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv("WORKSCORE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
