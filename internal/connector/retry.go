package connector

import (
	"context"
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/workscorehq/workscore/internal/errors"
	"github.com/workscorehq/workscore/internal/types"
)

// RetryConfig holds configuration for retry behavior against a flaky
// connector backend.
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled"`
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Resilient wraps a Connector with client-side rate limiting and
// exponential-backoff retries. Validation errors never retry; the same
// variables will fail the same checks every time.
type Resilient struct {
	inner   Connector
	cfg     RetryConfig
	limiter *rate.Limiter
}

// NewResilient wraps inner. ratePerSecond <= 0 disables rate limiting.
func NewResilient(inner Connector, cfg RetryConfig, ratePerSecond float64) *Resilient {
	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), int(math.Ceil(ratePerSecond)))
	}
	return &Resilient{inner: inner, cfg: cfg, limiter: limiter}
}

// FetchActivity implements Connector.
func (r *Resilient) FetchActivity(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
	var lastErr error

	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return types.ActivityVariables{}, err
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return types.ActivityVariables{}, err
			}
		}

		vars, err := r.inner.FetchActivity(ctx, userID, period)
		if err == nil {
			return vars, nil
		}
		lastErr = err

		if !errors.IsRetryable(err) {
			break
		}
		if attempt == r.cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return types.ActivityVariables{}, ctx.Err()
		case <-time.After(r.delay(attempt)):
		}
	}

	return types.ActivityVariables{}, lastErr
}

// delay computes the backoff for the next attempt.
func (r *Resilient) delay(attempt int) time.Duration {
	delay := time.Duration(float64(r.cfg.InitialDelay) * math.Pow(r.cfg.BackoffFactor, float64(attempt)))
	if delay > r.cfg.MaxDelay {
		delay = r.cfg.MaxDelay
	}
	if r.cfg.JitterEnabled && delay > 0 {
		// Up to 10% jitter to avoid synchronized retries across members.
		delay += time.Duration(rand.Int63n(int64(delay/10) + 1))
	}
	return delay
}
