package connector

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workscorehq/workscore/internal/errors"
	"github.com/workscorehq/workscore/internal/types"
)

func TestStaticFetch(t *testing.T) {
	c := NewStatic([]types.ActivityVariables{
		{UserID: "alice", Period: "2026-08", BasePoints: 100},
		{UserID: "alice", Period: "2026-07", BasePoints: 90},
		{UserID: "bob", Period: "2026-08", BasePoints: 80},
	})

	vars, err := c.FetchActivity(context.Background(), "alice", "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 100.0, vars.BasePoints)

	vars, err = c.FetchActivity(context.Background(), "alice", "2026-07")
	require.NoError(t, err)
	assert.Equal(t, 90.0, vars.BasePoints)
}

func TestStaticFetchMissing(t *testing.T) {
	c := NewStatic(nil)

	_, err := c.FetchActivity(context.Background(), "ghost", "2026-08")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNotFound, errors.ToAppError(err).Category)
}

func TestStaticHonorsCanceledContext(t *testing.T) {
	c := NewStatic([]types.ActivityVariables{{UserID: "alice", Period: "2026-08"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchActivity(ctx, "alice", "2026-08")
	assert.ErrorIs(t, err, context.Canceled)
}

// flaky fails the first n fetches with a retryable error.
type flaky struct {
	inner Connector
	fails int32
}

func (f *flaky) FetchActivity(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
	if atomic.AddInt32(&f.fails, -1) >= 0 {
		return types.ActivityVariables{}, errors.NewInternalError("transient backend failure", nil)
	}
	return f.inner.FetchActivity(ctx, userID, period)
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestResilientRetriesTransientFailures(t *testing.T) {
	inner := &flaky{
		inner: NewStatic([]types.ActivityVariables{{UserID: "alice", Period: "2026-08", BasePoints: 100}}),
		fails: 2,
	}
	r := NewResilient(inner, fastRetryConfig(), 0)

	vars, err := r.FetchActivity(context.Background(), "alice", "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 100.0, vars.BasePoints)
}

func TestResilientGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flaky{
		inner: NewStatic(nil),
		fails: 100,
	}
	r := NewResilient(inner, fastRetryConfig(), 0)

	_, err := r.FetchActivity(context.Background(), "alice", "2026-08")
	require.Error(t, err)
	assert.Equal(t, int32(100-3), atomic.LoadInt32(&inner.fails))
}

// Not-found is not retryable: the same lookup fails the same way.
func TestResilientDoesNotRetryNotFound(t *testing.T) {
	calls := int32(0)
	inner := connectorFunc(func(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
		atomic.AddInt32(&calls, 1)
		return types.ActivityVariables{}, errors.NewNotFound("no such user")
	})
	r := NewResilient(inner, fastRetryConfig(), 0)

	_, err := r.FetchActivity(context.Background(), "ghost", "2026-08")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

type connectorFunc func(ctx context.Context, userID, period string) (types.ActivityVariables, error)

func (f connectorFunc) FetchActivity(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
	return f(ctx, userID, period)
}

func TestCachedMemoizesSuccessfulFetches(t *testing.T) {
	calls := int32(0)
	inner := connectorFunc(func(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
		atomic.AddInt32(&calls, 1)
		return types.ActivityVariables{UserID: userID, Period: period, BasePoints: 100}, nil
	})
	c := NewCached(inner, time.Minute)

	for i := 0; i < 5; i++ {
		vars, err := c.FetchActivity(context.Background(), "alice", "2026-08")
		require.NoError(t, err)
		assert.Equal(t, 100.0, vars.BasePoints)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, c.Len())
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	calls := int32(0)
	inner := connectorFunc(func(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
		atomic.AddInt32(&calls, 1)
		return types.ActivityVariables{}, errors.NewNotFound("no such user")
	})
	c := NewCached(inner, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := c.FetchActivity(context.Background(), "ghost", "2026-08")
		require.Error(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Zero(t, c.Len())
}

func TestCachedExpiry(t *testing.T) {
	calls := int32(0)
	inner := connectorFunc(func(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
		atomic.AddInt32(&calls, 1)
		return types.ActivityVariables{UserID: userID, Period: period}, nil
	})
	c := NewCached(inner, 10*time.Millisecond)

	_, err := c.FetchActivity(context.Background(), "alice", "2026-08")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = c.FetchActivity(context.Background(), "alice", "2026-08")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
