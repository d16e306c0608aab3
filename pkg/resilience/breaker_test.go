package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/resilience"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func databaseTier() config.BreakerTier {
	return config.BreakerTier{
		FailureThreshold: 3,
		MonitoringPeriod: 2 * time.Minute,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenMaxCalls: 2,
	}
}

func TestBreakerOpensAfterThresholdFailures(t *testing.T) {
	rdb := newTestRedis(t)
	b := resilience.NewBreaker(rdb, "database", databaseTier())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow(ctx))
		require.NoError(t, b.RecordFailure(ctx))
	}
	// third failure trips the breaker (F=3)
	require.NoError(t, b.Allow(ctx))
	require.NoError(t, b.RecordFailure(ctx))

	err := b.Allow(ctx)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindCircuitOpen))
}

func TestBreakerHalfOpenClosesAfterSuccesses(t *testing.T) {
	rdb := newTestRedis(t)
	tier := databaseTier()
	tier.RecoveryTimeout = 1 * time.Millisecond
	b := resilience.NewBreaker(rdb, "database", tier)
	ctx := context.Background()

	for i := 0; i < tier.FailureThreshold; i++ {
		require.NoError(t, b.RecordFailure(ctx))
	}
	time.Sleep(5 * time.Millisecond)

	// first Allow call transitions OPEN -> HALF_OPEN
	require.NoError(t, b.Allow(ctx))
	for i := 0; i < tier.HalfOpenMaxCalls; i++ {
		require.NoError(t, b.RecordSuccess(ctx))
	}

	require.NoError(t, b.Allow(ctx))
}

func TestBreakerDoRecordsOutcome(t *testing.T) {
	rdb := newTestRedis(t)
	b := resilience.NewBreaker(rdb, "external_api", config.BreakerTier{
		FailureThreshold: 1,
		MonitoringPeriod: time.Minute,
		RecoveryTimeout:  time.Hour,
		HalfOpenMaxCalls: 1,
	})
	ctx := context.Background()

	boom := errors.New("boom")
	err := b.Do(ctx, func(ctx context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	// breaker tripped on the first failure (F=1); next call is rejected
	err = b.Do(ctx, func(ctx context.Context) error { return nil })
	require.True(t, apperr.Is(err, apperr.KindCircuitOpen))
}

func TestRegistryBuildsOneBreakerPerTier(t *testing.T) {
	rdb := newTestRedis(t)
	reg := resilience.NewRegistry(rdb, map[string]config.BreakerTier{
		"database":     databaseTier(),
		"external_api": {FailureThreshold: 5, MonitoringPeriod: 5 * time.Minute, RecoveryTimeout: time.Minute, HalfOpenMaxCalls: 3},
	})
	require.NotNil(t, reg.Breaker("database"))
	require.NotNil(t, reg.Breaker("external_api"))
	require.Nil(t, reg.Breaker("unknown"))
}
