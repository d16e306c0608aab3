package resilience_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/resilience"
)

func TestFixedWindowLimiterAllowsUpToLimit(t *testing.T) {
	rdb := newTestRedis(t)
	l := resilience.NewLimiter(rdb, "api_key", config.LimiterTier{
		Algorithm: "fixed_window",
		Limit:     2,
		Window:    time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "key-1")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := l.Allow(ctx, "key-1")
	require.NoError(t, err)
	require.False(t, ok)

	// a distinct subject has its own bucket
	ok, err = l.Allow(ctx, "key-2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSlidingWindowLimiterEvictsOldEntries(t *testing.T) {
	rdb := newTestRedis(t)
	l := resilience.NewLimiter(rdb, "user", config.LimiterTier{
		Algorithm: "sliding_window",
		Limit:     1,
		Window:    50 * time.Millisecond,
	})
	ctx := context.Background()

	ok, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(60 * time.Millisecond)

	ok, err = l.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLimiterRegistryAllowErr(t *testing.T) {
	rdb := newTestRedis(t)
	reg := resilience.NewLimiterRegistry(rdb, map[string]config.LimiterTier{
		"global": {Algorithm: "fixed_window", Limit: 1, Window: time.Minute},
	})

	ctx := context.Background()
	require.NoError(t, reg.AllowErr(ctx, "global", "all"))

	err := reg.AllowErr(ctx, "global", "all")
	require.Error(t, err)

	err = reg.AllowErr(ctx, "missing-tier", "subject")
	require.Error(t, err)
}
