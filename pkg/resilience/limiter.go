package resilience

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/config"
)

// Limiter is a single named rate-limit policy backed by Redis, using
// either the fixed-window or sliding-window algorithm per its tier.
type Limiter struct {
	name  string
	rdb   *redis.Client
	tier  config.LimiterTier
	nowFn func() int64 // unix millis
}

// NewLimiter builds a limiter for the named preset tier (e.g. "tenant",
// "user", "global", "api_key").
func NewLimiter(rdb *redis.Client, name string, tier config.LimiterTier) *Limiter {
	return &Limiter{name: name, rdb: rdb, tier: tier, nowFn: nowMillis}
}

func nowMillis() int64 { return timeNow().UnixMilli() }

// Allow reports whether subject may make one more call under this
// limiter's tier, consuming one unit of quota if so. A fail-open tier
// lets the call through (recording nothing further) when Redis itself
// errors, since the purpose of gating is denial-of-service protection,
// not availability enforcement.
func (l *Limiter) Allow(ctx context.Context, subject string) (bool, error) {
	var (
		allowed bool
		err     error
	)
	switch l.tier.Algorithm {
	case "sliding_window":
		allowed, err = l.allowSliding(ctx, subject)
	default:
		allowed, err = l.allowFixed(ctx, subject)
	}
	if err != nil {
		if l.tier.FailOpen {
			return true, nil
		}
		return false, err
	}
	return allowed, nil
}

func (l *Limiter) allowFixed(ctx context.Context, subject string) (bool, error) {
	windowMs := l.tier.Window.Milliseconds()
	bucket := l.nowFn() / windowMs
	key := fmt.Sprintf("rate_limit:%s:%d", subject, bucket)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.tier.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, apperr.Transient("fixed window rate limit increment", err)
	}
	return incr.Val() <= int64(l.tier.Limit), nil
}

func (l *Limiter) allowSliding(ctx context.Context, subject string) (bool, error) {
	key := fmt.Sprintf("rate_limit_sliding:%s", subject)
	now := l.nowFn()
	windowMs := l.tier.Window.Milliseconds()
	cutoff := now - windowMs

	if err := l.rdb.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", cutoff)).Err(); err != nil {
		return false, apperr.Transient("sliding window rate limit evict", err)
	}

	card, err := l.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return false, apperr.Transient("sliding window rate limit count", err)
	}
	if card >= int64(l.tier.Limit) {
		return false, nil
	}

	member := fmt.Sprintf("%d-%s", now, subject)
	if err := l.rdb.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: member}).Err(); err != nil {
		return false, apperr.Transient("sliding window rate limit insert", err)
	}
	if err := l.rdb.Expire(ctx, key, l.tier.Window).Err(); err != nil {
		return false, apperr.Transient("sliding window rate limit refresh ttl", err)
	}
	return true, nil
}

// LimiterRegistry owns one Limiter per configured tier.
type LimiterRegistry struct {
	limiters map[string]*Limiter
}

// NewLimiterRegistry builds a limiter for every configured tier (preset
// names: tenant, user, global, api_key).
func NewLimiterRegistry(rdb *redis.Client, tiers map[string]config.LimiterTier) *LimiterRegistry {
	reg := &LimiterRegistry{limiters: make(map[string]*Limiter, len(tiers))}
	for name, tier := range tiers {
		reg.limiters[name] = NewLimiter(rdb, name, tier)
	}
	return reg
}

// Limiter returns the named limiter, or nil if no tier was configured
// under that name.
func (r *LimiterRegistry) Limiter(name string) *Limiter { return r.limiters[name] }

// AllowErr is a convenience that looks up tier by name and applies it,
// returning apperr.KindRateLimited when the subject is over quota.
func (r *LimiterRegistry) AllowErr(ctx context.Context, tierName, subject string) error {
	l := r.Limiter(tierName)
	if l == nil {
		return apperr.Validation(fmt.Sprintf("unknown rate limit tier %q", tierName))
	}
	ok, err := l.Allow(ctx, subject)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.KindRateLimited, fmt.Sprintf("rate limit %q exceeded for %s", tierName, subject))
	}
	return nil
}
