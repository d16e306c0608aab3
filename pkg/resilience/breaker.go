// Package resilience implements the distributed circuit breaker and rate
// limiter that gate every outbound collaborator and the HTTP edge. Both
// primitives persist their state in Redis so that every process sharing a
// tenant sees the same breaker/limiter decision, not just the local one.
package resilience

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/config"
)

// timeNow is overridden in tests to control breaker/limiter clocks.
var timeNow = time.Now

// BreakerState is CLOSED, OPEN, or HALF_OPEN.
type BreakerState string

const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// breakerSnapshot is the JSON shape persisted at circuit_breaker:{key}.
type breakerSnapshot struct {
	State           BreakerState `json:"state"`
	FailureCount    int          `json:"failureCount"`
	LastFailureTime int64        `json:"lastFailureTime"` // unix millis
	NextAttemptTime int64        `json:"nextAttemptTime"` // unix millis
	SuccessCount    int          `json:"successCount"`
	TotalCalls      int64        `json:"totalCalls"`
}

// Breaker is a single named circuit-breaker policy backed by Redis.
type Breaker struct {
	name   string
	rdb    *redis.Client
	tier   config.BreakerTier
	nowFn  func() time.Time
}

// NewBreaker builds a breaker for the named preset tier. name identifies
// both the tier config to use and the key namespace (e.g. "database",
// "external_api", "ai_service", "file_storage").
func NewBreaker(rdb *redis.Client, name string, tier config.BreakerTier) *Breaker {
	return &Breaker{name: name, rdb: rdb, tier: tier, nowFn: timeNow}
}

func (b *Breaker) key() string { return fmt.Sprintf("circuit_breaker:%s", b.name) }

// ttl is the bound on how long a breaker snapshot may idle in the cache
// before Redis reclaims it: long enough to span a monitoring window plus
// one recovery timeout, so a stalled key never outlives the policy that
// created it.
func (b *Breaker) ttl() time.Duration {
	return b.tier.MonitoringPeriod + b.tier.RecoveryTimeout
}

func (b *Breaker) load(ctx context.Context) (*breakerSnapshot, error) {
	raw, err := b.rdb.Get(ctx, b.key()).Bytes()
	if err == redis.Nil {
		return &breakerSnapshot{State: StateClosed}, nil
	}
	if err != nil {
		return nil, apperr.Transient("load circuit breaker state", err)
	}
	var snap breakerSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, apperr.Transient("decode circuit breaker state", err)
	}
	return &snap, nil
}

func (b *Breaker) save(ctx context.Context, snap *breakerSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return apperr.Fatal("encode circuit breaker state", err)
	}
	if err := b.rdb.Set(ctx, b.key(), raw, b.ttl()).Err(); err != nil {
		return apperr.Transient("save circuit breaker state", err)
	}
	return nil
}

// Allow reports whether a call may proceed under the breaker's current
// state, transitioning OPEN → HALF_OPEN when the recovery timeout has
// elapsed. Returns apperr.KindCircuitOpen when the call must be rejected.
func (b *Breaker) Allow(ctx context.Context) error {
	snap, err := b.load(ctx)
	if err != nil {
		return err
	}
	now := b.nowFn().UnixMilli()

	switch snap.State {
	case StateOpen:
		if now < snap.NextAttemptTime {
			return apperr.New(apperr.KindCircuitOpen, fmt.Sprintf("breaker %q is open", b.name))
		}
		snap.State = StateHalfOpen
		snap.SuccessCount = 0
		return b.save(ctx, snap)
	case StateHalfOpen:
		if snap.SuccessCount >= b.tier.HalfOpenMaxCalls {
			return apperr.New(apperr.KindCircuitOpen, fmt.Sprintf("breaker %q half-open probe limit reached", b.name))
		}
		return nil
	default: // CLOSED
		return nil
	}
}

// RecordSuccess marks a call that completed without error.
func (b *Breaker) RecordSuccess(ctx context.Context) error {
	snap, err := b.load(ctx)
	if err != nil {
		return err
	}
	snap.TotalCalls++

	if snap.State == StateHalfOpen {
		snap.SuccessCount++
		if snap.SuccessCount >= b.tier.HalfOpenMaxCalls {
			snap.State = StateClosed
			snap.FailureCount = 0
			snap.SuccessCount = 0
		}
	}
	return b.save(ctx, snap)
}

// RecordFailure marks a call that failed, applying the CLOSED/HALF_OPEN
// transition rules for the configured (F, R, M, H) policy.
func (b *Breaker) RecordFailure(ctx context.Context) error {
	snap, err := b.load(ctx)
	if err != nil {
		return err
	}
	now := b.nowFn()
	nowMillis := now.UnixMilli()
	snap.TotalCalls++

	switch snap.State {
	case StateHalfOpen:
		snap.State = StateOpen
		snap.NextAttemptTime = nowMillis + b.tier.RecoveryTimeout.Milliseconds()
		snap.FailureCount++
		snap.LastFailureTime = nowMillis
	default: // CLOSED
		if snap.LastFailureTime != 0 && now.Sub(time.UnixMilli(snap.LastFailureTime)) > b.tier.MonitoringPeriod {
			snap.FailureCount = 1
		} else {
			snap.FailureCount++
		}
		snap.LastFailureTime = nowMillis
		if snap.FailureCount >= b.tier.FailureThreshold {
			snap.State = StateOpen
			snap.NextAttemptTime = nowMillis + b.tier.RecoveryTimeout.Milliseconds()
		}
	}
	return b.save(ctx, snap)
}

// Do runs fn if the breaker allows the call, recording the outcome.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.Allow(ctx); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		if recErr := b.RecordFailure(ctx); recErr != nil {
			return recErr
		}
		return err
	}
	return b.RecordSuccess(ctx)
}

// Registry owns one Breaker per configured tier, keyed by tier name.
type Registry struct {
	breakers map[string]*Breaker
}

// NewRegistry builds a breaker for every configured tier (preset
// names: database, external_api, ai_service, file_storage).
func NewRegistry(rdb *redis.Client, tiers map[string]config.BreakerTier) *Registry {
	reg := &Registry{breakers: make(map[string]*Breaker, len(tiers))}
	for name, tier := range tiers {
		reg.breakers[name] = NewBreaker(rdb, name, tier)
	}
	return reg
}

// Breaker returns the named breaker, or nil if no tier was configured
// under that name.
func (r *Registry) Breaker(name string) *Breaker { return r.breakers[name] }
