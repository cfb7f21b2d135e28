// Package ratelimit implements per-(provider,service) minute/day counters
// plus a credit accumulator for paid providers, backed by the shared Redis
// cache store.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
)

const keyPrefix = "ratelimit:"

const (
	minuteTTL = time.Minute
	dayTTL    = 24 * time.Hour
	creditTTL = 30 * 24 * time.Hour
)

// Policy is the static configuration for one (provider, service) pair.
type Policy struct {
	PerMinute               int
	PerDay                  int
	CreditLimit             float64 // 0 means unmetered
	EstimatedCostPerRequest float64
}

// Status mirrors spec.md's `status(provider, service)` contract.
type Status struct {
	MinuteCount int
	DayCount    int
	Credits     float64
	Policy      Policy
}

type PolicySource interface {
	Policy(provider, service string) (Policy, bool)
}

type Limiter struct {
	rdb    *redis.Client
	policy PolicySource
}

func New(rdb *redis.Client, policy PolicySource) *Limiter {
	return &Limiter{rdb: rdb, policy: policy}
}

func minuteKey(provider, service string) string { return keyPrefix + provider + ":" + service + ":minute" }
func dayKey(provider, service string) string     { return keyPrefix + provider + ":" + service + ":day" }
func creditKey(provider, service string) string  { return keyPrefix + provider + ":" + service + ":credits" }

// Check reads the minute/day counters and credit accumulator; it denies
// when any configured limit is reached. On store failure it fails open,
// per spec.md §4.A's explicit rationale: the limiter protects provider
// quota, not correctness.
func (l *Limiter) Check(ctx context.Context, provider, service string) (allowed bool, retryAfter time.Duration, err error) {
	policy, ok := l.policy.Policy(provider, service)
	if !ok {
		// No policy configured for this (provider, service): nothing to deny against.
		return true, 0, nil
	}

	pipe := l.rdb.Pipeline()
	minuteCmd := pipe.Get(ctx, minuteKey(provider, service))
	dayCmd := pipe.Get(ctx, dayKey(provider, service))
	creditCmd := pipe.Get(ctx, creditKey(provider, service))
	minuteTTLCmd := pipe.TTL(ctx, minuteKey(provider, service))
	dayTTLCmd := pipe.TTL(ctx, dayKey(provider, service))

	if _, execErr := pipe.Exec(ctx); execErr != nil && execErr != redis.Nil {
		logger.Log.WithError(execErr).WithFields(map[string]any{
			"provider": provider, "service": service,
		}).Warn("ratelimit: store unreachable, failing open")
		return true, 0, nil
	}

	minuteCount := readIntOrZero(minuteCmd)
	dayCount := readIntOrZero(dayCmd)
	credits := readFloatOrZero(creditCmd)

	if policy.PerMinute > 0 && minuteCount >= policy.PerMinute {
		ra := minuteTTLCmd.Val()
		if ra <= 0 {
			ra = minuteTTL
		}
		return false, ra, nil
	}
	if policy.PerDay > 0 && dayCount >= policy.PerDay {
		ra := dayTTLCmd.Val()
		if ra <= 0 {
			ra = dayTTL
		}
		return false, ra, nil
	}
	if policy.CreditLimit > 0 && credits >= policy.CreditLimit {
		return false, creditTTL, nil
	}

	return true, 0, nil
}

// Increment atomically bumps the minute and day counters (arming their TTL
// on first use) and, if the policy carries a cost, the credit accumulator.
func (l *Limiter) Increment(ctx context.Context, provider, service string) error {
	policy, _ := l.policy.Policy(provider, service)

	pipe := l.rdb.TxPipeline()
	minuteIncr := pipe.Incr(ctx, minuteKey(provider, service))
	pipe.ExpireNX(ctx, minuteKey(provider, service), minuteTTL)
	dayIncr := pipe.Incr(ctx, dayKey(provider, service))
	pipe.ExpireNX(ctx, dayKey(provider, service), dayTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	_ = minuteIncr
	_ = dayIncr

	if policy.EstimatedCostPerRequest > 0 {
		cpipe := l.rdb.TxPipeline()
		cpipe.IncrByFloat(ctx, creditKey(provider, service), policy.EstimatedCostPerRequest)
		cpipe.ExpireNX(ctx, creditKey(provider, service), creditTTL)
		if _, err := cpipe.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Status reports the raw counters for observability endpoints.
func (l *Limiter) Status(ctx context.Context, provider, service string) (Status, error) {
	policy, _ := l.policy.Policy(provider, service)
	minuteCount, err := l.rdb.Get(ctx, minuteKey(provider, service)).Int()
	if err != nil && err != redis.Nil {
		return Status{}, err
	}
	dayCount, err := l.rdb.Get(ctx, dayKey(provider, service)).Int()
	if err != nil && err != redis.Nil {
		return Status{}, err
	}
	credits, err := l.rdb.Get(ctx, creditKey(provider, service)).Float64()
	if err != nil && err != redis.Nil {
		return Status{}, err
	}
	return Status{MinuteCount: minuteCount, DayCount: dayCount, Credits: credits, Policy: policy}, nil
}

// Reset clears all counters for a (provider, service) pair.
func (l *Limiter) Reset(ctx context.Context, provider, service string) error {
	return l.rdb.Del(ctx, minuteKey(provider, service), dayKey(provider, service), creditKey(provider, service)).Err()
}

func readIntOrZero(cmd *redis.StringCmd) int {
	n, err := cmd.Int()
	if err != nil {
		return 0
	}
	return n
}

func readFloatOrZero(cmd *redis.StringCmd) float64 {
	f, err := cmd.Float64()
	if err != nil {
		return 0
	}
	return f
}
