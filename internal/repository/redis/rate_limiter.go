package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

// tokenBucket refills refill tokens every interval up to capacity and takes
// one token per call. Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])
	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals * refill)
		last_refill = last_refill + intervals * interval_ms
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)
	return { allowed, tokens, retry_after_ms }
`)

type RateLimitConfig struct {
	Prefix         string
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
}

type RateLimiter struct {
	client *redis.Client
	cfg    RateLimitConfig
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return &RateLimiter{client: client, cfg: cfg, now: time.Now}
}

func (l *RateLimiter) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	args := []any{
		l.now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		int64(l.cfg.TTL / time.Second),
	}
	vals, err := tokenBucket.Run(ctx, l.client, []string{l.cfg.Prefix + ":" + key}, args...).Int64Slice()
	if err != nil {
		return ports.RateDecision{}, err
	}
	if len(vals) != 3 {
		return ports.RateDecision{}, fmt.Errorf("rate limiter: unexpected script result of length %d", len(vals))
	}
	return ports.RateDecision{
		Allowed:    vals[0] == 1,
		Limit:      l.cfg.Capacity,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

var _ ports.RateLimiter = (*RateLimiter)(nil)
