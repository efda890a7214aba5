package ports

import (
	"context"
	"time"
)

type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}
