package service

import (
	"context"
	"time"

	"github.com/njprem/Tour_Market_BackEnd/internal/metrics"
)

const (
	defaultStorageTimeout   = 5 * time.Second
	defaultRetryMaxAttempts = 3
	defaultRetryBaseDelay   = 50 * time.Millisecond
)

// RetryPolicy bounds every lifecycle operation: the whole call, retries
// included, must finish within Timeout, and only transient failures are
// retried.
type RetryPolicy struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Timeout <= 0 {
		p.Timeout = defaultStorageTimeout
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultRetryMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultRetryBaseDelay
	}
	return p
}

type retrier struct {
	policy  RetryPolicy
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

func newRetrier(policy RetryPolicy, m *metrics.Metrics) retrier {
	return retrier{policy: policy.withDefaults(), metrics: m, sleep: sleepContext}
}

// do runs fn under the operation timeout, retrying transient failures with
// exponential backoff.
func (r retrier) do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
	defer cancel()

	delay := r.policy.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = classifyStorageError(fn(ctx))
		if err == nil || !isTransient(err) || attempt >= r.policy.MaxAttempts || ctx.Err() != nil {
			break
		}
		r.metrics.StorageRetry(operation)
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			break
		}
		delay *= 2
	}
	if err != nil && ctx.Err() != nil && !isTransient(err) {
		return classifyStorageError(ctx.Err())
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
