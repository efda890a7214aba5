package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/metrics"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

// RatingAggregator is the only component that writes a tour's average rating
// and review count. It always recomputes from the stored reviews, so running
// it twice leaves the same result.
type RatingAggregator struct {
	store   ports.Store
	retry   retrier
	metrics *metrics.Metrics
}

func NewRatingAggregator(store ports.Store, policy RetryPolicy, m *metrics.Metrics) *RatingAggregator {
	return &RatingAggregator{
		store:   store,
		retry:   newRetrier(policy, m),
		metrics: m,
	}
}

func (a *RatingAggregator) RecomputeRating(ctx context.Context, tourID uuid.UUID) (stats *domain.RatingStats, err error) {
	start := time.Now()
	defer func() { a.metrics.ObserveOperation("recompute_rating", start, err) }()

	err = a.retry.do(ctx, "recompute_rating", func(ctx context.Context) error {
		return a.store.WithinTx(ctx, func(uow ports.UnitOfWork) error {
			if _, lockErr := uow.Tours().LockForUpdate(ctx, tourID); lockErr != nil {
				if isNotFound(lockErr) {
					return fmt.Errorf("%w: %s", ErrTourNotFound, tourID)
				}
				return lockErr
			}
			result, recomputeErr := a.recomputeWithin(ctx, uow, tourID)
			if recomputeErr != nil {
				return recomputeErr
			}
			stats = result
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// recomputeWithin refreshes the aggregate using the caller's unit of work.
// The caller must already hold the tour row lock.
func (a *RatingAggregator) recomputeWithin(ctx context.Context, uow ports.UnitOfWork, tourID uuid.UUID) (*domain.RatingStats, error) {
	stats, err := uow.Reviews().Aggregate(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("aggregate reviews: %w", err)
	}
	stats.TourID = tourID
	if err := uow.Tours().UpdateRatingStats(ctx, *stats); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTourNotFound, tourID)
		}
		return nil, fmt.Errorf("update rating: %w", err)
	}
	a.metrics.RatingRecomputed()
	return stats, nil
}
