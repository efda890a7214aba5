package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/metrics"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

const maxReviewCommentLength = 2000

type SubmitReviewInput struct {
	TourID    uuid.UUID
	UserID    uuid.UUID
	BookingID uuid.UUID
	Rating    int
	Comment   string
}

// ReviewService accepts at most one review per user and tour, and only for a
// completed booking of that user on that tour. Storing the review, refreshing
// the tour rating and marking the booking reviewed commit together.
type ReviewService struct {
	store      ports.Store
	aggregator *RatingAggregator
	publisher  ports.EventPublisher
	metrics    *metrics.Metrics
	retry      retrier
	now        func() time.Time
}

func NewReviewService(store ports.Store, aggregator *RatingAggregator, publisher ports.EventPublisher, m *metrics.Metrics, policy RetryPolicy) *ReviewService {
	return &ReviewService{
		store:      store,
		aggregator: aggregator,
		publisher:  publisher,
		metrics:    m,
		retry:      newRetrier(policy, m),
		now:        time.Now,
	}
}

func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (review *domain.Review, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation("submit_review", start, err)
		if err != nil {
			s.metrics.ReviewRejected(rejectionReason(err))
		}
	}()

	comment := strings.TrimSpace(input.Comment)
	switch {
	case input.Rating < domain.MinRating || input.Rating > domain.MaxRating:
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, domain.MinRating, domain.MaxRating)
	case comment == "":
		return nil, fmt.Errorf("%w: comment is required", ErrInvalidInput)
	case utf8.RuneCountInString(comment) > maxReviewCommentLength:
		return nil, fmt.Errorf("%w: comment must be at most %d characters", ErrInvalidInput, maxReviewCommentLength)
	}

	err = s.retry.do(ctx, "submit_review", func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(uow ports.UnitOfWork) error {
			created, txErr := s.submitWithin(ctx, uow, input, comment)
			if txErr != nil {
				return txErr
			}
			review = created
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ReviewSubmitted()
	s.metrics.BookingTransitioned(string(domain.BookingStatusCompleted), string(domain.BookingStatusReviewed))
	if s.publisher != nil {
		event := domain.ReviewSubmittedEvent{
			ReviewID:    review.ID,
			TourID:      review.TourID,
			UserID:      review.UserID,
			BookingID:   review.BookingID,
			Rating:      review.Rating,
			SubmittedAt: review.CreatedAt,
		}
		if pubErr := s.publisher.Publish(ctx, domain.EventReviewSubmitted, event); pubErr != nil {
			log.Printf("publish %s for tour %s failed: %v", domain.EventReviewSubmitted, review.TourID, pubErr)
		}
	}
	return review, nil
}

func (s *ReviewService) submitWithin(ctx context.Context, uow ports.UnitOfWork, input SubmitReviewInput, comment string) (*domain.Review, error) {
	// The tour row lock serializes every review of the same tour.
	if _, err := uow.Tours().LockForUpdate(ctx, input.TourID); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTourNotFound, input.TourID)
		}
		return nil, err
	}

	exists, err := uow.Reviews().ExistsForUserTour(ctx, input.UserID, input.TourID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	booking, err := uow.Bookings().GetByIDForUpdate(ctx, input.BookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: booking %s not found", ErrNotEligible, input.BookingID)
		}
		return nil, err
	}
	if !booking.BelongsTo(input.UserID, input.TourID) {
		return nil, fmt.Errorf("%w: booking %s is not yours for this tour", ErrNotEligible, input.BookingID)
	}
	if booking.Status != domain.BookingStatusCompleted {
		return nil, fmt.Errorf("%w: booking is %s", ErrNotEligible, booking.Status)
	}

	review, err := uow.Reviews().Create(ctx, &domain.Review{
		TourID:    input.TourID,
		UserID:    input.UserID,
		BookingID: input.BookingID,
		Rating:    input.Rating,
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}

	if _, err := s.aggregator.recomputeWithin(ctx, uow, input.TourID); err != nil {
		return nil, err
	}
	if _, _, err := transitionWithin(ctx, uow, booking.ID, domain.SystemActor(), domain.BookingStatusReviewed); err != nil {
		return nil, fmt.Errorf("mark booking reviewed: %w", err)
	}
	return review, nil
}

func (s *ReviewService) ListTourReviews(ctx context.Context, tourID uuid.UUID, limit, offset int) (*domain.ReviewListResult, error) {
	limit, offset = normalizePagination(limit, offset)

	result := &domain.ReviewListResult{TourID: tourID, Limit: limit, Offset: offset}
	err := s.retry.do(ctx, "list_reviews", func(ctx context.Context) error {
		if _, err := s.store.Tours().FindByID(ctx, tourID); err != nil {
			return err
		}
		reviews, err := s.store.Reviews().ListByTour(ctx, tourID, limit, offset)
		if err != nil {
			return err
		}
		stats, err := s.store.Reviews().Aggregate(ctx, tourID)
		if err != nil {
			return err
		}
		stats.TourID = tourID
		result.Reviews = reviews
		result.Stats = *stats
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTourNotFound, tourID)
		}
		return nil, err
	}
	if result.Reviews == nil {
		result.Reviews = []domain.Review{}
	}
	return result, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDuplicateReview):
		return "duplicate"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrTourNotFound):
		return "tour_not_found"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}

func normalizePagination(limit, offset int) (int, int) {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
