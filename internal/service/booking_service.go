package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/metrics"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

// bookingIdempotencyConstraint is the unique index over (user_id,
// idempotency_key).
const bookingIdempotencyConstraint = "bookings_user_idempotency_key"

type BookingServiceConfig struct {
	InitialStatus domain.BookingStatus
	Retry         RetryPolicy
}

type CreateBookingInput struct {
	TourID         uuid.UUID
	UserID         uuid.UUID
	Date           time.Time
	PartySize      int
	IdempotencyKey string
}

// BookingService owns every booking status change except the system move to
// reviewed, which the review service performs through TransitionStatus.
type BookingService struct {
	store     ports.Store
	payments  ports.PaymentGateway
	publisher ports.EventPublisher
	metrics   *metrics.Metrics

	initialStatus domain.BookingStatus
	retry         retrier
	now           func() time.Time
}

func NewBookingService(
	store ports.Store,
	payments ports.PaymentGateway,
	publisher ports.EventPublisher,
	m *metrics.Metrics,
	cfg BookingServiceConfig,
) *BookingService {
	initial := cfg.InitialStatus
	if !initial.IsInitialCandidate() {
		initial = domain.DefaultInitialBookingStatus
	}
	return &BookingService{
		store:         store,
		payments:      payments,
		publisher:     publisher,
		metrics:       m,
		initialStatus: initial,
		retry:         newRetrier(cfg.Retry, m),
		now:           time.Now,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (booking *domain.Booking, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("create_booking", start, err) }()

	if input.PartySize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPartySize, input.PartySize)
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	date := domain.DateOnly(input.Date)
	if date.Before(domain.DateOnly(s.now())) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, date.Format(time.DateOnly))
	}
	key := strings.TrimSpace(input.IdempotencyKey)

	if key != "" {
		existing, findErr := s.findByIdempotencyKey(ctx, input.UserID, key)
		if findErr != nil {
			return nil, findErr
		}
		if existing != nil {
			return replayedBooking(existing, input)
		}
	}

	var tour *domain.Tour
	err = s.retry.do(ctx, "find_tour", func(ctx context.Context) error {
		var findErr error
		tour, findErr = s.store.Tours().FindByID(ctx, input.TourID)
		return findErr
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTourNotFound, input.TourID)
		}
		return nil, err
	}
	if input.PartySize > tour.MaxParticipants {
		return nil, fmt.Errorf("%w: %d requested, %d allowed", ErrCapacityExceeded, input.PartySize, tour.MaxParticipants)
	}

	total := tour.PriceCents * int64(input.PartySize)
	paymentStatus, err := s.initialPaymentStatus(ctx, ports.PaymentRequest{
		UserID:      input.UserID,
		TourID:      tour.ID,
		AmountCents: total,
		Currency:    tour.Currency,
	})
	if err != nil {
		return nil, err
	}

	candidate := &domain.Booking{
		TourID:          tour.ID,
		UserID:          input.UserID,
		ProviderID:      tour.ProviderID,
		BookingDate:     date,
		PartySize:       input.PartySize,
		TotalPriceCents: total,
		Currency:        tour.Currency,
		Status:          s.initialStatus,
		PaymentStatus:   paymentStatus,
	}
	if key != "" {
		candidate.IdempotencyKey = &key
	}

	err = s.retry.do(ctx, "create_booking", func(ctx context.Context) error {
		created, createErr := s.store.Bookings().Create(ctx, candidate)
		if createErr != nil {
			return createErr
		}
		booking = created
		return nil
	})
	if err != nil {
		if key != "" && isUniqueViolation(err) && violatedConstraint(err) == bookingIdempotencyConstraint {
			existing, findErr := s.findByIdempotencyKey(ctx, input.UserID, key)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return replayedBooking(existing, input)
			}
		}
		return nil, err
	}

	s.metrics.BookingCreated(string(booking.Status))
	s.publish(ctx, domain.EventBookingCreated, domain.BookingCreatedEvent{
		BookingID:       booking.ID,
		TourID:          booking.TourID,
		UserID:          booking.UserID,
		ProviderID:      booking.ProviderID,
		Status:          booking.Status,
		TotalPriceCents: booking.TotalPriceCents,
		Currency:        booking.Currency,
		CreatedAt:       booking.CreatedAt,
	})
	return booking, nil
}

func (s *BookingService) TransitionStatus(ctx context.Context, bookingID uuid.UUID, actor domain.Actor, target domain.BookingStatus) (booking *domain.Booking, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("transition_status", start, err) }()

	if !target.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	var from domain.BookingStatus
	err = s.retry.do(ctx, "transition_status", func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(uow ports.UnitOfWork) error {
			updated, prev, txErr := transitionWithin(ctx, uow, bookingID, actor, target)
			if txErr != nil {
				return txErr
			}
			booking, from = updated, prev
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, booking, actor, from)
	return booking, nil
}

// transitionWithin applies one edge of the status graph inside uow. The
// booking row stays locked until uow commits.
func transitionWithin(ctx context.Context, uow ports.UnitOfWork, bookingID uuid.UUID, actor domain.Actor, target domain.BookingStatus) (*domain.Booking, domain.BookingStatus, error) {
	current, err := uow.Bookings().GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
		}
		return nil, "", err
	}
	if target == domain.BookingStatusReviewed && !actor.IsSystem() {
		return nil, "", fmt.Errorf("%w: only a stored review can mark a booking reviewed", ErrForbidden)
	}
	if !actor.IsSystem() && actor.ID != current.ProviderID {
		return nil, "", fmt.Errorf("%w: booking %s belongs to another provider", ErrForbidden, bookingID)
	}
	if current.Status.IsTerminal() {
		return nil, "", fmt.Errorf("%w: booking is already %s", ErrInvalidTransition, current.Status)
	}
	if !current.Status.CanTransitionTo(target) {
		return nil, "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
	}

	updated, err := uow.Bookings().UpdateStatus(ctx, bookingID, current.Status, target)
	if err != nil {
		if isNotFound(err) {
			return nil, "", fmt.Errorf("%w: booking changed concurrently", ErrInvalidTransition)
		}
		return nil, "", err
	}
	return updated, current.Status, nil
}

func (s *BookingService) afterTransition(ctx context.Context, booking *domain.Booking, actor domain.Actor, from domain.BookingStatus) {
	s.metrics.BookingTransitioned(string(from), string(booking.Status))
	s.publish(ctx, domain.EventBookingStatusChanged, domain.BookingStatusChangedEvent{
		BookingID: booking.ID,
		TourID:    booking.TourID,
		ActorID:   actor.ID,
		From:      from,
		To:        booking.Status,
		ChangedAt: booking.UpdatedAt,
	})
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor domain.Actor) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.retry.do(ctx, "get_booking", func(ctx context.Context) error {
		var getErr error
		booking, getErr = s.store.Bookings().GetByID(ctx, bookingID)
		return getErr
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
		}
		return nil, err
	}
	if !booking.VisibleTo(actor) {
		return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID)
	}
	return booking, nil
}

func (s *BookingService) ListBookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := s.retry.do(ctx, "list_user_bookings", func(ctx context.Context) error {
		var listErr error
		bookings, listErr = s.store.Bookings().ListByUser(ctx, userID)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) ListBookingsForProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := s.retry.do(ctx, "list_provider_bookings", func(ctx context.Context) error {
		var listErr error
		bookings, listErr = s.store.Bookings().ListByProvider(ctx, providerID)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) findByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.retry.do(ctx, "find_booking_by_key", func(ctx context.Context) error {
		found, findErr := s.store.Bookings().FindByIdempotencyKey(ctx, userID, key)
		if findErr != nil {
			if isNotFound(findErr) {
				return nil
			}
			return findErr
		}
		booking = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// replayedBooking returns the booking stored under the same idempotency key,
// refusing keys reused for a different request.
func replayedBooking(existing *domain.Booking, input CreateBookingInput) (*domain.Booking, error) {
	if existing.TourID != input.TourID ||
		existing.PartySize != input.PartySize ||
		!domain.DateOnly(existing.BookingDate).Equal(domain.DateOnly(input.Date)) {
		return nil, fmt.Errorf("%w: idempotency key already used for another booking", ErrInvalidInput)
	}
	return existing, nil
}

func (s *BookingService) initialPaymentStatus(ctx context.Context, req ports.PaymentRequest) (domain.PaymentStatus, error) {
	if s.payments == nil {
		return domain.PaymentStatusPending, nil
	}
	status, err := s.payments.InitialStatus(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: payment service: %v", ErrUnavailable, err)
	}
	if !status.IsValid() {
		return domain.PaymentStatusPending, nil
	}
	return status, nil
}

func (s *BookingService) publish(ctx context.Context, routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		log.Printf("publish %s failed: %v", routingKey, err)
	}
}
