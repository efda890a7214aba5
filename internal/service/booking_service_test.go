package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
)

var testRetry = RetryPolicy{Timeout: time.Second, MaxAttempts: 3, BaseDelay: time.Millisecond}

func newTestBookingService(store *memoryStore, initial domain.BookingStatus) (*BookingService, *recordingPublisher) {
	pub := &recordingPublisher{}
	svc := NewBookingService(store, nil, pub, nil, BookingServiceConfig{InitialStatus: initial, Retry: testRetry})
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 15, 0, 0, 0, time.UTC) }
	return svc, pub
}

func bookingDate(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateBookingComputesTotalAndInitialStatus(t *testing.T) {
	for _, initial := range []domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusConfirmed} {
		t.Run(string(initial), func(t *testing.T) {
			store := newMemoryStore()
			tour := store.addTour(domain.Tour{Title: "Old Town Walk", PriceCents: 10000, Currency: "EUR", MaxParticipants: 4})
			svc, pub := newTestBookingService(store, initial)

			for size := 1; size <= tour.MaxParticipants; size++ {
				booking, err := svc.CreateBooking(context.Background(), CreateBookingInput{
					TourID:    tour.ID,
					UserID:    uuid.New(),
					Date:      bookingDate("2025-06-01"),
					PartySize: size,
				})
				if err != nil {
					t.Fatalf("CreateBooking(size=%d) returned error: %v", size, err)
				}
				if booking.TotalPriceCents != tour.PriceCents*int64(size) {
					t.Fatalf("expected total %d, got %d", tour.PriceCents*int64(size), booking.TotalPriceCents)
				}
				if booking.Status != initial {
					t.Fatalf("expected status %s, got %s", initial, booking.Status)
				}
				if booking.Currency != "EUR" || booking.ProviderID != tour.ProviderID {
					t.Fatalf("booking did not copy tour currency/provider: %+v", booking)
				}
				if booking.PaymentStatus != domain.PaymentStatusPending {
					t.Fatalf("expected pending payment without a gateway, got %s", booking.PaymentStatus)
				}
			}
			if got := pub.count(domain.EventBookingCreated); got != tour.MaxParticipants {
				t.Fatalf("expected %d booking.created events, got %d", tour.MaxParticipants, got)
			}
		})
	}
}

func TestCreateBookingFallsBackToPendingForUnsupportedInitialStatus(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestBookingService(store, domain.BookingStatusCompleted)
	if svc.initialStatus != domain.BookingStatusPending {
		t.Fatalf("expected pending fallback, got %s", svc.initialStatus)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{PriceCents: 5000, MaxParticipants: 4})
	svc, _ := newTestBookingService(store, "")

	cases := []struct {
		name  string
		input CreateBookingInput
		want  error
	}{
		{"zero party", CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: 0}, ErrInvalidPartySize},
		{"negative party", CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: -2}, ErrInvalidPartySize},
		{"over capacity", CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: 5}, ErrCapacityExceeded},
		{"past date", CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-04-30"), PartySize: 1}, ErrInvalidDate},
		{"missing date", CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), PartySize: 1}, ErrInvalidDate},
		{"unknown tour", CreateBookingInput{TourID: uuid.New(), UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: 1}, ErrTourNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBooking(context.Background(), tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if store.bookingCount() != 0 {
		t.Fatalf("rejected bookings must not be stored, found %d", store.bookingCount())
	}

	if _, err := svc.CreateBooking(context.Background(), cases[2].input); !errors.Is(err, ErrValidation) {
		t.Fatalf("capacity error should be a validation error, got %v", err)
	}
	if _, err := svc.CreateBooking(context.Background(), cases[5].input); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing tour should be a not-found error, got %v", err)
	}
}

func TestCreateBookingAllowsToday(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{PriceCents: 5000})
	svc, _ := newTestBookingService(store, "")

	booking, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		TourID: tour.ID, UserID: uuid.New(), Date: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC), PartySize: 1,
	})
	if err != nil {
		t.Fatalf("booking for today returned error: %v", err)
	}
	if !booking.BookingDate.Equal(bookingDate("2025-05-01")) {
		t.Fatalf("expected date truncated to the day, got %s", booking.BookingDate)
	}
}

func TestCreateBookingUsesPaymentGateway(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{PriceCents: 5000})
	svc, _ := newTestBookingService(store, "")

	svc.payments = stubPayments{status: domain.PaymentStatusCompleted}
	booking, err := svc.CreateBooking(context.Background(), CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: 2})
	if err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	if booking.PaymentStatus != domain.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", booking.PaymentStatus)
	}

	svc.payments = stubPayments{err: errors.New("connection refused")}
	_, err = svc.CreateBooking(context.Background(), CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: 2})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient error when payment service fails, got %v", err)
	}
	if store.bookingCount() != 1 {
		t.Fatalf("expected the failed booking not to be stored")
	}
}

func TestCreateBookingIdempotencyKey(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{PriceCents: 5000})
	svc, _ := newTestBookingService(store, "")
	userID := uuid.New()
	input := CreateBookingInput{TourID: tour.ID, UserID: userID, Date: bookingDate("2025-06-01"), PartySize: 2, IdempotencyKey: "abc-123"}

	first, err := svc.CreateBooking(context.Background(), input)
	if err != nil {
		t.Fatalf("first CreateBooking returned error: %v", err)
	}
	second, err := svc.CreateBooking(context.Background(), input)
	if err != nil {
		t.Fatalf("replayed CreateBooking returned error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same booking for a replayed key, got %s and %s", first.ID, second.ID)
	}
	if store.bookingCount() != 1 {
		t.Fatalf("expected one stored booking, got %d", store.bookingCount())
	}

	sameDayLater := input
	sameDayLater.Date = bookingDate("2025-06-01").Add(15 * time.Hour)
	if replay, err := svc.CreateBooking(context.Background(), sameDayLater); err != nil || replay.ID != first.ID {
		t.Fatalf("expected same calendar day to replay, got %v", err)
	}

	otherDate := input
	otherDate.Date = bookingDate("2025-07-15")
	if _, err := svc.CreateBooking(context.Background(), otherDate); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected key reuse with a different date to fail, got %v", err)
	}

	input.PartySize = 3
	if _, err := svc.CreateBooking(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected key reuse with different payload to fail, got %v", err)
	}
	if store.bookingCount() != 1 {
		t.Fatalf("rejected replays must not store bookings, got %d", store.bookingCount())
	}
}

func TestCreateBookingRecoversFromLostInsertAcknowledgement(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{PriceCents: 5000})
	svc, _ := newTestBookingService(store, "")
	store.failWith("bookings.create", storeFault{err: &pgconn.PgError{Code: "08006"}, afterWrite: true})

	booking, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: 1, IdempotencyKey: "retry-me",
	})
	if err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	if store.bookingCount() != 1 {
		t.Fatalf("expected exactly one booking after the retry, got %d", store.bookingCount())
	}
	if store.booking(booking.ID).ID != booking.ID {
		t.Fatalf("returned booking is not the stored one")
	}
}

func TestCreateBookingRetriesTransientFailures(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{PriceCents: 5000})
	svc, _ := newTestBookingService(store, "")
	store.failWith("bookings.create",
		storeFault{err: &pgconn.PgError{Code: "40001"}},
		storeFault{err: &pgconn.PgError{Code: "40P01"}},
	)

	if _, err := svc.CreateBooking(context.Background(), CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: 1}); err != nil {
		t.Fatalf("expected success after two transient failures, got %v", err)
	}
	if got := store.callCount("bookings.create"); got != 3 {
		t.Fatalf("expected 3 insert attempts, got %d", got)
	}
}

func TestCreateBookingSurfacesTransientAfterRetries(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{PriceCents: 5000})
	svc, _ := newTestBookingService(store, "")
	store.failWith("bookings.create",
		storeFault{err: context.DeadlineExceeded},
		storeFault{err: context.DeadlineExceeded},
		storeFault{err: context.DeadlineExceeded},
	)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: 1})
	if !errors.Is(err, ErrTimeout) || !errors.Is(err, ErrTransient) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if store.bookingCount() != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestCreateBookingDoesNotRetryPermanentFailures(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{PriceCents: 5000})
	svc, _ := newTestBookingService(store, "")
	boom := errors.New("boom")
	store.failWith("bookings.create", storeFault{err: boom}, storeFault{err: boom})

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{TourID: tour.ID, UserID: uuid.New(), Date: bookingDate("2025-06-01"), PartySize: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := store.callCount("bookings.create"); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestTransitionStatusFollowsGraph(t *testing.T) {
	all := []domain.BookingStatus{
		domain.BookingStatusPending,
		domain.BookingStatusConfirmed,
		domain.BookingStatusCompleted,
		domain.BookingStatusCancelled,
		domain.BookingStatusReviewed,
	}
	allowed := map[[2]domain.BookingStatus]bool{
		{domain.BookingStatusPending, domain.BookingStatusConfirmed}: true,
		{domain.BookingStatusPending, domain.BookingStatusCancelled}: true,
		{domain.BookingStatusConfirmed, domain.BookingStatusCompleted}: true,
	}

	for _, from := range all {
		for _, to := range all {
			if to == domain.BookingStatusReviewed {
				continue
			}
			store := newMemoryStore()
			tour := store.addTour(domain.Tour{})
			booking := store.addBooking(domain.Booking{TourID: tour.ID, UserID: uuid.New(), ProviderID: tour.ProviderID, Status: from})
			svc, _ := newTestBookingService(store, "")
			provider := domain.Actor{ID: tour.ProviderID, Role: domain.RoleProvider}

			updated, err := svc.TransitionStatus(context.Background(), booking.ID, provider, to)
			if allowed[[2]domain.BookingStatus{from, to}] {
				if err != nil {
					t.Fatalf("%s -> %s: unexpected error %v", from, to, err)
				}
				if updated.Status != to || store.booking(booking.ID).Status != to {
					t.Fatalf("%s -> %s: status not updated", from, to)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", from, to, err)
			}
			if store.booking(booking.ID).Status != from {
				t.Fatalf("%s -> %s: rejected transition changed the booking", from, to)
			}
		}
	}
}

func TestTransitionStatusFromTerminalStatus(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{})
	booking := store.addBooking(domain.Booking{TourID: tour.ID, UserID: uuid.New(), ProviderID: tour.ProviderID, Status: domain.BookingStatusCancelled})
	svc, _ := newTestBookingService(store, "")
	provider := domain.Actor{ID: tour.ProviderID, Role: domain.RoleProvider}

	_, err := svc.TransitionStatus(context.Background(), booking.ID, provider, domain.BookingStatusConfirmed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if !strings.Contains(err.Error(), "already cancelled") {
		t.Fatalf("expected terminal status in message, got %q", err.Error())
	}
}

func TestTransitionStatusAuthorization(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{})
	customerID := uuid.New()
	completed := store.addBooking(domain.Booking{TourID: tour.ID, UserID: customerID, ProviderID: tour.ProviderID, Status: domain.BookingStatusCompleted})
	pending := store.addBooking(domain.Booking{TourID: tour.ID, UserID: customerID, ProviderID: tour.ProviderID, Status: domain.BookingStatusPending})
	svc, pub := newTestBookingService(store, "")
	provider := domain.Actor{ID: tour.ProviderID, Role: domain.RoleProvider}

	if _, err := svc.TransitionStatus(context.Background(), completed.ID, provider, domain.BookingStatusReviewed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("provider must not mark reviewed, got %v", err)
	}
	customer := domain.Actor{ID: customerID, Role: domain.RoleCustomer}
	if _, err := svc.TransitionStatus(context.Background(), pending.ID, customer, domain.BookingStatusCancelled); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer must not change status, got %v", err)
	}
	otherProvider := domain.Actor{ID: uuid.New(), Role: domain.RoleProvider}
	if _, err := svc.TransitionStatus(context.Background(), pending.ID, otherProvider, domain.BookingStatusConfirmed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign provider must be forbidden, got %v", err)
	}
	if _, err := svc.TransitionStatus(context.Background(), uuid.New(), provider, domain.BookingStatusConfirmed); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.TransitionStatus(context.Background(), pending.ID, provider, "shipped"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if pub.count(domain.EventBookingStatusChanged) != 0 {
		t.Fatalf("rejected transitions must not publish events")
	}

	if _, err := svc.TransitionStatus(context.Background(), completed.ID, domain.SystemActor(), domain.BookingStatusReviewed); err != nil {
		t.Fatalf("system actor should mark reviewed, got %v", err)
	}
	if pub.count(domain.EventBookingStatusChanged) != 1 {
		t.Fatalf("expected one status event")
	}
}

func TestTransitionStatusConcurrentConfirmAndCancel(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{})
	booking := store.addBooking(domain.Booking{TourID: tour.ID, UserID: uuid.New(), ProviderID: tour.ProviderID, Status: domain.BookingStatusPending})
	svc, _ := newTestBookingService(store, "")
	provider := domain.Actor{ID: tour.ProviderID, Role: domain.RoleProvider}

	targets := []domain.BookingStatus{domain.BookingStatusConfirmed, domain.BookingStatusCancelled}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target domain.BookingStatus) {
			defer wg.Done()
			_, errs[i] = svc.TransitionStatus(context.Background(), booking.ID, provider, target)
		}(i, target)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInvalidTransition):
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one transition to win, got %d", succeeded)
	}
}

func TestGetBookingVisibility(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{})
	customerID := uuid.New()
	booking := store.addBooking(domain.Booking{TourID: tour.ID, UserID: customerID, ProviderID: tour.ProviderID, Status: domain.BookingStatusPending})
	svc, _ := newTestBookingService(store, "")

	if _, err := svc.GetBooking(context.Background(), booking.ID, domain.Actor{ID: customerID, Role: domain.RoleCustomer}); err != nil {
		t.Fatalf("customer should see own booking: %v", err)
	}
	if _, err := svc.GetBooking(context.Background(), booking.ID, domain.Actor{ID: tour.ProviderID, Role: domain.RoleProvider}); err != nil {
		t.Fatalf("provider should see booking: %v", err)
	}
	if _, err := svc.GetBooking(context.Background(), booking.ID, domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger should be forbidden, got %v", err)
	}
}

func TestListBookingsOrdering(t *testing.T) {
	store := newMemoryStore()
	tour := store.addTour(domain.Tour{Title: "Canal Cruise"})
	userID := uuid.New()
	early := store.addBooking(domain.Booking{TourID: tour.ID, UserID: userID, ProviderID: tour.ProviderID, BookingDate: bookingDate("2025-06-01"), Status: domain.BookingStatusPending})
	late := store.addBooking(domain.Booking{TourID: tour.ID, UserID: userID, ProviderID: tour.ProviderID, BookingDate: bookingDate("2025-07-01"), Status: domain.BookingStatusPending})
	sameDayNewer := store.addBooking(domain.Booking{TourID: tour.ID, UserID: userID, ProviderID: tour.ProviderID, BookingDate: bookingDate("2025-06-01"), Status: domain.BookingStatusPending})
	store.addBooking(domain.Booking{TourID: tour.ID, UserID: uuid.New(), ProviderID: tour.ProviderID, BookingDate: bookingDate("2025-06-02"), Status: domain.BookingStatusPending})
	svc, _ := newTestBookingService(store, "")

	bookings, err := svc.ListBookingsForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListBookingsForUser returned error: %v", err)
	}
	want := []uuid.UUID{late.ID, sameDayNewer.ID, early.ID}
	if len(bookings) != len(want) {
		t.Fatalf("expected %d bookings, got %d", len(want), len(bookings))
	}
	for i, id := range want {
		if bookings[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, bookings[i].ID)
		}
	}
	if bookings[0].TourTitle == nil || *bookings[0].TourTitle != "Canal Cruise" {
		t.Fatalf("expected tour title on listed bookings")
	}

	providerBookings, err := svc.ListBookingsForProvider(context.Background(), tour.ProviderID)
	if err != nil {
		t.Fatalf("ListBookingsForProvider returned error: %v", err)
	}
	if len(providerBookings) != 4 {
		t.Fatalf("expected 4 provider bookings, got %d", len(providerBookings))
	}

	empty, err := svc.ListBookingsForUser(context.Background(), uuid.New())
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", empty, err)
	}
}
