package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusReviewed  BookingStatus = "reviewed"
)

// DefaultInitialBookingStatus is the status a new booking starts in unless the
// deployment overrides it.
const DefaultInitialBookingStatus = BookingStatusPending

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted},
	BookingStatusCompleted: {BookingStatusReviewed},
	BookingStatusCancelled: {},
	BookingStatusReviewed:  {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether target is a direct successor of s in the
// booking lifecycle graph.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	next, ok := bookingTransitions[s]
	return !ok || len(next) == 0
}

// IsInitialCandidate reports whether a new booking may start in s.
func (s BookingStatus) IsInitialCandidate() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func ParseBookingStatus(raw string) (BookingStatus, error) {
	status := BookingStatus(raw)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown booking status %q", raw)
	}
	return status, nil
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

type Booking struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	TourID          uuid.UUID     `db:"tour_id" json:"tour_id"`
	UserID          uuid.UUID     `db:"user_id" json:"user_id"`
	ProviderID      uuid.UUID     `db:"provider_id" json:"provider_id"`
	BookingDate     time.Time     `db:"booking_date" json:"booking_date"`
	PartySize       int           `db:"party_size" json:"party_size"`
	TotalPriceCents int64         `db:"total_price_cents" json:"total_price_cents"`
	Currency        string        `db:"currency" json:"currency"`
	Status          BookingStatus `db:"status" json:"status"`
	PaymentStatus   PaymentStatus `db:"payment_status" json:"payment_status"`
	IdempotencyKey  *string       `db:"idempotency_key" json:"-"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`

	TourTitle *string `db:"tour_title" json:"tour_title,omitempty"`
}

// BelongsTo reports whether the booking was made by userID for tourID.
func (b *Booking) BelongsTo(userID, tourID uuid.UUID) bool {
	return b.UserID == userID && b.TourID == tourID
}

// VisibleTo reports whether the actor is a party to the booking.
func (b *Booking) VisibleTo(actor Actor) bool {
	return actor.IsSystem() || actor.ID == b.UserID || actor.ID == b.ProviderID
}

// DateOnly truncates t to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
