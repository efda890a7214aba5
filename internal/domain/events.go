package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventReviewSubmitted      = "review.submitted"
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

type ReviewSubmittedEvent struct {
	ReviewID    uuid.UUID `json:"review_id"`
	TourID      uuid.UUID `json:"tour_id"`
	UserID      uuid.UUID `json:"user_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Rating      int       `json:"rating"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type BookingCreatedEvent struct {
	BookingID       uuid.UUID     `json:"booking_id"`
	TourID          uuid.UUID     `json:"tour_id"`
	UserID          uuid.UUID     `json:"user_id"`
	ProviderID      uuid.UUID     `json:"provider_id"`
	Status          BookingStatus `json:"status"`
	TotalPriceCents int64         `json:"total_price_cents"`
	Currency        string        `json:"currency"`
	CreatedAt       time.Time     `json:"created_at"`
}

type BookingStatusChangedEvent struct {
	BookingID uuid.UUID     `json:"booking_id"`
	TourID    uuid.UUID     `json:"tour_id"`
	ActorID   uuid.UUID     `json:"actor_id"`
	From      BookingStatus `json:"from"`
	To        BookingStatus `json:"to"`
	ChangedAt time.Time     `json:"changed_at"`
}
