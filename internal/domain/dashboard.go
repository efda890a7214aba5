package domain

import "github.com/google/uuid"

type ProviderBookingStats struct {
	TotalRevenueCents int64 `db:"total_revenue_cents" json:"total_revenue_cents"`
	TotalBookings     int   `db:"total_bookings" json:"total_bookings"`
	PendingBookings   int   `db:"pending_bookings" json:"pending_bookings"`
}

type ProviderDashboard struct {
	ProviderID     uuid.UUID            `json:"provider_id"`
	Stats          ProviderBookingStats `json:"stats"`
	AverageRating  float64              `json:"average_rating"`
	TotalReviews   int                  `json:"total_reviews"`
	LatestBookings []Booking            `json:"latest_bookings"`
	RecentReviews  []Review             `json:"recent_reviews"`
}
