package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TourID    uuid.UUID `db:"tour_id" json:"tour_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	BookingID uuid.UUID `db:"booking_id" json:"booking_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	ReviewerName   *string `db:"reviewer_name" json:"reviewer_name,omitempty"`
	ReviewerAvatar *string `db:"reviewer_avatar_url" json:"reviewer_avatar_url,omitempty"`
	TourTitle      *string `db:"tour_title" json:"tour_title,omitempty"`
}

// RatingStats is the aggregate computed from the full review set of a tour.
type RatingStats struct {
	TourID        uuid.UUID   `json:"tour_id"`
	AverageRating float64     `json:"average_rating"`
	TotalReviews  int         `json:"total_reviews"`
	RatingCounts  map[int]int `json:"rating_counts"`
}

// DisplayAverage is the average rounded for presentation; the stored value
// keeps full precision.
func (s RatingStats) DisplayAverage() float64 {
	return RoundRating(s.AverageRating)
}

// RoundRating rounds to one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

type ReviewListResult struct {
	TourID  uuid.UUID   `json:"tour_id"`
	Reviews []Review    `json:"reviews"`
	Stats   RatingStats `json:"stats"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}
