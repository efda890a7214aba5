package domain

import (
	"time"

	"github.com/google/uuid"
)

type Tour struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ProviderID         uuid.UUID  `db:"provider_id" json:"provider_id"`
	Title              string     `db:"title" json:"title"`
	Description        *string    `db:"description" json:"description,omitempty"`
	PriceCents         int64      `db:"price_cents" json:"price_cents"`
	Currency           string     `db:"currency" json:"currency"`
	DurationHours      int        `db:"duration_hours" json:"duration_hours"`
	MaxParticipants    int        `db:"max_participants" json:"max_participants"`
	Location           *string    `db:"location" json:"location,omitempty"`
	Latitude           *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude          *float64   `db:"longitude" json:"longitude,omitempty"`
	MeetingPoint       *string    `db:"meeting_point" json:"meeting_point,omitempty"`
	IncludedItems      []string   `db:"-" json:"included_items"`
	ExcludedItems      []string   `db:"-" json:"excluded_items"`
	Requirements       []string   `db:"-" json:"requirements"`
	CancellationPolicy *string    `db:"cancellation_policy" json:"cancellation_policy,omitempty"`
	AverageRating      float64    `db:"average_rating" json:"average_rating"`
	TotalReviews       int        `db:"total_reviews" json:"total_reviews"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	Images []TourImage `db:"-" json:"images,omitempty"`
}

type TourImage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TourID    uuid.UUID `db:"tour_id" json:"tour_id"`
	ImageURL  string    `db:"image_url" json:"image_url"`
	IsMain    bool      `db:"is_main" json:"is_main"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MainImage returns the image flagged as main, falling back to the first one.
func (t *Tour) MainImage() *TourImage {
	for i := range t.Images {
		if t.Images[i].IsMain {
			return &t.Images[i]
		}
	}
	if len(t.Images) > 0 {
		return &t.Images[0]
	}
	return nil
}

type TourListFilter struct {
	Search        string
	MinPriceCents *int64
	MaxPriceCents *int64
	MaxDuration   *int
	Location      string
	Limit         int
	Offset        int
}
