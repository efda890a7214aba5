package domain

import (
	"time"

	"github.com/google/uuid"
)

type WishlistItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	TourID    uuid.UUID `db:"tour_id" json:"tour_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type WishlistListItem struct {
	WishlistItem
	TourTitle     string  `db:"tour_title" json:"tour_title"`
	TourLocation  *string `db:"tour_location" json:"tour_location,omitempty"`
	PriceCents    int64   `db:"price_cents" json:"price_cents"`
	Currency      string  `db:"currency" json:"currency"`
	AverageRating float64 `db:"average_rating" json:"average_rating"`
	TotalReviews  int     `db:"total_reviews" json:"total_reviews"`
	MainImageURL  *string `db:"main_image_url" json:"main_image_url,omitempty"`
}
