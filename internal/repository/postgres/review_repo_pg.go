package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

type ReviewRepository struct {
	db sqlx.ExtContext
}

func NewReviewRepo(db sqlx.ExtContext) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	const query = `
		INSERT INTO reviews (tour_id, user_id, booking_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tour_id, user_id, booking_id, rating, comment, created_at
	`
	var stored domain.Review
	err := sqlx.GetContext(ctx, r.db, &stored, query,
		review.TourID,
		review.UserID,
		review.BookingID,
		review.Rating,
		review.Comment,
	)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *ReviewRepository) ExistsForUserTour(ctx context.Context, userID, tourID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND tour_id = $2)`
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, userID, tourID); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ReviewRepository) ListByTour(ctx context.Context, tourID uuid.UUID, limit, offset int) ([]domain.Review, error) {
	const query = `
		SELECT
			r.id,
			r.tour_id,
			r.user_id,
			r.booking_id,
			r.rating,
			r.comment,
			r.created_at,
			p.full_name AS reviewer_name,
			p.avatar_url AS reviewer_avatar_url
		FROM reviews r
		JOIN profiles p ON p.id = r.user_id
		WHERE r.tour_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`
	reviews := make([]domain.Review, 0)
	if err := sqlx.SelectContext(ctx, r.db, &reviews, query, tourID, limit, offset); err != nil {
		return nil, err
	}
	return reviews, nil
}

type ratingRow struct {
	Total   int     `db:"total_reviews"`
	Average float64 `db:"average_rating"`
	Rating1 int     `db:"rating_1"`
	Rating2 int     `db:"rating_2"`
	Rating3 int     `db:"rating_3"`
	Rating4 int     `db:"rating_4"`
	Rating5 int     `db:"rating_5"`
}

func (row ratingRow) toStats(tourID uuid.UUID) *domain.RatingStats {
	return &domain.RatingStats{
		TourID:        tourID,
		AverageRating: row.Average,
		TotalReviews:  row.Total,
		RatingCounts: map[int]int{
			1: row.Rating1,
			2: row.Rating2,
			3: row.Rating3,
			4: row.Rating4,
			5: row.Rating5,
		},
	}
}

const ratingSelect = `
	SELECT
		COUNT(*)::int AS total_reviews,
		COALESCE(AVG(r.rating)::float8, 0) AS average_rating,
		COUNT(*) FILTER (WHERE r.rating = 1)::int AS rating_1,
		COUNT(*) FILTER (WHERE r.rating = 2)::int AS rating_2,
		COUNT(*) FILTER (WHERE r.rating = 3)::int AS rating_3,
		COUNT(*) FILTER (WHERE r.rating = 4)::int AS rating_4,
		COUNT(*) FILTER (WHERE r.rating = 5)::int AS rating_5
`

// Aggregate recomputes the statistics from every review row of the tour.
func (r *ReviewRepository) Aggregate(ctx context.Context, tourID uuid.UUID) (*domain.RatingStats, error) {
	query := ratingSelect + ` FROM reviews r WHERE r.tour_id = $1`
	var row ratingRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, tourID); err != nil {
		return nil, err
	}
	return row.toStats(tourID), nil
}

func (r *ReviewRepository) AggregateByProvider(ctx context.Context, providerID uuid.UUID) (*domain.RatingStats, error) {
	query := ratingSelect + `
		FROM reviews r
		JOIN tours t ON t.id = r.tour_id
		WHERE t.provider_id = $1
	`
	var row ratingRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, providerID); err != nil {
		return nil, err
	}
	return row.toStats(uuid.Nil), nil
}

func (r *ReviewRepository) ListRecentByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]domain.Review, error) {
	const query = `
		SELECT
			r.id,
			r.tour_id,
			r.user_id,
			r.booking_id,
			r.rating,
			r.comment,
			r.created_at,
			p.full_name AS reviewer_name,
			p.avatar_url AS reviewer_avatar_url,
			t.title AS tour_title
		FROM reviews r
		JOIN tours t ON t.id = r.tour_id
		JOIN profiles p ON p.id = r.user_id
		WHERE t.provider_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2
	`
	reviews := make([]domain.Review, 0, limit)
	if err := sqlx.SelectContext(ctx, r.db, &reviews, query, providerID, limit); err != nil {
		return nil, err
	}
	return reviews, nil
}

var _ ports.ReviewRepository = (*ReviewRepository)(nil)
