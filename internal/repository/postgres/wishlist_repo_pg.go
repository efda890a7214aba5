package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

type WishlistRepository struct {
	db *sqlx.DB
}

func NewWishlistRepo(db *sqlx.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Add returns sql.ErrNoRows when the tour is already on the wishlist.
func (r *WishlistRepository) Add(ctx context.Context, userID, tourID uuid.UUID) (*domain.WishlistItem, error) {
	const query = `
		INSERT INTO wishlists (user_id, tour_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, tour_id) DO NOTHING
		RETURNING id, user_id, tour_id, created_at
	`
	var item domain.WishlistItem
	if err := r.db.GetContext(ctx, &item, query, userID, tourID); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, tourID uuid.UUID) error {
	const query = `DELETE FROM wishlists WHERE user_id = $1 AND tour_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, tourID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *WishlistRepository) Exists(ctx context.Context, userID, tourID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM wishlists WHERE user_id = $1 AND tour_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, tourID); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *WishlistRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WishlistListItem, error) {
	const query = `
		SELECT
			w.id,
			w.user_id,
			w.tour_id,
			w.created_at,
			t.title AS tour_title,
			t.location AS tour_location,
			t.price_cents,
			t.currency,
			t.average_rating,
			t.total_reviews,
			(
				SELECT i.image_url
				FROM tour_images i
				WHERE i.tour_id = t.id
				ORDER BY i.is_main DESC, i.created_at ASC
				LIMIT 1
			) AS main_image_url
		FROM wishlists w
		JOIN tours t ON t.id = w.tour_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $2 OFFSET $3
	`
	items := make([]domain.WishlistListItem, 0)
	if err := r.db.SelectContext(ctx, &items, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *WishlistRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM wishlists WHERE user_id = $1`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}

var _ ports.WishlistRepository = (*WishlistRepository)(nil)
