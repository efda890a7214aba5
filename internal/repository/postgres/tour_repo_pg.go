package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

const tourColumns = `
	t.id,
	t.provider_id,
	t.title,
	t.description,
	t.price_cents,
	t.currency,
	t.duration_hours,
	t.max_participants,
	t.location,
	t.latitude,
	t.longitude,
	t.meeting_point,
	t.included_items,
	t.excluded_items,
	t.requirements,
	t.cancellation_policy,
	t.average_rating,
	t.total_reviews,
	t.created_at,
	t.updated_at
`

type tourRow struct {
	domain.Tour
	IncludedItems pq.StringArray `db:"included_items"`
	ExcludedItems pq.StringArray `db:"excluded_items"`
	Requirements  pq.StringArray `db:"requirements"`
}

func (r tourRow) toDomain() domain.Tour {
	tour := r.Tour
	tour.IncludedItems = append([]string{}, r.IncludedItems...)
	tour.ExcludedItems = append([]string{}, r.ExcludedItems...)
	tour.Requirements = append([]string{}, r.Requirements...)
	return tour
}

type TourRepository struct {
	db sqlx.ExtContext
}

func NewTourRepo(db sqlx.ExtContext) *TourRepository {
	return &TourRepository{db: db}
}

func (r *TourRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours t WHERE t.id = $1`
	var row tourRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		return nil, err
	}
	tour := row.toDomain()
	return &tour, nil
}

func (r *TourRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours t WHERE t.id = $1 FOR UPDATE`
	var row tourRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		return nil, err
	}
	tour := row.toDomain()
	return &tour, nil
}

func (r *TourRepository) List(ctx context.Context, filter domain.TourListFilter) ([]domain.Tour, error) {
	where, args := tourFilterClauses(filter)
	idx := len(args) + 1
	args = append(args, filter.Limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM tours t
		%s
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $%d OFFSET $%d
	`, tourColumns, where, idx, idx+1)

	var rows []tourRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, err
	}
	tours := make([]domain.Tour, 0, len(rows))
	for _, row := range rows {
		tours = append(tours, row.toDomain())
	}
	return tours, nil
}

func (r *TourRepository) Count(ctx context.Context, filter domain.TourListFilter) (int64, error) {
	where, args := tourFilterClauses(filter)
	query := `SELECT COUNT(*) FROM tours t ` + where
	var count int64
	if err := sqlx.GetContext(ctx, r.db, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TourRepository) ListLocations(ctx context.Context) ([]string, error) {
	const query = `
		SELECT DISTINCT location
		FROM tours
		WHERE location IS NOT NULL AND location <> ''
		ORDER BY location
	`
	var locations []string
	if err := sqlx.SelectContext(ctx, r.db, &locations, query); err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *TourRepository) ListImages(ctx context.Context, tourIDs []uuid.UUID) (map[uuid.UUID][]domain.TourImage, error) {
	result := make(map[uuid.UUID][]domain.TourImage, len(tourIDs))
	if len(tourIDs) == 0 {
		return result, nil
	}
	const query = `
		SELECT id, tour_id, image_url, is_main, created_at
		FROM tour_images
		WHERE tour_id = ANY($1)
		ORDER BY is_main DESC, created_at ASC
	`
	var images []domain.TourImage
	if err := sqlx.SelectContext(ctx, r.db, &images, query, pq.Array(tourIDs)); err != nil {
		return nil, err
	}
	for _, img := range images {
		result[img.TourID] = append(result[img.TourID], img)
	}
	return result, nil
}

// UpdateRatingStats must run inside a transaction: the rating guard trigger
// only lets the write through while app.rating_writer is set locally.
func (r *TourRepository) UpdateRatingStats(ctx context.Context, stats domain.RatingStats) error {
	if _, err := r.db.ExecContext(ctx, `SELECT set_config('app.rating_writer', 'on', true)`); err != nil {
		return err
	}
	const query = `
		UPDATE tours
		SET average_rating = $2,
		    total_reviews = $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, stats.TourID, stats.AverageRating, stats.TotalReviews)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `SELECT set_config('app.rating_writer', 'off', true)`); err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func tourFilterClauses(filter domain.TourListFilter) (string, []any) {
	var clauses []string
	var args []any
	idx := 1

	if search := strings.TrimSpace(filter.Search); search != "" {
		clauses = append(clauses, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d OR t.location ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+search+"%")
		idx++
	}
	if filter.MinPriceCents != nil {
		clauses = append(clauses, fmt.Sprintf("t.price_cents >= $%d", idx))
		args = append(args, *filter.MinPriceCents)
		idx++
	}
	if filter.MaxPriceCents != nil {
		clauses = append(clauses, fmt.Sprintf("t.price_cents <= $%d", idx))
		args = append(args, *filter.MaxPriceCents)
		idx++
	}
	if filter.MaxDuration != nil {
		clauses = append(clauses, fmt.Sprintf("t.duration_hours <= $%d", idx))
		args = append(args, *filter.MaxDuration)
		idx++
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		clauses = append(clauses, fmt.Sprintf("t.location = $%d", idx))
		args = append(args, location)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

var _ ports.TourRepository = (*TourRepository)(nil)
