package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

const bookingColumns = `
	b.id,
	b.tour_id,
	b.user_id,
	b.provider_id,
	b.booking_date,
	b.party_size,
	b.total_price_cents,
	b.currency,
	b.status,
	b.payment_status,
	b.idempotency_key,
	b.created_at,
	b.updated_at
`

type BookingRepository struct {
	db sqlx.ExtContext
}

func NewBookingRepo(db sqlx.ExtContext) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	query := `
		INSERT INTO bookings AS b (
			tour_id, user_id, provider_id, booking_date, party_size,
			total_price_cents, currency, status, payment_status, idempotency_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + bookingColumns

	var stored domain.Booking
	err := sqlx.GetContext(ctx, r.db, &stored, query,
		booking.TourID,
		booking.UserID,
		booking.ProviderID,
		domain.DateOnly(booking.BookingDate),
		booking.PartySize,
		booking.TotalPriceCents,
		booking.Currency,
		booking.Status,
		booking.PaymentStatus,
		booking.IdempotencyKey,
	)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `, t.title AS tour_title
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		WHERE b.id = $1
	`
	var booking domain.Booking
	if err := sqlx.GetContext(ctx, r.db, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1 FOR UPDATE`
	var booking domain.Booking
	if err := sqlx.GetContext(ctx, r.db, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.user_id = $1 AND b.idempotency_key = $2`
	var booking domain.Booking
	if err := sqlx.GetContext(ctx, r.db, &booking, query, userID, key); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) (*domain.Booking, error) {
	query := `
		UPDATE bookings AS b
		SET status = $3, updated_at = NOW()
		WHERE b.id = $1 AND b.status = $2
		RETURNING ` + bookingColumns

	var booking domain.Booking
	if err := sqlx.GetContext(ctx, r.db, &booking, query, id, from, to); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `, t.title AS tour_title
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		WHERE b.user_id = $1
		ORDER BY b.booking_date DESC, b.created_at DESC, b.id DESC
	`
	bookings := make([]domain.Booking, 0)
	if err := sqlx.SelectContext(ctx, r.db, &bookings, query, userID); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `, t.title AS tour_title
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		WHERE b.provider_id = $1
		ORDER BY b.booking_date DESC, b.created_at DESC, b.id DESC
	`
	bookings := make([]domain.Booking, 0)
	if err := sqlx.SelectContext(ctx, r.db, &bookings, query, providerID); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) ListLatestByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `, t.title AS tour_title
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		WHERE b.provider_id = $1
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $2
	`
	bookings := make([]domain.Booking, 0, limit)
	if err := sqlx.SelectContext(ctx, r.db, &bookings, query, providerID, limit); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) StatsByProvider(ctx context.Context, providerID uuid.UUID) (*domain.ProviderBookingStats, error) {
	const query = `
		SELECT
			COALESCE(SUM(total_price_cents) FILTER (WHERE status <> 'cancelled'), 0)::bigint AS total_revenue_cents,
			COUNT(*)::int AS total_bookings,
			COUNT(*) FILTER (WHERE status = 'pending')::int AS pending_bookings
		FROM bookings
		WHERE provider_id = $1
	`
	var stats domain.ProviderBookingStats
	if err := sqlx.GetContext(ctx, r.db, &stats, query, providerID); err != nil {
		return nil, err
	}
	return &stats, nil
}

var _ ports.BookingRepository = (*BookingRepository)(nil)
