package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Booking, error)
	// UpdateStatus moves the booking from one status to another and returns
	// sql.ErrNoRows when the booking is no longer in the from status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Booking, error)
	ListLatestByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]domain.Booking, error)
	StatsByProvider(ctx context.Context, providerID uuid.UUID) (*domain.ProviderBookingStats, error)
}
