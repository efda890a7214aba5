package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
)

type TourRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error)
	List(ctx context.Context, filter domain.TourListFilter) ([]domain.Tour, error)
	Count(ctx context.Context, filter domain.TourListFilter) (int64, error)
	ListLocations(ctx context.Context) ([]string, error)
	ListImages(ctx context.Context, tourIDs []uuid.UUID) (map[uuid.UUID][]domain.TourImage, error)
	// LockForUpdate loads the tour and holds its row lock until the
	// surrounding transaction ends.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*domain.Tour, error)
	// UpdateRatingStats is reserved for the rating aggregator.
	UpdateRatingStats(ctx context.Context, stats domain.RatingStats) error
}
