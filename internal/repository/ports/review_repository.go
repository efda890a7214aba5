package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) (*domain.Review, error)
	ExistsForUserTour(ctx context.Context, userID, tourID uuid.UUID) (bool, error)
	ListByTour(ctx context.Context, tourID uuid.UUID, limit, offset int) ([]domain.Review, error)
	Aggregate(ctx context.Context, tourID uuid.UUID) (*domain.RatingStats, error)
	AggregateByProvider(ctx context.Context, providerID uuid.UUID) (*domain.RatingStats, error)
	ListRecentByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]domain.Review, error)
}
