package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
)

type WishlistRepository interface {
	Add(ctx context.Context, userID, tourID uuid.UUID) (*domain.WishlistItem, error)
	Remove(ctx context.Context, userID, tourID uuid.UUID) error
	Exists(ctx context.Context, userID, tourID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WishlistListItem, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
