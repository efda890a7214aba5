package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
)

type ProfileRepository interface {
	UpsertGoogleProfile(ctx context.Context, email string, fullName, avatarURL *string, role domain.ActorRole) (*domain.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}
