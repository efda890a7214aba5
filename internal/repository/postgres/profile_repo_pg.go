package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepo(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// UpsertGoogleProfile keeps the stored role of an existing profile; role only
// applies to newly created ones.
func (r *ProfileRepository) UpsertGoogleProfile(ctx context.Context, email string, fullName, avatarURL *string, role domain.ActorRole) (*domain.Profile, error) {
	const query = `
		INSERT INTO profiles (email, full_name, avatar_url, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET full_name = COALESCE(EXCLUDED.full_name, profiles.full_name),
		    avatar_url = COALESCE(EXCLUDED.avatar_url, profiles.avatar_url),
		    updated_at = NOW()
		RETURNING id, email, full_name, avatar_url, role, created_at, updated_at
	`
	var profile domain.Profile
	if err := r.db.QueryRowxContext(ctx, query, email, fullName, avatarURL, role).StructScan(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	const query = `
		SELECT id, email, full_name, avatar_url, role, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	var profile domain.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)
