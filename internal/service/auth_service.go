package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/idtoken"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

// GoogleTokenValidator verifies a Google ID token for the given audience.
type GoogleTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Profile   *domain.Profile
}

type AuthService struct {
	profiles ports.ProfileRepository
	jwt      *util.JWTManager
	audience string
	validate GoogleTokenValidator
}

func NewAuthService(profiles ports.ProfileRepository, jwtManager *util.JWTManager, googleAudience string) *AuthService {
	return &AuthService{
		profiles: profiles,
		jwt:      jwtManager,
		audience: googleAudience,
		validate: idtoken.Validate,
	}
}

// LoginWithGoogle upserts the profile behind a Google ID token and issues an
// access token. role only applies to a first sign-in; returning users keep the
// role they registered with.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string, role domain.ActorRole) (*AuthResult, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: id_token is required", ErrInvalidInput)
	}
	if role == "" {
		role = domain.RoleCustomer
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: role must be customer or provider", ErrInvalidInput)
	}

	payload, err := s.validate(ctx, idToken, s.audience)
	if err != nil {
		return nil, fmt.Errorf("%w: google token rejected", ErrInvalidToken)
	}
	email, _ := payload.Claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: google token has no email", ErrInvalidToken)
	}
	fullName := optionalClaim(payload.Claims, "name")
	avatarURL := optionalClaim(payload.Claims, "picture")

	profile, err := s.profiles.UpsertGoogleProfile(ctx, email, fullName, avatarURL, role)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	token, expiresAt, err := s.jwt.Generate(profile.ID, profile.Email, string(profile.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Profile: profile}, nil
}

// Authenticate resolves an access token to the actor it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Actor, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	role := domain.ActorRole(claims.Role)
	if claims.UserID == uuid.Nil || !role.IsValid() {
		return nil, ErrInvalidToken
	}
	return &domain.Actor{ID: claims.UserID, Role: role}, nil
}

func (s *AuthService) Profile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: profile %s", ErrNotFound, id)
		}
		return nil, classifyStorageError(err)
	}
	return profile, nil
}

func optionalClaim(claims map[string]interface{}, key string) *string {
	v, _ := claims[key].(string)
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
