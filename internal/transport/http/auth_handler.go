package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/service"
	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

type AuthService interface {
	Authenticator
	LoginWithGoogle(ctx context.Context, idToken string, role domain.ActorRole) (*service.AuthResult, error)
	Profile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

type AuthHandler struct {
	auth AuthService
}

func RegisterAuth(e *echo.Echo, auth AuthService) {
	handler := &AuthHandler{auth: auth}

	e.POST("/api/v1/auth/google", handler.googleLogin)
	e.GET("/api/v1/auth/me", handler.me, RequireAuth(auth))
}

func (h *AuthHandler) googleLogin(c echo.Context) error {
	var req googleLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	role := domain.ActorRole(strings.ToLower(strings.TrimSpace(req.Role)))

	result, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken, role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, AuthTokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		Profile:   toAuthProfile(result.Profile),
	})
}

func (h *AuthHandler) me(c echo.Context) error {
	actor, _ := CurrentActor(c)
	profile, err := h.auth.Profile(c.Request().Context(), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("profile", toAuthProfile(profile)))
}

func toAuthProfile(p *domain.Profile) AuthProfile {
	return AuthProfile{
		ID:        p.ID.String(),
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt,
	}
}
