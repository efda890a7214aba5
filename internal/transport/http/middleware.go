package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

const contextActorKey = "auth.actor"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Actor, error)
}

func RequireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.TrimSpace(authHeader) == "" {
				return c.JSON(http.StatusUnauthorized, util.ErrorCode("missing authorization header", "unauthenticated"))
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.JSON(http.StatusUnauthorized, util.ErrorCode("invalid authorization header", "unauthenticated"))
			}
			actor, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				return writeError(c, err)
			}
			c.Set(contextActorKey, actor)
			return next(c)
		}
	}
}

// RequireProvider must run after RequireAuth.
func RequireProvider() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := CurrentActor(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, util.ErrorCode("authentication required", "unauthenticated"))
			}
			if !actor.IsProvider() {
				return c.JSON(http.StatusForbidden, util.ErrorCode("provider account required", "forbidden"))
			}
			return next(c)
		}
	}
}

func CurrentActor(c echo.Context) (domain.Actor, bool) {
	actor, ok := c.Get(contextActorKey).(*domain.Actor)
	if !ok || actor == nil {
		return domain.Actor{}, false
	}
	return *actor, true
}
