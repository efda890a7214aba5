package http

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

// RateLimit throttles write routes per actor, falling back to the client IP
// for anonymous requests. A nil limiter disables it; limiter failures let the
// request through.
func RateLimit(limiter ports.RateLimiter) echo.MiddlewareFunc {
	if limiter == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if actor, ok := CurrentActor(c); ok {
				key = "actor:" + actor.ID.String()
			}
			key += ":" + c.Request().Method + ":" + c.Path()

			decision, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				c.Logger().Warnf("rate limiter unavailable for %s: %v", key, err)
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
			if !decision.Allowed {
				secs := int(math.Ceil(decision.RetryAfter.Seconds()))
				if secs < 0 {
					secs = 0
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, util.ErrorCode("rate limit exceeded", "too_many_requests"))
			}
			return next(c)
		}
	}
}
