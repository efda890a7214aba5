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

type WishlistService interface {
	Save(ctx context.Context, userID, tourID uuid.UUID) (*domain.WishlistItem, error)
	Remove(ctx context.Context, userID, tourID uuid.UUID) error
	IsSaved(ctx context.Context, userID, tourID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) (*service.WishlistListResult, error)
}

type WishlistHandler struct {
	wishlist WishlistService
}

func RegisterWishlist(e *echo.Echo, auth Authenticator, wishlist WishlistService) {
	handler := &WishlistHandler{wishlist: wishlist}

	protected := e.Group("/api/v1/users/me/wishlist", RequireAuth(auth))
	protected.POST("", handler.saveTour)
	protected.GET("", handler.listWishlist)
	protected.GET("/:tour_id", handler.isSaved)
	protected.DELETE("/:tour_id", handler.removeTour)
}

func (h *WishlistHandler) saveTour(c echo.Context) error {
	actor, _ := CurrentActor(c)

	var req struct {
		TourID string `json:"tour_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.TourID) == "" {
		return badRequest(c, "tour_id is required")
	}
	tourID, err := uuid.Parse(strings.TrimSpace(req.TourID))
	if err != nil {
		return badRequest(c, "tour_id must be a valid UUID")
	}

	item, err := h.wishlist.Save(c.Request().Context(), actor.ID, tourID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Envelope{
		"wishlist_item": util.Envelope{
			"id":       item.ID,
			"tour_id":  item.TourID,
			"saved_at": item.CreatedAt.UTC().Format(time.RFC3339),
		},
		"message": "Tour saved to wishlist",
	})
}

func (h *WishlistHandler) removeTour(c echo.Context) error {
	actor, _ := CurrentActor(c)
	tourID, err := uuid.Parse(strings.TrimSpace(c.Param("tour_id")))
	if err != nil {
		return badRequest(c, "tour_id must be a valid UUID")
	}
	if err := h.wishlist.Remove(c.Request().Context(), actor.ID, tourID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"tour_id": tourID,
		"message": "Tour removed from wishlist",
	})
}

func (h *WishlistHandler) isSaved(c echo.Context) error {
	actor, _ := CurrentActor(c)
	tourID, err := uuid.Parse(strings.TrimSpace(c.Param("tour_id")))
	if err != nil {
		return badRequest(c, "tour_id must be a valid UUID")
	}
	saved, err := h.wishlist.IsSaved(c.Request().Context(), actor.ID, tourID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"tour_id": tourID, "saved": saved})
}

func (h *WishlistHandler) listWishlist(c echo.Context) error {
	actor, _ := CurrentActor(c)
	limit, offset := parsePagination(c, 20, 0)
	result, err := h.wishlist.List(c.Request().Context(), actor.ID, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"items":  result.Items,
		"total":  result.Total,
		"limit":  result.Limit,
		"offset": result.Offset,
	})
}
