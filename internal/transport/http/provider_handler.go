package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

type DashboardService interface {
	ProviderDashboard(ctx context.Context, providerID uuid.UUID) (*domain.ProviderDashboard, error)
}

type ExportService interface {
	ExportProviderBookings(ctx context.Context, providerID uuid.UUID) (string, error)
}

type ProviderHandler struct {
	dashboard DashboardService
	exports   ExportService
}

func RegisterProvider(e *echo.Echo, auth Authenticator, dashboard DashboardService, exports ExportService) {
	handler := &ProviderHandler{dashboard: dashboard, exports: exports}

	group := e.Group("/api/v1/providers/me", RequireAuth(auth), RequireProvider())
	group.GET("/dashboard", handler.getDashboard)
	group.POST("/bookings/export", handler.exportBookings)
}

func (h *ProviderHandler) getDashboard(c echo.Context) error {
	actor, _ := CurrentActor(c)
	dashboard, err := h.dashboard.ProviderDashboard(c.Request().Context(), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("dashboard", dashboard))
}

func (h *ProviderHandler) exportBookings(c echo.Context) error {
	actor, _ := CurrentActor(c)
	url, err := h.exports.ExportProviderBookings(c.Request().Context(), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Envelope{"url": url})
}
