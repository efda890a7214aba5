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

const headerIdempotencyKey = "Idempotency-Key"

type BookingService interface {
	CreateBooking(ctx context.Context, input service.CreateBookingInput) (*domain.Booking, error)
	TransitionStatus(ctx context.Context, bookingID uuid.UUID, actor domain.Actor, target domain.BookingStatus) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID, actor domain.Actor) (*domain.Booking, error)
	ListBookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	ListBookingsForProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Booking, error)
}

type BookingHandler struct {
	bookings BookingService
}

type createBookingRequest struct {
	TourID      string `json:"tour_id"`
	BookingDate string `json:"booking_date"`
	PartySize   int    `json:"party_size"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func RegisterBookings(e *echo.Echo, auth Authenticator, bookings BookingService, limiter echo.MiddlewareFunc) {
	handler := &BookingHandler{bookings: bookings}

	group := e.Group("/api/v1/bookings", RequireAuth(auth))
	group.POST("", handler.createBooking, limiter)
	group.GET("/:id", handler.getBooking)
	group.PUT("/:id/status", handler.updateStatus, RequireProvider(), limiter)

	e.GET("/api/v1/users/me/bookings", handler.listMine, RequireAuth(auth))
	e.GET("/api/v1/providers/me/bookings", handler.listForProvider, RequireAuth(auth), RequireProvider())
}

func (h *BookingHandler) createBooking(c echo.Context) error {
	actor, _ := CurrentActor(c)

	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	tourID, err := uuid.Parse(strings.TrimSpace(req.TourID))
	if err != nil {
		return badRequest(c, "tour_id must be a valid UUID")
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(req.BookingDate))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorCode("booking_date must use YYYY-MM-DD", "invalid_date"))
	}

	booking, err := h.bookings.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		TourID:         tourID,
		UserID:         actor.ID,
		Date:           date,
		PartySize:      req.PartySize,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("booking", booking))
}

func (h *BookingHandler) getBooking(c echo.Context) error {
	actor, _ := CurrentActor(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "id must be a valid UUID")
	}
	booking, err := h.bookings.GetBooking(c.Request().Context(), id, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("booking", booking))
}

func (h *BookingHandler) updateStatus(c echo.Context) error {
	actor, _ := CurrentActor(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "id must be a valid UUID")
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	target, err := domain.ParseBookingStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorCode(err.Error(), "invalid_status"))
	}

	booking, err := h.bookings.TransitionStatus(c.Request().Context(), id, actor, target)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("booking", booking))
}

func (h *BookingHandler) listMine(c echo.Context) error {
	actor, _ := CurrentActor(c)
	bookings, err := h.bookings.ListBookingsForUser(c.Request().Context(), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("bookings", bookings))
}

func (h *BookingHandler) listForProvider(c echo.Context) error {
	actor, _ := CurrentActor(c)
	bookings, err := h.bookings.ListBookingsForProvider(c.Request().Context(), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("bookings", bookings))
}
