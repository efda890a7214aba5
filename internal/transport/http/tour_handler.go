package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/service"
	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

type TourService interface {
	List(ctx context.Context, filter domain.TourListFilter) (*service.TourListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Tour, error)
	Locations(ctx context.Context) ([]string, error)
}

type TourHandler struct {
	tours TourService
}

func RegisterTours(e *echo.Echo, tours TourService) {
	handler := &TourHandler{tours: tours}

	group := e.Group("/api/v1/tours")
	group.GET("", handler.listTours)
	group.GET("/locations", handler.listLocations)
	group.GET("/:tour_id", handler.getTour)
}

func (h *TourHandler) listTours(c echo.Context) error {
	filter, err := parseTourListFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	result, err := h.tours.List(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"tours":  result.Tours,
		"total":  result.Total,
		"limit":  result.Limit,
		"offset": result.Offset,
	})
}

func (h *TourHandler) listLocations(c echo.Context) error {
	locations, err := h.tours.Locations(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("locations", locations))
}

func (h *TourHandler) getTour(c echo.Context) error {
	id, err := uuid.Parse(c.Param("tour_id"))
	if err != nil {
		return badRequest(c, "tour_id must be a valid UUID")
	}
	tour, err := h.tours.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("tour", tour))
}

// parseTourListFilter reads prices in major currency units and converts them
// to cents.
func parseTourListFilter(c echo.Context) (domain.TourListFilter, error) {
	filter := domain.TourListFilter{
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Location: strings.TrimSpace(c.QueryParam("location")),
	}
	filter.Limit, filter.Offset = parsePagination(c, 20, 0)

	var err error
	if filter.MinPriceCents, err = parsePriceParam(c, "min_price"); err != nil {
		return domain.TourListFilter{}, err
	}
	if filter.MaxPriceCents, err = parsePriceParam(c, "max_price"); err != nil {
		return domain.TourListFilter{}, err
	}
	if filter.MinPriceCents != nil && filter.MaxPriceCents != nil && *filter.MinPriceCents > *filter.MaxPriceCents {
		return domain.TourListFilter{}, errors.New("min_price cannot be greater than max_price")
	}
	if v := strings.TrimSpace(c.QueryParam("max_duration")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return domain.TourListFilter{}, errors.New("max_duration must be a positive number of hours")
		}
		filter.MaxDuration = &parsed
	}
	return filter, nil
}

func parsePriceParam(c echo.Context, name string) (*int64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil || parsed < 0 || math.IsInf(parsed, 0) || math.IsNaN(parsed) {
		return nil, errors.New(name + " must be a non-negative number")
	}
	cents := int64(math.Round(parsed * 100))
	return &cents, nil
}

func parsePagination(c echo.Context, defaultLimit, defaultOffset int) (int, int) {
	limit := defaultLimit
	offset := defaultOffset
	if v := strings.TrimSpace(c.QueryParam("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := strings.TrimSpace(c.QueryParam("offset")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
