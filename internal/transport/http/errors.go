package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/njprem/Tour_Market_BackEnd/internal/service"
	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Specific errors come first so they win over their kind.
var errorMappings = []errorMapping{
	{service.ErrInvalidPartySize, http.StatusBadRequest, "invalid_party_size"},
	{service.ErrCapacityExceeded, http.StatusBadRequest, "capacity_exceeded"},
	{service.ErrInvalidDate, http.StatusBadRequest, "invalid_date"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{service.ErrTourNotFound, http.StatusNotFound, "tour_not_found"},
	{service.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{service.ErrWishlistItemNotFound, http.StatusNotFound, "wishlist_item_not_found"},
	{service.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{service.ErrDuplicateReview, http.StatusConflict, "duplicate_review"},
	{service.ErrNotEligible, http.StatusUnprocessableEntity, "not_eligible"},
	{service.ErrWishlistItemExists, http.StatusConflict, "wishlist_item_exists"},
	{service.ErrTimeout, http.StatusGatewayTimeout, "timeout"},
	{service.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{service.ErrExportStorageDisabled, http.StatusServiceUnavailable, "export_disabled"},

	{service.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{service.ErrConflict, http.StatusConflict, "conflict"},
	{service.ErrTransient, http.StatusServiceUnavailable, "unavailable"},
}

// writeError renders err in the {"error","code"} envelope. Unknown errors are
// logged and hidden behind a generic message.
func writeError(c echo.Context, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return c.JSON(m.status, util.ErrorCode(err.Error(), m.code))
		}
	}
	log.Printf("%s %s: unhandled error: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, util.ErrorCode("internal server error", "internal"))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, util.ErrorCode(message, "invalid_input"))
}
