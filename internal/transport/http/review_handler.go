package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/service"
	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

type ReviewService interface {
	SubmitReview(ctx context.Context, input service.SubmitReviewInput) (*domain.Review, error)
	ListTourReviews(ctx context.Context, tourID uuid.UUID, limit, offset int) (*domain.ReviewListResult, error)
}

type RatingService interface {
	RecomputeRating(ctx context.Context, tourID uuid.UUID) (*domain.RatingStats, error)
}

type ReviewHandler struct {
	reviews ReviewService
	ratings RatingService
	tours   TourService
}

type submitReviewRequest struct {
	BookingID string `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type ratingResponse struct {
	TourID        uuid.UUID   `json:"tour_id"`
	AverageRating float64     `json:"average_rating"`
	DisplayRating float64     `json:"display_rating"`
	TotalReviews  int         `json:"total_reviews"`
	RatingCounts  map[int]int `json:"rating_counts"`
}

func RegisterReviews(e *echo.Echo, auth Authenticator, reviews ReviewService, ratings RatingService, tours TourService, limiter echo.MiddlewareFunc) {
	handler := &ReviewHandler{reviews: reviews, ratings: ratings, tours: tours}

	e.GET("/api/v1/tours/:tour_id/reviews", handler.listReviews)
	e.POST("/api/v1/tours/:tour_id/reviews", handler.submitReview, RequireAuth(auth), limiter)
	e.POST("/api/v1/tours/:tour_id/rating/recompute", handler.recomputeRating, RequireAuth(auth), RequireProvider())
}

func (h *ReviewHandler) submitReview(c echo.Context) error {
	actor, _ := CurrentActor(c)
	tourID, err := uuid.Parse(c.Param("tour_id"))
	if err != nil {
		return badRequest(c, "tour_id must be a valid UUID")
	}

	var req submitReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	bookingID, err := uuid.Parse(strings.TrimSpace(req.BookingID))
	if err != nil {
		return badRequest(c, "booking_id must be a valid UUID")
	}

	review, err := h.reviews.SubmitReview(c.Request().Context(), service.SubmitReviewInput{
		TourID:    tourID,
		UserID:    actor.ID,
		BookingID: bookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("review", review))
}

func (h *ReviewHandler) listReviews(c echo.Context) error {
	tourID, err := uuid.Parse(c.Param("tour_id"))
	if err != nil {
		return badRequest(c, "tour_id must be a valid UUID")
	}
	limit, offset := parsePagination(c, 20, 0)

	result, err := h.reviews.ListTourReviews(c.Request().Context(), tourID, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"reviews": result.Reviews,
		"rating":  toRatingResponse(result.Stats),
		"limit":   result.Limit,
		"offset":  result.Offset,
	})
}

// recomputeRating lets the tour's provider force a refresh of the stored
// aggregate.
func (h *ReviewHandler) recomputeRating(c echo.Context) error {
	actor, _ := CurrentActor(c)
	tourID, err := uuid.Parse(c.Param("tour_id"))
	if err != nil {
		return badRequest(c, "tour_id must be a valid UUID")
	}
	tour, err := h.tours.Get(c.Request().Context(), tourID)
	if err != nil {
		return writeError(c, err)
	}
	if tour.ProviderID != actor.ID {
		return c.JSON(http.StatusForbidden, util.ErrorCode("tour belongs to another provider", "forbidden"))
	}

	stats, err := h.ratings.RecomputeRating(c.Request().Context(), tourID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("rating", toRatingResponse(*stats)))
}

func toRatingResponse(stats domain.RatingStats) ratingResponse {
	return ratingResponse{
		TourID:        stats.TourID,
		AverageRating: stats.AverageRating,
		DisplayRating: stats.DisplayAverage(),
		TotalReviews:  stats.TotalReviews,
		RatingCounts:  stats.RatingCounts,
	}
}
