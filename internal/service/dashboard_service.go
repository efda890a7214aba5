package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

const dashboardRecentLimit = 5

type DashboardService struct {
	store ports.Store
}

func NewDashboardService(store ports.Store) *DashboardService {
	return &DashboardService{store: store}
}

// ProviderDashboard summarises the provider's bookings and the reviews left
// on their tours. Revenue excludes cancelled bookings.
func (s *DashboardService) ProviderDashboard(ctx context.Context, providerID uuid.UUID) (*domain.ProviderDashboard, error) {
	stats, err := s.store.Bookings().StatsByProvider(ctx, providerID)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	rating, err := s.store.Reviews().AggregateByProvider(ctx, providerID)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	latest, err := s.store.Bookings().ListLatestByProvider(ctx, providerID, dashboardRecentLimit)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	reviews, err := s.store.Reviews().ListRecentByProvider(ctx, providerID, dashboardRecentLimit)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	if latest == nil {
		latest = []domain.Booking{}
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}

	return &domain.ProviderDashboard{
		ProviderID:     providerID,
		Stats:          *stats,
		AverageRating:  rating.DisplayAverage(),
		TotalReviews:   rating.TotalReviews,
		LatestBookings: latest,
		RecentReviews:  reviews,
	}, nil
}
