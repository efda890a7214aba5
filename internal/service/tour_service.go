package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

type TourListResult struct {
	Tours  []domain.Tour
	Total  int64
	Limit  int
	Offset int
}

// TourService is the read side of the catalog. Rating columns come back as
// the aggregator last stored them.
type TourService struct {
	tours ports.TourRepository
}

func NewTourService(tours ports.TourRepository) *TourService {
	return &TourService{tours: tours}
}

func (s *TourService) List(ctx context.Context, filter domain.TourListFilter) (*TourListResult, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Location = strings.TrimSpace(filter.Location)
	if filter.MinPriceCents != nil && filter.MaxPriceCents != nil && *filter.MinPriceCents > *filter.MaxPriceCents {
		return nil, fmt.Errorf("%w: min_price must not exceed max_price", ErrInvalidInput)
	}
	filter.Limit, filter.Offset = normalizePagination(filter.Limit, filter.Offset)

	tours, err := s.tours.List(ctx, filter)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	total, err := s.tours.Count(ctx, filter)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	if len(tours) > 0 {
		ids := make([]uuid.UUID, len(tours))
		for i := range tours {
			ids[i] = tours[i].ID
		}
		images, err := s.tours.ListImages(ctx, ids)
		if err != nil {
			return nil, classifyStorageError(err)
		}
		for i := range tours {
			tours[i].Images = images[tours[i].ID]
		}
	}
	if tours == nil {
		tours = []domain.Tour{}
	}

	return &TourListResult{
		Tours:  tours,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func (s *TourService) Get(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	tour, err := s.tours.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTourNotFound, id)
		}
		return nil, classifyStorageError(err)
	}
	images, err := s.tours.ListImages(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, classifyStorageError(err)
	}
	tour.Images = images[id]
	return tour, nil
}

func (s *TourService) Locations(ctx context.Context) ([]string, error) {
	locations, err := s.tours.ListLocations(ctx)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	if locations == nil {
		locations = []string{}
	}
	return locations, nil
}
