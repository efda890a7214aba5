package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

type WishlistService struct {
	wishlist ports.WishlistRepository
	tours    ports.TourRepository
}

type WishlistListResult struct {
	Items  []domain.WishlistListItem
	Total  int64
	Limit  int
	Offset int
}

func NewWishlistService(wishlistRepo ports.WishlistRepository, tourRepo ports.TourRepository) *WishlistService {
	return &WishlistService{
		wishlist: wishlistRepo,
		tours:    tourRepo,
	}
}

func (s *WishlistService) Save(ctx context.Context, userID, tourID uuid.UUID) (*domain.WishlistItem, error) {
	if _, err := s.tours.FindByID(ctx, tourID); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTourNotFound, tourID)
		}
		return nil, classifyStorageError(err)
	}

	item, err := s.wishlist.Add(ctx, userID, tourID)
	if err != nil {
		switch {
		case isNotFound(err), isUniqueViolation(err):
			return nil, ErrWishlistItemExists
		default:
			return nil, classifyStorageError(err)
		}
	}
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, tourID uuid.UUID) error {
	if err := s.wishlist.Remove(ctx, userID, tourID); err != nil {
		if isNotFound(err) {
			return ErrWishlistItemNotFound
		}
		return classifyStorageError(err)
	}
	return nil
}

func (s *WishlistService) IsSaved(ctx context.Context, userID, tourID uuid.UUID) (bool, error) {
	saved, err := s.wishlist.Exists(ctx, userID, tourID)
	if err != nil {
		return false, classifyStorageError(err)
	}
	return saved, nil
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID, limit, offset int) (*WishlistListResult, error) {
	nLimit, nOffset := normalizePagination(limit, offset)

	items, err := s.wishlist.ListByUser(ctx, userID, nLimit, nOffset)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	total, err := s.wishlist.CountByUser(ctx, userID)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	if items == nil {
		items = []domain.WishlistListItem{}
	}

	return &WishlistListResult{
		Items:  items,
		Total:  total,
		Limit:  nLimit,
		Offset: nOffset,
	}, nil
}
