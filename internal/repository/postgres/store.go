package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

// Store exposes the lifecycle repositories over the pool and inside
// transactions.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Tours() ports.TourRepository       { return NewTourRepo(s.db) }
func (s *Store) Bookings() ports.BookingRepository { return NewBookingRepo(s.db) }
func (s *Store) Reviews() ports.ReviewRepository   { return NewReviewRepo(s.db) }

func (s *Store) WithinTx(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&txUnit{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type txUnit struct {
	tx *sqlx.Tx
}

func (u *txUnit) Tours() ports.TourRepository       { return NewTourRepo(u.tx) }
func (u *txUnit) Bookings() ports.BookingRepository { return NewBookingRepo(u.tx) }
func (u *txUnit) Reviews() ports.ReviewRepository   { return NewReviewRepo(u.tx) }

var _ ports.Store = (*Store)(nil)
