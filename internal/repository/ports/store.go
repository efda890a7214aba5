package ports

import "context"

// UnitOfWork groups the repositories that take part in the booking and
// review lifecycle so they can share one transaction.
type UnitOfWork interface {
	Tours() TourRepository
	Bookings() BookingRepository
	Reviews() ReviewRepository
}

// Store hands out repositories bound to the connection pool and runs
// functions inside a transaction. fn's error rolls the transaction back.
type Store interface {
	UnitOfWork
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}
