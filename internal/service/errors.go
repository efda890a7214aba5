package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Every error returned by this package unwraps to at most one
// of them, so callers can branch with errors.Is on either the kind or the
// specific error.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrTransient       = errors.New("temporarily unavailable")
	ErrUnauthenticated = errors.New("authentication failed")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrInvalidInput     = newKindError(ErrValidation, "invalid input")
	ErrInvalidPartySize = newKindError(ErrValidation, "party size must be at least 1")
	ErrCapacityExceeded = newKindError(ErrValidation, "party size exceeds tour capacity")
	ErrInvalidDate      = newKindError(ErrValidation, "booking date must not be in the past")
	ErrInvalidStatus    = newKindError(ErrValidation, "unknown booking status")

	ErrTourNotFound         = newKindError(ErrNotFound, "tour not found")
	ErrBookingNotFound      = newKindError(ErrNotFound, "booking not found")
	ErrWishlistItemNotFound = newKindError(ErrNotFound, "tour is not in the wishlist")

	ErrInvalidTransition  = newKindError(ErrConflict, "booking status transition not allowed")
	ErrDuplicateReview    = newKindError(ErrConflict, "review already exists for this tour")
	ErrNotEligible        = newKindError(ErrConflict, "booking is not eligible for review")
	ErrWishlistItemExists = newKindError(ErrConflict, "tour already saved to wishlist")

	ErrTimeout     = newKindError(ErrTransient, "storage did not respond in time")
	ErrUnavailable = newKindError(ErrTransient, "storage unavailable")

	ErrInvalidToken = newKindError(ErrUnauthenticated, "invalid token")
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// classifyStorageError maps driver level failures onto the transient kind and
// leaves every other error untouched.
func classifyStorageError(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, driver.ErrBadConn), pgconn.SafeToRetry(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001", pgErr.Code == "40P01":
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		case strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return err
}

func isTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
