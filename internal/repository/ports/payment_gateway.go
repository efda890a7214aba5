package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
)

type PaymentRequest struct {
	UserID      uuid.UUID
	TourID      uuid.UUID
	AmountCents int64
	Currency    string
}

// PaymentGateway decides the payment status a new booking starts with.
type PaymentGateway interface {
	InitialStatus(ctx context.Context, req PaymentRequest) (domain.PaymentStatus, error)
}
