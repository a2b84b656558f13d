package port

import (
	"context"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentGateway opens a payment session against an external processor.
// It is strictly decoupled from sale commit: a failure here never rolls
// back or blocks an already-committed sale.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, amount decimal.Decimal, payerEmail, description string) (*domain.Charge, error)
}
