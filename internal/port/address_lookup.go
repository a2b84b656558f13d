package port

import (
	"context"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

// AddressLookup resolves a postal code to a normalized destination.
// An unknown code yields domain.ErrAddressNotFound, kept distinct from
// shipping-provider errors.
type AddressLookup interface {
	ByPostalCode(ctx context.Context, code string) (*domain.Destination, error)
}
