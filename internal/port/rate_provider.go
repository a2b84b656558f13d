package port

import (
	"context"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

// RateProvider is a single source of shipping quotes. Implementations
// normalize their upstream responses into domain.Offer and keep failures
// behind their boundary: a returned error means the provider itself failed,
// an empty slice means it simply does not serve the destination.
type RateProvider interface {
	ID() string
	Name() string
	Quote(ctx context.Context, dest domain.Destination, pkg domain.Package) ([]domain.Offer, error)
}
