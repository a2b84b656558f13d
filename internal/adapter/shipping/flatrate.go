package shipping

import (
	"context"
	"strings"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

// FlatRateCourier quotes from a static locality→rate table, typically the
// regional courier's published price list. A locality absent from the table
// means the courier does not serve it; that is not an error.
type FlatRateCourier struct {
	rates map[string]domain.Rate
}

func NewFlatRateCourier(rates map[string]domain.Rate) *FlatRateCourier {
	normalized := make(map[string]domain.Rate, len(rates))
	for locality, rate := range rates {
		normalized[normalizeLocality(locality)] = rate
	}
	return &FlatRateCourier{rates: normalized}
}

func (*FlatRateCourier) ID() string   { return "courier" }
func (*FlatRateCourier) Name() string { return "Regional courier" }

func (c *FlatRateCourier) Quote(ctx context.Context, dest domain.Destination, pkg domain.Package) ([]domain.Offer, error) {
	rate, ok := c.rates[normalizeLocality(dest.Locality)]
	if !ok {
		return nil, nil
	}
	return []domain.Offer{{
		ProviderID:   c.ID(),
		Service:      c.Name(),
		Price:        rate.Price,
		DeliveryDays: rate.DeliveryDays,
	}}, nil
}

// normalizeLocality lowercases and collapses whitespace so "São Paulo " and
// "são  paulo" hit the same table entry.
func normalizeLocality(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
