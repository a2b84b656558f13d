package service

import (
	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PriceBreakdown is the result of pricing a cart against a shipping offer.
// All amounts are fixed-point decimals; formatting is a presentation concern.
type PriceBreakdown struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotal combines the cart subtotal, the selected shipping offer and an
// optional discount into a final total. Pure and deterministic: prices come
// from the snapshots captured on each cart item and are never re-fetched.
// The total is clamped at zero when the discount exceeds the goods value.
func ComputeTotal(items []domain.CartItem, shipping domain.Offer, discount decimal.Decimal) PriceBreakdown {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	total := subtotal.Add(shipping.Price).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return PriceBreakdown{
		Subtotal: subtotal,
		Shipping: shipping.Price,
		Discount: discount,
		Total:    total,
	}
}
