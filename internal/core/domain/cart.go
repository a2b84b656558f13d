package domain

import "github.com/shopspring/decimal"

// CartItem is a product snapshot captured at checkout time. Name and unit
// price are frozen here so the total stays stable within a session even if
// the catalog changes underneath.
type CartItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Kind      ProductKind
	WeightKg  float64
}
