package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductKind string

const (
	KindSealed  ProductKind = "sealed"
	KindDecant  ProductKind = "decant"
	KindService ProductKind = "service"
)

type Product struct {
	ID        string
	Name      string
	Brand     string
	Price     decimal.Decimal
	Stock     int
	Category  string
	WeightKg  float64
	Kind      ProductKind
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TracksStock reports whether the ledger adjusts stock for this product.
// Service-type line items (e.g. gift wrapping) carry no inventory.
func (p Product) TracksStock() bool {
	return p.Kind != KindService
}
