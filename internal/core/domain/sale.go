package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID    string
	Name  string
	Email string
}

type SaleItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Sale is the immutable record of a completed checkout. Corrections require
// a new compensating record; there is no update path.
type Sale struct {
	ID        string
	Customer  Customer
	Items     []SaleItem
	Shipping  Offer
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Adjustment is a signed stock delta applied alongside a sale. A negative
// delta decrements stock; the batch either applies in full or not at all.
type Adjustment struct {
	ProductID string
	Delta     int
}

// SaleCompleted is the event published after a sale commits. Delivery is
// best-effort; losing it never affects sale or inventory correctness.
type SaleCompleted struct {
	SaleID       string
	CustomerName string
	Amount       decimal.Decimal
	Timestamp    time.Time
}

func NewSaleCompleted(s *Sale) SaleCompleted {
	return SaleCompleted{
		SaleID:       s.ID,
		CustomerName: s.Customer.Name,
		Amount:       s.Total,
		Timestamp:    s.CreatedAt,
	}
}
