package domain

import "github.com/shopspring/decimal"

type Destination struct {
	PostalCode string
	Street     string
	Locality   string
	State      string
}

// Package describes the parcel a carrier is asked to quote.
type Package struct {
	WeightKg float64
	LengthCm int
	WidthCm  int
	HeightCm int
}

// Offer is a single shipping option. A non-empty Err marks the offer as
// unavailable; the reason is kept so the UI can show a disabled option
// instead of hiding the provider entirely.
type Offer struct {
	ProviderID   string
	Service      string
	Price        decimal.Decimal
	DeliveryDays int
	Err          string
}

func (o Offer) Available() bool {
	return o.Err == ""
}

// Rate is a flat price/duration pair for a courier rate table entry.
type Rate struct {
	Price        decimal.Decimal
	DeliveryDays int
}
