package domain

import "errors"

var (
	ErrProductNotFound     = errors.New("catalog: product not found")
	ErrSaleNotFound        = errors.New("sale: not found")
	ErrAddressNotFound     = errors.New("address: postal code not found")
	ErrNoShippingAvailable = errors.New("shipping: no provider available for destination")
	ErrNotConfigured       = errors.New("not configured")
	ErrContention          = errors.New("inventory: concurrent update retries exhausted")
	ErrDuplicateRequest    = errors.New("checkout: duplicate request")
)

// InsufficientStockError names the product that made a sale commit fail, so
// the caller can prompt a cart correction instead of a blind retry.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return "inventory: insufficient stock for product " + e.ProductID
}
