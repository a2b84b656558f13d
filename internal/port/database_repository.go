package port

import (
	"context"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

type CatalogRepository interface {
	// GetProduct retrieves a product with its current stock and price
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type InventoryLedger interface {
	// ApplyAdjustments applies the full batch atomically: either every delta
	// commits or none do. Driving any product below zero aborts the batch
	// with InsufficientStockError; exhausted compare-and-set retries surface
	// ErrContention.
	ApplyAdjustments(ctx context.Context, adjustments []domain.Adjustment) error
}

type SaleStore interface {
	InventoryLedger

	// RecordSale persists the sale and applies its adjustments as one atomic
	// unit, so no reader ever observes a sale without the matching stock
	// decrement.
	RecordSale(ctx context.Context, sale *domain.Sale, adjustments []domain.Adjustment) error

	// GetSale retrieves a sale by ID; sales are append-only
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
}
