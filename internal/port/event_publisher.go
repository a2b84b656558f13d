package port

import (
	"context"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

// EventPublisher emits sale summaries for operational dashboards.
// Fire-and-forget; at-most-once delivery is acceptable.
type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, evt domain.SaleCompleted) error
}
