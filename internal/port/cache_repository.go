package port

import (
	"context"
	"time"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

type CacheRepository interface {
	// GetQuotes returns cached carrier offers for key, ok=false on miss
	GetQuotes(ctx context.Context, key string) ([]domain.Offer, bool, error)

	// SetQuotes caches carrier offers under key for ttl
	SetQuotes(ctx context.Context, key string, offers []domain.Offer, ttl time.Duration) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency removes an idempotency key so a failed commit can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}
