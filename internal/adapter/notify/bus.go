package notify

import (
	"context"
	"sync"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

// Bus is an in-process publisher for single-instance deployments. Each
// subscriber gets its own buffered channel and marks items read by draining
// it; a full buffer drops the event (at-most-once), which is acceptable for
// the dashboard feed and never affects sale or inventory correctness.
type Bus struct {
	mu   sync.RWMutex
	subs []chan domain.SaleCompleted
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a consumer. The returned channel is closed by Close.
func (b *Bus) Subscribe(buffer int) <-chan domain.SaleCompleted {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan domain.SaleCompleted, buffer)

	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

func (b *Bus) PublishSaleCompleted(ctx context.Context, evt domain.SaleCompleted) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// slow consumer, drop rather than block the publisher
		}
	}
	return nil
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
