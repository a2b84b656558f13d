package service

import (
	"context"
	"errors"
	"time"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/decantaria/fulfillment/internal/port"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultProviderTimeout = 5 * time.Second

// QuoteSet is the merged result of one resolution: every provider's offers
// in registration order, error offers included for UI transparency.
// DefaultIndex points at the cheapest selectable offer, -1 when none is.
type QuoteSet struct {
	Offers       []domain.Offer
	DefaultIndex int
}

func (q *QuoteSet) Default() *domain.Offer {
	if q.DefaultIndex < 0 {
		return nil
	}
	return &q.Offers[q.DefaultIndex]
}

type ShippingResolver struct {
	providers []port.RateProvider
	timeout   time.Duration
}

func NewShippingResolver(providers []port.RateProvider, timeout time.Duration) *ShippingResolver {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &ShippingResolver{providers: providers, timeout: timeout}
}

// Resolve fans out to every registered provider concurrently, each with its
// own timeout. A provider that errors or times out yields a labeled error
// offer and never blocks or aborts its siblings, so the effective ceiling is
// the slowest provider, not the sum. When no offer is selectable the set is
// still returned alongside domain.ErrNoShippingAvailable.
func (r *ShippingResolver) Resolve(ctx context.Context, dest domain.Destination, pkg domain.Package) (*QuoteSet, error) {
	results := make([][]domain.Offer, len(r.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.providers {
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()

			offers, err := p.Quote(qctx, dest, pkg)
			if err != nil {
				zerolog.Ctx(ctx).Warn().
					Str("provider", p.ID()).
					Err(err).
					Msg("rate provider failed")
				results[i] = []domain.Offer{errorOffer(p, err)}
				return nil
			}
			results[i] = offers
			return nil
		})
	}
	// goroutines swallow provider errors into offers, so Wait cannot fail
	_ = g.Wait()

	set := &QuoteSet{DefaultIndex: -1}
	for _, offers := range results {
		set.Offers = append(set.Offers, offers...)
	}

	for i, o := range set.Offers {
		if !o.Available() {
			continue
		}
		if set.DefaultIndex < 0 || o.Price.LessThan(set.Offers[set.DefaultIndex].Price) {
			set.DefaultIndex = i
		}
	}

	if set.DefaultIndex < 0 {
		return set, domain.ErrNoShippingAvailable
	}
	return set, nil
}

func errorOffer(p port.RateProvider, err error) domain.Offer {
	reason := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timed out"
	case errors.Is(err, domain.ErrNotConfigured):
		reason = "not configured"
	}
	return domain.Offer{
		ProviderID: p.ID(),
		Service:    p.Name(),
		Err:        reason,
	}
}
