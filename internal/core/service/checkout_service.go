package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/decantaria/fulfillment/internal/port"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("checkout: cart is empty")
	ErrInvalidQuantity = errors.New("checkout: quantity must be greater than zero")
	ErrOfferNotValid   = errors.New("checkout: selected shipping offer is not selectable")
)

const eventPublishTimeout = 5 * time.Second

// ItemRef is a product reference plus requested quantity, as sent by the
// storefront before any snapshotting happens.
type ItemRef struct {
	ProductID string
	Quantity  int
}

type CheckoutInput struct {
	RequestID string
	Customer  domain.Customer
	Items     []domain.CartItem
	Shipping  domain.Offer
	Discount  decimal.Decimal
}

type CheckoutService struct {
	catalog port.CatalogRepository
	store   port.SaleStore
	cache   port.CacheRepository // optional, enables idempotent retries
	events  port.EventPublisher  // optional, best-effort
	newID   func() string
}

func NewCheckoutService(catalog port.CatalogRepository, store port.SaleStore, cache port.CacheRepository, events port.EventPublisher) *CheckoutService {
	return &CheckoutService{
		catalog: catalog,
		store:   store,
		cache:   cache,
		events:  events,
		newID:   uuid.NewString,
	}
}

// LoadCart snapshots the referenced products into cart items, freezing name
// and unit price for the rest of the session. The stock comparison here is a
// soft check for early feedback; the hard check happens inside CommitSale.
func (s *CheckoutService) LoadCart(ctx context.Context, refs []ItemRef) ([]domain.CartItem, error) {
	if len(refs) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.CartItem, 0, len(refs))
	for _, ref := range refs {
		if ref.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		p, err := s.catalog.GetProduct(ctx, ref.ProductID)
		if err != nil {
			return nil, err
		}
		if p.TracksStock() && ref.Quantity > p.Stock {
			return nil, &domain.InsufficientStockError{ProductID: p.ID}
		}
		items = append(items, domain.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  ref.Quantity,
			Kind:      p.Kind,
			WeightKg:  p.WeightKg,
		})
	}
	return items, nil
}

// PackageFor sizes the parcel for rate lookups from the cart's total weight.
func PackageFor(items []domain.CartItem) domain.Package {
	weight := 0.0
	for _, item := range items {
		weight += item.WeightKg * float64(item.Quantity)
	}
	return domain.Package{
		WeightKg: weight,
		LengthCm: 16,
		WidthCm:  11,
		HeightCm: 11,
	}
}

// CommitSale durably records the sale and decrements stock exactly once.
// Sequence: snapshot the sale, derive adjustments for stock-tracked items,
// then hand both to the store's atomic RecordSale. On InsufficientStock or
// Contention nothing is persisted and the error is surfaced for cart
// correction or retry. Payment is not part of this path.
func (s *CheckoutService) CommitSale(ctx context.Context, input CheckoutInput) (*domain.Sale, error) {
	logger := zerolog.Ctx(ctx).With().Str("component", "checkout").Logger()

	if len(input.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	if !input.Shipping.Available() {
		return nil, ErrOfferNotValid
	}

	idemKey := ""
	if s.cache != nil && input.RequestID != "" {
		idemKey = "checkout:" + input.RequestID
		ok, err := s.cache.SetIdempotency(ctx, idemKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	breakdown := ComputeTotal(input.Items, input.Shipping, input.Discount)

	sale := &domain.Sale{
		ID:        s.newID(),
		Customer:  input.Customer,
		Items:     snapshotItems(input.Items),
		Shipping:  input.Shipping,
		Total:     breakdown.Total,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.RecordSale(ctx, sale, deriveAdjustments(input.Items)); err != nil {
		// free the idempotency key so the caller may retry the whole commit
		if idemKey != "" {
			if relErr := s.cache.ReleaseIdempotency(ctx, idemKey); relErr != nil {
				logger.Warn().Str("key", idemKey).Err(relErr).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	logger.Info().
		Str("sale_id", sale.ID).
		Str("total", sale.Total.StringFixed(2)).
		Int("items", len(sale.Items)).
		Msg("sale committed")

	s.publishCompleted(ctx, sale)
	return sale, nil
}

func (s *CheckoutService) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	if id == "" {
		return nil, domain.ErrSaleNotFound
	}
	return s.store.GetSale(ctx, id)
}

// publishCompleted emits the sale summary without blocking the caller.
// Publish failures are logged and dropped; the sale is already durable.
func (s *CheckoutService) publishCompleted(ctx context.Context, sale *domain.Sale) {
	if s.events == nil {
		return
	}
	evt := domain.NewSaleCompleted(sale)
	logger := zerolog.Ctx(ctx).With().Str("sale_id", sale.ID).Logger()

	go func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
		defer cancel()
		if err := s.events.PublishSaleCompleted(pctx, evt); err != nil {
			logger.Warn().Err(err).Msg("sale event publish failed")
		}
	}()
}

func snapshotItems(items []domain.CartItem) []domain.SaleItem {
	out := make([]domain.SaleItem, 0, len(items))
	for _, item := range items {
		out = append(out, domain.SaleItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return out
}

// deriveAdjustments folds the cart into one negative delta per stock-tracked
// product. Items of a kind that carries no inventory are skipped.
func deriveAdjustments(items []domain.CartItem) []domain.Adjustment {
	byProduct := make(map[string]int)
	order := make([]string, 0, len(items))
	for _, item := range items {
		if item.Kind == domain.KindService {
			continue
		}
		if _, seen := byProduct[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		byProduct[item.ProductID] -= item.Quantity
	}

	adjustments := make([]domain.Adjustment, 0, len(order))
	for _, id := range order {
		adjustments = append(adjustments, domain.Adjustment{ProductID: id, Delta: byProduct[id]})
	}
	return adjustments
}
