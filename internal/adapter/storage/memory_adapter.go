package storage

import (
	"context"
	"sync"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

const casMaxRetries = 3

type productRecord struct {
	product domain.Product
	version uint64
}

// MemoryStore is an in-process store with the same contract as the MySQL
// adapter. Stock updates go through an optimistic read/compare-and-set loop
// with bounded retries, mirroring how a managed document store would be
// driven, so the ledger semantics stay testable without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*productRecord
	sales    map[string]*domain.Sale
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*productRecord),
		sales:    make(map[string]*domain.Sale),
	}
}

// AddProduct seeds or replaces a catalog entry.
func (m *MemoryStore) AddProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = &productRecord{product: p}
}

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := rec.product
	return &clone, nil
}

func (m *MemoryStore) ApplyAdjustments(ctx context.Context, adjustments []domain.Adjustment) error {
	return m.commit(adjustments, nil)
}

func (m *MemoryStore) RecordSale(ctx context.Context, sale *domain.Sale, adjustments []domain.Adjustment) error {
	return m.commit(adjustments, sale)
}

func (m *MemoryStore) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sale, ok := m.sales[id]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	return cloneSale(sale), nil
}

type stockRead struct {
	stock   int
	version uint64
}

// commit runs the optimistic loop: read stock and version, validate the full
// batch, then write conditioned on every version being unchanged since the
// read. A conflicting writer forces a full retry; after casMaxRetries the
// caller gets ErrContention and may safely retry the whole commit.
func (m *MemoryStore) commit(adjustments []domain.Adjustment, sale *domain.Sale) error {
	for attempt := 0; attempt < casMaxRetries; attempt++ {
		reads, err := m.readStock(adjustments)
		if err != nil {
			return err
		}

		m.mu.Lock()
		conflict := false
		for _, adj := range adjustments {
			if m.products[adj.ProductID].version != reads[adj.ProductID].version {
				conflict = true
				break
			}
		}
		if conflict {
			m.mu.Unlock()
			continue
		}

		for _, adj := range adjustments {
			rec := m.products[adj.ProductID]
			rec.product.Stock += adj.Delta
			rec.version++
		}
		if sale != nil {
			m.sales[sale.ID] = cloneSale(sale)
		}
		m.mu.Unlock()
		return nil
	}
	return domain.ErrContention
}

// readStock snapshots stock and version for the batch and rejects it up
// front if any product would go negative, before anything is written.
func (m *MemoryStore) readStock(adjustments []domain.Adjustment) (map[string]stockRead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reads := make(map[string]stockRead, len(adjustments))
	for _, adj := range adjustments {
		rec, ok := m.products[adj.ProductID]
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		if rec.product.Stock+adj.Delta < 0 {
			return nil, &domain.InsufficientStockError{ProductID: adj.ProductID}
		}
		reads[adj.ProductID] = stockRead{stock: rec.product.Stock, version: rec.version}
	}
	return reads, nil
}

func cloneSale(s *domain.Sale) *domain.Sale {
	clone := *s
	clone.Items = append([]domain.SaleItem(nil), s.Items...)
	return &clone
}
