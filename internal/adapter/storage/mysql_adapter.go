package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var (
		p    domain.Product
		kind string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, brand, price, stock, category, weight_kg, kind, created_at, updated_at
		FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.Stock, &p.Category, &p.WeightKg, &kind, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	p.Kind = domain.ProductKind(kind)
	return &p, nil
}

// ApplyAdjustments runs the batch in its own transaction. Concurrent sales
// for the same product are serialized by the row lock the conditional UPDATE
// takes, so no writer ever observes a stale stock value.
func (m *MySQLAdapter) ApplyAdjustments(ctx context.Context, adjustments []domain.Adjustment) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := applyAdjustmentsTx(ctx, tx, adjustments); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordSale applies the adjustments and inserts the sale in one transaction,
// so a crash can never leave stock decremented without the matching sale or
// a sale referencing oversold stock.
func (m *MySQLAdapter) RecordSale(ctx context.Context, sale *domain.Sale, adjustments []domain.Adjustment) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := applyAdjustmentsTx(ctx, tx, adjustments); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, customer_id, customer_name, customer_email,
			shipping_provider, shipping_service, shipping_price, shipping_days,
			total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.Customer.ID, sale.Customer.Name, sale.Customer.Email,
		sale.Shipping.ProviderID, sale.Shipping.Service, sale.Shipping.Price, sale.Shipping.DeliveryDays,
		sale.Total, sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	for i, item := range sale.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, position, product_id, name, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sale.ID, i, item.ProductID, item.Name, item.UnitPrice, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var s domain.Sale
	err := m.db.QueryRowContext(ctx, `
		SELECT id, customer_id, customer_name, customer_email,
			shipping_provider, shipping_service, shipping_price, shipping_days,
			total, created_at
		FROM sales WHERE id = ?`, id,
	).Scan(&s.ID, &s.Customer.ID, &s.Customer.Name, &s.Customer.Email,
		&s.Shipping.ProviderID, &s.Shipping.Service, &s.Shipping.Price, &s.Shipping.DeliveryDays,
		&s.Total, &s.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query sale: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price, quantity
		FROM sale_items WHERE sale_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		s.Items = append(s.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale items: %w", err)
	}

	return &s, nil
}

// applyAdjustmentsTx decrements (or restores) stock with a guarded UPDATE.
// Zero rows affected means the product is missing or lacks stock; either way
// the whole transaction aborts naming the product.
func applyAdjustmentsTx(ctx context.Context, tx *sql.Tx, adjustments []domain.Adjustment) error {
	for _, adj := range adjustments {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + ?, updated_at = NOW()
			WHERE id = ? AND stock + ? >= 0`,
			adj.Delta, adj.ProductID, adj.Delta,
		)
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return &domain.InsufficientStockError{ProductID: adj.ProductID}
		}
	}
	return nil
}
