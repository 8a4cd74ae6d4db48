package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndetkov/go-shop-core/internal/models"
	"go.uber.org/zap"
)

// Inventory ledger. Stock quantity is mutated only through the
// functions in this file, always inside the caller's transaction and
// always with the product row locked first.

// lockProduct fetches a tenant-scoped product row with FOR UPDATE so
// concurrent reservations against the same product serialize on the
// row lock instead of racing on stock_quantity.
func lockProduct(ctx context.Context, tx *sql.Tx, tenantID, productID int64) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT id, tenant_id, sku, name, COALESCE(description, ''), price, stock_quantity, active,
		       created_at, updated_at, version
		FROM products
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`

	err := tx.QueryRowContext(ctx, query, tenantID, productID).Scan(
		&product.ID,
		&product.TenantID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.StockQuantity,
		&product.Active,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("Product", "id", productID, tenantID)
		}
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}

	return product, nil
}

// reserveStock decrements a locked product's stock by quantity. The
// caller must hold the row lock from lockProduct; the guarded WHERE
// keeps stock non-negative even so.
func (s *Store) reserveStock(ctx context.Context, tx *sql.Tx, product *models.Product, quantity int) error {
	if product.StockQuantity < quantity {
		s.log.Warn("insufficient stock",
			zap.Int64("tenant_id", product.TenantID),
			zap.Int64("product_id", product.ID),
			zap.Int("requested", quantity),
			zap.Int("available", product.StockQuantity))
		return &InsufficientStockError{
			ProductID: product.ID,
			Requested: quantity,
			Available: product.StockQuantity,
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity - $1,
		     version = version + 1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock_quantity >= $1`,
		quantity, product.ID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &InsufficientStockError{
			ProductID: product.ID,
			Requested: quantity,
			Available: product.StockQuantity,
		}
	}

	product.StockQuantity -= quantity
	return nil
}

// releaseStock returns quantity units to a product's stock.
func (s *Store) releaseStock(ctx context.Context, tx *sql.Tx, tenantID, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity + $1,
		     version = version + 1,
		     updated_at = NOW()
		 WHERE tenant_id = $2 AND id = $3`,
		quantity, tenantID, productID)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return newNotFound("Product", "id", productID, tenantID)
	}

	return nil
}

// releaseOrderInventory restores stock for every item of an order in a
// single batch statement. Items whose product row no longer exists are
// skipped silently: the item keeps its price snapshot, but there is no
// stock left to restore to.
func (s *Store) releaseOrderInventory(ctx context.Context, tx *sql.Tx, tenantID, orderID int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products p
		 SET stock_quantity = p.stock_quantity + oi.quantity,
		     version = p.version + 1,
		     updated_at = NOW()
		 FROM order_items oi
		 WHERE oi.order_id = $1
		   AND oi.tenant_id = $2
		   AND oi.product_id = p.id`,
		orderID, tenantID)
	if err != nil {
		return fmt.Errorf("restore inventory for order %d: %w", orderID, err)
	}

	restored, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	s.log.Info("restored inventory",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("order_id", orderID),
		zap.Int64("products_restored", restored))

	return nil
}
