package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndetkov/go-shop-core/internal/database"
	"github.com/ndetkov/go-shop-core/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetOrderItem returns a tenant's order item.
func (s *Store) GetOrderItem(ctx context.Context, tenantID, id int64) (*models.OrderItem, error) {
	item := &models.OrderItem{}

	query := `
		SELECT id, tenant_id, order_id, product_id, quantity, unit_price, total_price, created_at
		FROM order_items
		WHERE tenant_id = $1 AND id = $2`

	err := s.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&item.ID,
		&item.TenantID,
		&item.OrderID,
		&item.ProductID,
		&item.Quantity,
		&item.UnitPrice,
		&item.TotalPrice,
		&item.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("OrderItem", "id", id, tenantID)
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}

	return item, nil
}

// ListOrderItemsByOrder returns the items of a tenant's order.
func (s *Store) ListOrderItemsByOrder(ctx context.Context, tenantID, orderID int64) ([]models.OrderItem, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE tenant_id = $1 AND id = $2)`,
		tenantID, orderID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return nil, newNotFound("Order", "id", orderID, tenantID)
	}

	return s.listOrderItems(ctx, tenantID, orderID)
}

func (s *Store) listOrderItems(ctx context.Context, tenantID, orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT id, tenant_id, order_id, product_id, quantity, unit_price, total_price, created_at
		FROM order_items
		WHERE tenant_id = $1 AND order_id = $2
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.TenantID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// AddOrderItem attaches a product to an existing order, reserving
// stock and snapshotting the product's current price. A product may
// appear at most once per order.
func (s *Store) AddOrderItem(ctx context.Context, tenantID, orderID, productID int64, quantity int) (*models.OrderItem, error) {
	if productID == 0 {
		return nil, invalidArgument("product id must be provided")
	}
	if quantity < 1 {
		return nil, invalidArgument("quantity must be at least 1")
	}

	var itemID int64

	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order, err := getOrderForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}

		var exists bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM order_items
			 WHERE tenant_id = $1 AND order_id = $2 AND product_id = $3)`,
			tenantID, orderID, productID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check duplicate product: %w", err)
		}
		if exists {
			return stateConflict("product %d already exists in order %d", productID, orderID)
		}

		product, err := lockProduct(ctx, tx, tenantID, productID)
		if err != nil {
			return err
		}

		if err := s.reserveStock(ctx, tx, product, quantity); err != nil {
			return err
		}

		totalPrice := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (tenant_id, order_id, product_id, quantity,
			                          unit_price, total_price, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())
			 RETURNING id`,
			tenantID, orderID, productID, quantity, product.Price, totalPrice).Scan(&itemID)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}

		if err := s.recalcOrderTotal(ctx, tx, tenantID, order.ID); err != nil {
			return err
		}

		s.log.Info("order item added",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("order_id", orderID),
			zap.Int64("product_id", productID),
			zap.Int("quantity", quantity))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrderItem(ctx, tenantID, itemID)
}

// UpdateOrderItemQuantity changes an item's quantity. The quantity
// delta drives the inventory ledger: an increase reserves the extra
// units, a decrease releases them. The unit price stays at its
// creation-time snapshot; only the total is recomputed.
func (s *Store) UpdateOrderItemQuantity(ctx context.Context, tenantID, itemID int64, quantity int) (*models.OrderItem, error) {
	if quantity < 1 {
		return nil, invalidArgument("quantity must be at least 1")
	}

	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		item, err := getOrderItemForUpdate(ctx, tx, tenantID, itemID)
		if err != nil {
			return err
		}

		if _, err := getOrderForUpdate(ctx, tx, tenantID, item.OrderID); err != nil {
			return err
		}

		delta := quantity - item.Quantity
		if delta != 0 {
			if item.ProductID == nil {
				return newNotFound("Product", "order item id", itemID, tenantID)
			}
			if delta > 0 {
				product, err := lockProduct(ctx, tx, tenantID, *item.ProductID)
				if err != nil {
					return err
				}
				if err := s.reserveStock(ctx, tx, product, delta); err != nil {
					return err
				}
			} else {
				if err := s.releaseStock(ctx, tx, tenantID, *item.ProductID, -delta); err != nil {
					return err
				}
			}
		}

		totalPrice := item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		_, err = tx.ExecContext(ctx,
			`UPDATE order_items
			 SET quantity = $1, total_price = $2
			 WHERE tenant_id = $3 AND id = $4`,
			quantity, totalPrice, tenantID, itemID)
		if err != nil {
			return fmt.Errorf("update order item: %w", err)
		}

		if err := s.recalcOrderTotal(ctx, tx, tenantID, item.OrderID); err != nil {
			return err
		}

		s.log.Info("order item quantity updated",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("order_item_id", itemID),
			zap.Int("from", item.Quantity),
			zap.Int("to", quantity))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrderItem(ctx, tenantID, itemID)
}

// DeleteOrderItem removes a single item from its order, returning its
// full quantity to stock and shrinking the order total by the item's
// total price.
func (s *Store) DeleteOrderItem(ctx context.Context, tenantID, itemID int64) error {
	return database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		item, err := getOrderItemForUpdate(ctx, tx, tenantID, itemID)
		if err != nil {
			return err
		}

		if _, err := getOrderForUpdate(ctx, tx, tenantID, item.OrderID); err != nil {
			return err
		}

		if item.ProductID != nil {
			if err := s.releaseStock(ctx, tx, tenantID, *item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM order_items WHERE tenant_id = $1 AND id = $2`,
			tenantID, itemID); err != nil {
			return fmt.Errorf("delete order item: %w", err)
		}

		if err := s.recalcOrderTotal(ctx, tx, tenantID, item.OrderID); err != nil {
			return err
		}

		s.log.Info("order item deleted",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("order_item_id", itemID),
			zap.Int64("order_id", item.OrderID))
		return nil
	})
}

// recalcOrderTotal rewrites the order's total from the sum of its
// items' total prices, keeping the order aggregate invariant.
func (s *Store) recalcOrderTotal(ctx context.Context, tx *sql.Tx, tenantID, orderID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders
		 SET total_amount = COALESCE(
		         (SELECT SUM(total_price) FROM order_items
		          WHERE tenant_id = $1 AND order_id = $2), 0),
		     updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, orderID)
	if err != nil {
		return fmt.Errorf("recalculate order total: %w", err)
	}
	return nil
}

func getOrderItemForUpdate(ctx context.Context, tx *sql.Tx, tenantID, itemID int64) (*models.OrderItem, error) {
	item := &models.OrderItem{}

	query := `
		SELECT id, tenant_id, order_id, product_id, quantity, unit_price, total_price, created_at
		FROM order_items
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`

	err := tx.QueryRowContext(ctx, query, tenantID, itemID).Scan(
		&item.ID,
		&item.TenantID,
		&item.OrderID,
		&item.ProductID,
		&item.Quantity,
		&item.UnitPrice,
		&item.TotalPrice,
		&item.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("OrderItem", "id", itemID, tenantID)
		}
		return nil, fmt.Errorf("get order item for update: %w", err)
	}

	return item, nil
}
