package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ndetkov/go-shop-core/internal/database"
	"github.com/ndetkov/go-shop-core/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateOrderRequest struct {
	CustomerID int64
	AddressID  int64
	Items      []OrderItemRequest
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s", uuid.NewString())
}

// CreateOrder places an order for a tenant's customer in one
// serializable transaction: reference validation, a two-phase stock
// reservation (lock and validate every item, then decrement all), and
// the order/item inserts either all commit or all roll back.
func (s *Store) CreateOrder(ctx context.Context, tenantID int64, req CreateOrderRequest) (*models.Order, error) {
	s.log.Info("creating order",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("customer_id", req.CustomerID),
		zap.Int("item_count", len(req.Items)))

	if req.CustomerID == 0 {
		return nil, invalidArgument("customer id must be provided")
	}
	if req.AddressID == 0 {
		return nil, invalidArgument("address id must be provided")
	}

	var orderID int64

	err := database.WithRetry(ctx, s.db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		if err := checkTenantExists(ctx, tx, tenantID); err != nil {
			return err
		}
		if err := checkCustomerExists(ctx, tx, tenantID, req.CustomerID); err != nil {
			return err
		}
		if err := checkAddressExists(ctx, tx, tenantID, req.AddressID); err != nil {
			return err
		}

		createdStatus, err := getStatusByName(ctx, tx, StatusCreated)
		if err != nil {
			return err
		}

		if len(req.Items) == 0 {
			return invalidArgument("order must contain at least one item")
		}

		for _, item := range req.Items {
			if item.ProductID == 0 {
				return invalidArgument("product id missing in one of the order items")
			}
			if item.Quantity < 1 {
				return invalidArgument("invalid quantity for product %d", item.ProductID)
			}
		}

		// Phase one: lock every product row, validate availability and
		// snapshot the unit price. No stock moves until every item has
		// passed, so a mid-list shortfall reserves nothing.
		products := make([]*models.Product, len(req.Items))
		totalAmount := decimal.Zero
		for i, item := range req.Items {
			product, err := lockProduct(ctx, tx, tenantID, item.ProductID)
			if err != nil {
				return err
			}
			if product.StockQuantity < item.Quantity {
				s.log.Warn("insufficient stock",
					zap.Int64("tenant_id", tenantID),
					zap.Int64("product_id", product.ID),
					zap.Int("requested", item.Quantity),
					zap.Int("available", product.StockQuantity))
				return &InsufficientStockError{
					ProductID: product.ID,
					Requested: item.Quantity,
					Available: product.StockQuantity,
				}
			}
			products[i] = product
			totalAmount = totalAmount.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (tenant_id, customer_id, address_id, status_id, order_number,
			                     total_amount, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			 RETURNING id`,
			tenantID, req.CustomerID, req.AddressID, createdStatus.ID,
			generateOrderNumber(), totalAmount).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		// Phase two: attach items and commit the reservations.
		for i, item := range req.Items {
			product := products[i]
			unitPrice := product.Price
			totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (tenant_id, order_id, product_id, quantity,
				                          unit_price, total_price, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
				tenantID, orderID, item.ProductID, item.Quantity, unitPrice, totalPrice)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}

			if err := s.reserveStock(ctx, tx, product, item.Quantity); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total_amount", order.TotalAmount.String()))

	return order, nil
}

// GetOrder returns a tenant's order with its items.
func (s *Store) GetOrder(ctx context.Context, tenantID, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT o.id, o.tenant_id, o.customer_id, o.address_id, o.status_id, s.status_name,
		       o.order_number, o.total_amount, COALESCE(o.comment, ''), o.created_at, o.updated_at
		FROM orders o
		JOIN order_statuses s ON s.id = o.status_id
		WHERE o.tenant_id = $1 AND o.id = $2`

	err := s.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&order.ID,
		&order.TenantID,
		&order.CustomerID,
		&order.AddressID,
		&order.StatusID,
		&order.StatusName,
		&order.OrderNumber,
		&order.TotalAmount,
		&order.Comment,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("Order", "id", id, tenantID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := s.listOrderItems(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// ListOrders returns a tenant's orders, newest first, without items.
func (s *Store) ListOrders(ctx context.Context, tenantID int64, page, pageSize int) (*OffsetPage, error) {
	exists, err := tenantExists(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, newNotFound("Tenant", "id", tenantID, 0)
	}

	var total int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE tenant_id = $1`, tenantID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT o.id, o.tenant_id, o.customer_id, o.address_id, o.status_id, s.status_name,
		       o.order_number, o.total_amount, COALESCE(o.comment, ''), o.created_at, o.updated_at
		FROM orders o
		JOIN order_statuses s ON s.id = o.status_id
		WHERE o.tenant_id = $1
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, tenantID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.TenantID,
			&order.CustomerID,
			&order.AddressID,
			&order.StatusID,
			&order.StatusName,
			&order.OrderNumber,
			&order.TotalAmount,
			&order.Comment,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(orders, total, page, pageSize), nil
}

// UpdateOrderStatus moves an order to the status identified by
// statusID. Any target status is accepted; entering a stock-releasing
// status (Canceled, Returned) restores the items' inventory unless the
// previous status already released it.
func (s *Store) UpdateOrderStatus(ctx context.Context, tenantID, orderID, statusID int64, comment string) (*models.Order, error) {
	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order, err := getOrderForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}

		newStatus, err := getStatusByID(ctx, tx, statusID)
		if err != nil {
			return err
		}

		return s.transitionStatus(ctx, tx, order, newStatus, comment)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, tenantID, orderID)
}

// CancelOrder moves an order to Canceled, recording the reason in the
// comment trail. Delivered and Completed orders cannot be canceled.
func (s *Store) CancelOrder(ctx context.Context, tenantID, orderID int64, reason string) (*models.Order, error) {
	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order, err := getOrderForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}

		if cancelBlocked(order.StatusName) {
			return stateConflict("cannot cancel order that is already %s", order.StatusName)
		}

		canceledStatus, err := getStatusByName(ctx, tx, StatusCanceled)
		if err != nil {
			return err
		}

		return s.transitionStatus(ctx, tx, order, canceledStatus, reason)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, tenantID, orderID)
}

// ProcessOrderPayment transitions a Created order to Paid and records
// the payment reference in the comment trail. Payment has no stock
// effect.
func (s *Store) ProcessOrderPayment(ctx context.Context, tenantID, orderID int64, paymentReference string) (*models.Order, error) {
	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order, err := getOrderForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}

		if order.StatusName != StatusCreated {
			return stateConflict("payment can only be processed for orders in 'Created' status")
		}

		paidStatus, err := getStatusByName(ctx, tx, StatusPaid)
		if err != nil {
			return err
		}

		comment := fmt.Sprintf("Payment processed successfully. Reference: %s", paymentReference)
		return s.transitionStatus(ctx, tx, order, paidStatus, comment)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, tenantID, orderID)
}

// DeleteOrder removes an order and, by cascade, its items. Only orders
// already in a deletable status (Canceled, Returned) may be deleted;
// their inventory was restored when they entered that status.
func (s *Store) DeleteOrder(ctx context.Context, tenantID, orderID int64) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order, err := getOrderForUpdate(ctx, tx, tenantID, orderID)
		if err != nil {
			return err
		}

		if !traitsOf(order.StatusName).Deletable {
			return stateConflict("cannot delete order with status: %s", order.StatusName)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM orders WHERE tenant_id = $1 AND id = $2`, tenantID, orderID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		s.log.Info("order deleted",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("order_id", orderID))
		return nil
	})
}

// transitionStatus applies the status change to an order fetched with
// getOrderForUpdate: comment trail append, status update, and the
// idempotent stock-release side effect.
func (s *Store) transitionStatus(ctx context.Context, tx *sql.Tx, order *models.Order, newStatus *models.OrderStatus, comment string) error {
	newComment := order.Comment
	if strings.TrimSpace(comment) != "" {
		if newComment != "" {
			newComment += "\n"
		}
		newComment += fmt.Sprintf("Status changed to %s: %s", newStatus.StatusName, comment)
	}

	_, err := tx.ExecContext(ctx,
		`UPDATE orders
		 SET status_id = $1, comment = $2, updated_at = NOW()
		 WHERE tenant_id = $3 AND id = $4`,
		newStatus.ID, newComment, order.TenantID, order.ID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	// Releasing is keyed on the trait table, not raw names, and is
	// idempotent: re-entering a releasing status restores nothing.
	if traitsOf(newStatus.StatusName).ReleasesStock && !traitsOf(order.StatusName).ReleasesStock {
		if err := s.releaseOrderInventory(ctx, tx, order.TenantID, order.ID); err != nil {
			return err
		}
	}

	s.log.Info("order status updated",
		zap.Int64("tenant_id", order.TenantID),
		zap.Int64("order_id", order.ID),
		zap.String("from", order.StatusName),
		zap.String("to", newStatus.StatusName))

	return nil
}

// getOrderForUpdate locks a tenant's order row for the rest of the
// transaction. Items are not loaded; status-change side effects work
// on the item rows directly.
func getOrderForUpdate(ctx context.Context, tx *sql.Tx, tenantID, orderID int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT o.id, o.tenant_id, o.customer_id, o.address_id, o.status_id, s.status_name,
		       o.order_number, o.total_amount, COALESCE(o.comment, ''), o.created_at, o.updated_at
		FROM orders o
		JOIN order_statuses s ON s.id = o.status_id
		WHERE o.tenant_id = $1 AND o.id = $2
		FOR UPDATE OF o`

	err := tx.QueryRowContext(ctx, query, tenantID, orderID).Scan(
		&order.ID,
		&order.TenantID,
		&order.CustomerID,
		&order.AddressID,
		&order.StatusID,
		&order.StatusName,
		&order.OrderNumber,
		&order.TotalAmount,
		&order.Comment,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("Order", "id", orderID, tenantID)
		}
		return nil, fmt.Errorf("get order for update: %w", err)
	}

	return order, nil
}
