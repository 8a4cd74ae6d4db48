package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndetkov/go-shop-core/internal/models"
)

func (s *Store) CreateCustomer(ctx context.Context, tenantID int64, email, name string) (*models.Customer, error) {
	customer := &models.Customer{}

	query := `
		INSERT INTO customers (tenant_id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, tenant_id, email, name, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, tenantID, email, name).Scan(
		&customer.ID,
		&customer.TenantID,
		&customer.Email,
		&customer.Name,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return customer, nil
}

func (s *Store) GetCustomer(ctx context.Context, tenantID, id int64) (*models.Customer, error) {
	customer := &models.Customer{}

	query := `
		SELECT id, tenant_id, email, name, created_at, updated_at
		FROM customers
		WHERE tenant_id = $1 AND id = $2`

	err := s.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&customer.ID,
		&customer.TenantID,
		&customer.Email,
		&customer.Name,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("Customer", "id", id, tenantID)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

func checkCustomerExists(ctx context.Context, tx *sql.Tx, tenantID, customerID int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE tenant_id = $1 AND id = $2)`,
		tenantID, customerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check customer exists: %w", err)
	}
	if !exists {
		return newNotFound("Customer", "id", customerID, tenantID)
	}
	return nil
}
