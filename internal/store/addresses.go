package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndetkov/go-shop-core/internal/models"
)

func (s *Store) CreateAddress(ctx context.Context, tenantID, customerID int64, city, street, building string) (*models.Address, error) {
	address := &models.Address{}

	query := `
		INSERT INTO addresses (tenant_id, customer_id, city, street, building, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, tenant_id, customer_id, city, street, building,
		          COALESCE(apartment, ''), COALESCE(postal_code, ''), created_at`

	err := s.db.QueryRowContext(ctx, query, tenantID, customerID, city, street, building).Scan(
		&address.ID,
		&address.TenantID,
		&address.CustomerID,
		&address.City,
		&address.Street,
		&address.Building,
		&address.Apartment,
		&address.PostalCode,
		&address.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	return address, nil
}

func (s *Store) GetAddress(ctx context.Context, tenantID, id int64) (*models.Address, error) {
	address := &models.Address{}

	query := `
		SELECT id, tenant_id, customer_id, city, street, building,
		       COALESCE(apartment, ''), COALESCE(postal_code, ''), created_at
		FROM addresses
		WHERE tenant_id = $1 AND id = $2`

	err := s.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&address.ID,
		&address.TenantID,
		&address.CustomerID,
		&address.City,
		&address.Street,
		&address.Building,
		&address.Apartment,
		&address.PostalCode,
		&address.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("Address", "id", id, tenantID)
		}
		return nil, fmt.Errorf("get address: %w", err)
	}

	return address, nil
}

func checkAddressExists(ctx context.Context, tx *sql.Tx, tenantID, addressID int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM addresses WHERE tenant_id = $1 AND id = $2)`,
		tenantID, addressID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check address exists: %w", err)
	}
	if !exists {
		return newNotFound("Address", "id", addressID, tenantID)
	}
	return nil
}
