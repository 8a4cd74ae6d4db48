package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndetkov/go-shop-core/internal/models"
)

func (s *Store) CreateTenant(ctx context.Context, name, subdomain string) (*models.Tenant, error) {
	tenant := &models.Tenant{}

	query := `
		INSERT INTO tenants (name, subdomain, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name, subdomain, created_at`

	err := s.db.QueryRowContext(ctx, query, name, subdomain).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Subdomain,
		&tenant.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	return tenant, nil
}

func (s *Store) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	tenant := &models.Tenant{}

	query := `SELECT id, name, subdomain, created_at FROM tenants WHERE id = $1`

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Subdomain,
		&tenant.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("Tenant", "id", id, 0)
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	return tenant, nil
}

func tenantExists(ctx context.Context, db *sql.DB, tenantID int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE id = $1)`, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tenant exists: %w", err)
	}
	return exists, nil
}

func checkTenantExists(ctx context.Context, tx *sql.Tx, tenantID int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE id = $1)`, tenantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check tenant exists: %w", err)
	}
	if !exists {
		return newNotFound("Tenant", "id", tenantID, 0)
	}
	return nil
}
