package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndetkov/go-shop-core/internal/models"
	"github.com/shopspring/decimal"
)

func (s *Store) CreateProduct(ctx context.Context, tenantID int64, sku, name, description string, price decimal.Decimal, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, invalidArgument("stock quantity must not be negative")
	}

	product := &models.Product{}

	query := `
		INSERT INTO products (tenant_id, sku, name, description, price, stock_quantity,
		                      active, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW(), 1)
		RETURNING id, tenant_id, sku, name, COALESCE(description, ''), price, stock_quantity,
		          active, created_at, updated_at, version`

	err := s.db.QueryRowContext(ctx, query, tenantID, sku, name, description, price, stock).Scan(
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
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func (s *Store) GetProduct(ctx context.Context, tenantID, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT id, tenant_id, sku, name, COALESCE(description, ''), price, stock_quantity,
		       active, created_at, updated_at, version
		FROM products
		WHERE tenant_id = $1 AND id = $2`

	err := s.db.QueryRowContext(ctx, query, tenantID, id).Scan(
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
			return nil, newNotFound("Product", "id", id, tenantID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (s *Store) ListProducts(ctx context.Context, tenantID int64, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE tenant_id = $1`, tenantID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, tenant_id, sku, name, COALESCE(description, ''), price, stock_quantity,
		       active, created_at, updated_at, version
		FROM products
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, tenantID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
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
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}
