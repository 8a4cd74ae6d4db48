package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/ndetkov/go-shop-core/internal/models"
	"github.com/ndetkov/go-shop-core/internal/store"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupTestStore(t *testing.T) (*store.Store, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return store.New(db, zap.NewNop()), cleanup
}

func runMigrations(db *sql.DB) error {
	migrationDir := "../../migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)

	for _, filename := range migrationFiles {
		filePath := filepath.Join(migrationDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return nil
}

type fixtures struct {
	tenant   *models.Tenant
	customer *models.Customer
	address  *models.Address
}

func seedTenant(t *testing.T, s *store.Store, subdomain string) fixtures {
	t.Helper()
	ctx := context.Background()

	tenant, err := s.CreateTenant(ctx, "Shop "+subdomain, subdomain)
	if err != nil {
		t.Fatalf("Create tenant: %v", err)
	}

	customer, err := s.CreateCustomer(ctx, tenant.ID, subdomain+"@example.com", "Test Customer")
	if err != nil {
		t.Fatalf("Create customer: %v", err)
	}

	address, err := s.CreateAddress(ctx, tenant.ID, customer.ID, "Springfield", "Main St", "12")
	if err != nil {
		t.Fatalf("Create address: %v", err)
	}

	return fixtures{tenant: tenant, customer: customer, address: address}
}

func seedProduct(t *testing.T, s *store.Store, tenantID int64, sku string, price int64, stock int) *models.Product {
	t.Helper()

	product, err := s.CreateProduct(context.Background(), tenantID, sku, "Product "+sku, "Test",
		decimal.NewFromInt(price), stock)
	if err != nil {
		t.Fatalf("Create product %s: %v", sku, err)
	}
	return product
}

func statusIDByName(t *testing.T, s *store.Store, name string) int64 {
	t.Helper()

	statuses, err := s.ListOrderStatuses(context.Background())
	if err != nil {
		t.Fatalf("List order statuses: %v", err)
	}
	for _, status := range statuses {
		if status.StatusName == name {
			return status.ID
		}
	}
	t.Fatalf("Status %q not seeded", name)
	return 0
}
