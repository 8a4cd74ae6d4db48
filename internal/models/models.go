package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	CreatedAt time.Time `json:"created_at"`
}

type Customer struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Address struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	CustomerID int64     `json:"customer_id"`
	City       string    `json:"city"`
	Street     string    `json:"street"`
	Building   string    `json:"building"`
	Apartment  string    `json:"apartment,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Product struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"tenant_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// OrderStatus is global master data, shared by all tenants.
type OrderStatus struct {
	ID         int64  `json:"id"`
	StatusName string `json:"status_name"`
}

type Order struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"tenant_id"`
	CustomerID  int64           `json:"customer_id"`
	AddressID   int64           `json:"address_id"`
	StatusID    int64           `json:"status_id"`
	StatusName  string          `json:"status_name"`
	OrderNumber string          `json:"order_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Comment     string          `json:"comment,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// ProductID is a pointer because the product row may have been deleted
// after the item was created; the item survives with the snapshot price.
type OrderItem struct {
	ID         int64           `json:"id"`
	TenantID   int64           `json:"tenant_id"`
	OrderID    int64           `json:"order_id"`
	ProductID  *int64          `json:"product_id,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}
