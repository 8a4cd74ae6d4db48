package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ndetkov/go-shop-core/internal/store"
	"github.com/shopspring/decimal"
)

func TestCreateOrder(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product1 := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 50)
	product2 := seedProduct(t, s, fx.tenant.ID, "SKU-002", 200, 30)

	order, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product1.ID, Quantity: 5},
			{ProductID: product2.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if order.ID == 0 {
		t.Error("Order ID should not be 0")
	}
	if order.StatusName != store.StatusCreated {
		t.Errorf("Expected status %q, got %q", store.StatusCreated, order.StatusName)
	}
	if len(order.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(order.Items))
	}

	expectedTotal := decimal.NewFromInt(100).Mul(decimal.NewFromInt(5)).
		Add(decimal.NewFromInt(200).Mul(decimal.NewFromInt(3)))
	if !order.TotalAmount.Equal(expectedTotal) {
		t.Errorf("Expected total %s, got %s", expectedTotal, order.TotalAmount)
	}

	var itemSum decimal.Decimal
	for _, item := range order.Items {
		if !item.TotalPrice.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			t.Errorf("Item %d total %s != unit %s x qty %d",
				item.ID, item.TotalPrice, item.UnitPrice, item.Quantity)
		}
		itemSum = itemSum.Add(item.TotalPrice)
	}
	if !order.TotalAmount.Equal(itemSum) {
		t.Errorf("Order total %s != item sum %s", order.TotalAmount, itemSum)
	}

	product1After, err := s.GetProduct(ctx, fx.tenant.ID, product1.ID)
	if err != nil {
		t.Fatalf("Get product 1: %v", err)
	}
	if product1After.StockQuantity != 45 {
		t.Errorf("Expected product 1 stock 45, got %d", product1After.StockQuantity)
	}

	product2After, err := s.GetProduct(ctx, fx.tenant.ID, product2.ID)
	if err != nil {
		t.Fatalf("Get product 2: %v", err)
	}
	if product2After.StockQuantity != 27 {
		t.Errorf("Expected product 2 stock 27, got %d", product2After.StockQuantity)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 5)

	_, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 6}},
	})

	var insufficientErr *store.InsufficientStockError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if insufficientErr.Requested != 6 || insufficientErr.Available != 5 {
		t.Errorf("Expected requested=6 available=5, got requested=%d available=%d",
			insufficientErr.Requested, insufficientErr.Available)
	}

	productAfter, err := s.GetProduct(ctx, fx.tenant.ID, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.StockQuantity != 5 {
		t.Errorf("Stock should remain 5, got %d", productAfter.StockQuantity)
	}

	page, err := s.ListOrders(ctx, fx.tenant.ID, 1, 20)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("No order should be persisted, found %d", page.Total)
	}
}

func TestCreateOrderMidListShortfallReservesNothing(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product1 := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 50)
	product2 := seedProduct(t, s, fx.tenant.ID, "SKU-002", 200, 2)

	_, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items: []store.OrderItemRequest{
			{ProductID: product1.ID, Quantity: 10},
			{ProductID: product2.ID, Quantity: 3},
		},
	})
	if !store.IsInsufficientStock(err) {
		t.Fatalf("Expected insufficient stock, got %v", err)
	}

	// First item's stock must be untouched even though it was validated
	// before the failing second item.
	product1After, err := s.GetProduct(ctx, fx.tenant.ID, product1.ID)
	if err != nil {
		t.Fatalf("Get product 1: %v", err)
	}
	if product1After.StockQuantity != 50 {
		t.Errorf("Expected product 1 stock 50, got %d", product1After.StockQuantity)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 10)

	_, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
	})
	if !store.IsInvalidArgument(err) {
		t.Errorf("Empty item list: expected invalid argument, got %v", err)
	}

	_, err = s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 0}},
	})
	if !store.IsInvalidArgument(err) {
		t.Errorf("Zero quantity: expected invalid argument, got %v", err)
	}

	_, err = s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: 99999,
		AddressID:  fx.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	if !store.IsNotFound(err) {
		t.Errorf("Unknown customer: expected not found, got %v", err)
	}
}

func TestCreateOrderCrossTenant(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx1 := seedTenant(t, s, "shop1")
	fx2 := seedTenant(t, s, "shop2")
	foreignProduct := seedProduct(t, s, fx2.tenant.ID, "SKU-FOREIGN", 100, 10)

	// Another tenant's product must read as not found, not forbidden.
	_, err := s.CreateOrder(ctx, fx1.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx1.customer.ID,
		AddressID:  fx1.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: foreignProduct.ID, Quantity: 1}},
	})
	if !store.IsNotFound(err) {
		t.Errorf("Cross-tenant product: expected not found, got %v", err)
	}

	_, err = s.GetOrder(ctx, fx2.tenant.ID, 12345)
	if !store.IsNotFound(err) {
		t.Errorf("Unknown order: expected not found, got %v", err)
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 10)

	order, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	mid, err := s.GetProduct(ctx, fx.tenant.ID, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if mid.StockQuantity != 7 {
		t.Fatalf("Expected stock 7 after create, got %d", mid.StockQuantity)
	}

	canceled, err := s.CancelOrder(ctx, fx.tenant.ID, order.ID, "customer changed their mind")
	if err != nil {
		t.Fatalf("Cancel order: %v", err)
	}
	if canceled.StatusName != store.StatusCanceled {
		t.Errorf("Expected status Canceled, got %q", canceled.StatusName)
	}
	if !strings.Contains(canceled.Comment, "Status changed to Canceled: customer changed their mind") {
		t.Errorf("Comment trail missing cancellation entry: %q", canceled.Comment)
	}

	after, err := s.GetProduct(ctx, fx.tenant.ID, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if after.StockQuantity != 10 {
		t.Errorf("Expected stock restored to 10, got %d", after.StockQuantity)
	}
}

func TestCancelAlreadyCanceledDoesNotDoubleRestore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 10)

	order, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	canceledID := statusIDByName(t, s, store.StatusCanceled)

	if _, err := s.UpdateOrderStatus(ctx, fx.tenant.ID, order.ID, canceledID, "first cancel"); err != nil {
		t.Fatalf("First cancel: %v", err)
	}
	if _, err := s.UpdateOrderStatus(ctx, fx.tenant.ID, order.ID, canceledID, "second cancel"); err != nil {
		t.Fatalf("Second cancel: %v", err)
	}

	after, err := s.GetProduct(ctx, fx.tenant.ID, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if after.StockQuantity != 10 {
		t.Errorf("Stock restored twice: expected 10, got %d", after.StockQuantity)
	}
}

func TestCancelOrderBlockedAfterDelivery(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 10)

	order, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	deliveredID := statusIDByName(t, s, store.StatusDelivered)
	if _, err := s.UpdateOrderStatus(ctx, fx.tenant.ID, order.ID, deliveredID, ""); err != nil {
		t.Fatalf("Mark delivered: %v", err)
	}

	_, err = s.CancelOrder(ctx, fx.tenant.ID, order.ID, "too late")
	if !store.IsStateConflict(err) {
		t.Errorf("Expected state conflict canceling delivered order, got %v", err)
	}
}

func TestProcessOrderPayment(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 10)

	order, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	paid, err := s.ProcessOrderPayment(ctx, fx.tenant.ID, order.ID, "TX1")
	if err != nil {
		t.Fatalf("Process payment: %v", err)
	}
	if paid.StatusName != store.StatusPaid {
		t.Errorf("Expected status Paid, got %q", paid.StatusName)
	}
	if !strings.Contains(paid.Comment, "TX1") {
		t.Errorf("Comment should contain payment reference, got %q", paid.Comment)
	}
	if !strings.Contains(paid.Comment, "Payment processed successfully") {
		t.Errorf("Comment should contain confirmation phrase, got %q", paid.Comment)
	}

	// Payment has no stock effect.
	after, err := s.GetProduct(ctx, fx.tenant.ID, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if after.StockQuantity != 8 {
		t.Errorf("Expected stock 8, got %d", after.StockQuantity)
	}

	_, err = s.ProcessOrderPayment(ctx, fx.tenant.ID, order.ID, "TX2")
	if !store.IsStateConflict(err) {
		t.Errorf("Second payment: expected state conflict, got %v", err)
	}
}

func TestDeleteOrderRequiresTerminalStatus(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 10)

	order, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	err = s.DeleteOrder(ctx, fx.tenant.ID, order.ID)
	if !store.IsStateConflict(err) {
		t.Fatalf("Delete of Created order: expected state conflict, got %v", err)
	}

	// The failed delete must not have touched the order or its items.
	got, err := s.GetOrder(ctx, fx.tenant.ID, order.ID)
	if err != nil {
		t.Fatalf("Get order after failed delete: %v", err)
	}
	if len(got.Items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(got.Items))
	}

	if _, err := s.CancelOrder(ctx, fx.tenant.ID, order.ID, "cleanup"); err != nil {
		t.Fatalf("Cancel order: %v", err)
	}
	if err := s.DeleteOrder(ctx, fx.tenant.ID, order.ID); err != nil {
		t.Fatalf("Delete canceled order: %v", err)
	}

	_, err = s.GetOrder(ctx, fx.tenant.ID, order.ID)
	if !store.IsNotFound(err) {
		t.Errorf("Deleted order should be not found, got %v", err)
	}
}

func TestUpdateOrderStatusCommentTrail(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fx := seedTenant(t, s, "shop1")
	product := seedProduct(t, s, fx.tenant.ID, "SKU-001", 100, 10)

	order, err := s.CreateOrder(ctx, fx.tenant.ID, store.CreateOrderRequest{
		CustomerID: fx.customer.ID,
		AddressID:  fx.address.ID,
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	processingID := statusIDByName(t, s, store.StatusProcessing)
	updated, err := s.UpdateOrderStatus(ctx, fx.tenant.ID, order.ID, processingID, "picking started")
	if err != nil {
		t.Fatalf("Update status: %v", err)
	}
	if updated.Comment != "Status changed to Processing: picking started" {
		t.Errorf("Unexpected comment: %q", updated.Comment)
	}

	shippedID := statusIDByName(t, s, store.StatusShipped)
	updated, err = s.UpdateOrderStatus(ctx, fx.tenant.ID, order.ID, shippedID, "left warehouse")
	if err != nil {
		t.Fatalf("Update status: %v", err)
	}
	want := "Status changed to Processing: picking started\nStatus changed to Shipped: left warehouse"
	if updated.Comment != want {
		t.Errorf("Comment trail not preserved:\nwant %q\ngot  %q", want, updated.Comment)
	}

	// Blank comments leave the trail untouched.
	deliveredID := statusIDByName(t, s, store.StatusDelivered)
	updated, err = s.UpdateOrderStatus(ctx, fx.tenant.ID, order.ID, deliveredID, "   ")
	if err != nil {
		t.Fatalf("Update status: %v", err)
	}
	if updated.Comment != want {
		t.Errorf("Blank comment appended: %q", updated.Comment)
	}

	_, err = s.UpdateOrderStatus(ctx, fx.tenant.ID, order.ID, 99999, "")
	if !store.IsNotFound(err) {
		t.Errorf("Unknown status id: expected not found, got %v", err)
	}
}
