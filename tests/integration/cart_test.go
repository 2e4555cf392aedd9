package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/khadijabh/cafe-store/internal/database"
	"github.com/khadijabh/cafe-store/internal/store"
	"github.com/shopspring/decimal"
)

func TestAddCartLineMergesQuantities(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart1@example.com")
	category := createTestCategory(t, db, "Espresso")
	product := createTestProduct(t, db, category.ID, "Single Origin", decimal.NewFromInt(10), 50)

	if err := store.AddCartLine(ctx, db, user.ID, product.ID, 3); err != nil {
		t.Fatalf("Add cart line: %v", err)
	}
	if err := store.AddCartLine(ctx, db, user.ID, product.ID, 2); err != nil {
		t.Fatalf("Add cart line again: %v", err)
	}

	cart, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("Expected 1 cart line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Errorf("Expected merged quantity 5, got %d", cart.Items[0].Quantity)
	}
	if !cart.Total.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected total 50, got %s", cart.Total)
	}
}

func TestAddCartLineRejectsBeyondStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart2@example.com")
	category := createTestCategory(t, db, "Filter")
	product := createTestProduct(t, db, category.ID, "House Blend", decimal.RequireFromString("10.00"), 5)

	if err := store.AddCartLine(ctx, db, user.ID, product.ID, 3); err != nil {
		t.Fatalf("Add cart line: %v", err)
	}

	err := store.AddCartLine(ctx, db, user.ID, product.ID, 4)
	if !errors.Is(err, database.ErrInsufficientStock) {
		t.Fatalf("Expected insufficient stock, got: %v", err)
	}

	var stockErr *database.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected *database.StockError, got %T", err)
	}
	if len(stockErr.Shortages) != 1 || stockErr.Shortages[0].Requested != 7 || stockErr.Shortages[0].Available != 5 {
		t.Errorf("Unexpected shortage report: %+v", stockErr.Shortages)
	}

	cart, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if cart.Items[0].Quantity != 3 {
		t.Errorf("Cart quantity should be unchanged at 3, got %d", cart.Items[0].Quantity)
	}
	if !cart.Total.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("Expected total 30.00, got %s", cart.Total)
	}
}

func TestAddCartLineUnknownProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "cart3@example.com")

	err := store.AddCartLine(context.Background(), db, user.ID, 424242, 1)
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found, got: %v", err)
	}
}

func TestUpdateCartLineQuantity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart4@example.com")
	category := createTestCategory(t, db, "Beans")
	product := createTestProduct(t, db, category.ID, "Dark Roast", decimal.NewFromInt(8), 10)

	if err := store.AddCartLine(ctx, db, user.ID, product.ID, 2); err != nil {
		t.Fatalf("Add cart line: %v", err)
	}

	if err := store.UpdateCartLineQuantity(ctx, db, user.ID, product.ID, 7); err != nil {
		t.Fatalf("Update quantity: %v", err)
	}

	cart, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if cart.Items[0].Quantity != 7 {
		t.Errorf("Expected quantity 7, got %d", cart.Items[0].Quantity)
	}
	if !cart.Items[0].LineTotal.Equal(decimal.NewFromInt(56)) {
		t.Errorf("Expected line total 56, got %s", cart.Items[0].LineTotal)
	}

	err = store.UpdateCartLineQuantity(ctx, db, user.ID, product.ID, 11)
	if !errors.Is(err, database.ErrInsufficientStock) {
		t.Errorf("Expected insufficient stock, got: %v", err)
	}

	err = store.UpdateCartLineQuantity(ctx, db, user.ID, 424242, 1)
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found, got: %v", err)
	}
}

func TestRemoveAndClearCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart5@example.com")
	category := createTestCategory(t, db, "Pastry")
	p1 := createTestProduct(t, db, category.ID, "Croissant", decimal.NewFromInt(3), 20)
	p2 := createTestProduct(t, db, category.ID, "Muffin", decimal.NewFromInt(4), 20)

	if err := store.AddCartLine(ctx, db, user.ID, p1.ID, 1); err != nil {
		t.Fatalf("Add p1: %v", err)
	}
	if err := store.AddCartLine(ctx, db, user.ID, p2.ID, 1); err != nil {
		t.Fatalf("Add p2: %v", err)
	}

	if err := store.RemoveCartLine(ctx, db, user.ID, p1.ID); err != nil {
		t.Fatalf("Remove line: %v", err)
	}

	err := store.RemoveCartLine(ctx, db, user.ID, p1.ID)
	if !errors.Is(err, database.ErrCartLineNotFound) {
		t.Errorf("Expected cart line not found on second remove, got: %v", err)
	}

	removed, err := store.ClearCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Clear cart: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 line cleared, got %d", removed)
	}

	// Clearing an empty cart still succeeds.
	removed, err = store.ClearCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Clear empty cart: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected 0 lines cleared, got %d", removed)
	}
}

func TestGetCartIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart6@example.com")
	category := createTestCategory(t, db, "Cold Brew")
	product := createTestProduct(t, db, category.ID, "Nitro", decimal.RequireFromString("6.50"), 10)

	if err := store.AddCartLine(ctx, db, user.ID, product.ID, 2); err != nil {
		t.Fatalf("Add cart line: %v", err)
	}

	first, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	second, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart again: %v", err)
	}

	if !first.Total.Equal(second.Total) || first.Count != second.Count {
		t.Errorf("Cart view changed without mutation: %s/%d vs %s/%d",
			first.Total, first.Count, second.Total, second.Count)
	}
}

func TestCartDropsDeletedProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "cart7@example.com")
	category := createTestCategory(t, db, "Seasonal")
	product := createTestProduct(t, db, category.ID, "Pumpkin Latte", decimal.NewFromInt(5), 10)

	if err := store.AddCartLine(ctx, db, user.ID, product.ID, 1); err != nil {
		t.Fatalf("Add cart line: %v", err)
	}

	if err := store.DeleteProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}

	cart, err := store.GetCart(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("Expected deleted product's line to vanish, got %d items", len(cart.Items))
	}
	if !cart.Total.Equal(decimal.Zero) {
		t.Errorf("Expected zero total, got %s", cart.Total)
	}
}
