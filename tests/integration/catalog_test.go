package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khadijabh/cafe-store/internal/database"
	"github.com/khadijabh/cafe-store/internal/models"
	"github.com/khadijabh/cafe-store/internal/store"
	"github.com/shopspring/decimal"
)

func TestProductCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	category := createTestCategory(t, db, "Espresso")

	product, err := store.CreateProduct(ctx, db, store.ProductParams{
		Name:        "Cortado",
		Description: "Equal parts espresso and steamed milk",
		Price:       decimal.RequireFromString("4.50"),
		Stock:       12,
		CategoryID:  category.ID,
		ImageURL:    "https://img.example.com/cortado.jpg",
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	if !product.Available {
		t.Error("Product with stock should be available")
	}

	updated, err := store.UpdateProduct(ctx, db, product.ID, store.ProductParams{
		Name:        "Cortado",
		Description: "Updated",
		Price:       decimal.RequireFromString("5.00"),
		Stock:       0,
		CategoryID:  category.ID,
	})
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if updated.Available {
		t.Error("Product with zero stock should not be available")
	}
	if updated.ImageURL != "" {
		t.Errorf("Expected image cleared, got %q", updated.ImageURL)
	}

	if err := store.DeleteProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}

	_, err = store.GetProduct(ctx, db, product.ID)
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found after delete, got: %v", err)
	}

	err = store.DeleteProduct(ctx, db, product.ID)
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected not found on second delete, got: %v", err)
	}
}

func TestCreateProductUnknownCategory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := store.CreateProduct(context.Background(), db, store.ProductParams{
		Name:       "Orphan",
		Price:      decimal.NewFromInt(1),
		Stock:      1,
		CategoryID: 424242,
	})
	if !errors.Is(err, database.ErrCategoryNotFound) {
		t.Errorf("Expected category not found, got: %v", err)
	}
}

func TestDeleteProductWithOrderHistory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, db, "catalog1@example.com")
	category := createTestCategory(t, db, "Beans")
	product := createTestProduct(t, db, category.ID, "Arabica", decimal.NewFromInt(12), 10)

	if err := store.AddCartLine(ctx, db, user.ID, product.ID, 1); err != nil {
		t.Fatalf("Add cart line: %v", err)
	}
	if _, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		UserID: user.ID,
		Contact: models.ContactSnapshot{
			Name:    "Catalog Tester",
			Phone:   "+21698765432",
			Address: "3 Avenue Bourguiba",
		},
		DeliveryAddress: "3 Avenue Bourguiba",
		DeliveryDate:    time.Now().AddDate(0, 0, 1),
	}); err != nil {
		t.Fatalf("Place order: %v", err)
	}

	err := store.DeleteProduct(ctx, db, product.ID)
	if !errors.Is(err, database.ErrProductInUse) {
		t.Errorf("Expected product-in-use error, got: %v", err)
	}
}

func TestCategoryCRUDAndCounts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	espresso := createTestCategory(t, db, "Espresso")
	filter := createTestCategory(t, db, "Filter")

	createTestProduct(t, db, espresso.ID, "Doppio", decimal.NewFromInt(3), 10)
	createTestProduct(t, db, espresso.ID, "Macchiato", decimal.NewFromInt(4), 10)

	categories, err := store.ListCategories(ctx, db)
	if err != nil {
		t.Fatalf("List categories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(categories))
	}

	counts := map[string]int{}
	for _, c := range categories {
		counts[c.Name] = c.ProductCount
	}
	if counts["Espresso"] != 2 || counts["Filter"] != 0 {
		t.Errorf("Unexpected product counts: %v", counts)
	}

	renamed, err := store.UpdateCategory(ctx, db, filter.ID, "Pour Over")
	if err != nil {
		t.Fatalf("Update category: %v", err)
	}
	if renamed.Name != "Pour Over" {
		t.Errorf("Expected renamed category, got %s", renamed.Name)
	}

	// A populated category cannot be deleted.
	err = store.DeleteCategory(ctx, db, espresso.ID)
	if !errors.Is(err, database.ErrCategoryNotEmpty) {
		t.Errorf("Expected category-not-empty error, got: %v", err)
	}

	if err := store.DeleteCategory(ctx, db, filter.ID); err != nil {
		t.Fatalf("Delete empty category: %v", err)
	}
}

func TestListProductsByCategory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	espresso := createTestCategory(t, db, "Espresso")
	pastry := createTestCategory(t, db, "Pastry")

	createTestProduct(t, db, espresso.ID, "Flat White", decimal.NewFromInt(5), 10)
	createTestProduct(t, db, pastry.ID, "Croissant", decimal.NewFromInt(3), 10)
	createTestProduct(t, db, pastry.ID, "Eclair", decimal.NewFromInt(4), 10)

	all, err := store.ListProducts(ctx, db, 0, 1, 20)
	if err != nil {
		t.Fatalf("List all products: %v", err)
	}
	if all.Total != 3 {
		t.Errorf("Expected 3 products total, got %d", all.Total)
	}

	pastries, err := store.ListProducts(ctx, db, pastry.ID, 1, 20)
	if err != nil {
		t.Fatalf("List pastry products: %v", err)
	}
	if pastries.Total != 2 {
		t.Errorf("Expected 2 pastry products, got %d", pastries.Total)
	}

	products, ok := pastries.Items.([]models.Product)
	if !ok {
		t.Fatalf("Unexpected items type %T", pastries.Items)
	}
	for _, p := range products {
		if p.CategoryID != pastry.ID {
			t.Errorf("Product %s leaked from category %d", p.Name, p.CategoryID)
		}
	}
}
