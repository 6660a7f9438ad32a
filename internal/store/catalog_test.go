package store

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

func TestCreateCategorySlug(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	category, err := CreateCategory(ctx, db, "Home & Garden")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	if category.Slug != "home-garden" {
		t.Errorf("Expected slug home-garden, got %q", category.Slug)
	}

	found, err := GetCategoryBySlug(ctx, db, "home-garden")
	if err != nil {
		t.Fatalf("Get category by slug: %v", err)
	}
	if found.ID != category.ID {
		t.Errorf("Expected category %d, got %d", category.ID, found.ID)
	}
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := CreateCategory(ctx, db, "Perfumes"); err != nil {
		t.Fatalf("Create category: %v", err)
	}

	_, err := CreateCategory(ctx, db, "Perfumes")
	if !errors.Is(err, database.ErrAlreadyExists) {
		t.Errorf("Expected already exists error, got: %v", err)
	}
}

func TestCreateCategoryEmptySlug(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateCategory(context.Background(), db, "!!!")
	if !errors.Is(err, database.ErrInvalidSlug) {
		t.Errorf("Expected invalid slug error, got: %v", err)
	}
}

func TestCreateProductDefaults(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	category, err := CreateCategory(ctx, db, "Floral")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	product, err := CreateProduct(ctx, db, CreateProductParams{
		Title:             "Rose Serenity",
		Description:       "Rose petals and peony.",
		UnitPrice:         decimal.RequireFromString("75.00"),
		AvailableQuantity: 10,
		CategoryID:        &category.ID,
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	if product.Slug != "rose-serenity" {
		t.Errorf("Expected slug rose-serenity, got %q", product.Slug)
	}
	if product.ImageURL != models.PlaceholderImageURL {
		t.Errorf("Expected placeholder image, got %q", product.ImageURL)
	}
	if product.CategorySlug != "floral" {
		t.Errorf("Expected category slug floral, got %q", product.CategorySlug)
	}
	if !product.UnitPrice.Equal(decimal.RequireFromString("75")) {
		t.Errorf("Expected price 75.00, got %s", product.UnitPrice)
	}
}

func TestCreateProductNegativePrice(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateProduct(context.Background(), db, CreateProductParams{
		Title:     "Broken",
		UnitPrice: decimal.RequireFromString("-1.00"),
	})
	if !errors.Is(err, database.ErrNegativePrice) {
		t.Errorf("Expected negative price error, got: %v", err)
	}

	if n := countRows(t, db, "products"); n != 0 {
		t.Errorf("Expected no products, got %d", n)
	}
}

func TestCreateProductDuplicateSlug(t *testing.T) {
	db := setupTestDB(t)

	mustCreateProduct(t, db, "Citrus Bloom", "65.00", 1)

	_, err := CreateProduct(context.Background(), db, CreateProductParams{
		Title:     "Citrus  Bloom",
		UnitPrice: decimal.RequireFromString("65.00"),
	})
	if !errors.Is(err, database.ErrAlreadyExists) {
		t.Errorf("Expected already exists error, got: %v", err)
	}
}

func TestRenameKeepsSlug(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	product := mustCreateProduct(t, db, "Aqua Marine", "60.00", 3)

	if err := UpdateProductTitle(ctx, db, product.ID, "Aqua Marine Intense"); err != nil {
		t.Fatalf("Rename product: %v", err)
	}

	renamed, err := GetProductBySlug(ctx, db, "aqua-marine")
	if err != nil {
		t.Fatalf("Get product by original slug: %v", err)
	}
	if renamed.Title != "Aqua Marine Intense" {
		t.Errorf("Expected renamed title, got %q", renamed.Title)
	}
}

func TestListProductsByCategory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	woody, err := CreateCategory(ctx, db, "Woody")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}
	fresh, err := CreateCategory(ctx, db, "Fresh")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	for _, p := range []struct {
		title    string
		category *int64
	}{
		{"Sandalwood Dusk", &woody.ID},
		{"Citrus Bloom", &fresh.ID},
		{"Aqua Marine", &fresh.ID},
		{"Unsorted", nil},
	} {
		_, err := CreateProduct(ctx, db, CreateProductParams{
			Title:      p.title,
			UnitPrice:  decimal.NewFromInt(50),
			CategoryID: p.category,
		})
		if err != nil {
			t.Fatalf("Create product %q: %v", p.title, err)
		}
	}

	all, err := ListProducts(ctx, db, "")
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 products, got %d", len(all))
	}

	freshOnly, err := ListProducts(ctx, db, "fresh")
	if err != nil {
		t.Fatalf("List fresh products: %v", err)
	}
	if len(freshOnly) != 2 || freshOnly[0].Title != "Citrus Bloom" || freshOnly[1].Title != "Aqua Marine" {
		t.Errorf("Unexpected fresh products: %+v", freshOnly)
	}

	none, err := ListProducts(ctx, db, "oriental")
	if err != nil {
		t.Fatalf("List unknown category: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no products for unknown category, got %d", len(none))
	}
}

func TestGetProductBySlugNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetProductBySlug(context.Background(), db, "missing")
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found, got: %v", err)
	}
}

func TestDeleteCategoryNullsProducts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	category, err := CreateCategory(ctx, db, "Oriental")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}
	product, err := CreateProduct(ctx, db, CreateProductParams{
		Title:      "Midnight Oud",
		UnitPrice:  decimal.NewFromInt(95),
		CategoryID: &category.ID,
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	if err := DeleteCategory(ctx, db, category.ID); err != nil {
		t.Fatalf("Delete category: %v", err)
	}

	after, err := GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if after.CategoryID != nil || after.CategorySlug != "" {
		t.Errorf("Expected product without category, got %v / %q", after.CategoryID, after.CategorySlug)
	}
}
