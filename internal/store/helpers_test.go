package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

func mustCreateProduct(t *testing.T, db *sql.DB, title, price string, quantity int) *models.Product {
	t.Helper()

	product, err := CreateProduct(context.Background(), db, CreateProductParams{
		Title:             title,
		UnitPrice:         decimal.RequireFromString(price),
		AvailableQuantity: quantity,
	})
	if err != nil {
		t.Fatalf("Create product %q: %v", title, err)
	}
	return product
}

func mustCreateUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()

	user, err := CreateUser(context.Background(), db, email, "Test User")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return user
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("Count %s: %v", table, err)
	}
	return n
}

func stockOf(t *testing.T, db *sql.DB, productID int64) int {
	t.Helper()

	product, err := GetProduct(context.Background(), db, productID)
	if err != nil {
		t.Fatalf("Get product %d: %v", productID, err)
	}
	return product.AvailableQuantity
}
