package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/slug"
	"github.com/shopspring/decimal"
)

type SeedProduct struct {
	Title             string
	Description       string
	Category          string // category name
	UnitPrice         decimal.Decimal
	AvailableQuantity int
	ImageURL          string
}

type SeedResult struct {
	CategoriesCreated int
	ProductsCreated   int
}

// SeedCatalog inserts the categories and products that do not exist yet,
// matching categories by name and products by title. Running it twice
// creates nothing the second time.
func SeedCatalog(ctx context.Context, db *sql.DB, categories []string, products []SeedProduct) (SeedResult, error) {
	var result SeedResult

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		result = SeedResult{}
		ids := make(map[string]int64, len(categories))

		for _, name := range categories {
			name = strings.TrimSpace(name)
			res, err := tx.ExecContext(ctx,
				`INSERT INTO categories (name, slug, created_at)
				 VALUES ($1, $2, NOW())
				 ON CONFLICT (name) DO NOTHING`,
				name, slug.Make(name))
			if err != nil {
				return fmt.Errorf("seed category %q: %w", name, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				result.CategoriesCreated++
			}

			var id int64
			if err := tx.QueryRowContext(ctx,
				`SELECT id FROM categories WHERE name = $1`, name).Scan(&id); err != nil {
				return fmt.Errorf("read category %q: %w", name, err)
			}
			ids[name] = id
		}

		for _, p := range products {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM products WHERE title = $1)`, p.Title).Scan(&exists); err != nil {
				return fmt.Errorf("check product %q: %w", p.Title, err)
			}
			if exists {
				continue
			}

			params := CreateProductParams{
				Title:             p.Title,
				Description:       p.Description,
				UnitPrice:         p.UnitPrice,
				AvailableQuantity: p.AvailableQuantity,
				ImageURL:          p.ImageURL,
			}
			if p.Category != "" {
				id, ok := ids[p.Category]
				if !ok {
					return fmt.Errorf("product %q: %w: %s", p.Title, database.ErrCategoryNotFound, p.Category)
				}
				params.CategoryID = &id
			}

			if _, err := CreateProduct(ctx, tx, params); err != nil {
				return fmt.Errorf("seed product %q: %w", p.Title, err)
			}
			result.ProductsCreated++
		}

		return nil
	})

	return result, err
}
