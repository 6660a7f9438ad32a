package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/slug"
	"github.com/shopspring/decimal"
)

const productColumns = `
	p.id, p.title, p.slug, p.description, p.unit_price, p.available_quantity,
	p.category_id, COALESCE(c.slug, ''), p.image_url, p.created_at, p.updated_at, p.version`

const productFrom = `
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

type CreateProductParams struct {
	Title             string
	Slug              string // derived from Title when empty
	Description       string
	UnitPrice         decimal.Decimal
	AvailableQuantity int
	CategoryID        *int64
	ImageURL          string // PlaceholderImageURL when empty
}

func scanProduct(row rowScanner, product *models.Product) error {
	var categoryID sql.NullInt64
	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Slug,
		&product.Description,
		&product.UnitPrice,
		&product.AvailableQuantity,
		&categoryID,
		&product.CategorySlug,
		&product.ImageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
	if err != nil {
		return err
	}
	product.CategoryID = nullableID(categoryID)
	return nil
}

func CreateProduct(ctx context.Context, db DBTX, params CreateProductParams) (*models.Product, error) {
	if params.UnitPrice.IsNegative() {
		return nil, database.ErrNegativePrice
	}
	if params.AvailableQuantity < 0 {
		return nil, database.ErrInvalidQuantity
	}

	title := strings.TrimSpace(params.Title)
	productSlug := params.Slug
	if productSlug == "" {
		productSlug = slug.Make(title)
	}
	if productSlug == "" {
		return nil, fmt.Errorf("product %q: %w", title, database.ErrInvalidSlug)
	}

	imageURL := params.ImageURL
	if imageURL == "" {
		imageURL = models.PlaceholderImageURL
	}

	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO products (title, slug, description, unit_price, available_quantity,
		                      category_id, image_url, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), 1)
		RETURNING id`,
		title, productSlug, params.Description, params.UnitPrice, params.AvailableQuantity,
		nullInt64(params.CategoryID), imageURL).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("product slug %q: %w", productSlug, database.ErrAlreadyExists)
		}
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return GetProduct(ctx, db, id)
}

func GetProduct(ctx context.Context, db DBTX, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT` + productColumns + productFrom + ` WHERE p.id = $1`

	if err := scanProduct(db.QueryRowContext(ctx, query, id), product); err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func GetProductBySlug(ctx context.Context, db DBTX, productSlug string) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT` + productColumns + productFrom + ` WHERE p.slug = $1`

	if err := scanProduct(db.QueryRowContext(ctx, query, productSlug), product); err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by slug: %w", err)
	}

	return product, nil
}

// ListProducts returns every product in id order, or only those whose
// category slug equals categorySlug when it is non-empty.
func ListProducts(ctx context.Context, db DBTX, categorySlug string) ([]models.Product, error) {
	query := `SELECT` + productColumns + productFrom + `
		WHERE ($1::text = '' OR c.slug = $1::text)
		ORDER BY p.id`

	rows, err := db.QueryContext(ctx, query, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// UpdateProductTitle renames a product. The slug keeps its original value.
func UpdateProductTitle(ctx context.Context, db DBTX, id int64, title string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET title = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2`,
		strings.TrimSpace(title), id)
	if err != nil {
		return fmt.Errorf("update product title: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// DeleteProduct keeps historical order items; their product reference is cleared.
func DeleteProduct(ctx context.Context, db DBTX, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func SetStockOptimistic(ctx context.Context, db DBTX, productID int64, newStock int, version int) error {
	if newStock < 0 {
		return database.ErrInvalidQuantity
	}

	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET available_quantity = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND version = $3`,
		newStock, productID, version)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		if err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return database.ErrProductNotFound
		}
		return database.ErrOptimisticLockFailed
	}

	return nil
}
