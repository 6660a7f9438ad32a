package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/slug"
)

// CreateCategory derives the slug from name. Renames never touch the slug.
func CreateCategory(ctx context.Context, db DBTX, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	categorySlug := slug.Make(name)
	if categorySlug == "" {
		return nil, fmt.Errorf("category %q: %w", name, database.ErrInvalidSlug)
	}

	category := &models.Category{}

	query := `
		INSERT INTO categories (name, slug, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name, slug, created_at`

	err := db.QueryRowContext(ctx, query, name, categorySlug).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("category %q: %w", name, database.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	return category, nil
}

func GetCategoryBySlug(ctx context.Context, db DBTX, categorySlug string) (*models.Category, error) {
	category := &models.Category{}

	err := db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM categories WHERE slug = $1`,
		categorySlug).Scan(&category.ID, &category.Name, &category.Slug, &category.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	return category, nil
}

func ListCategories(ctx context.Context, db DBTX) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, slug, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}

// DeleteCategory leaves its products in place with no category.
func DeleteCategory(ctx context.Context, db DBTX, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCategoryNotFound
	}

	return nil
}
