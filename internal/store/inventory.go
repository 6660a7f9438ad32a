package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

// ReserveStock decrements available_quantity by quantity in a single
// conditional UPDATE, so the check and the write cannot be interleaved by a
// concurrent caller. It returns the remaining quantity.
func ReserveStock(ctx context.Context, tx DBTX, productID int64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, database.ErrInvalidQuantity
	}

	var remaining int
	err := tx.QueryRowContext(ctx,
		`UPDATE products
		 SET available_quantity = available_quantity - $1,
		     version = version + 1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND available_quantity >= $1
		 RETURNING available_quantity`,
		quantity, productID).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !database.IsNoRows(err) {
		return 0, fmt.Errorf("reserve stock: %w", err)
	}

	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT available_quantity FROM products WHERE id = $1`, productID).Scan(&available)
	if err != nil {
		if database.IsNoRows(err) {
			return 0, fmt.Errorf("%w: id %d", database.ErrProductNotFound, productID)
		}
		return 0, fmt.Errorf("read stock: %w", err)
	}

	return 0, &database.InsufficientStockError{
		ProductID: productID,
		Available: available,
		Requested: quantity,
	}
}

// Reserve runs ReserveStock in its own transaction.
func Reserve(ctx context.Context, db *sql.DB, opts database.TxOptions, productID int64, quantity int) (int, error) {
	var remaining int
	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		var err error
		remaining, err = ReserveStock(ctx, tx, productID, quantity)
		return err
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// Restock adds quantity to available_quantity and returns the new level.
func Restock(ctx context.Context, db DBTX, productID int64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, database.ErrInvalidQuantity
	}

	var available int
	err := db.QueryRowContext(ctx,
		`UPDATE products
		 SET available_quantity = available_quantity + $1,
		     version = version + 1,
		     updated_at = NOW()
		 WHERE id = $2
		 RETURNING available_quantity`,
		quantity, productID).Scan(&available)
	if err != nil {
		if database.IsNoRows(err) {
			return 0, fmt.Errorf("%w: id %d", database.ErrProductNotFound, productID)
		}
		return 0, fmt.Errorf("restock: %w", err)
	}

	return available, nil
}

// lockProducts takes row locks on every id in ascending id order. Concurrent
// orders touching overlapping products therefore lock in the same order and
// cannot deadlock each other. Missing ids are absent from the result.
func lockProducts(ctx context.Context, tx DBTX, ids []int64) (map[int64]*models.Product, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, title, slug, description, unit_price, available_quantity,
		        category_id, '', image_url, created_at, updated_at, version
		 FROM products
		 WHERE id = ANY($1)
		 ORDER BY id
		 FOR UPDATE`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	products := make(map[int64]*models.Product, len(ids))
	for rows.Next() {
		product := &models.Product{}
		if err := scanProduct(rows, product); err != nil {
			return nil, fmt.Errorf("scan locked product: %w", err)
		}
		products[product.ID] = product
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}
