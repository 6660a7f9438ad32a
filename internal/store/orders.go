package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

type PlaceOrderRequest struct {
	UserID       *int64
	ContactEmail string
	Lines        []OrderLine
}

type OrderLine struct {
	ProductID int64
	Quantity  int
}

// PlaceOrder creates the order, one item per line priced at the product's
// current unit price, and reserves stock for every line, all in one
// transaction. Any missing product or short line aborts the whole order.
// A product listed on several lines is checked against its summed quantity.
func PlaceOrder(ctx context.Context, db *sql.DB, opts database.TxOptions, req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Lines) == 0 {
		return nil, database.ErrEmptyOrder
	}

	requested := make(map[int64]int, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d quantity %d", database.ErrInvalidQuantity, line.ProductID, line.Quantity)
		}
		requested[line.ProductID] += line.Quantity
	}

	productIDs := make([]int64, 0, len(requested))
	for id := range requested {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	var order *models.Order

	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		products, err := lockProducts(ctx, tx, productIDs)
		if err != nil {
			return err
		}

		for _, line := range req.Lines {
			if _, ok := products[line.ProductID]; !ok {
				return fmt.Errorf("%w: id %d", database.ErrProductNotFound, line.ProductID)
			}
		}

		for _, line := range req.Lines {
			product := products[line.ProductID]
			if product.AvailableQuantity < requested[line.ProductID] {
				return &database.InsufficientStockError{
					ProductID: product.ID,
					Available: product.AvailableQuantity,
					Requested: requested[line.ProductID],
				}
			}
		}

		order = &models.Order{
			UserID:       req.UserID,
			ContactEmail: strings.TrimSpace(req.ContactEmail),
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, contact_email, shipped, created_at, updated_at)
			 VALUES ($1, $2, FALSE, NOW(), NOW())
			 RETURNING id, created_at`,
			nullInt64(req.UserID), order.ContactEmail).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return database.ErrUserNotFound
			}
			return fmt.Errorf("create order: %w", err)
		}

		order.Items = make([]models.OrderItem, 0, len(req.Lines))
		for _, line := range req.Lines {
			item, err := insertOrderItem(ctx, tx, order.ID, products[line.ProductID], line.Quantity)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, *item)
		}

		for _, id := range productIDs {
			if _, err := ReserveStock(ctx, tx, id, requested[id]); err != nil {
				return err
			}
		}

		order.Total = models.ItemsTotal(order.Items)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// AddLineItem appends one item to an unshipped order at the product's current
// price and reserves its stock in the same transaction. The shipped flag is
// read under the order's row lock, so a concurrent shipment either commits
// first and the item is refused, or waits for the item.
func AddLineItem(ctx context.Context, db *sql.DB, opts database.TxOptions, orderID, productID int64, quantity int) (*models.OrderItem, error) {
	if quantity <= 0 {
		return nil, database.ErrInvalidQuantity
	}

	var item *models.OrderItem

	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		var shipped bool
		err := tx.QueryRowContext(ctx,
			`SELECT shipped FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&shipped)
		if err != nil {
			if database.IsNoRows(err) {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if shipped {
			return fmt.Errorf("%w: id %d", database.ErrOrderShipped, orderID)
		}

		products, err := lockProducts(ctx, tx, []int64{productID})
		if err != nil {
			return err
		}
		product, ok := products[productID]
		if !ok {
			return fmt.Errorf("%w: id %d", database.ErrProductNotFound, productID)
		}

		if _, err := ReserveStock(ctx, tx, productID, quantity); err != nil {
			return err
		}

		item, err = insertOrderItem(ctx, tx, orderID, product, quantity)
		return err
	})

	if err != nil {
		return nil, err
	}

	return item, nil
}

func insertOrderItem(ctx context.Context, tx DBTX, orderID int64, product *models.Product, quantity int) (*models.OrderItem, error) {
	productID := product.ID
	item := &models.OrderItem{
		OrderID:             orderID,
		ProductID:           &productID,
		Quantity:            quantity,
		UnitPriceAtPurchase: product.UnitPrice,
	}

	err := tx.QueryRowContext(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price_at_purchase, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id, created_at`,
		orderID, productID, quantity, product.UnitPrice).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create order item: %w", err)
	}

	return item, nil
}

func scanOrder(row rowScanner, order *models.Order) error {
	var userID sql.NullInt64
	if err := row.Scan(&order.ID, &userID, &order.ContactEmail, &order.Shipped, &order.CreatedAt); err != nil {
		return err
	}
	order.UserID = nullableID(userID)
	return nil
}

func GetOrder(ctx context.Context, db DBTX, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, user_id, contact_email, shipped, created_at
		FROM orders
		WHERE id = $1`

	if err := scanOrder(db.QueryRowContext(ctx, query, id), order); err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsByOrder, err := loadOrderItems(ctx, db, []int64{id})
	if err != nil {
		return nil, err
	}

	order.Items = itemsByOrder[id]
	order.Total = models.ItemsTotal(order.Items)

	return order, nil
}

// ListOrdersForUser returns the user's orders newest first, items included.
func ListOrdersForUser(ctx context.Context, db DBTX, userID int64) ([]models.Order, error) {
	query := `
		SELECT id, user_id, contact_email, shipped, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := attachItems(ctx, db, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func ListOrdersCursor(ctx context.Context, db DBTX, userID int64, cursor string, limit int) (*CursorPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	var rows *sql.Rows
	if cursor == "" {
		rows, err = db.QueryContext(ctx, `
			SELECT id, user_id, contact_email, shipped, created_at
			FROM orders
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`,
			userID, limit+1)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT id, user_id, contact_email, shipped, created_at
			FROM orders
			WHERE user_id = $1
			  AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`,
			userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	if err := attachItems(ctx, db, orders); err != nil {
		return nil, err
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// MarkShipped sets the shipped flag. transitioned is true only for the one
// call that changed the order; marking an already shipped order is a no-op.
func MarkShipped(ctx context.Context, db DBTX, orderID int64) (order *models.Order, transitioned bool, err error) {
	result, err := db.ExecContext(ctx,
		`UPDATE orders SET shipped = TRUE, updated_at = NOW() WHERE id = $1 AND NOT shipped`,
		orderID)
	if err != nil {
		return nil, false, fmt.Errorf("mark shipped: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("get rows affected: %w", err)
	}

	order, err = GetOrder(ctx, db, orderID)
	if err != nil {
		return nil, false, err
	}
	return order, rowsAffected == 1, nil
}

// ShipNextPending claims the oldest unshipped order, skipping rows another
// worker already holds, and marks it shipped. ErrOrderNotFound means the
// queue is empty.
func ShipNextPending(ctx context.Context, db *sql.DB) (*models.Order, error) {
	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		next := &models.Order{}
		err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT id, user_id, contact_email, shipped, created_at
			 FROM orders
			 WHERE NOT shipped
			 ORDER BY created_at, id
			 LIMIT 1
			 FOR UPDATE SKIP LOCKED`), next)
		if err != nil {
			if database.IsNoRows(err) {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("get next pending order: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET shipped = TRUE, updated_at = NOW() WHERE id = $1`, next.ID); err != nil {
			return fmt.Errorf("mark shipped: %w", err)
		}

		order, err = GetOrder(ctx, tx, next.ID)
		return err
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func attachItems(ctx context.Context, db DBTX, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}

	itemsByOrder, err := loadOrderItems(ctx, db, ids)
	if err != nil {
		return err
	}

	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
		orders[i].Total = models.ItemsTotal(orders[i].Items)
	}

	return nil
}

func loadOrderItems(ctx context.Context, db DBTX, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price_at_purchase, created_at
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, id`,
		pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[int64][]models.OrderItem, len(orderIDs))
	for rows.Next() {
		var item models.OrderItem
		var productID sql.NullInt64
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&productID,
			&item.Quantity,
			&item.UnitPriceAtPurchase,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.ProductID = nullableID(productID)
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return itemsByOrder, nil
}
