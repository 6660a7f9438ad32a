package store

import (
	"context"
	"database/sql"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so read paths can run inside
// or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Store binds the package functions to one connection pool and one set of
// transaction options.
type Store struct {
	db     *sql.DB
	txOpts database.TxOptions
}

func New(db *sql.DB, txOpts database.TxOptions) *Store {
	return &Store{db: db, txOpts: txOpts}
}

func (s *Store) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	return CreateCategory(ctx, s.db, name)
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	return ListCategories(ctx, s.db)
}

func (s *Store) CreateProduct(ctx context.Context, params CreateProductParams) (*models.Product, error) {
	return CreateProduct(ctx, s.db, params)
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return GetProductBySlug(ctx, s.db, slug)
}

func (s *Store) ListProducts(ctx context.Context, categorySlug string) ([]models.Product, error) {
	return ListProducts(ctx, s.db, categorySlug)
}

func (s *Store) SetStockOptimistic(ctx context.Context, productID int64, newStock, version int) error {
	return SetStockOptimistic(ctx, s.db, productID, newStock, version)
}

// Reserve takes stock outside of an order, for callers that hold goods
// aside before checkout.
func (s *Store) Reserve(ctx context.Context, productID int64, quantity int) (int, error) {
	return Reserve(ctx, s.db, s.txOpts, productID, quantity)
}

func (s *Store) Restock(ctx context.Context, productID int64, quantity int) (int, error) {
	return Restock(ctx, s.db, productID, quantity)
}

func (s *Store) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	return PlaceOrder(ctx, s.db, s.txOpts, req)
}

func (s *Store) AddLineItem(ctx context.Context, orderID, productID int64, quantity int) (*models.OrderItem, error) {
	return AddLineItem(ctx, s.db, s.txOpts, orderID, productID, quantity)
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return GetOrder(ctx, s.db, id)
}

func (s *Store) ListOrdersForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return ListOrdersForUser(ctx, s.db, userID)
}

func (s *Store) ListOrdersCursor(ctx context.Context, userID int64, cursor string, limit int) (*CursorPage, error) {
	return ListOrdersCursor(ctx, s.db, userID, cursor, limit)
}

func (s *Store) MarkShipped(ctx context.Context, orderID int64) (*models.Order, bool, error) {
	return MarkShipped(ctx, s.db, orderID)
}

func (s *Store) ShipNextPending(ctx context.Context) (*models.Order, error) {
	return ShipNextPending(ctx, s.db)
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func nullInt64(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
